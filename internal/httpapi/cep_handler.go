package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mercatto/storefront/internal/address"
)

type CEPLookup interface {
	Lookup(ctx context.Context, cep string) (*address.Partial, error)
}

type CEPHandler struct {
	cep CEPLookup
	log *zap.Logger
}

func NewCEPHandler(cep CEPLookup, log *zap.Logger) *CEPHandler {
	return &CEPHandler{cep: cep, log: log}
}

// Lookup accepts the CEP with or without the dash and returns the partial
// address for form autofill.
func (h *CEPHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	cep := strings.ReplaceAll(chi.URLParam(r, "cep"), "-", "")

	partial, err := h.cep.Lookup(r.Context(), cep)
	if err != nil {
		respondServiceError(w, h.log, err)
		return
	}

	respondJSON(w, h.log, http.StatusOK, partial)
}
