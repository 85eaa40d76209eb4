package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mercatto/storefront/internal/address"
	"github.com/mercatto/storefront/internal/checkout"
	"github.com/mercatto/storefront/internal/payment"
)

// CheckoutController is the wizard surface the handlers need.
type CheckoutController interface {
	Start(ctx context.Context, userID, idempotencyKey string) (*checkout.Session, error)
	Get(ctx context.Context, sessionID string) (*checkout.Session, error)
	Advance(ctx context.Context, sessionID string, patch *checkout.DraftPatch) (*checkout.Session, *payment.Confirmation, error)
	Retreat(ctx context.Context, sessionID string) (*checkout.Session, error)
	ApplyCoupon(ctx context.Context, sessionID, code string) (*checkout.Session, error)
	Abandon(ctx context.Context, sessionID string) error
}

type CheckoutHandler struct {
	controller CheckoutController
	log        *zap.Logger
}

func NewCheckoutHandler(controller CheckoutController, log *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{controller: controller, log: log}
}

type advanceRequest struct {
	Address *address.Address `json:"address,omitempty"`
	Payment *payment.Details `json:"payment,omitempty"`
}

type applyCouponRequest struct {
	Code string `json:"code"`
}

type sessionView struct {
	ID     string                `json:"id"`
	Step   string                `json:"step"`
	Status string                `json:"status"`
	Draft  checkout.OrderDraft   `json:"draft"`
	Totals sessionTotals         `json:"totals"`
	Order  *payment.Confirmation `json:"order,omitempty"`
}

type sessionTotals struct {
	Subtotal string `json:"subtotal"`
	Discount string `json:"discount"`
	Shipping string `json:"shipping"`
	Total    string `json:"total"`
}

func sessionResponse(s *checkout.Session, conf *payment.Confirmation) sessionView {
	return sessionView{
		ID:     s.ID,
		Step:   s.Step.String(),
		Status: s.Status.String(),
		Draft:  s.Draft,
		Totals: sessionTotals{
			Subtotal: s.Draft.Subtotal.StringFixed(2),
			Discount: s.Draft.Discount().StringFixed(2),
			Shipping: s.Draft.ShippingFee.StringFixed(2),
			Total:    s.Draft.Total().StringFixed(2),
		},
		Order: conf,
	}
}

// Start opens a session for the caller's cart. The Idempotency-Key header
// makes retried requests safe; absent, one is generated and the request is
// effectively at-most-once.
func (h *CheckoutHandler) Start(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())

	key := r.Header.Get("Idempotency-Key")
	if key == "" {
		key = uuid.NewString()
	}

	s, err := h.controller.Start(r.Context(), userID, key)
	if err != nil {
		respondServiceError(w, h.log, err)
		return
	}

	respondJSON(w, h.log, http.StatusCreated, sessionResponse(s, nil))
}

// session loads the session and scopes it to the caller. A session owned by
// somebody else is reported as missing, the same way orders are.
func (h *CheckoutHandler) session(w http.ResponseWriter, r *http.Request) (*checkout.Session, bool) {
	s, err := h.controller.Get(r.Context(), chi.URLParam(r, "session_id"))
	if err != nil {
		respondServiceError(w, h.log, err)
		return nil, false
	}
	if s.UserID != userIDFromContext(r.Context()) {
		respondError(w, h.log, http.StatusNotFound, "not_found", checkout.ErrSessionNotFound.Error())
		return nil, false
	}
	return s, true
}

func (h *CheckoutHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	respondJSON(w, h.log, http.StatusOK, sessionResponse(s, nil))
}

func (h *CheckoutHandler) Advance(w http.ResponseWriter, r *http.Request) {
	owned, ok := h.session(w, r)
	if !ok {
		return
	}

	var req advanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.log, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	patch := &checkout.DraftPatch{Address: req.Address, Payment: req.Payment}
	s, conf, err := h.controller.Advance(r.Context(), owned.ID, patch)
	if err != nil {
		respondServiceError(w, h.log, err)
		return
	}

	respondJSON(w, h.log, http.StatusOK, sessionResponse(s, conf))
}

func (h *CheckoutHandler) Retreat(w http.ResponseWriter, r *http.Request) {
	owned, ok := h.session(w, r)
	if !ok {
		return
	}

	s, err := h.controller.Retreat(r.Context(), owned.ID)
	if err != nil {
		respondServiceError(w, h.log, err)
		return
	}
	respondJSON(w, h.log, http.StatusOK, sessionResponse(s, nil))
}

func (h *CheckoutHandler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	owned, ok := h.session(w, r)
	if !ok {
		return
	}

	var req applyCouponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.log, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Code == "" {
		respondError(w, h.log, http.StatusBadRequest, "invalid_code", "code is required")
		return
	}

	s, err := h.controller.ApplyCoupon(r.Context(), owned.ID, req.Code)
	if err != nil {
		respondServiceError(w, h.log, err)
		return
	}
	respondJSON(w, h.log, http.StatusOK, sessionResponse(s, nil))
}

func (h *CheckoutHandler) Abandon(w http.ResponseWriter, r *http.Request) {
	owned, ok := h.session(w, r)
	if !ok {
		return
	}

	if err := h.controller.Abandon(r.Context(), owned.ID); err != nil {
		respondServiceError(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
