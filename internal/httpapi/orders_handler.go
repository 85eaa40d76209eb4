package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mercatto/storefront/internal/order"
)

type OrderService interface {
	Get(ctx context.Context, id string) (*order.Order, error)
	ListByUser(ctx context.Context, userID string) ([]*order.Order, error)
	Cancel(ctx context.Context, id string) error
}

type OrdersHandler struct {
	orders OrderService
	log    *zap.Logger
}

func NewOrdersHandler(orders OrderService, log *zap.Logger) *OrdersHandler {
	return &OrdersHandler{orders: orders, log: log}
}

func (h *OrdersHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())

	orders, err := h.orders.ListByUser(r.Context(), userID)
	if err != nil {
		respondServiceError(w, h.log, err)
		return
	}
	if orders == nil {
		orders = []*order.Order{}
	}

	respondJSON(w, h.log, http.StatusOK, orders)
}

func (h *OrdersHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())

	o, err := h.orders.Get(r.Context(), chi.URLParam(r, "order_id"))
	if err != nil {
		respondServiceError(w, h.log, err)
		return
	}
	if o.UserID != userID {
		respondError(w, h.log, http.StatusNotFound, "not_found", order.ErrOrderNotFound.Error())
		return
	}

	respondJSON(w, h.log, http.StatusOK, o)
}

func (h *OrdersHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())
	orderID := chi.URLParam(r, "order_id")

	o, err := h.orders.Get(r.Context(), orderID)
	if err != nil {
		respondServiceError(w, h.log, err)
		return
	}
	if o.UserID != userID {
		respondError(w, h.log, http.StatusNotFound, "not_found", order.ErrOrderNotFound.Error())
		return
	}

	if err := h.orders.Cancel(r.Context(), orderID); err != nil {
		respondServiceError(w, h.log, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
