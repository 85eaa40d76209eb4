package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mercatto/storefront/internal/cart"
)

// CartService is the cart surface the handlers need.
type CartService interface {
	GetCart(ctx context.Context, userID string) (*cart.Cart, error)
	AddItem(ctx context.Context, userID string, item cart.LineItem) error
	UpdateQuantity(ctx context.Context, userID string, productID int64, quantity int) error
	RemoveItem(ctx context.Context, userID string, productID int64) error
	ClearCart(ctx context.Context, userID string) error
}

type CartHandler struct {
	carts CartService
	log   *zap.Logger
}

func NewCartHandler(carts CartService, log *zap.Logger) *CartHandler {
	return &CartHandler{carts: carts, log: log}
}

type addItemRequest struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	ImageRef  string          `json:"image_ref,omitempty"`
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())

	c, err := h.carts.GetCart(r.Context(), userID)
	if err != nil {
		respondServiceError(w, h.log, err)
		return
	}

	respondJSON(w, h.log, http.StatusOK, cartResponse(c))
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.log, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ProductID <= 0 {
		respondError(w, h.log, http.StatusBadRequest, "invalid_product_id", "product_id must be positive")
		return
	}
	if req.Name == "" {
		respondError(w, h.log, http.StatusBadRequest, "invalid_name", "name is required")
		return
	}
	if req.UnitPrice.IsNegative() {
		respondError(w, h.log, http.StatusBadRequest, "invalid_price", "unit_price must not be negative")
		return
	}

	item := cart.LineItem{
		ProductID: req.ProductID,
		Name:      req.Name,
		UnitPrice: req.UnitPrice,
		Quantity:  req.Quantity,
		ImageRef:  req.ImageRef,
		AddedAt:   time.Now(),
	}
	if err := h.carts.AddItem(r.Context(), userID, item); err != nil {
		respondServiceError(w, h.log, err)
		return
	}

	c, err := h.carts.GetCart(r.Context(), userID)
	if err != nil {
		respondServiceError(w, h.log, err)
		return
	}
	respondJSON(w, h.log, http.StatusCreated, cartResponse(c))
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())

	productID, err := strconv.ParseInt(chi.URLParam(r, "product_id"), 10, 64)
	if err != nil || productID <= 0 {
		respondError(w, h.log, http.StatusBadRequest, "invalid_product_id", "product_id must be a positive integer")
		return
	}

	var req updateQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.log, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if err := h.carts.UpdateQuantity(r.Context(), userID, productID, req.Quantity); err != nil {
		respondServiceError(w, h.log, err)
		return
	}

	c, err := h.carts.GetCart(r.Context(), userID)
	if err != nil {
		respondServiceError(w, h.log, err)
		return
	}
	respondJSON(w, h.log, http.StatusOK, cartResponse(c))
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())

	productID, err := strconv.ParseInt(chi.URLParam(r, "product_id"), 10, 64)
	if err != nil || productID <= 0 {
		respondError(w, h.log, http.StatusBadRequest, "invalid_product_id", "product_id must be a positive integer")
		return
	}

	if err := h.carts.RemoveItem(r.Context(), userID, productID); err != nil {
		respondServiceError(w, h.log, err)
		return
	}

	c, err := h.carts.GetCart(r.Context(), userID)
	if err != nil {
		respondServiceError(w, h.log, err)
		return
	}
	respondJSON(w, h.log, http.StatusOK, cartResponse(c))
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())

	if err := h.carts.ClearCart(r.Context(), userID); err != nil {
		respondServiceError(w, h.log, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type cartView struct {
	UserID    string          `json:"user_id"`
	Items     []cart.LineItem `json:"items"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	ItemCount int             `json:"item_count"`
}

func cartResponse(c *cart.Cart) cartView {
	items := c.Items
	if items == nil {
		items = []cart.LineItem{}
	}
	return cartView{
		UserID:    c.UserID,
		Items:     items,
		Subtotal:  c.Subtotal(),
		ItemCount: c.ItemCount(),
	}
}
