package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mercatto/storefront/internal/coupon"
)

type CouponValidator interface {
	Validate(ctx context.Context, code string, subtotal decimal.Decimal) (*coupon.Validation, error)
}

type CouponHandler struct {
	coupons CouponValidator
	log     *zap.Logger
}

func NewCouponHandler(coupons CouponValidator, log *zap.Logger) *CouponHandler {
	return &CouponHandler{coupons: coupons, log: log}
}

type validateCouponRequest struct {
	Code     string          `json:"code"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// Validate is the dry-run used by the cart page: it answers whether the code
// would apply without consuming a use.
func (h *CouponHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req validateCouponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.log, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Code == "" {
		respondError(w, h.log, http.StatusBadRequest, "invalid_code", "code is required")
		return
	}

	v, err := h.coupons.Validate(r.Context(), req.Code, req.Subtotal)
	if err != nil {
		respondServiceError(w, h.log, err)
		return
	}

	respondJSON(w, h.log, http.StatusOK, v)
}
