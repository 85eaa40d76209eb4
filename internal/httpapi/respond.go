package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/mercatto/storefront/internal/address"
	"github.com/mercatto/storefront/internal/catalog"
	"github.com/mercatto/storefront/internal/checkout"
	"github.com/mercatto/storefront/internal/coupon"
	"github.com/mercatto/storefront/internal/order"
	"github.com/mercatto/storefront/internal/payment"
	"github.com/mercatto/storefront/internal/validation"
)

type ErrorResponse struct {
	Error  string            `json:"error"`
	Code   string            `json:"code,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

func respondJSON(w http.ResponseWriter, log *zap.Logger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error("failed to encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, log *zap.Logger, status int, code, message string) {
	respondJSON(w, log, status, ErrorResponse{Error: message, Code: code})
}

// respondServiceError maps domain errors onto HTTP statuses. Field-level
// validation failures come back as 422 with the per-field messages.
func respondServiceError(w http.ResponseWriter, log *zap.Logger, err error) {
	var fieldErrs validation.FieldErrors
	if errors.As(err, &fieldErrs) {
		respondJSON(w, log, http.StatusUnprocessableEntity, ErrorResponse{
			Error:  "validation failed",
			Code:   "validation_failed",
			Fields: fieldErrs,
		})
		return
	}

	switch {
	case errors.Is(err, checkout.ErrSessionNotFound),
		errors.Is(err, order.ErrOrderNotFound),
		errors.Is(err, catalog.ErrProductNotFound),
		errors.Is(err, address.ErrCEPNotFound),
		errors.Is(err, coupon.ErrCouponNotFound):
		respondError(w, log, http.StatusNotFound, "not_found", err.Error())

	case errors.Is(err, checkout.ErrEmptyCart),
		errors.Is(err, address.ErrCEPInvalid):
		respondError(w, log, http.StatusBadRequest, "invalid_request", err.Error())

	case errors.Is(err, checkout.ErrSessionCompleted),
		errors.Is(err, checkout.ErrSessionAbandoned),
		errors.Is(err, checkout.ErrSubmissionInFlight),
		errors.Is(err, checkout.ErrIllegalTransition),
		errors.Is(err, order.ErrNotCancellable):
		respondError(w, log, http.StatusConflict, "conflict", err.Error())

	case errors.Is(err, coupon.ErrCouponRejected):
		respondError(w, log, http.StatusUnprocessableEntity, "coupon_rejected", err.Error())

	case errors.Is(err, payment.ErrPaymentDeclined):
		respondError(w, log, http.StatusPaymentRequired, "payment_declined", err.Error())

	case errors.Is(err, payment.ErrSubmissionRejected):
		respondError(w, log, http.StatusUnprocessableEntity, "submission_rejected", err.Error())

	case errors.Is(err, payment.ErrGatewayUnavailable):
		respondError(w, log, http.StatusServiceUnavailable, "gateway_unavailable", err.Error())

	default:
		log.Error("internal error", zap.Error(err))
		respondError(w, log, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
