package coupon

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Service validates and applies discount codes. Validation is read-only and
// deterministic for a given coupon state, so re-validating an applied code
// yields the same answer.
type Service struct {
	repo Repository
	log  *zap.Logger
}

func NewService(repo Repository, log *zap.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// Validate answers whether code can be applied to subtotal. A missing or
// unusable coupon is a negative validation, not an error; errors are
// reserved for backend failures.
func (s *Service) Validate(ctx context.Context, code string, subtotal decimal.Decimal) (*Validation, error) {
	c, err := s.repo.GetByCode(ctx, code)
	if errors.Is(err, ErrCouponNotFound) {
		return &Validation{Valid: false, Message: "coupon not found"}, nil
	}
	if err != nil {
		return nil, err
	}

	now := time.Now()
	switch {
	case c.expired(now):
		return &Validation{Valid: false, Message: "coupon has expired"}, nil
	case c.exhausted():
		return &Validation{Valid: false, Message: "coupon usage limit reached"}, nil
	case subtotal.LessThan(c.MinSubtotal):
		return &Validation{
			Valid:   false,
			Message: fmt.Sprintf("subtotal must be at least %s", c.MinSubtotal.StringFixed(2)),
		}, nil
	}

	return &Validation{Valid: true, DiscountPercent: c.DiscountPercent}, nil
}

// Apply validates and records one use of the code. The caller is expected to
// apply a code at most once per checkout; re-applying the code already on
// the draft is handled upstream without a second Apply.
func (s *Service) Apply(ctx context.Context, code string, subtotal decimal.Decimal) (*DiscountRecord, error) {
	v, err := s.Validate(ctx, code, subtotal)
	if err != nil {
		return nil, err
	}
	if !v.Valid {
		return nil, fmt.Errorf("%w: %s", ErrCouponRejected, v.Message)
	}

	if err := s.repo.IncrementUsage(ctx, code); err != nil {
		return nil, err
	}

	s.log.Info("coupon applied",
		zap.String("code", code),
		zap.String("discount_percent", v.DiscountPercent.String()))

	return &DiscountRecord{Code: code, DiscountPercent: v.DiscountPercent}, nil
}

// ErrCouponRejected wraps a failed validation when the caller asked to apply.
var ErrCouponRejected = errors.New("coupon rejected")
