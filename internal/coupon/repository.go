package coupon

import (
	"context"
	"errors"
)

var ErrCouponNotFound = errors.New("coupon not found")

type Repository interface {
	GetByCode(ctx context.Context, code string) (*Coupon, error)
	IncrementUsage(ctx context.Context, code string) error
	ListActive(ctx context.Context) ([]*Coupon, error)
}
