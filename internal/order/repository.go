package order

import (
	"context"
	"errors"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrDuplicateCheckout = errors.New("order for this checkout already exists")
	ErrNotCancellable    = errors.New("order can no longer be cancelled")
)

type Repository interface {
	CreateOrder(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	GetByNumber(ctx context.Context, number string) (*Order, error)
	ListByUser(ctx context.Context, userID string) ([]*Order, error)
	UpdateStatus(ctx context.Context, id string, status Status) error
}
