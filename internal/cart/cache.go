package cart

import (
	"context"
	"errors"
)

var ErrCacheMiss = errors.New("cart not in cache")

// Cache is a read-through cache in front of the repository.
type Cache interface {
	Get(ctx context.Context, userID string) (*Cart, error)
	Set(ctx context.Context, userID string, cart *Cart) error
	Delete(ctx context.Context, userID string) error
}
