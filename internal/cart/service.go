package cart

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Service is the single write path for cart state. Reads go through the
// cache; every mutation hits the repository and invalidates the cached copy.
type Service struct {
	repo  Repository
	cache Cache
	log   *zap.Logger
	sfg   singleflight.Group // collapses concurrent misses for the same user
}

func NewService(repo Repository, cache Cache, log *zap.Logger) *Service {
	return &Service{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

// GetCart returns the user's cart, or an empty cart when none exists yet.
func (s *Service) GetCart(ctx context.Context, userID string) (*Cart, error) {
	v, err, _ := s.sfg.Do(userID, func() (interface{}, error) {
		c, err := s.cache.Get(ctx, userID)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			s.log.Warn("cache get failed", zap.String("user_id", userID), zap.Error(err))
		}

		c, err = s.repo.GetCart(ctx, userID)
		if errors.Is(err, ErrCartNotFound) {
			return &Cart{
				UserID:    userID,
				CreatedAt: time.Now(),
				UpdatedAt: time.Now(),
			}, nil
		}
		if err != nil {
			return nil, err
		}

		go func() {
			if err := s.cache.Set(context.Background(), userID, c); err != nil {
				s.log.Warn("cache set failed", zap.String("user_id", userID), zap.Error(err))
			}
		}()

		return c, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Cart), nil
}

func (s *Service) AddItem(ctx context.Context, userID string, item LineItem) error {
	if err := s.repo.AddItem(ctx, userID, item); err != nil {
		return err
	}
	s.invalidate(userID)
	return nil
}

// UpdateQuantity ignores requests below 1; removal is explicit via RemoveItem.
func (s *Service) UpdateQuantity(ctx context.Context, userID string, productID int64, quantity int) error {
	if quantity < 1 {
		return nil
	}
	if err := s.repo.UpdateItemQuantity(ctx, userID, productID, quantity); err != nil {
		return err
	}
	s.invalidate(userID)
	return nil
}

func (s *Service) RemoveItem(ctx context.Context, userID string, productID int64) error {
	err := s.repo.RemoveItem(ctx, userID, productID)
	if err != nil && !errors.Is(err, ErrCartNotFound) {
		return err
	}
	s.invalidate(userID)
	return nil
}

func (s *Service) ClearCart(ctx context.Context, userID string) error {
	err := s.repo.DeleteCart(ctx, userID)
	if err != nil && !errors.Is(err, ErrCartNotFound) {
		return err
	}
	s.invalidate(userID)
	return nil
}

func (s *Service) invalidate(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, userID); err != nil {
		s.log.Warn("cache invalidate failed", zap.String("user_id", userID), zap.Error(err))
	}
}
