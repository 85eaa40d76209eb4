package order

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

type Service struct {
	repo Repository
	log  *zap.Logger
}

func NewService(repo Repository, log *zap.Logger) *Service {
	return &Service{repo: repo, log: log}
}

func (s *Service) Get(ctx context.Context, id string) (*Order, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByNumber(ctx context.Context, number string) (*Order, error) {
	return s.repo.GetByNumber(ctx, number)
}

func (s *Service) ListByUser(ctx context.Context, userID string) ([]*Order, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Cancel moves the order to cancelled if it has not progressed past
// processing.
func (s *Service) Cancel(ctx context.Context, id string) error {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !o.Status.CanCancel() {
		return fmt.Errorf("%w: status is %s", ErrNotCancellable, o.Status)
	}

	if err := s.repo.UpdateStatus(ctx, id, StatusCancelled); err != nil {
		return err
	}

	s.log.Info("order cancelled",
		zap.String("order_id", id),
		zap.String("order_number", o.OrderNumber))
	return nil
}
