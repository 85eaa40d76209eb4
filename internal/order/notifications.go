package order

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/mercatto/storefront/internal/notify"
)

// PaymentEvent is a status update pushed by the payment gateway for methods
// that settle after checkout (pix, bank slip).
type PaymentEvent struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

// NewPaymentListener returns a notification handler that applies gateway
// payment updates to stored orders. Unknown statuses are ignored; the
// gateway only ever reports settlement outcomes.
func NewPaymentListener(repo Repository, log *zap.Logger) notify.Handler {
	allowed := map[Status]bool{
		StatusPaid:      true,
		StatusCancelled: true,
	}

	return func(msg []byte) {
		var event PaymentEvent
		if err := json.Unmarshal(msg, &event); err != nil {
			log.Error("failed to parse payment event", zap.Error(err))
			return
		}

		status := Status(event.Status)
		if event.OrderID == "" || !allowed[status] {
			log.Warn("ignoring payment event",
				zap.String("order_id", event.OrderID),
				zap.String("status", event.Status))
			return
		}

		if err := repo.UpdateStatus(context.Background(), event.OrderID, status); err != nil {
			log.Error("failed to apply payment event",
				zap.String("order_id", event.OrderID),
				zap.String("status", event.Status),
				zap.Error(err))
			return
		}

		log.Info("order status updated from payment event",
			zap.String("order_id", event.OrderID),
			zap.String("status", event.Status))
	}
}
