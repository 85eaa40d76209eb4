package order

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// eventItem mirrors the cart line item shape frozen into the checkout
// completion payload.
type eventItem struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

// CheckoutCompletedEvent is the payload published from the checkout outbox.
type CheckoutCompletedEvent struct {
	CheckoutID      string          `json:"checkout_id"`
	OrderID         string          `json:"order_id"`
	UserID          string          `json:"user_id"`
	Items           []eventItem     `json:"items"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	CouponCode      string          `json:"coupon_code"`
	ShippingFee     decimal.Decimal `json:"shipping_fee"`
	Total           decimal.Decimal `json:"total"`
	PaymentMethod   string          `json:"payment_method"`
	CompletedAt     time.Time       `json:"completed_at"`
}

// MessageReader is the slice of kafka.Reader the consumer uses.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// Consumer turns completed checkouts into persisted orders. Events are
// delivered at least once; a duplicate checkout_id is skipped.
type Consumer struct {
	repo   Repository
	reader MessageReader
	log    *zap.Logger
	closer func() error
}

func NewConsumer(repo Repository, log *zap.Logger, brokers ...string) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    "checkout-completed",
		GroupID:  "orders-worker",
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{repo: repo, reader: reader, log: log, closer: reader.Close}
}

func (c *Consumer) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		c.processMessage(ctx)
	}
}

func (c *Consumer) Close() {
	if c.closer == nil {
		return
	}
	if err := c.closer(); err != nil {
		c.log.Error("failed to close kafka reader", zap.Error(err))
	}
}

func (c *Consumer) processMessage(ctx context.Context) {
	m, err := c.reader.ReadMessage(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		c.log.Error("failed to read message", zap.Error(err))
		return
	}

	var event CheckoutCompletedEvent
	if err := json.Unmarshal(m.Value, &event); err != nil {
		c.log.Error("failed to parse checkout event", zap.Error(err))
		return
	}
	if event.CheckoutID == "" {
		c.log.Error("checkout event without checkout_id, skipping")
		return
	}

	o := orderFromEvent(&event)
	if err := c.repo.CreateOrder(ctx, o); err != nil {
		if errors.Is(err, ErrDuplicateCheckout) {
			c.log.Info("order for checkout already exists, skipping",
				zap.String("checkout_id", event.CheckoutID))
			return
		}
		c.log.Error("failed to create order",
			zap.String("checkout_id", event.CheckoutID), zap.Error(err))
		return
	}

	c.log.Info("order created",
		zap.String("order_id", o.ID),
		zap.String("order_number", o.OrderNumber),
		zap.String("checkout_id", o.CheckoutID))
}

func orderFromEvent(event *CheckoutCompletedEvent) *Order {
	items := make([]Item, len(event.Items))
	for i, item := range event.Items {
		items[i] = Item{
			ProductID:   item.ProductID,
			ProductName: item.Name,
			UnitPrice:   item.UnitPrice,
			Quantity:    item.Quantity,
		}
	}

	// The gateway already assigned the order id; fall back to a fresh one
	// for events that predate it.
	id := uuid.New()
	if parsed, err := uuid.Parse(event.OrderID); err == nil {
		id = parsed
	}

	return &Order{
		ID:              id.String(),
		OrderNumber:     NewOrderNumber(id),
		CheckoutID:      event.CheckoutID,
		UserID:          event.UserID,
		Status:          StatusPaid,
		Items:           items,
		Subtotal:        event.Subtotal,
		DiscountPercent: event.DiscountPercent,
		ShippingFee:     event.ShippingFee,
		Total:           event.Total,
		Currency:        "BRL",
		CouponCode:      event.CouponCode,
		PaymentMethod:   event.PaymentMethod,
	}
}
