package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mercatto/storefront/internal/cart"
	"github.com/mercatto/storefront/internal/coupon"
	"github.com/mercatto/storefront/internal/payment"
	"github.com/mercatto/storefront/internal/validation"
)

// CartStore is what the controller needs from the cart service: the snapshot
// at checkout start and the clear after a successful submission.
type CartStore interface {
	GetCart(ctx context.Context, userID string) (*cart.Cart, error)
	ClearCart(ctx context.Context, userID string) error
}

// Submitter posts the assembled order to the payment gateway.
type Submitter interface {
	Submit(ctx context.Context, req *payment.ChargeRequest) (*payment.Confirmation, error)
}

// CouponApplier validates and applies discount codes against a subtotal.
type CouponApplier interface {
	Validate(ctx context.Context, code string, subtotal decimal.Decimal) (*coupon.Validation, error)
	Apply(ctx context.Context, code string, subtotal decimal.Decimal) (*coupon.DiscountRecord, error)
}

// ShippingPolicy computes the shipping fee for a subtotal: a flat fee,
// waived at or above the free-shipping threshold (threshold zero disables
// the waiver check but the default fee is also zero).
type ShippingPolicy struct {
	FlatFee       decimal.Decimal
	FreeThreshold decimal.Decimal
}

func (p ShippingPolicy) Fee(subtotal decimal.Decimal) decimal.Decimal {
	if p.FreeThreshold.IsPositive() && subtotal.GreaterThanOrEqual(p.FreeThreshold) {
		return decimal.Zero
	}
	return p.FlatFee
}

// Controller drives the wizard: strictly sequential forward transitions
// gated on per-step validation, unconditional backward transitions, and the
// submit handshake on the payment step.
type Controller struct {
	sessions SessionRepository
	carts    CartStore
	coupons  CouponApplier
	gateway  Submitter
	shipping ShippingPolicy
	log      *zap.Logger
	now      func() time.Time
}

func NewController(
	sessions SessionRepository,
	carts CartStore,
	coupons CouponApplier,
	gateway Submitter,
	shipping ShippingPolicy,
	log *zap.Logger,
) *Controller {
	return &Controller{
		sessions: sessions,
		carts:    carts,
		coupons:  coupons,
		gateway:  gateway,
		shipping: shipping,
		log:      log,
		now:      time.Now,
	}
}

// Start opens a checkout session for the user's current cart. A repeated
// idempotency key returns the existing session instead of opening a second
// one.
func (c *Controller) Start(ctx context.Context, userID, idempotencyKey string) (*Session, error) {
	existing, err := c.sessions.GetSessionByIdempotencyKey(ctx, idempotencyKey)
	if err != nil && !errors.Is(err, ErrIdempotencyKeyNotFound) {
		return nil, fmt.Errorf("failed to check idempotency: %w", err)
	}
	if existing != nil {
		c.log.Info("duplicate checkout request",
			zap.String("idempotency_key", idempotencyKey),
			zap.String("checkout_id", existing.ID),
			zap.String("status", existing.Status.String()))
		return existing, nil
	}

	userCart, err := c.carts.GetCart(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	if userCart.IsEmpty() {
		return nil, ErrEmptyCart
	}

	subtotal := userCart.Subtotal()
	s := &Session{
		ID:             uuid.NewString(),
		UserID:         userID,
		IdempotencyKey: idempotencyKey,
		Step:           StepCart,
		Status:         StatusActive,
		Draft: OrderDraft{
			Items:       userCart.Items,
			Subtotal:    subtotal,
			ShippingFee: c.shipping.Fee(subtotal),
		},
	}

	if err := c.sessions.CreateSession(ctx, s); err != nil {
		return nil, err
	}

	c.log.Info("checkout started",
		zap.String("checkout_id", s.ID),
		zap.String("user_id", userID),
		zap.Int("items", len(s.Draft.Items)))
	return s, nil
}

// Advance validates the step payload, merges it into the draft and moves one
// step forward. On invalid input neither the draft nor the step changes. The
// payment step additionally submits the order and only reaches confirmation
// when the gateway accepts the charge.
func (c *Controller) Advance(ctx context.Context, sessionID string, patch *DraftPatch) (*Session, *payment.Confirmation, error) {
	s, err := c.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	if err := c.guard(s); err != nil {
		return nil, nil, err
	}

	switch s.Step {
	case StepCart:
		return c.advanceFromCart(ctx, s, patch)
	case StepShipping:
		return c.advanceFromShipping(ctx, s, patch)
	case StepPayment:
		return c.advanceFromPayment(ctx, s, patch)
	default:
		return nil, nil, fmt.Errorf("%w: cannot advance from %s", ErrIllegalTransition, s.Step)
	}
}

func (c *Controller) guard(s *Session) error {
	switch s.Status {
	case StatusCompleted:
		return ErrSessionCompleted
	case StatusAbandoned:
		return ErrSessionAbandoned
	case StatusSubmitting:
		return ErrSubmissionInFlight
	}
	return nil
}

func (c *Controller) advanceFromCart(ctx context.Context, s *Session, patch *DraftPatch) (*Session, *payment.Confirmation, error) {
	draft := Merge(s.Draft, patch)
	if len(draft.Items) == 0 {
		return nil, nil, ErrEmptyCart
	}
	draft.ShippingFee = c.shipping.Fee(draft.Subtotal)

	s.Draft = draft
	s.Step = s.Step.Next()
	if err := c.sessions.UpdateSession(ctx, s); err != nil {
		return nil, nil, err
	}
	return s, nil, nil
}

func (c *Controller) advanceFromShipping(ctx context.Context, s *Session, patch *DraftPatch) (*Session, *payment.Confirmation, error) {
	draft := Merge(s.Draft, patch)
	if draft.Address == nil {
		return nil, nil, validation.FieldErrors{"address": "shipping address is required"}
	}
	if errs := draft.Address.Validate(); len(errs) > 0 {
		return nil, nil, errs
	}

	s.Draft = draft
	s.Step = s.Step.Next()
	if err := c.sessions.UpdateSession(ctx, s); err != nil {
		return nil, nil, err
	}
	return s, nil, nil
}

func (c *Controller) advanceFromPayment(ctx context.Context, s *Session, patch *DraftPatch) (*Session, *payment.Confirmation, error) {
	draft := Merge(s.Draft, patch)
	if draft.Payment == nil {
		return nil, nil, validation.FieldErrors{"payment": "payment details are required"}
	}
	if errs := draft.Payment.Validate(c.now()); len(errs) > 0 {
		return nil, nil, errs
	}

	// Mark the session submitting before the network call so a concurrent
	// advance (double click) is rejected instead of charging twice.
	if !CanTransition(s.Status, StatusSubmitting) {
		return nil, nil, fmt.Errorf("%w: %s", ErrIllegalTransition, s.Status)
	}
	s.Status = StatusSubmitting
	if err := c.sessions.UpdateSession(ctx, s); err != nil {
		return nil, nil, err
	}

	conf, submitErr := c.gateway.Submit(ctx, &payment.ChargeRequest{
		IdempotencyKey: s.IdempotencyKey,
		UserID:         s.UserID,
		Amount:         draft.Total(),
		Currency:       "BRL",
		Details:        *draft.Payment,
	})
	if submitErr != nil {
		// Step and draft stay where they were: entered data survives and
		// the user can resubmit.
		s.Status = StatusActive
		if err := c.sessions.UpdateSession(ctx, s); err != nil {
			c.log.Error("failed to release submitting session",
				zap.String("checkout_id", s.ID), zap.Error(err))
		}
		c.log.Warn("order submission failed",
			zap.String("checkout_id", s.ID), zap.Error(submitErr))
		return nil, nil, submitErr
	}

	s.Draft = draft
	s.Step = StepConfirmation
	s.Status = StatusCompleted

	payload, err := c.completionPayload(s, conf)
	if err != nil {
		return nil, nil, err
	}
	if err := c.sessions.CompleteSession(ctx, s, payload); err != nil {
		return nil, nil, err
	}

	if err := c.carts.ClearCart(ctx, s.UserID); err != nil {
		c.log.Warn("failed to clear cart after checkout",
			zap.String("user_id", s.UserID), zap.Error(err))
	}

	c.log.Info("checkout completed",
		zap.String("checkout_id", s.ID),
		zap.String("order_id", conf.OrderID),
		zap.String("total", conf.Total.String()))
	return s, conf, nil
}

func (c *Controller) completionPayload(s *Session, conf *payment.Confirmation) ([]byte, error) {
	payload := map[string]interface{}{
		"checkout_id":      s.ID,
		"order_id":         conf.OrderID,
		"user_id":          s.UserID,
		"items":            s.Draft.Items,
		"subtotal":         s.Draft.Subtotal,
		"discount_percent": s.Draft.DiscountPercent,
		"coupon_code":      s.Draft.CouponCode,
		"shipping_fee":     s.Draft.ShippingFee,
		"total":            s.Draft.Total(),
		"payment_method":   s.Draft.Payment.Method,
		"completed_at":     c.now(),
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal checkout payload: %w", err)
	}
	return data, nil
}

// Retreat moves one step back, floored at the cart step, and never clears
// entered data: returning to a previous step pre-fills it from the draft.
func (c *Controller) Retreat(ctx context.Context, sessionID string) (*Session, error) {
	s, err := c.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := c.guard(s); err != nil {
		return nil, err
	}

	prev := s.Step.Prev()
	if prev == s.Step {
		return s, nil
	}

	s.Step = prev
	if err := c.sessions.UpdateSession(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// ApplyCoupon validates the code against the draft subtotal and records the
// discount. Re-applying the code already on the draft is idempotent and does
// not consume another use.
func (c *Controller) ApplyCoupon(ctx context.Context, sessionID, code string) (*Session, error) {
	s, err := c.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := c.guard(s); err != nil {
		return nil, err
	}

	if s.Draft.CouponCode == code {
		return s, nil
	}

	rec, err := c.coupons.Apply(ctx, code, s.Draft.Subtotal)
	if err != nil {
		return nil, err
	}

	s.Draft = Merge(s.Draft, &DraftPatch{Discount: rec})
	if err := c.sessions.UpdateSession(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Abandon discards an in-progress session; navigating away from checkout
// does this. Abandoning a completed session is rejected.
func (c *Controller) Abandon(ctx context.Context, sessionID string) error {
	s, err := c.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if !CanTransition(s.Status, StatusAbandoned) {
		return fmt.Errorf("%w: %s", ErrIllegalTransition, s.Status)
	}

	s.Status = StatusAbandoned
	return c.sessions.UpdateSession(ctx, s)
}

// Get returns the session for pre-filling step forms.
func (c *Controller) Get(ctx context.Context, sessionID string) (*Session, error) {
	return c.sessions.GetSession(ctx, sessionID)
}
