package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// Submission error taxonomy. Declined and rejected are terminal for the
// attempt; unavailable means the request may not have reached the gateway.
var (
	ErrPaymentDeclined    = errors.New("payment declined")
	ErrSubmissionRejected = errors.New("submission rejected by gateway")
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
)

// ChargeRequest is the order-creation call the gateway expects. The draft's
// totals are computed upstream; the gateway charges Amount as given.
type ChargeRequest struct {
	IdempotencyKey string          `json:"idempotency_key"`
	UserID         string          `json:"user_id"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	Details        Details         `json:"payment"`
}

// Confirmation carries the gateway's artifacts: a transaction reference for
// cards, a QR payload for pix, a slip URL for bank_slip.
type Confirmation struct {
	OrderID     string          `json:"order_id"`
	Total       decimal.Decimal `json:"total"`
	PixQRCode   string          `json:"pix_qr_code,omitempty"`
	BankSlipURL string          `json:"bank_slip_url,omitempty"`
}

type gatewayError struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

// Gateway submits charges to the external payment provider. There is no
// automatic retry: resubmission is user-initiated, and the idempotency key
// makes it safe.
type Gateway struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[*Confirmation]
	log     *zap.Logger
}

func NewGateway(baseURL string, log *zap.Logger) *Gateway {
	breaker := gobreaker.NewCircuitBreaker[*Confirmation](gobreaker.Settings{
		Name:    "payment-gateway",
		Timeout: 15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		IsSuccessful: func(err error) bool {
			// Business refusals are healthy gateway responses.
			return err == nil || errors.Is(err, ErrPaymentDeclined) || errors.Is(err, ErrSubmissionRejected)
		},
	})
	return &Gateway{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
		breaker: breaker,
		log:     log,
	}
}

// Submit posts the charge and maps the response into the error taxonomy.
func (g *Gateway) Submit(ctx context.Context, req *ChargeRequest) (*Confirmation, error) {
	conf, err := g.breaker.Execute(func() (*Confirmation, error) {
		return g.post(ctx, req)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
		}
		return nil, err
	}
	return conf, nil
}

func (g *Gateway) post(ctx context.Context, req *ChargeRequest) (*Confirmation, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal charge request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/charges", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build charge request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Idempotency-Key", req.IdempotencyKey)

	resp, err := g.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
		var conf Confirmation
		if err := json.NewDecoder(resp.Body).Decode(&conf); err != nil {
			return nil, fmt.Errorf("failed to decode confirmation: %w", err)
		}
		g.log.Info("charge accepted",
			zap.String("order_id", conf.OrderID),
			zap.String("total", conf.Total.String()))
		return &conf, nil

	case resp.StatusCode == http.StatusPaymentRequired:
		return nil, fmt.Errorf("%w: %s", ErrPaymentDeclined, decodeReason(resp))

	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
		return nil, fmt.Errorf("%w: %s", ErrSubmissionRejected, decodeReason(resp))

	default:
		return nil, fmt.Errorf("%w: gateway returned status %d", ErrGatewayUnavailable, resp.StatusCode)
	}
}

func decodeReason(resp *http.Response) string {
	var body gatewayError
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "no reason given"
	}
	if body.Reason != "" {
		return body.Reason
	}
	if body.Error != "" {
		return body.Error
	}
	return "no reason given"
}
