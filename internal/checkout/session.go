package checkout

import "time"

// Status tracks a session through the submit handshake. A failed submission
// returns the session to ACTIVE so the user can retry.
type Status string

const (
	StatusActive     Status = "ACTIVE"
	StatusSubmitting Status = "SUBMITTING"
	StatusCompleted  Status = "COMPLETED"
	StatusAbandoned  Status = "ABANDONED"
)

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusAbandoned
}

func (s Status) String() string {
	return string(s)
}

// CanTransition encodes the allowed status moves.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusActive:
		return to == StatusSubmitting || to == StatusAbandoned
	case StatusSubmitting:
		return to == StatusCompleted || to == StatusActive
	default:
		return false
	}
}

// Session is one user's trip through the checkout wizard. The draft snapshot
// is frozen into the completion event at submission; the session itself is
// never reused afterwards.
type Session struct {
	ID             string     `json:"id"`
	UserID         string     `json:"user_id"`
	IdempotencyKey string     `json:"idempotency_key"`
	Step           Step       `json:"step"`
	Status         Status     `json:"status"`
	Draft          OrderDraft `json:"draft"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}
