package checkout

import (
	"context"
	"time"
)

// OutboxEvent is a completed-checkout fact waiting to be published. Payload
// is the completion JSON written in the same transaction that completed the
// session.
type OutboxEvent struct {
	ID          string
	AggregateID string
	EventType   string
	Payload     []byte
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

// SessionRepository persists checkout sessions and their outbox. Update
// writes step, status and draft together so a step advance and its draft
// merge are atomic.
type SessionRepository interface {
	CreateSession(ctx context.Context, s *Session) error
	GetSession(ctx context.Context, id string) (*Session, error)
	GetSessionByIdempotencyKey(ctx context.Context, key string) (*Session, error)
	UpdateSession(ctx context.Context, s *Session) error

	// CompleteSession marks the session COMPLETED and inserts the outbox
	// event in one transaction.
	CompleteSession(ctx context.Context, s *Session, payload []byte) error

	GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkEventProcessed(ctx context.Context, eventID string) error
}
