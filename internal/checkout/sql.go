package checkout

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type sqlRepository struct {
	db *sql.DB
}

// NewSQLRepository persists sessions and the outbox in the checkout_sessions
// and checkout_outbox tables. Drafts are stored as JSON.
func NewSQLRepository(db *sql.DB) SessionRepository {
	return &sqlRepository{db: db}
}

func (r *sqlRepository) CreateSession(ctx context.Context, s *Session) error {
	draftJSON, err := json.Marshal(s.Draft)
	if err != nil {
		return fmt.Errorf("failed to marshal draft: %w", err)
	}

	now := time.Now()
	s.CreatedAt = now
	s.UpdatedAt = now

	query := `
		INSERT INTO checkout_sessions (id, user_id, idempotency_key, step, status, draft, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = r.db.ExecContext(ctx, query,
		s.ID, s.UserID, s.IdempotencyKey, int(s.Step), string(s.Status), string(draftJSON), s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create checkout session: %w", err)
	}
	return nil
}

func (r *sqlRepository) GetSession(ctx context.Context, id string) (*Session, error) {
	query := `
		SELECT id, user_id, idempotency_key, step, status, draft, created_at, updated_at
		FROM checkout_sessions
		WHERE id = $1
	`
	return r.scanSession(r.db.QueryRowContext(ctx, query, id), ErrSessionNotFound)
}

func (r *sqlRepository) GetSessionByIdempotencyKey(ctx context.Context, key string) (*Session, error) {
	query := `
		SELECT id, user_id, idempotency_key, step, status, draft, created_at, updated_at
		FROM checkout_sessions
		WHERE idempotency_key = $1
	`
	return r.scanSession(r.db.QueryRowContext(ctx, query, key), ErrIdempotencyKeyNotFound)
}

func (r *sqlRepository) scanSession(row *sql.Row, missing error) (*Session, error) {
	var (
		s         Session
		step      int
		status    string
		draftJSON string
	)
	err := row.Scan(&s.ID, &s.UserID, &s.IdempotencyKey, &step, &status, &draftJSON, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, missing
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get checkout session: %w", err)
	}

	s.Step = Step(step)
	s.Status = Status(status)
	if err := json.Unmarshal([]byte(draftJSON), &s.Draft); err != nil {
		return nil, fmt.Errorf("failed to unmarshal draft for session %s: %w", s.ID, err)
	}
	return &s, nil
}

func (r *sqlRepository) UpdateSession(ctx context.Context, s *Session) error {
	draftJSON, err := json.Marshal(s.Draft)
	if err != nil {
		return fmt.Errorf("failed to marshal draft: %w", err)
	}
	s.UpdatedAt = time.Now()

	query := `
		UPDATE checkout_sessions
		SET step = $1, status = $2, draft = $3, updated_at = $4
		WHERE id = $5
	`
	result, err := r.db.ExecContext(ctx, query,
		int(s.Step), string(s.Status), string(draftJSON), s.UpdatedAt, s.ID)
	if err != nil {
		return fmt.Errorf("failed to update checkout session: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if rows == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (r *sqlRepository) CompleteSession(ctx context.Context, s *Session, payload []byte) error {
	draftJSON, err := json.Marshal(s.Draft)
	if err != nil {
		return fmt.Errorf("failed to marshal draft: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	s.UpdatedAt = now

	sessionQuery := `
		UPDATE checkout_sessions
		SET step = $1, status = $2, draft = $3, updated_at = $4
		WHERE id = $5
	`
	result, err := tx.ExecContext(ctx, sessionQuery,
		int(s.Step), string(s.Status), string(draftJSON), now, s.ID)
	if err != nil {
		return fmt.Errorf("failed to complete checkout session: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if rows == 0 {
		return ErrSessionNotFound
	}

	outboxQuery := `
		INSERT INTO checkout_outbox (id, aggregate_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err = tx.ExecContext(ctx, outboxQuery,
		uuid.NewString(), s.ID, "checkout.completed", string(payload), now)
	if err != nil {
		return fmt.Errorf("failed to insert outbox event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit checkout completion: %w", err)
	}
	return nil
}

func (r *sqlRepository) GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error) {
	query := `
		SELECT id, aggregate_id, event_type, payload, created_at
		FROM checkout_outbox
		WHERE processed_at IS NULL
		ORDER BY created_at
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch outbox events: %w", err)
	}
	defer rows.Close()

	var events []*OutboxEvent
	for rows.Next() {
		var (
			e       OutboxEvent
			payload string
		)
		if err := rows.Scan(&e.ID, &e.AggregateID, &e.EventType, &payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan outbox event: %w", err)
		}
		e.Payload = []byte(payload)
		events = append(events, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return events, nil
}

func (r *sqlRepository) MarkEventProcessed(ctx context.Context, eventID string) error {
	query := `UPDATE checkout_outbox SET processed_at = $1 WHERE id = $2`

	if _, err := r.db.ExecContext(ctx, query, time.Now(), eventID); err != nil {
		return fmt.Errorf("failed to mark event processed: %w", err)
	}
	return nil
}
