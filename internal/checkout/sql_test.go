package checkout

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mercatto/storefront/internal/cart"
	"github.com/mercatto/storefront/internal/database"
)

func setupSQLRepo(t *testing.T) SessionRepository {
	t.Helper()

	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "checkout.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.RunMigrations(db, "sqlite", "../../migrations"))
	return NewSQLRepository(db)
}

func storedSession(key string) *Session {
	return &Session{
		ID:             "sess-" + key,
		UserID:         "user-1",
		IdempotencyKey: key,
		Step:           StepCart,
		Status:         StatusActive,
		Draft: OrderDraft{
			Items: []cart.LineItem{
				{ProductID: 1, Name: "Widget", UnitPrice: decimal.RequireFromString("10.00"), Quantity: 2},
			},
			Subtotal: decimal.RequireFromString("20.00"),
		},
	}
}

func TestSQLRepository_CreateAndGet(t *testing.T) {
	repo := setupSQLRepo(t)
	ctx := context.Background()

	s := storedSession("key-1")
	require.NoError(t, repo.CreateSession(ctx, s))

	got, err := repo.GetSession(ctx, s.ID)
	require.NoError(t, err)

	assert.Equal(t, s.UserID, got.UserID)
	assert.Equal(t, StepCart, got.Step)
	assert.Equal(t, StatusActive, got.Status)
	require.Len(t, got.Draft.Items, 1)
	assert.True(t, got.Draft.Subtotal.Equal(decimal.RequireFromString("20.00")),
		"got %s", got.Draft.Subtotal)
}

func TestSQLRepository_GetMissing(t *testing.T) {
	repo := setupSQLRepo(t)

	_, err := repo.GetSession(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = repo.GetSessionByIdempotencyKey(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrIdempotencyKeyNotFound)
}

func TestSQLRepository_GetByIdempotencyKey(t *testing.T) {
	repo := setupSQLRepo(t)
	ctx := context.Background()

	s := storedSession("key-1")
	require.NoError(t, repo.CreateSession(ctx, s))

	got, err := repo.GetSessionByIdempotencyKey(ctx, "key-1")
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)
}

func TestSQLRepository_Update(t *testing.T) {
	repo := setupSQLRepo(t)
	ctx := context.Background()

	s := storedSession("key-1")
	require.NoError(t, repo.CreateSession(ctx, s))

	s.Step = StepShipping
	require.NoError(t, repo.UpdateSession(ctx, s))

	got, err := repo.GetSession(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, StepShipping, got.Step)

	missing := storedSession("key-2")
	assert.ErrorIs(t, repo.UpdateSession(ctx, missing), ErrSessionNotFound)
}

func TestSQLRepository_CompleteWritesOutboxAtomically(t *testing.T) {
	repo := setupSQLRepo(t)
	ctx := context.Background()

	s := storedSession("key-1")
	require.NoError(t, repo.CreateSession(ctx, s))

	s.Step = StepConfirmation
	s.Status = StatusCompleted
	payload := []byte(`{"checkout_id":"` + s.ID + `"}`)
	require.NoError(t, repo.CompleteSession(ctx, s, payload))

	got, err := repo.GetSession(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)

	events, err := repo.GetUnprocessedEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, s.ID, events[0].AggregateID)
	assert.Equal(t, "checkout.completed", events[0].EventType)
	assert.JSONEq(t, string(payload), string(events[0].Payload))
}

func TestSQLRepository_CompleteMissingSessionWritesNothing(t *testing.T) {
	repo := setupSQLRepo(t)
	ctx := context.Background()

	s := storedSession("key-1")
	s.Status = StatusCompleted

	err := repo.CompleteSession(ctx, s, []byte(`{}`))
	assert.ErrorIs(t, err, ErrSessionNotFound)

	events, err := repo.GetUnprocessedEvents(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestSQLRepository_MarkEventProcessed(t *testing.T) {
	repo := setupSQLRepo(t)
	ctx := context.Background()

	s := storedSession("key-1")
	require.NoError(t, repo.CreateSession(ctx, s))
	s.Status = StatusCompleted
	require.NoError(t, repo.CompleteSession(ctx, s, []byte(`{}`)))

	events, err := repo.GetUnprocessedEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)

	require.NoError(t, repo.MarkEventProcessed(ctx, events[0].ID))

	events, err = repo.GetUnprocessedEvents(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}
