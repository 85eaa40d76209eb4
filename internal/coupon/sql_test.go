package coupon

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mercatto/storefront/internal/database"
)

func setupSQLRepo(t *testing.T) (Repository, *sql.DB) {
	t.Helper()

	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "coupons.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.RunMigrations(db, "sqlite", "../../migrations"))

	seed := `
		INSERT INTO coupons (code, description, discount_percent, min_subtotal, expires_at, usage_limit, usage_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	now := time.Now()
	_, err = db.Exec(seed, "SAVE10", "10% off orders over 20", "10", "20.00", now.Add(24*time.Hour), 100, 0, now)
	require.NoError(t, err)
	_, err = db.Exec(seed, "GONE", "expired promo", "25", "0", now.Add(-time.Hour), 0, 0, now)
	require.NoError(t, err)

	return NewSQLRepository(db), db
}

func TestSQLGetByCode(t *testing.T) {
	repo, _ := setupSQLRepo(t)

	c, err := repo.GetByCode(context.Background(), "SAVE10")
	require.NoError(t, err)
	assert.Equal(t, "SAVE10", c.Code)
	assert.True(t, c.DiscountPercent.IntPart() == 10)
	assert.Equal(t, "20", c.MinSubtotal.String())
	assert.Equal(t, 100, c.UsageLimit)

	_, err = repo.GetByCode(context.Background(), "NOPE")
	assert.ErrorIs(t, err, ErrCouponNotFound)
}

func TestSQLIncrementUsage(t *testing.T) {
	repo, _ := setupSQLRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.IncrementUsage(ctx, "SAVE10"))
	require.NoError(t, repo.IncrementUsage(ctx, "SAVE10"))

	c, err := repo.GetByCode(ctx, "SAVE10")
	require.NoError(t, err)
	assert.Equal(t, 2, c.UsageCount)

	assert.ErrorIs(t, repo.IncrementUsage(ctx, "NOPE"), ErrCouponNotFound)
}

func TestSQLIncrementUsageStopsAtCap(t *testing.T) {
	repo, db := setupSQLRepo(t)
	ctx := context.Background()

	_, err := db.Exec(`
		INSERT INTO coupons (code, description, discount_percent, min_subtotal, expires_at, usage_limit, usage_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, "LAST", "single use", "5", "0", nil, 1, 0, time.Now())
	require.NoError(t, err)

	require.NoError(t, repo.IncrementUsage(ctx, "LAST"))
	assert.ErrorIs(t, repo.IncrementUsage(ctx, "LAST"), ErrCouponRejected)

	c, err := repo.GetByCode(ctx, "LAST")
	require.NoError(t, err)
	assert.Equal(t, 1, c.UsageCount)
}

func TestSQLListActive(t *testing.T) {
	repo, _ := setupSQLRepo(t)

	coupons, err := repo.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, coupons, 1)
	assert.Equal(t, "SAVE10", coupons[0].Code)
}
