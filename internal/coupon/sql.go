package coupon

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type sqlRepository struct {
	db *sql.DB
}

// NewSQLRepository works against Postgres in production and SQLite in tests;
// the queries stick to the shared subset.
func NewSQLRepository(db *sql.DB) Repository {
	return &sqlRepository{db: db}
}

func (r *sqlRepository) GetByCode(ctx context.Context, code string) (*Coupon, error) {
	query := `
		SELECT code, description, discount_percent, min_subtotal, expires_at, usage_limit, usage_count, created_at
		FROM coupons
		WHERE code = $1
	`

	var (
		c                Coupon
		discount, minSub string
		expiresAt        sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, query, code).Scan(
		&c.Code,
		&c.Description,
		&discount,
		&minSub,
		&expiresAt,
		&c.UsageLimit,
		&c.UsageCount,
		&c.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCouponNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get coupon: %w", err)
	}

	if c.DiscountPercent, err = decimal.NewFromString(discount); err != nil {
		return nil, fmt.Errorf("invalid stored discount %q: %w", discount, err)
	}
	if c.MinSubtotal, err = decimal.NewFromString(minSub); err != nil {
		return nil, fmt.Errorf("invalid stored min subtotal %q: %w", minSub, err)
	}
	if expiresAt.Valid {
		c.ExpiresAt = expiresAt.Time
	}

	return &c, nil
}

// IncrementUsage records one redemption. The cap is enforced inside the
// UPDATE itself, so two concurrent applies racing for the last use cannot
// both get it.
func (r *sqlRepository) IncrementUsage(ctx context.Context, code string) error {
	query := `
		UPDATE coupons
		SET usage_count = usage_count + 1
		WHERE code = $1 AND (usage_limit = 0 OR usage_count < usage_limit)
	`

	result, err := r.db.ExecContext(ctx, query, code)
	if err != nil {
		return fmt.Errorf("failed to increment coupon usage: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if rows == 0 {
		if _, getErr := r.GetByCode(ctx, code); errors.Is(getErr, ErrCouponNotFound) {
			return ErrCouponNotFound
		}
		return fmt.Errorf("%w: coupon usage limit reached", ErrCouponRejected)
	}
	return nil
}

func (r *sqlRepository) ListActive(ctx context.Context) ([]*Coupon, error) {
	query := `
		SELECT code, description, discount_percent, min_subtotal, expires_at, usage_limit, usage_count, created_at
		FROM coupons
		WHERE expires_at IS NULL OR expires_at > $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to list coupons: %w", err)
	}
	defer rows.Close()

	var coupons []*Coupon
	for rows.Next() {
		var (
			c                Coupon
			discount, minSub string
			expiresAt        sql.NullTime
		)
		err := rows.Scan(
			&c.Code,
			&c.Description,
			&discount,
			&minSub,
			&expiresAt,
			&c.UsageLimit,
			&c.UsageCount,
			&c.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan coupon: %w", err)
		}
		if c.DiscountPercent, err = decimal.NewFromString(discount); err != nil {
			return nil, fmt.Errorf("invalid stored discount %q: %w", discount, err)
		}
		if c.MinSubtotal, err = decimal.NewFromString(minSub); err != nil {
			return nil, fmt.Errorf("invalid stored min subtotal %q: %w", minSub, err)
		}
		if expiresAt.Valid {
			c.ExpiresAt = expiresAt.Time
		}
		coupons = append(coupons, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return coupons, nil
}
