package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type sqlRepository struct {
	db *sql.DB
}

// NewSQLRepository persists orders in the orders and order_items tables.
// Money columns are stored as strings to keep decimal exactness across
// Postgres and SQLite.
func NewSQLRepository(db *sql.DB) Repository {
	return &sqlRepository{db: db}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func (r *sqlRepository) CreateOrder(ctx context.Context, o *Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	o.CreatedAt = now
	o.UpdatedAt = now

	orderQuery := `
		INSERT INTO orders (id, order_number, checkout_id, user_id, status, subtotal, discount_percent,
		                    shipping_fee, total, currency, coupon_code, payment_method, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err = tx.ExecContext(ctx, orderQuery,
		o.ID, o.OrderNumber, o.CheckoutID, o.UserID, string(o.Status),
		o.Subtotal.String(), o.DiscountPercent.String(), o.ShippingFee.String(), o.Total.String(),
		o.Currency, o.CouponCode, o.PaymentMethod, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateCheckout
		}
		return fmt.Errorf("failed to insert order: %w", err)
	}

	itemQuery := `
		INSERT INTO order_items (id, order_id, product_id, product_name, unit_price, quantity)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	for _, item := range o.Items {
		_, err = tx.ExecContext(ctx, itemQuery,
			uuid.NewString(), o.ID, item.ProductID, item.ProductName, item.UnitPrice.String(), item.Quantity)
		if err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit order: %w", err)
	}
	return nil
}

func (r *sqlRepository) GetByID(ctx context.Context, id string) (*Order, error) {
	return r.getOne(ctx, "id", id)
}

func (r *sqlRepository) GetByNumber(ctx context.Context, number string) (*Order, error) {
	return r.getOne(ctx, "order_number", number)
}

func (r *sqlRepository) getOne(ctx context.Context, column, value string) (*Order, error) {
	query := fmt.Sprintf(`
		SELECT id, order_number, checkout_id, user_id, status, subtotal, discount_percent,
		       shipping_fee, total, currency, coupon_code, payment_method, created_at, updated_at
		FROM orders
		WHERE %s = $1
	`, column)

	o, err := scanOrder(r.db.QueryRowContext(ctx, query, value))
	if err != nil {
		return nil, err
	}

	items, err := r.loadItems(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return o, nil
}

func (r *sqlRepository) ListByUser(ctx context.Context, userID string) ([]*Order, error) {
	query := `
		SELECT id, order_number, checkout_id, user_id, status, subtotal, discount_percent,
		       shipping_fee, total, currency, coupon_code, payment_method, created_at, updated_at
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var orders []*Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	for _, o := range orders {
		items, err := r.loadItems(ctx, o.ID)
		if err != nil {
			return nil, err
		}
		o.Items = items
	}
	return orders, nil
}

func (r *sqlRepository) UpdateStatus(ctx context.Context, id string, status Status) error {
	query := `UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3`

	result, err := r.db.ExecContext(ctx, query, string(status), time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if rows == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *sqlRepository) loadItems(ctx context.Context, orderID string) ([]Item, error) {
	query := `
		SELECT product_id, product_name, unit_price, quantity
		FROM order_items
		WHERE order_id = $1
	`
	rows, err := r.db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var (
			item  Item
			price string
		)
		if err := rows.Scan(&item.ProductID, &item.ProductName, &price, &item.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		if item.UnitPrice, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("invalid stored unit price %q: %w", price, err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return items, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*Order, error) {
	var (
		o                                   Order
		status                              string
		subtotal, discount, shipping, total string
		couponCode                          sql.NullString
	)
	err := row.Scan(&o.ID, &o.OrderNumber, &o.CheckoutID, &o.UserID, &status,
		&subtotal, &discount, &shipping, &total,
		&o.Currency, &couponCode, &o.PaymentMethod, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan order: %w", err)
	}

	o.Status = Status(status)
	o.CouponCode = couponCode.String
	if o.Subtotal, err = decimal.NewFromString(subtotal); err != nil {
		return nil, fmt.Errorf("invalid stored subtotal %q: %w", subtotal, err)
	}
	if o.DiscountPercent, err = decimal.NewFromString(discount); err != nil {
		return nil, fmt.Errorf("invalid stored discount %q: %w", discount, err)
	}
	if o.ShippingFee, err = decimal.NewFromString(shipping); err != nil {
		return nil, fmt.Errorf("invalid stored shipping fee %q: %w", shipping, err)
	}
	if o.Total, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("invalid stored total %q: %w", total, err)
	}
	return &o, nil
}
