package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// List returns products matching the filter, ordered by id for stable
// paging.
func (r *Repository) List(ctx context.Context, filter Filter) ([]*Product, error) {
	filter.normalize()

	var (
		conditions []string
		args       []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Query != "" {
		p := arg("%" + strings.ToLower(filter.Query) + "%")
		conditions = append(conditions, fmt.Sprintf("LOWER(name) LIKE %s", p))
	}
	if filter.Category != "" {
		conditions = append(conditions, fmt.Sprintf("category = %s", arg(filter.Category)))
	}
	if filter.MinPrice.IsPositive() {
		conditions = append(conditions, fmt.Sprintf("CAST(price AS NUMERIC) >= %s", arg(filter.MinPrice.String())))
	}
	if filter.MaxPrice.IsPositive() {
		conditions = append(conditions, fmt.Sprintf("CAST(price AS NUMERIC) <= %s", arg(filter.MaxPrice.String())))
	}

	query := `
		SELECT id, name, description, category, price, image_ref, created_at
		FROM products
	`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY id LIMIT %s OFFSET %s",
		arg(filter.PageSize), arg((filter.Page-1)*filter.PageSize))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []*Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return products, nil
}

func (r *Repository) GetProduct(ctx context.Context, id int64) (*Product, error) {
	query := `
		SELECT id, name, description, category, price, image_ref, created_at
		FROM products
		WHERE id = $1
	`
	p, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	return p, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*Product, error) {
	var (
		p     Product
		price string
	)
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Category, &price, &p.ImageRef, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan product: %w", err)
	}
	if p.Price, err = decimal.NewFromString(price); err != nil {
		return nil, fmt.Errorf("invalid stored price %q: %w", price, err)
	}
	return &p, nil
}
