package catalog

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var ErrProductNotFound = errors.New("product not found")

type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	ImageRef    string          `json:"image_ref"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Filter narrows a product listing. Zero values mean no constraint; paging
// defaults to the first page of 20.
type Filter struct {
	Query    string
	Category string
	MinPrice decimal.Decimal
	MaxPrice decimal.Decimal
	Page     int
	PageSize int
}

func (f *Filter) normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 || f.PageSize > 100 {
		f.PageSize = 20
	}
}
