package httpapi

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mercatto/storefront/internal/catalog"
	"github.com/mercatto/storefront/internal/payment"
)

type CatalogRepository interface {
	List(ctx context.Context, filter catalog.Filter) ([]*catalog.Product, error)
	GetProduct(ctx context.Context, id int64) (*catalog.Product, error)
}

type ProductsHandler struct {
	catalog CatalogRepository
	log     *zap.Logger
}

func NewProductsHandler(c CatalogRepository, log *zap.Logger) *ProductsHandler {
	return &ProductsHandler{catalog: c, log: log}
}

func (h *ProductsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := catalog.Filter{
		Query:    q.Get("q"),
		Category: q.Get("category"),
	}
	if v := q.Get("min_price"); v != "" {
		p, err := decimal.NewFromString(v)
		if err != nil {
			respondError(w, h.log, http.StatusBadRequest, "invalid_price", "min_price must be a number")
			return
		}
		filter.MinPrice = p
	}
	if v := q.Get("max_price"); v != "" {
		p, err := decimal.NewFromString(v)
		if err != nil {
			respondError(w, h.log, http.StatusBadRequest, "invalid_price", "max_price must be a number")
			return
		}
		filter.MaxPrice = p
	}
	filter.Page, _ = strconv.Atoi(q.Get("page"))
	filter.PageSize, _ = strconv.Atoi(q.Get("page_size"))

	products, err := h.catalog.List(r.Context(), filter)
	if err != nil {
		respondServiceError(w, h.log, err)
		return
	}
	if products == nil {
		products = []*catalog.Product{}
	}

	respondJSON(w, h.log, http.StatusOK, products)
}

func (h *ProductsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "product_id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, h.log, http.StatusBadRequest, "invalid_product_id", "product_id must be a positive integer")
		return
	}

	p, err := h.catalog.GetProduct(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.log, err)
		return
	}

	respondJSON(w, h.log, http.StatusOK, p)
}

// Installments previews the interest-free installment options for a product.
func (h *ProductsHandler) Installments(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "product_id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, h.log, http.StatusBadRequest, "invalid_product_id", "product_id must be a positive integer")
		return
	}

	p, err := h.catalog.GetProduct(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.log, err)
		return
	}

	max := 12
	if v := r.URL.Query().Get("max"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			max = n
		}
	}

	respondJSON(w, h.log, http.StatusOK, payment.InstallmentPlan(p.Price, max))
}
