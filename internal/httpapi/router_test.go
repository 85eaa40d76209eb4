package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mercatto/storefront/internal/address"
	"github.com/mercatto/storefront/internal/cart"
	"github.com/mercatto/storefront/internal/catalog"
	"github.com/mercatto/storefront/internal/checkout"
	"github.com/mercatto/storefront/internal/coupon"
	"github.com/mercatto/storefront/internal/order"
	"github.com/mercatto/storefront/internal/payment"
	"github.com/mercatto/storefront/internal/validation"
)

type stubCarts struct {
	cart    *cart.Cart
	cleared bool
}

func (s *stubCarts) GetCart(context.Context, string) (*cart.Cart, error) { return s.cart, nil }
func (s *stubCarts) AddItem(_ context.Context, _ string, item cart.LineItem) error {
	s.cart.Add(item)
	return nil
}
func (s *stubCarts) UpdateQuantity(_ context.Context, _ string, productID int64, quantity int) error {
	s.cart.SetQuantity(productID, quantity)
	return nil
}
func (s *stubCarts) RemoveItem(_ context.Context, _ string, productID int64) error {
	s.cart.Remove(productID)
	return nil
}
func (s *stubCarts) ClearCart(context.Context, string) error {
	s.cleared = true
	s.cart.Clear()
	return nil
}

type stubController struct {
	session    *checkout.Session
	conf       *payment.Confirmation
	advanceErr error
}

func (s *stubController) Start(context.Context, string, string) (*checkout.Session, error) {
	return s.session, nil
}
func (s *stubController) Get(context.Context, string) (*checkout.Session, error) {
	return s.session, nil
}
func (s *stubController) Advance(context.Context, string, *checkout.DraftPatch) (*checkout.Session, *payment.Confirmation, error) {
	if s.advanceErr != nil {
		return nil, nil, s.advanceErr
	}
	return s.session, s.conf, nil
}
func (s *stubController) Retreat(context.Context, string) (*checkout.Session, error) {
	return s.session, nil
}
func (s *stubController) ApplyCoupon(context.Context, string, string) (*checkout.Session, error) {
	return s.session, nil
}
func (s *stubController) Abandon(context.Context, string) error { return nil }

type stubOrders struct {
	orders map[string]*order.Order
}

func (s *stubOrders) Get(_ context.Context, id string) (*order.Order, error) {
	o, ok := s.orders[id]
	if !ok {
		return nil, order.ErrOrderNotFound
	}
	return o, nil
}
func (s *stubOrders) ListByUser(_ context.Context, userID string) ([]*order.Order, error) {
	var out []*order.Order
	for _, o := range s.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}
func (s *stubOrders) Cancel(_ context.Context, id string) error {
	o, ok := s.orders[id]
	if !ok {
		return order.ErrOrderNotFound
	}
	if !o.Status.CanCancel() {
		return order.ErrNotCancellable
	}
	o.Status = order.StatusCancelled
	return nil
}

type stubCatalog struct {
	products map[int64]*catalog.Product
}

func (s *stubCatalog) List(context.Context, catalog.Filter) ([]*catalog.Product, error) {
	var out []*catalog.Product
	for _, p := range s.products {
		out = append(out, p)
	}
	return out, nil
}
func (s *stubCatalog) GetProduct(_ context.Context, id int64) (*catalog.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return nil, catalog.ErrProductNotFound
	}
	return p, nil
}

type stubCoupons struct{}

func (stubCoupons) Validate(_ context.Context, code string, _ decimal.Decimal) (*coupon.Validation, error) {
	if code != "SAVE10" {
		return &coupon.Validation{Valid: false, Message: "coupon not found"}, nil
	}
	return &coupon.Validation{Valid: true, DiscountPercent: decimal.NewFromInt(10)}, nil
}

type stubCEP struct{}

func (stubCEP) Lookup(_ context.Context, cep string) (*address.Partial, error) {
	if cep != "01310100" {
		return nil, address.ErrCEPNotFound
	}
	return &address.Partial{
		Street: "Avenida Paulista", City: "São Paulo", State: "SP", ZipCode: "01310-100",
	}, nil
}

type routerFixture struct {
	handler    http.Handler
	carts      *stubCarts
	controller *stubController
	orders     *stubOrders
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	log := zap.NewNop()

	carts := &stubCarts{cart: &cart.Cart{UserID: "user-1"}}
	session := &checkout.Session{
		ID:     "sess-1",
		UserID: "user-1",
		Step:   checkout.StepCart,
		Status: checkout.StatusActive,
		Draft:  checkout.OrderDraft{Subtotal: decimal.RequireFromString("25.00")},
	}
	controller := &stubController{session: session}
	orders := &stubOrders{orders: map[string]*order.Order{
		"o1": {ID: "o1", UserID: "user-1", OrderNumber: "ORD-AAAA1111", Status: order.StatusPending},
		"o2": {ID: "o2", UserID: "someone-else", Status: order.StatusPending},
	}}
	cat := &stubCatalog{products: map[int64]*catalog.Product{
		1: {ID: 1, Name: "Espresso Machine", Price: decimal.RequireFromString("899.90")},
	}}

	handler := NewRouter(Handlers{
		Cart:     NewCartHandler(carts, log),
		Checkout: NewCheckoutHandler(controller, log),
		Orders:   NewOrdersHandler(orders, log),
		Products: NewProductsHandler(cat, log),
		Coupons:  NewCouponHandler(stubCoupons{}, log),
		CEP:      NewCEPHandler(stubCEP{}, log),
	}, log)

	return &routerFixture{handler: handler, carts: carts, controller: controller, orders: orders}
}

func (f *routerFixture) do(t *testing.T, method, path, body string, authed bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if authed {
		req.Header.Set("X-User-ID", "user-1")
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func (f *routerFixture) doAs(t *testing.T, method, path, body, userID string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("X-User-ID", userID)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func TestRouter_RequiresAuth(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(t, http.MethodGet, "/api/v1/cart", "", false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/v1/products", "", false)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_CartFlow(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(t, http.MethodPost, "/api/v1/cart/items",
		`{"product_id":1,"name":"Widget","unit_price":"10.00","quantity":2}`, true)
	require.Equal(t, http.StatusCreated, rec.Code)

	var view cartView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, 2, view.ItemCount)
	assert.True(t, view.Subtotal.Equal(decimal.RequireFromString("20.00")))

	rec = f.do(t, http.MethodPut, "/api/v1/cart/items/1", `{"quantity":5}`, true)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, 5, view.ItemCount)

	rec = f.do(t, http.MethodDelete, "/api/v1/cart/items/1", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, 0, view.ItemCount)
}

func TestRouter_CartRejectsBadItem(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(t, http.MethodPost, "/api/v1/cart/items", `{"product_id":0}`, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/cart/items", `not json`, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_CheckoutAdvanceMapsErrors(t *testing.T) {
	f := newRouterFixture(t)

	cases := []struct {
		err  error
		code int
	}{
		{validation.FieldErrors{"expiry": "card is expired"}, http.StatusUnprocessableEntity},
		{payment.ErrPaymentDeclined, http.StatusPaymentRequired},
		{payment.ErrGatewayUnavailable, http.StatusServiceUnavailable},
		{checkout.ErrSubmissionInFlight, http.StatusConflict},
		{checkout.ErrSessionCompleted, http.StatusConflict},
	}
	for _, tc := range cases {
		f.controller.advanceErr = tc.err
		rec := f.do(t, http.MethodPost, "/api/v1/checkout/sess-1/advance", `{}`, true)
		assert.Equal(t, tc.code, rec.Code, "error %v", tc.err)
	}
}

func TestRouter_CheckoutAdvanceReturnsFieldErrors(t *testing.T) {
	f := newRouterFixture(t)
	f.controller.advanceErr = validation.FieldErrors{"zip_code": "zip code must match 00000-000"}

	rec := f.do(t, http.MethodPost, "/api/v1/checkout/sess-1/advance", `{}`, true)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "zip code must match 00000-000", resp.Fields["zip_code"])
}

func TestRouter_CheckoutStartAndGet(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(t, http.MethodPost, "/api/v1/checkout", "", true)
	require.Equal(t, http.StatusCreated, rec.Code)

	var view sessionView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, "sess-1", view.ID)
	assert.Equal(t, "cart", view.Step)
	assert.Equal(t, "25.00", view.Totals.Total)
}

func TestRouter_CheckoutScopedToOwner(t *testing.T) {
	f := newRouterFixture(t)

	for _, tc := range []struct {
		method, path, body string
	}{
		{http.MethodGet, "/api/v1/checkout/sess-1", ""},
		{http.MethodPost, "/api/v1/checkout/sess-1/advance", `{}`},
		{http.MethodPost, "/api/v1/checkout/sess-1/back", ""},
		{http.MethodPost, "/api/v1/checkout/sess-1/coupon", `{"code":"SAVE10"}`},
		{http.MethodDelete, "/api/v1/checkout/sess-1", ""},
	} {
		rec := f.doAs(t, tc.method, tc.path, tc.body, "someone-else")
		assert.Equal(t, http.StatusNotFound, rec.Code, "%s %s", tc.method, tc.path)
	}

	rec := f.do(t, http.MethodGet, "/api/v1/checkout/sess-1", "", true)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_OrdersScopedToUser(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(t, http.MethodGet, "/api/v1/orders/o1", "", true)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/v1/orders/o2", "", true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_OrderCancel(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(t, http.MethodPost, "/api/v1/orders/o1/cancel", "", true)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, order.StatusCancelled, f.orders.orders["o1"].Status)

	rec = f.do(t, http.MethodPost, "/api/v1/orders/o1/cancel", "", true)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRouter_CEPLookup(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(t, http.MethodGet, "/api/v1/cep/01310-100", "", false)
	require.Equal(t, http.StatusOK, rec.Code)

	var partial address.Partial
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &partial))
	assert.Equal(t, "Avenida Paulista", partial.Street)

	rec = f.do(t, http.MethodGet, "/api/v1/cep/99999999", "", false)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_CouponValidate(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(t, http.MethodPost, "/api/v1/coupons/validate",
		`{"code":"SAVE10","subtotal":"25.00"}`, false)
	require.Equal(t, http.StatusOK, rec.Code)

	var v coupon.Validation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	assert.True(t, v.Valid)

	rec = f.do(t, http.MethodPost, "/api/v1/coupons/validate",
		`{"code":"NOPE","subtotal":"25.00"}`, false)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	assert.False(t, v.Valid)
}

func TestRouter_ProductInstallments(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(t, http.MethodGet, "/api/v1/products/1/installments?max=3", "", false)
	require.Equal(t, http.StatusOK, rec.Code)

	var options []payment.InstallmentOption
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &options))
	require.Len(t, options, 3)
	assert.Equal(t, "cash price 899.90", options[0].Label)
}
