package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/fluxo-pos/internal/cart"
	"github.com/angelmondragon/fluxo-pos/internal/checkout"
	"github.com/angelmondragon/fluxo-pos/pkg/db/models"
	pkgerrors "github.com/angelmondragon/fluxo-pos/pkg/errors"
)

type stubProducts struct {
	rows []models.Product
	err  error
}

func (s stubProducts) Products(context.Context) ([]models.Product, error) {
	return s.rows, s.err
}

type stubCheckout struct {
	quote    *checkout.Quote
	result   *checkout.Result
	err      error
	lastReq  checkout.Request
	sessions []string
}

func (s *stubCheckout) Checkout(_ context.Context, sessionID string, req checkout.Request) (*checkout.Result, error) {
	s.sessions = append(s.sessions, sessionID)
	s.lastReq = req
	return s.result, s.err
}

func (s *stubCheckout) Quote(_ context.Context, sessionID string) (*checkout.Quote, error) {
	s.sessions = append(s.sessions, sessionID)
	return s.quote, s.err
}

func TestCartAddItemUsesCatalogPrice(t *testing.T) {
	product := models.Product{ID: uuid.New(), Name: "Empanada", Category: "food", Price: decimal.RequireFromString("2.50"), Active: true}
	sessions := cart.NewSessions()
	handler := CartAddItem(sessions, stubProducts{rows: []models.Product{product}}, nil)

	for i := 0; i < 2; i++ {
		body := strings.NewReader(`{"product_id":"` + product.ID.String() + `"}`)
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, newRequest(http.MethodPost, "/api/v1/cart/s1/items", body, map[string]string{"sessionId": "s1"}))
		if resp.Code != http.StatusCreated {
			t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
		}
	}

	c, ok := sessions.Peek("s1")
	if !ok {
		t.Fatalf("expected session cart to exist")
	}
	if c.Len() != 2 {
		t.Fatalf("expected 2 line items got %d", c.Len())
	}
	grouped := cart.Group(c.Items())
	if len(grouped) != 1 || grouped[0].Quantity != 2 || !grouped[0].Subtotal.Equal(decimal.RequireFromString("5")) {
		t.Fatalf("unexpected grouped view: %+v", grouped)
	}
}

func TestCartAddItemRejectsInactiveProduct(t *testing.T) {
	product := models.Product{ID: uuid.New(), Name: "Old", Price: decimal.NewFromInt(1), Active: false}
	handler := CartAddItem(cart.NewSessions(), stubProducts{rows: []models.Product{product}}, nil)

	body := strings.NewReader(`{"product_id":"` + product.ID.String() + `"}`)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, newRequest(http.MethodPost, "/api/v1/cart/s1/items", body, map[string]string{"sessionId": "s1"}))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestCartAddItemValidatesBody(t *testing.T) {
	handler := CartAddItem(cart.NewSessions(), stubProducts{}, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, newRequest(http.MethodPost, "/api/v1/cart/s1/items", strings.NewReader(`{"product_id":"nope"}`), map[string]string{"sessionId": "s1"}))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if code := decodeErrorCode(t, resp); code != string(pkgerrors.CodeValidation) {
		t.Fatalf("unexpected error code %s", code)
	}
}

func TestCartRemoveItem(t *testing.T) {
	sessions := cart.NewSessions()
	c := sessions.Get("s1")
	p := cart.Product{ID: "p-1", Name: "Coffee", Price: decimal.NewFromInt(3)}
	for i := 0; i < 3; i++ {
		c.Add(context.Background(), p)
	}
	handler := CartRemoveItem(sessions, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, newRequest(http.MethodDelete, "/api/v1/cart/s1/items/p-1", nil, map[string]string{"sessionId": "s1", "productId": "p-1"}))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if c.Len() != 2 {
		t.Fatalf("expected one unit removed, have %d", c.Len())
	}

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, newRequest(http.MethodDelete, "/api/v1/cart/s1/items/p-1?all=true", nil, map[string]string{"sessionId": "s1", "productId": "p-1"}))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if c.Len() != 0 {
		t.Fatalf("expected all units removed, have %d", c.Len())
	}

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, newRequest(http.MethodDelete, "/api/v1/cart/s1/items/p-1", nil, map[string]string{"sessionId": "s1", "productId": "p-1"}))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for absent product got %d", resp.Code)
	}
	var body cartItemsResponse
	decodeData(t, resp, &body)
	if body.Removed != 0 || body.Count != 0 || len(body.Items) != 0 {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestCartRemoveItemFromUnknownSessionIsNoop(t *testing.T) {
	sessions := cart.NewSessions()
	resp := httptest.NewRecorder()
	CartRemoveItem(sessions, nil).ServeHTTP(resp, newRequest(http.MethodDelete, "/api/v1/cart/ghost/items/p-1", nil, map[string]string{"sessionId": "ghost", "productId": "p-1"}))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if !strings.Contains(resp.Body.String(), `"items":[]`) {
		t.Fatalf("expected empty items array, got %s", resp.Body.String())
	}
	if _, ok := sessions.Peek("ghost"); ok {
		t.Fatalf("removal must not create a session")
	}
}

func TestCartAcceptsUppercaseProductIDs(t *testing.T) {
	product := models.Product{ID: uuid.New(), Name: "Taco", Price: decimal.NewFromInt(3), Active: true}
	sessions := cart.NewSessions()
	upper := strings.ToUpper(product.ID.String())

	resp := httptest.NewRecorder()
	CartAddItem(sessions, stubProducts{rows: []models.Product{product}}, nil).ServeHTTP(resp,
		newRequest(http.MethodPost, "/api/v1/cart/s1/items", strings.NewReader(`{"product_id":"`+upper+`"}`), map[string]string{"sessionId": "s1"}))
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}

	resp = httptest.NewRecorder()
	CartRemoveItem(sessions, nil).ServeHTTP(resp,
		newRequest(http.MethodDelete, "/api/v1/cart/s1/items/"+upper, nil, map[string]string{"sessionId": "s1", "productId": upper}))
	var body cartItemsResponse
	decodeData(t, resp, &body)
	if body.Removed != 1 || body.Count != 0 {
		t.Fatalf("expected the unit to be removed, got %+v", body)
	}
}

func TestCartClear(t *testing.T) {
	sessions := cart.NewSessions()
	c := sessions.Get("s1")
	c.Add(context.Background(), cart.Product{ID: "p-1", Name: "Tea", Price: decimal.NewFromInt(2)})

	resp := httptest.NewRecorder()
	CartClear(sessions, nil).ServeHTTP(resp, newRequest(http.MethodDelete, "/api/v1/cart/s1", nil, map[string]string{"sessionId": "s1"}))
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", resp.Code)
	}
	if c.Len() != 0 {
		t.Fatalf("expected empty cart")
	}
}

func TestCartQuote(t *testing.T) {
	svc := &stubCheckout{quote: &checkout.Quote{Count: 3, Offline: true}}
	resp := httptest.NewRecorder()
	CartQuote(svc, nil).ServeHTTP(resp, newRequest(http.MethodGet, "/api/v1/cart/s9", nil, map[string]string{"sessionId": "s9"}))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var quote checkout.Quote
	decodeData(t, resp, &quote)
	if quote.Count != 3 || !quote.Offline {
		t.Fatalf("unexpected quote %+v", quote)
	}
	if len(svc.sessions) != 1 || svc.sessions[0] != "s9" {
		t.Fatalf("expected session s9 to be quoted, got %v", svc.sessions)
	}
}

func TestCartQuoteRequiresSession(t *testing.T) {
	resp := httptest.NewRecorder()
	CartQuote(&stubCheckout{}, nil).ServeHTTP(resp, newRequest(http.MethodGet, "/api/v1/cart/", nil, nil))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
