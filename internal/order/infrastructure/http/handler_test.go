package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	catalogdom "github.com/yelmuratov/NewEra-Cash-Carry/internal/catalog/domain"
	"github.com/yelmuratov/NewEra-Cash-Carry/internal/order/application"
	"github.com/yelmuratov/NewEra-Cash-Carry/internal/order/domain"
	userdom "github.com/yelmuratov/NewEra-Cash-Carry/internal/user/domain"
)

type memRepo struct {
	orders map[string]domain.Order
}

func (r *memRepo) CreateWithStock(_ context.Context, o domain.Order, _ string, _ []byte, _ map[string]string, _ string) error {
	r.orders[o.ID] = o
	return nil
}

func (r *memRepo) Find(_ context.Context, id string) (domain.Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrNotFound
	}
	return o, nil
}

func (r *memRepo) GetView(_ context.Context, id string) (application.OrderView, error) {
	o, ok := r.orders[id]
	if !ok {
		return application.OrderView{}, domain.ErrNotFound
	}
	return application.OrderView{ID: o.ID, UserID: o.UserID, TotalCents: o.TotalCents}, nil
}

func (r *memRepo) ListViews(context.Context) ([]application.OrderView, error) {
	return nil, nil
}

func (r *memRepo) UpdateStatus(_ context.Context, id string, status domain.Status, _ string, _ []byte, _ map[string]string, _ string) error {
	o, ok := r.orders[id]
	if !ok {
		return domain.ErrNotFound
	}
	o.Status = status
	r.orders[id] = o
	return nil
}

func (r *memRepo) Delete(_ context.Context, id string, _ string, _ []byte, _ map[string]string, _ string) error {
	if _, ok := r.orders[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.orders, id)
	return nil
}

type memCatalog struct {
	products map[string]catalogdom.Product
}

func (c *memCatalog) FindByID(_ context.Context, id string) (catalogdom.Product, error) {
	p, ok := c.products[id]
	if !ok {
		return catalogdom.Product{}, catalogdom.ErrNotFound
	}
	return p, nil
}

type memUsers struct{}

func (memUsers) FindByID(_ context.Context, id string) (userdom.User, error) {
	if id != "u1" {
		return userdom.User{}, userdom.ErrNotFound
	}
	return userdom.User{ID: id}, nil
}

func testHandler() (*Handler, *memRepo) {
	repo := &memRepo{orders: make(map[string]domain.Order)}
	cat := &memCatalog{products: map[string]catalogdom.Product{
		"p1": {ID: "p1", Name: "Rice 5kg", PriceCents: 1000, Stock: 3},
	}}
	svc := application.NewService(repo, cat, memUsers{}, func() string { return "order-1" })
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewHandler(log, svc), repo
}

func doRequest(t *testing.T, h *Handler, method, path, userID, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if userID != "" {
		req.Header.Set(UserHeader, userID)
	}
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)
	return rec
}

func TestCreateOrderEndpoint(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		h, _ := testHandler()
		rec := doRequest(t, h, http.MethodPost, "/orders", "u1",
			`{"items":[{"product_id":"p1","quantity":2}]}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		var resp struct {
			OrderID    string `json:"order_id"`
			TotalCents int64  `json:"total_cents"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("invalid response body: %v", err)
		}
		if resp.OrderID != "order-1" || resp.TotalCents != 2000 {
			t.Fatalf("unexpected response: %+v", resp)
		}
	})

	t.Run("missing caller identity", func(t *testing.T) {
		h, _ := testHandler()
		rec := doRequest(t, h, http.MethodPost, "/orders", "",
			`{"items":[{"product_id":"p1","quantity":1}]}`)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("insufficient stock maps to 400 with the shortfall message", func(t *testing.T) {
		h, _ := testHandler()
		rec := doRequest(t, h, http.MethodPost, "/orders", "u1",
			`{"items":[{"product_id":"p1","quantity":5}]}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "available stock: 3") {
			t.Fatalf("expected shortfall message, got %s", rec.Body.String())
		}
	})

	t.Run("unknown product maps to 404", func(t *testing.T) {
		h, _ := testHandler()
		rec := doRequest(t, h, http.MethodPost, "/orders", "u1",
			`{"items":[{"product_id":"missing","quantity":1}]}`)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("unknown user maps to 404", func(t *testing.T) {
		h, _ := testHandler()
		rec := doRequest(t, h, http.MethodPost, "/orders", "ghost",
			`{"items":[{"product_id":"p1","quantity":1}]}`)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("empty items maps to 400", func(t *testing.T) {
		h, _ := testHandler()
		rec := doRequest(t, h, http.MethodPost, "/orders", "u1", `{"items":[]}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("malformed body maps to 400", func(t *testing.T) {
		h, _ := testHandler()
		rec := doRequest(t, h, http.MethodPost, "/orders", "u1", `{`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestGetOrderEndpoint(t *testing.T) {
	h, repo := testHandler()
	repo.orders["o1"] = domain.Order{ID: "o1", UserID: "u1", TotalCents: 2500}

	rec := doRequest(t, h, http.MethodGet, "/orders/o1", "u1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = doRequest(t, h, http.MethodGet, "/orders/missing", "u1", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestUpdateStatusEndpoint(t *testing.T) {
	h, repo := testHandler()
	repo.orders["o1"] = domain.Order{ID: "o1", Status: domain.StatusPending}

	rec := doRequest(t, h, http.MethodPut, "/orders/o1/status", "u1", `{"status":"completed"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if repo.orders["o1"].Status != domain.StatusCompleted {
		t.Fatalf("status not updated: %s", repo.orders["o1"].Status)
	}

	rec = doRequest(t, h, http.MethodPut, "/orders/o1/status", "u1", `{"status":"shipped"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status, got %d", rec.Code)
	}
}

func TestDeleteOrderEndpoint(t *testing.T) {
	h, repo := testHandler()
	repo.orders["o1"] = domain.Order{ID: "o1", PaymentStatus: domain.PaymentPending}
	repo.orders["o2"] = domain.Order{ID: "o2", PaymentStatus: domain.PaymentPaid}

	rec := doRequest(t, h, http.MethodDelete, "/orders/o1", "u1", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}

	rec = doRequest(t, h, http.MethodDelete, "/orders/o2", "u1", "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for a paid order, got %d", rec.Code)
	}

	rec = doRequest(t, h, http.MethodDelete, "/orders/missing", "u1", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
