package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/Uz11ps/bototelgara/app/controller"
	"github.com/Uz11ps/bototelgara/app/middleware"
	"github.com/Uz11ps/bototelgara/logging"
	"github.com/Uz11ps/bototelgara/models"
	"github.com/Uz11ps/bototelgara/order"
	"github.com/Uz11ps/bototelgara/repository"
	"github.com/Uz11ps/bototelgara/service"
)

// fakeBackend imitates the hotel REST backend
type fakeBackend struct {
	mu        sync.Mutex
	orders    []order.Request
	orderCode int
	saved     map[string]models.MenuItemPayload
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/api/menu":
		w.Write([]byte(`[
			{"id": 1, "name": "Сырники", "price": 650, "category": "breakfast", "composition": "Творог, Яйца"},
			{"id": 2, "name": "Омлет", "price": 550, "category": "breakfast"},
			{"id": 3, "name": "Борщ", "price": 480, "category": "lunch", "is_available": false}
		]`))
	case r.Method == http.MethodPost && r.URL.Path == "/api/orders":
		if b.orderCode != 0 {
			w.WriteHeader(b.orderCode)
			return
		}
		var req order.Request
		json.NewDecoder(r.Body).Decode(&req)
		b.orders = append(b.orders, req)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"ok": true}`))
	case r.Method == http.MethodGet && r.URL.Path == "/api/check-admin":
		json.NewEncoder(w).Encode(map[string]bool{"is_admin": r.URL.Query().Get("telegram_id") == "100"})
	case r.Method == http.MethodPut && r.URL.Path == "/api/menu/1":
		var p models.MenuItemPayload
		json.NewDecoder(r.Body).Decode(&p)
		b.saved[r.URL.Path] = p
		json.NewEncoder(w).Encode(map[string]interface{}{"id": 1, "name": p.Name, "price": p.Price, "composition": p.Composition})
	default:
		http.NotFound(w, r)
	}
}

type stubPDF struct{}

func (stubPDF) GeneratePDF(context.Context) ([]byte, error) { return []byte("%PDF-1.4"), nil }

var adminAuth = middleware.NewInitDataVerifier("123:test-bot", time.Hour)

func newTestServer(t *testing.T) (*httptest.Server, *fakeBackend) {
	t.Helper()
	logger := logging.Discard()

	fake := &fakeBackend{saved: map[string]models.MenuItemPayload{}}
	backendSrv := httptest.NewServer(fake)
	t.Cleanup(backendSrv.Close)

	backend := service.NewBackendClient(backendSrv.URL, 5*time.Second, logger)
	menu := service.NewMenuService(backend, logger)
	if err := menu.Refresh(context.Background()); err != nil {
		t.Fatalf("menu refresh failed: %v", err)
	}

	sessions := service.NewSessionService(repository.NewMemorySessionRepository(), menu, order.NewAssembler(backend), nil, time.Hour, logger)
	drafts := service.NewCompositionDraftService(backend, backend, menu, time.Hour, logger)
	images := service.NewImageService(menu, backend, t.TempDir(), logger)
	printer := service.NewMenuPDFService(menu, "", "", "", logger)
	tokens := middleware.NewSessionTokens("test-secret", time.Hour)

	controllers := &Controllers{
		Session:     controller.NewSessionController(sessions, tokens, logger),
		Cart:        controller.NewCartController(sessions, logger),
		Menu:        controller.NewMenuController(menu, images, printer, logger),
		Composition: controller.NewCompositionController(drafts, logger),
		Admin:       controller.NewAdminController(stubPDF{}, nil, images, logger),
	}

	srv := httptest.NewServer(NewRouter(controllers, tokens, adminAuth, backend, logger))
	t.Cleanup(srv.Close)
	return srv, fake
}

type client struct {
	t       *testing.T
	baseURL string
	headers map[string]string
}

func (c *client) do(method, path string, body interface{}, out interface{}) int {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req, err := http.NewRequest(method, c.baseURL+path, &buf)
	if err != nil {
		c.t.Fatalf("failed to build request: %v", err)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		c.t.Fatalf("%s %s failed: %v", method, path, err)
	}
	defer resp.Body.Close()
	if out != nil {
		json.NewDecoder(resp.Body).Decode(out)
	}
	return resp.StatusCode
}

func TestRouter_GuestOrderFlow(t *testing.T) {
	srv, fake := newTestServer(t)
	c := &client{t: t, baseURL: srv.URL, headers: map[string]string{}}

	if code := c.do(http.MethodGet, "/ping", nil, nil); code != http.StatusOK {
		t.Fatalf("ping status = %d", code)
	}

	var menu []models.MenuItemView
	c.do(http.MethodGet, "/api/menu?category=breakfast", nil, &menu)
	if len(menu) != 2 || menu[0].Composition[1] != "Яйца" {
		t.Fatalf("unexpected menu: %+v", menu)
	}

	if code := c.do(http.MethodGet, "/api/cart", nil, nil); code != http.StatusUnauthorized {
		t.Fatalf("cart without token status = %d, want 401", code)
	}

	var session models.SessionResponse
	if code := c.do(http.MethodPost, "/api/session", models.CreateSessionRequest{TelegramID: "42"}, &session); code != http.StatusCreated {
		t.Fatalf("create session status = %d", code)
	}
	if session.GuestName != order.DefaultGuestName {
		t.Fatalf("guest name = %q", session.GuestName)
	}
	c.headers["Authorization"] = "Bearer " + session.Token

	var cart models.CartResponse
	c.do(http.MethodPost, "/api/cart/items", models.AddCartItemRequest{ID: 1}, &cart)
	c.do(http.MethodPost, "/api/cart/items", models.AddCartItemRequest{ID: 2}, &cart)
	c.do(http.MethodPatch, "/api/cart/items/2", models.UpdateCartItemRequest{Delta: 1}, &cart)
	if cart.Total != 1750 || cart.Count != 3 {
		t.Fatalf("unexpected cart: %+v", cart)
	}

	if code := c.do(http.MethodPost, "/api/cart/items", models.AddCartItemRequest{ID: 3}, nil); code != http.StatusNotFound {
		t.Fatalf("unavailable item status = %d, want 404", code)
	}

	var errResp map[string]string
	if code := c.do(http.MethodPost, "/api/checkout", models.CheckoutRequest{RoomNumber: ""}, &errResp); code != http.StatusBadRequest {
		t.Fatalf("checkout without room status = %d, want 400", code)
	}
	if errResp["error"] != order.ErrRoomRequired.Error() {
		t.Fatalf("error = %q", errResp["error"])
	}

	fake.mu.Lock()
	fake.orderCode = http.StatusInternalServerError
	fake.mu.Unlock()
	errResp = nil
	if code := c.do(http.MethodPost, "/api/checkout", models.CheckoutRequest{RoomNumber: "12"}, &errResp); code != http.StatusBadGateway {
		t.Fatalf("checkout with failing backend status = %d, want 502", code)
	}
	if errResp["error"] != "Ошибка сервера: 500" {
		t.Fatalf("error = %q", errResp["error"])
	}
	c.do(http.MethodGet, "/api/cart", nil, &cart)
	if cart.Count != 3 || cart.LastError != "Ошибка сервера: 500" {
		t.Fatalf("cart after failed checkout = %+v", cart)
	}

	fake.mu.Lock()
	fake.orderCode = 0
	fake.mu.Unlock()
	var checkout models.CheckoutResponse
	if code := c.do(http.MethodPost, "/api/checkout", models.CheckoutRequest{RoomNumber: "12", Comment: "  "}, &checkout); code != http.StatusOK {
		t.Fatalf("checkout status = %d", code)
	}
	if !checkout.Success || checkout.Total != 1750 || checkout.Cart.Count != 0 {
		t.Fatalf("unexpected checkout response: %+v", checkout)
	}

	fake.mu.Lock()
	defer fake.mu.Unlock()
	if len(fake.orders) != 1 {
		t.Fatalf("backend received %d orders, want 1", len(fake.orders))
	}
	got := fake.orders[0]
	if got.RoomNumber != "12" || got.Comment != nil || got.TelegramID == nil || *got.TelegramID != "42" {
		t.Fatalf("unexpected order: %+v", got)
	}
	if len(got.Items) != 2 || got.Items[1].Qty != 2 {
		t.Fatalf("unexpected order items: %+v", got.Items)
	}
}

func TestRouter_AdminCompositionFlow(t *testing.T) {
	srv, fake := newTestServer(t)
	c := &client{t: t, baseURL: srv.URL, headers: map[string]string{}}

	if code := c.do(http.MethodPost, "/admin/menu/drafts", map[string]interface{}{}, nil); code != http.StatusUnauthorized {
		t.Fatalf("status without header = %d, want 401", code)
	}
	c.headers[middleware.InitDataHeader] = "user=%7B%22id%22%3A100%7D"
	if code := c.do(http.MethodPost, "/admin/menu/drafts", map[string]interface{}{}, nil); code != http.StatusUnauthorized {
		t.Fatalf("status for unsigned init data = %d, want 401", code)
	}
	c.headers[middleware.InitDataHeader] = adminAuth.Sign(7, time.Now())
	if code := c.do(http.MethodPost, "/admin/menu/drafts", map[string]interface{}{}, nil); code != http.StatusForbidden {
		t.Fatalf("status for non-admin = %d, want 403", code)
	}
	c.headers[middleware.InitDataHeader] = adminAuth.Sign(100, time.Now())

	var draft models.DraftResponse
	if code := c.do(http.MethodPost, "/admin/menu/drafts", models.OpenDraftRequest{ItemID: int64Ptr(1)}, &draft); code != http.StatusCreated {
		t.Fatalf("open draft status = %d", code)
	}
	if len(draft.Composition) != 2 {
		t.Fatalf("legacy composition not loaded: %+v", draft)
	}

	var errResp map[string]string
	if code := c.do(http.MethodPost, "/admin/menu/drafts/"+draft.ID+"/ingredients", map[string]interface{}{"name": " "}, &errResp); code != http.StatusBadRequest {
		t.Fatalf("blank ingredient status = %d, want 400", code)
	}
	if errResp["error"] != "Укажите название ингредиента" {
		t.Fatalf("error = %q", errResp["error"])
	}

	c.do(http.MethodPost, "/admin/menu/drafts/"+draft.ID+"/ingredients", map[string]interface{}{"name": "Сахар", "quantity": 10, "unit": "г"}, &draft)
	c.do(http.MethodDelete, "/admin/menu/drafts/"+draft.ID+"/ingredients/0", nil, &draft)
	if len(draft.Display) != 2 || draft.Display[1] != "Сахар — 10 г" {
		t.Fatalf("unexpected display: %v", draft.Display)
	}

	var item models.MenuItem
	if code := c.do(http.MethodPost, "/admin/menu/drafts/"+draft.ID+"/save", models.SaveDraftRequest{}, &item); code != http.StatusOK {
		t.Fatalf("save status = %d", code)
	}
	if code := c.do(http.MethodGet, "/admin/menu/drafts/"+draft.ID, nil, nil); code != http.StatusNotFound {
		t.Fatalf("saved draft status = %d, want 404", code)
	}

	fake.mu.Lock()
	payload := fake.saved["/api/menu/1"]
	fake.mu.Unlock()
	if payload.Name != "Сырники" || payload.Price != 650 || len(payload.Composition) != 2 || payload.Composition[0].Name != "Яйца" {
		t.Fatalf("unexpected saved payload: %+v", payload)
	}

	if code := c.do(http.MethodPost, "/admin/menu/photos/sync?folderId=x", nil, nil); code != http.StatusServiceUnavailable {
		t.Fatalf("photo sync without Drive status = %d, want 503", code)
	}
	if code := c.do(http.MethodGet, "/admin/menu/pdf", nil, nil); code != http.StatusOK {
		t.Fatalf("pdf status = %d", code)
	}
}

func int64Ptr(v int64) *int64 { return &v }
