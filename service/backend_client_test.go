package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Uz11ps/bototelgara/logging"
	"github.com/Uz11ps/bototelgara/models"
	"github.com/Uz11ps/bototelgara/order"
)

func newTestBackend(t *testing.T, handler http.HandlerFunc) *BackendClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewBackendClient(srv.URL+"/", 5*time.Second, logging.Discard())
}

func TestBackendClient_SubmitOrder(t *testing.T) {
	var got map[string]interface{}
	client := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/orders" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id": 77}`))
	})

	req := &order.Request{
		GuestName:  "Гость",
		RoomNumber: "12",
		Items:      []order.Item{{ID: 1, Qty: 2}},
	}
	if err := client.SubmitOrder(context.Background(), req); err != nil {
		t.Fatalf("SubmitOrder returned error: %v", err)
	}

	if got["guest_name"] != "Гость" || got["room_number"] != "12" {
		t.Fatalf("unexpected body: %v", got)
	}
	if got["comment"] != nil || got["telegram_id"] != nil {
		t.Fatalf("absent comment and telegram_id must be null: %v", got)
	}
	items := got["items"].([]interface{})
	first := items[0].(map[string]interface{})
	if first["id"] != float64(1) || first["qty"] != float64(2) {
		t.Fatalf("unexpected items: %v", items)
	}
}

func TestBackendClient_ServerError(t *testing.T) {
	client := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusServiceUnavailable)
	})

	err := client.SubmitOrder(context.Background(), &order.Request{})
	var serverErr *ServerError
	if !errors.As(err, &serverErr) || serverErr.Status != http.StatusServiceUnavailable {
		t.Fatalf("error = %v, want ServerError 503", err)
	}
	if err.Error() != "Ошибка сервера: 503" {
		t.Fatalf("message = %q", err.Error())
	}
}

func TestBackendClient_ListMenu(t *testing.T) {
	client := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"id": 1, "name": "Сырники", "price": 650, "category": "breakfast", "composition": [{"name": "Творог", "quantity": 200, "unit": "г"}]},
			{"id": 2, "name": "Борщ", "price": 480, "is_available": false, "composition": "Свекла, Капуста"},
			{"id": 3, "name": "Чай", "price": 150, "composition": null}
		]`))
	})

	items, err := client.ListMenu(context.Background())
	if err != nil {
		t.Fatalf("ListMenu returned error: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	if items[0].Composition.Strings()[0] != "Творог — 200 г" {
		t.Fatalf("unexpected composition: %v", items[0].Composition.Strings())
	}
	if len(items[1].Composition) != 2 || items[1].Composition[1].Name != "Капуста" {
		t.Fatalf("legacy composition not decoded: %+v", items[1].Composition)
	}

	available, _ := client.ListAvailableMenu(context.Background())
	if len(available) != 2 {
		t.Fatalf("expected 2 available items, got %d", len(available))
	}
}

func TestBackendClient_IsAdmin(t *testing.T) {
	client := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/check-admin" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]bool{"is_admin": r.URL.Query().Get("telegram_id") == "1"})
	})

	tests := []struct {
		id   string
		want bool
	}{
		{"1", true},
		{"2", false},
	}
	for _, tt := range tests {
		got, err := client.IsAdmin(context.Background(), tt.id)
		if err != nil {
			t.Fatalf("IsAdmin(%s) returned error: %v", tt.id, err)
		}
		if got != tt.want {
			t.Errorf("IsAdmin(%s) = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestBackendClient_UpdateMenuItem(t *testing.T) {
	var body models.MenuItemPayload
	client := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/api/menu/5" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&body)
		json.NewEncoder(w).Encode(map[string]interface{}{"id": 5, "name": body.Name, "price": body.Price, "composition": body.Composition})
	})

	item, err := client.UpdateMenuItem(context.Background(), 5, models.MenuItemPayload{Name: "Омлет", Price: 550})
	if err != nil {
		t.Fatalf("UpdateMenuItem returned error: %v", err)
	}
	if item.ID != 5 || item.Name != "Омлет" {
		t.Fatalf("unexpected item: %+v", item)
	}
	if body.Composition == nil || len(body.Composition) != 0 {
		t.Fatalf("empty composition must be sent as [], got %#v", body.Composition)
	}
}

func TestBackendClient_FetchImageRelative(t *testing.T) {
	client := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/camera/lobby/snapshot" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte("jpeg"))
	})

	data, err := client.CameraSnapshot(context.Background(), "lobby")
	if err != nil {
		t.Fatalf("CameraSnapshot returned error: %v", err)
	}
	if string(data) != "jpeg" {
		t.Fatalf("unexpected data %q", data)
	}
	if _, err := client.FetchImage(context.Background(), "/missing.jpg"); err == nil {
		t.Fatalf("expected error for 404")
	}
}
