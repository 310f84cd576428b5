package order

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/Uz11ps/bototelgara/cart"
)

type recordingSubmitter struct {
	calls []*Request
	err   error
}

func (s *recordingSubmitter) SubmitOrder(_ context.Context, req *Request) error {
	s.calls = append(s.calls, req)
	return s.err
}

func filledCart() *cart.Cart {
	c := cart.New()
	c.Add(cart.Item{ID: 1, Name: "Сырники", Price: 650})
	c.Add(cart.Item{ID: 2, Name: "Омлет", Price: 550})
	c.Add(cart.Item{ID: 2, Name: "Омлет", Price: 550})
	return c
}

func TestCanSubmit(t *testing.T) {
	tests := []struct {
		name string
		cart *cart.Cart
		room string
		want bool
		err  error
	}{
		{name: "empty cart with room", cart: cart.New(), room: "12", want: false, err: ErrEmptyCart},
		{name: "nil cart", cart: nil, room: "12", want: false, err: ErrEmptyCart},
		{name: "blank room", cart: filledCart(), room: "", want: false, err: ErrRoomRequired},
		{name: "whitespace room", cart: filledCart(), room: " \t ", want: false, err: ErrRoomRequired},
		{name: "empty cart and blank room", cart: cart.New(), room: " ", want: false, err: ErrEmptyCart},
		{name: "ready", cart: filledCart(), room: "12", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanSubmit(tt.cart, tt.room); got != tt.want {
				t.Errorf("CanSubmit() = %v, want %v", got, tt.want)
			}
			if err := Validate(tt.cart, tt.room); !errors.Is(err, tt.err) {
				t.Errorf("Validate() = %v, want %v", err, tt.err)
			}
		})
	}
}

func TestBuildRequest(t *testing.T) {
	req := BuildRequest(filledCart(), Guest{Name: "Анна", TelegramID: "42"}, "  12 ", "без сахара")

	if req.RoomNumber != "12" {
		t.Errorf("RoomNumber = %q, want trimmed \"12\"", req.RoomNumber)
	}
	if req.GuestName != "Анна" {
		t.Errorf("GuestName = %q", req.GuestName)
	}
	if req.Comment == nil || *req.Comment != "без сахара" {
		t.Errorf("Comment = %v", req.Comment)
	}
	if req.TelegramID == nil || *req.TelegramID != "42" {
		t.Errorf("TelegramID = %v", req.TelegramID)
	}
	want := []Item{{ID: 1, Qty: 1}, {ID: 2, Qty: 2}}
	if len(req.Items) != len(want) {
		t.Fatalf("Items = %+v, want %+v", req.Items, want)
	}
	for i := range want {
		if req.Items[i] != want[i] {
			t.Errorf("Items[%d] = %+v, want %+v", i, req.Items[i], want[i])
		}
	}
}

func TestBuildRequest_Defaults(t *testing.T) {
	req := BuildRequest(filledCart(), Guest{}, "7", "   ")

	if req.GuestName != DefaultGuestName {
		t.Errorf("GuestName = %q, want %q", req.GuestName, DefaultGuestName)
	}
	if req.Comment != nil {
		t.Errorf("blank comment should be nil, got %q", *req.Comment)
	}
	if req.TelegramID != nil {
		t.Errorf("missing telegram id should be nil, got %q", *req.TelegramID)
	}
}

func TestBuildRequest_WireFormat(t *testing.T) {
	data, err := json.Marshal(BuildRequest(filledCart(), Guest{}, "7", ""))
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	body := string(data)

	if strings.Contains(body, "price") {
		t.Errorf("request must not carry prices: %s", body)
	}
	for _, key := range []string{`"guest_name"`, `"room_number":"7"`, `"comment":null`, `"telegram_id":null`, `"items":[{"id":1,"qty":1},{"id":2,"qty":2}]`} {
		if !strings.Contains(body, key) {
			t.Errorf("request %s is missing %s", body, key)
		}
	}
}

func TestAssembler_Submit(t *testing.T) {
	s := &recordingSubmitter{}
	a := NewAssembler(s)
	req := BuildRequest(filledCart(), Guest{}, "12", "")

	if err := a.Submit(context.Background(), req); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if len(s.calls) != 1 || s.calls[0] != req {
		t.Fatalf("submitter called %d times", len(s.calls))
	}

	s.err = errors.New("Ошибка сервера: 500")
	if err := a.Submit(context.Background(), req); err == nil || err.Error() != "Ошибка сервера: 500" {
		t.Fatalf("Submit() error = %v, want the submitter error", err)
	}
	if len(s.calls) != 2 {
		t.Fatalf("submitter must be called exactly once per submit, got %d calls", len(s.calls))
	}
}
