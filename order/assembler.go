package order

import (
	"context"
	"errors"
	"strings"

	"github.com/Uz11ps/bototelgara/cart"
)

// DefaultGuestName is used when the host platform gives no guest identity.
const DefaultGuestName = "Гость"

var (
	// ErrEmptyCart is returned when checkout is attempted with nothing in the cart.
	ErrEmptyCart = errors.New("Корзина пуста")
	// ErrRoomRequired is returned when the room number is missing or blank.
	ErrRoomRequired = errors.New("Укажите номер комнаты")
)

// Item is one requested menu item. Prices are deliberately absent: the
// ordering endpoint prices the order from its own menu data.
type Item struct {
	ID  int64 `json:"id"`
	Qty int   `json:"qty"`
}

// Request is the body of POST /api/orders.
type Request struct {
	GuestName  string  `json:"guest_name"`
	RoomNumber string  `json:"room_number"`
	Comment    *string `json:"comment"`
	Items      []Item  `json:"items"`
	TelegramID *string `json:"telegram_id"`
}

// Guest is the identity reported by the host platform, if any.
type Guest struct {
	Name       string
	TelegramID string
}

// Normalize fills in the default guest name and trims both fields.
func (g Guest) Normalize() Guest {
	g.Name = strings.TrimSpace(g.Name)
	g.TelegramID = strings.TrimSpace(g.TelegramID)
	if g.Name == "" {
		g.Name = DefaultGuestName
	}
	return g
}

// Submitter delivers an order request to the ordering endpoint.
type Submitter interface {
	SubmitOrder(ctx context.Context, req *Request) error
}

// CanSubmit reports whether the cart has items and a room number is given.
func CanSubmit(c *cart.Cart, roomNumber string) bool {
	return Validate(c, roomNumber) == nil
}

// Validate returns the reason CanSubmit would be false, or nil.
func Validate(c *cart.Cart, roomNumber string) error {
	if c == nil || c.IsEmpty() {
		return ErrEmptyCart
	}
	if strings.TrimSpace(roomNumber) == "" {
		return ErrRoomRequired
	}
	return nil
}

// BuildRequest maps the current cart lines into an order request.
func BuildRequest(c *cart.Cart, guest Guest, roomNumber, comment string) *Request {
	guest = guest.Normalize()

	lines := c.Lines()
	items := make([]Item, 0, len(lines))
	for _, line := range lines {
		items = append(items, Item{ID: line.ID, Qty: line.Quantity})
	}

	req := &Request{
		GuestName:  guest.Name,
		RoomNumber: strings.TrimSpace(roomNumber),
		Items:      items,
	}
	if trimmed := strings.TrimSpace(comment); trimmed != "" {
		req.Comment = &trimmed
	}
	if guest.TelegramID != "" {
		id := guest.TelegramID
		req.TelegramID = &id
	}
	return req
}

// Assembler gates, builds and submits orders.
type Assembler struct {
	submitter Submitter
}

// NewAssembler creates an Assembler that submits through s.
func NewAssembler(s Submitter) *Assembler {
	return &Assembler{submitter: s}
}

// Submit sends req to the ordering endpoint. A nil error means the order
// was accepted and the caller should clear the cart; any error leaves the
// decision to the caller, which keeps the cart for a manual retry.
func (a *Assembler) Submit(ctx context.Context, req *Request) error {
	return a.submitter.SubmitOrder(ctx, req)
}
