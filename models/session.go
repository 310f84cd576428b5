package models

import (
	"time"

	"github.com/Uz11ps/bototelgara/cart"
)

// GuestSession is the stored state of one guest: identity, cart and checkout step
type GuestSession struct {
	ID            string
	GuestName     string
	TelegramID    string
	CheckoutState string
	LastError     string
	Lines         []cart.Line
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// CreateSessionRequest represents the identity reported by the host platform
// Example: {"guest_name": "Анна", "telegram_id": "123456789"}
type CreateSessionRequest struct {
	GuestName  string `json:"guest_name"`
	TelegramID string `json:"telegram_id"`
}

// SessionResponse is returned when a session is created
type SessionResponse struct {
	Token     string    `json:"token"`
	SessionID string    `json:"session_id"`
	GuestName string    `json:"guest_name"`
	ExpiresAt time.Time `json:"expires_at"`
}
