package order

import (
	"errors"

	"github.com/Uz11ps/bototelgara/cart"
)

// ErrSubmitInFlight is returned while a previous submission has not finished.
var ErrSubmitInFlight = errors.New("Заказ уже отправляется")

// State is a step of the checkout flow.
type State string

const (
	Browsing   State = "browsing"
	Reviewing  State = "reviewing"
	Submitting State = "submitting"
	Confirmed  State = "confirmed"
)

// Checkout tracks one session's progress from browsing to a placed order:
//
//	Browsing -> Reviewing -> Submitting -> Confirmed
//	                 ^            |
//	                 +-- failed --+
//
// A failed submission returns to Reviewing with the error kept for display.
// Confirmed ends the flow; the next browsing action starts over with the
// (already cleared) cart. Checkout is not safe for concurrent use.
type Checkout struct {
	state   State
	lastErr string
}

// NewCheckout returns a checkout in the Browsing state.
func NewCheckout() *Checkout {
	return &Checkout{state: Browsing}
}

// RestoreCheckout rebuilds a checkout from a stored state. A stored
// Submitting state cannot be resumed and is treated as Reviewing.
func RestoreCheckout(state State, lastErr string) *Checkout {
	switch state {
	case Reviewing, Confirmed:
	case Submitting:
		state = Reviewing
	default:
		state = Browsing
	}
	return &Checkout{state: state, lastErr: lastErr}
}

// State returns the current step.
func (c *Checkout) State() State {
	return c.state
}

// LastError returns the message of the last failed submission, if any.
func (c *Checkout) LastError() string {
	return c.lastErr
}

// Browse is called before any cart change. It refuses changes while an
// order is being sent and starts a fresh flow after a confirmed order.
func (c *Checkout) Browse() error {
	switch c.state {
	case Submitting:
		return ErrSubmitInFlight
	case Confirmed:
		c.state = Browsing
		c.lastErr = ""
	}
	return nil
}

// Open moves to Reviewing (the cart view is open).
func (c *Checkout) Open() error {
	if err := c.Browse(); err != nil {
		return err
	}
	c.state = Reviewing
	return nil
}

// Close returns from Reviewing to Browsing.
func (c *Checkout) Close() error {
	if err := c.Browse(); err != nil {
		return err
	}
	c.state = Browsing
	c.lastErr = ""
	return nil
}

// Begin enters Submitting when the cart and room number allow it.
// Validation failures keep the current state and are returned as is.
func (c *Checkout) Begin(ct *cart.Cart, roomNumber string) error {
	if c.state == Submitting {
		return ErrSubmitInFlight
	}
	if err := Validate(ct, roomNumber); err != nil {
		return err
	}
	c.state = Submitting
	c.lastErr = ""
	return nil
}

// Succeed clears the cart and marks the order as confirmed.
func (c *Checkout) Succeed(ct *cart.Cart) {
	ct.Clear()
	c.state = Confirmed
	c.lastErr = ""
}

// Fail returns to Reviewing and keeps err for display. The cart is not touched.
func (c *Checkout) Fail(err error) {
	c.state = Reviewing
	if err != nil {
		c.lastErr = err.Error()
	}
}
