package controller

import (
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/Uz11ps/bototelgara/app/middleware"
	"github.com/Uz11ps/bototelgara/models"
	"github.com/Uz11ps/bototelgara/service"
)

// CartController handles HTTP requests for the guest cart and checkout.
// Every route runs behind the session token middleware.
type CartController struct {
	sessions service.SessionServiceInterface
	logger   *logrus.Logger
}

// NewCartController creates a new CartController
func NewCartController(sessions service.SessionServiceInterface, logger *logrus.Logger) *CartController {
	return &CartController{
		sessions: sessions,
		logger:   logger,
	}
}

func sessionID(r *http.Request) (string, bool) {
	claims := middleware.GetClaims(r.Context())
	if claims == nil {
		return "", false
	}
	return claims.SessionID, true
}

// GetCart handles GET /api/cart
func (c *CartController) GetCart(w http.ResponseWriter, r *http.Request) {
	c.respond(w, r, func(id string) (*models.CartResponse, error) {
		return c.sessions.Cart(r.Context(), id)
	})
}

// AddItem handles POST /api/cart/items
// Request body: {"id": 12}
func (c *CartController) AddItem(w http.ResponseWriter, r *http.Request) {
	var req models.AddCartItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	c.respond(w, r, func(id string) (*models.CartResponse, error) {
		return c.sessions.AddItem(r.Context(), id, req.ID)
	})
}

// UpdateItem handles PATCH /api/cart/items/{id}
// Request body: {"delta": -1}
func (c *CartController) UpdateItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := pathInt(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req models.UpdateCartItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	c.respond(w, r, func(id string) (*models.CartResponse, error) {
		return c.sessions.UpdateItem(r.Context(), id, itemID, req.Delta)
	})
}

// ClearCart handles DELETE /api/cart
func (c *CartController) ClearCart(w http.ResponseWriter, r *http.Request) {
	c.respond(w, r, func(id string) (*models.CartResponse, error) {
		return c.sessions.Clear(r.Context(), id)
	})
}

// OpenCart handles POST /api/cart/open
func (c *CartController) OpenCart(w http.ResponseWriter, r *http.Request) {
	c.respond(w, r, func(id string) (*models.CartResponse, error) {
		return c.sessions.Open(r.Context(), id)
	})
}

// CloseCart handles POST /api/cart/close
func (c *CartController) CloseCart(w http.ResponseWriter, r *http.Request) {
	c.respond(w, r, func(id string) (*models.CartResponse, error) {
		return c.sessions.Close(r.Context(), id)
	})
}

// Checkout handles POST /api/checkout
// Request body: {"room_number": "12", "comment": "Без лука"}
// 400 on validation errors, 409 while an order is being sent, 502 when the
// backend rejects the order (the cart is kept for a retry).
func (c *CartController) Checkout(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "session required")
		return
	}

	var req models.CheckoutRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := c.sessions.Checkout(r.Context(), id, req)
	if err != nil {
		var submitErr *service.SubmitError
		if errors.As(err, &submitErr) {
			c.logger.WithError(err).WithField("session_id", id).Warn("Checkout: order rejected")
		}
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (c *CartController) respond(w http.ResponseWriter, r *http.Request, fn func(sessionID string) (*models.CartResponse, error)) {
	id, ok := sessionID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "session required")
		return
	}
	cart, err := fn(id)
	if err != nil {
		if statusFor(err) == http.StatusInternalServerError {
			c.logger.WithError(err).WithField("session_id", id).Error("cart operation failed")
		}
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cart)
}
