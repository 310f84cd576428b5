package models

// AddCartItemRequest represents the request body for adding a menu item to the cart
// Example: {"id": 12}
type AddCartItemRequest struct {
	ID int64 `json:"id"`
}

// UpdateCartItemRequest represents the request body for changing a line quantity
// Example: {"delta": -1}
type UpdateCartItemRequest struct {
	Delta int `json:"delta"`
}

// CartLineResponse represents a single cart line
type CartLineResponse struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Quantity int    `json:"quantity"`
	Subtotal int64  `json:"subtotal"`
}

// CartResponse represents the guest cart with derived totals
// Example response:
// {
//   "lines": [
//     {"id": 1, "name": "Сырники", "price": 650, "quantity": 1, "subtotal": 650},
//     {"id": 2, "name": "Омлет", "price": 550, "quantity": 2, "subtotal": 1100}
//   ],
//   "total": 1750,
//   "total_formatted": "1 750 ₽",
//   "count": 3,
//   "state": "reviewing"
// }
type CartResponse struct {
	Lines          []CartLineResponse `json:"lines"`
	Total          int64              `json:"total"`
	TotalFormatted string             `json:"total_formatted"`
	Count          int                `json:"count"`
	State          string             `json:"state"`
	LastError      string             `json:"last_error,omitempty"`
}

// CheckoutRequest represents the checkout form
// Example: {"room_number": "12", "comment": "Без лука"}
type CheckoutRequest struct {
	RoomNumber string `json:"room_number"`
	Comment    string `json:"comment"`
}

// CheckoutResponse represents the result of a confirmed order
type CheckoutResponse struct {
	Success    bool         `json:"success"`
	Message    string       `json:"message"`
	RoomNumber string       `json:"room_number"`
	Total      int64        `json:"total"`
	Cart       CartResponse `json:"cart"`
}
