package models

import "time"

// DishPhoto is a dish photo found in the Drive folder
type DishPhoto struct {
	DriveFileID string `json:"drive_file_id"`
	FileName    string `json:"file_name"`
	ItemID      int64  `json:"item_id"`
	ImageURL    string `json:"image_url"`
}

// PhotoSyncResult summarizes a Drive dish-photo synchronization
// Example response:
// {"total": 10, "updated": 3, "skipped": 6, "errors": ["item 99 not in menu"]}
type PhotoSyncResult struct {
	Total   int      `json:"total"`
	Updated int      `json:"updated"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors"`
}

// OrderPlacedEvent is published after the backend accepted an order
type OrderPlacedEvent struct {
	SessionID  string        `json:"session_id"`
	GuestName  string        `json:"guest_name"`
	TelegramID *string       `json:"telegram_id"`
	RoomNumber string        `json:"room_number"`
	Comment    *string       `json:"comment"`
	Items      []OrderedItem `json:"items"`
	Total      int64         `json:"total"`
	PlacedAt   time.Time     `json:"placed_at"`
}

// OrderedItem is a line of OrderPlacedEvent, priced from the cart snapshot
type OrderedItem struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Qty      int    `json:"qty"`
	Price    int64  `json:"price"`
	Subtotal int64  `json:"subtotal"`
}
