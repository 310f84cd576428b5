package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Uz11ps/bototelgara/composition"
)

// FormValue accepts a JSON string, number or null and keeps its text.
// Admin forms send ingredient quantities either way.
type FormValue string

// UnmarshalJSON implements json.Unmarshaler
func (v *FormValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*v = ""
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = FormValue(s)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("form value must be a string or number: %w", err)
		}
		*v = FormValue(n.String())
	}
	return nil
}

// OpenDraftRequest opens a composition draft; item_id is empty for a new dish
// Example: {"item_id": 12}
type OpenDraftRequest struct {
	ItemID *int64 `json:"item_id"`
}

// AddIngredientRequest represents one ingredient row of the admin form
// Example: {"name": "Яйца", "quantity": 2, "unit": "шт"}
type AddIngredientRequest struct {
	Name     string    `json:"name"`
	Quantity FormValue `json:"quantity"`
	Unit     string    `json:"unit"`
}

// SaveDraftRequest carries the remaining menu item fields saved with the composition.
// Omitted description and admin_comment keep their stored values; "" clears them.
// Example: {"name": "Сырники", "price": 650, "category": "breakfast", "admin_comment": ""}
type SaveDraftRequest struct {
	Name         string  `json:"name"`
	Price        *int64  `json:"price"`
	Category     string  `json:"category"`
	Description  *string `json:"description"`
	AdminComment *string `json:"admin_comment"`
	IsAvailable  *bool   `json:"is_available"`
}

// DraftResponse represents a composition draft being edited
// Example response:
// {
//   "id": "7f0c...",
//   "item_id": 12,
//   "composition": [{"name": "Яйца", "quantity": 2, "unit": "шт"}],
//   "display": ["Яйца — 2 шт"],
//   "created_at": "2024-01-15T10:30:00Z"
// }
type DraftResponse struct {
	ID          string                  `json:"id"`
	ItemID      *int64                  `json:"item_id"`
	Composition composition.Composition `json:"composition"`
	Display     []string                `json:"display"`
	CreatedAt   time.Time               `json:"created_at"`
}
