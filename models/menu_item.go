package models

import (
	"strings"

	"github.com/Uz11ps/bototelgara/composition"
)

// Menu categories known to the backend
const (
	CategoryBreakfast = "breakfast"
	CategoryLunch     = "lunch"
	CategoryDinner    = "dinner"
)

// MenuItem represents a record of GET /api/menu
// Example:
// {
//   "id": 1,
//   "name": "Сырники",
//   "description": "Со сметаной",
//   "price": 650,
//   "category": "breakfast",
//   "category_type": "breakfast",
//   "composition": [{"name": "Творог", "quantity": 200, "unit": "г"}],
//   "is_available": true,
//   "admin_comment": "Хит",
//   "image_url": "https://..."
// }
type MenuItem struct {
	ID           int64                   `json:"id"`
	Name         string                  `json:"name"`
	Description  string                  `json:"description,omitempty"`
	Price        int64                   `json:"price"`
	Category     string                  `json:"category,omitempty"`
	CategoryType string                  `json:"category_type,omitempty"`
	Composition  composition.Composition `json:"composition"`
	IsAvailable  *bool                   `json:"is_available,omitempty"`
	AdminComment string                  `json:"admin_comment,omitempty"`
	ImageURL     string                  `json:"image_url,omitempty"`
}

// Available reports whether the item can be ordered. Only an explicit
// is_available=false hides an item.
func (m MenuItem) Available() bool {
	return m.IsAvailable == nil || *m.IsAvailable
}

// CategoryName returns category, falling back to category_type and then dinner.
func (m MenuItem) CategoryName() string {
	if c := strings.TrimSpace(m.Category); c != "" {
		return strings.ToLower(c)
	}
	if c := strings.TrimSpace(m.CategoryType); c != "" {
		return strings.ToLower(c)
	}
	return CategoryDinner
}

// MenuItemView is the guest-facing representation of an available menu item
type MenuItemView struct {
	ID             int64    `json:"id"`
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	Price          int64    `json:"price"`
	PriceFormatted string   `json:"price_formatted"`
	Category       string   `json:"category"`
	Badge          string   `json:"badge,omitempty"`
	Composition    []string `json:"composition"`
	ImageURL       string   `json:"image_url,omitempty"`
}

// MenuItemPayload is the body sent to POST /api/menu and PUT /api/menu/{id}
type MenuItemPayload struct {
	Name         string                  `json:"name"`
	Price        int64                   `json:"price"`
	Category     string                  `json:"category"`
	CategoryType string                  `json:"category_type"`
	Description  string                  `json:"description"`
	Composition  composition.Composition `json:"composition"`
	AdminComment string                  `json:"admin_comment"`
	IsAvailable  bool                    `json:"is_available"`
	ImageURL     string                  `json:"image_url,omitempty"`
}

// PayloadFrom copies the editable fields of an existing item
func PayloadFrom(m MenuItem) MenuItemPayload {
	return MenuItemPayload{
		Name:         m.Name,
		Price:        m.Price,
		Category:     m.CategoryName(),
		CategoryType: m.CategoryName(),
		Description:  m.Description,
		Composition:  m.Composition,
		AdminComment: m.AdminComment,
		IsAvailable:  m.Available(),
		ImageURL:     m.ImageURL,
	}
}
