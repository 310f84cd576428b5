package composition

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrEmptyName is returned when an ingredient is added without a name.
// The message is shown to the admin as is.
var ErrEmptyName = errors.New("Укажите название ингредиента")

var legacySeparator = regexp.MustCompile(`[,\n]`)

// Ingredient is a single entry of a dish composition.
// Quantity and Unit are either both set or both nil.
type Ingredient struct {
	Name     string  `json:"name"`
	Quantity *int    `json:"quantity"`
	Unit     *string `json:"unit"`
}

// String renders "name — quantity unit", or just the name when the amount is unknown.
func (i Ingredient) String() string {
	if i.Quantity == nil || i.Unit == nil {
		return i.Name
	}
	return fmt.Sprintf("%s — %d %s", i.Name, *i.Quantity, *i.Unit)
}

// Composition is the structured composition of a menu item.
//
// Stored items may still carry the legacy free-text form, so UnmarshalJSON
// accepts either an array of ingredients or a plain string. The string form
// is decoded once here and never seen deeper in the code.
type Composition []Ingredient

// UnmarshalJSON decodes an ingredient array, a legacy string, or null.
func (c *Composition) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*c = nil
		return nil
	}

	if data[0] == '"' {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return fmt.Errorf("failed to decode legacy composition: %w", err)
		}
		*c = ParseLegacy(text)
		return nil
	}

	var items []Ingredient
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("failed to decode composition: %w", err)
	}

	out := make(Composition, 0, len(items))
	for _, item := range items {
		item.Name = strings.TrimSpace(item.Name)
		if item.Name == "" {
			continue
		}
		out = append(out, normalize(item))
	}
	*c = out
	return nil
}

// MarshalJSON always emits the array form, with [] for an empty composition.
func (c Composition) MarshalJSON() ([]byte, error) {
	if c == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Ingredient(c))
}

// Strings renders every ingredient with Ingredient.String.
func (c Composition) Strings() []string {
	out := make([]string, 0, len(c))
	for _, item := range c {
		out = append(out, item.String())
	}
	return out
}

// ParseLegacy converts the old comma/newline separated composition text
// into ingredients without amounts.
func ParseLegacy(text string) Composition {
	out := Composition{}
	for _, segment := range legacySeparator.Split(text, -1) {
		name := strings.TrimSpace(segment)
		if name == "" {
			continue
		}
		out = append(out, Ingredient{Name: name})
	}
	return out
}

// List is the composition being edited for a single menu item.
// It is not safe for concurrent use.
type List struct {
	items []Ingredient
}

// NewList opens a list pre-filled with an existing composition.
func NewList(initial Composition) *List {
	l := &List{items: make([]Ingredient, 0, len(initial))}
	for _, item := range initial {
		l.items = append(l.items, normalize(item))
	}
	return l
}

// AddIngredient appends an ingredient. quantity and unit are raw form
// values; an unparsable or missing amount is stored as nil.
func (l *List) AddIngredient(name, quantity, unit string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}

	item := Ingredient{Name: name}
	if qty, err := strconv.Atoi(strings.TrimSpace(quantity)); err == nil {
		item.Quantity = &qty
	}
	if u := strings.TrimSpace(unit); u != "" {
		item.Unit = &u
	}

	l.items = append(l.items, normalize(item))
	return nil
}

// RemoveIngredient drops the ingredient at index. Out-of-range indexes are ignored.
func (l *List) RemoveIngredient(index int) {
	if index < 0 || index >= len(l.items) {
		return
	}
	l.items = append(l.items[:index], l.items[index+1:]...)
}

// Len returns the number of ingredients.
func (l *List) Len() int {
	return len(l.items)
}

// Serialize returns the composition exactly as it will be stored on the menu item.
func (l *List) Serialize() Composition {
	out := make(Composition, len(l.items))
	copy(out, l.items)
	return out
}

// normalize enforces the both-or-neither rule for quantity and unit.
func normalize(item Ingredient) Ingredient {
	if item.Quantity == nil || item.Unit == nil {
		item.Quantity = nil
		item.Unit = nil
	}
	return item
}
