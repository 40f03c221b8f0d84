package cart

import (
	"maps"
	"slices"
	"sort"
	"time"
)

// Customizations holds the options picked for a line, keyed by customization
// category and then by the customizable item id.
type Customizations map[string]map[string][]string

// Equal reports whether both selections pick the same options, ignoring
// option order.
func (c Customizations) Equal(other Customizations) bool {
	if len(c) != len(other) {
		return false
	}
	return maps.EqualFunc(c, other, func(a, b map[string][]string) bool {
		return maps.EqualFunc(a, b, func(x, y []string) bool {
			x, y = slices.Clone(x), slices.Clone(y)
			slices.Sort(x)
			slices.Sort(y)
			return slices.Equal(x, y)
		})
	})
}

type Item struct {
	ID             string         `json:"id"`
	MenuItemID     string         `json:"menu_item_id"`
	RestaurantID   string         `json:"restaurant_id"`
	Name           string         `json:"name"`
	UnitPrice      float64        `json:"unit_price"`
	Quantity       int            `json:"quantity"`
	LoadWeight     float64        `json:"load_weight"`
	Customizations Customizations `json:"customizations,omitempty"`
}

func (i Item) LineTotal() float64 {
	return i.UnitPrice * float64(i.Quantity)
}

type Cart struct {
	UserID    uint      `json:"user_id"`
	Items     []Item    `json:"items"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Items) == 0
}

// Subtotal is the undiscounted sum of all lines.
func (c *Cart) Subtotal() float64 {
	var total float64
	for _, it := range c.Items {
		total += it.LineTotal()
	}
	return total
}

// RestaurantIDs returns the distinct restaurants referenced by the cart, sorted.
func (c *Cart) RestaurantIDs() []string {
	seen := make(map[string]struct{}, len(c.Items))
	ids := make([]string, 0, len(c.Items))
	for _, it := range c.Items {
		if _, ok := seen[it.RestaurantID]; ok {
			continue
		}
		seen[it.RestaurantID] = struct{}{}
		ids = append(ids, it.RestaurantID)
	}
	sort.Strings(ids)
	return ids
}

func (c *Cart) HasRestaurant(restaurantID string) bool {
	for _, it := range c.Items {
		if it.RestaurantID == restaurantID {
			return true
		}
	}
	return false
}

type AddItemParams struct {
	MenuItemID     string         `json:"menu_item_id"`
	RestaurantID   string         `json:"restaurant_id"`
	Name           string         `json:"name"`
	UnitPrice      float64        `json:"unit_price"`
	Quantity       int            `json:"quantity"`
	LoadWeight     float64        `json:"load_weight"`
	Customizations Customizations `json:"customizations,omitempty"`
}
