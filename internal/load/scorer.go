// Package load converts a cart into the courier capacity it consumes.
package load

import (
	"strings"

	"pickup-be/internal/cart"

	"github.com/shopspring/decimal"
)

const (
	// FreeDrinkSlots drinks ride in the courier's external pocket for free.
	FreeDrinkSlots = 4
	// InternalDrinkLoad is charged for every drink beyond the free slots.
	InternalDrinkLoad = 4.0
	// MaxCapacity is the courier-agnostic ceiling used before a slot is chosen.
	MaxCapacity = 20.0
)

var drinkKeywords = []string{
	"drink", "soda", "cola", "coke", "pepsi", "sprite", "fanta", "juice",
	"lemonade", "tea", "coffee", "latte", "water", "smoothie", "shake", "boba",
}

type Score struct {
	TotalScore     float64 `json:"total_score"`
	IsOverloaded   bool    `json:"is_overloaded"`
	FoodLoad       float64 `json:"food_load"`
	DrinkLoad      float64 `json:"drink_load"`
	DrinkCount     int     `json:"drink_count"`
	InternalDrinks int     `json:"internal_drinks"`
}

// IsDrink matches the item name against the drink keywords, case-insensitively.
func IsDrink(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range drinkKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// Compute scores a set of cart lines. The result only depends on the
// multiset of lines, never on their order.
func Compute(items []cart.Item) Score {
	var s Score
	for _, it := range items {
		if IsDrink(it.Name) {
			s.DrinkCount += it.Quantity
			continue
		}
		s.FoodLoad += it.LoadWeight * float64(it.Quantity)
	}

	s.InternalDrinks = max(0, s.DrinkCount-FreeDrinkSlots)
	s.DrinkLoad = float64(s.InternalDrinks) * InternalDrinkLoad
	s.TotalScore = round2(s.FoodLoad + s.DrinkLoad)
	s.IsOverloaded = s.TotalScore > MaxCapacity
	return s
}

func ScoreCart(c *cart.Cart) Score {
	if c.IsEmpty() {
		return Score{}
	}
	return Compute(c.Items)
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
