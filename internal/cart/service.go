package cart

import (
	"context"
	"strings"
	"time"

	"pickup-be/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service defines the business logic for carts.
type Service interface {
	Get(ctx context.Context, userID uint) (*Cart, error)
	AddItem(ctx context.Context, userID uint, params AddItemParams) (*Cart, error)
	UpdateQuantity(ctx context.Context, userID uint, lineID string, quantity int) (*Cart, error)
	RemoveItem(ctx context.Context, userID uint, lineID string) (*Cart, error)
	Consume(ctx context.Context, userID uint, items []Item) (*Cart, error)
}

type service struct {
	store Store
	now   func() time.Time
}

// NewService creates a new cart service
func NewService(store Store) Service {
	return &service{store: store, now: time.Now}
}

func (s *service) Get(ctx context.Context, userID uint) (*Cart, error) {
	return s.store.Load(ctx, userID)
}

// AddItem adds a menu item to the cart, merging it into an existing line when
// the same item was already added with the same customizations.
func (s *service) AddItem(ctx context.Context, userID uint, params AddItemParams) (*Cart, error) {
	if params.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	if strings.TrimSpace(params.Name) == "" || params.MenuItemID == "" || params.RestaurantID == "" ||
		params.UnitPrice < 0 || params.LoadWeight < 0 {
		return nil, ErrInvalidItem
	}

	merged := false
	c, err := s.store.Update(ctx, userID, func(c *Cart) error {
		merged = false
		for i := range c.Items {
			it := &c.Items[i]
			if it.MenuItemID == params.MenuItemID && it.RestaurantID == params.RestaurantID &&
				it.Customizations.Equal(params.Customizations) {
				it.Quantity += params.Quantity
				merged = true
				break
			}
		}

		if !merged {
			c.Items = append(c.Items, Item{
				ID:             uuid.NewString(),
				MenuItemID:     params.MenuItemID,
				RestaurantID:   params.RestaurantID,
				Name:           params.Name,
				UnitPrice:      params.UnitPrice,
				Quantity:       params.Quantity,
				LoadWeight:     params.LoadWeight,
				Customizations: params.Customizations,
			})
		}
		c.UpdatedAt = s.now()
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.FromCtx(ctx).Debug("cart item added",
		zap.String("menu_item_id", params.MenuItemID),
		zap.Int("quantity", params.Quantity),
		zap.Bool("merged", merged),
	)
	return c, nil
}

// UpdateQuantity sets the quantity of a line; zero removes the line.
func (s *service) UpdateQuantity(ctx context.Context, userID uint, lineID string, quantity int) (*Cart, error) {
	if quantity < 0 {
		return nil, ErrInvalidQuantity
	}

	return s.store.Update(ctx, userID, func(c *Cart) error {
		idx := indexOf(c, lineID)
		if idx < 0 {
			return ErrCartItemNotFound
		}

		if quantity == 0 {
			c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
		} else {
			c.Items[idx].Quantity = quantity
		}
		c.UpdatedAt = s.now()
		return nil
	})
}

func (s *service) RemoveItem(ctx context.Context, userID uint, lineID string) (*Cart, error) {
	return s.UpdateQuantity(ctx, userID, lineID, 0)
}

// Consume removes the purchased quantities of each line in items. Lines
// added or topped up after the snapshot was taken stay in the cart.
func (s *service) Consume(ctx context.Context, userID uint, items []Item) (*Cart, error) {
	return s.store.Update(ctx, userID, func(c *Cart) error {
		kept := c.Items[:0]
		for _, it := range c.Items {
			for _, bought := range items {
				if bought.ID == it.ID {
					it.Quantity -= bought.Quantity
				}
			}
			if it.Quantity > 0 {
				kept = append(kept, it)
			}
		}
		c.Items = kept
		c.UpdatedAt = s.now()
		return nil
	})
}

func indexOf(c *Cart, lineID string) int {
	for i, it := range c.Items {
		if it.ID == lineID {
			return i
		}
	}
	return -1
}
