package models

import (
	"time"

	"github.com/google/uuid"
)

type CartItem struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
	AddedAt   time.Time `json:"added_at"`
	Product   *Product  `json:"product,omitempty"`
}

// Cart is keyed 1:1 to a user (unique index on user_id). It is created
// lazily on first access and emptied, never deleted, on checkout or clear.
type Cart struct {
	ID         uuid.UUID  `json:"id"`
	UserID     uuid.UUID  `json:"user_id"`
	Items      []CartItem `json:"items"`
	TotalItems int        `json:"total_items"`
	TotalPrice float64    `json:"total_price"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// ComputeTotals recalculates the derived totals from the line items.
// Lines whose product could not be resolved contribute quantity only.
func (c *Cart) ComputeTotals() {
	c.TotalItems = 0
	c.TotalPrice = 0

	for _, item := range c.Items {
		c.TotalItems += item.Quantity

		if item.Product != nil {
			c.TotalPrice += item.Product.Price * float64(item.Quantity)
		}
	}
}

type AddItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"omitempty,min=1"`
}

type UpdateQuantityRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1"`
}
