package models

import (
	"time"

	"github.com/google/uuid"
)

type PurchaseItem struct {
	ID         uuid.UUID `json:"id"`
	PurchaseID uuid.UUID `json:"purchase_id"`
	ProductID  uuid.UUID `json:"product_id"`
	Title      string    `json:"title"`
	Price      float64   `json:"price"`
	Quantity   int       `json:"quantity"`
	Product    *Product  `json:"product,omitempty"`
}

// Purchase is the per-seller counterpart of an order: one document per
// distinct seller represented in the cart at checkout time.
type Purchase struct {
	ID              uuid.UUID      `json:"id"`
	BuyerID         uuid.UUID      `json:"buyer_id"`
	SellerID        uuid.UUID      `json:"seller_id"`
	Items           []PurchaseItem `json:"items"`
	ShippingAddress Address        `json:"shipping_address"`
	Location        string         `json:"location"`
	PaymentMethod   PaymentMethod  `json:"payment_method"`
	Status          Status         `json:"status"`
	TotalAmount     float64        `json:"total_amount"`
	Notes           string         `json:"notes,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	Buyer           *User          `json:"buyer,omitempty"`
	Seller          *User          `json:"seller,omitempty"`
}

type PurchaseCheckoutRequest struct {
	ShippingAddress Address       `json:"shipping_address" validate:"required"`
	Location        string        `json:"location" validate:"required"`
	PaymentMethod   PaymentMethod `json:"payment_method" validate:"required"`
	Notes           string        `json:"notes,omitempty" validate:"omitempty,max=500"`
}
