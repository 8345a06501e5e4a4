package models

import (
	"time"

	"github.com/google/uuid"
)

type Address struct {
	Street  string `json:"street" validate:"required"`
	City    string `json:"city" validate:"required"`
	State   string `json:"state" validate:"required"`
	Pincode string `json:"pincode" validate:"required"`
}

// OrderItem is a snapshot taken at checkout time; title, price and seller
// stay as they were even if the catalog record changes later.
type OrderItem struct {
	ID        uuid.UUID `json:"id"`
	OrderID   uuid.UUID `json:"order_id"`
	ProductID uuid.UUID `json:"product_id"`
	Title     string    `json:"title"`
	Price     float64   `json:"price"`
	Quantity  int       `json:"quantity"`
	SellerID  uuid.UUID `json:"seller_id"`
	Seller    *User     `json:"seller,omitempty"`
}

type Order struct {
	ID              uuid.UUID     `json:"id"`
	BuyerID         uuid.UUID     `json:"buyer_id"`
	Items           []OrderItem   `json:"items"`
	Address         Address       `json:"address"`
	Location        string        `json:"location"`
	PaymentMethod   PaymentMethod `json:"payment_method"`
	Status          Status        `json:"status"`
	TotalAmount     float64       `json:"total_amount"`
	Notes           string        `json:"notes,omitempty"`
	PaymentIntentID string        `json:"payment_intent_id,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// DirectItem is a caller-supplied line for the "buy now" path.
type DirectItem struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Title     string    `json:"title,omitempty"`
	Price     float64   `json:"price,omitempty" validate:"omitempty,gte=0"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
	SellerID  uuid.UUID `json:"seller,omitempty"`
}

// CheckoutRequest serves both checkout modes: with Products set it is a
// direct "buy now" order, otherwise the order is built from the cart.
type CheckoutRequest struct {
	Address       Address       `json:"address" validate:"required"`
	Location      string        `json:"location" validate:"required"`
	PaymentMethod PaymentMethod `json:"payment_method" validate:"required"`
	Notes         string        `json:"notes,omitempty" validate:"omitempty,max=500"`
	Products      []DirectItem  `json:"products,omitempty" validate:"omitempty,dive"`
	TotalAmount   float64       `json:"total_amount,omitempty" validate:"omitempty,gte=0"`
}

type UpdateStatusRequest struct {
	Status Status `json:"status" validate:"required,oneof=Pending Confirmed Shipped Delivered Cancelled"`
}

type PaymentIntent struct {
	ID     string  `json:"id"`
	Amount float64 `json:"amount"`
	Status string  `json:"status"`
}
