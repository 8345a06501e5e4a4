package service

import (
	"context"

	"github.com/aaravmahajanofficial/secondhand-marketplace/internal/models"
)

// CheckoutNotifier sends the buyer a confirmation after a successful
// checkout. Delivery is best effort; failures are logged, never surfaced.
type CheckoutNotifier interface {
	SendOrderConfirmation(ctx context.Context, email string, order *models.Order) error
}

// PaymentProvider creates a payment intent for card checkouts.
type PaymentProvider interface {
	CreatePaymentIntent(ctx context.Context, amount float64, description string) (*models.PaymentIntent, error)
}
