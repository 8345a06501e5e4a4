package stripe

import (
	"context"
	"math"

	"github.com/aaravmahajanofficial/secondhand-marketplace/internal/models"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/paymentintent"
)

// Client wraps the Stripe SDK for card checkouts. Cash on delivery and
// UPI orders never touch it.
type Client struct {
	currency string
}

func NewClient(apiKey, currency string) *Client {
	stripe.Key = apiKey

	if currency == "" {
		currency = "inr"
	}

	return &Client{currency: currency}
}

// CreatePaymentIntent registers the order total with Stripe and returns the
// intent the frontend confirms. Amount is converted to the currency's
// smallest unit.
func (c *Client) CreatePaymentIntent(ctx context.Context, amount float64, description string) (*models.PaymentIntent, error) {

	params := &stripe.PaymentIntentParams{
		Params: stripe.Params{
			Context: ctx,
		},
		Amount:      stripe.Int64(int64(math.Round(amount * 100))),
		Currency:    stripe.String(c.currency),
		Description: stripe.String(description),
	}

	intent, err := paymentintent.New(params)
	if err != nil {
		return nil, err
	}

	return &models.PaymentIntent{
		ID:     intent.ID,
		Amount: amount,
		Status: string(intent.Status),
	}, nil
}
