package sendgrid

import (
	"context"
	"fmt"
	"strings"

	"github.com/aaravmahajanofficial/secondhand-marketplace/internal/models"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type EmailService struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
}

func NewEmailService(apiKey, fromEmail, fromName string) *EmailService {
	return &EmailService{client: sendgrid.NewSendClient(apiKey), fromEmail: fromEmail, fromName: fromName}
}

// GetSendGridClient exposes the underlying client so tests can redirect it.
func (e *EmailService) GetSendGridClient() *sendgrid.Client {
	return e.client
}

// SendOrderConfirmation mails the buyer a plain-text summary of the order.
func (e *EmailService) SendOrderConfirmation(ctx context.Context, email string, order *models.Order) error {

	from := mail.NewEmail(e.fromName, e.fromEmail)
	to := mail.NewEmail("", email)

	subject := fmt.Sprintf("Order confirmation %s", order.ID)
	message := mail.NewSingleEmail(from, subject, to, orderSummary(order), "")

	response, err := e.client.SendWithContext(ctx, message)
	if err != nil {
		return err
	}

	if response.StatusCode >= 400 {
		return fmt.Errorf("failed to send email, status code: %d", response.StatusCode)
	}

	return nil
}

func orderSummary(order *models.Order) string {

	var b strings.Builder

	fmt.Fprintf(&b, "Thanks for your order!\n\n")

	for _, item := range order.Items {
		fmt.Fprintf(&b, "%s x%d - %.2f\n", item.Title, item.Quantity, item.Price*float64(item.Quantity))
	}

	fmt.Fprintf(&b, "\nTotal: %.2f\n", order.TotalAmount)
	fmt.Fprintf(&b, "Payment: %s\n", order.PaymentMethod)
	fmt.Fprintf(&b, "Shipping to: %s, %s, %s %s\n", order.Address.Street, order.Address.City, order.Address.State, order.Address.Pincode)

	return b.String()
}
