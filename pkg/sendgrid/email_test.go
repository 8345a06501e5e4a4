package sendgrid_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aaravmahajanofficial/secondhand-marketplace/internal/models"
	sendgrid_client "github.com/aaravmahajanofficial/secondhand-marketplace/pkg/sendgrid"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEmailService(t *testing.T) {
	service := sendgrid_client.NewEmailService("test-api-key", "sender@example.com", "Test Sender")
	assert.NotNil(t, service)
}

type sendgridV3Payload struct {
	Personalizations []struct {
		To      []map[string]string `json:"to"`
		Subject string              `json:"subject"`
	} `json:"personalizations"`
	From    map[string]string `json:"from"`
	Content []struct {
		Type  string `json:"type"`
		Value string `json:"value"`
	} `json:"content"`
}

func testConfirmationOrder() *models.Order {
	return &models.Order{
		ID:      uuid.New(),
		BuyerID: uuid.New(),
		Items: []models.OrderItem{
			{Title: "Road Bike", Price: 1500, Quantity: 1},
			{Title: "Helmet", Price: 200, Quantity: 3},
		},
		Address: models.Address{
			Street:  "12 MG Road",
			City:    "Bengaluru",
			State:   "Karnataka",
			Pincode: "560001",
		},
		PaymentMethod: models.PaymentCashOnDelivery,
		TotalAmount:   2100,
	}
}

func TestSendOrderConfirmation(t *testing.T) {
	apiKey := "SG.test-api-key"
	fromEmail := "orders@secondhand.example"
	fromName := "Secondhand Marketplace"
	ctx := t.Context()

	var lastRequestPayload sendgridV3Payload

	newMockServer := func(t *testing.T, handler http.HandlerFunc) *httptest.Server {
		t.Helper()

		lastRequestPayload = sendgridV3Payload{}

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			bodyBytes, err := io.ReadAll(r.Body)
			require.NoError(t, err)

			defer r.Body.Close()

			require.NoError(t, json.Unmarshal(bodyBytes, &lastRequestPayload))

			handler(w, r)
		}))
		t.Cleanup(server.Close)

		return server
	}

	t.Run("Success - Confirmation Sent", func(t *testing.T) {
		// Arrange
		server := newMockServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "Bearer "+apiKey, r.Header.Get("Authorization"))
			w.WriteHeader(http.StatusAccepted)
		})

		service := sendgrid_client.NewEmailService(apiKey, fromEmail, fromName)
		service.GetSendGridClient().Request.BaseURL = server.URL

		order := testConfirmationOrder()

		// Act
		err := service.SendOrderConfirmation(ctx, "buyer@example.com", order)

		// Assert
		require.NoError(t, err)

		require.Len(t, lastRequestPayload.Personalizations, 1)
		pers := lastRequestPayload.Personalizations[0]
		require.Len(t, pers.To, 1)
		assert.Equal(t, "buyer@example.com", pers.To[0]["email"])
		assert.Contains(t, pers.Subject, order.ID.String())

		assert.Equal(t, fromEmail, lastRequestPayload.From["email"])
		assert.Equal(t, fromName, lastRequestPayload.From["name"])

		require.NotEmpty(t, lastRequestPayload.Content)
		body := lastRequestPayload.Content[0].Value
		assert.Equal(t, "text/plain", lastRequestPayload.Content[0].Type)
		assert.Contains(t, body, "Road Bike x1 - 1500.00")
		assert.Contains(t, body, "Helmet x3 - 600.00")
		assert.Contains(t, body, "Total: 2100.00")
		assert.Contains(t, body, "Payment: Cash on Delivery")
		assert.Contains(t, body, "Bengaluru")
	})

	t.Run("Failure - SendGrid Rejects Request", func(t *testing.T) {
		// Arrange
		server := newMockServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})

		service := sendgrid_client.NewEmailService(apiKey, fromEmail, fromName)
		service.GetSendGridClient().Request.BaseURL = server.URL

		// Act
		err := service.SendOrderConfirmation(ctx, "buyer@example.com", testConfirmationOrder())

		// Assert
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status code: 401")
	})

	t.Run("Failure - Network Error", func(t *testing.T) {
		// Arrange
		server := newMockServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusAccepted)
		})

		service := sendgrid_client.NewEmailService(apiKey, fromEmail, fromName)
		service.GetSendGridClient().Request.BaseURL = server.URL
		server.Close()

		// Act
		err := service.SendOrderConfirmation(ctx, "buyer@example.com", testConfirmationOrder())

		// Assert
		require.Error(t, err)
		assert.True(t, strings.Contains(err.Error(), "connect: connection refused") || strings.Contains(err.Error(), "dial tcp"))
	})
}
