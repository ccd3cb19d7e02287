package payments

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestTONGatewayCreateInvoice(t *testing.T) {
	// Arrange
	var received InvoiceRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/invoice", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(InvoiceResponse{
			PaymentURL: "https://pay.ton.example/inv-1",
			PaymentID:  "inv-1",
		})
	}))
	defer server.Close()

	gateway := NewTONGateway(server.URL, "test-key", "UQCwallet", "http://localhost:8080/api/payment-confirmation")

	// Act
	invoice, err := gateway.CreateInvoice(context.Background(), 42, decimal.RequireFromString("7.25"))

	// Assert
	assert.NoError(t, err)
	assert.Equal(t, "inv-1", invoice.PaymentID)
	assert.Equal(t, "https://pay.ton.example/inv-1", invoice.PaymentURL)
	assert.Equal(t, "42", received.OrderID)
	assert.Equal(t, "UQCwallet", received.Wallet)
	assert.Equal(t, "http://localhost:8080/api/payment-confirmation", received.CallbackURL)
	assert.True(t, received.Amount.Equal(decimal.RequireFromString("7.25")))
}

func TestTONGatewayCreateInvoice_ProviderError(t *testing.T) {
	// Arrange
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	defer server.Close()

	gateway := NewTONGateway(server.URL, "test-key", "UQCwallet", "http://cb")

	// Act
	invoice, err := gateway.CreateInvoice(context.Background(), 42, decimal.RequireFromString("7.25"))

	// Assert
	assert.ErrorIs(t, err, ErrGateway)
	assert.Nil(t, invoice)
}

func TestTONGatewayCreateInvoice_MalformedResponse(t *testing.T) {
	// Arrange
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	gateway := NewTONGateway(server.URL, "test-key", "UQCwallet", "http://cb")

	// Act
	invoice, err := gateway.CreateInvoice(context.Background(), 42, decimal.RequireFromString("7.25"))

	// Assert
	assert.ErrorIs(t, err, ErrGateway)
	assert.Nil(t, invoice)
}

func TestTONGatewayPaymentStatus(t *testing.T) {
	// Arrange
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v1/payments/inv-1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "paid"})
	}))
	defer server.Close()

	gateway := NewTONGateway(server.URL, "test-key", "UQCwallet", "http://cb")

	// Act
	status, err := gateway.PaymentStatus(context.Background(), "inv-1")

	// Assert
	assert.NoError(t, err)
	assert.Equal(t, StatusPaid, status)
}

func TestTONGatewayPaymentStatus_ProviderError(t *testing.T) {
	// Arrange
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer server.Close()

	gateway := NewTONGateway(server.URL, "test-key", "UQCwallet", "http://cb")

	// Act
	status, err := gateway.PaymentStatus(context.Background(), "missing")

	// Assert
	assert.ErrorIs(t, err, ErrGateway)
	assert.Empty(t, status)
}
