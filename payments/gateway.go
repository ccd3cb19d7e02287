package payments

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

// InvoiceRequest é o corpo enviado ao endpoint de criação de invoice do provedor
type InvoiceRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	OrderID     string          `json:"order_id"`
	Wallet      string          `json:"wallet"`
	CallbackURL string          `json:"callback_url"`
}

// InvoiceResponse é a resposta do provedor com a URL de pagamento
type InvoiceResponse struct {
	PaymentURL string `json:"payment_url"`
	PaymentID  string `json:"payment_id"`
}

type statusResponse struct {
	Status string `json:"status"`
}

// Gateway abstrai o provedor externo de pagamentos TON
type Gateway interface {
	CreateInvoice(ctx context.Context, orderID int64, amount decimal.Decimal) (*InvoiceResponse, error)
	PaymentStatus(ctx context.Context, externalID string) (string, error)
}

// TONGateway implementa Gateway contra a API HTTP do provedor
type TONGateway struct {
	client      *resty.Client
	wallet      string
	callbackURL string
}

// NewTONGateway cria uma nova instância de TONGateway
func NewTONGateway(apiURL, apiKey, wallet, callbackURL string) *TONGateway {
	client := resty.New().
		SetBaseURL(apiURL).
		SetAuthToken(apiKey).
		SetTimeout(15 * time.Second)

	return &TONGateway{
		client:      client,
		wallet:      wallet,
		callbackURL: callbackURL,
	}
}

func (g *TONGateway) CreateInvoice(ctx context.Context, orderID int64, amount decimal.Decimal) (*InvoiceResponse, error) {
	var invoice InvoiceResponse
	resp, err := g.client.R().
		SetContext(ctx).
		SetBody(InvoiceRequest{
			Amount:      amount,
			OrderID:     strconv.FormatInt(orderID, 10),
			Wallet:      g.wallet,
			CallbackURL: g.callbackURL,
		}).
		SetResult(&invoice).
		Post("/api/v1/invoice")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: provider returned %s", ErrGateway, resp.Status())
	}
	if invoice.PaymentID == "" || invoice.PaymentURL == "" {
		return nil, fmt.Errorf("%w: malformed invoice response", ErrGateway)
	}
	return &invoice, nil
}

func (g *TONGateway) PaymentStatus(ctx context.Context, externalID string) (string, error) {
	var status statusResponse
	resp, err := g.client.R().
		SetContext(ctx).
		SetResult(&status).
		Get("/api/v1/payments/" + externalID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGateway, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("%w: provider returned %s", ErrGateway, resp.Status())
	}
	return status.Status, nil
}
