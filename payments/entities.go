package payments

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Status de pagamento
const (
	StatusPending = "pending"
	StatusPaid    = "paid"
	StatusFailed  = "failed"
)

var (
	ErrInvalidAmount      = errors.New("payment amount must be positive")
	ErrGateway            = errors.New("payment provider request failed")
	ErrVerificationFailed = errors.New("payment has no provider reference to verify")
	ErrPaymentNotFound    = errors.New("payment not found")
)

// Payment representa uma tentativa de pagamento de um pedido. Um pedido pode
// acumular mais de uma tentativa: uma falha pode ser sucedida por um retry.
type Payment struct {
	ID                int64           `json:"id"`
	OrderID           int64           `json:"order_id"`
	UserID            int64           `json:"user_id"`
	Amount            decimal.Decimal `json:"amount"`
	WalletAddress     string          `json:"wallet_address"`
	Status            string          `json:"status"`
	ExternalPaymentID *string         `json:"external_payment_id,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
}
