package orders

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Status de pedido. As transições são sempre monotônicas:
// pending -> paid -> completed, com cancelled alcançável de qualquer
// estado não terminal.
const (
	StatusPending   = "pending"
	StatusPaid      = "paid"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Status de pagamento do pedido
const (
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
	PaymentStatusFailed  = "failed"
)

var (
	ErrEmptyCart        = errors.New("cart is empty")
	ErrProductNotFound  = errors.New("cart references a product that no longer exists")
	ErrAmountMismatch   = errors.New("payment amount does not match order total")
	ErrAlreadyProcessed = errors.New("order already processed")
	ErrOrderNotFound    = errors.New("order not found")
)

// AmountTolerance é a diferença absoluta aceita entre o valor confirmado
// e o total do pedido (arredondamentos do provedor).
var AmountTolerance = decimal.RequireFromString("0.01")

// Order representa um pedido no sistema
type Order struct {
	ID              int64           `json:"id"`
	UserID          int64           `json:"user_id"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	Status          string          `json:"status"`
	PaymentStatus   string          `json:"payment_status"`
	DeliveryAddress string          `json:"delivery_address"`
	DialogActive    bool            `json:"dialog_active"`
	AdminMessageID  *int64          `json:"-"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// OrderItem congela o preço unitário do produto no momento da criação do pedido
type OrderItem struct {
	ID           int64           `json:"id"`
	OrderID      int64           `json:"order_id"`
	ProductID    int64           `json:"product_id"`
	Quantity     int32           `json:"quantity"`
	PriceAtOrder decimal.Decimal `json:"price_at_order"`
}

// Subtotal retorna price_at_order × quantity
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.PriceAtOrder.Mul(decimal.NewFromInt32(i.Quantity))
}

// ItemSummary é a visão de uma linha do pedido usada nas notificações
type ItemSummary struct {
	Name     string
	Quantity int32
}

// AmountMatches informa se o valor confirmado bate com o total do pedido
// dentro da tolerância.
func (o *Order) AmountMatches(amount decimal.Decimal) bool {
	return o.TotalAmount.Sub(amount).Abs().LessThanOrEqual(AmountTolerance)
}
