package orders

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"gitub.com/matheusmosca/ton-shop/cart"
	"gitub.com/matheusmosca/ton-shop/catalog"
	"gitub.com/matheusmosca/ton-shop/events"
)

// Notifier traduz transições de estado do pedido em mensagens para o
// comprador e para o canal de administração. Entregas são best-effort:
// um erro aqui nunca reverte a transição que o disparou.
type Notifier interface {
	OrderCreated(ctx context.Context, order *Order, items []ItemSummary) error
	OrderPaid(ctx context.Context, order *Order, items []ItemSummary) error
	OrderCompleted(ctx context.Context, order *Order) error
}

// UseCase contém a lógica de negócio dos pedidos
type UseCase struct {
	repository Repository
	cart       cart.Repository
	catalog    catalog.Repository
	notifier   Notifier
	emitter    *events.Emitter

	ordersCreatedCounter   metric.Int64Counter
	ordersPaidCounter      metric.Int64Counter
	ordersCompletedCounter metric.Int64Counter
}

// NewUseCase cria uma nova instância de UseCase
func NewUseCase(
	repository Repository,
	cartRepo cart.Repository,
	catalogRepo catalog.Repository,
	notifier Notifier,
	emitter *events.Emitter,
) *UseCase {
	meter := otel.Meter("orders-service")
	created, _ := meter.Int64Counter("orders.created")
	paid, _ := meter.Int64Counter("orders.paid")
	completed, _ := meter.Int64Counter("orders.completed")

	return &UseCase{
		repository:             repository,
		cart:                   cartRepo,
		catalog:                catalogRepo,
		notifier:               notifier,
		emitter:                emitter,
		ordersCreatedCounter:   created,
		ordersPaidCounter:      paid,
		ordersCompletedCounter: completed,
	}
}

// CreateOrder materializa o carrinho da sessão em um pedido com preços congelados
func (uc *UseCase) CreateOrder(ctx context.Context, sessionID string, userID int64, deliveryAddress string) (*Order, error) {
	log.Printf("➡️ [CREATE ORDER] SessionID: %s | UserID: %d", sessionID, userID)

	// 1. Lê o carrinho da sessão
	lines, err := uc.cart.GetLines(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to read cart: %w", err)
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	// 2. Congela o preço unitário de cada produto. Qualquer produto
	// ausente aborta o pedido inteiro: nunca cobrar uma cesta diferente
	// da que o comprador montou.
	total := decimal.Zero
	items := make([]OrderItem, 0, len(lines))
	summaries := make([]ItemSummary, 0, len(lines))
	for _, line := range lines {
		product, err := uc.catalog.GetProduct(ctx, line.ProductID)
		if errors.Is(err, catalog.ErrProductNotFound) {
			log.Printf("❌ CREATE ORDER FAILED: product %d vanished from catalog", line.ProductID)
			return nil, ErrProductNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read product %d: %w", line.ProductID, err)
		}

		item := OrderItem{
			ProductID:    line.ProductID,
			Quantity:     line.Quantity,
			PriceAtOrder: product.Price,
		}
		total = total.Add(item.Subtotal())
		items = append(items, item)
		summaries = append(summaries, ItemSummary{Name: product.Name, Quantity: line.Quantity})
	}

	// 3. Pedido + itens + limpeza do carrinho em uma única transação
	order := &Order{
		UserID:          userID,
		TotalAmount:     total,
		DeliveryAddress: deliveryAddress,
	}
	if err := uc.repository.CreateOrder(ctx, order, items, sessionID); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	uc.ordersCreatedCounter.Add(ctx, 1)
	log.Printf("✅ Order created: %d | Total: %s", order.ID, order.TotalAmount)

	// 4. Confirmação ao comprador com o botão de pagamento. O pedido já
	// está persistido: falha de envio é logada, nunca desfaz a transação.
	if err := uc.notifier.OrderCreated(ctx, order, summaries); err != nil {
		log.Printf("⚠️ Order %d created but confirmation notification failed: %v", order.ID, err)
	}

	uc.emitter.OrderCreated(ctx, events.OrderEvent{
		OrderID:     order.ID,
		UserID:      order.UserID,
		TotalAmount: order.TotalAmount,
		Status:      order.Status,
		OccurredAt:  order.CreatedAt,
	})

	return order, nil
}

// ConfirmPayment faz a transição pending -> paid. A confirmação concorrente
// (webhook e callback do bot ao mesmo tempo) é resolvida pelo update
// condicional no repositório: exatamente uma vence, a outra recebe
// ErrAlreadyProcessed.
func (uc *UseCase) ConfirmPayment(ctx context.Context, orderID int64, amount decimal.Decimal) (*Order, error) {
	log.Printf("➡️ [CONFIRM PAYMENT] OrderID: %d | Amount: %s", orderID, amount)

	order, err := uc.repository.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !order.AmountMatches(amount) {
		log.Printf("❌ CONFIRM PAYMENT FAILED: amount mismatch | OrderID: %d | expected %s, got %s",
			orderID, order.TotalAmount, amount)
		return nil, ErrAmountMismatch
	}

	if err := uc.repository.MarkPaid(ctx, orderID); err != nil {
		return nil, err
	}
	order.Status = StatusPaid
	order.PaymentStatus = PaymentStatusPaid
	uc.ordersPaidCounter.Add(ctx, 1)
	log.Printf("✅ Order paid: %d", orderID)

	summaries, err := uc.repository.ItemSummaries(ctx, orderID)
	if err != nil {
		log.Printf("⚠️ Failed to load item summaries for order %d: %v", orderID, err)
	}
	if err := uc.notifier.OrderPaid(ctx, order, summaries); err != nil {
		log.Printf("⚠️ Order %d paid but admin notification failed: %v", orderID, err)
	}

	uc.emitter.OrderPaid(ctx, events.OrderEvent{
		OrderID:     order.ID,
		UserID:      order.UserID,
		TotalAmount: order.TotalAmount,
		Status:      order.Status,
		OccurredAt:  order.UpdatedAt,
	})

	return order, nil
}

// CompleteOrder faz a transição paid -> completed e encerra o diálogo do pedido
func (uc *UseCase) CompleteOrder(ctx context.Context, orderID int64) (*Order, error) {
	log.Printf("➡️ [COMPLETE ORDER] OrderID: %d", orderID)

	order, err := uc.repository.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if err := uc.repository.Complete(ctx, orderID); err != nil {
		return nil, err
	}
	order.Status = StatusCompleted
	order.DialogActive = false
	uc.ordersCompletedCounter.Add(ctx, 1)
	log.Printf("✅ Order completed: %d", orderID)

	if err := uc.notifier.OrderCompleted(ctx, order); err != nil {
		log.Printf("⚠️ Order %d completed but notification failed: %v", orderID, err)
	}

	return order, nil
}

// CancelOrder cancela o pedido; completed e cancelled são terminais
func (uc *UseCase) CancelOrder(ctx context.Context, orderID int64) (*Order, error) {
	log.Printf("↩️ [CANCEL ORDER] OrderID: %d", orderID)

	order, err := uc.repository.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if err := uc.repository.Cancel(ctx, orderID); err != nil {
		return nil, err
	}
	order.Status = StatusCancelled
	log.Printf("♻️  Order cancelled: %d", orderID)
	return order, nil
}

// GetOrder busca um pedido pelo ID
func (uc *UseCase) GetOrder(ctx context.Context, orderID int64) (*Order, error) {
	return uc.repository.GetOrder(ctx, orderID)
}

// ActiveOrderByUser retorna o pedido com diálogo aberto mais recente do usuário
func (uc *UseCase) ActiveOrderByUser(ctx context.Context, userID int64) (*Order, error) {
	return uc.repository.ActiveOrderByUser(ctx, userID)
}

// OrderByAdminMessage correlaciona a mensagem do canal de administração ao pedido
func (uc *UseCase) OrderByAdminMessage(ctx context.Context, messageID int64) (*Order, error) {
	return uc.repository.OrderByAdminMessage(ctx, messageID)
}
