package notifications

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/shopspring/decimal"

	"gitub.com/matheusmosca/ton-shop/orders"
	"gitub.com/matheusmosca/ton-shop/telegram"
)

// Relay traduz transições de estado em mensagens Telegram e encaminha o
// texto livre entre comprador e canal de administração enquanto o diálogo
// do pedido estiver aberto. Faz exatamente um envio por invocação: a proteção
// contra envio duplicado vem do update condicional que disparou a transição.
type Relay struct {
	bot         telegram.API
	repository  orders.Repository
	adminChatID int64
}

// NewRelay cria uma nova instância de Relay
func NewRelay(bot telegram.API, repository orders.Repository, adminChatID int64) *Relay {
	return &Relay{
		bot:         bot,
		repository:  repository,
		adminChatID: adminChatID,
	}
}

// OrderCreated envia ao comprador o resumo do pedido com o botão de pagamento
func (r *Relay) OrderCreated(ctx context.Context, order *orders.Order, items []orders.ItemSummary) error {
	var text strings.Builder
	text.WriteString("🛒 *Ваш заказ*:\n")
	for _, item := range items {
		fmt.Fprintf(&text, "- %s (×%d)\n", item.Name, item.Quantity)
	}
	fmt.Fprintf(&text, "📦 *Адрес доставки*: %s\n💰 *Сумма к оплате*: %s TON",
		order.DeliveryAddress, formatAmount(order.TotalAmount))

	keyboard := telegram.CallbackButton("Оплатить", fmt.Sprintf("pay_%d", order.ID))
	_, err := r.bot.SendMessage(ctx, order.UserID, text.String(), keyboard)
	return err
}

// OrderPaid notifica o canal de administração com o botão de conclusão e
// guarda a referência da mensagem para correlacionar respostas futuras.
func (r *Relay) OrderPaid(ctx context.Context, order *orders.Order, items []orders.ItemSummary) error {
	var text strings.Builder
	fmt.Fprintf(&text, "🚀 *Новый заказ* (ID: %d)\n👤 *Покупатель*: ID %d\n📦 *Адрес*: %s\n🛒 *Состав заказа*:\n",
		order.ID, order.UserID, order.DeliveryAddress)
	for _, item := range items {
		fmt.Fprintf(&text, "- %s (×%d)\n", item.Name, item.Quantity)
	}
	fmt.Fprintf(&text, "💰 *Оплачено*: %s TON", formatAmount(order.TotalAmount))

	keyboard := telegram.CallbackButton("Выполнено", fmt.Sprintf("complete_%d", order.ID))
	message, err := r.bot.SendMessage(ctx, r.adminChatID, text.String(), keyboard)
	if err != nil {
		return err
	}

	// Sem a referência sobra o fallback textual "(ID: n)", então só loga
	if err := r.repository.SetAdminMessage(ctx, order.ID, message.MessageID); err != nil {
		log.Printf("⚠️ Failed to store admin message ref for order %d: %v", order.ID, err)
	}
	return nil
}

// OrderCompleted tira o botão da mensagem do canal (best-effort) e avisa o comprador
func (r *Relay) OrderCompleted(ctx context.Context, order *orders.Order) error {
	if order.AdminMessageID != nil {
		err := r.bot.EditMessageReplyMarkup(ctx, r.adminChatID, *order.AdminMessageID, telegram.EmptyKeyboard())
		if err != nil {
			log.Printf("⚠️ Failed to strip keyboard from admin message for order %d: %v", order.ID, err)
		}
	}

	_, err := r.bot.SendMessage(ctx, order.UserID,
		"✅ *Ваш заказ выполнен!*\nСпасибо за покупку! Диалог закрыт.", nil)
	return err
}

// SendPaymentLink envia ao comprador a URL de pagamento criada no provedor,
// com o botão de verificação para quando o callback do provedor se perder
func (r *Relay) SendPaymentLink(ctx context.Context, order *orders.Order, paymentURL string) error {
	text := fmt.Sprintf("💳 *Оплата заказа №%d*\n\nСумма: %s TON\n\nНажмите кнопку ниже для оплаты:",
		order.ID, formatAmount(order.TotalAmount))
	keyboard := &telegram.InlineKeyboardMarkup{
		InlineKeyboard: [][]telegram.InlineKeyboardButton{
			{{Text: "Оплатить в TON", URL: paymentURL}},
			{{Text: "Проверить оплату", CallbackData: fmt.Sprintf("check_%d", order.ID)}},
		},
	}
	_, err := r.bot.SendMessage(ctx, order.UserID, text, keyboard)
	return err
}

// ForwardBuyerMessage repassa a mensagem do comprador ao canal de administração,
// etiquetada com o ID do pedido. Diálogo fechado descarta em silêncio.
func (r *Relay) ForwardBuyerMessage(ctx context.Context, order *orders.Order, text string) error {
	if !order.DialogActive {
		log.Printf("ℹ️ Dropping buyer message for closed dialog | OrderID: %d", order.ID)
		return nil
	}

	forwarded := fmt.Sprintf("💬 *Сообщение от покупателя* (ID: %d):\n%s", order.ID, text)
	_, err := r.bot.SendMessage(ctx, r.adminChatID, forwarded, nil)
	return err
}

// ForwardAdminReply repassa a resposta do administrador ao comprador
func (r *Relay) ForwardAdminReply(ctx context.Context, order *orders.Order, text string) error {
	if !order.DialogActive {
		log.Printf("ℹ️ Dropping admin reply for closed dialog | OrderID: %d", order.ID)
		return nil
	}

	forwarded := fmt.Sprintf("📢 *Ответ от поддержки*:\n%s", text)
	_, err := r.bot.SendMessage(ctx, order.UserID, forwarded, nil)
	return err
}

func formatAmount(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}
