package notifications

import (
	"context"
	"errors"
	"log"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gitub.com/matheusmosca/ton-shop/orders"
	"gitub.com/matheusmosca/ton-shop/payments"
	"gitub.com/matheusmosca/ton-shop/telegram"
)

// orderIDPattern é o fallback textual para correlacionar respostas do
// administrador quando a referência estruturada da mensagem se perdeu.
var orderIDPattern = regexp.MustCompile(`\(ID: (\d+)\)`)

const pollTimeout = 30 * time.Second

// eventKind classifica um update recebido. O roteamento é uma união etiquetada
// sobre o tipo do evento, não hierarquia de handlers.
type eventKind int

const (
	eventIgnored eventKind = iota
	eventCommand
	eventCallback
	eventFreeText
)

func classify(update telegram.Update) eventKind {
	switch {
	case update.CallbackQuery != nil:
		return eventCallback
	case update.Message == nil || update.Message.Text == "":
		return eventIgnored
	case strings.HasPrefix(update.Message.Text, "/"):
		return eventCommand
	default:
		return eventFreeText
	}
}

// Dispatcher consome updates do bot (long-poll ou webhook) e os roteia
// para os casos de uso de pedido e pagamento.
type Dispatcher struct {
	bot         telegram.API
	relay       *Relay
	orders      *orders.UseCase
	payments    *payments.UseCase
	adminChatID int64
}

// NewDispatcher cria uma nova instância de Dispatcher
func NewDispatcher(
	bot telegram.API,
	relay *Relay,
	ordersUC *orders.UseCase,
	paymentsUC *payments.UseCase,
	adminChatID int64,
) *Dispatcher {
	return &Dispatcher{
		bot:         bot,
		relay:       relay,
		orders:      ordersUC,
		payments:    paymentsUC,
		adminChatID: adminChatID,
	}
}

// Run executa o loop de long-poll até o contexto ser cancelado.
// Cada update é despachado em sua própria goroutine; a serialização de
// escritas conflitantes acontece nos updates condicionais do repositório,
// nunca em locks de processo.
func (d *Dispatcher) Run(ctx context.Context) {
	log.Println("🤖 Bot dispatcher started")
	var offset int64

	for {
		select {
		case <-ctx.Done():
			log.Println("🤖 Bot dispatcher stopped")
			return
		default:
		}

		updates, err := d.bot.GetUpdates(ctx, offset, pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			log.Printf("⚠️ getUpdates failed: %v", err)
			time.Sleep(3 * time.Second)
			continue
		}

		for _, update := range updates {
			if update.UpdateID >= offset {
				offset = update.UpdateID + 1
			}
			go func(u telegram.Update) {
				dispatchCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()
				d.Dispatch(dispatchCtx, u)
			}(update)
		}
	}
}

// Dispatch roteia um único update. Também é o ponto de entrada do webhook HTTP.
func (d *Dispatcher) Dispatch(ctx context.Context, update telegram.Update) {
	switch classify(update) {
	case eventCommand:
		d.handleCommand(ctx, update.Message)
	case eventCallback:
		d.handleCallback(ctx, update.CallbackQuery)
	case eventFreeText:
		d.handleFreeText(ctx, update.Message)
	}
}

func (d *Dispatcher) handleCommand(ctx context.Context, message *telegram.Message) {
	command, _, _ := strings.Cut(message.Text, " ")
	switch command {
	case "/start":
		d.send(ctx, message.Chat.ID, "Добро пожаловать в TON Shop! Используйте наш веб-магазин для покупок.")
	case "/help":
		d.send(ctx, message.Chat.ID, "Это бот TON Shop. Оформите заказ в веб-магазине — подтверждение и оплата придут сюда.")
	}
}

// handleCallback trata botões inline: payload opaco "{action}_{order_id}"
func (d *Dispatcher) handleCallback(ctx context.Context, query *telegram.CallbackQuery) {
	action, rawID, found := strings.Cut(query.Data, "_")
	if !found {
		return
	}
	orderID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		log.Printf("⚠️ Malformed callback payload: %q", query.Data)
		return
	}

	switch action {
	case "pay":
		d.handlePayAction(ctx, query, orderID)
	case "check":
		d.handleCheckAction(ctx, query, orderID)
	case "complete":
		d.handleCompleteAction(ctx, query, orderID)
	}
}

// handlePayAction cria o pagamento no provedor e envia a URL ao comprador.
// Não muda o status do pedido: isso só acontece na confirmação.
func (d *Dispatcher) handlePayAction(ctx context.Context, query *telegram.CallbackQuery, orderID int64) {
	order, err := d.orders.GetOrder(ctx, orderID)
	if err != nil || order.UserID != query.From.ID {
		d.answer(ctx, query.ID, "Заказ не найден")
		return
	}

	_, paymentURL, err := d.payments.CreatePayment(ctx, order.UserID, order.ID, order.TotalAmount)
	if err != nil {
		log.Printf("❌ Pay action failed | OrderID: %d | %v", orderID, err)
		d.answer(ctx, query.ID, "Не удалось создать оплату, попробуйте ещё раз")
		return
	}

	d.answer(ctx, query.ID, "")
	if err := d.relay.SendPaymentLink(ctx, order, paymentURL); err != nil {
		log.Printf("⚠️ Failed to send payment link | OrderID: %d | %v", orderID, err)
	}
}

// handleCheckAction consulta o provedor quando o callback de confirmação se
// perdeu. O provedor dizendo "paid" vira a mesma transição condicional do
// webhook: se ambos chegarem, um deles perde com ErrAlreadyProcessed.
func (d *Dispatcher) handleCheckAction(ctx context.Context, query *telegram.CallbackQuery, orderID int64) {
	order, err := d.orders.GetOrder(ctx, orderID)
	if err != nil || order.UserID != query.From.ID {
		d.answer(ctx, query.ID, "Заказ не найден")
		return
	}

	paid, err := d.payments.VerifyPayment(ctx, orderID)
	if err != nil {
		log.Printf("❌ Check action failed | OrderID: %d | %v", orderID, err)
		d.answer(ctx, query.ID, "Не удалось проверить оплату, попробуйте ещё раз")
		return
	}
	if !paid {
		d.answer(ctx, query.ID, "Оплата ещё не поступила")
		return
	}

	_, err = d.orders.ConfirmPayment(ctx, orderID, order.TotalAmount)
	switch {
	case errors.Is(err, orders.ErrAlreadyProcessed):
		d.answer(ctx, query.ID, "Заказ уже оплачен")
	case err != nil:
		log.Printf("❌ Check action confirmation failed | OrderID: %d | %v", orderID, err)
		d.answer(ctx, query.ID, "Не удалось подтвердить оплату")
	default:
		d.answer(ctx, query.ID, "Оплата получена! Заказ передан в обработку")
	}
}

func (d *Dispatcher) handleCompleteAction(ctx context.Context, query *telegram.CallbackQuery, orderID int64) {
	_, err := d.orders.CompleteOrder(ctx, orderID)
	switch {
	case errors.Is(err, orders.ErrAlreadyProcessed):
		// Duplo clique no botão: trata como sucesso do ponto de vista do admin
		d.answer(ctx, query.ID, "Заказ уже завершён")
	case err != nil:
		log.Printf("❌ Complete action failed | OrderID: %d | %v", orderID, err)
		d.answer(ctx, query.ID, "Не удалось завершить заказ")
	default:
		d.answer(ctx, query.ID, "Заказ завершён")
	}
}

// handleFreeText repassa o texto livre entre as duas pontas do diálogo
func (d *Dispatcher) handleFreeText(ctx context.Context, message *telegram.Message) {
	if message.Chat.ID == d.adminChatID {
		d.handleAdminReply(ctx, message)
		return
	}

	order, err := d.orders.ActiveOrderByUser(ctx, message.Chat.ID)
	if errors.Is(err, orders.ErrOrderNotFound) {
		log.Printf("ℹ️ Dropping message from user %d: no open dialog", message.Chat.ID)
		return
	}
	if err != nil {
		log.Printf("⚠️ Failed to resolve active order for user %d: %v", message.Chat.ID, err)
		return
	}

	if err := d.relay.ForwardBuyerMessage(ctx, order, message.Text); err != nil {
		log.Printf("⚠️ Failed to forward buyer message | OrderID: %d | %v", order.ID, err)
	}
}

// handleAdminReply correlaciona a resposta do administrador ao pedido: primeiro
// pela referência estruturada da mensagem respondida, depois pelo "(ID: n)" no texto.
func (d *Dispatcher) handleAdminReply(ctx context.Context, message *telegram.Message) {
	if message.ReplyToMessage == nil {
		return
	}

	order, err := d.orders.OrderByAdminMessage(ctx, message.ReplyToMessage.MessageID)
	if errors.Is(err, orders.ErrOrderNotFound) {
		order, err = d.orderFromReplyText(ctx, message.ReplyToMessage.Text)
	}
	if err != nil {
		// Correlação impossível: descarta em silêncio
		log.Printf("ℹ️ Dropping admin reply: cannot correlate to an order")
		return
	}

	if err := d.relay.ForwardAdminReply(ctx, order, message.Text); err != nil {
		log.Printf("⚠️ Failed to forward admin reply | OrderID: %d | %v", order.ID, err)
	}
}

func (d *Dispatcher) orderFromReplyText(ctx context.Context, text string) (*orders.Order, error) {
	match := orderIDPattern.FindStringSubmatch(text)
	if match == nil {
		return nil, orders.ErrOrderNotFound
	}
	orderID, err := strconv.ParseInt(match[1], 10, 64)
	if err != nil {
		return nil, orders.ErrOrderNotFound
	}
	return d.orders.GetOrder(ctx, orderID)
}

func (d *Dispatcher) send(ctx context.Context, chatID int64, text string) {
	if _, err := d.bot.SendMessage(ctx, chatID, text, nil); err != nil {
		log.Printf("⚠️ Failed to send message to chat %d: %v", chatID, err)
	}
}

func (d *Dispatcher) answer(ctx context.Context, callbackID, text string) {
	if err := d.bot.AnswerCallbackQuery(ctx, callbackID, text); err != nil {
		log.Printf("⚠️ Failed to answer callback query: %v", err)
	}
}
