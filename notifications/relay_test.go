package notifications

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"gitub.com/matheusmosca/ton-shop/orders"
	"gitub.com/matheusmosca/ton-shop/telegram"
)

// fakeBot registra as chamadas à Bot API feitas pelo relay e pelo dispatcher
type fakeBot struct {
	mu            sync.Mutex
	sent          []sentMessage
	edits         []editCall
	answers       []answerCall
	nextMessageID int64
}

type sentMessage struct {
	ChatID   int64
	Text     string
	Keyboard *telegram.InlineKeyboardMarkup
}

type editCall struct {
	ChatID    int64
	MessageID int64
	Keyboard  *telegram.InlineKeyboardMarkup
}

type answerCall struct {
	CallbackID string
	Text       string
}

func (b *fakeBot) SendMessage(ctx context.Context, chatID int64, text string, keyboard *telegram.InlineKeyboardMarkup) (*telegram.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextMessageID++
	b.sent = append(b.sent, sentMessage{ChatID: chatID, Text: text, Keyboard: keyboard})
	return &telegram.Message{MessageID: b.nextMessageID, Chat: telegram.Chat{ID: chatID}, Text: text}, nil
}

func (b *fakeBot) EditMessageReplyMarkup(ctx context.Context, chatID, messageID int64, keyboard *telegram.InlineKeyboardMarkup) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.edits = append(b.edits, editCall{ChatID: chatID, MessageID: messageID, Keyboard: keyboard})
	return nil
}

func (b *fakeBot) AnswerCallbackQuery(ctx context.Context, callbackID, text string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.answers = append(b.answers, answerCall{CallbackID: callbackID, Text: text})
	return nil
}

func (b *fakeBot) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]telegram.Update, error) {
	return nil, nil
}

func (b *fakeBot) sentMessages() []sentMessage {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]sentMessage(nil), b.sent...)
}

// stubOrderRepo mantém os pedidos em memória reproduzindo a semântica dos
// updates condicionais do repositório real.
type stubOrderRepo struct {
	mu         sync.Mutex
	orders     map[int64]*orders.Order
	byAdminMsg map[int64]int64
}

func newStubOrderRepo(seed ...*orders.Order) *stubOrderRepo {
	r := &stubOrderRepo{
		orders:     make(map[int64]*orders.Order),
		byAdminMsg: make(map[int64]int64),
	}
	for _, o := range seed {
		r.orders[o.ID] = o
	}
	return r
}

func (r *stubOrderRepo) CreateOrder(ctx context.Context, order *orders.Order, items []orders.OrderItem, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	order.ID = int64(len(r.orders) + 1)
	order.Status = orders.StatusPending
	order.DialogActive = true
	r.orders[order.ID] = order
	return nil
}

func (r *stubOrderRepo) GetOrder(ctx context.Context, orderID int64) (*orders.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[orderID]
	if !ok {
		return nil, orders.ErrOrderNotFound
	}
	return order, nil
}

func (r *stubOrderRepo) ItemSummaries(ctx context.Context, orderID int64) ([]orders.ItemSummary, error) {
	return []orders.ItemSummary{{Name: "Tea", Quantity: 2}}, nil
}

func (r *stubOrderRepo) MarkPaid(ctx context.Context, orderID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[orderID]
	if !ok || order.Status != orders.StatusPending {
		return orders.ErrAlreadyProcessed
	}
	order.Status = orders.StatusPaid
	order.PaymentStatus = orders.PaymentStatusPaid
	return nil
}

func (r *stubOrderRepo) Complete(ctx context.Context, orderID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[orderID]
	if !ok || order.Status != orders.StatusPaid {
		return orders.ErrAlreadyProcessed
	}
	order.Status = orders.StatusCompleted
	order.DialogActive = false
	return nil
}

func (r *stubOrderRepo) Cancel(ctx context.Context, orderID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[orderID]
	if !ok || order.Status == orders.StatusCompleted || order.Status == orders.StatusCancelled {
		return orders.ErrAlreadyProcessed
	}
	order.Status = orders.StatusCancelled
	return nil
}

func (r *stubOrderRepo) SetAdminMessage(ctx context.Context, orderID int64, messageID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[orderID]
	if !ok {
		return orders.ErrOrderNotFound
	}
	order.AdminMessageID = &messageID
	r.byAdminMsg[messageID] = orderID
	return nil
}

func (r *stubOrderRepo) ActiveOrderByUser(ctx context.Context, userID int64) (*orders.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, order := range r.orders {
		if order.UserID == userID && order.DialogActive {
			return order, nil
		}
	}
	return nil, orders.ErrOrderNotFound
}

func (r *stubOrderRepo) OrderByAdminMessage(ctx context.Context, messageID int64) (*orders.Order, error) {
	r.mu.Lock()
	orderID, ok := r.byAdminMsg[messageID]
	r.mu.Unlock()
	if !ok {
		return nil, orders.ErrOrderNotFound
	}
	return r.GetOrder(ctx, orderID)
}

func ton(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

const testAdminChatID int64 = -100500

func TestRelayOrderCreated(t *testing.T) {
	// Arrange
	bot := &fakeBot{}
	relay := NewRelay(bot, newStubOrderRepo(), testAdminChatID)
	order := &orders.Order{ID: 7, UserID: 555, TotalAmount: ton("7.25"), DeliveryAddress: "Москва"}

	// Act
	err := relay.OrderCreated(context.Background(), order, []orders.ItemSummary{
		{Name: "Tea", Quantity: 2},
	})

	// Assert
	assert.NoError(t, err)
	sent := bot.sentMessages()
	assert.Len(t, sent, 1)
	assert.Equal(t, int64(555), sent[0].ChatID)
	assert.Contains(t, sent[0].Text, "Tea (×2)")
	assert.Contains(t, sent[0].Text, "7.25 TON")
	assert.Contains(t, sent[0].Text, "Москва")
	assert.Equal(t, "pay_7", sent[0].Keyboard.InlineKeyboard[0][0].CallbackData)
}

func TestRelayOrderPaid(t *testing.T) {
	// Arrange
	bot := &fakeBot{}
	order := &orders.Order{ID: 7, UserID: 555, TotalAmount: ton("7.25"), Status: orders.StatusPaid, DialogActive: true}
	repo := newStubOrderRepo(order)
	relay := NewRelay(bot, repo, testAdminChatID)

	// Act
	err := relay.OrderPaid(context.Background(), order, []orders.ItemSummary{
		{Name: "Tea", Quantity: 2},
	})

	// Assert: mensagem vai ao canal de administração com o botão de conclusão
	assert.NoError(t, err)
	sent := bot.sentMessages()
	assert.Len(t, sent, 1)
	assert.Equal(t, testAdminChatID, sent[0].ChatID)
	assert.Contains(t, sent[0].Text, "(ID: 7)")
	assert.Equal(t, "complete_7", sent[0].Keyboard.InlineKeyboard[0][0].CallbackData)

	// A referência estruturada ficou guardada para correlacionar respostas
	assert.NotNil(t, order.AdminMessageID)
	correlated, err := repo.OrderByAdminMessage(context.Background(), *order.AdminMessageID)
	assert.NoError(t, err)
	assert.Equal(t, int64(7), correlated.ID)
}

func TestRelayOrderCompleted(t *testing.T) {
	// Arrange
	bot := &fakeBot{}
	relay := NewRelay(bot, newStubOrderRepo(), testAdminChatID)
	adminMsgID := int64(99)
	order := &orders.Order{ID: 7, UserID: 555, TotalAmount: ton("7.25"), AdminMessageID: &adminMsgID}

	// Act
	err := relay.OrderCompleted(context.Background(), order)

	// Assert: tira o botão da mensagem do canal e avisa o comprador
	assert.NoError(t, err)
	assert.Len(t, bot.edits, 1)
	assert.Equal(t, testAdminChatID, bot.edits[0].ChatID)
	assert.Equal(t, adminMsgID, bot.edits[0].MessageID)
	assert.Empty(t, bot.edits[0].Keyboard.InlineKeyboard)

	sent := bot.sentMessages()
	assert.Len(t, sent, 1)
	assert.Equal(t, int64(555), sent[0].ChatID)
	assert.Contains(t, sent[0].Text, "Ваш заказ выполнен")
}

func TestRelayOrderCompleted_NoAdminMessageRef(t *testing.T) {
	// Arrange
	bot := &fakeBot{}
	relay := NewRelay(bot, newStubOrderRepo(), testAdminChatID)
	order := &orders.Order{ID: 7, UserID: 555, TotalAmount: ton("7.25")}

	// Act
	err := relay.OrderCompleted(context.Background(), order)

	// Assert: sem referência não há edição, só a mensagem ao comprador
	assert.NoError(t, err)
	assert.Empty(t, bot.edits)
	assert.Len(t, bot.sentMessages(), 1)
}

func TestRelayForwardBuyerMessage(t *testing.T) {
	// Arrange
	bot := &fakeBot{}
	relay := NewRelay(bot, newStubOrderRepo(), testAdminChatID)
	order := &orders.Order{ID: 7, UserID: 555, DialogActive: true}

	// Act
	err := relay.ForwardBuyerMessage(context.Background(), order, "Когда доставка?")

	// Assert
	assert.NoError(t, err)
	sent := bot.sentMessages()
	assert.Len(t, sent, 1)
	assert.Equal(t, testAdminChatID, sent[0].ChatID)
	assert.Contains(t, sent[0].Text, "(ID: 7)")
	assert.Contains(t, sent[0].Text, "Когда доставка?")
}

func TestRelayForwardBuyerMessage_ClosedDialog(t *testing.T) {
	// Arrange
	bot := &fakeBot{}
	relay := NewRelay(bot, newStubOrderRepo(), testAdminChatID)
	order := &orders.Order{ID: 7, UserID: 555, DialogActive: false}

	// Act
	err := relay.ForwardBuyerMessage(context.Background(), order, "Когда доставка?")

	// Assert: descarte silencioso, sem erro e sem envio
	assert.NoError(t, err)
	assert.Empty(t, bot.sentMessages())
}

func TestRelayForwardAdminReply(t *testing.T) {
	// Arrange
	bot := &fakeBot{}
	relay := NewRelay(bot, newStubOrderRepo(), testAdminChatID)
	order := &orders.Order{ID: 7, UserID: 555, DialogActive: true}

	// Act
	err := relay.ForwardAdminReply(context.Background(), order, "Завтра утром")

	// Assert
	assert.NoError(t, err)
	sent := bot.sentMessages()
	assert.Len(t, sent, 1)
	assert.Equal(t, int64(555), sent[0].ChatID)
	assert.Contains(t, sent[0].Text, "Завтра утром")
}

func TestRelayForwardAdminReply_ClosedDialog(t *testing.T) {
	// Arrange
	bot := &fakeBot{}
	relay := NewRelay(bot, newStubOrderRepo(), testAdminChatID)
	order := &orders.Order{ID: 7, UserID: 555, DialogActive: false}

	// Act
	err := relay.ForwardAdminReply(context.Background(), order, "Завтра утром")

	// Assert
	assert.NoError(t, err)
	assert.Empty(t, bot.sentMessages())
}
