// Package events publica eventos de domínio do pedido em Kafka.
// A publicação é sempre best-effort: falhas são logadas e nunca
// revertem a transição de negócio que as originou.
package events

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/twmb/franz-go/pkg/kgo"
)

const (
	TopicOrderCreated = `ton-shop.order-created`
	TopicOrderPaid    = `ton-shop.order-paid`
)

// OrderEvent é a representação do evento publicado em Kafka
type OrderEvent struct {
	OrderID     int64           `json:"order_id"`
	UserID      int64           `json:"user_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Status      string          `json:"status"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

// Emitter publica eventos de pedido. Um Emitter nil é válido e não publica nada,
// para ambientes sem Kafka configurado.
type Emitter struct {
	client *kgo.Client
}

// NewEmitter cria uma nova instância de Emitter conectada aos brokers informados
func NewEmitter(brokers []string) (*Emitter, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, err
	}
	return &Emitter{client: client}, nil
}

// Close libera a conexão com o Kafka
func (e *Emitter) Close() {
	if e == nil || e.client == nil {
		return
	}
	e.client.Close()
}

// OrderCreated publica o evento de pedido criado
func (e *Emitter) OrderCreated(ctx context.Context, event OrderEvent) {
	e.produce(ctx, TopicOrderCreated, event)
}

// OrderPaid publica o evento de pedido pago
func (e *Emitter) OrderPaid(ctx context.Context, event OrderEvent) {
	e.produce(ctx, TopicOrderPaid, event)
}

func (e *Emitter) produce(ctx context.Context, topic string, event OrderEvent) {
	if e == nil || e.client == nil {
		return
	}

	value, err := json.Marshal(event)
	if err != nil {
		log.Printf("❌ Failed to marshal %s event: %v", topic, err)
		return
	}

	record := &kgo.Record{
		Topic: topic,
		Key:   []byte(strconv.FormatInt(event.OrderID, 10)),
		Value: value,
	}
	if err := e.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		log.Printf("❌ Failed to produce %s event for order %d: %v", topic, event.OrderID, err)
		return
	}
	log.Printf("📨 Event produced: %s | OrderID: %d", topic, event.OrderID)
}
