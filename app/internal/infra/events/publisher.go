// Package events publishes order lifecycle events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"github.com/segmentio/kafka-go"

	domorder "example.com/storefront/app/internal/domain/order"
	"example.com/storefront/app/internal/domain/payment"
)

const (
	DefaultTopic = "order-events"

	eventOrderSettled = "order.settled"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Publisher struct {
	writer messageWriter
	now    func() time.Time
}

func NewPublisher(brokers []string, topic string) *Publisher {
	if topic == "" {
		topic = DefaultTopic
	}
	return newPublisher(&kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	})
}

func newPublisher(w messageWriter) *Publisher {
	return &Publisher{writer: w, now: time.Now}
}

// OrderSettled is the payload of an order.settled event.
type OrderSettled struct {
	OrderID       int64     `json:"order_id"`
	OrderCode     string    `json:"order_code"`
	TransactionID string    `json:"transaction_id"`
	UserID        int64     `json:"user_id"`
	Amount        string    `json:"amount"`
	Email         string    `json:"email"`
	Items         int       `json:"items"`
	CreatedAt     time.Time `json:"created_at"`
}

// PublishOrderSettled writes one message keyed by order code so that every
// event of an order lands on the same partition.
func (p *Publisher) PublishOrderSettled(ctx context.Context, o *domorder.Order) error {
	payload, err := json.Marshal(OrderSettled{
		OrderID:       o.ID,
		OrderCode:     o.Code,
		TransactionID: o.TransactionID,
		UserID:        o.UserID,
		Amount:        o.Amount.StringFixed(payment.MinorUnitExp),
		Email:         o.Payer.Email,
		Items:         len(o.Items),
		CreatedAt:     o.CreatedAt.UTC(),
	})
	if err != nil {
		return errors.Wrap(err, "marshal order settled")
	}

	msg := kafka.Message{
		Key:   []byte(o.Code),
		Value: payload,
		Time:  p.now().UTC(),
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(eventOrderSettled)},
			{Key: "order_id", Value: []byte(strconv.FormatInt(o.ID, 10))},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return errors.Wrap(err, "write order settled")
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
