// Package events carries stock and invoice notifications to live dashboards
// and, when configured, to a Kafka topic.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go-invoice-ws/internal/ws"

	"github.com/segmentio/kafka-go"
)

const (
	TypeStockUpdate  = "stock_update"
	TypeInvoiceEvent = "invoice_update"
)

// User identifies who triggered an event
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Event struct {
	Type       string                 `json:"type"`
	Action     string                 `json:"action"`
	Message    string                 `json:"message"`
	Data       map[string]interface{} `json:"data,omitempty"`
	User       User                   `json:"user"`
	OccurredAt time.Time              `json:"occurred_at"`
}

// Key partitions events of the same subject together
func (e Event) Key() []byte {
	if id, ok := e.Data["id"].(string); ok && id != "" {
		return []byte(id)
	}
	return []byte(e.Action)
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

func encode(event Event) ([]byte, error) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	return json.Marshal(event)
}

// HubPublisher pushes events to every connected WebSocket client
type HubPublisher struct {
	hub *ws.Hub
}

func NewHubPublisher(hub *ws.Hub) *HubPublisher {
	return &HubPublisher{hub: hub}
}

func (p *HubPublisher) Publish(_ context.Context, event Event) error {
	msg, err := encode(event)
	if err != nil {
		return err
	}
	p.hub.Send(msg)
	return nil
}

// MessageWriter is the part of *kafka.Writer the publisher needs
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events as JSON to a single topic
type KafkaPublisher struct {
	writer MessageWriter
}

func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}
}

func NewKafkaPublisher(writer MessageWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: writer}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	payload, err := encode(event)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   event.Key(),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(event.Type)},
		},
	})
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// Multi publishes to every publisher and joins their errors
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, event Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop discards events
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
