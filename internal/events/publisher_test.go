package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"go-invoice-ws/internal/ws"

	"github.com/segmentio/kafka-go"
)

type recordingWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error { return nil }

func sampleEvent() Event {
	return Event{
		Type:    TypeStockUpdate,
		Action:  "inventory_reconciled",
		Message: "Owner reconciled SAL-202610-0001",
		Data:    map[string]interface{}{"id": "inv-1"},
		User:    User{ID: "u-1", Name: "Owner"},
	}
}

func TestKafkaPublisher(t *testing.T) {
	w := &recordingWriter{}
	p := NewKafkaPublisher(w)

	if err := p.Publish(context.Background(), sampleEvent()); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if len(w.msgs) != 1 {
		t.Fatalf("wrote %d messages, want 1", len(w.msgs))
	}

	msg := w.msgs[0]
	if string(msg.Key) != "inv-1" {
		t.Errorf("Key = %q, want inv-1", msg.Key)
	}
	var got Event
	if err := json.Unmarshal(msg.Value, &got); err != nil {
		t.Fatal(err)
	}
	if got.Action != "inventory_reconciled" || got.OccurredAt.IsZero() {
		t.Errorf("decoded event = %+v", got)
	}
}

func TestHubPublisherQueuesMessage(t *testing.T) {
	hub := ws.NewHub()
	if err := NewHubPublisher(hub).Publish(context.Background(), sampleEvent()); err != nil {
		t.Fatal(err)
	}

	select {
	case msg := <-hub.Broadcast:
		var got Event
		if err := json.Unmarshal(msg, &got); err != nil {
			t.Fatal(err)
		}
		if got.Type != TypeStockUpdate {
			t.Errorf("Type = %q", got.Type)
		}
	default:
		t.Fatal("nothing queued on the hub")
	}
}

func TestMultiJoinsErrors(t *testing.T) {
	boom := errors.New("broker down")
	ok := &recordingWriter{}
	m := Multi{Nop{}, NewKafkaPublisher(&recordingWriter{err: boom}), NewKafkaPublisher(ok)}

	err := m.Publish(context.Background(), sampleEvent())
	if !errors.Is(err, boom) {
		t.Errorf("Publish() error = %v, want %v", err, boom)
	}
	if len(ok.msgs) != 1 {
		t.Error("a failing publisher stopped the others")
	}
}
