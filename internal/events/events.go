// Package events publishes domain events (record creation, health alerts)
// to NATS.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// Publisher delivers JSON events. Subjects are relative; the publisher adds
// its own prefix.
type Publisher interface {
	Publish(ctx context.Context, subject string, payload any) error
	Close() error
}

// RecordCreated returns the subject for a newly created record of kind.
func RecordCreated(kind string) string {
	return "records." + kind + ".created"
}

// Alert returns the subject for a raised health alert.
func Alert(name string) string {
	return "alerts." + name
}

// RecordEvent is published when a record is created.
type RecordEvent struct {
	RecordID   string    `json:"record_id"`
	UserID     string    `json:"user_id"`
	Kind       string    `json:"kind"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NopPublisher discards events.
type NopPublisher struct{}

// Publish implements Publisher.
func (NopPublisher) Publish(context.Context, string, any) error { return nil }

// Close implements Publisher.
func (NopPublisher) Close() error { return nil }

// Message is an event captured by MemoryPublisher.
type Message struct {
	Subject string
	Data    json.RawMessage
}

// MemoryPublisher records events in memory.
type MemoryPublisher struct {
	mu       sync.Mutex
	messages []Message
}

// Publish implements Publisher.
func (p *MemoryPublisher) Publish(_ context.Context, subject string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, Message{Subject: subject, Data: data})
	return nil
}

// Close implements Publisher.
func (p *MemoryPublisher) Close() error { return nil }

// Messages returns a copy of the captured events.
func (p *MemoryPublisher) Messages() []Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Message(nil), p.messages...)
}

// Subjects returns the subjects of the captured events in order.
func (p *MemoryPublisher) Subjects() []string {
	msgs := p.Messages()
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Subject
	}
	return out
}
