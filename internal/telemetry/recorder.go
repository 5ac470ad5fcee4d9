// Package telemetry carries order lifecycle events out of the checkout path.
// Recorders must not block or fail the caller.
package telemetry

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"
)

const (
	EventOrderQueued        = "order.queued"
	EventOrderConfirmed     = "order.confirmed"
	EventOrderSynced        = "order.synced"
	EventOrderSyncFailed    = "order.sync_failed"
	EventQueuePersistFailed = "queue.persist_failed"
)

type Event struct {
	Name           string    `json:"name"`
	LocalID        string    `json:"local_id,omitempty"`
	RemoteID       string    `json:"remote_id,omitempty"`
	StoreID        string    `json:"store_id,omitempty"`
	OrganizationID string    `json:"organization_id,omitempty"`
	Reason         string    `json:"reason,omitempty"`
	QueueLength    int       `json:"queue_length"`
	At             time.Time `json:"at"`
}

type Recorder interface {
	Record(ctx context.Context, event Event)
}

// Nop discards events.
type Nop struct{}

func (Nop) Record(context.Context, Event) {}

// LogRecorder writes one prefixed key=value line per event.
type LogRecorder struct {
	logger *log.Logger
}

func NewLogRecorder(logger *log.Logger) *LogRecorder {
	if logger == nil {
		logger = log.Default()
	}
	return &LogRecorder{logger: logger}
}

func (r *LogRecorder) Record(_ context.Context, e Event) {
	r.logger.Printf("[Telemetry] %s", Format(e))
}

// Format renders an event as "name key=value ..." skipping empty fields.
func Format(e Event) string {
	var b strings.Builder
	b.WriteString(e.Name)
	field := func(key, value string) {
		if value != "" {
			fmt.Fprintf(&b, " %s=%s", key, value)
		}
	}
	field("local_id", e.LocalID)
	field("remote_id", e.RemoteID)
	field("store_id", e.StoreID)
	field("organization_id", e.OrganizationID)
	field("reason", e.Reason)
	fmt.Fprintf(&b, " queue_length=%d", e.QueueLength)
	return b.String()
}

// Publisher is satisfied by kafka.Producer.
type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
}

// KafkaRecorder publishes events keyed by store id so one store's events stay
// ordered on a partition.
type KafkaRecorder struct {
	publisher Publisher
}

func NewKafkaRecorder(p Publisher) *KafkaRecorder {
	return &KafkaRecorder{publisher: p}
}

func (r *KafkaRecorder) Record(ctx context.Context, e Event) {
	// Delivery outlives the request that produced the event.
	ctx = context.WithoutCancel(ctx)
	if err := r.publisher.Publish(ctx, e.StoreID, e); err != nil {
		log.Printf("[Telemetry] Failed to publish %s: %v", e.Name, err)
	}
}

// Multi fans events out to every recorder.
type Multi []Recorder

func (m Multi) Record(ctx context.Context, e Event) {
	for _, r := range m {
		r.Record(ctx, e)
	}
}

// Capture keeps events in memory.
type Capture struct {
	mu     sync.Mutex
	events []Event
}

func (c *Capture) Record(_ context.Context, e Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

func (c *Capture) Events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Event(nil), c.events...)
}

// Names returns the recorded event names in order.
func (c *Capture) Names() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, len(c.events))
	for i, e := range c.events {
		names[i] = e.Name
	}
	return names
}
