package telemetry

import (
	"bytes"
	"context"
	"errors"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	keys   []string
	events []any
	err    error
}

func (f *fakePublisher) Publish(_ context.Context, key string, event any) error {
	f.keys = append(f.keys, key)
	f.events = append(f.events, event)
	return f.err
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		event    Event
		expected string
	}{
		{
			name:     "queued",
			event:    Event{Name: EventOrderQueued, LocalID: "OFF-1", StoreID: "store-1", QueueLength: 2},
			expected: "order.queued local_id=OFF-1 store_id=store-1 queue_length=2",
		},
		{
			name:     "sync failed with reason",
			event:    Event{Name: EventOrderSyncFailed, LocalID: "OFF-1", Reason: "timeout", QueueLength: 1},
			expected: "order.sync_failed local_id=OFF-1 reason=timeout queue_length=1",
		},
		{
			name:     "synced with remote id",
			event:    Event{Name: EventOrderSynced, LocalID: "OFF-1", RemoteID: "42"},
			expected: "order.synced local_id=OFF-1 remote_id=42 queue_length=0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Format(tt.event))
		})
	}
}

func TestLogRecorder(t *testing.T) {
	var buf bytes.Buffer
	r := NewLogRecorder(log.New(&buf, "", 0))

	r.Record(context.Background(), Event{Name: EventOrderQueued, LocalID: "OFF-1", QueueLength: 1})

	assert.Equal(t, "[Telemetry] order.queued local_id=OFF-1 queue_length=1\n", buf.String())
}

func TestKafkaRecorder_KeysByStore(t *testing.T) {
	pub := &fakePublisher{}
	r := NewKafkaRecorder(pub)

	r.Record(context.Background(), Event{Name: EventOrderSynced, StoreID: "store-9"})

	require.Len(t, pub.keys, 1)
	assert.Equal(t, "store-9", pub.keys[0])
	assert.Equal(t, EventOrderSynced, pub.events[0].(Event).Name)
}

func TestKafkaRecorder_PublishErrorSwallowed(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	r := NewKafkaRecorder(pub)

	assert.NotPanics(t, func() {
		r.Record(context.Background(), Event{Name: EventOrderQueued})
	})
}

func TestKafkaRecorder_CancelledContext(t *testing.T) {
	var seen context.Context
	pub := publisherFunc(func(ctx context.Context, _ string, _ any) error {
		seen = ctx
		return nil
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	NewKafkaRecorder(pub).Record(ctx, Event{Name: EventOrderQueued})

	require.NotNil(t, seen)
	assert.NoError(t, seen.Err())
}

type publisherFunc func(ctx context.Context, key string, event any) error

func (f publisherFunc) Publish(ctx context.Context, key string, event any) error {
	return f(ctx, key, event)
}

func TestMulti_FansOut(t *testing.T) {
	a, b := &Capture{}, &Capture{}
	m := Multi{a, Nop{}, b}

	m.Record(context.Background(), Event{Name: EventOrderConfirmed})
	m.Record(context.Background(), Event{Name: EventOrderSynced})

	assert.Equal(t, []string{EventOrderConfirmed, EventOrderSynced}, a.Names())
	assert.Equal(t, a.Names(), b.Names())
	assert.Len(t, b.Events(), 2)
}
