package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/example/pos-register/internal/domain/order"
	"github.com/example/pos-register/internal/infrastructure/store"
)

// QueueKey is the local store slot holding the serialized pending queue.
const QueueKey = "offlineOrders"

// Queue is the ordered set of orders not yet confirmed by the remote store.
// Every mutation rewrites the local slot while holding the lock, so the
// persisted content never lags behind a completed Push or Remove.
type Queue struct {
	mu     sync.Mutex
	store  store.LocalStoreInterface
	orders []order.Pending
}

// LoadQueue restores the queue from the local store. A missing slot is an
// empty queue; an unreadable slot is an error so no orders are silently
// dropped.
func LoadQueue(ctx context.Context, ls store.LocalStoreInterface) (*Queue, error) {
	q := &Queue{store: ls}

	data, ok, err := ls.Get(ctx, QueueKey)
	if err != nil {
		return nil, fmt.Errorf("load pending queue: %w", err)
	}
	if !ok || len(data) == 0 {
		return q, nil
	}
	if err := json.Unmarshal(data, &q.orders); err != nil {
		return nil, fmt.Errorf("decode pending queue: %w", err)
	}

	log.Printf("[Queue] Restored %d pending orders", len(q.orders))
	return q, nil
}

// Push appends p unless an order with the same local id is already queued.
// The order stays queued in memory even when persisting fails.
func (q *Queue) Push(ctx context.Context, p order.Pending) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.indexOf(p.LocalID.String()) >= 0 {
		return false, nil
	}
	q.orders = append(q.orders, p.Clone())
	return true, q.persistLocked(ctx)
}

// Remove drops the order with localID. Absent ids are a no-op.
func (q *Queue) Remove(ctx context.Context, localID string) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	i := q.indexOf(localID)
	if i < 0 {
		return false, nil
	}
	q.orders = append(q.orders[:i:i], q.orders[i+1:]...)
	return true, q.persistLocked(ctx)
}

func (q *Queue) Get(localID string) (order.Pending, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	i := q.indexOf(localID)
	if i < 0 {
		return order.Pending{}, false
	}
	return q.orders[i].Clone(), true
}

// Snapshot returns a deep copy of the queue in order.
func (q *Queue) Snapshot() []order.Pending {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]order.Pending, len(q.orders))
	for i, p := range q.orders {
		out[i] = p.Clone()
	}
	return out
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.orders)
}

// Persist writes the current queue to the local store.
func (q *Queue) Persist(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.persistLocked(ctx)
}

func (q *Queue) persistLocked(ctx context.Context) error {
	orders := q.orders
	if orders == nil {
		orders = []order.Pending{}
	}
	data, err := json.Marshal(orders)
	if err != nil {
		return fmt.Errorf("encode pending queue: %w", err)
	}
	// A cancelled request must not leave the slot behind memory.
	if err := q.store.Set(context.WithoutCancel(ctx), QueueKey, data); err != nil {
		return fmt.Errorf("persist pending queue: %w", err)
	}
	return nil
}

func (q *Queue) indexOf(localID string) int {
	for i, p := range q.orders {
		if p.LocalID.String() == localID {
			return i
		}
	}
	return -1
}
