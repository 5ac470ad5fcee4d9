package store

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/example/pos-register/internal/domain/order"
	"github.com/sony/gobreaker/v2"
)

type BreakerSettings struct {
	Name        string
	MaxFailures uint32
	OpenTimeout time.Duration
}

// BreakerOrderStore fails fast while the remote store keeps failing, so a
// dead link costs queued checkouts no wait. Rejections prove the store is
// up and do not count as failures.
type BreakerOrderStore struct {
	next OrderStoreInterface
	cb   *gobreaker.CircuitBreaker[*order.Persisted]
}

func NewBreakerOrderStore(next OrderStoreInterface, settings BreakerSettings) *BreakerOrderStore {
	if settings.Name == "" {
		settings.Name = "remote-orders"
	}
	if settings.MaxFailures == 0 {
		settings.MaxFailures = 5
	}
	if settings.OpenTimeout <= 0 {
		settings.OpenTimeout = 30 * time.Second
	}

	cb := gobreaker.NewCircuitBreaker[*order.Persisted](gobreaker.Settings{
		Name:        settings.Name,
		MaxRequests: 1,
		Timeout:     settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= settings.MaxFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrOrderRejected)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Printf("[Breaker] %s: %s -> %s", name, from, to)
		},
	})
	return &BreakerOrderStore{next: next, cb: cb}
}

func (b *BreakerOrderStore) Insert(ctx context.Context, sub order.Submission) (*order.Persisted, error) {
	return b.cb.Execute(func() (*order.Persisted, error) {
		return b.next.Insert(ctx, sub)
	})
}

func (b *BreakerOrderStore) State() gobreaker.State {
	return b.cb.State()
}
