package store

import (
	"context"
	"errors"

	"github.com/example/pos-register/internal/domain/order"
)

// ErrOrderRejected is returned when the remote store refuses an order record.
var ErrOrderRejected = errors.New("order rejected by remote store")

// OrderStoreInterface is the remote order store. Insert receives a record
// without a local id and returns the server-confirmed order.
type OrderStoreInterface interface {
	Insert(ctx context.Context, sub order.Submission) (*order.Persisted, error)
}

// LocalStoreInterface is a process-local, disk-backed key/value slot.
type LocalStoreInterface interface {
	// Get returns ok=false when the key was never written.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
}
