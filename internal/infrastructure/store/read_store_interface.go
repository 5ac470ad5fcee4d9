package store

import (
	"time"

	"github.com/example/pos-register/internal/readmodel"
)

// ReadStoreInterface holds the monitor's projection of pending orders,
// grouped by store.
type ReadStoreInterface interface {
	// PutPending records an order as pending; an existing record is kept.
	PutPending(order *readmodel.PendingOrderReadModel) bool

	// UpdatePending modifies a pending order in place.
	UpdatePending(storeID, localID string, updateFn func(current *readmodel.PendingOrderReadModel)) bool

	// RemovePending drops an order once it is synced.
	RemovePending(storeID, localID string) bool

	// Pending lists one store's pending orders, oldest first.
	Pending(storeID string) []*readmodel.PendingOrderReadModel

	// MarkSynced records the time of the store's latest successful sync.
	MarkSynced(storeID string, at time.Time)

	// Summary returns one row per known store, ordered by store id.
	Summary() []readmodel.StoreSyncReadModel
}
