package store

import (
	"sort"
	"sync"
	"time"

	"github.com/example/pos-register/internal/readmodel"
)

// ReadStore is an in-memory pending-order projection
type ReadStore struct {
	mu      sync.RWMutex
	pending map[string]map[string]*readmodel.PendingOrderReadModel // store -> local id -> order
	synced  map[string]time.Time
}

func NewReadStore() *ReadStore {
	return &ReadStore{
		pending: make(map[string]map[string]*readmodel.PendingOrderReadModel),
		synced:  make(map[string]time.Time),
	}
}

func (rs *ReadStore) PutPending(order *readmodel.PendingOrderReadModel) bool {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.pending[order.StoreID] == nil {
		rs.pending[order.StoreID] = make(map[string]*readmodel.PendingOrderReadModel)
	}
	if _, ok := rs.pending[order.StoreID][order.LocalID]; ok {
		return false
	}
	copied := *order
	rs.pending[order.StoreID][order.LocalID] = &copied
	return true
}

func (rs *ReadStore) UpdatePending(storeID, localID string, updateFn func(current *readmodel.PendingOrderReadModel)) bool {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	current, ok := rs.pending[storeID][localID]
	if !ok {
		return false
	}
	updateFn(current)
	return true
}

func (rs *ReadStore) RemovePending(storeID, localID string) bool {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if _, ok := rs.pending[storeID][localID]; !ok {
		return false
	}
	delete(rs.pending[storeID], localID)
	return true
}

func (rs *ReadStore) Pending(storeID string) []*readmodel.PendingOrderReadModel {
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	items := make([]*readmodel.PendingOrderReadModel, 0, len(rs.pending[storeID]))
	for _, order := range rs.pending[storeID] {
		copied := *order
		items = append(items, &copied)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].QueuedAt.Equal(items[j].QueuedAt) {
			return items[i].LocalID < items[j].LocalID
		}
		return items[i].QueuedAt.Before(items[j].QueuedAt)
	})
	return items
}

func (rs *ReadStore) MarkSynced(storeID string, at time.Time) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if at.After(rs.synced[storeID]) {
		rs.synced[storeID] = at
	}
}

func (rs *ReadStore) Summary() []readmodel.StoreSyncReadModel {
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	stores := make(map[string]struct{})
	for id := range rs.pending {
		stores[id] = struct{}{}
	}
	for id := range rs.synced {
		stores[id] = struct{}{}
	}

	summary := make([]readmodel.StoreSyncReadModel, 0, len(stores))
	for id := range stores {
		row := readmodel.StoreSyncReadModel{StoreID: id, LastSyncedAt: rs.synced[id]}
		for _, order := range rs.pending[id] {
			row.Pending++
			if row.OldestQueuedAt.IsZero() || order.QueuedAt.Before(row.OldestQueuedAt) {
				row.OldestQueuedAt = order.QueuedAt
			}
		}
		summary = append(summary, row)
	}
	sort.Slice(summary, func(i, j int) bool { return summary[i].StoreID < summary[j].StoreID })
	return summary
}
