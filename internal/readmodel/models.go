package readmodel

import "time"

// PendingOrderReadModel is the monitor's view of one order a register has
// queued but not yet synced.
type PendingOrderReadModel struct {
	LocalID        string    `json:"local_id"`
	StoreID        string    `json:"store_id"`
	OrganizationID string    `json:"organization_id"`
	QueuedAt       time.Time `json:"queued_at"`
	Attempts       int       `json:"attempts"`
	LastError      string    `json:"last_error,omitempty"`
	LastAttemptAt  time.Time `json:"last_attempt_at,omitempty"`
}

// StoreSyncReadModel summarises one store's sync backlog.
type StoreSyncReadModel struct {
	StoreID        string    `json:"store_id"`
	Pending        int       `json:"pending"`
	OldestQueuedAt time.Time `json:"oldest_queued_at,omitempty"`
	LastSyncedAt   time.Time `json:"last_synced_at,omitempty"`
}
