package projection

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/example/pos-register/internal/infrastructure/store"
	"github.com/example/pos-register/internal/readmodel"
	"github.com/example/pos-register/internal/telemetry"
)

// Projector folds register telemetry into per-store pending-sync sets.
type Projector struct {
	readStore store.ReadStoreInterface
}

func NewProjector(readStore store.ReadStoreInterface) *Projector {
	return &Projector{readStore: readStore}
}

func (p *Projector) HandleEvent(ctx context.Context, key, value []byte) error {
	var event telemetry.Event
	if err := json.Unmarshal(value, &event); err != nil {
		return err
	}
	if event.StoreID == "" {
		event.StoreID = string(key)
	}

	switch event.Name {
	case telemetry.EventOrderQueued:
		p.readStore.PutPending(pendingFrom(event))

	case telemetry.EventOrderSyncFailed:
		// The monitor may have started after the order was queued.
		p.readStore.PutPending(pendingFrom(event))
		p.readStore.UpdatePending(event.StoreID, event.LocalID, func(current *readmodel.PendingOrderReadModel) {
			current.Attempts++
			current.LastError = event.Reason
			current.LastAttemptAt = event.At
		})

	case telemetry.EventOrderSynced, telemetry.EventOrderConfirmed:
		p.readStore.RemovePending(event.StoreID, event.LocalID)
		p.readStore.MarkSynced(event.StoreID, event.At)

	case telemetry.EventQueuePersistFailed:
		log.Printf("[Monitor] Store %s could not persist its queue: %s", event.StoreID, event.Reason)

	default:
		log.Printf("[Monitor] Ignoring event %q", event.Name)
	}
	return nil
}

func pendingFrom(e telemetry.Event) *readmodel.PendingOrderReadModel {
	return &readmodel.PendingOrderReadModel{
		LocalID:        e.LocalID,
		StoreID:        e.StoreID,
		OrganizationID: e.OrganizationID,
		QueuedAt:       e.At,
	}
}

// Report returns one line per store with a backlog and logs each.
func (p *Projector) Report(now time.Time) []string {
	var lines []string
	for _, row := range p.readStore.Summary() {
		if row.Pending == 0 {
			continue
		}
		line := fmt.Sprintf("store %s: %d orders pending sync, oldest queued %s ago",
			row.StoreID, row.Pending, now.Sub(row.OldestQueuedAt).Round(time.Second))
		log.Printf("[Monitor] %s", line)
		lines = append(lines, line)
	}
	return lines
}

// RunReporter calls Report on every interval until ctx is done.
func (p *Projector) RunReporter(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.Report(time.Now())
		case <-ctx.Done():
			return
		}
	}
}
