package checkout

import (
	"context"
	"log"
	"time"
)

const DefaultSyncInterval = 30 * time.Second

// Syncer drains the pending queue in the background.
type Syncer struct {
	service  *Service
	interval time.Duration
	trigger  chan struct{}
}

func NewSyncer(service *Service, interval time.Duration) *Syncer {
	if interval <= 0 {
		interval = DefaultSyncInterval
	}
	return &Syncer{
		service:  service,
		interval: interval,
		trigger:  make(chan struct{}, 1),
	}
}

// OnTransition is registered with the connectivity probe. Coming back online
// starts a pass without waiting for the next tick.
func (s *Syncer) OnTransition(online bool) {
	if !online {
		return
	}
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

// Run blocks until ctx is done.
func (s *Syncer) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	log.Printf("[Sync] Background sync every %s", s.interval)
	for {
		select {
		case <-ticker.C:
			s.tick(ctx)
		case <-s.trigger:
			log.Printf("[Sync] Connectivity restored")
			s.tick(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (s *Syncer) tick(ctx context.Context) {
	if !s.service.IsOnline() || s.service.PendingCount() == 0 {
		return
	}
	if _, err := s.service.SyncPendingOrders(ctx); err != nil {
		log.Printf("[Sync] Pass ended early: %v", err)
	}
}
