package checkout

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func runSyncer(t *testing.T, s *Syncer) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return cancel
}

func TestSyncer_DrainsWhenOnline(t *testing.T) {
	f := newFixture(t, false)
	f.queueOffline(t, 2)
	f.oracle.Set(true)

	runSyncer(t, NewSyncer(f.svc, 10*time.Millisecond))

	assert.Eventually(t, func() bool { return f.svc.PendingCount() == 0 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 2, f.orders.Count())
}

func TestSyncer_IdleWhileOffline(t *testing.T) {
	f := newFixture(t, false)
	f.queueOffline(t, 1)

	runSyncer(t, NewSyncer(f.svc, 5*time.Millisecond))
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, 1, f.svc.PendingCount())
	assert.Empty(t, f.orders.Calls())
}

func TestSyncer_TransitionTriggersImmediatePass(t *testing.T) {
	f := newFixture(t, false)
	f.queueOffline(t, 1)
	s := NewSyncer(f.svc, time.Hour)
	runSyncer(t, s)

	f.oracle.Set(true)
	s.OnTransition(true)

	assert.Eventually(t, func() bool { return f.svc.PendingCount() == 0 }, time.Second, 5*time.Millisecond)
}

func TestSyncer_OfflineTransitionIgnored(t *testing.T) {
	s := NewSyncer(newFixture(t, false).svc, time.Hour)

	s.OnTransition(false)
	s.OnTransition(true)
	s.OnTransition(true)

	assert.Len(t, s.trigger, 1)
}
