// Package connectivity answers "can the register reach the remote store right
// now". Answers are best-effort and never block.
package connectivity

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

const (
	DefaultProbeInterval = 5 * time.Second
	DefaultProbeTimeout  = 2 * time.Second
)

type Oracle interface {
	IsOnline() bool
}

// Static is a settable flag.
type Static struct {
	online atomic.Bool
}

func NewStatic(online bool) *Static {
	s := &Static{}
	s.online.Store(online)
	return s
}

func (s *Static) IsOnline() bool { return s.online.Load() }
func (s *Static) Set(online bool) { s.online.Store(online) }

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Probe pings the remote store on an interval and caches the answer.
// Subscribers hear about every online/offline transition.
type Probe struct {
	pinger   Pinger
	interval time.Duration
	timeout  time.Duration
	online   atomic.Bool

	mu          sync.Mutex
	subscribers []func(online bool)
}

func NewProbe(pinger Pinger, interval time.Duration) *Probe {
	if interval <= 0 {
		interval = DefaultProbeInterval
	}
	timeout := DefaultProbeTimeout
	if interval < timeout {
		timeout = interval
	}
	return &Probe{pinger: pinger, interval: interval, timeout: timeout}
}

func (p *Probe) IsOnline() bool { return p.online.Load() }

func (p *Probe) Subscribe(fn func(online bool)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subscribers = append(p.subscribers, fn)
}

// Check pings once and returns the new state.
func (p *Probe) Check(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	online := p.pinger.PingContext(ctx) == nil
	if p.online.Swap(online) != online {
		if online {
			log.Printf("[Connectivity] Remote store reachable")
		} else {
			log.Printf("[Connectivity] Remote store unreachable, orders will be queued")
		}
		p.notify(online)
	}
	return online
}

func (p *Probe) notify(online bool) {
	p.mu.Lock()
	subs := append([]func(bool){}, p.subscribers...)
	p.mu.Unlock()

	for _, fn := range subs {
		fn(online)
	}
}

// Run checks immediately, then on every interval until ctx is done.
func (p *Probe) Run(ctx context.Context) {
	p.Check(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.Check(ctx)
		case <-ctx.Done():
			return
		}
	}
}
