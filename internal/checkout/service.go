// Package checkout is the order submission engine: it owns the register cart,
// writes completed sales to the remote store and falls back to a durable
// local queue whenever that write cannot happen.
package checkout

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/example/pos-register/internal/domain/cart"
	"github.com/example/pos-register/internal/domain/order"
	"github.com/example/pos-register/internal/infrastructure/store"
	"github.com/example/pos-register/internal/telemetry"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

const DefaultRemoteTimeout = 10 * time.Second

// Oracle reports connectivity. Satisfied by connectivity.Static and
// connectivity.Probe.
type Oracle interface {
	IsOnline() bool
}

// TenantResolver supplies the acting store and organization. Satisfied by
// session.Provider.
type TenantResolver interface {
	Tenant(ctx context.Context) (order.Tenant, error)
}

type Service struct {
	mu   sync.Mutex
	cart *cart.Cart

	queue         *Queue
	orders        store.OrderStoreInterface
	oracle        Oracle
	tenants       TenantResolver
	recorder      telemetry.Recorder
	limiter       *rate.Limiter
	remoteTimeout time.Duration
	now           func() time.Time

	syncing atomic.Bool
}

type Option func(*Service)

func WithRecorder(r telemetry.Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// WithLimiter paces remote writes during a sync pass.
func WithLimiter(l *rate.Limiter) Option {
	return func(s *Service) { s.limiter = l }
}

// WithRemoteTimeout bounds each remote write. Zero disables the bound.
func WithRemoteTimeout(d time.Duration) Option {
	return func(s *Service) { s.remoteTimeout = d }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(queue *Queue, orders store.OrderStoreInterface, oracle Oracle, tenants TenantResolver, opts ...Option) *Service {
	s := &Service{
		cart:          cart.New(),
		queue:         queue,
		orders:        orders,
		oracle:        oracle,
		tenants:       tenants,
		recorder:      telemetry.Nop{},
		remoteTimeout: DefaultRemoteTimeout,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ============================================
// Cart
// ============================================

// CartView is a read-only copy of the cart with derived values.
type CartView struct {
	Lines     []cart.Line     `json:"lines"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"item_count"`
}

func (s *Service) Cart() CartView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

func (s *Service) viewLocked() CartView {
	return CartView{
		Lines:     s.cart.Snapshot(),
		Total:     s.cart.Total(),
		ItemCount: s.cart.ItemCount(),
	}
}

func (s *Service) AddItem(p cart.Product, mods cart.Modifiers) (CartView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.cart.AddItem(p, mods); err != nil {
		return CartView{}, err
	}
	return s.viewLocked(), nil
}

func (s *Service) RemoveItem(productID string) CartView {
	return s.mutate(func(c *cart.Cart) { c.RemoveItem(productID) })
}

func (s *Service) IncreaseQuantity(productID string) CartView {
	return s.mutate(func(c *cart.Cart) { c.IncreaseQuantity(productID) })
}

func (s *Service) DecreaseQuantity(productID string) CartView {
	return s.mutate(func(c *cart.Cart) { c.DecreaseQuantity(productID) })
}

func (s *Service) ClearCart() CartView {
	return s.mutate(func(c *cart.Cart) { c.Clear() })
}

func (s *Service) mutate(fn func(*cart.Cart)) CartView {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.cart)
	return s.viewLocked()
}

// takeCart detaches the cart contents. Once a checkout has a snapshot the
// sale always ends confirmed or queued, so the cart is cleared in the same
// step and items added meanwhile belong to the next sale.
func (s *Service) takeCart() []cart.Line {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines := s.cart.Snapshot()
	s.cart.Clear()
	return lines
}

func (s *Service) cartEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.IsEmpty()
}

// ============================================
// Checkout
// ============================================

type Request struct {
	PaymentMethod string
	// Resume retries a queued order instead of the live cart. The live cart
	// is left untouched.
	Resume *order.Pending
}

// Checkout submits the current cart, or Resume when set. A nil receipt with a
// nil error means there was nothing to submit. Remote failures never surface
// as errors: the order is queued and its local receipt returned. Only an
// unresolvable tenant fails the call, before anything is queued or cleared.
func (s *Service) Checkout(ctx context.Context, req Request) (*order.Receipt, error) {
	resuming := req.Resume != nil
	if !resuming && s.cartEmpty() {
		return nil, nil
	}

	ctx, span := telemetry.Tracer().Start(ctx, "checkout.Checkout",
		trace.WithAttributes(attribute.Bool("checkout.resume", resuming)))
	defer span.End()

	tenant, err := s.tenants.Tenant(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "tenant unresolved")
		return nil, fmt.Errorf("checkout: %w", err)
	}

	pending, err := s.build(tenant, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("checkout: %w", err)
	}
	if pending == nil {
		// Cart emptied while the tenant was resolving.
		return nil, nil
	}
	span.SetAttributes(attribute.String("order.local_id", pending.LocalID.String()))

	reason := "offline"
	if s.oracle.IsOnline() {
		persisted, err := s.submit(ctx, *pending)
		if err == nil {
			if resuming {
				s.dequeue(ctx, *pending)
			}
			s.record(ctx, telemetry.EventOrderConfirmed, *pending, persisted.ID.String(), "")
			log.Printf("[Checkout] Order %s confirmed as %s", pending.LocalID, persisted.ID)
			return order.ReceiptFromPersisted(persisted), nil
		}
		reason = err.Error()
		log.Printf("[Checkout] Remote write failed for %s, queuing: %v", pending.LocalID, err)
	}

	s.enqueue(ctx, *pending, reason)
	return order.ReceiptFromPending(*pending), nil
}

// build constructs the payload. It returns nil when the cart turned out to be
// empty.
func (s *Service) build(tenant order.Tenant, req Request) (*order.Pending, error) {
	now := s.now()

	if req.Resume == nil {
		lines := s.takeCart()
		if len(lines) == 0 {
			return nil, nil
		}
		p, err := order.NewPending(tenant, lines, req.PaymentMethod, now)
		if err != nil {
			return nil, err
		}
		return &p, nil
	}

	p := req.Resume.Clone()
	switch {
	case p.LocalID.IsZero():
		p.LocalID = order.NewLocalID(now)
	case !p.LocalID.IsLocal():
		return nil, fmt.Errorf("%w: %q", order.ErrNotLocal, p.LocalID.String())
	}
	if len(p.Lines) == 0 {
		return nil, order.ErrEmptyOrder
	}
	if p.Tenant().Validate() != nil {
		p.StoreID = tenant.StoreID
		p.OrganizationID = tenant.OrganizationID
	}
	if p.PaymentMethod == "" {
		p.PaymentMethod = order.DefaultPaymentMethod
	}
	if p.Status == "" {
		p.Status = order.StatusCompleted
	}
	p.CreatedAt = now
	return &p, nil
}

// submit writes one order remotely under the remote timeout. The store must
// answer with a server identity.
func (s *Service) submit(ctx context.Context, p order.Pending) (*order.Persisted, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "checkout.submit",
		trace.WithAttributes(attribute.String("order.local_id", p.LocalID.String())))
	defer span.End()

	sub, err := p.Submission()
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if s.remoteTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.remoteTimeout)
		defer cancel()
	}

	persisted, err := s.orders.Insert(ctx, sub)
	if err == nil && (persisted == nil || !persisted.ID.IsRemote()) {
		err = fmt.Errorf("%w: no server identity returned", store.ErrOrderRejected)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "remote write failed")
		return nil, err
	}
	span.SetAttributes(attribute.String("order.remote_id", persisted.ID.String()))
	return persisted, nil
}

func (s *Service) enqueue(ctx context.Context, p order.Pending, reason string) {
	added, err := s.queue.Push(ctx, p)
	if err != nil {
		log.Printf("[Queue] Failed to persist after queuing %s: %v", p.LocalID, err)
		s.record(ctx, telemetry.EventQueuePersistFailed, p, "", err.Error())
	}
	if added {
		s.record(ctx, telemetry.EventOrderQueued, p, "", reason)
		log.Printf("[Checkout] Order %s queued (%d pending)", p.LocalID, s.queue.Len())
	}
}

func (s *Service) dequeue(ctx context.Context, p order.Pending) {
	if _, err := s.queue.Remove(ctx, p.LocalID.String()); err != nil {
		log.Printf("[Queue] Failed to persist after removing %s: %v", p.LocalID, err)
		s.record(ctx, telemetry.EventQueuePersistFailed, p, "", err.Error())
	}
}

func (s *Service) record(ctx context.Context, name string, p order.Pending, remoteID, reason string) {
	s.recorder.Record(ctx, telemetry.Event{
		Name:           name,
		LocalID:        p.LocalID.String(),
		RemoteID:       remoteID,
		StoreID:        p.StoreID,
		OrganizationID: p.OrganizationID,
		Reason:         reason,
		QueueLength:    s.queue.Len(),
		At:             s.now(),
	})
}

// ============================================
// Reconciliation
// ============================================

type SyncResult struct {
	Attempted int  `json:"attempted"`
	Synced    int  `json:"synced"`
	Failed    int  `json:"failed"`
	Remaining int  `json:"remaining"`
	Skipped   bool `json:"skipped,omitempty"`
}

// SyncPendingOrders retries every order queued at call time. Orders queued
// during the pass wait for the next one. A failed order stays queued and
// does not stop the pass. A pass already running makes this call return
// Skipped.
func (s *Service) SyncPendingOrders(ctx context.Context) (SyncResult, error) {
	if !s.syncing.CompareAndSwap(false, true) {
		return SyncResult{Skipped: true, Remaining: s.queue.Len()}, nil
	}
	defer s.syncing.Store(false)

	snapshot := s.queue.Snapshot()
	if len(snapshot) == 0 {
		return SyncResult{}, nil
	}

	ctx, span := telemetry.Tracer().Start(ctx, "checkout.SyncPendingOrders",
		trace.WithAttributes(attribute.Int("queue.length", len(snapshot))))
	defer span.End()

	var result SyncResult
	var stopErr error
	for _, p := range snapshot {
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				stopErr = err
				break
			}
		}
		if err := ctx.Err(); err != nil {
			stopErr = err
			break
		}

		result.Attempted++
		persisted, err := s.submit(ctx, p)
		if err != nil {
			result.Failed++
			log.Printf("[Sync] Order %s still pending: %v", p.LocalID, err)
			s.record(ctx, telemetry.EventOrderSyncFailed, p, "", err.Error())
			continue
		}

		s.dequeue(ctx, p)
		result.Synced++
		s.record(ctx, telemetry.EventOrderSynced, p, persisted.ID.String(), "")
	}

	persistErr := s.queue.Persist(ctx)
	if persistErr != nil {
		log.Printf("[Sync] Failed to persist queue: %v", persistErr)
		s.recorder.Record(ctx, telemetry.Event{
			Name:        telemetry.EventQueuePersistFailed,
			Reason:      persistErr.Error(),
			QueueLength: s.queue.Len(),
			At:          s.now(),
		})
	}
	result.Remaining = s.queue.Len()

	span.SetAttributes(
		attribute.Int("sync.synced", result.Synced),
		attribute.Int("sync.failed", result.Failed),
	)
	log.Printf("[Sync] Pass done: %d synced, %d failed, %d remaining", result.Synced, result.Failed, result.Remaining)

	if stopErr != nil {
		return result, fmt.Errorf("sync interrupted: %w", stopErr)
	}
	return result, persistErr
}

// Retry resumes one queued order. An unknown id is a no-op.
func (s *Service) Retry(ctx context.Context, localID string) (*order.Receipt, error) {
	p, ok := s.queue.Get(localID)
	if !ok {
		return nil, nil
	}
	return s.Checkout(ctx, Request{Resume: &p})
}

// Pending returns the queued orders in order.
func (s *Service) Pending() []order.Pending {
	return s.queue.Snapshot()
}

func (s *Service) PendingCount() int {
	return s.queue.Len()
}

func (s *Service) IsOnline() bool {
	return s.oracle.IsOnline()
}
