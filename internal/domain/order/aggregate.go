package order

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/pos-register/internal/domain/cart"
	"github.com/shopspring/decimal"
)

type Status string

// StatusCompleted is the only status a register checkout produces; payment is
// settled before checkout runs.
const StatusCompleted Status = "completed"

const DefaultPaymentMethod = "cash"

var (
	ErrNotLocal      = errors.New("order id is not a local id")
	ErrNotRemote     = errors.New("order id is not a remote id")
	ErrEmptyOrder    = errors.New("order must have at least one item")
	ErrMissingTenant = errors.New("store and organization are required")
)

type Tenant struct {
	StoreID        string `json:"store_id"`
	OrganizationID string `json:"organization_id"`
}

func (t Tenant) Validate() error {
	if strings.TrimSpace(t.StoreID) == "" || strings.TrimSpace(t.OrganizationID) == "" {
		return ErrMissingTenant
	}
	return nil
}

// Pending is a completed sale not yet confirmed by the remote store. It is
// never modified once built; the queue only adds or removes whole orders.
type Pending struct {
	LocalID        ID              `json:"id"`
	StoreID        string          `json:"store_id"`
	OrganizationID string          `json:"organization_id"`
	Lines          []cart.Line     `json:"drinks"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	PaymentMethod  string          `json:"payment_method"`
	Status         Status          `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
}

func (p Pending) Tenant() Tenant {
	return Tenant{StoreID: p.StoreID, OrganizationID: p.OrganizationID}
}

// Clone deep-copies the order lines.
func (p Pending) Clone() Pending {
	p.Lines = cart.CloneLines(p.Lines)
	return p
}

// NewPending builds a fresh pending order from a cart snapshot.
func NewPending(tenant Tenant, lines []cart.Line, paymentMethod string, now time.Time) (Pending, error) {
	if err := tenant.Validate(); err != nil {
		return Pending{}, err
	}
	if len(lines) == 0 {
		return Pending{}, ErrEmptyOrder
	}
	if strings.TrimSpace(paymentMethod) == "" {
		paymentMethod = DefaultPaymentMethod
	}
	return Pending{
		LocalID:        NewLocalID(now),
		StoreID:        tenant.StoreID,
		OrganizationID: tenant.OrganizationID,
		Lines:          cart.CloneLines(lines),
		TotalAmount:    cart.TotalOf(lines),
		PaymentMethod:  paymentMethod,
		Status:         StatusCompleted,
		CreatedAt:      now,
	}, nil
}

// Submission is the outbound record for the remote store. It has no id
// field: the server assigns identity. IdempotencyKey lets the server
// recognise a retried write that already landed.
type Submission struct {
	IdempotencyKey string          `json:"idempotency_key"`
	StoreID        string          `json:"store_id"`
	OrganizationID string          `json:"organization_id"`
	Lines          []cart.Line     `json:"drinks"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	PaymentMethod  string          `json:"payment_method"`
	Status         Status          `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Submission strips the local id. Only local orders can be submitted.
func (p Pending) Submission() (Submission, error) {
	if !p.LocalID.IsLocal() {
		return Submission{}, fmt.Errorf("%w: %q", ErrNotLocal, p.LocalID.String())
	}
	return Submission{
		IdempotencyKey: p.LocalID.String(),
		StoreID:        p.StoreID,
		OrganizationID: p.OrganizationID,
		Lines:          cart.CloneLines(p.Lines),
		TotalAmount:    p.TotalAmount,
		PaymentMethod:  p.PaymentMethod,
		Status:         p.Status,
		CreatedAt:      p.CreatedAt,
	}, nil
}

// Persisted is the remote-confirmed record.
type Persisted struct {
	ID             ID              `json:"id"`
	StoreID        string          `json:"store_id"`
	OrganizationID string          `json:"organization_id"`
	Lines          []cart.Line     `json:"drinks"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	PaymentMethod  string          `json:"payment_method"`
	Status         Status          `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
	ReceivedAt     time.Time       `json:"received_at"`
}

// Receipt is what checkout hands back to the operator: the confirmed record
// when the remote write succeeded, otherwise the locally built order.
type Receipt struct {
	ID             ID              `json:"id"`
	StoreID        string          `json:"store_id"`
	OrganizationID string          `json:"organization_id"`
	Lines          []cart.Line     `json:"drinks"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	PaymentMethod  string          `json:"payment_method"`
	Status         Status          `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
	Queued         bool            `json:"queued"`
}

func ReceiptFromPending(p Pending) *Receipt {
	return &Receipt{
		ID:             p.LocalID,
		StoreID:        p.StoreID,
		OrganizationID: p.OrganizationID,
		Lines:          cart.CloneLines(p.Lines),
		TotalAmount:    p.TotalAmount,
		PaymentMethod:  p.PaymentMethod,
		Status:         p.Status,
		CreatedAt:      p.CreatedAt,
		Queued:         true,
	}
}

func ReceiptFromPersisted(p *Persisted) *Receipt {
	return &Receipt{
		ID:             p.ID,
		StoreID:        p.StoreID,
		OrganizationID: p.OrganizationID,
		Lines:          cart.CloneLines(p.Lines),
		TotalAmount:    p.TotalAmount,
		PaymentMethod:  p.PaymentMethod,
		Status:         p.Status,
		CreatedAt:      p.CreatedAt,
	}
}
