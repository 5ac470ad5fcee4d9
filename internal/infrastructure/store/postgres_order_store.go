package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/example/pos-register/internal/domain/cart"
	"github.com/example/pos-register/internal/domain/order"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

const uniqueViolation = "23505"

// PostgresOrderStore writes orders to the shared orders table. The unique
// idempotency_key makes a retried write return the row that already landed.
type PostgresOrderStore struct {
	db *sql.DB
}

func NewPostgresOrderStore(db *sql.DB) *PostgresOrderStore {
	return &PostgresOrderStore{db: db}
}

func (s *PostgresOrderStore) Insert(ctx context.Context, sub order.Submission) (*order.Persisted, error) {
	drinks, err := json.Marshal(sub.Lines)
	if err != nil {
		return nil, err
	}

	var (
		id         string
		receivedAt time.Time
	)
	err = s.db.QueryRowContext(ctx,
		`INSERT INTO orders (idempotency_key, store_id, organization_id, drinks, total_amount, payment_method, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id::text, received_at`,
		sub.IdempotencyKey,
		sub.StoreID,
		sub.OrganizationID,
		drinks,
		sub.TotalAmount,
		sub.PaymentMethod,
		string(sub.Status),
		sub.CreatedAt,
	).Scan(&id, &receivedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			if pqErr.Code == uniqueViolation {
				return s.getByKey(ctx, sub.IdempotencyKey)
			}
			if pqErr.Code.Class() == "23" {
				return nil, fmt.Errorf("%w: %s", ErrOrderRejected, pqErr.Message)
			}
		}
		return nil, err
	}

	remoteID, err := order.RemoteID(id)
	if err != nil {
		return nil, err
	}
	return &order.Persisted{
		ID:             remoteID,
		StoreID:        sub.StoreID,
		OrganizationID: sub.OrganizationID,
		Lines:          cart.CloneLines(sub.Lines),
		TotalAmount:    sub.TotalAmount,
		PaymentMethod:  sub.PaymentMethod,
		Status:         sub.Status,
		CreatedAt:      sub.CreatedAt,
		ReceivedAt:     receivedAt,
	}, nil
}

func (s *PostgresOrderStore) getByKey(ctx context.Context, key string) (*order.Persisted, error) {
	var (
		id     string
		drinks []byte
		total  decimal.Decimal
		status string
		p      order.Persisted
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id::text, store_id, organization_id, drinks, total_amount, payment_method, status, created_at, received_at
		 FROM orders WHERE idempotency_key = $1`,
		key,
	).Scan(&id, &p.StoreID, &p.OrganizationID, &drinks, &total, &p.PaymentMethod, &status, &p.CreatedAt, &p.ReceivedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(drinks, &p.Lines); err != nil {
		return nil, err
	}
	p.ID, err = order.RemoteID(id)
	if err != nil {
		return nil, err
	}
	p.TotalAmount = total
	p.Status = order.Status(status)
	return &p, nil
}
