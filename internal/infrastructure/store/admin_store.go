package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/example/pos-register/internal/domain/plan"
	"github.com/example/pos-register/internal/domain/staff"
	"github.com/shopspring/decimal"
)

// PostgresAdminStore serves the plan and staff queries of the admin pages.
type PostgresAdminStore struct {
	db *sql.DB
}

func NewPostgresAdminStore(db *sql.DB) *PostgresAdminStore {
	return &PostgresAdminStore{db: db}
}

func (s *PostgresAdminStore) PlanConfigs(ctx context.Context) ([]plan.Config, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, price, max_branches, max_items, max_orders, allow_custom_logo
		 FROM plan_configs ORDER BY price`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var configs []plan.Config
	for rows.Next() {
		var (
			c                       plan.Config
			price                   decimal.Decimal
			branches, items, orders sql.NullInt64
		)
		if err := rows.Scan(&c.ID, &c.Name, &price, &branches, &items, &orders, &c.AllowCustomLogo); err != nil {
			return nil, err
		}
		c.Price = price
		c.MaxBranches = nullableLimit(branches)
		c.MaxItems = nullableLimit(items)
		c.MaxOrders = nullableLimit(orders)
		configs = append(configs, c)
	}
	return configs, rows.Err()
}

// nullableLimit maps SQL NULL to unlimited.
func nullableLimit(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	return plan.Limit(int(v.Int64))
}

func (s *PostgresAdminStore) OrganizationPlan(ctx context.Context, orgID string) (string, error) {
	var planID string
	err := s.db.QueryRowContext(ctx,
		"SELECT COALESCE(plan, '') FROM organizations WHERE id = $1",
		orgID,
	).Scan(&planID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return planID, err
}

func (s *PostgresAdminStore) CountUsage(ctx context.Context, orgID string, since time.Time) (plan.Usage, error) {
	var u plan.Usage
	err := s.db.QueryRowContext(ctx,
		`SELECT
		   (SELECT COUNT(*) FROM stores WHERE organization_id = $1),
		   (SELECT COUNT(*) FROM drinks WHERE organization_id = $1 AND is_archived IS NOT TRUE),
		   (SELECT COUNT(*) FROM orders WHERE organization_id = $1 AND created_at >= $2)`,
		orgID, since,
	).Scan(&u.Branches, &u.Items, &u.OrdersThisMonth)
	return u, err
}

func (s *PostgresAdminStore) SubscriptionValidUntil(ctx context.Context, orgID string) (*time.Time, error) {
	var validUntil sql.NullTime
	err := s.db.QueryRowContext(ctx,
		"SELECT valid_until FROM organizations WHERE id = $1",
		orgID,
	).Scan(&validUntil)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil || !validUntil.Valid {
		return nil, err
	}
	return &validUntil.Time, nil
}

func (s *PostgresAdminStore) ListStaff(ctx context.Context, orgID string) ([]staff.Member, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id::text, COALESCE(full_name, ''), COALESCE(email, ''), COALESCE(role, ''),
		        COALESCE(store_id::text, ''), COALESCE(store_name, ''), organization_id::text
		 FROM staff_directory_view
		 WHERE organization_id = $1
		 ORDER BY full_name`,
		orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []staff.Member
	for rows.Next() {
		var m staff.Member
		if err := rows.Scan(&m.UserID, &m.FullName, &m.Email, &m.Role, &m.StoreID, &m.StoreName, &m.OrganizationID); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}
