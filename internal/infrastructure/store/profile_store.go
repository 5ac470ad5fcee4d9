package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/example/pos-register/internal/session"
)

// PostgresProfileStore reads a user's role and store assignment.
type PostgresProfileStore struct {
	db *sql.DB
}

func NewPostgresProfileStore(db *sql.DB) *PostgresProfileStore {
	return &PostgresProfileStore{db: db}
}

// FetchProfile returns nil without error when the user has no role row.
func (s *PostgresProfileStore) FetchProfile(ctx context.Context, userID string) (*session.Profile, error) {
	p := &session.Profile{UserID: userID}
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(ur.role, ''), COALESCE(ur.store_id::text, ''), COALESCE(s.name, ''), COALESCE(s.organization_id::text, '')
		 FROM user_roles ur
		 LEFT JOIN stores s ON s.id = ur.store_id
		 WHERE ur.user_id = $1`,
		userID,
	).Scan(&p.Role, &p.StoreID, &p.StoreName, &p.OrganizationID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}
