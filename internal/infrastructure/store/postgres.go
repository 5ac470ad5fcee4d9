package store

import (
	"database/sql"
	"time"

	_ "github.com/lib/pq"
)

// OpenPostgres opens a pooled handle without dialing. The register must
// start while the database is unreachable; the connectivity probe pings it.
func OpenPostgres(connStr string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	// Configure connection pool
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}
