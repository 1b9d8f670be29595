package adapters

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// SQLXAdapter implements DBAdapter for sqlx.DB
type SQLXAdapter struct {
	db *sqlx.DB
}

// NewSQLXAdapter creates a new SQLX adapter. The pool is capped at one open connection.
func NewSQLXAdapter(db *sqlx.DB) *SQLXAdapter {
	db.SetMaxOpenConns(1)
	return &SQLXAdapter{db: db}
}

// Query executes a query using the sqlx.DB and returns wrapped rows.
func (s *SQLXAdapter) Query(ctx context.Context, query string) (DBRows, error) {
	rows, err := s.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, err
	}
	return &stdRows{rows: rows.Rows}, nil
}

// Ping checks the connection is alive.
func (s *SQLXAdapter) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database handle and its single connection.
func (s *SQLXAdapter) Close(_ context.Context) error {
	return s.db.Close()
}

// Driver returns the driver name.
func (s *SQLXAdapter) Driver() string {
	return "sqlx"
}
