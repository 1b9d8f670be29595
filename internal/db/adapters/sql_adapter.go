package adapters

import (
	"context"
	"database/sql"
)

// SQLAdapter implements DBAdapter for sql.DB
type SQLAdapter struct {
	db     *sql.DB
	driver string
}

// NewSQLAdapter creates a new SQL adapter. The pool is capped at one open connection.
func NewSQLAdapter(db *sql.DB, driver string) *SQLAdapter {
	db.SetMaxOpenConns(1)
	return &SQLAdapter{db: db, driver: driver}
}

func (s *SQLAdapter) Query(ctx context.Context, query string) (DBRows, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	return &stdRows{rows: rows}, nil
}

func (s *SQLAdapter) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLAdapter) Close(_ context.Context) error {
	return s.db.Close()
}

func (s *SQLAdapter) Driver() string {
	return s.driver
}
