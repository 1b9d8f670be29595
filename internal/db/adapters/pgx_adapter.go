package adapters

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// PGXAdapter implements DBAdapter for a single pgx.Conn.
type PGXAdapter struct {
	conn *pgx.Conn
}

// NewPGXAdapter creates a new PGX adapter.
func NewPGXAdapter(conn *pgx.Conn) *PGXAdapter {
	return &PGXAdapter{conn: conn}
}

// Query executes a query on the connection and returns wrapped rows.
func (p *PGXAdapter) Query(ctx context.Context, query string) (DBRows, error) {
	rows, err := p.conn.Query(ctx, query)
	if err != nil {
		return nil, err
	}

	return &pgxRows{rows: rows}, nil
}

// Ping checks the connection is alive.
func (p *PGXAdapter) Ping(ctx context.Context) error {
	return p.conn.Ping(ctx)
}

// Close closes the underlying connection.
func (p *PGXAdapter) Close(ctx context.Context) error {
	return p.conn.Close(ctx)
}

// Driver returns the driver name.
func (p *PGXAdapter) Driver() string {
	return "pgx"
}

// pgxRows wraps pgx.Rows to implement the DBRows interface.
type pgxRows struct {
	rows pgx.Rows
}

// Next advances to the next row.
func (p *pgxRows) Next() bool {
	return p.rows.Next()
}

// Scan copies row values into provided destinations.
func (p *pgxRows) Scan(dest ...any) error {
	return p.rows.Scan(dest...)
}

// Err returns any error hit during iteration.
func (p *pgxRows) Err() error {
	return p.rows.Err()
}

// Close closes the rows iterator.
func (p *pgxRows) Close() error {
	p.rows.Close()
	return nil
}
