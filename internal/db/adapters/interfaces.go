package adapters

import "context"

// DBAdapter defines the operations the reader needs from a database connection.
type DBAdapter interface {
	Query(ctx context.Context, query string) (DBRows, error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
	Driver() string
}

// DBRows defines the interface for query result rows.
type DBRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}
