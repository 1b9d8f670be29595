// Package reader implements a single read of the users table: connect, run the fixed
// query, print every row and disconnect.
package reader

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/willibrandon/pgread/internal/config"
	"github.com/willibrandon/pgread/internal/db"
	"github.com/willibrandon/pgread/internal/db/models"
	"github.com/willibrandon/pgread/internal/db/queries"
	"github.com/willibrandon/pgread/internal/logger"
	"github.com/willibrandon/pgread/internal/output"
)

// Reader performs one connect-query-print-disconnect run.
type Reader struct {
	cfg       config.ConnectionConfig
	open      db.Opener
	formatter output.Formatter
	out       io.Writer
	status    *output.Status
}

// Option configures a Reader.
type Option func(*Reader)

// WithOpener replaces the function used to open the connection.
func WithOpener(open db.Opener) Option {
	return func(r *Reader) {
		r.open = open
	}
}

// WithFormatter sets how records are rendered. Defaults to text.
func WithFormatter(f output.Formatter) Option {
	return func(r *Reader) {
		r.formatter = f
	}
}

// WithOutput sets where records are written. Defaults to os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(r *Reader) {
		r.out = w
	}
}

// WithStatus sets where progress is reported. Defaults to no progress output.
func WithStatus(s *output.Status) Option {
	return func(r *Reader) {
		r.status = s
	}
}

// New creates a Reader for the given connection settings.
func New(cfg config.ConnectionConfig, opts ...Option) *Reader {
	r := &Reader{
		cfg:       cfg,
		open:      db.Open,
		formatter: output.TextFormatter{},
		out:       os.Stdout,
		status:    output.NewStatus(io.Discard, true),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run connects, prints every user and disconnects. It returns the number of rows printed.
//
// Rows are printed only once the whole result set has been read, so a failure while
// reading leaves the output untouched. Configuration errors are reported before any
// connection attempt. Once a connection is open it is closed on every return path,
// including failures and context cancellation.
func (r *Reader) Run(ctx context.Context) (int, error) {
	log := logger.With("run_id", uuid.NewString(), "driver", r.cfg.Driver)

	if err := r.cfg.Validate(); err != nil {
		log.Error("Invalid configuration", "error", err)
		return 0, err
	}

	start := time.Now()
	conn, err := r.open(ctx, r.cfg)
	if err != nil {
		return 0, err
	}
	defer func() {
		// the run context may already be canceled; closing must still reach the server
		if err := conn.Close(context.WithoutCancel(ctx)); err != nil {
			log.Warn("Failed to close database connection", "error", err)
		}
		log.Debug("Database connection closed")
		r.status.Closed()
	}()

	r.status.Connected(r.cfg.Host, r.cfg.Port, r.cfg.Database)
	log.Debug("Querying users", "adapter", conn.Driver())

	users, err := queries.ListUsers(ctx, conn)
	if err != nil {
		log.Error("Reading users failed", "error", err)
		return 0, err
	}

	count, err := r.print(users)
	if err != nil {
		log.Error("Printing users failed", "rows", count, "error", err)
		return count, err
	}

	log.Info("Users read", "rows", count, "duration", time.Since(start))
	r.status.Found(count)
	return count, nil
}

// print writes users through the formatter and returns how many were written.
func (r *Reader) print(users []models.UserRecord) (int, error) {
	for i, u := range users {
		if err := r.formatter.WriteRecord(r.out, u); err != nil {
			return i, err
		}
	}
	if err := r.formatter.Flush(r.out); err != nil {
		return 0, err
	}
	return len(users), nil
}
