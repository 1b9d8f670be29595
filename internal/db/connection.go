package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver
	"github.com/willibrandon/pgread/internal/config"
	"github.com/willibrandon/pgread/internal/db/adapters"
	"github.com/willibrandon/pgread/internal/logger"
)

// ErrConnectionFailed is returned when a connection cannot be established.
var ErrConnectionFailed = errors.New("connection failed")

// ApplicationName is reported to the server for every connection.
const ApplicationName = "pgread"

// libpqDriverName is the database/sql driver name registered by lib/pq.
const libpqDriverName = "postgres"

// Opener opens a single database connection.
type Opener func(ctx context.Context, cfg config.ConnectionConfig) (adapters.DBAdapter, error)

// ConnString builds a postgres:// URL for the configuration. Credentials are escaped.
func ConnString(cfg config.ConnectionConfig) string {
	q := url.Values{}
	q.Set("sslmode", cfg.SSLMode)
	q.Set("application_name", ApplicationName)

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:     "/" + cfg.Database,
		RawQuery: q.Encode(),
	}
	return u.String()
}

// Open establishes exactly one connection using the configured driver and verifies it.
// Every failure, including configuration the driver rejects, wraps ErrConnectionFailed.
func Open(ctx context.Context, cfg config.ConnectionConfig) (adapters.DBAdapter, error) {
	log := logger.With(
		"host", cfg.Host,
		"port", cfg.Port,
		"database", cfg.Database,
		"user", cfg.User,
		"sslmode", cfg.SSLMode,
		"driver", cfg.Driver,
	)
	log.Debug("Opening database connection")

	var (
		conn adapters.DBAdapter
		err  error
	)
	switch cfg.Driver {
	case config.DriverPGX, "":
		conn, err = openPGX(ctx, cfg)
	case config.DriverPostgres:
		conn, err = openSQL(ctx, cfg)
	case config.DriverSQLX:
		conn, err = openSQLX(ctx, cfg)
	default:
		err = fmt.Errorf("unsupported driver %q", cfg.Driver)
	}
	if err != nil {
		log.Error("Failed to connect", "error", err)
		return nil, errors.Join(ErrConnectionFailed, fmt.Errorf(
			"cannot connect to PostgreSQL on %s: %w",
			net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
			err,
		))
	}

	log.Info("Database connection established")
	return conn, nil
}

// openPGX opens a single pgx connection. pgx.Connect performs the startup handshake,
// so authentication and unknown-database errors surface here.
func openPGX(ctx context.Context, cfg config.ConnectionConfig) (adapters.DBAdapter, error) {
	connConfig, err := pgx.ParseConfig(ConnString(cfg))
	if err != nil {
		// the parse error may echo the connection string, which holds the password
		return nil, errors.New("invalid connection parameters")
	}

	conn, err := pgx.ConnectConfig(ctx, connConfig)
	if err != nil {
		return nil, err
	}

	return adapters.NewPGXAdapter(conn), nil
}

// openSQL opens a database/sql handle backed by lib/pq and pings it, since sql.Open is lazy.
func openSQL(ctx context.Context, cfg config.ConnectionConfig) (adapters.DBAdapter, error) {
	sqlDB, err := sql.Open(libpqDriverName, ConnString(cfg))
	if err != nil {
		return nil, err
	}

	adapter := adapters.NewSQLAdapter(sqlDB, config.DriverPostgres)
	if err := adapter.Ping(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	return adapter, nil
}

// openSQLX opens a sqlx handle backed by lib/pq; ConnectContext pings before returning.
func openSQLX(ctx context.Context, cfg config.ConnectionConfig) (adapters.DBAdapter, error) {
	sqlxDB, err := sqlx.ConnectContext(ctx, libpqDriverName, ConnString(cfg))
	if err != nil {
		return nil, err
	}

	return adapters.NewSQLXAdapter(sqlxDB), nil
}
