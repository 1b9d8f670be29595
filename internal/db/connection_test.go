package db

import (
	"context"
	"errors"
	"net"
	"net/url"
	"os"
	"syscall"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/willibrandon/pgread/internal/config"
)

func testConfig(driver string) config.ConnectionConfig {
	return config.ConnectionConfig{
		Host:     "127.0.0.1",
		Port:     1, // nothing listens here
		Database: "test",
		User:     "postgres",
		Password: "p@ss:w/rd?",
		SSLMode:  "disable",
		Driver:   driver,
	}
}

func TestConnString_EscapesCredentials(t *testing.T) {
	connString := ConnString(testConfig(config.DriverPGX))

	u, err := url.Parse(connString)
	require.NoError(t, err)

	password, ok := u.User.Password()
	require.True(t, ok)
	assert.Equal(t, "postgres", u.Scheme)
	assert.Equal(t, "p@ss:w/rd?", password)
	assert.Equal(t, "127.0.0.1:1", u.Host)
	assert.Equal(t, "/test", u.Path)
	assert.Equal(t, "disable", u.Query().Get("sslmode"))
	assert.Equal(t, ApplicationName, u.Query().Get("application_name"))
}

func TestConnString_IPv6Host(t *testing.T) {
	cfg := testConfig(config.DriverPGX)
	cfg.Host = "::1"
	cfg.Port = 5432

	u, err := url.Parse(ConnString(cfg))
	require.NoError(t, err)
	assert.Equal(t, "[::1]:5432", u.Host)
}

func TestOpen_UnreachableHost(t *testing.T) {
	for _, driver := range config.ValidDrivers {
		t.Run(driver, func(t *testing.T) {
			conn, err := Open(context.Background(), testConfig(driver))

			require.ErrorIs(t, err, ErrConnectionFailed)
			assert.Nil(t, conn)
			assert.NotContains(t, err.Error(), "p@ss:w/rd?", "password must not leak into errors")
			assert.Contains(t, Hint(err), "Connection refused")
		})
	}
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), testConfig("odbc"))
	require.ErrorIs(t, err, ErrConnectionFailed)
	assert.ErrorContains(t, err, `unsupported driver "odbc"`)
}

func TestOpen_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Open(ctx, testConfig(config.DriverPGX))
	require.ErrorIs(t, err, ErrConnectionFailed)
}

func TestSQLState(t *testing.T) {
	assert.Equal(t, "28P01", SQLState(&pgconn.PgError{Code: "28P01"}))
	assert.Equal(t, "42P01", SQLState(errors.Join(errors.New("wrapped"), &pq.Error{Code: "42P01"})))
	assert.Equal(t, "", SQLState(os.ErrNotExist))
}

func TestHint(t *testing.T) {
	refused := &net.OpError{Op: "dial", Net: "tcp", Err: os.NewSyscallError("connect", syscall.ECONNREFUSED)}

	tests := []struct {
		name     string
		err      error
		contains string
	}{
		{"auth via pgx", &pgconn.PgError{Code: "28P01"}, "Authentication failed"},
		{"auth via lib/pq", &pq.Error{Code: "28000"}, "Authentication failed"},
		{"unknown database", &pgconn.PgError{Code: "3D000"}, "Database does not exist"},
		{"missing table", errors.Join(errors.New("query failed"), &pq.Error{Code: "42P01"}), "users table does not exist"},
		{"missing column", &pgconn.PgError{Code: "42703"}, "missing one of the id, name or age columns"},
		{"no privileges", &pgconn.PgError{Code: "42501"}, "Permission denied"},
		{"server busy", &pgconn.PgError{Code: "53300"}, "not accepting new connections"},
		{"dns", &net.DNSError{Err: "no such host", Name: "db.invalid"}, "Host not found"},
		{"refused", refused, "Connection refused"},
		{"timeout", context.DeadlineExceeded, "Connection timeout"},
		{"tls", errors.New("server refused TLS connection"), "SSL/TLS error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hint := Hint(tt.err)
			assert.Contains(t, hint, tt.contains)
			assert.Contains(t, hint, "Troubleshooting steps:\n  1. ")
		})
	}

	assert.Equal(t, "", Hint(nil))
	assert.Equal(t, "", Hint(errors.New("something else entirely")))
}
