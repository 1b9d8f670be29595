package db

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// SQLSTATE codes that get dedicated guidance.
const (
	codeInvalidPassword      = "28P01"
	codeInvalidAuthorization = "28000"
	codeInvalidCatalogName   = "3D000"
	codeUndefinedTable       = "42P01"
	codeUndefinedColumn      = "42703"
	codeInsufficientPrivs    = "42501"
	codeTooManyConnections   = "53300"
	codeCannotConnectNow     = "57P03"
)

// SQLState extracts the SQLSTATE code from a pgx or lib/pq error, or "" if none.
func SQLState(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

// Hint returns troubleshooting steps for a connection or query error,
// or "" when nothing specific is known about it.
func Hint(err error) string {
	if err == nil {
		return ""
	}

	switch SQLState(err) {
	case codeInvalidPassword, codeInvalidAuthorization:
		return steps("Authentication failed: invalid username or password.",
			"Verify DB_USER and DB_PASSWORD in your environment or .env file",
			"Check pg_hba.conf allows password authentication from your host",
		)
	case codeInvalidCatalogName:
		return steps("Database does not exist.",
			"Verify DB_NAME in your configuration",
			"Create the database: createdb <database_name>",
			"List available databases: psql -l",
		)
	case codeUndefinedTable:
		return steps("The users table does not exist in this database.",
			"Verify DB_NAME points at the right database",
			"Create the table: CREATE TABLE users (id SERIAL PRIMARY KEY, name TEXT NOT NULL, age INTEGER)",
			"Check the table is visible on the search_path of DB_USER",
		)
	case codeUndefinedColumn:
		return steps("The users table is missing one of the id, name or age columns.",
			"Inspect the table definition: \\d users",
		)
	case codeInsufficientPrivs:
		return steps("Permission denied: user does not have required privileges.",
			"Grant read access: GRANT SELECT ON users TO <user>",
			"Verify the user has CONNECT privilege on the database",
		)
	case codeTooManyConnections, codeCannotConnectNow:
		return steps("The server is not accepting new connections right now.",
			"Check max_connections and current usage in pg_stat_activity",
			"Wait for the server to finish starting up or recovering",
		)
	}

	errMsg := err.Error()

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) || strings.Contains(errMsg, "no such host") {
		return steps("Host not found: cannot resolve hostname.",
			"Verify DB_HOST in your configuration",
			"Try using an IP address instead of a hostname",
		)
	}

	if errors.Is(err, syscall.ECONNREFUSED) || strings.Contains(errMsg, "connection refused") {
		return steps("Connection refused: PostgreSQL is not accepting connections.",
			"Verify PostgreSQL is running (systemctl status postgresql)",
			"Check DB_HOST and DB_PORT match the server's listen_addresses and port",
			"Verify firewall settings allow the connection",
		)
	}

	if errors.Is(err, context.DeadlineExceeded) || strings.Contains(errMsg, "timeout") {
		return steps("Connection timeout: database did not respond in time.",
			"Check network connectivity to the database server",
			"Verify the database is not overloaded",
		)
	}

	if strings.Contains(errMsg, "SSL") || strings.Contains(errMsg, "TLS") {
		return steps("SSL/TLS error: secure connection failed.",
			"Try DB_SSLMODE=disable against a local server without TLS",
			"Check whether the server requires SSL (pg_hba.conf hostssl entries)",
		)
	}

	return ""
}

// steps formats a headline followed by numbered troubleshooting steps.
func steps(headline string, items ...string) string {
	var b strings.Builder
	b.WriteString(headline)
	b.WriteString("\n\nTroubleshooting steps:\n")
	for i, item := range items {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, item)
	}
	return strings.TrimRight(b.String(), "\n")
}
