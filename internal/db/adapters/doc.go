// Package adapters hides the differences between the supported PostgreSQL client
// libraries behind a single connection interface.
//
// Every adapter wraps exactly one open connection: a *pgx.Conn, or a *sql.DB / *sqlx.DB
// limited to a single open connection.
package adapters
