package queries

import (
	"context"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/willibrandon/pgread/internal/db/adapters"
	"github.com/willibrandon/pgread/internal/db/models"
)

// ErrQueryFailed is returned when the users statement cannot be executed or read.
var ErrQueryFailed = errors.New("query failed")

const (
	dialectPostgres = "postgres"
	tableUsers      = "users"
	colID           = "id"
	colName         = "name"
	colAge          = "age"
)

// UsersQuery returns the fixed read-only statement selecting every user.
// No ORDER BY is applied; rows come back in whatever order the engine returns them.
func UsersQuery() (string, error) {
	sqlQuery, _, err := goqu.Dialect(dialectPostgres).
		From(tableUsers).
		Select(colID, colName, colAge).
		ToSQL()
	if err != nil {
		return "", errors.Join(ErrQueryFailed, fmt.Errorf("build users query: %w", err))
	}

	return sqlQuery, nil
}

// ForEachUser executes the users statement and calls fn for every row as it is read.
// Failures to execute, scan or iterate wrap ErrQueryFailed. An error returned by fn
// stops iteration and is returned unchanged.
func ForEachUser(ctx context.Context, conn adapters.DBAdapter, fn func(models.UserRecord) error) error {
	query, err := UsersQuery()
	if err != nil {
		return err
	}

	rows, err := conn.Query(ctx, query)
	if err != nil {
		return errors.Join(ErrQueryFailed, fmt.Errorf("query users: %w", err))
	}
	defer rows.Close()

	for rows.Next() {
		var u models.UserRecord
		if err := rows.Scan(&u.ID, &u.Name, &u.Age); err != nil {
			return errors.Join(ErrQueryFailed, fmt.Errorf("scan user: %w", err))
		}
		if err := fn(u); err != nil {
			return err
		}
	}

	if err := rows.Err(); err != nil {
		return errors.Join(ErrQueryFailed, fmt.Errorf("iterate users: %w", err))
	}

	return nil
}

// ListUsers reads every user before returning, so a failure partway through the result
// set yields no records at all.
func ListUsers(ctx context.Context, conn adapters.DBAdapter) ([]models.UserRecord, error) {
	var users []models.UserRecord
	err := ForEachUser(ctx, conn, func(u models.UserRecord) error {
		users = append(users, u)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return users, nil
}
