// Package sqlxrepos implements the core repositories on PostgreSQL.
package sqlxrepos

import (
	"context"
	"database/sql"
	"strconv"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/mansa/core"
	"github.com/trezcool/mansa/storage/database"
)

// dbtx is satisfied by *sqlx.DB and *sqlx.Tx.
type dbtx interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
}

var (
	_ dbtx = (*sqlx.DB)(nil)
	_ dbtx = (*sqlx.Tx)(nil)
)

// orNotFound maps sql.ErrNoRows and malformed IDs to notFound.
func orNotFound(err, notFound error) error {
	if errors.Cause(err) == sql.ErrNoRows || database.IsInvalidText(err) {
		return notFound
	}
	return err
}

// mustAffect returns notFound when res did not change any row.
func mustAffect(res sql.Result, err, notFound error) error {
	if err != nil {
		return orNotFound(err, notFound)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func newID() string {
	return uuid.NewString()
}

// in expands the slice arguments of query and rebinds it for PostgreSQL.
func in(db sqlx.ExtContext, query string, args ...interface{}) (string, []interface{}, error) {
	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return "", nil, err
	}
	return db.Rebind(query), args, nil
}

func limitOffset(page core.Page) (int, int) {
	page.Clean()
	return page.Limit, page.Offset()
}

func itoa(i int) string {
	return strconv.Itoa(i)
}

func isUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
