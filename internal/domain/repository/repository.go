// Package repository holds the PostgreSQL persistence layer. Every
// repository is an interface plus a pg-backed implementation so services can
// be tested against fakes.
package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"
)

// sqlRunner is satisfied by both *sql.DB and *sql.Tx.
type sqlRunner interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func execer(tx *sql.Tx, db *sql.DB) sqlRunner {
	if tx != nil {
		return tx
	}
	return db
}

func queryRower(tx *sql.Tx, db *sql.DB) sqlRunner {
	return execer(tx, db)
}

func newTagID() string {
	return uuid.NewString()
}

// prefixColumns turns "a, b, c" into "p.a, p.b, p.c" for joined queries.
func prefixColumns(prefix, columns string) string {
	parts := strings.Split(columns, ", ")
	for i, p := range parts {
		parts[i] = prefix + "." + p
	}
	return strings.Join(parts, ", ")
}
