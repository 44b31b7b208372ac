package database

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/SahilSarmalkar99/MumbaiHacks/internal/txn"
)

//go:embed schema.sql
var schema string

func New(connStr string) (*sql.DB, error) {
	db, err := sql.Open("pgx", connStr)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

// Migrate creates the tables if they do not exist yet. It is idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}

	return nil
}

// RunInTx runs fn inside a SERIALIZABLE transaction, rolling back on error and
// rerunning the whole body when Postgres reports a serialization failure or
// a deadlock.
func RunInTx(ctx context.Context, db *sql.DB, policy txn.Policy, fn func(ctx context.Context, tx *sql.Tx) error) error {
	return txn.Retry(ctx, policy, func(ctx context.Context) error {
		tx, err := db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
		if err != nil {
			return classify(fmt.Errorf("beginning transaction: %w", err))
		}
		defer tx.Rollback()

		if err := fn(ctx, tx); err != nil {
			return classify(err)
		}

		if err := tx.Commit(); err != nil {
			return classify(fmt.Errorf("committing transaction: %w", err))
		}

		return nil
	})
}

const (
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

func classify(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeSerializationFailure, codeDeadlockDetected:
			return fmt.Errorf("%w: %w", txn.ErrConflict, err)
		}
	}

	return err
}
