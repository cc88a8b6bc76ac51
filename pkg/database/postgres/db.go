package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	"github.com/jmoiron/sqlx"

	"github.com/code-payments/code-authority-server/pkg/retry"
)

const (
	maxSerializationRetries = 5
)

// ExecuteRetryable retries functions that perform non-transactional database
// operations when they hit a serialization failure.
func ExecuteRetryable(fn func() error) error {
	_, err := retry.Retry(
		fn,
		retry.Limit(maxSerializationRetries),
		retry.RetriableIf(IsSerializationFailure),
	)
	return err
}

// ExecuteInTx executes fn within the scope of a new DB transaction, which is
// committed when fn succeeds and rolled back otherwise.
func ExecuteInTx(ctx context.Context, db *sqlx.DB, isolation sql.IsolationLevel, fn func(tx *sqlx.Tx) error) error {
	if isolation == sql.LevelDefault {
		isolation = sql.LevelReadCommitted // Postgres default
	}

	tx, err := db.BeginTxx(ctx, &sql.TxOptions{
		Isolation: isolation,
	})
	if err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		// We always need to execute a Rollback() so sql.DB releases the connection.
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			return fmt.Errorf("failed to rollback transaction: %w", rollbackErr)
		}
		return err
	}
	return tx.Commit()
}

// IsSerializationFailure returns whether the error is a serialization failure
// that's safe to retry
func IsSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.SerializationFailure
}
