package postgres

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robertarktes/clinic-front-desk/internal/domain"
	"github.com/robertarktes/clinic-front-desk/internal/observability"
	"github.com/robertarktes/clinic-front-desk/internal/queue"
)

const (
	serializationFailureCode = "40001"
	uniqueViolationCode      = "23505"
)

// querier is the slice of pgxpool.Pool and pgx.Tx the queries need, so
// every repository method runs against either without knowing which.
type querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Repository struct {
	db   querier
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool, pool: pool}
}

// WithTx runs fn inside a SERIALIZABLE transaction and maps retryable
// SQLSTATE codes onto domain sentinels so callers can decide whether
// to retry.
func (r *Repository) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	start := time.Now()
	defer func() {
		observability.DBTxDuration.Observe(time.Since(start).Seconds())
	}()

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return mapPgError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return mapPgError(err)
	}
	return nil
}

// InTx hands fn a repository view whose statements all run inside one
// SERIALIZABLE transaction, so multi-step queue mutations commit or
// roll back as a unit.
func (r *Repository) InTx(ctx context.Context, fn func(queue.Stores) error) error {
	return r.WithTx(ctx, func(tx pgx.Tx) error {
		return fn(&Repository{db: tx, pool: r.pool})
	})
}

func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case serializationFailureCode:
			return domain.ErrSerializationFailure
		case uniqueViolationCode:
			return domain.ErrConflict
		}
	}
	return err
}
