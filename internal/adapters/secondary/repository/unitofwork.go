package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sentinelid/authcore/internal/core/ports"
)

type txContextKey struct{}

// dbExecer is satisfied by both *pgxpool.Pool and pgx.Tx, letting a
// repository issue the same query against whichever is active without
// branching on type.
type dbExecer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// execer returns the transaction PostgresUnitOfWork.Execute put on ctx,
// or pool itself if none is active, so a repository method works both
// standalone and as a participant in a caller's unit of work.
func execer(ctx context.Context, pool *pgxpool.Pool) dbExecer {
	if tx, ok := ctx.Value(txContextKey{}).(pgx.Tx); ok {
		return tx
	}
	return pool
}

// PostgresUnitOfWork implements ports.UnitOfWork over pgx/v5, the same
// begin/defer-rollback/commit shape RefreshTokenRepo.Rotate uses for
// its own single-repository transaction. Execute additionally exposes
// the transaction on ctx so repositories constructed against the same
// pool — PostgresRepo, InviteRepo — can share it across calls.
type PostgresUnitOfWork struct {
	db *pgxpool.Pool
}

func NewPostgresUnitOfWork(pool *pgxpool.Pool) *PostgresUnitOfWork {
	return &PostgresUnitOfWork{db: pool}
}

func (u *PostgresUnitOfWork) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("db: begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := fn(context.WithValue(ctx, txContextKey{}, tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("db: commit transaction: %w", err)
	}
	return nil
}

var _ ports.UnitOfWork = (*PostgresUnitOfWork)(nil)
