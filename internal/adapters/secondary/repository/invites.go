package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sentinelid/authcore/internal/core/domain"
	"github.com/sentinelid/authcore/internal/core/ports"
)

// InviteRepo implements ports.InviteStore with a single atomic
// conditional update, the same compare-and-swap shape as
// RefreshTokenRepo.Rotate's replay check: the UPDATE only matches an
// unused code, so concurrent redemption attempts cannot both succeed.
// When called from inside a PostgresUnitOfWork.Execute callback, the
// update runs against that transaction instead of the pool, so a
// caller pairing Consume with an account insert gets one
// commit-or-rollback unit.
type InviteRepo struct {
	db *pgxpool.Pool
}

func NewInviteRepo(pool *pgxpool.Pool) *InviteRepo {
	return &InviteRepo{db: pool}
}

func (r *InviteRepo) Consume(ctx context.Context, code string, userID domain.UserId) (bool, error) {
	q := `UPDATE invites SET used_by = $2, used_at = now() WHERE code = $1 AND used_by IS NULL`
	tag, err := execer(ctx, r.db).Exec(ctx, q, code, userID.String())
	if err != nil {
		return false, fmt.Errorf("db: consume invite: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

var _ ports.InviteStore = (*InviteRepo)(nil)
