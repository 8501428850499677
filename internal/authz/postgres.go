package authz

import (
	"context"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/and161185/content-history/internal/model"
)

// PG is a PostgreSQL-backed engine over the acl_grants table.
// An explicit deny anywhere in the asset chain wins over any allow.
type PG struct {
	pool    pgxQuerier
	builder squirrel.StatementBuilderType
}

type pgxQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// NewPG constructs a PostgreSQL-backed engine. *pgxpool.Pool and
// postgres.PgxPool both satisfy q.
func NewPG(q pgxQuerier) *PG {
	return &PG{pool: q, builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)}
}

// Authorize reports whether actor holds action on resource or one of its ancestors.
func (e *PG) Authorize(ctx context.Context, actor model.Actor, action, resource string) (bool, error) {
	if actor.UserID <= 0 {
		return false, nil
	}
	q, args, err := e.builder.Select("allowed").
		From("acl_grants").
		Where(squirrel.Eq{"user_id": actor.UserID}).
		Where(squirrel.Eq{"action": action}).
		Where(squirrel.Eq{"asset": AssetChain(resource)}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build acl sql: %w", err)
	}
	rows, err := e.pool.Query(ctx, q, args...)
	if err != nil {
		return false, fmt.Errorf("query acl: %w", err)
	}
	decisions, err := pgx.CollectRows(rows, pgx.RowTo[bool])
	if err != nil {
		return false, fmt.Errorf("scan acl: %w", err)
	}

	allowed := false
	for _, d := range decisions {
		if !d {
			return false, nil
		}
		allowed = true
	}
	return allowed, nil
}
