package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/and161185/content-history/internal/errs"
	"github.com/and161185/content-history/internal/model"
)

// ItemRepo loads live content rows from the table named by a content type.
type ItemRepo struct{ db *DB }

// NewItemRepo constructs a live item repository.
func NewItemRepo(db *DB) *ItemRepo { return &ItemRepo{db: db} }

func identifier(name string) string {
	return pgx.Identifier(strings.Split(name, ".")).Sanitize()
}

// Load returns the live row of the item as column -> value.
func (r *ItemRepo) Load(ctx context.Context, ct model.ContentType, itemID int64) (map[string]any, error) {
	if ct.Table == "" || ct.KeyColumn == "" {
		return nil, errs.ErrNotFound
	}
	q := fmt.Sprintf(`SELECT * FROM %s WHERE %s=$1`, identifier(ct.Table), identifier(ct.KeyColumn))
	rows, err := r.db.Pool.Query(ctx, q, itemID)
	if err != nil {
		if isUndefinedTable(err) {
			return nil, errs.ErrNotFound
		}
		return nil, fmt.Errorf("load %s item %d: %w", ct.Alias, itemID, err)
	}
	row, err := pgx.CollectExactlyOneRow(rows, pgx.RowToMap)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, fmt.Errorf("load %s item %d: %w", ct.Alias, itemID, err)
	}
	return row, nil
}
