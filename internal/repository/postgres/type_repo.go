package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/and161185/content-history/internal/errs"
	"github.com/and161185/content-history/internal/model"
)

// TypeRepo implements TypeRepository over the content_types table.
type TypeRepo struct{ db *DB }

// NewTypeRepo constructs a content type repository.
func NewTypeRepo(db *DB) *TypeRepo { return &TypeRepo{db: db} }

const typeSelect = `
SELECT type_id, type_title, type_alias, table_name, key_column, history_options
FROM content_types`

// ByID selects a content type by id.
func (r *TypeRepo) ByID(ctx context.Context, id int64) (*model.ContentType, error) {
	return r.one(ctx, typeSelect+` WHERE type_id=$1`, id)
}

// ByAlias selects a content type by alias.
func (r *TypeRepo) ByAlias(ctx context.Context, alias string) (*model.ContentType, error) {
	return r.one(ctx, typeSelect+` WHERE type_alias=$1`, alias)
}

func (r *TypeRepo) one(ctx context.Context, q string, arg any) (*model.ContentType, error) {
	var (
		ct   model.ContentType
		opts []byte
	)
	err := r.db.Pool.QueryRow(ctx, q, arg).Scan(&ct.ID, &ct.Title, &ct.Alias, &ct.Table, &ct.KeyColumn, &opts)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, fmt.Errorf("load content type %v: %w", arg, err)
	}
	if len(opts) > 0 {
		if err := json.Unmarshal(opts, &ct.Options); err != nil {
			return nil, fmt.Errorf("content type %v: history options: %w", arg, err)
		}
	}
	return &ct, nil
}
