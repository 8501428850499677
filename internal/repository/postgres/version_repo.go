package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/and161185/content-history/internal/errs"
	"github.com/and161185/content-history/internal/model"
)

var versionColumns = []string{
	"h.version_id",
	"h.ucm_item_id",
	"h.ucm_type_id",
	"COALESCE(h.version_note, '')",
	"h.save_date",
	"h.editor_user_id",
	"h.character_count",
	"h.sha1_hash",
	"h.version_data",
	"h.keep_forever",
	"COALESCE(uc.name, '') AS editor",
}

// VersionRepo implements VersionRepository using PostgreSQL.
type VersionRepo struct{ db *DB }

// NewVersionRepo constructs a version repository.
func NewVersionRepo(db *DB) *VersionRepo { return &VersionRepo{db: db} }

func scanVersion(row pgx.Row) (model.Version, error) {
	var v model.Version
	err := row.Scan(&v.ID, &v.ItemID, &v.TypeID, &v.Note, &v.SaveDate, &v.EditorUserID,
		&v.CharacterCount, &v.SHA1Hash, &v.Data, &v.KeepForever, &v.Editor)
	return v, err
}

// Get returns a single version by id.
func (r *VersionRepo) Get(ctx context.Context, versionID int64) (*model.Version, error) {
	q, args, err := builder.Select(versionColumns...).
		From("ucm_history h").
		LeftJoin("users uc ON uc.id = h.editor_user_id").
		Where("h.version_id = ?", versionID).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select version sql: %w", err)
	}
	v, err := scanVersion(r.db.Pool.QueryRow(ctx, q, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, fmt.Errorf("load version %d: %w", versionID, err)
	}
	return &v, nil
}

// List returns the versions of one item in the requested order.
func (r *VersionRepo) List(ctx context.Context, lq model.ListQuery) ([]model.Version, error) {
	q, args, err := builder.Select(versionColumns...).
		From("ucm_history h").
		LeftJoin("users uc ON uc.id = h.editor_user_id").
		Where("h.ucm_item_id = ?", lq.ItemID).
		Where("h.ucm_type_id = ?", lq.TypeID).
		OrderBy(lq.OrderClause()).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list versions sql: %w", err)
	}
	rows, err := r.db.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	defer rows.Close()

	out := []model.Version{}
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan version: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// SetKeepForever stores the keep-forever flag.
func (r *VersionRepo) SetKeepForever(ctx context.Context, versionID int64, keep bool) error {
	const q = `UPDATE ucm_history SET keep_forever=$2 WHERE version_id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, versionID, keep)
	if err != nil {
		return fmt.Errorf("update keep_forever of %d: %w", versionID, err)
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// Delete removes a version unless it is kept forever.
func (r *VersionRepo) Delete(ctx context.Context, versionID int64) error {
	const q = `DELETE FROM ucm_history WHERE version_id=$1 AND keep_forever=false`
	tag, err := r.db.Pool.Exec(ctx, q, versionID)
	if err != nil {
		return fmt.Errorf("delete version %d: %w", versionID, err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	const sel = `SELECT keep_forever FROM ucm_history WHERE version_id=$1`
	var keep bool
	if err := r.db.Pool.QueryRow(ctx, sel, versionID).Scan(&keep); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return errs.ErrNotFound
		}
		return fmt.Errorf("recheck version %d: %w", versionID, err)
	}
	if keep {
		return errs.ErrKeptForever
	}
	return fmt.Errorf("delete version %d: no rows affected", versionID)
}
