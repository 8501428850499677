package repository

import (
	"context"

	"github.com/and161185/content-history/internal/model"
)

// VersionRepository provides access to stored content versions.
type VersionRepository interface {
	// Get loads a single version by primary key.
	Get(ctx context.Context, versionID int64) (*model.Version, error)

	// List returns versions of one item ordered as requested, with the editor name joined.
	List(ctx context.Context, q model.ListQuery) ([]model.Version, error)

	// SetKeepForever updates the keep-forever flag.
	SetKeepForever(ctx context.Context, versionID int64, keep bool) error

	// Delete removes a version; keep-forever rows are refused.
	Delete(ctx context.Context, versionID int64) error
}

// ItemRepository loads live content rows for a content type.
type ItemRepository interface {
	// Load returns the row as column -> value.
	Load(ctx context.Context, ct model.ContentType, itemID int64) (map[string]any, error)
}
