// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/and161185/content-history/internal/model"
)

// TypeRepository resolves content type metadata.
type TypeRepository interface {
	// ByID loads a content type by its id.
	ByID(ctx context.Context, id int64) (*model.ContentType, error)
	// ByAlias loads a content type by its dotted alias.
	ByAlias(ctx context.Context, alias string) (*model.ContentType, error)
}
