// Package authz decides whether an actor may act on stored versions by
// delegating to the authorization state of the live content item.
package authz

import (
	"context"
	"strings"

	"github.com/and161185/content-history/internal/model"
)

// ActionEdit is the permission checked for every version operation.
const ActionEdit = "core.edit"

// RootAsset is the asset every chain ends at.
const RootAsset = "root.1"

// Engine answers permission questions for an actor on a resource key.
type Engine interface {
	// Authorize reports whether actor may perform action on resource ("alias.itemID").
	Authorize(ctx context.Context, actor model.Actor, action, resource string) (bool, error)
}

// AssetChain lists the resource followed by its ancestors, most specific first:
// com_content.article.42 -> com_content.article -> com_content -> root.1.
func AssetChain(resource string) []string {
	chain := []string{}
	for r := resource; r != ""; {
		chain = append(chain, r)
		i := strings.LastIndexByte(r, '.')
		if i < 0 {
			break
		}
		r = r[:i]
	}
	return append(chain, RootAsset)
}
