// Package cache drops rendered version listings when versions change.
// Listings are written by the rendering layer; this service only invalidates.
package cache

import "context"

// ScopeVersions groups every cached version listing.
const ScopeVersions = "versions"

// Cache invalidates whole scopes of cached listings.
type Cache interface {
	// Invalidate drops every entry of scope.
	Invalidate(ctx context.Context, scope string) error
}

// Noop never fails.
type Noop struct{}

func (Noop) Invalidate(context.Context, string) error { return nil }
