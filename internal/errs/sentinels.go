// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across repo/service layers.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnauthenticated indicates a missing or invalid caller identity.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrUnauthorized indicates the actor may not act on the requested content.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrKeptForever indicates a delete was attempted on a keep-forever version.
	ErrKeptForever = errors.New("version is kept forever")

	// ErrBrokenData indicates rows reference a content type that cannot be resolved.
	ErrBrokenData = errors.New("broken data")

	// ErrInvalidArgument indicates malformed caller input.
	ErrInvalidArgument = errors.New("invalid argument")
)
