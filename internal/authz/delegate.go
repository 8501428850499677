package authz

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/and161185/content-history/internal/errs"
	"github.com/and161185/content-history/internal/model"
	"github.com/and161185/content-history/internal/repository"
	"github.com/and161185/content-history/internal/session"
)

// Delegate derives version permissions from the live content item.
// Versions carry no ownership of their own.
type Delegate struct {
	types    repository.TypeRepository
	engine   Engine
	sessions session.Store
}

// NewDelegate wires the collaborators the delegate consults.
func NewDelegate(types repository.TypeRepository, engine Engine, sessions session.Store) *Delegate {
	return &Delegate{types: types, engine: engine, sessions: sessions}
}

// CanModify reports whether actor may change v while the request is scoped to
// requestAlias. Errors are returned only for collaborator faults.
//
// The session fallback is ORed with the formal check: an item held for
// editing in the session is modifiable even if the ACL says otherwise.
func (d *Delegate) CanModify(ctx context.Context, actor model.Actor, requestAlias string, v model.Version) (bool, error) {
	if v.TypeID == 0 {
		return false, nil
	}

	ct, err := d.types.ByID(ctx, v.TypeID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("resolve type %d: %w", v.TypeID, err)
	}
	if ct.Alias != requestAlias {
		return false, nil
	}

	ok, err := d.engine.Authorize(ctx, actor, ActionEdit, ct.AssetName(v.ItemID))
	if err != nil {
		return false, fmt.Errorf("authorize %s: %w", ct.AssetName(v.ItemID), err)
	}
	if ok {
		return true, nil
	}

	held, err := d.sessions.EditableIDs(ctx, actor.SessionID, ct.Alias)
	if err != nil {
		return false, fmt.Errorf("session editable ids: %w", err)
	}
	return slices.Contains(held, v.ItemID), nil
}

// CanDelete is CanModify: deleting a version never needs less than editing its item.
func (d *Delegate) CanDelete(ctx context.Context, actor model.Actor, requestAlias string, v model.Version) (bool, error) {
	return d.CanModify(ctx, actor, requestAlias, v)
}

// CanEditItem asks the engine directly about the live item, without the
// alias and session checks.
func (d *Delegate) CanEditItem(ctx context.Context, actor model.Actor, ct model.ContentType, itemID int64) (bool, error) {
	ok, err := d.engine.Authorize(ctx, actor, ActionEdit, ct.AssetName(itemID))
	if err != nil {
		return false, fmt.Errorf("authorize %s: %w", ct.AssetName(itemID), err)
	}
	return ok, nil
}
