package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/and161185/content-history/internal/cache"
	"github.com/and161185/content-history/internal/diag"
	"github.com/and161185/content-history/internal/errs"
	"github.com/and161185/content-history/internal/events"
	"github.com/and161185/content-history/internal/model"
	"github.com/and161185/content-history/internal/repository"
)

// Diagnostics shown when a batch skips a version the actor may not change.
const (
	MsgDeleteNotPermitted = "not permitted to delete this item"
	MsgKeepNotPermitted   = "not permitted to keep this item"
)

// HistoryService defines the version governance operations.
type HistoryService interface {
	// List returns the versions of one item for display.
	List(ctx context.Context, actor model.Actor, typeAlias string, q model.ListQuery) (model.History, error)
	// Get returns a single version the actor may modify.
	Get(ctx context.Context, actor model.Actor, typeAlias string, versionID int64) (*model.Version, error)
	// Delete removes versions, skipping kept-forever and unauthorized ones.
	Delete(ctx context.Context, actor model.Actor, typeAlias string, keys []int64) (model.BatchResult, error)
	// Keep toggles keep-forever, skipping unauthorized versions.
	Keep(ctx context.Context, actor model.Actor, typeAlias string, keys []int64) (model.BatchResult, error)
	// CurrentHash fingerprints the live item; ok is false when it is gone.
	CurrentHash(ctx context.Context, actor model.Actor, typeAlias string, typeID, itemID int64) (hash string, ok bool, err error)
}

// Authorizer decides version permissions.
type Authorizer interface {
	CanModify(ctx context.Context, actor model.Actor, requestAlias string, v model.Version) (bool, error)
	CanEditItem(ctx context.Context, actor model.Actor, ct model.ContentType, itemID int64) (bool, error)
}

// Fingerprinter hashes live content items.
type Fingerprinter interface {
	Compute(ctx context.Context, ct model.ContentType, itemID int64) (hash string, ok bool, err error)
}

// Deps are the collaborators of HistoryServiceImpl. Cache, Events, Sink and
// Log are optional.
type Deps struct {
	Versions repository.VersionRepository
	Types    repository.TypeRepository
	Auth     Authorizer
	Hashes   Fingerprinter
	Cache    cache.Cache
	Events   events.Publisher
	Sink     diag.Sink
	Log      *zap.Logger
}

type HistoryServiceImpl struct {
	Deps
	maxBatch int
	now      func() time.Time
}

// NewHistoryService constructs HistoryService with batch limits.
func NewHistoryService(d Deps, maxBatch int) *HistoryServiceImpl {
	if maxBatch <= 0 {
		maxBatch = 1000
	}
	if d.Cache == nil {
		d.Cache = cache.Noop{}
	}
	if d.Events == nil {
		d.Events = events.Noop{}
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	return &HistoryServiceImpl{Deps: d, maxBatch: maxBatch, now: time.Now}
}

// List returns all versions of q.ItemID in the requested order. An empty
// result skips authorization; otherwise one check on the first row decides
// for the whole list, since every row shares the item and type.
func (s *HistoryServiceImpl) List(ctx context.Context, actor model.Actor, typeAlias string, q model.ListQuery) (model.History, error) {
	if q.ItemID <= 0 || q.TypeID <= 0 {
		return model.History{}, fmt.Errorf("%w: item_id and type_id must be positive", errs.ErrInvalidArgument)
	}
	q = q.Normalized()

	rows, err := s.Versions.List(ctx, q)
	if err != nil {
		return model.History{}, err
	}
	if len(rows) == 0 {
		return model.History{Versions: rows}, nil
	}

	first := rows[0]
	ct, err := s.Types.ByID(ctx, first.TypeID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return model.History{}, fmt.Errorf("%w: content type %d of version %d", errs.ErrBrokenData, first.TypeID, first.ID)
		}
		return model.History{}, fmt.Errorf("resolve type %d: %w", first.TypeID, err)
	}

	ok, err := s.Auth.CanEditItem(ctx, actor, *ct, first.ItemID)
	if err != nil {
		return model.History{}, err
	}
	if !ok {
		if ok, err = s.Auth.CanModify(ctx, actor, typeAlias, first); err != nil {
			return model.History{}, err
		}
	}
	if !ok {
		return model.History{}, errs.ErrUnauthorized
	}

	hash, found, err := s.Hashes.Compute(ctx, *ct, first.ItemID)
	if err != nil {
		return model.History{}, err
	}
	h := model.History{Versions: rows}
	if found {
		h.CurrentHash = hash
		for i := range h.Versions {
			h.Versions[i].Current = h.Versions[i].SHA1Hash == hash
		}
	}
	return h, nil
}

// Get loads one version and checks the actor may modify it.
func (s *HistoryServiceImpl) Get(ctx context.Context, actor model.Actor, typeAlias string, versionID int64) (*model.Version, error) {
	if versionID <= 0 {
		return nil, fmt.Errorf("%w: version_id must be positive", errs.ErrInvalidArgument)
	}
	v, err := s.Versions.Get(ctx, versionID)
	if err != nil {
		return nil, err
	}
	ok, err := s.Auth.CanModify(ctx, actor, typeAlias, *v)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errs.ErrUnauthorized
	}
	return v, nil
}

// CurrentHash fingerprints the live item if the actor may edit it.
func (s *HistoryServiceImpl) CurrentHash(ctx context.Context, actor model.Actor, typeAlias string, typeID, itemID int64) (string, bool, error) {
	if typeID <= 0 || itemID <= 0 {
		return "", false, fmt.Errorf("%w: type_id and item_id must be positive", errs.ErrInvalidArgument)
	}
	ok, err := s.Auth.CanModify(ctx, actor, typeAlias, model.Version{ItemID: itemID, TypeID: typeID})
	if err != nil {
		return "", false, err
	}
	if !ok {
		return "", false, errs.ErrUnauthorized
	}
	ct, err := s.Types.ByID(ctx, typeID)
	if err != nil {
		return "", false, err
	}
	return s.Hashes.Compute(ctx, *ct, itemID)
}

// Delete removes the given versions in order. Kept-forever versions are
// skipped silently, unauthorized ones with a warning. A load or store fault
// aborts the whole batch.
func (s *HistoryServiceImpl) Delete(ctx context.Context, actor model.Actor, typeAlias string, keys []int64) (model.BatchResult, error) {
	return s.apply(ctx, actor, typeAlias, keys, model.OpDelete)
}

// Keep flips keep-forever on the given versions in order, skipping
// unauthorized ones with a warning. A load or store fault aborts the batch.
func (s *HistoryServiceImpl) Keep(ctx context.Context, actor model.Actor, typeAlias string, keys []int64) (model.BatchResult, error) {
	return s.apply(ctx, actor, typeAlias, keys, model.OpToggleKeep)
}

func (s *HistoryServiceImpl) apply(ctx context.Context, actor model.Actor, typeAlias string, keys []int64, op model.BatchOp) (model.BatchResult, error) {
	keys, err := s.validateKeys(keys)
	if err != nil {
		return model.BatchResult{}, err
	}
	res := model.BatchResult{Op: op, Items: make([]model.ItemResult, 0, len(keys))}
	if len(keys) == 0 {
		return res, nil
	}

	var q diag.Queue
	for _, id := range keys {
		outcome, err := s.applyOne(ctx, actor, typeAlias, id, op, &q)
		if err != nil {
			return model.BatchResult{}, fmt.Errorf("%s version[%d]: %w", op, id, err)
		}
		res.Items = append(res.Items, model.ItemResult{ID: id, Outcome: outcome})
	}

	for _, it := range res.Items {
		if it.Outcome == model.Applied {
			res.Applied = append(res.Applied, it.ID)
		} else {
			res.Pruned = append(res.Pruned, it.ID)
		}
	}
	res.Messages = q.Messages()

	if err := s.Cache.Invalidate(ctx, cache.ScopeVersions); err != nil {
		s.Log.Warn("listing cache invalidation failed", zap.Error(err))
	}
	ev := events.VersionsChanged{
		Op:        op.String(),
		ActorID:   actor.UserID,
		TypeAlias: typeAlias,
		Applied:   res.Applied,
		Pruned:    res.Pruned,
		At:        s.now().UTC(),
	}
	if err := s.Events.PublishVersionsChanged(ctx, ev); err != nil {
		s.Log.Warn("publish versions changed failed", zap.String("op", ev.Op), zap.Error(err))
	}

	s.Log.Info("batch complete",
		zap.String("op", op.String()),
		zap.Int64("actor", actor.UserID),
		zap.Int("applied", len(res.Applied)),
		zap.Int("pruned", len(res.Pruned)),
	)
	return res, nil
}

func (s *HistoryServiceImpl) applyOne(ctx context.Context, actor model.Actor, typeAlias string, id int64, op model.BatchOp, q *diag.Queue) (model.Outcome, error) {
	v, err := s.Versions.Get(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("load: %w", err)
	}
	if op == model.OpDelete && v.KeepForever {
		return model.PrunedKept, nil
	}

	ok, err := s.Auth.CanModify(ctx, actor, typeAlias, *v)
	if err != nil {
		return 0, err
	}
	if !ok {
		msg := MsgDeleteNotPermitted
		if op == model.OpToggleKeep {
			msg = MsgKeepNotPermitted
		}
		diag.Emit(s.Sink, q, zapcore.WarnLevel, fmt.Sprintf("%s (#%d)", msg, id),
			zap.Int64("version_id", id),
			zap.Int64("item_id", v.ItemID),
			zap.Int64("actor", actor.UserID),
		)
		return model.PrunedUnauthorized, nil
	}

	switch op {
	case model.OpDelete:
		if err := s.Versions.Delete(ctx, id); err != nil {
			if errors.Is(err, errs.ErrKeptForever) {
				return model.PrunedKept, nil
			}
			return 0, err
		}
	case model.OpToggleKeep:
		if err := s.Versions.SetKeepForever(ctx, id, !v.KeepForever); err != nil {
			return 0, err
		}
	default:
		return 0, fmt.Errorf("%w: unknown operation %d", errs.ErrInvalidArgument, op)
	}
	return model.Applied, nil
}

// validateKeys rejects non-positive keys and drops repeats, keeping the
// first occurrence so processing order follows the caller's order.
func (s *HistoryServiceImpl) validateKeys(keys []int64) ([]int64, error) {
	if len(keys) > s.maxBatch {
		return nil, fmt.Errorf("%w: batch too large (%d > %d)", errs.ErrInvalidArgument, len(keys), s.maxBatch)
	}
	seen := make(map[int64]struct{}, len(keys))
	out := make([]int64, 0, len(keys))
	for i, k := range keys {
		if k <= 0 {
			return nil, fmt.Errorf("%w: key[%d] must be positive", errs.ErrInvalidArgument, i)
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out, nil
}
