// Package convert maps domain values to and from the structpb messages
// carried by the History gRPC service.
package convert

import (
	"fmt"
	"math"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/and161185/content-history/internal/model"
)

// Request and response field names.
const (
	FieldTypeAlias   = "type_alias"
	FieldTypeID      = "type_id"
	FieldItemID      = "item_id"
	FieldVersionID   = "version_id"
	FieldOrderBy     = "order_by"
	FieldDirection   = "direction"
	FieldIDs         = "ids"
	FieldVersions    = "versions"
	FieldVersion     = "version"
	FieldCurrentHash = "current_hash"
	FieldHash        = "hash"
	FieldFound       = "found"
)

// --- helpers ---

func ts(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func ids(in []int64) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = float64(v)
	}
	return out
}

func strs(in []string) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}

// Int64 reads a whole number field. Missing fields read as zero.
func Int64(s *structpb.Struct, key string) (int64, error) {
	v, ok := s.GetFields()[key]
	if !ok {
		return 0, nil
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, fmt.Errorf("%s: want number", key)
	}
	f := n.NumberValue
	if f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return 0, fmt.Errorf("%s: want integer, got %v", key, f)
	}
	return int64(f), nil
}

// String reads a string field. Missing fields read as empty.
func String(s *structpb.Struct, key string) string {
	return s.GetFields()[key].GetStringValue()
}

// Int64List reads a list of whole numbers.
func Int64List(s *structpb.Struct, key string) ([]int64, error) {
	v, ok := s.GetFields()[key]
	if !ok {
		return nil, nil
	}
	list := v.GetListValue()
	if list == nil {
		return nil, fmt.Errorf("%s: want list", key)
	}
	out := make([]int64, 0, len(list.GetValues()))
	for i, e := range list.GetValues() {
		f := e.GetNumberValue()
		if _, isNum := e.GetKind().(*structpb.Value_NumberValue); !isNum || f != math.Trunc(f) {
			return nil, fmt.Errorf("%s[%d]: want integer", key, i)
		}
		out = append(out, int64(f))
	}
	return out, nil
}

// --- Versions ---

// VersionMap renders v as a plain map suitable for structpb.
func VersionMap(v model.Version) map[string]any {
	return map[string]any{
		"id":              float64(v.ID),
		"item_id":         float64(v.ItemID),
		"type_id":         float64(v.TypeID),
		"note":            v.Note,
		"save_date":       ts(v.SaveDate),
		"editor_user_id":  float64(v.EditorUserID),
		"editor":          v.Editor,
		"character_count": float64(v.CharacterCount),
		"sha1_hash":       v.SHA1Hash,
		"data":            string(v.Data),
		"keep_forever":    v.KeepForever,
		"current":         v.Current,
	}
}

// FromVersionStruct is the inverse of VersionMap.
func FromVersionStruct(s *structpb.Struct) (model.Version, error) {
	var (
		v   model.Version
		err error
	)
	for key, dst := range map[string]*int64{
		"id":              &v.ID,
		"item_id":         &v.ItemID,
		"type_id":         &v.TypeID,
		"editor_user_id":  &v.EditorUserID,
		"character_count": &v.CharacterCount,
	} {
		if *dst, err = Int64(s, key); err != nil {
			return model.Version{}, err
		}
	}
	if raw := String(s, "save_date"); raw != "" {
		if v.SaveDate, err = time.Parse(time.RFC3339, raw); err != nil {
			return model.Version{}, fmt.Errorf("save_date: %w", err)
		}
	}
	v.Note = String(s, "note")
	v.Editor = String(s, "editor")
	v.SHA1Hash = String(s, "sha1_hash")
	if d := String(s, "data"); d != "" {
		v.Data = []byte(d)
	}
	v.KeepForever = s.GetFields()["keep_forever"].GetBoolValue()
	v.Current = s.GetFields()["current"].GetBoolValue()
	return v, nil
}

// --- List ---

// ToListRequest builds a ListVersions request.
func ToListRequest(typeAlias string, q model.ListQuery) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		FieldTypeAlias: typeAlias,
		FieldItemID:    float64(q.ItemID),
		FieldTypeID:    float64(q.TypeID),
		FieldOrderBy:   q.OrderBy,
		FieldDirection: q.Direction,
	})
}

// FromListRequest parses a ListVersions request.
func FromListRequest(s *structpb.Struct) (string, model.ListQuery, error) {
	var q model.ListQuery
	var err error
	if q.ItemID, err = Int64(s, FieldItemID); err != nil {
		return "", q, err
	}
	if q.TypeID, err = Int64(s, FieldTypeID); err != nil {
		return "", q, err
	}
	q.OrderBy = String(s, FieldOrderBy)
	q.Direction = String(s, FieldDirection)
	return String(s, FieldTypeAlias), q, nil
}

// ToHistoryResponse renders a listing.
func ToHistoryResponse(h model.History) (*structpb.Struct, error) {
	vs := make([]any, len(h.Versions))
	for i, v := range h.Versions {
		vs[i] = VersionMap(v)
	}
	return structpb.NewStruct(map[string]any{
		FieldVersions:    vs,
		FieldCurrentHash: h.CurrentHash,
	})
}

// FromHistoryResponse parses a listing.
func FromHistoryResponse(s *structpb.Struct) (model.History, error) {
	h := model.History{CurrentHash: String(s, FieldCurrentHash)}
	for i, e := range s.GetFields()[FieldVersions].GetListValue().GetValues() {
		v, err := FromVersionStruct(e.GetStructValue())
		if err != nil {
			return model.History{}, fmt.Errorf("versions[%d]: %w", i, err)
		}
		h.Versions = append(h.Versions, v)
	}
	return h, nil
}

// --- Get ---

// ToVersionResponse wraps one version.
func ToVersionResponse(v model.Version) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{FieldVersion: VersionMap(v)})
}

// FromVersionResponse unwraps one version.
func FromVersionResponse(s *structpb.Struct) (model.Version, error) {
	inner := s.GetFields()[FieldVersion].GetStructValue()
	if inner == nil {
		return model.Version{}, fmt.Errorf("%s: missing", FieldVersion)
	}
	return FromVersionStruct(inner)
}

// --- Batches ---

// ToBatchRequest builds a DeleteVersions or KeepVersions request.
func ToBatchRequest(typeAlias string, keys []int64) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		FieldTypeAlias: typeAlias,
		FieldIDs:       ids(keys),
	})
}

// FromBatchRequest parses a batch request.
func FromBatchRequest(s *structpb.Struct) (string, []int64, error) {
	keys, err := Int64List(s, FieldIDs)
	if err != nil {
		return "", nil, err
	}
	return String(s, FieldTypeAlias), keys, nil
}

// ToBatchResponse renders a completed batch.
func ToBatchResponse(r model.BatchResult) (*structpb.Struct, error) {
	items := make([]any, len(r.Items))
	for i, it := range r.Items {
		items[i] = map[string]any{"id": float64(it.ID), "outcome": it.Outcome.String()}
	}
	return structpb.NewStruct(map[string]any{
		"op":       r.Op.String(),
		"items":    items,
		"applied":  ids(r.Applied),
		"pruned":   ids(r.Pruned),
		"messages": strs(r.Messages),
	})
}

var outcomes = map[string]model.Outcome{
	model.Applied.String():            model.Applied,
	model.PrunedKept.String():         model.PrunedKept,
	model.PrunedUnauthorized.String(): model.PrunedUnauthorized,
}

var ops = map[string]model.BatchOp{
	model.OpDelete.String():     model.OpDelete,
	model.OpToggleKeep.String(): model.OpToggleKeep,
}

// FromBatchResponse parses a completed batch.
func FromBatchResponse(s *structpb.Struct) (model.BatchResult, error) {
	var (
		r   model.BatchResult
		err error
	)
	r.Op = ops[String(s, "op")]
	if r.Applied, err = Int64List(s, "applied"); err != nil {
		return r, err
	}
	if r.Pruned, err = Int64List(s, "pruned"); err != nil {
		return r, err
	}
	for i, e := range s.GetFields()["items"].GetListValue().GetValues() {
		it := e.GetStructValue()
		id, err := Int64(it, "id")
		if err != nil {
			return r, fmt.Errorf("items[%d]: %w", i, err)
		}
		o, ok := outcomes[String(it, "outcome")]
		if !ok {
			return r, fmt.Errorf("items[%d]: unknown outcome %q", i, String(it, "outcome"))
		}
		r.Items = append(r.Items, model.ItemResult{ID: id, Outcome: o})
	}
	for _, m := range s.GetFields()["messages"].GetListValue().GetValues() {
		r.Messages = append(r.Messages, m.GetStringValue())
	}
	return r, nil
}

// --- CurrentHash ---

// ToHashRequest builds a CurrentHash request.
func ToHashRequest(typeAlias string, typeID, itemID int64) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		FieldTypeAlias: typeAlias,
		FieldTypeID:    float64(typeID),
		FieldItemID:    float64(itemID),
	})
}

// ToHashResponse renders a fingerprint lookup.
func ToHashResponse(hash string, found bool) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{FieldHash: hash, FieldFound: found})
}
