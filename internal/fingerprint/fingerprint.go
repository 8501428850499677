// Package fingerprint derives the content hash used to detect unchanged saves.
package fingerprint

import (
	"context"
	"crypto/sha1" //nolint:gosec // stored hashes are SHA-1; not used for security
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/and161185/content-history/internal/errs"
	"github.com/and161185/content-history/internal/model"
	"github.com/and161185/content-history/internal/repository"
)

// DefaultIgnoreChanges lists columns that change on every save without
// changing the content itself.
var DefaultIgnoreChanges = []string{
	"modified",
	"modified_by",
	"checked_out",
	"checked_out_time",
	"version",
	"hits",
}

const (
	dateLayout = "2006-01-02 15:04:05"
	nullDate   = "0000-00-00 00:00:00"
)

// Engine computes fingerprints of live content items.
type Engine struct {
	items repository.ItemRepository
}

// NewEngine constructs an Engine reading live rows from items.
func NewEngine(items repository.ItemRepository) *Engine {
	return &Engine{items: items}
}

// Compute loads the live item and returns its fingerprint.
// ok is false when the item does not exist; callers treat that as
// "cannot tell" rather than as a failure.
func (e *Engine) Compute(ctx context.Context, ct model.ContentType, itemID int64) (hash string, ok bool, err error) {
	row, err := e.items.Load(ctx, ct, itemID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	hash, err = Sum(ct.Options, row)
	if err != nil {
		return "", false, fmt.Errorf("fingerprint %s: %w", ct.AssetName(itemID), err)
	}
	return hash, true, nil
}

// Sum hashes the projection of fields selected by opts.
func Sum(opts model.HistoryOptions, fields map[string]any) (string, error) {
	b, err := Canonical(opts, fields)
	if err != nil {
		return "", err
	}
	sum := sha1.Sum(b) //nolint:gosec
	return hex.EncodeToString(sum[:]), nil
}

// Canonical returns the deterministic serialization that Sum hashes.
func Canonical(opts model.HistoryOptions, fields map[string]any) ([]byte, error) {
	return json.Marshal(Project(opts, fields))
}

// Project drops ignored columns and normalises the remaining values so that
// equal content yields equal output regardless of driver types. Strings are
// kept verbatim; only ConvertToInt columns are coerced to integers.
func Project(opts model.HistoryOptions, fields map[string]any) map[string]any {
	ignore := opts.IgnoreChanges
	if len(ignore) == 0 {
		ignore = DefaultIgnoreChanges
	}

	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if slices.Contains(ignore, k) {
			continue
		}
		if slices.Contains(opts.ConvertToInt, k) {
			out[k] = toInt(v)
			continue
		}
		out[k] = normalise(v)
	}
	return out
}

func normalise(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case string:
		if x == nullDate {
			return nil
		}
		return x
	case []byte:
		return normalise(string(x))
	case time.Time:
		if x.IsZero() {
			return nil
		}
		return x.UTC().Format(dateLayout)
	case *time.Time:
		if x == nil {
			return nil
		}
		return normalise(*x)
	case bool:
		if x {
			return int64(1)
		}
		return int64(0)
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case float32:
		return normaliseFloat(float64(x))
	case float64:
		return normaliseFloat(x)
	case map[string]any:
		m := make(map[string]any, len(x))
		for k, vv := range x {
			m[k] = normalise(vv)
		}
		return m
	case []any:
		s := make([]any, len(x))
		for i, vv := range x {
			s[i] = normalise(vv)
		}
		return s
	case fmt.Stringer:
		return normalise(x.String())
	default:
		return x
	}
}

func normaliseFloat(f float64) any {
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return int64(f)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func toInt(v any) any {
	switch n := normalise(v).(type) {
	case int64:
		return n
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return int64(0)
		}
		return int64(f)
	case nil:
		return int64(0)
	default:
		return n
	}
}
