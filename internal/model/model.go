// Package model defines domain entities used by services and repositories.
package model

import (
	"strconv"
	"strings"
	"time"
)

// HistoryOptions controls which live fields take part in change detection.
type HistoryOptions struct {
	IgnoreChanges []string `json:"ignoreChanges" yaml:"ignore_changes"`
	ConvertToInt  []string `json:"convertToInt" yaml:"convert_to_int"`
}

// ContentType describes a versioned content type. Read-only for this service.
type ContentType struct {
	ID        int64          // PK of content_types
	Title     string         // human readable
	Alias     string         // component.subtype, e.g. com_content.article
	Table     string         // live content table
	KeyColumn string         // PK column of the live table
	Options   HistoryOptions // fingerprint projection rules
}

// Component returns the part of the alias before the first dot.
func (c ContentType) Component() string {
	comp, _, _ := strings.Cut(c.Alias, ".")
	return comp
}

// AssetName builds the authorization resource key for an item of this type.
func (c ContentType) AssetName(itemID int64) string {
	return c.Alias + "." + strconv.FormatInt(itemID, 10)
}

// Version is one stored snapshot plus its mutable keep-forever flag.
type Version struct {
	ID             int64
	ItemID         int64
	TypeID         int64
	Note           string
	SaveDate       time.Time
	EditorUserID   int64
	Editor         string // joined users.name, empty when the user is gone
	CharacterCount int64
	SHA1Hash       string
	Data           []byte // opaque snapshot, never parsed here
	KeepForever    bool
	Current        bool // SHA1Hash equals the live item's fingerprint (listing only)
}

// Actor is the authenticated caller.
type Actor struct {
	UserID    int64
	SessionID string
}

// Order direction for listings.
const (
	OrderAsc  = "ASC"
	OrderDesc = "DESC"
)

// ListQuery selects versions of one content item.
type ListQuery struct {
	ItemID    int64
	TypeID    int64
	OrderBy   string // one of the whitelisted columns; empty means save date
	Direction string // ASC or DESC; empty means DESC
}

// Sortable listing columns, keyed by the accepted spellings.
var orderColumns = map[string]string{
	"version_id":       "h.version_id",
	"h.version_id":     "h.version_id",
	"version_note":     "h.version_note",
	"h.version_note":   "h.version_note",
	"save_date":        "h.save_date",
	"h.save_date":      "h.save_date",
	"editor_user_id":   "h.editor_user_id",
	"h.editor_user_id": "h.editor_user_id",
}

// DefaultOrderColumn sorts listings by save date.
const DefaultOrderColumn = "h.save_date"

// Normalized returns q with OrderBy mapped to a whitelisted column and
// Direction to ASC or DESC. Anything unrecognised falls back to save date DESC.
func (q ListQuery) Normalized() ListQuery {
	col, ok := orderColumns[strings.ToLower(strings.TrimSpace(q.OrderBy))]
	if !ok {
		col = DefaultOrderColumn
	}
	dir := strings.ToUpper(strings.TrimSpace(q.Direction))
	if dir != OrderAsc {
		dir = OrderDesc
	}
	q.OrderBy, q.Direction = col, dir
	return q
}

// OrderClause renders the normalised ORDER BY term.
func (q ListQuery) OrderClause() string {
	n := q.Normalized()
	return n.OrderBy + " " + n.Direction
}

// History is a listing prepared for display.
type History struct {
	Versions    []Version
	CurrentHash string // empty when the live item is missing
}

// BatchOp enumerates the bulk operations.
type BatchOp int

const (
	OpDelete BatchOp = iota + 1
	OpToggleKeep
)

func (o BatchOp) String() string {
	switch o {
	case OpDelete:
		return "delete"
	case OpToggleKeep:
		return "keep"
	default:
		return "unknown"
	}
}

// Outcome is the per-item result of a batch operation.
type Outcome int

const (
	Applied Outcome = iota + 1
	PrunedKept
	PrunedUnauthorized
)

func (o Outcome) String() string {
	switch o {
	case Applied:
		return "applied"
	case PrunedKept:
		return "pruned_kept"
	case PrunedUnauthorized:
		return "pruned_unauthorized"
	default:
		return "unknown"
	}
}

// ItemResult pairs a key with its outcome.
type ItemResult struct {
	ID      int64
	Outcome Outcome
}

// BatchResult summarises a batch that ran to completion.
type BatchResult struct {
	Op       BatchOp
	Items    []ItemResult // input order
	Applied  []int64
	Pruned   []int64
	Messages []string // diagnostics the log sink could not take
}

// Tokens are issued to an actor for calling the API.
type Tokens struct {
	AccessToken string
	SessionID   string
	ExpiresAt   time.Time
}
