// Package session tracks, per login session, the content items the user is
// currently editing. The set backs the editable-items authorization fallback.
package session

import (
	"context"
	"slices"
	"strings"
	"sync"
)

// Store reads the editable item ids of a session. The edit workflow writes
// them when an editor checks an item out.
type Store interface {
	// EditableIDs returns the ids of items of typeAlias held for editing in the session.
	EditableIDs(ctx context.Context, sessionID, typeAlias string) ([]int64, error)
}

// EditStateKey maps a type alias to its user state key:
// com_content.article -> com_content.edit.article.id.
func EditStateKey(typeAlias string) string {
	return strings.Replace(typeAlias, ".", ".edit.", 1) + ".id"
}

// Memory is an in-process Store, used for single-node deployments and tests.
type Memory struct {
	mu    sync.RWMutex
	state map[string][]int64 // sessionID + "|" + state key
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{state: map[string][]int64{}}
}

func memKey(sessionID, typeAlias string) string {
	return sessionID + "|" + EditStateKey(typeAlias)
}

// Hold records that the session is editing itemID.
func (m *Memory) Hold(sessionID, typeAlias string, itemID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := memKey(sessionID, typeAlias)
	if !slices.Contains(m.state[k], itemID) {
		m.state[k] = append(m.state[k], itemID)
	}
}

// Release forgets itemID for the session.
func (m *Memory) Release(sessionID, typeAlias string, itemID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := memKey(sessionID, typeAlias)
	m.state[k] = slices.DeleteFunc(m.state[k], func(id int64) bool { return id == itemID })
}

// EditableIDs implements Store.
func (m *Memory) EditableIDs(_ context.Context, sessionID, typeAlias string) ([]int64, error) {
	if sessionID == "" {
		return nil, nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.state[memKey(sessionID, typeAlias)]), nil
}
