// Package registry provides a static content type registry loaded from YAML,
// for deployments where content types are not kept in the database.
package registry

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/and161185/content-history/internal/errs"
	"github.com/and161185/content-history/internal/model"
)

type fileType struct {
	ID        int64                `yaml:"id"`
	Title     string               `yaml:"title"`
	Alias     string               `yaml:"alias"`
	Table     string               `yaml:"table"`
	KeyColumn string               `yaml:"key_column"`
	Options   model.HistoryOptions `yaml:"history_options"`
}

type fileDoc struct {
	Types []fileType `yaml:"types"`
}

// Static is an immutable in-memory registry.
type Static struct {
	byID    map[int64]model.ContentType
	byAlias map[string]model.ContentType
}

// New builds a registry from descriptors. Ids and aliases must be unique.
func New(types []model.ContentType) (*Static, error) {
	s := &Static{
		byID:    make(map[int64]model.ContentType, len(types)),
		byAlias: make(map[string]model.ContentType, len(types)),
	}
	for _, t := range types {
		if t.ID <= 0 {
			return nil, fmt.Errorf("content type %q: id must be positive", t.Alias)
		}
		if !strings.Contains(t.Alias, ".") {
			return nil, fmt.Errorf("content type %d: alias %q is not component.subtype", t.ID, t.Alias)
		}
		if _, dup := s.byID[t.ID]; dup {
			return nil, fmt.Errorf("content type %d: duplicate id", t.ID)
		}
		if _, dup := s.byAlias[t.Alias]; dup {
			return nil, fmt.Errorf("content type %q: duplicate alias", t.Alias)
		}
		if t.KeyColumn == "" {
			t.KeyColumn = "id"
		}
		s.byID[t.ID] = t
		s.byAlias[t.Alias] = t
	}
	return s, nil
}

// Parse reads a YAML document of the form `types: [...]`.
func Parse(b []byte) (*Static, error) {
	var doc fileDoc
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("parse content types: %w", err)
	}
	types := make([]model.ContentType, 0, len(doc.Types))
	for _, ft := range doc.Types {
		types = append(types, model.ContentType{
			ID:        ft.ID,
			Title:     ft.Title,
			Alias:     ft.Alias,
			Table:     ft.Table,
			KeyColumn: ft.KeyColumn,
			Options:   ft.Options,
		})
	}
	return New(types)
}

// Load reads and parses a registry file.
func Load(path string) (*Static, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read content types: %w", err)
	}
	return Parse(b)
}

// ByID returns the type with the given id.
func (s *Static) ByID(_ context.Context, id int64) (*model.ContentType, error) {
	t, ok := s.byID[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return &t, nil
}

// ByAlias returns the type with the given alias.
func (s *Static) ByAlias(_ context.Context, alias string) (*model.ContentType, error) {
	t, ok := s.byAlias[alias]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return &t, nil
}
