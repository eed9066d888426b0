// Package memory provides an in-memory catalog store for tests and for
// CLI runs against YAML-seeded fixture catalogs. Commits apply under a
// single lock: all mutations land or none do.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/openshelf/openshelf/pkg/errors"
	"github.com/openshelf/openshelf/pkg/record"
	"github.com/openshelf/openshelf/pkg/store"
)

// Option is a function that configures a memory store.
type Option func(*config) error

// WithReadOnly configures the store to reject commits.
func WithReadOnly(readOnly bool) Option {
	return func(cfg *config) error {
		cfg.readOnly = readOnly
		return nil
	}
}

// WithSnapshot preloads the store from YAML snapshot data.
func WithSnapshot(data []byte) Option {
	return func(cfg *config) error {
		if len(data) == 0 {
			return errors.NewValidationError("snapshot", nil, "cannot be empty")
		}
		cfg.snapshot = data
		return nil
	}
}

type config struct {
	readOnly bool
	snapshot []byte
}

// commitEntry is one line of the store's audit trail.
type commitEntry struct {
	ID        string
	Message   string
	Mutations int
	Time      time.Time
}

// memoryStore is the map-backed Store implementation.
type memoryStore struct {
	mu sync.RWMutex

	editions  map[store.Identifier]*store.Edition
	works     map[store.Identifier]*store.Work
	authors   map[store.Identifier]*store.Author
	redirects map[store.Identifier]store.Identifier

	counters map[store.Kind]int
	log      []commitEntry
	readOnly bool
}

// New creates an in-memory catalog store.
func New(opts ...Option) (store.Store, error) {
	cfg := &config{}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("applying memory option: %w", err)
		}
	}

	s := &memoryStore{
		editions:  make(map[store.Identifier]*store.Edition),
		works:     make(map[store.Identifier]*store.Work),
		authors:   make(map[store.Identifier]*store.Author),
		redirects: make(map[store.Identifier]store.Identifier),
		counters:  make(map[store.Kind]int),
		readOnly:  cfg.readOnly,
	}

	if len(cfg.snapshot) > 0 {
		if err := s.loadSnapshot(cfg.snapshot); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Lookup implements store.Store. Matching scans the relevant entity map;
// results are sorted for deterministic iteration.
func (s *memoryStore) Lookup(_ context.Context, q store.Query) ([]store.Identifier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []store.Identifier
	switch q.Kind {
	case store.KindEdition:
		for id, e := range s.editions {
			if editionMatches(e, q.Fields) {
				ids = append(ids, id)
			}
		}
	case store.KindWork:
		for id, w := range s.works {
			if workMatches(w, q.Fields) {
				ids = append(ids, id)
			}
		}
	case store.KindAuthor:
		for id, a := range s.authors {
			if authorMatches(a, q.Fields) {
				ids = append(ids, id)
			}
		}
	default:
		return nil, errors.NewValidationError("kind", string(q.Kind), "unknown entity kind")
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func editionMatches(e *store.Edition, fields map[string]string) bool {
	if len(fields) == 0 {
		return false
	}
	for field, want := range fields {
		switch field {
		case store.FieldTitleKey:
			if e.TitleKey != want {
				return false
			}
		case store.FieldTitle:
			if e.Title != want {
				return false
			}
		case store.FieldISBN:
			if !e.HasIdentifier(record.ISBN10, want) && !e.HasIdentifier(record.ISBN13, want) {
				return false
			}
		case store.FieldLCCN:
			if !e.HasIdentifier(record.LCCN, want) {
				return false
			}
		case store.FieldOCLC:
			if !e.HasIdentifier(record.OCLC, want) {
				return false
			}
		case store.FieldOCAID:
			if !e.HasIdentifier(record.OCAID, want) {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func workMatches(w *store.Work, fields map[string]string) bool {
	if len(fields) == 0 {
		return false
	}
	for field, want := range fields {
		switch field {
		case store.FieldTitleKey:
			if w.TitleKey() != want {
				return false
			}
		case store.FieldAuthor:
			if !w.HasAuthor(store.Identifier(want)) {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func authorMatches(a *store.Author, fields map[string]string) bool {
	if len(fields) == 0 {
		return false
	}
	for field, want := range fields {
		switch field {
		case store.FieldNameKey:
			if a.NameKey() != want {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// Get implements store.Store.
func (s *memoryStore) Get(_ context.Context, id store.Identifier) (*store.Thing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if target, ok := s.redirects[id]; ok {
		return &store.Thing{Redirect: target}, nil
	}
	if e, ok := s.editions[id]; ok {
		cp := *e
		return &store.Thing{Entity: &cp}, nil
	}
	if w, ok := s.works[id]; ok {
		cp := *w
		return &store.Thing{Entity: &cp}, nil
	}
	if a, ok := s.authors[id]; ok {
		cp := *a
		return &store.Thing{Entity: &cp}, nil
	}
	return nil, errors.NewNotFoundError("thing", string(id))
}

// Commit implements store.Store. Mutations are validated first and then
// applied under one lock; a validation failure rejects the whole batch.
func (s *memoryStore) Commit(_ context.Context, mutations []store.Mutation, message string) error {
	if s.readOnly {
		return errors.NewCommitError(len(mutations), errors.ErrReadOnly)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()

	// Validation pass: nothing is applied until every mutation is legal.
	for _, m := range mutations {
		if m.Entity == nil {
			return errors.NewCommitError(len(mutations), fmt.Errorf("mutation without entity"))
		}
		key := m.Entity.EntityKey()
		if key == "" {
			return errors.NewCommitError(len(mutations), fmt.Errorf("entity without key"))
		}
		exists := s.exists(key)
		switch m.Op {
		case store.OpCreate:
			if exists {
				return errors.NewCommitError(len(mutations),
					fmt.Errorf("create of existing entity %s", key))
			}
		case store.OpUpdate:
			if !exists {
				return errors.NewCommitError(len(mutations),
					fmt.Errorf("update of missing entity %s", key))
			}
		default:
			return errors.NewCommitError(len(mutations),
				fmt.Errorf("unknown op %q", m.Op))
		}
	}

	for _, m := range mutations {
		s.apply(m, now)
	}

	s.log = append(s.log, commitEntry{
		ID:        uuid.NewString(),
		Message:   message,
		Mutations: len(mutations),
		Time:      now,
	})
	return nil
}

func (s *memoryStore) exists(id store.Identifier) bool {
	if _, ok := s.editions[id]; ok {
		return true
	}
	if _, ok := s.works[id]; ok {
		return true
	}
	if _, ok := s.authors[id]; ok {
		return true
	}
	_, ok := s.redirects[id]
	return ok
}

func (s *memoryStore) apply(m store.Mutation, now time.Time) {
	switch e := m.Entity.(type) {
	case *store.Edition:
		cp := *e
		if m.Op == store.OpCreate {
			cp.CreatedAt = now
		} else if prev, ok := s.editions[cp.Key]; ok {
			cp.CreatedAt = prev.CreatedAt
		}
		cp.UpdatedAt = now
		if cp.TitleKey == "" {
			cp.TitleKey = record.NormalizeTitle(cp.Title)
		}
		s.editions[cp.Key] = &cp
	case *store.Work:
		cp := *e
		if m.Op == store.OpCreate {
			cp.CreatedAt = now
		} else if prev, ok := s.works[cp.Key]; ok {
			cp.CreatedAt = prev.CreatedAt
		}
		cp.UpdatedAt = now
		s.works[cp.Key] = &cp
	case *store.Author:
		cp := *e
		if m.Op == store.OpCreate {
			cp.CreatedAt = now
		} else if prev, ok := s.authors[cp.Key]; ok {
			cp.CreatedAt = prev.CreatedAt
		}
		cp.UpdatedAt = now
		s.authors[cp.Key] = &cp
	}
}

// NewIdentifier implements store.Store with OL-style sequential keys.
func (s *memoryStore) NewIdentifier(_ context.Context, kind store.Kind) (store.Identifier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counters[kind]++
	n := s.counters[kind]
	switch kind {
	case store.KindEdition:
		return store.Identifier(fmt.Sprintf("/books/OS%dM", n)), nil
	case store.KindWork:
		return store.Identifier(fmt.Sprintf("/works/OS%dW", n)), nil
	case store.KindAuthor:
		return store.Identifier(fmt.Sprintf("/authors/OS%dA", n)), nil
	default:
		return "", errors.NewValidationError("kind", string(kind), "unknown entity kind")
	}
}

// AddRedirect records that from now points at to. Intended for fixture
// construction in tests.
func AddRedirect(s store.Store, from, to store.Identifier) error {
	ms, ok := s.(*memoryStore)
	if !ok {
		return errors.NewValidationError("store", nil, "not a memory store")
	}
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.redirects[from] = to
	return nil
}
