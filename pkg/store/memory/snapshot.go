package memory

import (
	"fmt"
	"sort"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/openshelf/openshelf/pkg/store"
)

// snapshot is the YAML shape of a serialized catalog. Counters are
// rebuilt from the highest key seen per kind so NewIdentifier never
// collides with loaded entities.
type snapshot struct {
	Editions  []*store.Edition            `yaml:"editions,omitempty"`
	Works     []*store.Work               `yaml:"works,omitempty"`
	Authors   []*store.Author             `yaml:"authors,omitempty"`
	Redirects map[string]store.Identifier `yaml:"redirects,omitempty"`
}

func (s *memoryStore) loadSnapshot(data []byte) error {
	var snap snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("parsing catalog snapshot: %w", err)
	}

	for _, e := range snap.Editions {
		s.editions[e.Key] = e
		s.bumpCounter(store.KindEdition, e.Key)
	}
	for _, w := range snap.Works {
		s.works[w.Key] = w
		s.bumpCounter(store.KindWork, w.Key)
	}
	for _, a := range snap.Authors {
		s.authors[a.Key] = a
		s.bumpCounter(store.KindAuthor, a.Key)
	}
	for from, to := range snap.Redirects {
		s.redirects[store.Identifier(from)] = to
	}
	return nil
}

// Snapshot serializes the store's contents to YAML. Entities are sorted
// by key so snapshots diff cleanly.
func Snapshot(st store.Store) ([]byte, error) {
	s, ok := st.(*memoryStore)
	if !ok {
		return nil, fmt.Errorf("snapshot requires a memory store")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var snap snapshot
	for _, e := range s.editions {
		snap.Editions = append(snap.Editions, e)
	}
	for _, w := range s.works {
		snap.Works = append(snap.Works, w)
	}
	for _, a := range s.authors {
		snap.Authors = append(snap.Authors, a)
	}
	sortEntities(snap.Editions, func(e *store.Edition) store.Identifier { return e.Key })
	sortEntities(snap.Works, func(w *store.Work) store.Identifier { return w.Key })
	sortEntities(snap.Authors, func(a *store.Author) store.Identifier { return a.Key })
	if len(s.redirects) > 0 {
		snap.Redirects = make(map[string]store.Identifier, len(s.redirects))
		for from, to := range s.redirects {
			snap.Redirects[string(from)] = to
		}
	}
	return yaml.Marshal(&snap)
}

func sortEntities[T any](items []T, key func(T) store.Identifier) {
	sort.Slice(items, func(i, j int) bool { return key(items[i]) < key(items[j]) })
}

// bumpCounter advances the kind counter past the numeric part of id so
// identifiers minted after a snapshot load stay unique.
func (s *memoryStore) bumpCounter(kind store.Kind, id store.Identifier) {
	raw := string(id)
	idx := strings.LastIndex(raw, "OS")
	if idx < 0 {
		return
	}
	n := 0
	for _, r := range raw[idx+2:] {
		if r < '0' || r > '9' {
			break
		}
		n = n*10 + int(r-'0')
	}
	if n > s.counters[kind] {
		s.counters[kind] = n
	}
}
