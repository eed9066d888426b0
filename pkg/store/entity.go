// Package store defines the abstract catalog store this core writes to:
// editions, works, and authors addressed by identifier, looked up by
// indexed query, and mutated through atomic multi-entity commits. The
// matching pipeline depends only on the Store interface; concrete
// backends live in the memory and postgres subpackages.
package store

import (
	"time"

	"github.com/openshelf/openshelf/pkg/record"
)

// Kind names one of the three entity kinds the catalog holds.
type Kind string

// Entity kinds.
const (
	KindEdition Kind = "edition"
	KindWork    Kind = "work"
	KindAuthor  Kind = "author"
)

// Identifier is a kind-prefixed catalog key, e.g. "/books/OS1M".
type Identifier string

// String returns the string form of the identifier.
func (id Identifier) String() string {
	return string(id)
}

// Entity is implemented by every catalog entity.
type Entity interface {
	EntityKind() Kind
	EntityKey() Identifier
}

// Author is a catalog author record.
type Author struct {
	Key        Identifier `json:"key" yaml:"key"`
	Name       string     `json:"name" yaml:"name"`
	BirthDate  string     `json:"birth_date,omitempty" yaml:"birth_date,omitempty"`
	DeathDate  string     `json:"death_date,omitempty" yaml:"death_date,omitempty"`
	Date       string     `json:"date,omitempty" yaml:"date,omitempty"`
	EntityType string     `json:"entity_type,omitempty" yaml:"entity_type,omitempty"`

	CreatedAt time.Time `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

// EntityKind implements Entity
func (a *Author) EntityKind() Kind { return KindAuthor }

// EntityKey implements Entity
func (a *Author) EntityKey() Identifier { return a.Key }

// NameKey returns the comparison form of the author's name.
func (a *Author) NameKey() string {
	return record.NormalizeName(a.Name)
}

// CompareName returns the display name with a life-date suffix, the same
// form record.Author.CompareName produces for incoming authors.
func (a *Author) CompareName() string {
	stub := record.Author{
		Name:      a.Name,
		BirthDate: a.BirthDate,
		DeathDate: a.DeathDate,
		Date:      a.Date,
	}
	return stub.CompareName()
}

// Work is the abstract intellectual creation shared by one or more
// editions.
type Work struct {
	Key      Identifier   `json:"key" yaml:"key"`
	Title    string       `json:"title" yaml:"title"`
	Subtitle string       `json:"subtitle,omitempty" yaml:"subtitle,omitempty"`
	Authors  []Identifier `json:"authors,omitempty" yaml:"authors,omitempty"`
	Subjects []string     `json:"subjects,omitempty" yaml:"subjects,omitempty"`

	CreatedAt time.Time `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

// EntityKind implements Entity
func (w *Work) EntityKind() Kind { return KindWork }

// EntityKey implements Entity
func (w *Work) EntityKey() Identifier { return w.Key }

// TitleKey returns the stored work title's comparison key.
func (w *Work) TitleKey() string {
	return record.NormalizeTitle(w.Title)
}

// HasAuthor reports whether the work's author list carries the identifier.
func (w *Work) HasAuthor(id Identifier) bool {
	for _, a := range w.Authors {
		if a == id {
			return true
		}
	}
	return false
}

// Edition is one published form of a work.
type Edition struct {
	Key      Identifier   `json:"key" yaml:"key"`
	Title    string       `json:"title" yaml:"title"`
	Subtitle string       `json:"subtitle,omitempty" yaml:"subtitle,omitempty"`
	TitleKey string       `json:"title_key,omitempty" yaml:"title_key,omitempty"`
	Work     Identifier   `json:"work,omitempty" yaml:"work,omitempty"`
	Authors  []Identifier `json:"authors,omitempty" yaml:"authors,omitempty"`

	Identifiers map[record.IdentifierType][]string `json:"identifiers,omitempty" yaml:"identifiers,omitempty"`

	Languages     []string `json:"languages,omitempty" yaml:"languages,omitempty"`
	Publishers    []string `json:"publishers,omitempty" yaml:"publishers,omitempty"`
	PublishPlaces []string `json:"publish_places,omitempty" yaml:"publish_places,omitempty"`
	PublishDate   string   `json:"publish_date,omitempty" yaml:"publish_date,omitempty"`
	Pagination    string   `json:"pagination,omitempty" yaml:"pagination,omitempty"`
	NumberOfPages int      `json:"number_of_pages,omitempty" yaml:"number_of_pages,omitempty"`

	SourceRecords []string `json:"source_records,omitempty" yaml:"source_records,omitempty"`

	CreatedAt time.Time `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

// EntityKind implements Entity
func (e *Edition) EntityKind() Kind { return KindEdition }

// EntityKey implements Entity
func (e *Edition) EntityKey() Identifier { return e.Key }

// Identifier returns the first stored identifier of the given type.
func (e *Edition) Identifier(t record.IdentifierType) (string, bool) {
	vals := e.Identifiers[t]
	if len(vals) == 0 {
		return "", false
	}
	return vals[0], true
}

// HasIdentifier reports whether the edition carries the identifier value.
func (e *Edition) HasIdentifier(t record.IdentifierType, value string) bool {
	for _, v := range e.Identifiers[t] {
		if v == value {
			return true
		}
	}
	return false
}

// AddIdentifier appends an identifier value, skipping duplicates.
func (e *Edition) AddIdentifier(t record.IdentifierType, value string) {
	if value == "" || e.HasIdentifier(t, value) {
		return
	}
	if e.Identifiers == nil {
		e.Identifiers = make(map[record.IdentifierType][]string)
	}
	e.Identifiers[t] = append(e.Identifiers[t], value)
}

// HasAuthor reports whether the edition's author list carries the
// identifier.
func (e *Edition) HasAuthor(id Identifier) bool {
	for _, a := range e.Authors {
		if a == id {
			return true
		}
	}
	return false
}

// Thing is the tagged result of a Get: either an active entity or a
// redirect to another identifier.
type Thing struct {
	Redirect Identifier // non-empty when the identifier points elsewhere
	Entity   Entity     // nil when Redirect is set
}

// IsRedirect reports whether the thing points elsewhere.
func (t *Thing) IsRedirect() bool {
	return t.Redirect != ""
}

// EditionOf returns the thing's entity as an edition, or nil.
func (t *Thing) EditionOf() *Edition {
	if e, ok := t.Entity.(*Edition); ok {
		return e
	}
	return nil
}

// WorkOf returns the thing's entity as a work, or nil.
func (t *Thing) WorkOf() *Work {
	if w, ok := t.Entity.(*Work); ok {
		return w
	}
	return nil
}

// AuthorOf returns the thing's entity as an author, or nil.
func (t *Thing) AuthorOf() *Author {
	if a, ok := t.Entity.(*Author); ok {
		return a
	}
	return nil
}
