// Package record defines the normalized import record consumed by the
// matching pipeline, and the normalizer that builds one from a parsed
// MARC field tree.
package record

import (
	"strings"
)

// IdentifierType names one dimension of external identifier an edition
// can carry.
type IdentifierType string

// Identifier types recognized by the pipeline.
const (
	ISBN10 IdentifierType = "isbn_10"
	ISBN13 IdentifierType = "isbn_13"
	LCCN   IdentifierType = "lccn"
	OCLC   IdentifierType = "oclc"
	OCAID  IdentifierType = "ocaid" // digitized-item identifier
)

// IdentifierTypes lists every identifier type in deterministic order.
var IdentifierTypes = []IdentifierType{ISBN10, ISBN13, LCCN, OCLC, OCAID}

// Author is an author stub extracted from a record: a display name plus
// optional life dates and role.
type Author struct {
	Name       string `json:"name" yaml:"name"`
	BirthDate  string `json:"birth_date,omitempty" yaml:"birth_date,omitempty"`
	DeathDate  string `json:"death_date,omitempty" yaml:"death_date,omitempty"`
	Date       string `json:"date,omitempty" yaml:"date,omitempty"` // single uncategorized date
	Role       string `json:"role,omitempty" yaml:"role,omitempty"`
	EntityType string `json:"entity_type,omitempty" yaml:"entity_type,omitempty"` // person, org, event
}

// CompareName returns the name used to disambiguate identically named
// authors: the display name with a life-date suffix appended when any
// date is present.
func (a Author) CompareName() string {
	dates := a.lifeDates()
	if dates == "" {
		return a.Name
	}
	return a.Name + " " + dates
}

func (a Author) lifeDates() string {
	switch {
	case a.BirthDate != "" || a.DeathDate != "":
		return a.BirthDate + "-" + a.DeathDate
	case a.Date != "":
		return a.Date
	default:
		return ""
	}
}

// ImportRecord is the canonical, language-agnostic form of one incoming
// bibliographic record. It is read-only after normalization; only the
// load orchestrator merges identifiers into it when updating an entity.
type ImportRecord struct {
	Title       string `json:"title" yaml:"title"`
	Subtitle    string `json:"subtitle,omitempty" yaml:"subtitle,omitempty"`
	ByStatement string `json:"by_statement,omitempty" yaml:"by_statement,omitempty"`

	Authors []Author `json:"authors,omitempty" yaml:"authors,omitempty"`

	Identifiers map[IdentifierType][]string `json:"identifiers,omitempty" yaml:"identifiers,omitempty"`

	Subjects  []string `json:"subjects,omitempty" yaml:"subjects,omitempty"`
	Languages []string `json:"languages,omitempty" yaml:"languages,omitempty"`

	Publishers    []string `json:"publishers,omitempty" yaml:"publishers,omitempty"`
	PublishPlaces []string `json:"publish_places,omitempty" yaml:"publish_places,omitempty"`
	PublishDate   string   `json:"publish_date,omitempty" yaml:"publish_date,omitempty"`

	Pagination    string `json:"pagination,omitempty" yaml:"pagination,omitempty"`
	NumberOfPages int    `json:"number_of_pages,omitempty" yaml:"number_of_pages,omitempty"`

	// SourceRecords tags the provenance of this record ("marc:<controlno>").
	SourceRecords []string `json:"source_records,omitempty" yaml:"source_records,omitempty"`
}

// Identifier returns the first identifier of the given type, if any.
func (r *ImportRecord) Identifier(t IdentifierType) (string, bool) {
	vals := r.Identifiers[t]
	if len(vals) == 0 {
		return "", false
	}
	return vals[0], true
}

// AddIdentifier appends an identifier value, skipping duplicates.
func (r *ImportRecord) AddIdentifier(t IdentifierType, value string) {
	if value == "" {
		return
	}
	if r.Identifiers == nil {
		r.Identifiers = make(map[IdentifierType][]string)
	}
	for _, v := range r.Identifiers[t] {
		if v == value {
			return
		}
	}
	r.Identifiers[t] = append(r.Identifiers[t], value)
}

// HasIdentifiers reports whether any identifier of any type is present.
func (r *ImportRecord) HasIdentifiers() bool {
	for _, vals := range r.Identifiers {
		if len(vals) > 0 {
			return true
		}
	}
	return false
}

// FullTitle returns the denormalized "title: subtitle" comparison form
// used by the fuzzy matcher.
func (r *ImportRecord) FullTitle() string {
	if r.Subtitle == "" {
		return r.Title
	}
	return r.Title + ": " + r.Subtitle
}

// TitleKey returns the comparison key for this record's title.
func (r *ImportRecord) TitleKey() string {
	return NormalizeTitle(r.Title)
}

// ISBNs returns every ISBN on the record, in both 10- and 13-digit forms
// where convertible, deduplicated.
func (r *ImportRecord) ISBNs() []string {
	seen := make(map[string]bool)
	var out []string
	add := func(v string) {
		if v != "" && !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	for _, v := range r.Identifiers[ISBN10] {
		add(v)
		add(ISBN10To13(v))
	}
	for _, v := range r.Identifiers[ISBN13] {
		add(v)
		add(ISBN13To10(v))
	}
	return out
}

// CompareAuthors returns the author list in comparison form: role and
// entity-type annotations stripped, only names and life dates kept.
func (r *ImportRecord) CompareAuthors() []string {
	names := make([]string, 0, len(r.Authors))
	for _, a := range r.Authors {
		names = append(names, a.CompareName())
	}
	return names
}

// trimFieldPunct removes the ISBD separators MARC catalogers append to
// subfield values (" /", " :", " ;", trailing commas).
func trimFieldPunct(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimRight(s, "/:;,")
	return strings.TrimSpace(s)
}
