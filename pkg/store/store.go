package store

import (
	"context"

	"github.com/openshelf/openshelf/pkg/errors"
)

// Query field names understood by store backends. Each backend indexes
// these dimensions; unknown fields yield no matches rather than errors.
const (
	// FieldTitleKey matches editions/works by normalized title key.
	FieldTitleKey = "title_key"
	// FieldTitle matches editions by literal stored title. Covers records
	// indexed before title normalization existed.
	FieldTitle = "title"
	// FieldISBN matches editions carrying the ISBN in either form.
	FieldISBN = "isbn"
	// FieldLCCN matches editions by Library of Congress control number.
	FieldLCCN = "lccn"
	// FieldOCLC matches editions by OCLC number.
	FieldOCLC = "oclc"
	// FieldOCAID matches editions by digitized-item identifier.
	FieldOCAID = "ocaid"
	// FieldAuthor matches works whose author list carries the identifier.
	FieldAuthor = "author"
	// FieldNameKey matches authors by normalized name key.
	FieldNameKey = "name_key"
)

// Query describes one indexed lookup against the store.
type Query struct {
	Kind   Kind
	Fields map[string]string
}

// Op is a mutation operation.
type Op string

// Mutation operations.
const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
)

// Mutation is one entity write within a commit.
type Mutation struct {
	Op     Op
	Entity Entity
}

// Create returns a create mutation for the entity.
func Create(e Entity) Mutation {
	return Mutation{Op: OpCreate, Entity: e}
}

// Update returns an update mutation for the entity.
func Update(e Entity) Mutation {
	return Mutation{Op: OpUpdate, Entity: e}
}

// Store is the abstract catalog store the import pipeline consumes. It is
// always passed in explicitly; nothing in this module reaches for ambient
// global state. Implementations own their transport, query engine, and
// timeout/retry policy.
type Store interface {
	// Lookup returns the identifiers of entities matching the query, in
	// deterministic order. An empty result is not an error.
	Lookup(ctx context.Context, q Query) ([]Identifier, error)

	// Get returns the thing stored under the identifier: an active entity
	// or a redirect. Missing identifiers return a NotFoundError.
	Get(ctx context.Context, id Identifier) (*Thing, error)

	// Commit applies all mutations atomically, or none of them. The
	// message describes the batch for the store's audit trail.
	Commit(ctx context.Context, mutations []Mutation, message string) error

	// NewIdentifier allocates a fresh identifier of the given kind.
	// Allocation is externally serialized; identifiers are unique per call.
	NewIdentifier(ctx context.Context, kind Kind) (Identifier, error)
}

// MaxRedirectHops bounds redirect chains during resolution.
const MaxRedirectHops = 10

// Resolve follows redirects from id to the final active entity. Mutations
// must always target the entity Resolve returns, never an identifier that
// may still redirect.
func Resolve(ctx context.Context, s Store, id Identifier) (Identifier, *Thing, error) {
	current := id
	for hop := 0; hop < MaxRedirectHops; hop++ {
		thing, err := s.Get(ctx, current)
		if err != nil {
			return "", nil, err
		}
		if !thing.IsRedirect() {
			return current, thing, nil
		}
		current = thing.Redirect
	}
	return "", nil, errors.ErrRedirectLoop
}
