// Package pool builds the candidate pool for an incoming record: the
// set of existing editions that share any strong identifier or a title
// form with it, grouped by the dimension that produced them.
package pool

import (
	"context"
	"sort"

	"github.com/openshelf/openshelf/pkg/errors"
	"github.com/openshelf/openshelf/pkg/logging"
	"github.com/openshelf/openshelf/pkg/record"
	"github.com/openshelf/openshelf/pkg/store"
)

// Dimension names the lookup axis that produced a pool entry.
type Dimension string

const (
	DimensionTitle Dimension = "title"
	DimensionISBN  Dimension = "isbn"
	DimensionOCLC  Dimension = "oclc"
	DimensionLCCN  Dimension = "lccn"
	DimensionOCAID Dimension = "ocaid"
)

// Pool maps each dimension to the edition identifiers it matched.
type Pool map[Dimension][]store.Identifier

// Empty reports whether no dimension matched anything.
func (p Pool) Empty() bool {
	for _, ids := range p {
		if len(ids) > 0 {
			return false
		}
	}
	return true
}

// Dimensions returns the populated dimensions in sorted order.
func (p Pool) Dimensions() []Dimension {
	dims := make([]Dimension, 0, len(p))
	for d, ids := range p {
		if len(ids) > 0 {
			dims = append(dims, d)
		}
	}
	sort.Slice(dims, func(i, j int) bool { return dims[i] < dims[j] })
	return dims
}

// Candidates returns every pooled identifier exactly once, iterating
// dimensions in sorted order so repeated builds see the same sequence.
func (p Pool) Candidates() []store.Identifier {
	seen := make(map[store.Identifier]bool)
	var out []store.Identifier
	for _, d := range p.Dimensions() {
		for _, id := range p[d] {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	return out
}

// Build queries the store along every dimension the record populates.
// A record with no usable fields yields an empty pool, not an error.
func Build(ctx context.Context, s store.Store, rec *record.ImportRecord) (Pool, error) {
	log := logging.FromContext(ctx)
	p := make(Pool)

	if rec.Title != "" {
		ids, err := titleCandidates(ctx, s, rec)
		if err != nil {
			return nil, err
		}
		if len(ids) > 0 {
			p[DimensionTitle] = ids
		}
	}

	dims := []struct {
		dim    Dimension
		field  string
		values []string
	}{
		{DimensionISBN, store.FieldISBN, rec.ISBNs()},
		{DimensionLCCN, store.FieldLCCN, rec.Identifiers[record.LCCN]},
		{DimensionOCLC, store.FieldOCLC, rec.Identifiers[record.OCLC]},
		{DimensionOCAID, store.FieldOCAID, rec.Identifiers[record.OCAID]},
	}
	for _, d := range dims {
		ids, err := identifierCandidates(ctx, s, d.field, d.values)
		if err != nil {
			return nil, err
		}
		if len(ids) > 0 {
			p[d.dim] = ids
		}
	}

	log.Debug().
		Int("dimensions", len(p)).
		Int("candidates", len(p.Candidates())).
		Msg("candidate pool built")
	return p, nil
}

// titleCandidates unions the title-key lookup with a literal-title
// lookup. Key truncation makes the key form the broader of the two; the
// literal form catches stored editions whose key was never backfilled.
func titleCandidates(ctx context.Context, s store.Store, rec *record.ImportRecord) ([]store.Identifier, error) {
	byKey, err := s.Lookup(ctx, store.Query{
		Kind:   store.KindEdition,
		Fields: map[string]string{store.FieldTitleKey: rec.TitleKey()},
	})
	if err != nil {
		return nil, errors.WrapStore("lookup", "edition", err)
	}
	byTitle, err := s.Lookup(ctx, store.Query{
		Kind:   store.KindEdition,
		Fields: map[string]string{store.FieldTitle: rec.Title},
	})
	if err != nil {
		return nil, errors.WrapStore("lookup", "edition", err)
	}
	return dedup(append(byKey, byTitle...)), nil
}

// identifierCandidates unions the lookups for each value of one
// identifier type.
func identifierCandidates(ctx context.Context, s store.Store, field string, values []string) ([]store.Identifier, error) {
	var all []store.Identifier
	for _, v := range values {
		ids, err := s.Lookup(ctx, store.Query{
			Kind:   store.KindEdition,
			Fields: map[string]string{field: v},
		})
		if err != nil {
			return nil, errors.WrapStore("lookup", "edition", err)
		}
		all = append(all, ids...)
	}
	return dedup(all), nil
}

// dedup removes repeats while preserving first-seen order.
func dedup(ids []store.Identifier) []store.Identifier {
	seen := make(map[store.Identifier]bool, len(ids))
	var out []store.Identifier
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
