// Package match decides whether an incoming record is the same book as
// a pooled candidate. The exact path compares field-by-field over the
// fields the record populates; the fuzzy path scores candidates and
// accepts only above a fixed threshold.
package match

import (
	"context"
	"strings"

	"github.com/openshelf/openshelf/pkg/errors"
	"github.com/openshelf/openshelf/pkg/logging"
	"github.com/openshelf/openshelf/pkg/pool"
	"github.com/openshelf/openshelf/pkg/record"
	"github.com/openshelf/openshelf/pkg/store"
)

// Kind classifies a match decision.
type Kind string

const (
	// KindNone means no existing entity matched: create a new edition.
	KindNone Kind = "none"
	// KindEdition means an existing edition is the same book.
	KindEdition Kind = "edition"
	// KindWork means no edition matched but an existing work is the
	// same intellectual work.
	KindWork Kind = "work"
)

// Result is the match decision for one incoming record.
type Result struct {
	Kind    Kind
	Edition store.Identifier
	Work    store.Identifier
}

// Match evaluates the pool against the record. At most one edition is
// accepted; ambiguity is reported as KindNone, never guessed.
//
// The exact path requires title agreement plus agreement on every
// comparable field the record populates; blank fields never disqualify
// a candidate. Sparse records therefore still reach their own edition
// on replay: a record carrying nothing to contradict a same-titled
// candidate is the same book, not a new one.
func Match(ctx context.Context, s store.Store, rec *record.ImportRecord, p pool.Pool) (Result, error) {
	log := logging.FromContext(ctx)

	if p.Empty() {
		if id, err := workMatch(ctx, s, rec); err != nil {
			return Result{}, err
		} else if id != "" {
			return Result{Kind: KindWork, Work: id}, nil
		}
		return Result{Kind: KindNone}, nil
	}

	candidates, err := resolveCandidates(ctx, s, p)
	if err != nil {
		return Result{}, err
	}

	for _, c := range candidates {
		ok, err := exactAgree(ctx, s, rec, c.edition)
		if err != nil {
			return Result{}, err
		}
		if ok {
			log.Debug().Str("edition", c.id.String()).Msg("exact match")
			return Result{Kind: KindEdition, Edition: c.id, Work: c.edition.Work}, nil
		}
	}

	for _, c := range candidates {
		score, err := Score(ctx, s, rec, c.edition)
		if err != nil {
			return Result{}, err
		}
		if score >= ThresholdMatch {
			log.Debug().Str("edition", c.id.String()).Int("score", score).Msg("fuzzy match")
			return Result{Kind: KindEdition, Edition: c.id, Work: c.edition.Work}, nil
		}
		if score >= ThresholdMaybe {
			log.Debug().Str("edition", c.id.String()).Int("score", score).
				Msg("score in maybe band, treated as no match")
		}
	}

	if id, err := workMatch(ctx, s, rec); err != nil {
		return Result{}, err
	} else if id != "" {
		return Result{Kind: KindWork, Work: id}, nil
	}
	return Result{Kind: KindNone}, nil
}

type candidate struct {
	id      store.Identifier
	edition *store.Edition
}

// resolveCandidates loads each pooled edition, chasing redirects to the
// final entity. Pool order is preserved so ties break deterministically.
func resolveCandidates(ctx context.Context, s store.Store, p pool.Pool) ([]candidate, error) {
	seen := make(map[store.Identifier]bool)
	var out []candidate
	for _, id := range p.Candidates() {
		finalID, thing, err := store.Resolve(ctx, s, id)
		if err != nil {
			if errors.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		ed := thing.EditionOf()
		if ed == nil || seen[finalID] {
			continue
		}
		seen[finalID] = true
		out = append(out, candidate{id: finalID, edition: ed})
	}
	return out, nil
}

// exactAgree reports whether every field the record populates agrees
// with the stored edition. Fields the record leaves blank never
// disqualify a candidate.
func exactAgree(ctx context.Context, s store.Store, rec *record.ImportRecord, ed *store.Edition) (bool, error) {
	if rec.Title != "" && !titlesAgree(rec, ed) {
		return false, nil
	}
	if rec.PublishDate != "" && rec.PublishDate != ed.PublishDate {
		return false, nil
	}
	if len(rec.Publishers) > 0 && !foldedSetEqual(rec.Publishers, ed.Publishers) {
		return false, nil
	}
	if len(rec.PublishPlaces) > 0 && !foldedSetEqual(rec.PublishPlaces, ed.PublishPlaces) {
		return false, nil
	}
	if len(rec.Languages) > 0 && !foldedSetEqual(rec.Languages, ed.Languages) {
		return false, nil
	}
	if rec.NumberOfPages > 0 && rec.NumberOfPages != ed.NumberOfPages {
		return false, nil
	}
	if len(rec.Authors) > 0 {
		stored, err := storedAuthorNames(ctx, s, ed.Authors)
		if err != nil {
			return false, err
		}
		if !authorSetEqual(rec, stored) {
			return false, nil
		}
	}
	return true, nil
}

// titlesAgree accepts either a case-insensitive literal match or equal
// comparison keys.
func titlesAgree(rec *record.ImportRecord, ed *store.Edition) bool {
	if strings.EqualFold(rec.Title, ed.Title) {
		return true
	}
	edKey := ed.TitleKey
	if edKey == "" {
		edKey = record.NormalizeTitle(ed.Title)
	}
	return rec.TitleKey() == edKey
}

// storedAuthorNames resolves an edition's author identifiers to their
// stored records, following redirects.
func storedAuthorNames(ctx context.Context, s store.Store, ids []store.Identifier) ([]*store.Author, error) {
	var out []*store.Author
	for _, id := range ids {
		_, thing, err := store.Resolve(ctx, s, id)
		if err != nil {
			if errors.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		if a := thing.AuthorOf(); a != nil {
			out = append(out, a)
		}
	}
	return out, nil
}

// authorSetEqual compares incoming and stored author lists by
// normalized name, ignoring roles on the incoming side and keys on the
// stored side.
func authorSetEqual(rec *record.ImportRecord, stored []*store.Author) bool {
	if len(rec.Authors) != len(stored) {
		return false
	}
	want := make(map[string]int, len(rec.Authors))
	for _, a := range rec.Authors {
		want[record.NormalizeName(a.Name)]++
	}
	for _, a := range stored {
		key := record.NormalizeName(a.Name)
		if want[key] == 0 {
			return false
		}
		want[key]--
	}
	return true
}

// foldedSetEqual compares two string lists as case-insensitive sets.
func foldedSetEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	counts := make(map[string]int, len(a))
	for _, v := range a {
		counts[strings.ToLower(strings.TrimSpace(v))]++
	}
	for _, v := range b {
		k := strings.ToLower(strings.TrimSpace(v))
		if counts[k] == 0 {
			return false
		}
		counts[k]--
	}
	return true
}

// workMatch looks for an existing work sharing an author and the title
// key. Incoming authors are resolved by name key first.
func workMatch(ctx context.Context, s store.Store, rec *record.ImportRecord) (store.Identifier, error) {
	if rec.Title == "" || len(rec.Authors) == 0 {
		return "", nil
	}
	titleKey := rec.TitleKey()
	for _, a := range rec.Authors {
		authorIDs, err := s.Lookup(ctx, store.Query{
			Kind:   store.KindAuthor,
			Fields: map[string]string{store.FieldNameKey: record.NormalizeName(a.Name)},
		})
		if err != nil {
			return "", errors.WrapStore("lookup", "author", err)
		}
		for _, aid := range authorIDs {
			workIDs, err := s.Lookup(ctx, store.Query{
				Kind: store.KindWork,
				Fields: map[string]string{
					store.FieldAuthor:   string(aid),
					store.FieldTitleKey: titleKey,
				},
			})
			if err != nil {
				return "", errors.WrapStore("lookup", "work", err)
			}
			if len(workIDs) > 0 {
				return workIDs[0], nil
			}
		}
	}
	return "", nil
}
