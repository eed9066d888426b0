package match

import (
	"context"
	"strings"

	"github.com/openshelf/openshelf/pkg/record"
	"github.com/openshelf/openshelf/pkg/store"
)

// Scoring contract. A candidate is accepted at ThresholdMatch or above;
// scores in [ThresholdMaybe, ThresholdMatch) are reported but never
// auto-merged. The weights are tunable constants, not re-derived.
const (
	ThresholdMatch = 875
	ThresholdMaybe = 575

	// Title signals are mutually exclusive; the strongest one scores.
	WeightTitleExact    = 600
	WeightTitleKey      = 550
	WeightTitleContains = 350
	WeightTitleTokens   = 300

	// Author signals are mutually exclusive per comparison.
	WeightAuthorExact   = 250
	WeightAuthorSurname = 175

	// Page counts within one page of each other count as equal;
	// preliminary leaves shift pagination between printings.
	WeightPages = 75

	// Any shared strong identifier (ISBN, OCLC, LCCN, OCAID) or
	// source-record tag.
	WeightIdentifier = 300
)

// Score computes the fuzzy similarity between the incoming record and a
// stored edition.
func Score(ctx context.Context, s store.Store, rec *record.ImportRecord, ed *store.Edition) (int, error) {
	score := scoreTitle(rec, ed)
	score += scorePages(rec, ed)
	score += scoreIdentifiers(rec, ed)

	if len(rec.Authors) > 0 && len(ed.Authors) > 0 {
		stored, err := storedAuthorNames(ctx, s, ed.Authors)
		if err != nil {
			return 0, err
		}
		score += scoreAuthors(rec, stored)
	}
	return score, nil
}

func scoreTitle(rec *record.ImportRecord, ed *store.Edition) int {
	incoming := rec.FullTitle()
	storedFull := ed.Title
	if ed.Subtitle != "" {
		storedFull = ed.Title + ": " + ed.Subtitle
	}

	switch {
	case incoming == "" || storedFull == "":
		return 0
	case strings.EqualFold(incoming, storedFull):
		return WeightTitleExact
	case rec.TitleKey() == record.NormalizeTitle(storedFull):
		return WeightTitleKey
	}

	a := strings.ToLower(incoming)
	b := strings.ToLower(storedFull)
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return WeightTitleContains
	}
	return tokenOverlap(a, b)
}

// tokenOverlap scales WeightTitleTokens by the share of tokens the two
// titles have in common.
func tokenOverlap(a, b string) int {
	at := strings.Fields(a)
	bt := strings.Fields(b)
	if len(at) == 0 || len(bt) == 0 {
		return 0
	}
	set := make(map[string]bool, len(at))
	for _, t := range at {
		set[t] = true
	}
	shared := 0
	for _, t := range bt {
		if set[t] {
			shared++
		}
	}
	longer := len(at)
	if len(bt) > longer {
		longer = len(bt)
	}
	return WeightTitleTokens * shared / longer
}

// scoreAuthors scores the best available author signal: a normalized
// full-name agreement beats a surname-only agreement.
func scoreAuthors(rec *record.ImportRecord, stored []*store.Author) int {
	best := 0
	for _, in := range rec.Authors {
		inKey := record.NormalizeName(in.Name)
		inSurname := surname(in.Name)
		for _, st := range stored {
			if record.NormalizeName(st.Name) == inKey {
				return WeightAuthorExact
			}
			if inSurname != "" && inSurname == surname(st.Name) && best < WeightAuthorSurname {
				best = WeightAuthorSurname
			}
		}
	}
	return best
}

// surname guesses the family name: the token before a comma when the
// name is inverted, otherwise the last token.
func surname(name string) string {
	name = strings.TrimSpace(strings.ToLower(name))
	if name == "" {
		return ""
	}
	if i := strings.Index(name, ","); i > 0 {
		return strings.TrimSpace(name[:i])
	}
	fields := strings.Fields(name)
	return fields[len(fields)-1]
}

func scorePages(rec *record.ImportRecord, ed *store.Edition) int {
	if rec.NumberOfPages <= 0 || ed.NumberOfPages <= 0 {
		return 0
	}
	diff := rec.NumberOfPages - ed.NumberOfPages
	if diff < 0 {
		diff = -diff
	}
	if diff <= 1 {
		return WeightPages
	}
	return 0
}

func scoreIdentifiers(rec *record.ImportRecord, ed *store.Edition) int {
	for _, isbn := range rec.ISBNs() {
		if ed.HasIdentifier(record.ISBN10, isbn) || ed.HasIdentifier(record.ISBN13, isbn) {
			return WeightIdentifier
		}
	}
	for _, t := range []record.IdentifierType{record.OCLC, record.LCCN, record.OCAID} {
		for _, v := range rec.Identifiers[t] {
			if ed.HasIdentifier(t, v) {
				return WeightIdentifier
			}
		}
	}
	for _, src := range rec.SourceRecords {
		for _, stored := range ed.SourceRecords {
			if src == stored {
				return WeightIdentifier
			}
		}
	}
	return 0
}
