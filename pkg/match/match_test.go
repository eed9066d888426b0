package match

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openshelf/openshelf/pkg/pool"
	"github.com/openshelf/openshelf/pkg/record"
	"github.com/openshelf/openshelf/pkg/store"
	"github.com/openshelf/openshelf/pkg/store/memory"
)

func newStore(t *testing.T, muts ...store.Mutation) store.Store {
	t.Helper()
	s, err := memory.New()
	require.NoError(t, err)
	if len(muts) > 0 {
		require.NoError(t, s.Commit(context.Background(), muts, "seed"))
	}
	return s
}

func storedEmpires() (*store.Edition, *store.Author, *store.Work) {
	au := &store.Author{Key: "/authors/OS1A", Name: "Robert X. Cringely"}
	wk := &store.Work{
		Key:     "/works/OS1W",
		Title:   "Accidental Empires",
		Authors: []store.Identifier{au.Key},
	}
	ed := &store.Edition{
		Key:           "/books/OS1M",
		Title:         "Accidental Empires",
		Work:          wk.Key,
		Authors:       []store.Identifier{au.Key},
		PublishDate:   "1992",
		Publishers:    []string{"Addison-Wesley"},
		Languages:     []string{"eng"},
		NumberOfPages: 324,
	}
	ed.AddIdentifier(record.ISBN10, "0201570327")
	return ed, au, wk
}

func TestExactMatch(t *testing.T) {
	ed, au, wk := storedEmpires()
	s := newStore(t, store.Create(au), store.Create(wk), store.Create(ed))
	ctx := context.Background()

	rec := &record.ImportRecord{
		Title:         "Accidental Empires",
		Authors:       []record.Author{{Name: "Cringely, Robert X."}},
		PublishDate:   "1992",
		Languages:     []string{"eng"},
		NumberOfPages: 324,
	}

	p, err := pool.Build(ctx, s, rec)
	require.NoError(t, err)
	require.False(t, p.Empty())

	res, err := Match(ctx, s, rec, p)
	require.NoError(t, err)
	assert.Equal(t, KindEdition, res.Kind)
	assert.Equal(t, store.Identifier("/books/OS1M"), res.Edition)
	assert.Equal(t, store.Identifier("/works/OS1W"), res.Work)
}

func TestExactMatchIgnoresBlankIncomingFields(t *testing.T) {
	ed, au, wk := storedEmpires()
	s := newStore(t, store.Create(au), store.Create(wk), store.Create(ed))
	ctx := context.Background()

	// No publisher or places on the record; absence must not disqualify.
	rec := &record.ImportRecord{
		Title:         "Accidental Empires",
		Authors:       []record.Author{{Name: "Robert X. Cringely"}},
		NumberOfPages: 324,
	}

	p, err := pool.Build(ctx, s, rec)
	require.NoError(t, err)

	res, err := Match(ctx, s, rec, p)
	require.NoError(t, err)
	assert.Equal(t, KindEdition, res.Kind)
}

func TestSparseRecordFullAgreementMatches(t *testing.T) {
	ed, au, wk := storedEmpires()
	s := newStore(t, store.Create(au), store.Create(wk), store.Create(ed))
	ctx := context.Background()

	// Title key agrees and the one populated field agrees; the record
	// carries nothing that contradicts the candidate.
	rec := &record.ImportRecord{
		Title:     "The Accidental Empires",
		Languages: []string{"eng"},
	}

	p, err := pool.Build(ctx, s, rec)
	require.NoError(t, err)
	require.False(t, p.Empty())

	res, err := Match(ctx, s, rec, p)
	require.NoError(t, err)
	assert.Equal(t, KindEdition, res.Kind)
	assert.Equal(t, store.Identifier("/books/OS1M"), res.Edition)
}

func TestSparseRecordWithConflictIsNoMatch(t *testing.T) {
	ed, au, wk := storedEmpires()
	s := newStore(t, store.Create(au), store.Create(wk), store.Create(ed))
	ctx := context.Background()

	// The lone populated field disagrees, so the exact path rejects
	// the candidate, and a key-equal title alone scores below the
	// maybe threshold.
	rec := &record.ImportRecord{
		Title:     "The Accidental Empires",
		Languages: []string{"fre"},
	}

	p, err := pool.Build(ctx, s, rec)
	require.NoError(t, err)
	require.False(t, p.Empty())

	res, err := Match(ctx, s, rec, p)
	require.NoError(t, err)
	assert.Equal(t, KindNone, res.Kind)
}

func TestFuzzyMatchOverridesFieldDisagreement(t *testing.T) {
	ed, au, wk := storedEmpires()
	s := newStore(t, store.Create(au), store.Create(wk), store.Create(ed))
	ctx := context.Background()

	// Publish date disagrees so the exact path fails, but exact title,
	// exact author and a shared ISBN clear the fuzzy threshold.
	rec := &record.ImportRecord{
		Title:       "Accidental Empires",
		Authors:     []record.Author{{Name: "Robert X. Cringely"}},
		PublishDate: "1993",
	}
	rec.AddIdentifier(record.ISBN10, "0201570327")

	p, err := pool.Build(ctx, s, rec)
	require.NoError(t, err)

	res, err := Match(ctx, s, rec, p)
	require.NoError(t, err)
	assert.Equal(t, KindEdition, res.Kind)
	assert.Equal(t, store.Identifier("/books/OS1M"), res.Edition)
}

func TestMaybeBandIsNeverMerged(t *testing.T) {
	ed, au, wk := storedEmpires()
	s := newStore(t, store.Create(au), store.Create(wk), store.Create(ed))
	ctx := context.Background()

	// Shared ISBN, same author, adjacent page count, but an unrelated
	// title: the score lands between the maybe and match thresholds.
	rec := &record.ImportRecord{
		Title:         "Gardening Basics",
		Authors:       []record.Author{{Name: "Robert X. Cringely"}},
		NumberOfPages: 323,
	}
	rec.AddIdentifier(record.ISBN10, "0201570327")

	p, err := pool.Build(ctx, s, rec)
	require.NoError(t, err)
	require.False(t, p.Empty())

	res, err := Match(ctx, s, rec, p)
	require.NoError(t, err)
	assert.Equal(t, KindNone, res.Kind)
}

func TestNoFalseMergeOnSubstringTitle(t *testing.T) {
	au := &store.Author{Key: "/authors/OS1A", Name: "Jane Roe"}
	wk := &store.Work{Key: "/works/OS1W", Title: "Great Book", Authors: []store.Identifier{au.Key}}
	ed := &store.Edition{
		Key:           "/books/OS1M",
		Title:         "Great Book",
		Work:          wk.Key,
		Authors:       []store.Identifier{au.Key},
		NumberOfPages: 200,
	}
	s := newStore(t, store.Create(au), store.Create(wk), store.Create(ed))
	ctx := context.Background()

	// One title contains the other but the keys differ and no
	// identifiers are shared; this must never merge.
	rec := &record.ImportRecord{
		Title:         "The Great Book Extended Edition",
		Authors:       []record.Author{{Name: "Jane Roe"}},
		NumberOfPages: 200,
	}

	p := pool.Pool{pool.DimensionTitle: []store.Identifier{"/books/OS1M"}}
	res, err := Match(ctx, s, rec, p)
	require.NoError(t, err)
	assert.Equal(t, KindNone, res.Kind)
}

func TestSharedISBNAloneIsNoMatch(t *testing.T) {
	ed := &store.Edition{Key: "/books/OS1M", Title: "Some Other Work"}
	ed.AddIdentifier(record.ISBN13, "9780140439083")
	s := newStore(t, store.Create(ed))
	ctx := context.Background()

	rec := &record.ImportRecord{Title: "A Completely Different Title"}
	rec.AddIdentifier(record.ISBN13, "9780140439083")

	p, err := pool.Build(ctx, s, rec)
	require.NoError(t, err)
	require.False(t, p.Empty())

	res, err := Match(ctx, s, rec, p)
	require.NoError(t, err)
	assert.Equal(t, KindNone, res.Kind)
}

func TestWorkOnlyMatch(t *testing.T) {
	au := &store.Author{Key: "/authors/OS1A", Name: "Herman Melville"}
	wk := &store.Work{Key: "/works/OS1W", Title: "Moby Dick", Authors: []store.Identifier{au.Key}}
	s := newStore(t, store.Create(au), store.Create(wk))
	ctx := context.Background()

	rec := &record.ImportRecord{
		Title:   "Moby Dick",
		Authors: []record.Author{{Name: "Melville, Herman"}},
	}

	p, err := pool.Build(ctx, s, rec)
	require.NoError(t, err)
	require.True(t, p.Empty())

	res, err := Match(ctx, s, rec, p)
	require.NoError(t, err)
	assert.Equal(t, KindWork, res.Kind)
	assert.Equal(t, store.Identifier("/works/OS1W"), res.Work)
}

func TestMatchFollowsRedirects(t *testing.T) {
	ed, au, wk := storedEmpires()
	s := newStore(t, store.Create(au), store.Create(wk), store.Create(ed))
	require.NoError(t, memory.AddRedirect(s, "/books/OS9M", "/books/OS1M"))
	ctx := context.Background()

	rec := &record.ImportRecord{
		Title:         "Accidental Empires",
		Authors:       []record.Author{{Name: "Robert X. Cringely"}},
		NumberOfPages: 324,
	}

	// Pool points at the redirect; the decision names the final entity.
	p := pool.Pool{pool.DimensionTitle: []store.Identifier{"/books/OS9M"}}
	res, err := Match(ctx, s, rec, p)
	require.NoError(t, err)
	assert.Equal(t, KindEdition, res.Kind)
	assert.Equal(t, store.Identifier("/books/OS1M"), res.Edition)
}
