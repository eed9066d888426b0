package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openshelf/openshelf/pkg/errors"
	"github.com/openshelf/openshelf/pkg/record"
	"github.com/openshelf/openshelf/pkg/store"
)

func TestNewIdentifierFormats(t *testing.T) {
	s, err := New()
	require.NoError(t, err)
	ctx := context.Background()

	tests := []struct {
		kind store.Kind
		want store.Identifier
	}{
		{store.KindEdition, "/books/OS1M"},
		{store.KindEdition, "/books/OS2M"},
		{store.KindWork, "/works/OS1W"},
		{store.KindAuthor, "/authors/OS1A"},
	}
	for _, tt := range tests {
		id, err := s.NewIdentifier(ctx, tt.kind)
		require.NoError(t, err)
		assert.Equal(t, tt.want, id)
	}

	_, err = s.NewIdentifier(ctx, store.Kind("shelf"))
	assert.True(t, errors.IsValidationError(err))
}

func TestCommitAndGet(t *testing.T) {
	s, err := New()
	require.NoError(t, err)
	ctx := context.Background()

	ed := &store.Edition{
		Key:   "/books/OS1M",
		Title: "The Wind in the Willows",
		Work:  "/works/OS1W",
	}
	ed.AddIdentifier(record.ISBN10, "0684179814")
	wk := &store.Work{Key: "/works/OS1W", Title: "The Wind in the Willows"}

	err = s.Commit(ctx, []store.Mutation{store.Create(wk), store.Create(ed)}, "import edition")
	require.NoError(t, err)

	thing, err := s.Get(ctx, "/books/OS1M")
	require.NoError(t, err)
	got := thing.EditionOf()
	require.NotNil(t, got)
	assert.Equal(t, "The Wind in the Willows", got.Title)
	assert.Equal(t, record.NormalizeTitle("The Wind in the Willows"), got.TitleKey)
	assert.False(t, got.CreatedAt.IsZero())

	_, err = s.Get(ctx, "/books/OS99M")
	assert.True(t, errors.IsNotFound(err))
}

func TestCommitIsAtomic(t *testing.T) {
	s, err := New()
	require.NoError(t, err)
	ctx := context.Background()

	good := &store.Work{Key: "/works/OS1W", Title: "Valid"}
	// Update of an entity that does not exist fails validation.
	bad := &store.Work{Key: "/works/OS2W", Title: "Phantom"}

	err = s.Commit(ctx, []store.Mutation{store.Create(good), store.Update(bad)}, "mixed batch")
	require.Error(t, err)
	assert.True(t, errors.IsStoreRejected(err))

	// Nothing from the failed batch may be visible.
	_, err = s.Get(ctx, "/works/OS1W")
	assert.True(t, errors.IsNotFound(err))
}

func TestCommitRejectsDuplicateCreate(t *testing.T) {
	s, err := New()
	require.NoError(t, err)
	ctx := context.Background()

	wk := &store.Work{Key: "/works/OS1W", Title: "Once"}
	require.NoError(t, s.Commit(ctx, []store.Mutation{store.Create(wk)}, "first"))

	err = s.Commit(ctx, []store.Mutation{store.Create(wk)}, "again")
	assert.True(t, errors.IsStoreRejected(err))
}

func TestUpdatePreservesCreatedAt(t *testing.T) {
	s, err := New()
	require.NoError(t, err)
	ctx := context.Background()

	wk := &store.Work{Key: "/works/OS1W", Title: "Original"}
	require.NoError(t, s.Commit(ctx, []store.Mutation{store.Create(wk)}, "create"))

	first, err := s.Get(ctx, "/works/OS1W")
	require.NoError(t, err)
	created := first.WorkOf().CreatedAt

	wk.Title = "Revised"
	require.NoError(t, s.Commit(ctx, []store.Mutation{store.Update(wk)}, "revise"))

	second, err := s.Get(ctx, "/works/OS1W")
	require.NoError(t, err)
	assert.Equal(t, "Revised", second.WorkOf().Title)
	assert.Equal(t, created, second.WorkOf().CreatedAt)
	assert.False(t, second.WorkOf().UpdatedAt.Before(created))
}

func TestReadOnlyRejectsCommit(t *testing.T) {
	s, err := New(WithReadOnly(true))
	require.NoError(t, err)

	wk := &store.Work{Key: "/works/OS1W", Title: "Nope"}
	err = s.Commit(context.Background(), []store.Mutation{store.Create(wk)}, "blocked")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrReadOnly)
}

func TestLookup(t *testing.T) {
	s, err := New()
	require.NoError(t, err)
	ctx := context.Background()

	e1 := &store.Edition{Key: "/books/OS1M", Title: "Moby Dick"}
	e1.AddIdentifier(record.ISBN13, "9780553213119")
	e2 := &store.Edition{Key: "/books/OS2M", Title: "Moby Dick"}
	e2.AddIdentifier(record.LCCN, "2002191389")
	au := &store.Author{Key: "/authors/OS1A", Name: "Herman Melville"}
	wk := &store.Work{Key: "/works/OS1W", Title: "Moby Dick", Authors: []store.Identifier{au.Key}}

	muts := []store.Mutation{store.Create(e1), store.Create(e2), store.Create(au), store.Create(wk)}
	require.NoError(t, s.Commit(ctx, muts, "seed"))

	tests := []struct {
		name  string
		query store.Query
		want  []store.Identifier
	}{
		{
			name: "editions by title key",
			query: store.Query{Kind: store.KindEdition, Fields: map[string]string{
				store.FieldTitleKey: record.NormalizeTitle("Moby Dick"),
			}},
			want: []store.Identifier{"/books/OS1M", "/books/OS2M"},
		},
		{
			name: "edition by isbn",
			query: store.Query{Kind: store.KindEdition, Fields: map[string]string{
				store.FieldISBN: "9780553213119",
			}},
			want: []store.Identifier{"/books/OS1M"},
		},
		{
			name: "edition by lccn",
			query: store.Query{Kind: store.KindEdition, Fields: map[string]string{
				store.FieldLCCN: "2002191389",
			}},
			want: []store.Identifier{"/books/OS2M"},
		},
		{
			name: "author by name key",
			query: store.Query{Kind: store.KindAuthor, Fields: map[string]string{
				store.FieldNameKey: record.NormalizeName("Melville, Herman"),
			}},
			want: []store.Identifier{"/authors/OS1A"},
		},
		{
			name: "work by author and title key",
			query: store.Query{Kind: store.KindWork, Fields: map[string]string{
				store.FieldAuthor:   "/authors/OS1A",
				store.FieldTitleKey: record.NormalizeTitle("Moby Dick"),
			}},
			want: []store.Identifier{"/works/OS1W"},
		},
		{
			name: "no hits",
			query: store.Query{Kind: store.KindEdition, Fields: map[string]string{
				store.FieldOCAID: "mobydick00melv",
			}},
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Lookup(ctx, tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRedirectAndResolve(t *testing.T) {
	s, err := New()
	require.NoError(t, err)
	ctx := context.Background()

	au := &store.Author{Key: "/authors/OS2A", Name: "Samuel Clemens"}
	require.NoError(t, s.Commit(ctx, []store.Mutation{store.Create(au)}, "seed"))
	require.NoError(t, AddRedirect(s, "/authors/OS1A", "/authors/OS2A"))

	thing, err := s.Get(ctx, "/authors/OS1A")
	require.NoError(t, err)
	assert.True(t, thing.IsRedirect())
	assert.Equal(t, store.Identifier("/authors/OS2A"), thing.Redirect)

	id, resolved, err := store.Resolve(ctx, s, "/authors/OS1A")
	require.NoError(t, err)
	assert.Equal(t, store.Identifier("/authors/OS2A"), id)
	require.NotNil(t, resolved.AuthorOf())
	assert.Equal(t, "Samuel Clemens", resolved.AuthorOf().Name)
}

func TestResolveLoopDetected(t *testing.T) {
	s, err := New()
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, AddRedirect(s, "/works/OS1W", "/works/OS2W"))
	require.NoError(t, AddRedirect(s, "/works/OS2W", "/works/OS1W"))

	_, _, err = store.Resolve(ctx, s, "/works/OS1W")
	assert.ErrorIs(t, err, errors.ErrRedirectLoop)
}

func TestSnapshotRoundTrip(t *testing.T) {
	s, err := New()
	require.NoError(t, err)
	ctx := context.Background()

	ed := &store.Edition{Key: "/books/OS3M", Title: "Walden"}
	ed.AddIdentifier(record.OCLC, "1042600")
	wk := &store.Work{Key: "/works/OS3W", Title: "Walden"}
	require.NoError(t, s.Commit(ctx, []store.Mutation{store.Create(ed), store.Create(wk)}, "seed"))
	require.NoError(t, AddRedirect(s, "/works/OS1W", "/works/OS3W"))

	data, err := Snapshot(s)
	require.NoError(t, err)

	loaded, err := New(WithSnapshot(data))
	require.NoError(t, err)

	thing, err := loaded.Get(ctx, "/books/OS3M")
	require.NoError(t, err)
	assert.Equal(t, "Walden", thing.EditionOf().Title)
	assert.True(t, thing.EditionOf().HasIdentifier(record.OCLC, "1042600"))

	redir, err := loaded.Get(ctx, "/works/OS1W")
	require.NoError(t, err)
	assert.Equal(t, store.Identifier("/works/OS3W"), redir.Redirect)

	// Counters continue past loaded keys.
	id, err := loaded.NewIdentifier(ctx, store.KindEdition)
	require.NoError(t, err)
	assert.Equal(t, store.Identifier("/books/OS4M"), id)
}
