package pool

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openshelf/openshelf/pkg/record"
	"github.com/openshelf/openshelf/pkg/store"
	"github.com/openshelf/openshelf/pkg/store/memory"
)

func seedStore(t *testing.T) store.Store {
	t.Helper()
	s, err := memory.New()
	require.NoError(t, err)

	e1 := &store.Edition{Key: "/books/OS1M", Title: "A Study in Scarlet"}
	e1.AddIdentifier(record.ISBN10, "0140439080")
	e1.AddIdentifier(record.ISBN13, "9780140439083")

	e2 := &store.Edition{Key: "/books/OS2M", Title: "A Study in Scarlet"}
	e2.AddIdentifier(record.LCCN, "2001270125")

	e3 := &store.Edition{Key: "/books/OS3M", Title: "The Sign of the Four"}
	e3.AddIdentifier(record.OCLC, "13129944")

	muts := []store.Mutation{store.Create(e1), store.Create(e2), store.Create(e3)}
	require.NoError(t, s.Commit(context.Background(), muts, "seed"))
	return s
}

func TestBuildByTitle(t *testing.T) {
	s := seedStore(t)

	rec := &record.ImportRecord{Title: "A study in scarlet"}
	p, err := Build(context.Background(), s, rec)
	require.NoError(t, err)

	assert.Equal(t, []Dimension{DimensionTitle}, p.Dimensions())
	assert.Equal(t, []store.Identifier{"/books/OS1M", "/books/OS2M"}, p[DimensionTitle])
}

func TestBuildUnionsISBNForms(t *testing.T) {
	s := seedStore(t)

	// Only the 10-form on the record; the stored edition carries both,
	// so either form must find it.
	rec := &record.ImportRecord{Title: "unrelated title"}
	rec.AddIdentifier(record.ISBN10, "0140439080")

	p, err := Build(context.Background(), s, rec)
	require.NoError(t, err)
	assert.Equal(t, []store.Identifier{"/books/OS1M"}, p[DimensionISBN])
}

func TestBuildMultipleDimensions(t *testing.T) {
	s := seedStore(t)

	rec := &record.ImportRecord{Title: "A Study in Scarlet"}
	rec.AddIdentifier(record.LCCN, "2001270125")
	rec.AddIdentifier(record.OCLC, "13129944")

	p, err := Build(context.Background(), s, rec)
	require.NoError(t, err)

	assert.Equal(t, []Dimension{DimensionLCCN, DimensionOCLC, DimensionTitle}, p.Dimensions())

	// Candidates iterate sorted dimensions and dedup across them.
	assert.Equal(t,
		[]store.Identifier{"/books/OS2M", "/books/OS3M", "/books/OS1M"},
		p.Candidates())
}

func TestBuildEmptyRecord(t *testing.T) {
	s := seedStore(t)

	p, err := Build(context.Background(), s, &record.ImportRecord{})
	require.NoError(t, err)
	assert.True(t, p.Empty())
	assert.Empty(t, p.Candidates())
}

func TestBuildNoHits(t *testing.T) {
	s := seedStore(t)

	rec := &record.ImportRecord{Title: "Completely Unknown"}
	rec.AddIdentifier(record.OCAID, "unknownbook00auth")

	p, err := Build(context.Background(), s, rec)
	require.NoError(t, err)
	assert.True(t, p.Empty())
}
