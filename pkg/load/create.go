package load

import (
	"context"

	"github.com/openshelf/openshelf/pkg/errors"
	"github.com/openshelf/openshelf/pkg/record"
	"github.com/openshelf/openshelf/pkg/store"
)

// create builds the mutations for a brand-new edition. A work is only
// created when no existing work shares an incoming author and the title
// key; workID, when non-empty, names a work the matcher already found.
func (l *Loader) create(ctx context.Context, rec *record.ImportRecord, workID store.Identifier) (*Result, []store.Mutation, error) {
	var muts []store.Mutation
	res := &Result{}

	work, err := l.loadWork(ctx, workID)
	if err != nil {
		return nil, nil, err
	}

	// First pass: resolve incoming authors against the whole catalog.
	authorIDs := make([]store.Identifier, len(rec.Authors))
	for i, a := range rec.Authors {
		id, err := l.findAuthor(ctx, a)
		if err != nil {
			return nil, nil, err
		}
		authorIDs[i] = id
	}

	// A work is reusable when it shares a resolved author and the
	// incoming title key. First lookup result wins.
	if work == nil {
		titleKey := rec.TitleKey()
		for _, aid := range authorIDs {
			if aid == "" {
				continue
			}
			ids, err := l.store.Lookup(ctx, store.Query{
				Kind: store.KindWork,
				Fields: map[string]string{
					store.FieldAuthor:   string(aid),
					store.FieldTitleKey: titleKey,
				},
			})
			if err != nil {
				return nil, nil, errors.WrapStore("lookup", "work", err)
			}
			if len(ids) > 0 {
				work, err = l.loadWork(ctx, ids[0])
				if err != nil {
					return nil, nil, err
				}
				break
			}
		}
	}

	// Second pass: unresolved authors may still appear on the reused
	// work under a variant name form; otherwise they are new.
	for i, a := range rec.Authors {
		if authorIDs[i] != "" {
			res.Authors = append(res.Authors, EntityResult{ID: authorIDs[i], Status: StatusMatched})
			continue
		}
		if work != nil {
			id, err := l.findAuthorOnWork(ctx, a, work)
			if err != nil {
				return nil, nil, err
			}
			if id != "" {
				authorIDs[i] = id
				res.Authors = append(res.Authors, EntityResult{ID: id, Status: StatusMatched})
				continue
			}
		}
		id, mut, err := l.newAuthor(ctx, a)
		if err != nil {
			return nil, nil, err
		}
		authorIDs[i] = id
		muts = append(muts, mut)
		res.Authors = append(res.Authors, EntityResult{ID: id, Status: StatusCreated})
	}

	if work != nil {
		res.Work = EntityResult{ID: work.Key, Status: StatusMatched}
		if mergeSubjects(work, rec.Subjects) {
			res.Work.Status = StatusModified
			muts = append(muts, store.Update(work))
		}
	} else {
		id, err := l.store.NewIdentifier(ctx, store.KindWork)
		if err != nil {
			return nil, nil, err
		}
		work = &store.Work{
			Key:      id,
			Title:    rec.Title,
			Subtitle: rec.Subtitle,
			Authors:  authorIDs,
			Subjects: rec.Subjects,
		}
		muts = append(muts, store.Create(work))
		res.Work = EntityResult{ID: id, Status: StatusCreated}
	}

	editionID, err := l.store.NewIdentifier(ctx, store.KindEdition)
	if err != nil {
		return nil, nil, err
	}
	muts = append(muts, store.Create(newEdition(editionID, work.Key, authorIDs, rec)))
	res.Edition = EntityResult{ID: editionID, Status: StatusCreated}

	return res, muts, nil
}

// newEdition maps a normalized record onto a fresh edition entity.
func newEdition(id, workID store.Identifier, authors []store.Identifier, rec *record.ImportRecord) *store.Edition {
	ed := &store.Edition{
		Key:           id,
		Title:         rec.Title,
		Subtitle:      rec.Subtitle,
		TitleKey:      rec.TitleKey(),
		Work:          workID,
		Authors:       authors,
		Languages:     rec.Languages,
		Publishers:    rec.Publishers,
		PublishPlaces: rec.PublishPlaces,
		PublishDate:   rec.PublishDate,
		Pagination:    rec.Pagination,
		NumberOfPages: rec.NumberOfPages,
		SourceRecords: rec.SourceRecords,
	}
	for t, values := range rec.Identifiers {
		for _, v := range values {
			ed.AddIdentifier(t, v)
		}
	}
	return ed
}

// loadWork resolves a work identifier through redirects. An empty id
// yields nil without error.
func (l *Loader) loadWork(ctx context.Context, id store.Identifier) (*store.Work, error) {
	if id == "" {
		return nil, nil
	}
	_, thing, err := store.Resolve(ctx, l.store, id)
	if err != nil {
		return nil, err
	}
	w := thing.WorkOf()
	if w == nil {
		return nil, errors.NewNotFoundError("work", string(id))
	}
	return w, nil
}

// findAuthor looks the author up catalog-wide by normalized name.
func (l *Loader) findAuthor(ctx context.Context, a record.Author) (store.Identifier, error) {
	ids, err := l.store.Lookup(ctx, store.Query{
		Kind:   store.KindAuthor,
		Fields: map[string]string{store.FieldNameKey: record.NormalizeName(a.Name)},
	})
	if err != nil {
		return "", errors.WrapStore("lookup", "author", err)
	}
	if len(ids) == 0 {
		return "", nil
	}
	finalID, _, err := store.Resolve(ctx, l.store, ids[0])
	if err != nil {
		return "", err
	}
	return finalID, nil
}

// findAuthorOnWork compares the incoming name against the work's author
// list, tolerating name-form variance.
func (l *Loader) findAuthorOnWork(ctx context.Context, a record.Author, w *store.Work) (store.Identifier, error) {
	want := record.NormalizeName(a.Name)
	for _, id := range w.Authors {
		finalID, thing, err := store.Resolve(ctx, l.store, id)
		if err != nil {
			if errors.IsNotFound(err) {
				continue
			}
			return "", err
		}
		stored := thing.AuthorOf()
		if stored != nil && record.NormalizeName(stored.Name) == want {
			return finalID, nil
		}
	}
	return "", nil
}

// newAuthor mints an identifier and a create mutation for an author the
// catalog has never seen.
func (l *Loader) newAuthor(ctx context.Context, a record.Author) (store.Identifier, store.Mutation, error) {
	id, err := l.store.NewIdentifier(ctx, store.KindAuthor)
	if err != nil {
		return "", store.Mutation{}, err
	}
	entity := &store.Author{
		Key:        id,
		Name:       a.Name,
		BirthDate:  a.BirthDate,
		DeathDate:  a.DeathDate,
		Date:       a.Date,
		EntityType: a.EntityType,
	}
	return id, store.Create(entity), nil
}

// mergeSubjects appends subjects the work does not already carry and
// reports whether anything was added.
func mergeSubjects(w *store.Work, subjects []string) bool {
	have := make(map[string]bool, len(w.Subjects))
	for _, s := range w.Subjects {
		have[s] = true
	}
	added := false
	for _, s := range subjects {
		if !have[s] {
			w.Subjects = append(w.Subjects, s)
			have[s] = true
			added = true
		}
	}
	return added
}
