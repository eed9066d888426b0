package load

import (
	"context"

	"github.com/openshelf/openshelf/pkg/errors"
	"github.com/openshelf/openshelf/pkg/record"
	"github.com/openshelf/openshelf/pkg/store"
)

// amend handles an edition match: the record describes a book the
// catalog already has, so only genuinely new information is written.
// Redirects are chased before any comparison; mutations always target
// the final entity.
func (l *Loader) amend(ctx context.Context, rec *record.ImportRecord, editionID store.Identifier) (*Result, []store.Mutation, error) {
	finalID, thing, err := store.Resolve(ctx, l.store, editionID)
	if err != nil {
		return nil, nil, err
	}
	ed := thing.EditionOf()
	if ed == nil {
		return nil, nil, errors.NewNotFoundError("edition", string(editionID))
	}

	var muts []store.Mutation
	res := &Result{
		Edition: EntityResult{ID: finalID, Status: StatusMatched},
	}

	work, err := l.loadWork(ctx, ed.Work)
	if err != nil && !errors.IsNotFound(err) {
		return nil, nil, err
	}

	edModified := false
	workModified := false

	// An edition can predate the work model; give it one.
	if work == nil {
		workID, err := l.store.NewIdentifier(ctx, store.KindWork)
		if err != nil {
			return nil, nil, err
		}
		work = &store.Work{
			Key:      workID,
			Title:    ed.Title,
			Subtitle: ed.Subtitle,
			Authors:  ed.Authors,
			Subjects: rec.Subjects,
		}
		muts = append(muts, store.Create(work))
		ed.Work = workID
		edModified = true
		res.Work = EntityResult{ID: workID, Status: StatusCreated}
	} else {
		res.Work = EntityResult{ID: work.Key, Status: StatusMatched}
	}

	// Authors compare by stored key: resolve each incoming author to
	// its catalog identity first, creating it if truly new.
	for _, a := range rec.Authors {
		id, err := l.findAuthor(ctx, a)
		if err != nil {
			return nil, nil, err
		}
		status := StatusMatched
		if id == "" {
			id, err = l.findAuthorOnWork(ctx, a, work)
			if err != nil {
				return nil, nil, err
			}
		}
		if id == "" {
			var mut store.Mutation
			id, mut, err = l.newAuthor(ctx, a)
			if err != nil {
				return nil, nil, err
			}
			muts = append(muts, mut)
			status = StatusCreated
		}
		res.Authors = append(res.Authors, EntityResult{ID: id, Status: status})

		if !work.HasAuthor(id) {
			work.Authors = append(work.Authors, id)
			workModified = true
		}
		if !ed.HasAuthor(id) {
			ed.Authors = append(ed.Authors, id)
			edModified = true
		}
	}

	if res.Work.Status != StatusCreated && mergeSubjects(work, rec.Subjects) {
		workModified = true
	}

	// A new digitized-item id arrives with its provenance tag.
	if ocaid, ok := rec.Identifier(record.OCAID); ok && !ed.HasIdentifier(record.OCAID, ocaid) {
		ed.AddIdentifier(record.OCAID, ocaid)
		for _, src := range rec.SourceRecords {
			if !containsString(ed.SourceRecords, src) {
				ed.SourceRecords = append(ed.SourceRecords, src)
			}
		}
		edModified = true
	}

	if edModified {
		muts = append(muts, store.Update(ed))
		res.Edition.Status = StatusModified
	}
	if workModified {
		if res.Work.Status == StatusCreated {
			// Already queued as a create; the pending entity was
			// mutated in place.
		} else {
			muts = append(muts, store.Update(work))
			res.Work.Status = StatusModified
		}
	}
	return res, muts, nil
}

func containsString(list []string, want string) bool {
	for _, v := range list {
		if v == want {
			return true
		}
	}
	return false
}
