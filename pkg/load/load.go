// Package load orchestrates one import: pool, match, then a single
// atomic commit that creates or amends the edition, work and authors.
package load

import (
	"context"
	"fmt"

	"github.com/openshelf/openshelf/pkg/errors"
	"github.com/openshelf/openshelf/pkg/logging"
	"github.com/openshelf/openshelf/pkg/match"
	"github.com/openshelf/openshelf/pkg/pool"
	"github.com/openshelf/openshelf/pkg/record"
	"github.com/openshelf/openshelf/pkg/store"
)

// Status reports what happened to one entity during a load.
type Status string

const (
	StatusCreated  Status = "created"
	StatusMatched  Status = "matched"
	StatusModified Status = "modified"
)

// EntityResult names an entity and what the load did to it.
type EntityResult struct {
	ID     store.Identifier `json:"id"`
	Status Status           `json:"status"`
}

// Result is the structured report for one import call.
type Result struct {
	Success bool           `json:"success"`
	Edition EntityResult   `json:"edition"`
	Work    EntityResult   `json:"work"`
	Authors []EntityResult `json:"authors,omitempty"`
}

// Loader runs import orchestration against one catalog store.
type Loader struct {
	store store.Store
}

// NewLoader creates a Loader bound to the given store.
func NewLoader(s store.Store) *Loader {
	return &Loader{store: s}
}

// Load imports one normalized record. All mutations from the call
// commit atomically; a rejected commit leaves no partial state. The
// context is honored between steps, but a commit once issued runs to
// completion.
func (l *Loader) Load(ctx context.Context, rec *record.ImportRecord) (*Result, error) {
	if rec == nil || rec.Title == "" {
		return nil, errors.NewMissingFieldError("title")
	}

	// Downstream log lines all carry the record being imported.
	ctx = logging.WithOperation(ctx, "load")
	ctx = logging.WithRecordTitle(ctx, rec.Title)
	log := logging.Ctx(ctx)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := pool.Build(ctx, l.store, rec)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	decision, err := match.Match(ctx, l.store, rec, p)
	if err != nil {
		return nil, err
	}

	var (
		result    *Result
		mutations []store.Mutation
	)
	switch decision.Kind {
	case match.KindEdition:
		result, mutations, err = l.amend(ctx, rec, decision.Edition)
	case match.KindWork:
		result, mutations, err = l.create(ctx, rec, decision.Work)
	default:
		result, mutations, err = l.create(ctx, rec, "")
	}
	if err != nil {
		return nil, err
	}

	// Last cancellation point: the commit itself is never abandoned.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(mutations) > 0 {
		message := commitMessage(rec)
		if err := l.store.Commit(ctx, mutations, message); err != nil {
			return nil, err
		}
	}

	log.Info().
		Str("edition", result.Edition.ID.String()).
		Str("edition_status", string(result.Edition.Status)).
		Str("work", result.Work.ID.String()).
		Str("work_status", string(result.Work.Status)).
		Msg("record loaded")
	result.Success = true
	return result, nil
}

func commitMessage(rec *record.ImportRecord) string {
	if len(rec.SourceRecords) > 0 {
		return fmt.Sprintf("import of %s", rec.SourceRecords[0])
	}
	return fmt.Sprintf("import of %q", rec.Title)
}
