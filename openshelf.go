// Package openshelf imports binary bibliographic records into a catalog
// store: parse, normalize, find candidates, match, then create or merge
// in one atomic commit.
package openshelf

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/openshelf/openshelf/pkg/load"
	"github.com/openshelf/openshelf/pkg/logging"
	"github.com/openshelf/openshelf/pkg/marc"
	"github.com/openshelf/openshelf/pkg/record"
)

// Openshelf runs the full import pipeline against one catalog store.
type Openshelf interface {
	// Import parses one raw binary record and loads it.
	Import(ctx context.Context, raw []byte) (*load.Result, error)

	// ImportRecord loads an already-normalized record, skipping the
	// parse and normalize stages.
	ImportRecord(ctx context.Context, rec *record.ImportRecord) (*load.Result, error)

	// Parse decodes one raw binary record without touching the store.
	Parse(raw []byte) (*marc.Record, error)
}

// openshelf is the internal implementation of the Openshelf interface.
type openshelf struct {
	config *config
	loader *load.Loader
	logger *zerolog.Logger
}

// New creates an Openshelf instance with the given options.
func New(opts ...Option) (Openshelf, error) {
	cfg := newConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	logger := cfg.logger
	if logger == nil {
		logger = logging.Default()
	}

	return &openshelf{
		config: cfg,
		loader: load.NewLoader(cfg.store),
		logger: logger,
	}, nil
}

// Import implements Openshelf.
func (o *openshelf) Import(ctx context.Context, raw []byte) (*load.Result, error) {
	rec, err := marc.Parse(raw)
	if err != nil {
		return nil, err
	}
	imported, err := record.Normalize(rec)
	if err != nil {
		return nil, err
	}
	return o.ImportRecord(ctx, imported)
}

// ImportRecord implements Openshelf.
func (o *openshelf) ImportRecord(ctx context.Context, rec *record.ImportRecord) (*load.Result, error) {
	ctx = logging.WithLogger(ctx, o.logger)
	return o.loader.Load(ctx, rec)
}

// Parse implements Openshelf.
func (o *openshelf) Parse(raw []byte) (*marc.Record, error) {
	return marc.Parse(raw)
}
