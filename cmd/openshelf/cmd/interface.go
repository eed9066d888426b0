// Package cmd holds the openshelf CLI subcommands. Commands depend on
// the application through a narrow interface so they stay testable.
package cmd

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/openshelf/openshelf"
)

// Interface is what a command needs from the application.
type Interface interface {
	// Openshelf returns the lazily constructed import pipeline.
	Openshelf(ctx context.Context) (openshelf.Openshelf, error)

	// Logger returns the application logger.
	Logger() *zerolog.Logger

	// Output returns the selected output format ("text" or "json").
	Output() string

	// Version information.
	Version() string
	Commit() string
	Date() string
}
