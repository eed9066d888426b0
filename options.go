package openshelf

import (
	"github.com/rs/zerolog"

	"github.com/openshelf/openshelf/pkg/errors"
	"github.com/openshelf/openshelf/pkg/store"
)

// Option is a function that configures an Openshelf instance.
type Option func(*config) error

// config holds the assembled dependencies for one instance.
type config struct {
	store  store.Store
	logger *zerolog.Logger
}

func newConfig() *config {
	return &config{}
}

func (c *config) validate() error {
	if c.store == nil {
		return errors.NewConfigError("openshelf", "a catalog store is required", nil)
	}
	return nil
}

// WithStore configures the catalog store imports are committed to.
// A store is required.
func WithStore(s store.Store) Option {
	return func(c *config) error {
		if s == nil {
			return errors.NewConfigError("openshelf", "store cannot be nil", nil)
		}
		c.store = s
		return nil
	}
}

// WithLogger configures the logger used for pipeline diagnostics.
// Defaults to the package-level logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(c *config) error {
		c.logger = logger
		return nil
	}
}
