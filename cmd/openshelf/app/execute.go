package app

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/openshelf/openshelf/cmd/openshelf/cmd"
)

// Execute runs the openshelf CLI with the given arguments.
func (a *App) Execute(ctx context.Context, args []string) error {
	rootCmd := a.createRootCommand()
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

func (a *App) createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "openshelf",
		Short:   "Bibliographic record import CLI",
		Version: a.version,
		Long: `Openshelf imports binary MARC bibliographic records into a catalog,
matching each record against existing editions and either creating new
entries or merging new information into existing ones.

The catalog lives in PostgreSQL (--store-dsn) or a YAML file
(--store-file); with neither, imports run against an empty in-memory
catalog and are discarded on exit.`,
		PersistentPreRunE: a.setupCommand,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	rootCmd.PersistentFlags().StringVar(&a.config.ConfigFile, "config", "", "config file (default is $HOME/.openshelf.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&a.config.Verbose, "verbose", "v", false, "verbose output (shortcut for --log-level=debug)")
	rootCmd.PersistentFlags().BoolVarP(&a.config.Quiet, "quiet", "q", false, "minimal output (shortcut for --log-level=warn)")
	rootCmd.PersistentFlags().BoolVar(&a.config.NoColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().StringVarP(&a.config.Output, "output", "o", a.config.Output, "output format: text, json")
	rootCmd.PersistentFlags().StringVar(&a.config.LogLevel, "log-level", a.config.LogLevel, "log level: trace, debug, info, warn, error (overrides -v/-q)")
	rootCmd.PersistentFlags().StringVar(&a.config.StoreDSN, "store-dsn", a.config.StoreDSN, "PostgreSQL connection string for the catalog store")
	rootCmd.PersistentFlags().StringVar(&a.config.StoreFile, "store-file", a.config.StoreFile, "YAML catalog snapshot to load and save")

	rootCmd.SetVersionTemplate("openshelf {{.Version}}\n")

	rootCmd.AddCommand(cmd.NewImportCommand(a))
	rootCmd.AddCommand(cmd.NewInspectCommand(a))
	rootCmd.AddCommand(cmd.NewVersionCommand(a))

	return rootCmd
}

// setupCommand runs before any command: flags are parsed by now, so
// the logger is rebuilt with the final level.
func (a *App) setupCommand(_ *cobra.Command, _ []string) error {
	logger := NewLogger(a.config)
	a.logger = &logger
	return nil
}

// Output returns the selected output format.
func (a *App) Output() string { return a.config.Output }
