package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/openshelf/openshelf/pkg/errors"
	"github.com/openshelf/openshelf/pkg/load"
	"github.com/openshelf/openshelf/pkg/logging"
)

// NewImportCommand creates the import command.
func NewImportCommand(app Interface) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.mrc>",
		Short: "Import MARC records into the catalog",
		Long: `Import reads a file of concatenated binary MARC records and loads
each one into the catalog store, printing what happened to the edition,
work and authors of every record.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(app, cmd, args[0])
		},
	}
}

func runImport(app Interface, cmd *cobra.Command, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.WrapIO("read", path, err)
	}

	shelf, err := app.Openshelf(cmd.Context())
	if err != nil {
		return err
	}

	records, err := splitRecords(data)
	if err != nil {
		return err
	}

	failures := 0
	for i, raw := range records {
		ctx := logging.WithField(cmd.Context(), "record", i+1)
		result, err := shelf.Import(ctx, raw)
		if err != nil {
			failures++
			printImportError(cmd, app.Output(), i+1, err)
			continue
		}
		printImportResult(cmd, app.Output(), i+1, result)
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d records failed", failures, len(records))
	}
	return nil
}

// splitRecords walks the concatenated length-prefixed records in a
// .mrc file. A corrupt length prefix aborts the walk: there is no way
// to find the next record boundary.
func splitRecords(data []byte) ([][]byte, error) {
	var records [][]byte
	pos := 0
	for pos < len(data) {
		// Tolerate newlines between records.
		if data[pos] == '\n' || data[pos] == '\r' {
			pos++
			continue
		}
		if pos+5 > len(data) {
			return nil, errors.NewParseError("length", pos, "truncated length prefix")
		}
		n, err := strconv.Atoi(string(data[pos : pos+5]))
		if err != nil || n <= 0 || pos+n > len(data) {
			return nil, errors.NewParseError("length", pos, "unreadable length prefix")
		}
		records = append(records, data[pos:pos+n])
		pos += n
	}
	return records, nil
}

func printImportResult(cmd *cobra.Command, format string, n int, result *load.Result) {
	if format == "json" {
		out, _ := json.Marshal(result)
		cmd.Println(string(out))
		return
	}
	cmd.Printf("record %d: edition %s %s, work %s %s",
		n,
		result.Edition.ID, result.Edition.Status,
		result.Work.ID, result.Work.Status)
	for _, a := range result.Authors {
		cmd.Printf(", author %s %s", a.ID, a.Status)
	}
	cmd.Println()
}

func printImportError(cmd *cobra.Command, format string, n int, err error) {
	if format == "json" {
		out, _ := json.Marshal(map[string]any{
			"success": false,
			"record":  n,
			"error":   err.Error(),
		})
		cmd.Println(string(out))
		return
	}
	cmd.PrintErrf("record %d: failed: %v\n", n, err)
}
