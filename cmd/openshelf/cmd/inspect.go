package cmd

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/openshelf/openshelf/pkg/errors"
	"github.com/openshelf/openshelf/pkg/marc"
)

// NewInspectCommand creates the inspect command.
func NewInspectCommand(app Interface) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file.mrc>",
		Short: "Decode MARC records and print their fields",
		Long: `Inspect parses a file of binary MARC records and prints every tag,
indicator and subfield without touching the catalog store.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(app, cmd, args[0])
		},
	}
}

func runInspect(app Interface, cmd *cobra.Command, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.WrapIO("read", path, err)
	}

	records, err := splitRecords(data)
	if err != nil {
		return err
	}

	for i, raw := range records {
		rec, err := marc.Parse(raw)
		if err != nil {
			cmd.PrintErrf("record %d: failed: %v\n", i+1, err)
			continue
		}
		printRecord(cmd, app.Output(), i+1, rec)
	}
	return nil
}

func printRecord(cmd *cobra.Command, format string, n int, rec *marc.Record) {
	if format == "json" {
		out, _ := json.Marshal(rec)
		cmd.Println(string(out))
		return
	}

	cmd.Printf("record %d leader %s\n", n, rec.Leader)
	for _, f := range rec.Fields {
		if f.IsControl() || f.Data == nil {
			cmd.Printf("  %s %s\n", f.Tag, f.Value)
			continue
		}
		cmd.Printf("  %s %c%c", f.Tag, orBlank(f.Data.Ind1), orBlank(f.Data.Ind2))
		for _, sf := range f.Data.Subfields {
			cmd.Printf(" $%c %s", sf.Code, sf.Value)
		}
		cmd.Println()
	}
}

func orBlank(b byte) byte {
	if b == 0 {
		return ' '
	}
	return b
}
