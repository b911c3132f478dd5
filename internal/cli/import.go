package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nornir-works/urd/internal/catalog"
	"github.com/nornir-works/urd/internal/store"
)

// importSummary is the payload printed after an import.
type importSummary struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
	Total    int `json:"total"`
}

func (s importSummary) String() string {
	return fmt.Sprintf("imported %d of %d events (%d rows skipped)", s.Imported, s.Total, s.Skipped)
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		input       string
		database    string
		skipInvalid bool
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a CSV catalog into a SQLite database",
		Long: `Parse a CSV catalog and load it into a SQLite database. Importing is
idempotent on event_id: rows already present are left untouched.

Example:
  urd import --db catalog.db --input catalog.csv`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader
			if input == "-" {
				r = cmd.InOrStdin()
			} else {
				f, err := os.Open(input)
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to open input", err)
				}
				defer f.Close()
				r = f
			}

			mode := catalog.Strict
			if skipInvalid {
				mode = catalog.Lenient
			}
			cat, skipped, err := catalog.ReadCatalog(r, mode)
			if err != nil {
				return WrapExitError(ExitFailure, "failed to parse catalog", err)
			}
			if skipped > 0 {
				slog.Warn("skipped invalid catalog rows", "count", skipped)
			}

			st, err := store.Open(database)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to open database", err)
			}
			defer st.Close()

			inserted, err := st.ImportEvents(cmd.Context(), cat.Events)
			if err != nil {
				return WrapExitError(ExitFailure, "failed to import events", err)
			}

			formatter := &OutputFormatter{
				Format:    rootOpts.Format,
				Writer:    cmd.OutOrStdout(),
				ErrWriter: cmd.ErrOrStderr(),
				Verbose:   rootOpts.Verbose,
			}
			return formatter.Success(importSummary{
				Imported: inserted,
				Skipped:  skipped,
				Total:    len(cat.Events),
			})
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "input catalog CSV (use - for stdin, required)")
	cmd.Flags().StringVar(&database, "db", "", "path to SQLite database (required)")
	cmd.Flags().BoolVar(&skipInvalid, "skip-invalid", false, "skip malformed catalog rows instead of aborting")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("db")
	return cmd
}
