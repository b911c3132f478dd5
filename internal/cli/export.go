package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/nornir-works/urd/internal/catalog"
	"github.com/nornir-works/urd/internal/store"
)

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		database   string
		output     string
		runID      string
		class      string
		attributed bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a stored catalog or run result as CSV",
		Long: `Write the imported catalog back out as CSV. With --run, export one
class of a recorded run instead; --attributed appends the parent
attribution columns to dependent output.

Example:
  urd export --db catalog.db --output catalog.csv
  urd export --db catalog.db --run 0190… --class dependent --attributed`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if class != "independent" && class != "dependent" {
				return NewExitError(ExitCommandError, fmt.Sprintf("unknown class %q", class))
			}
			if attributed && class != "dependent" {
				return NewExitError(ExitCommandError, "--attributed requires --class dependent")
			}

			st, err := store.Open(database)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to open database", err)
			}
			defer st.Close()

			events, err := st.ReadAllEvents(cmd.Context())
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to read catalog", err)
			}

			if runID == "" {
				return writeTo(cmd, output, func(w io.Writer) error {
					return catalog.WriteCatalog(w, canonicalHeader, events)
				})
			}

			if _, err := st.GetRun(cmd.Context(), runID); err != nil {
				return WrapExitError(ExitCommandError, "failed to load run", err)
			}
			cls, err := st.ReadClassifications(cmd.Context(), runID)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to load classifications", err)
			}

			var (
				selected []catalog.Event
				attrs    []catalog.Attribution
			)
			for _, ev := range events {
				c, ok := cls[ev.ID]
				if !ok || c.Class != class {
					continue
				}
				selected = append(selected, ev)
				if attributed && c.Attr != nil {
					attrs = append(attrs, *c.Attr)
				}
			}

			return writeTo(cmd, output, func(w io.Writer) error {
				if attributed {
					return catalog.WriteAttributed(w, canonicalHeader, selected, attrs)
				}
				return catalog.WriteCatalog(w, canonicalHeader, selected)
			})
		},
	}

	cmd.Flags().StringVar(&database, "db", "", "path to SQLite database (required)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output CSV (default stdout)")
	cmd.Flags().StringVar(&runID, "run", "", "export one class of this recorded run")
	cmd.Flags().StringVar(&class, "class", "independent", "class to export with --run (independent|dependent)")
	cmd.Flags().BoolVar(&attributed, "attributed", false, "append parent attribution columns")
	_ = cmd.MarkFlagRequired("db")
	return cmd
}
