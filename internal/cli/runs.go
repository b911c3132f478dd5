package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nornir-works/urd/internal/store"
)

// runListing is the payload printed by the runs command.
type runListing struct {
	Runs []runEntry `json:"runs"`
}

type runEntry struct {
	ID          string  `json:"id"`
	CreatedAt   string  `json:"created_at"`
	Model       string  `json:"model"`
	Mode        string  `json:"mode,omitempty"`
	Scale       float64 `json:"scale"`
	Independent int     `json:"independent"`
	Dependent   int     `json:"dependent"`
}

func (l runListing) String() string {
	if len(l.Runs) == 0 {
		return "no runs recorded"
	}
	var b strings.Builder
	for i, r := range l.Runs {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s  %s  model=%s scale=%g independent=%d dependent=%d",
			r.ID, r.CreatedAt, r.Model, r.Scale, r.Independent, r.Dependent)
	}
	return b.String()
}

// NewRunsCommand creates the run listing command.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	var database string

	cmd := &cobra.Command{
		Use:           "runs",
		Short:         "List recorded declustering runs",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := store.Open(database)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to open database", err)
			}
			defer st.Close()

			recs, err := st.ListRuns(cmd.Context())
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to list runs", err)
			}

			listing := runListing{Runs: make([]runEntry, len(recs))}
			for i, r := range recs {
				listing.Runs[i] = runEntry{
					ID:          r.ID,
					CreatedAt:   r.CreatedAt.Format(time.RFC3339),
					Model:       r.Model,
					Mode:        r.Mode,
					Scale:       r.Scale,
					Independent: r.Independent,
					Dependent:   r.Dependent,
				}
			}

			formatter := &OutputFormatter{
				Format:    rootOpts.Format,
				Writer:    cmd.OutOrStdout(),
				ErrWriter: cmd.ErrOrStderr(),
				Verbose:   rootOpts.Verbose,
			}
			return formatter.Success(listing)
		},
	}

	cmd.Flags().StringVar(&database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	return cmd
}
