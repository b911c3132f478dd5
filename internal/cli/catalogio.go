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

// sourceOptions selects where the catalog comes from: a CSV file (or
// stdin) or an imported SQLite database. Exactly one must be set.
type sourceOptions struct {
	Input       string
	Database    string
	SkipInvalid bool
}

func (s *sourceOptions) registerFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&s.Input, "input", "i", "", "input catalog CSV (use - for stdin)")
	cmd.Flags().StringVar(&s.Database, "db", "", "read catalog from a SQLite database")
	cmd.Flags().BoolVar(&s.SkipInvalid, "skip-invalid", false, "skip malformed catalog rows instead of aborting")
}

func (s *sourceOptions) validate() error {
	if (s.Input == "") == (s.Database == "") {
		return NewExitError(ExitCommandError, "exactly one of --input or --db is required")
	}
	return nil
}

// loadCatalog reads the catalog from the configured source. Database
// catalogs carry the canonical header; CSV catalogs keep their source
// header for verbatim pass-through.
func (s *sourceOptions) loadCatalog(cmd *cobra.Command) (*catalog.Catalog, error) {
	if s.Database != "" {
		st, err := store.Open(s.Database)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer st.Close()

		events, err := st.ReadAllEvents(cmd.Context())
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to read catalog", err)
		}
		return &catalog.Catalog{Header: canonicalHeader, Events: events}, nil
	}

	var r io.Reader
	if s.Input == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(s.Input)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to open input", err)
		}
		defer f.Close()
		r = f
	}

	mode := catalog.Strict
	if s.SkipInvalid {
		mode = catalog.Lenient
	}
	cat, skipped, err := catalog.ReadCatalog(r, mode)
	if err != nil {
		return nil, WrapExitError(ExitFailure, "failed to parse catalog", err)
	}
	if skipped > 0 {
		slog.Warn("skipped invalid catalog rows", "count", skipped)
	}
	return cat, nil
}

var canonicalHeader = []string{
	catalog.ColEventID,
	catalog.ColMagnitude,
	catalog.ColTimestamp,
	catalog.ColLatitude,
	catalog.ColLongitude,
	catalog.ColDepthKm,
}

// writeTo runs fn against the named file, or stdout for "" and "-".
func writeTo(cmd *cobra.Command, path string, fn func(io.Writer) error) error {
	if path == "" || path == "-" {
		return fn(cmd.OutOrStdout())
	}
	f, err := os.Create(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create output", err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return WrapExitError(ExitCommandError, fmt.Sprintf("failed to close %s", path), err)
	}
	return nil
}
