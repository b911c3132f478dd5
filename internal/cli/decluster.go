package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/nornir-works/urd/internal/catalog"
	"github.com/nornir-works/urd/internal/decluster"
	"github.com/nornir-works/urd/internal/reasenberg"
	"github.com/nornir-works/urd/internal/store"
	"github.com/nornir-works/urd/internal/window"
)

// DeclusterOptions holds flags shared by the window-model commands.
type DeclusterOptions struct {
	*RootOptions
	sourceOptions

	Output          string
	DependentOutput string
	Attributed      bool
	Scale           float64
	Mode            string
	Save            bool

	// RunIDs allows overriding the run ID generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	RunIDs store.RunIDGenerator
}

func (o *DeclusterOptions) registerFlags(cmd *cobra.Command) {
	o.sourceOptions.registerFlags(cmd)
	cmd.Flags().StringVarP(&o.Output, "output", "o", "", "independent catalog output (default stdout)")
	cmd.Flags().StringVar(&o.DependentOutput, "dependent-output", "", "also write dependent events to this file")
	cmd.Flags().BoolVar(&o.Attributed, "attributed", false, "append parent attribution columns to dependent output")
	cmd.Flags().BoolVar(&o.Save, "save", false, "record the run in the database (requires --db)")
}

func (o *DeclusterOptions) registerWindowFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&o.Scale, "scale", 1.0, "uniform multiplier for both window dimensions")
	cmd.Flags().StringVar(&o.Mode, "mode", "single-claim", "ambiguity handling (single-claim|reevaluate)")
}

// NewDeclusterCommand creates the continuous Gardner-Knopoff command.
func NewDeclusterCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DeclusterOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "decluster",
		Short: "Decluster with continuous Gardner-Knopoff windows",
		Long: `Partition a catalog using the continuous Gardner-Knopoff window
formulas. Independent events go to --output, dependent events optionally
to --dependent-output.

Example:
  urd decluster --input catalog.csv --output mainshocks.csv
  urd decluster --db catalog.db --save --scale 0.75`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWindowModel(cmd, opts, window.GardnerKnopoff{}, nil)
		},
	}

	opts.registerFlags(cmd)
	opts.registerWindowFlags(cmd)
	return cmd
}

// NewDeclusterTableCommand creates the published-table command.
func NewDeclusterTableCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DeclusterOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "decluster-table",
		Short: "Decluster with the published Gardner-Knopoff lookup table",
		Long: `Partition a catalog using the published 1974 lookup table instead of
the continuous window formulas. Magnitudes between table rows take the
row at or below them.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWindowModel(cmd, opts, window.Table{}, nil)
		},
	}

	opts.registerFlags(cmd)
	opts.registerWindowFlags(cmd)
	return cmd
}

// NewDeclusterFixedCommand creates the constant-window command.
func NewDeclusterFixedCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DeclusterOptions{RootOptions: rootOpts}
	var radiusKm, windowDays float64

	cmd := &cobra.Command{
		Use:   "decluster-fixed",
		Short: "Decluster with a constant space-time window",
		Long: `Partition a catalog using the same window for every magnitude. The
defaults follow the A1b parameterization (83.2 km, 95.6 days).

Example:
  urd decluster-fixed --input catalog.csv --radius-km 50 --window-days 30`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if radiusKm <= 0 || windowDays <= 0 {
				return NewExitError(ExitCommandError, "--radius-km and --window-days must be positive")
			}
			model := window.Fixed{DistanceKm: radiusKm, Days: windowDays}
			params := map[string]any{"distance_km": radiusKm, "window_days": windowDays}
			return runWindowModel(cmd, opts, model, params)
		},
	}

	opts.registerFlags(cmd)
	opts.registerWindowFlags(cmd)
	cmd.Flags().Float64Var(&radiusKm, "radius-km", 83.2, "window radius in kilometers")
	cmd.Flags().Float64Var(&windowDays, "window-days", 95.6, "window length in days")
	return cmd
}

// NewDeclusterReasenbergCommand creates the adaptive clustering command.
func NewDeclusterReasenbergCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DeclusterOptions{RootOptions: rootOpts}
	params := reasenberg.DefaultParams()

	cmd := &cobra.Command{
		Use:   "decluster-reasenberg",
		Short: "Decluster with Reasenberg cluster analysis",
		Long: `Partition a catalog using Reasenberg (1985) interaction-based
clustering. Events are processed chronologically and clusters grow
adaptively with the sequence's largest magnitude.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.sourceOptions.validate(); err != nil {
				return err
			}
			cat, err := opts.loadCatalog(cmd)
			if err != nil {
				return err
			}
			res, err := reasenberg.Run(cat.Events, params)
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid parameters", err)
			}
			paramsJSON := map[string]any{
				"rfact":        params.RFact,
				"tau_min_days": params.TauMinDays,
				"tau_max_days": params.TauMaxDays,
				"p":            params.P,
				"xmeff":        params.XMeff,
			}
			return emitResult(cmd, opts, cat, res, "reasenberg", "", 1, paramsJSON)
		},
	}

	opts.registerFlags(cmd)
	cmd.Flags().Float64Var(&params.RFact, "rfact", params.RFact, "interaction radius multiplier")
	cmd.Flags().Float64Var(&params.TauMinDays, "tau-min", params.TauMinDays, "minimum lookback window in days")
	cmd.Flags().Float64Var(&params.TauMaxDays, "tau-max", params.TauMaxDays, "maximum lookback window in days")
	cmd.Flags().Float64Var(&params.P, "p", params.P, "Omori decay probability threshold")
	cmd.Flags().Float64Var(&params.XMeff, "xmeff", params.XMeff, "effective magnitude floor")
	return cmd
}

// runWindowModel is the shared executor for the box-test commands.
func runWindowModel(cmd *cobra.Command, opts *DeclusterOptions, base window.Model, params map[string]any) error {
	if err := opts.sourceOptions.validate(); err != nil {
		return err
	}

	model := base
	if opts.Scale != 1 {
		scaled, err := window.NewScaled(base, opts.Scale)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid scale", err)
		}
		model = scaled
	}

	var mode decluster.Mode
	switch opts.Mode {
	case "single-claim":
		mode = decluster.SingleClaim
	case "reevaluate":
		mode = decluster.Reevaluate
	default:
		return NewExitError(ExitCommandError, fmt.Sprintf("unknown mode %q", opts.Mode))
	}

	engine, err := decluster.New(model, mode)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to build engine", err)
	}

	cat, err := opts.loadCatalog(cmd)
	if err != nil {
		return err
	}

	res := engine.Run(cat.Events)
	return emitResult(cmd, opts, cat, res, base.Name(), opts.Mode, opts.Scale, params)
}

// emitResult writes the partition outputs and optionally records the run.
func emitResult(cmd *cobra.Command, opts *DeclusterOptions, cat *catalog.Catalog, res *decluster.Result, modelName, modeName string, scale float64, params map[string]any) error {
	independent, dependent := res.Counts()
	slog.Info("declustering complete",
		"model", modelName,
		"events", len(cat.Events),
		"independent", independent,
		"dependent", dependent,
	)

	err := writeTo(cmd, opts.Output, func(w io.Writer) error {
		return catalog.WriteCatalog(w, cat.Header, res.Independent())
	})
	if err != nil {
		return err
	}

	if opts.DependentOutput != "" {
		err := writeTo(cmd, opts.DependentOutput, func(w io.Writer) error {
			if opts.Attributed {
				return catalog.WriteAttributed(w, cat.Header, res.Dependent(), res.DependentAttribution())
			}
			return catalog.WriteCatalog(w, cat.Header, res.Dependent())
		})
		if err != nil {
			return err
		}
	}

	if opts.Save {
		if opts.Database == "" {
			return NewExitError(ExitCommandError, "--save requires --db")
		}
		return saveRun(cmd, opts, res, modelName, modeName, scale, params)
	}
	return nil
}

func saveRun(cmd *cobra.Command, opts *DeclusterOptions, res *decluster.Result, modelName, modeName string, scale float64, params map[string]any) error {
	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	paramsJSON := "{}"
	if len(params) > 0 {
		data, err := json.Marshal(params)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to encode parameters", err)
		}
		paramsJSON = string(data)
	}

	gen := opts.RunIDs
	if gen == nil {
		gen = store.UUIDv7Generator{}
	}
	rec := store.RunRecord{
		ID:        gen.Generate(),
		CreatedAt: time.Now().UTC(),
		Model:     modelName,
		Mode:      modeName,
		Scale:     scale,
		Params:    paramsJSON,
	}
	if err := st.SaveRun(cmd.Context(), rec, res); err != nil {
		return WrapExitError(ExitFailure, "failed to save run", err)
	}
	slog.Info("run saved", "id", rec.ID)
	return nil
}
