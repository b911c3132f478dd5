package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/nornir-works/urd/internal/config"
	"github.com/nornir-works/urd/internal/decluster"
	"github.com/nornir-works/urd/internal/reasenberg"
)

// NewRunCommand creates the config-driven run command. The CUE config
// file carries the model selection and parameters; command flags only
// pick the catalog source and outputs.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DeclusterOptions{RootOptions: rootOpts}
	var configPath string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Decluster using a CUE config file",
		Long: `Partition a catalog with model, mode, scale, and parameters taken
from a validated CUE config file.

Example:
  urd run --config run.cue --input catalog.csv --output mainshocks.csv
  urd run --config run.cue --db catalog.db --save`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFromConfig(cmd, opts, configPath)
		},
	}

	opts.registerFlags(cmd)
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "run configuration in CUE (required)")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}

func runFromConfig(cmd *cobra.Command, opts *DeclusterOptions, configPath string) error {
	if err := opts.sourceOptions.validate(); err != nil {
		return err
	}

	run, err := config.Load(configPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid config", err)
	}
	slog.Debug("config loaded", "model", run.Model, "mode", run.Mode, "scale", run.Scale)

	opts.SkipInvalid = opts.SkipInvalid || run.SkipInvalid
	cat, err := opts.loadCatalog(cmd)
	if err != nil {
		return err
	}

	var res *decluster.Result
	params := map[string]any{}

	if run.IsReasenberg() {
		res, err = reasenberg.Run(cat.Events, run.Reasenberg)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid parameters", err)
		}
		params = map[string]any{
			"rfact":        run.Reasenberg.RFact,
			"tau_min_days": run.Reasenberg.TauMinDays,
			"tau_max_days": run.Reasenberg.TauMaxDays,
			"p":            run.Reasenberg.P,
			"xmeff":        run.Reasenberg.XMeff,
		}
	} else {
		model, err := run.WindowModel()
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid config", err)
		}
		mode, err := run.DeclusterMode()
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid config", err)
		}
		engine, err := decluster.New(model, mode)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to build engine", err)
		}
		res = engine.Run(cat.Events)
		if run.Model == config.ModelFixed {
			params = map[string]any{
				"distance_km": run.Fixed.DistanceKm,
				"window_days": run.Fixed.WindowDays,
			}
		}
	}

	return emitResult(cmd, opts, cat, res, run.Model, run.Mode, run.Scale, params)
}
