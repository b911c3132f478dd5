package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nornir-works/urd/internal/ocean"
)

// OceanClassOptions holds flags for the ocean-class command.
type OceanClassOptions struct {
	*RootOptions
	sourceOptions

	Output      string
	Method      string
	Coastline   string
	PB2002Types string
	OceanicKm   float64
	CoastalKm   float64
}

// NewOceanClassCommand creates the coastline-distance classification
// command. Each event is labeled oceanic, continental, or transitional
// by its distance to the nearest coastline vertex.
func NewOceanClassCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &OceanClassOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "ocean-class",
		Short: "Classify events as oceanic, continental, or transitional",
		Long: `Classify each catalog event by its distance to the nearest coastline
vertex: beyond --oceanic-km is oceanic, within --coastal-km is
continental, anything between is transitional.

The vertex source is selected with --method: ne and gshhg read a bare
lon,lat CSV from --coastline; pb2002 reads plate-boundary midpoints
from --pb2002-types as a coarse coastline proxy.

Example:
  urd ocean-class --input catalog.csv --coastline coast.csv
  urd ocean-class --db catalog.db --method pb2002 --pb2002-types types.csv`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOceanClass(cmd, opts)
		},
	}

	opts.sourceOptions.registerFlags(cmd)
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "classification CSV output (default stdout)")
	cmd.Flags().StringVar(&opts.Method, "method", "ne", "vertex source (ne|gshhg|pb2002)")
	cmd.Flags().StringVar(&opts.Coastline, "coastline", "", "coastline vertex CSV for ne/gshhg methods")
	cmd.Flags().StringVar(&opts.PB2002Types, "pb2002-types", "", "boundary segment CSV for the pb2002 method")
	cmd.Flags().Float64Var(&opts.OceanicKm, "oceanic-km", 200, "events beyond this distance are oceanic")
	cmd.Flags().Float64Var(&opts.CoastalKm, "coastal-km", 50, "events within this distance are continental")
	return cmd
}

func runOceanClass(cmd *cobra.Command, opts *OceanClassOptions) error {
	if err := opts.sourceOptions.validate(); err != nil {
		return err
	}
	thresholds := ocean.Thresholds{OceanicKm: opts.OceanicKm, CoastalKm: opts.CoastalKm}
	if err := thresholds.Validate(); err != nil {
		return WrapExitError(ExitCommandError, "invalid thresholds", err)
	}

	verts, err := loadVertices(opts)
	if err != nil {
		return err
	}
	if len(verts) == 0 {
		return NewExitError(ExitFailure, "no usable coastline vertices in input")
	}

	cat, err := opts.loadCatalog(cmd)
	if err != nil {
		return err
	}

	index := ocean.NewIndex(verts)
	cls := ocean.ClassifyEvents(cat.Events, index, thresholds)
	slog.Info("ocean classification complete",
		"events", len(cls),
		"vertices", index.Len(),
		"method", opts.Method,
	)

	return writeTo(cmd, opts.Output, func(w io.Writer) error {
		return ocean.WriteClassifications(w, cls)
	})
}

func loadVertices(opts *OceanClassOptions) ([]ocean.Vertex, error) {
	switch opts.Method {
	case "ne", "gshhg":
		if opts.Coastline == "" {
			return nil, NewExitError(ExitCommandError, fmt.Sprintf("method %q requires --coastline", opts.Method))
		}
		f, err := os.Open(opts.Coastline)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to open coastline", err)
		}
		defer f.Close()
		verts, err := ocean.ReadVertices(f)
		if err != nil {
			return nil, WrapExitError(ExitFailure, "failed to read coastline", err)
		}
		return verts, nil
	case "pb2002":
		if opts.PB2002Types == "" {
			return nil, NewExitError(ExitCommandError, "method \"pb2002\" requires --pb2002-types")
		}
		f, err := os.Open(opts.PB2002Types)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to open boundary segments", err)
		}
		defer f.Close()
		verts, err := ocean.ReadSegmentVertices(f)
		if err != nil {
			return nil, WrapExitError(ExitFailure, "failed to read boundary segments", err)
		}
		return verts, nil
	default:
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("unknown method %q (want ne, gshhg, or pb2002)", opts.Method))
	}
}

// NewParsePB2002Command creates the plate-boundary steps parser command.
func NewParsePB2002Command(rootOpts *RootOptions) *cobra.Command {
	var steps, output string

	cmd := &cobra.Command{
		Use:   "parse-pb2002",
		Short: "Parse plate-boundary steps into a segment type lookup CSV",
		Long: `Parse a Bird (2003) plate-boundary steps file into a CSV of boundary
segments: plate pair, boundary type, and step midpoint coordinates.
The output feeds ocean-class --method pb2002.

Example:
  urd parse-pb2002 --steps pb2002_steps.dat --output pb2002_types.csv`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(steps)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to open steps file", err)
			}
			defer f.Close()

			segs, err := ocean.ParseSteps(f)
			if err != nil {
				return WrapExitError(ExitFailure, "failed to parse steps", err)
			}
			slog.Info("parsed plate-boundary steps", "segments", len(segs))

			return writeTo(cmd, output, func(w io.Writer) error {
				return ocean.WriteSegments(w, segs)
			})
		},
	}

	cmd.Flags().StringVar(&steps, "steps", "", "plate-boundary steps file (required)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "segment CSV output (default stdout)")
	_ = cmd.MarkFlagRequired("steps")
	return cmd
}
