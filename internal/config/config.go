// Package config loads and validates run configuration written in CUE.
// A config file is unified against the embedded #Run schema, so model
// selection, parameter ranges, and defaults are all enforced by the
// schema before any catalog is read.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/nornir-works/urd/internal/decluster"
	"github.com/nornir-works/urd/internal/reasenberg"
	"github.com/nornir-works/urd/internal/window"
)

//go:embed schema.cue
var schemaSource string

// Model selector values accepted by the schema.
const (
	ModelGK         = "gk"
	ModelTable      = "gk-table"
	ModelFixed      = "fixed"
	ModelReasenberg = "reasenberg"
)

// Mode selector values accepted by the schema.
const (
	ModeSingleClaim = "single-claim"
	ModeReevaluate  = "reevaluate"
)

// Run is a fully validated run configuration.
type Run struct {
	Model       string
	Mode        string
	Scale       float64
	SkipInvalid bool

	// Fixed holds the constants for model "fixed".
	Fixed struct {
		DistanceKm float64
		WindowDays float64
	}

	// Reasenberg holds the tuning parameters for model "reasenberg".
	Reasenberg reasenberg.Params
}

// Error is a config validation error with source position.
type Error struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Load reads and validates a CUE config file.
func Load(path string) (*Run, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	return Parse(src, path)
}

// Parse validates CUE config source against the embedded schema.
func Parse(src []byte, filename string) (*Run, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("config: internal schema error: %w", err)
	}

	user := ctx.CompileBytes(src, cue.Filename(filename))
	if err := user.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	unified := schema.LookupPath(cue.ParsePath("#Run")).Unify(user)
	if err := unified.Validate(cue.Concrete(true), cue.Final()); err != nil {
		return nil, formatCUEError(err)
	}

	return extract(unified)
}

// extract pulls the validated fields out of the unified value. The schema
// has already rejected bad values, so lookups here only fail on internal
// schema drift.
func extract(v cue.Value) (*Run, error) {
	run := &Run{}
	var err error

	if run.Model, err = stringField(v, "model"); err != nil {
		return nil, err
	}
	if run.Mode, err = stringField(v, "mode"); err != nil {
		return nil, err
	}
	if run.Scale, err = floatField(v, "scale"); err != nil {
		return nil, err
	}
	skip := v.LookupPath(cue.ParsePath("skip_invalid"))
	if run.SkipInvalid, err = skip.Bool(); err != nil {
		return nil, formatCUEError(err)
	}

	switch run.Model {
	case ModelFixed:
		if run.Fixed.DistanceKm, err = floatField(v, "fixed.distance_km"); err != nil {
			return nil, err
		}
		if run.Fixed.WindowDays, err = floatField(v, "fixed.window_days"); err != nil {
			return nil, err
		}
	case ModelReasenberg:
		if run.Reasenberg.RFact, err = floatField(v, "reasenberg.rfact"); err != nil {
			return nil, err
		}
		if run.Reasenberg.TauMinDays, err = floatField(v, "reasenberg.tau_min_days"); err != nil {
			return nil, err
		}
		if run.Reasenberg.TauMaxDays, err = floatField(v, "reasenberg.tau_max_days"); err != nil {
			return nil, err
		}
		if run.Reasenberg.P, err = floatField(v, "reasenberg.p"); err != nil {
			return nil, err
		}
		if run.Reasenberg.XMeff, err = floatField(v, "reasenberg.xmeff"); err != nil {
			return nil, err
		}
		if err := run.Reasenberg.Validate(); err != nil {
			return nil, err
		}
	}

	return run, nil
}

func stringField(v cue.Value, path string) (string, error) {
	field := v.LookupPath(cue.ParsePath(path))
	if !field.Exists() {
		return "", &Error{Field: path, Message: "required field missing", Pos: v.Pos()}
	}
	s, err := field.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func floatField(v cue.Value, path string) (float64, error) {
	field := v.LookupPath(cue.ParsePath(path))
	if !field.Exists() {
		return 0, &Error{Field: path, Message: "required field missing", Pos: v.Pos()}
	}
	f, err := field.Float64()
	if err != nil {
		return 0, formatCUEError(err)
	}
	return f, nil
}

// IsReasenberg reports whether the run uses the adaptive clustering pass
// instead of a window model.
func (r *Run) IsReasenberg() bool {
	return r.Model == ModelReasenberg
}

// WindowModel builds the configured window model, with the scale factor
// applied. It is an error to call this for a reasenberg run.
func (r *Run) WindowModel() (window.Model, error) {
	var base window.Model
	switch r.Model {
	case ModelGK:
		base = window.GardnerKnopoff{}
	case ModelTable:
		base = window.Table{}
	case ModelFixed:
		base = window.Fixed{DistanceKm: r.Fixed.DistanceKm, Days: r.Fixed.WindowDays}
	case ModelReasenberg:
		return nil, fmt.Errorf("config: model %q has no window model", r.Model)
	default:
		return nil, fmt.Errorf("config: unknown model %q", r.Model)
	}
	if r.Scale == 1 {
		return base, nil
	}
	scaled, err := window.NewScaled(base, r.Scale)
	if err != nil {
		return nil, err
	}
	return scaled, nil
}

// DeclusterMode maps the mode selector to an engine mode.
func (r *Run) DeclusterMode() (decluster.Mode, error) {
	switch r.Mode {
	case ModeSingleClaim:
		return decluster.SingleClaim, nil
	case ModeReevaluate:
		return decluster.Reevaluate, nil
	default:
		return 0, fmt.Errorf("config: unknown mode %q", r.Mode)
	}
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	cfgErr := &Error{Field: "config", Message: first.Error()}
	// Disjunction failures carry no source position; Error.Error falls
	// back to a plain field:message line for those.
	if positions := errors.Positions(first); len(positions) > 0 {
		cfgErr.Pos = positions[0]
	}
	return cfgErr
}
