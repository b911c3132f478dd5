// Package harness runs declustering conformance scenarios.
//
// A scenario is a YAML file bundling an inline CSV catalog with a model
// selection and the expected partition. Scenarios double as readable
// documentation of model behavior; golden files pin the exact output
// bytes so formatting regressions are caught too.
package harness

import (
	"bytes"
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nornir-works/urd/internal/catalog"
	"github.com/nornir-works/urd/internal/decluster"
	"github.com/nornir-works/urd/internal/reasenberg"
	"github.com/nornir-works/urd/internal/window"
)

// Scenario defines one conformance scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Model selects the window model: gk, gk-table, fixed, or reasenberg.
	Model string `yaml:"model"`

	// Mode selects ambiguity handling: single-claim (default) or
	// reevaluate. Ignored for reasenberg.
	Mode string `yaml:"mode,omitempty"`

	// Scale multiplies both window dimensions. Defaults to 1.
	Scale float64 `yaml:"scale,omitempty"`

	// Fixed holds the constants for model "fixed".
	Fixed *FixedWindow `yaml:"fixed,omitempty"`

	// Reasenberg overrides the default clustering parameters.
	Reasenberg *ReasenbergParams `yaml:"reasenberg,omitempty"`

	// Catalog is the inline CSV input.
	Catalog string `yaml:"catalog"`

	// Output selects what the scenario emits: independent (default),
	// dependent, or attributed.
	Output string `yaml:"output,omitempty"`

	// Expect lists the expected partition by event ID.
	Expect Expect `yaml:"expect,omitempty"`
}

// FixedWindow is the constant-window parameterization.
type FixedWindow struct {
	DistanceKm float64 `yaml:"distance_km"`
	WindowDays float64 `yaml:"window_days"`
}

// ReasenbergParams mirrors the five clustering parameters.
type ReasenbergParams struct {
	RFact      float64 `yaml:"rfact"`
	TauMinDays float64 `yaml:"tau_min_days"`
	TauMaxDays float64 `yaml:"tau_max_days"`
	P          float64 `yaml:"p"`
	XMeff      float64 `yaml:"xmeff"`
}

// Expect lists expected event IDs per class, in original input order.
type Expect struct {
	Independent []string `yaml:"independent,omitempty"`
	Dependent   []string `yaml:"dependent,omitempty"`
}

// Output selector values.
const (
	OutputIndependent = "independent"
	OutputDependent   = "dependent"
	OutputAttributed  = "attributed"
)

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected so typos fail loudly instead of silently validating nothing.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Catalog == "" {
		return fmt.Errorf("catalog is required")
	}

	switch s.Model {
	case "gk", "gk-table", "reasenberg":
	case "fixed":
		if s.Fixed == nil {
			return fmt.Errorf("model fixed requires a fixed block")
		}
	case "":
		return fmt.Errorf("model is required")
	default:
		return fmt.Errorf("unknown model %q", s.Model)
	}

	if s.Mode == "" {
		s.Mode = "single-claim"
	}
	if s.Mode != "single-claim" && s.Mode != "reevaluate" {
		return fmt.Errorf("unknown mode %q", s.Mode)
	}

	if s.Scale == 0 {
		s.Scale = 1
	}
	if s.Scale < 0 {
		return fmt.Errorf("scale must be positive, got %v", s.Scale)
	}

	if s.Output == "" {
		s.Output = OutputIndependent
	}
	switch s.Output {
	case OutputIndependent, OutputDependent, OutputAttributed:
	default:
		return fmt.Errorf("unknown output %q", s.Output)
	}

	return nil
}

// Result is the outcome of one scenario execution.
type Result struct {
	Catalog   *catalog.Catalog
	Partition *decluster.Result
	Output    []byte
}

// Run executes a scenario: parse the catalog, decluster it, render the
// selected output, and check the expected partition.
func Run(s *Scenario) (*Result, error) {
	cat, _, err := catalog.ReadCatalog(strings.NewReader(s.Catalog), catalog.Strict)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
	}

	partition, err := runPartition(s, cat.Events)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
	}

	var buf bytes.Buffer
	switch s.Output {
	case OutputIndependent:
		err = catalog.WriteCatalog(&buf, cat.Header, partition.Independent())
	case OutputDependent:
		err = catalog.WriteCatalog(&buf, cat.Header, partition.Dependent())
	case OutputAttributed:
		err = catalog.WriteAttributed(&buf, cat.Header, partition.Dependent(), partition.DependentAttribution())
	}
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
	}

	res := &Result{Catalog: cat, Partition: partition, Output: buf.Bytes()}
	if err := checkExpect(s, partition); err != nil {
		return res, fmt.Errorf("scenario %s: %w", s.Name, err)
	}
	return res, nil
}

func runPartition(s *Scenario, events []catalog.Event) (*decluster.Result, error) {
	if s.Model == "reasenberg" {
		params := reasenberg.DefaultParams()
		if s.Reasenberg != nil {
			params = reasenberg.Params{
				RFact:      s.Reasenberg.RFact,
				TauMinDays: s.Reasenberg.TauMinDays,
				TauMaxDays: s.Reasenberg.TauMaxDays,
				P:          s.Reasenberg.P,
				XMeff:      s.Reasenberg.XMeff,
			}
		}
		return reasenberg.Run(events, params)
	}

	var base window.Model
	switch s.Model {
	case "gk":
		base = window.GardnerKnopoff{}
	case "gk-table":
		base = window.Table{}
	case "fixed":
		base = window.Fixed{DistanceKm: s.Fixed.DistanceKm, Days: s.Fixed.WindowDays}
	}

	model := base
	if s.Scale != 1 {
		scaled, err := window.NewScaled(base, s.Scale)
		if err != nil {
			return nil, err
		}
		model = scaled
	}

	mode := decluster.SingleClaim
	if s.Mode == "reevaluate" {
		mode = decluster.Reevaluate
	}
	engine, err := decluster.New(model, mode)
	if err != nil {
		return nil, err
	}
	return engine.Run(events), nil
}

func checkExpect(s *Scenario, partition *decluster.Result) error {
	if s.Expect.Independent != nil {
		got := eventIDs(partition.Independent())
		if !slices.Equal(got, s.Expect.Independent) {
			return fmt.Errorf("independent mismatch: got %v, want %v", got, s.Expect.Independent)
		}
	}
	if s.Expect.Dependent != nil {
		got := eventIDs(partition.Dependent())
		if !slices.Equal(got, s.Expect.Dependent) {
			return fmt.Errorf("dependent mismatch: got %v, want %v", got, s.Expect.Dependent)
		}
	}
	return nil
}

func eventIDs(events []catalog.Event) []string {
	ids := make([]string, len(events))
	for i, ev := range events {
		ids[i] = ev.ID
	}
	return ids
}
