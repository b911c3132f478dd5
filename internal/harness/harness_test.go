package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

const minimalCatalog = `  event_id,magnitude,timestamp,latitude,longitude
  solo,6,2020-01-01T00:00:00Z,35,139
`

func TestLoadScenario_Defaults(t *testing.T) {
	path := writeScenario(t, `name: defaults
description: defaults are filled in
model: gk
catalog: |
`+minimalCatalog)

	s, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "single-claim", s.Mode)
	assert.Equal(t, 1.0, s.Scale)
	assert.Equal(t, OutputIndependent, s.Output)
}

func TestLoadScenario_Rejections(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"missing name", "description: d\nmodel: gk\ncatalog: |\n" + minimalCatalog},
		{"missing description", "name: n\nmodel: gk\ncatalog: |\n" + minimalCatalog},
		{"missing catalog", "name: n\ndescription: d\nmodel: gk\n"},
		{"missing model", "name: n\ndescription: d\ncatalog: |\n" + minimalCatalog},
		{"unknown model", "name: n\ndescription: d\nmodel: bogus\ncatalog: |\n" + minimalCatalog},
		{"fixed without block", "name: n\ndescription: d\nmodel: fixed\ncatalog: |\n" + minimalCatalog},
		{"unknown mode", "name: n\ndescription: d\nmodel: gk\nmode: both\ncatalog: |\n" + minimalCatalog},
		{"unknown output", "name: n\ndescription: d\nmodel: gk\noutput: clusters\ncatalog: |\n" + minimalCatalog},
		{"unknown field", "name: n\ndescription: d\nmodel: gk\nwindow: 3\ncatalog: |\n" + minimalCatalog},
		{"not yaml", "{{{"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenario(t, tt.src))
			assert.Error(t, err)
		})
	}
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestRun_InvalidCatalogFails(t *testing.T) {
	s := &Scenario{
		Name:        "bad-catalog",
		Description: "catalog parse errors propagate",
		Model:       "gk",
		Mode:        "single-claim",
		Scale:       1,
		Output:      OutputIndependent,
		Catalog:     "event_id,magnitude,timestamp,latitude,longitude\nev1,NaN?,2020-01-01T00:00:00Z,35,139\n",
	}
	_, err := Run(s)
	assert.Error(t, err)
}

func TestRun_ExpectMismatchReported(t *testing.T) {
	s := &Scenario{
		Name:        "mismatch",
		Description: "wrong expectations fail the scenario",
		Model:       "gk",
		Mode:        "single-claim",
		Scale:       1,
		Output:      OutputIndependent,
		Catalog:     "event_id,magnitude,timestamp,latitude,longitude\nsolo,6,2020-01-01T00:00:00Z,35,139\n",
		Expect:      Expect{Independent: []string{"someone-else"}},
	}
	_, err := Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "independent mismatch")
}

// Each scenario under testdata/scenarios runs against its golden file in
// testdata/golden. Regenerate with: go test ./internal/harness -update
func TestScenarios_Golden(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		path := path
		t.Run(filepath.Base(path), func(t *testing.T) {
			scenario, err := LoadScenario(path)
			require.NoError(t, err)
			require.NoError(t, RunWithGolden(t, scenario))
		})
	}
}
