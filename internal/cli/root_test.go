package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoot_RejectsInvalidFormat(t *testing.T) {
	_, err := execute(t, "window-info", "--model", "gk", "--magnitude", "6", "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestRoot_ListsSubcommands(t *testing.T) {
	cmd := NewRootCommand()
	names := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{
		"decluster", "decluster-table", "decluster-fixed", "decluster-reasenberg",
		"run", "window", "window-info", "ocean-class", "parse-pb2002",
		"import", "export", "runs",
	} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}
