package cli

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad flag")))
	assert.Equal(t, ExitFailure, GetExitCode(WrapExitError(ExitFailure, "run failed", errors.New("boom"))))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain error")))

	wrapped := fmt.Errorf("outer: %w", NewExitError(ExitCommandError, "inner"))
	assert.Equal(t, ExitCommandError, GetExitCode(wrapped))
}

func TestExitError_MessageAndUnwrap(t *testing.T) {
	inner := errors.New("no such file")
	err := WrapExitError(ExitCommandError, "failed to open input", inner)
	assert.Equal(t, "failed to open input: no such file", err.Error())
	assert.ErrorIs(t, err, inner)

	bare := NewExitError(ExitFailure, "scenario failed")
	assert.Equal(t, "scenario failed", bare.Error())
}

func TestOutputFormatter_Text(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "text", Writer: &buf}
	require.NoError(t, f.Success("all good"))
	assert.Equal(t, "all good\n", buf.String())
}

func TestOutputFormatter_JSON(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "json", Writer: &buf}
	require.NoError(t, f.Success(map[string]int{"events": 3}))
	assert.JSONEq(t, `{"status":"ok","data":{"events":3}}`, buf.String())

	buf.Reset()
	require.NoError(t, f.Error("bad catalog", nil))
	assert.JSONEq(t, `{"status":"error","error":{"message":"bad catalog"}}`, buf.String())
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	var out, errOut bytes.Buffer
	f := &OutputFormatter{Format: "json", Writer: &out, ErrWriter: &errOut, Verbose: true}
	f.VerboseLog("processed %d events", 12)
	assert.Empty(t, out.String())
	assert.Equal(t, "processed 12 events\n", errOut.String())

	f.Verbose = false
	errOut.Reset()
	f.VerboseLog("quiet")
	assert.Empty(t, errOut.String())
}
