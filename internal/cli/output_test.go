package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExitErrorMessage(t *testing.T) {
	plain := NewExitError(ExitCommandError, "no workspace selected")
	assert.Equal(t, "no workspace selected", plain.Error())

	wrapped := WrapExitError(ExitCommandError, "opening state database", errors.New("disk full"))
	assert.Equal(t, "opening state database: disk full", wrapped.Error())
	assert.Equal(t, "disk full", errors.Unwrap(wrapped).Error())
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "x")))
	assert.Equal(t, ExitFailure, GetExitCode(NewExitError(ExitFailure, "x")))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")), "non-exit errors default to failure")
	assert.Equal(t, ExitCommandError, GetExitCode(fmt.Errorf("outer: %w", NewExitError(ExitCommandError, "inner"))))
}

func TestOutputFormatterJSON(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "json", Writer: &buf}

	require.NoError(t, f.Success(map[string]string{"id": "ws-1"}))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Nil(t, resp.Error)

	buf.Reset()
	require.NoError(t, f.Error(ErrCodeBlocked, "commit blocked", nil))
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeBlocked, resp.Error.Code)
}

func TestOutputFormatterText(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "text", Writer: &buf}

	require.NoError(t, f.Success("staged Actor"))
	assert.Equal(t, "staged Actor\n", buf.String())

	buf.Reset()
	require.NoError(t, f.Error(ErrCodeConflict, "repository changed", nil))
	assert.Contains(t, buf.String(), "Error [E102]: repository changed")
}

func TestParseAttrs(t *testing.T) {
	attrs, err := parseAttrs([]string{"ownerId=team-a", "lifecycleStatus=active", "note=a=b"})
	require.NoError(t, err)
	assert.Equal(t, "team-a", attrs["ownerId"])
	assert.Equal(t, "a=b", attrs["note"], "values may contain '='")

	_, err = parseAttrs([]string{"noequals"})
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = parseAttrs([]string{"=value"})
	require.Error(t, err)
}

func TestLoadProfileDefault(t *testing.T) {
	table, err := LoadProfile("")
	require.NoError(t, err)
	assert.Equal(t, "standard", table.Name())
}

func TestLoadProfileMissingDir(t *testing.T) {
	_, err := LoadProfile("/nonexistent/profile/dir")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "not found")
}
