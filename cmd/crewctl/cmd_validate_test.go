package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCrewYAML = `
kind: Crew
name: demo
agents:
  - name: w
    backend: ollama
tasks:
  - name: A
    agent: w
    prompt: "hi {x}"
    result_key: a
shared_context:
  x: "1"
`

func writeCrewFile(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "crew.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleCrewYAML), 0o644))
	return path
}

func TestValidateCommandAcceptsWellFormedCrewFile(t *testing.T) {
	path := writeCrewFile(t)
	cmd := newValidateCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{path})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "crew is valid")
}

func TestValidateCommandReportsStructuralError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
kind: Crew
name: demo
tasks:
  - name: A
    agent: ghost
    prompt: hi
`), 0o644))

	cmd := newValidateCmd()
	cmd.SetArgs([]string{path})
	cmd.SetOut(&bytes.Buffer{})
	err := cmd.Execute()
	assert.Error(t, err)
}

func TestEnvOrDefaultFallsBackWhenUnset(t *testing.T) {
	assert.Equal(t, "fallback", envOrDefault("CREWCTL_TEST_UNSET_VAR", "fallback"))
	t.Setenv("CREWCTL_TEST_SET_VAR", "value")
	assert.Equal(t, "value", envOrDefault("CREWCTL_TEST_SET_VAR", "fallback"))
}
