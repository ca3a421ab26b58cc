package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenariosAgainstGolden(t *testing.T) {
	scenarios, err := LoadScenarios(filepath.Join("testdata", "scenarios"))
	require.NoError(t, err)
	require.NotEmpty(t, scenarios)

	for _, scenario := range scenarios {
		t.Run(scenario.Name, func(t *testing.T) {
			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			defer result.Close()

			for _, failure := range CheckAssertions(result) {
				t.Error(failure)
			}
		})
	}
}

func TestLoadScenarioRejectsUnknownFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	writeFile(t, path, "name: bad\nsteps:\n  - op: open\n    bogus: true\n")

	_, err := LoadScenario(path)
	assert.Error(t, err)
}

func TestLoadScenarioRequiresNameAndSteps(t *testing.T) {
	dir := t.TempDir()

	noName := filepath.Join(dir, "noname.yaml")
	writeFile(t, noName, "description: no name here\nsteps:\n  - op: open\n")
	_, err := LoadScenario(noName)
	assert.ErrorContains(t, err, "missing name")

	noSteps := filepath.Join(dir, "nosteps.yaml")
	writeFile(t, noSteps, "name: empty\n")
	_, err = LoadScenario(noSteps)
	assert.ErrorContains(t, err, "no steps")
}

func TestRunRecordsBusEvents(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", "drag-connect-commit.yaml"))
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)
	defer result.Close()

	// One notification per applied change: two elements, one relationship.
	assert.Len(t, result.Events, 3)
	for _, event := range result.Events {
		assert.Equal(t, "id-1", event.WorkspaceID)
	}
	assert.Equal(t, "id-2", result.Refs["app"])
	assert.Equal(t, "id-3", result.Refs["svc"])
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestRunFailsOnUnknownOp(t *testing.T) {
	scenario := &Scenario{
		Name:  "broken",
		Steps: []Step{{Op: "open", Name: "x"}, {Op: "explode"}},
	}
	_, err := Run(scenario)
	require.ErrorContains(t, err, `unknown op "explode"`)
}
