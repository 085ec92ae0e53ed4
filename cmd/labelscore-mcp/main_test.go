package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/labelscore-mcp/internal/labeling"
)

// runCLI executes the root command with an isolated config and dotenv file.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.toml")
	envPath := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(cfgPath, []byte("[preferences]\nbackend = \"memory\"\n"), 0o644))
	require.NoError(t, os.WriteFile(envPath, nil, 0o644))

	base := []string{"--config", cfgPath, "--env-file", envPath, "--log-file", filepath.Join(dir, "test.log")}

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, base...))
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const datasetCSV = `product,num_ingredients,num_liked_matches,num_disliked_matches,num_allergen_matches,suitability_score
oats,3,1,0,0,60
bar,3,0,1,0,35
mix,3,2,0,0,70
`

func TestRootCommand_Subcommands(t *testing.T) {
	cmd := newRootCommand()
	names := map[string]bool{}
	for _, c := range cmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "relabel", "evaluate", "version"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
	assert.True(t, cmd.SilenceUsage)
	assert.NotNil(t, cmd.PersistentFlags().Lookup("model"))
}

func TestVersionCommand(t *testing.T) {
	out, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "labelscore-mcp "+Version)
	assert.Contains(t, out, "Git commit:")
}

func TestRelabel_DefaultOutput(t *testing.T) {
	path := writeFile(t, "data.csv", datasetCSV)

	_, err := runCLI(t, "relabel", "--in", path)
	require.NoError(t, err)

	original, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, datasetCSV, string(original), "input must not be rewritten")

	updated := filepath.Join(filepath.Dir(path), "data_updated.csv")
	assert.Equal(t, updated, updatedPath(path))
	data, err := os.ReadFile(updated)
	require.NoError(t, err)
	assert.Contains(t, string(data), "oats,3,1,0,0,100.0")
}

func TestRelabel_InPlace(t *testing.T) {
	path := writeFile(t, "data.csv", datasetCSV)

	_, err := runCLI(t, "relabel", "--in", path, "--out", path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "oats,3,1,0,0,100.0", lines[1])
	assert.Equal(t, "bar,3,0,1,0,0.0", lines[2])

	matches, err := filepath.Glob(filepath.Join(filepath.Dir(path), "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, matches, "temporary file left behind")
}

func TestRelabel_StdoutWithWeights(t *testing.T) {
	path := writeFile(t, "data.csv", "num_ingredients,num_liked_matches,num_disliked_matches,num_allergen_matches\n4,1,1,0\n")

	out, err := runCLI(t, "relabel", "--in", path, "--out", "-", "--like-weight", "1", "--dislike-weight", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "4,1,1,0,50.0")

	// Input untouched when writing to stdout.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "suitability_score")
}

func TestRelabel_RowErrorsExitCode(t *testing.T) {
	path := writeFile(t, "data.csv", "num_ingredients,num_liked_matches,num_disliked_matches,num_allergen_matches\n1,x,0,0\n")

	_, err := runCLI(t, "relabel", "--in", path, "--out", filepath.Join(t.TempDir(), "out.csv"))
	require.Error(t, err)
	assert.Equal(t, ExitRows, exitCode(err))
}

func TestRelabel_InvalidWeights(t *testing.T) {
	path := writeFile(t, "data.csv", datasetCSV)

	_, err := runCLI(t, "relabel", "--in", path, "--like-weight=-1")
	require.Error(t, err)
	assert.Equal(t, ExitError, exitCode(err))
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestEvaluate_JSON(t *testing.T) {
	model := writeFile(t, "linear.json", `{"coef":[0,10,-15,-100],"intercept":50}`)
	data := writeFile(t, "data.csv", datasetCSV)

	out, err := runCLI(t, "evaluate", "--in", data, "--model-kind", "linear", "--model", model, "--json")
	require.NoError(t, err)

	var m labeling.Metrics
	require.NoError(t, json.Unmarshal([]byte(out), &m))
	assert.Equal(t, 3, m.N)
	assert.InDelta(t, 0, m.RMSE, 1e-9)
	assert.InDelta(t, 1, m.R2, 1e-9)
}

func TestEvaluate_RequiresModel(t *testing.T) {
	data := writeFile(t, "data.csv", datasetCSV)

	_, err := runCLI(t, "evaluate", "--in", data)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "needs a model")
}
