package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/labelscore-mcp/internal/labeling"
	"github.com/ironsheep/labelscore-mcp/internal/scoring"
)

func noEnv(string) (string, bool) { return "", false }

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func missingEnvFile(t *testing.T) string {
	t.Helper()
	// An explicit but empty dotenv file keeps tests independent of the
	// working directory.
	return writeFile(t, "empty.env", "")
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "xgboost", cfg.Model.Kind)
	assert.Equal(t, "eng", cfg.OCR.Language)
	assert.Equal(t, 30*time.Second, cfg.OCR.Timeout)
	assert.Equal(t, 1000, cfg.OCR.MinWidth)
	assert.Equal(t, BackendFile, cfg.Preferences.Backend)
	assert.Equal(t, DefaultPreferencesDir(), cfg.Preferences.Dir)
	assert.Equal(t, labeling.DefaultWeights, cfg.Weights)
	assert.Equal(t, 4, cfg.Batch.Concurrency)
	assert.False(t, cfg.HasModel())
}

func TestLoad_TOML(t *testing.T) {
	path := writeFile(t, "config.toml", `
[model]
kind = "mlp"
path = "/models/mlp.json"
scaler_path = "/models/scaler.json"

[ocr]
timeout = "5s"
binarize = true

[preferences]
backend = "memory"

[weights]
like = 2.0
dislike = 3.0
`)
	cfg, err := Load(LoadOptions{ConfigPath: path, EnvFile: missingEnvFile(t), Lookup: noEnv})
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "mlp", cfg.Model.Kind)
	assert.Equal(t, "/models/scaler.json", cfg.Model.ScalerPath)
	assert.Equal(t, 5*time.Second, cfg.OCR.Timeout)
	assert.True(t, cfg.OCR.Binarize)
	assert.Equal(t, "eng", cfg.OCR.Language, "unset keys keep defaults")
	assert.Equal(t, BackendMemory, cfg.Preferences.Backend)
	assert.Equal(t, labeling.Weights{Like: 2, Dislike: 3}, cfg.Weights)
	assert.True(t, cfg.HasModel())

	spec, err := cfg.ModelSpec()
	require.NoError(t, err)
	assert.Equal(t, scoring.KindMLP, spec.Kind)
	assert.Equal(t, "/models/mlp.json", spec.Path)
}

func TestLoad_UnknownKey(t *testing.T) {
	path := writeFile(t, "config.toml", "[model]\nkinds = \"mlp\"\n")
	_, err := Load(LoadOptions{ConfigPath: path, EnvFile: missingEnvFile(t), Lookup: noEnv})
	assert.ErrorContains(t, err, "model.kinds")
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(LoadOptions{ConfigPath: filepath.Join(t.TempDir(), "nope.toml"), Lookup: noEnv})
	assert.Error(t, err)
}

func TestLoad_InvalidTOML(t *testing.T) {
	path := writeFile(t, "config.toml", "[model\n")
	_, err := Load(LoadOptions{ConfigPath: path, EnvFile: missingEnvFile(t), Lookup: noEnv})
	assert.ErrorContains(t, err, "TOML")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "config.toml", "[model]\nkind = \"mlp\"\n[batch]\nconcurrency = 2\n")
	env := envMap(map[string]string{
		"LABELSCORE_MODEL_KIND":        "linear",
		"LABELSCORE_OCR_TIMEOUT":       "1m",
		"LABELSCORE_MODEL_ONNX_SCALED": "true",
		"LABELSCORE_WEIGHTS_DISLIKE":   "2.5",
	})
	cfg, err := Load(LoadOptions{ConfigPath: path, EnvFile: missingEnvFile(t), Lookup: env})
	require.NoError(t, err)

	assert.Equal(t, "linear", cfg.Model.Kind)
	assert.Equal(t, time.Minute, cfg.OCR.Timeout)
	assert.True(t, cfg.Model.ONNXScaled)
	assert.Equal(t, 2.5, cfg.Weights.Dislike)
	assert.Equal(t, 2, cfg.Batch.Concurrency)
}

func TestLoad_DotEnv(t *testing.T) {
	const key = "LABELSCORE_OCR_LANGUAGE"
	require.NoError(t, os.Unsetenv(key))
	t.Cleanup(func() { os.Unsetenv(key) })

	envFile := writeFile(t, "test.env", key+"=deu\n")
	path := writeFile(t, "config.toml", "")
	cfg, err := Load(LoadOptions{ConfigPath: path, EnvFile: envFile})
	require.NoError(t, err)
	assert.Equal(t, "deu", cfg.OCR.Language)
}

func TestApplyEnv_BadValues(t *testing.T) {
	for _, name := range []string{
		"LABELSCORE_OCR_TIMEOUT",
		"LABELSCORE_OCR_MIN_WIDTH",
		"LABELSCORE_OCR_BINARIZE",
		"LABELSCORE_WEIGHTS_LIKE",
	} {
		t.Run(name, func(t *testing.T) {
			err := Default().ApplyEnv(envMap(map[string]string{name: "not-a-value"}))
			assert.ErrorContains(t, err, name)
		})
	}
}

func TestEnvNames(t *testing.T) {
	names := EnvNames()
	assert.Contains(t, names, "LABELSCORE_LOG_LEVEL")
	assert.Contains(t, names, "LABELSCORE_MODEL_PATH")
	for _, n := range names {
		assert.Regexp(t, `^LABELSCORE_[A-Z_]+$`, n)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown kind", func(c *Config) { c.Model.Kind = "random_forest" }},
		{"zero timeout", func(c *Config) { c.OCR.Timeout = 0 }},
		{"negative width", func(c *Config) { c.OCR.MinWidth = -1 }},
		{"threshold range", func(c *Config) { c.OCR.Threshold = 300 }},
		{"unknown backend", func(c *Config) { c.Preferences.Backend = "redis" }},
		{"file backend without dir", func(c *Config) { c.Preferences.Dir = "" }},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }},
		{"negative weight", func(c *Config) { c.Weights.Like = -1 }},
		{"zero concurrency", func(c *Config) { c.Batch.Concurrency = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	cfg := Default()
	cfg.Preferences.Backend = BackendMemory
	cfg.Preferences.Dir = ""
	assert.NoError(t, cfg.Validate(), "memory backend needs no directory")
}

func TestPreprocessOptions(t *testing.T) {
	cfg := Default()
	cfg.OCR.MinWidth = 640
	cfg.OCR.Binarize = true
	cfg.OCR.Threshold = 100

	opts := cfg.PreprocessOptions()
	assert.Equal(t, 640, opts.MinWidth)
	assert.True(t, opts.Binarize)
	assert.Equal(t, uint8(100), opts.Threshold)
	assert.Nil(t, opts.Region)
}
