// Package config loads server settings from defaults, a TOML file, a .env
// file and LABELSCORE_* environment variables, in increasing precedence.
// Command-line flags are applied on top by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/adrg/xdg"
	"github.com/joho/godotenv"

	"github.com/ironsheep/labelscore-mcp/internal/imaging"
	"github.com/ironsheep/labelscore-mcp/internal/labeling"
	"github.com/ironsheep/labelscore-mcp/internal/logger"
	"github.com/ironsheep/labelscore-mcp/internal/scoring"
)

const appName = "labelscore"

// Preference store backends.
const (
	BackendFile   = "file"
	BackendMemory = "memory"
)

// Config is the complete server configuration, one TOML table per section.
type Config struct {
	Model       ModelConfig       `toml:"model"`
	OCR         OCRConfig         `toml:"ocr"`
	Preferences PreferencesConfig `toml:"preferences"`
	Log         LogConfig         `toml:"log"`
	Weights     labeling.Weights  `toml:"weights"`
	Batch       BatchConfig       `toml:"batch"`
}

// ModelConfig locates the scoring model. The onnx_* keys apply only to the
// onnx kind.
type ModelConfig struct {
	Kind        string `toml:"kind"`
	Path        string `toml:"path"`
	ScalerPath  string `toml:"scaler_path"`
	ONNXLibrary string `toml:"onnx_library"`
	ONNXInput   string `toml:"onnx_input"`
	ONNXOutput  string `toml:"onnx_output"`
	ONNXScaled  bool   `toml:"onnx_scaled"`
}

// OCRConfig controls Tesseract and label preprocessing.
type OCRConfig struct {
	Language  string        `toml:"language"`
	Timeout   time.Duration `toml:"timeout"`
	MinWidth  int           `toml:"min_width"`
	Binarize  bool          `toml:"binarize"`
	Threshold int           `toml:"threshold"`
}

// PreferencesConfig selects the preference store; Dir is used by the file
// backend only.
type PreferencesConfig struct {
	Backend string `toml:"backend"`
	Dir     string `toml:"dir"`
}

// LogConfig sets the log level and an optional log file. Empty File means
// stderr.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// BatchConfig bounds score_batch parallelism.
type BatchConfig struct {
	Concurrency int `toml:"concurrency"`
}

// DefaultPath is the config file read when none is given explicitly.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, appName, "config.toml")
}

// DefaultPreferencesDir is where the file backend keeps user documents.
func DefaultPreferencesDir() string {
	return filepath.Join(xdg.DataHome, appName, "users")
}

// Default returns the built-in settings.
func Default() *Config {
	pre := imaging.DefaultPreprocessOptions()
	return &Config{
		Model: ModelConfig{
			Kind:       string(scoring.KindXGBoost),
			ONNXInput:  scoring.DefaultONNXInput,
			ONNXOutput: scoring.DefaultONNXOutput,
		},
		OCR: OCRConfig{
			Language:  "eng",
			Timeout:   30 * time.Second,
			MinWidth:  pre.MinWidth,
			Threshold: int(pre.Threshold),
		},
		Preferences: PreferencesConfig{
			Backend: BackendFile,
			Dir:     DefaultPreferencesDir(),
		},
		Log: LogConfig{
			Level: "info",
		},
		Weights: labeling.DefaultWeights,
		Batch: BatchConfig{
			Concurrency: 4,
		},
	}
}

// LoadOptions selects the files Load reads.
type LoadOptions struct {
	// ConfigPath is an explicit TOML file. When empty DefaultPath is tried
	// and may be missing.
	ConfigPath string

	// EnvFile is the dotenv file to load. Empty means ".env" in the working
	// directory; a missing file is ignored.
	EnvFile string

	// Lookup reads environment variables. Nil uses os.LookupEnv.
	Lookup func(string) (string, bool)
}

// Load builds a Config from defaults, the TOML file, the dotenv file and the
// environment. It does not validate; call Validate after applying flags.
func Load(opts LoadOptions) (*Config, error) {
	cfg := Default()

	path, explicit := opts.ConfigPath, opts.ConfigPath != ""
	if !explicit {
		path = DefaultPath()
	}
	if err := cfg.loadFile(path, explicit); err != nil {
		return nil, err
	}

	if err := loadDotEnv(opts.EnvFile); err != nil {
		return nil, err
	}

	lookup := opts.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if err := cfg.ApplyEnv(lookup); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string, required bool) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if required {
			return fmt.Errorf("config file %s not found", path)
		}
		return nil
	}
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		return fmt.Errorf("failed to decode TOML config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("unknown config key %q in %s", undecoded[0].String(), path)
	}
	return nil
}

// loadDotEnv sets variables from a dotenv file without overriding ones that
// are already present in the environment.
func loadDotEnv(path string) error {
	explicit := path != ""
	if !explicit {
		path = ".env"
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if explicit {
			return fmt.Errorf("env file %s not found", path)
		}
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Validate checks the settings that cannot be fixed up silently.
func (c *Config) Validate() error {
	if _, err := scoring.ParseKind(c.Model.Kind); err != nil {
		return fmt.Errorf("model.kind: %w", err)
	}
	if c.OCR.Timeout <= 0 {
		return fmt.Errorf("ocr.timeout must be positive, got %s", c.OCR.Timeout)
	}
	if c.OCR.MinWidth < 0 {
		return fmt.Errorf("ocr.min_width must not be negative, got %d", c.OCR.MinWidth)
	}
	if c.OCR.Threshold < 0 || c.OCR.Threshold > 255 {
		return fmt.Errorf("ocr.threshold must be in [0,255], got %d", c.OCR.Threshold)
	}
	switch c.Preferences.Backend {
	case BackendFile:
		if c.Preferences.Dir == "" {
			return errors.New("preferences.dir is required for the file backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("preferences.backend must be %q or %q, got %q", BackendFile, BackendMemory, c.Preferences.Backend)
	}
	if _, ok := logger.ParseLevel(c.Log.Level); !ok {
		return fmt.Errorf("log.level: unknown level %q", c.Log.Level)
	}
	if err := c.Weights.Validate(); err != nil {
		return err
	}
	if c.Batch.Concurrency < 1 {
		return fmt.Errorf("batch.concurrency must be at least 1, got %d", c.Batch.Concurrency)
	}
	return nil
}

// HasModel reports whether a model file is configured.
func (c *Config) HasModel() bool { return c.Model.Path != "" }

// ModelSpec converts the model section for scoring.Load.
func (c *Config) ModelSpec() (scoring.ModelSpec, error) {
	kind, err := scoring.ParseKind(c.Model.Kind)
	if err != nil {
		return scoring.ModelSpec{}, err
	}
	return scoring.ModelSpec{
		Kind:       kind,
		Path:       c.Model.Path,
		ScalerPath: c.Model.ScalerPath,
		ONNX: scoring.ONNXOptions{
			Library: c.Model.ONNXLibrary,
			Input:   c.Model.ONNXInput,
			Output:  c.Model.ONNXOutput,
			Scaled:  c.Model.ONNXScaled,
		},
	}, nil
}

// PreprocessOptions converts the OCR section for the label reader.
func (c *Config) PreprocessOptions() imaging.PreprocessOptions {
	opts := imaging.DefaultPreprocessOptions()
	opts.MinWidth = c.OCR.MinWidth
	opts.Binarize = c.OCR.Binarize
	opts.Threshold = uint8(c.OCR.Threshold)
	return opts
}
