package config

import (
	"fmt"
	"strconv"
	"time"
)

// EnvPrefix prefixes every environment variable read by ApplyEnv.
const EnvPrefix = "LABELSCORE_"

type envSetter func(c *Config, v string) error

func setString(dst func(*Config) *string) envSetter {
	return func(c *Config, v string) error {
		*dst(c) = v
		return nil
	}
}

func setBool(dst func(*Config) *bool) envSetter {
	return func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		*dst(c) = b
		return nil
	}
}

func setInt(dst func(*Config) *int) envSetter {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*dst(c) = n
		return nil
	}
}

func setFloat(dst func(*Config) *float64) envSetter {
	return func(c *Config, v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}
		*dst(c) = f
		return nil
	}
}

func setDuration(dst func(*Config) *time.Duration) envSetter {
	return func(c *Config, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		*dst(c) = d
		return nil
	}
}

// envVars maps variable suffixes to the field they set. Order is the order
// errors are reported in.
var envVars = []struct {
	name string
	set  envSetter
}{
	{"MODEL_KIND", setString(func(c *Config) *string { return &c.Model.Kind })},
	{"MODEL_PATH", setString(func(c *Config) *string { return &c.Model.Path })},
	{"MODEL_SCALER_PATH", setString(func(c *Config) *string { return &c.Model.ScalerPath })},
	{"MODEL_ONNX_LIBRARY", setString(func(c *Config) *string { return &c.Model.ONNXLibrary })},
	{"MODEL_ONNX_INPUT", setString(func(c *Config) *string { return &c.Model.ONNXInput })},
	{"MODEL_ONNX_OUTPUT", setString(func(c *Config) *string { return &c.Model.ONNXOutput })},
	{"MODEL_ONNX_SCALED", setBool(func(c *Config) *bool { return &c.Model.ONNXScaled })},
	{"OCR_LANGUAGE", setString(func(c *Config) *string { return &c.OCR.Language })},
	{"OCR_TIMEOUT", setDuration(func(c *Config) *time.Duration { return &c.OCR.Timeout })},
	{"OCR_MIN_WIDTH", setInt(func(c *Config) *int { return &c.OCR.MinWidth })},
	{"OCR_BINARIZE", setBool(func(c *Config) *bool { return &c.OCR.Binarize })},
	{"OCR_THRESHOLD", setInt(func(c *Config) *int { return &c.OCR.Threshold })},
	{"PREFERENCES_BACKEND", setString(func(c *Config) *string { return &c.Preferences.Backend })},
	{"PREFERENCES_DIR", setString(func(c *Config) *string { return &c.Preferences.Dir })},
	{"LOG_LEVEL", setString(func(c *Config) *string { return &c.Log.Level })},
	{"LOG_FILE", setString(func(c *Config) *string { return &c.Log.File })},
	{"WEIGHTS_LIKE", setFloat(func(c *Config) *float64 { return &c.Weights.Like })},
	{"WEIGHTS_DISLIKE", setFloat(func(c *Config) *float64 { return &c.Weights.Dislike })},
	{"BATCH_CONCURRENCY", setInt(func(c *Config) *int { return &c.Batch.Concurrency })},
}

// EnvNames lists every environment variable ApplyEnv understands.
func EnvNames() []string {
	names := make([]string, len(envVars))
	for i, v := range envVars {
		names[i] = EnvPrefix + v.name
	}
	return names
}

// ApplyEnv overrides fields from environment variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	for _, v := range envVars {
		name := EnvPrefix + v.name
		val, ok := lookup(name)
		if !ok {
			continue
		}
		if err := v.set(c, val); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}
