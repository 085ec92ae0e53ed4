package scoring

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
)

// Scaler standardizes features as (x - Mean) / Scale.
type Scaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

type scalerFile struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
	Var   []float64 `json:"var"`
}

// NewScaler builds a scaler from per-feature means and scales. A zero scale
// leaves the centred value unscaled, matching sklearn.
func NewScaler(mean, scale []float64) (*Scaler, error) {
	if len(mean) == 0 {
		return nil, errors.New("scaler: empty mean")
	}
	if len(mean) != len(scale) {
		return nil, fmt.Errorf("scaler: %d means but %d scales", len(mean), len(scale))
	}
	s := &Scaler{
		Mean:  append([]float64(nil), mean...),
		Scale: make([]float64, len(scale)),
	}
	for i, v := range scale {
		if v == 0 || math.IsNaN(v) {
			v = 1
		}
		s.Scale[i] = v
	}
	return s, nil
}

// ParseScaler decodes a scaler document. When "scale" is absent it is derived
// from "var".
func ParseScaler(data []byte) (*Scaler, error) {
	var f scalerFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("scaler: decode: %w", err)
	}
	scale := f.Scale
	if len(scale) == 0 && len(f.Var) > 0 {
		scale = make([]float64, len(f.Var))
		for i, v := range f.Var {
			scale[i] = math.Sqrt(v)
		}
	}
	return NewScaler(f.Mean, scale)
}

// LoadScaler reads a scaler document from disk.
func LoadScaler(path string) (*Scaler, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scaler: read: %w", err)
	}
	return ParseScaler(data)
}

// Transform returns a standardized copy of x.
func (s *Scaler) Transform(x []float64) ([]float64, error) {
	if err := checkDimension(x, len(s.Mean)); err != nil {
		return nil, fmt.Errorf("scaler: %w", err)
	}
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = (v - s.Mean[i]) / s.Scale[i]
	}
	return out, nil
}
