package scoring

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// Linear is an ordinary least-squares model: Intercept + Coef·x.
type Linear struct {
	Coef      []float64 `json:"coef"`
	Intercept float64   `json:"intercept"`
}

// ParseLinear decodes a linear model document.
func ParseLinear(data []byte) (*Linear, error) {
	var m Linear
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("linear: decode: %w", err)
	}
	if len(m.Coef) == 0 {
		return nil, errors.New("linear: no coefficients")
	}
	return &m, nil
}

// LoadLinear reads a linear model document from disk.
func LoadLinear(path string) (*Linear, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("linear: read: %w", err)
	}
	return ParseLinear(data)
}

// Predict returns Intercept + Coef·x.
func (m *Linear) Predict(x []float64) (float64, error) {
	if err := checkDimension(x, len(m.Coef)); err != nil {
		return 0, err
	}
	sum := m.Intercept
	for i, c := range m.Coef {
		sum += c * x[i]
	}
	return sum, nil
}
