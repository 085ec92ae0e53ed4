package scoring

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/ironsheep/labelscore-mcp/internal/ingredients"
)

// Score bounds.
const (
	MinScore = 0.0
	MaxScore = 100.0
)

var (
	// ErrFeatureDimension is returned when a vector does not have
	// ingredients.NumFeatures elements.
	ErrFeatureDimension = errors.New("feature dimension mismatch")

	// ErrUnknownModelKind is returned for an unsupported model kind.
	ErrUnknownModelKind = errors.New("unknown model kind")
)

// Model is a pre-fitted regression function of one feature vector.
type Model interface {
	Predict(x []float64) (float64, error)
}

// Variant is either Unscaled or Scaled.
type Variant interface {
	variant()
}

// Unscaled feeds raw feature counts to the model.
type Unscaled struct {
	Model Model
}

// Scaled standardizes features with Scaler before invoking the model.
type Scaled struct {
	Model  Model
	Scaler *Scaler
}

func (Unscaled) variant() {}
func (Scaled) variant()   {}

// Predictor scores feature vectors with a single loaded model variant.
type Predictor struct {
	kind    Kind
	variant Variant
}

// NewPredictor validates the variant and wraps it.
func NewPredictor(kind Kind, v Variant) (*Predictor, error) {
	switch v := v.(type) {
	case Unscaled:
		if v.Model == nil {
			return nil, errors.New("unscaled variant has no model")
		}
	case Scaled:
		if v.Model == nil {
			return nil, errors.New("scaled variant has no model")
		}
		if v.Scaler == nil {
			return nil, errors.New("scaled variant has no scaler")
		}
	default:
		return nil, fmt.Errorf("unsupported variant %T", v)
	}
	return &Predictor{kind: kind, variant: v}, nil
}

// Kind returns the model format the predictor was loaded from.
func (p *Predictor) Kind() Kind { return p.kind }

// Scaled reports whether features are standardized before scoring.
func (p *Predictor) Scaled() bool {
	_, ok := p.variant.(Scaled)
	return ok
}

// PredictRaw returns the unclamped model output for f.
func (p *Predictor) PredictRaw(f ingredients.Features) (float64, error) {
	return p.PredictVector(f.Vector())
}

// PredictVector returns the unclamped model output for a raw feature vector.
func (p *Predictor) PredictVector(x []float64) (float64, error) {
	if len(x) != ingredients.NumFeatures {
		return 0, fmt.Errorf("%w: got %d, want %d", ErrFeatureDimension, len(x), ingredients.NumFeatures)
	}
	switch v := p.variant.(type) {
	case Scaled:
		scaled, err := v.Scaler.Transform(x)
		if err != nil {
			return 0, err
		}
		return v.Model.Predict(scaled)
	case Unscaled:
		return v.Model.Predict(x)
	}
	return 0, fmt.Errorf("unsupported variant %T", p.variant)
}

// Predict returns the clamped, rounded suitability score for f.
func (p *Predictor) Predict(f ingredients.Features) (float64, error) {
	raw, err := p.PredictRaw(f)
	if err != nil {
		return 0, err
	}
	return Clamp(raw), nil
}

// Close releases model resources held outside the Go heap.
func (p *Predictor) Close() error {
	var m Model
	switch v := p.variant.(type) {
	case Scaled:
		m = v.Model
	case Unscaled:
		m = v.Model
	}
	if c, ok := m.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Clamp bounds raw into [MinScore, MaxScore] and rounds it to two decimals.
// NaN maps to MinScore.
func Clamp(raw float64) float64 {
	switch {
	case math.IsNaN(raw), raw <= MinScore:
		return MinScore
	case raw >= MaxScore:
		return MaxScore
	}
	return Round2(raw)
}

// Round2 rounds x to two decimal places, half away from zero.
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}

func checkDimension(x []float64, want int) error {
	if len(x) != want {
		return fmt.Errorf("%w: got %d, want %d", ErrFeatureDimension, len(x), want)
	}
	return nil
}
