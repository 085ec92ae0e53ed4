package scoring

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ironsheep/labelscore-mcp/internal/ingredients"
)

// Kind names a model file format.
type Kind string

const (
	KindXGBoost Kind = "xgboost"
	KindMLP     Kind = "mlp"
	KindLinear  Kind = "linear"
	KindONNX    Kind = "onnx"
)

// Kinds lists the supported model kinds.
func Kinds() []Kind {
	return []Kind{KindXGBoost, KindMLP, KindLinear, KindONNX}
}

// ParseKind converts a configuration string to a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds() {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownModelKind, s)
}

// ModelSpec says where a model lives and how to load it.
type ModelSpec struct {
	Kind       Kind
	Path       string
	ScalerPath string
	ONNX       ONNXOptions
}

// Load reads the model described by spec and resolves its variant. MLP models
// always require a scaler; ONNX graphs require one when ONNX.Scaled is set.
// Other kinds ignore ScalerPath.
func Load(spec ModelSpec) (*Predictor, error) {
	if spec.Path == "" {
		return nil, errors.New("model path is required")
	}

	var (
		model      Model
		needScaler bool
		err        error
	)
	switch spec.Kind {
	case KindXGBoost:
		model, err = LoadXGBoost(spec.Path)
	case KindLinear:
		model, err = LoadLinear(spec.Path)
	case KindMLP:
		model, err = LoadMLP(spec.Path, ingredients.NumFeatures)
		needScaler = true
	case KindONNX:
		model, err = LoadONNX(spec.Path, ingredients.NumFeatures, spec.ONNX)
		needScaler = spec.ONNX.Scaled
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownModelKind, spec.Kind)
	}
	if err != nil {
		return nil, err
	}

	if !needScaler {
		return NewPredictor(spec.Kind, Unscaled{Model: model})
	}

	if spec.ScalerPath == "" {
		closeModel(model)
		return nil, fmt.Errorf("%s model requires a scaler", spec.Kind)
	}
	scaler, err := LoadScaler(spec.ScalerPath)
	if err != nil {
		closeModel(model)
		return nil, err
	}
	if len(scaler.Mean) != ingredients.NumFeatures {
		closeModel(model)
		return nil, fmt.Errorf("scaler: %w: got %d, want %d", ErrFeatureDimension, len(scaler.Mean), ingredients.NumFeatures)
	}
	return NewPredictor(spec.Kind, Scaled{Model: model, Scaler: scaler})
}

func closeModel(m Model) {
	if c, ok := m.(interface{ Close() error }); ok {
		_ = c.Close()
	}
}

// Info describes a loaded predictor.
type Info struct {
	Kind        Kind `json:"kind"`
	Scaled      bool `json:"scaled"`
	NumFeatures int  `json:"num_features"`
}

// Info reports the predictor's static properties.
func (p *Predictor) Info() Info {
	return Info{Kind: p.kind, Scaled: p.Scaled(), NumFeatures: ingredients.NumFeatures}
}
