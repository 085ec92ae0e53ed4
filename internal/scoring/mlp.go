package scoring

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
)

// MLP is a feed-forward regression network exported from sklearn's
// MLPRegressor. Hidden layers share one activation; the output layer is
// linear.
type MLP struct {
	activation string
	act        func(float64) float64
	// weights[layer][in][out], as sklearn stores coefs_.
	weights [][][]float64
	biases  [][]float64
}

type mlpDocument struct {
	Activation string        `json:"activation"`
	Coefs      [][][]float64 `json:"coefs"`
	Intercepts [][]float64   `json:"intercepts"`
}

var activations = map[string]func(float64) float64{
	"relu":     func(v float64) float64 { return math.Max(0, v) },
	"tanh":     math.Tanh,
	"logistic": func(v float64) float64 { return 1 / (1 + math.Exp(-v)) },
	"identity": func(v float64) float64 { return v },
}

// NewMLP validates layer shapes and builds the network. The first layer must
// accept inputs values and the last must produce a single output.
func NewMLP(activation string, coefs [][][]float64, intercepts [][]float64, inputs int) (*MLP, error) {
	if activation == "" {
		activation = "relu"
	}
	act, ok := activations[activation]
	if !ok {
		return nil, fmt.Errorf("mlp: unsupported activation %q", activation)
	}
	if len(coefs) == 0 {
		return nil, errors.New("mlp: no layers")
	}
	if len(coefs) != len(intercepts) {
		return nil, fmt.Errorf("mlp: %d weight layers but %d bias layers", len(coefs), len(intercepts))
	}
	in := inputs
	for l, w := range coefs {
		if len(w) != in {
			return nil, fmt.Errorf("mlp: layer %d expects %d inputs, has %d rows", l, in, len(w))
		}
		out := len(intercepts[l])
		if out == 0 {
			return nil, fmt.Errorf("mlp: layer %d has no units", l)
		}
		for r, row := range w {
			if len(row) != out {
				return nil, fmt.Errorf("mlp: layer %d row %d has %d columns, want %d", l, r, len(row), out)
			}
		}
		in = out
	}
	if in != 1 {
		return nil, fmt.Errorf("mlp: output layer has %d units, want 1", in)
	}
	return &MLP{activation: activation, act: act, weights: coefs, biases: intercepts}, nil
}

// ParseMLP decodes an exported MLPRegressor document.
func ParseMLP(data []byte, inputs int) (*MLP, error) {
	var doc mlpDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("mlp: decode: %w", err)
	}
	return NewMLP(doc.Activation, doc.Coefs, doc.Intercepts, inputs)
}

// LoadMLP reads an exported MLPRegressor document from disk.
func LoadMLP(path string, inputs int) (*MLP, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("mlp: read: %w", err)
	}
	return ParseMLP(data, inputs)
}

// Predict runs the forward pass.
func (m *MLP) Predict(x []float64) (float64, error) {
	if err := checkDimension(x, len(m.weights[0])); err != nil {
		return 0, err
	}
	act := x
	last := len(m.weights) - 1
	for l, w := range m.weights {
		next := make([]float64, len(m.biases[l]))
		copy(next, m.biases[l])
		for i, v := range act {
			for j, wij := range w[i] {
				next[j] += v * wij
			}
		}
		if l != last {
			for j := range next {
				next[j] = m.act(next[j])
			}
		}
		act = next
	}
	return act[0], nil
}
