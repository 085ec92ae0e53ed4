package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMLP(t *testing.T) {
	m, err := LoadMLP("testdata/mlp_model.json", 4)
	require.NoError(t, err)

	got, err := m.Predict([]float64{4, 3, 0, 0})
	require.NoError(t, err)
	assert.InDelta(t, 15.0, got, 1e-9)

	got, err = m.Predict([]float64{0, 0, 0, 0})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, got, 1e-9)
}

func TestMLP_Activations(t *testing.T) {
	coefs := [][][]float64{{{1}}, {{1}}}
	intercepts := [][]float64{{0}, {0}}

	tests := map[string]float64{
		"identity": -2,
		"relu":     0,
		"tanh":     -0.9640275800758169,
		"logistic": 0.11920292202211755,
	}
	for act, want := range tests {
		t.Run(act, func(t *testing.T) {
			m, err := NewMLP(act, coefs, intercepts, 1)
			require.NoError(t, err)
			got, err := m.Predict([]float64{-2})
			require.NoError(t, err)
			assert.InDelta(t, want, got, 1e-12)
		})
	}
}

func TestNewMLP_ShapeErrors(t *testing.T) {
	tests := []struct {
		name       string
		act        string
		coefs      [][][]float64
		intercepts [][]float64
	}{
		{"no layers", "relu", nil, nil},
		{"bad activation", "softsign", [][][]float64{{{1}, {1}, {1}, {1}}}, [][]float64{{0}}},
		{"bias count", "relu", [][][]float64{{{1}, {1}, {1}, {1}}}, nil},
		{"input rows", "relu", [][][]float64{{{1}, {1}}}, [][]float64{{0}}},
		{"ragged row", "relu", [][][]float64{{{1, 2}, {1}, {1, 2}, {1, 2}}, {{1}, {1}}}, [][]float64{{0, 0}, {0}}},
		{"multi output", "relu", [][][]float64{{{1, 2}, {1, 2}, {1, 2}, {1, 2}}}, [][]float64{{0, 0}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewMLP(tt.act, tt.coefs, tt.intercepts, 4)
			assert.Error(t, err)
		})
	}
}

func TestMLP_WrongDimension(t *testing.T) {
	m, err := LoadMLP("testdata/mlp_model.json", 4)
	require.NoError(t, err)

	_, err = m.Predict([]float64{1, 2, 3, 4, 5})
	assert.ErrorIs(t, err, ErrFeatureDimension)
}
