package scoring

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/labelscore-mcp/internal/ingredients"
)

func TestParseKind(t *testing.T) {
	k, err := ParseKind(" XGBoost ")
	require.NoError(t, err)
	assert.Equal(t, KindXGBoost, k)

	_, err = ParseKind("random_forest")
	assert.ErrorIs(t, err, ErrUnknownModelKind)
}

func TestLoad_XGBoostIsUnscaled(t *testing.T) {
	p, err := Load(ModelSpec{Kind: KindXGBoost, Path: "testdata/xgb_model.json", ScalerPath: "testdata/scaler.json"})
	require.NoError(t, err)
	defer p.Close()

	assert.Equal(t, Info{Kind: KindXGBoost, Scaled: false, NumFeatures: 4}, p.Info())

	score, err := p.Predict(ingredients.Features{NumIngredients: 4, NumLikedMatches: 3})
	require.NoError(t, err)
	assert.Equal(t, 65.0, score)

	score, err = p.Predict(ingredients.Features{NumIngredients: 1, NumAllergenMatches: 1})
	require.NoError(t, err)
	assert.Equal(t, 0.0, score)
}

func TestLoad_MLPIsScaled(t *testing.T) {
	p, err := Load(ModelSpec{Kind: KindMLP, Path: "testdata/mlp_model.json", ScalerPath: "testdata/scaler.json"})
	require.NoError(t, err)
	assert.True(t, p.Info().Scaled)

	// (4,3,0,0) scales to (3,1,0,0): hidden (3,0), output 1 + 2*3.
	raw, err := p.PredictRaw(ingredients.Features{NumIngredients: 4, NumLikedMatches: 3})
	require.NoError(t, err)
	assert.InDelta(t, 7.0, raw, 1e-9)
}

func TestLoad_MLPRequiresScaler(t *testing.T) {
	_, err := Load(ModelSpec{Kind: KindMLP, Path: "testdata/mlp_model.json"})
	assert.Error(t, err)
}

func TestLoad_ScalerDimensionMismatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scaler.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"mean":[0,0],"scale":[1,1]}`), 0o644))

	_, err := Load(ModelSpec{Kind: KindMLP, Path: "testdata/mlp_model.json", ScalerPath: path})
	assert.ErrorIs(t, err, ErrFeatureDimension)
}

func TestLoad_Linear(t *testing.T) {
	p, err := Load(ModelSpec{Kind: KindLinear, Path: "testdata/linear_model.json"})
	require.NoError(t, err)

	tests := []struct {
		f    ingredients.Features
		want float64
	}{
		{ingredients.Features{NumIngredients: 4, NumLikedMatches: 3}, 80},
		{ingredients.Features{NumIngredients: 4, NumAllergenMatches: 1}, 0},
		{ingredients.Features{NumIngredients: 1, NumLikedMatches: 10}, 100},
	}
	for _, tt := range tests {
		got, err := p.Predict(tt.f)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(ModelSpec{Kind: KindXGBoost})
	assert.Error(t, err)

	_, err = Load(ModelSpec{Kind: "svm", Path: "testdata/linear_model.json"})
	assert.ErrorIs(t, err, ErrUnknownModelKind)

	_, err = Load(ModelSpec{Kind: KindXGBoost, Path: "testdata/nope.json"})
	assert.Error(t, err)
}
