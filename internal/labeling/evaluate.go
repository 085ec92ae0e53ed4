package labeling

import (
	"errors"
	"fmt"
	"math"

	"github.com/ironsheep/labelscore-mcp/internal/ingredients"
)

// Metrics summarises model error on labelled rows.
type Metrics struct {
	N    int     `json:"n"`
	RMSE float64 `json:"rmse"`
	MAE  float64 `json:"mae"`
	R2   float64 `json:"r2"`
}

// PredictFunc returns a raw model output for a feature vector.
type PredictFunc func(ingredients.Features) (float64, error)

// Evaluate compares predictions against the recorded labels. Rows without a
// label are skipped. R² follows sklearn: with constant labels it is 1 for a
// perfect fit and 0 otherwise.
func Evaluate(records []Record, predict PredictFunc) (Metrics, error) {
	var (
		m      Metrics
		sumY   float64
		sse    float64
		sae    float64
		labels []float64
	)
	for _, rec := range records {
		if !rec.HasScore {
			continue
		}
		pred, err := predict(rec.Features)
		if err != nil {
			return Metrics{}, fmt.Errorf("row %d: %w", rec.Row, err)
		}
		diff := pred - rec.Score
		sse += diff * diff
		sae += math.Abs(diff)
		sumY += rec.Score
		labels = append(labels, rec.Score)
	}
	m.N = len(labels)
	if m.N == 0 {
		return Metrics{}, errors.New("evaluate: no labelled rows")
	}

	n := float64(m.N)
	mean := sumY / n
	var sst float64
	for _, y := range labels {
		sst += (y - mean) * (y - mean)
	}

	m.RMSE = math.Sqrt(sse / n)
	m.MAE = sae / n
	switch {
	case sst > 0:
		m.R2 = 1 - sse/sst
	case sse == 0:
		m.R2 = 1
	default:
		m.R2 = 0
	}
	return m, nil
}
