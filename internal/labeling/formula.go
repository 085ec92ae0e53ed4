// Package labeling holds the offline tooling that prepares training data for
// the scoring model: the heuristic label formula, CSV dataset handling and
// model evaluation against labelled rows.
package labeling

import (
	"fmt"
	"math"

	"github.com/ironsheep/labelscore-mcp/internal/ingredients"
)

// Neutral is the label given when no like or dislike matched.
const Neutral = 50.0

// Weights scale likes and dislikes in the label formula.
type Weights struct {
	Like    float64 `json:"like" toml:"like"`
	Dislike float64 `json:"dislike" toml:"dislike"`
}

// DefaultWeights penalise a disliked match 1.5 times as much as a liked match
// rewards.
var DefaultWeights = Weights{Like: 1.0, Dislike: 1.5}

// Validate rejects negative or non-finite weights.
func (w Weights) Validate() error {
	if err := checkWeight("like", w.Like); err != nil {
		return err
	}
	return checkWeight("dislike", w.Dislike)
}

func checkWeight(name string, v float64) error {
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("weights: %s weight must be a non-negative number, got %v", name, v)
	}
	return nil
}

// CalculateScore is the ground-truth label for a set of match counts.
//
// Any allergen match scores 0. With no liked or disliked match the score is
// Neutral. Otherwise the weighted balance (wl*L - wd*D) / (wl*L + wd*D) is
// mapped from [-1, 1] onto [0, 100]. If both weighted terms are zero the
// balance is undefined and Neutral is returned.
func CalculateScore(liked, disliked, allergen int, w Weights) float64 {
	if allergen > 0 {
		return 0
	}
	if liked+disliked == 0 {
		return Neutral
	}
	l := w.Like * float64(liked)
	d := w.Dislike * float64(disliked)
	if l+d == 0 {
		return Neutral
	}
	raw := (l - d) / (l + d)
	score := (raw + 1) / 2 * 100
	return math.Max(0, math.Min(score, 100))
}

// ScoreFeatures applies CalculateScore to a feature vector.
func ScoreFeatures(f ingredients.Features, w Weights) float64 {
	return CalculateScore(f.NumLikedMatches, f.NumDislikedMatches, f.NumAllergenMatches, w)
}
