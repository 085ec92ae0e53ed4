package scoring

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
)

// TreeEnsemble is a gradient-boosted regression tree model read from
// XGBoost's JSON model format.
type TreeEnsemble struct {
	baseScore   float64
	numFeatures int
	logistic    bool
	trees       []regressionTree
}

type regressionTree struct {
	left        []int
	right       []int
	feature     []int
	threshold   []float64
	defaultLeft []bool
}

type xgbDocument struct {
	Learner struct {
		LearnerModelParam struct {
			BaseScore  string `json:"base_score"`
			NumFeature string `json:"num_feature"`
		} `json:"learner_model_param"`
		GradientBooster struct {
			Name  string `json:"name"`
			Model struct {
				Trees []xgbTree `json:"trees"`
			} `json:"model"`
		} `json:"gradient_booster"`
		Objective struct {
			Name string `json:"name"`
		} `json:"objective"`
	} `json:"learner"`
}

type xgbTree struct {
	LeftChildren    []int     `json:"left_children"`
	RightChildren   []int     `json:"right_children"`
	SplitIndices    []int     `json:"split_indices"`
	SplitConditions []float64 `json:"split_conditions"`
	DefaultLeft     flexBools `json:"default_left"`
}

// flexBools accepts both [true,false] and [1,0]; XGBoost has written both.
type flexBools []bool

func (b *flexBools) UnmarshalJSON(data []byte) error {
	var bools []bool
	if err := json.Unmarshal(data, &bools); err == nil {
		*b = bools
		return nil
	}
	var ints []int
	if err := json.Unmarshal(data, &ints); err != nil {
		return fmt.Errorf("default_left: %w", err)
	}
	out := make([]bool, len(ints))
	for i, v := range ints {
		out[i] = v != 0
	}
	*b = out
	return nil
}

// ParseXGBoost decodes an XGBoost JSON model. Only the gbtree booster is
// supported.
func ParseXGBoost(data []byte) (*TreeEnsemble, error) {
	var doc xgbDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("xgboost: decode: %w", err)
	}
	learner := doc.Learner

	if name := learner.GradientBooster.Name; name != "" && name != "gbtree" {
		return nil, fmt.Errorf("xgboost: unsupported booster %q", name)
	}

	base, err := parseXGBFloat(learner.LearnerModelParam.BaseScore, 0.5)
	if err != nil {
		return nil, fmt.Errorf("xgboost: base_score: %w", err)
	}
	numFeatures, err := parseXGBInt(learner.LearnerModelParam.NumFeature, 0)
	if err != nil {
		return nil, fmt.Errorf("xgboost: num_feature: %w", err)
	}

	m := &TreeEnsemble{
		baseScore:   base,
		numFeatures: numFeatures,
		logistic:    learner.Objective.Name == "reg:logistic",
	}
	if m.logistic {
		// base_score is stored as a probability; trees add to the margin.
		m.baseScore = math.Log(base / (1 - base))
	}

	trees := learner.GradientBooster.Model.Trees
	if len(trees) == 0 {
		return nil, errors.New("xgboost: model has no trees")
	}
	m.trees = make([]regressionTree, 0, len(trees))
	for i, t := range trees {
		tree, err := buildTree(t, numFeatures)
		if err != nil {
			return nil, fmt.Errorf("xgboost: tree %d: %w", i, err)
		}
		m.trees = append(m.trees, tree)
	}
	return m, nil
}

// LoadXGBoost reads an XGBoost JSON model from disk.
func LoadXGBoost(path string) (*TreeEnsemble, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("xgboost: read: %w", err)
	}
	return ParseXGBoost(data)
}

func buildTree(t xgbTree, numFeatures int) (regressionTree, error) {
	n := len(t.LeftChildren)
	if n == 0 {
		return regressionTree{}, errors.New("empty tree")
	}
	if len(t.RightChildren) != n || len(t.SplitIndices) != n || len(t.SplitConditions) != n {
		return regressionTree{}, errors.New("node arrays have different lengths")
	}
	defaultLeft := []bool(t.DefaultLeft)
	if len(defaultLeft) == 0 {
		defaultLeft = make([]bool, n)
	}
	if len(defaultLeft) != n {
		return regressionTree{}, errors.New("default_left length mismatch")
	}
	for i := 0; i < n; i++ {
		l, r := t.LeftChildren[i], t.RightChildren[i]
		if l == -1 {
			continue
		}
		if l < 0 || l >= n || r < 0 || r >= n || l == i || r == i {
			return regressionTree{}, fmt.Errorf("node %d has invalid children (%d, %d)", i, l, r)
		}
		if f := t.SplitIndices[i]; f < 0 || (numFeatures > 0 && f >= numFeatures) {
			return regressionTree{}, fmt.Errorf("node %d splits on feature %d", i, f)
		}
	}
	return regressionTree{
		left:        t.LeftChildren,
		right:       t.RightChildren,
		feature:     t.SplitIndices,
		threshold:   t.SplitConditions,
		defaultLeft: defaultLeft,
	}, nil
}

// leaf walks the tree for x. Leaf values live in the threshold slot.
func (t regressionTree) leaf(x []float64) (float64, error) {
	node := 0
	for steps := 0; t.left[node] != -1; steps++ {
		if steps >= len(t.left) {
			return 0, errors.New("xgboost: cycle in tree")
		}
		f := t.feature[node]
		if f >= len(x) {
			return 0, fmt.Errorf("%w: tree needs feature %d", ErrFeatureDimension, f)
		}
		v := x[f]
		switch {
		case math.IsNaN(v):
			if t.defaultLeft[node] {
				node = t.left[node]
			} else {
				node = t.right[node]
			}
		case v < t.threshold[node]:
			node = t.left[node]
		default:
			node = t.right[node]
		}
	}
	return t.threshold[node], nil
}

// Predict sums the leaf values of every tree onto the base score.
func (m *TreeEnsemble) Predict(x []float64) (float64, error) {
	if m.numFeatures > 0 {
		if err := checkDimension(x, m.numFeatures); err != nil {
			return 0, err
		}
	}
	sum := m.baseScore
	for _, t := range m.trees {
		v, err := t.leaf(x)
		if err != nil {
			return 0, err
		}
		sum += v
	}
	if m.logistic {
		return 1 / (1 + math.Exp(-sum)), nil
	}
	return sum, nil
}

// NumTrees returns the ensemble size.
func (m *TreeEnsemble) NumTrees() int { return len(m.trees) }

// parseXGBFloat reads numbers XGBoost stores as strings, including the
// bracketed vector form ("[5E-1]") written by newer releases.
func parseXGBFloat(s string, def float64) (float64, error) {
	s = strings.Trim(strings.TrimSpace(s), "[]")
	if s == "" {
		return def, nil
	}
	if i := strings.IndexByte(s, ','); i >= 0 {
		s = s[:i]
	}
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

func parseXGBInt(s string, def int) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return def, nil
	}
	return strconv.Atoi(s)
}
