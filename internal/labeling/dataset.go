package labeling

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/ironsheep/labelscore-mcp/internal/ingredients"
	"github.com/ironsheep/labelscore-mcp/internal/scoring"
)

// Dataset column names.
const (
	ColIngredients = "num_ingredients"
	ColLiked       = "num_liked_matches"
	ColDisliked    = "num_disliked_matches"
	ColAllergen    = "num_allergen_matches"
	ColScore       = "suitability_score"
)

// ErrNegativeCount is returned for match counts below zero.
var ErrNegativeCount = errors.New("negative count")

var featureColumns = []string{ColIngredients, ColLiked, ColDisliked, ColAllergen}

// Dataset is a CSV table with the four feature columns and, once labelled,
// a suitability_score column. Other columns are carried through unchanged.
type Dataset struct {
	Header []string
	Rows   [][]string
	index  map[string]int
}

// Record is one parsed dataset row. Row is 1-based and excludes the header.
type Record struct {
	Row      int
	Features ingredients.Features
	Score    float64
	HasScore bool
}

// RowError reports a row that could not be parsed.
type RowError struct {
	Row int
	Err error
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

func (e RowError) Unwrap() error { return e.Err }

// ReadDataset parses a CSV dataset. The feature columns are required.
func ReadDataset(r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(r)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("dataset: parse: %w", err)
	}
	if len(records) == 0 {
		return nil, errors.New("dataset: empty (no header row)")
	}

	d := &Dataset{Header: records[0], Rows: records[1:]}
	d.reindex()
	for _, col := range featureColumns {
		if _, ok := d.index[col]; !ok {
			return nil, fmt.Errorf("dataset: missing column %q", col)
		}
	}
	return d, nil
}

func (d *Dataset) reindex() {
	d.index = make(map[string]int, len(d.Header))
	for i, h := range d.Header {
		d.index[strings.TrimSpace(h)] = i
	}
}

// Write serialises the dataset as CSV.
func (d *Dataset) Write(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(d.Header); err != nil {
		return fmt.Errorf("dataset: write header: %w", err)
	}
	if err := cw.WriteAll(d.Rows); err != nil {
		return fmt.Errorf("dataset: write rows: %w", err)
	}
	return nil
}

// Len returns the number of data rows.
func (d *Dataset) Len() int { return len(d.Rows) }

func (d *Dataset) cell(row []string, col string) (string, bool) {
	i, ok := d.index[col]
	if !ok || i >= len(row) {
		return "", false
	}
	return strings.TrimSpace(row[i]), true
}

func (d *Dataset) parseFeatures(row []string) (ingredients.Features, error) {
	counts := make([]int, len(featureColumns))
	for i, col := range featureColumns {
		v, ok := d.cell(row, col)
		if !ok {
			return ingredients.Features{}, fmt.Errorf("missing %s", col)
		}
		c, err := parseCount(v)
		if err != nil {
			return ingredients.Features{}, fmt.Errorf("%s: %w", col, err)
		}
		counts[i] = c
	}
	return ingredients.Features{
		NumIngredients:     counts[0],
		NumLikedMatches:    counts[1],
		NumDislikedMatches: counts[2],
		NumAllergenMatches: counts[3],
	}, nil
}

func (d *Dataset) parseRow(n int) (Record, error) {
	row := d.Rows[n]
	rec := Record{Row: n + 1}
	f, err := d.parseFeatures(row)
	if err != nil {
		return rec, err
	}
	rec.Features = f
	if v, ok := d.cell(row, ColScore); ok && v != "" {
		s, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return rec, fmt.Errorf("%s: %w", ColScore, err)
		}
		rec.Score = s
		rec.HasScore = true
	}
	return rec, nil
}

// Records parses every row. Rows that fail are reported and skipped.
func (d *Dataset) Records() ([]Record, []RowError) {
	out := make([]Record, 0, len(d.Rows))
	var errs []RowError
	for i := range d.Rows {
		rec, err := d.parseRow(i)
		if err != nil {
			errs = append(errs, RowError{Row: i + 1, Err: err})
			continue
		}
		out = append(out, rec)
	}
	return out, errs
}

// Relabel rewrites suitability_score on every row with the label formula,
// rounded to two decimals. The column is appended when absent. Rows whose
// counts cannot be parsed keep their previous value and are reported.
func Relabel(d *Dataset, w Weights) []RowError {
	col, ok := d.index[ColScore]
	if !ok {
		d.Header = append(d.Header, ColScore)
		col = len(d.Header) - 1
		d.reindex()
	}

	var errs []RowError
	for i := range d.Rows {
		for len(d.Rows[i]) <= col {
			d.Rows[i] = append(d.Rows[i], "")
		}
		f, err := d.parseFeatures(d.Rows[i])
		if err != nil {
			errs = append(errs, RowError{Row: i + 1, Err: err})
			continue
		}
		score := scoring.Round2(ScoreFeatures(f, w))
		d.Rows[i][col] = formatScore(score)
	}
	return errs
}

// parseCount accepts integers written either as "3" or "3.0".
func parseCount(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 {
			return 0, ErrNegativeCount
		}
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not a whole number: %q", s)
	}
	if f < 0 {
		return 0, ErrNegativeCount
	}
	return int(f), nil
}

func formatScore(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
