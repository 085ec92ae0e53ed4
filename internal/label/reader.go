// Package label reads the ingredient list off a photographed food label.
//
// A Reader chains image preprocessing, OCR and segmentation:
//
//	decode -> preprocess -> recognize -> join -> fold -> segment
//
// The recognized lines are joined with spaces and lower-cased, folded to
// NFKC so ligatures and full-width punctuation become plain delimiters, and
// finally split on the ingredient delimiters.
package label

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/ironsheep/labelscore-mcp/internal/imaging"
	"github.com/ironsheep/labelscore-mcp/internal/ingredients"
	"github.com/ironsheep/labelscore-mcp/internal/ocr"
)

// Result is the outcome of reading one label.
type Result struct {
	// Ingredients are the segmented, lower-cased ingredient tokens.
	Ingredients []string `json:"ingredients"`

	// Lines are the raw text lines returned by the recognizer.
	Lines []string `json:"lines"`

	// Text is the joined, folded text that was segmented.
	Text string `json:"text"`

	// Width and Height describe the image handed to the recognizer.
	Width  int `json:"width"`
	Height int `json:"height"`

	// Preprocessed is the PNG given to the recognizer.
	Preprocessed []byte `json:"-"`
}

// Reader extracts ingredients from label images.
type Reader struct {
	recognizer ocr.Recognizer
	opts       imaging.PreprocessOptions
	logger     *slog.Logger
}

// NewReader returns a Reader using r for recognition. A nil logger uses
// slog.Default().
func NewReader(r ocr.Recognizer, opts imaging.PreprocessOptions, logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{recognizer: r, opts: opts, logger: logger}
}

// Options returns the preprocessing options applied by ReadImage.
func (r *Reader) Options() imaging.PreprocessOptions { return r.opts }

// ReadIngredients decodes an encoded image and reads its ingredients.
func (r *Reader) ReadIngredients(ctx context.Context, data []byte) (*Result, error) {
	img, err := imaging.Decode(data)
	if err != nil {
		return nil, err
	}
	return r.ReadImage(ctx, img, nil)
}

// ReadImage reads the ingredients of an already decoded image. A non-nil
// region restricts recognition to that part of the image.
func (r *Reader) ReadImage(ctx context.Context, img image.Image, region *image.Rectangle) (*Result, error) {
	if r.recognizer == nil {
		return nil, ocr.ErrUnavailable
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	opts := r.opts
	if region != nil {
		opts.Region = region
	}

	start := time.Now()
	prepared, err := imaging.Preprocess(img, opts)
	if err != nil {
		return nil, fmt.Errorf("preprocess: %w", err)
	}
	encoded, err := imaging.EncodePNG(prepared)
	if err != nil {
		return nil, err
	}

	lines, err := r.recognizer.Recognize(ctx, encoded)
	if err != nil {
		return nil, fmt.Errorf("recognize: %w", err)
	}
	if lines == nil {
		lines = []string{}
	}

	text := ingredients.JoinRecognized(lines)
	result := &Result{
		Ingredients:  ingredients.Segment(text),
		Lines:        lines,
		Text:         text,
		Width:        prepared.Bounds().Dx(),
		Height:       prepared.Bounds().Dy(),
		Preprocessed: encoded,
	}

	r.logger.Debug("label read",
		"lines", len(lines),
		"ingredients", len(result.Ingredients),
		"width", result.Width,
		"height", result.Height,
		"elapsed", time.Since(start))

	return result, nil
}
