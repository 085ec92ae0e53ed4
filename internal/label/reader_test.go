package label

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/labelscore-mcp/internal/imaging"
	"github.com/ironsheep/labelscore-mcp/internal/logger"
	"github.com/ironsheep/labelscore-mcp/internal/ocr"
)

func whitePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.White)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// recordingRecognizer returns fixed lines and remembers the image it saw.
type recordingRecognizer struct {
	lines []string
	err   error
	seen  []byte
}

func (r *recordingRecognizer) Recognize(_ context.Context, img []byte) ([]string, error) {
	r.seen = img
	return r.lines, r.err
}

func TestReadIngredients(t *testing.T) {
	rec := &recordingRecognizer{lines: []string{
		"INGREDIENTS: Wheat Flour, Sugar;",
		"Palm Oil (Emulsifier [Soy Lecithin]), Salt",
	}}
	r := NewReader(rec, imaging.DefaultPreprocessOptions(), logger.Discard())

	res, err := r.ReadIngredients(context.Background(), whitePNG(t, 200, 100))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"ingredients: wheat flour",
		"sugar",
		"palm oil",
		"emulsifier",
		"soy lecithin",
		"salt",
	}, res.Ingredients)
	assert.Equal(t, rec.lines, res.Lines)
	assert.Equal(t, 1000, res.Width)
	assert.Equal(t, 500, res.Height)

	// The recognizer is handed a decodable PNG of the preprocessed image.
	seen, err := png.Decode(bytes.NewReader(rec.seen))
	require.NoError(t, err)
	assert.Equal(t, 1000, seen.Bounds().Dx())
	assert.Equal(t, rec.seen, res.Preprocessed)
}

func TestReadIngredients_FoldsFullWidthPunctuation(t *testing.T) {
	rec := &recordingRecognizer{lines: []string{"ﬂour，salt；sugar"}}
	r := NewReader(rec, imaging.PreprocessOptions{}, logger.Discard())

	res, err := r.ReadIngredients(context.Background(), whitePNG(t, 10, 10))
	require.NoError(t, err)
	assert.Equal(t, []string{"flour", "salt", "sugar"}, res.Ingredients)
}

func TestReadIngredients_LowerCasesFoldedLetters(t *testing.T) {
	rec := &recordingRecognizer{lines: []string{"ℌoney, ＳＡＬＴ"}}
	r := NewReader(rec, imaging.PreprocessOptions{}, logger.Discard())

	res, err := r.ReadIngredients(context.Background(), whitePNG(t, 10, 10))
	require.NoError(t, err)
	assert.Equal(t, []string{"honey", "salt"}, res.Ingredients)
	assert.Equal(t, "honey, salt", res.Text)
}

func TestReadIngredients_NoText(t *testing.T) {
	r := NewReader(&recordingRecognizer{}, imaging.PreprocessOptions{}, logger.Discard())

	res, err := r.ReadIngredients(context.Background(), whitePNG(t, 10, 10))
	require.NoError(t, err)
	assert.Equal(t, []string{}, res.Ingredients)
	assert.Equal(t, []string{}, res.Lines)
}

func TestReadIngredients_Errors(t *testing.T) {
	boom := errors.New("engine crashed")
	r := NewReader(&recordingRecognizer{err: boom}, imaging.PreprocessOptions{}, logger.Discard())

	_, err := r.ReadIngredients(context.Background(), []byte("not an image"))
	assert.Error(t, err)

	_, err = r.ReadIngredients(context.Background(), whitePNG(t, 10, 10))
	assert.ErrorIs(t, err, boom)

	_, err = NewReader(nil, imaging.PreprocessOptions{}, nil).ReadIngredients(context.Background(), whitePNG(t, 10, 10))
	assert.ErrorIs(t, err, ocr.ErrUnavailable)
}

func TestReadImage_Region(t *testing.T) {
	rec := &recordingRecognizer{lines: []string{"salt"}}
	r := NewReader(rec, imaging.PreprocessOptions{}, logger.Discard())
	img, err := imaging.Decode(whitePNG(t, 100, 100))
	require.NoError(t, err)

	region := image.Rect(10, 10, 60, 30)
	res, err := r.ReadImage(context.Background(), img, &region)
	require.NoError(t, err)
	assert.Equal(t, 50, res.Width)
	assert.Equal(t, 20, res.Height)

	bad := image.Rect(50, 50, 500, 500)
	_, err = r.ReadImage(context.Background(), img, &bad)
	assert.Error(t, err)
}

func TestReadImage_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := NewReader(&recordingRecognizer{}, imaging.PreprocessOptions{}, logger.Discard())
	img, err := imaging.Decode(whitePNG(t, 10, 10))
	require.NoError(t, err)

	_, err = r.ReadImage(ctx, img, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
