//go:build cgo

package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// Tesseract recognizes text with the native Tesseract library.
type Tesseract struct {
	language string
}

// NewTesseract returns a recognizer for the given Tesseract language code.
// An empty language selects DefaultLanguage.
func NewTesseract(language string) *Tesseract {
	if language == "" {
		language = DefaultLanguage
	}
	return &Tesseract{language: language}
}

// Language returns the configured language code.
func (t *Tesseract) Language() string { return t.language }

// Recognize runs OCR on an encoded image and returns one entry per text line.
//
// Lines come from Tesseract's RIL_TEXTLINE iterator. If the iterator yields
// nothing, the full page text is split on newlines instead.
func (t *Tesseract) Recognize(ctx context.Context, image []byte) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(image) == 0 {
		return nil, fmt.Errorf("ocr: empty image")
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(t.language); err != nil {
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetImageFromBytes(image); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err == nil {
		lines := make([]string, 0, len(boxes))
		for _, box := range boxes {
			if word := strings.TrimSpace(box.Word); word != "" {
				lines = append(lines, word)
			}
		}
		if len(lines) > 0 {
			return lines, nil
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	text, err := client.Text()
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}
	return SplitLines(text), nil
}

// TesseractVersion returns the installed Tesseract version.
func TesseractVersion() (string, error) {
	client := gosseract.NewClient()
	defer client.Close()
	return client.Version(), nil
}

// Info reports OCR availability for this recognizer.
func (t *Tesseract) Info() OCRInfo {
	version, err := TesseractVersion()
	if err != nil {
		return OCRInfo{
			Available: false,
			Language:  t.language,
			Error:     err.Error(),
			Backend:   "gosseract",
		}
	}
	return OCRInfo{
		Available: true,
		Version:   version,
		Language:  t.language,
		Backend:   "gosseract",
	}
}
