//go:build !cgo

package ocr

import "context"

// Tesseract is unavailable in builds without cgo.
type Tesseract struct {
	language string
}

// NewTesseract returns a recognizer that always fails with ErrUnavailable.
func NewTesseract(language string) *Tesseract {
	if language == "" {
		language = DefaultLanguage
	}
	return &Tesseract{language: language}
}

// Language returns the configured language code.
func (t *Tesseract) Language() string { return t.language }

// Recognize always returns ErrUnavailable.
func (t *Tesseract) Recognize(context.Context, []byte) ([]string, error) {
	return nil, ErrUnavailable
}

// TesseractVersion always returns ErrUnavailable.
func TesseractVersion() (string, error) {
	return "", ErrUnavailable
}

// Info reports that OCR is unavailable.
func (t *Tesseract) Info() OCRInfo {
	return OCRInfo{
		Available: false,
		Language:  t.language,
		Error:     ErrUnavailable.Error(),
		Backend:   "none",
	}
}
