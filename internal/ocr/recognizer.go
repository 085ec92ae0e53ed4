package ocr

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrUnavailable is returned when the binary was built without Tesseract.
var ErrUnavailable = errors.New("ocr: tesseract support not available in this build")

// DefaultLanguage is the Tesseract language code used when none is configured.
const DefaultLanguage = "eng"

// Recognizer extracts text lines from an encoded image.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte) ([]string, error)
}

// RecognizerFunc adapts a function to the Recognizer interface.
type RecognizerFunc func(ctx context.Context, image []byte) ([]string, error)

// Recognize calls f.
func (f RecognizerFunc) Recognize(ctx context.Context, image []byte) ([]string, error) {
	return f(ctx, image)
}

// OCRInfo contains information about the OCR subsystem.
type OCRInfo struct {
	Available bool   `json:"available"`
	Version   string `json:"version,omitempty"`
	Language  string `json:"language"`
	Error     string `json:"error,omitempty"`
	Backend   string `json:"backend"`
}

type timeoutRecognizer struct {
	next    Recognizer
	timeout time.Duration
}

// WithTimeout bounds each Recognize call on r to d. A non-positive d returns
// r unchanged.
func WithTimeout(r Recognizer, d time.Duration) Recognizer {
	if d <= 0 {
		return r
	}
	return &timeoutRecognizer{next: r, timeout: d}
}

type recognizeResult struct {
	lines []string
	err   error
}

func (t *timeoutRecognizer) Recognize(ctx context.Context, image []byte) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	done := make(chan recognizeResult, 1)
	go func() {
		lines, err := t.next.Recognize(ctx, image)
		done <- recognizeResult{lines, err}
	}()

	select {
	case res := <-done:
		return res.lines, res.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("ocr: recognition exceeded %s: %w", t.timeout, ctx.Err())
		}
		return nil, ctx.Err()
	}
}

// SplitLines splits recognized text on line breaks, trimming each line and
// dropping blank ones.
func SplitLines(text string) []string {
	lines := make([]string, 0)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(strings.TrimSuffix(line, "\r"))
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
