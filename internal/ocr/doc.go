// Package ocr turns a preprocessed label image into lines of text using
// Tesseract.
//
// # Prerequisites
//
// Tesseract and its language data must be installed on the system:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-eng
//   - macOS: brew install tesseract
//
// The binding is built with cgo. Builds without cgo get a Tesseract whose
// Recognize always fails with ErrUnavailable, so the rest of the server
// (scoring, preferences) still works.
//
// # Concurrency
//
// gosseract clients are not safe for concurrent use, so every Recognize call
// creates and closes its own client. Tesseract itself cannot be interrupted
// once started; WithTimeout bounds how long a caller waits, and an abandoned
// recognition finishes in the background.
package ocr
