// Package imaging prepares photographs of food packaging for OCR.
//
// Label photos arrive as PNG, JPEG or GIF bytes, often rotated by the camera,
// narrower than Tesseract likes, and sometimes printed light-on-dark. The
// functions here decode them with EXIF orientation applied, optionally crop
// to the ingredients panel, and run a fixed enhancement chain: upscale,
// grayscale, inversion of dark labels, contrast boost, sharpening and an
// optional binarisation threshold.
//
// # Coordinate System
//
// Regions use the standard image.Rectangle convention: (0,0) is the top-left
// pixel, Min is inclusive and Max is exclusive.
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. The processing functions never
// modify their input and can be called concurrently.
package imaging
