package imaging

import (
	"image"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/segment"
	"github.com/disintegration/imaging"
	colorful "github.com/lucasb-eyer/go-colorful"
)

// DarkLabelLightness is the mean CIE L* below which a label is treated as
// light text on a dark background and inverted before recognition.
const DarkLabelLightness = 0.45

// PreprocessOptions controls the enhancement chain applied before OCR.
type PreprocessOptions struct {
	// Region, when non-nil, crops the image before any other step.
	Region *image.Rectangle

	// MinWidth upscales narrower images to this width, keeping the aspect
	// ratio. Zero disables upscaling.
	MinWidth int

	// Contrast is the normalized contrast change; 0.3 means a 30% increase.
	Contrast float64

	// Sharpen is the Gaussian sigma of the unsharp pass. Zero disables it.
	Sharpen float64

	// Binarize applies a fixed threshold after enhancement.
	Binarize bool

	// Threshold is the gray level separating ink from paper when Binarize is
	// set.
	Threshold uint8
}

// DefaultPreprocessOptions returns the settings used for label photos.
func DefaultPreprocessOptions() PreprocessOptions {
	return PreprocessOptions{
		MinWidth:  1000,
		Contrast:  0.3,
		Sharpen:   1.0,
		Threshold: 128,
	}
}

// Preprocess runs the OCR enhancement chain on img and returns a new image.
func Preprocess(img image.Image, opts PreprocessOptions) (*image.NRGBA, error) {
	src := img
	if opts.Region != nil {
		cropped, err := Crop(img, *opts.Region)
		if err != nil {
			return nil, err
		}
		src = cropped
	}

	if w := src.Bounds().Dx(); opts.MinWidth > 0 && w > 0 && w < opts.MinWidth {
		src = imaging.Resize(src, opts.MinWidth, 0, imaging.Lanczos)
	}

	out := imaging.Grayscale(src)

	if MeanLightness(out, 0) < DarkLabelLightness {
		out = imaging.Clone(effect.Invert(out))
	}

	if opts.Contrast != 0 {
		out = imaging.Clone(adjust.Contrast(out, opts.Contrast))
	}

	if opts.Sharpen > 0 {
		out = imaging.Sharpen(out, opts.Sharpen)
	}

	if opts.Binarize {
		out = imaging.Clone(segment.Threshold(out, opts.Threshold))
	}

	return out, nil
}

// MeanLightness returns the mean CIE L* of img in [0,1], sampling every
// step-th pixel in both directions. A step below 1 picks one that samples
// roughly 200x200 points.
func MeanLightness(img image.Image, step int) float64 {
	bounds := img.Bounds()
	if bounds.Empty() {
		return 0
	}
	if step < 1 {
		step = max(1, max(bounds.Dx(), bounds.Dy())/200)
	}

	var sum float64
	var n int
	for y := bounds.Min.Y; y < bounds.Max.Y; y += step {
		for x := bounds.Min.X; x < bounds.Max.X; x += step {
			c, ok := colorful.MakeColor(img.At(x, y))
			if !ok {
				// Fully transparent pixels carry no colour.
				continue
			}
			l, _, _ := c.Lab()
			sum += l
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return clampUnit(sum / float64(n))
}

func clampUnit(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
