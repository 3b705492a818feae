package codec

import (
	"fmt"
	"image"
	"kbfit/internal/core/domain"

	"golang.org/x/image/draw"
)

// Resampler shrinks images with bilinear interpolation.
type Resampler struct{}

func NewResampler() *Resampler {
	return &Resampler{}
}

// Resample returns a new RGBA buffer of floor(d*factor) pixels per dimension, never less than one. factor must lie
// in (0, 1). img is not modified.
func (r *Resampler) Resample(img image.Image, factor float64) (image.Image, error) {
	if !(factor > 0 && factor < 1) {
		return nil, fmt.Errorf("%w: scale factor %v outside (0, 1)", domain.ErrInvalidArgument, factor)
	}

	b := img.Bounds()
	w := max(1, int(float64(b.Dx())*factor))
	h := max(1, int(float64(b.Dy())*factor))

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)

	return dst, nil
}
