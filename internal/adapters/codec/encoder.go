package codec

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"kbfit/internal/core/domain"
	"kbfit/internal/core/port"
	"math"

	"golang.org/x/image/draw"
)

const (
	MinQuality = 0.05
	MaxQuality = 1.0
)

// ClampQuality limits q to [MinQuality, MaxQuality]. NaN maps to MinQuality.
func ClampQuality(q float64) float64 {
	if math.IsNaN(q) {
		return MinQuality
	}
	return math.Max(MinQuality, math.Min(q, MaxQuality))
}

// JPEGQuality maps a continuous quality onto the 1-100 scale used by JPEG encoders.
func JPEGQuality(q float64) int {
	return max(1, min(100, int(math.Round(ClampQuality(q)*100))))
}

// Flatten returns an opaque RGBA copy of img composited over black, with its origin at (0, 0).
// Opaque RGBA buffers already at the origin are returned as they are.
func Flatten(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) && rgba.Opaque() {
		return rgba
	}

	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), image.Black, image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Over)

	return dst
}

// Probe encodes a single black pixel and checks for a JPEG start-of-image marker.
func Probe(enc port.ImageEncoder) error {
	data, err := enc.Encode(image.NewRGBA(image.Rect(0, 0, 1, 1)), MaxQuality)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrEncoderUnavailable, enc.Name(), err)
	}

	if !IsJPEG(data) {
		return fmt.Errorf("%w: %s: probe output is not a JPEG stream", domain.ErrEncoderUnavailable, enc.Name())
	}

	return nil
}

// IsJPEG checks for the SOI marker.
func IsJPEG(data []byte) bool {
	return len(data) >= 2 && data[0] == 0xFF && data[1] == 0xD8
}

// StdEncoder uses the standard library baseline JPEG encoder.
type StdEncoder struct{}

func NewStdEncoder() (*StdEncoder, error) {
	e := &StdEncoder{}
	if err := Probe(e); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *StdEncoder) Encode(img image.Image, quality float64) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, Flatten(img), &jpeg.Options{Quality: JPEGQuality(quality)}); err != nil {
		return nil, fmt.Errorf("jpeg encode: %w", err)
	}

	return buf.Bytes(), nil
}

func (e *StdEncoder) Name() string {
	return "std"
}
