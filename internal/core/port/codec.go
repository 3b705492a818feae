package port

import "image"

type ImageDecoder interface {
	// Decode turns raw image bytes into a pixel buffer. Unreadable input fails with domain.ErrUnreadableImage.
	Decode(data []byte) (image.Image, error)
}

type ImageEncoder interface {
	// Encode produces JPEG bytes for img at the given quality, flattening transparency first. The quality is
	// clamped to [0.05, 1.0]. Identical inputs yield identical bytes.
	Encode(img image.Image, quality float64) ([]byte, error)
	// Name identifies the encoder backend.
	Name() string
}

type ImageResampler interface {
	// Resample returns a new buffer with both dimensions multiplied by factor, rounded down and floored at 1.
	Resample(img image.Image, factor float64) (image.Image, error)
}
