package codec

import (
	"bytes"
	"fmt"
	"image"
	"kbfit/internal/core/domain"

	// Registered decoders.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/rs/zerolog/log"
)

// DefaultMaxPixels bounds decoded images to roughly 64 megapixels, keeping a 4-byte-per-pixel buffer under 256 MB.
const DefaultMaxPixels int64 = 64 * 1024 * 1024

type Decoder struct {
	maxPixels int64
}

// NewDecoder returns a Decoder rejecting images above maxPixels. A non-positive value selects DefaultMaxPixels.
func NewDecoder(maxPixels int64) *Decoder {
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}
	return &Decoder{maxPixels: maxPixels}
}

// Decode reads any registered raster format. The header is checked against the pixel bound before the full decode
// allocates the buffer.
func (d *Decoder) Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", domain.ErrUnreadableImage)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUnreadableImage, err)
	}

	if err := d.validateBounds(cfg.Width, cfg.Height); err != nil {
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrUnreadableImage, format, err)
	}

	b := img.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("%w: empty image (%dx%d)", domain.ErrUnreadableImage, b.Dx(), b.Dy())
	}

	log.Debug().Str("format", format).Int("width", b.Dx()).Int("height", b.Dy()).Msg("decoded image")

	return img, nil
}

func (d *Decoder) validateBounds(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: image bounds invalid (%d x %d)", domain.ErrUnreadableImage, width, height)
	}

	pixels := int64(width) * int64(height)
	if pixels > d.maxPixels {
		return fmt.Errorf("%w: %w: pixel count %d exceeds limit %d", domain.ErrUnreadableImage,
			domain.ErrImageTooLarge, pixels, d.maxPixels)
	}

	return nil
}
