package codec

import (
	"bytes"
	"fmt"
	"image"

	"github.com/gen2brain/jpegli"
)

// JpegliEncoder encodes through libjpegli compiled to WebAssembly. It yields smaller files than StdEncoder at equal
// quality and needs no cgo.
type JpegliEncoder struct{}

func NewJpegliEncoder() (*JpegliEncoder, error) {
	e := &JpegliEncoder{}
	if err := Probe(e); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *JpegliEncoder) Encode(img image.Image, quality float64) ([]byte, error) {
	var buf bytes.Buffer

	err := jpegli.Encode(&buf, Flatten(img), &jpegli.EncodingOptions{
		Quality:           JPEGQuality(quality),
		ChromaSubsampling: image.YCbCrSubsampleRatio420,
	})
	if err != nil {
		return nil, fmt.Errorf("jpegli encode: %w", err)
	}

	return buf.Bytes(), nil
}

func (e *JpegliEncoder) Name() string {
	return "jpegli"
}
