package converter

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"kbfit/internal/adapters/codec"
	"kbfit/internal/adapters/file"
	"kbfit/internal/core/domain"
	"os/exec"
	"strconv"

	"github.com/rs/zerolog/log"
)

// MagickEncoder shells out to ImageMagick for the JPEG encode. The working buffer is handed over as a lossless PNG.
type MagickEncoder struct {
	magickBinary []string
}

func NewMagickEncoder() (*MagickEncoder, error) {
	eh := &MagickEncoder{}
	commands := [][]string{{"magick", "convert", "-version"}, {"convert", "-version"}}

	for _, command := range commands {
		_, err := exec.Command(command[0], command[1:]...).Output()
		if err != nil {
			log.Debug().Strs("commands", command).Msg("binary not found")
			continue
		}

		log.Debug().Strs("commands", command).Msg("binary found")
		eh.magickBinary = command[:len(command)-1]
		break
	}

	if len(eh.magickBinary) == 0 {
		return nil, fmt.Errorf("%w: magick binary not available", domain.ErrEncoderUnavailable)
	}

	if err := codec.Probe(eh); err != nil {
		return nil, err
	}

	return eh, nil
}

func (m *MagickEncoder) Encode(img image.Image, quality float64) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, codec.Flatten(img)); err != nil {
		return nil, fmt.Errorf("%w: writing intermediate png: %w", domain.ErrEncoderUnavailable, err)
	}

	in, err := file.SaveTempFile(buf.Bytes(), ".png")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEncoderUnavailable, err)
	}
	defer file.RemoveTempFile(in)

	out, err := file.TempPath(".jpg")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEncoderUnavailable, err)
	}

	args := append([]string{}, m.magickBinary...)
	args = append(args, in, "-strip", "-sampling-factor", "4:2:0", "-quality",
		strconv.Itoa(codec.JPEGQuality(quality)), "jpeg:"+out)

	cmd := exec.Command(args[0], args[1:]...)
	stderr, err := cmd.CombinedOutput()
	if err != nil {
		log.Error().Bytes("magickStderr", stderr).Msg("magick commands failed")
		return nil, fmt.Errorf("%w: %w", domain.ErrEncoderUnavailable, err)
	}
	defer file.RemoveTempFile(out)

	log.Debug().Float64("quality", quality).Msg("magick commands finished")

	return file.GetTempFile(out)
}

func (m *MagickEncoder) Name() string {
	return "magick"
}
