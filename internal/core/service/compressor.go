package service

import (
	"context"
	"fmt"
	"image"
	"kbfit/internal/core/domain"
	"kbfit/internal/core/port"
	"math"

	"github.com/rs/zerolog/log"
)

const (
	// DefaultSearchSteps is the fixed number of bisection steps per quality search.
	DefaultSearchSteps = 12
	// DefaultMaxRounds is the number of quality searches, each at a smaller resolution than the last.
	DefaultMaxRounds = 4

	// DownscaleFactor is the linear shrink applied to both dimensions between rounds.
	DownscaleFactor = 0.85

	fastPathQuality = 0.95
	initialQuality  = 0.95
	baselineQuality = 0.9
	searchLow       = 0.1
	searchHigh      = 0.95

	// maxTargetKB is the largest budget whose byte count does not overflow an int.
	maxTargetKB = math.MaxInt / 1024
)

type CompressorOptions struct {
	SearchSteps int
	MaxRounds   int
}

// SizeCompressor fits an image into a byte budget by lowering JPEG quality and, failing that, the resolution.
// It holds no per-call state and is safe for concurrent use.
type SizeCompressor struct {
	decoder   port.ImageDecoder
	encoder   port.ImageEncoder
	resampler port.ImageResampler
	steps     int
	rounds    int
}

func NewSizeCompressor(decoder port.ImageDecoder, encoder port.ImageEncoder, resampler port.ImageResampler,
	opts CompressorOptions) *SizeCompressor {
	c := &SizeCompressor{
		decoder:   decoder,
		encoder:   encoder,
		resampler: resampler,
		steps:     opts.SearchSteps,
		rounds:    opts.MaxRounds,
	}

	if c.steps <= 0 {
		c.steps = DefaultSearchSteps
	}
	if c.rounds <= 0 {
		c.rounds = DefaultMaxRounds
	}

	return c
}

// candidate is one encode of a working buffer.
type candidate struct {
	data    []byte
	quality float64
	bounds  image.Rectangle
	round   int
}

func (c *candidate) result() *domain.Result {
	return &domain.Result{
		Data:    c.data,
		Quality: c.quality,
		Width:   c.bounds.Dx(),
		Height:  c.bounds.Dy(),
		Rounds:  c.round,
	}
}

func (s *SizeCompressor) Compress(ctx context.Context, input []byte, targetKB int) (*domain.Result, error) {
	if targetKB <= 0 {
		return nil, fmt.Errorf("%w: target size must be greater than zero, got %d KB", domain.ErrInvalidArgument,
			targetKB)
	}
	if targetKB > maxTargetKB {
		return nil, fmt.Errorf("%w: target size %d KB does not fit in a byte count", domain.ErrInvalidArgument,
			targetKB)
	}

	original, err := s.decoder.Decode(input)
	if err != nil {
		return nil, err
	}

	targetBytes := domain.TargetBytes(targetKB)

	l := log.Ctx(ctx).With().
		Int("inputBytes", len(input)).
		Int("targetBytes", targetBytes).
		Int("width", original.Bounds().Dx()).
		Int("height", original.Bounds().Dy()).
		Str("encoder", s.encoder.Name()).
		Logger()

	// The original file size is only a cheap pre-check; the source may be in another format.
	if len(input) <= targetBytes {
		l.Debug().Msg("input already within budget, re-encoding once")
		c, err := s.encode(original, fastPathQuality, 0)
		if err != nil {
			return nil, err
		}
		return c.result(), nil
	}

	working := original
	best, err := s.encode(working, initialQuality, 0)
	if err != nil {
		return nil, err
	}
	smallest := best

	for round := 0; round < s.rounds && len(best.data) > targetBytes; round++ {
		best, err = s.searchQuality(working, targetBytes, round)
		if err != nil {
			return nil, err
		}
		smallest = smaller(smallest, best)

		l.Debug().
			Int("round", round).
			Int("size", len(best.data)).
			Float64("quality", best.quality).
			Msg("quality search finished")

		if len(best.data) <= targetBytes {
			return best.result(), nil
		}

		working, err = s.resampler.Resample(working, DownscaleFactor)
		if err != nil {
			return nil, fmt.Errorf("downscale: %w", err)
		}

		best, err = s.encode(working, baselineQuality, round+1)
		if err != nil {
			return nil, err
		}
		smallest = smaller(smallest, best)
	}

	if len(best.data) <= targetBytes {
		return best.result(), nil
	}

	l.Info().
		Int("size", len(smallest.data)).
		Int("width", smallest.bounds.Dx()).
		Int("height", smallest.bounds.Dy()).
		Msg("target size not reached, returning smallest candidate")

	return smallest.result(), nil
}

// searchQuality bisects the quality range [0.1, 0.95] for the highest quality whose encoding fits targetBytes.
// When even the lowest quality is too large, the low-bound encode is returned.
func (s *SizeCompressor) searchQuality(img image.Image, targetBytes int, round int) (*candidate, error) {
	low, high := searchLow, searchHigh

	best, err := s.encode(img, low, round)
	if err != nil {
		return nil, err
	}

	for i := 0; i < s.steps; i++ {
		mid := (low + high) / 2

		c, err := s.encode(img, mid, round)
		if err != nil {
			return nil, err
		}

		if len(c.data) > targetBytes {
			high = mid
			continue
		}

		best = c
		low = mid
	}

	return best, nil
}

func (s *SizeCompressor) encode(img image.Image, quality float64, round int) (*candidate, error) {
	data, err := s.encoder.Encode(img, quality)
	if err != nil {
		return nil, fmt.Errorf("encode at quality %.3f: %w", quality, err)
	}

	return &candidate{data: data, quality: quality, bounds: img.Bounds(), round: round}, nil
}

func smaller(a, b *candidate) *candidate {
	if len(b.data) < len(a.data) {
		return b
	}
	return a
}
