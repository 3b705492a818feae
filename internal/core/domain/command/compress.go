package command

import (
	"context"
	"fmt"
	"kbfit/internal/core/domain"
	"kbfit/internal/core/port"
	"kbfit/internal/core/service"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Compress struct {
	compressor     port.Compressor
	history        port.History
	download       port.Downloader
	textSender     port.TextSender
	documentSender port.DocumentSender
	track          service.Tracker
	defaultKB      int
	maxDownload    int64
	command        string
	l              *zerolog.Logger
}

type CompressParams struct {
	Compressor     port.Compressor
	History        port.History
	Download       port.Downloader
	TextSender     port.TextSender
	DocumentSender port.DocumentSender
	Track          service.Tracker
	// DefaultKB is used when the command carries no size argument.
	DefaultKB   int
	MaxDownload int64
	Command     string
}

func NewCompress(p CompressParams) *Compress {
	logger := log.With().
		Str("command", p.Command).
		Str("handler", "compress").
		Logger()

	return &Compress{
		compressor:     p.Compressor,
		history:        p.History,
		download:       p.Download,
		textSender:     p.TextSender,
		documentSender: p.DocumentSender,
		track:          p.Track,
		defaultKB:      p.DefaultKB,
		maxDownload:    p.MaxDownload,
		command:        p.Command,
		l:              &logger,
	}
}

func (c *Compress) GetCommand() string {
	return c.command
}

const compressUsage = "usage: reply to an image with %s <kb>, %d-%d"

func (c *Compress) Respond(ctx context.Context, timeout time.Duration, message *domain.Message) error {
	l := c.l.With().
		Int("messageId", message.ID).
		Int64("chatId", message.ChatID).
		Logger()

	l.Info().Msg("handling request")

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	ctx = l.WithContext(ctx)

	if message.FileURL == "" {
		_ = c.textSender.NotifyAndReturnError(ctx, fmt.Errorf("%w: missing image, "+compressUsage,
			domain.ErrInvalidArgument, c.command, domain.MinTargetKB, domain.MaxTargetKB), message)
		return nil
	}

	targetKB := c.defaultKB
	if args := ParseCommandArgs(message.Text); args != "" {
		kb, err := domain.ParseTargetKB(args)
		if err != nil {
			_ = c.textSender.NotifyAndReturnError(ctx, err, message)
			return nil
		}
		targetKB = kb
	}

	if c.track != nil && !c.track.CheckLimit(ctx, message.ChatID) {
		l.Info().Msg("daily limit reached")
		return nil
	}

	go c.textSender.SendChatAction(ctx, message.ChatID, domain.UploadingDocument)

	input, err := c.download(ctx, message.FileURL, c.maxDownload)
	if err != nil {
		return c.textSender.NotifyAndReturnError(ctx, fmt.Errorf("failed to download image: %w", err), message)
	}

	if c.track != nil {
		c.track.AddUsage(message.ChatID, int64(len(input)))
	}

	res, err := c.compressor.Compress(ctx, input, targetKB)
	if err != nil {
		return c.textSender.NotifyAndReturnError(ctx, err, message)
	}

	l.Info().
		Int("inputBytes", len(input)).
		Int("outputBytes", res.Size()).
		Float64("quality", res.Quality).
		Int("rounds", res.Rounds).
		Msg("compressed image")

	err = c.documentSender.SendDocumentReply(ctx, message, domain.CompressedFileName(message.FileName), res.Data,
		caption(res, targetKB))
	if err != nil {
		return c.textSender.NotifyAndReturnError(ctx, fmt.Errorf("failed to send compressed image: %w", err),
			message)
	}

	if _, err := c.history.Record(ctx, message.FileName, int64(res.Size()), targetKB); err != nil {
		l.Warn().Err(err).Msg("failed to record history")
	}

	return nil
}

func caption(res *domain.Result, targetKB int) string {
	text := fmt.Sprintf("%.1f KB, %dx%d, quality %d%%", float64(res.Size())/1024, res.Width, res.Height,
		int(res.Quality*100+0.5))
	if !res.WithinBudget(domain.TargetBytes(targetKB)) {
		text += fmt.Sprintf("\ncould not reach %d KB, this is the smallest version", targetKB)
	}

	return text
}

