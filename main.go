package main

import (
	"context"
	"errors"
	"fmt"
	"kbfit/internal/adapters/codec"
	"kbfit/internal/adapters/converter"
	"kbfit/internal/adapters/file"
	"kbfit/internal/adapters/handler"
	"kbfit/internal/adapters/history"
	"kbfit/internal/adapters/sender"
	"kbfit/internal/adapters/web"
	"kbfit/internal/core/domain"
	"kbfit/internal/core/domain/command"
	"kbfit/internal/core/port"
	"kbfit/internal/core/service"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

func main() {
	log.Info().Msg("starting kbfit...")

	setDefaults()

	viper.AddConfigPath(".")
	viper.SetConfigName("config")
	viper.SetConfigType("toml")
	viper.SetEnvPrefix("KBFIT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	log.Info().Msg("reading config file...")
	err := viper.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			log.Fatal().Err(err).Msg("could not read config file")
		}
		log.Info().Msg("no config file found, using defaults and environment")
	}

	var logLevel zerolog.Level

	switch viper.GetString("app.log_level") {
	case "info":
		logLevel = zerolog.InfoLevel
	case "debug":
		logLevel = zerolog.DebugLevel
	case "warn":
		logLevel = zerolog.WarnLevel
	default:
		logLevel = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(logLevel)
	zerolog.DefaultContextLogger = &log.Logger

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err = run(ctx)
	cancel()
	if err != nil {
		log.Error().Err(err).Msg("shutting down with error")
		os.Exit(1)
	}

	log.Info().Msg("bye")
}

var errNoFrontEnd = errors.New("neither the http server nor the telegram bot is enabled")

// run wires the configured front ends and blocks until ctx is cancelled or one of them fails.
func run(ctx context.Context) error {
	serverEnabled := viper.GetBool("server.enabled")
	token := viper.GetString("telegram.bot_token")
	if !serverEnabled && token == "" {
		log.Warn().Msg("enable server.enabled or set telegram.bot_token")
		return errNoFrontEnd
	}

	encoder, err := newEncoder(viper.GetString("codec.encoder"))
	if err != nil {
		return fmt.Errorf("failed initializing jpeg encoder: %w", err)
	}
	log.Info().Str("encoder", encoder.Name()).Msg("jpeg encoder ready")

	compressor := service.NewSizeCompressor(
		codec.NewDecoder(viper.GetInt64("codec.max_pixels")),
		encoder,
		codec.NewResampler(),
		service.CompressorOptions{
			SearchSteps: viper.GetInt("compressor.search_steps"),
			MaxRounds:   viper.GetInt("compressor.max_rounds"),
		})

	repo, closeRepo, err := newHistoryRepository(viper.GetString("history.path"))
	if err != nil {
		return fmt.Errorf("failed initializing history: %w", err)
	}
	defer closeRepo()

	historyService := service.NewHistoryService(repo)

	g, ctx := errgroup.WithContext(ctx)

	if serverEnabled {
		server := web.NewServer(web.Config{
			Addr:              viper.GetString("server.addr"),
			AllowedOrigins:    viper.GetStringSlice("server.allowed_origins"),
			MaxConcurrent:     viper.GetInt64("server.max_concurrent"),
			AcquireTimeout:    viper.GetDuration("server.acquire_timeout"),
			RequestsPerSecond: viper.GetFloat64("server.requests_per_second"),
			Burst:             viper.GetInt("server.burst"),
			MaxUploadBytes:    viper.GetInt64("server.max_upload_mb") * 1024 * 1024,
			ShutdownTimeout:   viper.GetDuration("server.shutdown_timeout"),
		}, compressor, historyService, encoder.Name())

		g.Go(func() error {
			return server.ListenAndServe(ctx)
		})
	}

	if token != "" {
		b, err := newBot(ctx, token, compressor, historyService)
		if err != nil {
			return fmt.Errorf("failed initializing telegram bot: %w", err)
		}

		g.Go(func() error {
			log.Info().Msg("bot listening")
			b.Start(ctx)
			return nil
		})
	}

	return g.Wait()
}

func setDefaults() {
	viper.SetDefault("app.log_level", "info")
	viper.SetDefault("codec.encoder", "std")
	viper.SetDefault("codec.max_pixels", codec.DefaultMaxPixels)
	viper.SetDefault("compressor.search_steps", service.DefaultSearchSteps)
	viper.SetDefault("compressor.max_rounds", service.DefaultMaxRounds)
	viper.SetDefault("history.path", "")
	viper.SetDefault("server.enabled", true)
	viper.SetDefault("server.addr", ":8080")
	viper.SetDefault("server.allowed_origins", []string{"*"})
	viper.SetDefault("server.max_concurrent", 2)
	viper.SetDefault("server.acquire_timeout", "30s")
	viper.SetDefault("server.requests_per_second", 5)
	viper.SetDefault("server.burst", 10)
	viper.SetDefault("server.max_upload_mb", 20)
	viper.SetDefault("server.shutdown_timeout", "10s")
	viper.SetDefault("telegram.default_target_kb", 500)
	viper.SetDefault("telegram.daily_limit_mb", 200)
	viper.SetDefault("handler.timeout", "2m")
}

func newEncoder(name string) (port.ImageEncoder, error) {
	switch name {
	case "std":
		return codec.NewStdEncoder()
	case "jpegli":
		return codec.NewJpegliEncoder()
	case "magick":
		return converter.NewMagickEncoder()
	default:
		return nil, fmt.Errorf("%w: unknown encoder %q", domain.ErrEncoderUnavailable, name)
	}
}

func newHistoryRepository(path string) (port.HistoryRepository, func(), error) {
	if path == "" {
		log.Info().Msg("keeping history in memory")
		return history.NewMemoryRepository(), func() {}, nil
	}

	repo, err := history.NewFileRepository(path)
	if err != nil {
		return nil, nil, err
	}

	return repo, func() {
		if err := repo.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close history log")
		}
	}, nil
}

func newBot(ctx context.Context, token string, compressor port.Compressor, hist port.History) (*bot.Bot, error) {
	b, err := bot.New(token, bot.WithDefaultHandler(noOpHandler))
	if err != nil {
		return nil, err
	}

	s := sender.NewTelegram(b)

	authorizer, err := service.NewAuthorizer(s)
	if err != nil {
		return nil, err
	}

	handlerTimeout, err := time.ParseDuration(viper.GetString("handler.timeout"))
	if err != nil {
		return nil, fmt.Errorf("invalid timeout for handler in config: %w", err)
	}

	commandRegistry := &command.Registry{}

	commandRegistry.Register(command.NewCompress(command.CompressParams{
		Compressor:     compressor,
		History:        hist,
		Download:       file.DownloadFile,
		TextSender:     s,
		DocumentSender: s,
		Track:          service.NewUsageTracker(ctx, s),
		DefaultKB:      viper.GetInt("telegram.default_target_kb"),
		MaxDownload:    handler.TelegramDownloadLimit,
		Command:        "/compress",
	}))
	commandRegistry.Register(command.NewHistory(hist, s, "/history"))

	commandHandler := handler.NewCommand(commandRegistry, b, authorizer, handlerTimeout)

	b.RegisterHandler(bot.HandlerTypeMessageText, "/", bot.MatchTypePrefix, commandHandler.Handle)
	b.RegisterHandler(bot.HandlerTypePhotoCaption, "/", bot.MatchTypePrefix, commandHandler.Handle)

	return b, nil
}

func noOpHandler(_ context.Context, _ *bot.Bot, _ *models.Update) {}
