package web

import (
	"context"
	"errors"
	"kbfit/internal/core/port"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

type Config struct {
	Addr string
	// AllowedOrigins is matched against the Origin header of /compress requests; "*" allows any origin.
	AllowedOrigins []string
	// MaxConcurrent bounds the compressions running at once.
	MaxConcurrent int64
	// AcquireTimeout is how long a request waits for a free compression slot before it is turned away.
	AcquireTimeout time.Duration
	// RequestsPerSecond and Burst configure the /compress rate limit, disabled for non-positive values.
	RequestsPerSecond float64
	Burst             int
	MaxUploadBytes    int64
	ShutdownTimeout   time.Duration
}

type Server struct {
	cfg         Config
	compressor  port.Compressor
	history     port.History
	encoderName string
	slots       *semaphore.Weighted
	limiter     *rate.Limiter
}

func NewServer(cfg Config, compressor port.Compressor, history port.History, encoderName string) *Server {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 1
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 20 * 1024 * 1024
	}
	if cfg.AcquireTimeout <= 0 {
		cfg.AcquireTimeout = 30 * time.Second
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}

	s := &Server{
		cfg:         cfg,
		compressor:  compressor,
		history:     history,
		encoderName: encoderName,
		slots:       semaphore.NewWeighted(cfg.MaxConcurrent),
	}

	if cfg.RequestsPerSecond > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), max(cfg.Burst, 1))
	}

	return s
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("POST /compress", s.cors(http.HandlerFunc(s.handleCompress)))
	mux.Handle("OPTIONS /compress", s.cors(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})))
	mux.HandleFunc("GET /api/history", s.handleListHistory)
	mux.HandleFunc("DELETE /api/history", s.handleClearHistory)
	mux.HandleFunc("DELETE /api/history/{id}", s.handleDeleteHistory)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	return requestLogger(mux)
}

// ListenAndServe serves until ctx is cancelled and then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return context.WithoutCancel(ctx)
		},
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.cfg.Addr).Msg("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down http server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok", "encoder": s.encoderName})
}
