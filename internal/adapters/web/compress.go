package web

import (
	"context"
	"errors"
	"io"
	"kbfit/internal/core/domain"
	"mime"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"
)

const multipartMemory = 8 << 20

func (s *Server) handleCompress(w http.ResponseWriter, r *http.Request) {
	l := log.Ctx(r.Context())

	if s.limiter != nil && !s.limiter.Allow() {
		l.Info().Msg("rate limited")
		http.Error(w, "Too many requests, try again later.", http.StatusTooManyRequests)
		return
	}

	if r.ContentLength > s.cfg.MaxUploadBytes {
		http.Error(w, "Upload too large.", http.StatusRequestEntityTooLarge)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "Upload too large.", http.StatusRequestEntityTooLarge)
			return
		}
		l.Debug().Err(err).Msg("bad multipart form")
		http.Error(w, "Please upload an image file.", http.StatusBadRequest)
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	targetKB, err := domain.ParseTargetKB(r.FormValue("targetKb"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	f, header, err := r.FormFile("image")
	if err != nil || header.Size == 0 {
		http.Error(w, "Please upload an image file.", http.StatusBadRequest)
		return
	}
	defer f.Close()

	input, err := io.ReadAll(f)
	if err != nil {
		l.Error().Err(err).Msg("failed to read upload")
		http.Error(w, "Failed to read upload.", http.StatusBadRequest)
		return
	}

	acquireCtx, cancel := context.WithTimeout(r.Context(), s.cfg.AcquireTimeout)
	err = s.slots.Acquire(acquireCtx, 1)
	cancel()
	if err != nil {
		l.Warn().Err(err).Msg("no compression slot available")
		http.Error(w, "Server busy, try again later.", http.StatusServiceUnavailable)
		return
	}
	res, err := s.compressor.Compress(r.Context(), input, targetKB)
	s.slots.Release(1)

	if err != nil {
		writeCompressError(w, r, err)
		return
	}

	name := domain.CompressedFileName(header.Filename)

	if _, err := s.history.Record(r.Context(), header.Filename, int64(res.Size()), targetKB); err != nil {
		l.Warn().Err(err).Msg("failed to record history")
	}

	h := w.Header()
	h.Set("Content-Type", "image/jpeg")
	h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	h.Set("Content-Length", strconv.Itoa(res.Size()))
	h.Set("X-Within-Budget", strconv.FormatBool(res.WithinBudget(domain.TargetBytes(targetKB))))
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write(res.Data); err != nil {
		l.Warn().Err(err).Msg("failed to write compressed image")
	}
}

func writeCompressError(w http.ResponseWriter, r *http.Request, err error) {
	l := log.Ctx(r.Context())

	switch {
	case errors.Is(err, domain.ErrImageTooLarge):
		l.Info().Err(err).Msg("image rejected")
		http.Error(w, "Image dimensions too large.", http.StatusRequestEntityTooLarge)
	case errors.Is(err, domain.ErrUnreadableImage):
		l.Info().Err(err).Msg("image rejected")
		http.Error(w, "Unsupported or corrupt image.", http.StatusBadRequest)
	case errors.Is(err, domain.ErrInvalidArgument):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrEncoderUnavailable):
		l.Error().Err(err).Msg("encoder unavailable")
		http.Error(w, "Compression unavailable.", http.StatusServiceUnavailable)
	default:
		l.Error().Err(err).Msg("compression failed")
		http.Error(w, "Compression failed.", http.StatusInternalServerError)
	}
}
