package web

import (
	"errors"
	"kbfit/internal/core/domain"
	"net/http"

	"github.com/gofrs/uuid/v5"
	"github.com/rs/zerolog/log"
)

func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := s.history.List(r.Context())
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("failed to list history")
		http.Error(w, "Failed to load history.", http.StatusInternalServerError)
		return
	}

	if entries == nil {
		entries = []domain.HistoryEntry{}
	}

	writeJSON(w, r, http.StatusOK, entries)
}

func (s *Server) handleDeleteHistory(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.FromString(r.PathValue("id"))
	if err != nil {
		http.Error(w, "Invalid history id.", http.StatusBadRequest)
		return
	}

	err = s.history.Delete(r.Context(), id)
	switch {
	case errors.Is(err, domain.ErrHistoryNotFound):
		http.Error(w, "History entry not found.", http.StatusNotFound)
	case err != nil:
		log.Ctx(r.Context()).Error().Err(err).Msg("failed to delete history entry")
		http.Error(w, "Failed to delete history entry.", http.StatusInternalServerError)
	default:
		w.WriteHeader(http.StatusOK)
	}
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	if err := s.history.Clear(r.Context()); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("failed to clear history")
		http.Error(w, "Failed to clear history.", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}
