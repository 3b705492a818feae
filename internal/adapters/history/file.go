package history

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"kbfit/internal/core/domain"
	"os"
	"sync"

	"github.com/gofrs/uuid/v5"
	"github.com/rs/zerolog/log"
)

const (
	opSave   = "save"
	opDelete = "delete"
	opClear  = "clear"
)

// record is one line of the history log.
type record struct {
	Op    string               `json:"op"`
	Entry *domain.HistoryEntry `json:"entry,omitempty"`
	ID    *uuid.UUID           `json:"id,omitempty"`
}

// FileRepository keeps the history in memory and appends every mutation as a JSON line to a log file, which is
// replayed on open.
type FileRepository struct {
	mu    sync.Mutex
	path  string
	f     *os.File
	state map[uuid.UUID]domain.HistoryEntry
}

func NewFileRepository(path string) (*FileRepository, error) {
	r := &FileRepository{
		path:  path,
		state: make(map[uuid.UUID]domain.HistoryEntry),
	}

	if err := r.replay(); err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("error opening history log %w", err)
	}
	r.f = f

	log.Debug().Str("path", path).Int("entries", len(r.state)).Msg("history log opened")

	return r, nil
}

func (r *FileRepository) replay() error {
	f, err := os.Open(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("error reading history log %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}

		var rec record
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			// a torn final write is skipped, the rest of the log stays usable
			log.Warn().Err(err).Int("line", line).Str("path", r.path).Msg("skipping corrupt history record")
			continue
		}

		r.apply(rec)
	}

	return scanner.Err()
}

func (r *FileRepository) apply(rec record) {
	switch rec.Op {
	case opSave:
		if rec.Entry != nil {
			r.state[rec.Entry.ID] = *rec.Entry
		}
	case opDelete:
		if rec.ID != nil {
			delete(r.state, *rec.ID)
		}
	case opClear:
		r.state = make(map[uuid.UUID]domain.HistoryEntry)
	default:
		log.Warn().Str("op", rec.Op).Msg("unknown history record")
	}
}

func (r *FileRepository) append(rec record) error {
	buf, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	buf = append(buf, '\n')
	if _, err := r.f.Write(buf); err != nil {
		err = fmt.Errorf("error appending history record %w", err)
		log.Error().Err(err).Send()
		return err
	}

	r.apply(rec)
	return nil
}

func (r *FileRepository) Save(_ context.Context, entry domain.HistoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.append(record{Op: opSave, Entry: &entry})
}

func (r *FileRepository) List(_ context.Context) ([]domain.HistoryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return sorted(r.state), nil
}

func (r *FileRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.state[id]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrHistoryNotFound, id)
	}

	return r.append(record{Op: opDelete, ID: &id})
}

func (r *FileRepository) Clear(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.append(record{Op: opClear})
}

func (r *FileRepository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.f.Close()
}
