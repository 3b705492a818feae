package domain

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// Result is the encoded output of a size-constrained compression.
type Result struct {
	Data    []byte
	Quality float64
	Width   int
	Height  int
	// Rounds counts the downscale steps applied before Data was produced.
	Rounds int
}

func (r *Result) Size() int {
	return len(r.Data)
}

// WithinBudget reports whether the encoded size is at or below targetBytes.
func (r *Result) WithinBudget(targetBytes int) bool {
	return len(r.Data) <= targetBytes
}

type HistoryEntry struct {
	ID               uuid.UUID `json:"id"`
	OriginalFileName string    `json:"originalFileName"`
	CompressedSize   int64     `json:"compressedFileSize"`
	TargetKB         int       `json:"targetKb"`
	CreatedAt        time.Time `json:"compressionDate"`
}

type Message struct {
	ID               int
	ChatID           int64
	Username         string
	ReplyToMessageID *int
	Text             string
	FileURL          string
	FileName         string
}

type Action string

const (
	Typing            Action = "typing"
	UploadingDocument Action = "upload_document"
)
