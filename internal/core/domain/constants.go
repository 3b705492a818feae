package domain

import "errors"

var (
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrUnreadableImage    = errors.New("unreadable image")
	ErrEncoderUnavailable = errors.New("encoder unavailable")
	ErrImageTooLarge      = errors.New("image too large")
	ErrHistoryNotFound    = errors.New("history entry not found")
	ErrSendingReplyFailed = errors.New("failed to send reply")
)

const (
	// MinTargetKB and MaxTargetKB bound the target size accepted from users.
	MinTargetKB = 10
	MaxTargetKB = 10 * 1024
)

// TargetBytes converts a kilobyte budget into its inclusive byte bound.
func TargetBytes(targetKB int) int {
	return targetKB * 1024
}
