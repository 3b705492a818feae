package port

import (
	"context"
	"kbfit/internal/core/domain"
)

type Compressor interface {
	// Compress re-encodes input so that it fits into targetKB kilobytes where possible. Missing the budget is not
	// an error; callers compare the result size against their target.
	Compress(ctx context.Context, input []byte, targetKB int) (*domain.Result, error)
}
