package port

import (
	"context"
	"io"

	"github.com/framevr/framevr-recognition-service/internal/domain/entity"
)

type MediaResolver interface {
	Resolve(ctx context.Context, media entity.MediaDescriptor) (entity.ResolvedMedia, error)
}

// StreamOpener yields the bytes of one format of a streaming video.
type StreamOpener interface {
	Open(ctx context.Context, info entity.StreamInfo, format string) (io.ReadCloser, error)
}
