package port

import (
	"context"

	"github.com/framevr/framevr-recognition-service/internal/domain/entity"
)

// FrameExtractor produces one screenshot per unique offset in a single
// invocation of the transcoding tool.
type FrameExtractor interface {
	ExtractScreenshots(ctx context.Context, location string, batchKey string, times []float64) ([]entity.ScreenshotFile, error)
}
