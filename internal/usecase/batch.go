package usecase

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"github.com/framevr/framevr-recognition-service/internal/domain/entity"
	"github.com/framevr/framevr-recognition-service/internal/domain/port"
	"github.com/framevr/framevr-recognition-service/internal/infra/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type osRemover struct{}

func (osRemover) Remove(path string) error { return os.Remove(path) }

// BatchOrchestrator fans a screenshot list out to AggregateFrame and joins
// the outcomes. Every screenshot it is handed is deleted exactly once.
type BatchOrchestrator struct {
	remover       port.FileRemover
	maxConcurrent int
	logger        *zap.Logger
}

// NewBatchOrchestrator uses os.Remove when remover is nil. maxConcurrent
// caps in-flight frames; zero or less launches all of them at once.
func NewBatchOrchestrator(remover port.FileRemover, maxConcurrent int, logger *zap.Logger) *BatchOrchestrator {
	if remover == nil {
		remover = osRemover{}
	}
	return &BatchOrchestrator{remover: remover, maxConcurrent: maxConcurrent, logger: logger}
}

type frameOutcome struct {
	file   entity.ScreenshotFile
	result entity.RecognitionResult
	err    error
}

// Run recognizes every file concurrently. Results are returned in completion
// order together with the number of failed frames. A non-empty batch in
// which every frame failed yields an *entity.BatchError instead.
func (b *BatchOrchestrator) Run(ctx context.Context, rec port.Recognizer, files []entity.ScreenshotFile) (entity.BatchResult, int, error) {
	if len(files) == 0 {
		return entity.BatchResult{}, 0, nil
	}

	outcomes := make(chan frameOutcome, len(files))

	var g errgroup.Group
	if b.maxConcurrent > 0 {
		g.SetLimit(b.maxConcurrent)
	}
	for _, f := range files {
		f := f
		g.Go(func() error {
			res, err := AggregateFrame(ctx, rec, f.Path)
			b.remove(f.Path)
			outcomes <- frameOutcome{file: f, result: res, err: err}
			return nil
		})
	}
	_ = g.Wait()
	close(outcomes)

	results := make(entity.BatchResult, 0, len(files))
	failed := 0
	var firstErr error
	for o := range outcomes {
		if o.err != nil {
			failed++
			if firstErr == nil {
				firstErr = o.err
			}
			metrics.FramesRecognizedTotal.WithLabelValues("failed").Inc()
			b.logger.Warn("frame recognition failed",
				zap.String("file", o.file.Path),
				zap.Error(o.err),
			)
			continue
		}
		metrics.FramesRecognizedTotal.WithLabelValues("succeeded").Inc()
		results = append(results, o.result)
	}

	b.logger.Debug("batch joined",
		zap.Int("total", len(files)),
		zap.Int("succeeded", len(results)),
		zap.Int("failed", failed),
	)

	if failed == len(files) {
		return nil, failed, &entity.BatchError{Failed: failed, Sample: firstErr}
	}
	return results, failed, nil
}

func (b *BatchOrchestrator) remove(path string) {
	if err := b.remover.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		metrics.FileCleanupFailuresTotal.Inc()
		b.logger.Warn("failed to delete screenshot", zap.String("file", path), zap.Error(err))
	}
}
