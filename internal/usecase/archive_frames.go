package usecase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/framevr/framevr-recognition-service/internal/domain/entity"
	"github.com/framevr/framevr-recognition-service/internal/domain/port"
	"github.com/framevr/framevr-recognition-service/internal/infra/metrics"
	"go.uber.org/zap"
)

// FrameArchive keeps a copy of each batch's screenshots in object storage
// before recognition deletes them.
type FrameArchive struct {
	archiver port.Archiver
	storage  port.ArchiveStorage
	workDir  string
}

func NewFrameArchive(archiver port.Archiver, storage port.ArchiveStorage, workDir string) *FrameArchive {
	return &FrameArchive{archiver: archiver, storage: storage, workDir: workDir}
}

// Store zips the screenshots in groups and uploads every archive under
// "<batchKey>/". It returns the object keys that were written.
func (a *FrameArchive) Store(ctx context.Context, batchKey string, files []entity.ScreenshotFile) ([]string, error) {
	if len(files) == 0 {
		return nil, nil
	}
	start := time.Now()

	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}

	dir, err := os.MkdirTemp(a.workDir, "archive-")
	if err != nil {
		return nil, fmt.Errorf("create archive dir: %w", err)
	}
	defer os.RemoveAll(dir)

	archives, err := a.archiver.ZipBatches(ctx, paths, dir)
	if err != nil {
		return nil, fmt.Errorf("zip screenshots: %w", err)
	}

	keys := make([]string, 0, len(archives))
	for _, zipPath := range archives {
		key := fmt.Sprintf("%s/%s", batchKey, filepath.Base(zipPath))
		if err := a.upload(ctx, key, zipPath); err != nil {
			return keys, err
		}
		keys = append(keys, key)
	}

	metrics.StageDuration.WithLabelValues("archive").Observe(time.Since(start).Seconds())
	return keys, nil
}

func (a *FrameArchive) upload(ctx context.Context, key, zipPath string) error {
	f, err := os.Open(zipPath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat archive: %w", err)
	}
	if err := a.storage.UploadArchive(ctx, key, f, stat.Size()); err != nil {
		return fmt.Errorf("upload archive %s: %w", key, err)
	}
	return nil
}

func logArchiveResult(log *zap.Logger, keys []string, err error) {
	if err != nil {
		log.Warn("frame archive failed, continuing with recognition", zap.Error(err))
		return
	}
	log.Info("frames archived", zap.Strings("objects", keys))
}
