// Package app assembles the recognition pipeline from configuration. Both
// the queue worker and the command-line tool build it the same way.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/framevr/framevr-recognition-service/internal/domain/port"
	"github.com/framevr/framevr-recognition-service/internal/infra/archive"
	"github.com/framevr/framevr-recognition-service/internal/infra/config"
	"github.com/framevr/framevr-recognition-service/internal/infra/ffmpeg"
	"github.com/framevr/framevr-recognition-service/internal/infra/media"
	miniostorage "github.com/framevr/framevr-recognition-service/internal/infra/minio"
	"github.com/framevr/framevr-recognition-service/internal/infra/openai"
	"github.com/framevr/framevr-recognition-service/internal/infra/watson"
	"github.com/framevr/framevr-recognition-service/internal/infra/ytdlp"
	"github.com/framevr/framevr-recognition-service/internal/usecase"
	"go.uber.org/zap"
)

// NewRecognizerFactory picks the recognition backend named by
// RECOGNIZER_BACKEND.
func NewRecognizerFactory(cfg *config.Config, logger *zap.Logger) (port.RecognizerFactory, error) {
	httpClient := &http.Client{Timeout: cfg.RecognitionTimeout}

	switch cfg.RecognizerBackend {
	case config.BackendWatson:
		return watson.NewFactory(watson.Credentials{
			APIKey:      cfg.VRKey,
			URL:         cfg.VRURL,
			Version:     cfg.VRVersion,
			VersionDate: cfg.VRVersionDate,
		}, httpClient, logger), nil
	case config.BackendOpenAI:
		return openai.NewFactory(openai.Config{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.OpenAIModel,
		}, httpClient, logger), nil
	}
	return nil, fmt.Errorf("unknown recognizer backend %q", cfg.RecognizerBackend)
}

// NewFrameArchive returns nil unless ARCHIVE_FRAMES is set.
func NewFrameArchive(ctx context.Context, cfg *config.Config) (*usecase.FrameArchive, error) {
	if !cfg.ArchiveFrames {
		return nil, nil
	}

	storage, err := miniostorage.NewStorage(miniostorage.StorageConfig{
		Endpoint:      cfg.MinIOEndpoint,
		AccessKey:     cfg.MinIOAccessKey,
		SecretKey:     cfg.MinIOSecretKey,
		UseSSL:        cfg.MinIOUseSSL,
		ArchiveBucket: cfg.MinIOArchiveBucket,
	})
	if err != nil {
		return nil, err
	}
	if err := storage.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	return usecase.NewFrameArchive(archive.NewZipCreator(archive.MaxImagesPerCall), storage, cfg.TempDir), nil
}

// NewVisualRecognition wires resolver, extractor, recognizers and the
// batch orchestrator.
func NewVisualRecognition(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*usecase.VisualRecognition, error) {
	recognizers, err := NewRecognizerFactory(cfg, logger)
	if err != nil {
		return nil, err
	}

	resolver, err := media.NewResolver(
		ytdlp.NewOpener(cfg.YtDlpPath, logger),
		media.ResolverConfig{
			LocalMediaURL: cfg.LocalMediaURL,
			TempDir:       cfg.TempDir,
			StreamFormat:  cfg.StreamFormat,
		},
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("create media resolver: %w", err)
	}

	extractor := ffmpeg.NewExtractor(ffmpeg.ExtractorConfig{
		FFmpegPath:  cfg.FFmpegPath,
		FFprobePath: cfg.FFprobePath,
		OutputDir:   cfg.ScreenshotDir,
		Size:        cfg.ScreenshotSize,
	}, logger)

	frameArchive, err := NewFrameArchive(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create frame archive: %w", err)
	}

	batch := usecase.NewBatchOrchestrator(nil, cfg.MaxConcurrentFrames, logger)
	return usecase.NewVisualRecognition(resolver, extractor, recognizers, batch, frameArchive, logger), nil
}
