package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"strings"

	"github.com/framevr/framevr-recognition-service/internal/domain/entity"
	"github.com/framevr/framevr-recognition-service/internal/domain/port"
	"go.uber.org/zap"
)

type Resolver struct {
	opener    port.StreamOpener
	localBase string
	tempDir   string
	format    string
	logger    *zap.Logger
}

type ResolverConfig struct {
	// LocalMediaURL is the base that scheme-less content URLs are served from.
	LocalMediaURL string
	TempDir       string
	StreamFormat  string
}

func NewResolver(opener port.StreamOpener, cfg ResolverConfig, logger *zap.Logger) (*Resolver, error) {
	base, err := url.Parse(cfg.LocalMediaURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid local media url %q", cfg.LocalMediaURL)
	}
	return &Resolver{
		opener:    opener,
		localBase: strings.TrimRight(cfg.LocalMediaURL, "/") + "/",
		tempDir:   cfg.TempDir,
		format:    cfg.StreamFormat,
		logger:    logger,
	}, nil
}

// Resolve turns a descriptor into something ffmpeg can open. Streams are
// downloaded to a temporary file first; the call returns once the file is
// complete. Content URLs resolve immediately.
func (r *Resolver) Resolve(ctx context.Context, media entity.MediaDescriptor) (entity.ResolvedMedia, error) {
	if err := media.Validate(); err != nil {
		return entity.ResolvedMedia{}, err
	}
	if media.IsStream() {
		return r.download(ctx, *media.Stream)
	}
	return entity.ResolvedMedia{
		Location: r.ResolveURL(media.Content.URL),
		Cleanup:  func() {},
	}, nil
}

// ResolveURL leaves absolute URLs alone and places anything without a
// scheme under the local media base.
func (r *Resolver) ResolveURL(raw string) string {
	u, err := url.Parse(raw)
	if err == nil && u.Scheme != "" {
		return raw
	}
	return r.localBase + strings.TrimLeft(raw, "/")
}

func (r *Resolver) download(ctx context.Context, info entity.StreamInfo) (entity.ResolvedMedia, error) {
	target := info.Target()
	format := info.Format
	if format == "" {
		format = r.format
	}

	if r.tempDir != "" {
		if err := os.MkdirAll(r.tempDir, 0755); err != nil {
			return entity.ResolvedMedia{}, fmt.Errorf("%w: create temp dir: %w", entity.ErrDownloadFailed, err)
		}
	}
	tmp, err := os.CreateTemp(r.tempDir, "media-*.video")
	if err != nil {
		return entity.ResolvedMedia{}, fmt.Errorf("%w: create temp file: %w", entity.ErrDownloadFailed, err)
	}
	path := tmp.Name()
	cleanup := func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			r.logger.Warn("failed to remove downloaded media", zap.String("path", path), zap.Error(err))
		}
	}

	log := r.logger.With(zap.String("target", target), zap.String("path", path))
	log.Debug("downloading stream to temp file", zap.String("format", format))

	stream, err := r.opener.Open(ctx, info, format)
	if err != nil {
		tmp.Close()
		cleanup()
		return entity.ResolvedMedia{}, fmt.Errorf("%w: open stream %s: %w", entity.ErrDownloadFailed, target, err)
	}

	n, copyErr := io.Copy(tmp, stream)
	streamErr := stream.Close()
	fileErr := tmp.Close()
	if err := errors.Join(copyErr, streamErr, fileErr); err != nil {
		cleanup()
		return entity.ResolvedMedia{}, fmt.Errorf("%w: %s: %w", entity.ErrDownloadFailed, target, err)
	}

	log.Debug("stream download finished", zap.Int64("bytes", n))

	return entity.ResolvedMedia{
		Location:   path,
		Downloaded: true,
		Cleanup:    cleanup,
	}, nil
}
