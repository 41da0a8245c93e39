package ffmpeg

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/framevr/framevr-recognition-service/internal/domain/entity"
	"github.com/framevr/framevr-recognition-service/internal/framename"
	"go.uber.org/zap"
)

type Extractor struct {
	ffmpegPath  string
	ffprobePath string
	outputDir   string
	size        string
	logger      *zap.Logger
}

type ExtractorConfig struct {
	FFmpegPath  string
	FFprobePath string
	OutputDir   string
	// Size is passed to ffmpeg's -s, e.g. "640x360". Empty keeps the source size.
	Size string
}

func NewExtractor(cfg ExtractorConfig, logger *zap.Logger) *Extractor {
	if cfg.FFmpegPath == "" {
		cfg.FFmpegPath = "ffmpeg"
	}
	if cfg.FFprobePath == "" {
		cfg.FFprobePath = "ffprobe"
	}
	return &Extractor{
		ffmpegPath:  cfg.FFmpegPath,
		ffprobePath: cfg.FFprobePath,
		outputDir:   cfg.OutputDir,
		size:        cfg.Size,
		logger:      logger,
	}
}

// ExtractScreenshots grabs one frame per unique offset from location with a
// single ffmpeg run. Offsets are recovered from the produced filenames.
func (e *Extractor) ExtractScreenshots(ctx context.Context, location string, batchKey string, times []float64) ([]entity.ScreenshotFile, error) {
	if len(times) == 0 {
		e.logger.Debug("no timestamps requested, skipping extraction")
		return []entity.ScreenshotFile{}, nil
	}

	offsets, err := uniqueOffsets(times)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(e.outputDir, 0755); err != nil {
		return nil, fmt.Errorf("%w: create screenshot dir: %w", entity.ErrExtractionFailed, err)
	}

	e.warnPastEnd(ctx, location, offsets)

	key := framename.CleanKey(batchKey)
	paths := make([]string, len(offsets))
	for i, off := range offsets {
		paths[i] = filepath.Join(e.outputDir, framename.Encode(key, off))
	}

	args := screenshotArgs(location, offsets, paths, e.size)
	e.logger.Debug("spawning ffmpeg", zap.String("location", location), zap.Int("screenshots", len(paths)))

	cmd := exec.CommandContext(ctx, e.ffmpegPath, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		removeFiles(paths)
		return nil, fmt.Errorf("%w: ffmpeg error: %w, output: %s", entity.ErrExtractionFailed, err, strings.TrimSpace(string(output)))
	}

	files := make([]entity.ScreenshotFile, 0, len(paths))
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			removeFiles(paths)
			return nil, fmt.Errorf("%w: screenshot %s not produced: %w", entity.ErrExtractionFailed, filepath.Base(p), err)
		}
		files = append(files, entity.ScreenshotFile{Path: p, Time: framename.DecodePtr(p)})
	}

	e.logger.Info("screenshots extracted",
		zap.Int("count", len(files)),
		zap.String("dir", e.outputDir),
	)

	return files, nil
}

// screenshotArgs builds one seeking input and one single-frame output per
// offset so the whole set comes out of one process.
func screenshotArgs(location string, offsets []float64, outputs []string, size string) []string {
	args := []string{"-hide_banner", "-loglevel", "error", "-y"}
	for _, off := range offsets {
		args = append(args, "-ss", framename.FormatOffset(off), "-i", location)
	}
	for i, out := range outputs {
		args = append(args, "-map", fmt.Sprintf("%d:v:0", i), "-frames:v", "1", "-update", "1")
		if size != "" {
			args = append(args, "-s", size)
		}
		args = append(args, out)
	}
	return args
}

func uniqueOffsets(times []float64) ([]float64, error) {
	seen := make(map[float64]struct{}, len(times))
	out := make([]float64, 0, len(times))
	for _, t := range times {
		if t < 0 || math.IsNaN(t) || math.IsInf(t, 0) {
			return nil, fmt.Errorf("%w: invalid timestamp %v", entity.ErrInvalidRequest, t)
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out, nil
}

func (e *Extractor) warnPastEnd(ctx context.Context, location string, offsets []float64) {
	duration, err := e.probeDuration(ctx, location)
	if err != nil {
		e.logger.Debug("could not probe media duration", zap.Error(err))
		return
	}
	for _, off := range offsets {
		if off > duration {
			e.logger.Warn("timestamp past end of media",
				zap.Float64("offset", off),
				zap.Float64("duration", duration),
			)
		}
	}
}

func (e *Extractor) probeDuration(ctx context.Context, location string) (float64, error) {
	cmd := exec.CommandContext(ctx, e.ffprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		location,
	)
	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe: %w", err)
	}

	durationStr := strings.TrimSpace(string(output))
	duration, err := strconv.ParseFloat(durationStr, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration: %w", err)
	}
	return duration, nil
}

func removeFiles(paths []string) {
	for _, p := range paths {
		_ = os.Remove(p)
	}
}
