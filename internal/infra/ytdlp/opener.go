package ytdlp

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/framevr/framevr-recognition-service/internal/domain/entity"
	"go.uber.org/zap"
)

// Opener streams a video through the yt-dlp binary.
type Opener struct {
	binaryPath string
	logger     *zap.Logger
}

func NewOpener(binaryPath string, logger *zap.Logger) *Opener {
	if binaryPath == "" {
		binaryPath = "yt-dlp"
	}
	return &Opener{binaryPath: binaryPath, logger: logger}
}

// Open starts yt-dlp writing the selected format to stdout. The returned
// reader must be drained and closed; Close reports a failed download.
func (o *Opener) Open(ctx context.Context, info entity.StreamInfo, format string) (io.ReadCloser, error) {
	target := info.Target()
	if target == "" {
		return nil, fmt.Errorf("stream has no target")
	}

	// -o -: write the media to stdout instead of a file
	cmd := exec.CommandContext(ctx, o.binaryPath,
		"-f", format,
		"-o", "-",
		"--no-warnings",
		"--no-progress",
		"--quiet",
		target,
	)

	stderr := &bytes.Buffer{}
	cmd.Stderr = stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("yt-dlp stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start yt-dlp: %w", err)
	}

	o.logger.Debug("yt-dlp started",
		zap.String("target", target),
		zap.String("format", format),
	)

	return &stream{ReadCloser: stdout, cmd: cmd, stderr: stderr}, nil
}

type stream struct {
	io.ReadCloser
	cmd    *exec.Cmd
	stderr *bytes.Buffer
}

func (s *stream) Close() error {
	// closing our end first unblocks yt-dlp if the reader gave up early
	_ = s.ReadCloser.Close()
	if err := s.cmd.Wait(); err != nil {
		return fmt.Errorf("yt-dlp failed: %w, stderr: %s", err, strings.TrimSpace(s.stderr.String()))
	}
	return nil
}
