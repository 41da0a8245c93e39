package port

import "context"

// Archiver packs files into zip archives of at most the recognition
// service's per-call image limit and returns the archive paths.
type Archiver interface {
	ZipBatches(ctx context.Context, filePaths []string, outputDir string) ([]string, error)
}
