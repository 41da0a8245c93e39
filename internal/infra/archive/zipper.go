package archive

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// MaxImagesPerCall is the recognition service's limit on images per upload.
const MaxImagesPerCall = 15

type ZipCreator struct {
	batchSize int
}

func NewZipCreator(batchSize int) *ZipCreator {
	if batchSize <= 0 {
		batchSize = MaxImagesPerCall
	}
	return &ZipCreator{batchSize: batchSize}
}

// ZipBatches writes one uuid-named archive per group of at most batchSize
// files into outputDir and returns their paths in group order.
func (z *ZipCreator) ZipBatches(ctx context.Context, filePaths []string, outputDir string) ([]string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("create archive dir: %w", err)
	}

	var archives []string
	for _, group := range Chunk(filePaths, z.batchSize) {
		out := filepath.Join(outputDir, uuid.NewString()+".zip")
		if err := z.CreateZip(ctx, group, out); err != nil {
			for _, a := range archives {
				_ = os.Remove(a)
			}
			_ = os.Remove(out)
			return nil, err
		}
		archives = append(archives, out)
	}
	return archives, nil
}

func (z *ZipCreator) CreateZip(ctx context.Context, filePaths []string, outputPath string) error {
	zipFile, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create zip file: %w", err)
	}
	defer zipFile.Close()

	zipWriter := zip.NewWriter(zipFile)

	for _, fp := range filePaths {
		select {
		case <-ctx.Done():
			zipWriter.Close()
			return ctx.Err()
		default:
		}

		if err := addFileToZip(zipWriter, fp); err != nil {
			zipWriter.Close()
			return fmt.Errorf("add %s to zip: %w", fp, err)
		}
	}

	if err := zipWriter.Close(); err != nil {
		return fmt.Errorf("finalize zip: %w", err)
	}
	return nil
}

func addFileToZip(zw *zip.Writer, filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return err
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}

	header.Name = filepath.Base(filename)
	// png frames are already compressed
	header.Method = zip.Store

	writer, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}

	_, err = io.Copy(writer, file)
	return err
}
