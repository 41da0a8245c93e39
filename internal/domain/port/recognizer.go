package port

import (
	"context"

	"github.com/framevr/framevr-recognition-service/internal/domain/entity"
)

// Recognizer runs the three recognition operations against a single image
// file. Implementations are immutable and safe for concurrent use.
type Recognizer interface {
	Classify(ctx context.Context, imagePath string) (*entity.ImageResponse, error)
	DetectFaces(ctx context.Context, imagePath string) (*entity.ImageResponse, error)
	RecognizeText(ctx context.Context, imagePath string) (*entity.ImageResponse, error)
}

// RecognizerFactory hands out a Recognizer for an override credential, or
// the default one when apiKey is empty.
type RecognizerFactory interface {
	Recognizer(apiKey string) Recognizer
}

type FileRemover interface {
	Remove(path string) error
}
