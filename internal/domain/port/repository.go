package port

import (
	"context"

	"github.com/framevr/framevr-recognition-service/internal/domain/entity"
	"github.com/google/uuid"
)

// JobRepository persists recognition jobs. FindByID returns an error
// wrapping entity.ErrJobNotFound when no job has the id.
type JobRepository interface {
	Create(ctx context.Context, job *entity.RecognitionJob) error
	Update(ctx context.Context, job *entity.RecognitionJob) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.RecognitionJob, error)
}
