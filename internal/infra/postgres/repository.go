package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/framevr/framevr-recognition-service/internal/domain/entity"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrJobNotFound = entity.ErrJobNotFound

type JobRepository struct {
	pool *pgxpool.Pool
}

func NewJobRepository(pool *pgxpool.Pool) *JobRepository {
	return &JobRepository{pool: pool}
}

func (r *JobRepository) Create(ctx context.Context, job *entity.RecognitionJob) error {
	query := `
		INSERT INTO recognition_jobs (
			id, media_guid, source, timestamps, status, frame_count,
			succeeded, failed, error_message, results,
			created_at, updated_at, completed_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`

	results, err := encodeResults(job.Results)
	if err != nil {
		return err
	}

	timestamps := job.Timestamps
	if timestamps == nil {
		timestamps = []float64{}
	}

	_, err = r.pool.Exec(ctx, query,
		job.ID, job.MediaGUID, job.Source, timestamps, string(job.Status),
		job.FrameCount, job.Succeeded, job.Failed, job.ErrorMessage, results,
		job.CreatedAt, job.UpdatedAt, job.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

func (r *JobRepository) Update(ctx context.Context, job *entity.RecognitionJob) error {
	query := `
		UPDATE recognition_jobs SET
			status=$2, frame_count=$3, succeeded=$4, failed=$5,
			error_message=$6, results=$7, updated_at=$8, completed_at=$9
		WHERE id=$1`

	results, err := encodeResults(job.Results)
	if err != nil {
		return err
	}

	tag, err := r.pool.Exec(ctx, query,
		job.ID, string(job.Status), job.FrameCount, job.Succeeded, job.Failed,
		job.ErrorMessage, results, job.UpdatedAt, job.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update job %s: %w", job.ID, ErrJobNotFound)
	}
	return nil
}

func (r *JobRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.RecognitionJob, error) {
	query := `
		SELECT id, media_guid, source, timestamps, status, frame_count,
			succeeded, failed, error_message, results,
			created_at, updated_at, completed_at
		FROM recognition_jobs WHERE id=$1`

	job := &entity.RecognitionJob{}
	var (
		status  string
		results []byte
	)
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&job.ID, &job.MediaGUID, &job.Source, &job.Timestamps, &status,
		&job.FrameCount, &job.Succeeded, &job.Failed, &job.ErrorMessage, &results,
		&job.CreatedAt, &job.UpdatedAt, &job.CompletedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("find job %s: %w", id, ErrJobNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find job by id: %w", err)
	}
	job.Status = entity.JobStatus(status)

	if len(results) > 0 {
		if err := json.Unmarshal(results, &job.Results); err != nil {
			return nil, fmt.Errorf("decode job results: %w", err)
		}
	}
	return job, nil
}

func encodeResults(results entity.BatchResult) ([]byte, error) {
	if results == nil {
		return nil, nil
	}
	data, err := json.Marshal(results)
	if err != nil {
		return nil, fmt.Errorf("encode job results: %w", err)
	}
	return data, nil
}
