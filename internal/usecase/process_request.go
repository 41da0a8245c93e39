package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/framevr/framevr-recognition-service/internal/domain/entity"
	"github.com/framevr/framevr-recognition-service/internal/domain/port"
	"github.com/framevr/framevr-recognition-service/internal/infra/metrics"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ProcessRequestUseCase handles one message from the request queue.
type ProcessRequestUseCase struct {
	recognition *VisualRecognition
	repo        port.JobRepository
	publisher   port.StatusPublisher
	dlq         port.DLQPublisher
	notifier    port.FailureNotifier
	logger      *zap.Logger
}

func NewProcessRequestUseCase(
	recognition *VisualRecognition,
	repo port.JobRepository,
	publisher port.StatusPublisher,
	dlq port.DLQPublisher,
	notifier port.FailureNotifier,
	logger *zap.Logger,
) *ProcessRequestUseCase {
	return &ProcessRequestUseCase{
		recognition: recognition,
		repo:        repo,
		publisher:   publisher,
		dlq:         dlq,
		notifier:    notifier,
		logger:      logger,
	}
}

// Execute returns an error when the job record could not be read or
// written, or when ctx was cancelled mid-recognition, so the message is
// delivered again. Any other recognition failure is terminal: calls are
// never retried.
func (uc *ProcessRequestUseCase) Execute(ctx context.Context, rawMsg []byte) error {
	tracer := otel.Tracer("usecase")
	ctx, span := tracer.Start(ctx, "ProcessRequestUseCase.Execute")
	defer span.End()

	totalTimer := time.Now()

	var msg entity.RecognitionRequestMessage
	if err := json.Unmarshal(rawMsg, &msg); err != nil {
		uc.logger.Error("failed to unmarshal message", zap.Error(err), zap.ByteString("body", rawMsg))
		_ = uc.dlq.PublishToDLQ(ctx, rawMsg, "unmarshal_error: "+err.Error())
		metrics.JobsProcessedTotal.WithLabelValues("dlq").Inc()
		return nil
	}
	if msg.JobID == uuid.Nil {
		msg.JobID = uuid.New()
	}

	span.SetAttributes(
		attribute.String("job.id", msg.JobID.String()),
		attribute.String("job.media_guid", msg.Media.GUID),
	)

	log := uc.logger.With(zap.String("job_id", msg.JobID.String()), zap.String("media_guid", msg.Media.GUID))

	job, err := uc.repo.FindByID(ctx, msg.JobID)
	if err != nil && !errors.Is(err, entity.ErrJobNotFound) {
		log.Error("failed to look up job record", zap.Error(err))
		return fmt.Errorf("find job: %w", err)
	}
	if job == nil {
		job = entity.NewRecognitionJob(msg.Media, msg.Times)
		job.ID = msg.JobID
		if err := uc.repo.Create(ctx, job); err != nil {
			log.Error("failed to create job record", zap.Error(err))
			return fmt.Errorf("create job: %w", err)
		}
	}

	switch job.Status {
	case entity.JobStatusCompleted, entity.JobStatusPartial, entity.JobStatusFailed:
		log.Info("job already finished, dropping redelivery", zap.String("status", string(job.Status)))
		return nil
	}

	job.MarkProcessing()
	if err := uc.repo.Update(ctx, job); err != nil {
		log.Error("failed to update job to PROCESSING", zap.Error(err))
		return fmt.Errorf("update job: %w", err)
	}

	metrics.ActiveWorkers.Inc()
	defer metrics.ActiveWorkers.Dec()

	outcome, err := uc.recognition.Recognize(ctx, msg.Request())
	if err != nil && ctx.Err() != nil {
		// The worker is stopping. The job stays PROCESSING and the message
		// goes back to the queue to be picked up again.
		log.Warn("recognition interrupted, job left for redelivery", zap.Error(err))
		return fmt.Errorf("recognition interrupted: %w", err)
	}
	if err != nil {
		uc.handleFailure(ctx, job, msg, rawMsg, err, log)
		return nil
	}

	job.MarkFinished(outcome)
	if err := uc.repo.Update(ctx, job); err != nil {
		log.Error("failed to store job results", zap.Error(err))
	}
	uc.publishStatus(ctx, job, log)

	metrics.JobsProcessedTotal.WithLabelValues(string(job.Status)).Inc()
	metrics.StageDuration.WithLabelValues("total").Observe(time.Since(totalTimer).Seconds())

	log.Info("job finished",
		zap.String("status", string(job.Status)),
		zap.Int("succeeded", job.Succeeded),
		zap.Int("failed", job.Failed),
	)
	return nil
}

func (uc *ProcessRequestUseCase) handleFailure(
	ctx context.Context,
	job *entity.RecognitionJob,
	msg entity.RecognitionRequestMessage,
	rawMsg []byte,
	cause error,
	log *zap.Logger,
) {
	failedFrames := 0
	var batchErr *entity.BatchError
	if errors.As(cause, &batchErr) {
		failedFrames = batchErr.Failed
	}

	job.MarkFailed(cause.Error(), failedFrames)
	if err := uc.repo.Update(ctx, job); err != nil {
		log.Error("failed to update job to FAILED", zap.Error(err))
	}

	reason := FailureReason(cause)
	if err := uc.dlq.PublishToDLQ(ctx, rawMsg, reason+": "+cause.Error()); err != nil {
		log.Error("failed to publish to DLQ", zap.Error(err))
	}
	uc.publishStatus(ctx, job, log)

	metrics.JobsProcessedTotal.WithLabelValues(string(entity.JobStatusFailed)).Inc()

	if msg.UserEmail != "" {
		_ = uc.notifier.NotifyFailure(ctx, msg.UserEmail, job.ID.String(), job.Source, cause.Error())
	}

	log.Error("job failed", zap.String("reason", reason), zap.Error(cause))
}

// FailureReason names the error kind of a failed request.
func FailureReason(err error) string {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	case errors.Is(err, entity.ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, entity.ErrDownloadFailed):
		return "download_failed"
	case errors.Is(err, entity.ErrExtractionFailed):
		return "extraction_failed"
	case errors.Is(err, entity.ErrBatchFailed):
		return "batch_failed"
	default:
		return "error"
	}
}

func (uc *ProcessRequestUseCase) publishStatus(ctx context.Context, job *entity.RecognitionJob, log *zap.Logger) {
	statusMsg := entity.RecognitionStatusMessage{
		JobID:        job.ID,
		MediaGUID:    job.MediaGUID,
		Status:       job.Status,
		FrameCount:   job.FrameCount,
		Succeeded:    job.Succeeded,
		Failed:       job.Failed,
		Results:      job.Results,
		ErrorMessage: job.ErrorMessage,
	}
	data, _ := json.Marshal(statusMsg)
	if err := uc.publisher.PublishStatus(ctx, data); err != nil {
		log.Error("failed to publish status", zap.Error(err))
	}
}
