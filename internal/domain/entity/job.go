package entity

import (
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	JobStatusPending    JobStatus = "PENDING"
	JobStatusProcessing JobStatus = "PROCESSING"
	JobStatusCompleted  JobStatus = "COMPLETED"
	JobStatusPartial    JobStatus = "PARTIAL"
	JobStatusFailed     JobStatus = "FAILED"
)

// RecognitionJob is the persisted record of one recognition request.
type RecognitionJob struct {
	ID           uuid.UUID
	MediaGUID    string
	Source       string
	Timestamps   []float64
	Status       JobStatus
	FrameCount   int
	Succeeded    int
	Failed       int
	ErrorMessage string
	Results      BatchResult
	CreatedAt    time.Time
	UpdatedAt    time.Time
	CompletedAt  *time.Time
}

func NewRecognitionJob(media MediaDescriptor, times []float64) *RecognitionJob {
	now := time.Now().UTC()
	return &RecognitionJob{
		ID:         uuid.New(),
		MediaGUID:  media.GUID,
		Source:     media.Source(),
		Timestamps: times,
		Status:     JobStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func (j *RecognitionJob) MarkProcessing() {
	j.Status = JobStatusProcessing
	j.UpdatedAt = time.Now().UTC()
}

// MarkFinished records a batch that produced at least one result, or none
// because nothing was requested.
func (j *RecognitionJob) MarkFinished(outcome *BatchOutcome) {
	now := time.Now().UTC()
	j.Status = JobStatusCompleted
	if outcome.Kind == OutcomePartial {
		j.Status = JobStatusPartial
	}
	j.FrameCount = outcome.Requested
	j.Succeeded = outcome.Succeeded
	j.Failed = outcome.Failed
	j.Results = outcome.Results
	j.UpdatedAt = now
	j.CompletedAt = &now
}

func (j *RecognitionJob) MarkFailed(errMsg string, failedFrames int) {
	now := time.Now().UTC()
	j.Status = JobStatusFailed
	j.ErrorMessage = errMsg
	j.Failed = failedFrames
	if failedFrames > j.FrameCount {
		j.FrameCount = failedFrames
	}
	j.UpdatedAt = now
	j.CompletedAt = &now
}
