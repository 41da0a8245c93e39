package entity

import (
	"fmt"
	"math"

	"github.com/google/uuid"
)

// RecognitionRequestMessage is the inbound message from the recognition.requests queue.
type RecognitionRequestMessage struct {
	JobID     uuid.UUID       `json:"job_id"`
	Media     MediaDescriptor `json:"media"`
	Times     []float64       `json:"times"`
	Enrich    bool            `json:"enrich"`
	APIKey    string          `json:"vr_key,omitempty"`
	UserEmail string          `json:"user_email,omitempty"`
}

func (m RecognitionRequestMessage) Request() RecognitionRequest {
	return RecognitionRequest{
		Media:  m.Media,
		Times:  m.Times,
		Enrich: m.Enrich,
		APIKey: m.APIKey,
	}
}

// RecognitionStatusMessage is the outbound message published to the recognition.status queue.
type RecognitionStatusMessage struct {
	JobID        uuid.UUID   `json:"job_id"`
	MediaGUID    string      `json:"media_guid"`
	Status       JobStatus   `json:"status"`
	FrameCount   int         `json:"frame_count"`
	Succeeded    int         `json:"succeeded"`
	Failed       int         `json:"failed"`
	Results      BatchResult `json:"results,omitempty"`
	ErrorMessage string      `json:"error_message,omitempty"`
}

// RecognitionRequest is the input of the visual recognition use case.
// Enrich is accepted for compatibility and has no effect. APIKey, when set,
// takes precedence over the configured recognition credential.
type RecognitionRequest struct {
	Media  MediaDescriptor
	Times  []float64
	Enrich bool
	APIKey string
}

// Validate checks the media descriptor and that every offset is a finite,
// non-negative number of seconds.
func (r RecognitionRequest) Validate() error {
	if err := r.Media.Validate(); err != nil {
		return err
	}
	for _, t := range r.Times {
		if t < 0 || math.IsNaN(t) || math.IsInf(t, 0) {
			return fmt.Errorf("%w: invalid timestamp %v", ErrInvalidRequest, t)
		}
	}
	return nil
}
