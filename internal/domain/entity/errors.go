package entity

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidRequest        = errors.New("invalid recognition request")
	ErrDownloadFailed        = errors.New("media download failed")
	ErrExtractionFailed      = errors.New("frame extraction failed")
	ErrRecognitionCallFailed = errors.New("recognition call failed")
	ErrBatchFailed           = errors.New("recognition batch failed")
	ErrJobNotFound           = errors.New("recognition job not found")
)

// CallError is returned by a recognizer when one remote operation fails.
// Authentication, rate limiting, bad images and network faults all surface
// through it without distinction.
type CallError struct {
	Op    string
	Image string
	Err   error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("%s: %s %s: %v", ErrRecognitionCallFailed, e.Op, e.Image, e.Err)
}

func (e *CallError) Is(target error) bool { return target == ErrRecognitionCallFailed }

func (e *CallError) Unwrap() error { return e.Err }

// BatchError reports that every frame of a non-empty batch failed.
type BatchError struct {
	Failed int
	Sample error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("%s: all %d frames failed, first error: %v", ErrBatchFailed, e.Failed, e.Sample)
}

func (e *BatchError) Is(target error) bool { return target == ErrBatchFailed }

func (e *BatchError) Unwrap() error { return e.Sample }
