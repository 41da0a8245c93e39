package usecase

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"github.com/framevr/framevr-recognition-service/internal/domain/entity"
	"github.com/framevr/framevr-recognition-service/internal/domain/port"
	"github.com/framevr/framevr-recognition-service/internal/infra/metrics"
)

const (
	opClassify      = "classify"
	opDetectFaces   = "detect_faces"
	opRecognizeText = "recognize_text"
)

type recognizeFunc func(ctx context.Context, imagePath string) (*entity.ImageResponse, error)

// AggregateFrame runs classify, detect-faces and recognize-text on one
// image, in that order, and merges the three responses. The first failing
// call fails the frame; nothing is merged in that case.
func AggregateFrame(ctx context.Context, rec port.Recognizer, imagePath string) (entity.RecognitionResult, error) {
	classify, err := recognize(ctx, opClassify, rec.Classify, imagePath)
	if err != nil {
		return entity.RecognitionResult{}, err
	}
	faces, err := recognize(ctx, opDetectFaces, rec.DetectFaces, imagePath)
	if err != nil {
		return entity.RecognitionResult{}, err
	}
	text, err := recognize(ctx, opRecognizeText, rec.RecognizeText, imagePath)
	if err != nil {
		return entity.RecognitionResult{}, err
	}
	return entity.Merge(*classify, *faces, *text), nil
}

func recognize(ctx context.Context, op string, call recognizeFunc, imagePath string) (*entity.ImageResponse, error) {
	start := time.Now()
	res, err := call(ctx, imagePath)
	if err == nil && res == nil {
		err = &entity.CallError{Op: op, Image: filepath.Base(imagePath), Err: errors.New("empty response")}
	}

	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.RecognitionCallsTotal.WithLabelValues(op, status).Inc()
	metrics.RecognitionCallDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())

	return res, err
}
