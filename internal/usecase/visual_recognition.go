package usecase

import (
	"context"
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

// VisualRecognition is the media-to-results pipeline: resolve the media,
// extract screenshots at the requested offsets, recognize every screenshot
// and merge what succeeded.
type VisualRecognition struct {
	resolver    port.MediaResolver
	extractor   port.FrameExtractor
	recognizers port.RecognizerFactory
	batch       *BatchOrchestrator
	archive     *FrameArchive
	logger      *zap.Logger
}

// NewVisualRecognition wires the pipeline. archive may be nil.
func NewVisualRecognition(
	resolver port.MediaResolver,
	extractor port.FrameExtractor,
	recognizers port.RecognizerFactory,
	batch *BatchOrchestrator,
	archive *FrameArchive,
	logger *zap.Logger,
) *VisualRecognition {
	return &VisualRecognition{
		resolver:    resolver,
		extractor:   extractor,
		recognizers: recognizers,
		batch:       batch,
		archive:     archive,
		logger:      logger,
	}
}

// Recognize runs the pipeline for one request. Resolution and extraction
// failures are fatal; frame failures are not unless every frame fails, in
// which case the error wraps entity.ErrBatchFailed. An empty timestamp list
// returns an OutcomeEmpty without touching the media.
func (v *VisualRecognition) Recognize(ctx context.Context, req entity.RecognitionRequest) (*entity.BatchOutcome, error) {
	tracer := otel.Tracer("usecase")
	ctx, span := tracer.Start(ctx, "VisualRecognition.Recognize")
	defer span.End()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	batchKey := req.Media.GUID
	if batchKey == "" {
		batchKey = uuid.NewString()
	}
	span.SetAttributes(
		attribute.String("batch.key", batchKey),
		attribute.Int("batch.timestamps", len(req.Times)),
	)

	log := v.logger.With(zap.String("batch", batchKey), zap.String("source", req.Media.Source()))
	if req.Enrich {
		log.Debug("enrich requested; no enrichment is performed")
	}

	if len(req.Times) == 0 {
		log.Info("no timestamps requested, nothing to do")
		return entity.NewBatchOutcome(0, nil, 0), nil
	}

	rec := v.recognizers.Recognizer(req.APIKey)

	resStart := time.Now()
	ctxRes, spanRes := tracer.Start(ctx, "resolve_media")
	media, err := v.resolver.Resolve(ctxRes, req.Media)
	spanRes.End()
	if err != nil {
		log.Error("media resolution failed", zap.Error(err))
		return nil, fmt.Errorf("resolve media: %w", err)
	}
	defer media.Release()
	metrics.StageDuration.WithLabelValues("resolve").Observe(time.Since(resStart).Seconds())

	exStart := time.Now()
	ctxEx, spanEx := tracer.Start(ctx, "extract_screenshots")
	files, err := v.extractor.ExtractScreenshots(ctxEx, media.Location, batchKey, req.Times)
	spanEx.End()
	if err != nil {
		log.Error("screenshot extraction failed", zap.Error(err))
		return nil, fmt.Errorf("extract screenshots: %w", err)
	}
	metrics.StageDuration.WithLabelValues("extract").Observe(time.Since(exStart).Seconds())
	metrics.FramesExtractedTotal.Add(float64(len(files)))

	if v.archive != nil {
		keys, err := v.archive.Store(ctx, batchKey, files)
		logArchiveResult(log, keys, err)
	}

	recStart := time.Now()
	ctxRec, spanRec := tracer.Start(ctx, "recognize_batch")
	results, failed, err := v.batch.Run(ctxRec, rec, files)
	spanRec.End()
	metrics.StageDuration.WithLabelValues("recognize").Observe(time.Since(recStart).Seconds())
	if err != nil {
		log.Error("every frame failed recognition", zap.Int("frames", len(files)), zap.Error(err))
		return nil, err
	}

	outcome := entity.NewBatchOutcome(len(files), results, failed)
	log.Info("recognition batch finished",
		zap.String("outcome", string(outcome.Kind)),
		zap.Int("frames", outcome.Requested),
		zap.Int("succeeded", outcome.Succeeded),
		zap.Int("failed", outcome.Failed),
	)
	return outcome, nil
}
