// Command recognize runs visual recognition on a video once, locally, or
// submits the request to the worker queue with -enqueue.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/framevr/framevr-recognition-service/internal/app"
	"github.com/framevr/framevr-recognition-service/internal/domain/entity"
	"github.com/framevr/framevr-recognition-service/internal/infra/config"
	"github.com/framevr/framevr-recognition-service/internal/infra/rabbitmq"
	"github.com/framevr/framevr-recognition-service/pkg/logger"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/zap"
)

const (
	exitOK = iota
	exitFailed
	exitUsage
)

type options struct {
	url     string
	videoID string
	guid    string
	times   string
	key     string
	email   string
	sorted  bool
	enqueue bool
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	var opts options
	fs := flag.NewFlagSet("recognize", flag.ContinueOnError)
	fs.StringVar(&opts.url, "url", "", "content URL or path, or a stream URL with -stream")
	fs.StringVar(&opts.videoID, "video-id", "", "YouTube video id")
	fs.StringVar(&opts.guid, "guid", "", "media GUID used to name screenshots")
	fs.StringVar(&opts.times, "times", "", "comma-separated offsets in seconds, e.g. 1,5.5,10")
	fs.StringVar(&opts.key, "key", "", "recognition API key overriding VR_KEY")
	fs.StringVar(&opts.email, "email", "", "address notified on failure (with -enqueue)")
	fs.BoolVar(&opts.sorted, "sort", false, "order results by frame offset")
	fs.BoolVar(&opts.enqueue, "enqueue", false, "publish the request to RabbitMQ instead of running it")
	stream := fs.Bool("stream", false, "treat -url as a streaming page handled by yt-dlp")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	msg, err := buildRequest(opts, *stream)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fs.Usage()
		return exitUsage
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		return exitFailed
	}
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "init logger:", err)
		return exitFailed
	}
	defer log.Sync()

	undo, _ := maxprocs.Set()
	defer undo()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if opts.enqueue {
		if err := enqueue(ctx, cfg, msg); err != nil {
			log.Error("enqueue failed", zap.Error(err))
			return exitFailed
		}
		fmt.Println(msg.JobID)
		return exitOK
	}

	recognition, err := app.NewVisualRecognition(ctx, cfg, log)
	if err != nil {
		log.Error("build recognition pipeline", zap.Error(err))
		return exitFailed
	}

	outcome, err := recognition.Recognize(ctx, msg.Request())
	if err != nil {
		log.Error("recognition failed", zap.Error(err))
		if errors.Is(err, entity.ErrInvalidRequest) {
			return exitUsage
		}
		return exitFailed
	}
	if opts.sorted {
		outcome.Results.SortByTime()
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(outcome); err != nil {
		log.Error("encode outcome", zap.Error(err))
		return exitFailed
	}
	return exitOK
}

func buildRequest(opts options, stream bool) (entity.RecognitionRequestMessage, error) {
	times, err := parseTimes(opts.times)
	if err != nil {
		return entity.RecognitionRequestMessage{}, err
	}

	media := entity.MediaDescriptor{GUID: opts.guid}
	switch {
	case opts.videoID != "" || stream:
		media.Stream = &entity.StreamInfo{URL: opts.url, VideoID: opts.videoID}
	case opts.url != "":
		media.Content = &entity.ContentRef{URL: opts.url}
	}

	msg := entity.RecognitionRequestMessage{
		JobID:     uuid.New(),
		Media:     media,
		Times:     times,
		APIKey:    opts.key,
		UserEmail: opts.email,
	}
	if err := msg.Request().Validate(); err != nil {
		return entity.RecognitionRequestMessage{}, err
	}
	return msg, nil
}

func parseTimes(raw string) ([]float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	times := make([]float64, 0, len(parts))
	for _, p := range parts {
		t, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: bad offset %q", entity.ErrInvalidRequest, p)
		}
		times = append(times, t)
	}
	return times, nil
}

func enqueue(ctx context.Context, cfg *config.Config, msg entity.RecognitionRequestMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		return fmt.Errorf("dial rabbitmq: %w", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	err = rabbitmq.DeclareTopology(ch, rabbitmq.ConsumerConfig{
		Queue:       cfg.RabbitMQRequestQueue,
		Exchange:    cfg.RabbitMQExchange,
		DLQ:         cfg.RabbitMQDLQ,
		StatusQueue: cfg.RabbitMQStatusQueue,
	})
	ch.Close()
	if err != nil {
		return err
	}

	pub, err := rabbitmq.NewPublisher(conn, cfg.RabbitMQExchange)
	if err != nil {
		return err
	}
	defer pub.Close()
	return pub.PublishRequest(ctx, body)
}
