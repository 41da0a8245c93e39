package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/framevr/framevr-recognition-service/internal/app"
	"github.com/framevr/framevr-recognition-service/internal/infra/config"
	"github.com/framevr/framevr-recognition-service/internal/infra/email"
	"github.com/framevr/framevr-recognition-service/internal/infra/metrics"
	"github.com/framevr/framevr-recognition-service/internal/infra/postgres"
	"github.com/framevr/framevr-recognition-service/internal/infra/rabbitmq"
	"github.com/framevr/framevr-recognition-service/internal/infra/tracing"
	"github.com/framevr/framevr-recognition-service/internal/usecase"
	"github.com/framevr/framevr-recognition-service/pkg/logger"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	fatalOnErr(err, "load config")

	log, err := logger.New(cfg.LogLevel)
	fatalOnErr(err, "init logger")
	defer log.Sync()

	undo, err := maxprocs.Set(maxprocs.Logger(log.Sugar().Debugf))
	defer undo()
	if err != nil {
		log.Warn("failed to set GOMAXPROCS", zap.Error(err))
	}

	log.Info("starting framevr-recognition-service",
		zap.String("backend", cfg.RecognizerBackend),
		zap.Int("workers", cfg.WorkerCount),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Tracing (non-fatal if the collector is unavailable)
	shutdownTracing, err := tracing.InitTracer(ctx, tracing.Config{
		Endpoint:    cfg.JaegerEndpoint,
		SampleRatio: cfg.TraceSampleRatio,
	})
	if err != nil {
		log.Warn("tracing init failed, continuing without tracing", zap.Error(err))
	} else {
		defer shutdownTracing(context.Background())
	}

	// Database
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	fatalOnErr(err, "connect to postgres")
	defer pool.Close()

	if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsDir); err != nil {
		log.Warn("migration warning", zap.Error(err))
	}

	recognition, err := app.NewVisualRecognition(ctx, cfg, log)
	fatalOnErr(err, "build recognition pipeline")

	// RabbitMQ publisher connection
	rmqConn, err := amqp.Dial(cfg.RabbitMQURL)
	fatalOnErr(err, "connect to rabbitmq for publisher")
	defer rmqConn.Close()

	pub, err := rabbitmq.NewPublisher(rmqConn, cfg.RabbitMQExchange)
	fatalOnErr(err, "create rabbitmq publisher")

	uc := usecase.NewProcessRequestUseCase(
		recognition,
		postgres.NewJobRepository(pool),
		rabbitmq.NewStatusPublisher(pub),
		rabbitmq.NewDLQPublisher(pub, cfg.RabbitMQDLQ),
		email.NewSMTPNotifier(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom, log),
		log,
	)

	// Consumer (worker pool)
	consumer, err := rabbitmq.NewConsumer(rabbitmq.ConsumerConfig{
		URL:         cfg.RabbitMQURL,
		Queue:       cfg.RabbitMQRequestQueue,
		Exchange:    cfg.RabbitMQExchange,
		DLQ:         cfg.RabbitMQDLQ,
		StatusQueue: cfg.RabbitMQStatusQueue,
		Prefetch:    cfg.RabbitMQPrefetch,
		WorkerCount: cfg.WorkerCount,
		MaxRequeues: cfg.MaxRequeues,
		BaseDelayMs: cfg.RetryBaseDelayMs,
	}, uc.Execute, log)
	fatalOnErr(err, "create consumer")

	// Metrics server
	metricsSrv := metrics.StartMetricsServer(ctx, cfg.MetricsPort, func(ctx context.Context) error {
		return pool.Ping(ctx)
	}, log)

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Info("received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	}()

	log.Info("framevr-recognition-service started, consuming messages")

	if err := consumer.Start(ctx); err != nil {
		log.Error("consumer error", zap.Error(err))
	}

	// Shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	metricsSrv.Shutdown(shutdownCtx)

	pub.Close()
	consumer.Close()
	log.Info("framevr-recognition-service stopped")
}

func fatalOnErr(err error, msg string) {
	if err != nil {
		panic(msg + ": " + err.Error())
	}
}
