package rabbitmq

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	RequestRoutingKey = "recognition.requests"
	StatusRoutingKey  = "recognition.status"

	attemptHeader = "x-attempt"
	maxBackoff    = 60 * time.Second
)

// MessageHandler processes one request body. A returned error means the
// message should be delivered again later.
type MessageHandler func(ctx context.Context, body []byte) error

type Consumer struct {
	conn        *amqp.Connection
	channel     *amqp.Channel
	queue       string
	dlq         string
	workerCount int
	maxAttempts int
	baseDelay   time.Duration
	handler     MessageHandler
	logger      *zap.Logger
	wg          sync.WaitGroup
}

type ConsumerConfig struct {
	URL         string
	Queue       string
	Exchange    string
	DLQ         string
	StatusQueue string
	Prefetch    int
	WorkerCount int
	MaxRequeues int
	BaseDelayMs int
}

// NewConsumer dials the broker and declares the topology: a topic exchange
// with the request and status queues bound by routing key, and a DLQ that
// is published to directly.
func NewConsumer(cfg ConsumerConfig, handler MessageHandler, logger *zap.Logger) (*Consumer, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := DeclareTopology(ch, cfg); err != nil {
		conn.Close()
		return nil, err
	}

	if err := ch.Qos(cfg.Prefetch, 0, false); err != nil {
		conn.Close()
		return nil, fmt.Errorf("set qos: %w", err)
	}

	return &Consumer{
		conn:        conn,
		channel:     ch,
		queue:       cfg.Queue,
		dlq:         cfg.DLQ,
		workerCount: cfg.WorkerCount,
		maxAttempts: cfg.MaxRequeues + 1,
		baseDelay:   time.Duration(cfg.BaseDelayMs) * time.Millisecond,
		handler:     handler,
		logger:      logger,
	}, nil
}

func DeclareTopology(ch *amqp.Channel, cfg ConsumerConfig) error {
	if err := ch.ExchangeDeclare(cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	for _, q := range []string{cfg.Queue, cfg.DLQ, cfg.StatusQueue} {
		if _, err := ch.QueueDeclare(q, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare queue %s: %w", q, err)
		}
	}

	bindings := map[string]string{
		cfg.Queue:       RequestRoutingKey,
		cfg.StatusQueue: StatusRoutingKey,
	}
	for q, key := range bindings {
		if err := ch.QueueBind(q, key, cfg.Exchange, false, nil); err != nil {
			return fmt.Errorf("bind queue %s: %w", q, err)
		}
	}
	return nil
}

// Start runs the worker pool until ctx is cancelled, then waits for
// in-flight messages to finish.
func (c *Consumer) Start(ctx context.Context) error {
	deliveries, err := c.channel.ConsumeWithContext(
		ctx,
		c.queue,
		"",
		false, // autoAck=false
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}

	c.logger.Info("starting worker pool",
		zap.Int("workers", c.workerCount),
		zap.String("queue", c.queue),
	)

	for i := 0; i < c.workerCount; i++ {
		c.wg.Add(1)
		go c.worker(ctx, i, deliveries)
	}

	<-ctx.Done()
	c.logger.Info("context cancelled, waiting for workers to finish")
	c.wg.Wait()
	return nil
}

func (c *Consumer) worker(ctx context.Context, id int, deliveries <-chan amqp.Delivery) {
	defer c.wg.Done()
	log := c.logger.With(zap.Int("worker_id", id))
	log.Info("worker started")

	for {
		select {
		case <-ctx.Done():
			log.Info("worker shutting down")
			return
		case d, ok := <-deliveries:
			if !ok {
				log.Info("delivery channel closed")
				return
			}
			c.processDelivery(ctx, d, log)
		}
	}
}

// processDelivery acks handled messages. A message whose handler was cut
// short by shutdown is requeued as is. Any other failed message is republished
// with an incremented attempt header after a backoff, and parked in the DLQ
// once it has used up its attempts.
func (c *Consumer) processDelivery(ctx context.Context, d amqp.Delivery, log *zap.Logger) {
	err := c.handler(ctx, d.Body)
	if err == nil {
		_ = d.Ack(false)
		return
	}

	if ctx.Err() != nil {
		log.Info("shutting down, returning message to the queue", zap.Error(err))
		_ = d.Nack(false, true)
		return
	}

	attempt := AttemptFromHeaders(d.Headers)
	log = log.With(zap.Int("attempt", attempt), zap.Uint64("delivery_tag", d.DeliveryTag))

	if attempt >= c.maxAttempts {
		log.Error("message exhausted its attempts, parking in DLQ", zap.Error(err))
		if perr := c.publish(ctx, "", c.dlq, d, amqp.Table{"x-dlq-reason": "requeue_exhausted: " + err.Error()}); perr != nil {
			log.Error("failed to park message", zap.Error(perr))
			_ = d.Nack(false, true)
			return
		}
		_ = d.Ack(false)
		return
	}

	delay := Backoff(c.baseDelay, attempt)
	log.Warn("message processing failed, retrying later", zap.Duration("delay", delay), zap.Error(err))

	select {
	case <-time.After(delay):
	case <-ctx.Done():
		_ = d.Nack(false, true)
		return
	}

	if perr := c.publish(ctx, d.Exchange, d.RoutingKey, d, amqp.Table{attemptHeader: int32(attempt + 1)}); perr != nil {
		log.Error("failed to republish message", zap.Error(perr))
		_ = d.Nack(false, true)
		return
	}
	_ = d.Ack(false)
}

func (c *Consumer) publish(ctx context.Context, exchange, key string, d amqp.Delivery, extra amqp.Table) error {
	headers := amqp.Table{}
	for k, v := range d.Headers {
		headers[k] = v
	}
	for k, v := range extra {
		headers[k] = v
	}
	return c.channel.PublishWithContext(ctx, exchange, key, false, false, amqp.Publishing{
		ContentType:  d.ContentType,
		Body:         d.Body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Headers:      headers,
	})
}

// AttemptFromHeaders returns the 1-based delivery attempt recorded in the
// message headers.
func AttemptFromHeaders(h amqp.Table) int {
	if h == nil {
		return 1
	}
	switch v := h[attemptHeader].(type) {
	case int32:
		return max(int(v), 1)
	case int64:
		return max(int(v), 1)
	case int:
		return max(v, 1)
	}
	if deaths, ok := h["x-death"].([]interface{}); ok && len(deaths) > 0 {
		return len(deaths) + 1
	}
	return 1
}

// Backoff doubles base for every attempt after the first, capped at a minute.
func Backoff(base time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := float64(base) * math.Pow(2, float64(attempt-1))
	if delay > float64(maxBackoff) {
		return maxBackoff
	}
	return time.Duration(delay)
}

func (c *Consumer) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
