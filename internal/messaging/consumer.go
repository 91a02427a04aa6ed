package messaging

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.uber.org/zap"
)

// Handler processes a single event.
type Handler[T any] func(ctx context.Context, event *T) error

// ConsumerOption configures a Consumer.
type ConsumerOption func(*consumerConfig)

type consumerConfig struct {
	attempts int
	backoff  time.Duration
}

// WithRetry retries a failing handler in place up to attempts times, waiting
// backoff, 2*backoff, ... between tries, before the message is nacked.
func WithRetry(attempts int, backoff time.Duration) ConsumerOption {
	return func(c *consumerConfig) {
		if attempts > 0 {
			c.attempts = attempts
		}

		if backoff >= 0 {
			c.backoff = backoff
		}
	}
}

// Consumer decodes JSON messages from one topic and feeds them to a typed handler.
type Consumer[T any] struct {
	subscriber message.Subscriber
	topic      string
	handler    Handler[T]
	logger     *zap.Logger
	cfg        consumerConfig
	cancel     context.CancelFunc
	done       chan struct{}
}

func NewConsumer[T any](
	subscriber message.Subscriber,
	topic string,
	handler Handler[T],
	logger *zap.Logger,
	opts ...ConsumerOption,
) *Consumer[T] {
	cfg := consumerConfig{attempts: 1}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Consumer[T]{
		subscriber: subscriber,
		topic:      topic,
		handler:    handler,
		logger:     logger.With(zap.String("topic", topic)),
		cfg:        cfg,
		done:       make(chan struct{}),
	}
}

func (c *Consumer[T]) Topic() string {
	return c.topic
}

// Start subscribes and processes messages in the background until ctx ends or Shutdown is called.
func (c *Consumer[T]) Start(ctx context.Context) error {
	ctx, c.cancel = context.WithCancel(ctx)

	msgs, err := c.subscriber.Subscribe(ctx, c.topic)
	if err != nil {
		c.cancel()
		close(c.done)

		return err
	}

	go c.run(ctx, msgs)

	return nil
}

func (c *Consumer[T]) run(ctx context.Context, msgs <-chan *message.Message) {
	defer close(c.done)

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}

			c.process(ctx, msg)
		}
	}
}

func (c *Consumer[T]) process(ctx context.Context, msg *message.Message) {
	logger := c.logger.With(zap.String("message_uuid", msg.UUID))
	if reqID := msg.Metadata.Get(MetadataRequestID); reqID != "" {
		logger = logger.With(zap.String("request_id", reqID))
	}

	var event T
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		// Undecodable payloads never succeed; ack so they are not redelivered.
		logger.Error("dropping undecodable event", zap.Error(err))
		msg.Ack()

		return
	}

	if err := c.handleWithRetry(ctx, &event); err != nil {
		logger.Error("failed to handle event",
			zap.Int("attempts", c.cfg.attempts),
			zap.Error(err),
		)
		msg.Nack()

		return
	}

	msg.Ack()

	logger.Debug("processed event")
}

func (c *Consumer[T]) handleWithRetry(ctx context.Context, event *T) error {
	var err error

	for attempt := 1; attempt <= c.cfg.attempts; attempt++ {
		if err = c.handler(ctx, event); err == nil {
			return nil
		}

		if attempt == c.cfg.attempts {
			break
		}

		select {
		case <-ctx.Done():
			return err
		case <-time.After(time.Duration(attempt) * c.cfg.backoff):
		}
	}

	return err
}

// Shutdown stops the consumer and waits for the in-flight message to finish.
// A consumer that was never started returns immediately.
func (c *Consumer[T]) Shutdown() error {
	if c.cancel == nil {
		return nil
	}

	c.cancel()
	<-c.done

	return nil
}
