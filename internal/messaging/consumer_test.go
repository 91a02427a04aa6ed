package messaging_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/serroba/shorturl-api/internal/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type testEvent struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type mockSubscriber struct {
	msgChan      chan *message.Message
	subscribeErr error
	closeErr     error
	mu           sync.Mutex
	closed       bool
}

func newMockSubscriber() *mockSubscriber {
	return &mockSubscriber{
		msgChan: make(chan *message.Message, 10),
	}
}

func (m *mockSubscriber) Subscribe(_ context.Context, _ string) (<-chan *message.Message, error) {
	if m.subscribeErr != nil {
		return nil, m.subscribeErr
	}

	return m.msgChan, nil
}

func (m *mockSubscriber) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.closed {
		m.closed = true
		close(m.msgChan)
	}

	return m.closeErr
}

func (m *mockSubscriber) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.closed
}

type outcome string

const (
	acked    outcome = "acked"
	nacked   outcome = "nacked"
	timedOut outcome = "timeout"
)

// deliver pushes a message to the subscriber and waits for the consumer's verdict.
func deliver(sub *mockSubscriber, msg *message.Message) outcome {
	sub.msgChan <- msg

	select {
	case <-msg.Acked():
		return acked
	case <-msg.Nacked():
		return nacked
	case <-time.After(2 * time.Second):
		return timedOut
	}
}

func eventMessage(t *testing.T, event testEvent) *message.Message {
	t.Helper()

	payload, err := json.Marshal(event)
	require.NoError(t, err)

	return message.NewMessage(uuid.NewString(), payload)
}

func startConsumer(
	t *testing.T,
	handler messaging.Handler[testEvent],
	logger *zap.Logger,
	opts ...messaging.ConsumerOption,
) *mockSubscriber {
	t.Helper()

	sub := newMockSubscriber()
	consumer := messaging.NewConsumer(sub, "test.topic", handler, logger, opts...)

	require.NoError(t, consumer.Start(context.Background()))
	t.Cleanup(func() { _ = consumer.Shutdown() })

	return sub
}

func TestConsumer_Start(t *testing.T) {
	t.Run("reports its topic", func(t *testing.T) {
		consumer := messaging.NewConsumer(
			newMockSubscriber(),
			"test.topic",
			func(_ context.Context, _ *testEvent) error { return nil },
			zap.NewNop(),
		)

		assert.Equal(t, "test.topic", consumer.Topic())
	})

	t.Run("returns error when subscribe fails", func(t *testing.T) {
		sub := &mockSubscriber{subscribeErr: errors.New("subscribe error")}
		consumer := messaging.NewConsumer(
			sub,
			"test.topic",
			func(_ context.Context, _ *testEvent) error { return nil },
			zap.NewNop(),
		)

		err := consumer.Start(context.Background())

		require.Error(t, err)
		assert.NoError(t, consumer.Shutdown(), "shutdown after a failed start must not block")
	})

	t.Run("shutdown without start returns immediately", func(t *testing.T) {
		consumer := messaging.NewConsumer(
			newMockSubscriber(),
			"test.topic",
			func(_ context.Context, _ *testEvent) error { return nil },
			zap.NewNop(),
		)

		done := make(chan error, 1)
		go func() { done <- consumer.Shutdown() }()

		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(time.Second):
			t.Fatal("shutdown blocked")
		}
	})

	t.Run("stops when the subscription channel closes", func(t *testing.T) {
		sub := newMockSubscriber()
		consumer := messaging.NewConsumer(
			sub,
			"test.topic",
			func(_ context.Context, _ *testEvent) error { return nil },
			zap.NewNop(),
		)

		require.NoError(t, consumer.Start(context.Background()))
		require.NoError(t, sub.Close())

		assert.NoError(t, consumer.Shutdown())
	})
}

func TestConsumer_Process(t *testing.T) {
	t.Run("decodes the payload and acks", func(t *testing.T) {
		received := make(chan testEvent, 1)
		sub := startConsumer(t, func(_ context.Context, event *testEvent) error {
			received <- *event

			return nil
		}, zap.NewNop())

		result := deliver(sub, eventMessage(t, testEvent{ID: "123", Name: "test"}))

		assert.Equal(t, acked, result)
		assert.Equal(t, testEvent{ID: "123", Name: "test"}, <-received)
	})

	t.Run("acks undecodable payloads without calling the handler", func(t *testing.T) {
		var calls atomic.Int32

		sub := startConsumer(t, func(_ context.Context, _ *testEvent) error {
			calls.Add(1)

			return nil
		}, zap.NewNop())

		result := deliver(sub, message.NewMessage(uuid.NewString(), []byte("invalid json")))

		assert.Equal(t, acked, result)
		assert.Zero(t, calls.Load())
	})

	t.Run("nacks on handler error without retry", func(t *testing.T) {
		var calls atomic.Int32

		sub := startConsumer(t, func(_ context.Context, _ *testEvent) error {
			calls.Add(1)

			return errors.New("handler error")
		}, zap.NewNop())

		result := deliver(sub, eventMessage(t, testEvent{ID: "123"}))

		assert.Equal(t, nacked, result)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("logs the request id carried in metadata", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)
		sub := startConsumer(t, func(_ context.Context, _ *testEvent) error {
			return errors.New("handler error")
		}, zap.New(core))

		msg := eventMessage(t, testEvent{ID: "123"})
		msg.Metadata.Set(messaging.MetadataRequestID, "req-42")

		require.Equal(t, nacked, deliver(sub, msg))

		entries := logs.FilterMessage("failed to handle event").All()
		require.Len(t, entries, 1)
		assert.Equal(t, "req-42", entries[0].ContextMap()["request_id"])
		assert.Equal(t, "test.topic", entries[0].ContextMap()["topic"])
	})
}

func TestConsumer_Retry(t *testing.T) {
	t.Run("acks once a retry succeeds", func(t *testing.T) {
		var calls atomic.Int32

		sub := startConsumer(t, func(_ context.Context, _ *testEvent) error {
			if calls.Add(1) < 3 {
				return errors.New("transient")
			}

			return nil
		}, zap.NewNop(), messaging.WithRetry(3, time.Millisecond))

		result := deliver(sub, eventMessage(t, testEvent{ID: "123"}))

		assert.Equal(t, acked, result)
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("nacks after the last attempt fails", func(t *testing.T) {
		var calls atomic.Int32

		sub := startConsumer(t, func(_ context.Context, _ *testEvent) error {
			calls.Add(1)

			return errors.New("still failing")
		}, zap.NewNop(), messaging.WithRetry(2, time.Millisecond))

		result := deliver(sub, eventMessage(t, testEvent{ID: "123"}))

		assert.Equal(t, nacked, result)
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("ignores non-positive attempts", func(t *testing.T) {
		var calls atomic.Int32

		sub := startConsumer(t, func(_ context.Context, _ *testEvent) error {
			calls.Add(1)

			return errors.New("fail")
		}, zap.NewNop(), messaging.WithRetry(0, time.Millisecond))

		assert.Equal(t, nacked, deliver(sub, eventMessage(t, testEvent{ID: "123"})))
		assert.Equal(t, int32(1), calls.Load())
	})
}
