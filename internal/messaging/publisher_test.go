package messaging_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/serroba/shorturl-api/internal/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockPublisher struct {
	messages   []*message.Message
	topic      string
	publishErr error
	closeErr   error
	closed     bool
}

func (m *mockPublisher) Publish(topic string, msgs ...*message.Message) error {
	if m.publishErr != nil {
		return m.publishErr
	}

	m.topic = topic
	m.messages = append(m.messages, msgs...)

	return nil
}

func (m *mockPublisher) Close() error {
	m.closed = true

	return m.closeErr
}

func TestNewPublishFunc(t *testing.T) {
	t.Run("encodes the event as JSON on the bound topic", func(t *testing.T) {
		mock := &mockPublisher{}
		publish := messaging.NewPublishFunc[testEvent](mock, "test.topic")

		err := publish(context.Background(), &testEvent{ID: "123", Name: "test"})

		require.NoError(t, err)
		assert.Equal(t, "test.topic", mock.topic)
		require.Len(t, mock.messages, 1)

		msg := mock.messages[0]
		assert.JSONEq(t, `{"id":"123","name":"test"}`, string(msg.Payload))
		assert.Equal(t, "test.topic", msg.Metadata.Get(messaging.MetadataTopic))
		assert.Empty(t, msg.Metadata.Get(messaging.MetadataRequestID))
		assert.NotEmpty(t, msg.UUID)
	})

	t.Run("carries the request id from the context", func(t *testing.T) {
		mock := &mockPublisher{}
		publish := messaging.NewPublishFunc[testEvent](mock, "test.topic")
		ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-42")

		require.NoError(t, publish(ctx, &testEvent{ID: "123"}))

		require.Len(t, mock.messages, 1)
		assert.Equal(t, "req-42", mock.messages[0].Metadata.Get(messaging.MetadataRequestID))
	})

	t.Run("wraps publisher errors with the topic", func(t *testing.T) {
		errBroker := errors.New("broker down")
		publish := messaging.NewPublishFunc[testEvent](&mockPublisher{publishErr: errBroker}, "test.topic")

		err := publish(context.Background(), &testEvent{ID: "123"})

		require.ErrorIs(t, err, errBroker)
		assert.Contains(t, err.Error(), "test.topic")
	})

	t.Run("gives each message its own id", func(t *testing.T) {
		mock := &mockPublisher{}
		publish := messaging.NewPublishFunc[testEvent](mock, "test.topic")

		require.NoError(t, publish(context.Background(), &testEvent{ID: "1"}))
		require.NoError(t, publish(context.Background(), &testEvent{ID: "2"}))

		require.Len(t, mock.messages, 2)
		assert.NotEqual(t, mock.messages[0].UUID, mock.messages[1].UUID)
	})
}

func TestNoopPublish(t *testing.T) {
	publish := messaging.NoopPublish[testEvent]()

	assert.NoError(t, publish(context.Background(), &testEvent{ID: "123"}))
}

func TestPublisherGroup(t *testing.T) {
	t.Run("exposes the wrapped publisher", func(t *testing.T) {
		mock := &mockPublisher{}

		assert.Same(t, mock, messaging.NewPublisherGroup(mock).Publisher())
	})

	t.Run("closes the publisher on shutdown", func(t *testing.T) {
		mock := &mockPublisher{closeErr: errors.New("close error")}

		err := messaging.NewPublisherGroup(mock).Shutdown()

		require.Error(t, err)
		assert.True(t, mock.closed)
	})
}
