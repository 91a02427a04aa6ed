package messaging_test

import (
	"context"
	"errors"
	"testing"

	"github.com/serroba/shorturl-api/internal/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type mockRunnable struct {
	topic       string
	started     bool
	shutdown    bool
	startErr    error
	shutdownErr error
}

func (m *mockRunnable) Start(_ context.Context) error {
	if m.startErr != nil {
		return m.startErr
	}

	m.started = true

	return nil
}

func (m *mockRunnable) Shutdown() error {
	m.shutdown = true

	return m.shutdownErr
}

func (m *mockRunnable) Topic() string {
	return m.topic
}

func TestConsumerGroup_Start(t *testing.T) {
	t.Run("starts every consumer and logs their topics", func(t *testing.T) {
		core, logs := observer.New(zapcore.InfoLevel)
		group := messaging.NewConsumerGroup(newMockSubscriber(), zap.New(core))
		links := &mockRunnable{topic: "links"}
		clicks := &mockRunnable{topic: "clicks"}

		group.Add(links, clicks)

		require.NoError(t, group.Start(context.Background()))
		assert.True(t, links.started)
		assert.True(t, clicks.started)

		entries := logs.FilterMessage("consumer group started").All()
		require.Len(t, entries, 1)
		assert.Equal(t, []any{"links", "clicks"}, entries[0].ContextMap()["topics"])
	})

	t.Run("names the failing consumer and shuts down the started ones", func(t *testing.T) {
		group := messaging.NewConsumerGroup(newMockSubscriber(), zap.NewNop())
		first := &mockRunnable{topic: "links"}
		second := &mockRunnable{topic: "clicks", startErr: errors.New("boom")}
		third := &mockRunnable{topic: "later"}

		group.Add(first, second, third)

		err := group.Start(context.Background())

		require.ErrorContains(t, err, "start consumer clicks")
		assert.True(t, first.shutdown)
		assert.False(t, second.started)
		assert.False(t, third.started)
	})
}

func TestConsumerGroup_Shutdown(t *testing.T) {
	t.Run("stops consumers and closes the subscriber", func(t *testing.T) {
		sub := newMockSubscriber()
		group := messaging.NewConsumerGroup(sub, zap.NewNop())
		consumer := &mockRunnable{topic: "links"}

		group.Add(consumer)
		require.NoError(t, group.Start(context.Background()))

		require.NoError(t, group.Shutdown())
		assert.True(t, consumer.shutdown)
		assert.True(t, sub.isClosed())
	})

	t.Run("joins every error", func(t *testing.T) {
		errFirst := errors.New("shutdown error 1")
		errSecond := errors.New("shutdown error 2")
		errClose := errors.New("close error")

		sub := newMockSubscriber()
		sub.closeErr = errClose
		group := messaging.NewConsumerGroup(sub, zap.NewNop())
		first := &mockRunnable{shutdownErr: errFirst}
		second := &mockRunnable{shutdownErr: errSecond}

		group.Add(first, second)

		err := group.Shutdown()

		require.Error(t, err)
		assert.ErrorIs(t, err, errFirst)
		assert.ErrorIs(t, err, errSecond)
		assert.ErrorIs(t, err, errClose)
		assert.True(t, second.shutdown)
	})
}
