package queue

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/festy23/reviewdesk/internal/dispatch/metrics"
	"github.com/festy23/reviewdesk/internal/dispatch/model"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestQueue_DeliversAll(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []string
	)
	q := New(Config{Workers: 3, BufferSize: 16}, func(_ context.Context, msg model.Message) {
		mu.Lock()
		seen = append(seen, msg.NotificationID)
		mu.Unlock()
	}, metrics.NewUnregistered(), zap.NewNop().Sugar())

	for _, id := range []string{"a", "b", "c", "d"} {
		require.True(t, q.TryPublish(model.Message{NotificationID: id}))
	}
	require.NoError(t, q.Shutdown(time.Second))

	assert.ElementsMatch(t, []string{"a", "b", "c", "d"}, seen)
}

func TestQueue_DropsWhenFull(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	m := metrics.NewUnregistered()

	q := New(Config{Workers: 1, BufferSize: 1}, func(context.Context, model.Message) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
	}, m, zap.NewNop().Sugar())

	require.True(t, q.TryPublish(model.Message{NotificationID: "busy"}))
	<-started
	require.True(t, q.TryPublish(model.Message{NotificationID: "buffered"}))
	assert.False(t, q.TryPublish(model.Message{NotificationID: "dropped"}))
	assert.InDelta(t, 1, testutil.ToFloat64(m.Dropped), 0)

	close(release)
	require.NoError(t, q.Shutdown(time.Second))
	assert.False(t, q.TryPublish(model.Message{NotificationID: "late"}))
	assert.InDelta(t, 2, testutil.ToFloat64(m.Dropped), 0)
}

func TestQueue_RecoversFromPanic(t *testing.T) {
	var handled atomic.Int32
	q := New(Config{Workers: 1, BufferSize: 4}, func(_ context.Context, msg model.Message) {
		if msg.NotificationID == "boom" {
			panic("boom")
		}
		handled.Add(1)
	}, metrics.NewUnregistered(), zap.NewNop().Sugar())

	q.TryPublish(model.Message{NotificationID: "boom"})
	q.TryPublish(model.Message{NotificationID: "ok"})
	require.NoError(t, q.Shutdown(time.Second))

	assert.Equal(t, int32(1), handled.Load())
}

func TestQueue_ShutdownTimeoutCancelsHandlers(t *testing.T) {
	started := make(chan struct{})
	q := New(Config{Workers: 1, BufferSize: 1}, func(ctx context.Context, _ model.Message) {
		close(started)
		<-ctx.Done()
	}, metrics.NewUnregistered(), zap.NewNop().Sugar())

	require.True(t, q.TryPublish(model.Message{NotificationID: "slow"}))
	<-started

	assert.ErrorIs(t, q.Shutdown(20*time.Millisecond), ErrShutdownTimeout)
	assert.NoError(t, q.Shutdown(time.Second), "second shutdown is a no-op")
}
