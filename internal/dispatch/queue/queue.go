// Package queue runs outbound email requests on a fixed pool of workers so
// that request handlers never wait on SMTP.
package queue

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/festy23/reviewdesk/internal/dispatch/metrics"
	"github.com/festy23/reviewdesk/internal/dispatch/model"
)

// ErrShutdownTimeout is returned when workers outlive the shutdown deadline.
var ErrShutdownTimeout = errors.New("dispatch queue shutdown timeout exceeded")

// HandlerFunc processes one message.
type HandlerFunc func(ctx context.Context, msg model.Message)

// Publisher accepts messages for asynchronous delivery.
type Publisher interface {
	// TryPublish enqueues msg without blocking and reports whether it was accepted.
	TryPublish(msg model.Message) bool
}

// Config holds queue sizing.
type Config struct {
	Workers    int
	BufferSize int
}

// Queue is a bounded in-process message queue.
type Queue struct {
	ch      chan model.Message
	handle  HandlerFunc
	workers int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.RWMutex
	closed bool

	metrics *metrics.Metrics
	logger  *zap.SugaredLogger
}

// New creates a queue and starts its workers.
func New(cfg Config, handle HandlerFunc, m *metrics.Metrics, logger *zap.SugaredLogger) *Queue {
	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		ch:      make(chan model.Message, cfg.BufferSize),
		handle:  handle,
		workers: cfg.Workers,
		ctx:     ctx,
		cancel:  cancel,
		metrics: m,
		logger:  logger,
	}

	for i := 0; i < cfg.Workers; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}

	logger.Infow("dispatch queue started", "workers", cfg.Workers, "buffer_size", cfg.BufferSize)
	return q
}

// TryPublish enqueues msg without blocking. A full or shut down queue drops it.
func (q *Queue) TryPublish(msg model.Message) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		q.drop(msg, "closed")
		return false
	}

	select {
	case q.ch <- msg:
		q.metrics.QueueDepth.Inc()
		return true
	default:
		q.drop(msg, "full")
		return false
	}
}

// Stats reports how many messages wait for a worker and the buffer size.
func (q *Queue) Stats() (pending, capacity int) {
	return len(q.ch), cap(q.ch)
}

func (q *Queue) drop(msg model.Message, reason string) {
	q.metrics.Dropped.Inc()
	q.logger.Warnw("dispatch message dropped", "reason", reason, "notification_id", msg.NotificationID)
}

func (q *Queue) worker(id int) {
	defer q.wg.Done()

	for msg := range q.ch {
		q.metrics.QueueDepth.Dec()
		q.process(id, msg)
	}
}

func (q *Queue) process(id int, msg model.Message) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Errorw("dispatch handler panicked",
				"worker_id", id,
				"notification_id", msg.NotificationID,
				"panic", r,
			)
		}
	}()

	q.handle(q.ctx, msg)
}

// Shutdown stops accepting messages and waits for queued ones to be handled.
// When timeout passes first, in-flight handlers are cancelled and
// ErrShutdownTimeout is returned.
func (q *Queue) Shutdown(timeout time.Duration) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	q.logger.Infow("shutting down dispatch queue", "pending", len(q.ch), "timeout", timeout)

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		q.cancel()
		q.logger.Info("dispatch queue shutdown complete")
		return nil
	case <-timer.C:
		q.cancel()
		<-done
		q.logger.Warn("dispatch queue shutdown timeout exceeded")
		return ErrShutdownTimeout
	}
}
