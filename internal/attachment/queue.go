package attachment

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/inkfeed/inkfeed/internal/metrics"
)

const (
	// StreamKey is the Redis stream for cleanup tasks.
	StreamKey = "stream:attachment_cleanup"

	// DeadLetterStreamKey is the Redis stream for poison messages.
	DeadLetterStreamKey = "stream:attachment_cleanup:dlq"

	// MaxStreamLen is the approximate max length of the stream.
	MaxStreamLen = 100000

	// EnqueueTimeout is the max time to wait for Redis on enqueue.
	EnqueueTimeout = 500 * time.Millisecond
)

// CleanupTask is the stream payload for one removal.
type CleanupTask struct {
	Ref         string `json:"ref"`
	RequestedAt int64  `json:"t"` // Unix milliseconds
}

// Queue hands removals to the cleanup worker through a Redis stream.
// When Redis is unavailable the removal runs through the fallback cleaner.
type Queue struct {
	redis    *redis.Client
	fallback Cleaner
	logger   *slog.Logger
	metrics  metrics.Recorder
	wg       sync.WaitGroup
}

// NewQueue creates a queue-backed Cleaner.
func NewQueue(client *redis.Client, fallback Cleaner, logger *slog.Logger, recorder metrics.Recorder) *Queue {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Queue{
		redis:    client,
		fallback: fallback,
		logger:   logger.With("component", "attachment.queue"),
		metrics:  recorder,
	}
}

// Enqueue adds a cleanup task to the stream synchronously.
func (q *Queue) Enqueue(ctx context.Context, ref string) (string, error) {
	data, err := json.Marshal(CleanupTask{Ref: ref, RequestedAt: time.Now().UnixMilli()})
	if err != nil {
		return "", fmt.Errorf("marshal task: %w", err)
	}

	id, err := q.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamKey,
		MaxLen: MaxStreamLen,
		Approx: true,
		ID:     "*",
		Values: map[string]interface{}{
			"payload": string(data),
		},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("xadd: %w", err)
	}

	return id, nil
}

// DeleteFile enqueues ref without blocking the caller.
func (q *Queue) DeleteFile(ref string) {
	if ref == "" {
		return
	}

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), EnqueueTimeout)
		defer cancel()

		streamID, err := q.Enqueue(ctx, ref)
		if err != nil {
			q.logger.Warn("failed to enqueue attachment cleanup, removing inline",
				"ref", ref,
				"error", err,
			)
			if q.fallback != nil {
				q.fallback.DeleteFile(ref)
			}
			return
		}

		q.logger.Debug("attachment cleanup enqueued", "ref", ref, "stream_id", streamID)
		q.metrics.IncAttachmentCleanup("enqueued")
	}()
}

// Wait blocks until pending enqueues, including inline fallbacks handed
// to the fallback cleaner, have been dispatched or ctx ends.
// It implements server.ShutdownFunc.
func (q *Queue) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
