package attachment

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/inkfeed/inkfeed/internal/metrics"
)

// DefaultRemoveTimeout bounds a single removal attempt.
const DefaultRemoveTimeout = 10 * time.Second

// Cleaner schedules removal of an orphaned attachment.
// DeleteFile never blocks on I/O and never reports failure to the caller.
type Cleaner interface {
	DeleteFile(ref string)
}

// InlineCleaner removes files on a background goroutine per call.
type InlineCleaner struct {
	store   Store
	logger  *slog.Logger
	metrics metrics.Recorder
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewInlineCleaner creates a cleaner that removes files from store directly.
func NewInlineCleaner(store Store, logger *slog.Logger, recorder metrics.Recorder) *InlineCleaner {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &InlineCleaner{
		store:   store,
		logger:  logger.With("component", "attachment.cleaner"),
		metrics: recorder,
		timeout: DefaultRemoveTimeout,
	}
}

// DeleteFile removes ref in the background. Errors are logged and dropped.
func (c *InlineCleaner) DeleteFile(ref string) {
	if ref == "" {
		return
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		defer cancel()

		c.remove(ctx, ref)
	}()
}

func (c *InlineCleaner) remove(ctx context.Context, ref string) {
	if err := c.store.Remove(ctx, ref); err != nil {
		c.logger.Warn("failed to remove attachment", "ref", ref, "error", err)
		c.metrics.IncAttachmentCleanup("failed")
		return
	}
	c.logger.Debug("attachment removed", "ref", ref)
	c.metrics.IncAttachmentCleanup("removed")
}

// Wait blocks until in-flight removals finish or ctx ends.
// It implements server.ShutdownFunc.
func (c *InlineCleaner) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
