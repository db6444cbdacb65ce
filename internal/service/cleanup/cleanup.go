package cleanup

import (
	"context"
	"sync"
	"time"

	"github.com/nkiryanov/festival/internal/logger"
)

const DefaultTimeout = 30 * time.Second

// Deleter removes stored asset by its path. Missing asset is expected to be a success
type Deleter interface {
	Delete(ctx context.Context, path string) error
}

// Coordinator deletes assets in background
// Failures are logged and never reach the caller
type Coordinator struct {
	deleter Deleter
	logger  logger.Logger
	timeout time.Duration

	wg sync.WaitGroup
}

func New(deleter Deleter, l logger.Logger, timeout time.Duration) *Coordinator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Coordinator{
		deleter: deleter,
		logger:  l,
		timeout: timeout,
	}
}

// Schedule deletion of the asset. Empty path is ignored
// Deletion outlives the caller context, request cancellation doesn't stop it
func (c *Coordinator) Schedule(ctx context.Context, path string) {
	if path == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer cancel()

		if err := c.deleter.Delete(ctx, path); err != nil {
			c.logger.Error("Asset cleanup failed", "path", path, "error", err)
			return
		}

		c.logger.Debug("Asset cleaned up", "path", path)
	}()
}

// Wait blocks until all scheduled deletions finished
func (c *Coordinator) Wait() {
	c.wg.Wait()
}
