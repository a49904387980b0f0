// ABOUTME: Periodic now-playing polling gated on a liveness predicate
// ABOUTME: Submits fetches to the executor, marshals results to the UI loop
package poller

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/andypiper/theindiebeat-simple-player/internal/application/executor"
	"github.com/andypiper/theindiebeat-simple-player/internal/domain"
	"github.com/andypiper/theindiebeat-simple-player/internal/domain/channel"
)

// DefaultInterval between metadata updates.
const DefaultInterval = 30 * time.Second

// Submitter hands operations to the background execution context.
type Submitter interface {
	Submit(op executor.Operation) (any, error)
}

// Coordinator drives the recurring now-playing fetch for the selected
// channel. At most one cycle is active at a time; starting a new one stops
// the previous cycle first.
type Coordinator struct {
	exec     Submitter
	dir      domain.Directory
	disp     domain.Dispatcher
	interval time.Duration
	log      *zap.Logger

	mu   sync.Mutex
	stop func()
}

func New(exec Submitter, dir domain.Directory, disp domain.Dispatcher, interval time.Duration, log *zap.Logger) *Coordinator {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Coordinator{
		exec:     exec,
		dir:      dir,
		disp:     disp,
		interval: interval,
		log:      log,
	}
}

// Start begins polling ch while live holds, delivering playable snapshots
// to onUpdate on the UI loop. An immediate tick fires synchronously before
// the first timed tick so the UI is not stale for a whole interval. Any
// previous cycle is stopped first.
func (c *Coordinator) Start(ch channel.Channel, live func() bool, onUpdate func(*channel.NowPlaying)) {
	tick := func() bool {
		if !live() {
			return false
		}

		res, err := c.exec.Submit(func(ctx context.Context) (any, error) {
			return c.dir.NowPlaying(ctx, ch.Shortcode)
		})
		if err != nil {
			c.log.Warn("now playing poll failed",
				zap.String("channel", ch.Shortcode),
				zap.Error(err))
			return live()
		}

		if np, ok := res.(*channel.NowPlaying); ok && np != nil {
			c.disp.Post(func() { onUpdate(np) })
		}
		return live()
	}

	c.mu.Lock()
	if c.stop != nil {
		c.stop()
	}
	c.stop = c.disp.Every(c.interval, tick)
	c.mu.Unlock()

	tick()
}

// Stop cancels any pending or future tick. Idempotent.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stop != nil {
		c.stop()
		c.stop = nil
	}
}
