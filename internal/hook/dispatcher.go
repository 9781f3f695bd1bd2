package hook

import (
	"context"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/ayusman/pastelhands/internal/logger"
	"github.com/ayusman/pastelhands/internal/store"
)

// Lister returns the hooks to run. *store.HookRepository satisfies it.
type Lister interface {
	ListEnabled() ([]*store.Hook, error)
}

// Dispatcher queues color changes and runs the enabled hooks for each one,
// in order, on the goroutine that called Run. When the queue is full new
// changes are dropped.
type Dispatcher struct {
	hooks    Lister
	exec     *Executor
	queue    chan Payload
	dropped  uint64
	executed uint64
	failed   uint64
}

// NewDispatcher creates a Dispatcher holding up to size pending changes.
func NewDispatcher(hooks Lister, exec *Executor, size int) *Dispatcher {
	if size < 1 {
		size = 1
	}
	return &Dispatcher{
		hooks: hooks,
		exec:  exec,
		queue: make(chan Payload, size),
	}
}

// Enqueue schedules p without blocking. It reports false when p was dropped.
func (d *Dispatcher) Enqueue(p Payload) bool {
	if p.Event == "" {
		p.Event = EventColorChange
	}
	select {
	case d.queue <- p:
		return true
	default:
		atomic.AddUint64(&d.dropped, 1)
		return false
	}
}

// Stats returns how many hooks ran, failed, and how many changes were dropped.
func (d *Dispatcher) Stats() (executed, failed, dropped uint64) {
	return atomic.LoadUint64(&d.executed), atomic.LoadUint64(&d.failed), atomic.LoadUint64(&d.dropped)
}

// Run drains the queue until ctx is done.
func (d *Dispatcher) Run(ctx context.Context) error {
	log := logger.Entry(ctx).WithField("component", "hooks")

	for {
		select {
		case <-ctx.Done():
			return nil
		case p := <-d.queue:
			d.dispatch(ctx, log, p)
		}
	}
}

func (d *Dispatcher) dispatch(ctx context.Context, log *logrus.Entry, p Payload) {
	hooks, err := d.hooks.ListEnabled()
	if err != nil {
		log.WithError(err).Warn("list hooks")
		return
	}

	for _, h := range hooks {
		hl := log.WithFields(logrus.Fields{"hook": h.Name, "color": p.Color.Name})

		resp, err := d.exec.Execute(ctx, h, &p)
		switch {
		case err != nil:
			atomic.AddUint64(&d.failed, 1)
			hl.WithError(err).Warn("hook failed")
		case !resp.Success:
			atomic.AddUint64(&d.failed, 1)
			hl.WithField("error", resp.Error).Warn("hook reported failure")
		default:
			atomic.AddUint64(&d.executed, 1)
			hl.Debug("hook ran")
		}
	}
}
