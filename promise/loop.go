package promise

import (
	"context"
	"sync"

	"github.com/reoring/databind/logging"
)

// LoopOptions carries the Loop construction options.
type LoopOptions struct {
	// Logger receives unhandled-rejection reports. Nil disables them.
	Logger *logging.Logger
}

// Loop is the macrotask queue every promise is scheduled on. Tasks may be
// posted from any goroutine; exactly one goroutine must execute them, by
// calling Drain or Run. That goroutine is the loop goroutine, and every
// continuation in this package runs on it.
type Loop struct {
	mu    sync.Mutex
	queue []func()
	wake  chan struct{}
	log   *logging.Logger
}

// NewLoop builds a Loop. A nil opts is valid.
func NewLoop(opts *LoopOptions) *Loop {
	l := &Loop{wake: make(chan struct{}, 1)}
	if opts != nil {
		l.log = opts.Logger
	}
	return l
}

// Post queues fn for execution on the loop goroutine. Tasks run in post
// order.
func (l *Loop) Post(fn func()) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	l.queue = append(l.queue, fn)
	l.mu.Unlock()
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Drain executes queued tasks on the calling goroutine until the queue is
// empty. Tasks posted while draining run in the same pass.
func (l *Loop) Drain() {
	for {
		fn, ok := l.next()
		if !ok {
			return
		}
		fn()
	}
}

// Run serves the queue on the calling goroutine until ctx is done,
// sleeping while idle. It returns the context error.
func (l *Loop) Run(ctx context.Context) error {
	for {
		fn, ok := l.next()
		if !ok {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-l.wake:
				continue
			}
		}
		fn()
	}
}

// Pending reports the queued task count.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

func (l *Loop) next() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) == 0 {
		return nil, false
	}
	fn := l.queue[0]
	l.queue = l.queue[1:]
	return fn, true
}
