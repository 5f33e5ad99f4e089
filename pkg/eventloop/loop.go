// Package eventloop provides the single-threaded, cooperative scheduler the
// widget runtime executes on. UI handlers and network completions interleave
// on one goroutine; blocking work runs elsewhere and posts its continuation
// back through Dispatch.
package eventloop

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// DefaultQueueSize bounds the number of continuations waiting to run.
const DefaultQueueSize = 256

// ErrClosed is returned when the loop has been closed.
var ErrClosed = errors.New("eventloop: closed")

// Option configures a Loop.
type Option func(*Loop)

// WithQueueSize overrides the dispatch queue capacity.
func WithQueueSize(size int) Option {
	return func(l *Loop) {
		if size > 0 {
			l.queueSize = size
		}
	}
}

// WithLogger sets the logger used for recovered panics.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Loop) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// Loop runs dispatched functions one at a time. Work started with Go runs on
// its own goroutine; only the continuation it returns touches loop-owned
// state.
type Loop struct {
	queueSize  int
	dispatchCh chan func()
	done       chan struct{}
	closeOnce  sync.Once
	pending    atomic.Int64
	logger     *zap.Logger
}

// New constructs a Loop.
func New(opts ...Option) *Loop {
	l := &Loop{
		queueSize: DefaultQueueSize,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(l)
	}
	l.dispatchCh = make(chan func(), l.queueSize)
	l.done = make(chan struct{})
	return l
}

// Dispatch queues fn to run on the loop. Calls after Close are dropped.
func (l *Loop) Dispatch(fn func()) {
	if fn == nil {
		return
	}
	l.pending.Add(1)
	l.enqueue(fn)
}

// Go runs work on a new goroutine and dispatches the continuation it returns.
// A nil continuation still counts as completion of the pending work.
func (l *Loop) Go(ctx context.Context, work func(context.Context) func()) {
	if work == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	l.pending.Add(1)
	go func() {
		next := work(ctx)
		l.enqueue(func() {
			if next != nil {
				next()
			}
		})
	}()
}

func (l *Loop) enqueue(fn func()) {
	select {
	case <-l.done:
		l.pending.Add(-1)
		return
	default:
	}
	select {
	case l.dispatchCh <- fn:
	case <-l.done:
		l.pending.Add(-1)
	}
}

// Pending reports queued or in-flight work.
func (l *Loop) Pending() int {
	return int(l.pending.Load())
}

// Drain runs continuations on the calling goroutine until no work is pending
// or ctx ends. Work that never completes keeps Drain waiting until ctx expires.
func (l *Loop) Drain(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	for l.pending.Load() > 0 {
		select {
		case fn := <-l.dispatchCh:
			l.execute(fn)
		case <-ctx.Done():
			return ctx.Err()
		case <-l.done:
			return ErrClosed
		}
	}
	return nil
}

// Run executes continuations until ctx ends or the loop is closed.
func (l *Loop) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	for {
		select {
		case fn := <-l.dispatchCh:
			l.execute(fn)
		case <-ctx.Done():
			return ctx.Err()
		case <-l.done:
			return ErrClosed
		}
	}
}

// Close stops the loop. Pending continuations are discarded.
func (l *Loop) Close() {
	l.closeOnce.Do(func() {
		close(l.done)
	})
}

func (l *Loop) execute(fn func()) {
	defer l.pending.Add(-1)
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("eventloop: recovered panic in dispatched function", zap.Any("panic", r))
		}
	}()
	fn()
}
