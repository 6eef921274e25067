// Package gateway serializes every storage operation onto a single worker
// goroutine that exclusively owns the storage engine.
//
// Callers run concurrently and block on the result of their operation.
// Operations run one at a time in admission order. Admission is refused
// with ErrOverloaded once MaxPending operations are waiting or running, and
// with ErrClosed after Close.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"blabber/app/metrics"
	"blabber/app/repositories"

	"github.com/rs/zerolog"
)

// DefaultMaxPending is the default admission bound.
const DefaultMaxPending = 1000

var (
	// ErrOverloaded is returned when too many operations are pending.
	ErrOverloaded = errors.New("too many pending storage operations")

	// ErrClosed is returned when the gateway no longer accepts work.
	ErrClosed = errors.New("storage gateway is closed")
)

type outcome struct {
	value interface{}
	err   error
}

type job struct {
	op   func(repositories.Engine) (interface{}, error)
	done chan outcome
}

// Gateway owns a storage engine and runs operations against it serially.
type Gateway struct {
	engine     repositories.Engine
	maxPending int64
	logger     zerolog.Logger

	mutex   sync.Mutex
	pending int64
	closed  bool
	jobs    chan *job

	stopped  chan struct{}
	closeErr error
	once     sync.Once
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithMaxPending sets the admission bound.
func WithMaxPending(n int) Option {
	return func(g *Gateway) {
		if n > 0 {
			g.maxPending = int64(n)
		}
	}
}

// WithLogger sets the logger used for worker diagnostics.
func WithLogger(logger zerolog.Logger) Option {
	return func(g *Gateway) {
		g.logger = logger
	}
}

// New starts the worker for engine. The gateway takes ownership of the
// engine: nothing else may call it until Close has returned.
func New(engine repositories.Engine, opts ...Option) *Gateway {
	g := &Gateway{
		engine:     engine,
		maxPending: DefaultMaxPending,
		logger:     zerolog.Nop(),
		stopped:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(g)
	}

	// Admitted jobs never exceed maxPending, so sends never block.
	g.jobs = make(chan *job, g.maxPending)

	go g.run()
	return g
}

// Submit runs op on the gateway worker and waits for its result. If ctx ends
// first, Submit returns ctx.Err() but the operation still runs to completion.
func Submit[T any](ctx context.Context, g *Gateway, op func(repositories.Engine) (T, error)) (T, error) {
	var zero T

	j := &job{
		op: func(e repositories.Engine) (interface{}, error) {
			return op(e)
		},
		done: make(chan outcome, 1),
	}
	if err := g.admit(j); err != nil {
		return zero, err
	}

	select {
	case out := <-j.done:
		if out.err != nil {
			return zero, out.err
		}
		value, _ := out.value.(T)
		return value, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// admit enqueues j unless the gateway is closed or full. Admission and
// enqueueing happen under one lock so the queue order is the admission order.
func (g *Gateway) admit(j *job) error {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if g.closed {
		metrics.GatewayRejected.WithLabelValues("closed").Inc()
		return ErrClosed
	}
	if g.pending >= g.maxPending {
		metrics.GatewayRejected.WithLabelValues("overloaded").Inc()
		g.logger.Warn().Int64("pending", g.pending).Msg("Rejecting storage operation")
		return ErrOverloaded
	}

	g.pending++
	metrics.GatewayPending.Inc()
	g.jobs <- j
	return nil
}

// Pending returns the number of operations admitted but not yet completed.
func (g *Gateway) Pending() int64 {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	return g.pending
}

func (g *Gateway) run() {
	defer close(g.stopped)
	for j := range g.jobs {
		j.done <- g.execute(j)
	}
}

// execute runs one job. The pending count is released before the caller
// receives the result, even if the operation panics.
func (g *Gateway) execute(j *job) (out outcome) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			g.logger.Error().Interface("panic", r).Msg("Storage operation panicked")
			out = outcome{err: fmt.Errorf("%w: %v", repositories.ErrEngineFailure, r)}
		}
		metrics.GatewayDuration.Observe(time.Since(start).Seconds())
		g.release()
	}()

	value, err := j.op(g.engine)
	return outcome{value: value, err: err}
}

func (g *Gateway) release() {
	g.mutex.Lock()
	g.pending--
	g.mutex.Unlock()
	metrics.GatewayPending.Dec()
}

// Close stops admission, waits for every admitted operation to complete and
// then closes the engine. It is safe to call more than once.
func (g *Gateway) Close() error {
	g.once.Do(func() {
		g.mutex.Lock()
		g.closed = true
		close(g.jobs)
		g.mutex.Unlock()

		<-g.stopped

		if err := g.engine.Close(); err != nil {
			g.closeErr = fmt.Errorf("failed to close storage engine: %w", err)
		}
		g.logger.Debug().Msg("Storage gateway closed")
	})
	return g.closeErr
}
