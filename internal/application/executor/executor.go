// ABOUTME: Background executor bridging the UI loop and network operations
// ABOUTME: Single worker goroutine, bounded-wait submission, explicit lifecycle
package executor

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultSubmitTimeout bounds how long Submit blocks its caller.
const DefaultSubmitTimeout = 10 * time.Second

var (
	ErrAlreadyStarted = errors.New("executor: already started")
	ErrNotRunning     = errors.New("executor: not running")
	ErrSubmitTimeout  = errors.New("executor: submission timed out")
)

// State is the executor lifecycle: Unstarted -> Running -> Stopped.
// Stopped is terminal.
type State int

const (
	StateUnstarted State = iota
	StateRunning
	StateStopped
)

// Operation is an opaque unit of work executed on the background context.
type Operation func(ctx context.Context) (any, error)

type outcome struct {
	value any
	err   error
}

type submission struct {
	id    string
	op    Operation
	reply chan outcome
}

// Executor owns the single background execution context of the process.
// The front end submits operations and blocks for their outcome with a
// bounded wait; on timeout the operation keeps running unobserved.
type Executor struct {
	timeout time.Duration
	log     *zap.Logger

	mu    sync.Mutex
	state State
	tasks chan *submission
	quit  chan struct{}
	done  chan struct{}
}

func New(timeout time.Duration, log *zap.Logger) *Executor {
	if timeout <= 0 {
		timeout = DefaultSubmitTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Executor{
		timeout: timeout,
		log:     log,
	}
}

// Start spins up the background goroutine and returns immediately. It is
// an error to start an executor that is running or already stopped.
func (e *Executor) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateUnstarted {
		return ErrAlreadyStarted
	}

	e.tasks = make(chan *submission, 16)
	e.quit = make(chan struct{})
	e.done = make(chan struct{})
	e.state = StateRunning

	go e.run()

	e.log.Debug("executor started")
	return nil
}

func (e *Executor) run() {
	defer close(e.done)

	for {
		select {
		case <-e.quit:
			return
		case sub := <-e.tasks:
			e.execute(sub)
		}
	}
}

func (e *Executor) execute(sub *submission) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("operation panicked",
				zap.String("submission", sub.id),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()))
			sub.reply <- outcome{err: fmt.Errorf("operation panicked: %v", r)}
		}
	}()

	start := time.Now()
	value, err := sub.op(context.Background())
	e.log.Debug("operation finished",
		zap.String("submission", sub.id),
		zap.Duration("elapsed", time.Since(start)),
		zap.Error(err))

	// Buffered; never blocks even when the caller timed out and left.
	sub.reply <- outcome{value: value, err: err}
}

// Submit hands op to the background context and blocks the caller for at
// most the configured timeout. On timeout the error is returned and the
// operation's eventual completion goes unobserved.
func (e *Executor) Submit(op Operation) (any, error) {
	if op == nil {
		return nil, nil
	}

	e.mu.Lock()
	if e.state != StateRunning {
		e.mu.Unlock()
		return nil, ErrNotRunning
	}
	tasks := e.tasks
	e.mu.Unlock()

	sub := &submission{
		id:    uuid.NewString(),
		op:    op,
		reply: make(chan outcome, 1),
	}

	timer := time.NewTimer(e.timeout)
	defer timer.Stop()

	select {
	case tasks <- sub:
	case <-timer.C:
		e.log.Warn("submission queue wait timed out", zap.String("submission", sub.id))
		return nil, ErrSubmitTimeout
	}

	select {
	case out := <-sub.reply:
		return out.value, out.err
	case <-timer.C:
		e.log.Warn("operation abandoned after timeout", zap.String("submission", sub.id))
		return nil, ErrSubmitTimeout
	}
}

// Stop signals the background goroutine and joins it, blocking until it
// has fully exited. An in-flight operation is not interrupted, so Stop may
// wait out its remaining run time. Safe to call without Start; calling it
// again is a no-op.
func (e *Executor) Stop() {
	e.mu.Lock()
	if e.state != StateRunning {
		e.state = StateStopped
		e.mu.Unlock()
		return
	}
	e.state = StateStopped
	quit, done := e.quit, e.done
	e.mu.Unlock()

	close(quit)
	<-done
	e.log.Debug("executor stopped")
}

// CurrentState reports the lifecycle state.
func (e *Executor) CurrentState() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}
