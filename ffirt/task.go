package ffirt

import (
	"context"
	"runtime"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// ReadyFunc receives the completion of an operation started with Spawn: the
// handle of the operation's source (0 when there is none) and the owned
// completion-result handle to pass to Finish.
type ReadyFunc func(source, result Ptr)

// Operation describes one abortable unit of work.
type Operation[T any] struct {
	// Tag identifies the operation kind; Finish rejects results whose tag
	// differs from the one it expects.
	Tag string
	// Cancellable aborts the operation at its next suspension point.
	Cancellable *Cancellable
	// Body is the work itself. It may suspend only through Yield, Sleep and
	// Await with the context it receives.
	Body func(ctx context.Context) (T, error)
	// Source resolves the handle reported as the originator of the
	// completion once the outcome is fixed. The completion result keeps the
	// reference it returns until Finish. A nil Source reports no source.
	Source func(value T, err error) Ptr
}

// Result is the opaque completion-result container.
type Result struct {
	tag      string
	value    any
	err      error
	source   Ptr
	consumed bool
}

type taskKey struct{}

type task struct {
	id        uint64
	scheduler *Scheduler
	cancel    context.CancelFunc
	poll      func()
	resume    chan struct{}
	yield     chan bool
	aborted   atomic.Bool
	suspended atomic.Bool
}

var taskIDs atomic.Uint64

// Spawn schedules op on s and returns immediately. ready is invoked on s
// exactly once, after the outcome is fixed: the body's own result, or
// ErrCancelled when the token aborted it at a suspension point.
func Spawn[T any](s *Scheduler, op Operation[T], ready ReadyFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	t := &task{
		id:        taskIDs.Add(1),
		scheduler: s,
		cancel:    cancel,
		resume:    make(chan struct{}),
		yield:     make(chan bool),
	}
	ctx = context.WithValue(ctx, taskKey{}, t)

	var (
		value    T
		err      error
		finished bool
	)

	go func() {
		defer func() {
			t.yield <- true
		}()

		<-t.resume
		if t.aborted.Load() {
			return
		}
		value, err = op.Body(ctx)
		finished = true
	}()

	var handler uint64
	t.poll = func() {
		t.resume <- struct{}{}
		if done := <-t.yield; !done {
			return
		}

		op.Cancellable.Disconnect(handler)
		cancel()
		if !finished {
			value, err = *new(T), ErrCancelled
		}
		Logger().Debug("task completed", zap.Uint64("task", t.id), zap.String("tag", op.Tag), zap.Bool("cancelled", !finished), zap.Error(err))

		var source Ptr
		if op.Source != nil {
			source = op.Source(value, err)
		}
		result := handles.insert(&Result{tag: op.Tag, value: value, err: err, source: source})
		if ready != nil {
			ready(source, result)
		}
	}

	handler = op.Cancellable.Connect(t.abort)
	Logger().Debug("task spawned", zap.Uint64("task", t.id), zap.String("tag", op.Tag))
	s.Schedule(t.poll)
}

func (t *task) abort() {
	t.aborted.Store(true)
	t.cancel()
	t.wake()
}

func (t *task) wake() {
	if t.suspended.CompareAndSwap(true, false) {
		t.scheduler.Schedule(t.poll)
	}
}

// suspend hands control back to the scheduler and blocks until the task is
// polled again. A task aborted in the meantime never returns from here.
func (t *task) suspend() {
	t.yield <- false
	<-t.resume
	if t.aborted.Load() {
		runtime.Goexit()
	}
}

func currentTask(ctx context.Context) *task {
	t, _ := ctx.Value(taskKey{}).(*task)
	return t
}

// Yield suspends the calling operation and requeues it behind the work
// already scheduled. Outside of an operation it only reports ctx.Err().
func Yield(ctx context.Context) error {
	t := currentTask(ctx)
	if t == nil {
		return ctx.Err()
	}

	t.suspended.Store(true)
	t.wake()
	t.suspend()
	return nil
}

// Await suspends the calling operation until ch delivers a value.
func Await[T any](ctx context.Context, ch <-chan T) (T, error) {
	t := currentTask(ctx)
	if t == nil {
		select {
		case v := <-ch:
			return v, nil
		case <-ctx.Done():
			return *new(T), ctx.Err()
		}
	}

	var v T
	t.suspended.Store(true)
	go func() {
		select {
		case v = <-ch:
		case <-ctx.Done():
		}
		t.wake()
	}()
	t.suspend()
	return v, nil
}

// Sleep suspends the calling operation for at least d.
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	_, err := Await(ctx, timer.C)
	return err
}
