package ffirt

import (
	"sync"
	"sync/atomic"
)

// Scheduler is a single-threaded cooperative dispatcher. Work is queued from
// any goroutine with Schedule and always runs on the goroutine that calls
// Iteration, one item at a time.
type Scheduler struct {
	queue []func()
	mu    sync.Mutex
	wake  chan struct{}
}

func NewScheduler() *Scheduler {
	return &Scheduler{wake: make(chan struct{}, 1)}
}

var (
	defaultScheduler     *Scheduler
	defaultSchedulerOnce sync.Once
)

// Default returns the ambient scheduler shared by every exported start
// function. C callers drive it through the main-context iteration export.
func Default() *Scheduler {
	defaultSchedulerOnce.Do(func() {
		defaultScheduler = NewScheduler()
	})
	return defaultScheduler
}

// Schedule queues fn to run on a later iteration. It never runs fn inline.
func (s *Scheduler) Schedule(fn func()) {
	s.mu.Lock()
	s.queue = append(s.queue, fn)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Pending reports whether work is queued.
func (s *Scheduler) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue) > 0
}

// Iteration dispatches the work queued so far. When nothing is queued and
// mayBlock is set it waits for work first. It reports whether anything ran.
func (s *Scheduler) Iteration(mayBlock bool) bool {
	for {
		s.mu.Lock()
		batch := s.queue
		s.queue = nil
		s.mu.Unlock()

		if len(batch) > 0 {
			for _, fn := range batch {
				fn()
			}
			return true
		}

		if !mayBlock {
			return false
		}
		<-s.wake
	}
}

// MainLoop runs a scheduler until Quit is called.
type MainLoop struct {
	scheduler *Scheduler
	quit      atomic.Bool
}

func NewMainLoop(s *Scheduler) *MainLoop {
	return &MainLoop{scheduler: s}
}

func (l *MainLoop) Run() {
	for !l.quit.Load() {
		l.scheduler.Iteration(true)
	}
}

func (l *MainLoop) Quit() {
	l.quit.Store(true)
	l.scheduler.Schedule(func() {})
}
