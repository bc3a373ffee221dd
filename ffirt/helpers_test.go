package ffirt

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type widget struct {
	Object
	name string
}

func useArena(t *testing.T) *Arena {
	t.Helper()

	arena := NewArena()
	prev := SetAllocator(arena)
	t.Cleanup(func() { SetAllocator(prev) })
	return arena
}

func observeLogs(t *testing.T, level zapcore.Level) *observer.ObservedLogs {
	t.Helper()

	core, logs := observer.New(level)
	prev := Logger()
	SetLogger(zap.New(core))
	t.Cleanup(func() { SetLogger(prev) })
	return logs
}

// runUntil drives s until done reports true.
func runUntil(s *Scheduler, done func() bool) {
	for !done() {
		s.Iteration(true)
	}
}
