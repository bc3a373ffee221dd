package ffirt

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const doubleTag = "test_double"

// doubling yields a few times before answering, so it exercises every
// suspension path of the scheduler.
func doubling(input int32, c *Cancellable) Operation[int32] {
	return Operation[int32]{
		Tag:         doubleTag,
		Cancellable: c,
		Body: func(ctx context.Context) (int32, error) {
			for i := int32(0); i < input%3+1; i++ {
				if err := Yield(ctx); err != nil {
					return 0, err
				}
			}
			if input < 0 {
				return 0, errors.New("negative input")
			}
			return input * 2, nil
		},
	}
}

func TestSpawnNeverCompletesInline(t *testing.T) {
	s := NewScheduler()
	fired := false

	Spawn(s, doubling(1, nil), func(_, result Ptr) {
		fired = true
		_, _ = Finish(result, doubleTag, Identity[int32])
	})

	assert.False(t, fired)
	assert.True(t, s.Pending())
	runUntil(s, func() bool { return fired })
}

func TestRunSyncMatchesStartFinish(t *testing.T) {
	for _, input := range []int32{0, 4, 21, -3} {
		syncValue, syncErr := Finish(RunSync(func(s *Scheduler, ready ReadyFunc) {
			Spawn(s, doubling(input, nil), ready)
		}), doubleTag, Identity[int32])

		s := NewScheduler()
		var (
			asyncValue int32
			asyncErr   error
			done       bool
		)
		Spawn(s, doubling(input, nil), func(_, result Ptr) {
			asyncValue, asyncErr = Finish(result, doubleTag, Identity[int32])
			done = true
		})
		runUntil(s, func() bool { return done })

		assert.Equal(t, asyncValue, syncValue, "input %d", input)
		assert.Equal(t, asyncErr, syncErr, "input %d", input)
	}
}

func TestRunSyncDoesNotTouchAmbientScheduler(t *testing.T) {
	before := Default().Pending()

	result := RunSync(func(s *Scheduler, ready ReadyFunc) {
		assert.NotSame(t, Default(), s)
		Spawn(s, doubling(2, nil), ready)
	})
	value, err := Finish(result, doubleTag, Identity[int32])

	require.NoError(t, err)
	assert.Equal(t, int32(4), value)
	assert.Equal(t, before, Default().Pending())
}

func TestEveryCompletionFiresExactlyOnce(t *testing.T) {
	const n = 8
	s := NewScheduler()
	fired := make([]int, n)
	values := make([]int32, n)
	completed := 0

	for i := 0; i < n; i++ {
		i := i
		Spawn(s, doubling(int32(i), nil), func(_, result Ptr) {
			fired[i]++
			completed++
			v, err := Finish(result, doubleTag, Identity[int32])
			assert.NoError(t, err)
			values[i] = v
		})
	}
	runUntil(s, func() bool { return completed == n })
	for s.Pending() {
		s.Iteration(false)
	}

	for i := 0; i < n; i++ {
		assert.Equal(t, 1, fired[i], "operation %d", i)
		assert.Equal(t, int32(i*2), values[i], "operation %d", i)
	}
}

func runToCompletion[T any](t *testing.T, op Operation[T]) (T, error) {
	t.Helper()

	return Finish(RunSync(func(s *Scheduler, ready ReadyFunc) {
		Spawn(s, op, ready)
	}), op.Tag, Identity[T])
}

func TestCancelBeforeFirstSuspension(t *testing.T) {
	c := NewCancellable()
	reached := false

	_, err := runToCompletion(t, Operation[int32]{
		Tag:         "cancel_early",
		Cancellable: c,
		Body: func(ctx context.Context) (int32, error) {
			c.Cancel()
			_ = Yield(ctx)
			reached = true
			return 1, nil
		},
	})

	assert.ErrorIs(t, err, ErrCancelled)
	assert.False(t, reached)
}

func TestCancelAfterLastSuspensionKeepsOutcome(t *testing.T) {
	c := NewCancellable()

	value, err := runToCompletion(t, Operation[int32]{
		Tag:         "cancel_late",
		Cancellable: c,
		Body: func(ctx context.Context) (int32, error) {
			_ = Yield(ctx)
			c.Cancel()
			return 7, nil
		},
	})
	require.NoError(t, err)
	assert.Equal(t, int32(7), value)

	_, err = runToCompletion(t, Operation[int32]{
		Tag:         "cancel_late_failure",
		Cancellable: NewCancellable(),
		Body: func(ctx context.Context) (int32, error) {
			_ = Yield(ctx)
			return 0, errors.New("boom")
		},
	})
	assert.EqualError(t, err, "boom")
}

func TestAlreadyCancelledTokenSkipsBody(t *testing.T) {
	c := NewCancellable()
	c.Cancel()
	ran := false

	_, err := runToCompletion(t, Operation[string]{
		Tag:         "pre_cancelled",
		Cancellable: c,
		Body: func(ctx context.Context) (string, error) {
			ran = true
			return "ran", nil
		},
	})

	assert.ErrorIs(t, err, ErrCancelled)
	assert.False(t, ran)
}

func TestCancelWakesSleepingOperation(t *testing.T) {
	c := NewCancellable()
	cleanedUp := false

	result := RunSync(func(s *Scheduler, ready ReadyFunc) {
		Spawn(s, Operation[int32]{
			Tag:         "sleeper",
			Cancellable: c,
			Body: func(ctx context.Context) (int32, error) {
				defer func() { cleanedUp = true }()
				if err := Sleep(ctx, time.Hour); err != nil {
					return 0, err
				}
				return 1, nil
			},
		}, ready)
		s.Schedule(func() { s.Schedule(c.Cancel) })
	})

	_, err := Finish(result, "sleeper", Identity[int32])
	assert.ErrorIs(t, err, ErrCancelled)
	assert.True(t, cleanedUp)
}

func TestAwaitDeliversValue(t *testing.T) {
	ch := make(chan string, 1)

	value, err := runToCompletion(t, Operation[string]{
		Tag: "await",
		Body: func(ctx context.Context) (string, error) {
			go func() { ch <- "delivered" }()
			return Await(ctx, ch)
		},
	})

	require.NoError(t, err)
	assert.Equal(t, "delivered", value)
}

func TestSourceReferenceLivesUntilFinish(t *testing.T) {
	base := LiveHandles()
	w := &widget{name: "source"}
	self := ToOwned(w)

	s := NewScheduler()
	var got, result Ptr
	Spawn(s, Operation[int32]{
		Tag:    "with_source",
		Body:   func(context.Context) (int32, error) { return 3, nil },
		Source: func(int32, error) Ptr { return Retain(self) },
	}, func(source, r Ptr) {
		got, result = source, r
	})
	runUntil(s, func() bool { return result != 0 })

	assert.Equal(t, self, got)
	Release(self)
	assert.Same(t, w, Borrow[*widget](got), "the completion result keeps the source alive")

	value, err := Finish(result, "with_source", Identity[int32])
	require.NoError(t, err)
	assert.Equal(t, int32(3), value)
	assert.Equal(t, base, LiveHandles())
}

func TestFinishProtocolMisuse(t *testing.T) {
	result := RunSync(func(s *Scheduler, ready ReadyFunc) {
		Spawn(s, doubling(1, nil), ready)
	})

	_, err := Finish(result, "another_operation", Identity[int32])
	assert.ErrorIs(t, err, ErrForeignResult)

	value, err := Finish(result, doubleTag, Identity[int32])
	require.NoError(t, err, "a rejected finish leaves the result intact")
	assert.Equal(t, int32(2), value)

	_, err = Finish(result, doubleTag, Identity[int32])
	assert.ErrorIs(t, err, ErrInvalidResult)

	_, err = Finish(0, doubleTag, Identity[int32])
	assert.ErrorIs(t, err, ErrInvalidResult)

	p := ToOwned(&widget{})
	defer Release(p)
	_, err = Finish(p, doubleTag, Identity[int32])
	assert.ErrorIs(t, err, ErrInvalidResult)
}

func TestResultKeptAliveByExtraReferenceReportsConsumed(t *testing.T) {
	result := RunSync(func(s *Scheduler, ready ReadyFunc) {
		Spawn(s, doubling(0, nil), ready)
	})
	Retain(result)
	defer Release(result)

	_, err := Finish(result, doubleTag, Identity[int32])
	require.NoError(t, err)

	_, err = Finish(result, doubleTag, Identity[int32])
	assert.ErrorIs(t, err, ErrResultConsumed)
}
