package ffirt

import (
	"fmt"

	"go.uber.org/zap"
)

// Finish unwraps the completion result produced by the Spawn call tagged tag
// and converts its payload with convert. It consumes the caller's reference
// to the result and the source reference the result held.
//
// Passing anything but an unconsumed result of the matching operation is a
// usage error and leaves the handle untouched. Unknown handles, including a
// result already finished through its only reference, are ErrInvalidResult;
// another operation's result is ErrForeignResult; a finished result still
// kept alive by an extra reference is ErrResultConsumed.
func Finish[T, C any](p Ptr, tag string, convert func(T) C) (C, error) {
	var zero C

	v, ok := handles.get(p)
	if !ok {
		Logger().Warn("finish called with an unknown completion result", zap.Uintptr("result", uintptr(p)), zap.String("tag", tag))
		return zero, ErrInvalidResult
	}

	result, ok := v.(*Result)
	if !ok {
		Logger().Warn("finish called with a non-result handle", zap.Uintptr("result", uintptr(p)), zap.String("type", fmt.Sprintf("%T", v)))
		return zero, ErrInvalidResult
	}
	if result.tag != tag {
		Logger().Warn("finish called with a foreign completion result", zap.String("expected", tag), zap.String("actual", result.tag))
		return zero, ErrForeignResult
	}
	if result.consumed {
		Logger().Warn("finish called twice", zap.String("tag", tag))
		return zero, ErrResultConsumed
	}

	result.consumed = true
	defer func() {
		Release(result.source)
		Release(p)
	}()

	if result.err != nil {
		return zero, result.err
	}

	payload, ok := result.value.(T)
	if !ok {
		return zero, ErrInvalidResult
	}
	return convert(payload), nil
}

// RunSync drives one operation to completion on a private scheduler and
// returns its completion result. start receives the private scheduler and
// the ReadyFunc it must hand to Spawn. The ambient scheduler is never
// touched, so RunSync is safe to call from code the ambient scheduler is
// currently dispatching.
func RunSync(start func(s *Scheduler, ready ReadyFunc)) Ptr {
	s := NewScheduler()
	loop := NewMainLoop(s)

	var result Ptr
	start(s, func(_, r Ptr) {
		result = r
		loop.Quit()
	})
	loop.Run()

	return result
}
