// Package ffirt is the runtime that code emitted by ffigen calls into.
//
// It provides the pieces a C-ABI binding needs but the generator never
// implements itself:
//
//   - a handle table with reference counts standing in for native object
//     pointers (ToOwned, ToBorrowed, Borrow, Take, Retain, Release)
//   - native memory for strings and string vectors (Allocator)
//   - error-information objects relayed through out-parameters (Error, SetError)
//   - a single-threaded cooperative Scheduler with a MainLoop
//   - abortable units of work (Spawn), their opaque completion results
//     (Finish) and the nested-loop bridge used by blocking wrappers (RunSync)
//   - cancellation tokens (Cancellable) and type identity (RegisterType)
//
// # Scheduling
//
// Work spawned on a Scheduler runs one unit at a time on the goroutine that
// drives the scheduler. A unit hands control back only at Yield, Sleep or
// Await; aborting a unit takes effect at its next suspension point, never
// preemptively.
//
// # Example
//
//	result := ffirt.RunSync(func(s *ffirt.Scheduler, ready ffirt.ReadyFunc) {
//		ffirt.Spawn(s, ffirt.Operation[int]{
//			Tag:  "answer",
//			Body: func(ctx context.Context) (int, error) { return 42, nil },
//		}, ready)
//	})
//	v, err := ffirt.Finish(result, "answer", ffirt.Identity[int])
package ffirt
