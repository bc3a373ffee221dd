package calc

import (
	"testing"

	"ffigen/ffirt"
)

func errorMessage(t *testing.T, errorOut uintptr) string {
	t.Helper()
	if errorOut == 0 {
		t.Fatal("no error was reported")
	}
	defer ffigen_error_free(errorOut)
	return ffirt.TakeString(ffirt.Ptr(ffigen_error_message(errorOut)))
}

// Runs the start helper on a private scheduler and returns the result handle.
func startSlowAdd(self uintptr, value int32, cancellable uintptr, cancel func()) uintptr {
	sched := ffirt.NewScheduler()
	var result ffirt.Ptr
	ffigenCalculatorSlowAddStart(sched, self, value, cancellable, func(source, r ffirt.Ptr) {
		result = r
	})
	if cancel != nil {
		cancel()
	}
	for result == 0 {
		sched.Iteration(true)
	}
	return uintptr(result)
}

func TestMutableReference(t *testing.T) {
	calculator := calc_calculator_new(0)
	defer ffigen_object_unref(calculator)

	x := int32(5)
	if ok := calc_calculator_add_in_place(calculator, &x, 10); ok != 1 {
		t.Fatalf("add_in_place returned %d", ok)
	}
	if x != 15 {
		t.Fatalf("x = %d, want 15", x)
	}
}

func TestFallibleVoidReportsSentinel(t *testing.T) {
	calculator := calc_calculator_new(0)
	defer ffigen_object_unref(calculator)

	var errorOut uintptr
	if ret := calc_calculator_reset(calculator, &errorOut); ret != 0 {
		t.Fatalf("reset returned %d, want 0", ret)
	}
	if message := errorMessage(t, errorOut); message != "reset is not supported" {
		t.Fatalf("message = %q", message)
	}

	if ret := calc_calculator_reset(calculator, nil); ret != 0 {
		t.Fatalf("reset without error slot returned %d, want 0", ret)
	}
}

func TestFallibleValue(t *testing.T) {
	calculator := calc_calculator_new(12)
	defer ffigen_object_unref(calculator)

	var errorOut uintptr
	if v := calc_calculator_divide(calculator, 4, &errorOut); v != 3 || errorOut != 0 {
		t.Fatalf("divide = %d (error %#x)", v, errorOut)
	}
	if v := calc_calculator_divide(calculator, 0, &errorOut); v != 0 {
		t.Fatalf("failed divide returned %d", v)
	}
	if message := errorMessage(t, errorOut); message != "division by zero" {
		t.Fatalf("message = %q", message)
	}
}

func TestSyncMatchesStartAndFinish(t *testing.T) {
	calculator := calc_calculator_new(5)
	defer ffigen_object_unref(calculator)

	var errorOut uintptr
	blocking := calc_calculator_slow_add_sync(calculator, 3, 0, &errorOut)
	if errorOut != 0 {
		t.Fatalf("sync failed: %s", errorMessage(t, errorOut))
	}

	result := startSlowAdd(calculator, 3, 0, nil)
	finished := calc_calculator_slow_add_finish(calculator, result, &errorOut)
	if errorOut != 0 {
		t.Fatalf("finish failed: %s", errorMessage(t, errorOut))
	}

	if blocking != 8 || finished != 8 {
		t.Fatalf("sync = %d, start+finish = %d, want 8", blocking, finished)
	}
}

func TestCancelledBeforeFirstSuspension(t *testing.T) {
	calculator := calc_calculator_new(5)
	defer ffigen_object_unref(calculator)

	token := ffigen_cancellable_new()
	defer ffigen_object_unref(token)

	result := startSlowAdd(calculator, 3, token, func() { ffigen_cancellable_cancel(token) })

	var errorOut uintptr
	if v := calc_calculator_slow_add_finish(calculator, result, &errorOut); v != 0 {
		t.Fatalf("cancelled finish returned %d", v)
	}
	defer ffigen_error_free(errorOut)
	if code := ffigen_error_code(errorOut); code != ffirt.IOErrorCancelled {
		t.Fatalf("error code = %d, want %d", code, ffirt.IOErrorCancelled)
	}
}

func TestFailedAsyncConstructorReturnsNull(t *testing.T) {
	var errorOut uintptr
	handle := calc_calculator_new_remote_sync(uintptr(ffirt.NewString("")), 0, &errorOut)
	if handle != 0 {
		t.Fatalf("handle = %#x, want 0", handle)
	}
	if message := errorMessage(t, errorOut); message != "no address given" {
		t.Fatalf("message = %q", message)
	}

	handle = calc_calculator_new_remote_sync(uintptr(ffirt.NewString("localhost")), 0, &errorOut)
	if handle == 0 {
		t.Fatal("constructor returned NULL")
	}
	ffigen_object_unref(handle)
}

func TestOwnedStringsRoundTrip(t *testing.T) {
	calculator := calc_calculator_new(7)
	defer ffigen_object_unref(calculator)

	described := calc_calculator_describe(calculator, uintptr(ffirt.NewString("total=")))
	defer ffigen_free(described)
	if got := ffirt.PeekString(ffirt.Ptr(described)); got != "total=7" {
		t.Fatalf("describe = %q", got)
	}
}
