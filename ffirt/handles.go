package ffirt

import (
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
)

// Ptr is a pointer-sized value crossing the C ABI: either a native address
// handed out by the Allocator or a handle into the runtime's handle table.
type Ptr uintptr

// Handles are never reused, so a stale handle can only miss, never alias.
type handleTable struct {
	entries map[Ptr]*entry
	next    Ptr
	mu      sync.Mutex
}

type entry struct {
	value any
	refs  int32
}

var handles = &handleTable{entries: make(map[Ptr]*entry, 64)}

func (t *handleTable) insert(value any) Ptr {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.insertLocked(value)
}

func (t *handleTable) insertLocked(value any) Ptr {
	t.next++
	t.entries[t.next] = &entry{value: value, refs: 1}
	return t.next
}

func (t *handleTable) get(p Ptr) (any, bool) {
	if p == 0 {
		return nil, false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[p]
	if !ok {
		return nil, false
	}
	return e.value, true
}

func (t *handleTable) ref(p Ptr) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[p]
	if !ok {
		return false
	}
	e.refs++
	return true
}

// unref drops one reference and returns the value when it was the last one.
func (t *handleTable) unref(p Ptr) (any, bool) {
	t.mu.Lock()
	e, ok := t.entries[p]
	if !ok {
		t.mu.Unlock()
		return nil, false
	}
	e.refs--
	if e.refs > 0 {
		t.mu.Unlock()
		return nil, false
	}
	delete(t.entries, p)
	t.mu.Unlock()

	if r, ok := e.value.(refcounted); ok {
		r.objectBase().handle.CompareAndSwap(uintptr(p), 0)
	}
	return e.value, true
}

// object returns the stable handle of a refcounted value, registering it on
// first use. addRef adds a reference for the caller when the handle already
// existed.
func (t *handleTable) object(base *Object, value any, addRef bool) Ptr {
	t.mu.Lock()
	defer t.mu.Unlock()

	if p := Ptr(base.handle.Load()); p != 0 {
		if e, ok := t.entries[p]; ok {
			if addRef {
				e.refs++
			}
			return p
		}
	}

	p := t.insertLocked(value)
	base.handle.Store(uintptr(p))
	return p
}

func (t *handleTable) live() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Object gives a Go type a stable identity across the C ABI. Types whose
// binding category is object or shared embed it so that every crossing of the
// same value yields the same handle.
type Object struct {
	handle atomic.Uintptr
}

func (o *Object) objectBase() *Object { return o }

// Handle returns the value's current handle, or 0 when it has none.
func (o *Object) Handle() Ptr {
	return Ptr(o.handle.Load())
}

type refcounted interface {
	objectBase() *Object
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// ToOwned returns a handle for v carrying one reference that the receiving
// side must release.
func ToOwned(v any) Ptr {
	if isNil(v) {
		return 0
	}
	if r, ok := v.(refcounted); ok {
		return handles.object(r.objectBase(), v, true)
	}
	return handles.insert(v)
}

// ToBorrowed returns a handle for v without transferring a reference. A value
// exposed this way for the first time stays pinned in the handle table until
// Forget is called.
func ToBorrowed(v any) Ptr {
	if isNil(v) {
		return 0
	}
	if r, ok := v.(refcounted); ok {
		return handles.object(r.objectBase(), v, false)
	}
	return handles.insert(v)
}

// Forget drops the pin taken by ToBorrowed on a refcounted value.
func Forget(v any) {
	if r, ok := v.(refcounted); ok {
		if p := r.objectBase().Handle(); p != 0 {
			Release(p)
		}
	}
}

// Borrow resolves a handle without touching its reference count. A null
// handle yields the zero value; a handle of the wrong type panics, as the
// equivalent pointer confusion would crash a C caller.
func Borrow[T any](p Ptr) T {
	var zero T
	if p == 0 {
		return zero
	}

	v, ok := handles.get(p)
	if !ok {
		panic(fmt.Sprintf("ffirt: dangling handle %#x", uintptr(p)))
	}

	typed, ok := v.(T)
	if !ok {
		panic(fmt.Sprintf("ffirt: handle %#x holds %T, not %T", uintptr(p), v, zero))
	}
	return typed
}

// Take resolves a handle and consumes the reference the caller passed in.
func Take[T any](p Ptr) T {
	v := Borrow[T](p)
	if p != 0 {
		Release(p)
	}
	return v
}

// Retain adds a reference to p and returns it.
func Retain(p Ptr) Ptr {
	if p == 0 {
		return 0
	}
	if !handles.ref(p) {
		panic(fmt.Sprintf("ffirt: retain of dangling handle %#x", uintptr(p)))
	}
	return p
}

// Release drops one reference from p.
func Release(p Ptr) {
	if p == 0 {
		return
	}
	handles.unref(p)
}

// LiveHandles reports how many handles are currently registered.
func LiveHandles() int {
	return handles.live()
}
