package ffirt

import (
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Borrowed returns must outlive the call that produced them, so they are
// interned here instead of being allocated per call.
type staticCache struct {
	strings map[string]Ptr
	strvs   map[string]Ptr
	bytes   map[string]Ptr
	mu      sync.Mutex
}

var statics = &staticCache{}

func (c *staticCache) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.strings = nil
	c.strvs = nil
	c.bytes = nil
}

func (c *staticCache) intern(table *map[string]Ptr, key string, create func() Ptr) Ptr {
	c.mu.Lock()
	defer c.mu.Unlock()

	if *table == nil {
		*table = make(map[string]Ptr)
	}
	if p, ok := (*table)[key]; ok {
		return p
	}
	p := create()
	(*table)[key] = p
	return p
}

// NewString allocates a native copy of s. The receiver owns the result.
func NewString(s string) Ptr {
	return currentAllocator().CString(s)
}

// TakeString reads the native string at p and frees it.
func TakeString(p Ptr) string {
	if p == 0 {
		return ""
	}
	a := currentAllocator()
	s := a.GoString(p)
	a.Free(p)
	return s
}

// PeekString reads the native string at p, leaving ownership with the caller.
func PeekString(p Ptr) string {
	return currentAllocator().GoString(p)
}

// StaticString returns a native copy of s that stays valid for the life of
// the current allocator. The receiver must not free it.
func StaticString(s string) Ptr {
	return statics.intern(&statics.strings, s, func() Ptr { return NewString(s) })
}

// FreeString releases a string obtained from NewString.
func FreeString(p Ptr) {
	if p != 0 {
		currentAllocator().Free(p)
	}
}

func NewStrv(items []string) Ptr {
	return currentAllocator().Strv(items)
}

func TakeStrv(p Ptr) []string {
	if p == 0 {
		return nil
	}
	a := currentAllocator()
	items := a.GoStrv(p)
	a.FreeStrv(p)
	return items
}

func PeekStrv(p Ptr) []string {
	return currentAllocator().GoStrv(p)
}

func FreeStrv(p Ptr) {
	if p != 0 {
		currentAllocator().FreeStrv(p)
	}
}

func StaticStrv(items []string) Ptr {
	key := strings.Join(items, "\x00")
	return statics.intern(&statics.strvs, key, func() Ptr { return NewStrv(items) })
}

// NewBytes wraps a copy of b in a reference-counted buffer handle.
func NewBytes(b []byte) Ptr {
	return handles.insert(append([]byte{}, b...))
}

// TakeBytes reads the buffer behind p and drops the caller's reference.
func TakeBytes(p Ptr) []byte {
	return Take[[]byte](p)
}

func PeekBytes(p Ptr) []byte {
	return Borrow[[]byte](p)
}

func StaticBytes(b []byte) Ptr {
	return statics.intern(&statics.bytes, string(b), func() Ptr { return NewBytes(b) })
}

func ToBoolean(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

func FromBoolean(v int32) bool {
	return v != 0
}

func Identity[T any](v T) T {
	return v
}

// OptionFrom decodes an optional value whose absence is signalled by the
// zero value of its native representation.
func OptionFrom[C comparable, T any](raw C, convert func(C) T) *T {
	var sentinel C
	if raw == sentinel {
		return nil
	}
	v := convert(raw)
	return &v
}

// OptionTo encodes an optional value, using the zero value of the native
// representation for absence. A present value that encodes to that same zero
// value is indistinguishable from absence on the receiving side; it is still
// encoded as-is and reported with a warning.
func OptionTo[T any, C comparable](v *T, convert func(T) C) C {
	var sentinel C
	if v == nil {
		return sentinel
	}

	raw := convert(*v)
	if raw == sentinel {
		Logger().Warn("present optional value encodes as absent", zap.Any("value", *v))
	}
	return raw
}
