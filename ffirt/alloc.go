package ffirt

import (
	"fmt"
	"sync"
)

// Allocator owns the native memory behind strings and string vectors handed
// across the C ABI. Whatever an Allocator returns must be released with the
// matching Free call of the same Allocator.
type Allocator interface {
	// CString copies s into a NUL-terminated native buffer.
	CString(s string) Ptr
	// GoString reads the NUL-terminated buffer at p without releasing it.
	GoString(p Ptr) string
	// Strv copies items into a NULL-terminated native array of strings.
	Strv(items []string) Ptr
	// GoStrv reads the NULL-terminated array at p without releasing it.
	GoStrv(p Ptr) []string
	Free(p Ptr)
	FreeStrv(p Ptr)
}

var (
	allocator   Allocator = defaultAllocator()
	allocatorMu sync.RWMutex
)

func currentAllocator() Allocator {
	allocatorMu.RLock()
	defer allocatorMu.RUnlock()
	return allocator
}

// SetAllocator replaces the allocator used by every conversion helper and
// returns the previous one. Values interned by StaticString and friends are
// dropped because they belong to the previous allocator.
func SetAllocator(a Allocator) Allocator {
	allocatorMu.Lock()
	prev := allocator
	allocator = a
	allocatorMu.Unlock()

	statics.reset()
	return prev
}

// Arena is an Allocator backed by Go memory. Addresses it hands out are
// opaque tokens that only the same Arena can resolve. It is used when cgo is
// unavailable and by tests that count allocations.
type Arena struct {
	blocks map[Ptr]any
	next   Ptr
	allocs int
	frees  int
	mu     sync.Mutex
}

func NewArena() *Arena {
	return &Arena{blocks: make(map[Ptr]any), next: 0x1000}
}

func (a *Arena) alloc(v any) Ptr {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.next += 0x10
	a.blocks[a.next] = v
	a.allocs++
	return a.next
}

func (a *Arena) lookup(p Ptr) (any, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	v, ok := a.blocks[p]
	return v, ok
}

func (a *Arena) release(p Ptr) {
	if p == 0 {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.blocks[p]; !ok {
		panic(fmt.Sprintf("ffirt: free of unknown block %#x", uintptr(p)))
	}
	delete(a.blocks, p)
	a.frees++
}

func (a *Arena) CString(s string) Ptr {
	return a.alloc(s)
}

func (a *Arena) GoString(p Ptr) string {
	if p == 0 {
		return ""
	}
	v, ok := a.lookup(p)
	if !ok {
		panic(fmt.Sprintf("ffirt: read of unknown block %#x", uintptr(p)))
	}
	return v.(string)
}

func (a *Arena) Strv(items []string) Ptr {
	return a.alloc(append([]string{}, items...))
}

func (a *Arena) GoStrv(p Ptr) []string {
	if p == 0 {
		return nil
	}
	v, ok := a.lookup(p)
	if !ok {
		panic(fmt.Sprintf("ffirt: read of unknown block %#x", uintptr(p)))
	}
	return append([]string{}, v.([]string)...)
}

func (a *Arena) Free(p Ptr) {
	a.release(p)
}

func (a *Arena) FreeStrv(p Ptr) {
	a.release(p)
}

// Allocs reports how many blocks were allocated over the arena's lifetime.
func (a *Arena) Allocs() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.allocs
}

// Frees reports how many blocks were released over the arena's lifetime.
func (a *Arena) Frees() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.frees
}

// Live reports how many blocks are currently allocated.
func (a *Arena) Live() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.blocks)
}
