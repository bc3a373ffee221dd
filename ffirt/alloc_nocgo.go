//go:build !cgo

package ffirt

func defaultAllocator() Allocator {
	return NewArena()
}
