//go:build cgo

package ffirt

/*
#include <stdlib.h>
*/
import "C"

import "unsafe"

type cAllocator struct{}

func defaultAllocator() Allocator {
	return cAllocator{}
}

func (cAllocator) CString(s string) Ptr {
	return Ptr(unsafe.Pointer(C.CString(s)))
}

func (cAllocator) GoString(p Ptr) string {
	if p == 0 {
		return ""
	}
	return C.GoString((*C.char)(unsafe.Pointer(uintptr(p))))
}

func (a cAllocator) Strv(items []string) Ptr {
	size := C.size_t(len(items)+1) * C.size_t(unsafe.Sizeof(uintptr(0)))
	array := C.malloc(size)
	slots := unsafe.Slice((**C.char)(array), len(items)+1)
	for i, item := range items {
		slots[i] = C.CString(item)
	}
	slots[len(items)] = nil
	return Ptr(array)
}

func (cAllocator) GoStrv(p Ptr) []string {
	if p == 0 {
		return nil
	}

	items := make([]string, 0)
	for slot := (**C.char)(unsafe.Pointer(uintptr(p))); *slot != nil; slot = (**C.char)(unsafe.Add(unsafe.Pointer(slot), unsafe.Sizeof(uintptr(0)))) {
		items = append(items, C.GoString(*slot))
	}
	return items
}

func (cAllocator) Free(p Ptr) {
	if p != 0 {
		C.free(unsafe.Pointer(uintptr(p)))
	}
}

func (cAllocator) FreeStrv(p Ptr) {
	if p == 0 {
		return
	}
	for slot := (**C.char)(unsafe.Pointer(uintptr(p))); *slot != nil; slot = (**C.char)(unsafe.Add(unsafe.Pointer(slot), unsafe.Sizeof(uintptr(0)))) {
		C.free(unsafe.Pointer(*slot))
	}
	C.free(unsafe.Pointer(uintptr(p)))
}
