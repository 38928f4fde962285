// Package arena provides bump allocation of typed values in large chunks.
//
// An Arena never frees individual values. Everything it handed out is dropped
// together by Release, which also advances the arena's generation so that
// stale handles can be detected.
package arena

import "unsafe"

// BlockBytes is the minimum size of a chunk in bytes.
const BlockBytes = 1 << 20

// Handle identifies a value allocated from an Arena.
type Handle struct {
	Index uint32
	Gen   uint32
}

// IsValid reports whether the handle was ever issued. The zero Handle is
// never valid since generations start at 1.
func (h Handle) IsValid() bool {
	return h.Gen != 0
}

// Arena is a bump allocator for values of type T. The zero value is ready to
// use.
type Arena[T any] struct {
	blocks  [][]T
	current []T
	used    int
	count   uint32
	gen     uint32
	index   []*T
}

func (a *Arena[T]) blockLen(request int) int {
	var zero T
	size := int(unsafe.Sizeof(zero))
	if size == 0 {
		size = 1
	}
	n := BlockBytes / size
	if n < 1 {
		n = 1
	}
	if request > n {
		n = request
	}
	return n
}

func (a *Arena[T]) grow(request int) {
	block := make([]T, a.blockLen(request))
	a.blocks = append(a.blocks, block)
	a.current = block
	a.used = 0
}

// Alloc returns a zeroed value carved from the current chunk along with its
// handle.
func (a *Arena[T]) Alloc() (Handle, *T) {
	if a.gen == 0 {
		a.gen = 1
	}
	if a.used >= len(a.current) {
		a.grow(1)
	}
	v := &a.current[a.used]
	a.used++
	a.index = append(a.index, v)
	h := Handle{Index: a.count, Gen: a.gen}
	a.count++
	return h, v
}

// AllocSlice returns n contiguous zeroed values. The slice has capacity n, so
// appending to it never writes into neighbouring allocations.
func (a *Arena[T]) AllocSlice(n int) []T {
	if n == 0 {
		return nil
	}
	if a.gen == 0 {
		a.gen = 1
	}
	if len(a.current)-a.used < n {
		a.grow(n)
	}
	s := a.current[a.used : a.used+n : a.used+n]
	a.used += n
	return s
}

// Get returns the value behind a handle. It fails for handles issued before
// the last Release.
func (a *Arena[T]) Get(h Handle) (*T, bool) {
	if h.Gen != a.gen || int(h.Index) >= len(a.index) {
		return nil, false
	}
	return a.index[h.Index], true
}

// Len returns the number of values allocated with Alloc.
func (a *Arena[T]) Len() int {
	return int(a.count)
}

// Blocks returns the number of chunks currently held.
func (a *Arena[T]) Blocks() int {
	return len(a.blocks)
}

// Release drops all chunks. Handles issued so far become invalid.
func (a *Arena[T]) Release() {
	a.blocks = nil
	a.current = nil
	a.index = nil
	a.used = 0
	a.count = 0
	a.gen++
	if a.gen == 0 {
		a.gen = 1
	}
}
