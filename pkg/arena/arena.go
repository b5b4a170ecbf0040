package arena

import (
	"unsafe"

	"github.com/flier/fsio/internal/debug"
	"github.com/flier/fsio/pkg/xunsafe"
	"github.com/flier/fsio/pkg/xunsafe/layout"
)

// wordSize is the minimum chunk size and alignment: large enough to store
// the intrusive free-list link every free chunk carries in its first
// bytes.
const wordSize = unsafe.Sizeof(uintptr(0))

// Arena is a free-list allocator for chunks of one fixed size and
// alignment, backed by a geometrically growing set of slabs.
//
// Arena is not safe for concurrent use; callers must serialize all calls
// on a given *Arena from outside. Distinct Arenas may be used from
// different goroutines freely.
//
// The zero Arena is not ready to use; construct one with [New].
type Arena struct {
	_ xunsafe.NoCopy

	align, size uintptr

	// free is the head of the intrusive free list: a nil unsafe.Pointer
	// when empty, otherwise the address of a chunk whose first word holds
	// the next link.
	free unsafe.Pointer

	// slabs holds the base address of every slab this arena has grown.
	// Slab i holds 1<<i chunks.
	slabs []unsafe.Pointer

	// chunks is the total number of chunks ever carved out of a slab,
	// the high-water mark of live-or-freed chunks this arena has handed
	// out.
	chunks int
}

// New creates an Arena for chunks of the given size and alignment.
//
// size is rounded up to at least enough to store a free-list link, and
// up to a multiple of align.
func New(align, size uintptr) *Arena {
	if align < wordSize {
		align = wordSize
	}
	if size < wordSize {
		size = wordSize
	}

	return &Arena{
		align: align,
		size:  alignCeil(align, size),
	}
}

// Alloc returns a new chunk, or false if the underlying allocator or the
// size-class math failed. On failure, no partial state is left behind.
func (a *Arena) Alloc() (unsafe.Pointer, bool) {
	if a.free == nil && !a.grow() {
		return nil, false
	}

	p := a.free
	a.free = *link(p)

	debug.Log(nil, "arena.alloc", "%p: %d slabs", p, len(a.slabs))

	return p, true
}

// Free returns p, previously returned by Alloc on this Arena, to the free
// list. p must not be used again afterwards; freeing a pointer not
// allocated by this Arena, or double-freeing, is undefined.
func (a *Arena) Free(p unsafe.Pointer) {
	*link(p) = a.free
	a.free = p

	debug.Log(nil, "arena.free", "%p", p)
}

// link casts the first word of the chunk at p into the intrusive
// free-list pointer stored there.
func link(p unsafe.Pointer) *unsafe.Pointer {
	return xunsafe.Cast[unsafe.Pointer]((*byte)(p))
}

// Slabs returns the number of slabs this arena has grown.
func (a *Arena) Slabs() int { return len(a.slabs) }

// Chunks returns the total number of chunks this arena has ever carved
// out of a slab, whether currently free or still in use.
func (a *Arena) Chunks() int { return a.chunks }

// Destroy releases every slab owned by this arena and resets it to its
// zero-value geometry. Every chunk ever returned by Alloc is invalidated.
func (a *Arena) Destroy() {
	a.free = nil
	a.slabs = nil
	a.chunks = 0
	a.align, a.size = 0, 0
}

// grow adds a new slab of 1<<len(a.slabs) chunks, threading every chunk in
// it onto the free list. It reports whether the slab was successfully
// allocated.
func (a *Arena) grow() bool {
	n := uintptr(1) << uint(len(a.slabs))

	total := arraySize(a.align, a.size, n)
	if total == 0 || total == saturated(a.align) {
		return false
	}

	// make([]byte, ...) only guarantees the runtime allocator's own word
	// alignment, which can be smaller than a.align; over-allocate by
	// a.align-1 bytes of slack and round the base up ourselves.
	slack := a.align - 1
	raw := total + slack
	if raw < total {
		return false
	}

	buf := make([]byte, raw)
	base := unsafe.Pointer(layout.RoundUp(uintptr(unsafe.Pointer(unsafe.SliceData(buf))), a.align))

	a.slabs = append(a.slabs, base)
	a.chunks += int(n)

	// Thread every chunk onto the free list, in reverse address order, so
	// that allocation proceeds through the slab from its start.
	for i := n; i > 0; i-- {
		chunk := unsafe.Pointer(xunsafe.Add((*byte)(base), (i-1)*a.size))
		*link(chunk) = a.free
		a.free = chunk
	}

	debug.Log(nil, "arena.grow", "slab %d: %d chunks of %d bytes", len(a.slabs)-1, n, a.size)

	return true
}
