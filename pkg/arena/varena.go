package arena

import (
	"unsafe"

	"github.com/flier/fsio/internal/debug"
	"github.com/flier/fsio/pkg/xunsafe"
)

// VArena dispatches allocations of a flex-tail struct — a fixed header of
// minStructSize bytes followed by a variable-length array of elementSize-byte
// elements starting at tailOffset — to one of a family of [Arena]s, indexed
// by a power-of-two size class derived from the element count.
//
// Like [Arena], a VArena is not safe for concurrent use.
//
// Callers must remember the element count they allocated or reallocated
// with; VArena stores no per-chunk header, so the count must be supplied
// again to Free and Realloc.
type VArena struct {
	_ xunsafe.NoCopy

	align, minStructSize, tailOffset, elementSize uintptr

	// shift is log2 of the smallest size class: the least power of two
	// that is >= max(minStructSize, tailOffset+elementSize) and aligned up
	// to align. Size class 0 covers every count whose flex size is no
	// larger than that baseline.
	shift uint

	// arenas is indexed by size class, grown lazily as larger classes are
	// first requested.
	arenas []*Arena
}

// NewVArena creates a VArena for a struct with the given alignment, minimum
// (zero-tail) size, flexible-array byte offset, and per-element size.
func NewVArena(align, minStructSize, tailOffset, elementSize uintptr) *VArena {
	if align < wordSize {
		align = wordSize
	}

	baseline := tailOffset + elementSize
	if minStructSize > baseline {
		baseline = minStructSize
	}
	baseline = alignCeil(align, baseline)

	return &VArena{
		align:         align,
		minStructSize: minStructSize,
		tailOffset:    tailOffset,
		elementSize:   elementSize,
		shift:         ceilLog2(nextPow2(baseline)),
	}
}

// flexSizeFor computes the flex size for count elements under this
// VArena's layout.
func (v *VArena) flexSizeFor(count uintptr) uintptr {
	return flexSize(v.align, v.minStructSize, v.tailOffset, v.elementSize, count)
}

// classFor returns the size class whose chunks are big enough for a flex
// allocation of the given size.
func (v *VArena) classFor(size uintptr) int {
	log := ceilLog2(size)
	if log <= v.shift {
		return 0
	}

	return int(log - v.shift)
}

// classForCount is classFor(flexSizeFor(count)), the size class that was
// (or would have been) used to allocate count elements.
func (v *VArena) classForCount(count uintptr) int {
	return v.classFor(v.flexSizeFor(count))
}

// arenaFor returns the sub-arena for the given class, growing the arenas
// slice and lazily initializing the sub-arena if this is the first use of
// that class.
func (v *VArena) arenaFor(class int) *Arena {
	if class >= len(v.arenas) {
		grown := make([]*Arena, class+1)
		copy(grown, v.arenas)
		v.arenas = grown
	}

	if v.arenas[class] == nil {
		chunkSize := uintptr(1) << (uint(class) + v.shift)
		v.arenas[class] = New(v.align, chunkSize)
	}

	return v.arenas[class]
}

// Alloc allocates a flex-tail struct with room for count elements.
func (v *VArena) Alloc(count uintptr) (unsafe.Pointer, bool) {
	size := v.flexSizeFor(count)
	if size == saturated(v.align) {
		return nil, false
	}

	p, ok := v.arenaFor(v.classFor(size)).Alloc()

	debug.Log(nil, "varena.alloc", "count=%d size=%d -> %p", count, size, p)

	return p, ok
}

// Realloc resizes p, previously allocated (or reallocated) with oldCount
// elements, to hold newCount elements.
//
// Realloc(p, n, n) returns p unchanged. If the old and new element counts
// fall in the same size class, p is returned as-is. Otherwise a new chunk
// is allocated, the overlapping prefix of the tail is copied, and the old
// chunk is freed. If the new allocation fails, p remains live and valid
// and Realloc reports failure.
func (v *VArena) Realloc(p unsafe.Pointer, oldCount, newCount uintptr) (unsafe.Pointer, bool) {
	if oldCount == newCount {
		return p, true
	}

	oldSize := v.flexSizeFor(oldCount)
	newSize := v.flexSizeFor(newCount)
	if newSize == saturated(v.align) {
		return nil, false
	}

	oldClass := v.classFor(oldSize)
	newClass := v.classFor(newSize)
	if oldClass == newClass {
		return p, true
	}

	q, ok := v.arenaFor(newClass).Alloc()
	if !ok {
		return nil, false
	}

	n := oldSize
	if newSize < n {
		n = newSize
	}
	xunsafe.Copy((*byte)(q), (*byte)(p), n)

	v.arenaFor(oldClass).Free(p)

	debug.Log(nil, "varena.realloc", "%p (%d) -> %p (%d)", p, oldCount, q, newCount)

	return q, true
}

// Free releases p, previously allocated with count elements, back to its
// size class's free list.
func (v *VArena) Free(p unsafe.Pointer, count uintptr) {
	class := v.classForCount(count)
	if class < len(v.arenas) && v.arenas[class] != nil {
		v.arenas[class].Free(p)
	}
}

// Destroy destroys every sub-arena this VArena has created.
func (v *VArena) Destroy() {
	for _, a := range v.arenas {
		if a != nil {
			a.Destroy()
		}
	}
	v.arenas = nil
}
