package arena

import (
	"math/bits"

	"github.com/flier/fsio/pkg/xunsafe/layout"
)

// saturated returns the maximum value that is still aligned to align,
// the sentinel every saturating size computation below collapses to on
// overflow.
func saturated(align uintptr) uintptr {
	return alignFloor(align, ^uintptr(0))
}

// alignFloor rounds size down to a multiple of align.
func alignFloor(align, size uintptr) uintptr {
	return layout.RoundDown(size, align)
}

// alignCeil rounds size up to a multiple of align.
func alignCeil(align, size uintptr) uintptr {
	return layout.RoundUp(size, align)
}

// arraySize computes size*count, saturating to [saturated](align) on
// overflow.
func arraySize(align, size, count uintptr) uintptr {
	if size == 0 || count == 0 {
		return 0
	}

	ret := size * count
	if ret/size != count {
		return saturated(align)
	}

	return ret
}

// flexSize computes the size of a struct with min bytes of fixed header,
// a trailing array of count elements of size bytes starting at offset
// bytes in, aligned up to align. It saturates to [saturated](align) if any
// intermediate computation overflows a uintptr.
//
// This mirrors flex_size() in bfs's alloc.h: the result is never smaller
// than alignCeil(align, min), which matters when the struct has tail
// padding beyond the declared start of its flexible array.
func flexSize(align, min, offset, size, count uintptr) uintptr {
	ret := size * count
	overflow := size != 0 && ret/size != count

	extra := offset + align - 1
	sum := ret + extra
	overflow = overflow || sum < extra
	ret = sum

	if overflow {
		ret = ^uintptr(0)
	}
	ret = alignFloor(align, ret)

	if min > alignCeil(align, offset) && ret < min {
		ret = min
	}

	return ret
}

// ceilLog2 returns the smallest n such that 1<<n >= v. ceilLog2(0) == 0.
func ceilLog2(v uintptr) uint {
	if v <= 1 {
		return 0
	}

	return uint(bits.Len(uint(v - 1)))
}

// nextPow2 rounds v up to the next power of two. nextPow2(0) == 1.
func nextPow2(v uintptr) uintptr {
	return uintptr(1) << ceilLog2(v)
}
