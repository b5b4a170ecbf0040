package arena

import (
	"math"
	"math/bits"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
)

func TestArraySize(t *testing.T) {
	t.Parallel()

	assert.Equal(t, uintptr(0), arraySize(8, 0, 100))
	assert.Equal(t, uintptr(0), arraySize(8, 16, 0))
	assert.Equal(t, uintptr(1600), arraySize(8, 16, 100))

	// size*count overflows a uintptr: saturate to the aligned maximum.
	huge := uintptr(1) << uint(bits.UintSize-1)
	assert.Equal(t, saturated(8), arraySize(8, huge, 4))
}

func TestFlexSize(t *testing.T) {
	t.Parallel()

	type header struct {
		n    int
		tail [0]byte
	}

	align := uintptr(8)
	min := unsafe.Sizeof(header{})
	offset := min // tail starts right after the header, no padding before it
	elem := uintptr(4)

	// Never smaller than the aligned baseline struct size, even at count=0.
	assert.GreaterOrEqual(t, flexSize(align, min, offset, elem, 0), alignCeil(align, min))

	// Monotonically non-decreasing in count.
	prev := flexSize(align, min, offset, elem, 0)
	for count := uintptr(1); count <= 64; count++ {
		size := flexSize(align, min, offset, elem, count)
		assert.GreaterOrEqual(t, size, prev)
		prev = size
	}

	// Saturates on overflow.
	assert.Equal(t, saturated(align), flexSize(align, min, offset, math.MaxUint64/2, 4))
}

func TestCeilLog2(t *testing.T) {
	t.Parallel()

	cases := []struct {
		v    uintptr
		want uint
	}{
		{0, 0},
		{1, 0},
		{2, 1},
		{3, 2},
		{4, 2},
		{5, 3},
		{8, 3},
		{9, 4},
	}

	for _, c := range cases {
		assert.Equal(t, c.want, ceilLog2(c.v), "ceilLog2(%d)", c.v)
	}
}

func TestNextPow2(t *testing.T) {
	t.Parallel()

	cases := []struct {
		v, want uintptr
	}{
		{0, 1},
		{1, 1},
		{2, 2},
		{3, 4},
		{5, 8},
		{16, 16},
		{17, 32},
	}

	for _, c := range cases {
		assert.Equal(t, c.want, nextPow2(c.v), "nextPow2(%d)", c.v)
	}
}
