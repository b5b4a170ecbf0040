// Package arena implements fixed-size and variable-size pooled allocators.
//
// An [Arena] hands out chunks of one fixed size and alignment from a
// geometrically growing set of slabs, threading freed chunks onto an
// intrusive free list. A [VArena] extends this to flex-tail allocations —
// structs with a trailing variable-length array — by dispatching each
// request to one of a power-of-two family of [Arena]s, keyed by a size
// class derived from the requested element count.
//
// Both allocators are single-threaded: callers must serialize access to a
// given [Arena] or [VArena] from outside. Different instances may be used
// concurrently from different goroutines without coordination.
//
// There is no generic reallocation of a fixed-size chunk to a different
// size class; only [VArena.Realloc] resizes, and only across flex size
// classes computed from the element count.
package arena
