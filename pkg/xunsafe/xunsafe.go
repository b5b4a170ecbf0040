// Package xunsafe provides a more convenient interface for performing unsafe
// operations than Go's built-in package unsafe.
package xunsafe

import (
	"sync"

	"github.com/flier/fsio/pkg/xunsafe/layout"
)

// NoCopy is a type that go vet will complain about having been copied.
//
// It does so because its element type, [sync.Mutex], implements
// [sync.Locker].
type NoCopy [0]sync.Mutex

// Int is any integer type.
type Int = layout.Int
