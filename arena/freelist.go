// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package arena

import (
	"sync/atomic"

	"github.com/curioloop/gnsbfgs/internal/simdpack"
)

// freeStack is a lock-free (single-word CAS) Treiber stack of empty blocks,
// shared across every goroutine's Context per spec.md §4.D/§5 ("The global
// free-list must be safe under concurrent push/pop... compare-and-swap loop
// on a single-word head").
type freeStack[T simdpack.Real] struct {
	head atomic.Pointer[block[T]]
}

func (s *freeStack[T]) push(b *block[T]) {
	for {
		old := s.head.Load()
		b.next = old
		if s.head.CompareAndSwap(old, b) {
			return
		}
	}
}

// pop removes the head block and returns it if its buffer size matches
// bufSize. It returns nil if the free list is empty or the head is sized
// for a different bufSize; such a head is dropped, and blocks below it are
// not examined (the caller then allocates fresh).
func (s *freeStack[T]) pop(bufSize int) *block[T] {
	for {
		old := s.head.Load()
		if old == nil {
			return nil
		}
		if s.head.CompareAndSwap(old, old.next) {
			if old.bufSize == bufSize {
				old.next = nil
				return old
			}
			// sized for a different Context; drop it rather than
			// re-link it (the backing allocation is garbage-collected).
			return nil
		}
	}
}

var (
	globalFreeStackF64 = &freeStack[float64]{}
	globalFreeStackF32 = &freeStack[float32]{}
)

// globalFreeList resolves the process-wide free list for T. Only
// float32/float64 are supported element types (simdpack.Real), so a plain
// type switch through `any` picks the right package-level singleton without
// needing a generics-unfriendly registry.
func globalFreeList[T simdpack.Real]() *freeStack[T] {
	var zero T
	switch any(zero).(type) {
	case float64:
		return any(globalFreeStackF64).(*freeStack[T])
	case float32:
		return any(globalFreeStackF32).(*freeStack[T])
	default:
		panic("arena: unsupported element type")
	}
}
