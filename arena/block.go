// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package arena

import (
	"unsafe"

	"github.com/curioloop/gnsbfgs/internal/simdpack"
)

// blockBytes is the fixed block size spec.md §4.D fixes at 4 KiB.
const blockBytes = 4096

// headerBytes approximates the {next, countdown} header spec.md describes;
// Go has no literal in-block header (next/countdown live as ordinary struct
// fields on block[T], not packed into the allocation itself), but the
// constant is kept so blockCapacity derives the same usable-buffer count a
// C translation would get from (4096-header)/B.
const headerBytes = 16

// block is one 4 KiB (cache-aligned) arena slab sized for buffers of a
// fixed length bufSize. It is bump-allocated from the front; countdown
// tracks how many of the buffers handed out from it are still live.
type block[T simdpack.Real] struct {
	data      []T
	bufSize   int
	offset    int
	capacity  int // number of bufSize-length buffers this block can hold
	countdown int
	next      *block[T] // free-list link, see freelist.go
}

func blockCapacity[T simdpack.Real](bufSize int) int {
	var zero T
	elemSize := int(unsafe.Sizeof(zero))
	usable := blockBytes - headerBytes
	n := usable / (bufSize * elemSize)
	if n < 1 {
		n = 1
	}
	return n
}

func newBlock[T simdpack.Real](bufSize int) *block[T] {
	cap := blockCapacity[T](bufSize)
	return &block[T]{
		data:      simdpack.AlignedAlloc[T](cap * bufSize),
		bufSize:   bufSize,
		capacity:  cap,
		countdown: cap,
	}
}

// full reports whether the block has no room left for another bufSize
// buffer.
func (b *block[T]) full() bool {
	return b.offset+b.bufSize > len(b.data)
}

// take bumps the pointer and returns a fresh, zeroed buffer.
func (b *block[T]) take() []T {
	start := b.offset
	b.offset += b.bufSize
	buf := b.data[start : start+b.bufSize : start+b.bufSize]
	simdpack.Fill(buf, T(0))
	return buf
}

// owns reports whether buf's backing array lies within this block's slab,
// the "found by linear walk of the current block list" test spec.md §4.D
// specifies for buffer release.
func (b *block[T]) owns(buf []T) bool {
	if len(b.data) == 0 || len(buf) == 0 {
		return false
	}
	lo := uintptr(unsafe.Pointer(&b.data[0]))
	hi := lo + uintptr(len(b.data))*unsafe.Sizeof(b.data[0])
	p := uintptr(unsafe.Pointer(&buf[0]))
	return p >= lo && p < hi
}

// reset restores a block to its just-allocated state so it can be recycled
// from the free list. bufSize must give the same slab length the block was
// built with; a different size panics.
func (b *block[T]) reset(bufSize int) {
	cap := blockCapacity[T](bufSize)
	if cap*bufSize != len(b.data) {
		// sizes don't match: caller must discard and allocate fresh,
		// per spec.md §8.3 ("otherwise they are freed and re-allocated").
		panic("arena: block reset size mismatch")
	}
	b.bufSize = bufSize
	b.offset = 0
	b.capacity = cap
	b.countdown = cap
	b.next = nil
}
