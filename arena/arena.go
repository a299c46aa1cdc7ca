// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package arena is the AD gradient-buffer allocator: a per-Context bump
// pointer over 4 KiB cache-aligned blocks, with empty blocks recycled
// through a process-wide lock-free free list. See spec.md §4.D.
package arena

import (
	"github.com/curioloop/gnsbfgs/internal/simdpack"
	"github.com/pkg/errors"
)

// ErrOutOfMemory names the fatal arena block acquisition failure. Nothing
// in this package returns or panics with it: blocks come from the Go
// allocator, whose own out-of-memory failure ends the process.
var ErrOutOfMemory = errors.New("arena: out of memory")

// Context fixes D = next_multiple_of_W(n) for one optimizer call and hands
// out D-length buffers in O(1) amortized. Per spec.md's Design Notes, Go
// has no portable thread-local storage, so the bump state lives as
// ordinary struct fields on Context rather than behind a TLS slot; this is
// the explicitly-sanctioned substitution ("instantiate a per-call arena
// object threaded through the optimizer... as a context parameter"). A
// Context, and every MDiff rooted in it, must stay on one goroutine.
type Context[T simdpack.Real] struct {
	bufSize int
	cur     *block[T]
	live    []*block[T]
	inUse   int
}

// NewContext fixes the independent-variable count n and returns a Context
// whose buffers are all of length D = next_multiple_of_W(n).
func NewContext[T simdpack.Real](n int) *Context[T] {
	d := simdpack.NextMultipleOfWidth[T](n)
	return &Context[T]{bufSize: d}
}

// D is the (padded) gradient length every buffer from this Context has.
func (c *Context[T]) D() int { return c.bufSize }

// Alloc acquires one zeroed D-length buffer, amortized O(1).
func (c *Context[T]) Alloc() []T {
	if c.cur == nil || c.cur.full() {
		b := globalFreeList[T]().pop(c.bufSize)
		if b == nil {
			b = newBlock[T](c.bufSize)
		}
		c.cur = b
		c.live = append(c.live, b)
	}
	c.inUse++
	return c.cur.take()
}

// Release returns buf to the arena. The owning block is found by a linear
// walk of the context's live block list (spec.md §4.D: "short in
// practice"); when that block's countdown reaches zero it is unlinked here
// and pushed onto the global free list for reuse by any Context (including
// on another goroutine) whose bufSize matches.
func (c *Context[T]) Release(buf []T) {
	if len(buf) == 0 {
		return
	}
	c.inUse--
	for i, b := range c.live {
		if b.owns(buf) {
			b.countdown--
			if b.countdown == 0 {
				c.live = append(c.live[:i], c.live[i+1:]...)
				if c.cur == b {
					c.cur = nil
				}
				b.reset(c.bufSize)
				globalFreeList[T]().push(b)
			}
			return
		}
	}
	panic("arena: release of buffer not owned by this context")
}

// InUse reports the number of buffers currently acquired and not yet
// released, exercised by the arena lifecycle property (spec.md §8.3).
func (c *Context[T]) InUse() int { return c.inUse }

// Close returns every block still held by this Context to the global free
// list, matching "Closing the context returns all blocks to the free list."
// Buffers handed out but never explicitly released are abandoned along
// with their block; callers should release every MDiff before Close, which
// the gnsbfgs optimizer and dual.MDiff's ownership discipline both do.
func (c *Context[T]) Close() {
	for _, b := range c.live {
		b.reset(c.bufSize)
		globalFreeList[T]().push(b)
	}
	c.live = nil
	c.cur = nil
	c.inUse = 0
}
