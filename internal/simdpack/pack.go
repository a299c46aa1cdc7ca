// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package simdpack is the facade over the packed-float SIMD helper that
// the AD engine drives its gradient-lane arithmetic through. It wraps
// github.com/ajroetker/go-highway/hwy so the rest of the module never
// imports hwy directly.
package simdpack

import "github.com/ajroetker/go-highway/hwy"

// Real is the scalar element type the whole module is generic over.
type Real interface {
	~float32 | ~float64
}

// Width reports the number of lanes packed into a Pack[T] on this build
// target, i.e. hwy's MaxLanes for T.
func Width[T Real]() int {
	return hwy.MaxLanes[T]()
}

// NextMultipleOfWidth rounds n up to the next multiple of Width[T](),
// the D = next_multiple_of_W(n) computation spec.md §3.3 requires for
// every MDiff gradient buffer.
func NextMultipleOfWidth[T Real](n int) int {
	w := Width[T]()
	if n%w == 0 {
		return n
	}
	return (n/w + 1) * w
}

// Pack is a fixed-width vector of Real with the elementwise arithmetic and
// aligned load/store spec.md §3.2 and §6.2 describe.
type Pack[T Real] struct {
	v hwy.Vec[T]
}

// Zero returns the all-zero-lane constant.
func Zero[T Real]() Pack[T] {
	return Pack[T]{hwy.Zero[T]()}
}

// Broadcast returns a pack with every lane set to s.
func Broadcast[T Real](s T) Pack[T] {
	return Pack[T]{hwy.Set(s)}
}

// Load reads Width[T]() lanes starting at src[0]. src must have at least
// Width[T]() elements; buffers allocated via AlignedAlloc always satisfy
// this because their length is rounded up to a lane multiple.
func Load[T Real](src []T) Pack[T] {
	return Pack[T]{hwy.Load(src)}
}

// Store writes the pack's lanes into dst.
func (p Pack[T]) Store(dst []T) {
	hwy.Store(p.v, dst)
}

func (p Pack[T]) Add(o Pack[T]) Pack[T] { return Pack[T]{hwy.Add(p.v, o.v)} }
func (p Pack[T]) Sub(o Pack[T]) Pack[T] { return Pack[T]{hwy.Sub(p.v, o.v)} }
func (p Pack[T]) Mul(o Pack[T]) Pack[T] { return Pack[T]{hwy.Mul(p.v, o.v)} }
func (p Pack[T]) Div(o Pack[T]) Pack[T] { return Pack[T]{hwy.Div(p.v, o.v)} }
func (p Pack[T]) Neg() Pack[T]          { return Pack[T]{hwy.Neg(p.v)} }

// Fill writes s into every element of dst, Width[T]() lanes at a time.
func Fill[T Real](dst []T, s T) {
	b := Broadcast(s)
	w := Width[T]()
	i := 0
	for ; i+w <= len(dst); i += w {
		b.Store(dst[i : i+w])
	}
	for ; i < len(dst); i++ {
		dst[i] = s
	}
}

// Transform applies f lane-wise over src into dst (lane-major, not
// scalar-major, per spec.md §6.2) using the supplied packed op.
func Transform[T Real](dst, src []T, op func(Pack[T]) Pack[T]) {
	w := Width[T]()
	i := 0
	for ; i+w <= len(src); i += w {
		op(Load(src[i : i+w])).Store(dst[i : i+w])
	}
	for ; i < len(src); i++ {
		op(Load(src[i : i+1])).Store(dst[i : i+1])
	}
}
