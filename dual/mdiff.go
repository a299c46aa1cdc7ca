// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dual

import (
	"github.com/curioloop/gnsbfgs/arena"
	"github.com/curioloop/gnsbfgs/internal/simdpack"
)

// MDiff is the multi-directional dual number of spec.md §3.3: a primal
// value paired with an arena-owned gradient buffer of length D =
// next_multiple_of_W(n), the last D-n lanes of which are padding that every
// operation preserves as zero.
//
// Ownership: an MDiff exclusively owns its buffer. Take transfers ownership
// (Go's stand-in for move, since Go has no destructors: the source's buf is
// nilled so it cannot be double-released); Clone allocates a fresh buffer
// and copies. Release returns the buffer to the originating arena.Context.
// All MDiffs must live entirely within the lifetime of the Context that
// produced them (spec.md §3.3's Lifecycle invariant) — Go cannot enforce
// this statically, so it is a caller discipline, the same way gnsbfgs's
// own per-goroutine Workspace contract is.
type MDiff[T Real] struct {
	Val T
	buf []T
	ctx *arena.Context[T]
}

// NewIndependent constructs the MDiff spec.md §4.E's setIndependent(v, i)
// describes: val = v, dval[i] = 1, every other lane (including padding) 0.
func NewIndependent[T Real](ctx *arena.Context[T], v T, i int) *MDiff[T] {
	buf := ctx.Alloc() // Alloc always returns a zeroed buffer.
	buf[i] = 1
	return &MDiff[T]{Val: v, buf: buf, ctx: ctx}
}

// Independent builds n MDiffs from initial values, one per independent
// direction, per spec.md §4.E's Independent(values) helper.
func Independent[T Real](ctx *arena.Context[T], values []T) []*MDiff[T] {
	out := make([]*MDiff[T], len(values))
	for i, v := range values {
		out[i] = NewIndependent(ctx, v, i)
	}
	return out
}

// SetIndependent re-seeds an existing MDiff in place (reusing its buffer,
// no new allocation) as the i-th independent direction at value v. The
// optimizer uses this to advance ad_params to the newly accepted iterate
// without releasing and reacquiring a buffer every step.
func (m *MDiff[T]) SetIndependent(v T, i int) {
	simdpack.Fill(m.buf, T(0))
	m.buf[i] = 1
	m.Val = v
}

// Dval reads the i-th gradient lane.
func (m *MDiff[T]) Dval(i int) T { return m.buf[i] }

// Grad returns the full (padded) gradient buffer. Callers must treat it as
// read-only; mutating it would violate the single-owner invariant.
func (m *MDiff[T]) Grad() []T { return m.buf }

// Expr returns the leaf expression-graph node wrapping m, the entry point
// for building a lazy Expr over this MDiff's algebra.
func (m *MDiff[T]) Expr() Expr[T] { return mdiffLeaf[T]{m} }

// Take transfers ownership of m's buffer to a new MDiff, nilling m.buf so
// m can no longer be used or double-released. Go's explicit stand-in for
// move construction (spec.md's Design Notes (iii)).
func (m *MDiff[T]) Take() *MDiff[T] {
	out := &MDiff[T]{Val: m.Val, buf: m.buf, ctx: m.ctx}
	m.buf = nil
	return out
}

// Clone allocates a fresh buffer from ctx and copies m's value and
// gradient into it, the copy-construction counterpart to Take.
func (m *MDiff[T]) Clone(ctx *arena.Context[T]) *MDiff[T] {
	nb := ctx.Alloc()
	copy(nb, m.buf)
	return &MDiff[T]{Val: m.Val, buf: nb, ctx: ctx}
}

// Release returns m's buffer to its owning arena.Context. A no-op if m was
// already consumed by Take. Destruction, spelled explicitly since Go has no
// destructors.
func (m *MDiff[T]) Release() {
	if m.buf != nil {
		m.ctx.Release(m.buf)
		m.buf = nil
	}
}

// assign replaces m's value/gradient with the result of evaluating e,
// releasing the old buffer once e has been evaluated into a new one
// (e may read it) — the in-place-modifier idiom of spec.md
// §4.E ("x = x op y", releasing the old buffer and allocating a new one).
func (m *MDiff[T]) assign(e Expr[T]) {
	res := Eval(m.ctx, e)
	m.ctx.Release(m.buf)
	m.Val, m.buf = res.Val, res.buf
}

func (m *MDiff[T]) AddAssign(o *MDiff[T]) { m.assign(m.Expr().Add(o.Expr())) }
func (m *MDiff[T]) SubAssign(o *MDiff[T]) { m.assign(m.Expr().Sub(o.Expr())) }
func (m *MDiff[T]) MulAssign(o *MDiff[T]) { m.assign(m.Expr().Mul(o.Expr())) }
func (m *MDiff[T]) DivAssign(o *MDiff[T]) { m.assign(m.Expr().Div(o.Expr())) }
