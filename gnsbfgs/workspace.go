// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gnsbfgs

import (
	"github.com/curioloop/gnsbfgs/arena"
	"github.com/curioloop/gnsbfgs/dual"
)

// Optimizer holds the validated, immutable configuration of one fitting
// problem: everything here is read-only once New() returns, so one
// Optimizer may back many concurrently-running Workspaces.
type Optimizer[T Real] struct {
	n             int
	tolerance     T
	maxIter       int
	residuals     []Residual[T]
	transform     ParamTransform[T]
	verbosity     Verbosity
	logger        Logger
	recordHistory bool
}

// Workspace holds the mutable state of one in-progress (or completed)
// optimization. To avoid race conditions, separate workspaces need to be
// created for each goroutine, but multiple workspaces may share one
// Optimizer.
type Workspace[T Real] struct {
	n, m, d int

	ctx      *arena.Context[T]
	adParams []*dual.MDiff[T]

	params []T

	g, s, z, as, tmp []T // length d
	b, a             []T // length n*d, row-major, lower-triangle stored

	r []*dual.MDiff[T] // retained residual evaluations from the last accepted iterate

	normr2        T
	smallProgress int
	iter          int
	totalEval     int
}

// Init allocates the workspace for one optimization run: the AD arena
// context, the gradient/direction/secant scratch vectors, and the two
// n×D normal/correction matrices.
//
// The parameter-transform's NumParameters hook is invoked here, per
// spec.md §4.I ("invoked after the AD Context exists"); Init panics unless
// it returns N unchanged, keeping the AD independent count equal to the
// problem's own N (spec.md leaves the transform's effect on
// dimensionality underspecified, and gnsbfgs's own workspace vectors are
// sized by N regardless — see DESIGN.md).
func (o *Optimizer[T]) Init() *Workspace[T] {
	ctx := arena.NewContext[T](o.n)
	d := ctx.D()

	if numAD := o.transform.NumParameters(o.n); numAD != o.n {
		panic("gnsbfgs: ParamTransform.NumParameters must return n unchanged")
	}

	w := &Workspace[T]{
		n: o.n, m: len(o.residuals), d: d,
		ctx:    ctx,
		params: make([]T, o.n),
		g:      make([]T, d),
		s:      make([]T, d),
		z:      make([]T, d),
		as:     make([]T, d),
		tmp:    make([]T, d),
		b:      make([]T, o.n*d),
		a:      make([]T, o.n*d),
		r:      make([]*dual.MDiff[T], len(o.residuals)),
	}
	return w
}

// Close releases the workspace's AD arena context back to the global
// free list. The Result returned by Fit remains valid (params/gradient
// are plain Go slices, not arena-owned) after Close.
func (w *Workspace[T]) Close() {
	for i, r := range w.r {
		if r != nil {
			r.Release()
			w.r[i] = nil
		}
	}
	for i, p := range w.adParams {
		if p != nil {
			p.Release()
			w.adParams[i] = nil
		}
	}
	w.ctx.Close()
}
