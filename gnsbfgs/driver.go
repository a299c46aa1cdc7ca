// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gnsbfgs

import (
	"fmt"
	"math"

	"github.com/curioloop/gnsbfgs/cholesky"
	"github.com/curioloop/gnsbfgs/dual"
	"github.com/curioloop/gnsbfgs/internal/blas"
	"github.com/curioloop/gnsbfgs/internal/simdpack"
	"github.com/curioloop/gnsbfgs/linesearch"
)

// Result is the final outcome of one Fit call.
type Result[T Real] struct {
	OK bool    // whether termination was a normal convergence, not a failure.
	X  []T     // final parameter vector.
	G  []T     // final gradient (first n lanes meaningful, rest padding zeros).
	Summary
	// History holds one IterationRecord per accepted step, in order, when
	// Problem.RecordHistory was set; nil otherwise.
	History []IterationRecord[T]
}

// Summary records how the optimization ended.
type Summary struct {
	Status  Status
	NumIter int
	NumEval int
}

// IterationRecord is one accepted step's diagnostics, the same numbers
// printIter already formats into the verbose log line, retained instead
// of only printed.
type IterationRecord[T Real] struct {
	Iter  int
	Normr T // ½normr2 at this iterate.
	Delta T // decrease in ½normr2 from the previous iterate.
	GMax  T // |g[imax]|.
	HKind string // "GN" or "SBFGS".
}

// iterDriver holds the optimizer (read-only spec) and the workspace
// (mutable state) and decomposes the main loop into named phase methods
// instead of one long function body.
type iterDriver[T Real] struct {
	o       *Optimizer[T]
	w       *Workspace[T]
	history []IterationRecord[T]
}

// Fit runs the optimization from initial guess x, using workspace w. On
// return the workspace's AD Context has been destroyed (spec.md §4.I:
// "On any normal exit... the AD Context is destroyed, all buffers
// returned") — w is single-use; call Optimizer.Init again for another run.
func (o *Optimizer[T]) Fit(x []T, w *Workspace[T]) *Result[T] {
	if len(x) != o.n {
		panic("gnsbfgs: initial x dimension does not match problem")
	}
	copy(w.params, x)

	d := iterDriver[T]{o: o, w: w}
	status := d.run()
	w.Close()

	return &Result[T]{
		OK: status&Converged > 0,
		X:  append([]T(nil), w.params...),
		G:  append([]T(nil), w.g...),
		Summary: Summary{
			Status:  status,
			NumIter: w.iter,
			NumEval: w.totalEval,
		},
		History: d.history,
	}
}

func (d *iterDriver[T]) run() Status {
	o, w := d.o, d.w

	w.adParams = dual.Independent(w.ctx, w.params)
	d.evaluateInitial()

	// A zero (or already-tiny) initial gradient has no descent direction
	// for the line search to chase — s would be exactly 0 and phi'(0) = 0
	// fails the line search's own descent precondition. Check gradient
	// tolerance before attempting a step, not just after one (spec.md
	// §4.I step 5.f's check, evaluated here for k=0).
	if imax := blas.Iamax(o.n, w.g, 1); math.Abs(float64(w.g[imax])) < float64(o.tolerance) {
		d.printExit(ConvGradTolerance)
		return ConvGradTolerance
	}

	for w.iter = 0; w.iter < o.maxIter; w.iter++ {
		s := d.direction()

		alpha, task := d.lineSearch(s)
		if task != linesearch.Converged {
			d.printExit(ErrLineSearchFailed)
			return ErrLineSearchFailed
		}

		status := d.accept(s, alpha)
		if status != running {
			d.printExit(status)
			return status
		}
	}
	d.printExit(ConvMaxIter)
	return ConvMaxIter
}

// transformed returns the Expr-valued parameter slice residuals actually
// see, after applying the configured ParamTransform.
func (d *iterDriver[T]) transformed() []dual.Expr[T] {
	params := make([]dual.Expr[T], len(d.w.adParams))
	for i, p := range d.w.adParams {
		params[i] = p.Expr()
	}
	return d.o.transform.ApplyExpr(params)
}

// evaluateInitial implements spec.md §4.I step 1: the k=0-only initial
// evaluation that seeds normr2, g, B (with the diagonal A baked in), and
// the retained residual set r[i].
func (d *iterDriver[T]) evaluateInitial() {
	o, w := d.o, d.w
	n, dim := w.n, w.d

	simdpack.Fill(w.g, 0)
	simdpack.Fill(w.b, 0)

	params := d.transformed()
	var normr2 T
	for i, res := range o.residuals {
		m := dual.Eval(w.ctx, res.Expr(params))
		w.r[i] = m
		w.totalEval++

		normr2 += m.Val * m.Val
		blas.Axpy(dim, m.Val, m.Grad(), 1, w.g, 1)
		blas.Syr(n, 1, m.Grad(), 1, w.b, dim)
	}
	w.normr2 = normr2

	normr0 := T(math.Sqrt(float64(normr2)))
	diag := normr0 * 1e-4
	simdpack.Fill(w.a, 0)
	for i := 0; i < n; i++ {
		w.a[i*dim+i] = diag
	}
	blas.Axpy(n*dim, 1, w.a, 1, w.b, 1)
}

// direction implements spec.md §4.I step 2: s ← -g via the Cholesky-
// regularized Newton step, falling back to pure steepest descent if B is
// not (numerically) positive definite.
func (d *iterDriver[T]) direction() []T {
	w := d.w
	n, dim := w.n, w.d

	simdpack.Transform(w.s[:n], w.g[:n], func(p simdpack.Pack[T]) simdpack.Pack[T] { return p.Neg() })
	simdpack.Fill(w.s[n:dim], 0)

	info := cholesky.Factorize(w.b, dim, n)
	if info != 0 {
		return w.s
	}

	neg := append([]T(nil), w.s[:n]...)
	cholesky.Solve(w.b, dim, n, neg, w.s[:n])
	return w.s
}

// lineSearch implements spec.md §4.I step 3: ϕ(0) is seeded via the
// comma-form f0 = ½normr2, g·s, and ϕ(α) is evaluated through the SDiff
// instantiation of every residual along x + α·s.
func (d *iterDriver[T]) lineSearch(s []T) (alpha T, task linesearch.Task) {
	o, w := d.o, d.w
	gs := blas.Dot(w.d, w.g, 1, s, 1)
	phi0 := dual.NewSDiff(T(0.5)*w.normr2, gs)

	phi := func(a T) dual.SDiff[T] {
		params := make([]dual.SDiff[T], w.n)
		for i := 0; i < w.n; i++ {
			params[i] = dual.NewSDiff(w.params[i]+a*s[i], s[i])
		}
		params = o.transform.ApplyScalar(params)

		var acc dual.SDiff[T]
		for i, res := range o.residuals {
			r := res.Scalar(params)
			if i == 0 {
				acc = r.Mul(r)
			} else {
				acc = acc.Add(r.Mul(r))
			}
		}
		return dual.NewSDiff(T(0.5)*acc.Val, T(0.5)*acc.Dval)
	}

	return linesearch.Search(phi0, phi, 1)
}

// accept implements spec.md §4.I step 5: advance to the new iterate,
// re-evaluate residuals, check termination, and update the
// structured-BFGS correction (or fall back to Gauss–Newton
// regularization). Returns `running` to continue the loop, or the
// terminal Status otherwise.
func (d *iterDriver[T]) accept(s []T, alpha T) Status {
	o, w := d.o, d.w
	n, dim := w.n, w.d

	// 5.a: s <- alpha*s, params <- params + s, re-seed ad_params.
	blas.Scal(dim, alpha, s, 1)
	for i := 0; i < n; i++ {
		w.params[i] += s[i]
	}
	for i, p := range w.adParams {
		p.SetIndependent(w.params[i], i)
	}

	// 5.b: re-evaluate residuals at the new point.
	newG := make([]T, dim)
	newB := make([]T, n*dim)
	simdpack.Fill(w.z, 0)

	params := d.transformed()
	var newNormr2 T
	newR := make([]*dual.MDiff[T], len(o.residuals))
	for i, res := range o.residuals {
		m := dual.Eval(w.ctx, res.Expr(params))
		newR[i] = m
		w.totalEval++

		newNormr2 += m.Val * m.Val
		blas.Axpy(dim, m.Val, m.Grad(), 1, newG, 1)
		blas.Syr(n, 1, m.Grad(), 1, newB, dim)

		old := w.r[i]
		copy(w.tmp, m.Grad())
		blas.Axpy(dim, -1, old.Grad(), 1, w.tmp, 1) // tmp <- newGrad - oldGrad
		blas.Axpy(dim, m.Val, w.tmp, 1, w.z, 1)      // z += newVal * tmp

		old.Release()
	}
	w.r = newR

	// 5.c: rescale z.
	scale := T(math.Sqrt(float64(newNormr2 / w.normr2)))
	blas.Scal(dim, scale, w.z, 1)

	// 5.d: progress tracking.
	delta := T(0.5) * (w.normr2 - newNormr2)
	if delta < o.tolerance {
		w.smallProgress++
	} else {
		w.smallProgress = 0
	}

	// 5.e: argmax |g|.
	imax := blas.Iamax(n, newG, 1)
	gmax := newG[imax]
	if gmax < 0 {
		gmax = -gmax
	}

	// 5.f: termination checks, stagnation before gradient tolerance.
	var status Status
	if w.smallProgress == 15 {
		status = ConvStagnation
	} else if gmax < o.tolerance {
		status = ConvGradTolerance
	}

	// 5.g: commit normr2/g.
	w.normr2 = newNormr2
	copy(w.g, newG)

	// 5.h: structured-BFGS update, or Gauss-Newton regularization.
	zs := blas.Dot(dim, w.z, 1, s, 1)
	ss := blas.Dot(dim, s, 1, s, 1)
	hKind := "GN"
	if zs/ss >= 1e-6 {
		hKind = "SBFGS"
		blas.Symv(n, 1, w.a, dim, s, 1, 0, w.as, 1)
		sAs := blas.Dot(n, s, 1, w.as, 1)

		blas.Syr(n, -1/sAs, w.as, 1, w.a, dim)
		blas.Syr(n, 1/zs, w.z, 1, w.a, dim)

		copy(w.b, newB)
		blas.Axpy(n*dim, 1, w.a, 1, w.b, 1)
	} else {
		copy(w.b, newB)
		reg := T(math.Sqrt(float64(newNormr2)))
		for i := 0; i < n; i++ {
			w.b[i*dim+i] += reg
		}
	}

	d.printIter(delta, gmax, hKind)

	if status != 0 {
		return status
	}
	return running
}

func (d *iterDriver[T]) printIter(delta, gmax T, hKind string) {
	w := d.w
	if d.o.recordHistory {
		d.history = append(d.history, IterationRecord[T]{
			Iter:  w.iter,
			Normr: T(0.5) * w.normr2,
			Delta: delta,
			GMax:  gmax,
			HKind: hKind,
		})
	}
	if d.o.verbosity != Verbose {
		return
	}
	fmt.Fprintf(d.o.logger.Out, "itr: %d  r: %.6e  d: %.3e  g: %.3e  H: %s\n",
		w.iter, 0.5*float64(w.normr2), float64(delta), float64(gmax), hKind)
}

func (d *iterDriver[T]) printExit(status Status) {
	if d.o.verbosity != Verbose {
		return
	}
	fmt.Fprintf(d.o.logger.Out, "gnsbfgs: stopped after %d iterations: %s\n", d.w.iter, status)
}
