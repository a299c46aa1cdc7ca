// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package gnsbfgs implements the Gauss–Newton / structured-BFGS hybrid
// least-squares optimizer: a Cholesky-regularized Newton step globalized
// by a weak-Wolfe line search, with a secant-updated correction matrix
// standing in for the part of the true Hessian the Gauss–Newton term
// omits.
//
// The Problem/Optimizer/Workspace/Result/Summary split, the
// "New() (*Optimizer, error)" validation pattern, and the
// "separate workspaces per goroutine, shared optimizer" contract follow
// the same shape across every concrete algorithm instance in this
// repository's lineage: one validated, immutable Problem; one
// goroutine-confined Workspace per concurrent Fit call.
package gnsbfgs

import (
	"io"
	"os"

	"github.com/curioloop/gnsbfgs/dual"
	"github.com/pkg/errors"
)

// Real is the element type the optimizer runs over.
type Real = dual.Real

// Residual pairs the two instantiations of one generic residual function
// written over dual.Elem[T, E]: Expr drives the AD forward pass (gradient
// accumulation), Scalar drives the line search's ϕ(α)/ϕ′(α) evaluation.
// Go has no operator overloading, so a residual author writes a single
// generic function
//
//	func model[T dual.Real, E dual.Elem[T, E]](p []E) E { ... }
//
// and binds both instantiations once via NewResidual(model[T, dual.Expr[T]],
// model[T, dual.SDiff[T]]) — see spec §6.3's "functor generic over REAL*,
// MDiff*, SDiff*" requirement.
type Residual[T Real] struct {
	Expr   func(params []dual.Expr[T]) dual.Expr[T]
	Scalar func(params []dual.SDiff[T]) dual.SDiff[T]
}

// NewResidual binds the Expr and Scalar instantiations of one generic
// residual function into a single Residual value.
func NewResidual[T Real](
	expr func(params []dual.Expr[T]) dual.Expr[T],
	scalar func(params []dual.SDiff[T]) dual.SDiff[T],
) Residual[T] {
	return Residual[T]{Expr: expr, Scalar: scalar}
}

// ParamTransform is the optional parameter-transform functor of spec.md
// §6.4: NumParameters maps the caller's parameter count to the number of
// AD independents the transform itself needs (called once, after the AD
// Context exists, so it may allocate), and the Apply* hooks produce the
// transformed parameter slice a residual actually sees, once per
// element-type instantiation.
type ParamTransform[T Real] struct {
	NumParameters func(n int) int
	ApplyExpr     func(params []dual.Expr[T]) []dual.Expr[T]
	ApplyScalar   func(params []dual.SDiff[T]) []dual.SDiff[T]
}

// Identity is the default parameter transform: the residuals see exactly
// the optimizer's own parameters, unchanged.
func Identity[T Real]() ParamTransform[T] {
	return ParamTransform[T]{
		NumParameters: func(n int) int { return n },
		ApplyExpr:     func(p []dual.Expr[T]) []dual.Expr[T] { return p },
		ApplyScalar:   func(p []dual.SDiff[T]) []dual.SDiff[T] { return p },
	}
}

// Verbosity controls whether the optimizer emits the per-iteration and
// terminal log lines of spec.md §6.6.
type Verbosity int

const (
	Silent Verbosity = iota
	Verbose
)

// Logger is the optimizer's sink for the per-iteration and terminal log
// lines of spec.md §6.6. It need only be safe for sequential-within-a-call
// usage, since one Fit call never writes to it concurrently.
type Logger struct {
	Out io.Writer
}

// Problem specifies one Gauss–Newton/structured-BFGS fitting problem.
type Problem[T Real] struct {
	// N is the number of parameters the caller's residuals are written
	// against, before any ParamTransform is applied.
	N int
	// Tolerance is τ in spec.md §4.I: both the stagnation-decrease and
	// the gradient-infinity-norm termination thresholds.
	Tolerance T
	// MaxIter bounds the outer loop; defaults to 1000.
	MaxIter int
	// Residuals is the residual sequence r[1..m].
	Residuals []Residual[T]
	// ParamTransform defaults to Identity[T]() when nil.
	ParamTransform *ParamTransform[T]
	Verbosity      Verbosity
	Logger         *Logger
	// RecordHistory, when set, makes Fit populate Result.History with one
	// IterationRecord per accepted step. Disabled by default: the trace
	// is a small but non-zero allocation per iteration that most callers
	// (and the log-line path, which computes the same numbers without
	// retaining them) never need.
	RecordHistory bool
}

// New validates the problem and returns an Optimizer ready to Init
// workspaces from. Validation errors are reported via github.com/pkg/errors,
// matching the construction-time error-wrapping convention used elsewhere
// in this module (cmd/gnsbfgs-fit, internal/config) — terminal optimizer
// outcomes, by contrast, are reported as a Status, not an error (§7).
func (p *Problem[T]) New() (*Optimizer[T], error) {
	switch {
	case p.N <= 0:
		return nil, errors.Errorf("gnsbfgs: parameter count must be greater than 0, got %d", p.N)
	case len(p.Residuals) == 0:
		return nil, errors.New("gnsbfgs: at least one residual is required")
	case p.Tolerance <= 0:
		return nil, errors.Errorf("gnsbfgs: tolerance must be greater than 0, got %v", p.Tolerance)
	}

	maxIter := p.MaxIter
	if maxIter <= 0 {
		maxIter = 1000
	}

	pt := p.ParamTransform
	if pt == nil {
		identity := Identity[T]()
		pt = &identity
	}

	logger := p.Logger
	if logger == nil {
		logger = &Logger{Out: os.Stdout}
	} else if logger.Out == nil {
		logger.Out = os.Stdout
	}

	return &Optimizer[T]{
		n:             p.N,
		tolerance:     p.Tolerance,
		maxIter:       maxIter,
		residuals:     p.Residuals,
		transform:     *pt,
		verbosity:     p.Verbosity,
		logger:        *logger,
		recordHistory: p.RecordHistory,
	}, nil
}
