// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package linesearch finds a step length α along a descent direction
// satisfying the weak Wolfe conditions:
//
//	sufficient decrease: ϕ(α) ≤ ϕ(0) + c1·α·ϕ′(0)          (c1 = 1e-4)
//	curvature:           ϕ′(α) ≥ c2·ϕ′(0)                  (c2 = 0.9)
//
// where ϕ(α) = ½Σrᵢ(x + α·s)² and ϕ′ its directional derivative, both
// supplied in one call via a dual.SDiff-valued closure.
//
// The Task-as-bitmask idiom and the "done when task&(Conv|Warn|Error) > 0"
// convergence check follow the same style as this repository's other
// status types (gnsbfgs.Status). The search itself is the plainer lo/up
// bracket bisection-expansion scheme for weak Wolfe (rather than a
// cubic-interpolated, safeguarded More–Thuente search for strong Wolfe),
// since weak Wolfe is all a Gauss-Newton direction needs here.
package linesearch

import (
	"math"

	"github.com/curioloop/gnsbfgs/dual"
)

// Task is a bitmask: low bits distinguish outcomes within a class, the
// class itself is the high bits so a caller tests with
// task&(Converged|Warn|Error) rather than a switch.
type Task int

const (
	running  Task = 0
	Converged Task = 1 << 4
	Warn      Task = 1 << 5
	Error     Task = 1 << 6
)

const (
	// ErrNoDescent reports a non-descent direction (ϕ′(0) ≥ 0): the
	// search direction computed upstream is unusable as-is.
	ErrNoDescent = Error | 1
	// ErrMaxIter reports the bracket search exhausting its iteration
	// budget without finding a step satisfying both Wolfe conditions.
	ErrMaxIter = Warn | 1
)

const (
	c1 = 1.0e-4 // sufficient-decrease constant
	c2 = 0.9    // curvature constant
)

// Real is the element type the search runs over.
type Real = dual.Real

// MaxIterations returns spec.md's K = ⌈-log2(eps^(2/3))⌉, the bracket
// iteration cap derived from the element type's machine epsilon — tight
// enough that the bisection phase cannot loop forever chasing precision
// finer than the type can represent.
func MaxIterations[T Real]() int {
	eps := epsilon[T]()
	return int(math.Ceil(-math.Log2(math.Pow(eps, 2.0/3.0))))
}

func epsilon[T Real]() float64 {
	switch any(*new(T)).(type) {
	case float32:
		return float64(1.1920929e-07)
	default:
		return 2.220446049250313e-16
	}
}

// Search drives α from alpha0 toward a step satisfying the weak Wolfe
// conditions, evaluating ϕ and ϕ′ together via phi at each trial step.
// phi0 is ϕ(0), already evaluated by the caller (it is also the
// undirected residual sum the optimizer needs regardless of the search).
//
// It returns the accepted step and Converged on success. It returns 0 and
// ErrNoDescent without trying any step when phi0 is non-finite or
// ϕ′(0) ≥ 0, and the last trial step and ErrMaxIter when the iteration
// cap runs out. The caller (package gnsbfgs) ends the run with
// ErrLineSearchFailed on either failure, never a panic.
func Search[T Real](phi0 dual.SDiff[T], phi func(alpha T) dual.SDiff[T], alpha0 T) (T, Task) {
	if !finite(phi0.Val) || !finite(phi0.Dval) || phi0.Dval >= 0 {
		return 0, ErrNoDescent
	}

	var lo, hi T
	haveHi := false
	a := alpha0
	maxIter := MaxIterations[T]()

	for iter := 0; iter < maxIter; iter++ {
		p := phi(a)

		// A residual diverging somewhere along the ray (spec.md §8.7 S5's
		// 1/x-at-the-singularity case) can hand back a non-finite trial;
		// treat it like "too far", not a crash: shrink toward lo.
		if !finite(p.Val) || !finite(p.Dval) || p.Val > phi0.Val+T(c1)*a*phi0.Dval {
			hi, haveHi = a, true
			a = (lo + hi) / 2
			continue
		}
		if p.Dval < T(c2)*phi0.Dval {
			lo = a
			if !haveHi {
				a = 2 * a
			} else {
				a = (lo + hi) / 2
			}
			continue
		}
		return a, Converged
	}
	return a, ErrMaxIter
}

func finite[T Real](v T) bool {
	f := float64(v)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
