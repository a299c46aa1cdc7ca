// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gnsbfgs

// Status is a bitmask: the high bits classify the outcome, the low bits
// distinguish within a class, so callers test with status&Converged > 0
// rather than an exhaustive switch. Terminal conditions are reported this
// way rather than as a Go error because they are normal, expected
// outer-loop outcomes (spec.md §7).
type Status int

const (
	running   Status = 0
	Converged Status = 1 << 4
	Errored   Status = 1 << 5
)

const (
	// ConvGradTolerance: |g[imax]| < τ.
	ConvGradTolerance = Converged | 1
	// ConvStagnation: 15 consecutive iterations with δ < τ.
	ConvStagnation = Converged | 2
	// ConvMaxIter: the iteration budget was exhausted; spec.md §7 lists
	// this as a normal termination, not a failure.
	ConvMaxIter = Converged | 3
	// ErrLineSearchFailed: no step satisfying the weak Wolfe conditions
	// was found, either because the line search's iteration budget ran
	// out or because ϕ(0) was non-finite or not a descent direction.
	ErrLineSearchFailed = Errored | 1
)

func (s Status) String() string {
	switch s {
	case running:
		return "running"
	case ConvGradTolerance:
		return "gradient tolerance"
	case ConvStagnation:
		return "stagnation"
	case ConvMaxIter:
		return "max iterations"
	case ErrLineSearchFailed:
		return "line search failed"
	default:
		return "unknown"
	}
}
