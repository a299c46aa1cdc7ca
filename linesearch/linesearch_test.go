// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package linesearch

import (
	"math"
	"testing"

	"github.com/curioloop/gnsbfgs/dual"
	"github.com/stretchr/testify/require"
)

// checkWeakWolfe verifies spec.md §8.6: the accepted step satisfies both
// the sufficient-decrease and curvature conditions against phi0.
func checkWeakWolfe(t *testing.T, phi0 dual.SDiff[float64], p dual.SDiff[float64], alpha float64) {
	require.LessOrEqual(t, p.Val, phi0.Val+c1*alpha*phi0.Dval+1e-9)
	require.GreaterOrEqual(t, p.Dval, c2*phi0.Dval-1e-9)
}

func TestSearchQuadraticConvergesImmediately(t *testing.T) {
	// phi(alpha) = (x - alpha)^2 / 2 starting at x=3, direction -x (s=-3):
	// minimized exactly at alpha=1.
	x0 := 3.0
	s := -x0
	phiFn := func(alpha float64) dual.SDiff[float64] {
		xv := x0 + alpha*s
		return dual.NewSDiff(0.5*xv*xv, xv*s)
	}
	phi0 := phiFn(0)
	alpha, task := Search(phi0, phiFn, 1.0)
	require.Equal(t, Converged, task)
	checkWeakWolfe(t, phi0, phiFn(alpha), alpha)
}

func TestSearchRejectsNonDescentDirection(t *testing.T) {
	phiFn := func(alpha float64) dual.SDiff[float64] {
		return dual.NewSDiff(alpha*alpha, 2*alpha)
	}
	phi0 := phiFn(0) // dval = 0, not a descent direction
	_, task := Search(phi0, phiFn, 1.0)
	require.Equal(t, ErrNoDescent, task)
}

func TestSearchOnRosenbrockSlice(t *testing.T) {
	// phi(alpha) along direction s=(1,0) from x=(0,0) for
	// f(x) = 100(x1-x0^2)^2 + (1-x0)^2, evaluated with hand derivatives.
	f := func(x0, x1 float64) (float64, float64, float64) {
		v := 100*math.Pow(x1-x0*x0, 2) + math.Pow(1-x0, 2)
		g0 := -400*x0*(x1-x0*x0) - 2*(1-x0)
		g1 := 200 * (x1 - x0*x0)
		return v, g0, g1
	}
	x0, x1 := 0.0, 0.0
	s0, s1 := 1.0, 0.0
	phiFn := func(alpha float64) dual.SDiff[float64] {
		v, g0, g1 := f(x0+alpha*s0, x1+alpha*s1)
		return dual.NewSDiff(v, g0*s0+g1*s1)
	}
	phi0 := phiFn(0)
	alpha, task := Search(phi0, phiFn, 1.0)
	require.Contains(t, []Task{Converged, ErrMaxIter}, task)
	if task == Converged {
		checkWeakWolfe(t, phi0, phiFn(alpha), alpha)
	}
}

func TestMaxIterationsPositive(t *testing.T) {
	require.Greater(t, MaxIterations[float64](), 0)
	require.Greater(t, MaxIterations[float32](), 0)
}
