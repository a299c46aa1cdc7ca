// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gnsbfgs

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestFitRosenbrock3D covers spec.md §8.7 S1: a single 3-parameter
// residual combining both Rosenbrock terms, started far from the
// minimum, converging to (1,1,1).
func TestFitRosenbrock3D(t *testing.T) {
	p := Problem[float64]{
		N:         3,
		Tolerance: 1e-9,
		MaxIter:   500,
		Residuals: []Residual[float64]{
			NewResidual(rosenbrock3[float64], rosenbrock3Scalar[float64]),
		},
	}
	opt, err := p.New()
	require.NoError(t, err)

	w := opt.Init()
	res := opt.Fit([]float64{-15.37, 7.82, -11.04}, w)

	require.True(t, res.OK, "status=%v", res.Status)
	for i, x := range res.X {
		require.InDeltaf(t, 1.0, x, 1e-3, "x[%d]", i)
	}
}

// TestFitExponentialDecay covers S2: a noisy exponential-decay fit over
// 10000 samples, recovering the true parameters to relative tolerance
// 0.1. The noise is deterministic (a fixed congruential sequence) rather
// than math/rand, since the optimizer's own behavior — not the sampling
// — is under test.
func TestFitExponentialDecay(t *testing.T) {
	const k = 10000
	truth := [3]float64{2.5, 0.3, 0.7}

	residuals := make([]Residual[float64], k)
	seed := uint64(12345)
	noise := func() float64 {
		seed = seed*6364136223846793005 + 1442695040888963407
		u := float64(seed>>11) / float64(1<<53)
		return (u*2 - 1) * 0.1
	}
	for i := 0; i < k; i++ {
		x := 0.1 + float64(i)*(20.0-0.1)/k
		y := truth[0]*math.Exp(-truth[1]*x) + truth[2] + noise()
		residuals[i] = NewResidual(expDecaySample[float64](x, y), expDecaySampleScalar[float64](x, y))
	}

	p := Problem[float64]{
		N:         3,
		Tolerance: 1e-6,
		MaxIter:   500,
		Residuals: residuals,
	}
	opt, err := p.New()
	require.NoError(t, err)

	w := opt.Init()
	res := opt.Fit([]float64{2.0, 0.2, 0.5}, w)

	require.True(t, res.OK, "status=%v", res.Status)
	for i, want := range truth {
		require.InEpsilon(t, want, res.X[i], 0.1, "q[%d]", i)
	}
}

// TestFitLinearLeastSquares covers S3: Gauss-Newton is exact for linear
// residuals, so the first accepted step already lands on the
// normal-equations solution and the loop terminates within a couple of
// iterations by gradient tolerance.
func TestFitLinearLeastSquares(t *testing.T) {
	rows := [][]float64{
		{1, 0, 0, 0, 0}, {0, 1, 0, 0, 0}, {0, 0, 1, 0, 0}, {0, 0, 0, 1, 0}, {0, 0, 0, 0, 1},
		{1, 1, 0, 0, 0}, {0, 1, 1, 0, 0}, {0, 0, 1, 1, 0}, {0, 0, 0, 1, 1}, {1, 0, 0, 0, 1},
	}
	truth := []float64{1, 2, 3, 4, 5}

	residuals := make([]Residual[float64], len(rows))
	for i, row := range rows {
		var y float64
		for j, a := range row {
			y += a * truth[j]
		}
		residuals[i] = NewResidual(linearSample[float64](row, y), linearSampleScalar[float64](row, y))
	}

	p := Problem[float64]{
		N:         5,
		Tolerance: 1e-8,
		MaxIter:   50,
		Residuals: residuals,
	}
	opt, err := p.New()
	require.NoError(t, err)

	w := opt.Init()
	res := opt.Fit([]float64{0, 0, 0, 0, 0}, w)

	require.True(t, res.OK, "status=%v", res.Status)
	require.LessOrEqual(t, res.NumIter, 5)
	for i, want := range truth {
		require.InDeltaf(t, want, res.X[i], 1e-6, "x[%d]", i)
	}
}

// TestFitDegenerateConstant covers S4: a residual independent of every
// parameter has an identically zero gradient everywhere, so the
// optimizer must terminate on the very first iteration by gradient
// tolerance, leaving the initial guess untouched.
func TestFitDegenerateConstant(t *testing.T) {
	p := Problem[float64]{
		N:         2,
		Tolerance: 1e-6,
		MaxIter:   100,
		Residuals: []Residual[float64]{
			NewResidual(constantResidual[float64](3.0), constantResidualScalar[float64](3.0)),
		},
	}
	opt, err := p.New()
	require.NoError(t, err)

	w := opt.Init()
	x0 := []float64{1.5, -2.5}
	res := opt.Fit(append([]float64(nil), x0...), w)

	require.Equal(t, ConvGradTolerance, res.Status)
	require.Equal(t, 0, res.NumIter)
	require.Equal(t, x0, res.X)
}

// TestFitLineSearchFailure covers S5: a residual whose value diverges to
// infinity at the starting point (1/x at x=0) leaves phi(0) itself
// non-finite, so no step can satisfy the weak Wolfe conditions.
func TestFitLineSearchFailure(t *testing.T) {
	p := Problem[float64]{
		N:         1,
		Tolerance: 1e-9,
		MaxIter:   100,
		Residuals: []Residual[float64]{
			NewResidual(reciprocalResidual[float64], reciprocalResidualScalar[float64]),
		},
	}
	opt, err := p.New()
	require.NoError(t, err)

	w := opt.Init()
	res := opt.Fit([]float64{0}, w)

	require.False(t, res.OK)
	require.Equal(t, ErrLineSearchFailed, res.Status)
}

// TestFitWorkspaceIsSingleUse covers S6 at the optimizer level: once Fit
// returns, the workspace's arena Context has been closed, and Init must
// be called again to run another fit — the
// underlying arena reuse/reallocate behavior itself is covered by
// arena.TestContextReopenDifferentSize.
func TestFitWorkspaceIsSingleUse(t *testing.T) {
	p := Problem[float64]{
		N:         2,
		Tolerance: 1e-9,
		MaxIter:   10,
		Residuals: []Residual[float64]{
			NewResidual(constantResidual[float64](1.0), constantResidualScalar[float64](1.0)),
		},
	}
	opt, err := p.New()
	require.NoError(t, err)

	w1 := opt.Init()
	res1 := opt.Fit([]float64{0, 0}, w1)
	require.Equal(t, ConvGradTolerance, res1.Status)

	w2 := opt.Init()
	res2 := opt.Fit([]float64{1, 1}, w2)
	require.Equal(t, ConvGradTolerance, res2.Status)
}
