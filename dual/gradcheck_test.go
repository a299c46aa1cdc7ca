// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dual

import (
	"testing"

	"github.com/curioloop/gnsbfgs/arena"
	"github.com/stretchr/testify/require"
)

// buildModel evaluates a 4-term rational/exponential expression exercising
// Add, Sub, Mul, Div, Neg and Exp together.
func buildModel(ctx *arena.Context[float64], x []float64) *MDiff[float64] {
	p := Independent(ctx, x)
	e := p[0].Expr().Mul(p[1].Expr()).
		Sub(p[2].Expr().Div(p[0].Expr().Add(Const(2.0)))).
		Add(p[3].Expr().Neg().Exp())
	return Eval(ctx, e)
}

// centralDiff estimates the gradient of f at x0 by second-order-accurate
// central differences, one coordinate at a time — the textbook check an
// AD engine's analytic gradient is conventionally validated against.
func centralDiff(f func(x []float64) float64, x0 []float64) []float64 {
	const h = 1e-6
	g := make([]float64, len(x0))
	x := append([]float64(nil), x0...)
	for i := range x0 {
		orig := x[i]
		x[i] = orig + h
		fp := f(x)
		x[i] = orig - h
		fm := f(x)
		x[i] = orig
		g[i] = (fp - fm) / (2 * h)
	}
	return g
}

// TestGradientMatchesFiniteDifference cross-checks Eval's forward-mode
// gradient against a central finite difference at several points, the way
// a forward-mode AD engine is conventionally validated against a numerical
// Jacobian.
func TestGradientMatchesFiniteDifference(t *testing.T) {
	points := [][]float64{
		{1.3, -0.6, 2.1, 0.4},
		{0.2, 0.2, -1.5, -3.0},
		{5.0, 1.0, 0.01, 2.5},
	}

	eval := func(x []float64) float64 {
		c := arena.NewContext[float64](len(x))
		m := buildModel(c, x)
		v := m.Val
		m.Release()
		return v
	}

	for _, x0 := range points {
		ctx := arena.NewContext[float64](len(x0))
		got := buildModel(ctx, x0)
		analytic := append([]float64(nil), got.Grad()[:len(x0)]...)
		got.Release()

		numeric := centralDiff(eval, x0)

		for i := range x0 {
			require.InDeltaf(t, numeric[i], analytic[i], 1e-5,
				"gradient mismatch at lane %d for x0=%v", i, x0)
		}
	}
}
