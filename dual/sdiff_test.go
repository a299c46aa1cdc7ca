// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dual

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestSDiffDirectionalDerivative checks spec.md §8.1's third bullet:
// SDiff(e(x + α·s)).dval == (∇e · s) at α = 0, for e(x) = x0*x1 + exp(x0).
func TestSDiffDirectionalDerivative(t *testing.T) {
	x := []float64{1.5, -0.4}
	s := []float64{0.3, 0.8}

	phi := func(alpha float64) SDiff[float64] {
		x0 := NewSDiff(x[0]+alpha*s[0], s[0])
		x1 := NewSDiff(x[1]+alpha*s[1], s[1])
		return x0.Mul(x1).Add(x0.Exp())
	}

	at0 := phi(0)
	require.InDelta(t, x[0]*x[1]+math.Exp(x[0]), at0.Val, 1e-12)

	gradDotS := x[1]*s[0] + x[0]*s[1] + math.Exp(x[0])*s[0]
	require.InDelta(t, gradDotS, at0.Dval, 1e-9)
}

func TestExprComparisonsIgnoreDerivative(t *testing.T) {
	a := Const[float64](1)
	b := Const[float64](2)
	require.True(t, Less(a, b))
	require.False(t, Equal(a, b))
	require.True(t, LessEq(a, a))
}
