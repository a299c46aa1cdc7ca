// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cholesky

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestFactorizeSolveRoundTrip covers spec.md §8.4: factorize a known SPD
// matrix, solve against a known right-hand side, and check the solution
// against the value that produced it.
func TestFactorizeSolveRoundTrip(t *testing.T) {
	n := 3
	// A = [[4,2,-2],[2,5,1],[-2,1,6]] is SPD.
	a := []float64{
		4, 0, 0,
		2, 5, 0,
		-2, 1, 6,
	}
	want := []float64{1, -2, 0.5}
	b := make([]float64, n)
	full := [][]float64{{4, 2, -2}, {2, 5, 1}, {-2, 1, 6}}
	for i := 0; i < n; i++ {
		var s float64
		for j := 0; j < n; j++ {
			s += full[i][j] * want[j]
		}
		b[i] = s
	}

	info := Factorize(a, n, n)
	require.Equal(t, 0, info)

	x := make([]float64, n)
	Solve(a, n, n, b, x)
	require.InDeltaSlice(t, want, x, 1e-9)
}

// TestFactorizeSignalsNonSPD covers spec.md §8.5: a matrix with a
// negative leading pivot is reported via the return code, not a
// panic or NaN propagation.
func TestFactorizeSignalsNonSPD(t *testing.T) {
	n := 2
	a := []float64{
		-1, 0,
		2, 3,
	}
	info := Factorize(a, n, n)
	require.Equal(t, 1, info)
}

func TestFactorizeSignalsNonSPDAtSecondMinor(t *testing.T) {
	n := 2
	a := []float64{
		1, 0,
		2, -1,
	}
	info := Factorize(a, n, n)
	require.Equal(t, 2, info)
}

// TestFactorizeZeroPivotProceeds covers spec.md §4.G step 1.b's exact
// boundary: a zero (not negative) pivot is not itself a non-SPD signal —
// the factorization proceeds with ljj = 0, per the documented "v < 0"
// test, rather than treating v == 0 as a stronger failure condition.
func TestFactorizeZeroPivotProceeds(t *testing.T) {
	n := 1
	a := []float64{0}
	info := Factorize(a, n, n)
	require.Equal(t, 0, info)
	require.Equal(t, 0.0, a[0])
}
