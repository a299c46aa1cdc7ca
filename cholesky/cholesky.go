// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cholesky factors the (possibly Levenberg-regularized) normal
// matrix B + λI into L·Lᵀ and solves L·Lᵀ·s = -g for the search
// direction, signalling loss of positive-definiteness instead of
// panicking so the optimizer can fall back to steepest descent.
//
// Follows the classic dpofa/dtrsl column-by-column factorization shape,
// adapted to store the lower triangle (spec.md §3.6's convention) and to
// drive the off-diagonal update of each column through a single
// internal/blas.Gemv call rather than a daxpy-per-row loop, so the rank-k
// trailing update is one BLAS Level-2 call instead of n individual
// Level-1 ones.
package cholesky

import (
	"math"

	"github.com/curioloop/gnsbfgs/internal/blas"
)

// Real is the element type the factorization is generic over.
type Real = blas.Real

// Factorize computes the lower-triangular Cholesky factor L of the n×n
// symmetric matrix stored in the lower triangle of a (row-major, leading
// dimension lda), overwriting that triangle with L so that A = L·Lᵀ.
//
// It returns 0 on success. If the pivot of column k (1-indexed, the classic
// dpofa convention) is negative, it returns k and leaves a in a
// partially-factored, unusable state; a zero pivot is not signalled. The
// caller (package gnsbfgs) uses this as the signal to fall back to
// steepest descent, rather than treating it as a Go error.
func Factorize[T Real](a []T, lda, n int) (info int) {
	for j := 0; j < n; j++ {
		diag := a[j*lda+j] - blas.Dot(j, a[j*lda:j*lda+j], 1, a[j*lda:j*lda+j], 1)
		if diag < 0 {
			return j + 1
		}
		ljj := T(math.Sqrt(float64(diag)))
		a[j*lda+j] = ljj

		if rest := n - j - 1; rest > 0 {
			col := a[(j+1)*lda+j:]
			blas.Gemv(false, rest, j, -1, a[(j+1)*lda:], lda, a[j*lda:j*lda+j], 1, 1, col, lda)
			blas.Scal(rest, 1/ljj, col, lda)
		}
	}
	return 0
}

// Solve solves L·Lᵀ·x = b given the lower-triangular factor L produced by
// Factorize, via forward then backward triangular substitution
// (internal/blas.Trsv twice). x may alias b; b is left unmodified only
// when x != &b[0].
func Solve[T Real](l []T, lda, n int, b []T, x []T) {
	copy(x, b[:n])
	blas.Trsv(false, n, l, lda, x, 1)
	blas.Trsv(true, n, l, lda, x, 1)
}
