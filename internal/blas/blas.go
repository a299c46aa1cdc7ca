// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package blas is the facade over BLAS Level 1-3 spec.md §6.1 treats as an
// external collaborator: typed overloads for axpy, dot, nrm2, iamax, asum,
// scal, syr, symv, gemv, syrk, symm, trsv, trmm, row-major and
// lower-triangle-stored throughout, with explicit leading dimensions.
//
// Routes through gonum's pure-Go reference BLAS implementation
// (gonum.org/v1/gonum/blas/gonum), which is row-major natively and
// exposes exactly this Level 1-3 surface with explicit lda, rather than
// hand-translating LINPACK/BLAS kernels the way a dependency-free port
// would.
package blas

import (
	"unsafe"

	"github.com/curioloop/gnsbfgs/internal/simdpack"
	gblas "gonum.org/v1/gonum/blas"
	gonumimpl "gonum.org/v1/gonum/blas/gonum"
)

// Real mirrors dual.Real without importing the dual package (which itself
// sits above arena, which sits above this facade).
type Real = simdpack.Real

var impl = gonumimpl.Implementation{}

// asF64/asF32 reinterpret a []T slice as a []float64/[]float32 without
// copying. Safe whenever T's underlying type is exactly float64/float32
// (the only instantiations this module uses), since the bit layout is
// identical; this is the zero-copy bridge that lets the generic facade
// call straight into gonum's float64/float32 BLAS kernels.
func asF64[T Real](s []T) []float64 {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Slice((*float64)(unsafe.Pointer(&s[0])), len(s))
}

func asF32[T Real](s []T) []float32 {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(&s[0])), len(s))
}

// Axpy computes y ← alpha·x + y.
func Axpy[T Real](n int, alpha T, x []T, incX int, y []T, incY int) {
	switch a := any(alpha).(type) {
	case float64:
		impl.Daxpy(n, a, asF64(x), incX, asF64(y), incY)
	case float32:
		impl.Saxpy(n, a, asF32(x), incX, asF32(y), incY)
	}
}

// Dot computes x·y.
func Dot[T Real](n int, x []T, incX int, y []T, incY int) T {
	switch any(*new(T)).(type) {
	case float64:
		return T(impl.Ddot(n, asF64(x), incX, asF64(y), incY))
	case float32:
		return T(impl.Sdot(n, asF32(x), incX, asF32(y), incY))
	}
	panic("blas: unsupported element type")
}

// Nrm2 computes ‖x‖₂.
func Nrm2[T Real](n int, x []T, incX int) T {
	switch any(*new(T)).(type) {
	case float64:
		return T(impl.Dnrm2(n, asF64(x), incX))
	case float32:
		return T(impl.Snrm2(n, asF32(x), incX))
	}
	panic("blas: unsupported element type")
}

// Iamax returns the (0-based) index of the largest-magnitude element.
func Iamax[T Real](n int, x []T, incX int) int {
	switch any(*new(T)).(type) {
	case float64:
		return impl.Idamax(n, asF64(x), incX)
	case float32:
		return impl.Isamax(n, asF32(x), incX)
	}
	panic("blas: unsupported element type")
}

// Asum computes Σ|xᵢ|.
func Asum[T Real](n int, x []T, incX int) T {
	switch any(*new(T)).(type) {
	case float64:
		return T(impl.Dasum(n, asF64(x), incX))
	case float32:
		return T(impl.Sasum(n, asF32(x), incX))
	}
	panic("blas: unsupported element type")
}

// Scal computes x ← alpha·x.
func Scal[T Real](n int, alpha T, x []T, incX int) {
	switch a := any(alpha).(type) {
	case float64:
		impl.Dscal(n, a, asF64(x), incX)
	case float32:
		impl.Sscal(n, a, asF32(x), incX)
	}
}

// Syr performs the symmetric rank-1 update A ← alpha·x·xᵀ + A, writing
// only the lower triangle of A (row-major, leading dimension lda).
func Syr[T Real](n int, alpha T, x []T, incX int, a []T, lda int) {
	switch al := any(alpha).(type) {
	case float64:
		impl.Dsyr(gblas.Lower, n, al, asF64(x), incX, asF64(a), lda)
	case float32:
		impl.Ssyr(gblas.Lower, n, al, asF32(x), incX, asF32(a), lda)
	}
}

// Symv computes y ← alpha·A·x + beta·y for symmetric A (lower stored).
func Symv[T Real](n int, alpha T, a []T, lda int, x []T, incX int, beta T, y []T, incY int) {
	switch al := any(alpha).(type) {
	case float64:
		impl.Dsymv(gblas.Lower, n, al, asF64(a), lda, asF64(x), incX, float64(beta), asF64(y), incY)
	case float32:
		impl.Ssymv(gblas.Lower, n, al, asF32(a), lda, asF32(x), incX, float32(beta), asF32(y), incY)
	}
}

// Gemv computes y ← alpha·op(A)·x + beta·y, op(A) = A if trans is false,
// Aᵀ otherwise.
func Gemv[T Real](trans bool, m, n int, alpha T, a []T, lda int, x []T, incX int, beta T, y []T, incY int) {
	tA := gblas.NoTrans
	if trans {
		tA = gblas.Trans
	}
	switch al := any(alpha).(type) {
	case float64:
		impl.Dgemv(tA, m, n, al, asF64(a), lda, asF64(x), incX, float64(beta), asF64(y), incY)
	case float32:
		impl.Sgemv(tA, m, n, al, asF32(a), lda, asF32(x), incX, float32(beta), asF32(y), incY)
	}
}

// Syrk computes C ← alpha·A·Aᵀ + beta·C on the lower triangle of C. The
// optimizer does not call it; it accumulates the Gauss–Newton normal
// matrix with one Syr per residual.
func Syrk[T Real](n, k int, alpha T, a []T, lda int, beta T, c []T, ldc int) {
	switch al := any(alpha).(type) {
	case float64:
		impl.Dsyrk(gblas.Lower, gblas.NoTrans, n, k, al, asF64(a), lda, float64(beta), asF64(c), ldc)
	case float32:
		impl.Ssyrk(gblas.Lower, gblas.NoTrans, n, k, al, asF32(a), lda, float32(beta), asF32(c), ldc)
	}
}

// Symm computes C ← alpha·A·B + beta·C (side=left) or alpha·B·A + beta·C
// (side=right), A symmetric and lower-stored.
func Symm[T Real](left bool, m, n int, alpha T, a []T, lda int, b []T, ldb int, beta T, c []T, ldc int) {
	side := gblas.Left
	if !left {
		side = gblas.Right
	}
	switch al := any(alpha).(type) {
	case float64:
		impl.Dsymm(side, gblas.Lower, m, n, al, asF64(a), lda, asF64(b), ldb, float64(beta), asF64(c), ldc)
	case float32:
		impl.Ssymm(side, gblas.Lower, m, n, al, asF32(a), lda, asF32(b), ldb, float32(beta), asF32(c), ldc)
	}
}

// Trsv solves op(A)·x = b in place for triangular A (lower stored,
// non-unit diagonal), overwriting x with the solution.
func Trsv[T Real](trans bool, n int, a []T, lda int, x []T, incX int) {
	tA := gblas.NoTrans
	if trans {
		tA = gblas.Trans
	}
	switch any(*new(T)).(type) {
	case float64:
		impl.Dtrsv(gblas.Lower, tA, gblas.NonUnit, n, asF64(a), lda, asF64(x), incX)
	case float32:
		impl.Strsv(gblas.Lower, tA, gblas.NonUnit, n, asF32(a), lda, asF32(x), incX)
	}
}

// Trmm computes B ← alpha·op(A)·B (side=left) or alpha·B·op(A) (side=right)
// for triangular A (lower stored, non-unit diagonal).
func Trmm[T Real](left, trans bool, m, n int, alpha T, a []T, lda int, b []T, ldb int) {
	side := gblas.Left
	if !left {
		side = gblas.Right
	}
	tA := gblas.NoTrans
	if trans {
		tA = gblas.Trans
	}
	switch al := any(alpha).(type) {
	case float64:
		impl.Dtrmm(side, gblas.Lower, tA, gblas.NonUnit, m, n, al, asF64(a), lda, asF64(b), ldb)
	case float32:
		impl.Strmm(side, gblas.Lower, tA, gblas.NonUnit, m, n, al, asF32(a), lda, asF32(b), ldb)
	}
}
