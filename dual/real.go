// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dual implements the forward-mode dual-number algebra: the
// multi-directional MDiff (§3.3) with its lazy Expr graph (§3.4) and the
// single-directional SDiff (§3.5) used by the line search.
package dual

import (
	"math"

	"github.com/curioloop/gnsbfgs/internal/simdpack"
)

// Real is the scalar element type every AD/optimizer type is generic over.
type Real = simdpack.Real

// Elem is the algebra a residual is generic over. spec.md §6.3 requires the
// caller's residual functor to be "generic over these three input element
// types" (raw REAL, MDiff, SDiff); Go has no operator overloading, so that
// requirement is realized as F-bounded polymorphism: a residual is written
// once as a generic function
//
//	func rosenbrock[T dual.Real, E dual.Elem[T, E]](p []E) E { ... }
//
// and instantiated at E=Expr[T] for the gradient pass and E=SDiff[T] for
// the line search's ϕ(α) (RawElem[T] is available for plain evaluation,
// e.g. in tests).
type Elem[T Real, E any] interface {
	Add(E) E
	Sub(E) E
	Mul(E) E
	Div(E) E
	Neg() E
	Exp() E
}

func realExp[T Real](x T) T {
	return T(math.Exp(float64(x)))
}
