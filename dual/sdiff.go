// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dual

// SDiff is the single-directional dual number of spec.md §3.5: a
// (value, directional-derivative) pair used to evaluate
// ϕ(α) = ½Σrᵢ(x + α·s)² and ϕ′(α) during the line search. It is a plain
// value type — no arena buffer, since a single derivative needs no
// gradient-lane storage.
type SDiff[T Real] struct {
	Val, Dval T
}

// NewSDiff is the comma-form convenience of spec.md §4.F ("x = v, d"),
// spelled as an ordinary constructor since Go has no comma operator.
func NewSDiff[T Real](v, d T) SDiff[T] { return SDiff[T]{Val: v, Dval: d} }

func (s SDiff[T]) Add(o SDiff[T]) SDiff[T] {
	return SDiff[T]{s.Val + o.Val, s.Dval + o.Dval}
}

func (s SDiff[T]) Sub(o SDiff[T]) SDiff[T] {
	return SDiff[T]{s.Val - o.Val, s.Dval - o.Dval}
}

func (s SDiff[T]) Mul(o SDiff[T]) SDiff[T] {
	return SDiff[T]{s.Val * o.Val, o.Val*s.Dval + s.Val*o.Dval}
}

func (s SDiff[T]) Div(o SDiff[T]) SDiff[T] {
	return SDiff[T]{s.Val / o.Val, (o.Val*s.Dval - s.Val*o.Dval) / (o.Val * o.Val)}
}

func (s SDiff[T]) Neg() SDiff[T] {
	return SDiff[T]{-s.Val, -s.Dval}
}

func (s SDiff[T]) Exp() SDiff[T] {
	e := realExp(s.Val)
	return SDiff[T]{e, e * s.Dval}
}

// AddScalar, SubScalar and friends give SDiff the same "op scalar, scalar
// op" affordance the MDiff/Expr side gets from a zero-derivative Const
// leaf — here there is no graph to build a leaf into, so the constant is
// folded directly.
func (s SDiff[T]) AddScalar(c T) SDiff[T] { return SDiff[T]{s.Val + c, s.Dval} }
func (s SDiff[T]) SubScalar(c T) SDiff[T] { return SDiff[T]{s.Val - c, s.Dval} }
func (s SDiff[T]) MulScalar(c T) SDiff[T] { return SDiff[T]{s.Val * c, s.Dval * c} }
