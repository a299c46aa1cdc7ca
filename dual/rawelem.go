// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dual

// RawElem is the third instantiation of the Elem algebra: a plain REAL
// with no derivative tracking, so a residual written generically over
// dual.Elem can also be called directly on raw values (spec.md §6.3's
// "params is either a raw REAL*, an MDiff*, or an SDiff*"), e.g. from a
// test that only wants the function value.
type RawElem[T Real] struct{ V T }

func Raw[T Real](v T) RawElem[T] { return RawElem[T]{v} }

func (r RawElem[T]) Add(o RawElem[T]) RawElem[T] { return RawElem[T]{r.V + o.V} }
func (r RawElem[T]) Sub(o RawElem[T]) RawElem[T] { return RawElem[T]{r.V - o.V} }
func (r RawElem[T]) Mul(o RawElem[T]) RawElem[T] { return RawElem[T]{r.V * o.V} }
func (r RawElem[T]) Div(o RawElem[T]) RawElem[T] { return RawElem[T]{r.V / o.V} }
func (r RawElem[T]) Neg() RawElem[T]             { return RawElem[T]{-r.V} }
func (r RawElem[T]) Exp() RawElem[T]             { return RawElem[T]{realExp(r.V)} }
