// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gnsbfgs

import "github.com/curioloop/gnsbfgs/dual"

// rosenbrock3 is the S1 single residual over 3 parameters:
// r(x) = Sum_{i=0,1} (1-x_i)^2 + 100(x_{i+1}-x_i^2)^2.
func rosenbrock3[T dual.Real](p []dual.Expr[T]) dual.Expr[T] {
	var acc dual.Expr[T]
	for i := 0; i < 2; i++ {
		one := dual.Const[T](1).Sub(p[i])
		term1 := one.Mul(one)
		diff := p[i+1].Sub(p[i].Mul(p[i]))
		term2 := diff.Mul(diff).Mul(dual.Const[T](100))
		sum := term1.Add(term2)
		if i == 0 {
			acc = sum
		} else {
			acc = acc.Add(sum)
		}
	}
	return acc
}

func rosenbrock3Scalar[T dual.Real](p []dual.SDiff[T]) dual.SDiff[T] {
	var acc dual.SDiff[T]
	for i := 0; i < 2; i++ {
		one := dual.NewSDiff[T](1, 0).Sub(p[i])
		term1 := one.Mul(one)
		diff := p[i+1].Sub(p[i].Mul(p[i]))
		term2 := diff.Mul(diff).MulScalar(100)
		sum := term1.Add(term2)
		if i == 0 {
			acc = sum
		} else {
			acc = acc.Add(sum)
		}
	}
	return acc
}

// expDecaySample models y - (a*exp(-b*x) + c) for one sample (x, y), the
// S2 exponential-decay fit.
func expDecaySample[T dual.Real](x, y T) func(p []dual.Expr[T]) dual.Expr[T] {
	return func(p []dual.Expr[T]) dual.Expr[T] {
		pred := p[0].Mul(dual.Const(x).Neg().Mul(p[1]).Exp()).Add(p[2])
		return dual.Const(y).Sub(pred)
	}
}

func expDecaySampleScalar[T dual.Real](x, y T) func(p []dual.SDiff[T]) dual.SDiff[T] {
	return func(p []dual.SDiff[T]) dual.SDiff[T] {
		negXb := p[1].MulScalar(-x)
		pred := p[0].Mul(negXb.Exp()).Add(p[2])
		return dual.NewSDiff[T](y, 0).Sub(pred)
	}
}

// linearSample models y - (a.x) for one row of a 10x5 well-conditioned
// linear least-squares system (S3): a is the row of coefficients, x the
// parameter vector, y the observed value.
func linearSample[T dual.Real](row []T, y T) func(p []dual.Expr[T]) dual.Expr[T] {
	return func(p []dual.Expr[T]) dual.Expr[T] {
		var acc dual.Expr[T] = dual.Const(y)
		for i, a := range row {
			acc = acc.Sub(dual.Const(a).Mul(p[i]))
		}
		return acc
	}
}

func linearSampleScalar[T dual.Real](row []T, y T) func(p []dual.SDiff[T]) dual.SDiff[T] {
	return func(p []dual.SDiff[T]) dual.SDiff[T] {
		acc := dual.NewSDiff[T](y, 0)
		for i, a := range row {
			acc = acc.Sub(p[i].MulScalar(a))
		}
		return acc
	}
}

// constantResidual is r(x) = c, independent of every parameter: the S4
// degenerate case whose gradient is identically zero everywhere.
func constantResidual[T dual.Real](c T) func(p []dual.Expr[T]) dual.Expr[T] {
	return func(p []dual.Expr[T]) dual.Expr[T] { return dual.Const(c) }
}

func constantResidualScalar[T dual.Real](c T) func(p []dual.SDiff[T]) dual.SDiff[T] {
	return func(p []dual.SDiff[T]) dual.SDiff[T] { return dual.NewSDiff[T](c, 0) }
}

// reciprocalResidual is r(x) = 1/x0, which blows toward +-infinity as x0
// approaches 0 from either side: the S5 scenario starts exactly at the
// singularity, so ϕ(0) is already non-finite and the line search rejects
// it with ErrNoDescent without trying any step.
func reciprocalResidual[T dual.Real](p []dual.Expr[T]) dual.Expr[T] {
	return dual.Const[T](1).Div(p[0])
}

func reciprocalResidualScalar[T dual.Real](p []dual.SDiff[T]) dual.SDiff[T] {
	return dual.NewSDiff[T](1, 0).Div(p[0])
}
