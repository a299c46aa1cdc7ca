// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"github.com/curioloop/gnsbfgs/dual"
	"github.com/curioloop/gnsbfgs/gnsbfgs"
)

// Sample is one row of fit data: X feeds the residual (one feature for
// exp-decay, N features for linear), Y is the observed value.
type Sample struct {
	X []float64 `json:"x"`
	Y float64   `json:"y"`
}

// expDecayResidual builds r(q) = y - (q0*exp(-q1*x) + q2) for one sample.
func expDecayResidual(x, y float64) gnsbfgs.Residual[float64] {
	expr := func(p []dual.Expr[float64]) dual.Expr[float64] {
		pred := p[0].Mul(dual.Const(x).Neg().Mul(p[1]).Exp()).Add(p[2])
		return dual.Const(y).Sub(pred)
	}
	scalar := func(p []dual.SDiff[float64]) dual.SDiff[float64] {
		pred := p[0].Mul(p[1].MulScalar(-x).Exp()).Add(p[2])
		return dual.NewSDiff[float64](y, 0).Sub(pred)
	}
	return gnsbfgs.NewResidual(expr, scalar)
}

// linearResidual builds r(x) = y - a.x for one row a of a linear system.
func linearResidual(row []float64, y float64) gnsbfgs.Residual[float64] {
	expr := func(p []dual.Expr[float64]) dual.Expr[float64] {
		var acc dual.Expr[float64] = dual.Const(y)
		for i, a := range row {
			acc = acc.Sub(dual.Const(a).Mul(p[i]))
		}
		return acc
	}
	scalar := func(p []dual.SDiff[float64]) dual.SDiff[float64] {
		acc := dual.NewSDiff[float64](y, 0)
		for i, a := range row {
			acc = acc.Sub(p[i].MulScalar(a))
		}
		return acc
	}
	return gnsbfgs.NewResidual(expr, scalar)
}

// rosenbrockResidual is the single 3-parameter residual of spec.md §8.7 S1.
func rosenbrockResidual() gnsbfgs.Residual[float64] {
	expr := func(p []dual.Expr[float64]) dual.Expr[float64] {
		var acc dual.Expr[float64]
		for i := 0; i < 2; i++ {
			one := dual.Const[float64](1).Sub(p[i])
			term1 := one.Mul(one)
			diff := p[i+1].Sub(p[i].Mul(p[i]))
			term2 := diff.Mul(diff).Mul(dual.Const[float64](100))
			sum := term1.Add(term2)
			if i == 0 {
				acc = sum
			} else {
				acc = acc.Add(sum)
			}
		}
		return acc
	}
	scalar := func(p []dual.SDiff[float64]) dual.SDiff[float64] {
		var acc dual.SDiff[float64]
		for i := 0; i < 2; i++ {
			one := dual.NewSDiff[float64](1, 0).Sub(p[i])
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
	return gnsbfgs.NewResidual(expr, scalar)
}
