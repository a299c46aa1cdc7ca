// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dual

import (
	"github.com/curioloop/gnsbfgs/arena"
	"github.com/curioloop/gnsbfgs/internal/simdpack"
)

// MaxSimdTemps is the register-pressure threshold of spec.md §3.4: when a
// node's temps() exceeds this, Eval materializes its deepest operand into
// an owned MDiff before continuing, trading a full arena allocation for
// bounded register/temporary pressure. The Design Notes explicitly leave
// the exact metric to the implementer ("any monotonic metric... should not
// affect numerical results, only performance"); this realization counts
// one temporary per internal node, which is monotonic in expression depth.
var MaxSimdTemps = 8

// Expr is an ephemeral expression-graph node: it never touches the arena,
// never outlives the statement that builds it, and computes value/gradient
// lazily. Concrete node types hold references to their operand Exprs (never
// to arena buffers directly) per spec.md §3.4's ownership note — only a
// materialized MDiff owns a buffer.
//
// diffPack returns one simdpack.Pack[T] of gradient lanes [i, i+Width) at a
// time, combining operand packs through simdpack arithmetic rather than
// recursing the tree scalar-lane-by-lane — the n/w vector-op cost spec.md
// §1 states as the engine's headline property.
type Expr[T Real] interface {
	value() T
	diffPack(i int) simdpack.Pack[T]
	temps() int

	Add(Expr[T]) Expr[T]
	Sub(Expr[T]) Expr[T]
	Mul(Expr[T]) Expr[T]
	Div(Expr[T]) Expr[T]
	Neg() Expr[T]
	Exp() Expr[T]
}

// Const returns a zero-derivative leaf, realizing "scalar op MDiff and
// MDiff op scalar" from spec.md's operator table: combining any Expr with
// a Const via Add/Sub/Mul/Div/... produces exactly the "ditto with
// zero-derivative constant" rule, since Const's gradient is 0 at every lane.
func Const[T Real](v T) Expr[T] { return constExpr[T]{v} }

// Less, LessEq and Equal compare primal values only, per spec.md §4.E:
// "Comparisons... do not participate in differentiation."
func Less[T Real](a, b Expr[T]) bool   { return a.value() < b.value() }
func LessEq[T Real](a, b Expr[T]) bool { return a.value() <= b.value() }
func Equal[T Real](a, b Expr[T]) bool  { return a.value() == b.value() }

// Eval is the builder of spec.md §3.4: it reduces e until every surviving
// node's temps() is within MaxSimdTemps (materializing the larger-temps
// operand of any node that overflows it into an arena-owned MDiff), then
// writes the final value/gradient into one freshly allocated buffer,
// Width[T]() lanes per diffPack call — arena.Context pads every buffer to a
// multiple of Width[T](), so the stride below always divides len(buf)
// evenly and needs no scalar remainder handling.
func Eval[T Real](ctx *arena.Context[T], e Expr[T]) *MDiff[T] {
	e = reduce(ctx, e)
	val := e.value()
	buf := ctx.Alloc()
	w := simdpack.Width[T]()
	for i := 0; i < len(buf); i += w {
		e.diffPack(i).Store(buf[i : i+w])
	}
	return &MDiff[T]{Val: val, buf: buf, ctx: ctx}
}

func reduce[T Real](ctx *arena.Context[T], e Expr[T]) Expr[T] {
	if s, ok := e.(shrinkable[T]); ok {
		return s.shrink(ctx)
	}
	return e
}

type shrinkable[T Real] interface {
	shrink(ctx *arena.Context[T]) Expr[T]
}

type binaryNode[T Real] interface {
	Expr[T]
	operands() (Expr[T], Expr[T])
	rebuild(a, b Expr[T]) Expr[T]
}

// shrinkBinary repeatedly materializes whichever operand has the larger
// temps() count until the node's own temps() is within MaxSimdTemps or it
// has been reduced to two leaves.
func shrinkBinary[T Real](ctx *arena.Context[T], n binaryNode[T]) Expr[T] {
	cur := Expr[T](n)
	for cur.temps() > MaxSimdTemps {
		bn := cur.(binaryNode[T])
		a, b := bn.operands()
		if a.temps() == 0 && b.temps() == 0 {
			break
		}
		if a.temps() >= b.temps() {
			a = mdiffLeaf[T]{Eval(ctx, a)}
		} else {
			b = mdiffLeaf[T]{Eval(ctx, b)}
		}
		cur = bn.rebuild(a, b)
	}
	return cur
}

func shrinkUnary[T Real](ctx *arena.Context[T], operand Expr[T], rebuild func(Expr[T]) Expr[T]) Expr[T] {
	if operand.temps() > 0 && operand.temps()+1 > MaxSimdTemps {
		operand = mdiffLeaf[T]{Eval(ctx, operand)}
	}
	return rebuild(operand)
}

// --- leaves ---

type mdiffLeaf[T Real] struct{ m *MDiff[T] }

func (l mdiffLeaf[T]) value() T { return l.m.Val }
func (l mdiffLeaf[T]) diffPack(i int) simdpack.Pack[T] {
	return simdpack.Load(l.m.buf[i:])
}
func (l mdiffLeaf[T]) temps() int            { return 0 }
func (l mdiffLeaf[T]) Add(o Expr[T]) Expr[T] { return &addNode[T]{l, o} }
func (l mdiffLeaf[T]) Sub(o Expr[T]) Expr[T] { return &subNode[T]{l, o} }
func (l mdiffLeaf[T]) Mul(o Expr[T]) Expr[T] { return &mulNode[T]{l, o} }
func (l mdiffLeaf[T]) Div(o Expr[T]) Expr[T] { return &divNode[T]{l, o} }
func (l mdiffLeaf[T]) Neg() Expr[T]          { return &negNode[T]{l} }
func (l mdiffLeaf[T]) Exp() Expr[T]          { return &expNode[T]{l} }

type constExpr[T Real] struct{ v T }

func (c constExpr[T]) value() T { return c.v }
func (c constExpr[T]) diffPack(i int) simdpack.Pack[T] {
	return simdpack.Zero[T]()
}
func (c constExpr[T]) temps() int            { return 0 }
func (c constExpr[T]) Add(o Expr[T]) Expr[T] { return &addNode[T]{c, o} }
func (c constExpr[T]) Sub(o Expr[T]) Expr[T] { return &subNode[T]{c, o} }
func (c constExpr[T]) Mul(o Expr[T]) Expr[T] { return &mulNode[T]{c, o} }
func (c constExpr[T]) Div(o Expr[T]) Expr[T] { return &divNode[T]{c, o} }
func (c constExpr[T]) Neg() Expr[T]          { return &negNode[T]{c} }
func (c constExpr[T]) Exp() Expr[T]          { return &expNode[T]{c} }

// --- unary nodes ---

type negNode[T Real] struct{ a Expr[T] }

func (n *negNode[T]) value() T { return -n.a.value() }
func (n *negNode[T]) diffPack(i int) simdpack.Pack[T] {
	return n.a.diffPack(i).Neg()
}
func (n *negNode[T]) temps() int            { return n.a.temps() + 1 }
func (n *negNode[T]) Add(o Expr[T]) Expr[T] { return &addNode[T]{n, o} }
func (n *negNode[T]) Sub(o Expr[T]) Expr[T] { return &subNode[T]{n, o} }
func (n *negNode[T]) Mul(o Expr[T]) Expr[T] { return &mulNode[T]{n, o} }
func (n *negNode[T]) Div(o Expr[T]) Expr[T] { return &divNode[T]{n, o} }
func (n *negNode[T]) Neg() Expr[T]          { return &negNode[T]{n} }
func (n *negNode[T]) Exp() Expr[T]          { return &expNode[T]{n} }
func (n *negNode[T]) shrink(ctx *arena.Context[T]) Expr[T] {
	return shrinkUnary[T](ctx, n.a, func(a Expr[T]) Expr[T] { return &negNode[T]{a} })
}

// exp(a): derivative broadcast(e^a) · a.d, per spec.md's operator table.
type expNode[T Real] struct{ a Expr[T] }

func (n *expNode[T]) value() T { return realExp(n.a.value()) }
func (n *expNode[T]) diffPack(i int) simdpack.Pack[T] {
	return simdpack.Broadcast(realExp(n.a.value())).Mul(n.a.diffPack(i))
}
func (n *expNode[T]) temps() int            { return n.a.temps() + 1 }
func (n *expNode[T]) Add(o Expr[T]) Expr[T] { return &addNode[T]{n, o} }
func (n *expNode[T]) Sub(o Expr[T]) Expr[T] { return &subNode[T]{n, o} }
func (n *expNode[T]) Mul(o Expr[T]) Expr[T] { return &mulNode[T]{n, o} }
func (n *expNode[T]) Div(o Expr[T]) Expr[T] { return &divNode[T]{n, o} }
func (n *expNode[T]) Neg() Expr[T]          { return &negNode[T]{n} }
func (n *expNode[T]) Exp() Expr[T]          { return &expNode[T]{n} }
func (n *expNode[T]) shrink(ctx *arena.Context[T]) Expr[T] {
	return shrinkUnary[T](ctx, n.a, func(a Expr[T]) Expr[T] { return &expNode[T]{a} })
}

// --- binary nodes ---

type addNode[T Real] struct{ a, b Expr[T] }

func (n *addNode[T]) value() T { return n.a.value() + n.b.value() }
func (n *addNode[T]) diffPack(i int) simdpack.Pack[T] {
	return n.a.diffPack(i).Add(n.b.diffPack(i))
}
func (n *addNode[T]) temps() int                   { return n.a.temps() + n.b.temps() + 1 }
func (n *addNode[T]) operands() (Expr[T], Expr[T]) { return n.a, n.b }
func (n *addNode[T]) rebuild(a, b Expr[T]) Expr[T] { return &addNode[T]{a, b} }
func (n *addNode[T]) Add(o Expr[T]) Expr[T]        { return &addNode[T]{n, o} }
func (n *addNode[T]) Sub(o Expr[T]) Expr[T]        { return &subNode[T]{n, o} }
func (n *addNode[T]) Mul(o Expr[T]) Expr[T]        { return &mulNode[T]{n, o} }
func (n *addNode[T]) Div(o Expr[T]) Expr[T]        { return &divNode[T]{n, o} }
func (n *addNode[T]) Neg() Expr[T]                 { return &negNode[T]{n} }
func (n *addNode[T]) Exp() Expr[T]                 { return &expNode[T]{n} }

type subNode[T Real] struct{ a, b Expr[T] }

func (n *subNode[T]) value() T { return n.a.value() - n.b.value() }
func (n *subNode[T]) diffPack(i int) simdpack.Pack[T] {
	return n.a.diffPack(i).Sub(n.b.diffPack(i))
}
func (n *subNode[T]) temps() int                   { return n.a.temps() + n.b.temps() + 1 }
func (n *subNode[T]) operands() (Expr[T], Expr[T]) { return n.a, n.b }
func (n *subNode[T]) rebuild(a, b Expr[T]) Expr[T] { return &subNode[T]{a, b} }
func (n *subNode[T]) Add(o Expr[T]) Expr[T]        { return &addNode[T]{n, o} }
func (n *subNode[T]) Sub(o Expr[T]) Expr[T]        { return &subNode[T]{n, o} }
func (n *subNode[T]) Mul(o Expr[T]) Expr[T]        { return &mulNode[T]{n, o} }
func (n *subNode[T]) Div(o Expr[T]) Expr[T]        { return &divNode[T]{n, o} }
func (n *subNode[T]) Neg() Expr[T]                 { return &negNode[T]{n} }
func (n *subNode[T]) Exp() Expr[T]                 { return &expNode[T]{n} }

// mul(a,b): derivative broadcast(b)·a.d + broadcast(a)·b.d. The two
// primal values are captured once per spec.md §3.4's "precomputed scalar
// broadcasts" note, avoiding recomputing a.value()/b.value() per pack.
type mulNode[T Real] struct{ a, b Expr[T] }

func (n *mulNode[T]) value() T { return n.a.value() * n.b.value() }
func (n *mulNode[T]) diffPack(i int) simdpack.Pack[T] {
	av, bv := n.a.value(), n.b.value()
	return simdpack.Broadcast(bv).Mul(n.a.diffPack(i)).
		Add(simdpack.Broadcast(av).Mul(n.b.diffPack(i)))
}
func (n *mulNode[T]) temps() int                   { return n.a.temps() + n.b.temps() + 1 }
func (n *mulNode[T]) operands() (Expr[T], Expr[T]) { return n.a, n.b }
func (n *mulNode[T]) rebuild(a, b Expr[T]) Expr[T] { return &mulNode[T]{a, b} }
func (n *mulNode[T]) Add(o Expr[T]) Expr[T]        { return &addNode[T]{n, o} }
func (n *mulNode[T]) Sub(o Expr[T]) Expr[T]        { return &subNode[T]{n, o} }
func (n *mulNode[T]) Mul(o Expr[T]) Expr[T]        { return &mulNode[T]{n, o} }
func (n *mulNode[T]) Div(o Expr[T]) Expr[T]        { return &divNode[T]{n, o} }
func (n *mulNode[T]) Neg() Expr[T]                 { return &negNode[T]{n} }
func (n *mulNode[T]) Exp() Expr[T]                 { return &expNode[T]{n} }

// div(a,b): derivative (broadcast(b)·a.d - broadcast(a)·b.d) / broadcast(b²),
// the divisor and its square precomputed once per spec.md §3.4.
type divNode[T Real] struct{ a, b Expr[T] }

func (n *divNode[T]) value() T { return n.a.value() / n.b.value() }
func (n *divNode[T]) diffPack(i int) simdpack.Pack[T] {
	av, bv := n.a.value(), n.b.value()
	num := simdpack.Broadcast(bv).Mul(n.a.diffPack(i)).
		Sub(simdpack.Broadcast(av).Mul(n.b.diffPack(i)))
	return num.Div(simdpack.Broadcast(bv * bv))
}
func (n *divNode[T]) temps() int                   { return n.a.temps() + n.b.temps() + 1 }
func (n *divNode[T]) operands() (Expr[T], Expr[T]) { return n.a, n.b }
func (n *divNode[T]) rebuild(a, b Expr[T]) Expr[T] { return &divNode[T]{a, b} }
func (n *divNode[T]) Add(o Expr[T]) Expr[T]        { return &addNode[T]{n, o} }
func (n *divNode[T]) Sub(o Expr[T]) Expr[T]        { return &subNode[T]{n, o} }
func (n *divNode[T]) Mul(o Expr[T]) Expr[T]        { return &mulNode[T]{n, o} }
func (n *divNode[T]) Div(o Expr[T]) Expr[T]        { return &divNode[T]{n, o} }
func (n *divNode[T]) Neg() Expr[T]                 { return &negNode[T]{n} }
func (n *divNode[T]) Exp() Expr[T]                 { return &expNode[T]{n} }

func (n *addNode[T]) shrink(ctx *arena.Context[T]) Expr[T] { return shrinkBinary[T](ctx, n) }
func (n *subNode[T]) shrink(ctx *arena.Context[T]) Expr[T] { return shrinkBinary[T](ctx, n) }
func (n *mulNode[T]) shrink(ctx *arena.Context[T]) Expr[T] { return shrinkBinary[T](ctx, n) }
func (n *divNode[T]) shrink(ctx *arena.Context[T]) Expr[T] { return shrinkBinary[T](ctx, n) }
