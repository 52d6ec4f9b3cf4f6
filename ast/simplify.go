// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package ast

import (
	"math"
)

// identity is the no-op rewrite pass; Rewrite(Identity{}, e)
// recurses into every child of every variant and reconstructs
// the same tree, so the result is structurally equal to the
// input. Downstream passes embed Identity to inherit total
// coverage of the variant set.
type Identity struct{}

func (Identity) Walk(e Node) Rewriter { return Identity{} }
func (Identity) Rewrite(e Node) Node  { return e }

// isfalse returns whether e is literally FALSE
func isfalse(e Node) bool {
	b, ok := e.(Bool)
	return ok && !bool(b)
}

// istrue returns whether e is literally TRUE
func istrue(e Node) bool {
	b, ok := e.(Bool)
	return ok && bool(b)
}

func isnull(e Node) bool {
	_, ok := e.(Null)
	return ok
}

func ismissing(e Node) bool {
	_, ok := e.(Missing)
	return ok
}

// simplifier performs 3VL-preserving constant folding.
// It is deliberately conservative: a folding is admitted
// only when it yields the same result for every possible
// value of the non-constant operands, including NULL and
// MISSING.
type simplifier struct{}

func (s simplifier) Walk(e Node) Rewriter { return s }

func (s simplifier) Rewrite(e Node) Node {
	// children have already been rewritten
	switch n := e.(type) {
	case *Not:
		return s.not(n)
	case *Logical:
		return s.logical(n)
	case *UnaryArith:
		return s.unary(n)
	case *Arithmetic:
		return s.arith(n)
	case *Comparison:
		return s.compare(n)
	case *Coalesce:
		return s.coalesce(n)
	}
	return e
}

func (s simplifier) not(n *Not) Node {
	switch {
	case istrue(n.Expr):
		return Bool(false)
	case isfalse(n.Expr):
		return Bool(true)
	case isnull(n.Expr), ismissing(n.Expr):
		// MISSING behaves like NULL under logical NOT
		return Null{}
	}
	return n
}

// boolish returns whether e is a literal with a known,
// error-free logical truth value: TRUE, FALSE, NULL, or
// MISSING.
func boolish(e Node) bool {
	if _, ok := e.(Bool); ok {
		return true
	}
	return isnull(e) || ismissing(e)
}

func (s simplifier) logical(n *Logical) Node {
	l, r := n.Left, n.Right
	switch n.Op {
	case OpAnd:
		// a FALSE left operand short-circuits, so the
		// right side is discarded no matter what it is
		if isfalse(l) {
			return Bool(false)
		}
		// a non-literal peer may evaluate to a non-bool
		// and raise, and an unknown operand yields NULL
		// rather than the peer itself; fold only when
		// both truth values are statically known
		if !boolish(l) || !boolish(r) {
			return n
		}
		if isfalse(r) {
			return Bool(false)
		}
		if istrue(l) && istrue(r) {
			return Bool(true)
		}
		return Null{}
	case OpOr:
		// a TRUE left operand short-circuits
		if istrue(l) {
			return Bool(true)
		}
		if !boolish(l) || !boolish(r) {
			return n
		}
		if istrue(r) {
			return Bool(true)
		}
		if isfalse(l) && isfalse(r) {
			return Bool(false)
		}
		return Null{}
	}
	return n
}

func (s simplifier) unary(n *UnaryArith) Node {
	switch c := n.Child.(type) {
	case Integer:
		if n.Op == PosOp {
			return c
		}
		if int64(c) != math.MinInt64 {
			return Integer(-int64(c))
		}
	case Float:
		if n.Op == PosOp {
			return c
		}
		return Float(-float64(c))
	}
	return n
}

func (s simplifier) arith(n *Arithmetic) Node {
	// MISSING and NULL propagate through every
	// arithmetic operator
	if ismissing(n.Left) || ismissing(n.Right) {
		return Missing{}
	}
	if isnull(n.Left) || isnull(n.Right) {
		return Null{}
	}
	li, lok := n.Left.(Integer)
	ri, rok := n.Right.(Integer)
	if !lok || !rok {
		return n
	}
	a, b := int64(li), int64(ri)
	switch n.Op {
	case AddOp:
		if c := a + b; (c > a) == (b > 0) {
			return Integer(c)
		}
	case SubOp:
		if c := a - b; (c < a) == (b > 0) {
			return Integer(c)
		}
	case MulOp:
		if a == 0 || b == 0 {
			return Integer(0)
		}
		if c := a * b; c/b == a && (a != math.MinInt64 || b != -1) {
			return Integer(c)
		}
	case DivOp, ModOp:
		// division by zero stays un-folded so that
		// evaluation raises the diagnostic
		if b == 0 {
			return n
		}
		if a == math.MinInt64 && b == -1 {
			return n
		}
		if n.Op == DivOp {
			return Integer(a / b)
		}
		return Integer(a % b)
	}
	return n
}

func (s simplifier) compare(n *Comparison) Node {
	if ismissing(n.Left) || ismissing(n.Right) {
		return Missing{}
	}
	if isnull(n.Left) || isnull(n.Right) {
		return Null{}
	}
	li, lok := n.Left.(Integer)
	ri, rok := n.Right.(Integer)
	if !lok || !rok {
		return n
	}
	var c int
	switch {
	case li < ri:
		c = -1
	case li > ri:
		c = 1
	}
	switch n.Op {
	case Equals:
		return Bool(c == 0)
	case NotEquals:
		return Bool(c != 0)
	case Less:
		return Bool(c < 0)
	case LessEquals:
		return Bool(c <= 0)
	case Greater:
		return Bool(c > 0)
	default:
		return Bool(c >= 0)
	}
}

func (s simplifier) coalesce(n *Coalesce) Node {
	args := n.Args
	out := args[:0:0]
	for i := range args {
		if isnull(args[i]) || ismissing(args[i]) {
			continue
		}
		out = append(out, args[i])
		// a non-null literal terminates the chain
		if isliteral(args[i]) {
			break
		}
	}
	switch len(out) {
	case 0:
		return Null{}
	case 1:
		if isliteral(out[0]) {
			return out[0]
		}
	}
	if len(out) == len(args) {
		return n
	}
	return &Coalesce{Args: out}
}

func isliteral(e Node) bool {
	switch e.(type) {
	case Bool, Integer, Float, String, Symbol,
		*Decimal, *Timestamp, *DateLit, *TimeLit:
		return true
	}
	return false
}

// Simplify performs 3VL-preserving constant folding and
// normalization on e. The result is semantically
// equivalent to the input for every binding environment.
func Simplify(e Node) Node {
	return Rewrite(simplifier{}, e)
}
