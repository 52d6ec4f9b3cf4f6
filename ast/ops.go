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
	"strings"

	"golang.org/x/exp/slices"
)

// LogicalOp is either OpAnd or OpOr
type LogicalOp int

const (
	OpAnd LogicalOp = iota
	OpOr
)

func (l LogicalOp) String() string {
	if l == OpAnd {
		return "AND"
	}
	return "OR"
}

// Logical is a logical expression; it
// always carries exactly two operands
type Logical struct {
	Op          LogicalOp
	Left, Right Node
}

// And constructs (left AND right)
func And(left, right Node) *Logical {
	return &Logical{Op: OpAnd, Left: left, Right: right}
}

// Or constructs (left OR right)
func Or(left, right Node) *Logical {
	return &Logical{Op: OpOr, Left: left, Right: right}
}

func (l *Logical) text(dst *strings.Builder) {
	dst.WriteByte('(')
	l.Left.text(dst)
	dst.WriteByte(' ')
	dst.WriteString(l.Op.String())
	dst.WriteByte(' ')
	l.Right.text(dst)
	dst.WriteByte(')')
}

func (l *Logical) Equals(x Node) bool {
	l2, ok := x.(*Logical)
	return ok && l.Op == l2.Op &&
		l.Left.Equals(l2.Left) && l.Right.Equals(l2.Right)
}

func (l *Logical) walk(v Visitor) {
	Walk(v, l.Left)
	Walk(v, l.Right)
}

func (l *Logical) rewrite(r Rewriter) Node {
	l.Left = Rewrite(r, l.Left)
	l.Right = Rewrite(r, l.Right)
	return l
}

// Not is a logical NOT expression
type Not struct {
	Expr Node
}

func (n *Not) text(dst *strings.Builder) {
	dst.WriteString("NOT ")
	n.Expr.text(dst)
}

func (n *Not) Equals(x Node) bool {
	n2, ok := x.(*Not)
	return ok && n.Expr.Equals(n2.Expr)
}

func (n *Not) walk(v Visitor) {
	Walk(v, n.Expr)
}

func (n *Not) rewrite(r Rewriter) Node {
	n.Expr = Rewrite(r, n.Expr)
	return n
}

// CmpOp is a comparison operation
type CmpOp int

const (
	Equals CmpOp = iota
	NotEquals
	Less
	LessEquals
	Greater
	GreaterEquals
)

func (c CmpOp) String() string {
	switch c {
	case Equals:
		return "="
	case NotEquals:
		return "<>"
	case Less:
		return "<"
	case LessEquals:
		return "<="
	case Greater:
		return ">"
	default:
		return ">="
	}
}

// Comparison is a comparison expression; it always
// carries exactly two operands
type Comparison struct {
	Op          CmpOp
	Left, Right Node
}

// Compare constructs the comparison (left op right)
func Compare(op CmpOp, left, right Node) *Comparison {
	return &Comparison{Op: op, Left: left, Right: right}
}

func (c *Comparison) text(dst *strings.Builder) {
	c.Left.text(dst)
	dst.WriteByte(' ')
	dst.WriteString(c.Op.String())
	dst.WriteByte(' ')
	c.Right.text(dst)
}

func (c *Comparison) Equals(x Node) bool {
	c2, ok := x.(*Comparison)
	return ok && c.Op == c2.Op &&
		c.Left.Equals(c2.Left) && c.Right.Equals(c2.Right)
}

func (c *Comparison) walk(v Visitor) {
	Walk(v, c.Left)
	Walk(v, c.Right)
}

func (c *Comparison) rewrite(r Rewriter) Node {
	c.Left = Rewrite(r, c.Left)
	c.Right = Rewrite(r, c.Right)
	return c
}

// ArithOp is an arithmetic (or concatenation) operation
type ArithOp int

const (
	AddOp ArithOp = iota
	SubOp
	MulOp
	DivOp
	ModOp
	ConcatOp
)

func (a ArithOp) String() string {
	switch a {
	case AddOp:
		return "+"
	case SubOp:
		return "-"
	case MulOp:
		return "*"
	case DivOp:
		return "/"
	case ModOp:
		return "%"
	default:
		return "||"
	}
}

// Arithmetic is a binary arithmetic expression; it
// always carries exactly two operands
type Arithmetic struct {
	Op          ArithOp
	Left, Right Node
}

// Add constructs (left + right)
func Add(left, right Node) *Arithmetic {
	return &Arithmetic{Op: AddOp, Left: left, Right: right}
}

// Sub constructs (left - right)
func Sub(left, right Node) *Arithmetic {
	return &Arithmetic{Op: SubOp, Left: left, Right: right}
}

// Mul constructs (left * right)
func Mul(left, right Node) *Arithmetic {
	return &Arithmetic{Op: MulOp, Left: left, Right: right}
}

// Div constructs (left / right)
func Div(left, right Node) *Arithmetic {
	return &Arithmetic{Op: DivOp, Left: left, Right: right}
}

// Mod constructs (left % right)
func Mod(left, right Node) *Arithmetic {
	return &Arithmetic{Op: ModOp, Left: left, Right: right}
}

// Concat constructs (left || right)
func Concat(left, right Node) *Arithmetic {
	return &Arithmetic{Op: ConcatOp, Left: left, Right: right}
}

func (a *Arithmetic) text(dst *strings.Builder) {
	dst.WriteByte('(')
	a.Left.text(dst)
	dst.WriteByte(' ')
	dst.WriteString(a.Op.String())
	dst.WriteByte(' ')
	a.Right.text(dst)
	dst.WriteByte(')')
}

func (a *Arithmetic) Equals(x Node) bool {
	a2, ok := x.(*Arithmetic)
	return ok && a.Op == a2.Op &&
		a.Left.Equals(a2.Left) && a.Right.Equals(a2.Right)
}

func (a *Arithmetic) walk(v Visitor) {
	Walk(v, a.Left)
	Walk(v, a.Right)
}

func (a *Arithmetic) rewrite(r Rewriter) Node {
	a.Left = Rewrite(r, a.Left)
	a.Right = Rewrite(r, a.Right)
	return a
}

// UnaryArithOp is a unary arithmetic operation
type UnaryArithOp int

const (
	NegOp UnaryArithOp = iota
	PosOp
)

// UnaryArith is a unary plus or minus expression
type UnaryArith struct {
	Op    UnaryArithOp
	Child Node
}

// Neg constructs (- child)
func Neg(child Node) *UnaryArith {
	return &UnaryArith{Op: NegOp, Child: child}
}

func (u *UnaryArith) text(dst *strings.Builder) {
	if u.Op == NegOp {
		dst.WriteByte('-')
	} else {
		dst.WriteByte('+')
	}
	u.Child.text(dst)
}

func (u *UnaryArith) Equals(x Node) bool {
	u2, ok := x.(*UnaryArith)
	return ok && u.Op == u2.Op && u.Child.Equals(u2.Child)
}

func (u *UnaryArith) walk(v Visitor) {
	Walk(v, u.Child)
}

func (u *UnaryArith) rewrite(r Rewriter) Node {
	u.Child = Rewrite(r, u.Child)
	return u
}

// Like is the LIKE predicate. Escape may be nil.
type Like struct {
	Expr    Node
	Pattern Node
	Escape  Node
}

func (l *Like) text(dst *strings.Builder) {
	l.Expr.text(dst)
	dst.WriteString(" LIKE ")
	l.Pattern.text(dst)
	if l.Escape != nil {
		dst.WriteString(" ESCAPE ")
		l.Escape.text(dst)
	}
}

func (l *Like) Equals(x Node) bool {
	l2, ok := x.(*Like)
	if !ok || !l.Expr.Equals(l2.Expr) || !l.Pattern.Equals(l2.Pattern) {
		return false
	}
	return Equal(l.Escape, l2.Escape)
}

func (l *Like) walk(v Visitor) {
	Walk(v, l.Expr)
	Walk(v, l.Pattern)
	if l.Escape != nil {
		Walk(v, l.Escape)
	}
}

func (l *Like) rewrite(r Rewriter) Node {
	l.Expr = Rewrite(r, l.Expr)
	l.Pattern = Rewrite(r, l.Pattern)
	l.Escape = Rewrite(r, l.Escape)
	return l
}

// Between is the BETWEEN predicate:
//
//	Expr BETWEEN Lo AND Hi
type Between struct {
	Expr, Lo, Hi Node
}

func (b *Between) text(dst *strings.Builder) {
	b.Expr.text(dst)
	dst.WriteString(" BETWEEN ")
	b.Lo.text(dst)
	dst.WriteString(" AND ")
	b.Hi.text(dst)
}

func (b *Between) Equals(x Node) bool {
	b2, ok := x.(*Between)
	return ok && b.Expr.Equals(b2.Expr) &&
		b.Lo.Equals(b2.Lo) && b.Hi.Equals(b2.Hi)
}

func (b *Between) walk(v Visitor) {
	Walk(v, b.Expr)
	Walk(v, b.Lo)
	Walk(v, b.Hi)
}

func (b *Between) rewrite(r Rewriter) Node {
	b.Expr = Rewrite(r, b.Expr)
	b.Lo = Rewrite(r, b.Lo)
	b.Hi = Rewrite(r, b.Hi)
	return b
}

// In is the IN predicate; Right should evaluate to a
// container value.
type In struct {
	Left, Right Node
}

func (i *In) text(dst *strings.Builder) {
	i.Left.text(dst)
	dst.WriteString(" IN ")
	i.Right.text(dst)
}

func (i *In) Equals(x Node) bool {
	i2, ok := x.(*In)
	return ok && i.Left.Equals(i2.Left) && i.Right.Equals(i2.Right)
}

func (i *In) walk(v Visitor) {
	Walk(v, i.Left)
	Walk(v, i.Right)
}

func (i *In) rewrite(r Rewriter) Node {
	i.Left = Rewrite(r, i.Left)
	i.Right = Rewrite(r, i.Right)
	return i
}

// Is is the IS predicate:
//
//	Expr IS [NOT] T
type Is struct {
	Expr    Node
	T       Type
	Negated bool
}

func (i *Is) text(dst *strings.Builder) {
	i.Expr.text(dst)
	if i.Negated {
		dst.WriteString(" IS NOT ")
	} else {
		dst.WriteString(" IS ")
	}
	i.T.text(dst)
}

func (i *Is) Equals(x Node) bool {
	i2, ok := x.(*Is)
	return ok && i.Negated == i2.Negated &&
		i.T.Equals(i2.T) && i.Expr.Equals(i2.Expr)
}

func (i *Is) walk(v Visitor) {
	Walk(v, i.Expr)
}

func (i *Is) rewrite(r Rewriter) Node {
	i.Expr = Rewrite(r, i.Expr)
	return i
}

// CaseLimb is a single WHEN ... THEN ... limb
type CaseLimb struct {
	When, Then Node
}

// Case is a simple or searched CASE expression.
// Operand is nil for the searched form.
type Case struct {
	Operand Node
	Limbs   []CaseLimb
	Else    Node
}

func (c *Case) text(dst *strings.Builder) {
	dst.WriteString("CASE ")
	if c.Operand != nil {
		c.Operand.text(dst)
		dst.WriteByte(' ')
	}
	for i := range c.Limbs {
		dst.WriteString("WHEN ")
		c.Limbs[i].When.text(dst)
		dst.WriteString(" THEN ")
		c.Limbs[i].Then.text(dst)
		dst.WriteByte(' ')
	}
	if c.Else != nil {
		dst.WriteString("ELSE ")
		c.Else.text(dst)
		dst.WriteByte(' ')
	}
	dst.WriteString("END")
}

func (c *Case) Equals(x Node) bool {
	c2, ok := x.(*Case)
	if !ok || !Equal(c.Operand, c2.Operand) || !Equal(c.Else, c2.Else) {
		return false
	}
	return slices.EqualFunc(c.Limbs, c2.Limbs, func(a, b CaseLimb) bool {
		return a.When.Equals(b.When) && a.Then.Equals(b.Then)
	})
}

func (c *Case) walk(v Visitor) {
	if c.Operand != nil {
		Walk(v, c.Operand)
	}
	for i := range c.Limbs {
		Walk(v, c.Limbs[i].When)
		Walk(v, c.Limbs[i].Then)
	}
	if c.Else != nil {
		Walk(v, c.Else)
	}
}

func (c *Case) rewrite(r Rewriter) Node {
	c.Operand = Rewrite(r, c.Operand)
	for i := range c.Limbs {
		c.Limbs[i].When = Rewrite(r, c.Limbs[i].When)
		c.Limbs[i].Then = Rewrite(r, c.Limbs[i].Then)
	}
	c.Else = Rewrite(r, c.Else)
	return c
}

// Coalesce is COALESCE(args...); it carries one or more
// arguments.
type Coalesce struct {
	Args []Node
}

func (c *Coalesce) text(dst *strings.Builder) {
	dst.WriteString("COALESCE(")
	for i := range c.Args {
		if i > 0 {
			dst.WriteString(", ")
		}
		c.Args[i].text(dst)
	}
	dst.WriteByte(')')
}

func (c *Coalesce) Equals(x Node) bool {
	c2, ok := x.(*Coalesce)
	return ok && slices.EqualFunc(c.Args, c2.Args, Node.Equals)
}

func (c *Coalesce) walk(v Visitor) {
	for i := range c.Args {
		Walk(v, c.Args[i])
	}
}

func (c *Coalesce) rewrite(r Rewriter) Node {
	for i := range c.Args {
		c.Args[i] = Rewrite(r, c.Args[i])
	}
	return c
}

// NullIf is NULLIF(left, right)
type NullIf struct {
	Left, Right Node
}

func (n *NullIf) text(dst *strings.Builder) {
	dst.WriteString("NULLIF(")
	n.Left.text(dst)
	dst.WriteString(", ")
	n.Right.text(dst)
	dst.WriteByte(')')
}

func (n *NullIf) Equals(x Node) bool {
	n2, ok := x.(*NullIf)
	return ok && n.Left.Equals(n2.Left) && n.Right.Equals(n2.Right)
}

func (n *NullIf) walk(v Visitor) {
	Walk(v, n.Left)
	Walk(v, n.Right)
}

func (n *NullIf) rewrite(r Rewriter) Node {
	n.Left = Rewrite(r, n.Left)
	n.Right = Rewrite(r, n.Right)
	return n
}
