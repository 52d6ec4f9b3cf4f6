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

// StructField is a single computed field of a struct
// constructor.
type StructField struct {
	Name  Node
	Value Node
}

// StructCtor is the {'name': value, ...} constructor
type StructCtor struct {
	Fields []StructField
}

func (s *StructCtor) text(dst *strings.Builder) {
	dst.WriteByte('{')
	for i := range s.Fields {
		if i > 0 {
			dst.WriteString(", ")
		}
		s.Fields[i].Name.text(dst)
		dst.WriteString(": ")
		s.Fields[i].Value.text(dst)
	}
	dst.WriteByte('}')
}

func (s *StructCtor) Equals(x Node) bool {
	s2, ok := x.(*StructCtor)
	return ok && slices.EqualFunc(s.Fields, s2.Fields, func(a, b StructField) bool {
		return a.Name.Equals(b.Name) && a.Value.Equals(b.Value)
	})
}

func (s *StructCtor) walk(v Visitor) {
	for i := range s.Fields {
		Walk(v, s.Fields[i].Name)
		Walk(v, s.Fields[i].Value)
	}
}

func (s *StructCtor) rewrite(r Rewriter) Node {
	for i := range s.Fields {
		s.Fields[i].Name = Rewrite(r, s.Fields[i].Name)
		s.Fields[i].Value = Rewrite(r, s.Fields[i].Value)
	}
	return s
}

// ListCtor is the [a, b, ...] constructor
type ListCtor struct {
	Items []Node
}

func (l *ListCtor) text(dst *strings.Builder) {
	dst.WriteByte('[')
	for i := range l.Items {
		if i > 0 {
			dst.WriteString(", ")
		}
		l.Items[i].text(dst)
	}
	dst.WriteByte(']')
}

func (l *ListCtor) Equals(x Node) bool {
	l2, ok := x.(*ListCtor)
	return ok && slices.EqualFunc(l.Items, l2.Items, Node.Equals)
}

func (l *ListCtor) walk(v Visitor) {
	for i := range l.Items {
		Walk(v, l.Items[i])
	}
}

func (l *ListCtor) rewrite(r Rewriter) Node {
	for i := range l.Items {
		l.Items[i] = Rewrite(r, l.Items[i])
	}
	return l
}

// BagCtor is the <<a, b, ...>> constructor
type BagCtor struct {
	Items []Node
}

func (b *BagCtor) text(dst *strings.Builder) {
	dst.WriteString("<<")
	for i := range b.Items {
		if i > 0 {
			dst.WriteString(", ")
		}
		b.Items[i].text(dst)
	}
	dst.WriteString(">>")
}

func (b *BagCtor) Equals(x Node) bool {
	b2, ok := x.(*BagCtor)
	return ok && slices.EqualFunc(b.Items, b2.Items, Node.Equals)
}

func (b *BagCtor) walk(v Visitor) {
	for i := range b.Items {
		Walk(v, b.Items[i])
	}
}

func (b *BagCtor) rewrite(r Rewriter) Node {
	for i := range b.Items {
		b.Items[i] = Rewrite(r, b.Items[i])
	}
	return b
}

// SexpCtor is the sexp_(a b ...) constructor
type SexpCtor struct {
	Items []Node
}

func (s *SexpCtor) text(dst *strings.Builder) {
	dst.WriteString("sexp(")
	for i := range s.Items {
		if i > 0 {
			dst.WriteByte(' ')
		}
		s.Items[i].text(dst)
	}
	dst.WriteByte(')')
}

func (s *SexpCtor) Equals(x Node) bool {
	s2, ok := x.(*SexpCtor)
	return ok && slices.EqualFunc(s.Items, s2.Items, Node.Equals)
}

func (s *SexpCtor) walk(v Visitor) {
	for i := range s.Items {
		Walk(v, s.Items[i])
	}
}

func (s *SexpCtor) rewrite(r Rewriter) Node {
	for i := range s.Items {
		s.Items[i] = Rewrite(r, s.Items[i])
	}
	return s
}

// CallOp is one of the scalar built-in functions
type CallOp int

const (
	CharLength CallOp = iota
	Lower
	Upper
	Trim
	Ltrim
	Rtrim
	Substring
	Position
	Abs
	Exists
	OpToString // sql: TO_STRING
	ToTimestamp
	UtcNow
	DateAdd
	DateDiff
	SizeOf // sql: SIZE

	maxCallOp
)

var callNames = [maxCallOp]string{
	CharLength:  "CHAR_LENGTH",
	Lower:       "LOWER",
	Upper:       "UPPER",
	Trim:        "TRIM",
	Ltrim:       "LTRIM",
	Rtrim:       "RTRIM",
	Substring:   "SUBSTRING",
	Position:    "POSITION",
	Abs:         "ABS",
	Exists:      "EXISTS",
	OpToString:  "TO_STRING",
	ToTimestamp: "TO_TIMESTAMP",
	UtcNow:      "UTCNOW",
	DateAdd:     "DATE_ADD",
	DateDiff:    "DATE_DIFF",
	SizeOf:      "SIZE",
}

func (o CallOp) String() string {
	if o < 0 || o >= maxCallOp {
		return "UNKNOWN"
	}
	return callNames[o]
}

// LookupCall finds the built-in function with the given
// (case-insensitive) name.
func LookupCall(name string) (CallOp, bool) {
	for i := range callNames {
		if strings.EqualFold(callNames[i], name) {
			return CallOp(i), true
		}
	}
	return 0, false
}

// Call is a scalar function call; it carries one or
// more arguments except where the function's signature
// accepts zero.
type Call struct {
	Op   CallOp
	Args []Node
}

// CallByName constructs a call to the named function.
func CallByName(name string, args ...Node) (*Call, bool) {
	op, ok := LookupCall(name)
	if !ok {
		return nil, false
	}
	return &Call{Op: op, Args: args}, true
}

func (c *Call) text(dst *strings.Builder) {
	dst.WriteString(c.Op.String())
	dst.WriteByte('(')
	for i := range c.Args {
		if i > 0 {
			dst.WriteString(", ")
		}
		c.Args[i].text(dst)
	}
	dst.WriteByte(')')
}

func (c *Call) Equals(x Node) bool {
	c2, ok := x.(*Call)
	return ok && c.Op == c2.Op &&
		slices.EqualFunc(c.Args, c2.Args, Node.Equals)
}

func (c *Call) walk(v Visitor) {
	for i := range c.Args {
		Walk(v, c.Args[i])
	}
}

func (c *Call) rewrite(r Rewriter) Node {
	for i := range c.Args {
		c.Args[i] = Rewrite(r, c.Args[i])
	}
	return c
}

// AggregateOp is one of the aggregation operations
type AggregateOp int

const (
	OpCount AggregateOp = iota
	OpSum
	OpAvg
	OpMin
	OpMax
	OpEvery
	OpAny
)

func (a AggregateOp) String() string {
	switch a {
	case OpCount:
		return "COUNT"
	case OpSum:
		return "SUM"
	case OpAvg:
		return "AVG"
	case OpMin:
		return "MIN"
	case OpMax:
		return "MAX"
	case OpEvery:
		return "EVERY"
	default:
		return "ANY"
	}
}

// defaultResult is the implicit output column name for
// an un-aliased aggregate binding.
func (a AggregateOp) defaultResult() string {
	return strings.ToLower(a.String())
}

// Aggregate is an aggregation expression.
// Inner is Star{} for COUNT(*).
type Aggregate struct {
	Op AggregateOp
	// Distinct deduplicates the aggregated inputs by
	// value equality before aggregating.
	Distinct bool
	Inner    Node
}

// Count produces the COUNT(e) aggregate
func Count(e Node) *Aggregate { return &Aggregate{Op: OpCount, Inner: e} }

// Sum produces the SUM(e) aggregate
func Sum(e Node) *Aggregate { return &Aggregate{Op: OpSum, Inner: e} }

// Avg produces the AVG(e) aggregate
func Avg(e Node) *Aggregate { return &Aggregate{Op: OpAvg, Inner: e} }

// Min produces the MIN(e) aggregate
func Min(e Node) *Aggregate { return &Aggregate{Op: OpMin, Inner: e} }

// Max produces the MAX(e) aggregate
func Max(e Node) *Aggregate { return &Aggregate{Op: OpMax, Inner: e} }

func (a *Aggregate) text(dst *strings.Builder) {
	dst.WriteString(a.Op.String())
	dst.WriteByte('(')
	if a.Distinct {
		dst.WriteString("DISTINCT ")
	}
	a.Inner.text(dst)
	dst.WriteByte(')')
}

func (a *Aggregate) Equals(x Node) bool {
	a2, ok := x.(*Aggregate)
	return ok && a.Op == a2.Op && a.Distinct == a2.Distinct &&
		a.Inner.Equals(a2.Inner)
}

func (a *Aggregate) walk(v Visitor) {
	Walk(v, a.Inner)
}

func (a *Aggregate) rewrite(r Rewriter) Node {
	a.Inner = Rewrite(r, a.Inner)
	return a
}

// CastOp selects a member of the cast family.
type CastOp int

const (
	// CastValue raises a diagnostic on failed
	// conversion (or MISSING in permissive mode).
	CastValue CastOp = iota
	// CanCast evaluates to whether the conversion
	// would succeed.
	CanCast
	// CanLosslessCast additionally requires the round
	// trip back to the source type to preserve
	// equality.
	CanLosslessCast
)

func (c CastOp) String() string {
	switch c {
	case CastValue:
		return "CAST"
	case CanCast:
		return "CAN_CAST"
	default:
		return "CAN_LOSSLESS_CAST"
	}
}

// Cast is a member of the cast family:
//
//	CAST(From AS To)
type Cast struct {
	Op   CastOp
	From Node
	To   Type
}

func (c *Cast) text(dst *strings.Builder) {
	dst.WriteString(c.Op.String())
	dst.WriteByte('(')
	c.From.text(dst)
	dst.WriteString(" AS ")
	c.To.text(dst)
	dst.WriteByte(')')
}

func (c *Cast) Equals(x Node) bool {
	c2, ok := x.(*Cast)
	return ok && c.Op == c2.Op && c.To.Equals(c2.To) &&
		c.From.Equals(c2.From)
}

func (c *Cast) walk(v Visitor) {
	Walk(v, c.From)
}

func (c *Cast) rewrite(r Rewriter) Node {
	c.From = Rewrite(r, c.From)
	return c
}

// Timepart is a component of a timestamp
type Timepart int

const (
	Year Timepart = iota
	Month
	Day
	Hour
	Minute
	Second
	TimezoneHour
	TimezoneMinute
)

func (t Timepart) String() string {
	switch t {
	case Year:
		return "YEAR"
	case Month:
		return "MONTH"
	case Day:
		return "DAY"
	case Hour:
		return "HOUR"
	case Minute:
		return "MINUTE"
	case Second:
		return "SECOND"
	case TimezoneHour:
		return "TIMEZONE_HOUR"
	default:
		return "TIMEZONE_MINUTE"
	}
}

// Extract is EXTRACT(Part FROM From)
type Extract struct {
	Part Timepart
	From Node
}

func (e *Extract) text(dst *strings.Builder) {
	dst.WriteString("EXTRACT(")
	dst.WriteString(e.Part.String())
	dst.WriteString(" FROM ")
	e.From.text(dst)
	dst.WriteByte(')')
}

func (e *Extract) Equals(x Node) bool {
	e2, ok := x.(*Extract)
	return ok && e.Part == e2.Part && e.From.Equals(e2.From)
}

func (e *Extract) walk(v Visitor) {
	Walk(v, e.From)
}

func (e *Extract) rewrite(r Rewriter) Node {
	e.From = Rewrite(r, e.From)
	return e
}

// SetOp is a bag set operation
type SetOp int

const (
	UnionOp SetOp = iota
	IntersectOp
	ExceptOp
)

func (s SetOp) String() string {
	switch s {
	case UnionOp:
		return "UNION"
	case IntersectOp:
		return "INTERSECT"
	default:
		return "EXCEPT"
	}
}

// SetOpExpr combines two queries or collections with a
// bag set operation.
type SetOpExpr struct {
	Op          SetOp
	All         bool
	Left, Right Node
}

func (s *SetOpExpr) text(dst *strings.Builder) {
	dst.WriteByte('(')
	s.Left.text(dst)
	dst.WriteByte(' ')
	dst.WriteString(s.Op.String())
	if s.All {
		dst.WriteString(" ALL")
	}
	dst.WriteByte(' ')
	s.Right.text(dst)
	dst.WriteByte(')')
}

func (s *SetOpExpr) Equals(x Node) bool {
	s2, ok := x.(*SetOpExpr)
	return ok && s.Op == s2.Op && s.All == s2.All &&
		s.Left.Equals(s2.Left) && s.Right.Equals(s2.Right)
}

func (s *SetOpExpr) walk(v Visitor) {
	Walk(v, s.Left)
	Walk(v, s.Right)
}

func (s *SetOpExpr) rewrite(r Rewriter) Node {
	s.Left = Rewrite(r, s.Left)
	s.Right = Rewrite(r, s.Right)
	return s
}
