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

// Binding is an expression bound to an output name.
type Binding struct {
	Expr Node
	// this is set/computed lazily
	as       string
	explicit bool
}

// Bind creates a binding from an expression
// and an output binding name
func Bind(e Node, as string) Binding {
	return Binding{Expr: e, as: as, explicit: as != ""}
}

// As sets the binding result of b
// to x. If x is the empty string,
// then the binding is reset to
// the default value for this expression.
func (b *Binding) As(x string) {
	b.as = x
	b.explicit = x != ""
}

// Explicit returns whether the variable binding
// is explicit, or whether the output variable is
// determined implicitly due to the form on the left-hand-side
func (b *Binding) Explicit() bool {
	return b.explicit
}

// Result returns the name of
// the result that the binding outputs.
//
// Note that Result is "" for expressions
// that do not have an obvious automatic name
// and have not had a name explicitly added
// via Binding.As.
func (b *Binding) Result() string {
	if b.as != "" {
		return b.as
	}
	b.as = b.result()
	return b.as
}

func (b *Binding) result() string {
	switch e := b.Expr.(type) {
	case *Aggregate:
		return e.Op.defaultResult()
	default:
		return PathBinding(b.Expr)
	}
}

func (b *Binding) text(dst *strings.Builder) {
	b.Expr.text(dst)
	if b.explicit {
		dst.WriteString(" AS ")
		dst.WriteString(b.Result())
	}
}

func (b Binding) Equals(o Binding) bool {
	return b.Result() == o.Result() && b.Expr.Equals(o.Expr)
}

func walkbind(v Visitor, b *Binding) {
	Walk(v, b.Expr)
}

func rewritebind(r Rewriter, b *Binding) Binding {
	b.Expr = Rewrite(r, b.Expr)
	return *b
}

func fmtbindings(lst []Binding, dst *strings.Builder) {
	for i := range lst {
		if i > 0 {
			dst.WriteString(", ")
		}
		lst[i].text(dst)
	}
}

type JoinKind int

const (
	NoJoin JoinKind = iota
	InnerJoin
	LeftJoin
	RightJoin
	FullJoin
	CrossJoin
)

func (j JoinKind) String() string {
	switch j {
	default:
		return ""
	case InnerJoin:
		return "JOIN"
	case LeftJoin:
		return "LEFT JOIN"
	case RightJoin:
		return "RIGHT JOIN"
	case FullJoin:
		return "FULL JOIN"
	case CrossJoin:
		return "CROSS JOIN"
	}
}

// From is a FROM clause source
type From interface {
	// Tables returns the list of
	// table bindings created in
	// the FROM clause
	Tables() []Binding
	Node
}

// Table is an implementation of From that scans a
// single collection expression, binding each element
// to the As alias, its ordinal or key to At, and a
// unique element id to By.
type Table struct {
	Binding
	// At, if non-empty, binds the element ordinal
	// (lists) or field name (unpivoted structs).
	At string
	// By, if non-empty, binds a unique element id.
	By string
}

func (t *Table) Tables() []Binding {
	out := []Binding{t.Binding}
	if t.At != "" {
		out = append(out, Bind(Id(t.At), t.At))
	}
	if t.By != "" {
		out = append(out, Bind(Id(t.By), t.By))
	}
	return out
}

func (t *Table) text(dst *strings.Builder) {
	t.Binding.text(dst)
	if t.At != "" {
		dst.WriteString(" AT ")
		dst.WriteString(t.At)
	}
	if t.By != "" {
		dst.WriteString(" BY ")
		dst.WriteString(t.By)
	}
}

func (t *Table) Equals(x Node) bool {
	t2, ok := x.(*Table)
	return ok && t.At == t2.At && t.By == t2.By &&
		t.Binding.Equals(t2.Binding)
}

func (t *Table) walk(v Visitor) {
	walkbind(v, &t.Binding)
}

func (t *Table) rewrite(r Rewriter) Node {
	t.Binding = rewritebind(r, &t.Binding)
	return t
}

// Unpivot is an implementation of From that iterates
// the field/value pairs of a struct expression, binding
// each value to As and its field name to At.
type Unpivot struct {
	Binding
	At string
}

func (u *Unpivot) Tables() []Binding {
	out := []Binding{u.Binding}
	if u.At != "" {
		out = append(out, Bind(Id(u.At), u.At))
	}
	return out
}

func (u *Unpivot) text(dst *strings.Builder) {
	dst.WriteString("UNPIVOT ")
	u.Binding.text(dst)
	if u.At != "" {
		dst.WriteString(" AT ")
		dst.WriteString(u.At)
	}
}

func (u *Unpivot) Equals(x Node) bool {
	u2, ok := x.(*Unpivot)
	return ok && u.At == u2.At && u.Binding.Equals(u2.Binding)
}

func (u *Unpivot) walk(v Visitor) {
	walkbind(v, &u.Binding)
}

func (u *Unpivot) rewrite(r Rewriter) Node {
	u.Binding = rewritebind(r, &u.Binding)
	return u
}

// Join is an implementation of From
// that joins two From clauses
type Join struct {
	Kind        JoinKind
	On          Node // nil for CROSS JOIN
	Left, Right From
}

func (j *Join) Tables() []Binding {
	return append(j.Left.Tables(), j.Right.Tables()...)
}

func (j *Join) walk(v Visitor) {
	Walk(v, j.Left)
	Walk(v, j.Right)
	if j.On != nil {
		Walk(v, j.On)
	}
}

func (j *Join) rewrite(r Rewriter) Node {
	j.Left = Rewrite(r, j.Left).(From)
	j.Right = Rewrite(r, j.Right).(From)
	j.On = Rewrite(r, j.On)
	return j
}

func (j *Join) Equals(x Node) bool {
	xj, ok := x.(*Join)
	if !ok || xj.Kind != j.Kind {
		return false
	}
	if !Equal(j.On, xj.On) {
		return false
	}
	return j.Left.Equals(xj.Left) && j.Right.Equals(xj.Right)
}

func (j *Join) text(dst *strings.Builder) {
	j.Left.text(dst)
	dst.WriteByte(' ')
	dst.WriteString(j.Kind.String())
	dst.WriteByte(' ')
	j.Right.text(dst)
	if j.On != nil {
		dst.WriteString(" ON ")
		j.On.text(dst)
	}
}

// Order is a single ORDER BY key. NULL and MISSING sort
// before every other value on an ascending key and
// after every other value on a descending one.
type Order struct {
	Expr Node
	Desc bool
}

func (o *Order) text(dst *strings.Builder) {
	o.Expr.text(dst)
	if o.Desc {
		dst.WriteString(" DESC")
	} else {
		dst.WriteString(" ASC")
	}
}

func (o Order) Equals(x Order) bool {
	return o.Desc == x.Desc && o.Expr.Equals(x.Expr)
}

// Pivot is the PIVOT projection:
//
//	PIVOT Value AT Key
//
// emitting one struct whose fields are the per-row
// (Key, Value) results.
type Pivot struct {
	Value, Key Node
}

// GroupingMode selects full (standard) or partial
// grouping.
type GroupingMode int

const (
	// GroupFull places every input row in exactly one
	// group.
	GroupFull GroupingMode = iota
	// GroupPartial is unaggregated grouping used only
	// to support a literal group-row alias.
	GroupPartial
)

// Select is an SFW query expression.
//
// Exactly one of Star, Value, PivotExpr, or Columns
// describes the projection.
type Select struct {
	// DISTINCT presence
	Distinct bool
	// Star is the SELECT * projection, flattening
	// every aliased binding of the row
	Star bool
	// Value, if non-nil, is the SELECT VALUE projection
	Value Node
	// PivotExpr, if non-nil, is the PIVOT projection
	PivotExpr *Pivot
	// Columns is the SELECT list
	Columns []Binding
	// FROM clause
	From From
	// LET bindings, or nil
	Let []Binding
	// WHERE clause
	Where Node
	// GROUP BY clauses, or nil
	GroupBy []Binding
	// Grouping selects full or partial grouping
	Grouping GroupingMode
	// GROUP AS alias, or ""
	GroupAs string
	// HAVING clause, or nil
	Having Node
	// ORDER BY clauses, or nil
	OrderBy []Order
	// LIMIT expression when non-nil
	Limit Node
	// OFFSET expression when non-nil
	Offset Node
}

func (s *Select) walk(v Visitor) {
	// walking happens in binding order:
	// from -> let -> where -> groupby -> having -> select -> orderby -> limit
	if s.From != nil {
		Walk(v, s.From)
	}
	for i := range s.Let {
		walkbind(v, &s.Let[i])
	}
	if s.Where != nil {
		Walk(v, s.Where)
	}
	for i := range s.GroupBy {
		walkbind(v, &s.GroupBy[i])
	}
	if s.Having != nil {
		Walk(v, s.Having)
	}
	if s.Value != nil {
		Walk(v, s.Value)
	}
	if s.PivotExpr != nil {
		Walk(v, s.PivotExpr.Key)
		Walk(v, s.PivotExpr.Value)
	}
	for i := range s.Columns {
		walkbind(v, &s.Columns[i])
	}
	for i := range s.OrderBy {
		Walk(v, s.OrderBy[i].Expr)
	}
	if s.Limit != nil {
		Walk(v, s.Limit)
	}
	if s.Offset != nil {
		Walk(v, s.Offset)
	}
}

func (s *Select) rewrite(r Rewriter) Node {
	// FROM gets rewritten first so that
	// any variable bindings get introduced
	// in the right order
	if s.From != nil {
		s.From = Rewrite(r, s.From).(From)
	}
	for i := range s.Let {
		s.Let[i] = rewritebind(r, &s.Let[i])
	}
	s.Where = Rewrite(r, s.Where)
	for i := range s.GroupBy {
		s.GroupBy[i] = rewritebind(r, &s.GroupBy[i])
	}
	s.Having = Rewrite(r, s.Having)
	s.Value = Rewrite(r, s.Value)
	if s.PivotExpr != nil {
		s.PivotExpr.Key = Rewrite(r, s.PivotExpr.Key)
		s.PivotExpr.Value = Rewrite(r, s.PivotExpr.Value)
	}
	for i := range s.Columns {
		s.Columns[i] = rewritebind(r, &s.Columns[i])
	}
	for i := range s.OrderBy {
		s.OrderBy[i].Expr = Rewrite(r, s.OrderBy[i].Expr)
	}
	s.Limit = Rewrite(r, s.Limit)
	s.Offset = Rewrite(r, s.Offset)
	return s
}

// Tables implements From.Tables
func (s *Select) Tables() []Binding {
	if s.From == nil {
		return nil
	}
	return s.From.Tables()
}

func (s *Select) Equals(x Node) bool {
	xs, ok := x.(*Select)
	if !ok ||
		s.Distinct != xs.Distinct ||
		s.Star != xs.Star ||
		s.Grouping != xs.Grouping ||
		s.GroupAs != xs.GroupAs ||
		(s.From == nil) != (xs.From == nil) ||
		(s.PivotExpr == nil) != (xs.PivotExpr == nil) {
		return false
	}
	if !Equal(s.Value, xs.Value) ||
		!Equal(s.Where, xs.Where) ||
		!Equal(s.Having, xs.Having) ||
		!Equal(s.Limit, xs.Limit) ||
		!Equal(s.Offset, xs.Offset) {
		return false
	}
	if s.From != nil && !s.From.Equals(xs.From) {
		return false
	}
	if s.PivotExpr != nil &&
		(!s.PivotExpr.Key.Equals(xs.PivotExpr.Key) ||
			!s.PivotExpr.Value.Equals(xs.PivotExpr.Value)) {
		return false
	}
	return slices.EqualFunc(s.Columns, xs.Columns, Binding.Equals) &&
		slices.EqualFunc(s.Let, xs.Let, Binding.Equals) &&
		slices.EqualFunc(s.GroupBy, xs.GroupBy, Binding.Equals) &&
		slices.EqualFunc(s.OrderBy, xs.OrderBy, Order.Equals)
}

func (s *Select) text(dst *strings.Builder) {
	dst.WriteByte('(')
	s.write(dst)
	dst.WriteByte(')')
}

// Text is like ToString(s), but it
// does not insert parentheses around
// the query.
func (s *Select) Text() string {
	var dst strings.Builder
	s.write(&dst)
	return dst.String()
}

func (s *Select) write(dst *strings.Builder) {
	switch {
	case s.PivotExpr != nil:
		dst.WriteString("PIVOT ")
		s.PivotExpr.Value.text(dst)
		dst.WriteString(" AT ")
		s.PivotExpr.Key.text(dst)
	default:
		dst.WriteString("SELECT ")
		if s.Distinct {
			dst.WriteString("DISTINCT ")
		}
		switch {
		case s.Star:
			dst.WriteByte('*')
		case s.Value != nil:
			dst.WriteString("VALUE ")
			s.Value.text(dst)
		default:
			fmtbindings(s.Columns, dst)
		}
	}
	if s.From != nil {
		dst.WriteString(" FROM ")
		s.From.text(dst)
	}
	if len(s.Let) > 0 {
		dst.WriteString(" LET ")
		fmtbindings(s.Let, dst)
	}
	if s.Where != nil {
		dst.WriteString(" WHERE ")
		s.Where.text(dst)
	}
	if len(s.GroupBy) > 0 {
		if s.Grouping == GroupPartial {
			dst.WriteString(" GROUP PARTIAL BY ")
		} else {
			dst.WriteString(" GROUP BY ")
		}
		fmtbindings(s.GroupBy, dst)
		if s.GroupAs != "" {
			dst.WriteString(" GROUP AS ")
			dst.WriteString(s.GroupAs)
		}
	}
	if s.Having != nil {
		dst.WriteString(" HAVING ")
		s.Having.text(dst)
	}
	if len(s.OrderBy) > 0 {
		dst.WriteString(" ORDER BY ")
		for i := range s.OrderBy {
			if i > 0 {
				dst.WriteString(", ")
			}
			s.OrderBy[i].text(dst)
		}
	}
	if s.Limit != nil {
		dst.WriteString(" LIMIT ")
		s.Limit.text(dst)
	}
	if s.Offset != nil {
		dst.WriteString(" OFFSET ")
		s.Offset.text(dst)
	}
}
