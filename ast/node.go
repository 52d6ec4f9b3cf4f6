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

// Package ast implements the closed abstract syntax
// model for query statements, expressions, and types.
// The AST is pure data: nodes are constructed by a
// parser (or by hand in tests), are immutable once
// built, and form a finite tree that is safe for
// unrestricted recursive traversal.
package ast

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cockroachdb/apd/v3"

	"github.com/SnellerInc/partiql/date"
)

// Visitor is an interface that must
// be satisfied by the argument to Visit.
//
// A Visitor's Visit method is invoked for each node encountered by Walk. If
// the result visitor w is not nil, Walk visits each of the children of node
// with the visitor w, followed by a call of w.Visit(nil).
//
// (see also: ast.Visitor)
type Visitor interface {
	Visit(Node) Visitor
}

// Rewriter accepts a Node and returns
// a new node (or just its argument)
type Rewriter interface {
	// Rewrite is applied to nodes
	// in depth-first order, and each
	// node is re-written to use the
	// returned value.
	Rewrite(Node) Node

	// Walk is called during node traversal
	// and the returned Rewriter is used for
	// all the children of Node.
	// If the returned rewriter is nil,
	// then traversal does not proceed past Node.
	Walk(Node) Rewriter
}

type nonleaf interface {
	rewrite(r Rewriter) Node
}

// Rewrite recursively applies a Rewriter in depth-first order.
//
// Every rewrite pass is total and structure-preserving:
// a pass that does not recognize a node still recurses
// into its children and reconstructs the same variant,
// so no subtree is ever silently dropped.
func Rewrite(r Rewriter, n Node) Node {
	if n == nil {
		return nil
	}
	nl, ok := n.(nonleaf)
	if ok {
		rc := r.Walk(n)
		if rc != nil {
			n = nl.rewrite(rc)
		}
	}
	n = r.Rewrite(n)
	return n
}

// Walk traverses an AST in depth-first order: It starts by calling
// v.Visit(node); node must not be nil. If the visitor w returned by
// v.Visit(node) is not nil, Walk is invoked recursively with visitor w for
// each of the non-nil children of node, followed by a call of w.Visit(nil).
func Walk(v Visitor, n Node) {
	w := v.Visit(n)
	if w != nil {
		n.walk(w)
		w.Visit(nil)
	}
}

type Printable interface {
	// text writes the textual representation
	// of this node to dst
	text(dst *strings.Builder)
}

// Node is an AST node
type Node interface {
	Printable
	// Equals returns whether this node
	// is equivalent to another node.
	// Nodes are Equal if they are
	// syntactically equivalent or correspond
	// to equal numeric values.
	Equals(Node) bool

	walk(Visitor)
}

// ToString returns the string representation of this
// AST node and its children in approximately PartiQL
// syntax.
func ToString(p Printable) string {
	if p == nil {
		return "<nil>"
	}
	var dst strings.Builder
	p.text(&dst)
	return dst.String()
}

// Equal returns whether a and b are equivalent.
// a or b may be nil.
func Equal(a, b Node) bool {
	if a == nil {
		return b == nil
	}
	return b != nil && a.Equals(b)
}

// Bool is a literal boolean AST node
type Bool bool

func (b Bool) text(dst *strings.Builder) {
	if b {
		dst.WriteString("TRUE")
	} else {
		dst.WriteString("FALSE")
	}
}

func (b Bool) Equals(e Node) bool {
	eb, ok := e.(Bool)
	return ok && b == eb
}

func (b Bool) walk(v Visitor) {}

// String is a literal string AST node
type String string

func (s String) text(dst *strings.Builder) {
	dst.WriteString(strconv.Quote(string(s)))
}

func (s String) walk(v Visitor) {}

func (s String) Equals(e Node) bool {
	es, ok := e.(String)
	return ok && s == es
}

// Symbol is a literal interned-symbol AST node
type Symbol string

func (s Symbol) text(dst *strings.Builder) {
	dst.WriteByte('\'')
	dst.WriteString(string(s))
	dst.WriteByte('\'')
}

func (s Symbol) walk(v Visitor) {}

func (s Symbol) Equals(e Node) bool {
	es, ok := e.(Symbol)
	return ok && s == es
}

// Float is a literal float AST node
type Float float64

func (f Float) text(dst *strings.Builder) {
	var buf [32]byte
	dst.Write(strconv.AppendFloat(buf[:0], float64(f), 'g', -1, 64))
}

func (f Float) walk(v Visitor) {}

func (f Float) Equals(e Node) bool {
	switch e := e.(type) {
	case Float:
		return f == e
	case Integer:
		trunc := int64(f)
		return float64(trunc) == float64(f) && trunc == int64(e)
	case *Decimal:
		var d apd.Decimal
		if _, err := d.SetFloat64(float64(f)); err != nil {
			return false
		}
		return d.Cmp(e.dec()) == 0
	}
	return false
}

// Integer is a literal integer AST node
type Integer int64

func (i Integer) text(dst *strings.Builder) {
	var buf [32]byte
	dst.Write(strconv.AppendInt(buf[:0], int64(i), 10))
}

func (i Integer) walk(v Visitor) {}

func (i Integer) Equals(e Node) bool {
	switch e := e.(type) {
	case Integer:
		return i == e
	case Float:
		return e.Equals(i)
	case *Decimal:
		var d apd.Decimal
		d.SetInt64(int64(i))
		return d.Cmp(e.dec()) == 0
	}
	return false
}

// Decimal is a literal arbitrary-precision decimal AST
// node
type Decimal apd.Decimal

// ParseDecimal parses a decimal literal.
func ParseDecimal(s string) (*Decimal, error) {
	d, _, err := apd.NewFromString(s)
	if err != nil {
		return nil, err
	}
	return (*Decimal)(d), nil
}

func (d *Decimal) dec() *apd.Decimal { return (*apd.Decimal)(d) }

func (d *Decimal) text(dst *strings.Builder) {
	dst.WriteString(d.dec().String())
}

func (d *Decimal) walk(v Visitor) {}

func (d *Decimal) Equals(e Node) bool {
	switch e := e.(type) {
	case *Decimal:
		return d.dec().Cmp(e.dec()) == 0
	case Integer, Float:
		return e.Equals(d)
	}
	return false
}

// Null is the NULL literal
type Null struct{}

func (n Null) text(dst *strings.Builder) { dst.WriteString("NULL") }

func (n Null) walk(v Visitor) {}

func (n Null) Equals(e Node) bool {
	_, ok := e.(Null)
	return ok
}

// Missing represents the MISSING keyword
type Missing struct{}

func (m Missing) text(dst *strings.Builder) { dst.WriteString("MISSING") }

func (m Missing) walk(v Visitor) {}

func (m Missing) Equals(e Node) bool {
	_, ok := e.(Missing)
	return ok
}

// Timestamp is a literal timestamp AST node
type Timestamp struct {
	Value date.Time
}

func (t *Timestamp) text(dst *strings.Builder) {
	dst.WriteString("`")
	dst.WriteString(t.Value.String())
	dst.WriteString("`")
}

func (t *Timestamp) walk(v Visitor) {}

func (t *Timestamp) Equals(e Node) bool {
	et, ok := e.(*Timestamp)
	return ok && t.Value.Equal(et.Value)
}

// DateLit is a literal DATE AST node
type DateLit struct {
	Value date.Time
}

func (d *DateLit) text(dst *strings.Builder) {
	fmt.Fprintf(dst, "DATE '%04d-%02d-%02d'",
		d.Value.Year(), d.Value.Month(), d.Value.Day())
}

func (d *DateLit) walk(v Visitor) {}

func (d *DateLit) Equals(e Node) bool {
	ed, ok := e.(*DateLit)
	return ok && d.Value.Equal(ed.Value)
}

// TimeLit is a literal TIME AST node; Nanos is the
// offset from midnight.
type TimeLit struct {
	Nanos     int64
	Offset    int16
	HasOffset bool
}

func (t *TimeLit) text(dst *strings.Builder) {
	ns := t.Nanos
	fmt.Fprintf(dst, "TIME '%02d:%02d:%02d'",
		ns/3600e9, ns/60e9%60, ns/1e9%60)
}

func (t *TimeLit) walk(v Visitor) {}

func (t *TimeLit) Equals(e Node) bool {
	et, ok := e.(*TimeLit)
	return ok && *t == *et
}

// Ident is a variable reference
type Ident struct {
	// Name is the referenced binding name.
	Name string
	// Sensitive selects exact-match (quoted) rather
	// than case-folded resolution.
	Sensitive bool
	// Locals selects locals-first resolution (the
	// @identifier form); otherwise the enclosing scope
	// is checked before FROM-clause locals.
	Locals bool
}

// Id constructs an ordinary case-insensitive reference
// to name.
func Id(name string) *Ident {
	return &Ident{Name: name}
}

func (i *Ident) text(dst *strings.Builder) {
	if i.Locals {
		dst.WriteByte('@')
	}
	if i.Sensitive {
		dst.WriteByte('"')
		dst.WriteString(i.Name)
		dst.WriteByte('"')
		return
	}
	dst.WriteString(i.Name)
}

func (i *Ident) walk(v Visitor) {}

func (i *Ident) Equals(x Node) bool {
	i2, ok := x.(*Ident)
	return ok && *i == *i2
}

// Star is the bare '*' projection
type Star struct{}

func (s Star) text(dst *strings.Builder) { dst.WriteByte('*') }

func (s Star) walk(v Visitor) {}

func (s Star) Equals(e Node) bool {
	_, ok := e.(Star)
	return ok
}

// Dot represents the '.' path step, i.e.
//
//	Inner '.' Field
type Dot struct {
	Inner Node
	Field string
	// Sensitive selects exact-match field lookup.
	Sensitive bool
}

func (d *Dot) text(dst *strings.Builder) {
	d.Inner.text(dst)
	dst.WriteByte('.')
	if d.Sensitive {
		dst.WriteByte('"')
		dst.WriteString(d.Field)
		dst.WriteByte('"')
		return
	}
	dst.WriteString(d.Field)
}

func (d *Dot) Equals(x Node) bool {
	d2, ok := x.(*Dot)
	return ok && d2.Field == d.Field &&
		d2.Sensitive == d.Sensitive &&
		d.Inner.Equals(d2.Inner)
}

func (d *Dot) walk(v Visitor) {
	Walk(v, d.Inner)
}

func (d *Dot) rewrite(r Rewriter) Node {
	d.Inner = Rewrite(r, d.Inner)
	return d
}

// Index represents the '[...]' path step, i.e.
//
//	Inner '[' Offset ']'
type Index struct {
	Inner  Node
	Offset Node
}

func (i *Index) text(dst *strings.Builder) {
	i.Inner.text(dst)
	dst.WriteByte('[')
	i.Offset.text(dst)
	dst.WriteByte(']')
}

func (i *Index) Equals(x Node) bool {
	i2, ok := x.(*Index)
	return ok && i.Inner.Equals(i2.Inner) && i.Offset.Equals(i2.Offset)
}

func (i *Index) walk(v Visitor) {
	Walk(v, i.Inner)
	Walk(v, i.Offset)
}

func (i *Index) rewrite(r Rewriter) Node {
	i.Inner = Rewrite(r, i.Inner)
	i.Offset = Rewrite(r, i.Offset)
	return i
}

// AllElements is the '[*]' path step: it fans the
// current level out into the stream of its elements,
// over which the rest of the path continues.
type AllElements struct {
	Inner Node
}

func (a *AllElements) text(dst *strings.Builder) {
	a.Inner.text(dst)
	dst.WriteString("[*]")
}

func (a *AllElements) Equals(x Node) bool {
	a2, ok := x.(*AllElements)
	return ok && a.Inner.Equals(a2.Inner)
}

func (a *AllElements) walk(v Visitor) {
	Walk(v, a.Inner)
}

func (a *AllElements) rewrite(r Rewriter) Node {
	a.Inner = Rewrite(r, a.Inner)
	return a
}

// AllFields is the '.*' path step: it fans the current
// level out into the stream of its field values.
type AllFields struct {
	Inner Node
}

func (a *AllFields) text(dst *strings.Builder) {
	a.Inner.text(dst)
	dst.WriteString(".*")
}

func (a *AllFields) Equals(x Node) bool {
	a2, ok := x.(*AllFields)
	return ok && a.Inner.Equals(a2.Inner)
}

func (a *AllFields) walk(v Visitor) {
	Walk(v, a.Inner)
}

func (a *AllFields) rewrite(r Rewriter) Node {
	a.Inner = Rewrite(r, a.Inner)
	return a
}

// IsPath returns whether or not e is a path expression.
// A path expression is composed entirely of Ident, Dot,
// Index, and wildcard steps.
func IsPath(e Node) bool {
	switch t := e.(type) {
	case *Ident:
		return true
	case *Dot:
		return IsPath(t.Inner)
	case *Index:
		return IsPath(t.Inner)
	case *AllElements:
		return IsPath(t.Inner)
	case *AllFields:
		return IsPath(t.Inner)
	default:
		return false
	}
}

// PathBinding returns the name a path expression would
// implicitly bind to (its last named component), or "".
func PathBinding(e Node) string {
	switch t := e.(type) {
	case *Ident:
		return t.Name
	case *Dot:
		return t.Field
	case *Index:
		return PathBinding(t.Inner)
	}
	return ""
}
