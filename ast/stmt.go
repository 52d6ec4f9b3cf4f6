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

// Statement is the top-level node variant set:
// queries, DML, DDL, and EXEC.
type Statement interface {
	Node
	stmt()
}

func (q *Query) stmt()       {}
func (e *Exec) stmt()        {}
func (i *Insert) stmt()      {}
func (i *InsertValue) stmt() {}
func (u *UpdateSet) stmt()   {}
func (u *Remove) stmt()      {}
func (d *Delete) stmt()      {}
func (c *CreateTable) stmt() {}
func (d *DropTable) stmt()   {}
func (c *CreateIndex) stmt() {}
func (d *DropIndex) stmt()   {}

// Query is a bare query expression statement,
// typically a *Select.
type Query struct {
	Body Node
}

func (q *Query) text(dst *strings.Builder) {
	if s, ok := q.Body.(*Select); ok {
		dst.WriteString(s.Text())
		return
	}
	q.Body.text(dst)
}

func (q *Query) Equals(x Node) bool {
	q2, ok := x.(*Query)
	return ok && q.Body.Equals(q2.Body)
}

func (q *Query) walk(v Visitor) {
	Walk(v, q.Body)
}

func (q *Query) rewrite(r Rewriter) Node {
	q.Body = Rewrite(r, q.Body)
	return q
}

// Exec is EXEC procedure(args...)
type Exec struct {
	Procedure string
	Args      []Node
}

func (e *Exec) text(dst *strings.Builder) {
	dst.WriteString("EXEC ")
	dst.WriteString(e.Procedure)
	if len(e.Args) > 0 {
		dst.WriteByte(' ')
		for i := range e.Args {
			if i > 0 {
				dst.WriteString(", ")
			}
			e.Args[i].text(dst)
		}
	}
}

func (e *Exec) Equals(x Node) bool {
	e2, ok := x.(*Exec)
	return ok && e.Procedure == e2.Procedure &&
		slices.EqualFunc(e.Args, e2.Args, Node.Equals)
}

func (e *Exec) walk(v Visitor) {
	for i := range e.Args {
		Walk(v, e.Args[i])
	}
}

func (e *Exec) rewrite(r Rewriter) Node {
	for i := range e.Args {
		e.Args[i] = Rewrite(r, e.Args[i])
	}
	return e
}

// ReturningMapping selects which row images a
// RETURNING clause surfaces per mutation.
type ReturningMapping int

const (
	// ModifiedNew yields the post-mutation image of
	// rows the mutation touched
	ModifiedNew ReturningMapping = iota
	// ModifiedOld yields the pre-mutation image of
	// rows the mutation touched
	ModifiedOld
	// AllNew yields the post-mutation image of every
	// row in the target
	AllNew
	// AllOld yields the pre-mutation image of every
	// row in the target
	AllOld
)

func (m ReturningMapping) String() string {
	switch m {
	case ModifiedNew:
		return "MODIFIED NEW"
	case ModifiedOld:
		return "MODIFIED OLD"
	case AllNew:
		return "ALL NEW"
	case AllOld:
		return "ALL OLD"
	}
	return ""
}

// ReturningElem is one element of a RETURNING clause:
// a mapping plus a column expression, or a whole-row
// wildcard when Column is Star{}.
type ReturningElem struct {
	Mapping ReturningMapping
	Column  Node
}

// Returning is the RETURNING clause of a DML statement.
type Returning struct {
	Elems []ReturningElem
}

func (r *Returning) text(dst *strings.Builder) {
	dst.WriteString(" RETURNING ")
	for i := range r.Elems {
		if i > 0 {
			dst.WriteString(", ")
		}
		dst.WriteString(r.Elems[i].Mapping.String())
		dst.WriteByte(' ')
		r.Elems[i].Column.text(dst)
	}
}

func (r *Returning) equal(o *Returning) bool {
	if (r == nil) != (o == nil) {
		return false
	}
	if r == nil {
		return true
	}
	return slices.EqualFunc(r.Elems, o.Elems, func(a, b ReturningElem) bool {
		return a.Mapping == b.Mapping && a.Column.Equals(b.Column)
	})
}

func (r *Returning) walk(v Visitor) {
	if r == nil {
		return
	}
	for i := range r.Elems {
		Walk(v, r.Elems[i].Column)
	}
}

func (r *Returning) rewriteIn(rw Rewriter) {
	if r == nil {
		return
	}
	for i := range r.Elems {
		r.Elems[i].Column = Rewrite(rw, r.Elems[i].Column)
	}
}

// Insert is the bulk form:
//
//	INSERT INTO target source [RETURNING ...]
//
// where source evaluates to a collection whose
// elements are appended to the target.
type Insert struct {
	Target    Node
	Source    Node
	Returning *Returning
}

func (i *Insert) text(dst *strings.Builder) {
	dst.WriteString("INSERT INTO ")
	i.Target.text(dst)
	dst.WriteByte(' ')
	i.Source.text(dst)
	if i.Returning != nil {
		i.Returning.text(dst)
	}
}

func (i *Insert) Equals(x Node) bool {
	i2, ok := x.(*Insert)
	return ok && i.Target.Equals(i2.Target) &&
		i.Source.Equals(i2.Source) &&
		i.Returning.equal(i2.Returning)
}

func (i *Insert) walk(v Visitor) {
	Walk(v, i.Target)
	Walk(v, i.Source)
	i.Returning.walk(v)
}

func (i *Insert) rewrite(r Rewriter) Node {
	i.Target = Rewrite(r, i.Target)
	i.Source = Rewrite(r, i.Source)
	i.Returning.rewriteIn(r)
	return i
}

// ConflictAction is the action of an
// ON CONFLICT clause.
type ConflictAction int

const (
	// NoConflictClause means no ON CONFLICT
	// clause is present; a conflict is an error.
	NoConflictClause ConflictAction = iota
	// DoNothing drops the conflicting insert
	// without raising an error.
	DoNothing
)

// InsertValue is the single-value form:
//
//	INSERT INTO target VALUE v [AT index]
//	  [ON CONFLICT WHERE cond DO NOTHING] [RETURNING ...]
type InsertValue struct {
	Target Node
	Value  Node
	// At, if non-nil, is the list position or
	// struct key to insert at.
	At Node
	// Where, if non-nil, is the ON CONFLICT condition;
	// it requires OnConflict != NoConflictClause.
	Where      Node
	OnConflict ConflictAction
	Returning  *Returning
}

func (i *InsertValue) text(dst *strings.Builder) {
	dst.WriteString("INSERT INTO ")
	i.Target.text(dst)
	dst.WriteString(" VALUE ")
	i.Value.text(dst)
	if i.At != nil {
		dst.WriteString(" AT ")
		i.At.text(dst)
	}
	if i.OnConflict == DoNothing {
		dst.WriteString(" ON CONFLICT")
		if i.Where != nil {
			dst.WriteString(" WHERE ")
			i.Where.text(dst)
		}
		dst.WriteString(" DO NOTHING")
	}
	if i.Returning != nil {
		i.Returning.text(dst)
	}
}

func (i *InsertValue) Equals(x Node) bool {
	i2, ok := x.(*InsertValue)
	return ok && i.OnConflict == i2.OnConflict &&
		i.Target.Equals(i2.Target) &&
		i.Value.Equals(i2.Value) &&
		Equal(i.At, i2.At) &&
		Equal(i.Where, i2.Where) &&
		i.Returning.equal(i2.Returning)
}

func (i *InsertValue) walk(v Visitor) {
	Walk(v, i.Target)
	Walk(v, i.Value)
	if i.At != nil {
		Walk(v, i.At)
	}
	if i.Where != nil {
		Walk(v, i.Where)
	}
	i.Returning.walk(v)
}

func (i *InsertValue) rewrite(r Rewriter) Node {
	i.Target = Rewrite(r, i.Target)
	i.Value = Rewrite(r, i.Value)
	i.At = Rewrite(r, i.At)
	i.Where = Rewrite(r, i.Where)
	i.Returning.rewriteIn(r)
	return i
}

// Assignment is one SET target = value pair.
type Assignment struct {
	Target Node // a path
	Value  Node
}

// UpdateSet is UPDATE target SET assignments [WHERE cond].
type UpdateSet struct {
	Target      Binding
	Assignments []Assignment
	Where       Node
	Returning   *Returning
}

func (u *UpdateSet) text(dst *strings.Builder) {
	dst.WriteString("UPDATE ")
	u.Target.text(dst)
	dst.WriteString(" SET ")
	for i := range u.Assignments {
		if i > 0 {
			dst.WriteString(", ")
		}
		u.Assignments[i].Target.text(dst)
		dst.WriteString(" = ")
		u.Assignments[i].Value.text(dst)
	}
	if u.Where != nil {
		dst.WriteString(" WHERE ")
		u.Where.text(dst)
	}
	if u.Returning != nil {
		u.Returning.text(dst)
	}
}

func (u *UpdateSet) Equals(x Node) bool {
	u2, ok := x.(*UpdateSet)
	return ok && u.Target.Equals(u2.Target) &&
		Equal(u.Where, u2.Where) &&
		u.Returning.equal(u2.Returning) &&
		slices.EqualFunc(u.Assignments, u2.Assignments, func(a, b Assignment) bool {
			return a.Target.Equals(b.Target) && a.Value.Equals(b.Value)
		})
}

func (u *UpdateSet) walk(v Visitor) {
	walkbind(v, &u.Target)
	for i := range u.Assignments {
		Walk(v, u.Assignments[i].Target)
		Walk(v, u.Assignments[i].Value)
	}
	if u.Where != nil {
		Walk(v, u.Where)
	}
	u.Returning.walk(v)
}

func (u *UpdateSet) rewrite(r Rewriter) Node {
	u.Target = rewritebind(r, &u.Target)
	for i := range u.Assignments {
		u.Assignments[i].Target = Rewrite(r, u.Assignments[i].Target)
		u.Assignments[i].Value = Rewrite(r, u.Assignments[i].Value)
	}
	u.Where = Rewrite(r, u.Where)
	u.Returning.rewriteIn(r)
	return u
}

// Remove is REMOVE path: delete the value a
// path names from its enclosing container.
type Remove struct {
	Target Node
}

func (u *Remove) text(dst *strings.Builder) {
	dst.WriteString("REMOVE ")
	u.Target.text(dst)
}

func (u *Remove) Equals(x Node) bool {
	u2, ok := x.(*Remove)
	return ok && u.Target.Equals(u2.Target)
}

func (u *Remove) walk(v Visitor) {
	Walk(v, u.Target)
}

func (u *Remove) rewrite(r Rewriter) Node {
	u.Target = Rewrite(r, u.Target)
	return u
}

// Delete is DELETE FROM target [WHERE cond]:
// remove the elements of target for which the
// condition is true.
type Delete struct {
	Target    Binding
	Where     Node
	Returning *Returning
}

func (d *Delete) text(dst *strings.Builder) {
	dst.WriteString("DELETE FROM ")
	d.Target.text(dst)
	if d.Where != nil {
		dst.WriteString(" WHERE ")
		d.Where.text(dst)
	}
	if d.Returning != nil {
		d.Returning.text(dst)
	}
}

func (d *Delete) Equals(x Node) bool {
	d2, ok := x.(*Delete)
	return ok && d.Target.Equals(d2.Target) &&
		Equal(d.Where, d2.Where) &&
		d.Returning.equal(d2.Returning)
}

func (d *Delete) walk(v Visitor) {
	walkbind(v, &d.Target)
	if d.Where != nil {
		Walk(v, d.Where)
	}
	d.Returning.walk(v)
}

func (d *Delete) rewrite(r Rewriter) Node {
	d.Target = rewritebind(r, &d.Target)
	d.Where = Rewrite(r, d.Where)
	d.Returning.rewriteIn(r)
	return d
}

// CreateTable is CREATE TABLE name.
type CreateTable struct {
	Name string
}

func (c *CreateTable) text(dst *strings.Builder) {
	dst.WriteString("CREATE TABLE ")
	dst.WriteString(c.Name)
}

func (c *CreateTable) Equals(x Node) bool {
	c2, ok := x.(*CreateTable)
	return ok && c.Name == c2.Name
}

func (c *CreateTable) walk(v Visitor) {}

// DropTable is DROP TABLE name.
type DropTable struct {
	Name string
}

func (d *DropTable) text(dst *strings.Builder) {
	dst.WriteString("DROP TABLE ")
	dst.WriteString(d.Name)
}

func (d *DropTable) Equals(x Node) bool {
	d2, ok := x.(*DropTable)
	return ok && d.Name == d2.Name
}

func (d *DropTable) walk(v Visitor) {}

// CreateIndex is CREATE INDEX ON table (keys...).
// The index itself is anonymous; storage layers
// name it after the key list.
type CreateIndex struct {
	Table string
	Keys  []Node // paths into the table's elements
}

func (c *CreateIndex) text(dst *strings.Builder) {
	dst.WriteString("CREATE INDEX ON ")
	dst.WriteString(c.Table)
	dst.WriteString(" (")
	for i := range c.Keys {
		if i > 0 {
			dst.WriteString(", ")
		}
		c.Keys[i].text(dst)
	}
	dst.WriteByte(')')
}

func (c *CreateIndex) Equals(x Node) bool {
	c2, ok := x.(*CreateIndex)
	return ok && c.Table == c2.Table &&
		slices.EqualFunc(c.Keys, c2.Keys, Node.Equals)
}

func (c *CreateIndex) walk(v Visitor) {
	for i := range c.Keys {
		Walk(v, c.Keys[i])
	}
}

func (c *CreateIndex) rewrite(r Rewriter) Node {
	for i := range c.Keys {
		c.Keys[i] = Rewrite(r, c.Keys[i])
	}
	return c
}

// DropIndex is DROP INDEX name ON table.
type DropIndex struct {
	Table string
	Name  string
}

func (d *DropIndex) text(dst *strings.Builder) {
	dst.WriteString("DROP INDEX ")
	dst.WriteString(d.Name)
	dst.WriteString(" ON ")
	dst.WriteString(d.Table)
}

func (d *DropIndex) Equals(x Node) bool {
	d2, ok := x.(*DropIndex)
	return ok && d.Table == d2.Table && d.Name == d2.Name
}

func (d *DropIndex) walk(v Visitor) {}
