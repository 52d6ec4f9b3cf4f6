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

// Package env implements name resolution over the value
// model: the binding environments that queries evaluate
// against and the scoping rules for FROM-introduced
// bindings.
package env

import (
	"strings"

	"github.com/SnellerInc/partiql/value"
)

// Sensitivity selects how a Name matches binding names.
type Sensitivity uint8

const (
	// Insensitive matches names by case folding.
	Insensitive Sensitivity = iota
	// Sensitive requires an exact match.
	Sensitive
)

// Name is a binding name plus its match sensitivity.
type Name struct {
	Text        string
	Sensitivity Sensitivity
}

// Qualifier controls the resolution order of a variable
// reference inside a FROM-introduced scope.
type Qualifier uint8

const (
	// Unqualified checks the enclosing scope before
	// FROM-clause locals.
	Unqualified Qualifier = iota
	// LocalsFirst checks FROM-clause locals before the
	// enclosing scope (the @identifier form).
	LocalsFirst
)

// Env resolves binding names to values. A failed
// resolution is not an error; the evaluator decides
// whether an unbound name is fatal.
type Env interface {
	Resolve(n Name, q Qualifier) (value.Value, bool)
}

// Empty is the environment with no bindings.
var Empty Env = emptyEnv{}

type emptyEnv struct{}

func (emptyEnv) Resolve(Name, Qualifier) (value.Value, bool) { return nil, false }

// Wrap returns an environment backed by the fields of s.
// Lookup order and case handling follow
// value.Struct.FieldByName; an ambiguous
// case-insensitive match resolves to the first field in
// struct order.
func Wrap(s *value.Struct) Env {
	return structEnv{s}
}

type structEnv struct {
	s *value.Struct
}

func (e structEnv) Resolve(n Name, _ Qualifier) (value.Value, bool) {
	v, ok, _ := e.s.FieldByName(n.Text, n.Sensitivity == Sensitive)
	return v, ok
}

// Bindings is a mutable map-backed environment used to
// assemble the caller's global bindings.
type Bindings struct {
	fields []value.Field
}

// Bind adds name=v to b, shadowing any previous binding
// with the same exact name.
func (b *Bindings) Bind(name string, v value.Value) {
	for i := range b.fields {
		if b.fields[i].Name == name {
			b.fields[i].Value = v
			return
		}
	}
	b.fields = append(b.fields, value.Field{Name: name, Value: v})
}

func (b *Bindings) Resolve(n Name, _ Qualifier) (value.Value, bool) {
	if n.Sensitivity == Sensitive {
		for i := range b.fields {
			if b.fields[i].Name == n.Text {
				return b.fields[i].Value, true
			}
		}
		return nil, false
	}
	s := value.NewStruct(b.fields)
	v, ok, _ := s.FieldByName(n.Text, false)
	return v, ok
}

// Scope is a local binding frame chained onto an outer
// environment. FromClause marks scopes introduced by a
// FROM clause; only those scopes invert resolution
// order for Unqualified references.
type Scope struct {
	Outer      Env
	FromClause bool

	names []string
	vals  []value.Value
}

// NewScope returns an empty scope over outer.
func NewScope(outer Env, fromClause bool) *Scope {
	return &Scope{Outer: outer, FromClause: fromClause}
}

// Bind adds name=v to the local frame.
func (s *Scope) Bind(name string, v value.Value) {
	s.names = append(s.names, name)
	s.vals = append(s.vals, v)
}

// Names returns the locally bound names in insertion
// order.
func (s *Scope) Names() []string { return s.names }

// Fields returns the local bindings as value fields in
// insertion order. The result aliases the scope's
// values; callers must not mutate them.
func (s *Scope) Fields() []value.Field {
	out := make([]value.Field, len(s.names))
	for i := range s.names {
		out[i] = value.Field{Name: s.names[i], Value: s.vals[i]}
	}
	return out
}

// Local resolves n against the local frame only.
func (s *Scope) Local(n Name) (value.Value, bool) {
	if n.Sensitivity == Sensitive {
		for i := range s.names {
			if s.names[i] == n.Text {
				return s.vals[i], true
			}
		}
		return nil, false
	}
	for i := range s.names {
		if strings.EqualFold(s.names[i], n.Text) {
			return s.vals[i], true
		}
	}
	return nil, false
}

func (s *Scope) Resolve(n Name, q Qualifier) (value.Value, bool) {
	if s.FromClause && q == Unqualified {
		if s.Outer != nil {
			if v, ok := s.Outer.Resolve(n, q); ok {
				return v, ok
			}
		}
		return s.Local(n)
	}
	if v, ok := s.Local(n); ok {
		return v, ok
	}
	if s.Outer == nil {
		return nil, false
	}
	return s.Outer.Resolve(n, q)
}
