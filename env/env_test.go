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

package env

import (
	"testing"

	"github.com/SnellerInc/partiql/value"
)

func insens(name string) Name { return Name{Text: name} }

func sens(name string) Name {
	return Name{Text: name, Sensitivity: Sensitive}
}

func TestBindings(t *testing.T) {
	var b Bindings
	b.Bind("x", value.Int(1))
	b.Bind("Y", value.Int(2))
	b.Bind("x", value.Int(3)) // shadows the first x

	if v, ok := b.Resolve(insens("x"), Unqualified); !ok || v != value.Int(3) {
		t.Errorf("x = %v, %v", v, ok)
	}
	if v, ok := b.Resolve(insens("y"), Unqualified); !ok || v != value.Int(2) {
		t.Errorf("y = %v, %v", v, ok)
	}
	if _, ok := b.Resolve(sens("y"), Unqualified); ok {
		t.Error("exact match found for y")
	}
	if v, ok := b.Resolve(sens("Y"), Unqualified); !ok || v != value.Int(2) {
		t.Errorf("Y = %v, %v", v, ok)
	}
	if _, ok := b.Resolve(insens("z"), Unqualified); ok {
		t.Error("resolved unbound name")
	}
}

func TestScopeResolutionOrder(t *testing.T) {
	var outer Bindings
	outer.Bind("t", value.String("global"))

	// a FROM-introduced scope that also binds t
	from := NewScope(&outer, true)
	from.Bind("t", value.String("local"))

	// unqualified references prefer the enclosing scope
	if v, _ := from.Resolve(insens("t"), Unqualified); v != value.String("global") {
		t.Errorf("unqualified t = %s", value.ToString(v))
	}
	// @t prefers FROM-clause locals
	if v, _ := from.Resolve(insens("t"), LocalsFirst); v != value.String("local") {
		t.Errorf("@t = %s", value.ToString(v))
	}
	// names bound only locally still resolve unqualified
	from.Bind("u", value.Int(7))
	if v, ok := from.Resolve(insens("u"), Unqualified); !ok || v != value.Int(7) {
		t.Errorf("u = %v, %v", v, ok)
	}
}

func TestNonFromScope(t *testing.T) {
	var outer Bindings
	outer.Bind("t", value.String("global"))

	// LET-style scopes resolve locals first regardless of
	// qualifier
	let := NewScope(&outer, false)
	let.Bind("t", value.String("let"))
	if v, _ := let.Resolve(insens("t"), Unqualified); v != value.String("let") {
		t.Errorf("t = %s", value.ToString(v))
	}
	if v, _ := let.Resolve(insens("t"), LocalsFirst); v != value.String("let") {
		t.Errorf("@t = %s", value.ToString(v))
	}
}

func TestScopeChaining(t *testing.T) {
	var outer Bindings
	outer.Bind("a", value.Int(1))
	s1 := NewScope(&outer, true)
	s1.Bind("b", value.Int(2))
	s2 := NewScope(s1, true)
	s2.Bind("c", value.Int(3))

	for _, tc := range []struct {
		name string
		want value.Value
	}{
		{"a", value.Int(1)},
		{"b", value.Int(2)},
		{"c", value.Int(3)},
	} {
		if v, ok := s2.Resolve(insens(tc.name), Unqualified); !ok || v != tc.want {
			t.Errorf("%s = %v, %v", tc.name, v, ok)
		}
	}
	if _, ok := s2.Resolve(insens("d"), Unqualified); ok {
		t.Error("resolved unbound name")
	}
}

func TestScopeFields(t *testing.T) {
	s := NewScope(Empty, true)
	s.Bind("x", value.Int(1))
	s.Bind("y", value.String("two"))
	fields := s.Fields()
	if len(fields) != 2 || fields[0].Name != "x" || fields[1].Name != "y" {
		t.Fatalf("fields = %v", fields)
	}
	if fields[1].Value != value.String("two") {
		t.Errorf("y = %s", value.ToString(fields[1].Value))
	}
}

func TestWrap(t *testing.T) {
	s := value.NewStruct([]value.Field{
		{Name: "Name", Value: value.String("n")},
		{Name: "name", Value: value.String("exact")},
	})
	e := Wrap(s)
	// case-insensitive resolution takes the first match in
	// struct order
	if v, _ := e.Resolve(insens("NAME"), Unqualified); v != value.String("n") {
		t.Errorf("NAME = %s", value.ToString(v))
	}
	if v, _ := e.Resolve(sens("name"), Unqualified); v != value.String("exact") {
		t.Errorf("name = %s", value.ToString(v))
	}
	if _, ok := e.Resolve(sens("NAMe"), Unqualified); ok {
		t.Error("exact match found for NAMe")
	}
}
