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

package eval

import (
	"testing"

	"github.com/cockroachdb/apd/v3"

	"github.com/SnellerInc/partiql/ast"
	"github.com/SnellerInc/partiql/diag"
	"github.com/SnellerInc/partiql/env"
	"github.com/SnellerInc/partiql/value"
)

func run(t *testing.T, s ast.Statement, e env.Env, opts Options) (value.Value, error) {
	t.Helper()
	p, err := Compile(s, opts)
	if err != nil {
		t.Fatalf("compile %s: %v", ast.ToString(s), err)
	}
	return p.Eval(e)
}

// mustEval evaluates a single expression as a query body
// and fails the test on any error.
func mustEval(t *testing.T, n ast.Node, e env.Env, opts Options) value.Value {
	t.Helper()
	v, err := run(t, &ast.Query{Body: n}, e, opts)
	if err != nil {
		t.Fatalf("eval %s: %v", ast.ToString(n), err)
	}
	return v
}

// evalErr evaluates n expecting a diagnostic with the
// given code.
func evalErr(t *testing.T, n ast.Node, e env.Env, opts Options, code diag.Code) {
	t.Helper()
	_, err := run(t, &ast.Query{Body: n}, e, opts)
	if err == nil {
		t.Fatalf("eval %s: no error, want %s", ast.ToString(n), code)
	}
	if !diag.Is(err, code) {
		t.Fatalf("eval %s: got %v, want code %s", ast.ToString(n), err, code)
	}
}

func checkValue(t *testing.T, got, want value.Value) {
	t.Helper()
	if !value.Equal(got, want) {
		t.Errorf("got %s, want %s", value.ToString(got), value.ToString(want))
	}
}

func path(first string, rest ...string) ast.Node {
	var e ast.Node = ast.Id(first)
	for _, f := range rest {
		e = &ast.Dot{Inner: e, Field: f}
	}
	return e
}

func fld(name string, v value.Value) value.Field {
	return value.Field{Name: name, Value: v}
}

func row(fields ...value.Field) *value.Struct {
	return value.NewStruct(fields)
}

func dec(t *testing.T, s string) value.Value {
	t.Helper()
	var d apd.Decimal
	if _, _, err := d.SetString(s); err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return value.NewDecimal(&d)
}

// fieldOf looks up a field of a struct result by exact
// name.
func fieldOf(t *testing.T, v value.Value, name string) value.Value {
	t.Helper()
	s, ok := v.(*value.Struct)
	if !ok {
		t.Fatalf("not a struct: %s", value.ToString(v))
	}
	f, ok, _ := s.FieldByName(name, true)
	if !ok {
		t.Fatalf("no field %q in %s", name, value.ToString(v))
	}
	return f
}

func bind1(name string, v value.Value) *env.Bindings {
	var b env.Bindings
	b.Bind(name, v)
	return &b
}

func TestCompileRejects(t *testing.T) {
	// static checks run at compile time, before any data
	// is seen
	_, err := Compile(&ast.Query{Body: &ast.Coalesce{}}, Options{})
	if err == nil {
		t.Fatal("compiled an empty COALESCE")
	}
	if !diag.Is(err, diag.ArityMismatch) {
		t.Errorf("got %v, want ARITY_MISMATCH", err)
	}
}

func TestUnboundVariable(t *testing.T) {
	evalErr(t, ast.Id("nope"), env.Empty, Options{}, diag.UnboundVariable)
	got := mustEval(t, ast.Id("nope"), env.Empty, Options{Mode: Permissive})
	checkValue(t, got, value.Missing{})
}

func TestCaseSensitiveOption(t *testing.T) {
	e := bind1("Tbl", value.Int(7))
	got := mustEval(t, ast.Id("tbl"), e, Options{})
	checkValue(t, got, value.Int(7))
	evalErr(t, ast.Id("tbl"), e, Options{CaseSensitive: true}, diag.UnboundVariable)
	got = mustEval(t, ast.Id("Tbl"), e, Options{CaseSensitive: true})
	checkValue(t, got, value.Int(7))
}

func TestPlanReuse(t *testing.T) {
	p, err := Compile(&ast.Query{Body: ast.Add(ast.Id("x"), ast.Integer(1))}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	for i := int64(0); i < 3; i++ {
		got, err := p.Eval(bind1("x", value.Int(i)))
		if err != nil {
			t.Fatal(err)
		}
		checkValue(t, got, value.Int(i+1))
	}
}
