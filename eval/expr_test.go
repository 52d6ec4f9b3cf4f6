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
	"math"
	"testing"

	"github.com/SnellerInc/partiql/ast"
	"github.com/SnellerInc/partiql/diag"
	"github.com/SnellerInc/partiql/env"
	"github.com/SnellerInc/partiql/value"
)

func TestLogical3VL(t *testing.T) {
	testcases := []struct {
		expr ast.Node
		want value.Value
	}{
		{ast.And(ast.Bool(true), ast.Bool(true)), value.Bool(true)},
		{ast.And(ast.Bool(true), ast.Bool(false)), value.Bool(false)},
		// FALSE dominates even against unknowns
		{ast.And(ast.Bool(false), ast.Null{}), value.Bool(false)},
		{ast.And(ast.Null{}, ast.Bool(false)), value.Bool(false)},
		{ast.And(ast.Bool(true), ast.Null{}), value.Null{}},
		{ast.And(ast.Missing{}, ast.Bool(true)), value.Null{}},
		{ast.And(ast.Null{}, ast.Missing{}), value.Null{}},
		{ast.Or(ast.Bool(false), ast.Bool(true)), value.Bool(true)},
		// TRUE dominates even against unknowns
		{ast.Or(ast.Null{}, ast.Bool(true)), value.Bool(true)},
		{ast.Or(ast.Bool(false), ast.Null{}), value.Null{}},
		{ast.Or(ast.Bool(false), ast.Bool(false)), value.Bool(false)},
		{ast.Or(ast.Missing{}, ast.Missing{}), value.Null{}},
		{&ast.Not{Expr: ast.Bool(true)}, value.Bool(false)},
		{&ast.Not{Expr: ast.Bool(false)}, value.Bool(true)},
		{&ast.Not{Expr: ast.Null{}}, value.Null{}},
		// NOT MISSING is NULL, not MISSING
		{&ast.Not{Expr: ast.Missing{}}, value.Null{}},
	}
	for i := range testcases {
		got := mustEval(t, testcases[i].expr, env.Empty, Options{})
		if !value.Equal(got, testcases[i].want) {
			t.Errorf("case %d (%s): got %s, want %s", i,
				ast.ToString(testcases[i].expr),
				value.ToString(got), value.ToString(testcases[i].want))
		}
	}
}

func TestLogicalShortCircuit(t *testing.T) {
	// the dominating left operand suppresses evaluation of
	// the right, including its errors
	div := ast.Div(ast.Integer(1), ast.Integer(0))
	got := mustEval(t, ast.And(ast.Bool(false), div), env.Empty, Options{})
	checkValue(t, got, value.Bool(false))
	got = mustEval(t, ast.Or(ast.Bool(true), div), env.Empty, Options{})
	checkValue(t, got, value.Bool(true))
	evalErr(t, ast.And(ast.Bool(true), div), env.Empty, Options{}, diag.DivideByZero)
}

func TestLogicalOperandKinds(t *testing.T) {
	e := ast.And(ast.Integer(1), ast.Bool(true))
	evalErr(t, e, env.Empty, Options{}, diag.TypeMismatch)
	// permissive treats a non-boolean operand as unknown
	got := mustEval(t, e, env.Empty, Options{Mode: Permissive})
	checkValue(t, got, value.Null{})
}

func TestComparisons(t *testing.T) {
	testcases := []struct {
		expr ast.Node
		want value.Value
	}{
		{ast.Compare(ast.Less, ast.Integer(1), ast.Integer(2)), value.Bool(true)},
		{ast.Compare(ast.GreaterEquals, ast.Integer(2), ast.Integer(2)), value.Bool(true)},
		{ast.Compare(ast.Equals, ast.Integer(1), ast.Float(1.0)), value.Bool(true)},
		{ast.Compare(ast.NotEquals, ast.Integer(1), ast.Float(1.5)), value.Bool(true)},
		{ast.Compare(ast.Less, ast.String("a"), ast.String("b")), value.Bool(true)},
		// cross-class comparisons are NULL, not errors
		{ast.Compare(ast.Equals, ast.String("1"), ast.Integer(1)), value.Null{}},
		{ast.Compare(ast.Less, ast.Bool(true), ast.Integer(1)), value.Null{}},
		// unknown propagation, MISSING before NULL
		{ast.Compare(ast.Equals, ast.Null{}, ast.Integer(1)), value.Null{}},
		{ast.Compare(ast.Equals, ast.Null{}, ast.Missing{}), value.Missing{}},
	}
	for i := range testcases {
		got := mustEval(t, testcases[i].expr, env.Empty, Options{})
		if !value.Equal(got, testcases[i].want) {
			t.Errorf("case %d (%s): got %s, want %s", i,
				ast.ToString(testcases[i].expr),
				value.ToString(got), value.ToString(testcases[i].want))
		}
	}
}

func TestBetween(t *testing.T) {
	testcases := []struct {
		expr ast.Node
		want value.Value
	}{
		{&ast.Between{Expr: ast.Integer(5), Lo: ast.Integer(1), Hi: ast.Integer(9)}, value.Bool(true)},
		{&ast.Between{Expr: ast.Integer(0), Lo: ast.Integer(1), Hi: ast.Integer(9)}, value.Bool(false)},
		// one decidable FALSE bound decides the conjunction
		{&ast.Between{Expr: ast.Integer(5), Lo: ast.Integer(9), Hi: ast.String("x")}, value.Bool(false)},
		// an undecidable bound leaves the result NULL
		{&ast.Between{Expr: ast.Integer(5), Lo: ast.Integer(1), Hi: ast.String("x")}, value.Null{}},
		{&ast.Between{Expr: ast.Integer(5), Lo: ast.Null{}, Hi: ast.Integer(9)}, value.Null{}},
		{&ast.Between{Expr: ast.Missing{}, Lo: ast.Integer(1), Hi: ast.Integer(9)}, value.Missing{}},
	}
	for i := range testcases {
		got := mustEval(t, testcases[i].expr, env.Empty, Options{})
		if !value.Equal(got, testcases[i].want) {
			t.Errorf("case %d (%s): got %s, want %s", i,
				ast.ToString(testcases[i].expr),
				value.ToString(got), value.ToString(testcases[i].want))
		}
	}
}

func TestIn(t *testing.T) {
	list := func(items ...ast.Node) ast.Node {
		return &ast.ListCtor{Items: items}
	}
	testcases := []struct {
		expr ast.Node
		want value.Value
	}{
		{&ast.In{Left: ast.Integer(2), Right: list(ast.Integer(1), ast.Integer(2))}, value.Bool(true)},
		{&ast.In{Left: ast.Integer(5), Right: list(ast.Integer(1), ast.Integer(2))}, value.Bool(false)},
		// a NULL member makes a miss undecidable
		{&ast.In{Left: ast.Integer(5), Right: list(ast.Integer(1), ast.Null{})}, value.Null{}},
		// ...but a hit is still a hit
		{&ast.In{Left: ast.Integer(1), Right: list(ast.Null{}, ast.Integer(1))}, value.Bool(true)},
		{&ast.In{Left: ast.Null{}, Right: list(ast.Integer(1))}, value.Null{}},
		// numeric members match across representations
		{&ast.In{Left: ast.Integer(2), Right: list(ast.Float(2.0))}, value.Bool(true)},
	}
	for i := range testcases {
		got := mustEval(t, testcases[i].expr, env.Empty, Options{})
		if !value.Equal(got, testcases[i].want) {
			t.Errorf("case %d (%s): got %s, want %s", i,
				ast.ToString(testcases[i].expr),
				value.ToString(got), value.ToString(testcases[i].want))
		}
	}
	// a non-container right-hand side is a structural error
	bad := &ast.In{Left: ast.Integer(1), Right: ast.Integer(2)}
	evalErr(t, bad, env.Empty, Options{}, diag.NotAContainer)
	got := mustEval(t, bad, env.Empty, Options{Mode: Permissive})
	checkValue(t, got, value.Missing{})
}

func TestIs(t *testing.T) {
	testcases := []struct {
		expr ast.Node
		want bool
	}{
		{&ast.Is{Expr: ast.Missing{}, T: ast.MissingType}, true},
		// MISSING satisfies IS NULL
		{&ast.Is{Expr: ast.Missing{}, T: ast.NullType}, true},
		{&ast.Is{Expr: ast.Null{}, T: ast.NullType}, true},
		{&ast.Is{Expr: ast.Null{}, T: ast.MissingType}, false},
		{&ast.Is{Expr: ast.Integer(3), T: ast.IntegerType}, true},
		{&ast.Is{Expr: ast.Integer(3), T: ast.StringType}, false},
		{&ast.Is{Expr: ast.Integer(3), T: ast.NullType}, false},
		{&ast.Is{Expr: ast.Null{}, T: ast.NullType, Negated: true}, false},
		{&ast.Is{Expr: ast.String("s"), T: ast.IntegerType, Negated: true}, true},
		// NULL and MISSING satisfy no concrete type
		{&ast.Is{Expr: ast.Null{}, T: ast.IntegerType}, false},
		{&ast.Is{Expr: ast.Integer(3), T: ast.AnyType}, true},
	}
	for i := range testcases {
		got := mustEval(t, testcases[i].expr, env.Empty, Options{})
		if !value.Equal(got, value.Bool(testcases[i].want)) {
			t.Errorf("case %d (%s): got %s, want %v", i,
				ast.ToString(testcases[i].expr),
				value.ToString(got), testcases[i].want)
		}
	}
}

func TestCase(t *testing.T) {
	searched := &ast.Case{
		Limbs: []ast.CaseLimb{
			{When: ast.Compare(ast.Less, ast.Id("x"), ast.Integer(0)), Then: ast.String("neg")},
			{When: ast.Compare(ast.Equals, ast.Id("x"), ast.Integer(0)), Then: ast.String("zero")},
		},
		Else: ast.String("pos"),
	}
	for _, tc := range []struct {
		x    int64
		want string
	}{
		{-1, "neg"},
		{0, "zero"},
		{5, "pos"},
	} {
		got := mustEval(t, searched, bind1("x", value.Int(tc.x)), Options{})
		checkValue(t, got, value.String(tc.want))
	}

	simple := &ast.Case{
		Operand: ast.Id("x"),
		Limbs: []ast.CaseLimb{
			{When: ast.Integer(1), Then: ast.String("one")},
		},
	}
	got := mustEval(t, simple, bind1("x", value.Int(1)), Options{})
	checkValue(t, got, value.String("one"))
	// no matching limb and no ELSE yields NULL
	got = mustEval(t, simple, bind1("x", value.Int(2)), Options{})
	checkValue(t, got, value.Null{})
	// a NULL operand never matches a concrete limb
	got = mustEval(t, simple, bind1("x", value.Null{}), Options{})
	checkValue(t, got, value.Null{})
}

func TestCoalesceNullIf(t *testing.T) {
	got := mustEval(t, &ast.Coalesce{Args: []ast.Node{ast.Null{}, ast.Missing{}, ast.Integer(3)}}, env.Empty, Options{})
	checkValue(t, got, value.Int(3))
	got = mustEval(t, &ast.Coalesce{Args: []ast.Node{ast.Null{}, ast.Missing{}}}, env.Empty, Options{})
	checkValue(t, got, value.Null{})

	got = mustEval(t, &ast.NullIf{Left: ast.Integer(3), Right: ast.Integer(3)}, env.Empty, Options{})
	checkValue(t, got, value.Null{})
	got = mustEval(t, &ast.NullIf{Left: ast.Integer(3), Right: ast.Integer(4)}, env.Empty, Options{})
	checkValue(t, got, value.Int(3))
	got = mustEval(t, &ast.NullIf{Left: ast.Integer(3), Right: ast.Missing{}}, env.Empty, Options{})
	checkValue(t, got, value.Missing{})
}

func TestPaths(t *testing.T) {
	e := bind1("t", row(
		fld("a", row(fld("b", value.Int(1)))),
		fld("list", value.NewList(value.Int(10), value.Int(20))),
	))
	got := mustEval(t, path("t", "a", "b"), e, Options{})
	checkValue(t, got, value.Int(1))
	// an absent field is MISSING, not an error
	got = mustEval(t, path("t", "nope"), e, Options{})
	checkValue(t, got, value.Missing{})
	// navigation through MISSING stays MISSING
	got = mustEval(t, path("t", "nope", "deeper"), e, Options{})
	checkValue(t, got, value.Missing{})

	got = mustEval(t, &ast.Index{Inner: path("t", "list"), Offset: ast.Integer(1)}, e, Options{})
	checkValue(t, got, value.Int(20))
	got = mustEval(t, &ast.Index{Inner: path("t", "list"), Offset: ast.Integer(9)}, e, Options{})
	checkValue(t, got, value.Missing{})
	// a non-integer index is a type error
	bad := &ast.Index{Inner: path("t", "list"), Offset: ast.String("x")}
	evalErr(t, bad, e, Options{}, diag.TypeMismatch)
	got = mustEval(t, bad, e, Options{Mode: Permissive})
	checkValue(t, got, value.Missing{})
}

func TestWildcardPaths(t *testing.T) {
	e := bind1("t", value.NewList(
		row(fld("a", value.Int(1))),
		row(fld("b", value.Int(2))),
		row(fld("a", value.Int(3))),
	))
	// t[*].a maps the field step over the elements,
	// dropping MISSING results
	got := mustEval(t, &ast.Dot{Inner: &ast.AllElements{Inner: ast.Id("t")}, Field: "a"}, e, Options{})
	checkValue(t, got, value.NewBag(value.Int(1), value.Int(3)))

	// s.* is the bag of field values
	se := bind1("s", row(fld("x", value.Int(1)), fld("y", value.Int(2))))
	got = mustEval(t, &ast.AllFields{Inner: ast.Id("s")}, se, Options{})
	checkValue(t, got, value.NewBag(value.Int(1), value.Int(2)))

	// wildcards over NULL and MISSING are MISSING
	got = mustEval(t, &ast.AllElements{Inner: ast.Null{}}, env.Empty, Options{})
	checkValue(t, got, value.Missing{})

	// ...but over a scalar they are structural errors
	bad := &ast.AllElements{Inner: ast.Integer(3)}
	evalErr(t, bad, env.Empty, Options{}, diag.NotAContainer)
	got = mustEval(t, bad, env.Empty, Options{Mode: Permissive})
	checkValue(t, got, value.Missing{})
}

func TestAmbiguousField(t *testing.T) {
	e := bind1("t", row(
		fld("Name", value.Int(1)),
		fld("name", value.Int(2)),
	))
	// two distinct spellings fold together: ambiguous, and
	// never downgraded
	evalErr(t, path("t", "nAME"), e, Options{}, diag.AmbiguousBinding)
	evalErr(t, path("t", "nAME"), e, Options{Mode: Permissive}, diag.AmbiguousBinding)
	// an exact-spelling reference is fine
	got := mustEval(t, &ast.Dot{Inner: ast.Id("t"), Field: "name", Sensitive: true}, e, Options{})
	checkValue(t, got, value.Int(2))
}

func TestConstructors(t *testing.T) {
	// MISSING values elide struct pairs
	ctor := &ast.StructCtor{Fields: []ast.StructField{
		{Name: ast.String("a"), Value: ast.Integer(1)},
		{Name: ast.String("b"), Value: ast.Missing{}},
		{Name: ast.Missing{}, Value: ast.Integer(3)},
	}}
	got := mustEval(t, ctor, env.Empty, Options{})
	checkValue(t, got, row(fld("a", value.Int(1))))

	// ...but lists and bags keep them as elements
	got = mustEval(t, &ast.ListCtor{Items: []ast.Node{ast.Integer(1), ast.Missing{}}}, env.Empty, Options{})
	checkValue(t, got, value.NewList(value.Int(1), value.Missing{}))

	// a non-text field name is a type error, or a dropped
	// pair in permissive mode
	bad := &ast.StructCtor{Fields: []ast.StructField{
		{Name: ast.Integer(1), Value: ast.Integer(2)},
	}}
	evalErr(t, bad, env.Empty, Options{}, diag.TypeMismatch)
	got = mustEval(t, bad, env.Empty, Options{Mode: Permissive})
	checkValue(t, got, row())

	got = mustEval(t, &ast.SexpCtor{Items: []ast.Node{ast.Symbol("head"), ast.Integer(1)}}, env.Empty, Options{})
	checkValue(t, got, value.NewSexp(value.Symbol("head"), value.Int(1)))
}

func TestLike(t *testing.T) {
	like := func(s, pat string) ast.Node {
		return &ast.Like{Expr: ast.String(s), Pattern: ast.String(pat)}
	}
	testcases := []struct {
		expr ast.Node
		want value.Value
	}{
		{like("abc", "abc"), value.Bool(true)},
		{like("abc", "a%"), value.Bool(true)},
		{like("abc", "%c"), value.Bool(true)},
		{like("abc", "_b_"), value.Bool(true)},
		{like("abc", "_b"), value.Bool(false)},
		{like("", "%"), value.Bool(true)},
		{like("abc", "a%%c"), value.Bool(true)},
		{&ast.Like{Expr: ast.String("a%b"), Pattern: ast.String("a!%b"), Escape: ast.String("!")}, value.Bool(true)},
		{&ast.Like{Expr: ast.String("axb"), Pattern: ast.String("a!%b"), Escape: ast.String("!")}, value.Bool(false)},
		{&ast.Like{Expr: ast.Null{}, Pattern: ast.String("a%")}, value.Null{}},
		{&ast.Like{Expr: ast.String("a"), Pattern: ast.Missing{}}, value.Missing{}},
	}
	for i := range testcases {
		got := mustEval(t, testcases[i].expr, env.Empty, Options{})
		if !value.Equal(got, testcases[i].want) {
			t.Errorf("case %d (%s): got %s, want %s", i,
				ast.ToString(testcases[i].expr),
				value.ToString(got), value.ToString(testcases[i].want))
		}
	}
	evalErr(t, &ast.Like{Expr: ast.Integer(1), Pattern: ast.String("a")},
		env.Empty, Options{}, diag.TypeMismatch)
}

func TestArithmetic(t *testing.T) {
	testcases := []struct {
		expr ast.Node
		want value.Value
	}{
		{ast.Add(ast.Integer(2), ast.Integer(3)), value.Int(5)},
		{ast.Sub(ast.Integer(2), ast.Integer(3)), value.Int(-1)},
		{ast.Mul(ast.Integer(6), ast.Integer(7)), value.Int(42)},
		{ast.Div(ast.Integer(7), ast.Integer(2)), value.Int(3)},
		{ast.Mod(ast.Integer(7), ast.Integer(2)), value.Int(1)},
		{ast.Mod(ast.Integer(math.MinInt64), ast.Integer(-1)), value.Int(0)},
		// a float operand contaminates to float
		{ast.Add(ast.Integer(2), ast.Float(1.5)), value.Float(3.5)},
		{ast.Div(ast.Integer(7), ast.Float(2)), value.Float(3.5)},
		// MISSING wins over NULL
		{ast.Add(ast.Null{}, ast.Integer(1)), value.Null{}},
		{ast.Add(ast.Null{}, ast.Missing{}), value.Missing{}},
	}
	for i := range testcases {
		got := mustEval(t, testcases[i].expr, env.Empty, Options{})
		if !value.Equal(got, testcases[i].want) {
			t.Errorf("case %d (%s): got %s, want %s", i,
				ast.ToString(testcases[i].expr),
				value.ToString(got), value.ToString(testcases[i].want))
		}
	}
}

func TestDecimalArithmetic(t *testing.T) {
	lhs, err := ast.ParseDecimal("1.10")
	if err != nil {
		t.Fatal(err)
	}
	rhs, err := ast.ParseDecimal("2.2")
	if err != nil {
		t.Fatal(err)
	}
	got := mustEval(t, ast.Add(lhs, rhs), env.Empty, Options{})
	checkValue(t, got, dec(t, "3.3"))
	// int/decimal stays exact
	got = mustEval(t, ast.Mul(ast.Integer(3), lhs), env.Empty, Options{})
	checkValue(t, got, dec(t, "3.30"))
	evalErr(t, ast.Div(lhs, ast.Integer(0)), env.Empty, Options{}, diag.DivideByZero)
}

func TestArithmeticErrors(t *testing.T) {
	// domain errors are never downgraded in permissive mode
	for _, opts := range []Options{{}, {Mode: Permissive}} {
		evalErr(t, ast.Div(ast.Integer(1), ast.Integer(0)), env.Empty, opts, diag.DivideByZero)
		evalErr(t, ast.Mod(ast.Integer(1), ast.Integer(0)), env.Empty, opts, diag.DivideByZero)
		evalErr(t, ast.Div(ast.Float(1), ast.Float(0)), env.Empty, opts, diag.DivideByZero)
		evalErr(t, ast.Add(ast.Integer(math.MaxInt64), ast.Integer(1)), env.Empty, opts, diag.NumericOverflow)
		evalErr(t, ast.Sub(ast.Integer(math.MinInt64), ast.Integer(1)), env.Empty, opts, diag.NumericOverflow)
		evalErr(t, ast.Mul(ast.Integer(math.MaxInt64), ast.Integer(2)), env.Empty, opts, diag.NumericOverflow)
		evalErr(t, ast.Div(ast.Integer(math.MinInt64), ast.Integer(-1)), env.Empty, opts, diag.NumericOverflow)
		evalErr(t, ast.Neg(ast.Integer(math.MinInt64)), env.Empty, opts, diag.NumericOverflow)
	}
	// type errors are downgraded
	bad := ast.Add(ast.String("x"), ast.Integer(1))
	evalErr(t, bad, env.Empty, Options{}, diag.TypeMismatch)
	got := mustEval(t, bad, env.Empty, Options{Mode: Permissive})
	checkValue(t, got, value.Missing{})
}

func TestConcat(t *testing.T) {
	got := mustEval(t, ast.Concat(ast.String("foo"), ast.String("bar")), env.Empty, Options{})
	checkValue(t, got, value.String("foobar"))
	// symbols are text too
	got = mustEval(t, ast.Concat(ast.Symbol("a"), ast.String("b")), env.Empty, Options{})
	checkValue(t, got, value.String("ab"))
	got = mustEval(t, ast.Concat(ast.String("a"), ast.Null{}), env.Empty, Options{})
	checkValue(t, got, value.Null{})
	evalErr(t, ast.Concat(ast.String("a"), ast.Integer(1)), env.Empty, Options{}, diag.TypeMismatch)
}

func TestUnaryArith(t *testing.T) {
	got := mustEval(t, ast.Neg(ast.Id("x")), bind1("x", value.Int(3)), Options{})
	checkValue(t, got, value.Int(-3))
	got = mustEval(t, ast.Neg(ast.Id("x")), bind1("x", value.Float(1.5)), Options{})
	checkValue(t, got, value.Float(-1.5))
	got = mustEval(t, &ast.UnaryArith{Op: ast.PosOp, Child: ast.Id("x")}, bind1("x", value.Int(3)), Options{})
	checkValue(t, got, value.Int(3))
	got = mustEval(t, ast.Neg(ast.Id("x")), bind1("x", value.Missing{}), Options{})
	checkValue(t, got, value.Missing{})
	evalErr(t, ast.Neg(ast.String("x")), env.Empty, Options{}, diag.TypeMismatch)
}

func TestSetOpExpr(t *testing.T) {
	bag := func(items ...ast.Node) ast.Node {
		return &ast.BagCtor{Items: items}
	}
	ab := bag(ast.Integer(1), ast.Integer(2), ast.Integer(2))
	cd := bag(ast.Integer(2), ast.Integer(3))
	testcases := []struct {
		expr ast.Node
		want value.Value
	}{
		{
			&ast.SetOpExpr{Op: ast.UnionOp, All: true, Left: ab, Right: cd},
			value.NewBag(value.Int(1), value.Int(2), value.Int(2), value.Int(2), value.Int(3)),
		},
		{
			&ast.SetOpExpr{Op: ast.UnionOp, Left: ab, Right: cd},
			value.NewBag(value.Int(1), value.Int(2), value.Int(3)),
		},
		{
			// INTERSECT ALL keeps the minimum multiplicity
			&ast.SetOpExpr{Op: ast.IntersectOp, All: true, Left: ab, Right: cd},
			value.NewBag(value.Int(2)),
		},
		{
			&ast.SetOpExpr{Op: ast.ExceptOp, All: true, Left: ab, Right: cd},
			value.NewBag(value.Int(1), value.Int(2)),
		},
		{
			&ast.SetOpExpr{Op: ast.ExceptOp, Left: ab, Right: cd},
			value.NewBag(value.Int(1), value.Int(2)),
		},
	}
	for i := range testcases {
		got := mustEval(t, testcases[i].expr, env.Empty, Options{})
		if !value.Equal(got, testcases[i].want) {
			t.Errorf("case %d (%s): got %s, want %s", i,
				ast.ToString(testcases[i].expr),
				value.ToString(got), value.ToString(testcases[i].want))
		}
	}
	evalErr(t, &ast.SetOpExpr{Op: ast.UnionOp, Left: ast.Integer(1), Right: ab},
		env.Empty, Options{}, diag.NotAContainer)
}
