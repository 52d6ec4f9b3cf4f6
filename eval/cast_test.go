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

	"github.com/SnellerInc/partiql/ast"
	"github.com/SnellerInc/partiql/date"
	"github.com/SnellerInc/partiql/diag"
	"github.com/SnellerInc/partiql/env"
	"github.com/SnellerInc/partiql/value"
)

func cast(from ast.Node, to ast.Type) *ast.Cast {
	return &ast.Cast{Op: ast.CastValue, From: from, To: to}
}

func TestCast(t *testing.T) {
	testcases := []struct {
		expr ast.Node
		want value.Value
	}{
		{cast(ast.String(" 42 "), ast.IntegerType), value.Int(42)},
		// float and decimal conversions truncate toward
		// zero
		{cast(ast.Float(3.9), ast.IntegerType), value.Int(3)},
		{cast(ast.Float(-3.9), ast.IntegerType), value.Int(-3)},
		{cast(ast.Bool(true), ast.IntegerType), value.Int(1)},
		{cast(ast.Integer(100), ast.SmallintType), value.Int(100)},
		{cast(ast.Integer(1), ast.BooleanType), value.Bool(true)},
		{cast(ast.Float(0), ast.BooleanType), value.Bool(false)},
		{cast(ast.String("True"), ast.BooleanType), value.Bool(true)},
		{cast(ast.Integer(42), ast.StringType), value.String("42")},
		{cast(ast.Float(1.5), ast.StringType), value.String("1.5")},
		{cast(ast.Bool(false), ast.StringType), value.String("false")},
		{cast(ast.Integer(3), ast.FloatType), value.Float(3)},
		{cast(ast.String("2.5"), ast.DoubleType), value.Float(2.5)},
		{cast(ast.String("sym"), ast.SymbolType), value.Symbol("sym")},
		{cast(ast.String("3.75"), ast.DecimalType{Precision: 10, Scale: 2}), dec(t, "3.75")},
		{cast(ast.Integer(7), ast.DecimalType{}), dec(t, "7")},
		// CHAR(n) truncates to the length limit
		{cast(ast.String("hello"), ast.CharType{Length: 2}), value.String("he")},
		{cast(ast.String("hello"), ast.VarcharType{Length: 4}), value.String("hell")},
		// NULL converts to a typed null equal to plain NULL
		{cast(ast.Null{}, ast.IntegerType), value.Null{}},
		{cast(ast.Missing{}, ast.IntegerType), value.Missing{}},
		{cast(ast.Missing{}, ast.NullType), value.Null{}},
		{
			cast(&ast.ListCtor{Items: []ast.Node{ast.Integer(1), ast.Integer(2)}}, ast.BagType),
			value.NewBag(value.Int(1), value.Int(2)),
		},
		{
			cast(&ast.BagCtor{Items: []ast.Node{ast.Integer(1)}}, ast.ListType),
			value.NewList(value.Int(1)),
		},
		{
			cast(ast.String("2023-07-04"), ast.DateType),
			value.Date{Value: date.Date(2023, 7, 4, 0, 0, 0, 0)},
		},
		{
			// casting to DATE truncates the clock
			cast(&ast.Timestamp{Value: date.Date(2023, 7, 4, 10, 30, 45, 0)}, ast.DateType),
			value.Date{Value: date.Date(2023, 7, 4, 0, 0, 0, 0)},
		},
		{
			cast(ast.String("2023-07-04T10:30:45Z"), ast.TimestampType{}),
			value.Timestamp{Value: date.Date(2023, 7, 4, 10, 30, 45, 0)},
		},
		{
			cast(ast.String("10:30:45.5"), ast.TimeType{}),
			value.TimeOfDay{Nanos: 10*3600e9 + 30*60e9 + 45e9 + 5e8},
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
}

func TestCastFailed(t *testing.T) {
	bad := []ast.Node{
		cast(ast.String("abc"), ast.IntegerType),
		cast(ast.String("3.9"), ast.IntegerType),
		cast(ast.Integer(40000), ast.SmallintType),
		cast(ast.String("yes"), ast.BooleanType),
		cast(ast.Integer(1), ast.StructType),
		// the quantized value exceeds the precision
		cast(ast.Float(12345.6), ast.DecimalType{Precision: 4, Scale: 2}),
		cast(ast.String("not a date"), ast.DateType),
		// NULL is not convertible to MISSING
		cast(ast.Null{}, ast.MissingType),
	}
	for i := range bad {
		evalErr(t, bad[i], env.Empty, Options{}, diag.CastFailed)
		got := mustEval(t, bad[i], env.Empty, Options{Mode: Permissive})
		if !value.Equal(got, value.Missing{}) {
			t.Errorf("case %d (%s): permissive got %s, want MISSING", i,
				ast.ToString(bad[i]), value.ToString(got))
		}
	}
}

func TestCanCast(t *testing.T) {
	can := func(from ast.Node, to ast.Type) *ast.Cast {
		return &ast.Cast{Op: ast.CanCast, From: from, To: to}
	}
	testcases := []struct {
		expr ast.Node
		want bool
	}{
		{can(ast.String("42"), ast.IntegerType), true},
		{can(ast.String("abc"), ast.IntegerType), false},
		{can(ast.Integer(40000), ast.SmallintType), false},
		{can(ast.Null{}, ast.IntegerType), true},
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

func TestCanLosslessCast(t *testing.T) {
	lossless := func(from ast.Node, to ast.Type) *ast.Cast {
		return &ast.Cast{Op: ast.CanLosslessCast, From: from, To: to}
	}
	testcases := []struct {
		expr ast.Node
		want bool
	}{
		// the round trip must reproduce the source value
		{lossless(ast.Float(3.0), ast.IntegerType), true},
		{lossless(ast.Float(3.5), ast.IntegerType), false},
		{lossless(ast.String("42"), ast.IntegerType), true},
		{lossless(ast.String("042"), ast.IntegerType), false},
		{lossless(ast.Integer(42), ast.StringType), true},
		{lossless(ast.String("abc"), ast.IntegerType), false},
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
