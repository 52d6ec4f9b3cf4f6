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
	"testing"
)

func TestToString(t *testing.T) {
	testcases := []struct {
		node Printable
		want string
	}{
		{Bool(true), "TRUE"},
		{Integer(-42), "-42"},
		{Float(1.5), "1.5"},
		{String("a\"b"), `"a\"b"`},
		{Symbol("sym"), "'sym'"},
		{Null{}, "NULL"},
		{Missing{}, "MISSING"},
		{path("t", "a", "b"), "t.a.b"},
		{&Ident{Name: "Weird Name", Sensitive: true}, `"Weird Name"`},
		{&Ident{Name: "x", Locals: true}, "@x"},
		{&Dot{Inner: Id("t"), Field: "F", Sensitive: true}, `t."F"`},
		{&Index{Inner: Id("x"), Offset: Integer(3)}, "x[3]"},
		{&AllElements{Inner: Id("x")}, "x[*]"},
		{&AllFields{Inner: Id("x")}, "x.*"},
		{And(Id("a"), Id("b")), "(a AND b)"},
		{&Not{Expr: Id("a")}, "NOT a"},
		{Compare(LessEquals, Id("a"), Integer(3)), "a <= 3"},
		{Add(Id("a"), Id("b")), "(a + b)"},
		{Concat(Id("a"), String("s")), `(a || "s")`},
		{Neg(Id("x")), "-x"},
		{
			&Like{Expr: Id("s"), Pattern: String("a%"), Escape: String("!")},
			`s LIKE "a%" ESCAPE "!"`,
		},
		{
			&Between{Expr: Id("x"), Lo: Integer(0), Hi: Integer(9)},
			"x BETWEEN 0 AND 9",
		},
		{
			&In{Left: Id("x"), Right: &ListCtor{Items: []Node{Integer(1), Integer(2)}}},
			"x IN [1, 2]",
		},
		{&Is{Expr: Id("x"), T: MissingType}, "x IS MISSING"},
		{&Is{Expr: Id("x"), T: NullType, Negated: true}, "x IS NOT NULL"},
		{
			&Case{
				Limbs: []CaseLimb{{When: Id("p"), Then: Integer(1)}},
				Else:  Integer(0),
			},
			"CASE WHEN p THEN 1 ELSE 0 END",
		},
		{&Coalesce{Args: []Node{Id("x"), Integer(0)}}, "COALESCE(x, 0)"},
		{&NullIf{Left: Id("x"), Right: Integer(0)}, "NULLIF(x, 0)"},
		{&BagCtor{Items: []Node{Integer(1), Integer(2)}}, "<<1, 2>>"},
		{
			&StructCtor{Fields: []StructField{{Name: String("a"), Value: Id("x")}}},
			`{"a": x}`,
		},
		{&Call{Op: Substring, Args: []Node{Id("s"), Integer(2)}}, "SUBSTRING(s, 2)"},
		{&Aggregate{Op: OpCount, Distinct: true, Inner: Id("x")}, "COUNT(DISTINCT x)"},
		{Count(Star{}), "COUNT(*)"},
		{
			&Cast{Op: CastValue, From: Id("x"), To: IntegerType},
			"CAST(x AS INTEGER)",
		},
		{
			&Cast{Op: CanCast, From: Id("x"), To: DecimalType{Precision: 10, Scale: 2}},
			"CAN_CAST(x AS DECIMAL(10, 2))",
		},
		{&Extract{Part: TimezoneHour, From: Id("ts")}, "EXTRACT(TIMEZONE_HOUR FROM ts)"},
		{
			&SetOpExpr{Op: UnionOp, All: true, Left: Id("a"), Right: Id("b")},
			"(a UNION ALL b)",
		},
		{
			&Select{
				Columns: []Binding{Bind(path("t", "a"), ""), Bind(Add(Id("b"), Integer(1)), "c")},
				From:    &Table{Binding: Bind(Id("t"), ""), At: "i"},
				Where:   Compare(Greater, path("t", "a"), Integer(0)),
				OrderBy: []Order{{Expr: Id("a"), Desc: true}},
				Limit:   Integer(10),
			},
			"(SELECT t.a, (b + 1) AS c FROM t AT i WHERE t.a > 0 ORDER BY a DESC LIMIT 10)",
		},
		{
			&Select{
				Value:   Id("v"),
				From:    &Unpivot{Binding: Bind(Id("r"), "v"), At: "k"},
				GroupBy: []Binding{Bind(Id("k"), "k")},
				GroupAs: "g",
			},
			"(SELECT VALUE v FROM UNPIVOT r AS v AT k GROUP BY k AS k GROUP AS g)",
		},
		{
			&Select{
				PivotExpr: &Pivot{Value: Id("v"), Key: Id("k")},
				From:      &Table{Binding: Bind(Id("t"), "")},
			},
			"(PIVOT v AT k FROM t)",
		},
		{
			&Query{Body: &Select{Star: true, From: &Table{Binding: Bind(Id("t"), "")}}},
			"SELECT * FROM t",
		},
		{
			&Insert{Target: Id("tbl"), Source: Id("src")},
			"INSERT INTO tbl src",
		},
		{
			&InsertValue{
				Target:     Id("tbl"),
				Value:      Integer(1),
				At:         Integer(0),
				Where:      Compare(Equals, Id("id"), Integer(1)),
				OnConflict: DoNothing,
			},
			"INSERT INTO tbl VALUE 1 AT 0 ON CONFLICT WHERE id = 1 DO NOTHING",
		},
		{
			&UpdateSet{
				Target: Bind(Id("tbl"), "x"),
				Assignments: []Assignment{
					{Target: path("x", "n"), Value: Integer(1)},
				},
				Where: Compare(Equals, path("x", "id"), Integer(7)),
			},
			"UPDATE tbl AS x SET x.n = 1 WHERE x.id = 7",
		},
		{
			&Delete{
				Target: Bind(Id("tbl"), "x"),
				Where:  Compare(Equals, path("x", "id"), Integer(7)),
				Returning: &Returning{Elems: []ReturningElem{
					{Mapping: ModifiedOld, Column: Star{}},
				}},
			},
			"DELETE FROM tbl AS x WHERE x.id = 7 RETURNING MODIFIED OLD *",
		},
		{&Remove{Target: path("tbl", "attr")}, "REMOVE tbl.attr"},
		{&Exec{Procedure: "reindex", Args: []Node{String("tbl")}}, `EXEC reindex "tbl"`},
		{&CreateTable{Name: "tbl"}, "CREATE TABLE tbl"},
		{&DropTable{Name: "tbl"}, "DROP TABLE tbl"},
		{
			&CreateIndex{Table: "tbl", Keys: []Node{path("a", "b"), Id("c")}},
			"CREATE INDEX ON tbl (a.b, c)",
		},
		{&DropIndex{Table: "tbl", Name: "ix"}, "DROP INDEX ix ON tbl"},
	}
	for i := range testcases {
		got := ToString(testcases[i].node)
		if got != testcases[i].want {
			t.Errorf("case %d: got %q, want %q", i, got, testcases[i].want)
		}
	}
}

func TestEquals(t *testing.T) {
	// numeric literals compare by value across variants
	d, err := ParseDecimal("3.00")
	if err != nil {
		t.Fatal(err)
	}
	three, err := ParseDecimal("3")
	if err != nil {
		t.Fatal(err)
	}
	if !Integer(3).Equals(Float(3.0)) || !Float(3.0).Equals(Integer(3)) {
		t.Error("3 != 3.0")
	}
	if !Integer(3).Equals(d) || !d.Equals(Integer(3)) {
		t.Error("3 != 3.00")
	}
	if !d.Equals(three) {
		t.Error("3.00 != 3")
	}
	if Integer(3).Equals(Float(3.5)) {
		t.Error("3 == 3.5")
	}
	if String("x").Equals(Symbol("x")) {
		t.Error("string == symbol")
	}
	// sensitivity participates in identity
	if Id("x").Equals(&Ident{Name: "x", Sensitive: true}) {
		t.Error("sensitive and insensitive idents equal")
	}
}

func TestLookupCall(t *testing.T) {
	op, ok := LookupCall("char_length")
	if !ok || op != CharLength {
		t.Errorf("char_length = %v, %v", op, ok)
	}
	if _, ok := LookupCall("no_such_fn"); ok {
		t.Error("resolved unknown function")
	}
	c, ok := CallByName("UPPER", Id("s"))
	if !ok || c.Op != Upper || len(c.Args) != 1 {
		t.Errorf("CallByName = %+v, %v", c, ok)
	}
}
