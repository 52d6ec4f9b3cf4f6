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

	"github.com/SnellerInc/partiql/diag"
)

func TestCheck(t *testing.T) {
	testcases := []struct {
		expr Node
		want []diag.Code // expected codes, in walk order
	}{
		{
			expr: &Call{Op: Lower, Args: []Node{Id("s")}},
		},
		{
			expr: &Call{Op: Lower, Args: []Node{Id("s"), Id("t")}},
			want: []diag.Code{diag.ArityMismatch},
		},
		{
			expr: &Call{Op: UtcNow, Args: []Node{Id("s")}},
			want: []diag.Code{diag.ArityMismatch},
		},
		{
			expr: &Call{Op: Substring, Args: []Node{Id("s")}},
			want: []diag.Code{diag.ArityMismatch},
		},
		{
			// TRIM accepts an optional cutset
			expr: &Call{Op: Trim, Args: []Node{Id("s"), String(" ")}},
		},
		{
			expr: &Coalesce{},
			want: []diag.Code{diag.ArityMismatch},
		},
		{
			// aggregates do not nest
			expr: Sum(Count(Star{})),
			want: []diag.Code{diag.InvalidArgument},
		},
		{
			// ...but an aggregate inside a subquery inside
			// an aggregate is fine
			expr: Sum(&Select{
				Columns: []Binding{Bind(Count(Star{}), "n")},
				From:    &Table{Binding: Bind(Id("t"), "t")},
			}),
		},
		{
			expr: &Select{
				Star:  true,
				From:  &Table{Binding: Bind(Id("t"), "t")},
				Limit: Integer(-1),
			},
			want: []diag.Code{diag.InvalidLimit},
		},
		{
			expr: &Select{
				Star:   true,
				From:   &Table{Binding: Bind(Id("t"), "t")},
				Offset: Integer(-3),
			},
			want: []diag.Code{diag.InvalidOffset},
		},
		{
			// non-literal bounds are checked at evaluation,
			// not statically
			expr: &Select{
				Star:  true,
				From:  &Table{Binding: Bind(Id("t"), "t")},
				Limit: Id("n"),
			},
		},
		{
			expr: &Select{
				Star:     true,
				From:     &Table{Binding: Bind(Id("t"), "t")},
				GroupBy:  []Binding{Bind(path("t", "a"), "a")},
				Grouping: GroupPartial,
			},
			want: []diag.Code{diag.Internal},
		},
		{
			// errors inside nested clauses are collected too
			expr: &Select{
				Columns: []Binding{Bind(&Call{Op: Abs}, "a")},
				From:    &Table{Binding: Bind(Id("t"), "t")},
				Where:   &Coalesce{},
			},
			want: []diag.Code{diag.ArityMismatch, diag.ArityMismatch},
		},
	}
	for i := range testcases {
		errs := Check(testcases[i].expr)
		if len(errs) != len(testcases[i].want) {
			t.Errorf("case %d (%s): got %d errors %v, want %d",
				i, ToString(testcases[i].expr), len(errs), errs, len(testcases[i].want))
			continue
		}
		for j := range errs {
			if !diag.Is(errs[j], testcases[i].want[j]) {
				t.Errorf("case %d error %d: got %v, want code %s",
					i, j, errs[j], testcases[i].want[j])
			}
		}
	}
}

func TestCheckErrorProperties(t *testing.T) {
	errs := Check(&Call{Op: Position, Args: []Node{Id("s")}})
	if len(errs) != 1 {
		t.Fatalf("got %d errors", len(errs))
	}
	de, ok := errs[0].(*diag.Error)
	if !ok {
		t.Fatalf("not a diagnostic: %T", errs[0])
	}
	if missing, extra := diag.Check(de); missing != nil || extra != nil {
		t.Errorf("malformed diagnostic: missing=%v extra=%v", missing, extra)
	}
	if de.Properties[diag.ActualArity].Int() != 1 {
		t.Errorf("ACTUAL_ARITY = %s", de.Properties[diag.ActualArity])
	}
	if de.Properties[diag.ExpectedArityMin].Int() != 2 {
		t.Errorf("EXPECTED_ARITY_MIN = %s", de.Properties[diag.ExpectedArityMin])
	}
}
