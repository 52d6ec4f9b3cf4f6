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

package value

import (
	"math"
	"testing"

	"github.com/SnellerInc/partiql/date"
)

func dec(t *testing.T, s string) *Decimal {
	t.Helper()
	d, err := ParseDecimal(s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return d
}

func TestCompareTotalOrder(t *testing.T) {
	// ascending in the total order; every adjacent pair
	// must compare strictly less
	asc := []Value{
		Missing{},
		Null{},
		Bool(false),
		Bool(true),
		Float(-1.5),
		Int(0),
		Int(3),
		Float(3.5),
		Date{Value: date.Date(2021, 1, 1, 0, 0, 0, 0)},
		Timestamp{Value: date.Date(2021, 1, 1, 0, 0, 1, 0)},
		String("a"),
		String("ab"),
		Symbol("ab"),
		Blob{0x01},
		NewList(Int(1)),
		NewList(Int(1), Int(2)),
		NewBag(Int(1)),
		NewSexp(Int(1)),
		NewStruct([]Field{{Name: "a", Value: Int(1)}}),
	}
	for i := range asc {
		for j := range asc {
			got := Compare(asc[i], asc[j])
			want := 0
			if i < j {
				want = -1
			} else if i > j {
				want = 1
			}
			if got != want {
				t.Errorf("Compare(%s, %s) = %d, want %d",
					ToString(asc[i]), ToString(asc[j]), got, want)
			}
		}
	}
}

func TestCompareNumericTower(t *testing.T) {
	// exact numerics compare by value across
	// representations
	same := [][2]Value{
		{Int(3), Float(3.0)},
		{Int(3), dec(t, "3.00")},
		{Float(0.5), dec(t, "0.5")},
		{Int(-7), dec(t, "-7")},
	}
	for i := range same {
		a, b := same[i][0], same[i][1]
		if Compare(a, b) != 0 || Compare(b, a) != 0 {
			t.Errorf("Compare(%s, %s) != 0", ToString(a), ToString(b))
		}
		if !Equal(a, b) {
			t.Errorf("Equal(%s, %s) = false", ToString(a), ToString(b))
		}
	}
	if Compare(dec(t, "2.5"), Int(3)) != -1 {
		t.Error("2.5 >= 3")
	}
	if Compare(Float(1e300), Int(1)) != 1 {
		t.Error("1e300 <= 1")
	}
}

func TestEqualStructural(t *testing.T) {
	a := NewStruct([]Field{
		{Name: "x", Value: Int(1)},
		{Name: "y", Value: NewList(String("a"), Null{})},
	})
	// field order does not matter for struct equality
	b := NewStruct([]Field{
		{Name: "y", Value: NewList(String("a"), Null{})},
		{Name: "x", Value: Int(1)},
	})
	if !Equal(a, b) {
		t.Error("structs with reordered fields unequal")
	}
	// bags compare as multisets
	b1 := NewBag(Int(1), Int(2), Int(2))
	b2 := NewBag(Int(2), Int(1), Int(2))
	b3 := NewBag(Int(1), Int(2))
	if !Equal(b1, b2) {
		t.Error("permuted bags unequal")
	}
	if Equal(b1, b3) {
		t.Error("bags with different multiplicity equal")
	}
	// lists are ordered
	if Equal(NewList(Int(1), Int(2)), NewList(Int(2), Int(1))) {
		t.Error("permuted lists equal")
	}
	// string and symbol never compare equal
	if Equal(String("a"), Symbol("a")) {
		t.Error("string equals symbol")
	}
	// typed nulls are still just null
	if !Equal(Null{}, Null{T: IntKind}) {
		t.Error("typed null unequal to plain null")
	}
}

func TestHashConsistency(t *testing.T) {
	pairs := [][2]Value{
		{Int(3), Float(3.0)},
		{Int(3), dec(t, "3")},
		{Null{}, Null{T: StringKind}},
		{NewBag(Int(1), Int(2)), NewBag(Int(2), Int(1))},
		{
			NewStruct([]Field{{Name: "a", Value: Int(1)}, {Name: "b", Value: Int(2)}}),
			NewStruct([]Field{{Name: "b", Value: Int(2)}, {Name: "a", Value: Int(1)}}),
		},
	}
	for i := range pairs {
		a, b := pairs[i][0], pairs[i][1]
		alo, ahi := Hash128(a)
		blo, bhi := Hash128(b)
		if alo != blo || ahi != bhi {
			t.Errorf("equal values hash differently: %s vs %s",
				ToString(a), ToString(b))
		}
	}
	// sanity: distinct values should not collide in these
	// few cases
	alo, ahi := Hash128(String("a"))
	blo, bhi := Hash128(Symbol("a"))
	if alo == blo && ahi == bhi {
		t.Error("string and symbol hash identically")
	}
}

func TestNonFiniteOrdering(t *testing.T) {
	nan := Float(math.NaN())
	// NaN sorts before every other numeric and compares
	// equal to itself, so sorting stays deterministic
	if Compare(nan, Float(math.Inf(-1))) != -1 {
		t.Error("NaN >= -Inf")
	}
	if Compare(nan, nan) != 0 {
		t.Error("NaN does not sort stably against itself")
	}
	if !Equal(nan, nan) {
		t.Error("NaN unequal to itself")
	}
	if Compare(Float(math.Inf(1)), dec(t, "1e300")) != 1 {
		t.Error("+Inf <= 1e300")
	}
	if Compare(Float(math.Inf(-1)), Int(-1<<62)) != -1 {
		t.Error("-Inf >= large negative int")
	}
}
