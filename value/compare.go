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
	"bytes"
	"math"
	"strings"

	"github.com/cockroachdb/apd/v3"
)

// class is the cross-kind precedence used by the total
// order:
//
//	missing < null < bool < numeric < date/time/timestamp
//	< string < symbol < blob/clob < list < bag < sexp < struct
func class(k Kind) int {
	switch k {
	case MissingKind:
		return 0
	case NullKind:
		return 1
	case BoolKind:
		return 2
	case IntKind, DecimalKind, FloatKind:
		return 3
	case DateKind, TimeKind, TimestampKind:
		return 4
	case StringKind:
		return 5
	case SymbolKind:
		return 6
	case BlobKind, ClobKind:
		return 7
	case ListKind:
		return 8
	case BagKind:
		return 9
	case SexpKind:
		return 10
	case StructKind:
		return 11
	}
	return 12
}

func cmpint(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Compare imposes a deterministic total order across all
// values of all kinds; it is the ordering used by ORDER
// BY and by multiset canonicalization. Values that are
// Equal always compare as 0.
func Compare(a, b Value) int {
	ca, cb := class(a.Kind()), class(b.Kind())
	if ca != cb {
		return cmpint(int64(ca), int64(cb))
	}
	switch ca {
	case 0, 1: // missing, null
		return 0
	case 2:
		x, y := a.(Bool), b.(Bool)
		if x == y {
			return 0
		}
		if !x {
			return -1
		}
		return 1
	case 3:
		return numCompare(a, b)
	case 4:
		return timeCompare(a, b)
	case 5:
		return strings.Compare(string(a.(String)), string(b.(String)))
	case 6:
		return strings.Compare(string(a.(Symbol)), string(b.(Symbol)))
	case 7:
		// clob sorts before blob when the bytes tie
		if c := bytes.Compare(rawbytes(a), rawbytes(b)); c != 0 {
			return c
		}
		return cmpint(int64(blobrank(a.Kind())), int64(blobrank(b.Kind())))
	case 8:
		return seqCompare(a.(*List).items, b.(*List).items)
	case 9:
		return seqCompare(a.(*Bag).sorted(), b.(*Bag).sorted())
	case 10:
		return seqCompare(a.(*Sexp).items, b.(*Sexp).items)
	case 11:
		return structCompare(a.(*Struct), b.(*Struct))
	}
	return 0
}

func rawbytes(v Value) []byte {
	switch v := v.(type) {
	case Blob:
		return []byte(v)
	case Clob:
		return []byte(v)
	}
	return nil
}

func blobrank(k Kind) int {
	if k == ClobKind {
		return 0
	}
	return 1
}

func seqCompare(a, b []Value) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if c := Compare(a[i], b[i]); c != 0 {
			return c
		}
	}
	return cmpint(int64(len(a)), int64(len(b)))
}

func structCompare(a, b *Struct) int {
	fa, fb := a.sortedFields(), b.sortedFields()
	n := len(fa)
	if len(fb) < n {
		n = len(fb)
	}
	for i := 0; i < n; i++ {
		if c := strings.Compare(fa[i].Name, fb[i].Name); c != 0 {
			return c
		}
		if c := Compare(fa[i].Value, fb[i].Value); c != 0 {
			return c
		}
	}
	return cmpint(int64(len(fa)), int64(len(fb)))
}

// timeCompare orders the date/time/timestamp class:
// dates, then times, then timestamps; like kinds
// compare by instant.
func timeCompare(a, b Value) int {
	ra, rb := timerank(a.Kind()), timerank(b.Kind())
	if ra != rb {
		return cmpint(int64(ra), int64(rb))
	}
	switch a := a.(type) {
	case Date:
		return a.Value.Compare(b.(Date).Value)
	case TimeOfDay:
		return cmpint(a.utc(), b.(TimeOfDay).utc())
	case Timestamp:
		return a.Value.Compare(b.(Timestamp).Value)
	}
	return 0
}

func timerank(k Kind) int {
	switch k {
	case DateKind:
		return 0
	case TimeKind:
		return 1
	default:
		return 2
	}
}

// numCompare compares two numeric values by numeric
// value, regardless of representation. NaN sorts before
// every other numeric value and equal to itself.
func numCompare(a, b Value) int {
	an, bn := isNaN(a), isNaN(b)
	if an || bn {
		switch {
		case an && bn:
			return 0
		case an:
			return -1
		default:
			return 1
		}
	}
	// infinities never convert to finite decimals
	ai, bi := inf(a), inf(b)
	if ai != 0 || bi != 0 {
		return cmpint(int64(ai), int64(bi))
	}
	if x, ok := a.(Int); ok {
		if y, ok := b.(Int); ok {
			return cmpint(int64(x), int64(y))
		}
	}
	var x, y apd.Decimal
	todec(&x, a)
	todec(&y, b)
	return x.Cmp(&y)
}

// inf returns -1/+1 for negative/positive infinities
// and 0 for finite values.
func inf(v Value) int {
	switch v := v.(type) {
	case Float:
		if math.IsInf(float64(v), 1) {
			return 1
		}
		if math.IsInf(float64(v), -1) {
			return -1
		}
	case *Decimal:
		if v.Dec().Form == apd.Infinite {
			if v.Dec().Negative {
				return -1
			}
			return 1
		}
	}
	return 0
}

// todec writes the exact numeric value of v into dst.
// Floats convert through their shortest decimal
// representation, so e.g. Float(0.1) and decimal 0.1
// are numerically equal.
func todec(dst *apd.Decimal, v Value) {
	switch v := v.(type) {
	case Int:
		dst.SetInt64(int64(v))
	case Float:
		dst.SetFloat64(float64(v))
	case *Decimal:
		dst.Set(v.Dec())
	}
}

// Equal returns whether a and b are structurally equal.
// Numeric values of different representations are equal
// iff numerically equal; struct equality ignores field
// order but counts field-name multiplicity; bag
// equality is multiset equality.
func Equal(a, b Value) bool {
	ca, cb := class(a.Kind()), class(b.Kind())
	if ca != cb {
		return false
	}
	switch ca {
	case 5, 6:
		// string/symbol never cross-compare equal,
		// but both live in single-kind classes
		return a == b
	case 7:
		return a.Kind() == b.Kind() && bytes.Equal(rawbytes(a), rawbytes(b))
	case 4:
		return a.Kind() == b.Kind() && timeCompare(a, b) == 0
	}
	return Compare(a, b) == 0
}
