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

// Package value implements the semi-structured value
// model: scalars, MISSING and NULL, and the ordered and
// unordered container kinds, along with the total
// cross-kind ordering and structural equality used by
// ORDER BY, GROUP BY, and DISTINCT.
package value

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/cockroachdb/apd/v3"

	"github.com/SnellerInc/partiql/date"
)

// Kind enumerates the value kinds.
type Kind uint8

const (
	MissingKind Kind = iota
	NullKind
	BoolKind
	IntKind
	DecimalKind
	FloatKind
	DateKind
	TimeKind
	TimestampKind
	StringKind
	SymbolKind
	BlobKind
	ClobKind
	ListKind
	BagKind
	SexpKind
	StructKind
)

func (k Kind) String() string {
	switch k {
	case MissingKind:
		return "missing"
	case NullKind:
		return "null"
	case BoolKind:
		return "bool"
	case IntKind:
		return "int"
	case DecimalKind:
		return "decimal"
	case FloatKind:
		return "float"
	case DateKind:
		return "date"
	case TimeKind:
		return "time"
	case TimestampKind:
		return "timestamp"
	case StringKind:
		return "string"
	case SymbolKind:
		return "symbol"
	case BlobKind:
		return "blob"
	case ClobKind:
		return "clob"
	case ListKind:
		return "list"
	case BagKind:
		return "bag"
	case SexpKind:
		return "sexp"
	case StructKind:
		return "struct"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Value is a value produced or consumed by the
// evaluator. A Value is immutable once constructed.
//
// A Value should be one of
//
//	Missing, Null, Bool, Int, *Decimal, Float,
//	Date, TimeOfDay, Timestamp, String, Symbol,
//	Blob, Clob, *List, *Bag, *Sexp, *Struct
type Value interface {
	Kind() Kind

	// text writes a debug rendering of the value
	text(dst *strings.Builder)
}

var (
	// all of these types must be values
	_ Value = Missing{}
	_ Value = Null{}
	_ Value = Bool(true)
	_ Value = Int(0)
	_ Value = (*Decimal)(nil)
	_ Value = Float(0)
	_ Value = Date{}
	_ Value = TimeOfDay{}
	_ Value = Timestamp{}
	_ Value = String("")
	_ Value = Symbol("")
	_ Value = Blob(nil)
	_ Value = Clob(nil)
	_ Value = (*List)(nil)
	_ Value = (*Bag)(nil)
	_ Value = (*Sexp)(nil)
	_ Value = (*Struct)(nil)
)

// ToString returns a debug rendering of v.
func ToString(v Value) string {
	if v == nil {
		return "<nil>"
	}
	var dst strings.Builder
	v.text(&dst)
	return dst.String()
}

// Missing is the MISSING value.
type Missing struct{}

func (m Missing) Kind() Kind                 { return MissingKind }
func (m Missing) text(dst *strings.Builder) { dst.WriteString("MISSING") }

// Null is the NULL value. T optionally records the
// declared type of a typed null (NULL for the plain
// literal); nulls of different declared types are
// still equal.
type Null struct {
	T Kind
}

func (n Null) Kind() Kind                 { return NullKind }
func (n Null) text(dst *strings.Builder) { dst.WriteString("NULL") }

// Bool is a boolean value.
type Bool bool

func (b Bool) Kind() Kind { return BoolKind }

func (b Bool) text(dst *strings.Builder) {
	if b {
		dst.WriteString("TRUE")
	} else {
		dst.WriteString("FALSE")
	}
}

// Int is an exact integer value.
type Int int64

func (i Int) Kind() Kind { return IntKind }

func (i Int) text(dst *strings.Builder) {
	var buf [32]byte
	dst.Write(strconv.AppendInt(buf[:0], int64(i), 10))
}

// Decimal is an arbitrary-precision decimal value.
type Decimal apd.Decimal

// NewDecimal constructs a decimal value from d.
// The argument is not aliased.
func NewDecimal(d *apd.Decimal) *Decimal {
	var out apd.Decimal
	out.Set(d)
	return (*Decimal)(&out)
}

// ParseDecimal parses the decimal representation in s.
func ParseDecimal(s string) (*Decimal, error) {
	d, _, err := apd.NewFromString(s)
	if err != nil {
		return nil, err
	}
	return (*Decimal)(d), nil
}

func (d *Decimal) Kind() Kind { return DecimalKind }

func (d *Decimal) text(dst *strings.Builder) {
	dst.WriteString((*apd.Decimal)(d).String())
}

// Dec returns the underlying apd representation.
// Callers must not mutate the result.
func (d *Decimal) Dec() *apd.Decimal { return (*apd.Decimal)(d) }

// Float is an IEEE 754 double value.
type Float float64

func (f Float) Kind() Kind { return FloatKind }

func (f Float) text(dst *strings.Builder) {
	var buf [32]byte
	dst.Write(strconv.AppendFloat(buf[:0], float64(f), 'g', -1, 64))
}

// Date is a calendar date without a time component.
type Date struct {
	Value date.Time
}

func (d Date) Kind() Kind { return DateKind }

func (d Date) text(dst *strings.Builder) {
	fmt.Fprintf(dst, "DATE %04d-%02d-%02d",
		d.Value.Year(), d.Value.Month(), d.Value.Day())
}

// TimeOfDay is a time-of-day value: nanoseconds since
// midnight plus an optional UTC offset in minutes.
type TimeOfDay struct {
	Nanos     int64
	Offset    int16
	HasOffset bool
}

func (t TimeOfDay) Kind() Kind { return TimeKind }

// utc returns the offset-normalized nanoseconds since
// midnight, wrapped into [0, 24h).
func (t TimeOfDay) utc() int64 {
	const day = 24 * 3600 * 1e9
	ns := t.Nanos
	if t.HasOffset {
		ns -= int64(t.Offset) * 60 * 1e9
	}
	ns %= day
	if ns < 0 {
		ns += day
	}
	return ns
}

func (t TimeOfDay) text(dst *strings.Builder) {
	ns := t.Nanos
	h, m, s := ns/3600e9, ns/60e9%60, ns/1e9%60
	fmt.Fprintf(dst, "TIME %02d:%02d:%02d", h, m, s)
	if frac := ns % 1e9; frac != 0 {
		fmt.Fprintf(dst, ".%09d", frac)
	}
}

// Timestamp is a point-in-time value.
type Timestamp struct {
	Value date.Time
}

func (t Timestamp) Kind() Kind { return TimestampKind }

func (t Timestamp) text(dst *strings.Builder) {
	dst.WriteString("`")
	dst.WriteString(t.Value.String())
	dst.WriteString("`")
}

// String is a text string value.
type String string

func (s String) Kind() Kind { return StringKind }

func (s String) text(dst *strings.Builder) {
	dst.WriteString(strconv.Quote(string(s)))
}

// Symbol is an interned-symbol value. It compares
// unequal to String even when the text matches; the
// two kinds occupy distinct positions in the total
// order.
type Symbol string

func (s Symbol) Kind() Kind { return SymbolKind }

func (s Symbol) text(dst *strings.Builder) {
	dst.WriteByte('\'')
	dst.WriteString(string(s))
	dst.WriteByte('\'')
}

// Blob is a binary blob value.
type Blob []byte

func (b Blob) Kind() Kind { return BlobKind }

func (b Blob) text(dst *strings.Builder) {
	fmt.Fprintf(dst, "{{%d bytes}}", len(b))
}

// Clob is a text blob value.
type Clob []byte

func (c Clob) Kind() Kind { return ClobKind }

func (c Clob) text(dst *strings.Builder) {
	fmt.Fprintf(dst, "{{%q}}", string(c))
}

// isNaN reports whether v is a floating-point or
// decimal NaN.
func isNaN(v Value) bool {
	switch v := v.(type) {
	case Float:
		return math.IsNaN(float64(v))
	case *Decimal:
		return v.Dec().Form == apd.NaN || v.Dec().Form == apd.NaNSignaling
	}
	return false
}
