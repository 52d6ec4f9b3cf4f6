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
	"strconv"
	"strings"

	"github.com/cockroachdb/apd/v3"

	"github.com/SnellerInc/partiql/ast"
	"github.com/SnellerInc/partiql/date"
	"github.com/SnellerInc/partiql/diag"
	"github.com/SnellerInc/partiql/env"
	"github.com/SnellerInc/partiql/value"
)

func errCastFailed(n *ast.Cast, v value.Value) *diag.Error {
	return diag.New(diag.CastFailed, diag.Map{
		diag.Expression:  diag.Str(ast.ToString(n)),
		diag.TargetType:  diag.Token(ast.TypeString(n.To)),
		diag.ActualValue: diag.Raw(valueText{v}),
	})
}

func (ev *evaluator) cast(n *ast.Cast, e env.Env) (value.Value, error) {
	v, err := ev.eval(n.From, e)
	if err != nil {
		return nil, err
	}
	switch n.Op {
	case ast.CastValue:
		out, ok := convert(v, n.To)
		if !ok {
			return ev.soften(errCastFailed(n, v))
		}
		return out, nil
	case ast.CanCast:
		_, ok := convert(v, n.To)
		return value.Bool(ok), nil
	}
	// CAN_LOSSLESS_CAST: the round trip back to the
	// source type must preserve equality
	out, ok := convert(v, n.To)
	if !ok {
		return value.Bool(false), nil
	}
	back, ok := convert(out, typeOf(v))
	if !ok {
		return value.Bool(false), nil
	}
	return value.Bool(value.Equal(v, back)), nil
}

// typeOf returns the type whose conversion is the
// identity for v's kind.
func typeOf(v value.Value) ast.Type {
	switch v.Kind() {
	case value.MissingKind:
		return ast.MissingType
	case value.NullKind:
		return ast.NullType
	case value.BoolKind:
		return ast.BooleanType
	case value.IntKind:
		return ast.IntegerType
	case value.DecimalKind:
		return ast.DecimalType{}
	case value.FloatKind:
		return ast.DoubleType
	case value.DateKind:
		return ast.DateType
	case value.TimeKind:
		return ast.TimeType{}
	case value.TimestampKind:
		return ast.TimestampType{}
	case value.StringKind:
		return ast.StringType
	case value.SymbolKind:
		return ast.SymbolType
	case value.BlobKind:
		return ast.BlobType
	case value.ClobKind:
		return ast.ClobType
	case value.ListKind:
		return ast.ListType
	case value.BagKind:
		return ast.BagType
	case value.SexpKind:
		return ast.SexpType
	}
	return ast.StructType
}

// kindMatches reports whether a value kind satisfies a
// type name; used by the IS predicate for non-null
// operands.
func kindMatches(k value.Kind, t ast.Type) bool {
	switch t := t.(type) {
	case ast.SimpleType:
		switch t {
		case ast.BooleanType:
			return k == value.BoolKind
		case ast.SmallintType, ast.IntegerType:
			return k == value.IntKind
		case ast.FloatType, ast.DoubleType:
			return k == value.FloatKind
		case ast.StringType:
			return k == value.StringKind
		case ast.SymbolType:
			return k == value.SymbolKind
		case ast.DateType:
			return k == value.DateKind
		case ast.BlobType:
			return k == value.BlobKind
		case ast.ClobType:
			return k == value.ClobKind
		case ast.ListType:
			return k == value.ListKind
		case ast.BagType:
			return k == value.BagKind
		case ast.SexpType:
			return k == value.SexpKind
		case ast.StructType:
			return k == value.StructKind
		case ast.AnyType:
			return true
		}
		return false
	case ast.DecimalType:
		return k == value.DecimalKind
	case ast.CharType, ast.VarcharType:
		return k == value.StringKind
	case ast.TimeType:
		return k == value.TimeKind
	case ast.TimestampType:
		return k == value.TimestampKind
	}
	return false
}

// convert converts v to t and reports whether the
// conversion is possible. NULL and MISSING convert to
// themselves for every target type except MISSING,
// which only MISSING satisfies.
func convert(v value.Value, t ast.Type) (value.Value, bool) {
	if v.Kind() == value.MissingKind {
		if st, ok := t.(ast.SimpleType); ok && st == ast.NullType {
			return value.Null{}, true
		}
		return value.Missing{}, true
	}
	if v.Kind() == value.NullKind {
		if st, ok := t.(ast.SimpleType); ok && st == ast.MissingType {
			return nil, false
		}
		return value.Null{T: targetKind(t)}, true
	}
	switch t := t.(type) {
	case ast.SimpleType:
		return convertSimple(v, t)
	case ast.DecimalType:
		return convertDecimal(v, t)
	case ast.CharType:
		return convertText(v, t.Length)
	case ast.VarcharType:
		return convertText(v, t.Length)
	case ast.TimeType:
		return convertTime(v)
	case ast.TimestampType:
		return convertTimestamp(v)
	}
	// vendor extension types have no conversions here
	return nil, false
}

func targetKind(t ast.Type) value.Kind {
	switch t := t.(type) {
	case ast.SimpleType:
		switch t {
		case ast.BooleanType:
			return value.BoolKind
		case ast.SmallintType, ast.IntegerType:
			return value.IntKind
		case ast.FloatType, ast.DoubleType:
			return value.FloatKind
		case ast.StringType:
			return value.StringKind
		case ast.SymbolType:
			return value.SymbolKind
		case ast.DateType:
			return value.DateKind
		case ast.BlobType:
			return value.BlobKind
		case ast.ClobType:
			return value.ClobKind
		case ast.ListType:
			return value.ListKind
		case ast.BagType:
			return value.BagKind
		case ast.SexpType:
			return value.SexpKind
		case ast.StructType:
			return value.StructKind
		}
		return value.NullKind
	case ast.DecimalType:
		return value.DecimalKind
	case ast.CharType, ast.VarcharType:
		return value.StringKind
	case ast.TimeType:
		return value.TimeKind
	case ast.TimestampType:
		return value.TimestampKind
	}
	return value.NullKind
}

func convertSimple(v value.Value, t ast.SimpleType) (value.Value, bool) {
	switch t {
	case ast.AnyType:
		return v, true
	case ast.NullType:
		return nil, false
	case ast.MissingType:
		return nil, false
	case ast.BooleanType:
		return convertBool(v)
	case ast.SmallintType:
		out, ok := convertInt(v)
		if !ok {
			return nil, false
		}
		if i := out.(value.Int); i < math.MinInt16 || i > math.MaxInt16 {
			return nil, false
		}
		return out, true
	case ast.IntegerType:
		return convertInt(v)
	case ast.FloatType, ast.DoubleType:
		return convertFloat(v)
	case ast.StringType:
		return convertText(v, 0)
	case ast.SymbolType:
		if s, ok := text(v); ok {
			return value.Symbol(s), true
		}
		return nil, false
	case ast.DateType:
		return convertDate(v)
	case ast.BlobType:
		switch v := v.(type) {
		case value.Blob:
			return v, true
		case value.String:
			return value.Blob(v), true
		}
		return nil, false
	case ast.ClobType:
		switch v := v.(type) {
		case value.Clob:
			return v, true
		case value.String:
			return value.Clob(v), true
		}
		return nil, false
	case ast.ListType:
		switch v := v.(type) {
		case *value.List:
			return v, true
		case *value.Sexp, *value.Bag:
			return value.NewList(collect(v)...), true
		}
		return nil, false
	case ast.BagType:
		switch v := v.(type) {
		case *value.Bag:
			return v, true
		case *value.List, *value.Sexp:
			return value.NewBag(collect(v)...), true
		}
		return nil, false
	case ast.SexpType:
		switch v := v.(type) {
		case *value.Sexp:
			return v, true
		case *value.List:
			return value.NewSexp(collect(v)...), true
		}
		return nil, false
	case ast.StructType:
		if s, ok := v.(*value.Struct); ok {
			return s, true
		}
		return nil, false
	}
	return nil, false
}

func collect(v value.Value) []value.Value {
	iter, ok := elements(v)
	if !ok {
		return nil
	}
	var out []value.Value
	iter(func(e value.Value) bool {
		out = append(out, e)
		return true
	})
	return out
}

func convertBool(v value.Value) (value.Value, bool) {
	switch v := v.(type) {
	case value.Bool:
		return v, true
	case value.Int:
		return value.Bool(v != 0), true
	case value.Float:
		return value.Bool(v != 0), true
	case *value.Decimal:
		return value.Bool(!v.Dec().IsZero()), true
	case value.String:
		switch strings.ToLower(string(v)) {
		case "true":
			return value.Bool(true), true
		case "false":
			return value.Bool(false), true
		}
	}
	return nil, false
}

func convertInt(v value.Value) (value.Value, bool) {
	switch v := v.(type) {
	case value.Int:
		return v, true
	case value.Bool:
		if v {
			return value.Int(1), true
		}
		return value.Int(0), true
	case value.Float:
		f := float64(v)
		if math.IsNaN(f) || f < math.MinInt64 || f >= math.MaxInt64 {
			return nil, false
		}
		return value.Int(int64(f)), true
	case *value.Decimal:
		var tmp apd.Decimal
		// truncate toward zero
		ctx := *decCtx
		ctx.Rounding = apd.RoundDown
		if _, err := ctx.RoundToIntegralValue(&tmp, v.Dec()); err != nil {
			return nil, false
		}
		i, err := tmp.Int64()
		if err != nil {
			return nil, false
		}
		return value.Int(i), true
	case value.String:
		i, err := strconv.ParseInt(strings.TrimSpace(string(v)), 10, 64)
		if err != nil {
			return nil, false
		}
		return value.Int(i), true
	}
	return nil, false
}

func convertFloat(v value.Value) (value.Value, bool) {
	switch v := v.(type) {
	case value.Float:
		return v, true
	case value.Int:
		return value.Float(float64(v)), true
	case *value.Decimal:
		f, _ := v.Dec().Float64()
		return value.Float(f), true
	case value.String:
		f, err := strconv.ParseFloat(strings.TrimSpace(string(v)), 64)
		if err != nil {
			return nil, false
		}
		return value.Float(f), true
	}
	return nil, false
}

func convertDecimal(v value.Value, t ast.DecimalType) (value.Value, bool) {
	var out apd.Decimal
	switch v := v.(type) {
	case *value.Decimal:
		out.Set(v.Dec())
	case value.Int:
		out.SetInt64(int64(v))
	case value.Float:
		if _, err := out.SetFloat64(float64(v)); err != nil {
			return nil, false
		}
	case value.String:
		if _, _, err := out.SetString(strings.TrimSpace(string(v))); err != nil {
			return nil, false
		}
	default:
		return nil, false
	}
	if t.Precision > 0 {
		var q apd.Decimal
		ctx := *decCtx
		ctx.Precision = uint32(t.Precision)
		if _, err := ctx.Quantize(&q, &out, int32(-t.Scale)); err != nil {
			return nil, false
		}
		if q.NumDigits() > int64(t.Precision) {
			return nil, false
		}
		out.Set(&q)
	}
	return value.NewDecimal(&out), true
}

func convertText(v value.Value, limit int) (value.Value, bool) {
	var s string
	switch v := v.(type) {
	case value.String:
		s = string(v)
	case value.Symbol:
		s = string(v)
	case value.Bool:
		if v {
			s = "true"
		} else {
			s = "false"
		}
	case value.Int:
		s = strconv.FormatInt(int64(v), 10)
	case value.Float:
		s = strconv.FormatFloat(float64(v), 'g', -1, 64)
	case *value.Decimal:
		s = v.Dec().String()
	case value.Date:
		s = dateString(v.Value)
	case value.Timestamp:
		s = v.Value.String()
	case value.TimeOfDay:
		s = clockString(v)
	case value.Clob:
		s = string(v)
	default:
		return nil, false
	}
	if limit > 0 {
		r := []rune(s)
		if len(r) > limit {
			s = string(r[:limit])
		}
	}
	return value.String(s), true
}

func dateString(t date.Time) string {
	var dst strings.Builder
	pad := func(v, w int) {
		s := strconv.Itoa(v)
		for len(s) < w {
			s = "0" + s
		}
		dst.WriteString(s)
	}
	pad(t.Year(), 4)
	dst.WriteByte('-')
	pad(t.Month(), 2)
	dst.WriteByte('-')
	pad(t.Day(), 2)
	return dst.String()
}

func clockString(t value.TimeOfDay) string {
	ns := t.Nanos
	s := ""
	pad := func(v int64, w int) string {
		out := strconv.FormatInt(v, 10)
		for len(out) < w {
			out = "0" + out
		}
		return out
	}
	s = pad(ns/3600e9, 2) + ":" + pad(ns/60e9%60, 2) + ":" + pad(ns/1e9%60, 2)
	if frac := ns % 1e9; frac != 0 {
		s += "." + pad(frac, 9)
	}
	return s
}

func convertDate(v value.Value) (value.Value, bool) {
	switch v := v.(type) {
	case value.Date:
		return v, true
	case value.Timestamp:
		t := v.Value
		return value.Date{Value: date.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0)}, true
	case value.String:
		if t, ok := date.Parse([]byte(v)); ok {
			return value.Date{Value: date.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0)}, true
		}
	}
	return nil, false
}

func convertTime(v value.Value) (value.Value, bool) {
	switch v := v.(type) {
	case value.TimeOfDay:
		return v, true
	case value.Timestamp:
		t := v.Value
		ns := int64(t.Hour())*3600e9 + int64(t.Minute())*60e9 +
			int64(t.Second())*1e9 + int64(t.Nanosecond())
		out := value.TimeOfDay{Nanos: ns}
		if off, ok := t.Offset(); ok {
			out.Offset = int16(off)
			out.HasOffset = true
		}
		return out, true
	case value.String:
		return parseClock(string(v))
	}
	return nil, false
}

// parseClock parses hh:mm:ss[.frac][Z|±hh:mm].
func parseClock(s string) (value.Value, bool) {
	// reuse the timestamp parser with a dummy date
	t, ok := date.Parse([]byte("1970-01-01T" + s))
	if !ok {
		return nil, false
	}
	ns := int64(t.Hour())*3600e9 + int64(t.Minute())*60e9 +
		int64(t.Second())*1e9 + int64(t.Nanosecond())
	out := value.TimeOfDay{Nanos: ns}
	if off, ok := t.Offset(); ok {
		out.Offset = int16(off)
		out.HasOffset = true
	}
	return out, true
}

func convertTimestamp(v value.Value) (value.Value, bool) {
	switch v := v.(type) {
	case value.Timestamp:
		return v, true
	case value.Date:
		return value.Timestamp{Value: v.Value}, true
	case value.String:
		if t, ok := date.Parse([]byte(v)); ok {
			return value.Timestamp{Value: t}, true
		}
	}
	return nil, false
}
