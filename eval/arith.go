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

	"github.com/cockroachdb/apd/v3"

	"github.com/SnellerInc/partiql/ast"
	"github.com/SnellerInc/partiql/date"
	"github.com/SnellerInc/partiql/env"
	"github.com/SnellerInc/partiql/value"
)

// decCtx is the shared context for decimal arithmetic.
// 34 digits matches IEEE 754-2008 decimal128.
var decCtx = apd.BaseContext.WithPrecision(34)

func (ev *evaluator) arith(n *ast.Arithmetic, e env.Env) (value.Value, error) {
	lv, err := ev.eval(n.Left, e)
	if err != nil {
		return nil, err
	}
	rv, err := ev.eval(n.Right, e)
	if err != nil {
		return nil, err
	}
	if v, ok := propagate(lv, rv); ok {
		return v, nil
	}
	if n.Op == ast.ConcatOp {
		return ev.concat(n, lv, rv)
	}
	if !isNumeric(lv) {
		return ev.soften(errType(n, n.Op.String(), 1, "numeric", lv.Kind()))
	}
	if !isNumeric(rv) {
		return ev.soften(errType(n, n.Op.String(), 2, "numeric", rv.Kind()))
	}
	// float contaminates; otherwise decimal; otherwise
	// exact integer arithmetic with overflow checks
	if lv.Kind() == value.FloatKind || rv.Kind() == value.FloatKind {
		return ev.floatArith(n, tofloat(lv), tofloat(rv))
	}
	li, lok := lv.(value.Int)
	ri, rok := rv.(value.Int)
	if lok && rok {
		return ev.intArith(n, int64(li), int64(ri))
	}
	return ev.decArith(n, lv, rv)
}

func (ev *evaluator) concat(n *ast.Arithmetic, lv, rv value.Value) (value.Value, error) {
	ls, lok := text(lv)
	if !lok {
		return ev.soften(errType(n, "||", 1, "string", lv.Kind()))
	}
	rs, rok := text(rv)
	if !rok {
		return ev.soften(errType(n, "||", 2, "string", rv.Kind()))
	}
	return value.String(ls + rs), nil
}

// text extracts the textual payload of a string or
// symbol value.
func text(v value.Value) (string, bool) {
	switch v := v.(type) {
	case value.String:
		return string(v), true
	case value.Symbol:
		return string(v), true
	}
	return "", false
}

func tofloat(v value.Value) float64 {
	switch v := v.(type) {
	case value.Int:
		return float64(v)
	case value.Float:
		return float64(v)
	case *value.Decimal:
		f, _ := v.Dec().Float64()
		return f
	}
	return math.NaN()
}

func (ev *evaluator) floatArith(n *ast.Arithmetic, a, b float64) (value.Value, error) {
	switch n.Op {
	case ast.AddOp:
		return value.Float(a + b), nil
	case ast.SubOp:
		return value.Float(a - b), nil
	case ast.MulOp:
		return value.Float(a * b), nil
	case ast.DivOp:
		if b == 0 {
			return nil, errDivideByZero(n)
		}
		return value.Float(a / b), nil
	case ast.ModOp:
		if b == 0 {
			return nil, errDivideByZero(n)
		}
		return value.Float(math.Mod(a, b)), nil
	}
	return nil, errInternal("bad float op")
}

func (ev *evaluator) intArith(n *ast.Arithmetic, a, b int64) (value.Value, error) {
	switch n.Op {
	case ast.AddOp:
		c := a + b
		if (c > a) != (b > 0) && b != 0 {
			return nil, errOverflow(n)
		}
		return value.Int(c), nil
	case ast.SubOp:
		c := a - b
		if (c < a) != (b > 0) && b != 0 {
			return nil, errOverflow(n)
		}
		return value.Int(c), nil
	case ast.MulOp:
		if a == 0 || b == 0 {
			return value.Int(0), nil
		}
		c := a * b
		if c/b != a || (a == math.MinInt64 && b == -1) {
			return nil, errOverflow(n)
		}
		return value.Int(c), nil
	case ast.DivOp:
		if b == 0 {
			return nil, errDivideByZero(n)
		}
		if a == math.MinInt64 && b == -1 {
			return nil, errOverflow(n)
		}
		return value.Int(a / b), nil
	case ast.ModOp:
		if b == 0 {
			return nil, errDivideByZero(n)
		}
		if a == math.MinInt64 && b == -1 {
			return value.Int(0), nil
		}
		return value.Int(a % b), nil
	}
	return nil, errInternal("bad int op")
}

func asdec(dst *apd.Decimal, v value.Value) *apd.Decimal {
	switch v := v.(type) {
	case value.Int:
		dst.SetInt64(int64(v))
	case *value.Decimal:
		dst.Set(v.Dec())
	}
	return dst
}

func (ev *evaluator) decArith(n *ast.Arithmetic, lv, rv value.Value) (value.Value, error) {
	var a, b, out apd.Decimal
	asdec(&a, lv)
	asdec(&b, rv)
	var err error
	var cond apd.Condition
	switch n.Op {
	case ast.AddOp:
		cond, err = decCtx.Add(&out, &a, &b)
	case ast.SubOp:
		cond, err = decCtx.Sub(&out, &a, &b)
	case ast.MulOp:
		cond, err = decCtx.Mul(&out, &a, &b)
	case ast.DivOp:
		if b.IsZero() {
			return nil, errDivideByZero(n)
		}
		cond, err = decCtx.Quo(&out, &a, &b)
	case ast.ModOp:
		if b.IsZero() {
			return nil, errDivideByZero(n)
		}
		cond, err = decCtx.Rem(&out, &a, &b)
	}
	if err != nil || cond.Any() && cond&apd.Overflow != 0 {
		return nil, errOverflow(n).WithCause(err)
	}
	return value.NewDecimal(&out), nil
}

func (ev *evaluator) unaryArith(n *ast.UnaryArith, e env.Env) (value.Value, error) {
	v, err := ev.eval(n.Child, e)
	if err != nil {
		return nil, err
	}
	if out, ok := propagate(v); ok {
		return out, nil
	}
	if !isNumeric(v) {
		return ev.soften(errType(n, "unary", 1, "numeric", v.Kind()))
	}
	if n.Op == ast.PosOp {
		return v, nil
	}
	switch v := v.(type) {
	case value.Int:
		if int64(v) == math.MinInt64 {
			return nil, errOverflow(n)
		}
		return value.Int(-int64(v)), nil
	case value.Float:
		return value.Float(-float64(v)), nil
	case *value.Decimal:
		var out apd.Decimal
		out.Neg(v.Dec())
		return value.NewDecimal(&out), nil
	}
	return nil, errInternal("bad unary operand")
}

func (ev *evaluator) like(n *ast.Like, e env.Env) (value.Value, error) {
	sv, err := ev.eval(n.Expr, e)
	if err != nil {
		return nil, err
	}
	pv, err := ev.eval(n.Pattern, e)
	if err != nil {
		return nil, err
	}
	vals := []value.Value{sv, pv}
	var xv value.Value
	if n.Escape != nil {
		xv, err = ev.eval(n.Escape, e)
		if err != nil {
			return nil, err
		}
		vals = append(vals, xv)
	}
	if out, ok := propagate(vals...); ok {
		return out, nil
	}
	s, ok := text(sv)
	if !ok {
		return ev.soften(errType(n, "LIKE", 1, "string", sv.Kind()))
	}
	pat, ok := text(pv)
	if !ok {
		return ev.soften(errType(n, "LIKE", 2, "string", pv.Kind()))
	}
	esc := rune(0)
	if xv != nil {
		es, ok := text(xv)
		if !ok || len([]rune(es)) != 1 {
			return ev.soften(errType(n, "LIKE", 3, "string", xv.Kind()))
		}
		esc = []rune(es)[0]
	}
	return value.Bool(likeMatch([]rune(s), []rune(pat), esc)), nil
}

// likeMatch implements SQL LIKE over runes: % matches
// any run, _ matches one rune, and esc (when nonzero)
// escapes the following pattern rune.
func likeMatch(s, pat []rune, esc rune) bool {
	for len(pat) > 0 {
		c := pat[0]
		if esc != 0 && c == esc {
			if len(pat) < 2 {
				return false
			}
			if len(s) == 0 || s[0] != pat[1] {
				return false
			}
			s, pat = s[1:], pat[2:]
			continue
		}
		switch c {
		case '%':
			// collapse runs of %
			for len(pat) > 0 && pat[0] == '%' {
				pat = pat[1:]
			}
			if len(pat) == 0 {
				return true
			}
			for i := 0; i <= len(s); i++ {
				if likeMatch(s[i:], pat, esc) {
					return true
				}
			}
			return false
		case '_':
			if len(s) == 0 {
				return false
			}
			s, pat = s[1:], pat[1:]
		default:
			if len(s) == 0 || s[0] != c {
				return false
			}
			s, pat = s[1:], pat[1:]
		}
	}
	return len(s) == 0
}

func (ev *evaluator) extract(n *ast.Extract, e env.Env) (value.Value, error) {
	v, err := ev.eval(n.From, e)
	if err != nil {
		return nil, err
	}
	// EXTRACT maps both NULL and MISSING operands to NULL
	switch v.Kind() {
	case value.NullKind, value.MissingKind:
		return value.Null{}, nil
	}
	switch v := v.(type) {
	case value.Timestamp:
		return extractTime(n.Part, v.Value, true)
	case value.Date:
		return extractTime(n.Part, v.Value, false)
	case value.TimeOfDay:
		return extractClock(n.Part, v)
	}
	return ev.soften(errType(n, "EXTRACT", 1, "timestamp", v.Kind()))
}

func extractTime(part ast.Timepart, t date.Time, hasClock bool) (value.Value, error) {
	switch part {
	case ast.Year:
		return value.Int(t.Year()), nil
	case ast.Month:
		return value.Int(t.Month()), nil
	case ast.Day:
		return value.Int(t.Day()), nil
	}
	if !hasClock {
		return value.Null{}, nil
	}
	switch part {
	case ast.Hour:
		return value.Int(t.Hour()), nil
	case ast.Minute:
		return value.Int(t.Minute()), nil
	case ast.Second:
		return value.Int(t.Second()), nil
	case ast.TimezoneHour, ast.TimezoneMinute:
		off, ok := t.Offset()
		if !ok {
			return value.Null{}, nil
		}
		if part == ast.TimezoneHour {
			return value.Int(off / 60), nil
		}
		return value.Int(off % 60), nil
	}
	return nil, errInternal("bad EXTRACT part")
}

func extractClock(part ast.Timepart, t value.TimeOfDay) (value.Value, error) {
	ns := t.Nanos
	switch part {
	case ast.Hour:
		return value.Int(ns / 3600e9), nil
	case ast.Minute:
		return value.Int(ns / 60e9 % 60), nil
	case ast.Second:
		return value.Int(ns / 1e9 % 60), nil
	case ast.TimezoneHour, ast.TimezoneMinute:
		if !t.HasOffset {
			return value.Null{}, nil
		}
		if part == ast.TimezoneHour {
			return value.Int(t.Offset / 60), nil
		}
		return value.Int(t.Offset % 60), nil
	}
	// date parts of a bare time-of-day
	return value.Null{}, nil
}
