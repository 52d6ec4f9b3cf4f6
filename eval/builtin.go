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
	"unicode/utf8"

	"github.com/cockroachdb/apd/v3"

	"github.com/SnellerInc/partiql/ast"
	"github.com/SnellerInc/partiql/date"
	"github.com/SnellerInc/partiql/diag"
	"github.com/SnellerInc/partiql/env"
	"github.com/SnellerInc/partiql/value"
)

// kindset is a bitmask over value kinds, used to express
// the accepted operand kinds per argument position.
type kindset uint32

func ks(kinds ...value.Kind) kindset {
	var out kindset
	for _, k := range kinds {
		out |= 1 << k
	}
	return out
}

func (s kindset) has(k value.Kind) bool {
	return s&(1<<k) != 0
}

func (s kindset) String() string {
	var names []string
	for k := value.MissingKind; k <= value.StructKind; k++ {
		if s.has(k) {
			names = append(names, k.String())
		}
	}
	return strings.Join(names, "|")
}

var (
	anyText   = ks(value.StringKind, value.SymbolKind)
	anyNum    = ks(value.IntKind, value.DecimalKind, value.FloatKind)
	anyInt    = ks(value.IntKind)
	anyStamp  = ks(value.TimestampKind, value.DateKind)
	container = ks(value.ListKind, value.BagKind, value.SexpKind, value.StructKind)
)

// signatures carries the per-position accepted kinds of
// every built-in function; arity is validated statically
// before any operand is evaluated (ast.Check and
// Call.CheckArity), so only kinds are checked here.
var signatures = [...][]kindset{
	ast.CharLength:  {anyText},
	ast.Lower:       {anyText},
	ast.Upper:       {anyText},
	ast.Trim:        {anyText, anyText},
	ast.Ltrim:       {anyText, anyText},
	ast.Rtrim:       {anyText, anyText},
	ast.Substring:   {anyText, anyInt, anyInt},
	ast.Position:    {anyText, anyText},
	ast.Abs:         {anyNum},
	ast.Exists:      {container},
	ast.OpToString:  {anyStamp, anyText},
	ast.ToTimestamp: {anyText},
	ast.UtcNow:      {},
	ast.DateAdd:     {anyText, anyInt, anyStamp},
	ast.DateDiff:    {anyText, anyStamp, anyStamp},
	ast.SizeOf:      {container},
}

func (ev *evaluator) call(c *ast.Call, e env.Env) (value.Value, error) {
	if err := c.CheckArity(); err != nil {
		return nil, err
	}
	args, err := ev.evalAll(c.Args, e)
	if err != nil {
		return nil, err
	}
	// EXISTS inspects NULL/MISSING rather than
	// propagating them
	if c.Op == ast.Exists {
		return existsValue(args[0]), nil
	}
	if v, ok := propagate(args...); ok {
		return v, nil
	}
	sig := signatures[c.Op]
	for i := range args {
		if !sig[i].has(args[i].Kind()) {
			return ev.soften(errType(c, c.Op.String(), i+1, sig[i].String(), args[i].Kind()))
		}
	}
	return ev.dispatch(c, args)
}

func (ev *evaluator) dispatch(c *ast.Call, args []value.Value) (value.Value, error) {
	switch c.Op {
	case ast.CharLength:
		s, _ := text(args[0])
		return value.Int(utf8.RuneCountInString(s)), nil
	case ast.Lower:
		s, _ := text(args[0])
		return value.String(strings.ToLower(s)), nil
	case ast.Upper:
		s, _ := text(args[0])
		return value.String(strings.ToUpper(s)), nil
	case ast.Trim, ast.Ltrim, ast.Rtrim:
		return trimCall(c.Op, args), nil
	case ast.Substring:
		return substringCall(args), nil
	case ast.Position:
		sub, _ := text(args[0])
		s, _ := text(args[1])
		return value.Int(position(sub, s)), nil
	case ast.Abs:
		return ev.absCall(c, args[0])
	case ast.OpToString:
		ts := timeArg(args[0])
		pat, _ := text(args[1])
		return value.String(formatTime(ts, pat)), nil
	case ast.ToTimestamp:
		s, _ := text(args[0])
		t, ok := date.Parse([]byte(s))
		if !ok {
			return ev.soften(errType(c, "TO_TIMESTAMP", 1, "timestamp text", args[0].Kind()))
		}
		return value.Timestamp{Value: t}, nil
	case ast.UtcNow:
		return value.Timestamp{Value: date.Now()}, nil
	case ast.DateAdd:
		return ev.dateAdd(c, args)
	case ast.DateDiff:
		return ev.dateDiff(c, args)
	case ast.SizeOf:
		return sizeCall(args[0]), nil
	}
	return nil, errInternal("unhandled builtin")
}

func existsValue(v value.Value) value.Value {
	switch v := v.(type) {
	case *value.List:
		return value.Bool(v.Len() > 0)
	case *value.Sexp:
		return value.Bool(v.Len() > 0)
	case *value.Bag:
		any := false
		v.Each(func(value.Value) bool {
			any = true
			return false
		})
		return value.Bool(any)
	case *value.Struct:
		return value.Bool(v.Len() > 0)
	}
	return value.Bool(false)
}

func trimCall(op ast.CallOp, args []value.Value) value.Value {
	s, _ := text(args[0])
	cutset := " "
	if len(args) > 1 {
		cutset, _ = text(args[1])
	}
	switch op {
	case ast.Ltrim:
		return value.String(strings.TrimLeft(s, cutset))
	case ast.Rtrim:
		return value.String(strings.TrimRight(s, cutset))
	}
	return value.String(strings.Trim(s, cutset))
}

// substringCall implements SQL SUBSTRING with a 1-based
// start; out-of-range prefixes clamp rather than error.
func substringCall(args []value.Value) value.Value {
	s, _ := text(args[0])
	runes := []rune(s)
	start := int(args[1].(value.Int))
	length := len(runes) + 1
	if len(args) > 2 {
		length = int(args[2].(value.Int))
	}
	// SQL semantics: the window is [start, start+length)
	// in 1-based positions, clamped to the string
	end := start + length
	if start < 1 {
		start = 1
	}
	if end < start {
		end = start
	}
	if start > len(runes)+1 {
		start = len(runes) + 1
	}
	if end > len(runes)+1 {
		end = len(runes) + 1
	}
	return value.String(string(runes[start-1 : end-1]))
}

// position returns the 1-based rune offset of sub in s,
// or 0 when absent.
func position(sub, s string) int {
	b := strings.Index(s, sub)
	if b < 0 {
		return 0
	}
	return utf8.RuneCountInString(s[:b]) + 1
}

func (ev *evaluator) absCall(c *ast.Call, v value.Value) (value.Value, error) {
	switch v := v.(type) {
	case value.Int:
		if int64(v) == math.MinInt64 {
			return nil, errOverflow(c)
		}
		if v < 0 {
			return -v, nil
		}
		return v, nil
	case value.Float:
		return value.Float(math.Abs(float64(v))), nil
	case *value.Decimal:
		var out apd.Decimal
		out.Abs(v.Dec())
		return value.NewDecimal(&out), nil
	}
	return nil, errInternal("bad ABS operand")
}

func timeArg(v value.Value) date.Time {
	switch v := v.(type) {
	case value.Timestamp:
		return v.Value
	case value.Date:
		return v.Value
	}
	return date.Time{}
}

// formatTime renders t according to a pattern built from
// the tokens yyyy, yy, MM, M, dd, d, HH, H, mm, m, ss, s;
// any other rune is copied verbatim.
func formatTime(t date.Time, pat string) string {
	var dst strings.Builder
	i := 0
	run := func(c byte) int {
		n := 0
		for i+n < len(pat) && pat[i+n] == c {
			n++
		}
		return n
	}
	pad := func(v, width int) {
		s := strconv.Itoa(v)
		for len(s) < width {
			s = "0" + s
		}
		dst.WriteString(s)
	}
	for i < len(pat) {
		c := pat[i]
		n := run(c)
		switch c {
		case 'y':
			if n >= 4 {
				pad(t.Year(), 4)
			} else {
				pad(t.Year()%100, 2)
			}
		case 'M':
			pad(t.Month(), n)
		case 'd':
			pad(t.Day(), n)
		case 'H':
			pad(t.Hour(), n)
		case 'm':
			pad(t.Minute(), n)
		case 's':
			pad(t.Second(), n)
		default:
			for j := 0; j < n; j++ {
				dst.WriteByte(c)
			}
		}
		i += n
	}
	return dst.String()
}

// datepart maps a DATE_ADD/DATE_DIFF part token to an
// AddParts unit.
func datepart(v value.Value) (string, bool) {
	s, ok := text(v)
	if !ok {
		return "", false
	}
	switch u := strings.ToLower(s); u {
	case "year", "month", "day", "hour", "minute", "second":
		return u, true
	}
	return "", false
}

func (ev *evaluator) dateAdd(c *ast.Call, args []value.Value) (value.Value, error) {
	unit, ok := datepart(args[0])
	if !ok {
		return ev.invalidArg(c, 1, args[0])
	}
	n := int(args[1].(value.Int))
	t := timeArg(args[2])
	out, ok := t.AddParts(unit, n)
	if !ok {
		return nil, errInternal("DATE_ADD unit")
	}
	if args[2].Kind() == value.DateKind {
		return value.Date{Value: out}, nil
	}
	return value.Timestamp{Value: out}, nil
}

func (ev *evaluator) dateDiff(c *ast.Call, args []value.Value) (value.Value, error) {
	unit, ok := datepart(args[0])
	if !ok {
		return ev.invalidArg(c, 1, args[0])
	}
	a := timeArg(args[1])
	b := timeArg(args[2])
	switch unit {
	case "year":
		return value.Int(b.Year() - a.Year()), nil
	case "month":
		return value.Int((b.Year()-a.Year())*12 + b.Month() - a.Month()), nil
	case "day":
		return value.Int(daynum(b) - daynum(a)), nil
	case "hour":
		return value.Int((b.Unix() - a.Unix()) / 3600), nil
	case "minute":
		return value.Int((b.Unix() - a.Unix()) / 60), nil
	}
	return value.Int(b.Unix() - a.Unix()), nil
}

// daynum counts whole days since the Unix epoch,
// flooring toward negative infinity.
func daynum(t date.Time) int64 {
	sec := t.Unix()
	day := sec / 86400
	if sec%86400 < 0 {
		day--
	}
	return day
}

func sizeCall(v value.Value) value.Value {
	switch v := v.(type) {
	case *value.List:
		return value.Int(v.Len())
	case *value.Sexp:
		return value.Int(v.Len())
	case *value.Struct:
		return value.Int(v.Len())
	case *value.Bag:
		v.Materialize()
		n, _ := v.Len()
		return value.Int(n)
	}
	return value.Missing{}
}

// invalidArg raises INVALID_ARGUMENT; domain errors are
// never downgraded in permissive mode.
func (ev *evaluator) invalidArg(c *ast.Call, pos int, v value.Value) (value.Value, error) {
	return nil, diag.New(diag.InvalidArgument, diag.Map{
		diag.Expression:       diag.Str(ast.ToString(c)),
		diag.FunctionName:     diag.Token(c.Op.String()),
		diag.ArgumentPosition: diag.Integer(pos),
		diag.ActualValue:      diag.Raw(valueText{v}),
	})
}
