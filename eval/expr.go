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
	"github.com/cockroachdb/apd/v3"

	"github.com/SnellerInc/partiql/ast"
	"github.com/SnellerInc/partiql/env"
	"github.com/SnellerInc/partiql/value"
)

// tri is a three-valued truth value
type tri uint8

const (
	no tri = iota
	yes
	unknown
)

// truth converts v to three-valued truth. MISSING
// behaves like NULL inside logical operators.
func (ev *evaluator) truth(e ast.Node, v value.Value) (tri, error) {
	switch v := v.(type) {
	case value.Bool:
		if v {
			return yes, nil
		}
		return no, nil
	case value.Null, value.Missing:
		return unknown, nil
	}
	if ev.opts.Mode == Permissive {
		return unknown, nil
	}
	return unknown, errType(e, "logical", 1, "bool", v.Kind())
}

func triValue(t tri) value.Value {
	switch t {
	case yes:
		return value.Bool(true)
	case no:
		return value.Bool(false)
	}
	return value.Null{}
}

// eval evaluates a single expression node in e.
func (ev *evaluator) eval(n ast.Node, e env.Env) (value.Value, error) {
	switch n := n.(type) {
	case ast.Bool:
		return value.Bool(n), nil
	case ast.Integer:
		return value.Int(n), nil
	case ast.Float:
		return value.Float(n), nil
	case ast.String:
		return value.String(n), nil
	case ast.Symbol:
		return value.Symbol(n), nil
	case *ast.Decimal:
		return value.NewDecimal((*apd.Decimal)(n)), nil
	case ast.Null:
		return value.Null{}, nil
	case ast.Missing:
		return value.Missing{}, nil
	case *ast.Timestamp:
		return value.Timestamp{Value: n.Value}, nil
	case *ast.DateLit:
		return value.Date{Value: n.Value}, nil
	case *ast.TimeLit:
		return value.TimeOfDay{Nanos: n.Nanos, Offset: n.Offset, HasOffset: n.HasOffset}, nil
	case *ast.Ident:
		return ev.ident(n, e)
	case *ast.Dot:
		return ev.dot(n, e)
	case *ast.Index:
		return ev.index(n, e)
	case *ast.AllElements:
		return ev.allElements(n, e)
	case *ast.AllFields:
		return ev.allFields(n, e)
	case *ast.Logical:
		return ev.logical(n, e)
	case *ast.Not:
		v, err := ev.eval(n.Expr, e)
		if err != nil {
			return nil, err
		}
		t, err := ev.truth(n.Expr, v)
		if err != nil {
			return nil, err
		}
		switch t {
		case yes:
			return value.Bool(false), nil
		case no:
			return value.Bool(true), nil
		}
		return value.Null{}, nil
	case *ast.Comparison:
		return ev.compare(n, e)
	case *ast.Arithmetic:
		return ev.arith(n, e)
	case *ast.UnaryArith:
		return ev.unaryArith(n, e)
	case *ast.Like:
		return ev.like(n, e)
	case *ast.Between:
		return ev.between(n, e)
	case *ast.In:
		return ev.in(n, e)
	case *ast.Is:
		return ev.is(n, e)
	case *ast.Case:
		return ev.caseExpr(n, e)
	case *ast.Coalesce:
		return ev.coalesce(n, e)
	case *ast.NullIf:
		return ev.nullIf(n, e)
	case *ast.StructCtor:
		return ev.structCtor(n, e)
	case *ast.ListCtor:
		return ev.listCtor(n, e)
	case *ast.BagCtor:
		return ev.bagCtor(n, e)
	case *ast.SexpCtor:
		return ev.sexpCtor(n, e)
	case *ast.Call:
		return ev.call(n, e)
	case *ast.Aggregate:
		return ev.aggregate(n, e)
	case *ast.Cast:
		return ev.cast(n, e)
	case *ast.Extract:
		return ev.extract(n, e)
	case *ast.SetOpExpr:
		return ev.setOp(n, e)
	case *ast.Select:
		return ev.selectExpr(n, e)
	}
	return nil, errInternal("unhandled expression variant")
}

func (ev *evaluator) ident(n *ast.Ident, e env.Env) (value.Value, error) {
	name := env.Name{Text: n.Name, Sensitivity: ev.sensitivity(n.Sensitive)}
	q := env.Unqualified
	if n.Locals {
		q = env.LocalsFirst
	}
	v, ok := e.Resolve(name, q)
	if !ok {
		if ev.opts.Mode == Permissive {
			return value.Missing{}, nil
		}
		return nil, errUnbound(n.Name)
	}
	return v, nil
}

// step applies a single path step to root. Fan-out bags
// produced by wildcard steps map the step over their
// elements.
func (ev *evaluator) dot(n *ast.Dot, e env.Env) (value.Value, error) {
	root, err := ev.eval(n.Inner, e)
	if err != nil {
		return nil, err
	}
	return ev.dotValue(n, root)
}

func (ev *evaluator) dotValue(n *ast.Dot, root value.Value) (value.Value, error) {
	switch root := root.(type) {
	case *value.Struct:
		v, ok, ambiguous := root.FieldByName(n.Field, n.Sensitive || ev.opts.CaseSensitive)
		if ambiguous {
			return nil, errAmbiguous(n.Field)
		}
		if !ok {
			return value.Missing{}, nil
		}
		return v, nil
	case *value.Bag:
		// wildcard fan-out: apply the step per element
		var out []value.Value
		var ferr error
		root.Each(func(elem value.Value) bool {
			v, err := ev.dotValue(n, elem)
			if err != nil {
				ferr = err
				return false
			}
			if v.Kind() != value.MissingKind {
				out = append(out, v)
			}
			return true
		})
		if ferr != nil {
			return nil, ferr
		}
		return value.NewBag(out...), nil
	case value.Missing, value.Null:
		return value.Missing{}, nil
	}
	return value.Missing{}, nil
}

func (ev *evaluator) index(n *ast.Index, e env.Env) (value.Value, error) {
	root, err := ev.eval(n.Inner, e)
	if err != nil {
		return nil, err
	}
	off, err := ev.eval(n.Offset, e)
	if err != nil {
		return nil, err
	}
	return ev.indexValue(n, root, off)
}

func (ev *evaluator) indexValue(n *ast.Index, root, off value.Value) (value.Value, error) {
	i, ok := off.(value.Int)
	if !ok {
		return ev.soften(errType(n, "[]", 2, "int", off.Kind()))
	}
	switch root := root.(type) {
	case *value.List:
		if v, ok := root.Index(int(i)); ok {
			return v, nil
		}
		return value.Missing{}, nil
	case *value.Sexp:
		if v, ok := root.Index(int(i)); ok {
			return v, nil
		}
		return value.Missing{}, nil
	case *value.Bag:
		var out []value.Value
		var ferr error
		root.Each(func(elem value.Value) bool {
			v, err := ev.indexValue(n, elem, off)
			if err != nil {
				ferr = err
				return false
			}
			if v.Kind() != value.MissingKind {
				out = append(out, v)
			}
			return true
		})
		if ferr != nil {
			return nil, ferr
		}
		return value.NewBag(out...), nil
	}
	return value.Missing{}, nil
}

// allElements converts the current level of a path into
// a bag of its elements so that the rest of the path
// continues element-wise.
func (ev *evaluator) allElements(n *ast.AllElements, e env.Env) (value.Value, error) {
	root, err := ev.eval(n.Inner, e)
	if err != nil {
		return nil, err
	}
	switch root := root.(type) {
	case *value.List:
		var out []value.Value
		root.Each(func(v value.Value) bool {
			out = append(out, v)
			return true
		})
		return value.NewBag(out...), nil
	case *value.Sexp:
		var out []value.Value
		root.Each(func(v value.Value) bool {
			out = append(out, v)
			return true
		})
		return value.NewBag(out...), nil
	case *value.Bag:
		return root, nil
	case value.Missing, value.Null:
		return value.Missing{}, nil
	}
	return ev.soften(errNotContainer(n, root.Kind()))
}

// allFields converts the current level into a bag of
// struct field values.
func (ev *evaluator) allFields(n *ast.AllFields, e env.Env) (value.Value, error) {
	root, err := ev.eval(n.Inner, e)
	if err != nil {
		return nil, err
	}
	switch root := root.(type) {
	case *value.Struct:
		var out []value.Value
		root.Each(func(f value.Field) bool {
			out = append(out, f.Value)
			return true
		})
		return value.NewBag(out...), nil
	case *value.Bag:
		var out []value.Value
		root.Each(func(elem value.Value) bool {
			if s, ok := elem.(*value.Struct); ok {
				s.Each(func(f value.Field) bool {
					out = append(out, f.Value)
					return true
				})
			}
			return true
		})
		return value.NewBag(out...), nil
	case value.Missing, value.Null:
		return value.Missing{}, nil
	}
	return ev.soften(errNotContainer(n, root.Kind()))
}

func (ev *evaluator) logical(n *ast.Logical, e env.Env) (value.Value, error) {
	lv, err := ev.eval(n.Left, e)
	if err != nil {
		return nil, err
	}
	lt, err := ev.truth(n.Left, lv)
	if err != nil {
		return nil, err
	}
	// short-circuit on the dominating operand
	if n.Op == ast.OpAnd && lt == no {
		return value.Bool(false), nil
	}
	if n.Op == ast.OpOr && lt == yes {
		return value.Bool(true), nil
	}
	rv, err := ev.eval(n.Right, e)
	if err != nil {
		return nil, err
	}
	rt, err := ev.truth(n.Right, rv)
	if err != nil {
		return nil, err
	}
	if n.Op == ast.OpAnd {
		switch {
		case rt == no:
			return value.Bool(false), nil
		case lt == yes && rt == yes:
			return value.Bool(true), nil
		}
		return value.Null{}, nil
	}
	switch {
	case rt == yes:
		return value.Bool(true), nil
	case lt == no && rt == no:
		return value.Bool(false), nil
	}
	return value.Null{}, nil
}

// propagate implements the missing-before-null rule for
// scalar operators: MISSING wins over NULL, and NULL
// wins over ordinary values.
func propagate(vals ...value.Value) (value.Value, bool) {
	for i := range vals {
		if vals[i].Kind() == value.MissingKind {
			return value.Missing{}, true
		}
	}
	for i := range vals {
		if vals[i].Kind() == value.NullKind {
			return value.Null{}, true
		}
	}
	return nil, false
}

func isNumeric(v value.Value) bool {
	switch v.Kind() {
	case value.IntKind, value.DecimalKind, value.FloatKind:
		return true
	}
	return false
}

// comparable reports whether a and b belong to the same
// comparison class; cross-class comparisons yield NULL.
func comparable(a, b value.Value) bool {
	if isNumeric(a) && isNumeric(b) {
		return true
	}
	return a.Kind() == b.Kind()
}

func (ev *evaluator) compare(n *ast.Comparison, e env.Env) (value.Value, error) {
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
	if !comparable(lv, rv) {
		return value.Null{}, nil
	}
	c := value.Compare(lv, rv)
	switch n.Op {
	case ast.Equals:
		return value.Bool(value.Equal(lv, rv)), nil
	case ast.NotEquals:
		return value.Bool(!value.Equal(lv, rv)), nil
	case ast.Less:
		return value.Bool(c < 0), nil
	case ast.LessEquals:
		return value.Bool(c <= 0), nil
	case ast.Greater:
		return value.Bool(c > 0), nil
	default:
		return value.Bool(c >= 0), nil
	}
}

func (ev *evaluator) between(n *ast.Between, e env.Env) (value.Value, error) {
	v, err := ev.eval(n.Expr, e)
	if err != nil {
		return nil, err
	}
	lo, err := ev.eval(n.Lo, e)
	if err != nil {
		return nil, err
	}
	hi, err := ev.eval(n.Hi, e)
	if err != nil {
		return nil, err
	}
	if out, ok := propagate(v, lo, hi); ok {
		return out, nil
	}
	// (v >= lo) AND (v <= hi) under 3VL
	ge := unknown
	if comparable(v, lo) {
		if value.Compare(v, lo) >= 0 {
			ge = yes
		} else {
			ge = no
		}
	}
	le := unknown
	if comparable(v, hi) {
		if value.Compare(v, hi) <= 0 {
			le = yes
		} else {
			le = no
		}
	}
	switch {
	case ge == no || le == no:
		return value.Bool(false), nil
	case ge == yes && le == yes:
		return value.Bool(true), nil
	}
	return value.Null{}, nil
}

func (ev *evaluator) in(n *ast.In, e env.Env) (value.Value, error) {
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
	elems, ok := elements(rv)
	if !ok {
		return ev.soften(errNotContainer(n.Right, rv.Kind()))
	}
	sawNull := false
	found := false
	elems(func(elem value.Value) bool {
		switch elem.Kind() {
		case value.NullKind, value.MissingKind:
			sawNull = true
			return true
		}
		if comparable(lv, elem) && value.Equal(lv, elem) {
			found = true
			return false
		}
		return true
	})
	if found {
		return value.Bool(true), nil
	}
	if sawNull {
		return value.Null{}, nil
	}
	return value.Bool(false), nil
}

// elements returns an iteration function over the
// elements of a container value.
func elements(v value.Value) (func(func(value.Value) bool), bool) {
	switch v := v.(type) {
	case *value.List:
		return v.Each, true
	case *value.Sexp:
		return v.Each, true
	case *value.Bag:
		return v.Each, true
	}
	return nil, false
}

func (ev *evaluator) is(n *ast.Is, e env.Env) (value.Value, error) {
	v, err := ev.eval(n.Expr, e)
	if err != nil {
		return nil, err
	}
	res := ev.isType(v, n.T)
	if n.Negated {
		res = !res
	}
	return value.Bool(res), nil
}

// isType implements the IS predicate: MISSING satisfies
// both MISSING and NULL; NULL satisfies only NULL.
func (ev *evaluator) isType(v value.Value, t ast.Type) bool {
	if st, ok := t.(ast.SimpleType); ok {
		switch st {
		case ast.MissingType:
			return v.Kind() == value.MissingKind
		case ast.NullType:
			return v.Kind() == value.MissingKind || v.Kind() == value.NullKind
		case ast.AnyType:
			return true
		}
	}
	switch v.Kind() {
	case value.MissingKind, value.NullKind:
		return false
	}
	return kindMatches(v.Kind(), t)
}

func (ev *evaluator) caseExpr(n *ast.Case, e env.Env) (value.Value, error) {
	var operand value.Value
	if n.Operand != nil {
		var err error
		operand, err = ev.eval(n.Operand, e)
		if err != nil {
			return nil, err
		}
	}
	for i := range n.Limbs {
		w, err := ev.eval(n.Limbs[i].When, e)
		if err != nil {
			return nil, err
		}
		hit := false
		if n.Operand != nil {
			hit = comparable(operand, w) && value.Equal(operand, w)
		} else {
			t, err := ev.truth(n.Limbs[i].When, w)
			if err != nil {
				return nil, err
			}
			hit = t == yes
		}
		if hit {
			return ev.eval(n.Limbs[i].Then, e)
		}
	}
	if n.Else != nil {
		return ev.eval(n.Else, e)
	}
	return value.Null{}, nil
}

func (ev *evaluator) coalesce(n *ast.Coalesce, e env.Env) (value.Value, error) {
	for i := range n.Args {
		v, err := ev.eval(n.Args[i], e)
		if err != nil {
			return nil, err
		}
		switch v.Kind() {
		case value.NullKind, value.MissingKind:
			continue
		}
		return v, nil
	}
	return value.Null{}, nil
}

func (ev *evaluator) nullIf(n *ast.NullIf, e env.Env) (value.Value, error) {
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
	if comparable(lv, rv) && value.Equal(lv, rv) {
		return value.Null{}, nil
	}
	return lv, nil
}

func (ev *evaluator) structCtor(n *ast.StructCtor, e env.Env) (value.Value, error) {
	fields := make([]value.Field, 0, len(n.Fields))
	for i := range n.Fields {
		nv, err := ev.eval(n.Fields[i].Name, e)
		if err != nil {
			return nil, err
		}
		vv, err := ev.eval(n.Fields[i].Value, e)
		if err != nil {
			return nil, err
		}
		// a MISSING name or value elides the pair
		if nv.Kind() == value.MissingKind || vv.Kind() == value.MissingKind {
			continue
		}
		var name string
		switch nv := nv.(type) {
		case value.String:
			name = string(nv)
		case value.Symbol:
			name = string(nv)
		default:
			if ev.opts.Mode == Permissive {
				continue
			}
			return nil, errType(n, "struct", i+1, "string", nv.Kind())
		}
		fields = append(fields, value.Field{Name: name, Value: vv})
	}
	return value.NewStruct(fields), nil
}

func (ev *evaluator) listCtor(n *ast.ListCtor, e env.Env) (value.Value, error) {
	items, err := ev.evalAll(n.Items, e)
	if err != nil {
		return nil, err
	}
	return value.NewList(items...), nil
}

func (ev *evaluator) bagCtor(n *ast.BagCtor, e env.Env) (value.Value, error) {
	items, err := ev.evalAll(n.Items, e)
	if err != nil {
		return nil, err
	}
	return value.NewBag(items...), nil
}

func (ev *evaluator) sexpCtor(n *ast.SexpCtor, e env.Env) (value.Value, error) {
	items, err := ev.evalAll(n.Items, e)
	if err != nil {
		return nil, err
	}
	return value.NewSexp(items...), nil
}

func (ev *evaluator) evalAll(lst []ast.Node, e env.Env) ([]value.Value, error) {
	out := make([]value.Value, len(lst))
	for i := range lst {
		v, err := ev.eval(lst[i], e)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (ev *evaluator) setOp(n *ast.SetOpExpr, e env.Env) (value.Value, error) {
	lv, err := ev.eval(n.Left, e)
	if err != nil {
		return nil, err
	}
	rv, err := ev.eval(n.Right, e)
	if err != nil {
		return nil, err
	}
	liter, ok := elements(lv)
	if !ok {
		return ev.soften(errNotContainer(n.Left, lv.Kind()))
	}
	riter, ok := elements(rv)
	if !ok {
		return ev.soften(errNotContainer(n.Right, rv.Kind()))
	}
	var left, right []value.Value
	liter(func(v value.Value) bool { left = append(left, v); return true })
	riter(func(v value.Value) bool { right = append(right, v); return true })

	var out []value.Value
	switch n.Op {
	case ast.UnionOp:
		out = append(append(out, left...), right...)
		if !n.All {
			out = dedupe(out)
		}
	case ast.IntersectOp:
		rset := newValueSet(right)
		for _, v := range left {
			if rset.remove(v) {
				out = append(out, v)
			}
		}
		if !n.All {
			out = dedupe(out)
		}
	case ast.ExceptOp:
		rset := newValueSet(right)
		for _, v := range left {
			if !rset.remove(v) {
				out = append(out, v)
			}
		}
		if !n.All {
			out = dedupe(out)
		}
	}
	return value.NewBag(out...), nil
}
