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
	"strconv"

	"github.com/google/uuid"
	"golang.org/x/exp/slices"

	"github.com/SnellerInc/partiql/ast"
	"github.com/SnellerInc/partiql/diag"
	"github.com/SnellerInc/partiql/env"
	"github.com/SnellerInc/partiql/value"
)

// outRow is a projected output row paired with the scope
// (and grouping context) its ORDER BY keys evaluate in.
type outRow struct {
	v     value.Value
	scope *env.Scope
	group *groupCtx
}

// selectExpr runs the SFW pipeline:
// FROM -> LET -> WHERE -> GROUP BY -> HAVING ->
// projection -> DISTINCT -> ORDER BY -> LIMIT/OFFSET.
func (ev *evaluator) selectExpr(s *ast.Select, outer env.Env) (value.Value, error) {
	rows, err := ev.fromRows(s.From, outer)
	if err != nil {
		return nil, err
	}
	// LET bindings are visible to later LET bindings
	// and to every later stage
	for _, row := range rows {
		for i := range s.Let {
			v, err := ev.eval(s.Let[i].Expr, row)
			if err != nil {
				return nil, err
			}
			row.Bind(s.Let[i].Result(), v)
		}
	}
	if s.Where != nil {
		kept := rows[:0:0]
		for _, row := range rows {
			v, err := ev.eval(s.Where, row)
			if err != nil {
				return nil, err
			}
			t, err := ev.truth(s.Where, v)
			if err != nil {
				return nil, err
			}
			// only boolean TRUE keeps the row
			if t == yes {
				kept = append(kept, row)
			}
		}
		rows = kept
	}

	if s.PivotExpr != nil {
		return ev.pivot(s, rows, outer)
	}

	grouped := len(s.GroupBy) > 0 || s.Having != nil ||
		anyAggregate(s)
	var out []outRow
	if grouped {
		out, err = ev.groupedRows(s, rows, outer)
	} else {
		out, err = ev.plainRows(s, rows)
	}
	if err != nil {
		return nil, err
	}

	if s.Distinct {
		out = ev.distinct(out)
	}
	if len(s.OrderBy) > 0 {
		if err := ev.orderBy(s.OrderBy, out); err != nil {
			return nil, err
		}
	}
	out, err = ev.limitOffset(s, out, outer)
	if err != nil {
		return nil, err
	}

	vals := make([]value.Value, len(out))
	for i := range out {
		vals[i] = out[i].v
	}
	// ORDER BY fixes the output order; otherwise the
	// result is an unordered bag
	if len(s.OrderBy) > 0 {
		return value.NewList(vals...), nil
	}
	return value.NewBag(vals...), nil
}

// anyAggregate reports whether the projection or HAVING
// of s contains an aggregate call, which forces the
// implicit single-group evaluation.
func anyAggregate(s *ast.Select) bool {
	found := false
	probe := func(n ast.Node) {
		if n == nil || found {
			return
		}
		w := walkfn(func(x ast.Node) bool {
			if _, ok := x.(*ast.Aggregate); ok {
				found = true
				return false
			}
			// nested subqueries own their aggregates
			if _, ok := x.(*ast.Select); ok {
				return false
			}
			return true
		})
		ast.Walk(w, n)
	}
	probe(s.Value)
	for i := range s.Columns {
		probe(s.Columns[i].Expr)
	}
	probe(s.Having)
	for i := range s.OrderBy {
		probe(s.OrderBy[i].Expr)
	}
	return found
}

// walkfn adapts a function to ast.Visitor.
type walkfn func(ast.Node) bool

func (f walkfn) Visit(n ast.Node) ast.Visitor {
	if n == nil || !f(n) {
		return nil
	}
	return f
}

// fromRows evaluates a FROM clause into the bound rows.
func (ev *evaluator) fromRows(f ast.From, outer env.Env) ([]*env.Scope, error) {
	if f == nil {
		// no FROM: a single row with no locals
		return []*env.Scope{env.NewScope(outer, true)}, nil
	}
	switch f := f.(type) {
	case *ast.Table:
		return ev.scanTable(f, outer)
	case *ast.Unpivot:
		return ev.scanUnpivot(f, outer)
	case *ast.Join:
		return ev.joinRows(f, outer)
	}
	return nil, errInternal("FROM source requires an alias binding")
}

func (ev *evaluator) scanTable(t *ast.Table, outer env.Env) ([]*env.Scope, error) {
	v, err := ev.eval(t.Binding.Expr, outer)
	if err != nil {
		return nil, err
	}
	as := t.Binding.Result()
	if as == "" {
		as = "_1"
	}
	ordered := v.Kind() == value.ListKind || v.Kind() == value.SexpKind
	iter, ok := elements(v)
	if !ok {
		if v.Kind() == value.MissingKind || v.Kind() == value.NullKind {
			return nil, nil
		}
		if ev.opts.Mode != Permissive {
			return nil, errNotContainer(t.Binding.Expr, v.Kind())
		}
		// permissive: scan a scalar as a singleton
		iter = func(fn func(value.Value) bool) { fn(v) }
	}
	var rows []*env.Scope
	i := 0
	iter(func(elem value.Value) bool {
		row := env.NewScope(outer, true)
		row.Bind(as, elem)
		if t.At != "" {
			if ordered {
				row.Bind(t.At, value.Int(i))
			} else {
				// bags have no element ordinal
				row.Bind(t.At, value.Missing{})
			}
		}
		if t.By != "" {
			row.Bind(t.By, value.String(uuid.NewString()))
		}
		rows = append(rows, row)
		i++
		return true
	})
	return rows, nil
}

func (ev *evaluator) scanUnpivot(u *ast.Unpivot, outer env.Env) ([]*env.Scope, error) {
	v, err := ev.eval(u.Binding.Expr, outer)
	if err != nil {
		return nil, err
	}
	as := u.Binding.Result()
	if as == "" {
		as = "_1"
	}
	s, ok := v.(*value.Struct)
	if !ok {
		if v.Kind() == value.MissingKind || v.Kind() == value.NullKind {
			return nil, nil
		}
		if ev.opts.Mode != Permissive {
			return nil, errNotContainer(u.Binding.Expr, v.Kind())
		}
		// permissive: unpivot a non-struct as a single
		// pair with an absent name
		row := env.NewScope(outer, true)
		row.Bind(as, v)
		if u.At != "" {
			row.Bind(u.At, value.Missing{})
		}
		return []*env.Scope{row}, nil
	}
	var rows []*env.Scope
	s.Each(func(f value.Field) bool {
		row := env.NewScope(outer, true)
		row.Bind(as, f.Value)
		if u.At != "" {
			row.Bind(u.At, value.String(f.Name))
		}
		rows = append(rows, row)
		return true
	})
	return rows, nil
}

// merged builds a fresh FROM-scope over outer holding
// the locals of each scope in order.
func merged(outer env.Env, scopes ...*env.Scope) *env.Scope {
	out := env.NewScope(outer, true)
	for _, s := range scopes {
		for _, f := range s.Fields() {
			out.Bind(f.Name, f.Value)
		}
	}
	return out
}

// padded returns a flat scope over outer holding base's
// locals plus every name in bindings bound to MISSING.
func padded(outer env.Env, base *env.Scope, bindings []ast.Binding) *env.Scope {
	out := merged(outer, base)
	for i := range bindings {
		out.Bind(bindings[i].Result(), value.Missing{})
	}
	return out
}

func (ev *evaluator) joinRows(j *ast.Join, outer env.Env) ([]*env.Scope, error) {
	switch j.Kind {
	case ast.CrossJoin, ast.InnerJoin, ast.LeftJoin, ast.NoJoin:
		return ev.nestedJoin(j, outer)
	case ast.RightJoin, ast.FullJoin:
		return ev.outerJoin(j, outer)
	}
	return nil, errInternal("bad join kind")
}

// nestedJoin evaluates the right side once per left row,
// so the right source may be correlated with the left
// bindings (lateral iteration).
func (ev *evaluator) nestedJoin(j *ast.Join, outer env.Env) ([]*env.Scope, error) {
	left, err := ev.fromRows(j.Left, outer)
	if err != nil {
		return nil, err
	}
	var out []*env.Scope
	for _, lrow := range left {
		right, err := ev.fromRows(j.Right, lrow)
		if err != nil {
			return nil, err
		}
		matched := false
		for _, rrow := range right {
			ok, err := ev.joinMatch(j.On, rrow)
			if err != nil {
				return nil, err
			}
			if ok {
				matched = true
				// flatten so that every FROM binding
				// lives in the row's own frame
				out = append(out, merged(outer, lrow, rrow))
			}
		}
		// LEFT JOIN pads exactly one row per unmatched
		// left element
		if !matched && j.Kind == ast.LeftJoin {
			out = append(out, padded(outer, lrow, j.Right.Tables()))
		}
	}
	return out, nil
}

// outerJoin evaluates both sides independently and pads
// the unmatched side; RIGHT JOIN output follows the
// right-source order.
func (ev *evaluator) outerJoin(j *ast.Join, outer env.Env) ([]*env.Scope, error) {
	left, err := ev.fromRows(j.Left, outer)
	if err != nil {
		return nil, err
	}
	right, err := ev.fromRows(j.Right, outer)
	if err != nil {
		return nil, err
	}
	var out []*env.Scope
	if j.Kind == ast.RightJoin {
		for _, rrow := range right {
			matched := false
			for _, lrow := range left {
				row := merged(outer, lrow, rrow)
				ok, err := ev.joinMatch(j.On, row)
				if err != nil {
					return nil, err
				}
				if ok {
					matched = true
					out = append(out, row)
				}
			}
			if !matched {
				out = append(out, padded(outer, rrow, j.Left.Tables()))
			}
		}
		return out, nil
	}
	// FULL JOIN: left-major matched rows, then left pads,
	// then unmatched right rows in right-source order
	rmatched := make([]bool, len(right))
	for _, lrow := range left {
		matched := false
		for ri, rrow := range right {
			row := merged(outer, lrow, rrow)
			ok, err := ev.joinMatch(j.On, row)
			if err != nil {
				return nil, err
			}
			if ok {
				matched = true
				rmatched[ri] = true
				out = append(out, row)
			}
		}
		if !matched {
			out = append(out, padded(outer, lrow, j.Right.Tables()))
		}
	}
	for ri, rrow := range right {
		if !rmatched[ri] {
			out = append(out, padded(outer, rrow, j.Left.Tables()))
		}
	}
	return out, nil
}

func (ev *evaluator) joinMatch(on ast.Node, row *env.Scope) (bool, error) {
	if on == nil {
		return true, nil
	}
	v, err := ev.eval(on, row)
	if err != nil {
		return false, err
	}
	t, err := ev.truth(on, v)
	if err != nil {
		return false, err
	}
	return t == yes, nil
}

// plainRows projects each input row.
func (ev *evaluator) plainRows(s *ast.Select, rows []*env.Scope) ([]outRow, error) {
	out := make([]outRow, 0, len(rows))
	for _, row := range rows {
		v, err := ev.project(s, row)
		if err != nil {
			return nil, err
		}
		out = append(out, outRow{v: v, scope: row})
	}
	return out, nil
}

// group is one GROUP BY partition.
type group struct {
	keys []value.Value
	rows []*env.Scope
}

func (ev *evaluator) groupedRows(s *ast.Select, rows []*env.Scope, outer env.Env) ([]outRow, error) {
	var groups []*group
	if len(s.GroupBy) == 0 {
		// implicit single group over the whole input
		groups = []*group{{rows: rows}}
	} else {
		index := make(map[[2]uint64][]*group)
		for _, row := range rows {
			keys := make([]value.Value, len(s.GroupBy))
			for i := range s.GroupBy {
				v, err := ev.eval(s.GroupBy[i].Expr, row)
				if err != nil {
					return nil, err
				}
				keys[i] = v
			}
			hk := hashkey(value.NewList(keys...))
			var g *group
			for _, have := range index[hk] {
				if keysEqual(have.keys, keys) {
					g = have
					break
				}
			}
			if g == nil {
				g = &group{keys: keys}
				index[hk] = append(index[hk], g)
				groups = append(groups, g)
			}
			g.rows = append(g.rows, row)
		}
	}

	var out []outRow
	// restore the enclosing grouping context when done;
	// this query may itself be a subquery inside an outer
	// group's projection
	prev := ev.group
	defer func() { ev.group = prev }()
	for _, g := range groups {
		scope := env.NewScope(outer, false)
		for i := range s.GroupBy {
			scope.Bind(s.GroupBy[i].Result(), g.keys[i])
		}
		if s.GroupAs != "" {
			scope.Bind(s.GroupAs, groupImage(g.rows))
		}
		// GROUP PARTIAL BY binds only the keys and the
		// group alias; it establishes no aggregate context
		var gctx *groupCtx
		if s.Grouping != ast.GroupPartial {
			gctx = &groupCtx{rows: g.rows}
			ev.group = gctx
		}
		keep := true
		if s.Having != nil {
			v, err := ev.eval(s.Having, scope)
			if err != nil {
				return nil, err
			}
			t, err := ev.truth(s.Having, v)
			if err != nil {
				return nil, err
			}
			keep = t == yes
		}
		if keep {
			v, err := ev.project(s, scope)
			if err != nil {
				return nil, err
			}
			out = append(out, outRow{v: v, scope: scope, group: gctx})
		}
		ev.group = prev
	}
	return out, nil
}

func keysEqual(a, b []value.Value) bool {
	return slices.EqualFunc(a, b, func(x, y value.Value) bool {
		return value.Equal(x, y)
	})
}

// groupImage materializes the GROUP AS alias: a bag of
// struct images of each contributing row's bindings.
func groupImage(rows []*env.Scope) value.Value {
	imgs := make([]value.Value, len(rows))
	for i, row := range rows {
		imgs[i] = value.NewStruct(row.Fields())
	}
	return value.NewBag(imgs...)
}

// project evaluates the SELECT projection for one row or
// group scope.
func (ev *evaluator) project(s *ast.Select, row *env.Scope) (value.Value, error) {
	switch {
	case s.Star:
		return value.NewStruct(row.Fields()), nil
	case s.Value != nil:
		return ev.eval(s.Value, row)
	}
	var fields []value.Field
	for i := range s.Columns {
		b := &s.Columns[i]
		// expr.* flattens the sub-expression's fields
		if af, ok := b.Expr.(*ast.AllFields); ok && !b.Explicit() {
			v, err := ev.eval(af.Inner, row)
			if err != nil {
				return nil, err
			}
			if sub, ok := v.(*value.Struct); ok {
				sub.Each(func(f value.Field) bool {
					fields = append(fields, f)
					return true
				})
			}
			continue
		}
		v, err := ev.eval(b.Expr, row)
		if err != nil {
			return nil, err
		}
		// MISSING attributes are elided from the output
		if v.Kind() == value.MissingKind {
			continue
		}
		name := b.Result()
		if name == "" {
			name = "_" + strconv.Itoa(i+1)
		}
		fields = append(fields, value.Field{Name: name, Value: v})
	}
	return value.NewStruct(fields), nil
}

// pivot builds the single-struct PIVOT projection.
func (ev *evaluator) pivot(s *ast.Select, rows []*env.Scope, outer env.Env) (value.Value, error) {
	var err error
	if len(s.OrderBy) > 0 {
		// order the input rows so the field order is
		// deterministic
		out := make([]outRow, len(rows))
		for i := range rows {
			out[i] = outRow{scope: rows[i]}
		}
		if err = ev.orderBy(s.OrderBy, out); err != nil {
			return nil, err
		}
		for i := range out {
			rows[i] = out[i].scope
		}
	}
	var fields []value.Field
	seen := make(map[string]bool)
	for _, row := range rows {
		kv, err := ev.eval(s.PivotExpr.Key, row)
		if err != nil {
			return nil, err
		}
		vv, err := ev.eval(s.PivotExpr.Value, row)
		if err != nil {
			return nil, err
		}
		// MISSING keys or values elide the pair
		if kv.Kind() == value.MissingKind || vv.Kind() == value.MissingKind {
			continue
		}
		name, ok := text(kv)
		if !ok || seen[name] {
			return nil, diag.New(diag.InvalidPivotKey, diag.Map{
				diag.Expression:  diag.Str(ast.ToString(s.PivotExpr.Key)),
				diag.ActualValue: diag.Raw(valueText{kv}),
			})
		}
		seen[name] = true
		fields = append(fields, value.Field{Name: name, Value: vv})
	}
	return value.NewStruct(fields), nil
}

func (ev *evaluator) distinct(rows []outRow) []outRow {
	seen := newValueSet(nil)
	out := rows[:0:0]
	for i := range rows {
		if seen.insert(rows[i].v) {
			out = append(out, rows[i])
		}
	}
	return out
}

// orderBy stable-sorts rows by the ORDER BY keys using
// the total value order; NULL and MISSING order before
// every other value on ascending keys.
func (ev *evaluator) orderBy(keys []ast.Order, rows []outRow) error {
	type keyed struct {
		row  outRow
		keys []value.Value
	}
	ks := make([]keyed, len(rows))
	prev := ev.group
	defer func() { ev.group = prev }()
	for i := range rows {
		ks[i].row = rows[i]
		ks[i].keys = make([]value.Value, len(keys))
		ev.group = rows[i].group
		for j := range keys {
			v, err := ev.eval(keys[j].Expr, rows[i].scope)
			if err != nil {
				return err
			}
			ks[i].keys[j] = v
		}
		ev.group = prev
	}
	slices.SortStableFunc(ks, func(a, b keyed) bool {
		for j := range keys {
			c := value.Compare(a.keys[j], b.keys[j])
			if c == 0 {
				continue
			}
			if keys[j].Desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
	for i := range ks {
		rows[i] = ks[i].row
	}
	return nil
}

// limitOffset applies OFFSET then LIMIT; both operands
// must evaluate to non-negative integers.
func (ev *evaluator) limitOffset(s *ast.Select, rows []outRow, outer env.Env) ([]outRow, error) {
	if s.Offset != nil {
		n, err := ev.bound(s.Offset, outer, diag.InvalidOffset)
		if err != nil {
			return nil, err
		}
		if n >= int64(len(rows)) {
			rows = nil
		} else {
			rows = rows[n:]
		}
	}
	if s.Limit != nil {
		n, err := ev.bound(s.Limit, outer, diag.InvalidLimit)
		if err != nil {
			return nil, err
		}
		if n < int64(len(rows)) {
			rows = rows[:n]
		}
	}
	return rows, nil
}

func (ev *evaluator) bound(e ast.Node, outer env.Env, code diag.Code) (int64, error) {
	v, err := ev.eval(e, outer)
	if err != nil {
		return 0, err
	}
	i, ok := v.(value.Int)
	if !ok || i < 0 {
		var raw int64 = -1
		if ok {
			raw = int64(i)
		}
		return 0, diag.New(code, diag.Map{
			diag.LimitValue: diag.Long(raw),
		})
	}
	return int64(i), nil
}
