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
	"github.com/google/uuid"

	"github.com/SnellerInc/partiql/ast"
	"github.com/SnellerInc/partiql/diag"
	"github.com/SnellerInc/partiql/env"
	"github.com/SnellerInc/partiql/value"
)

// DML and DDL statements evaluate to mutation intents: a
// struct describing the operation, target, and payload,
// tagged with a unique id. Applying an intent against
// real storage is the caller's concern.

func intent(op string, fields ...value.Field) *value.Struct {
	all := append([]value.Field{
		{Name: "operation", Value: value.String(op)},
		{Name: "id", Value: value.String(uuid.NewString())},
	}, fields...)
	return value.NewStruct(all)
}

func (ev *evaluator) exec(s *ast.Exec, e env.Env) (value.Value, error) {
	args, err := ev.evalAll(s.Args, e)
	if err != nil {
		return nil, err
	}
	return intent("exec",
		value.Field{Name: "procedure", Value: value.String(s.Procedure)},
		value.Field{Name: "args", Value: value.NewList(args...)}), nil
}

func (ev *evaluator) createIndex(s *ast.CreateIndex) (value.Value, error) {
	keys := make([]value.Value, len(s.Keys))
	for i := range s.Keys {
		keys[i] = value.String(ast.ToString(s.Keys[i]))
	}
	return intent("create_index",
		value.Field{Name: "table", Value: value.String(s.Table)},
		value.Field{Name: "keys", Value: value.NewList(keys...)}), nil
}

// targetElems evaluates the collection a DML target path
// names; a missing or non-container target yields no
// elements.
func (ev *evaluator) targetElems(target ast.Node, e env.Env) ([]value.Value, error) {
	v, err := ev.eval(target, e)
	if err != nil {
		if ev.opts.Mode == Permissive {
			return nil, nil
		}
		return nil, err
	}
	iter, ok := elements(v)
	if !ok {
		return nil, nil
	}
	var out []value.Value
	iter(func(elem value.Value) bool {
		out = append(out, elem)
		return true
	})
	return out, nil
}

// returningValue computes a RETURNING clause given the
// pre-mutation elements, the modified pre-images, and
// the modified post-images.
func (ev *evaluator) returningValue(r *ast.Returning, old, modOld, modNew []value.Value) (value.Value, error) {
	// the post-mutation whole-target image: old rows
	// with pre-images replaced by post-images, plus
	// net-new rows appended
	allNew := make([]value.Value, 0, len(old)+len(modNew))
	drop := newValueSet(modOld)
	for _, v := range old {
		if !drop.remove(v) {
			allNew = append(allNew, v)
		}
	}
	allNew = append(allNew, modNew...)

	per := make([]value.Value, len(r.Elems))
	for i := range r.Elems {
		var src []value.Value
		switch r.Elems[i].Mapping {
		case ast.ModifiedNew:
			src = modNew
		case ast.ModifiedOld:
			src = modOld
		case ast.AllNew:
			src = allNew
		case ast.AllOld:
			src = old
		}
		rows := make([]value.Value, 0, len(src))
		for _, img := range src {
			v, err := ev.columnOf(r.Elems[i].Column, img)
			if err != nil {
				return nil, err
			}
			if v.Kind() == value.MissingKind {
				continue
			}
			rows = append(rows, v)
		}
		per[i] = value.NewBag(rows...)
	}
	if len(per) == 1 {
		return per[0], nil
	}
	return value.NewList(per...), nil
}

// columnOf projects a RETURNING column out of a row
// image; Star selects the whole image.
func (ev *evaluator) columnOf(col ast.Node, img value.Value) (value.Value, error) {
	if _, ok := col.(ast.Star); ok {
		return img, nil
	}
	scope := env.Empty
	if s, ok := img.(*value.Struct); ok {
		scope = env.Wrap(s)
	}
	save := ev.opts.Mode
	// a RETURNING column that is absent from an image is
	// elided, never an unbound-variable error
	ev.opts.Mode = Permissive
	v, err := ev.eval(col, scope)
	ev.opts.Mode = save
	return v, err
}

func (ev *evaluator) withReturning(in *value.Struct, r *ast.Returning, old, modOld, modNew []value.Value) (value.Value, error) {
	if r == nil {
		return in, nil
	}
	rv, err := ev.returningValue(r, old, modOld, modNew)
	if err != nil {
		return nil, err
	}
	fields := make([]value.Field, 0, in.Len()+1)
	in.Each(func(f value.Field) bool {
		fields = append(fields, f)
		return true
	})
	fields = append(fields, value.Field{Name: "returning", Value: rv})
	return value.NewStruct(fields), nil
}

func (ev *evaluator) insert(s *ast.Insert, e env.Env) (value.Value, error) {
	src, err := ev.eval(s.Source, e)
	if err != nil {
		return nil, err
	}
	var inserted []value.Value
	if iter, ok := elements(src); ok {
		iter(func(v value.Value) bool {
			inserted = append(inserted, v)
			return true
		})
	} else {
		inserted = []value.Value{src}
	}
	old, err := ev.targetElems(s.Target, e)
	if err != nil {
		return nil, err
	}
	in := intent("insert",
		value.Field{Name: "target", Value: value.String(ast.ToString(s.Target))},
		value.Field{Name: "values", Value: value.NewList(inserted...)})
	return ev.withReturning(in, s.Returning, old, nil, inserted)
}

func (ev *evaluator) insertValue(s *ast.InsertValue, e env.Env) (value.Value, error) {
	v, err := ev.eval(s.Value, e)
	if err != nil {
		return nil, err
	}
	old, err := ev.targetElems(s.Target, e)
	if err != nil {
		return nil, err
	}
	conflicted := false
	if s.Where != nil {
		for _, elem := range old {
			scope := env.Empty
			if es, ok := elem.(*value.Struct); ok {
				scope = env.Wrap(es)
			}
			cv, err := ev.eval(s.Where, scope)
			if err != nil {
				return nil, err
			}
			t, err := ev.truth(s.Where, cv)
			if err != nil {
				return nil, err
			}
			if t == yes {
				conflicted = true
				break
			}
		}
	}
	if conflicted && s.OnConflict == ast.NoConflictClause {
		return nil, diag.New(diag.ConflictViolation, diag.Map{
			diag.Expression: diag.Str(ast.ToString(s.Where)),
		})
	}
	fields := []value.Field{
		{Name: "target", Value: value.String(ast.ToString(s.Target))},
		{Name: "value", Value: v},
	}
	if s.At != nil {
		at, err := ev.eval(s.At, e)
		if err != nil {
			return nil, err
		}
		fields = append(fields, value.Field{Name: "at", Value: at})
	}
	var inserted []value.Value
	if conflicted {
		// ON CONFLICT ... DO NOTHING drops the insert
		fields = append(fields, value.Field{Name: "skipped", Value: value.Bool(true)})
	} else {
		inserted = []value.Value{v}
	}
	in := intent("insert_value", fields...)
	return ev.withReturning(in, s.Returning, old, nil, inserted)
}

func (ev *evaluator) updateSet(s *ast.UpdateSet, e env.Env) (value.Value, error) {
	old, alias, err := ev.dmlScan(&s.Target, e)
	if err != nil {
		return nil, err
	}
	var modOld, modNew []value.Value
	for _, elem := range old {
		hit, err := ev.dmlFilter(s.Where, alias, elem, e)
		if err != nil {
			return nil, err
		}
		if !hit {
			continue
		}
		img := elem
		for i := range s.Assignments {
			names, ok := assignPath(s.Assignments[i].Target, alias)
			if !ok {
				return nil, errInternal("unsupported assignment target")
			}
			av, err := ev.dmlEval(s.Assignments[i].Value, alias, img, e)
			if err != nil {
				return nil, err
			}
			img, ok = setPath(img, names, av)
			if !ok {
				return nil, errNotContainer(s.Assignments[i].Target, elem.Kind())
			}
		}
		modOld = append(modOld, elem)
		modNew = append(modNew, img)
	}
	in := intent("set",
		value.Field{Name: "target", Value: value.String(s.Target.Result())},
		value.Field{Name: "old", Value: value.NewList(modOld...)},
		value.Field{Name: "new", Value: value.NewList(modNew...)})
	return ev.withReturning(in, s.Returning, old, modOld, modNew)
}

func (ev *evaluator) remove(s *ast.Remove, e env.Env) (value.Value, error) {
	// the OLD image of the removed value, when resolvable
	save := ev.opts.Mode
	ev.opts.Mode = Permissive
	v, err := ev.eval(s.Target, e)
	ev.opts.Mode = save
	if err != nil {
		return nil, err
	}
	return intent("remove",
		value.Field{Name: "target", Value: value.String(ast.ToString(s.Target))},
		value.Field{Name: "value", Value: v}), nil
}

func (ev *evaluator) delete(s *ast.Delete, e env.Env) (value.Value, error) {
	old, alias, err := ev.dmlScan(&s.Target, e)
	if err != nil {
		return nil, err
	}
	var removed []value.Value
	for _, elem := range old {
		hit, err := ev.dmlFilter(s.Where, alias, elem, e)
		if err != nil {
			return nil, err
		}
		if hit {
			removed = append(removed, elem)
		}
	}
	in := intent("delete",
		value.Field{Name: "target", Value: value.String(s.Target.Result())},
		value.Field{Name: "values", Value: value.NewList(removed...)})
	return ev.withReturning(in, s.Returning, old, removed, nil)
}

// dmlScan evaluates a DML target binding and returns the
// target elements plus the element alias name.
func (ev *evaluator) dmlScan(b *ast.Binding, e env.Env) ([]value.Value, string, error) {
	elems, err := ev.targetElems(b.Expr, e)
	if err != nil {
		return nil, "", err
	}
	return elems, b.Result(), nil
}

// dmlFilter evaluates a WHERE condition with the element
// bound to the target alias; a nil condition matches.
func (ev *evaluator) dmlFilter(where ast.Node, alias string, elem value.Value, e env.Env) (bool, error) {
	if where == nil {
		return true, nil
	}
	v, err := ev.dmlEval(where, alias, elem, e)
	if err != nil {
		return false, err
	}
	t, err := ev.truth(where, v)
	if err != nil {
		return false, err
	}
	return t == yes, nil
}

func (ev *evaluator) dmlEval(n ast.Node, alias string, elem value.Value, e env.Env) (value.Value, error) {
	scope := env.NewScope(e, true)
	if alias != "" {
		scope.Bind(alias, elem)
	}
	// the element's own attributes resolve unqualified
	if es, ok := elem.(*value.Struct); ok {
		es.Each(func(f value.Field) bool {
			scope.Bind(f.Name, f.Value)
			return true
		})
	}
	return ev.eval(n, scope)
}

// assignPath flattens a SET assignment target into field
// names, dropping a leading element alias.
func assignPath(n ast.Node, alias string) ([]string, bool) {
	var names []string
	for {
		switch t := n.(type) {
		case *ast.Ident:
			if t.Name != alias || len(names) == 0 {
				names = append(names, t.Name)
			}
			// reverse into evaluation order
			for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
				names[i], names[j] = names[j], names[i]
			}
			return names, true
		case *ast.Dot:
			names = append(names, t.Field)
			n = t.Inner
		default:
			return nil, false
		}
	}
}

// setPath returns a copy of img with the named nested
// field replaced by v, creating the leaf field when
// absent.
func setPath(img value.Value, names []string, v value.Value) (value.Value, bool) {
	if len(names) == 0 {
		return v, true
	}
	s, ok := img.(*value.Struct)
	if !ok {
		return nil, false
	}
	fields := make([]value.Field, 0, s.Len()+1)
	replaced := false
	var ferr bool
	s.Each(func(f value.Field) bool {
		if !replaced && f.Name == names[0] {
			nv, ok := setPath(f.Value, names[1:], v)
			if !ok {
				ferr = true
				return false
			}
			f.Value = nv
			replaced = true
		}
		fields = append(fields, f)
		return true
	})
	if ferr {
		return nil, false
	}
	if !replaced {
		if len(names) > 1 {
			nv, ok := setPath(value.NewStruct(nil), names[1:], v)
			if !ok {
				return nil, false
			}
			fields = append(fields, value.Field{Name: names[0], Value: nv})
		} else {
			fields = append(fields, value.Field{Name: names[0], Value: v})
		}
	}
	return value.NewStruct(fields), true
}
