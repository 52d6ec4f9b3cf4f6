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

// Package eval implements the tree-walking evaluator: it
// compiles a statement into a reusable Plan and
// interprets the Plan against a binding environment,
// covering the SFW pipeline, joins, grouping, the cast
// family, and DML/DDL mutation intents.
package eval

import (
	"github.com/SnellerInc/partiql/ast"
	"github.com/SnellerInc/partiql/diag"
	"github.com/SnellerInc/partiql/env"
	"github.com/SnellerInc/partiql/value"
)

// Mode selects how recoverable evaluation errors are
// surfaced.
type Mode int

const (
	// Standard raises every type and cast error as a
	// diagnostic that aborts the evaluation.
	Standard Mode = iota
	// Permissive absorbs recoverable type and cast
	// errors into MISSING for the offending
	// sub-expression. Arity and structural errors are
	// never absorbed.
	Permissive
)

// Options configures plan compilation.
type Options struct {
	Mode Mode
	// CaseSensitive selects exact-match resolution for
	// unqualified identifiers; the default is
	// case-insensitive resolution.
	CaseSensitive bool
}

// Plan is a compiled statement. A Plan is immutable and
// may be evaluated concurrently from multiple goroutines
// provided each call supplies its own environment.
type Plan struct {
	stmt ast.Statement
	opts Options
}

// Compile performs the static checks on s that need no
// data (literal arity mismatches, negative literal
// LIMIT/OFFSET, aggregate nesting) and returns a
// reusable plan. The statement must not be mutated after
// Compile returns.
func Compile(s ast.Statement, opts Options) (*Plan, error) {
	if errs := ast.Check(s); len(errs) > 0 {
		return nil, errs[0]
	}
	return &Plan{stmt: s, opts: opts}, nil
}

// Eval evaluates the plan against the given environment
// and returns the statement result: the query result
// collection for queries, or the mutation-intent value
// for DML and DDL statements.
func (p *Plan) Eval(e env.Env) (value.Value, error) {
	ev := &evaluator{opts: p.opts}
	return ev.stmt(p.stmt, e)
}

// evaluator carries the per-evaluation state; a fresh
// one is created for every Plan.Eval call.
type evaluator struct {
	opts Options
	// group, when non-nil, is the group being projected;
	// aggregate expressions consume it
	group *groupCtx
}

func (ev *evaluator) stmt(s ast.Statement, e env.Env) (value.Value, error) {
	switch s := s.(type) {
	case *ast.Query:
		return ev.eval(s.Body, e)
	case *ast.Exec:
		return ev.exec(s, e)
	case *ast.Insert:
		return ev.insert(s, e)
	case *ast.InsertValue:
		return ev.insertValue(s, e)
	case *ast.UpdateSet:
		return ev.updateSet(s, e)
	case *ast.Remove:
		return ev.remove(s, e)
	case *ast.Delete:
		return ev.delete(s, e)
	case *ast.CreateTable:
		return intent("create_table", value.Field{Name: "table", Value: value.String(s.Name)}), nil
	case *ast.DropTable:
		return intent("drop_table", value.Field{Name: "table", Value: value.String(s.Name)}), nil
	case *ast.CreateIndex:
		return ev.createIndex(s)
	case *ast.DropIndex:
		return intent("drop_index",
			value.Field{Name: "table", Value: value.String(s.Table)},
			value.Field{Name: "index", Value: value.String(s.Name)}), nil
	}
	return nil, errInternal("unhandled statement variant")
}

// sensitivity maps an identifier's quoting to the
// resolution sensitivity, honoring the compile-time
// default for unquoted identifiers.
func (ev *evaluator) sensitivity(quoted bool) env.Sensitivity {
	if quoted || ev.opts.CaseSensitive {
		return env.Sensitive
	}
	return env.Insensitive
}

// soften downgrades recoverable diagnostics to MISSING
// in permissive mode. Arity and structural errors pass
// through unchanged.
func (ev *evaluator) soften(err error) (value.Value, error) {
	if ev.opts.Mode == Permissive {
		if de, ok := err.(*diag.Error); ok {
			switch de.Code {
			case diag.TypeMismatch, diag.CastFailed, diag.NotAContainer:
				return value.Missing{}, nil
			}
		}
	}
	return nil, err
}

func errInternal(what string) *diag.Error {
	return diag.New(diag.Internal, diag.Map{
		diag.Expression: diag.Str(what),
	})
}

func errType(e ast.Node, fn string, pos int, want string, got value.Kind) *diag.Error {
	return diag.New(diag.TypeMismatch, diag.Map{
		diag.Expression:       diag.Str(ast.ToString(e)),
		diag.FunctionName:     diag.Token(fn),
		diag.ArgumentPosition: diag.Integer(pos),
		diag.ExpectedKind:     diag.Token(want),
		diag.ActualKind:       diag.Token(got.String()),
	})
}

func errNotContainer(e ast.Node, got value.Kind) *diag.Error {
	return diag.New(diag.NotAContainer, diag.Map{
		diag.Expression: diag.Str(ast.ToString(e)),
		diag.ActualKind: diag.Token(got.String()),
	})
}

func errUnbound(name string) *diag.Error {
	return diag.New(diag.UnboundVariable, diag.Map{
		diag.BindingName: diag.Str(name),
	})
}

func errAmbiguous(name string) *diag.Error {
	return diag.New(diag.AmbiguousBinding, diag.Map{
		diag.BindingName: diag.Str(name),
	})
}

func errOverflow(e ast.Node) *diag.Error {
	return diag.New(diag.NumericOverflow, diag.Map{
		diag.Expression: diag.Str(ast.ToString(e)),
	})
}

func errDivideByZero(e ast.Node) *diag.Error {
	return diag.New(diag.DivideByZero, diag.Map{
		diag.Expression: diag.Str(ast.ToString(e)),
	})
}

// valueText adapts a Value to fmt.Stringer for raw-value
// diagnostic properties.
type valueText struct{ v value.Value }

func (v valueText) String() string { return value.ToString(v.v) }
