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

package ast

import (
	"github.com/SnellerInc/partiql/diag"
)

type arity struct {
	min, max int
}

var callArity = [maxCallOp]arity{
	CharLength:  {1, 1},
	Lower:       {1, 1},
	Upper:       {1, 1},
	Trim:        {1, 2},
	Ltrim:       {1, 2},
	Rtrim:       {1, 2},
	Substring:   {2, 3},
	Position:    {2, 2},
	Abs:         {1, 1},
	Exists:      {1, 1},
	OpToString:  {2, 2},
	ToTimestamp: {1, 1},
	UtcNow:      {0, 0},
	DateAdd:     {3, 3},
	DateDiff:    {3, 3},
	SizeOf:      {1, 1},
}

// Arity returns the minimum and maximum argument
// count accepted by this function.
func (o CallOp) Arity() (min, max int) {
	a := callArity[o]
	return a.min, a.max
}

// exprText adapts a Node to fmt.Stringer for
// raw-value diagnostic properties.
type exprText struct{ Node }

func (e exprText) String() string { return ToString(e.Node) }

func errArity(e Node, fn string, min, max, got int) *diag.Error {
	return diag.New(diag.ArityMismatch, diag.Map{
		diag.Expression:       diag.Str(ToString(e)),
		diag.FunctionName:     diag.Token(fn),
		diag.ExpectedArityMin: diag.Integer(min),
		diag.ExpectedArityMax: diag.Integer(max),
		diag.ActualArity:      diag.Integer(got),
	})
}

// CheckArity validates the argument count of c against
// its function's signature.
func (c *Call) CheckArity() error {
	min, max := c.Op.Arity()
	if len(c.Args) < min || len(c.Args) > max {
		return errArity(c, c.Op.String(), min, max, len(c.Args))
	}
	return nil
}

// checker walks an AST and collects the static errors
// that are detectable without data
type checker struct {
	errs []error
	// aggregation depth; aggregates do not nest
	depth int
}

func (c *checker) err(e error) {
	c.errs = append(c.errs, e)
}

func (c *checker) Visit(e Node) Visitor {
	switch n := e.(type) {
	case *Call:
		if err := n.CheckArity(); err != nil {
			c.err(err)
		}
	case *Coalesce:
		// one-or-more arguments; -1 means no upper bound
		if len(n.Args) == 0 {
			c.err(errArity(n, "COALESCE", 1, -1, 0))
		}
	case *Aggregate:
		if c.depth > 0 {
			c.err(diag.New(diag.InvalidArgument, diag.Map{
				diag.Expression:       diag.Str(ToString(n)),
				diag.FunctionName:     diag.Token(n.Op.String()),
				diag.ArgumentPosition: diag.Integer(1),
				diag.ActualValue:      diag.Raw(exprText{n.Inner}),
			}))
			return nil
		}
		// nested SELECTs reset the aggregation context,
		// so only the direct inner expression is walked
		// with depth incremented
		c.depth++
		Walk(c, n.Inner)
		c.depth--
		return nil
	case *Select:
		c.checkSelect(n)
		sub := &checker{}
		n.walk(sub)
		c.errs = append(c.errs, sub.errs...)
		return nil
	}
	return c
}

func (c *checker) checkSelect(s *Select) {
	if i, ok := s.Limit.(Integer); ok && i < 0 {
		c.err(diag.New(diag.InvalidLimit, diag.Map{
			diag.LimitValue: diag.Long(int64(i)),
		}))
	}
	if i, ok := s.Offset.(Integer); ok && i < 0 {
		c.err(diag.New(diag.InvalidOffset, diag.Map{
			diag.LimitValue: diag.Long(int64(i)),
		}))
	}
	if s.Grouping == GroupPartial && s.GroupAs == "" {
		c.err(diag.New(diag.Internal, diag.Map{
			diag.Expression: diag.Str("GROUP PARTIAL BY without GROUP AS"),
		}))
	}
}

// Check performs the static checks on e that do not
// require data: literal arity mismatches, negative
// literal LIMIT/OFFSET operands, and aggregate nesting.
// The returned errors are *diag.Error values.
func Check(e Node) []error {
	c := &checker{}
	Walk(c, e)
	return c.errs
}
