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

// groupCtx is the row set an aggregate call consumes;
// it is installed while a group's HAVING, projection,
// and ORDER BY expressions evaluate.
type groupCtx struct {
	rows []*env.Scope
}

func (ev *evaluator) aggregate(n *ast.Aggregate, e env.Env) (value.Value, error) {
	g := ev.group
	if g == nil {
		return nil, errInternal("aggregate outside a grouping context")
	}
	// the inner expression evaluates once per group row;
	// nesting is rejected statically
	ev.group = nil
	defer func() { ev.group = g }()

	star := false
	if _, ok := n.Inner.(ast.Star); ok {
		star = true
	}
	var inputs []value.Value
	for _, row := range g.rows {
		if star {
			inputs = append(inputs, value.Bool(true))
			continue
		}
		v, err := ev.eval(n.Inner, row)
		if err != nil {
			return nil, err
		}
		// NULL and MISSING operands never participate
		switch v.Kind() {
		case value.NullKind, value.MissingKind:
			continue
		}
		inputs = append(inputs, v)
	}
	if n.Distinct {
		inputs = dedupe(inputs)
	}
	switch n.Op {
	case ast.OpCount:
		return value.Int(len(inputs)), nil
	case ast.OpSum:
		return ev.sumAgg(n, inputs, false)
	case ast.OpAvg:
		return ev.sumAgg(n, inputs, true)
	case ast.OpMin:
		return minmax(inputs, true), nil
	case ast.OpMax:
		return minmax(inputs, false), nil
	case ast.OpEvery:
		return ev.boolAgg(n, inputs, true)
	case ast.OpAny:
		return ev.boolAgg(n, inputs, false)
	}
	return nil, errInternal("unhandled aggregate")
}

// sumAgg computes SUM (or AVG when avg is set): exact
// integer accumulation promoted to decimal on the first
// decimal operand, contaminated to float by the first
// float operand. Empty input yields NULL.
func (ev *evaluator) sumAgg(n *ast.Aggregate, inputs []value.Value, avg bool) (value.Value, error) {
	if len(inputs) == 0 {
		return value.Null{}, nil
	}
	var (
		isum     int64
		dsum     apd.Decimal
		fsum     float64
		useDec   bool
		useFloat bool
	)
	for _, v := range inputs {
		if !isNumeric(v) {
			if ev.opts.Mode == Permissive {
				continue
			}
			return nil, errType(n, n.Op.String(), 1, "numeric", v.Kind())
		}
		if useFloat {
			fsum += tofloat(v)
			continue
		}
		if v.Kind() == value.FloatKind {
			// contaminate the running sum
			if useDec {
				fsum, _ = dsum.Float64()
			} else {
				fsum = float64(isum)
			}
			fsum += float64(v.(value.Float))
			useFloat = true
			continue
		}
		if v.Kind() == value.DecimalKind && !useDec {
			dsum.SetInt64(isum)
			useDec = true
		}
		if useDec {
			var tmp apd.Decimal
			asdec(&tmp, v)
			if _, err := decCtx.Add(&dsum, &dsum, &tmp); err != nil {
				return nil, errOverflow(n).WithCause(err)
			}
			continue
		}
		i := int64(v.(value.Int))
		c := isum + i
		if (c > isum) != (i > 0) && i != 0 {
			return nil, errOverflow(n)
		}
		isum = c
	}
	count := int64(len(inputs))
	if !avg {
		switch {
		case useFloat:
			return value.Float(fsum), nil
		case useDec:
			return value.NewDecimal(&dsum), nil
		}
		return value.Int(isum), nil
	}
	if useFloat {
		return value.Float(fsum / float64(count)), nil
	}
	if !useDec {
		dsum.SetInt64(isum)
	}
	var cnt, out apd.Decimal
	cnt.SetInt64(count)
	if _, err := decCtx.Quo(&out, &dsum, &cnt); err != nil {
		return nil, errOverflow(n).WithCause(err)
	}
	return value.NewDecimal(&out), nil
}

// minmax returns the least (or greatest) input in the
// total value order; NULL on empty input.
func minmax(inputs []value.Value, min bool) value.Value {
	if len(inputs) == 0 {
		return value.Null{}
	}
	best := inputs[0]
	for _, v := range inputs[1:] {
		c := value.Compare(v, best)
		if (min && c < 0) || (!min && c > 0) {
			best = v
		}
	}
	return best
}

// boolAgg implements EVERY (conjunction) and ANY
// (disjunction) over boolean inputs; NULL on empty
// input.
func (ev *evaluator) boolAgg(n *ast.Aggregate, inputs []value.Value, every bool) (value.Value, error) {
	if len(inputs) == 0 {
		return value.Null{}, nil
	}
	for _, v := range inputs {
		b, ok := v.(value.Bool)
		if !ok {
			if ev.opts.Mode == Permissive {
				continue
			}
			return nil, errType(n, n.Op.String(), 1, "bool", v.Kind())
		}
		if every && !bool(b) {
			return value.Bool(false), nil
		}
		if !every && bool(b) {
			return value.Bool(true), nil
		}
	}
	return value.Bool(every), nil
}
