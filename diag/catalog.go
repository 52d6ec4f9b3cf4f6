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

package diag

// required is the catalog of per-code required property
// key sets. Raising a diagnostic with extra or missing
// keys is a defect; the contract is enforced by tests
// rather than the type system because the catalog is
// large and growing.
var required = map[Code][]Key{
	ArityMismatch: {
		Expression, FunctionName,
		ExpectedArityMin, ExpectedArityMax, ActualArity,
	},
	TypeMismatch: {
		Expression, FunctionName,
		ArgumentPosition, ExpectedKind, ActualKind,
	},
	CastFailed: {
		Expression, TargetType, ActualValue,
	},
	UnboundVariable: {
		BindingName,
	},
	AmbiguousBinding: {
		BindingName,
	},
	ConflictViolation: {
		Expression,
	},
	NumericOverflow: {
		Expression,
	},
	DivideByZero: {
		Expression,
	},
	InvalidLimit: {
		LimitValue,
	},
	InvalidOffset: {
		LimitValue,
	},
	InvalidPivotKey: {
		Expression, ActualValue,
	},
	UnknownFunction: {
		FunctionName,
	},
	InvalidArgument: {
		Expression, FunctionName, ArgumentPosition, ActualValue,
	},
	NotAContainer: {
		Expression, ActualKind,
	},
	Internal: {
		Expression,
	},
}

// Codes returns every code in the catalog.
func Codes() []Code {
	out := make([]Code, 0, len(required))
	for c := Code(1); c < maxCode; c++ {
		out = append(out, c)
	}
	return out
}

// Required returns the exact property key set that a
// diagnostic with the given code must carry.
func Required(code Code) []Key {
	return required[code]
}

// Check verifies that e carries exactly the required
// key set for its code and returns the missing and
// extra keys, if any.
func Check(e *Error) (missing, extra []Key) {
	want := required[e.Code]
	for _, k := range want {
		if _, ok := e.Properties[k]; !ok {
			missing = append(missing, k)
		}
	}
	for k := range e.Properties {
		found := false
		for _, w := range want {
			if w == k {
				found = true
				break
			}
		}
		if !found {
			extra = append(extra, k)
		}
	}
	return missing, extra
}
