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

// Package diag implements the structured diagnostics
// raised by query compilation and evaluation: an error
// code plus a property map whose required keys are
// fixed per code.
package diag

import (
	"fmt"
	"sort"
	"strings"
)

// Code identifies a diagnostic in the catalog.
type Code int

const (
	// ArityMismatch: a call or operator was supplied
	// the wrong number of arguments.
	ArityMismatch Code = iota + 1
	// TypeMismatch: an operand kind is incompatible
	// with its operator or function position.
	TypeMismatch
	// CastFailed: the source value is not representable
	// in the target type.
	CastFailed
	// UnboundVariable: a top-level variable reference
	// did not resolve.
	UnboundVariable
	// AmbiguousBinding: a case-insensitive name matched
	// more than one distinct binding.
	AmbiguousBinding
	// ConflictViolation: an ON CONFLICT predicate
	// matched when the operation required no match.
	ConflictViolation
	// NumericOverflow: an arithmetic result exceeds the
	// representable range.
	NumericOverflow
	// DivideByZero: integer or decimal division by zero.
	DivideByZero
	// InvalidLimit: a LIMIT operand is negative or not
	// an integer.
	InvalidLimit
	// InvalidOffset: an OFFSET operand is negative or
	// not an integer.
	InvalidOffset
	// InvalidPivotKey: a PIVOT key is not a unique
	// string.
	InvalidPivotKey
	// UnknownFunction: a call names a function not in
	// the catalog.
	UnknownFunction
	// InvalidArgument: an argument value is out of the
	// domain of an otherwise well-typed call.
	InvalidArgument
	// NotAContainer: FROM or a path wildcard was
	// applied to a non-container value.
	NotAContainer
	// Internal: an invariant was violated inside the
	// evaluator; always a bug.
	Internal

	maxCode
)

func (c Code) String() string {
	switch c {
	case ArityMismatch:
		return "ARITY_MISMATCH"
	case TypeMismatch:
		return "TYPE_MISMATCH"
	case CastFailed:
		return "CAST_FAILED"
	case UnboundVariable:
		return "UNBOUND_VARIABLE"
	case AmbiguousBinding:
		return "AMBIGUOUS_BINDING"
	case ConflictViolation:
		return "CONFLICT_VIOLATION"
	case NumericOverflow:
		return "NUMERIC_OVERFLOW"
	case DivideByZero:
		return "DIVIDE_BY_ZERO"
	case InvalidLimit:
		return "INVALID_LIMIT"
	case InvalidOffset:
		return "INVALID_OFFSET"
	case InvalidPivotKey:
		return "INVALID_PIVOT_KEY"
	case UnknownFunction:
		return "UNKNOWN_FUNCTION"
	case InvalidArgument:
		return "INVALID_ARGUMENT"
	case NotAContainer:
		return "NOT_A_CONTAINER"
	case Internal:
		return "INTERNAL"
	default:
		return fmt.Sprintf("Code(%d)", int(c))
	}
}

// Key identifies a property in a diagnostic's property
// map.
type Key int

const (
	// Expression is the text of the offending
	// expression (string).
	Expression Key = iota + 1
	// FunctionName names the function or operator
	// involved (token).
	FunctionName
	// ExpectedArityMin is the minimum accepted argument
	// count (integer).
	ExpectedArityMin
	// ExpectedArityMax is the maximum accepted argument
	// count (integer).
	ExpectedArityMax
	// ActualArity is the supplied argument count
	// (integer).
	ActualArity
	// ArgumentPosition is the 1-based offending operand
	// position (integer).
	ArgumentPosition
	// ExpectedKind names the expected value kind(s)
	// (token).
	ExpectedKind
	// ActualKind names the kind actually supplied
	// (token).
	ActualKind
	// BindingName is the name that failed or was
	// ambiguous (string).
	BindingName
	// TargetType names the target type of a cast
	// (token).
	TargetType
	// ActualValue carries the offending value
	// (raw value).
	ActualValue
	// LimitValue is the out-of-domain LIMIT/OFFSET
	// operand (long).
	LimitValue

	maxKey
)

func (k Key) String() string {
	switch k {
	case Expression:
		return "EXPRESSION"
	case FunctionName:
		return "FUNCTION_NAME"
	case ExpectedArityMin:
		return "EXPECTED_ARITY_MIN"
	case ExpectedArityMax:
		return "EXPECTED_ARITY_MAX"
	case ActualArity:
		return "ACTUAL_ARITY"
	case ArgumentPosition:
		return "ARGUMENT_POSITION"
	case ExpectedKind:
		return "EXPECTED_KIND"
	case ActualKind:
		return "ACTUAL_KIND"
	case BindingName:
		return "BINDING_NAME"
	case TargetType:
		return "TARGET_TYPE"
	case ActualValue:
		return "ACTUAL_VALUE"
	case LimitValue:
		return "LIMIT_VALUE"
	default:
		return fmt.Sprintf("Key(%d)", int(k))
	}
}

// PropertyKind is the runtime type tag of a property
// value.
type PropertyKind uint8

const (
	LongProperty PropertyKind = iota
	StringProperty
	IntegerProperty
	TokenProperty
	RawValueProperty
)

// Property is a single typed property value. Every
// variant is serializable as text for cross-process
// reporting.
type Property struct {
	kind PropertyKind
	n    int64
	s    string
	raw  fmt.Stringer
}

// Long constructs an int64-valued property.
func Long(v int64) Property { return Property{kind: LongProperty, n: v} }

// Str constructs a string-valued property.
func Str(v string) Property { return Property{kind: StringProperty, s: v} }

// Integer constructs an int-valued property.
func Integer(v int) Property { return Property{kind: IntegerProperty, n: int64(v)} }

// Token constructs a token-valued property (an
// identifier-like atom, not free text).
func Token(v string) Property { return Property{kind: TokenProperty, s: v} }

// Raw constructs a raw-value property carrying an
// arbitrary printable value.
func Raw(v fmt.Stringer) Property { return Property{kind: RawValueProperty, raw: v} }

// Kind returns the runtime type tag of p.
func (p Property) Kind() PropertyKind { return p.kind }

// Long returns the int64 payload of a long property.
func (p Property) Long() int64 { return p.n }

// Int returns the int payload of an integer property.
func (p Property) Int() int { return int(p.n) }

func (p Property) String() string {
	switch p.kind {
	case LongProperty, IntegerProperty:
		return fmt.Sprintf("%d", p.n)
	case StringProperty, TokenProperty:
		return p.s
	case RawValueProperty:
		if p.raw == nil {
			return "<nil>"
		}
		return p.raw.String()
	}
	return "<invalid>"
}

// Map is a diagnostic property map.
type Map map[Key]Property

// Error is a structured diagnostic. The set of keys in
// Properties is determined by Code alone; see Required.
type Error struct {
	Code       Code
	Properties Map
	// Cause, if non-nil, is an informational root cause
	// from a lower layer. It never changes the
	// Code/Properties contract.
	Cause error
}

// New constructs a diagnostic with the given code and
// properties.
func New(code Code, props Map) *Error {
	return &Error{Code: code, Properties: props}
}

// WithCause attaches an informational root cause.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

func (e *Error) Error() string {
	var dst strings.Builder
	dst.WriteString(e.Code.String())
	if len(e.Properties) > 0 {
		keys := make([]Key, 0, len(e.Properties))
		for k := range e.Properties {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
		dst.WriteString(": {")
		for i, k := range keys {
			if i > 0 {
				dst.WriteString(", ")
			}
			dst.WriteString(k.String())
			dst.WriteString("=")
			dst.WriteString(e.Properties[k].String())
		}
		dst.WriteString("}")
	}
	if e.Cause != nil {
		dst.WriteString(": ")
		dst.WriteString(e.Cause.Error())
	}
	return dst.String()
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether err is a diagnostic with the given
// code.
func Is(err error, code Code) bool {
	de, ok := err.(*Error)
	return ok && de.Code == code
}
