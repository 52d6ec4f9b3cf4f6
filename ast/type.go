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
	"fmt"
	"strings"
)

// Type is a closed set of type names usable in CAST and
// IS expressions: the SQL-92 types, the native
// semi-structured types, and vendor extension types.
type Type interface {
	Printable
	Equals(Type) bool
}

// TypeString returns the SQL rendering of t.
func TypeString(t Type) string {
	var dst strings.Builder
	t.text(&dst)
	return dst.String()
}

// SimpleType is a nullary type name.
type SimpleType int

const (
	MissingType SimpleType = iota
	NullType
	BooleanType
	SmallintType
	IntegerType
	FloatType
	DoubleType
	StringType
	SymbolType
	DateType
	BlobType
	ClobType
	ListType
	BagType
	SexpType
	StructType
	AnyType

	maxSimpleType
)

var simpleTypeNames = [maxSimpleType]string{
	MissingType: "MISSING",
	NullType:    "NULL",
	BooleanType: "BOOLEAN",
	SmallintType: "SMALLINT",
	IntegerType: "INTEGER",
	FloatType:   "FLOAT",
	DoubleType:  "DOUBLE PRECISION",
	StringType:  "STRING",
	SymbolType:  "SYMBOL",
	DateType:    "DATE",
	BlobType:    "BLOB",
	ClobType:    "CLOB",
	ListType:    "LIST",
	BagType:     "BAG",
	SexpType:    "SEXP",
	StructType:  "STRUCT",
	AnyType:     "ANY",
}

func (s SimpleType) text(dst *strings.Builder) {
	dst.WriteString(simpleTypeNames[s])
}

func (s SimpleType) Equals(t Type) bool {
	s2, ok := t.(SimpleType)
	return ok && s == s2
}

// DecimalType is DECIMAL(Precision, Scale).
// Zero Precision means unconstrained.
type DecimalType struct {
	Precision int
	Scale     int
}

func (d DecimalType) text(dst *strings.Builder) {
	if d.Precision == 0 {
		dst.WriteString("DECIMAL")
		return
	}
	fmt.Fprintf(dst, "DECIMAL(%d, %d)", d.Precision, d.Scale)
}

func (d DecimalType) Equals(t Type) bool {
	d2, ok := t.(DecimalType)
	return ok && d == d2
}

// CharType is CHARACTER(Length); fixed length.
// Zero Length means length 1, per SQL.
type CharType struct {
	Length int
}

func (c CharType) text(dst *strings.Builder) {
	if c.Length == 0 {
		dst.WriteString("CHARACTER")
		return
	}
	fmt.Fprintf(dst, "CHARACTER(%d)", c.Length)
}

func (c CharType) Equals(t Type) bool {
	c2, ok := t.(CharType)
	return ok && c == c2
}

// VarcharType is CHARACTER VARYING(Length).
// Zero Length means unconstrained.
type VarcharType struct {
	Length int
}

func (c VarcharType) text(dst *strings.Builder) {
	if c.Length == 0 {
		dst.WriteString("CHARACTER VARYING")
		return
	}
	fmt.Fprintf(dst, "CHARACTER VARYING(%d)", c.Length)
}

func (c VarcharType) Equals(t Type) bool {
	c2, ok := t.(VarcharType)
	return ok && c == c2
}

// TimeType is TIME(Precision) [WITH TIME ZONE].
type TimeType struct {
	Precision    int
	WithTimeZone bool
}

func (t TimeType) text(dst *strings.Builder) {
	dst.WriteString("TIME")
	if t.Precision != 0 {
		fmt.Fprintf(dst, "(%d)", t.Precision)
	}
	if t.WithTimeZone {
		dst.WriteString(" WITH TIME ZONE")
	}
}

func (t TimeType) Equals(o Type) bool {
	t2, ok := o.(TimeType)
	return ok && t == t2
}

// TimestampType is TIMESTAMP(Precision) [WITH TIME ZONE].
type TimestampType struct {
	Precision    int
	WithTimeZone bool
}

func (t TimestampType) text(dst *strings.Builder) {
	dst.WriteString("TIMESTAMP")
	if t.Precision != 0 {
		fmt.Fprintf(dst, "(%d)", t.Precision)
	}
	if t.WithTimeZone {
		dst.WriteString(" WITH TIME ZONE")
	}
}

func (t TimestampType) Equals(o Type) bool {
	t2, ok := o.(TimestampType)
	return ok && t == t2
}

// ExtensionType is a vendor extension type, identified
// by name only.
type ExtensionType struct {
	Name string
}

func (e ExtensionType) text(dst *strings.Builder) {
	dst.WriteString(e.Name)
}

func (e ExtensionType) Equals(t Type) bool {
	e2, ok := t.(ExtensionType)
	return ok && e == e2
}
