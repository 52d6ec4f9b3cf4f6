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

package value

import (
	"strings"

	"golang.org/x/exp/slices"
)

// Sequence is a single-pass stream of values.
// A Sequence must not be assumed to be repeatable;
// operators that need more than one pass materialize
// it first.
type Sequence interface {
	// Next returns the next value in the stream,
	// or (nil, false) once the stream is exhausted.
	Next() (Value, bool)
}

type sliceSeq struct {
	items []Value
	pos   int
}

func (s *sliceSeq) Next() (Value, bool) {
	if s.pos >= len(s.items) {
		return nil, false
	}
	v := s.items[s.pos]
	s.pos++
	return v, true
}

// SliceSequence returns a Sequence over items.
func SliceSequence(items []Value) Sequence {
	return &sliceSeq{items: items}
}

// List is an ordered container value.
type List struct {
	items []Value
}

// NewList constructs a list from items.
// The slice is aliased, not copied; the caller
// must not retain it.
func NewList(items ...Value) *List {
	return &List{items: items}
}

func (l *List) Kind() Kind { return ListKind }

// Len returns the number of items in the list.
func (l *List) Len() int { return len(l.items) }

// Index returns the i'th element of the list.
func (l *List) Index(i int) (Value, bool) {
	if i < 0 || i >= len(l.items) {
		return nil, false
	}
	return l.items[i], true
}

// Each calls fn for each item in order until fn
// returns false.
func (l *List) Each(fn func(Value) bool) {
	for i := range l.items {
		if !fn(l.items[i]) {
			return
		}
	}
}

func (l *List) text(dst *strings.Builder) {
	dst.WriteByte('[')
	for i := range l.items {
		if i > 0 {
			dst.WriteString(", ")
		}
		l.items[i].text(dst)
	}
	dst.WriteByte(']')
}

// Sexp is an ordered parenthesized sequence value.
type Sexp struct {
	items []Value
}

// NewSexp constructs an s-expression value from items.
func NewSexp(items ...Value) *Sexp {
	return &Sexp{items: items}
}

func (s *Sexp) Kind() Kind { return SexpKind }

func (s *Sexp) Len() int { return len(s.items) }

func (s *Sexp) Index(i int) (Value, bool) {
	if i < 0 || i >= len(s.items) {
		return nil, false
	}
	return s.items[i], true
}

func (s *Sexp) Each(fn func(Value) bool) {
	for i := range s.items {
		if !fn(s.items[i]) {
			return
		}
	}
}

func (s *Sexp) text(dst *strings.Builder) {
	dst.WriteByte('(')
	for i := range s.items {
		if i > 0 {
			dst.WriteByte(' ')
		}
		s.items[i].text(dst)
	}
	dst.WriteByte(')')
}

// Bag is an unordered multiset container value.
//
// A Bag is either materialized (backed by a slice) or
// streaming (backed by a single-pass Sequence). A
// streaming bag supports exactly one traversal unless
// Materialize is called first; DISTINCT, ORDER BY, and
// multiset equality materialize as a deliberate
// memory-for-correctness tradeoff.
type Bag struct {
	items []Value
	src   Sequence
}

// NewBag constructs a materialized bag from items.
func NewBag(items ...Value) *Bag {
	return &Bag{items: items}
}

// StreamBag constructs a single-pass bag over src.
func StreamBag(src Sequence) *Bag {
	return &Bag{src: src}
}

func (b *Bag) Kind() Kind { return BagKind }

// Materialized returns whether the bag contents are
// resident and repeatedly traversable.
func (b *Bag) Materialized() bool { return b.src == nil }

// Materialize drains the backing sequence, if any,
// so that the bag becomes repeatedly traversable.
func (b *Bag) Materialize() {
	if b.src == nil {
		return
	}
	for {
		v, ok := b.src.Next()
		if !ok {
			break
		}
		b.items = append(b.items, v)
	}
	b.src = nil
}

// Len returns the number of items in the bag and
// whether that count is known without consuming the
// stream.
func (b *Bag) Len() (int, bool) {
	if b.src != nil {
		return 0, false
	}
	return len(b.items), true
}

// Each calls fn for each item until fn returns false.
// If the bag is streaming, Each consumes the stream.
func (b *Bag) Each(fn func(Value) bool) {
	if b.src != nil {
		for {
			v, ok := b.src.Next()
			if !ok {
				return
			}
			if !fn(v) {
				return
			}
		}
	}
	for i := range b.items {
		if !fn(b.items[i]) {
			return
		}
	}
}

// sorted returns the materialized items in total order;
// used by multiset equality and hashing.
func (b *Bag) sorted() []Value {
	b.Materialize()
	out := slices.Clone(b.items)
	slices.SortFunc(out, func(x, y Value) bool {
		return Compare(x, y) < 0
	})
	return out
}

func (b *Bag) text(dst *strings.Builder) {
	b.Materialize()
	dst.WriteString("<<")
	for i := range b.items {
		if i > 0 {
			dst.WriteString(", ")
		}
		b.items[i].text(dst)
	}
	dst.WriteString(">>")
}

// Field is a single name/value pair in a Struct.
type Field struct {
	Name  string
	Value Value
}

// Struct is an ordered collection of name/value pairs.
// Field names are not required to be unique.
type Struct struct {
	fields []Field
}

// NewStruct constructs a struct from fields.
// The slice is aliased, not copied; the caller
// must not retain it.
func NewStruct(fields []Field) *Struct {
	return &Struct{fields: fields}
}

func (s *Struct) Kind() Kind { return StructKind }

// Len returns the number of fields.
func (s *Struct) Len() int { return len(s.fields) }

// Each calls fn for each field in order until fn
// returns false.
func (s *Struct) Each(fn func(Field) bool) {
	for i := range s.fields {
		if !fn(s.fields[i]) {
			return
		}
	}
}

// FieldByName returns the value of the first field
// matching name. Case-insensitive lookup matches via
// case folding; if the fold is ambiguous (more than one
// distinct spelling matches), ambiguous is set.
func (s *Struct) FieldByName(name string, caseSensitive bool) (v Value, ok, ambiguous bool) {
	if caseSensitive {
		for i := range s.fields {
			if s.fields[i].Name == name {
				return s.fields[i].Value, true, false
			}
		}
		return nil, false, false
	}
	first := -1
	for i := range s.fields {
		if strings.EqualFold(s.fields[i].Name, name) {
			if first < 0 {
				first = i
			} else if s.fields[first].Name != s.fields[i].Name {
				return s.fields[first].Value, true, true
			}
		}
	}
	if first < 0 {
		return nil, false, false
	}
	return s.fields[first].Value, true, false
}

func (s *Struct) text(dst *strings.Builder) {
	dst.WriteByte('{')
	for i := range s.fields {
		if i > 0 {
			dst.WriteString(", ")
		}
		String(s.fields[i].Name).text(dst)
		dst.WriteString(": ")
		s.fields[i].Value.text(dst)
	}
	dst.WriteByte('}')
}

// sortedFields returns the fields sorted by name and
// then by value order; used by order-insensitive
// equality, comparison, and hashing.
func (s *Struct) sortedFields() []Field {
	out := slices.Clone(s.fields)
	slices.SortFunc(out, func(x, y Field) bool {
		if x.Name != y.Name {
			return x.Name < y.Name
		}
		return Compare(x.Value, y.Value) < 0
	})
	return out
}
