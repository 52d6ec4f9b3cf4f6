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
	"github.com/SnellerInc/partiql/value"
)

// valueSet is a multiset of values keyed by the 128-bit
// value hash, with chained buckets resolved by
// structural equality. It backs DISTINCT, GROUP BY, and
// the bag set operations.
type valueSet struct {
	buckets map[[2]uint64][]value.Value
}

func newValueSet(items []value.Value) *valueSet {
	s := &valueSet{buckets: make(map[[2]uint64][]value.Value, len(items))}
	for _, v := range items {
		s.add(v)
	}
	return s
}

func hashkey(v value.Value) [2]uint64 {
	lo, hi := value.Hash128(v)
	return [2]uint64{lo, hi}
}

func (s *valueSet) add(v value.Value) {
	k := hashkey(v)
	s.buckets[k] = append(s.buckets[k], v)
}

// insert adds v only if no equal value is present and
// returns whether v was added.
func (s *valueSet) insert(v value.Value) bool {
	k := hashkey(v)
	for _, have := range s.buckets[k] {
		if value.Equal(have, v) {
			return false
		}
	}
	s.buckets[k] = append(s.buckets[k], v)
	return true
}

// remove deletes one occurrence equal to v and returns
// whether one was present.
func (s *valueSet) remove(v value.Value) bool {
	k := hashkey(v)
	b := s.buckets[k]
	for i := range b {
		if value.Equal(b[i], v) {
			b[i] = b[len(b)-1]
			s.buckets[k] = b[:len(b)-1]
			return true
		}
	}
	return false
}

// dedupe returns items with duplicates (by structural
// equality) removed, preserving first-occurrence order.
func dedupe(items []value.Value) []value.Value {
	seen := newValueSet(nil)
	out := items[:0:0]
	for _, v := range items {
		if seen.insert(v) {
			out = append(out, v)
		}
	}
	return out
}
