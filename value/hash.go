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
	"encoding/binary"
	"math"

	"github.com/cockroachdb/apd/v3"
	"github.com/dchest/siphash"
)

// Hash128 returns a 128-bit hash of v such that
// Equal(a, b) implies Hash128(a) == Hash128(b).
// It is the hash used by the GROUP BY and DISTINCT
// hash tables. Hashing a streaming container
// materializes it.
func Hash128(v Value) (lo, hi uint64) {
	switch v := v.(type) {
	case Missing:
		return scalarhash(MissingKind, nil)
	case Null:
		// typed and untyped nulls are equal
		return scalarhash(NullKind, nil)
	case Bool:
		if v {
			return scalarhash(BoolKind, []byte{1})
		}
		return scalarhash(BoolKind, []byte{0})
	case Int, Float, *Decimal:
		return numhash(v)
	case Date:
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], uint64(v.Value.UnixNano()))
		return scalarhash(DateKind, buf[:])
	case TimeOfDay:
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], uint64(v.utc()))
		return scalarhash(TimeKind, buf[:])
	case Timestamp:
		// hash the instant so that equal timestamps
		// with different offsets collide
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], uint64(v.Value.UnixNano()))
		return scalarhash(TimestampKind, buf[:])
	case String:
		return scalarhash(StringKind, []byte(v))
	case Symbol:
		return scalarhash(SymbolKind, []byte(v))
	case Blob:
		return scalarhash(BlobKind, []byte(v))
	case Clob:
		return scalarhash(ClobKind, []byte(v))
	case *List:
		return seqhash(ListKind, v.items)
	case *Sexp:
		return seqhash(SexpKind, v.items)
	case *Bag:
		v.Materialize()
		return commutehash(BagKind, v.items)
	case *Struct:
		return structhash(v)
	}
	return 0, 0
}

func scalarhash(k Kind, body []byte) (lo, hi uint64) {
	return siphash.Hash128(uint64(k), 0, body)
}

// numhash hashes the canonical (reduced) decimal form
// of a numeric value so that Int(1), Float(1), and
// decimal 1.00 hash identically.
func numhash(v Value) (lo, hi uint64) {
	if isNaN(v) {
		return scalarhash(FloatKind, []byte("nan"))
	}
	switch inf(v) {
	case 1:
		return scalarhash(FloatKind, []byte("+inf"))
	case -1:
		return scalarhash(FloatKind, []byte("-inf"))
	}
	if i, ok := v.(Int); ok {
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], uint64(i))
		return scalarhash(IntKind, buf[:])
	}
	var d apd.Decimal
	todec(&d, v)
	d.Reduce(&d)
	// integral decimals must collide with Int
	if i, err := d.Int64(); err == nil {
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], uint64(i))
		return scalarhash(IntKind, buf[:])
	}
	return scalarhash(DecimalKind, []byte(d.String()))
}

// seqhash is an order-sensitive combination of the
// element hashes.
func seqhash(k Kind, items []Value) (lo, hi uint64) {
	buf := make([]byte, 0, 16*len(items))
	var tmp [16]byte
	for i := range items {
		l, h := Hash128(items[i])
		binary.LittleEndian.PutUint64(tmp[:8], l)
		binary.LittleEndian.PutUint64(tmp[8:], h)
		buf = append(buf, tmp[:]...)
	}
	return siphash.Hash128(uint64(k), uint64(len(items)), buf)
}

// commutehash is an order-insensitive combination of
// the element hashes, for multisets.
func commutehash(k Kind, items []Value) (lo, hi uint64) {
	var xl, xh uint64
	for i := range items {
		l, h := Hash128(items[i])
		xl ^= l
		xh ^= h
	}
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], xl)
	binary.LittleEndian.PutUint64(buf[8:], xh)
	return siphash.Hash128(uint64(k), uint64(len(items)), buf[:])
}

func structhash(s *Struct) (lo, hi uint64) {
	var xl, xh uint64
	for i := range s.fields {
		vl, vh := Hash128(s.fields[i].Value)
		var tmp [16]byte
		binary.LittleEndian.PutUint64(tmp[:8], vl)
		binary.LittleEndian.PutUint64(tmp[8:], vh)
		nl, nh := siphash.Hash128(math.MaxUint32, vl^vh,
			append([]byte(s.fields[i].Name), tmp[:]...))
		xl ^= nl
		xh ^= nh
	}
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], xl)
	binary.LittleEndian.PutUint64(buf[8:], xh)
	return siphash.Hash128(uint64(StructKind), uint64(len(s.fields)), buf[:])
}
