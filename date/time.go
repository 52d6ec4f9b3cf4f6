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

// Package date implements a timestamp representation
// that preserves the wall-clock components and the
// UTC offset of the original literal. Component
// extraction is O(1); conversion to Unix time is not.
package date

import (
	"fmt"
	"time"
)

// A Time represents a date and time with a nanosecond
// component and an optional UTC offset. The wall-clock
// components (year, month, ...) are stored as written,
// not normalized to UTC, so that offset and component
// extraction observe the original literal.
//
// This representation cannot store years below 0 or
// above 16,383. Years falling outside that range will
// be truncated to fit within that range.
type Time struct {
	ts  uint64
	ns  uint32
	off int16 // minutes east of UTC
	loc bool  // off is significant
}

// Date constructs a Time from components. Values of
// month, day, hour, min, sec, and ns outside their
// usual ranges will be normalized. Values for year
// outside of the range [0, 16383] will be truncated to
// fit within that range.
func Date(year, month, day, hour, min, sec, ns int) Time {
	sec, ns = norm(sec, ns, 1e9)
	min, sec = norm(min, sec, 60)
	hour, min = norm(hour, min, 60)
	day, hour = norm(day, hour, 24)
	year, month, day = normdate(year, month, day)
	return date(year, month, day, hour, min, sec, ns)
}

func date(year, month, day, hour, min, sec, ns int) Time {
	if year < 0 {
		year = 0
	} else if year > (1<<14)-1 {
		year = (1 << 14) - 1
	}
	ts := (uint64(year) & 0xffff << 40) |
		(uint64(month-1) & 0xff << 32) |
		(uint64(day-1) & 0xff << 24) |
		(uint64(hour) & 0xff << 16) |
		(uint64(min) & 0xff << 8) |
		(uint64(sec) & 0xff)
	return Time{ts: ts, ns: uint32(ns)}
}

func norm(hi, lo, base int) (nhi, nlo int) {
	if lo < 0 {
		n := (-lo-1)/base + 1
		hi -= n
		lo += n * base
	}
	if lo >= base {
		n := lo / base
		hi += n
		lo -= n * base
	}
	return hi, lo
}

// WithOffset returns t with its UTC offset set to min
// minutes east of UTC. The wall-clock components of t
// are unchanged; only the instant it denotes moves.
func (t Time) WithOffset(min int) Time {
	t.off = int16(min)
	t.loc = true
	return t
}

// Offset returns the UTC offset of t in minutes east of
// UTC and whether an offset was present at all.
func (t Time) Offset() (min int, ok bool) {
	return int(t.off), t.loc
}

// FromTime returns a Time equivalent to t.
func FromTime(t time.Time) Time {
	t = t.UTC()
	year, month, day := t.Year(), int(t.Month()), t.Day()
	hour, min, sec := t.Hour(), t.Minute(), t.Second()
	ns := t.Nanosecond()
	return date(year, month, day, hour, min, sec, ns)
}

// Now returns the current time.
func Now() Time {
	return FromTime(time.Now())
}

// Time returns t as a time.Time.
func (t Time) Time() time.Time {
	year, month, day := t.Year(), time.Month(t.Month()), t.Day()
	hour, min, sec := t.Hour(), t.Minute(), t.Second()
	loc := time.UTC
	if t.loc && t.off != 0 {
		loc = time.FixedZone("", int(t.off)*60)
	}
	return time.Date(year, month, day, hour, min, sec, int(t.ns), loc)
}

// Year returns the year component of t.
func (t Time) Year() int {
	return int(t.ts & 0xffff0000000000 >> 40)
}

// Month returns the month component of t.
func (t Time) Month() int {
	return int(t.ts&0xff00000000>>32) + 1
}

// Day returns the day component of t.
func (t Time) Day() int {
	return int(t.ts&0xff000000>>24) + 1
}

// Hour returns the hour component of t.
func (t Time) Hour() int {
	return int(t.ts & 0xff0000 >> 16)
}

// Minute returns the minute component of t.
func (t Time) Minute() int {
	return int(t.ts & 0xff00 >> 8)
}

// Second returns the second component of t.
func (t Time) Second() int {
	return int(t.ts & 0xff)
}

// Nanosecond returns the nanosecond component of t.
func (t Time) Nanosecond() int {
	return int(t.ns)
}

// Unix returns the instant denoted by t as the number
// of seconds since the Unix epoch.
func (t Time) Unix() int64 {
	return t.Time().Unix()
}

// UnixNano returns the instant denoted by t as the
// number of nanoseconds since the Unix epoch.
func (t Time) UnixNano() int64 {
	return t.Time().UnixNano()
}

// Equal returns whether t and t2 denote the same
// instant. Timestamps with different offsets are equal
// if they name the same point in time.
func (t Time) Equal(t2 Time) bool {
	return t.Compare(t2) == 0
}

// Compare compares the instants denoted by t and t2 and
// returns -1, 0, or +1.
func (t Time) Compare(t2 Time) int {
	if !t.loc && !t2.loc {
		// fast path: both UTC; packed order is instant order
		switch {
		case t.ts < t2.ts:
			return -1
		case t.ts > t2.ts:
			return 1
		case t.ns < t2.ns:
			return -1
		case t.ns > t2.ns:
			return 1
		}
		return 0
	}
	a, b := t.UnixNano(), t2.UnixNano()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Before returns whether t is before t2.
func (t Time) Before(t2 Time) bool {
	return t.Compare(t2) < 0
}

// After returns whether t is after t2.
func (t Time) After(t2 Time) bool {
	return t.Compare(t2) > 0
}

// IsZero returns whether t is the zero value,
// corresponding to January 1st of year zero.
func (t Time) IsZero() bool {
	return t == Time{}
}

// AddParts adds n units of the named component to t and
// returns the (normalized) result. Valid units are
// "year", "month", "day", "hour", "minute", and
// "second".
func (t Time) AddParts(unit string, n int) (Time, bool) {
	y, mo, d := t.Year(), t.Month(), t.Day()
	h, mi, s := t.Hour(), t.Minute(), t.Second()
	switch unit {
	case "year":
		y += n
	case "month":
		mo += n
	case "day":
		d += n
	case "hour":
		h += n
	case "minute":
		mi += n
	case "second":
		s += n
	default:
		return Time{}, false
	}
	out := Date(y, mo, d, h, mi, s, t.Nanosecond())
	out.off, out.loc = t.off, t.loc
	return out, true
}

// String implements fmt.Stringer in an RFC3339-like
// format.
func (t Time) String() string {
	y, mo, d := t.Year(), t.Month(), t.Day()
	h, mi, s := t.Hour(), t.Minute(), t.Second()
	base := fmt.Sprintf("%04d-%02d-%02dT%02d:%02d:%02d", y, mo, d, h, mi, s)
	if t.ns != 0 {
		base += fmt.Sprintf(".%09d", t.ns)
	}
	if !t.loc || t.off == 0 {
		return base + "Z"
	}
	off := int(t.off)
	sign := "+"
	if off < 0 {
		sign, off = "-", -off
	}
	return base + fmt.Sprintf("%s%02d:%02d", sign, off/60, off%60)
}

var monthdays = [12]int{
	31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31,
}

func isleap(y int) bool {
	return y%4 == 0 && (y%100 != 0 || y%400 == 0)
}

func daysin(y, m int) int {
	d := monthdays[m-1]
	if m == 2 && isleap(y) {
		d++
	}
	return d
}

func normdate(y, m, d int) (year, month, day int) {
	y, m = norm(y, m-1, 12)
	m++
	md := daysin(y, m)
	if d >= 1 && d <= md {
		return y, m, d
	}
	for d < 1 {
		if m--; m < 1 {
			y, m = y-1, 12
		}
		md = daysin(y, m)
		d += md
	}
	for ; d > md; md = daysin(y, m) {
		d -= md
		if m++; m > 12 {
			y, m = y+1, 1
		}
	}
	return y, m, d
}
