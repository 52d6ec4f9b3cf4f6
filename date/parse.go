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

package date

// Parse parses a timestamp string from data and returns
// the associated time and true, or the zero time and
// false if the buffer did not contain a recognized
// format.
//
// Parse recognizes RFC3339-style timestamps with an
// optional fractional-second component and an optional
// "Z" or +hh:mm / -hh:mm offset, as well as bare
// "yyyy-mm-dd" dates.
func Parse(data []byte) (Time, bool) {
	p := parser{buf: data}
	return p.parse()
}

type parser struct {
	buf []byte
	pos int
}

func (p *parser) done() bool { return p.pos >= len(p.buf) }

func (p *parser) peek() byte {
	if p.done() {
		return 0
	}
	return p.buf[p.pos]
}

func (p *parser) accept(c byte) bool {
	if p.peek() == c {
		p.pos++
		return true
	}
	return false
}

// digits reads exactly n decimal digits
func (p *parser) digits(n int) (int, bool) {
	v := 0
	for i := 0; i < n; i++ {
		c := p.peek()
		if c < '0' || c > '9' {
			return 0, false
		}
		v = v*10 + int(c-'0')
		p.pos++
	}
	return v, true
}

func (p *parser) frac() (ns int, ok bool) {
	scale := int64(1e9)
	any := false
	for {
		c := p.peek()
		if c < '0' || c > '9' {
			break
		}
		any = true
		if scale > 1 {
			scale /= 10
			ns += int(c-'0') * int(scale)
		}
		p.pos++
	}
	return ns, any
}

func (p *parser) parse() (Time, bool) {
	year, ok := p.digits(4)
	if !ok || !p.accept('-') {
		return Time{}, false
	}
	month, ok := p.digits(2)
	if !ok || !p.accept('-') {
		return Time{}, false
	}
	day, ok := p.digits(2)
	if !ok {
		return Time{}, false
	}
	if month < 1 || month > 12 || day < 1 || day > daysin(year, month) {
		return Time{}, false
	}
	if p.done() {
		// date-only form
		return date(year, month, day, 0, 0, 0, 0), true
	}
	if !p.accept('T') && !p.accept('t') && !p.accept(' ') {
		return Time{}, false
	}
	hour, ok := p.digits(2)
	if !ok || !p.accept(':') {
		return Time{}, false
	}
	min, ok := p.digits(2)
	if !ok || !p.accept(':') {
		return Time{}, false
	}
	sec, ok := p.digits(2)
	if !ok || hour > 23 || min > 59 || sec > 59 {
		return Time{}, false
	}
	ns := 0
	if p.accept('.') {
		ns, ok = p.frac()
		if !ok {
			return Time{}, false
		}
	}
	t := date(year, month, day, hour, min, sec, ns)
	if p.done() {
		return t, true
	}
	if p.accept('Z') || p.accept('z') {
		if !p.done() {
			return Time{}, false
		}
		return t.WithOffset(0), true
	}
	neg := false
	switch {
	case p.accept('+'):
	case p.accept('-'):
		neg = true
	default:
		return Time{}, false
	}
	oh, ok := p.digits(2)
	if !ok || !p.accept(':') {
		return Time{}, false
	}
	om, ok := p.digits(2)
	if !ok || oh > 23 || om > 59 || !p.done() {
		return Time{}, false
	}
	off := oh*60 + om
	if neg {
		off = -off
	}
	return t.WithOffset(off), true
}
