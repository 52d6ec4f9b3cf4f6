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

import (
	"errors"
	"strings"
	"testing"
)

func TestCatalogComplete(t *testing.T) {
	codes := Codes()
	if len(codes) == 0 {
		t.Fatal("empty catalog")
	}
	for _, c := range codes {
		keys := Required(c)
		if len(keys) == 0 {
			t.Errorf("code %s has no required keys", c)
		}
		seen := make(map[Key]bool)
		for _, k := range keys {
			if seen[k] {
				t.Errorf("code %s repeats key %s", c, k)
			}
			seen[k] = true
			if strings.HasPrefix(k.String(), "Key(") {
				t.Errorf("code %s requires unnamed key %d", c, int(k))
			}
		}
		if strings.HasPrefix(c.String(), "Code(") {
			t.Errorf("code %d has no name", int(c))
		}
	}
}

func TestCheck(t *testing.T) {
	ok := New(TypeMismatch, Map{
		Expression:       Str("a + b"),
		FunctionName:     Token("+"),
		ArgumentPosition: Integer(2),
		ExpectedKind:     Token("numeric"),
		ActualKind:       Token("string"),
	})
	if missing, extra := Check(ok); missing != nil || extra != nil {
		t.Errorf("well-formed error: missing=%v extra=%v", missing, extra)
	}
	bad := New(TypeMismatch, Map{
		Expression: Str("a + b"),
		LimitValue: Long(3),
	})
	missing, extra := Check(bad)
	if len(missing) != 4 {
		t.Errorf("missing = %v", missing)
	}
	if len(extra) != 1 || extra[0] != LimitValue {
		t.Errorf("extra = %v", extra)
	}
}

func TestErrorString(t *testing.T) {
	e := New(UnboundVariable, Map{BindingName: Str("xyzzy")})
	want := "UNBOUND_VARIABLE: {BINDING_NAME=xyzzy}"
	if e.Error() != want {
		t.Errorf("got %q, want %q", e.Error(), want)
	}
	// property rendering is sorted by key, so the text is
	// deterministic
	e2 := New(NotAContainer, Map{
		ActualKind: Token("int"),
		Expression: Str("x[*]"),
	})
	want2 := "NOT_A_CONTAINER: {EXPRESSION=x[*], ACTUAL_KIND=int}"
	if e2.Error() != want2 {
		t.Errorf("got %q, want %q", e2.Error(), want2)
	}
}

func TestCause(t *testing.T) {
	root := errors.New("short read")
	e := New(Internal, Map{Expression: Str("boom")}).WithCause(root)
	if !errors.Is(e, root) {
		t.Error("cause not unwrapped")
	}
	if !Is(e, Internal) {
		t.Error("Is(e, Internal) = false")
	}
	if Is(e, TypeMismatch) {
		t.Error("Is(e, TypeMismatch) = true")
	}
	if !strings.Contains(e.Error(), "short read") {
		t.Errorf("cause missing from %q", e.Error())
	}
}
