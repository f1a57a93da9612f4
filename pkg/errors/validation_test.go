package errors

import (
	"strings"
	"testing"
)

func TestValidatePackageNameCodes(t *testing.T) {
	cases := []struct {
		name string
		in   string
		ok   bool
	}{
		{name: "plain", in: "flask", ok: true},
		{name: "dotted", in: "zope.interface", ok: true},
		{name: "dashed", in: "charset-normalizer", ok: true},
		{name: "empty", in: "", ok: false},
		{name: "leading dash", in: "-flask", ok: false},
		{name: "parent dir", in: "a..b", ok: false},
		{name: "slash", in: "pkg/evil", ok: false},
		{name: "backslash", in: `pkg\evil`, ok: false},
		{name: "control char", in: "pkg\x01", ok: false},
		{name: "too long", in: strings.Repeat("a", 257), ok: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidatePackageName(tc.in)
			if tc.ok && err != nil {
				t.Errorf("ValidatePackageName(%q) = %v, want nil", tc.in, err)
			}
			if !tc.ok {
				if err == nil {
					t.Fatalf("ValidatePackageName(%q) = nil, want error", tc.in)
				}
				if !Is(err, ErrCodeInvalidPackage) {
					t.Errorf("code = %q, want %q", GetCode(err), ErrCodeInvalidPackage)
				}
			}
		})
	}
}
