package pep440

import "testing"

func TestCompatible(t *testing.T) {
	tests := []struct {
		name      string
		installed string
		spec      string
		want      bool
	}{
		{"empty spec always matches", "1.0.0", "", true},
		{"whitespace spec always matches", "1.0.0", "   ", true},
		{"exact match", "2.0.0", "==2.0.0", true},
		{"exact mismatch", "2.0.1", "==2.0.0", false},
		{"bare version is exact", "2.0.0", "2.0.0", true},
		{"range inside", "2.5.0", ">=2.0.0,<3.0.0", true},
		{"range above", "3.1.0", ">=2.0.0,<3.0.0", false},
		{"range at lower bound", "2.0.0", ">=2.0.0,<3.0.0", true},
		{"range at upper bound", "3.0.0", ">=2.0.0,<3.0.0", false},
		{"not equal", "1.5.0", "!=1.5.0", false},
		{"greater than", "1.0.1", ">1.0.0", true},
		{"less or equal", "1.0.0", "<=1.0.0", true},
		{"compatible release patch", "1.4.7", "~=1.4.2", true},
		{"compatible release minor bump", "1.5.0", "~=1.4.2", false},
		{"compatible release two segments", "1.9.0", "~=1.4", true},
		{"compatible release major bump", "2.0.0", "~=1.4", false},
		{"pre-release below final", "2.0.0rc1", ">=2.0.0", false},
		{"spaces around clauses", "2.5.0", ">= 2.0.0 , < 3.0.0", true},

		// Unparseable input fails closed, never open.
		{"garbage spec", "1.0.0", "not a spec", false},
		{"garbage installed", "not-a-version", ">=1.0.0", false},
		{"half-garbage spec", "1.0.0", ">=1.0.0,banana", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Compatible(tt.installed, tt.spec); got != tt.want {
				t.Errorf("Compatible(%q, %q) = %v, want %v", tt.installed, tt.spec, got, tt.want)
			}
		})
	}
}
