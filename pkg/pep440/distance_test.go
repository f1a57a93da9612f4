package pep440

import (
	"math"
	"testing"
)

func TestDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"1.2.0", "1.2.0", 0},
		{"1.2.0", "1.2.5", 5},
		{"1.2.0", "1.3.0", 10},
		{"1.2.0", "2.2.0", 100},
		{"1.0", "1.0.5", 5}, // shorter release padded with zeros
		{"2.0.0", "2.0.0rc1", 0.5},
		{"2.0.0rc1", "2.0.0rc2", 0.25 + 0.1*0.25},
		{"2.0.0a1", "2.0.0b1", 0.25 + 1*0.25},
	}

	for _, tt := range tests {
		t.Run(tt.a+" vs "+tt.b, func(t *testing.T) {
			got := Distance(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Distance(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
			if sym := Distance(tt.b, tt.a); math.Abs(sym-got) > 1e-9 {
				t.Errorf("Distance is not symmetric: %v vs %v", got, sym)
			}
		})
	}
}

func TestDistanceOrdering(t *testing.T) {
	// A patch away beats a major away, and both beat a pre-release of
	// an equally distant final.
	if !(Distance("1.2.0", "1.2.5") < Distance("1.2.0", "2.0.0")) {
		t.Error("patch difference should be closer than major difference")
	}
	if !(Distance("1.2.0", "1.2.1") < Distance("1.2.0", "1.2.1rc1")) {
		t.Error("final release should be closer than its pre-release")
	}
}

func TestDistanceUnparseable(t *testing.T) {
	if !math.IsInf(Distance("garbage", "1.0.0"), 1) {
		t.Error("unparseable version should be infinitely distant")
	}
	if !math.IsInf(Distance("1.0.0", "garbage"), 1) {
		t.Error("unparseable candidate should be infinitely distant")
	}
}

func TestNearest(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		candidates []string
		want       string
	}{
		{"closest patch", "2.31.5", []string{"2.31.0", "2.32.0", "2.28.0"}, "2.31.0"},
		{"exact present", "1.4.2", []string{"1.4.0", "1.4.2", "1.5.0"}, "1.4.2"},
		{"skips unparseable", "1.0.0", []string{"garbage", "1.0.1"}, "1.0.1"},
		{"empty candidates", "1.0.0", nil, ""},
		{"all unparseable", "1.0.0", []string{"x", "y"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Nearest(tt.target, tt.candidates); got != tt.want {
				t.Errorf("Nearest(%q, %v) = %q, want %q", tt.target, tt.candidates, got, tt.want)
			}
		})
	}
}
