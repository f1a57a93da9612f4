package cli

import (
	"testing"

	"github.com/pyven-dev/pyven/pkg/analyzer"
)

func TestStatusLabel(t *testing.T) {
	tests := []struct {
		status analyzer.Status
		want   string
	}{
		{analyzer.StatusNormal, "ok"},
		{analyzer.StatusNotInstalled, "not installed"},
		{analyzer.StatusNotInRequirements, "undeclared"},
		{analyzer.StatusRedundant, "redundant"},
		{analyzer.StatusVersionMismatch, "mismatch"},
		{analyzer.StatusVersionConflict, "conflict"},
		{analyzer.Status("future"), "future"},
	}

	for _, tt := range tests {
		if got := statusLabel(tt.status); got != tt.want {
			t.Errorf("statusLabel(%q) = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestStatusStyleSeverity(t *testing.T) {
	if statusStyle(analyzer.StatusNormal).GetForeground() != StyleSuccess.GetForeground() {
		t.Error("normal should render as success")
	}
	if statusStyle(analyzer.StatusNotInstalled).GetForeground() != StyleError.GetForeground() {
		t.Error("not_installed should render as error")
	}
	if statusStyle(analyzer.StatusRedundant).GetForeground() != StyleWarning.GetForeground() {
		t.Error("redundant should render as warning")
	}
}
