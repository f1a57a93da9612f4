package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeInvalidFormat, "invalid requirement: %s", "flask==")

	if err.Code != ErrCodeInvalidFormat {
		t.Errorf("Code = %q, want %q", err.Code, ErrCodeInvalidFormat)
	}
	if err.Message != "invalid requirement: flask==" {
		t.Errorf("Message = %q", err.Message)
	}
	if !strings.Contains(err.Error(), "INVALID_FORMAT") {
		t.Errorf("Error() should contain the code, got %q", err.Error())
	}
}

func TestWrap(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := Wrap(ErrCodeNetwork, cause, "failed to fetch %s", "requests")

	if !stderrors.Is(err, cause) {
		t.Error("wrapped error should match the cause via errors.Is")
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("Error() should include the cause, got %q", err.Error())
	}
}

func TestIs(t *testing.T) {
	err := New(ErrCodeNoVenv, "no virtual environment found")

	if !Is(err, ErrCodeNoVenv) {
		t.Error("Is should match the error's own code")
	}
	if Is(err, ErrCodeNetwork) {
		t.Error("Is should not match a different code")
	}
	if Is(fmt.Errorf("plain"), ErrCodeNoVenv) {
		t.Error("Is should not match a plain error")
	}

	// Match through wrapping
	wrapped := fmt.Errorf("context: %w", err)
	if !Is(wrapped, ErrCodeNoVenv) {
		t.Error("Is should unwrap to find the code")
	}
}

func TestGetCode(t *testing.T) {
	if got := GetCode(New(ErrCodeTimeout, "timed out")); got != ErrCodeTimeout {
		t.Errorf("GetCode = %q, want %q", got, ErrCodeTimeout)
	}
	if got := GetCode(fmt.Errorf("plain")); got != "" {
		t.Errorf("GetCode on plain error = %q, want empty", got)
	}
}

func TestUserMessage(t *testing.T) {
	err := New(ErrCodeInstallerFailed, "pip install failed for requests")
	if got := UserMessage(err); got != "pip install failed for requests" {
		t.Errorf("UserMessage = %q", got)
	}
	if got := UserMessage(fmt.Errorf("plain error")); got != "plain error" {
		t.Errorf("UserMessage on plain error = %q", got)
	}
}

func TestValidatePackageName(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"requests", false},
		{"Flask-Login", false},
		{"zope.interface", false},
		{"typing_extensions", false},
		{"", true},
		{"-requests", true},
		{"../etc/passwd", true},
		{"pkg/sub", true},
		{"pkg\x00", true},
		{strings.Repeat("a", 300), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePackageName(tt.name)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePackageName(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			}
		})
	}
}
