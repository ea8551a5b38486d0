package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorFormat(t *testing.T) {
	err := New(CodeUndecodable, "empty input")
	if got := err.Error(); got != "[E104] empty input" {
		t.Errorf("Error() = %q, want %q", got, "[E104] empty input")
	}

	wrapped := Wrap(fmt.Errorf("disk full"), CodeWriteFailed, "cannot write clean row")
	got := wrapped.Error()
	if !strings.Contains(got, "E301") || !strings.Contains(got, "disk full") {
		t.Errorf("Error() = %q, want code and cause", got)
	}
}

func TestWrapNil(t *testing.T) {
	if got := Wrap(nil, CodeUnknown, "x"); got != nil {
		t.Errorf("Wrap(nil) = %v, want nil", got)
	}
}

func TestUnwrap(t *testing.T) {
	cause := fmt.Errorf("underlying")
	err := Wrap(cause, CodeFileNotFound, "unreadable")
	if !stderrors.Is(err, cause) {
		t.Error("errors.Is(wrapped, cause) = false, want true")
	}
}

func TestIsCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code Code
		want bool
	}{
		{"direct", New(CodeUndecodable, "x"), CodeUndecodable, true},
		{"wrong code", New(CodeUndecodable, "x"), CodeWriteFailed, false},
		{"wrapped once", fmt.Errorf("outer: %w", New(CodeSinkClosed, "x")), CodeSinkClosed, true},
		{"plain error", fmt.Errorf("plain"), CodeUnknown, false},
		{"nil", nil, CodeUnknown, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsCode(tt.err, tt.code); got != tt.want {
				t.Errorf("IsCode(%v, %s) = %v, want %v", tt.err, tt.code, got, tt.want)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"sieve error", New(CodeConfigInvalid, "x"), CodeConfigInvalid},
		{"wrapped", fmt.Errorf("outer: %w", New(CodeTimeout, "x")), CodeTimeout},
		{"plain", fmt.Errorf("plain"), CodeUnknown},
	}

	for _, tt := range tests {
		if got := GetCode(tt.err); got != tt.want {
			t.Errorf("GetCode(%s) = %s, want %s", tt.name, got, tt.want)
		}
	}
}

func TestIsConfiguration(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{ConfigInvalid("bad tolerance"), true},
		{SpecConflict("action", "enum without values"), true},
		{New(CodeSpecUnknownTyp, "blob"), true},
		{New(CodeUndecodable, "empty input"), false},
		{fmt.Errorf("plain"), false},
	}

	for _, tt := range tests {
		if got := IsConfiguration(tt.err); got != tt.want {
			t.Errorf("IsConfiguration(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestWithContext(t *testing.T) {
	err := FileNotFound("/data/auth.csv")
	if err.Context["path"] != "/data/auth.csv" {
		t.Errorf("Context[path] = %v, want /data/auth.csv", err.Context["path"])
	}
	if !strings.Contains(err.Error(), "/data/auth.csv") {
		t.Errorf("Error() = %q, want path in message", err.Error())
	}
}

func TestStackCaptured(t *testing.T) {
	err := New(CodePanic, "boom")
	if len(err.StackTrace) == 0 {
		t.Error("StackTrace empty, want frames")
	}
}
