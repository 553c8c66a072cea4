package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorString(t *testing.T) {
	err := New(InvalidParams, "missing x")
	if got := err.Error(); !strings.Contains(got, "INVALID_PARAMS") || !strings.Contains(got, "missing x") {
		t.Errorf("Error() = %q, want code and message present", got)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stderrors.New("exec: xdotool not found")
	err := Wrap(cause, InputInjectionFailure, "move failed")

	if !stderrors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}
	if !strings.Contains(err.Error(), "caused by") {
		t.Errorf("Error() = %q, want cause included", err.Error())
	}
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"direct", New(NotFound, "no match"), NotFound},
		{"wrapped once", fmt.Errorf("outer: %w", New(CaptureFailure, "scrot failed")), CaptureFailure},
		{"plain error", stderrors.New("plain"), Unknown},
		{"nil", nil, Unknown},
	}

	for _, tt := range tests {
		if got := CodeOf(tt.err); got != tt.want {
			t.Errorf("%s: CodeOf() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestIsCode(t *testing.T) {
	err := Newf(UnknownStepType, "unknown step type %q", "teleport")
	if !IsCode(err, UnknownStepType) {
		t.Error("IsCode should match the assigned code")
	}
	if IsCode(err, NotFound) {
		t.Error("IsCode should not match a different code")
	}
	if IsCode(nil, Unknown) {
		t.Error("IsCode(nil) should be false")
	}
}

func TestWithMetadata(t *testing.T) {
	err := New(InvalidTemplate, "decode failed").WithMetadata("template", "login.png")
	if err.Metadata["template"] != "login.png" {
		t.Errorf("Metadata = %v, want template key", err.Metadata)
	}
	if !strings.Contains(err.Error(), "login.png") {
		t.Errorf("Error() = %q, want metadata rendered", err.Error())
	}
}

func TestCodeString(t *testing.T) {
	if got := Code(999).String(); got != "UNKNOWN" {
		t.Errorf("unknown code String() = %q, want UNKNOWN", got)
	}
	if got := NotFound.String(); got != "NOT_FOUND" {
		t.Errorf("NotFound.String() = %q, want NOT_FOUND", got)
	}
}
