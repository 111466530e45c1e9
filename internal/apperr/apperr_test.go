package apperr

import (
	"errors"
	"testing"
)

func TestIsMatchesOnCode(t *testing.T) {
	a := New(CodeThrashing, "42", "no evictable victim")
	b := New(CodeThrashing, "7", "different id, same code")
	if !errors.Is(a, b) {
		t.Fatal("expected errors with the same code to match via errors.Is")
	}
	c := New(CodeMalformedDAG, "42", "unsupported node")
	if errors.Is(a, c) {
		t.Fatal("expected errors with different codes to not match")
	}
}

func TestWrapUnwrap(t *testing.T) {
	cause := errors.New("boom")
	wrapped := Wrap(CodeResidencyViolation, "3", "double put", cause)
	if !errors.Is(wrapped, cause) {
		t.Fatal("expected Unwrap to expose the wrapped cause")
	}
}

func TestErrorMessageFormatting(t *testing.T) {
	e := New(CodeInvalidStoreTarget, "5", "store on host")
	want := "[INVALID_STORE_TARGET] store on host (id=5)"
	if e.Error() != want {
		t.Fatalf("Error() = %q, want %q", e.Error(), want)
	}
}
