package domainerrors

import (
	"errors"
	"fmt"
	"testing"
)

func TestHasCode(t *testing.T) {
	err := New(CodeConflict, "certificate already revoked")
	if !HasCode(err, CodeConflict) {
		t.Fatalf("expected CodeConflict on %v", err)
	}
	if HasCode(err, CodeNotFound) {
		t.Fatalf("did not expect CodeNotFound on %v", err)
	}
	if HasCode(errors.New("plain"), CodeConflict) {
		t.Fatalf("plain errors must not carry codes")
	}
}

func TestHasCodeThroughWrapping(t *testing.T) {
	cause := errors.New("pq: connection refused")
	err := fmt.Errorf("issue certificate: %w", Wrap(cause, CodeUnavailable, "store unavailable"))

	if !HasCode(err, CodeUnavailable) {
		t.Fatalf("expected CodeUnavailable through fmt.Errorf wrapping")
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to stay reachable")
	}
}

func TestCodeOf(t *testing.T) {
	if got := CodeOf(New(CodeForbidden, "issuer not verified")); got != CodeForbidden {
		t.Fatalf("CodeOf = %q, want %q", got, CodeForbidden)
	}
	if got := CodeOf(errors.New("boom")); got != CodeInternal {
		t.Fatalf("CodeOf(plain) = %q, want %q", got, CodeInternal)
	}
}
