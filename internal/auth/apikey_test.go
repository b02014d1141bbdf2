package auth

import (
	"errors"
	"testing"
)

func TestKeyChecker(t *testing.T) {
	hash, err := HashKey("secret-key")
	if err != nil {
		t.Fatalf("HashKey failed: %v", err)
	}
	checker := NewKeyChecker([]string{hash})

	if !checker.Enabled() {
		t.Fatal("checker with hashes should be enabled")
	}
	if err := checker.Check("secret-key"); err != nil {
		t.Errorf("valid key rejected: %v", err)
	}
	if err := checker.Check("wrong-key"); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("expected ErrInvalidKey, got %v", err)
	}
	if err := checker.Check(""); !errors.Is(err, ErrMissingKey) {
		t.Errorf("expected ErrMissingKey, got %v", err)
	}
}

func TestKeyChecker_DisabledAllowsEverything(t *testing.T) {
	checker := NewKeyChecker(nil)
	if checker.Enabled() {
		t.Fatal("empty checker should be disabled")
	}
	if err := checker.Check(""); err != nil {
		t.Errorf("disabled checker must allow all requests, got %v", err)
	}
}
