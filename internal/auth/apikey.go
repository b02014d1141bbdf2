// Package auth gates access to the mutating API with pre-shared API keys,
// the same scheme the contract gateway itself uses. Keys are stored as bcrypt
// hashes so a leaked config file does not leak the keys.
//
// This is transport gating only. Verifying that a wallet address actually
// belongs to the caller is deliberately out of scope.
package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrMissingKey = errors.New("x-api-key header required")
	ErrInvalidKey = errors.New("invalid API key")
)

// KeyChecker validates presented API keys against a set of bcrypt hashes.
type KeyChecker struct {
	hashes [][]byte
}

// NewKeyChecker creates a checker from bcrypt hash strings (as produced by
// HashKey). An empty set means the check is disabled.
func NewKeyChecker(hashes []string) *KeyChecker {
	c := &KeyChecker{}
	for _, h := range hashes {
		if h != "" {
			c.hashes = append(c.hashes, []byte(h))
		}
	}
	return c
}

// Enabled reports whether any keys are configured.
func (c *KeyChecker) Enabled() bool {
	return len(c.hashes) > 0
}

// Check validates a presented key. Returns ErrMissingKey for an empty key and
// ErrInvalidKey when no configured hash matches.
func (c *KeyChecker) Check(key string) error {
	if !c.Enabled() {
		return nil
	}
	if key == "" {
		return ErrMissingKey
	}
	for _, h := range c.hashes {
		if bcrypt.CompareHashAndPassword(h, []byte(key)) == nil {
			return nil
		}
	}
	return ErrInvalidKey
}

// HashKey produces the bcrypt hash of a key for storage in config.
func HashKey(key string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}
