// Package token generates unguessable URL-safe identifiers used as bearer
// secrets: public review tokens, magic-link tokens and session ids.
package token

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Length is the size of every generated token.
const Length = 32

const alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

var alphabetSize = big.NewInt(int64(len(alphabet)))

// New returns a random token of Length base62 characters.
func New() (string, error) {
	return NewN(Length)
}

// NewN returns a random base62 token of n characters.
func NewN(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("token length must be positive, got %d", n)
	}
	buf := make([]byte, n)
	for i := range buf {
		idx, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
		buf[i] = alphabet[idx.Int64()]
	}
	return string(buf), nil
}

// Valid reports whether s has the shape of a generated token.
func Valid(s string) bool {
	if len(s) != Length {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= '0' && c <= '9' || c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z') {
			return false
		}
	}
	return true
}
