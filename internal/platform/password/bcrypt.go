// Package password hashes and verifies stored secrets with bcrypt.
package password

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Hasher implements userdir.PasswordHasher.
type Hasher struct {
	cost int
}

// NewHasher returns a Hasher using cost, or bcrypt.DefaultCost when cost is zero.
func NewHasher(cost int) (*Hasher, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("password.NewHasher: cost %d outside [%d,%d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &Hasher{cost: cost}, nil
}

// maxInputBytes is the longest secret bcrypt accepts as-is.
const maxInputBytes = 72

// Hash returns the bcrypt hash of plain. Secrets of any length are accepted.
func (h *Hasher) Hash(plain string) (string, error) {
	const op = "password.Hash"
	hashed, err := bcrypt.GenerateFromPassword(prepare(plain), h.cost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return string(hashed), nil
}

// Matches reports whether plain hashes to hash. Malformed hashes never match.
func (h *Hasher) Matches(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), prepare(plain)) == nil
}

// prepare passes short secrets through unchanged and replaces longer ones
// with the base64 SHA-256 digest, which fits bcrypt's input limit.
func prepare(plain string) []byte {
	if len(plain) <= maxInputBytes {
		return []byte(plain)
	}
	sum := sha256.Sum256([]byte(plain))
	return []byte(base64.StdEncoding.EncodeToString(sum[:]))
}
