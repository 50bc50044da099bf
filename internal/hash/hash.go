// Package hash wraps bcrypt credential hashing with a configurable cost.
package hash

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MinCost is the lowest cost accepted for new hashers. Verification still
// accepts hashes produced at any cost.
const MinCost = 12

// Hasher hashes and verifies credentials with bcrypt. The cost is fixed
// at construction and the salt is random per credential.
type Hasher struct {
	cost int
}

// New creates a Hasher with the given cost.
func New(cost int) (*Hasher, error) {
	if cost < MinCost {
		return nil, fmt.Errorf("hash: cost %d below minimum %d", cost, MinCost)
	}
	if cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("hash: cost %d above maximum %d", cost, bcrypt.MaxCost)
	}
	return &Hasher{cost: cost}, nil
}

// Hash returns the bcrypt hash of the plaintext.
func (h *Hasher) Hash(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify reports whether the plaintext matches the stored hash. The
// comparison is constant-time within bcrypt. Only a boolean escapes;
// callers decide the error surface.
func (h *Hasher) Verify(hashed, plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plaintext)) == nil
}
