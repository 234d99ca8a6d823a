package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost matches the cost records were hashed with historically.
const DefaultCost = 10

// MaxSecretBytes is the longest secret bcrypt accepts.
const MaxSecretBytes = 72

// ErrPasswordTooLong is returned by Hash for secrets over MaxSecretBytes.
var ErrPasswordTooLong = fmt.Errorf("password exceeds %d bytes: %w", MaxSecretBytes, bcrypt.ErrPasswordTooLong)

// Hasher hashes and compares secrets with bcrypt.
type Hasher struct {
	cost int
}

func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	return &Hasher{cost: cost}
}

func (h *Hasher) Hash(secret string) (string, error) {
	if secret == "" {
		return "", errors.New("empty password")
	}
	if len(secret) > MaxSecretBytes {
		return "", ErrPasswordTooLong
	}
	b, err := bcrypt.GenerateFromPassword([]byte(secret), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(b), nil
}

// Compare reports whether secret matches hash. A malformed hash never matches.
func (h *Hasher) Compare(hash, secret string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}
