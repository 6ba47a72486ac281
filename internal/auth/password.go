// Package auth hashes and verifies user passwords with bcrypt.
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt work factor used when none is configured.
const DefaultCost = bcrypt.DefaultCost

var ErrPasswordTooLong = errors.New("password longer than 72 bytes")

// HashPassword returns the bcrypt hash of password at the given cost. A cost
// outside bcrypt's range falls back to DefaultCost.
func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), effectiveCost(cost))
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", ErrPasswordTooLong
	}
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Cost returns the work factor a hash was made with.
func Cost(hash string) (int, error) {
	return bcrypt.Cost([]byte(hash))
}

// NeedsRehash reports whether hash was made with a work factor other than
// cost. An unreadable hash is left alone.
func NeedsRehash(hash string, cost int) bool {
	current, err := Cost(hash)
	if err != nil {
		return false
	}
	return current != effectiveCost(cost)
}

func effectiveCost(cost int) int {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return DefaultCost
	}
	return cost
}
