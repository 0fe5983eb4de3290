package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost keeps a hash in the tens of milliseconds on current hardware.
const DefaultCost = 9

// HashPassword returns the salted bcrypt hash of plain. Costs outside
// bcrypt's range fall back to DefaultCost.
func HashPassword(plain string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	h, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// CheckPassword reports whether plain matches hash. bcrypt compares in
// constant time. A malformed hash is an error, a mismatch is not.
func CheckPassword(hash, plain string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, err
	}
}
