package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/starbooks/monitoring-api/utils/validation"
)

// bcryptCost is used for every stored account password
const bcryptCost = 12

var (
	ErrPasswordTooShort = fmt.Errorf("password must be at least %d characters", validation.PasswordMinLength)
	ErrPasswordMismatch = errors.New("password does not match")
)

// HashPassword hashes an account password for storage
func HashPassword(password string) (string, error) {
	return HashPasswordWithCost(password, bcryptCost)
}

// HashPasswordWithCost is HashPassword with an explicit bcrypt cost.
// Seeding and tests pass bcrypt.MinCost.
func HashPasswordWithCost(password string, cost int) (string, error) {
	if len(password) < validation.PasswordMinLength {
		return "", ErrPasswordTooShort
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword compares password against a stored hash. A wrong password
// is ErrPasswordMismatch; a malformed hash is returned as is.
func VerifyPassword(hash, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrPasswordMismatch
	}
	return err
}
