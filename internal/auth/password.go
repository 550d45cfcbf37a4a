package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/Spok95/school-supply/internal/apperr"
)

const (
	MinPasswordLength = 6
	// bcrypt rejects anything longer.
	MaxPasswordBytes = 72
)

func HashPassword(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", apperr.Validation("a senha deve ter pelo menos %d caracteres", MinPasswordLength)
	}
	if len(password) > MaxPasswordBytes {
		return "", apperr.Validation("a senha deve ter no máximo %d bytes", MaxPasswordBytes)
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CheckPassword reports whether password matches hash. Only unexpected bcrypt
// failures are returned as errors.
func CheckPassword(hash, password string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword), errors.Is(err, bcrypt.ErrHashTooShort):
		return false, nil
	default:
		return false, err
	}
}
