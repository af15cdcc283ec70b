package auth

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/quirra-app/quirra-api/utils/validation"
)

// bcryptCost sits above the library default so offline cracking of a leaked
// hash stays expensive. Raising it only affects newly stored hashes.
const bcryptCost = 12

var (
	// ErrWeakPassword is wrapped with the concrete policy violations
	ErrWeakPassword = errors.New("password does not meet requirements")
	// ErrPasswordMismatch means the candidate did not match the stored hash
	ErrPasswordMismatch = errors.New("password does not match")
)

// CheckPasswordStrength runs the account password policy. Structural checks
// (required, max length) live in the request structs' validate tags; this
// covers what the tags cannot express.
func CheckPasswordStrength(password string) error {
	if ok, problems := validation.ValidatePassword(password); !ok {
		return fmt.Errorf("%w: %s", ErrWeakPassword, strings.Join(problems, "; "))
	}
	return nil
}

// HashPassword enforces the strength policy and bcrypts the password
func HashPassword(password string) (string, error) {
	if err := CheckPasswordStrength(password); err != nil {
		return "", err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// VerifyPassword compares a candidate against the stored bcrypt hash
func VerifyPassword(hashedPassword, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrPasswordMismatch
	}
	return err
}
