// Package auth provides password hashing and account-input validation.
package auth

import (
	"fmt"
	"regexp"

	"golang.org/x/crypto/bcrypt"
)

// cnMobilePattern matches mainland-China mobile numbers.
var cnMobilePattern = regexp.MustCompile(`^1[3-9]\d{9}$`)

// HashPassword hashes a plaintext password with bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword reports whether the plaintext matches the stored hash.
func VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// ValidCNPhone reports whether the string is a valid mainland-China mobile number.
func ValidCNPhone(phone string) bool {
	return cnMobilePattern.MatchString(phone)
}
