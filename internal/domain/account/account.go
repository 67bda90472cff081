// Package account holds credential rules and password hashing for players.
package account

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

// Length bounds, counted in characters.
const (
	MinUsernameLength = 5
	MaxUsernameLength = 15
	MinPasswordLength = 8
	MaxPasswordLength = 15
)

// Client-facing messages.
const (
	MsgOK                 = "OK"
	MsgUsernameLength     = "Username less than 5 characters or more than 15 characters"
	MsgPasswordLength     = "Password less than 8 characters or more than 15 characters"
	MsgUsernameExists     = "Username already exists"
	MsgCredentialsInvalid = "Username or password incorrect"
	MsgPlayerNotFound     = "Player does not exist"
)

// Sentinel kinds for account errors.
var (
	ErrUsernameLength = errors.New(MsgUsernameLength)
	ErrPasswordLength = errors.New(MsgPasswordLength)
	ErrPasswordHash   = errors.New("password hashing failed")
)

// ValidateUsername checks the username length.
func ValidateUsername(username string) error {
	if n := utf8.RuneCountInString(username); n < MinUsernameLength || n > MaxUsernameLength {
		return ErrUsernameLength
	}
	return nil
}

// ValidatePassword checks the password length.
func ValidatePassword(password string) error {
	if n := utf8.RuneCountInString(password); n < MinPasswordLength || n > MaxPasswordLength {
		return ErrPasswordLength
	}
	return nil
}

// ValidateCredentials applies both rules, username first.
func ValidateCredentials(username, password string) error {
	if err := ValidateUsername(username); err != nil {
		return err
	}
	return ValidatePassword(password)
}

// HashPassword returns a bcrypt hash of password at the given cost.
// Out-of-range costs fall back to bcrypt.DefaultCost.
func HashPassword(password string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPasswordHash, err)
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
