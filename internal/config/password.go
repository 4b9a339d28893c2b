package config

import (
	"crypto/subtle"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// IsHashed reports whether a configured password is a bcrypt hash.
func IsHashed(configured string) bool {
	for _, prefix := range []string{"$2a$", "$2b$", "$2y$"} {
		if strings.HasPrefix(configured, prefix) {
			return true
		}
	}
	return false
}

// MatchPassword compares a submitted password with a configured one, which may be a
// bcrypt hash.
func MatchPassword(configured, given string) bool {
	if IsHashed(configured) {
		return bcrypt.CompareHashAndPassword([]byte(configured), []byte(given)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(configured), []byte(given)) == 1
}

// HashPassword returns a bcrypt hash suitable for the password settings.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Passwords checks /start passwords against the bot configuration.
type Passwords struct {
	user  string
	admin string
}

// Passwords returns the password checker of c. Call it on a resolved configuration.
func (c Config) Passwords() Passwords {
	return Passwords{user: c.Bot.Password, admin: c.Bot.AdminPassword}
}

// MatchUser accepts any input when no user password is configured.
func (p Passwords) MatchUser(password string) bool {
	if p.user == "" {
		return true
	}
	return MatchPassword(p.user, password)
}

func (p Passwords) MatchAdmin(password string) bool {
	if p.admin == "" || password == "" {
		return false
	}
	return MatchPassword(p.admin, password)
}
