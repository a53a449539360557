// Package auth issues and verifies the two token kinds the API uses, and
// wraps bcrypt for password and OTP-code hashing.
//
// Session tokens assert {sub, email, name} for 7 days. Reset tokens are
// short-lived and additionally carry a fingerprint of the password hash at
// issuance time: the moment the password changes, every outstanding reset
// token stops verifying against the stored hash — revocation without a
// denylist.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/herbveda/storefront/config"
)

// SessionTTL is the validity window for session tokens.
const SessionTTL = 7 * 24 * time.Hour

// fingerprintLen is how many trailing characters of the bcrypt hash are
// embedded in reset tokens.
const fingerprintLen = 12

// SessionClaims is the typed payload of a session token.
type SessionClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

// ResetClaims is the typed payload of a password-reset token. Fingerprint is
// serialised as "v" to match the reset links already in the wild.
type ResetClaims struct {
	Email       string `json:"email"`
	Fingerprint string `json:"v"`
	jwt.RegisteredClaims
}

func sessionSecret() []byte { return []byte(config.JWTSecret()) }
func resetSecret() []byte   { return []byte(config.ResetSecret()) }

// IssueSessionToken creates a signed 7-day session token for the given user.
func IssueSessionToken(userID, email, name string) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		Email: email,
		Name:  name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(SessionTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(sessionSecret())
}

// ValidateSessionToken parses and validates a session token string.
func ValidateSessionToken(t string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(t, &SessionClaims{}, func(tok *jwt.Token) (interface{}, error) {
		return sessionSecret(), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}

	return claims, nil
}

// IssueResetToken creates a signed password-reset token bound to the user's
// current password hash. TTL comes from RESET_PASSWORD_TTL_MINUTES.
func IssueResetToken(userID, email, passwordHash string) (string, error) {
	now := time.Now()
	claims := ResetClaims{
		Email:       email,
		Fingerprint: Fingerprint(passwordHash),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(config.ResetTokenTTL())),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(resetSecret())
}

// ValidateResetToken parses and validates a reset token string. Callers must
// still compare the Fingerprint claim against the current password hash.
func ValidateResetToken(t string) (*ResetClaims, error) {
	token, err := jwt.ParseWithClaims(t, &ResetClaims{}, func(tok *jwt.Token) (interface{}, error) {
		return resetSecret(), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*ResetClaims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}

	return claims, nil
}

// Fingerprint derives the short password-hash suffix embedded in reset tokens.
func Fingerprint(passwordHash string) string {
	if len(passwordHash) <= fingerprintLen {
		return passwordHash
	}
	return passwordHash[len(passwordHash)-fingerprintLen:]
}

// HashPassword returns a bcrypt hash of the plain-text password.
func HashPassword(plain string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPassword compares a bcrypt hash against the plain-text candidate.
func CheckPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
