package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OTP challenge purposes.
const (
	PurposeLogin    = "login"
	PurposeRegister = "register"
)

// OtpChallenge is a pending email verification code. The code itself is never
// stored; only its bcrypt hash. A TTL index on expiresAt reaps stale
// challenges.
type OtpChallenge struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty"`
	Email     string              `bson:"email"`
	UserID    *primitive.ObjectID `bson:"userId,omitempty"`
	CodeHash  string              `bson:"codeHash"`
	Type      string              `bson:"type"`
	ExpiresAt time.Time           `bson:"expiresAt"`
	Payload   string              `bson:"payload,omitempty"` // encrypted RegisterPayload JSON
	Attempts  int                 `bson:"attempts"`
	Consumed  bool                `bson:"consumed"`
	CreatedAt time.Time           `bson:"createdAt"`
	UpdatedAt time.Time           `bson:"updatedAt"`
}

// RegisterPayload is the account data held by a register challenge until the
// code is verified. It is sealed with pkg/crypt before it goes to storage.
type RegisterPayload struct {
	Name         string `json:"name"`
	PasswordHash string `json:"passwordHash"`
}

// Expired reports whether the challenge has passed its expiry.
func (c *OtpChallenge) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}
