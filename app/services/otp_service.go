package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/herbveda/storefront/app/models"
	"github.com/herbveda/storefront/config"
	"github.com/herbveda/storefront/pkg/auth"
	"github.com/herbveda/storefront/pkg/crypt"
	"github.com/herbveda/storefront/pkg/logger"
	"github.com/herbveda/storefront/pkg/mail"
	"github.com/herbveda/storefront/pkg/metrics"
)

const codeLength = 6

// OtpStore is the slice of the OTP repository the code flows need.
type OtpStore interface {
	Create(ctx context.Context, c *models.OtpChallenge) error
	FindLatestActive(ctx context.Context, email, purpose string) (*models.OtpChallenge, error)
	IncrementAttempts(ctx context.Context, id primitive.ObjectID) error
	MarkConsumed(ctx context.Context, id primitive.ObjectID) error
	DeleteByID(ctx context.Context, id primitive.ObjectID) error
}

// OtpService implements email-code login and registration.
type OtpService struct {
	users UserStore
	otps  OtpStore
}

func NewOtpService(users UserStore, otps OtpStore) *OtpService {
	return &OtpService{users: users, otps: otps}
}

// generateNumericCode returns a random code of the given length with no
// leading zero, e.g. "493027".
func generateNumericCode(length int) (string, error) {
	min := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length-1)), nil)
	span := new(big.Int).Mul(min, big.NewInt(9))
	n, err := rand.Int(rand.Reader, span)
	if err != nil {
		return "", fmt.Errorf("otp: generate code: %w", err)
	}
	return n.Add(n, min).String(), nil
}

// smtpErrorHint maps a mail failure to an actionable message for the client.
func smtpErrorHint(err error) string {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "535"), strings.Contains(msg, "Username and Password not accepted"):
		return "SMTP rejected login. For Gmail, enable 2FA and use an App Password."
	case strings.Contains(msg, "auth"):
		return "Invalid SMTP credentials. Check SMTP_USER and SMTP_PASS."
	case strings.Contains(msg, "no such host"), strings.Contains(msg, "connection refused"), strings.Contains(msg, "timeout"):
		return "Cannot connect to SMTP server. Check SMTP_HOST/PORT and network."
	default:
		return "Email service error: " + msg
	}
}

// RequestLoginCode creates a login challenge for an existing account and
// emails the code. The challenge is discarded if the email cannot be sent.
func (s *OtpService) RequestLoginCode(ctx context.Context, email string) error {
	email = strings.ToLower(email)

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		return NewError(http.StatusNotFound, "User not found")
	}

	challenge := &models.OtpChallenge{
		Email:  user.Email,
		UserID: &user.ID,
		Type:   models.PurposeLogin,
	}
	return s.issue(ctx, challenge)
}

// RequestRegisterCode creates a register challenge holding the pending
// account data and emails the code. No user document exists until the code
// is verified.
func (s *OtpService) RequestRegisterCode(ctx context.Context, name, email, password string) error {
	email = strings.ToLower(email)

	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if existing != nil {
		return NewError(http.StatusConflict, "Email already in use.")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	sealed, err := crypt.EncryptJSON(models.RegisterPayload{Name: name, PasswordHash: hash})
	if err != nil {
		return err
	}

	challenge := &models.OtpChallenge{
		Email:   email,
		Type:    models.PurposeRegister,
		Payload: sealed,
	}
	return s.issue(ctx, challenge)
}

// issue fills in the code hash and expiry, stores the challenge, and emails
// the plaintext code. The code is never persisted.
func (s *OtpService) issue(ctx context.Context, challenge *models.OtpChallenge) error {
	code, err := generateNumericCode(codeLength)
	if err != nil {
		return err
	}
	hash, err := auth.HashPassword(code)
	if err != nil {
		return err
	}

	ttl := config.OtpTTL()
	challenge.CodeHash = hash
	challenge.ExpiresAt = time.Now().Add(ttl)

	if err := s.otps.Create(ctx, challenge); err != nil {
		return err
	}
	metrics.OtpRequested.WithLabelValues(challenge.Type).Inc()

	sendErr := mail.To(challenge.Email).
		Subject("Your Herb & Veda verification code").
		Body(buildOtpEmailHTML(code, ttl)).
		Text(buildOtpEmailText(code, ttl)).
		Send()
	if sendErr != nil {
		logger.WithCtx(ctx).Error("otp: code email failed", "purpose", challenge.Type, "error", sendErr)
		// An undeliverable code is unusable; remove it so the client can
		// retry immediately.
		if delErr := s.otps.DeleteByID(ctx, challenge.ID); delErr != nil {
			logger.WithCtx(ctx).Error("otp: cleanup after mail failure", "error", delErr)
		}
		return NewError(http.StatusInternalServerError, smtpErrorHint(sendErr))
	}
	return nil
}

// VerifyLoginCode checks the latest active login challenge and signs the user
// in on success.
func (s *OtpService) VerifyLoginCode(ctx context.Context, email, code string) (string, *models.User, error) {
	email = strings.ToLower(email)

	challenge, err := s.check(ctx, email, models.PurposeLogin, code)
	if err != nil {
		return "", nil, err
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return "", nil, err
	}
	if user == nil {
		return "", nil, NewError(http.StatusNotFound, "User not found")
	}

	if err := s.otps.MarkConsumed(ctx, challenge.ID); err != nil {
		return "", nil, err
	}
	metrics.OtpVerified.WithLabelValues(models.PurposeLogin, "ok").Inc()

	token, err := auth.IssueSessionToken(user.ID.Hex(), user.Email, user.Name)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// VerifyRegisterCode checks the latest active register challenge, creates the
// account from its sealed payload, and signs the new user in.
func (s *OtpService) VerifyRegisterCode(ctx context.Context, email, code string) (string, *models.User, error) {
	email = strings.ToLower(email)

	challenge, err := s.check(ctx, email, models.PurposeRegister, code)
	if err != nil {
		return "", nil, err
	}

	var payload models.RegisterPayload
	if challenge.Payload == "" || crypt.DecryptJSON(challenge.Payload, &payload) != nil ||
		payload.Name == "" || payload.PasswordHash == "" {
		return "", nil, NewError(http.StatusBadRequest, "Registration code payload missing")
	}

	if err := s.otps.MarkConsumed(ctx, challenge.ID); err != nil {
		return "", nil, err
	}
	metrics.OtpVerified.WithLabelValues(models.PurposeRegister, "ok").Inc()

	user := &models.User{Email: email, Name: payload.Name, PasswordHash: payload.PasswordHash}
	if err := s.users.Create(ctx, user); err != nil {
		// A racing verify already consumed the email.
		return "", nil, NewError(http.StatusConflict, "Email already in use.")
	}

	token, err := auth.IssueSessionToken(user.ID.Hex(), user.Email, user.Name)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// check finds the latest active challenge and verifies the code against it.
// A challenge that reaches the attempt cap is dead even if the right code
// arrives afterwards.
func (s *OtpService) check(ctx context.Context, email, purpose, code string) (*models.OtpChallenge, error) {
	challenge, err := s.otps.FindLatestActive(ctx, email, purpose)
	if err != nil {
		return nil, err
	}
	if challenge == nil {
		return nil, NewError(http.StatusBadRequest, "No code found, please request again")
	}
	if challenge.Expired(time.Now()) {
		metrics.OtpVerified.WithLabelValues(purpose, "expired").Inc()
		return nil, NewError(http.StatusBadRequest, "Code expired")
	}
	if challenge.Attempts >= config.OtpMaxAttempts() {
		metrics.OtpVerified.WithLabelValues(purpose, "locked").Inc()
		return nil, NewError(http.StatusTooManyRequests, "Too many invalid attempts, please request a new code")
	}
	if !auth.CheckPassword(challenge.CodeHash, code) {
		if err := s.otps.IncrementAttempts(ctx, challenge.ID); err != nil {
			return nil, err
		}
		metrics.OtpVerified.WithLabelValues(purpose, "invalid").Inc()
		return nil, NewError(http.StatusUnauthorized, "Invalid code")
	}
	return challenge, nil
}
