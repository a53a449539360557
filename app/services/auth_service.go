package services

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/herbveda/storefront/app/models"
	"github.com/herbveda/storefront/config"
	"github.com/herbveda/storefront/pkg/auth"
	"github.com/herbveda/storefront/pkg/logger"
	"github.com/herbveda/storefront/pkg/mail"
)

// The forgot-password endpoint always answers with this, whether or not the
// account exists.
const genericResetMessage = "If an account exists for this email, a reset link has been sent."

// UserStore is the slice of the user repository the auth flows need.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, u *models.User) error
	UpdateByID(ctx context.Context, id string, set bson.M) (*models.User, error)
}

// AuthService implements password login, registration, profile updates, and
// the reset-token lifecycle.
type AuthService struct {
	users UserStore
}

func NewAuthService(users UserStore) *AuthService {
	return &AuthService{users: users}
}

// Login checks the password and issues a session token. Wrong email and wrong
// password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	user, err := s.users.FindByEmail(ctx, strings.ToLower(email))
	if err != nil {
		return "", nil, err
	}
	if user == nil || !auth.CheckPassword(user.PasswordHash, password) {
		return "", nil, NewError(http.StatusUnauthorized, "Invalid credentials.")
	}

	token, err := auth.IssueSessionToken(user.ID.Hex(), user.Email, user.Name)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// Register creates an account directly, without email verification, and
// signs the new user in.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (string, *models.User, error) {
	email = strings.ToLower(email)

	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return "", nil, err
	}
	if existing != nil {
		return "", nil, NewError(http.StatusConflict, "Email already in use.")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return "", nil, err
	}

	user := &models.User{Email: email, Name: name, PasswordHash: hash}
	if err := s.users.Create(ctx, user); err != nil {
		return "", nil, err
	}

	token, err := auth.IssueSessionToken(user.ID.Hex(), user.Email, user.Name)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// ProfileUpdate carries the optional fields of an update-profile request.
// Empty fields are left untouched.
type ProfileUpdate struct {
	Name        string
	Phone       string
	Address     string
	City        string
	State       string
	Pincode     string
	DateOfBirth string // "2006-01-02"
	Gender      string
}

// UpdateProfile applies the non-empty fields to the user's document.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, in ProfileUpdate) (*models.User, error) {
	set := bson.M{}
	for field, value := range map[string]string{
		"name":    in.Name,
		"phone":   in.Phone,
		"address": in.Address,
		"city":    in.City,
		"state":   in.State,
		"pincode": in.Pincode,
		"gender":  strings.ToLower(in.Gender),
	} {
		if value != "" {
			set[field] = value
		}
	}
	if in.DateOfBirth != "" {
		dob, err := time.Parse("2006-01-02", in.DateOfBirth)
		if err != nil {
			return nil, NewError(http.StatusBadRequest, "Invalid date of birth")
		}
		set["dateOfBirth"] = dob
	}

	user, err := s.users.UpdateByID(ctx, userID, set)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, NewError(http.StatusNotFound, "User not found")
	}
	return user, nil
}

// ForgotPassword issues a reset token and emails the reset link. The returned
// message is identical whether or not the account exists; devURL is filled
// only outside production, for local testing.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) (message, devURL string, err error) {
	user, err := s.users.FindByEmail(ctx, strings.ToLower(email))
	if err != nil {
		return "", "", err
	}
	if user == nil {
		logger.WithCtx(ctx).Debug("forgot password: no account", "email", email)
		return genericResetMessage, "", nil
	}

	token, err := auth.IssueResetToken(user.ID.Hex(), user.Email, user.PasswordHash)
	if err != nil {
		return "", "", err
	}
	resetURL := strings.TrimRight(config.ClientBase(), "/") + "/reset-password?token=" + url.QueryEscape(token)

	sendErr := mail.To(user.Email).
		Subject("Reset your Herb & Veda password").
		Body(buildResetEmailHTML(user.Name, resetURL)).
		Text(buildResetEmailText(user.Name, resetURL)).
		Send()
	if sendErr != nil {
		// Logged, never surfaced: the response must not leak delivery state.
		logger.WithCtx(ctx).Error("forgot password: mail send failed", "error", sendErr)
	}

	if !config.IsProduction() {
		devURL = resetURL
	}
	return genericResetMessage, devURL, nil
}

// ResetPassword validates the token against the user's current password hash
// and installs the new password. A token minted before a previous reset no
// longer matches the hash fingerprint and is rejected.
func (s *AuthService) ResetPassword(ctx context.Context, token, password string) error {
	claims, err := auth.ValidateResetToken(token)
	if err != nil {
		return NewError(http.StatusBadRequest, "Invalid or expired reset token.")
	}

	user, err := s.users.FindByID(ctx, claims.Subject)
	if err != nil {
		return err
	}
	if user == nil || user.Email != claims.Email {
		return NewError(http.StatusBadRequest, "Invalid reset token.")
	}

	if claims.Fingerprint != auth.Fingerprint(user.PasswordHash) {
		return NewError(http.StatusBadRequest, "Reset token is no longer valid. Please request a new one.")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	if _, err := s.users.UpdateByID(ctx, user.ID.Hex(), bson.M{"passwordHash": hash}); err != nil {
		return err
	}
	return nil
}
