package services_test

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/herbveda/storefront/app/services"
	"github.com/herbveda/storefront/pkg/auth"
	"github.com/herbveda/storefront/pkg/mail"
)

func TestLogin(t *testing.T) {
	ctx := context.Background()
	users := newFakeUserStore()
	seedUser(t, users, "Asha", "asha@example.com", "correct-horse")
	svc := services.NewAuthService(users)

	token, user, err := svc.Login(ctx, "Asha@Example.com", "correct-horse")
	require.NoError(t, err)
	require.NotNil(t, user)

	claims, err := auth.ValidateSessionToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.Hex(), claims.Subject)
	assert.Equal(t, "asha@example.com", claims.Email)
	assert.Equal(t, "Asha", claims.Name)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	ctx := context.Background()
	users := newFakeUserStore()
	seedUser(t, users, "Asha", "asha@example.com", "correct-horse")
	svc := services.NewAuthService(users)

	_, _, wrongPass := svc.Login(ctx, "asha@example.com", "battery-staple")
	_, _, noAccount := svc.Login(ctx, "nobody@example.com", "battery-staple")

	// The two failures must be indistinguishable.
	se1, se2 := svcErr(t, wrongPass), svcErr(t, noAccount)
	assert.Equal(t, http.StatusUnauthorized, se1.Status)
	assert.Equal(t, se1.Status, se2.Status)
	assert.Equal(t, se1.Message, se2.Message)
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	users := newFakeUserStore()
	svc := services.NewAuthService(users)

	token, user, err := svc.Register(ctx, "Ravi", "Ravi@Example.com", "battery-staple")
	require.NoError(t, err)
	assert.Equal(t, "ravi@example.com", user.Email)
	assert.True(t, auth.CheckPassword(user.PasswordHash, "battery-staple"))

	claims, err := auth.ValidateSessionToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.Hex(), claims.Subject)

	_, _, err = svc.Register(ctx, "Other", "ravi@example.com", "something-else")
	assert.Equal(t, http.StatusConflict, svcErr(t, err).Status)
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()
	users := newFakeUserStore()
	u := seedUser(t, users, "Asha", "asha@example.com", "correct-horse")
	svc := services.NewAuthService(users)

	updated, err := svc.UpdateProfile(ctx, u.ID.Hex(), services.ProfileUpdate{
		Phone:       "9876543210",
		City:        "Pune",
		Gender:      "Female",
		DateOfBirth: "1992-04-15",
	})
	require.NoError(t, err)
	assert.Equal(t, "9876543210", updated.Phone)
	assert.Equal(t, "Pune", updated.City)
	assert.Equal(t, "female", updated.Gender)
	require.NotNil(t, updated.DateOfBirth)
	assert.Equal(t, "1992-04-15", updated.DateOfBirth.Format("2006-01-02"))
	assert.Equal(t, "Asha", updated.Name, "empty fields stay untouched")

	_, err = svc.UpdateProfile(ctx, u.ID.Hex(), services.ProfileUpdate{DateOfBirth: "15/04/1992"})
	assert.Equal(t, http.StatusBadRequest, svcErr(t, err).Status)

	_, err = svc.UpdateProfile(ctx, "64b000000000000000000000", services.ProfileUpdate{Name: "X"})
	assert.Equal(t, http.StatusNotFound, svcErr(t, err).Status)
}

func TestForgotPasswordDoesNotLeakAccountExistence(t *testing.T) {
	ctx := context.Background()
	users := newFakeUserStore()
	seedUser(t, users, "Asha", "asha@example.com", "correct-horse")
	svc := services.NewAuthService(users)

	sender := &fakeSender{}
	prev := mail.SetSender(sender)
	defer mail.SetSender(prev)

	knownMsg, knownURL, err := svc.ForgotPassword(ctx, "asha@example.com")
	require.NoError(t, err)
	unknownMsg, unknownURL, err := svc.ForgotPassword(ctx, "nobody@example.com")
	require.NoError(t, err)

	assert.Equal(t, knownMsg, unknownMsg)
	assert.NotEmpty(t, knownURL, "dev reset URL expected outside production")
	assert.Empty(t, unknownURL)
	require.Equal(t, 1, sender.count(), "only the real account gets mail")
	assert.Equal(t, []string{"asha@example.com"}, sender.last().Recipients())
	assert.Contains(t, sender.last().HTML(), url.QueryEscape(resetTokenFrom(t, knownURL)))
}

func TestForgotPasswordSurvivesMailFailure(t *testing.T) {
	ctx := context.Background()
	users := newFakeUserStore()
	seedUser(t, users, "Asha", "asha@example.com", "correct-horse")
	svc := services.NewAuthService(users)

	prev := mail.SetSender(&fakeSender{err: assert.AnError})
	defer mail.SetSender(prev)

	msg, _, err := svc.ForgotPassword(ctx, "asha@example.com")
	require.NoError(t, err, "delivery problems must not surface")
	assert.NotEmpty(t, msg)
}

func TestResetPasswordLifecycle(t *testing.T) {
	ctx := context.Background()
	users := newFakeUserStore()
	seedUser(t, users, "Asha", "asha@example.com", "correct-horse")
	svc := services.NewAuthService(users)

	prev := mail.SetSender(&fakeSender{})
	defer mail.SetSender(prev)

	_, devURL, err := svc.ForgotPassword(ctx, "asha@example.com")
	require.NoError(t, err)
	token := resetTokenFrom(t, devURL)

	require.NoError(t, svc.ResetPassword(ctx, token, "battery-staple"))

	_, _, err = svc.Login(ctx, "asha@example.com", "battery-staple")
	require.NoError(t, err)
	_, _, err = svc.Login(ctx, "asha@example.com", "correct-horse")
	require.Error(t, err)

	// The hash changed, so the same token no longer matches its fingerprint.
	err = svc.ResetPassword(ctx, token, "third-password")
	se := svcErr(t, err)
	assert.Equal(t, http.StatusBadRequest, se.Status)
	assert.Contains(t, se.Message, "no longer valid")
}

func TestResetPasswordRejectsGarbageToken(t *testing.T) {
	users := newFakeUserStore()
	svc := services.NewAuthService(users)

	err := svc.ResetPassword(context.Background(), "not-a-jwt", "battery-staple")
	assert.Equal(t, http.StatusBadRequest, svcErr(t, err).Status)
}

// resetTokenFrom extracts the token query parameter from a reset link.
func resetTokenFrom(t *testing.T, link string) string {
	t.Helper()
	u, err := url.Parse(link)
	require.NoError(t, err)
	token := u.Query().Get("token")
	require.NotEmpty(t, token)
	return token
}
