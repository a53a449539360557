package services_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/herbveda/storefront/app/models"
	"github.com/herbveda/storefront/app/services"
	"github.com/herbveda/storefront/config"
	"github.com/herbveda/storefront/pkg/auth"
	"github.com/herbveda/storefront/pkg/mail"
)

func newOtpFixture(t *testing.T) (*services.OtpService, *fakeUserStore, *fakeOtpStore, *fakeSender) {
	t.Helper()
	users := newFakeUserStore()
	otps := newFakeOtpStore()
	sender := &fakeSender{}
	prev := mail.SetSender(sender)
	t.Cleanup(func() { mail.SetSender(prev) })
	return services.NewOtpService(users, otps), users, otps, sender
}

func TestRegisterCodeFlow(t *testing.T) {
	ctx := context.Background()
	svc, users, otps, sender := newOtpFixture(t)

	require.NoError(t, svc.RequestRegisterCode(ctx, "Ravi", "Ravi@Example.com", "battery-staple"))

	// No account exists until the code is verified.
	pending, err := users.FindByEmail(ctx, "ravi@example.com")
	require.NoError(t, err)
	assert.Nil(t, pending)

	challenge, err := otps.FindLatestActive(ctx, "ravi@example.com", models.PurposeRegister)
	require.NoError(t, err)
	require.NotNil(t, challenge)
	assert.NotEmpty(t, challenge.Payload, "pending account data travels sealed in the challenge")
	assert.NotContains(t, challenge.Payload, "Ravi")

	require.Equal(t, 1, sender.count())
	code := codeFrom(sender.last())
	require.Len(t, code, 6)

	token, user, err := svc.VerifyRegisterCode(ctx, "ravi@example.com", code)
	require.NoError(t, err)
	assert.Equal(t, "Ravi", user.Name)
	assert.Equal(t, "ravi@example.com", user.Email)
	assert.True(t, auth.CheckPassword(user.PasswordHash, "battery-staple"))

	claims, err := auth.ValidateSessionToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.Hex(), claims.Subject)

	// The challenge is consumed; the same code cannot register twice.
	_, _, err = svc.VerifyRegisterCode(ctx, "ravi@example.com", code)
	assert.Equal(t, http.StatusBadRequest, svcErr(t, err).Status)
}

func TestRequestRegisterCodeDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	svc, users, _, _ := newOtpFixture(t)
	seedUser(t, users, "Asha", "asha@example.com", "correct-horse")

	err := svc.RequestRegisterCode(ctx, "Imposter", "asha@example.com", "battery-staple")
	assert.Equal(t, http.StatusConflict, svcErr(t, err).Status)
}

func TestLoginCodeFlow(t *testing.T) {
	ctx := context.Background()
	svc, users, _, sender := newOtpFixture(t)
	seeded := seedUser(t, users, "Asha", "asha@example.com", "correct-horse")

	require.NoError(t, svc.RequestLoginCode(ctx, "asha@example.com"))
	code := codeFrom(sender.last())
	require.Len(t, code, 6)

	token, user, err := svc.VerifyLoginCode(ctx, "asha@example.com", code)
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, user.ID)

	claims, err := auth.ValidateSessionToken(token)
	require.NoError(t, err)
	assert.Equal(t, seeded.ID.Hex(), claims.Subject)
}

func TestRequestLoginCodeUnknownUser(t *testing.T) {
	svc, _, _, _ := newOtpFixture(t)

	err := svc.RequestLoginCode(context.Background(), "nobody@example.com")
	assert.Equal(t, http.StatusNotFound, svcErr(t, err).Status)
}

func TestVerifyWithoutRequest(t *testing.T) {
	svc, _, _, _ := newOtpFixture(t)

	_, _, err := svc.VerifyLoginCode(context.Background(), "asha@example.com", "123456")
	se := svcErr(t, err)
	assert.Equal(t, http.StatusBadRequest, se.Status)
	assert.Contains(t, se.Message, "request again")
}

func TestAttemptCapLocksChallenge(t *testing.T) {
	ctx := context.Background()
	svc, users, _, sender := newOtpFixture(t)
	seedUser(t, users, "Asha", "asha@example.com", "correct-horse")

	require.NoError(t, svc.RequestLoginCode(ctx, "asha@example.com"))
	code := codeFrom(sender.last())

	wrong := "000000"
	if wrong == code {
		wrong = "111111"
	}
	for i := 0; i < config.OtpMaxAttempts(); i++ {
		_, _, err := svc.VerifyLoginCode(ctx, "asha@example.com", wrong)
		assert.Equal(t, http.StatusUnauthorized, svcErr(t, err).Status)
	}

	// Even the right code is refused once the cap is reached.
	_, _, err := svc.VerifyLoginCode(ctx, "asha@example.com", code)
	assert.Equal(t, http.StatusTooManyRequests, svcErr(t, err).Status)
}

func TestExpiredCode(t *testing.T) {
	ctx := context.Background()
	svc, users, otps, sender := newOtpFixture(t)
	seedUser(t, users, "Asha", "asha@example.com", "correct-horse")

	require.NoError(t, svc.RequestLoginCode(ctx, "asha@example.com"))
	code := codeFrom(sender.last())
	otps.expireAll()

	_, _, err := svc.VerifyLoginCode(ctx, "asha@example.com", code)
	se := svcErr(t, err)
	assert.Equal(t, http.StatusBadRequest, se.Status)
	assert.Contains(t, se.Message, "expired")
}

func TestMailFailureDiscardsChallenge(t *testing.T) {
	ctx := context.Background()
	svc, users, otps, sender := newOtpFixture(t)
	seedUser(t, users, "Asha", "asha@example.com", "correct-horse")
	sender.err = assert.AnError

	err := svc.RequestLoginCode(ctx, "asha@example.com")
	assert.Equal(t, http.StatusInternalServerError, svcErr(t, err).Status)
	assert.Equal(t, 0, otps.size(), "an undeliverable code must not linger")
}
