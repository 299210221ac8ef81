package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"soukBack/internal/models"
	"soukBack/internal/validation"
)

func newAuthService() (*AuthService, *fakeUsers, *fakeSellers) {
	users := newFakeUsers()
	sellers := newFakeSellers()
	return &AuthService{
		Users:    users,
		Sellers:  sellers,
		Tokens:   &fakeTokens{},
		Notifier: NewNotifier(),
	}, users, sellers
}

func signUpRequest() models.SignUpRequest {
	return models.SignUpRequest{Email: " Aicha@Example.MR ", Password: "Abcdefg1", Name: "Aicha", Phone: "36 12 34 56"}
}

func TestSignUpCreatesUserAndProfile(t *testing.T) {
	svc, users, sellers := newAuthService()
	ctx := context.Background()

	tokens, err := svc.SignUp(ctx, signUpRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)

	u, err := users.GetUserByEmail(ctx, "aicha@example.mr")
	require.NoError(t, err)
	assert.Equal(t, tokens.UserID, u.ID)
	assert.NotEqual(t, "Abcdefg1", u.PasswordHash)

	p, err := sellers.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "+22236123456", p.Phone)

	_, err = svc.SignUp(ctx, signUpRequest())
	assert.ErrorIs(t, err, models.ErrDuplicateEmail)
}

func TestSignUpValidation(t *testing.T) {
	svc, _, _ := newAuthService()
	_, err := svc.SignUp(context.Background(), models.SignUpRequest{Email: "nope", Password: "abc", Phone: "12345678"})
	var verrs validation.Errors
	require.ErrorAs(t, err, &verrs)
	for _, f := range []string{"email", "password", "name", "phone"} {
		assert.Contains(t, verrs, f)
	}
}

func TestSignUpSurvivesProbeAndProfileFailures(t *testing.T) {
	svc, users, sellers := newAuthService()
	users.probeFail = true
	sellers.failCreate = errDown

	tokens, err := svc.SignUp(context.Background(), signUpRequest())
	require.NoError(t, err)
	_, err = sellers.Get(context.Background(), tokens.UserID)
	assert.ErrorIs(t, err, models.ErrNoRecord)
}

func TestSignInAndCurrentUser(t *testing.T) {
	svc, _, sellers := newAuthService()
	pusher := &recordingPusher{}
	svc.Pusher = pusher
	ctx := context.Background()
	signed, err := svc.SignUp(ctx, signUpRequest())
	require.NoError(t, err)
	require.NoError(t, sellers.SetDeviceToken(ctx, signed.UserID, "device"))

	_, err = svc.SignIn(ctx, models.SignInRequest{Email: "aicha@example.mr", Password: "wrong"})
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)
	_, err = svc.SignIn(ctx, models.SignInRequest{Email: "ghost@example.mr", Password: "Abcdefg1"})
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)

	tokens, err := svc.SignIn(ctx, models.SignInRequest{Email: "AICHA@example.mr", Password: "Abcdefg1"})
	require.NoError(t, err)
	require.Len(t, pusher.sent, 1)

	u, err := svc.CurrentUser(ctx, tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "aicha@example.mr", u.Email)

	_, err = svc.CurrentUser(ctx, "forged")
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)
}

func TestRefreshRotatesAndSignOut(t *testing.T) {
	svc, users, _ := newAuthService()
	ctx := context.Background()
	first, err := svc.SignUp(ctx, signUpRequest())
	require.NoError(t, err)

	events, unsubscribe := svc.Notifier.Subscribe(first.UserID)
	defer unsubscribe()

	second, err := svc.Refresh(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
	assert.Equal(t, models.AuthTokenRefreshed, (<-events).Type)

	_, err = svc.Refresh(ctx, first.RefreshToken)
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)

	require.NoError(t, svc.SignOut(ctx, second.RefreshToken))
	assert.Equal(t, models.AuthSignedOut, (<-events).Type)
	assert.NoError(t, svc.SignOut(ctx, second.RefreshToken))

	require.NoError(t, users.SetSession(ctx, models.Session{UserID: first.UserID, RefreshToken: "old", ExpiresAt: time.Now().Add(-time.Minute)}))
	_, err = svc.Refresh(ctx, "old")
	assert.ErrorIs(t, err, models.ErrSessionExpired)
}
