package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"soukBack/internal/models"
	"soukBack/internal/notify"
	"soukBack/internal/validation"
)

const defaultRefreshTTL = 60 * 24 * time.Hour

type AuthService struct {
	Users      UserStore
	Sellers    SellerStore
	Tokens     TokenManager
	Notifier   *Notifier
	Pusher     notify.Pusher
	Log        Logger
	RefreshTTL time.Duration
}

// SignUp creates the account, then the seller profile in a separate insert.
// A failed profile insert is logged; the profile is created lazily later.
func (s *AuthService) SignUp(ctx context.Context, req models.SignUpRequest) (models.Tokens, error) {
	email := normalizeEmail(req.Email)
	name := strings.TrimSpace(req.Name)

	errs := validation.Errors{}
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		errs.Add("email", "enter a valid email address")
	}
	if err := validation.ValidatePassword(req.Password); err != nil {
		errs.Add("password", err.Error())
	}
	if name == "" {
		errs.Add("name", "name is required")
	}
	phone, err := validation.NormalizePhone(req.Phone)
	if err != nil {
		errs.Add("phone", err.Error())
	}
	if err := errs.Err(); err != nil {
		return models.Tokens{}, err
	}

	if s.EmailExists(ctx, email) {
		return models.Tokens{}, models.ErrDuplicateEmail
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.Tokens{}, fmt.Errorf("hash password: %w", err)
	}
	user, err := s.Users.CreateUser(ctx, models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
	})
	if err != nil {
		return models.Tokens{}, err
	}

	_, err = s.Sellers.Create(ctx, models.SellerProfile{ID: user.ID, Name: name, Phone: phone})
	if err != nil && !errors.Is(err, models.ErrDuplicateRecord) {
		logger(s.Log).Errorf("create seller profile for %s: %v", user.ID, err)
	}

	return s.issue(ctx, user.ID, models.AuthSignedIn)
}

func (s *AuthService) SignIn(ctx context.Context, req models.SignInRequest) (models.Tokens, error) {
	user, err := s.Users.GetUserByEmail(ctx, normalizeEmail(req.Email))
	if errors.Is(err, models.ErrNoRecord) {
		return models.Tokens{}, models.ErrInvalidCredentials
	}
	if err != nil {
		return models.Tokens{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return models.Tokens{}, models.ErrInvalidCredentials
	}

	tokens, err := s.issue(ctx, user.ID, models.AuthSignedIn)
	if err != nil {
		return models.Tokens{}, err
	}
	s.pushSignIn(ctx, user.ID)
	return tokens, nil
}

// Refresh rotates the refresh token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (models.Tokens, error) {
	session, err := s.Users.GetSession(ctx, refreshToken)
	if errors.Is(err, models.ErrNoRecord) {
		return models.Tokens{}, models.ErrInvalidCredentials
	}
	if err != nil {
		return models.Tokens{}, err
	}
	if err := s.Users.DeleteSession(ctx, refreshToken); err != nil && !errors.Is(err, models.ErrNoRecord) {
		return models.Tokens{}, err
	}
	if time.Now().After(session.ExpiresAt) {
		return models.Tokens{}, models.ErrSessionExpired
	}
	return s.issue(ctx, session.UserID, models.AuthTokenRefreshed)
}

// SignOut ends the session. Unknown tokens are ignored.
func (s *AuthService) SignOut(ctx context.Context, refreshToken string) error {
	session, err := s.Users.GetSession(ctx, refreshToken)
	if errors.Is(err, models.ErrNoRecord) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := s.Users.DeleteSession(ctx, refreshToken); err != nil && !errors.Is(err, models.ErrNoRecord) {
		return err
	}
	s.Notifier.Publish(models.AuthEvent{Type: models.AuthSignedOut, UserID: session.UserID, At: time.Now()})
	return nil
}

// CurrentUser resolves an access token to its user.
func (s *AuthService) CurrentUser(ctx context.Context, accessToken string) (models.User, error) {
	userID, err := s.Tokens.Parse(accessToken)
	if err != nil {
		return models.User{}, models.ErrInvalidCredentials
	}
	user, err := s.Users.GetUserByID(ctx, userID)
	if errors.Is(err, models.ErrNoRecord) {
		return models.User{}, models.ErrInvalidCredentials
	}
	return user, err
}

// EmailExists is a best-effort probe. Lookup failures count as "not taken";
// the unique index still rejects duplicates on insert.
func (s *AuthService) EmailExists(ctx context.Context, email string) bool {
	exists, err := s.Users.EmailExists(ctx, normalizeEmail(email))
	if err != nil {
		logger(s.Log).Errorf("email exists probe: %v", err)
		return false
	}
	return exists
}

func (s *AuthService) issue(ctx context.Context, userID string, ev models.AuthEventType) (models.Tokens, error) {
	access, exp, err := s.Tokens.NewJWT(userID)
	if err != nil {
		return models.Tokens{}, fmt.Errorf("sign access token: %w", err)
	}
	ttl := s.RefreshTTL
	if ttl <= 0 {
		ttl = defaultRefreshTTL
	}
	session := models.Session{
		UserID:       userID,
		RefreshToken: s.Tokens.NewRefreshToken(),
		ExpiresAt:    time.Now().Add(ttl),
	}
	if err := s.Users.SetSession(ctx, session); err != nil {
		return models.Tokens{}, fmt.Errorf("store session: %w", err)
	}

	s.Notifier.Publish(models.AuthEvent{Type: ev, UserID: userID, At: time.Now()})
	return models.Tokens{
		AccessToken:  access,
		RefreshToken: session.RefreshToken,
		ExpiresAt:    exp,
		UserID:       userID,
	}, nil
}

func (s *AuthService) pushSignIn(ctx context.Context, userID string) {
	if s.Pusher == nil || s.Sellers == nil {
		return
	}
	profile, err := s.Sellers.Get(ctx, userID)
	if err != nil || profile.DeviceToken == "" {
		return
	}
	msg := notify.Message{Title: "New sign-in", Body: "Your account was just signed in.", Data: map[string]string{"type": "sign_in"}}
	if err := s.Pusher.Push(ctx, profile.DeviceToken, msg); err != nil {
		logger(s.Log).Errorf("push sign-in to %s: %v", userID, err)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
