package models

import (
	"time"

	"github.com/golang-jwt/jwt"
)

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

type Claims struct {
	UserID string `json:"user_id"`
	jwt.StandardClaims
}

type Tokens struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	UserID       string    `json:"user_id"`
}

type Session struct {
	UserID       string    `json:"user_id"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

type SignUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthEventType string

const (
	AuthSignedIn       AuthEventType = "signed_in"
	AuthSignedOut      AuthEventType = "signed_out"
	AuthTokenRefreshed AuthEventType = "token_refreshed"
	AuthProfileUpdated AuthEventType = "profile_updated"
)

// AuthEvent is pushed to subscribers of a user's auth state.
type AuthEvent struct {
	Type   AuthEventType `json:"type"`
	UserID string        `json:"user_id"`
	At     time.Time     `json:"at"`
}
