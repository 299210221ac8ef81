package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"

	"soukBack/internal/models"
)

var ErrInvalidToken = errors.New("invalid access token")

type Manager struct {
	signingKey string
	accessTTL  time.Duration
}

func NewManager(signingKey string, accessTTL time.Duration) (*Manager, error) {
	if signingKey == "" {
		return nil, errors.New("empty signing key")
	}
	if accessTTL <= 0 {
		return nil, errors.New("access token ttl must be positive")
	}

	return &Manager{signingKey: signingKey, accessTTL: accessTTL}, nil
}

// NewJWT signs an access token for userID and returns its expiry.
func (m *Manager) NewJWT(userID string) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(m.accessTTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &models.Claims{
		UserID: userID,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: exp.Unix(),
			IssuedAt:  now.Unix(),
			Subject:   userID,
		},
	})

	signed, err := token.SignedString([]byte(m.signingKey))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Parse validates accessToken and returns the user id it was issued for.
func (m *Manager) Parse(accessToken string) (string, error) {
	claims := &models.Claims{}
	token, err := jwt.ParseWithClaims(accessToken, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(m.signingKey), nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.UserID == "" {
		return "", ErrInvalidToken
	}

	return claims.UserID, nil
}

func (m *Manager) NewRefreshToken() string {
	return uuid.NewString()
}
