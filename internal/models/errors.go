package models

import (
	"errors"
)

var (
	ErrNoRecord           = errors.New("models: no matching record found")
	ErrInvalidCredentials = errors.New("models: invalid credentials")
	ErrDuplicateEmail     = errors.New("models: duplicate email")
	ErrDuplicateRecord    = errors.New("models: duplicate record")
	ErrForbidden          = errors.New("models: not the owner of this record")
	ErrUnavailable        = errors.New("models: listings are temporarily unavailable")
	ErrSessionExpired     = errors.New("models: session expired")
)
