package auth

import (
	"context"
	"errors"
)

var (
	// ErrInvalidCredentials is returned for a wrong operator password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken is returned for a missing, expired or forged bearer token.
	ErrInvalidToken = errors.New("invalid token")
)

// Service defines operator authentication for the run trigger API.
type Service interface {
	// Login exchanges the operator password for a signed token.
	Login(ctx context.Context, password string) (string, error)
	// Verify checks a token issued by Login.
	Verify(token string) error
}
