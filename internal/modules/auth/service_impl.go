package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"
)

const subject = "operator"

type service struct {
	passwordHash []byte
	jwtKey       []byte
	ttl          time.Duration
	now          func() time.Time
}

// NewService creates an auth service. passwordHash is a bcrypt hash of the operator password.
func NewService(passwordHash, jwtSecret string, ttl time.Duration) Service {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &service{
		passwordHash: []byte(passwordHash),
		jwtKey:       []byte(jwtSecret),
		ttl:          ttl,
		now:          time.Now,
	}
}

func (s *service) Login(ctx context.Context, password string) (string, error) {
	if len(s.passwordHash) == 0 || len(s.jwtKey) == 0 {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	claims := &jwt.StandardClaims{
		Subject:   subject,
		IssuedAt:  s.now().Unix(),
		ExpiresAt: s.now().Add(s.ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtKey)
	if err != nil {
		return "", err
	}
	return tokenString, nil
}

func (s *service) Verify(tokenString string) error {
	if tokenString == "" || len(s.jwtKey) == 0 {
		return ErrInvalidToken
	}
	claims := &jwt.StandardClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.jwtKey, nil
	})
	if err != nil || !token.Valid || claims.Subject != subject {
		return ErrInvalidToken
	}
	return nil
}
