// Package auth is the identity-and-policy collaborator: a fixed two-user
// store, bcrypt password checks, and HS256 JWT issuance. The core services
// never see roles; only the HTTP layer consults them.
package auth

import (
	"errors"
	"fmt"
	"time"

	"guild-tracker/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

const (
	RoleSuperadmin = "superadmin"
	RoleAdmin      = "admin"
)

var (
	ErrBadCredentials = errors.New("bad credentials")
	ErrInvalidToken   = errors.New("invalid or expired token")
)

type User struct {
	Username string
	Role     string

	passwordHash []byte
}

type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type Service struct {
	users  map[string]User
	secret []byte
	expiry time.Duration
	logger zerolog.Logger
}

func NewService(cfg *config.Config, logger zerolog.Logger) (*Service, error) {
	users := make(map[string]User, 2)
	for _, u := range []struct {
		username, role, password string
	}{
		{"Droken", RoleSuperadmin, cfg.SuperadminPassword},
		{"Admin", RoleAdmin, cfg.AdminPassword},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password for %s: %w", u.username, err)
		}
		users[u.username] = User{Username: u.username, Role: u.role, passwordHash: hash}
	}

	return &Service{
		users:  users,
		secret: []byte(cfg.JWTSecret),
		expiry: cfg.JWTExpiry,
		logger: logger,
	}, nil
}

func (s *Service) Authenticate(username, password string) (*User, error) {
	user, ok := s.users[username]
	if !ok {
		return nil, ErrBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword(user.passwordHash, []byte(password)); err != nil {
		return nil, ErrBadCredentials
	}
	return &user, nil
}

func (s *Service) IssueToken(user *User) (string, error) {
	now := time.Now()
	claims := &Claims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (s *Service) ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" || claims.Role == "" {
		return nil, ErrInvalidToken
	}

	if _, ok := s.users[claims.Subject]; !ok {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
