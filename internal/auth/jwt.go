// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/tomtom215/lodestone/internal/config"
	"github.com/tomtom215/lodestone/internal/logging"
)

// defaultSessionTimeout bounds token lifetime when the config leaves
// SessionTimeout unset.
const defaultSessionTimeout = 24 * time.Hour

// minSecretLength is the shortest HMAC secret accepted without a
// warning. HS256 secrets shorter than the hash size weaken the MAC.
const minSecretLength = 32

// Claims is the JWT payload for locally issued tokens. The registered
// ID claim (jti) is always set so individual tokens can be revoked.
type Claims struct {
	Username  string `json:"username"`
	Role      string `json:"role"`
	SessionID string `json:"sid,omitempty"`
	jwt.RegisteredClaims
}

// JWTManager issues and validates HS256 bearer tokens.
type JWTManager struct {
	secret  []byte
	timeout time.Duration
}

// NewJWTManager builds a manager from the security config. The secret
// must be non-empty; short secrets are accepted with a logged warning.
func NewJWTManager(cfg *config.SecurityConfig) (*JWTManager, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("jwt secret must not be empty")
	}
	if len(cfg.JWTSecret) < minSecretLength {
		logging.Warn().
			Int("length", len(cfg.JWTSecret)).
			Int("recommended", minSecretLength).
			Msg("JWT secret is shorter than recommended")
	}

	timeout := cfg.SessionTimeout
	if timeout <= 0 {
		timeout = defaultSessionTimeout
	}

	return &JWTManager{
		secret:  []byte(cfg.JWTSecret),
		timeout: timeout,
	}, nil
}

// GenerateToken issues a signed token for the user. sessionID links the
// token to a server-side session record and may be empty.
func (m *JWTManager) GenerateToken(username, role, sessionID string) (string, error) {
	now := time.Now()
	claims := &Claims{
		Username:  username,
		Role:      role,
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.timeout)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and verifies a token string, returning its
// claims. Expired or tampered tokens fail with ErrInvalidCredentials
// wrapped around the parser error.
func (m *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidCredentials, err)
	}
	if !token.Valid {
		return nil, ErrInvalidCredentials
	}
	return claims, nil
}

// TokenLifetime returns the configured validity window for new tokens.
func (m *JWTManager) TokenLifetime() time.Duration {
	return m.timeout
}
