// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package auth

import (
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/tomtom215/lodestone/internal/config"
)

// bcryptCost trades hash time against brute-force resistance. 12 keeps
// a login under ~300ms on commodity hardware.
const bcryptCost = 12

// BasicAuthManager validates the single configured admin credential,
// for HTTP Basic headers and for the JSON login endpoint. The password
// is bcrypt-hashed at construction and the plaintext discarded.
type BasicAuthManager struct {
	username     string
	passwordHash []byte
}

// NewBasicAuthManager hashes the configured password. Both username
// and password must be set.
func NewBasicAuthManager(cfg *config.SecurityConfig) (*BasicAuthManager, error) {
	if cfg.AdminUsername == "" || cfg.AdminPassword == "" {
		return nil, fmt.Errorf("admin username and password must not be empty")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	return &BasicAuthManager{
		username:     cfg.AdminUsername,
		passwordHash: hash,
	}, nil
}

// Verify checks a username/password pair. The username comparison is
// constant-time and the password check always runs so that timing does
// not reveal which half was wrong.
func (m *BasicAuthManager) Verify(username, password string) bool {
	userMatch := subtle.ConstantTimeCompare([]byte(username), []byte(m.username)) == 1
	passMatch := bcrypt.CompareHashAndPassword(m.passwordHash, []byte(password)) == nil
	return userMatch && passMatch
}

// ValidateCredentials checks the Authorization header of a request for
// a valid Basic credential.
func (m *BasicAuthManager) ValidateCredentials(r *http.Request) error {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ErrNoCredentials
	}

	const prefix = "Basic "
	if !strings.HasPrefix(header, prefix) {
		return ErrNoCredentials
	}

	decoded, err := base64.StdEncoding.DecodeString(header[len(prefix):])
	if err != nil {
		return fmt.Errorf("%w: malformed basic credentials", ErrInvalidCredentials)
	}

	username, password, ok := strings.Cut(string(decoded), ":")
	if !ok {
		return fmt.Errorf("%w: malformed basic credentials", ErrInvalidCredentials)
	}

	if !m.Verify(username, password) {
		return ErrInvalidCredentials
	}
	return nil
}

// Username returns the configured admin username.
func (m *BasicAuthManager) Username() string {
	return m.username
}

// GetWWWAuthenticateHeader returns the challenge sent with 401
// responses in basic mode.
func (m *BasicAuthManager) GetWWWAuthenticateHeader() string {
	return `Basic realm="Lodestone", charset="UTF-8"`
}
