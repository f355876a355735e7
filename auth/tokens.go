// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package auth issues and verifies ES256-signed JWT access tokens.
//
// Keys are an ECDSA P-256 pair, typically loaded from PEM files mounted
// as secrets. A Tokens built with only the public key can verify but not
// issue.
package auth

import (
	"crypto/ecdsa"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// DefaultExpiry is how long issued access tokens stay valid.
const DefaultExpiry = 15 * 24 * time.Hour

// Tokens signs and verifies access tokens for user identities.
type Tokens struct {
	privateKey *ecdsa.PrivateKey
	publicKey  *ecdsa.PublicKey
	expiry     time.Duration
}

// Option configures a Tokens.
type Option func(*Tokens)

// WithExpiry overrides the default token lifetime.
func WithExpiry(d time.Duration) Option {
	return func(t *Tokens) {
		if d > 0 {
			t.expiry = d
		}
	}
}

// NewTokens creates a token service from in-memory keys. privateKey may
// be nil for verify-only use.
func NewTokens(privateKey *ecdsa.PrivateKey, publicKey *ecdsa.PublicKey, opts ...Option) (*Tokens, error) {
	if publicKey == nil {
		if privateKey == nil {
			return nil, ErrNoVerifyKey
		}
		publicKey = &privateKey.PublicKey
	}
	t := &Tokens{
		privateKey: privateKey,
		publicKey:  publicKey,
		expiry:     DefaultExpiry,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// LoadTokens reads a PEM-encoded ECDSA key pair from disk. privatePath
// may be empty for verify-only use.
func LoadTokens(privatePath, publicPath string, opts ...Option) (*Tokens, error) {
	publicPEM, err := os.ReadFile(publicPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read public key: %w", err)
	}
	publicKey, err := jwt.ParseECPublicKeyFromPEM(publicPEM)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}

	var privateKey *ecdsa.PrivateKey
	if privatePath != "" {
		privatePEM, err := os.ReadFile(privatePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read private key: %w", err)
		}
		privateKey, err = jwt.ParseECPrivateKeyFromPEM(privatePEM)
		if err != nil {
			return nil, fmt.Errorf("failed to parse private key: %w", err)
		}
	}
	return NewTokens(privateKey, publicKey, opts...)
}

// CreateAccessToken issues a signed token for the user. expiresIn <= 0
// uses the configured default.
func (t *Tokens) CreateAccessToken(userID uuid.UUID, expiresIn time.Duration) (string, error) {
	if t.privateKey == nil {
		return "", ErrNoSigningKey
	}
	if expiresIn <= 0 {
		expiresIn = t.expiry
	}

	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	signed, err := token.SignedString(t.privateKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken validates a token and returns the user ID from its subject
// claim. Any failure, including a non-ES256 signature, reports
// ErrInvalidToken.
func (t *Tokens) VerifyToken(tokenString string) (uuid.UUID, error) {
	if t.publicKey == nil {
		return uuid.Nil, ErrNoVerifyKey
	}

	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodECDSA); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return t.publicKey, nil
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: subject is not a user ID", ErrInvalidToken)
	}
	return userID, nil
}
