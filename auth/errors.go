package auth

import "errors"

var (
	// ErrInvalidToken indicates the token failed signature, expiry, or
	// claim validation.
	ErrInvalidToken = errors.New("invalid token")

	// ErrNoSigningKey indicates token creation was attempted without a
	// private key.
	ErrNoSigningKey = errors.New("no signing key configured")

	// ErrNoVerifyKey indicates token verification was attempted without a
	// public key.
	ErrNoVerifyKey = errors.New("no verification key configured")
)
