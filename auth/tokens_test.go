package auth

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newKey(t *testing.T) *ecdsa.PrivateKey {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	return key
}

func TestCreateAndVerify(t *testing.T) {
	tokens, err := NewTokens(newKey(t), nil)
	require.NoError(t, err)

	userID := uuid.New()
	signed, err := tokens.CreateAccessToken(userID, 0)
	require.NoError(t, err)
	require.NotEmpty(t, signed)

	got, err := tokens.VerifyToken(signed)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestVerify_Expired(t *testing.T) {
	tokens, err := NewTokens(newKey(t), nil)
	require.NoError(t, err)

	signed, err := tokens.CreateAccessToken(uuid.New(), -time.Hour)
	require.NoError(t, err)

	// negative expiresIn falls back to the default, so force expiry via a
	// short-lived service instead
	short, err := NewTokens(newKey(t), nil, WithExpiry(time.Nanosecond))
	require.NoError(t, err)
	expired, err := short.CreateAccessToken(uuid.New(), time.Nanosecond)
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)

	_, err = short.VerifyToken(expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// the default-lifetime token is still fine
	_, err = tokens.VerifyToken(signed)
	assert.NoError(t, err)
}

func TestVerify_WrongKey(t *testing.T) {
	issuer, err := NewTokens(newKey(t), nil)
	require.NoError(t, err)
	verifier, err := NewTokens(newKey(t), nil)
	require.NoError(t, err)

	signed, err := issuer.CreateAccessToken(uuid.New(), 0)
	require.NoError(t, err)

	_, err = verifier.VerifyToken(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_RejectsNonECDSAAlgorithm(t *testing.T) {
	key := newKey(t)
	tokens, err := NewTokens(key, nil)
	require.NoError(t, err)

	claims := jwt.RegisteredClaims{
		Subject:   uuid.New().String(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	hmacToken := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := hmacToken.SignedString([]byte("shared secret"))
	require.NoError(t, err)

	_, err = tokens.VerifyToken(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_NonUUIDSubject(t *testing.T) {
	key := newKey(t)
	tokens, err := NewTokens(key, nil)
	require.NoError(t, err)

	claims := jwt.RegisteredClaims{
		Subject:   "not-a-uuid",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	signed, err := token.SignedString(key)
	require.NoError(t, err)

	_, err = tokens.VerifyToken(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyOnly(t *testing.T) {
	key := newKey(t)
	issuer, err := NewTokens(key, nil)
	require.NoError(t, err)
	verifier, err := NewTokens(nil, &key.PublicKey)
	require.NoError(t, err)

	signed, err := issuer.CreateAccessToken(uuid.New(), 0)
	require.NoError(t, err)

	_, err = verifier.VerifyToken(signed)
	assert.NoError(t, err)

	_, err = verifier.CreateAccessToken(uuid.New(), 0)
	assert.ErrorIs(t, err, ErrNoSigningKey)
}

func TestNewTokens_NoKeys(t *testing.T) {
	_, err := NewTokens(nil, nil)
	assert.ErrorIs(t, err, ErrNoVerifyKey)
}
