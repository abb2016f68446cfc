package security

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/bps3275/sinora/internal/ports"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTSignerRoundTrip(t *testing.T) {
	signer, err := NewEphemeralJWTSigner("test-key")
	require.NoError(t, err)

	now := time.Now().UTC().Truncate(time.Second)
	sessionID := uuid.New()
	token, err := signer.Sign(ports.AuthClaims{
		UserID:    42,
		NIP:       "198001012006041001",
		Name:      "Budi",
		Role:      "admin",
		SessionID: sessionID,
		IssuedAt:  now,
		ExpiresAt: now.Add(time.Hour),
	})
	require.NoError(t, err)

	claims, err := signer.ParseAndValidate(token)
	require.NoError(t, err)
	assert.EqualValues(t, 42, claims.UserID)
	assert.Equal(t, "198001012006041001", claims.NIP)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, sessionID, claims.SessionID)
	assert.Equal(t, "test-key", claims.KeyID)
	assert.True(t, claims.ExpiresAt.Equal(now.Add(time.Hour)))
}

func TestJWTSignerRejectsExpiredAndForeignTokens(t *testing.T) {
	signer, err := NewEphemeralJWTSigner("a")
	require.NoError(t, err)
	other, err := NewEphemeralJWTSigner("b")
	require.NoError(t, err)

	now := time.Now().UTC()
	expired, err := signer.Sign(ports.AuthClaims{
		UserID:    1,
		SessionID: uuid.New(),
		IssuedAt:  now.Add(-2 * time.Hour),
		ExpiresAt: now.Add(-time.Hour),
	})
	require.NoError(t, err)
	_, err = signer.ParseAndValidate(expired)
	assert.Error(t, err)

	foreign, err := other.Sign(ports.AuthClaims{UserID: 1, SessionID: uuid.New(), IssuedAt: now, ExpiresAt: now.Add(time.Hour)})
	require.NoError(t, err)
	_, err = signer.ParseAndValidate(foreign)
	assert.Error(t, err)

	_, err = signer.ParseAndValidate("not-a-token")
	assert.Error(t, err)
}

func TestNewJWTSignerFromPEM(t *testing.T) {
	ephemeral, err := NewEphemeralJWTSigner("k")
	require.NoError(t, err)
	privPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(ephemeral.privateKey)})
	pubDER, err := x509.MarshalPKIXPublicKey(ephemeral.publicKey)
	require.NoError(t, err)
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})

	signer, err := NewJWTSigner("k", string(privPEM), string(pubPEM))
	require.NoError(t, err)
	assert.IsType(t, &rsa.PublicKey{}, signer.publicKey)

	_, err = NewJWTSigner("", string(privPEM), string(pubPEM))
	assert.Error(t, err)
	_, err = NewJWTSigner("k", "garbage", string(pubPEM))
	assert.Error(t, err)
}

func TestBcryptHasher(t *testing.T) {
	h := NewBcryptHasher(4)
	hash, err := h.Hash("rahasia1")
	require.NoError(t, err)
	assert.NoError(t, h.Compare(hash, "rahasia1"))
	assert.Error(t, h.Compare(hash, "salah"))
}
