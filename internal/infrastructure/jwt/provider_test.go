package jwtinfra

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-auth-code/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestProvider generates a fresh RSA key pair on disk and loads it.
func newTestProvider(t *testing.T, expiry time.Duration) *Provider {
	t.Helper()
	privKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	dir := t.TempDir()
	privPath := filepath.Join(dir, "private.pem")
	pubPath := filepath.Join(dir, "public.pem")

	privPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(privKey)})
	require.NoError(t, os.WriteFile(privPath, privPEM, 0600))

	pubBytes, err := x509.MarshalPKIXPublicKey(&privKey.PublicKey)
	require.NoError(t, err)
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubBytes})
	require.NoError(t, os.WriteFile(pubPath, pubPEM, 0600))

	p, err := NewProvider(&config.Config{
		JWTPrivateKeyPath: privPath,
		JWTPublicKeyPath:  pubPath,
		JWTExpiry:         expiry,
	})
	require.NoError(t, err)
	return p
}

func TestIssueVerify_RoundTrip(t *testing.T) {
	p := newTestProvider(t, time.Hour)
	tok, err := p.Issue("u1", "a@b.com", "transportador")
	require.NoError(t, err)

	claims, err := p.verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.Subject)
	assert.Equal(t, "a@b.com", claims.Email)
	assert.Equal(t, "transportador", claims.Role)
}

func TestVerify_Expired(t *testing.T) {
	p := newTestProvider(t, time.Minute)
	issued := time.Now()
	p.now = func() time.Time { return issued }
	tok, err := p.Issue("u1", "a@b.com", "cliente")
	require.NoError(t, err)

	p.now = func() time.Time { return issued.Add(2 * time.Hour) }
	_, err = p.verify(tok)
	assert.Error(t, err)
}

func TestIssue_UniqueIDAndIssuer(t *testing.T) {
	p := newTestProvider(t, time.Hour)
	a, err := p.Issue("u1", "a@b.com", "cliente")
	require.NoError(t, err)
	b, err := p.Issue("u1", "a@b.com", "cliente")
	require.NoError(t, err)

	ca, err := p.verify(a)
	require.NoError(t, err)
	cb, err := p.verify(b)
	require.NoError(t, err)
	assert.Equal(t, Issuer, ca.Issuer)
	assert.NotEqual(t, ca.ID, cb.ID)
}

func TestVerify_Garbage(t *testing.T) {
	p := newTestProvider(t, time.Hour)
	_, err := p.verify("not-a-token")
	assert.Error(t, err)
}

func TestNewProvider_MissingKey(t *testing.T) {
	_, err := NewProvider(&config.Config{JWTPrivateKeyPath: filepath.Join(t.TempDir(), "nope.pem")})
	assert.ErrorContains(t, err, "read private key")
}
