package jwtinfra

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-auth-code/internal/config"
	"github.com/go-auth-code/internal/pkg/id"
	"github.com/golang-jwt/jwt/v5"
)

// Issuer is written to the iss claim and required on verification.
const Issuer = "auth-code"

// Claims is the session token payload. The user id travels in sub.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Provider issues RS256 session tokens for verified logins.
type Provider struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	expiry     time.Duration
	now        func() time.Time
}

func NewProvider(cfg *config.Config) (*Provider, error) {
	privKey, err := readKey(cfg.JWTPrivateKeyPath, "private", jwt.ParseRSAPrivateKeyFromPEM)
	if err != nil {
		return nil, err
	}
	pubKey, err := readKey(cfg.JWTPublicKeyPath, "public", jwt.ParseRSAPublicKeyFromPEM)
	if err != nil {
		return nil, err
	}
	return &Provider{privateKey: privKey, publicKey: pubKey, expiry: cfg.JWTExpiry, now: time.Now}, nil
}

func readKey[K any](path, kind string, parse func([]byte) (K, error)) (K, error) {
	var zero K
	b, err := os.ReadFile(path)
	if err != nil {
		return zero, fmt.Errorf("read %s key: %w", kind, err)
	}
	k, err := parse(b)
	if err != nil {
		return zero, fmt.Errorf("parse %s key: %w", kind, err)
	}
	return k, nil
}

// Issue signs a token for userID. Every token gets a fresh jti.
func (p *Provider) Issue(userID, email, role string) (string, error) {
	now := p.now()
	claims := Claims{
		Email: email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id.NewAt(now),
			Issuer:    Issuer,
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(p.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(p.privateKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// verify parses tokenStr and checks signature, issuer, expiry and subject.
func (p *Provider) verify(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return p.publicKey, nil
	}, jwt.WithIssuer(Issuer), jwt.WithExpirationRequired(), jwt.WithTimeFunc(p.now))
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
