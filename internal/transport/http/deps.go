package http

import (
	"context"

	"github.com/go-auth-code/internal/domain"
)

// LoginCodeRepository is the minimal interface the router requires from a login-code store.
type LoginCodeRepository interface {
	Put(ctx context.Context, c *domain.LoginCode) error
	Get(ctx context.Context, email string) (*domain.LoginCode, error)
	Consume(ctx context.Context, email, codeHash string) error
}

// IdentityRepository is the minimal interface the router requires from an identity store.
type IdentityRepository interface {
	GetByEmail(ctx context.Context, email string) (*domain.Identity, error)
	Create(ctx context.Context, id *domain.Identity) error
}

// ProfileRepository is the minimal interface the router requires from a profile store.
type ProfileRepository interface {
	Get(ctx context.Context, userID string) (*domain.UserProfile, error)
	Upsert(ctx context.Context, p *domain.UserProfile) (*domain.UserProfile, error)
	PutVersioned(ctx context.Context, p *domain.UserProfile, expected int64) error
}

// TokenIssuer signs session tokens for verified logins.
type TokenIssuer interface {
	Issue(userID, email, role string) (string, error)
}

// SendThrottle caps send-code requests per email.
type SendThrottle interface {
	Allow(ctx context.Context, email string) (bool, error)
}

// Deps holds all infrastructure dependencies for the router.
// Tokens and Throttle are optional and must be left nil when not configured.
type Deps struct {
	CodeRepo     LoginCodeRepository
	IdentityRepo IdentityRepository
	ProfileRepo  ProfileRepository
	Tokens       TokenIssuer
	Throttle     SendThrottle
}
