package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-auth-code/internal/config"
	"github.com/go-auth-code/internal/domain"
)

// maxMergeAttempts bounds optimistic retries when concurrent logins race on one profile.
const maxMergeAttempts = 3

// ApplyInput describes a verified login to record on the user's profile.
type ApplyInput struct {
	UserID string
	Email  string
	Role   string
	Ref    string
}

type Service interface {
	Apply(ctx context.Context, in ApplyInput) (*domain.UserProfile, error)
}

type profileStore interface {
	Get(ctx context.Context, userID string) (*domain.UserProfile, error)
	Upsert(ctx context.Context, p *domain.UserProfile) (*domain.UserProfile, error)
	PutVersioned(ctx context.Context, p *domain.UserProfile, expected int64) error
}

type service struct {
	repo   profileStore
	policy string
	now    func() time.Time
}

type ServiceDeps struct {
	Repo   profileStore
	Policy string // config.RolePolicyOverwrite or config.RolePolicyMerge
	Now    func() time.Time
}

func NewService(deps ServiceDeps) Service {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	policy := deps.Policy
	if policy == "" {
		policy = config.RolePolicyOverwrite
	}
	return &service{repo: deps.Repo, policy: policy, now: now}
}

// Apply grants in.Role on the profile keyed by in.UserID, creating it if needed.
// Under the overwrite policy the stored flags are replaced by a fresh set that
// only has in.Role; under merge the new flag is added to the stored ones.
func (s *service) Apply(ctx context.Context, in ApplyInput) (*domain.UserProfile, error) {
	if s.policy == config.RolePolicyMerge {
		return s.merge(ctx, in)
	}
	return s.overwrite(ctx, in)
}

func (s *service) overwrite(ctx context.Context, in ApplyInput) (*domain.UserProfile, error) {
	roles, err := domain.RolesFor(in.Role).Encode()
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	return s.repo.Upsert(ctx, &domain.UserProfile{
		UserID:    in.UserID,
		Email:     in.Email,
		Roles:     roles,
		Ref:       in.Ref,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (s *service) merge(ctx context.Context, in ApplyInput) (*domain.UserProfile, error) {
	for attempt := 1; attempt <= maxMergeAttempts; attempt++ {
		p, expected, err := s.load(ctx, in.UserID)
		if err != nil {
			return nil, err
		}
		roles, err := domain.DecodeRoles(p.Roles)
		if err != nil {
			slog.WarnContext(ctx, "stored roles unreadable, starting fresh", "user_id", in.UserID, "err", err)
			roles = domain.Roles{}
		}
		roles.Merge(domain.RolesFor(in.Role))
		if p.Roles, err = roles.Encode(); err != nil {
			return nil, err
		}
		p.Email = in.Email
		if in.Ref != "" {
			p.Ref = in.Ref
		}
		p.UpdatedAt = s.now().UTC()

		err = s.repo.PutVersioned(ctx, p, expected)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, domain.ErrConflict) {
			return nil, fmt.Errorf("save profile: %w", err)
		}
		slog.DebugContext(ctx, "profile version conflict, retrying", "user_id", in.UserID, "attempt", attempt)
	}
	return nil, fmt.Errorf("profile %s updated concurrently: %w", in.UserID, domain.ErrConflict)
}

// load returns the stored profile and its version, or a fresh profile with version 0.
func (s *service) load(ctx context.Context, userID string) (*domain.UserProfile, int64, error) {
	p, err := s.repo.Get(ctx, userID)
	if err == nil {
		return p, p.Version, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, 0, fmt.Errorf("load profile: %w", err)
	}
	return &domain.UserProfile{UserID: userID, CreatedAt: s.now().UTC()}, 0, nil
}
