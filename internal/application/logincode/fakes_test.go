package logincode

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-auth-code/internal/domain"
)

// memCodes mirrors LoginCodeRepo: one code per email, conditional consume.
type memCodes struct {
	mu     sync.Mutex
	items  map[string]domain.LoginCode
	putErr error
	delErr error
}

func newMemCodes() *memCodes { return &memCodes{items: map[string]domain.LoginCode{}} }

func (m *memCodes) Put(_ context.Context, c *domain.LoginCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return m.putErr
	}
	m.items[c.Email] = *c
	return nil
}

func (m *memCodes) Get(_ context.Context, email string) (*domain.LoginCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.items[email]
	if !ok {
		return nil, fmt.Errorf("login code not found: %w", domain.ErrNotFound)
	}
	return &c, nil
}

func (m *memCodes) Consume(_ context.Context, email, codeHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.delErr != nil {
		return m.delErr
	}
	c, ok := m.items[email]
	if !ok || c.CodeHash != codeHash {
		return fmt.Errorf("condition failed: %w", domain.ErrConflict)
	}
	delete(m.items, email)
	return nil
}

// replacedBeforeConsume stores replacement just before the first Consume, as a
// concurrent send-code landing between verify's read and delete would.
type replacedBeforeConsume struct {
	*memCodes
	replacement *domain.LoginCode
	replaced    bool
}

func (r *replacedBeforeConsume) Consume(ctx context.Context, email, codeHash string) error {
	if !r.replaced {
		r.replaced = true
		if err := r.memCodes.Put(ctx, r.replacement); err != nil {
			return err
		}
	}
	return r.memCodes.Consume(ctx, email, codeHash)
}

// memIdentities mirrors IdentityRepo: conditional create keyed by email.
type memIdentities struct {
	mu      sync.Mutex
	items   map[string]domain.Identity
	creates int
	getErr  error
}

func newMemIdentities() *memIdentities { return &memIdentities{items: map[string]domain.Identity{}} }

func (m *memIdentities) GetByEmail(_ context.Context, email string) (*domain.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	id, ok := m.items[email]
	if !ok {
		return nil, fmt.Errorf("identity not found: %w", domain.ErrNotFound)
	}
	return &id, nil
}

func (m *memIdentities) Create(_ context.Context, id *domain.Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id.Email]; ok {
		return fmt.Errorf("condition failed: %w", domain.ErrConflict)
	}
	m.items[id.Email] = *id
	m.creates++
	return nil
}

// memProfiles mirrors ProfileRepo semantics for both role policies.
type memProfiles struct {
	mu    sync.Mutex
	items map[string]domain.UserProfile
}

func newMemProfiles() *memProfiles { return &memProfiles{items: map[string]domain.UserProfile{}} }

func (m *memProfiles) Get(_ context.Context, userID string) (*domain.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[userID]
	if !ok {
		return nil, fmt.Errorf("profile not found: %w", domain.ErrNotFound)
	}
	return &p, nil
}

func (m *memProfiles) Upsert(_ context.Context, p *domain.UserProfile) (*domain.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.items[p.UserID]
	if !ok {
		cur = domain.UserProfile{UserID: p.UserID, CreatedAt: p.CreatedAt}
	}
	cur.Email = p.Email
	cur.Roles = p.Roles
	cur.UpdatedAt = p.UpdatedAt
	if p.Ref != "" {
		cur.Ref = p.Ref
	}
	cur.Version++
	m.items[p.UserID] = cur
	out := cur
	return &out, nil
}

func (m *memProfiles) PutVersioned(_ context.Context, p *domain.UserProfile, expected int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.items[p.UserID]
	if (!ok && expected != 0) || (ok && cur.Version != expected) {
		return fmt.Errorf("condition failed: %w", domain.ErrConflict)
	}
	p.Version = expected + 1
	m.items[p.UserID] = *p
	return nil
}

func (m *memProfiles) roles(userID string) domain.Roles {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, _ := domain.DecodeRoles(m.items[userID].Roles)
	return r
}

// stubThrottle returns a fixed decision.
type stubThrottle struct {
	allowed bool
	err     error
	calls   int
}

func (s *stubThrottle) Allow(context.Context, string) (bool, error) {
	s.calls++
	return s.allowed, s.err
}

type stubIssuer struct{}

func (stubIssuer) Issue(userID, email, role string) (string, error) {
	return "signed:" + userID + ":" + email + ":" + role, nil
}
