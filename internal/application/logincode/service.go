package logincode

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/go-auth-code/internal/application/profile"
	"github.com/go-auth-code/internal/domain"
	"github.com/go-auth-code/internal/metrics"
	"github.com/go-auth-code/internal/pkg/id"
	"github.com/go-auth-code/internal/pkg/validate"
	"golang.org/x/crypto/bcrypt"
)

const (
	// DefaultCodeTTL is how long an issued code stays valid.
	DefaultCodeTTL = 10 * time.Minute

	codeMin      = 100000
	codeSpan     = 900000 // codes are drawn from [codeMin, codeMin+codeSpan)
	codeHashCost = 10

	// reapAfter is how long past expiry the store keeps an abandoned code.
	reapAfter = 24 * time.Hour
)

// Verification failures returned to the caller with their message intact.
var (
	ErrNoCode       = domain.Reject(domain.ErrBadRequest, "no code found")
	ErrCodeExpired  = domain.Reject(domain.ErrBadRequest, "code expired")
	ErrCodeInvalid  = domain.Reject(domain.ErrBadRequest, "invalid code")
	ErrUserNotFound = domain.Reject(domain.ErrBadRequest, "user not found, request a new code")
	ErrThrottled    = domain.Reject(domain.ErrTooManyRequests, "too many codes requested, try again later")
)

type SendCodeRequest struct {
	Email string `json:"email" validate:"required"`
	Role  string `json:"role"`
	Ref   string `json:"ref"`
}

type SendCodeResult struct {
	Code      string
	ExpiresAt int64 // Unix milliseconds
}

type VerifyCodeRequest struct {
	Email string `json:"email" validate:"required"`
	Code  string `json:"code" validate:"required"`
	Role  string `json:"role"`
	Ref   string `json:"ref"`
}

type VerifyCodeResult struct {
	UserID  string
	RoleSet string
	Token   string
}

type Service interface {
	SendCode(ctx context.Context, req SendCodeRequest) (*SendCodeResult, error)
	VerifyCode(ctx context.Context, req VerifyCodeRequest) (*VerifyCodeResult, error)
}

type codeStore interface {
	Put(ctx context.Context, c *domain.LoginCode) error
	Get(ctx context.Context, email string) (*domain.LoginCode, error)
	Consume(ctx context.Context, email, codeHash string) error
}

type identityStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.Identity, error)
	Create(ctx context.Context, id *domain.Identity) error
}

type tokenIssuer interface {
	Issue(userID, email, role string) (string, error)
}

type sendThrottle interface {
	Allow(ctx context.Context, email string) (bool, error)
}

type service struct {
	codes      codeStore
	identities identityStore
	profiles   profile.Service
	tokens     tokenIssuer
	throttle   sendThrottle
	codeTTL    time.Duration
	devMode    bool
	now        func() time.Time
}

// ServiceDeps wires the service. Tokens and Throttle are optional: without
// Tokens a placeholder token is issued, without Throttle send-code is unlimited.
type ServiceDeps struct {
	CodeRepo     codeStore
	IdentityRepo identityStore
	Profiles     profile.Service
	Tokens       tokenIssuer
	Throttle     sendThrottle
	CodeTTL      time.Duration
	DevMode      bool
	Now          func() time.Time
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		codes:      deps.CodeRepo,
		identities: deps.IdentityRepo,
		profiles:   deps.Profiles,
		tokens:     deps.Tokens,
		throttle:   deps.Throttle,
		codeTTL:    deps.CodeTTL,
		devMode:    deps.DevMode,
		now:        deps.Now,
	}
	if s.codeTTL <= 0 {
		s.codeTTL = DefaultCodeTTL
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.tokens == nil {
		s.tokens = placeholderIssuer{now: s.now}
	}
	return s
}

func (s *service) SendCode(ctx context.Context, req SendCodeRequest) (*SendCodeResult, error) {
	req.Email = normalizeEmail(req.Email)
	req.Role = roleOrDefault(req.Role)
	req.Ref = strings.TrimSpace(req.Ref)
	if err := validate.Struct(&req); err != nil {
		return nil, domain.Reject(domain.ErrBadRequest, err.Error())
	}

	if s.throttle != nil {
		allowed, err := s.throttle.Allow(ctx, req.Email)
		if err != nil {
			slog.WarnContext(ctx, "send throttle unavailable, allowing", "err", err)
			metrics.BestEffortFailuresTotal.WithLabelValues("throttle").Inc()
		}
		if !allowed {
			metrics.SendThrottledTotal.Inc()
			return nil, ErrThrottled
		}
	}

	if _, err := s.resolveIdentity(ctx, req.Email); err != nil {
		return nil, err
	}

	code, err := generateCode()
	if err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), codeHashCost)
	if err != nil {
		return nil, fmt.Errorf("hash code: %w", err)
	}

	now := s.now()
	expiresAt := now.Add(s.codeTTL)
	lc := &domain.LoginCode{
		Email:     req.Email,
		CodeHash:  string(hash),
		Role:      req.Role,
		Ref:       req.Ref,
		ExpiresAt: expiresAt.UnixMilli(),
		CreatedAt: now.UnixMilli(),
		TTL:       expiresAt.Add(reapAfter).Unix(),
	}
	// One write keyed by email replaces any earlier code for this address.
	if err := s.codes.Put(ctx, lc); err != nil {
		return nil, fmt.Errorf("store login code: %w", err)
	}
	metrics.CodesIssuedTotal.Inc()

	if s.devMode {
		slog.DebugContext(ctx, "login code issued", "email", req.Email, "code", code, "role", req.Role)
	}
	return &SendCodeResult{Code: code, ExpiresAt: lc.ExpiresAt}, nil
}

func (s *service) VerifyCode(ctx context.Context, req VerifyCodeRequest) (*VerifyCodeResult, error) {
	req.Email = normalizeEmail(req.Email)
	req.Code = strings.TrimSpace(req.Code)
	req.Role = roleOrDefault(req.Role)
	req.Ref = strings.TrimSpace(req.Ref)
	if err := validate.Struct(&req); err != nil {
		return nil, domain.Reject(domain.ErrBadRequest, err.Error())
	}

	res, outcome, err := s.verify(ctx, req)
	metrics.VerificationsTotal.WithLabelValues(outcome).Inc()
	return res, err
}

func (s *service) verify(ctx context.Context, req VerifyCodeRequest) (*VerifyCodeResult, string, error) {
	lc, err := s.codes.Get(ctx, req.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, metrics.OutcomeNoCode, ErrNoCode
		}
		return nil, metrics.OutcomeError, fmt.Errorf("load login code: %w", err)
	}
	// Expired codes stay in place until the next send-code replaces them.
	if lc.Expired(s.now().UnixMilli()) {
		return nil, metrics.OutcomeExpired, ErrCodeExpired
	}
	if err := bcrypt.CompareHashAndPassword([]byte(lc.CodeHash), []byte(req.Code)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, metrics.OutcomeInvalid, ErrCodeInvalid
		}
		return nil, metrics.OutcomeError, fmt.Errorf("compare code: %w", err)
	}

	ident, err := s.identities.GetByEmail(ctx, req.Email)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			slog.WarnContext(ctx, "identity lookup failed", "email", req.Email, "err", err)
			metrics.BestEffortFailuresTotal.WithLabelValues("identity_lookup").Inc()
		}
		return nil, metrics.OutcomeUserNotFound, ErrUserNotFound
	}

	if _, err := s.profiles.Apply(ctx, profile.ApplyInput{
		UserID: ident.UserID,
		Email:  req.Email,
		Role:   req.Role,
		Ref:    req.Ref,
	}); err != nil {
		return nil, metrics.OutcomeError, fmt.Errorf("apply profile: %w", err)
	}

	s.consume(ctx, lc)

	token, err := s.tokens.Issue(ident.UserID, req.Email, req.Role)
	if err != nil {
		return nil, metrics.OutcomeError, fmt.Errorf("issue token: %w", err)
	}
	return &VerifyCodeResult{UserID: ident.UserID, RoleSet: req.Role, Token: token}, metrics.OutcomeVerified, nil
}

// resolveIdentity returns the identity for email, creating it on first use.
// Lookup failures other than not-found are logged and treated as absent; the
// conditional create then returns the existing record if there was one.
func (s *service) resolveIdentity(ctx context.Context, email string) (*domain.Identity, error) {
	ident, err := s.identities.GetByEmail(ctx, email)
	if err == nil {
		return ident, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		slog.WarnContext(ctx, "identity lookup failed, creating", "email", email, "err", err)
		metrics.BestEffortFailuresTotal.WithLabelValues("identity_lookup").Inc()
	}

	ident = &domain.Identity{Email: email, UserID: id.NewAt(s.now()), CreatedAt: s.now().UnixMilli()}
	err = s.identities.Create(ctx, ident)
	if err == nil {
		metrics.IdentitiesCreatedTotal.Inc()
		return ident, nil
	}
	if !errors.Is(err, domain.ErrConflict) {
		return nil, fmt.Errorf("create identity: %w", err)
	}
	existing, err := s.identities.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("load identity: %w", err)
	}
	return existing, nil
}

// consume deletes the verified code. Failure only leaves the code reusable
// until the next send-code, so it is logged rather than returned.
func (s *service) consume(ctx context.Context, lc *domain.LoginCode) {
	err := s.codes.Consume(ctx, lc.Email, lc.CodeHash)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrConflict):
		slog.InfoContext(ctx, "login code already consumed or replaced", "email", lc.Email)
	default:
		slog.WarnContext(ctx, "failed to delete login code", "email", lc.Email, "err", err)
		metrics.BestEffortFailuresTotal.WithLabelValues("code_delete").Inc()
	}
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeSpan))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return strconv.FormatInt(n.Int64()+codeMin, 10), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func roleOrDefault(role string) string {
	role = strings.TrimSpace(role)
	if role == "" {
		return domain.DefaultRole
	}
	return role
}

// placeholderIssuer produces the unsigned "ok-<user>-<millis>" token used when
// no signing key is configured. It is not a credential.
type placeholderIssuer struct {
	now func() time.Time
}

func (p placeholderIssuer) Issue(userID, _, _ string) (string, error) {
	return "ok-" + userID + "-" + strconv.FormatInt(p.now().UnixMilli(), 10), nil
}
