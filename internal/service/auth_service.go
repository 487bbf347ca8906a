package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/sandeepkv93/session-auth-service/internal/domain"
	"github.com/sandeepkv93/session-auth-service/internal/observability"
	"github.com/sandeepkv93/session-auth-service/internal/repository"
	"github.com/sandeepkv93/session-auth-service/internal/security"
)

type AuthService struct {
	userRepo      repository.UserRepository
	tokens        *TokenService
	hasher        security.PasswordHasher
	policyEnabled bool
	dummyDigest   string
	tracer        trace.Tracer
}

type AuthOption func(*AuthService)

func WithPasswordPolicy(enabled bool) AuthOption {
	return func(s *AuthService) { s.policyEnabled = enabled }
}

func NewAuthService(userRepo repository.UserRepository, tokens *TokenService, hasher security.PasswordHasher, opts ...AuthOption) (*AuthService, error) {
	// Compared against on unknown emails so both login failures cost one bcrypt.
	dummy, err := hasher.Hash("timing-equalizer-password-0")
	if err != nil {
		return nil, fmt.Errorf("prepare dummy digest: %w", err)
	}
	s := &AuthService{
		userRepo:      userRepo,
		tokens:        tokens,
		hasher:        hasher,
		policyEnabled: true,
		dummyDigest:   dummy,
		tracer:        observability.Tracer("service.auth"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	ctx, span := s.tracer.Start(ctx, "auth.register")
	defer span.End()

	user, err := s.register(ctx, in)
	observability.RecordAuthRegister(ctx, outcome(err))
	endSpan(span, err)
	if err == nil {
		span.SetAttributes(attribute.String("user.role", string(user.Role)))
	}
	return user, err
}

func (s *AuthService) register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	if strings.TrimSpace(in.Email) == "" || in.Password == "" {
		return nil, ErrMissingFields
	}
	role, ok := domain.ParseRole(in.Role)
	if !ok {
		return nil, ErrInvalidRole
	}
	if s.policyEnabled {
		if err := security.CheckPasswordPolicy(in.Password); err != nil {
			return nil, ErrWeakPassword
		}
	}

	if _, err := s.userRepo.FindByEmail(ctx, in.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("lookup email: %w", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		if errors.Is(err, security.ErrPasswordTooLong) {
			return nil, ErrWeakPassword
		}
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &domain.User{Email: in.Email, PasswordHash: hash, Role: role}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (*TokenPair, error) {
	ctx, span := s.tracer.Start(ctx, "auth.login")
	defer span.End()

	pair, err := s.login(ctx, in)
	observability.RecordAuthLogin(ctx, outcome(err))
	endSpan(span, err)
	return pair, err
}

func (s *AuthService) login(ctx context.Context, in LoginInput) (*TokenPair, error) {
	if strings.TrimSpace(in.Email) == "" || in.Password == "" {
		return nil, ErrMissingFields
	}
	user, err := s.userRepo.FindByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.hasher.Verify(in.Password, s.dummyDigest)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if !s.hasher.Verify(in.Password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return s.tokens.Issue(ctx, user, in.UserAgent, in.IP)
}

func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	ctx, span := s.tracer.Start(ctx, "auth.refresh")
	defer span.End()

	access, err := s.refresh(ctx, refreshToken)
	observability.RecordAuthRefresh(ctx, outcome(err))
	endSpan(span, err)
	return access, err
}

func (s *AuthService) refresh(ctx context.Context, refreshToken string) (string, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return "", ErrMissingFields
	}
	session, err := s.tokens.Resolve(ctx, refreshToken)
	if err != nil {
		return "", err
	}
	user, err := s.userRepo.FindByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", ErrInvalidRefresh
		}
		return "", fmt.Errorf("lookup session user: %w", err)
	}
	return s.tokens.SignAccess(user)
}

func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	ctx, span := s.tracer.Start(ctx, "auth.logout")
	defer span.End()

	err := s.logout(ctx, refreshToken)
	observability.RecordAuthLogout(ctx, outcome(err))
	endSpan(span, err)
	return err
}

func (s *AuthService) logout(ctx context.Context, refreshToken string) error {
	if strings.TrimSpace(refreshToken) == "" {
		return ErrMissingFields
	}
	return s.tokens.Revoke(ctx, refreshToken)
}

func (s *AuthService) Me(ctx context.Context, subject string) (*domain.User, error) {
	if subject == "" {
		return nil, ErrUnauthorized
	}
	user, err := s.userRepo.FindByID(ctx, subject)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	return user, nil
}

// outcome is the metric status label for a service result.
func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrMissingFields), errors.Is(err, ErrInvalidRole), errors.Is(err, ErrWeakPassword), errors.Is(err, ErrBadToken):
		return "invalid_request"
	case errors.Is(err, ErrEmailTaken):
		return "conflict"
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrInvalidRefresh), errors.Is(err, ErrInvalidToken):
		return "rejected"
	default:
		return "error"
	}
}

func endSpan(span trace.Span, err error) {
	if err == nil {
		return
	}
	if outcome(err) == "error" {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetAttributes(attribute.String("auth.outcome", outcome(err)))
}
