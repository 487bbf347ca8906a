package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sandeepkv93/session-auth-service/internal/domain"
	"github.com/sandeepkv93/session-auth-service/internal/repository"
	"github.com/sandeepkv93/session-auth-service/internal/security"
)

// TokenService owns refresh sessions: issuing, resolving and revoking them.
// Refresh does not rotate; the same refresh token stays valid until logout or expiry.
type TokenService struct {
	jwtMgr      *security.JWTManager
	sessionRepo repository.SessionRepository
	hasher      security.PasswordHasher
	refreshTTL  time.Duration
	now         func() time.Time
}

func NewTokenService(jwtMgr *security.JWTManager, sessionRepo repository.SessionRepository, hasher security.PasswordHasher, refreshTTL time.Duration) *TokenService {
	if refreshTTL <= 0 {
		refreshTTL = 30 * 24 * time.Hour
	}
	return &TokenService{
		jwtMgr:      jwtMgr,
		sessionRepo: sessionRepo,
		hasher:      hasher,
		refreshTTL:  refreshTTL,
		now:         time.Now,
	}
}

func (s *TokenService) Issue(ctx context.Context, user *domain.User, ua, ip string) (*TokenPair, error) {
	access, err := s.jwtMgr.SignAccessToken(user.ID, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	secret, err := security.NewRefreshSecret()
	if err != nil {
		return nil, err
	}
	hash, err := s.hasher.Hash(secret)
	if err != nil {
		return nil, fmt.Errorf("hash refresh secret: %w", err)
	}
	session := &domain.Session{
		UserID:      user.ID,
		RefreshHash: hash,
		UserAgent:   truncate(ua, 512),
		IP:          truncate(ip, 64),
		ExpiresAt:   s.now().Add(s.refreshTTL),
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: security.FormatRefreshToken(session.ID, secret),
	}, nil
}

// Resolve returns the active session the refresh token belongs to.
func (s *TokenService) Resolve(ctx context.Context, refreshToken string) (*domain.Session, error) {
	sessionID, secret, err := security.ParseRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrBadToken
	}
	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, ErrInvalidRefresh
		}
		return nil, fmt.Errorf("find session: %w", err)
	}
	if !session.IsActive(s.now()) {
		return nil, ErrInvalidRefresh
	}
	if !s.hasher.Verify(secret, session.RefreshHash) {
		return nil, ErrInvalidRefresh
	}
	return session, nil
}

func (s *TokenService) SignAccess(user *domain.User) (string, error) {
	return s.jwtMgr.SignAccessToken(user.ID, string(user.Role))
}

// Revoke only needs the session id; the secret is not checked.
func (s *TokenService) Revoke(ctx context.Context, refreshToken string) error {
	sessionID, err := security.RefreshTokenSessionID(refreshToken)
	if err != nil {
		return ErrBadToken
	}
	if err := s.sessionRepo.Revoke(ctx, sessionID); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

func truncate(v string, n int) string {
	if len(v) <= n {
		return v
	}
	return v[:n]
}
