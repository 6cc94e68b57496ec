package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/layer-3/flowkey/core"
	"github.com/layer-3/flowkey/metrics"
	"github.com/layer-3/flowkey/ports"
)

// AuthService runs the challenge, verify and session check protocol
type AuthService struct {
	nonces     ports.NonceStore
	verifier   ports.Verifier
	tokenizer  ports.Tokenizer
	revocation ports.RevocationStore
	eventPub   ports.EventPublisher
	metrics    *metrics.Metrics
	logger     *zap.Logger

	sessionTTL time.Duration
	now        func() time.Time
}

// Option customizes an AuthService
type Option func(*AuthService)

// WithSessionTTL sets how long issued session tokens stay valid
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *AuthService) { s.sessionTTL = ttl }
}

// WithClock replaces the time source
func WithClock(now func() time.Time) Option {
	return func(s *AuthService) { s.now = now }
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *AuthService) { s.logger = logger }
}

// NewAuthService creates a new authentication service
func NewAuthService(
	nonces ports.NonceStore,
	verifier ports.Verifier,
	tokenizer ports.Tokenizer,
	revocation ports.RevocationStore,
	eventPub ports.EventPublisher,
	m *metrics.Metrics,
	opts ...Option,
) *AuthService {
	s := &AuthService{
		nonces:     nonces,
		verifier:   verifier,
		tokenizer:  tokenizer,
		revocation: revocation,
		eventPub:   eventPub,
		metrics:    m,
		logger:     zap.NewNop(),
		sessionTTL: time.Hour,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("auth")
	return s
}

// SessionTTL reports the lifetime of issued tokens
func (s *AuthService) SessionTTL() time.Duration {
	return s.sessionTTL
}

// Challenge records a fresh nonce for address and returns it
func (s *AuthService) Challenge(ctx context.Context, address string) (core.Nonce, error) {
	if address == "" {
		return core.Nonce{}, fmt.Errorf("missing address: %w", core.ErrBadRequest)
	}
	if !s.verifier.ValidAddress(address) {
		return core.Nonce{}, core.ErrInvalidAddress
	}

	nonce, err := s.nonces.Issue(ctx, address)
	if err != nil {
		return core.Nonce{}, fmt.Errorf("failed to issue nonce: %w", err)
	}

	s.metrics.ChallengesIssued.Inc()
	s.logger.Debug("challenge issued", zap.String("address", address), zap.Time("expires_at", nonce.ExpiresAt))

	return nonce, nil
}

// Verify checks signature against the outstanding nonce for address and
// exchanges it for a session token. The nonce is consumed whatever the outcome.
func (s *AuthService) Verify(ctx context.Context, address, signature string) (string, error) {
	if address == "" || signature == "" {
		return "", fmt.Errorf("missing address or signature: %w", core.ErrBadRequest)
	}

	nonce, err := s.nonces.Take(ctx, address)
	if err != nil {
		if errors.Is(err, core.ErrNoChallengePending) {
			s.metrics.Verifications.WithLabelValues("no_challenge").Inc()
		}
		return "", err
	}

	if !s.verifier.Verify(address, signature, nonce.Value) {
		s.metrics.Verifications.WithLabelValues("invalid_signature").Inc()
		s.logger.Info("signature rejected", zap.String("address", address))
		return "", core.ErrInvalidSignature
	}

	now := s.now()
	session := &core.Session{
		ID:        uuid.New().String(),
		Address:   address,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.sessionTTL),
	}

	token, err := s.tokenizer.SessionToToken(session)
	if err != nil {
		return "", fmt.Errorf("failed to create session token: %w", err)
	}

	s.metrics.Verifications.WithLabelValues("ok").Inc()
	s.logger.Info("session issued", zap.String("address", address), zap.String("token_id", session.ID))

	if err := s.eventPub.PublishLogin(ctx, address, session.ID); err != nil {
		s.logger.Warn("failed to publish login event", zap.Error(err))
	}

	return token, nil
}

// Authenticate validates a bearer token and returns the session it carries
func (s *AuthService) Authenticate(ctx context.Context, token string) (*core.Session, error) {
	if token == "" {
		s.metrics.SessionChecks.WithLabelValues("missing").Inc()
		return nil, core.ErrUnauthorized
	}

	session, err := s.tokenizer.TokenToSession(token)
	if err != nil {
		result := "invalid"
		if errors.Is(err, core.ErrTokenExpired) {
			result = "expired"
		}
		s.metrics.SessionChecks.WithLabelValues(result).Inc()
		return nil, fmt.Errorf("%w: %w", core.ErrUnauthorized, err)
	}

	if session.ID != "" {
		revoked, err := s.revocation.IsTokenInvalidated(ctx, session.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check token invalidation: %w", err)
		}
		if revoked {
			s.metrics.SessionChecks.WithLabelValues("revoked").Inc()
			return nil, fmt.Errorf("%w: %w", core.ErrUnauthorized, core.ErrTokenRevoked)
		}
	}

	s.metrics.SessionChecks.WithLabelValues("ok").Inc()
	return session, nil
}

// Logout revokes the presented token for the rest of its lifetime
func (s *AuthService) Logout(ctx context.Context, token string) error {
	session, err := s.Authenticate(ctx, token)
	if err != nil {
		return err
	}
	if session.ID == "" {
		return fmt.Errorf("token without id cannot be revoked: %w", core.ErrInvalidToken)
	}

	remaining := session.ExpiresAt.Sub(s.now())
	if err := s.revocation.InvalidateToken(ctx, session.ID, remaining); err != nil {
		return fmt.Errorf("failed to invalidate token: %w", err)
	}

	s.metrics.Logouts.Inc()
	s.logger.Info("session revoked", zap.String("address", session.Address), zap.String("token_id", session.ID))

	// The token is already revoked, a lost event only delays other instances
	if err := s.eventPub.PublishLogout(ctx, session.Address, session.ID); err != nil {
		s.logger.Warn("failed to publish logout event", zap.Error(err))
	}

	return nil
}
