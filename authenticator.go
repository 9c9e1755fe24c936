package accounts

import (
	"context"

	"github.com/goliatone/go-errors"
)

// Auther issues and validates session tokens for verified identities.
type Auther struct {
	provider IdentityProvider
	tokens   *TokenService
	sink     ActivitySink
	logger   Logger
}

// NewAuthenticator returns a new Authenticator backed by the session signing
// key from opts.
func NewAuthenticator(provider IdentityProvider, opts Config) *Auther {
	tokens := NewTokenService(
		[]byte(opts.GetSessionSigningKey()),
		opts.GetSessionTokenTTL(),
		opts.GetIssuer(),
		defLogger{},
	)

	return &Auther{
		provider: provider,
		tokens:   tokens,
		sink:     noopActivitySink{},
		logger:   defLogger{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func (s *Auther) WithActivitySink(sink ActivitySink) *Auther {
	s.sink = normalizeActivitySink(sink)
	return s
}

// TokenService returns the session TokenService used by this Authenticator
func (s *Auther) TokenService() *TokenService {
	return s.tokens
}

// Login verifies the credentials and mints a session token. Unknown user,
// wrong password, and locked account all surface as ErrInvalidCredentials
// so callers cannot tell them apart.
func (s *Auther) Login(ctx context.Context, identifier, password string) (string, error) {
	identity, err := s.verify(ctx, identifier, password)
	if err != nil {
		return "", err
	}

	token, err := s.tokens.IssueSessionToken(identity)
	if err != nil {
		s.logger.Error("Login failed to issue session token: %v", err)
		return "", err
	}

	recordActivity(ctx, s.sink, s.logger, ActivityEvent{
		EventType: ActivityEventLoginSuccess,
		Actor:     ActorRef{ID: identity.ID(), Type: "user"},
		UserID:    identity.ID(),
		Metadata:  map[string]any{"identifier": identifier},
	})

	return token, nil
}

// LoginProfile verifies the credentials and returns the public identity
// projection with a fresh session token attached.
func (s *Auther) LoginProfile(ctx context.Context, identifier, password string) (*PublicUser, error) {
	identity, err := s.verify(ctx, identifier, password)
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.IssueSessionToken(identity)
	if err != nil {
		return nil, err
	}

	recordActivity(ctx, s.sink, s.logger, ActivityEvent{
		EventType: ActivityEventLoginSuccess,
		Actor:     ActorRef{ID: identity.ID(), Type: "user"},
		UserID:    identity.ID(),
		Metadata:  map[string]any{"identifier": identifier},
	})

	if carrier, ok := identity.(recordCarrier); ok {
		return carrier.Record().Public(token), nil
	}

	return &PublicUser{
		ID:       identity.ID(),
		Username: identity.Username(),
		Email:    identity.Email(),
		Token:    token,
	}, nil
}

// SessionFromToken validates a raw session token and maps its claims.
func (s *Auther) SessionFromToken(raw string) (Session, error) {
	claims, err := s.tokens.ValidateSession(raw)
	if err != nil {
		s.logger.Error("SessionFromToken validation failed: %v", err)
		return nil, err
	}

	session, err := sessionFromClaims(claims)
	if err != nil {
		s.logger.Error("SessionFromToken failed to create session from claims: %v", err)
		return nil, err
	}

	return session, nil
}

// IdentityFromSession resolves the identity behind a session and rejects
// sessions whose secret snapshot no longer matches the stored per user
// secret. This is what turns a secret rotation into a fleet wide session
// revocation for that account.
func (s *Auther) IdentityFromSession(ctx context.Context, session Session) (Identity, error) {
	identity, err := s.provider.FindIdentityByIdentifier(ctx, session.GetUserID())
	if err != nil {
		s.logger.Error("IdentityFromSession find identity by identifier: %v", err)
		return nil, err
	}

	if identity.Secret() != session.GetSecret() {
		return nil, ErrSessionRevoked
	}

	return identity, nil
}

func (s *Auther) verify(ctx context.Context, identifier, password string) (Identity, error) {
	identity, err := s.provider.VerifyIdentity(ctx, identifier, password)
	if err != nil {
		s.logger.Error("Login verify identity error: %v", err)
		recordActivity(ctx, s.sink, s.logger, ActivityEvent{
			EventType: ActivityEventLoginFailure,
			Actor:     ActorRef{Type: "unknown"},
			Metadata: map[string]any{
				"identifier": identifier,
				"error":      err.Error(),
			},
		})

		if errors.Is(err, ErrAccountLocked) ||
			errors.Is(err, ErrMismatchedHashAndPassword) ||
			errors.Is(err, ErrInvalidCredentials) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if identity == nil {
		return nil, ErrInvalidCredentials
	}

	return identity, nil
}

var _ Authenticator = (*Auther)(nil)
