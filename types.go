package accounts

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Identity holds the attributes of an authenticated identity. Secret exposes
// the per user secret snapshot embedded in session tokens.
type Identity interface {
	ID() string
	Username() string
	Email() string
	Secret() string
}

// Session holds attributes that are part of an auth session
type Session interface {
	GetUserID() string
	GetUserUUID() (uuid.UUID, error)
	GetEmail() string
	GetSecret() string
	GetIssuer() string
	GetIssuedAt() *time.Time
}

// Authenticator holds methods to deal with authentication
type Authenticator interface {
	Login(ctx context.Context, identifier, password string) (string, error)
	LoginProfile(ctx context.Context, identifier, password string) (*PublicUser, error)
	SessionFromToken(token string) (Session, error)
	IdentityFromSession(ctx context.Context, session Session) (Identity, error)
}

// IdentityProvider ensure we have a store to retrieve auth identity
type IdentityProvider interface {
	VerifyIdentity(ctx context.Context, identifier, password string) (Identity, error)
	FindIdentityByIdentifier(ctx context.Context, identifier string) (Identity, error)
}

// PasswordAuthenticator hashes and verifies secret-mixed passwords
type PasswordAuthenticator interface {
	HashPassword(password, secret string) (string, error)
	ComparePasswordAndHash(password, secret, hash string) error
}

// Mailer delivers lifecycle notifications. Dispatch is best-effort: a failed
// send never rolls back the state change that triggered it.
type Mailer interface {
	SendEmailVerification(ctx context.Context, email, verificationURL string) error
	SendBlockedAccountNotice(ctx context.Context, email, unblockURL string) error
}

// Config holds accounts options
type Config interface {
	GetSessionSigningKey() string
	GetActionSigningKey() string
	GetIssuer() string
	GetSessionTokenTTL() time.Duration
	GetActionTokenTTL() time.Duration
	GetMaxLoginAttempts() int
	GetSecretLength() int
	GetUnblockAccountURL() string
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] ACCOUNTS "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] ACCOUNTS "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] ACCOUNTS "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] ACCOUNTS "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}

type logMailer struct {
	logger Logger
}

func (m logMailer) SendEmailVerification(_ context.Context, email, verificationURL string) error {
	m.logger.Info("email verification for %s: %s", email, verificationURL)
	return nil
}

func (m logMailer) SendBlockedAccountNotice(_ context.Context, email, unblockURL string) error {
	m.logger.Info("blocked account notice for %s: %s", email, unblockURL)
	return nil
}

func normalizeMailer(m Mailer, logger Logger) Mailer {
	if m == nil {
		return logMailer{logger: logger}
	}
	return m
}
