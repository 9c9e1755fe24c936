package accounts_test

import (
	"context"
	"fmt"
	"time"

	accounts "github.com/goliatone/go-accounts"
	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

func notFoundErr() error {
	return goerrors.New("user not found", goerrors.CategoryNotFound).
		WithCode(goerrors.CodeNotFound)
}

// testConfig implements accounts.Config
type testConfig struct {
	sessionKey  string
	actionKey   string
	issuer      string
	sessionTTL  time.Duration
	actionTTL   time.Duration
	maxAttempts int
	secretLen   int
	unblockURL  string
}

func newTestConfig() testConfig {
	return testConfig{
		sessionKey: "session-signing-key",
		actionKey:  "action-signing-key",
		issuer:     "go-accounts-test",
		sessionTTL: 72 * time.Hour,
		actionTTL:  time.Hour,
		secretLen:  16,
		unblockURL: "http://localhost:3000/unblock",
	}
}

func (c testConfig) GetSessionSigningKey() string       { return c.sessionKey }
func (c testConfig) GetActionSigningKey() string        { return c.actionKey }
func (c testConfig) GetIssuer() string                  { return c.issuer }
func (c testConfig) GetSessionTokenTTL() time.Duration  { return c.sessionTTL }
func (c testConfig) GetActionTokenTTL() time.Duration   { return c.actionTTL }
func (c testConfig) GetMaxLoginAttempts() int           { return c.maxAttempts }
func (c testConfig) GetSecretLength() int               { return c.secretLen }
func (c testConfig) GetUnblockAccountURL() string       { return c.unblockURL }

// TestIdentity implements accounts.Identity
type TestIdentity struct {
	id       string
	username string
	email    string
	secret   string
}

func (t TestIdentity) ID() string       { return t.id }
func (t TestIdentity) Username() string { return t.username }
func (t TestIdentity) Email() string    { return t.email }
func (t TestIdentity) Secret() string   { return t.secret }

// MockUserTracker implements accounts.UserTracker
type MockUserTracker struct {
	mock.Mock
}

func (m *MockUserTracker) GetByIdentifier(ctx context.Context, identifier string, _ ...repository.SelectCriteria) (*accounts.User, error) {
	args := m.Called(ctx, identifier)
	if u := args.Get(0); u != nil {
		return u.(*accounts.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserTracker) TrackAttemptedLogin(ctx context.Context, user *accounts.User) (*accounts.User, error) {
	args := m.Called(ctx, user)
	if u := args.Get(0); u != nil {
		return u.(*accounts.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserTracker) TrackSuccessfulLogin(ctx context.Context, user *accounts.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// MockAccountStore implements accounts.AccountStore
type MockAccountStore struct {
	mock.Mock
}

func (m *MockAccountStore) GetByUsername(ctx context.Context, username string) (*accounts.User, error) {
	args := m.Called(ctx, username)
	if u := args.Get(0); u != nil {
		return u.(*accounts.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccountStore) GetByEmail(ctx context.Context, email string) (*accounts.User, error) {
	args := m.Called(ctx, email)
	if u := args.Get(0); u != nil {
		return u.(*accounts.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccountStore) GetBySecret(ctx context.Context, secret string) (*accounts.User, error) {
	args := m.Called(ctx, secret)
	if u := args.Get(0); u != nil {
		return u.(*accounts.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccountStore) Register(ctx context.Context, user *accounts.User) (*accounts.User, error) {
	args := m.Called(ctx, user)
	if u := args.Get(0); u != nil {
		return u.(*accounts.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccountStore) RotateSecret(ctx context.Context, id uuid.UUID, passwordHash, secret string) (*accounts.User, error) {
	args := m.Called(ctx, id, passwordHash, secret)
	if u := args.Get(0); u != nil {
		return u.(*accounts.User), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockIdentityProvider implements accounts.IdentityProvider
type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) VerifyIdentity(ctx context.Context, identifier, password string) (accounts.Identity, error) {
	args := m.Called(ctx, identifier, password)
	if id := args.Get(0); id != nil {
		return id.(accounts.Identity), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockIdentityProvider) FindIdentityByIdentifier(ctx context.Context, identifier string) (accounts.Identity, error) {
	args := m.Called(ctx, identifier)
	if id := args.Get(0); id != nil {
		return id.(accounts.Identity), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockMailer implements accounts.Mailer
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendEmailVerification(ctx context.Context, email, verificationURL string) error {
	args := m.Called(ctx, email, verificationURL)
	return args.Error(0)
}

func (m *MockMailer) SendBlockedAccountNotice(ctx context.Context, email, unblockURL string) error {
	args := m.Called(ctx, email, unblockURL)
	return args.Error(0)
}

// fakeHasher is a cheap deterministic PasswordAuthenticator so provider and
// lifecycle tests can skip bcrypt work. compares counts how many times a
// hash comparison actually ran.
type fakeHasher struct {
	compares int
}

func (f *fakeHasher) HashPassword(password, secret string) (string, error) {
	if password == "" {
		return "", accounts.ErrNoEmptyString
	}
	return fakeHash(password, secret), nil
}

func (f *fakeHasher) ComparePasswordAndHash(password, secret, hash string) error {
	f.compares++
	if fakeHash(password, secret) != hash {
		return accounts.ErrMismatchedHashAndPassword
	}
	return nil
}

func fakeHash(password, secret string) string {
	return fmt.Sprintf("hashed(%s|%s)", password, secret)
}

// capturingSink records activity events for assertions.
type capturingSink struct {
	events []accounts.ActivityEvent
}

func (c *capturingSink) Record(ctx context.Context, evt accounts.ActivityEvent) error {
	c.events = append(c.events, evt)
	return nil
}

func (c *capturingSink) byType(t accounts.ActivityEventType) []accounts.ActivityEvent {
	var out []accounts.ActivityEvent
	for _, evt := range c.events {
		if evt.EventType == t {
			out = append(out, evt)
		}
	}
	return out
}

// fakeTracker is an in-memory UserTracker for sequential lockout scenarios.
type fakeTracker struct {
	user *accounts.User
}

func (f *fakeTracker) GetByIdentifier(ctx context.Context, identifier string, _ ...repository.SelectCriteria) (*accounts.User, error) {
	if f.user == nil || (f.user.Username != identifier && f.user.Email != identifier) {
		return nil, notFoundErr()
	}
	clone := *f.user
	return &clone, nil
}

func (f *fakeTracker) TrackAttemptedLogin(ctx context.Context, user *accounts.User) (*accounts.User, error) {
	f.user.LoginAttempts++
	now := time.Now()
	f.user.LoginAttemptAt = &now
	clone := *f.user
	return &clone, nil
}

func (f *fakeTracker) TrackSuccessfulLogin(ctx context.Context, user *accounts.User) error {
	f.user.LoginAttempts = 0
	now := time.Now()
	f.user.LoggedInAt = &now
	return nil
}
