package accounts

import (
	"context"
	"fmt"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

// UserTracker is a store we can use to retrieve users and track login
// attempts. TrackAttemptedLogin must increment and return the record in one
// atomic operation: the caller decides whether the account just crossed into
// the locked state from the count it gets back.
type UserTracker interface {
	GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (*User, error)
	TrackAttemptedLogin(ctx context.Context, user *User) (*User, error)
	TrackSuccessfulLogin(ctx context.Context, user *User) error
}

// MaxLoginAttempts is the number of consecutive failed verifications after
// which an account is locked until it goes through recovery.
var MaxLoginAttempts = 20

// UserProvider verifies password credentials against the store and enforces
// the lockout threshold.
type UserProvider struct {
	store       UserTracker
	tokens      *TokenService
	mailer      Mailer
	hasher      PasswordAuthenticator
	unblockURL  string
	maxAttempts int
	sink        ActivitySink
	logger      Logger
}

// NewUserProvider will create a new UserProvider. The token service must be
// the action token signer: recovery tokens minted on lockout are signed with
// the action key, never the session key.
func NewUserProvider(store UserTracker, tokens *TokenService, opts Config) *UserProvider {
	maxAttempts := opts.GetMaxLoginAttempts()
	if maxAttempts <= 0 {
		maxAttempts = MaxLoginAttempts
	}

	logger := defLogger{}

	return &UserProvider{
		store:       store,
		tokens:      tokens,
		mailer:      logMailer{logger: logger},
		hasher:      bcryptHasher{},
		unblockURL:  opts.GetUnblockAccountURL(),
		maxAttempts: maxAttempts,
		sink:        noopActivitySink{},
		logger:      logger,
	}
}

func (u *UserProvider) WithLogger(l Logger) *UserProvider {
	if l != nil {
		u.logger = l
	}
	return u
}

// WithMailer sets the dispatcher used for blocked account notices.
func (u *UserProvider) WithMailer(m Mailer) *UserProvider {
	u.mailer = normalizeMailer(m, u.logger)
	return u
}

// WithHasher overrides the password authenticator.
func (u *UserProvider) WithHasher(h PasswordAuthenticator) *UserProvider {
	if h != nil {
		u.hasher = h
	}
	return u
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func (u *UserProvider) WithActivitySink(sink ActivitySink) *UserProvider {
	u.sink = normalizeActivitySink(sink)
	return u
}

// VerifyIdentity will find the user, compare the password, and return the
// identity. A locked account short circuits before any hash comparison. On a
// mismatch the attempt counter is incremented atomically; the recovery
// notice fires only on the increment that reaches the threshold, so an
// already locked account never re-triggers it.
func (u *UserProvider) VerifyIdentity(ctx context.Context, identifier, password string) (Identity, error) {
	user, err := u.store.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve user during verification")
	}

	if user.LoginAttempts >= u.maxAttempts {
		return nil, ErrAccountLocked
	}

	if err := u.hasher.ComparePasswordAndHash(password, user.Secret, user.PasswordHash); err != nil {
		updated, terr := u.store.TrackAttemptedLogin(ctx, user)
		if terr != nil {
			return nil, errors.Wrap(terr, errors.CategoryInternal, "failed to track login attempt")
		}

		if updated.LoginAttempts == u.maxAttempts {
			u.notifyLockout(ctx, updated)
		}

		return nil, ErrMismatchedHashAndPassword
	}

	if err := u.store.TrackSuccessfulLogin(ctx, user); err != nil {
		u.logger.Error("failed to track successful login: %v", err)
	}

	return identityFromUser(user), nil
}

// FindIdentityByIdentifier looks up an identity without verifying
// credentials.
func (u *UserProvider) FindIdentityByIdentifier(ctx context.Context, identifier string) (Identity, error) {
	user, err := u.store.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, ErrIdentityNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve user")
	}

	return identityFromUser(user), nil
}

func (u *UserProvider) notifyLockout(ctx context.Context, user *User) {
	claims := &ActionClaims{
		UID:    user.ID.String(),
		Email:  user.Email,
		Secret: user.Secret,
	}

	token, err := u.tokens.IssueActionToken(claims, ActionTokenOptions{})
	if err != nil {
		u.logger.Error("failed to mint recovery token: %v", err)
		return
	}

	unblockURL := fmt.Sprintf("%s?token=%s", u.unblockURL, token)
	if err := u.mailer.SendBlockedAccountNotice(ctx, user.Email, unblockURL); err != nil {
		u.logger.Error("failed to send blocked account notice: %v", err)
	}

	recordActivity(ctx, u.sink, u.logger, ActivityEvent{
		EventType: ActivityEventAccountLocked,
		Actor:     ActorRef{ID: user.ID.String(), Type: "user"},
		UserID:    user.ID.String(),
		Metadata: map[string]any{
			"login_attempts": user.LoginAttempts,
		},
	})
}

type userIdentity struct {
	id       string
	username string
	email    string
	secret   string
	user     *User
}

func identityFromUser(user *User) Identity {
	return userIdentity{
		id:       user.ID.String(),
		username: user.Username,
		email:    user.Email,
		secret:   user.Secret,
		user:     user,
	}
}

func (a userIdentity) ID() string {
	return a.id
}

func (a userIdentity) Username() string {
	return a.username
}

func (a userIdentity) Email() string {
	return a.email
}

func (a userIdentity) Secret() string {
	return a.secret
}

// Record exposes the backing user for profile projections.
func (a userIdentity) Record() *User {
	return a.user
}

// recordCarrier is implemented by identities that can hand back the backing
// user record, so callers can build the public projection without another
// store round trip.
type recordCarrier interface {
	Record() *User
}

var _ Identity = userIdentity{}
var _ recordCarrier = userIdentity{}
