package accounts

import (
	"context"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// AccountStore is the narrow persistence contract the lifecycle manager
// depends on. Register must enforce username/email uniqueness; RotateSecret
// must write hash, secret, and counter reset in one atomic update.
type AccountStore interface {
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetBySecret(ctx context.Context, secret string) (*User, error)
	Register(ctx context.Context, user *User) (*User, error)
	RotateSecret(ctx context.Context, id uuid.UUID, passwordHash, secret string) (*User, error)
}

// Accounts orchestrates account creation and recovery. Registration is two
// phase: RequestAccountCreation only mails out a signed action token, and no
// record exists until CreateAccount redeems it.
type Accounts struct {
	store     AccountStore
	actions   *TokenService
	sessions  *TokenService
	mailer    Mailer
	hasher    PasswordAuthenticator
	secretLen int
	useHashid bool
	sink      ActivitySink
	logger    Logger
}

// NewAccounts creates the lifecycle manager with both token signers derived
// from opts.
func NewAccounts(store AccountStore, opts Config) *Accounts {
	logger := defLogger{}

	secretLen := opts.GetSecretLength()
	if secretLen <= 0 {
		secretLen = DefaultSecretLength
	}

	return &Accounts{
		store:     store,
		actions:   NewTokenService([]byte(opts.GetActionSigningKey()), opts.GetActionTokenTTL(), opts.GetIssuer(), logger),
		sessions:  NewTokenService([]byte(opts.GetSessionSigningKey()), opts.GetSessionTokenTTL(), opts.GetIssuer(), logger),
		mailer:    logMailer{logger: logger},
		hasher:    bcryptHasher{},
		secretLen: secretLen,
		sink:      noopActivitySink{},
		logger:    logger,
	}
}

func (a *Accounts) WithLogger(logger Logger) *Accounts {
	if logger != nil {
		a.logger = logger
	}
	return a
}

// WithMailer sets the dispatcher used for verification mails.
func (a *Accounts) WithMailer(m Mailer) *Accounts {
	a.mailer = normalizeMailer(m, a.logger)
	return a
}

// WithHasher overrides the password authenticator.
func (a *Accounts) WithHasher(h PasswordAuthenticator) *Accounts {
	if h != nil {
		a.hasher = h
	}
	return a
}

// WithActivitySink configures an ActivitySink for emitting lifecycle events.
func (a *Accounts) WithActivitySink(sink ActivitySink) *Accounts {
	a.sink = normalizeActivitySink(sink)
	return a
}

// WithHashid derives new account IDs deterministically from the verified
// email instead of random UUIDs.
func (a *Accounts) WithHashid() *Accounts {
	a.useHashid = true
	return a
}

// ActionTokenService exposes the action token signer, e.g. to mint
// out-of-band recovery tokens.
func (a *Accounts) ActionTokenService() *TokenService {
	return a.actions
}

// RequestAccountCreation checks email then username for duplicates, signs an
// action token over both, and mails a verification link. It creates no
// record and sends nothing when either duplicate check fails.
func (a *Accounts) RequestAccountCreation(ctx context.Context, username, email, verificationURL string) error {
	if err := validation.Validate(username, validation.Required); err != nil {
		return ErrMissingUsername
	}

	if err := validation.Validate(email, validation.Required, is.Email); err != nil {
		return errors.Wrap(err, errors.CategoryBadInput, "invalid email address")
	}

	if err := validation.Validate(verificationURL, validation.Required, is.URL); err != nil {
		return errors.Wrap(err, errors.CategoryBadInput, "invalid verification URL")
	}

	if _, err := a.store.GetByEmail(ctx, email); err == nil {
		return ErrDuplicateEmail
	} else if !errors.IsNotFound(err) {
		return errors.Wrap(err, errors.CategoryInternal, "failed to check email uniqueness")
	}

	if _, err := a.store.GetByUsername(ctx, username); err == nil {
		return ErrDuplicateUsername
	} else if !errors.IsNotFound(err) {
		return errors.Wrap(err, errors.CategoryInternal, "failed to check username uniqueness")
	}

	token, err := a.actions.IssueActionToken(&ActionClaims{
		Email:    email,
		Username: username,
	}, ActionTokenOptions{})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s?token=%s", verificationURL, token)
	if err := a.mailer.SendEmailVerification(ctx, email, url); err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "failed to send verification email")
	}

	return nil
}

// CreateAccount redeems a registration action token and materializes the
// identity: fresh per user secret, password hashed under it, counter at
// zero. The returned projection carries a session token for the new account.
// A token whose username or email got taken after issuance fails with the
// store's duplicate error; tokens are not otherwise deduplicated.
func (a *Accounts) CreateAccount(ctx context.Context, actionToken, password string) (*PublicUser, error) {
	claims, err := a.actions.ValidateAction(actionToken)
	if err != nil {
		a.logger.Warn("CreateAccount token validation failed: %v", err)
		return nil, ErrInvalidToken
	}

	if !claims.IsRegistration() {
		return nil, ErrInvalidToken
	}

	if password == "" {
		return nil, ErrNoEmptyString
	}

	secret, err := GenerateSecret(a.secretLen)
	if err != nil {
		return nil, err
	}

	hash, err := a.hasher.HashPassword(password, secret)
	if err != nil {
		return nil, err
	}

	user := &User{
		Email:        claims.Email,
		Username:     claims.Username,
		PasswordHash: hash,
		Secret:       secret,
	}

	if a.useHashid {
		if id, err := hashid.NewUUID(claims.Email); err == nil {
			user.ID = id
		}
	}

	created, err := a.store.Register(ctx, user)
	if err != nil {
		var richErr *errors.Error
		if errors.As(err, &richErr) {
			return nil, richErr
		}
		return nil, errors.Wrap(err, errors.CategoryConflict, "could not create user")
	}

	token, err := a.sessions.IssueSessionToken(identityFromUser(created))
	if err != nil {
		return nil, err
	}

	recordActivity(ctx, a.sink, a.logger, ActivityEvent{
		EventType: ActivityEventAccountCreated,
		Actor:     ActorRef{ID: created.ID.String(), Type: "user"},
		UserID:    created.ID.String(),
		Metadata:  map[string]any{"username": created.Username},
	})

	return created.Public(token), nil
}

// UnblockAccount recovers a locked account. It requires both the out of band
// delivered secret and the original password, then rotates to a fresh
// secret, rehashes the password under it, and resets the attempt counter in
// one atomic write. Every session token minted before the rotation stops
// validating.
func (a *Accounts) UnblockAccount(ctx context.Context, secret, password string) error {
	user, err := a.store.GetBySecret(ctx, secret)
	if err != nil {
		if errors.IsNotFound(err) {
			return ErrInvalidSecret
		}
		return errors.Wrap(err, errors.CategoryInternal, "failed to look up account by secret")
	}

	if err := a.hasher.ComparePasswordAndHash(password, user.Secret, user.PasswordHash); err != nil {
		return ErrInvalidPassword
	}

	next, err := GenerateSecret(a.secretLen)
	if err != nil {
		return err
	}

	hash, err := a.hasher.HashPassword(password, next)
	if err != nil {
		return err
	}

	if _, err := a.store.RotateSecret(ctx, user.ID, hash, next); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to rotate account secret")
	}

	recordActivity(ctx, a.sink, a.logger, ActivityEvent{
		EventType: ActivityEventAccountUnblocked,
		Actor:     ActorRef{ID: user.ID.String(), Type: "user"},
		UserID:    user.ID.String(),
	})

	return nil
}

// UsernameExists reports whether the username is taken. Unlike the login
// path this is an intentionally public existence check.
func (a *Accounts) UsernameExists(ctx context.Context, username string) (bool, error) {
	if username == "" {
		return false, ErrMissingUsername
	}

	if _, err := a.store.GetByUsername(ctx, username); err != nil {
		if errors.IsNotFound(err) {
			return false, nil
		}
		return false, errors.Wrap(err, errors.CategoryInternal, "failed to look up username")
	}

	return true, nil
}
