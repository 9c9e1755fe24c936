package accounts

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Users is the persistence contract backing both the credential verifier
// and the lifecycle manager.
type Users interface {
	repository.Repository[*User]

	GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (*User, error)
	GetByIdentifierTx(ctx context.Context, tx bun.IDB, identifier string, criteria ...repository.SelectCriteria) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByUsernameTx(ctx context.Context, tx bun.IDB, username string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error)
	GetBySecret(ctx context.Context, secret string) (*User, error)
	GetBySecretTx(ctx context.Context, tx bun.IDB, secret string) (*User, error)

	Register(ctx context.Context, user *User) (*User, error)
	RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error)

	TrackAttemptedLogin(ctx context.Context, user *User) (*User, error)
	TrackAttemptedLoginTx(ctx context.Context, tx bun.IDB, user *User) (*User, error)
	TrackSuccessfulLogin(ctx context.Context, user *User) error
	TrackSuccessfulLoginTx(ctx context.Context, tx bun.IDB, user *User) error

	RotateSecret(ctx context.Context, id uuid.UUID, passwordHash, secret string) (*User, error)
	RotateSecretTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash, secret string) (*User, error)
}

type users struct {
	repository.Repository[*User]
	db *bun.DB
}

var (
	_ Users                        = (*users)(nil)
	_ repository.Repository[*User] = (*users)(nil)
	_ UserTracker                  = (*users)(nil)
	_ AccountStore                 = (*users)(nil)
)

func NewUsersRepository(db *bun.DB) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "username"
		},
	})

	return &users{
		Repository: repo,
		db:         db,
	}
}

func (a *users) GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (*User, error) {
	return a.GetByIdentifierTx(ctx, a.db, identifier, criteria...)
}

// GetByIdentifierTx resolves id, email, or username lookups from the shape
// of the identifier.
func (a *users) GetByIdentifierTx(ctx context.Context, tx bun.IDB, identifier string, _ ...repository.SelectCriteria) (*User, error) {
	identifier = strings.TrimSpace(identifier)

	column := "username"
	if _, err := uuid.Parse(identifier); err == nil {
		column = "id"
	} else if _, err := mail.ParseAddress(identifier); err == nil {
		column = "email"
	}

	return a.getBy(ctx, tx, column, identifier)
}

func (a *users) GetByUsername(ctx context.Context, username string) (*User, error) {
	return a.GetByUsernameTx(ctx, a.db, username)
}

func (a *users) GetByUsernameTx(ctx context.Context, tx bun.IDB, username string) (*User, error) {
	return a.getBy(ctx, tx, "username", username)
}

func (a *users) GetByEmail(ctx context.Context, email string) (*User, error) {
	return a.GetByEmailTx(ctx, a.db, email)
}

func (a *users) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error) {
	return a.getBy(ctx, tx, "email", email)
}

func (a *users) GetBySecret(ctx context.Context, secret string) (*User, error) {
	return a.GetBySecretTx(ctx, a.db, secret)
}

func (a *users) GetBySecretTx(ctx context.Context, tx bun.IDB, secret string) (*User, error) {
	return a.getBy(ctx, tx, "secret", secret)
}

func (a *users) getBy(ctx context.Context, tx bun.IDB, column string, value any) (*User, error) {
	record := &User{}

	err := tx.NewSelect().
		Model(record).
		Where(fmt.Sprintf("?TableAlias.%s = ?", column), value).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, errors.Wrap(err, errors.CategoryNotFound, "user not found").
				WithCode(errors.CodeNotFound)
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve user")
	}

	return record, nil
}

func (a *users) Register(ctx context.Context, user *User) (*User, error) {
	return a.RegisterTx(ctx, a.db, user)
}

func (a *users) RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error) {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}

	created, err := a.CreateTx(ctx, tx, user)
	if err != nil {
		return nil, mapUniqueViolation(err)
	}
	return created, nil
}

func (a *users) TrackAttemptedLogin(ctx context.Context, user *User) (*User, error) {
	return a.TrackAttemptedLoginTx(ctx, a.db, user)
}

// TrackAttemptedLoginTx bumps the attempt counter in a single UPDATE and
// returns the post increment row, so concurrent failures each observe a
// distinct count and the threshold crossing is seen by exactly one caller.
func (a *users) TrackAttemptedLoginTx(ctx context.Context, tx bun.IDB, user *User) (*User, error) {
	updated := &User{}

	err := tx.NewUpdate().
		Model(updated).
		Set("login_attempts = login_attempts + 1").
		Set("login_attempt_at = ?", time.Now()).
		Where("id = ?", user.ID).
		Returning("*").
		Scan(ctx)

	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to track attempted login")
	}

	return updated, nil
}

func (a *users) TrackSuccessfulLogin(ctx context.Context, user *User) error {
	return a.TrackSuccessfulLoginTx(ctx, a.db, user)
}

func (a *users) TrackSuccessfulLoginTx(ctx context.Context, tx bun.IDB, user *User) error {
	_, err := tx.NewUpdate().
		Model((*User)(nil)).
		Set("login_attempts = 0").
		Set("login_attempt_at = NULL").
		Set("loggedin_at = ?", time.Now()).
		Where("id = ?", user.ID).
		Exec(ctx)

	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to track successful login")
	}

	return nil
}

func (a *users) RotateSecret(ctx context.Context, id uuid.UUID, passwordHash, secret string) (*User, error) {
	return a.RotateSecretTx(ctx, a.db, id, passwordHash, secret)
}

// RotateSecretTx swaps hash and secret and resets the attempt counter in one
// statement; a session token carrying the old secret is stale the moment
// this commits.
func (a *users) RotateSecretTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash, secret string) (*User, error) {
	updated := &User{}

	err := tx.NewUpdate().
		Model(updated).
		Set("password_hash = ?", passwordHash).
		Set("secret = ?", secret).
		Set("login_attempts = 0").
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id).
		Returning("*").
		Scan(ctx)

	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to rotate secret")
	}

	return updated, nil
}
