package accounts

import (
	"time"

	"github.com/google/uuid"
	"github.com/goliatone/go-errors"
)

var _ Session = &SessionObject{}

type SessionObject struct {
	UserID         string     `json:"user_id,omitempty"`
	Email          string     `json:"email,omitempty"`
	Secret         string     `json:"secret,omitempty"`
	Issuer         string     `json:"issuer,omitempty"`
	IssuedAt       *time.Time `json:"issued_at,omitempty"`
	ExpirationDate *time.Time `json:"expiration_date,omitempty"`
}

func (s *SessionObject) GetUserID() string {
	return s.UserID
}

func (s *SessionObject) GetUserUUID() (uuid.UUID, error) {
	return uuid.Parse(s.UserID)
}

func (s *SessionObject) GetEmail() string {
	return s.Email
}

// GetSecret returns the per user secret snapshot captured when the session
// token was minted.
func (s *SessionObject) GetSecret() string {
	return s.Secret
}

func (s *SessionObject) GetIssuer() string {
	return s.Issuer
}

func (s *SessionObject) GetIssuedAt() *time.Time {
	return s.IssuedAt
}

func sessionFromClaims(claims *SessionClaims) (*SessionObject, error) {
	if claims == nil {
		return nil, errors.New("claims must not be nil", errors.CategoryInternal)
	}

	if claims.UserID() == "" {
		return nil, errors.New("session claims are missing a subject", errors.CategoryAuth).
			WithTextCode("SESSION_NO_SUBJECT")
	}

	session := &SessionObject{
		UserID: claims.UserID(),
		Email:  claims.Email,
		Secret: claims.Secret,
		Issuer: claims.RegisteredClaims.Issuer,
	}

	if claims.RegisteredClaims.IssuedAt != nil {
		iat := claims.RegisteredClaims.IssuedAt.Time
		session.IssuedAt = &iat
	}

	if claims.RegisteredClaims.ExpiresAt != nil {
		exp := claims.RegisteredClaims.ExpiresAt.Time
		session.ExpirationDate = &exp
	}

	return session, nil
}
