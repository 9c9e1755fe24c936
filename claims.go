package accounts

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionClaims is the claim set carried by session tokens. The secret
// snapshot ties the token to the account's current per user secret: rotate
// the secret and every outstanding session token stops validating.
type SessionClaims struct {
	jwt.RegisteredClaims
	UID    string `json:"uid,omitempty"`
	Email  string `json:"email,omitempty"`
	Secret string `json:"secret,omitempty"`
}

// UserID returns the user ID
func (c *SessionClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.RegisteredClaims.Subject
}

// Expires returns the expiration time
func (c *SessionClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// ActionClaims is the claim set carried by action tokens. Registration
// tokens set Email and Username; recovery tokens set UID, Email, and the
// secret snapshot taken when the account locked.
type ActionClaims struct {
	jwt.RegisteredClaims
	UID      string `json:"uid,omitempty"`
	Email    string `json:"email,omitempty"`
	Username string `json:"username,omitempty"`
	Secret   string `json:"secret,omitempty"`
}

// IsRegistration reports whether the claims prove account creation intent.
func (c *ActionClaims) IsRegistration() bool {
	return c.Email != "" && c.Username != ""
}

// IsRecovery reports whether the claims prove account recovery intent.
func (c *ActionClaims) IsRecovery() bool {
	return c.UID != "" && c.Secret != ""
}

func ensureTokenID(claims *jwt.RegisteredClaims) {
	if claims.ID == "" {
		claims.ID = uuid.NewString()
	}
}
