package accounts_test

import (
	"testing"
	"time"

	accounts "github.com/goliatone/go-accounts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenServiceSessionRoundTrip(t *testing.T) {
	ts := accounts.NewTokenService([]byte("session-key"), 72*time.Hour, "issuer-a", nil)

	identity := TestIdentity{
		id:       "6c9f0c72-9704-4a53-8f1c-1f9d9db7f9f0",
		username: "testuser",
		email:    "test@example.com",
		secret:   "secret-snapshot",
	}

	token, err := ts.IssueSessionToken(identity)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ts.ValidateSession(token)
	require.NoError(t, err)

	assert.Equal(t, identity.id, claims.UserID())
	assert.Equal(t, identity.email, claims.Email)
	assert.Equal(t, identity.secret, claims.Secret)
	assert.Equal(t, "issuer-a", claims.Issuer)
	assert.NotEmpty(t, claims.ID, "tokens should carry a jti")
	assert.WithinDuration(t, time.Now().Add(72*time.Hour), claims.Expires(), time.Minute)
}

func TestTokenServiceActionRoundTrip(t *testing.T) {
	ts := accounts.NewTokenService([]byte("action-key"), time.Hour, "issuer-a", nil)

	token, err := ts.IssueActionToken(&accounts.ActionClaims{
		Email:    "new@example.com",
		Username: "newuser",
	}, accounts.ActionTokenOptions{})
	require.NoError(t, err)

	claims, err := ts.ValidateAction(token)
	require.NoError(t, err)

	assert.True(t, claims.IsRegistration())
	assert.False(t, claims.IsRecovery())
	assert.Equal(t, "new@example.com", claims.Email)
	assert.Equal(t, "newuser", claims.Username)
}

func TestTokenServiceNoExpiryWhenTTLZero(t *testing.T) {
	ts := accounts.NewTokenService([]byte("action-key"), 0, "", nil)

	token, err := ts.IssueActionToken(&accounts.ActionClaims{Email: "a@example.com", Username: "a"}, accounts.ActionTokenOptions{})
	require.NoError(t, err)

	claims, err := ts.ValidateAction(token)
	require.NoError(t, err)
	assert.Nil(t, claims.ExpiresAt)
}

func TestTokenServiceExpiredToken(t *testing.T) {
	ts := accounts.NewTokenService([]byte("action-key"), 0, "", nil)

	token, err := ts.IssueActionToken(&accounts.ActionClaims{
		Email:    "a@example.com",
		Username: "a",
	}, accounts.ActionTokenOptions{
		TTL:      time.Minute,
		IssuedAt: time.Now().Add(-2 * time.Minute),
	})
	require.NoError(t, err)

	_, err = ts.ValidateAction(token)
	assert.ErrorIs(t, err, accounts.ErrTokenExpired)
	assert.True(t, accounts.IsTokenExpiredError(err))
}

func TestTokenServiceRejectsWrongKey(t *testing.T) {
	signer := accounts.NewTokenService([]byte("key-one"), time.Hour, "", nil)
	verifier := accounts.NewTokenService([]byte("key-two"), time.Hour, "", nil)

	token, err := signer.IssueSessionToken(TestIdentity{id: "u1", email: "a@example.com", secret: "s"})
	require.NoError(t, err)

	_, err = verifier.ValidateSession(token)
	require.Error(t, err)
	assert.True(t, accounts.IsMalformedError(err))
}

func TestTokenServiceKeySeparation(t *testing.T) {
	cfg := newTestConfig()
	sessions := accounts.NewTokenService([]byte(cfg.sessionKey), cfg.sessionTTL, cfg.issuer, nil)
	actions := accounts.NewTokenService([]byte(cfg.actionKey), cfg.actionTTL, cfg.issuer, nil)

	token, err := actions.IssueActionToken(&accounts.ActionClaims{Email: "a@example.com", Username: "a"}, accounts.ActionTokenOptions{})
	require.NoError(t, err)

	// an action token must never validate as a session token
	_, err = sessions.ValidateSession(token)
	assert.Error(t, err)
}

func TestTokenServiceRejectsWrongIssuer(t *testing.T) {
	signer := accounts.NewTokenService([]byte("shared-key"), time.Hour, "issuer-a", nil)
	verifier := accounts.NewTokenService([]byte("shared-key"), time.Hour, "issuer-b", nil)

	token, err := signer.IssueSessionToken(TestIdentity{id: "u1", secret: "s"})
	require.NoError(t, err)

	_, err = verifier.ValidateSession(token)
	assert.Error(t, err)
}

func TestTokenServiceMalformedInput(t *testing.T) {
	ts := accounts.NewTokenService([]byte("key"), time.Hour, "", nil)

	for _, raw := range []string{"", "garbage", "a.b.c"} {
		_, err := ts.ValidateSession(raw)
		require.Error(t, err)
		assert.True(t, accounts.IsMalformedError(err), "input %q should report malformed", raw)
	}
}
