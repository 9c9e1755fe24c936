package accounts

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

// TokenService signs and validates one class of tokens. Two instances are
// used process wide, one per signing key, so rotating the action key does
// not invalidate outstanding sessions and vice versa.
type TokenService struct {
	signingKey []byte
	ttl        time.Duration
	issuer     string
	logger     Logger
}

// NewTokenService creates a new TokenService instance. A zero ttl issues
// tokens without an expiry claim.
func NewTokenService(signingKey []byte, ttl time.Duration, issuer string, logger Logger) *TokenService {
	if logger == nil {
		logger = defLogger{}
	}
	return &TokenService{
		signingKey: signingKey,
		ttl:        ttl,
		issuer:     issuer,
		logger:     logger,
	}
}

// ActionTokenOptions controls how IssueActionToken mints short-lived tokens.
type ActionTokenOptions struct {
	// TTL overrides the service default. Zero uses the default.
	TTL time.Duration
	// IssuedAt overrides the issuance time. Zero uses time.Now().
	IssuedAt time.Time
}

// SignClaims signs arbitrary JWT claims using the configured signing key.
func (ts *TokenService) SignClaims(claims jwt.Claims) (string, error) {
	if claims == nil {
		return "", errors.New("claims must not be nil", errors.CategoryInternal)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedString, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign JWT")
	}

	return signedString, nil
}

// IssueSessionToken builds and signs the session claim set for an identity.
// Pure function of its inputs and the signing key apart from timestamps.
func (ts *TokenService) IssueSessionToken(identity Identity) (string, error) {
	if identity == nil {
		return "", errors.New("identity is required", errors.CategoryBadInput)
	}

	now := time.Now()
	claims := &SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   ts.issuer,
			Subject:  identity.ID(),
			IssuedAt: jwt.NewNumericDate(now),
		},
		UID:    identity.ID(),
		Email:  identity.Email(),
		Secret: identity.Secret(),
	}

	if ts.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ts.ttl))
	}

	ensureTokenID(&claims.RegisteredClaims)

	return ts.SignClaims(claims)
}

// IssueActionToken signs an action claim set, filling in issuer, issuance
// time, expiry, and token ID.
func (ts *TokenService) IssueActionToken(claims *ActionClaims, opts ActionTokenOptions) (string, error) {
	if claims == nil {
		return "", errors.New("claims must not be nil", errors.CategoryInternal)
	}

	issuedAt := opts.IssuedAt
	if issuedAt.IsZero() {
		issuedAt = time.Now()
	}

	ttl := opts.TTL
	if ttl == 0 {
		ttl = ts.ttl
	}
	if ttl < 0 {
		return "", errors.New("token TTL must be non-negative", errors.CategoryBadInput)
	}

	claims.Issuer = ts.issuer
	claims.IssuedAt = jwt.NewNumericDate(issuedAt)
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(issuedAt.Add(ttl))
	}

	ensureTokenID(&claims.RegisteredClaims)

	return ts.SignClaims(claims)
}

// ValidateSession parses and validates a session token string.
func (ts *TokenService) ValidateSession(tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	if err := ts.parse(tokenString, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// ValidateAction parses and validates an action token string.
func (ts *TokenService) ValidateAction(tokenString string) (*ActionClaims, error) {
	claims := &ActionClaims{}
	if err := ts.parse(tokenString, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func (ts *TokenService) parse(tokenString string, claims jwt.Claims) error {
	parserOptions := make([]jwt.ParserOption, 0, 1)
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("token validation encountered unexpected signing method: %v", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	}, parserOptions...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return errors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).
			WithTextCode(ErrTokenMalformed.TextCode)
	}

	if !token.Valid {
		return ErrTokenMalformed
	}

	return nil
}
