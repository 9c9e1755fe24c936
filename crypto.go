package accounts

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"

	"github.com/goliatone/go-errors"
	"golang.org/x/crypto/bcrypt"
)

// DefaultSecretLength is the number of random bytes in a freshly generated
// per user secret; the hex encoded value is twice as long.
var DefaultSecretLength = 48

// DefaultBcryptCost is the work factor for new password hashes.
var DefaultBcryptCost = bcrypt.DefaultCost

// GenerateSecret returns a hex encoded random secret of length random bytes.
// Non positive lengths fall back to DefaultSecretLength.
func GenerateSecret(length int) (string, error) {
	if length <= 0 {
		length = DefaultSecretLength
	}

	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to generate secret")
	}

	return hex.EncodeToString(buf), nil
}

// HashPassword will generate a hash over the password mixed with the per
// user secret.
func HashPassword(password, secret string) (string, error) {
	if password == "" {
		return "", ErrNoEmptyString
	}

	h, err := bcrypt.GenerateFromPassword(passwordDigest(password, secret), passwordHashCost())
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to hash password")
	}

	return string(h), nil
}

// ComparePasswordAndHash will validate the given cleartext password, mixed
// with the same secret used at hashing time, against the stored hash.
func ComparePasswordAndHash(password, secret, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), passwordDigest(password, secret)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrMismatchedHashAndPassword
		}
		return errors.Wrap(err, errors.CategoryInternal, "failed to compare password and hash")
	}
	return nil
}

// passwordDigest folds password and secret into a fixed length, NUL free
// input. bcrypt rejects inputs over 72 bytes and a hex secret alone exceeds
// that, so we hash first and feed bcrypt the hex digest (64 bytes).
func passwordDigest(password, secret string) []byte {
	sum := sha256.Sum256([]byte(password + secret))
	out := make([]byte, hex.EncodedLen(len(sum)))
	hex.Encode(out, sum[:])
	return out
}

type bcryptHasher struct{}

func (bcryptHasher) HashPassword(password, secret string) (string, error) {
	return HashPassword(password, secret)
}

func (bcryptHasher) ComparePasswordAndHash(password, secret, hash string) error {
	return ComparePasswordAndHash(password, secret, hash)
}

var _ PasswordAuthenticator = bcryptHasher{}
