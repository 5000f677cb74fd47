package membership

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"

	"github.com/goliatone/go-errors"
)

// SaltLength is the size in bytes of generated password salts.
const SaltLength = 64

// GenerateSalt produces a cryptographically random salt used as the keying
// material for ComputeHash. Every call returns an independent value.
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to generate password salt")
	}
	return salt, nil
}

// ComputeHash derives the HMAC-SHA256 digest of the UTF-8 password keyed by
// salt. The same (password, salt) pair always yields the same digest.
func ComputeHash(password string, salt []byte) []byte {
	mac := hmac.New(sha256.New, salt)
	mac.Write([]byte(password))
	return mac.Sum(nil)
}

// VerifyEqual compares two digests in constant time with respect to their
// content. Differing lengths return false without panicking.
func VerifyEqual(expected, actual []byte) bool {
	if len(expected) != len(actual) {
		return false
	}
	return subtle.ConstantTimeCompare(expected, actual) == 1
}

// hmacHasher is the default CredentialHasher, kept behind the interface so
// the construction stays swappable in tests.
type hmacHasher struct{}

func (hmacHasher) GenerateSalt() ([]byte, error) {
	return GenerateSalt()
}

func (hmacHasher) ComputeHash(password string, salt []byte) []byte {
	return ComputeHash(password, salt)
}

func (hmacHasher) VerifyEqual(expected, actual []byte) bool {
	return VerifyEqual(expected, actual)
}

var _ CredentialHasher = hmacHasher{}
