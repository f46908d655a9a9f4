// Package security hashes and verifies user passwords.
//
// New hashes are argon2id in the PHC string format. Hashes created by the previous
// bcrypt-based application ("$2a$", "$2b$", "$2y$") still verify so that existing
// accounts keep working; callers should rehash them after a successful login.
package security

import (
	"errors"
	"strings"
	"sync"

	"github.com/matthewhartstonge/argon2"
	"golang.org/x/crypto/bcrypt"
)

// ErrUnsupportedHash is returned when a stored hash is in no known format.
var ErrUnsupportedHash = errors.New("unsupported password hash format")

var argonConfig = argon2.DefaultConfig()

var (
	dummyHashOnce sync.Once
	dummyHash     string
)

// HashPassword hashes password with argon2id.
func HashPassword(password string) (string, error) {
	encoded, err := argonConfig.HashEncoded([]byte(password))
	if err != nil {
		return "", err
	}

	return string(encoded), nil
}

// VerifyPassword reports whether password matches hash.
func VerifyPassword(password, hash string) (bool, error) {
	switch {
	case isArgon2(hash):
		return argon2.VerifyEncoded([]byte(password), []byte(hash))
	case isBcrypt(hash):
		err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		return true, nil
	default:
		return false, ErrUnsupportedHash
	}
}

// DummyHash returns an argon2id hash of a random-looking constant. Verifying a password
// against it costs the same as verifying against a stored hash.
func DummyHash() string {
	dummyHashOnce.Do(func() {
		dummyHash, _ = HashPassword("berberpazar:no-such-account")
	})

	return dummyHash
}

// NeedsRehash reports whether hash was produced by a legacy algorithm.
func NeedsRehash(hash string) bool {
	return !isArgon2(hash)
}

func isArgon2(hash string) bool {
	return strings.HasPrefix(hash, "$argon2")
}

func isBcrypt(hash string) bool {
	return strings.HasPrefix(hash, "$2a$") || strings.HasPrefix(hash, "$2b$") || strings.HasPrefix(hash, "$2y$")
}
