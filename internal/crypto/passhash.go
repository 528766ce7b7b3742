// Package crypto derives and checks the password hashes stored on user
// accounts. Every account carries its own random salt next to the hash, so
// equal passwords never produce equal rows.
package crypto

import (
	"crypto/rand"
	"crypto/subtle"

	"golang.org/x/crypto/argon2"
)

// Argon2id cost parameters, shared by registration and login so a stored
// hash always verifies against a freshly derived one.
const (
	argonTime    uint32 = 3
	argonMemory  uint32 = 64 * 1024 // KiB
	argonThreads uint8  = 1
	argonKeyLen  uint32 = 32
)

// RandBytes draws n bytes from the system CSPRNG; used for account salts.
func RandBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	return b, err
}

// HashPassword derives the Argon2id hash of password under the account's salt.
func HashPassword(password, salt []byte) []byte {
	return argon2.IDKey(password, salt, argonTime, argonMemory, argonThreads, argonKeyLen)
}

// VerifyPassword re-derives the hash for a login attempt and compares it to
// the stored one in constant time.
func VerifyPassword(password, salt, expected []byte) bool {
	got := HashPassword(password, salt)
	return subtle.ConstantTimeCompare(got, expected) == 1
}
