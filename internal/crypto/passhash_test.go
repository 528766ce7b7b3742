package crypto

import (
	"bytes"
	"testing"
)

func TestRandBytes(t *testing.T) {
	t.Parallel()
	a, err := RandBytes(16)
	if err != nil || len(a) != 16 {
		t.Fatalf("RandBytes: %v len=%d", err, len(a))
	}
	b, err := RandBytes(16)
	if err != nil {
		t.Fatalf("RandBytes: %v", err)
	}
	if bytes.Equal(a, b) {
		t.Fatalf("two random salts should differ")
	}
}

func TestHashVerifyPassword(t *testing.T) {
	t.Parallel()
	salt, _ := RandBytes(16)
	h := HashPassword([]byte("secret1"), salt)

	if !VerifyPassword([]byte("secret1"), salt, h) {
		t.Fatalf("correct password must verify")
	}
	if VerifyPassword([]byte("secret2"), salt, h) {
		t.Fatalf("wrong password must not verify")
	}

	otherSalt, _ := RandBytes(16)
	if VerifyPassword([]byte("secret1"), otherSalt, h) {
		t.Fatalf("wrong salt must not verify")
	}
}
