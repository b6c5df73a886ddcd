package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

// DefaultIterations is the hash-chain round count used for new accounts.
const DefaultIterations = 10

const saltBytes = 16

// Credential is the stored form of a password. Salt and Iterations are
// not secret; both are required to verify later.
type Credential struct {
	Digest     string
	Salt       string
	Iterations int
}

func sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// chain computes the iterated digest: an initial hash of salt‖password,
// then `iterations` further rounds of salt‖previous. The intermediate
// values are hex strings, not raw bytes; changing that would invalidate
// every stored credential.
func chain(password, salt string, iterations int) string {
	h := sha256Hex(salt + password)
	for i := 0; i < iterations; i++ {
		h = sha256Hex(salt + h)
	}
	return h
}

// HashPassword derives a fresh salted credential from a plaintext
// password. Each call draws a new random salt, so repeated calls with
// the same password produce different digests.
func HashPassword(password string, iterations int) (Credential, error) {
	if iterations < 1 {
		return Credential{}, fmt.Errorf("iterations must be >= 1, got %d", iterations)
	}
	raw := make([]byte, saltBytes)
	if _, err := rand.Read(raw); err != nil {
		return Credential{}, fmt.Errorf("generating salt: %w", err)
	}
	salt := hex.EncodeToString(raw)
	return Credential{
		Digest:     chain(password, salt, iterations),
		Salt:       salt,
		Iterations: iterations,
	}, nil
}

// VerifyPassword recomputes the chain for the candidate password and
// compares it to the stored digest in constant time.
func VerifyPassword(password, digest, salt string, iterations int) bool {
	candidate := chain(password, salt, iterations)
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(digest)) == 1
}
