// Package credentials checks shared secrets presented in request headers.
package credentials

import (
	"crypto/subtle"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Verifier decides whether a presented secret is acceptable.
type Verifier interface {
	Verify(presented string) bool
}

// StaticSecret compares against a plaintext secret in constant time.
type StaticSecret string

func (s StaticSecret) Verify(presented string) bool {
	if s == "" || presented == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(s), []byte(presented)) == 1
}

// HashedSecret compares against a bcrypt hash, so the plaintext never has to
// be configured.
type HashedSecret string

func (h HashedSecret) Verify(presented string) bool {
	if h == "" || presented == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(h), []byte(presented)) == nil
}

// AnyOf accepts a secret that any member accepts. Used while rotating.
type AnyOf []Verifier

func (a AnyOf) Verify(presented string) bool {
	for _, v := range a {
		if v != nil && v.Verify(presented) {
			return true
		}
	}
	return false
}

// FromConfig builds the verifier for a plaintext secret and an optional bcrypt
// hash. Both are accepted when both are set.
func FromConfig(secret, hash string) Verifier {
	var verifiers AnyOf
	if s := strings.TrimSpace(secret); s != "" {
		verifiers = append(verifiers, StaticSecret(s))
	}
	if h := strings.TrimSpace(hash); h != "" {
		verifiers = append(verifiers, HashedSecret(h))
	}
	if len(verifiers) == 1 {
		return verifiers[0]
	}
	return verifiers
}
