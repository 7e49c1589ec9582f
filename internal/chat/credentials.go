package chat

import "golang.org/x/crypto/bcrypt"

// CredentialVerifier hashes and checks secrets without ever storing
// plaintext. Both the login flow and room passwords go through it.
type CredentialVerifier interface {
	Hash(secret string) (string, error)
	Verify(secret, digest string) bool
}

// BcryptVerifier is the production verifier. DefaultCost keeps a single
// check around 100ms: fast enough for login, slow enough to blunt brute
// force. bcrypt salts every hash itself, so equal secrets still produce
// distinct digests.
type BcryptVerifier struct{}

func (BcryptVerifier) Hash(secret string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

func (BcryptVerifier) Verify(secret, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(secret)) == nil
}
