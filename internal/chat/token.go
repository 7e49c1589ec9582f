package chat

import (
	"crypto/rand"
	"encoding/base64"
)

// NewMessageToken returns a fresh collision-resistant message identifier:
// 8 random bytes, url-safe base64, 11 characters. 64 bits of entropy makes
// a collision astronomically rare; the unique constraint on message_id is
// the backstop, and the append path retries with a fresh token if it ever
// fires.
func NewMessageToken() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand only fails when the OS entropy source is broken,
		// which is not a recoverable situation for this process.
		panic(err)
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
