// Package identity derives stable cache keys from account credentials.
package identity

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// KeyLength is the length of a hex encoded identity key.
const KeyLength = blake2b.Size256 * 2

// Identity is the account a history belongs to.
type Identity struct {
	Username string
	Token    string
}

// Key returns the cache key for the identity.
func (i Identity) Key() string {
	return Key(i.Username, i.Token)
}

// String redacts the token so identities can be logged.
func (i Identity) String() string {
	return fmt.Sprintf("%s (%s)", i.Username, ShortKey(i.Key()))
}

// Key hashes username and token into a fixed-length hex digest.
// Each field is length-prefixed so ("ab", "c") and ("a", "bc") never collide.
func Key(username, token string) string {
	h, _ := blake2b.New256(nil) // only fails for oversized keys
	writeField(h, username)
	writeField(h, token)
	return hex.EncodeToString(h.Sum(nil))
}

// ShortKey returns the first 12 characters of a key for log output.
func ShortKey(key string) string {
	if len(key) <= 12 {
		return key
	}
	return key[:12]
}

func writeField(w interface{ Write([]byte) (int, error) }, s string) {
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], uint64(len(s)))
	_, _ = w.Write(n[:])
	_, _ = w.Write([]byte(s))
}
