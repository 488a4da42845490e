package gcache

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// EncKey is an opaque reference to an encryption key. The store never
// interprets the bytes, it only sizes the per page key metadata block from
// them and keeps each page single key for its lifetime. A zero length key
// means encryption is off.
type EncKey []byte

// Fingerprint returns a short digest of the key for log messages. Key bytes
// themselves must never be logged.
func (k EncKey) Fingerprint() string {
	if len(k) == 0 {
		return "none"
	}
	sum := blake3.Sum256(k)
	return hex.EncodeToString(sum[:4])
}
