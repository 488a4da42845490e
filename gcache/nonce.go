package gcache

import (
	"crypto/rand"
	"encoding/binary"
	"time"
)

// NonceSize is the fixed width of a page nonce in bytes.
const NonceSize = 16

// Nonce is the per page salt mixed into encryption key derivation. It is
// generated once when a page is created, written at the head of the mapping,
// and preserved verbatim across a page reset.
type Nonce [NonceSize]byte

// NewNonce returns a fresh nonce. The OS entropy source is folded together
// with a high resolution timestamp so that a degenerate entropy source still
// yields distinct values.
func NewNonce() Nonce {
	var n Nonce
	_, _ = rand.Read(n[:])

	seed := uint64(time.Now().UnixNano())
	var word [8]byte
	for i := 0; i < NonceSize; i += 8 {
		// splitmix64 step over the timestamp seed
		seed += 0x9e3779b97f4a7c15
		z := seed
		z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
		z = (z ^ (z >> 27)) * 0x94d049bb133111eb
		z ^= z >> 31
		binary.LittleEndian.PutUint64(word[:], z)
		for j := range word {
			n[i+j] ^= word[j]
		}
	}
	return n
}

// NonceFromBytes reconstructs a nonce from previously serialized bytes, the
// recovery path for scanning existing page files. If b is shorter than
// NonceSize only the available prefix is used, the remainder is zero.
func NonceFromBytes(b []byte) Nonce {
	var n Nonce
	copy(n[:], b)
	return n
}

// Read serializes the nonce into buf, writing min(NonceSize, len(buf)) bytes
// and returning the count written.
func (n Nonce) Read(buf []byte) int {
	return copy(buf, n[:])
}
