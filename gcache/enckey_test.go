package gcache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncKeyFingerprint(t *testing.T) {
	assert.Equal(t, "none", EncKey(nil).Fingerprint())
	assert.Equal(t, "none", EncKey{}.Fingerprint())

	k1 := EncKey("0123456789abcdef0123456789abcdef")
	k2 := EncKey("fedcba9876543210fedcba9876543210")

	assert.Len(t, k1.Fingerprint(), 8)
	assert.Equal(t, k1.Fingerprint(), k1.Fingerprint())
	assert.NotEqual(t, k1.Fingerprint(), k2.Fingerprint())
}
