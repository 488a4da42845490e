package gcache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAlignUp(t *testing.T) {
	assert.Equal(t, 0, alignUp(0))
	assert.Equal(t, 8, alignUp(1))
	assert.Equal(t, 8, alignUp(8))
	assert.Equal(t, 16, alignUp(9))
	assert.Equal(t, 3024, alignUp(3000+BufferHeaderSize))
}

func TestBufferHeaderSentinel(t *testing.T) {
	raw := make([]byte, BufferHeaderSize)
	h := bufferHeader(raw)

	h.setSize(128)
	h.setPageSeq(7)
	h.setSeqno(99)
	h.markReleased()

	assert.False(t, h.isSentinel())
	assert.Equal(t, 128, h.size())
	assert.Equal(t, uint32(7), h.pageSeq())
	assert.Equal(t, int64(99), h.seqno())
	assert.True(t, h.released())

	h.clear()
	assert.True(t, h.isSentinel())
	assert.False(t, h.released())
	assert.Equal(t, SeqnoNone, h.seqno())
}
