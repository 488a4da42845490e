package gcache

import "encoding/binary"

// Every allocation in a page is preceded by a fixed size header. The layout
// is shared with the recovery scan that replays page files after a crash:
//
//	| total slot size | owning page seq | seqno | flags | reserved |
//	| u32             | u32             | i64   | u16   | 6 bytes  |
//
// All fields are little endian. A header whose slot size is zero is the
// terminal sentinel: it marks the end of the valid record chain in a page.
const (
	// BufferHeaderSize is the per allocation overhead in bytes.
	BufferHeaderSize = 24

	// slotAlign is the alignment of every slot and of the nonce block at
	// the head of a page.
	slotAlign = 8

	// SeqnoNone marks a buffer whose global sequence number has not been
	// assigned yet. Only unassigned buffers may be reallocated.
	SeqnoNone int64 = 0

	flagReleased uint16 = 1 << 0
)

const (
	bhOffSize    = 0
	bhOffPageSeq = 4
	bhOffSeqno   = 8
	bhOffFlags   = 16
)

// alignUp rounds n up to the slot alignment boundary.
func alignUp(n int) int {
	return (n + slotAlign - 1) &^ (slotAlign - 1)
}

// bufferHeader is a view over the header bytes inside a page mapping.
type bufferHeader []byte

func (h bufferHeader) size() int { return int(binary.LittleEndian.Uint32(h[bhOffSize:])) }

func (h bufferHeader) setSize(n int) { binary.LittleEndian.PutUint32(h[bhOffSize:], uint32(n)) }

func (h bufferHeader) pageSeq() uint32 {
	return binary.LittleEndian.Uint32(h[bhOffPageSeq:])
}
func (h bufferHeader) setPageSeq(seq uint32) {
	binary.LittleEndian.PutUint32(h[bhOffPageSeq:], seq)
}
func (h bufferHeader) seqno() int64 {
	return int64(binary.LittleEndian.Uint64(h[bhOffSeqno:]))
}
func (h bufferHeader) setSeqno(s int64) {
	binary.LittleEndian.PutUint64(h[bhOffSeqno:], uint64(s))
}
func (h bufferHeader) released() bool {
	return binary.LittleEndian.Uint16(h[bhOffFlags:])&flagReleased != 0
}
func (h bufferHeader) markReleased() {
	flags := binary.LittleEndian.Uint16(h[bhOffFlags:])
	binary.LittleEndian.PutUint16(h[bhOffFlags:], flags|flagReleased)
}

// clear zeroes the whole header, producing the end of chain sentinel.
func (h bufferHeader) clear() {
	for i := range h[:BufferHeaderSize] {
		h[i] = 0
	}
}

func (h bufferHeader) isSentinel() bool { return h.size() == 0 }

// Buffer is the handle for one live allocation: the owning page plus the
// offset of the slot header within that page's mapping. Handles remain valid
// until released; the owning page file cannot be deleted while any handle on
// it is outstanding.
type Buffer struct {
	page *Page
	off  int
}

func (b *Buffer) header() bufferHeader {
	return bufferHeader(b.page.file.Data()[b.off:])
}

// Bytes returns the payload region of the slot. The capacity may exceed the
// requested size due to slot alignment.
func (b *Buffer) Bytes() []byte {
	data := b.page.file.Data()
	return data[b.off+BufferHeaderSize : b.off+b.header().size()]
}

// Size returns the payload capacity in bytes.
func (b *Buffer) Size() int {
	return b.header().size() - BufferHeaderSize
}

// Seqno returns the buffer's global sequence number, SeqnoNone if it has not
// been assigned.
func (b *Buffer) Seqno() int64 { return b.header().seqno() }

// SetSeqno assigns the buffer's global sequence number.
func (b *Buffer) SetSeqno(s int64) { b.header().setSeqno(s) }

// Released reports whether the buffer has been marked released.
func (b *Buffer) Released() bool { return b.header().released() }
