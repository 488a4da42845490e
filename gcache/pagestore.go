package gcache

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/datatrails/go-datatrails-common/logger"
)

// DefaultPageSize is the target size of a page when none is configured.
const DefaultPageSize = 128 << 20

// PageStore owns the ordered pool of overflow pages. Allocations are routed
// to the current page; when it cannot fit a request a new page is created,
// sized for both the request and the standing page size target. Drained
// pages are evicted from the oldest end while the pool exceeds its retention
// budget, and the physical file removal runs on a single background worker
// slot.
//
// The mutating operations (Alloc, Realloc, Release, SetEncKey, Cleanup,
// Reset, Close) must be serialized by the caller.
type PageStore struct {
	log  *logger.WrappedLogger
	opts StoreOptions

	key       EncKey
	count     int     // naming counter, monotonically increasing
	pages     []*Page // creation order, oldest first
	current   *Page   // only page accepting first time allocations
	totalSize int64   // sum of the mapped sizes of every page in pages
	debug     int
	closed    bool

	// completion handle for the single in flight page file removal
	deleteDone chan error
}

// NewPageStore creates a page store writing page files under the configured
// directory. The directory is created if needed.
func NewPageStore(log *logger.WrappedLogger, opts ...StoreOption) (*PageStore, error) {
	options := StoreOptions{
		baseName: DefaultBaseName,
		pageSize: DefaultPageSize,
	}
	for _, o := range opts {
		o(&options)
	}

	if options.pageSize <= 0 {
		return nil, fmt.Errorf("page size must be positive, got %d", options.pageSize)
	}
	if options.keepSize < 0 {
		return nil, fmt.Errorf("keep size must not be negative, got %d", options.keepSize)
	}
	if options.dir != "" {
		if err := os.MkdirAll(options.dir, 0o750); err != nil {
			return nil, fmt.Errorf("create page dir: %w", err)
		}
	}

	return &PageStore{
		log:   log,
		opts:  options,
		key:   options.key,
		debug: options.debug,
	}, nil
}

// TotalSize returns the sum of the mapped sizes of all live pages.
func (s *PageStore) TotalSize() int64 { return s.totalSize }

// PageCount returns the number of pages currently in the pool.
func (s *PageStore) PageCount() int { return len(s.pages) }

// pageMetaSize is the per page overhead: the nonce block at the head, the
// key metadata record and room for the terminal sentinel header.
func (s *PageStore) pageMetaSize(keyLen int) int {
	return alignUp(NonceSize) + alignUp(BufferHeaderSize+keyLen) + BufferHeaderSize
}

// newPage creates the next page in sequence, makes it current and writes its
// key metadata block. The block is allocated, filled with the key reference
// and immediately released so a recovery scan can re-derive the key context
// without it ever counting as a live buffer.
func (s *PageStore) newPage(size int) error {
	path := filepath.Join(s.opts.dir, PageFileName(s.opts.baseName, s.count))

	p, err := newPage(s.log, s, uint32(s.count), path, NewNonce(), s.key, size, s.debug)
	if err != nil {
		return err
	}

	s.pages = append(s.pages, p)
	s.totalSize += int64(p.Size())
	s.current = p
	s.count++

	if kb := p.alloc(BufferHeaderSize + len(s.key)); kb != nil {
		copy(kb.Bytes(), s.key)
		s.Release(kb)
	}
	return nil
}

// allocNew retires the current page and satisfies the request from a fresh
// one sized to fit it. Page creation failures are logged and surfaced as a
// nil allocation, never a crash.
func (s *PageStore) allocNew(slotSize int) *Buffer {
	minSize := slotSize + s.pageMetaSize(len(s.key))
	size := s.opts.pageSize
	if minSize > size {
		size = minSize
	}

	if err := s.newPage(size); err != nil {
		s.log.Errorf("cannot create new cache page: %v", err)
		return nil
	}

	b := s.current.alloc(slotSize)
	s.Cleanup()
	return b
}

// Alloc returns a buffer with at least size payload bytes, or nil if the
// request exceeds the global allocation limit or a new page could not be
// created.
func (s *PageStore) Alloc(size int) *Buffer {
	if s.closed {
		s.log.Errorf("alloc of %d bytes: %v", size, ErrStoreClosed)
		return nil
	}

	slotSize := size + BufferHeaderSize
	if err := checkSize(slotSize); err != nil {
		s.log.Errorf("alloc rejected: %v", err)
		return nil
	}

	if s.current != nil {
		if b := s.current.alloc(slotSize); b != nil {
			return b
		}
		// retired from active allocation, bound its resident footprint
		s.current.dropFSCache()
	}

	return s.allocNew(slotSize)
}

// Realloc obtains a fresh buffer of the new size, copies the payload and
// releases the old buffer. On failure the old buffer is untouched and still
// owned by the caller. Buffers with an assigned seqno must not move.
func (s *PageStore) Realloc(b *Buffer, size int) *Buffer {
	if b == nil {
		s.log.Errorf("realloc of nil buffer")
		return nil
	}
	if b.Released() {
		s.log.Errorf("realloc of released buffer at offset %d in %s", b.off, b.page.Name())
		return nil
	}
	if b.Seqno() != SeqnoNone {
		s.log.Errorf("realloc of buffer with assigned seqno %d in %s", b.Seqno(), b.page.Name())
		return nil
	}
	if err := checkSize(size + BufferHeaderSize); err != nil {
		s.log.Errorf("realloc rejected: %v", err)
		return nil
	}

	if nb := b.page.realloc(b, size); nb != nil {
		return nb
	}

	nb := s.Alloc(size)
	if nb == nil {
		return nil
	}

	old := b.Bytes()
	n := len(old)
	if size < n {
		n = size
	}
	copy(nb.Bytes(), old[:n])

	s.Release(b)
	return nb
}

// Release marks the buffer released and returns its slot to the owning
// page's accounting. Releasing a buffer twice is a lifetime tracking bug
// upstream; it is logged and otherwise ignored so the use count cannot be
// corrupted.
func (s *PageStore) Release(b *Buffer) {
	if b == nil {
		return
	}
	h := b.header()
	if h.released() {
		s.log.Errorf("double release of buffer at offset %d in %s", b.off, b.page.Name())
		return
	}
	h.markReleased()
	b.page.releaseSlot()
}

// SetEncKey adopts a new encryption key. A key change always starts a new
// page, sized to hold the larger of the outgoing and incoming key metadata
// footprints, so every page is single key for its lifetime and decryption
// only ever needs one key per page plus that page's nonce.
func (s *PageStore) SetEncKey(k EncKey) {
	if s.closed {
		s.log.Errorf("set encryption key: %v", ErrStoreClosed)
		return
	}

	keyLen := len(s.key)
	if len(k) > keyLen {
		keyLen = len(k)
	}
	minSize := s.pageMetaSize(keyLen)

	oldPrint := s.key.Fingerprint()
	s.key = k

	// force the page boundary even if the new page cannot be created:
	// nothing may land in an old key page after this point
	if s.current != nil {
		s.current.close()
		s.current.dropFSCache()
		s.current = nil
	}

	size := s.opts.pageSize
	if minSize > size {
		size = minSize
	}
	if err := s.newPage(size); err != nil {
		s.log.Errorf("cannot create key rotation page: %v", err)
	}

	s.log.Infof("rotated encryption key %s -> %s", oldPrint, k.Fingerprint())
}

// SetDebug propagates a diagnostic verbosity level to every tracked page.
func (s *PageStore) SetDebug(dbg int) {
	s.debug = dbg
	for _, p := range s.pages {
		p.setDebug(dbg)
	}
}

// cleanupNeeded reports whether the pool is over its retention budget.
func (s *PageStore) cleanupNeeded() bool {
	return s.totalSize > s.opts.keepSize
}

// deleteFront retires the oldest page. It returns false without touching
// anything if that page still has buffers in use: a busy page at the front
// blocks eviction of newer drained pages behind it, a deliberate trade of
// retention efficiency for simplicity.
func (s *PageStore) deleteFront() bool {
	p := s.pages[0]
	if p.used > 0 {
		return false
	}

	s.pages = s.pages[1:]
	s.totalSize -= int64(p.Size())
	if s.current == p {
		s.current = nil
	}

	path := p.file.Path()
	if err := p.file.Close(); err != nil {
		s.log.Warnf("failed to unmap page: %v", err)
	}

	s.dispatchDelete(path)
	return true
}

// dispatchDelete hands the file removal to the single background worker
// slot. Starting a new removal waits for the previous one to complete,
// guaranteeing at most one outstanding removal and file deletion order
// matching eviction order. In detached mode the completion handle is
// discarded and the mutator never blocks.
func (s *PageStore) dispatchDelete(path string) {
	if !s.opts.detachedDeletes {
		s.joinDeleter()
	}

	done := make(chan error, 1)
	log := s.log
	go func() {
		err := os.Remove(path)
		if err != nil {
			log.Errorf("failed to remove page file %s: %v", path, err)
		} else {
			log.Infof("deleted page %s", path)
		}
		done <- err
	}()

	if !s.opts.detachedDeletes {
		s.deleteDone = done
	}
}

// joinDeleter waits for any in flight page file removal to finish.
func (s *PageStore) joinDeleter() {
	if s.deleteDone != nil {
		<-s.deleteDone
		s.deleteDone = nil
	}
}

// Cleanup evicts drained pages from the oldest end while the pool exceeds
// its retention budget. It stops at the first page with buffers still in
// use. The newest page is never evicted here: it is, or is about to become,
// the allocation target. Only Reset removes it.
func (s *PageStore) Cleanup() {
	for len(s.pages) > 1 && s.cleanupNeeded() && s.deleteFront() {
	}
}

// Reset attempts to drain and delete every page regardless of the retention
// budget. Pages with outstanding buffers cannot be deleted and remain in the
// pool; Close reports them as leaked.
func (s *PageStore) Reset() {
	for len(s.pages) > 0 && s.deleteFront() {
	}
}

// Close resets the store, joins the outstanding background removal and
// reports any pages that could not be deleted because buffers are still
// mapped. The leak is logged and returned, never fatal: shutdown proceeds.
func (s *PageStore) Close() error {
	s.Reset()
	s.joinDeleter()
	s.closed = true
	s.current = nil

	if len(s.pages) == 0 {
		return nil
	}

	s.log.Errorf("could not delete %d page files: some buffers are still mapped", len(s.pages))
	for _, p := range s.pages {
		s.log.Errorf("leaked %s", p)
	}
	return fmt.Errorf("%d %w", len(s.pages), ErrPagesLeaked)
}
