package gcache

import (
	"fmt"
	"io"

	"github.com/datatrails/go-datatrails-common/logger"

	"github.com/WilliamDEdwards/galera/gcache/mmapfile"
)

// Page is one memory mapped backing file used as a bump pointer arena. Space
// only ever shrinks and the cursor only ever advances; buffers are never
// reclaimed individually. Once a page fails an allocation it is closed and
// accepts no further first time allocations, though buffers already issued
// from it remain valid until released.
type Page struct {
	log    *logger.WrappedLogger
	ps     *PageStore // back reference to the owning pool, nil in tests
	seq    uint32
	file   *mmapfile.File
	key    EncKey
	nonce  Nonce
	next   int // offset of the next allocation
	space  int // bytes remaining
	used   int // buffers currently in use
	closed bool
	debug  int
}

// newPage creates and maps the backing file for a page of at least the
// requested size, rounded up to the slot alignment, and writes the nonce at
// the head of the mapping. The nonce block is the first consumer of the
// page's space.
func newPage(log *logger.WrappedLogger, ps *PageStore, seq uint32, path string,
	nonce Nonce, key EncKey, size int, debug int) (*Page, error) {

	f, err := mmapfile.Create(path, int64(alignUp(size)))
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}

	p := &Page{
		log:   log,
		ps:    ps,
		seq:   seq,
		file:  f,
		key:   key,
		nonce: nonce,
		debug: debug,
	}

	nonceSize := alignUp(p.nonce.Read(f.Data()))
	p.next = nonceSize
	p.space = int(f.Size()) - nonceSize

	p.log.Infof("created page %s of size %d bytes", path, p.space)

	return p, nil
}

func (p *Page) Name() string { return p.file.Path() }

// Size returns the mapped size of the page.
func (p *Page) Size() int { return int(p.file.Size()) }

// Used returns the count of buffers currently in use.
func (p *Page) Used() int { return p.used }

// alloc bump allocates a slot of slotSize bytes (header included) and writes
// a fresh header for it. It returns nil when the page cannot fit the slot;
// that is the normal page full signal, not an error, and it closes the page
// so this one is never probed again for new data.
func (p *Page) alloc(slotSize int) *Buffer {
	if err := checkSize(slotSize); err != nil {
		p.log.Errorf("alloc rejected by %s: %v", p.Name(), err)
		return nil
	}

	alloc := alignUp(slotSize)

	if p.closed || alloc > p.space {
		p.close()
		p.log.Debugf("failed to allocate %d bytes in %s, space left: %d bytes, total allocated: %d",
			slotSize, p.Name(), p.space, p.next)
		return nil
	}

	off := p.next
	p.next += alloc
	p.space -= alloc
	p.used++

	h := bufferHeader(p.file.Data()[off:])
	h.clear()
	h.setSize(alloc)
	h.setPageSeq(p.seq)
	h.setSeqno(SeqnoNone)

	if p.debug > 0 {
		p.log.Infof("%s allocd %d/%d", p.Name(), slotSize, alloc)
	}

	return &Buffer{page: p, off: off}
}

// close writes the zero size sentinel header immediately after the last
// allocation so a recovery scan of the file knows where the valid record
// chain ends. The page accepts no further first time allocations.
func (p *Page) close() {
	if p.closed {
		return
	}
	p.closed = true

	if p.space >= BufferHeaderSize {
		bufferHeader(p.file.Data()[p.next:]).clear()
	}
	if err := p.file.Sync(); err != nil {
		p.log.Warnf("failed to sync closed page: %v", err)
	}
}

// releaseSlot records that one buffer issued from this page is no longer in
// use. The counter saturates at zero: an extra release indicates a lifetime
// tracking bug upstream and is logged, never allowed to corrupt the count.
func (p *Page) releaseSlot() {
	if p.used == 0 {
		p.log.Errorf("buffer release on drained page %s", p.Name())
		return
	}
	p.used--
}

// realloc always fails: growing in place is structurally impossible in a
// bump allocator. All grow logic lives in PageStore.
func (p *Page) realloc(b *Buffer, size int) *Buffer {
	return nil
}

// reset restores the page to a fresh allocatable state, re-serializing the
// same nonce at the head of the mapping. It is only valid on a drained page;
// resetting a page with buffers in use is an unrecoverable lifetime bug and
// aborts rather than risk corrupting a live mapping.
func (p *Page) reset() {
	if p.used > 0 {
		p.log.Errorf("attempt to reset page %s used by %d buffers, aborting", p.Name(), p.used)
		panic(fmt.Sprintf("gcache: reset of page %s with %d buffers in use", p.Name(), p.used))
	}

	nonceSize := alignUp(p.nonce.Read(p.file.Data()))
	p.next = nonceSize
	p.space = int(p.file.Size()) - nonceSize
	p.closed = false
}

// dropFSCache asks the OS to drop this page's mapping and file cache. Best
// effort: failure bounds resident memory less well but harms nothing else.
func (p *Page) dropFSCache() {
	if err := p.file.DontNeed(); err != nil {
		p.log.Warnf("failed to drop fs cache: %v", err)
	}
}

func (p *Page) setDebug(dbg int) { p.debug = dbg }

func (p *Page) String() string {
	return fmt.Sprintf("page file: %s, size: %d, used: %d", p.Name(), p.Size(), p.used)
}

// Describe writes a diagnostic dump of the page to w: the summary line and,
// at debug verbosity, every live header in the record chain with runs of
// released slots collapsed to an elision marker.
func (p *Page) Describe(w io.Writer) {
	fmt.Fprint(w, p.String())

	if p.used == 0 || p.debug == 0 {
		return
	}

	data := p.file.Data()
	wasReleased := true
	for off := alignUp(NonceSize); off != p.next; {
		h := bufferHeader(data[off:])
		if h.isSentinel() {
			break
		}
		end := off + h.size()
		if !h.released() {
			fmt.Fprintf(w, "\noff: %d, size: %d, seqno: %d", off, h.size(), h.seqno())
			wasReleased = false
		} else {
			if !wasReleased && end != p.next {
				fmt.Fprint(w, "\n...")
			}
			wasReleased = true
		}
		off = end
	}
}
