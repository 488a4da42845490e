// Package gcache implements the overflow page store backing the write-set
// cache of a replicating database node. When the faster in-memory and ring
// file tiers cannot satisfy an allocation, buffers are placed in a sequence
// of memory mapped page files. Each page is a bump pointer arena: space is
// only ever consumed, individual buffers are marked released but the bytes
// are reclaimed by deleting whole drained pages from the oldest end of the
// pool.
//
// The PageStore is not internally synchronized. The enclosing cache is
// expected to serialize the mutating operations; the only concurrent work
// the store itself starts is the background removal of retired page files.
package gcache
