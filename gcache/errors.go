package gcache

import "errors"

var (
	ErrAllocTooBig = errors.New("allocation exceeds the global single buffer limit")
	ErrPagesLeaked = errors.New("page files could not be deleted: some buffers are still mapped")
	ErrStoreClosed = errors.New("the page store is closed")
	ErrBadPageName = errors.New("the file name does not follow the page naming scheme")
)
