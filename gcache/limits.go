package gcache

import "fmt"

// MaxAllocation is the engine wide ceiling on a single buffer slot,
// including its header. The on page size field is 32 bits and downstream
// consumers treat sizes as signed, so the limit is the largest positive
// int32 value.
const MaxAllocation = 1<<31 - 1

// checkSize validates a slot size against the engine limits. A slot must at
// least hold its own header and may not exceed MaxAllocation, so negative
// and undersized payload requests fail here before any page is touched.
func checkSize(size int) error {
	if size < BufferHeaderSize || size > MaxAllocation {
		return fmt.Errorf("slot size %d: %w", size, ErrAllocTooBig)
	}
	return nil
}
