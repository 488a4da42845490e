package gcache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckSize(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		wantErr bool
	}{
		{"bare header slot", BufferHeaderSize, false},
		{"small", 4096, false},
		{"at the limit", MaxAllocation, false},
		{"over the limit", MaxAllocation + 1, true},
		{"smaller than its own header", BufferHeaderSize - 1, true},
		{"zero", 0, true},
		{"negative", -1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkSize(tt.size)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrAllocTooBig)
				return
			}
			require.NoError(t, err)
		})
	}
}
