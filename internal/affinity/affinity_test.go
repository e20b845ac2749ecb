package affinity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapCore(t *testing.T) {
	l := Layout{CoreCount: 28}
	tests := []struct{ idx, want int }{
		{0, 0}, {1, 28}, {2, 2}, {3, 30}, {4, 4}, {5, 32},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, l.MapCore(tt.idx), "idx %d", tt.idx)
	}
}

func TestMapCoreNUMA(t *testing.T) {
	l := Layout{CoreCount: 28, NUMA: true}
	tests := []struct{ idx, want int }{
		{0, 0}, {4, 2}, {8, 4},
		{1, 28}, {5, 30}, {9, 32},
		{2, 1}, {6, 3}, {10, 5},
		{3, 29}, {7, 31}, {11, 33},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, l.MapCore(tt.idx), "idx %d", tt.idx)
	}
}
