package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageMeta(t *testing.T) {
	tests := []struct {
		name       string
		count      int
		offset     int
		total      *int
		nextOffset *int
		isFirst    *bool
		isLast     *bool
	}{
		{
			name:  "first page of known total",
			count: 2, offset: 0, total: intp(4),
			nextOffset: intp(2),
			isFirst:    boolp(true), isLast: boolp(false),
		},
		{
			name:  "last partial page of known total",
			count: 1, offset: 3, total: intp(4),
			nextOffset: nil,
			isFirst:    boolp(false), isLast: boolp(true),
		},
		{
			name:  "exactly consumed total",
			count: 2, offset: 2, total: intp(4),
			nextOffset: nil,
			isFirst:    boolp(false), isLast: boolp(true),
		},
		{
			name:  "single full page",
			count: 4, offset: 0, total: intp(4),
			nextOffset: nil,
			isFirst:    boolp(true), isLast: boolp(true),
		},
		{
			name:  "unknown total reports blind next offset",
			count: 2, offset: 2, total: nil,
			nextOffset: intp(4),
			isFirst:    nil, isLast: nil,
		},
		{
			name:  "empty result with known total",
			count: 0, offset: 0, total: intp(0),
			nextOffset: nil,
			isFirst:    boolp(true), isLast: boolp(true),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta := pageMeta(tt.count, tt.offset, tt.total)

			assert.Equal(t, tt.count, meta.Count)
			assert.Equal(t, tt.offset, meta.Offset)
			assert.Equal(t, tt.nextOffset, meta.NextOffset)
			assert.Equal(t, tt.isFirst, meta.IsFirst)
			assert.Equal(t, tt.isLast, meta.IsLast)

			if meta.IsLast != nil {
				// isLast is true exactly when nextOffset is null.
				require.Equal(t, meta.NextOffset == nil, *meta.IsLast)
			}
		})
	}
}

func boolp(v bool) *bool { return &v }
