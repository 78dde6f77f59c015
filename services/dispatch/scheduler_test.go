package dispatch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextRun(t *testing.T) {
	loc := time.UTC

	tests := []struct {
		name string
		now  time.Time
		at   string
		want time.Time
	}{
		{
			name: "later today",
			now:  time.Date(2025, 3, 10, 9, 30, 0, 0, loc),
			at:   "12:00",
			want: time.Date(2025, 3, 10, 12, 0, 0, 0, loc),
		},
		{
			name: "already passed rolls to tomorrow",
			now:  time.Date(2025, 3, 10, 13, 0, 0, 0, loc),
			at:   "12:00",
			want: time.Date(2025, 3, 11, 12, 0, 0, 0, loc),
		},
		{
			name: "exactly at firing time rolls to tomorrow",
			now:  time.Date(2025, 3, 10, 12, 0, 0, 0, loc),
			at:   "12:00",
			want: time.Date(2025, 3, 11, 12, 0, 0, 0, loc),
		},
		{
			name: "month boundary",
			now:  time.Date(2025, 3, 31, 23, 0, 0, 0, loc),
			at:   "12:00",
			want: time.Date(2025, 4, 1, 12, 0, 0, 0, loc),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := nextRun(tc.now, tc.at)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNextRun_InvalidTime(t *testing.T) {
	_, err := nextRun(time.Now(), "noonish")
	assert.Error(t, err)
}
