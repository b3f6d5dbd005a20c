package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLockoutDurationEscalates(t *testing.T) {
	tests := []struct {
		escalations int32
		want        time.Duration
	}{
		{escalations: -1, want: time.Minute},
		{escalations: 0, want: time.Minute},
		{escalations: 1, want: 5 * time.Minute},
		{escalations: 2, want: 15 * time.Minute},
		{escalations: 3, want: 30 * time.Minute},
		{escalations: 4, want: time.Hour},
		{escalations: 5, want: time.Hour},
		{escalations: 100, want: time.Hour},
	}

	for _, tc := range tests {
		require.Equal(t, tc.want, LockoutDuration(tc.escalations), "escalations=%d", tc.escalations)
	}
}
