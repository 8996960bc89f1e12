package services

import (
	"testing"
	"time"
)

func TestElapsedMS(t *testing.T) {
	anchor := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		name string
		now  time.Time
		want int64
	}{
		{
			name: "five_seconds_later",
			now:  anchor.Add(5 * time.Second),
			want: 5000,
		},
		{
			name: "same_instant",
			now:  anchor,
			want: 0,
		},
		{
			name: "clock_skew_clamps_to_zero",
			now:  anchor.Add(-3 * time.Second),
			want: 0,
		},
		{
			name: "sub_millisecond_truncates",
			now:  anchor.Add(1500 * time.Microsecond),
			want: 1,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ElapsedMS(anchor, tc.now)
			if got != tc.want {
				t.Fatalf("ElapsedMS=%d, want %d", got, tc.want)
			}
		})
	}
}

func TestPlaybackPositionMS(t *testing.T) {
	anchor := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		name     string
		offsetMS int64
		isPaused bool
		now      time.Time
		want     int64
	}{
		{
			name:     "playing_advances",
			offsetMS: 1000,
			now:      anchor.Add(4 * time.Second),
			want:     5000,
		},
		{
			name:     "paused_frozen",
			offsetMS: 1000,
			isPaused: true,
			now:      anchor.Add(4 * time.Second),
			want:     1000,
		},
		{
			name:     "negative_offset_clamped",
			offsetMS: -500,
			now:      anchor.Add(2 * time.Second),
			want:     2000,
		},
		{
			name:     "skewed_clock_holds_position",
			offsetMS: 7000,
			now:      anchor.Add(-10 * time.Second),
			want:     7000,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := PlaybackPositionMS(anchor, tc.offsetMS, tc.isPaused, tc.now)
			if got != tc.want {
				t.Fatalf("PlaybackPositionMS=%d, want %d", got, tc.want)
			}
		})
	}
}
