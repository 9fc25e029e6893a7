package timeexpr

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Wednesday, 2026-03-11 14:20 UTC
var now = time.Date(2026, 3, 11, 14, 20, 0, 0, time.UTC)

func at(y int, m time.Month, d, h, min int) time.Time {
	return time.Date(y, m, d, h, min, 0, 0, time.UTC)
}

func TestParse_Exact(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want time.Time
	}{
		{"tomorrow at bare hour", "tomorrow at 7", at(2026, 3, 12, 19, 0)},
		{"tomorrow with pm", "Tomorrow 7pm", at(2026, 3, 12, 19, 0)},
		{"clock with minutes", "tomorrow at 19:30", at(2026, 3, 12, 19, 30)},
		{"dotted meridiem", "tomorrow at 8 p.m.", at(2026, 3, 12, 20, 0)},
		{"am stays morning", "tomorrow 9am", at(2026, 3, 12, 9, 0)},
		{"noon", "friday at noon", at(2026, 3, 13, 12, 0)},
		{"weekday", "saturday 8:15pm", at(2026, 3, 14, 20, 15)},
		{"next same weekday", "next wednesday at 6", at(2026, 3, 18, 18, 0)},
		{"iso date", "2026-04-02 at 18:00", at(2026, 4, 2, 18, 0)},
		{"slash date", "4/2 at 6pm", at(2026, 4, 2, 18, 0)},
		{"time only later today", "at 8", at(2026, 3, 11, 20, 0)},
		{"time only already passed rolls over", "at 11:00", at(2026, 3, 12, 11, 0)},
		{"tonight late", "tonight at 11", at(2026, 3, 11, 23, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Parse(tt.in, now)
			require.True(t, ok)
			assert.True(t, got.Exact)
			assert.Equal(t, tt.want, got.Start)
			assert.Equal(t, got.Start, got.End)
		})
	}
}

func TestParse_Window(t *testing.T) {
	t.Run("whole future day", func(t *testing.T) {
		got, ok := Parse("tomorrow", now)
		require.True(t, ok)
		assert.False(t, got.Exact)
		assert.Equal(t, at(2026, 3, 12, 0, 0), got.Start)
		assert.Equal(t, at(2026, 3, 13, 0, 0), got.End)
	})

	t.Run("today starts now", func(t *testing.T) {
		got, ok := Parse("today", now)
		require.True(t, ok)
		assert.Equal(t, at(2026, 3, 11, 14, 20), got.Start)
		assert.Equal(t, at(2026, 3, 12, 0, 0), got.End)
	})

	t.Run("tonight starts in the evening", func(t *testing.T) {
		got, ok := Parse("something tonight", now)
		require.True(t, ok)
		assert.Equal(t, at(2026, 3, 11, EveningStartHour, 0), got.Start)
	})
}

func TestParse_NoCue(t *testing.T) {
	for _, in := range []string{"", "a table for 2", "italian please", "party of 4"} {
		t.Run(in, func(t *testing.T) {
			_, ok := Parse(in, now)
			assert.False(t, ok)
		})
	}
}

func TestParse_InvalidClockKeepsDate(t *testing.T) {
	got, ok := Parse("tomorrow around 25:00", now)
	require.True(t, ok)
	assert.False(t, got.Exact)
	assert.Equal(t, at(2026, 3, 12, 0, 0), got.Start)
}

func TestHasCue(t *testing.T) {
	assert.True(t, HasCue("book for 2 tomorrow"))
	assert.False(t, HasCue("book for 2"))
}
