package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultDayAvailability(t *testing.T) {
	sunday := DefaultDayAvailability(time.Sunday)
	assert.False(t, sunday.Enabled)

	for wd := time.Monday; wd <= time.Saturday; wd++ {
		day := DefaultDayAvailability(wd)
		require.True(t, day.Enabled, "weekday %s", wd)
		require.Len(t, day.Work, 1)
		require.Len(t, day.Personal, 1)
		assert.Equal(t, TimeWindow{Start: "09:00", End: "17:00"}, day.Work[0])
		assert.Equal(t, TimeWindow{Start: "17:00", End: "21:00"}, day.Personal[0])
	}
}

func TestResolveFallsBackPerWeekday(t *testing.T) {
	stored := WeekAvailability{
		time.Monday: {Enabled: true, Work: []TimeWindow{{Start: "10:00", End: "12:00"}}},
	}

	monday := stored.Resolve(time.Monday)
	require.Len(t, monday.Work, 1)
	assert.Equal(t, "10:00", monday.Work[0].Start)
	// Stored entries replace the default wholesale: no personal windows.
	assert.Empty(t, monday.Personal)

	tuesday := stored.Resolve(time.Tuesday)
	assert.True(t, tuesday.Enabled)
	require.Len(t, tuesday.Work, 1)
	assert.Equal(t, "09:00", tuesday.Work[0].Start)
}

func TestResolveNilStorage(t *testing.T) {
	var stored WeekAvailability

	assert.True(t, stored.Resolve(time.Wednesday).Enabled)
	assert.False(t, stored.Resolve(time.Sunday).Enabled)
}

func TestWindowClip(t *testing.T) {
	day := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)

	start, end, ok := TimeWindow{Start: "09:00", End: "17:00"}.Clip(day, time.UTC)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, 1, 5, 17, 0, 0, 0, time.UTC), end)

	_, _, ok = TimeWindow{Start: "17:00", End: "09:00"}.Clip(day, time.UTC)
	assert.False(t, ok, "inverted window")

	_, _, ok = TimeWindow{Start: "morning", End: "17:00"}.Clip(day, time.UTC)
	assert.False(t, ok, "unparsable window")
}

func TestParseClock(t *testing.T) {
	h, m, ok := ParseClock("09:30")
	require.True(t, ok)
	assert.Equal(t, 9, h)
	assert.Equal(t, 30, m)

	_, _, ok = ParseClock("25:00")
	assert.False(t, ok)
	_, _, ok = ParseClock("")
	assert.False(t, ok)
}
