package bot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tazhate/planbot/internal/domain"
)

func TestParseAddArgs(t *testing.T) {
	title, est, due, goalID, err := parseAddArgs("Prepare quarterly report due:2026-09-01 est:45 goal:g1")
	require.NoError(t, err)
	assert.Equal(t, "Prepare quarterly report", title)
	assert.Equal(t, 45, est)
	assert.Equal(t, "2026-09-01", due)
	assert.Equal(t, "g1", goalID)

	// Tokens may sit anywhere in the text.
	title, est, due, goalID, err = parseAddArgs("due:2026-09-01 Call the dentist")
	require.NoError(t, err)
	assert.Equal(t, "Call the dentist", title)
	assert.Equal(t, 0, est)
	assert.Equal(t, "2026-09-01", due)
	assert.Equal(t, "", goalID)

	title, _, due, _, err = parseAddArgs("Plain title")
	require.NoError(t, err)
	assert.Equal(t, "Plain title", title)
	assert.Equal(t, "", due)
}

func TestParseAddArgsRejectsBadTokens(t *testing.T) {
	_, _, _, _, err := parseAddArgs("Report due:tomorrow")
	assert.Error(t, err)

	_, _, _, _, err = parseAddArgs("Report est:soon")
	assert.Error(t, err)

	_, _, _, _, err = parseAddArgs("Report est:-5")
	assert.Error(t, err)
}

func TestParseWeekday(t *testing.T) {
	wd, ok := parseWeekday("mon")
	require.True(t, ok)
	assert.Equal(t, time.Monday, wd)

	wd, ok = parseWeekday("Sunday")
	require.True(t, ok)
	assert.Equal(t, time.Sunday, wd)

	_, ok = parseWeekday("someday")
	assert.False(t, ok)
}

func TestParseWindow(t *testing.T) {
	w, ok := parseWindow("09:00-17:00")
	require.True(t, ok)
	assert.Equal(t, domain.TimeWindow{Start: "09:00", End: "17:00"}, w)

	_, ok = parseWindow("09:00")
	assert.False(t, ok)

	_, ok = parseWindow("17:00-09:00")
	assert.False(t, ok, "inverted windows are rejected")

	_, ok = parseWindow("25:00-26:00")
	assert.False(t, ok)
}
