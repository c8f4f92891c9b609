package daterange

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staybook/internal/domain/shared/apperr"
)

func TestNew_NormalizesToDates(t *testing.T) {
	in := time.Date(2025, 9, 28, 15, 30, 0, 0, time.UTC)
	out := time.Date(2025, 10, 1, 11, 0, 0, 0, time.UTC)

	dr, err := New(in, out)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 9, 28, 0, 0, 0, 0, time.UTC), dr.CheckIn)
	assert.Equal(t, time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC), dr.CheckOut)
	assert.Equal(t, 3, dr.Nights())
}

func TestNew_RejectsEmptyAndInvertedRanges(t *testing.T) {
	day := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)

	_, err := New(day, day)
	assert.ErrorIs(t, err, ErrInvalidRange)
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	_, err = New(day, day.AddDate(0, 0, -1))
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = New(time.Time{}, day)
	assert.ErrorIs(t, err, ErrMissingDate)
}

func TestOverlaps_HalfOpen(t *testing.T) {
	a := MustParse("2025-09-28", "2025-10-01")

	assert.True(t, a.Overlaps(MustParse("2025-09-30", "2025-10-02")))
	assert.True(t, a.Overlaps(MustParse("2025-09-29", "2025-09-30")))
	assert.False(t, a.Overlaps(MustParse("2025-10-01", "2025-10-03")), "check-out day is free for the next check-in")
	assert.False(t, a.Overlaps(MustParse("2025-09-25", "2025-09-28")))
}

func TestMergeAndClip(t *testing.T) {
	a := MustParse("2025-10-01", "2025-10-03")
	b := MustParse("2025-10-03", "2025-10-05")

	merged, ok := a.Merge(b)
	require.True(t, ok)
	assert.Equal(t, MustParse("2025-10-01", "2025-10-05"), merged)

	_, ok = a.Merge(MustParse("2025-10-10", "2025-10-11"))
	assert.False(t, ok)

	clipped, ok := merged.Clip(MustParse("2025-10-02", "2025-10-31"))
	require.True(t, ok)
	assert.Equal(t, MustParse("2025-10-02", "2025-10-05"), clipped)
}

func TestContainsDate(t *testing.T) {
	dr := MustParse("2025-10-01", "2025-10-03")
	assert.True(t, dr.ContainsDate(time.Date(2025, 10, 2, 23, 0, 0, 0, time.UTC)))
	assert.False(t, dr.ContainsDate(time.Date(2025, 10, 3, 0, 0, 0, 0, time.UTC)))
}

func TestNights_CountsCalendarDaysOnLongRanges(t *testing.T) {
	dr := MustParse("2000-01-01", "2400-01-01")
	assert.Equal(t, 146097, dr.Nights())

	leap := MustParse("2024-02-28", "2024-03-01")
	assert.Equal(t, 2, leap.Nights())
}
