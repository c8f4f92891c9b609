package daterange

import (
	"time"

	"staybook/internal/domain/shared/apperr"
)

var (
	ErrInvalidRange = apperr.New(apperr.KindValidation, "daterange: check-out must be after check-in")
	ErrMissingDate  = apperr.New(apperr.KindValidation, "daterange: check-in and check-out are required")
)

const secondsPerDay = 24 * 60 * 60

// DateRange represents a half-open interval of calendar days [CheckIn, CheckOut).
// Both ends are kept at UTC midnight so a stay of N nights spans exactly N days.
type DateRange struct {
	CheckIn  time.Time
	CheckOut time.Time
}

// New normalizes both ends to calendar dates and validates the range.
func New(checkIn, checkOut time.Time) (DateRange, error) {
	if checkIn.IsZero() || checkOut.IsZero() {
		return DateRange{}, ErrMissingDate
	}
	dr := DateRange{CheckIn: Date(checkIn), CheckOut: Date(checkOut)}
	if err := dr.Validate(); err != nil {
		return DateRange{}, err
	}
	return dr, nil
}

// MustParse builds a range from YYYY-MM-DD strings and panics on error; useful in tests and fixtures.
func MustParse(checkIn, checkOut string) DateRange {
	in, err := time.Parse(time.DateOnly, checkIn)
	if err != nil {
		panic(err)
	}
	out, err := time.Parse(time.DateOnly, checkOut)
	if err != nil {
		panic(err)
	}
	dr, err := New(in, out)
	if err != nil {
		panic(err)
	}
	return dr
}

// Date truncates t to midnight UTC of its calendar day in t's own location.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (dr DateRange) Validate() error {
	if dr.CheckOut.IsZero() || dr.CheckIn.IsZero() {
		return ErrMissingDate
	}
	if !dr.CheckOut.After(dr.CheckIn) {
		return ErrInvalidRange
	}
	return nil
}

// Nights counts calendar days on unix seconds; time.Duration saturates
// beyond roughly 292 years.
func (dr DateRange) Nights() int {
	return int((dr.CheckOut.Unix() - dr.CheckIn.Unix()) / secondsPerDay)
}

// Overlaps is the half-open overlap test: a check-out on another range's
// check-in day does not overlap.
func (dr DateRange) Overlaps(other DateRange) bool {
	return dr.CheckIn.Before(other.CheckOut) && other.CheckIn.Before(dr.CheckOut)
}

func (dr DateRange) Contains(other DateRange) bool {
	return !other.CheckIn.Before(dr.CheckIn) && !other.CheckOut.After(dr.CheckOut)
}

func (dr DateRange) ContainsDate(t time.Time) bool {
	t = Date(t)
	return !t.Before(dr.CheckIn) && t.Before(dr.CheckOut)
}

func (dr DateRange) Adjacent(other DateRange) bool {
	return dr.CheckOut.Equal(other.CheckIn) || dr.CheckIn.Equal(other.CheckOut)
}

func (dr DateRange) Merge(other DateRange) (DateRange, bool) {
	if !(dr.Overlaps(other) || dr.Adjacent(other)) {
		return DateRange{}, false
	}
	start := dr.CheckIn
	if other.CheckIn.Before(start) {
		start = other.CheckIn
	}
	end := dr.CheckOut
	if other.CheckOut.After(end) {
		end = other.CheckOut
	}
	return DateRange{CheckIn: start, CheckOut: end}, true
}

// Clip returns the part of dr inside window.
func (dr DateRange) Clip(window DateRange) (DateRange, bool) {
	if !dr.Overlaps(window) {
		return DateRange{}, false
	}
	out := dr
	if out.CheckIn.Before(window.CheckIn) {
		out.CheckIn = window.CheckIn
	}
	if out.CheckOut.After(window.CheckOut) {
		out.CheckOut = window.CheckOut
	}
	return out, true
}
