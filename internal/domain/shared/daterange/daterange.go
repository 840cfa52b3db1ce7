package daterange

import (
	"sort"
	"time"

	"alxtravel/internal/domain/shared/fault"
)

const secondsPerDay = 24 * 60 * 60

// DateLayout is the wire form of a calendar date.
const DateLayout = "2006-01-02"

var (
	ErrInvalidRange    = fault.New(fault.InvalidArgument, "daterange: checkout must be after checkin")
	ErrNotCalendarDate = fault.New(fault.InvalidArgument, "daterange: bounds must be whole calendar dates")
)

// DateRange represents a half-open interval [checkIn, checkOut)
type DateRange struct {
	CheckIn  time.Time
	CheckOut time.Time
}

func New(checkIn, checkOut time.Time) (DateRange, error) {
	dr := DateRange{CheckIn: checkIn.UTC(), CheckOut: checkOut.UTC()}
	if err := dr.Validate(); err != nil {
		return DateRange{}, err
	}
	return dr, nil
}

// NewDates is New plus the requirement that both bounds fall on UTC midnight.
func NewDates(checkIn, checkOut time.Time) (DateRange, error) {
	dr, err := New(checkIn, checkOut)
	if err != nil {
		return DateRange{}, err
	}
	if !IsCalendarDate(dr.CheckIn) || !IsCalendarDate(dr.CheckOut) {
		return DateRange{}, ErrNotCalendarDate
	}
	return dr, nil
}

// Parse reads two YYYY-MM-DD strings into a calendar range.
func Parse(checkIn, checkOut string) (DateRange, error) {
	in, err := time.Parse(DateLayout, checkIn)
	if err != nil {
		return DateRange{}, fault.Wrap(fault.InvalidArgument, err, "daterange: check-in")
	}
	out, err := time.Parse(DateLayout, checkOut)
	if err != nil {
		return DateRange{}, fault.Wrap(fault.InvalidArgument, err, "daterange: check-out")
	}
	return NewDates(in, out)
}

func (dr DateRange) Validate() error {
	if dr.CheckOut.IsZero() || dr.CheckIn.IsZero() {
		return ErrInvalidRange
	}
	if !dr.CheckOut.After(dr.CheckIn) {
		return ErrInvalidRange
	}
	return nil
}

// IsCalendarDate reports whether t sits exactly on a UTC day boundary.
func IsCalendarDate(t time.Time) bool {
	t = t.UTC()
	return t.Equal(Truncate(t))
}

// Truncate drops the time of day in UTC.
func Truncate(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Nights counts whole days; ok is false when the range does not span an integral number of days.
// Counting on Unix seconds keeps ranges longer than a time.Duration exact.
func (dr DateRange) Nights() (nights int, ok bool) {
	if dr.CheckIn.Nanosecond() != dr.CheckOut.Nanosecond() {
		return 0, false
	}
	secs := dr.CheckOut.Unix() - dr.CheckIn.Unix()
	if secs <= 0 || secs%secondsPerDay != 0 {
		return 0, false
	}
	return int(secs / secondsPerDay), true
}

func (dr DateRange) Overlaps(other DateRange) bool {
	return dr.CheckIn.Before(other.CheckOut) && other.CheckIn.Before(dr.CheckOut)
}

func (dr DateRange) String() string {
	return "[" + dr.CheckIn.Format(DateLayout) + "," + dr.CheckOut.Format(DateLayout) + ")"
}

// Gaps returns the maximal sub-ranges of window not covered by any of taken, in ascending order.
func Gaps(window DateRange, taken []DateRange) []DateRange {
	covered := make([]DateRange, 0, len(taken))
	for _, r := range taken {
		if r.Overlaps(window) {
			covered = append(covered, r)
		}
	}
	sort.Slice(covered, func(i, j int) bool {
		return covered[i].CheckIn.Before(covered[j].CheckIn)
	})

	free := make([]DateRange, 0, len(covered)+1)
	cursor := window.CheckIn
	for _, r := range covered {
		if r.CheckIn.After(cursor) {
			free = append(free, DateRange{CheckIn: cursor, CheckOut: r.CheckIn})
		}
		if r.CheckOut.After(cursor) {
			cursor = r.CheckOut
		}
		if !cursor.Before(window.CheckOut) {
			return free
		}
	}
	if cursor.Before(window.CheckOut) {
		free = append(free, DateRange{CheckIn: cursor, CheckOut: window.CheckOut})
	}
	return free
}
