package domain

import (
	"fmt"
	"math/bits"
	"time"

	"cloud.google.com/go/civil"
)

// WeekdayCode is the single-letter day code persisted in delivery_days.
// Thursday is R and Sunday is U so that every code is unique.
type WeekdayCode string

const (
	Sunday    WeekdayCode = "U"
	Monday    WeekdayCode = "M"
	Tuesday   WeekdayCode = "T"
	Wednesday WeekdayCode = "W"
	Thursday  WeekdayCode = "R"
	Friday    WeekdayCode = "F"
	Saturday  WeekdayCode = "S"
)

// indexed by time.Weekday
var weekdayCodes = [7]WeekdayCode{Sunday, Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

// ParseWeekdayCode validates a stored code.
func ParseWeekdayCode(s string) (WeekdayCode, error) {
	for _, c := range weekdayCodes {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidWeekdayCode, s)
}

// Weekday maps the code back to its time.Weekday (Sun=0 ... Sat=6).
func (c WeekdayCode) Weekday() (time.Weekday, error) {
	for i, code := range weekdayCodes {
		if code == c {
			return time.Weekday(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidWeekdayCode, string(c))
}

// WeekdayCodeOf maps a time.Weekday to its code.
func WeekdayCodeOf(wd time.Weekday) (WeekdayCode, error) {
	if wd < time.Sunday || wd > time.Saturday {
		return "", fmt.Errorf("%w: weekday %d", ErrInvalidWeekdayCode, int(wd))
	}
	return weekdayCodes[wd], nil
}

// WeekdayOf returns the code of the weekday the date falls on.
func WeekdayOf(d civil.Date) WeekdayCode {
	return weekdayCodes[d.In(time.UTC).Weekday()]
}

// WeekdaySet is a set of delivery weekdays.
type WeekdaySet struct {
	mask uint8
}

// NewWeekdaySet builds a set from known codes. Unknown codes are ignored; use
// ParseWeekdaySet for stored input.
func NewWeekdaySet(codes ...WeekdayCode) WeekdaySet {
	var s WeekdaySet
	for _, c := range codes {
		if wd, err := c.Weekday(); err == nil {
			s.mask |= 1 << uint(wd)
		}
	}
	return s
}

// ParseWeekdaySet validates a delivery_days value. Duplicate codes are rejected
// because they would make the set smaller than the stored list.
func ParseWeekdaySet(codes []string) (WeekdaySet, error) {
	var s WeekdaySet
	for _, raw := range codes {
		c, err := ParseWeekdayCode(raw)
		if err != nil {
			return WeekdaySet{}, err
		}
		wd, _ := c.Weekday()
		bit := uint8(1) << uint(wd)
		if s.mask&bit != 0 {
			return WeekdaySet{}, fmt.Errorf("%w: duplicate %q", ErrInvalidWeekdayCode, raw)
		}
		s.mask |= bit
	}
	return s, nil
}

func (s WeekdaySet) Len() int {
	return bits.OnesCount8(s.mask)
}

func (s WeekdaySet) IsEmpty() bool {
	return s.mask == 0
}

func (s WeekdaySet) Contains(wd time.Weekday) bool {
	return s.mask&(1<<uint(wd)) != 0
}

// Includes reports whether the date falls on one of the set's weekdays.
func (s WeekdaySet) Includes(d civil.Date) bool {
	return s.Contains(d.In(time.UTC).Weekday())
}

// Codes returns the codes in Sunday-first order.
func (s WeekdaySet) Codes() []WeekdayCode {
	codes := make([]WeekdayCode, 0, s.Len())
	for i, c := range weekdayCodes {
		if s.Contains(time.Weekday(i)) {
			codes = append(codes, c)
		}
	}
	return codes
}

// Strings returns the persisted form of the set.
func (s WeekdaySet) Strings() []string {
	codes := s.Codes()
	out := make([]string, len(codes))
	for i, c := range codes {
		out[i] = string(c)
	}
	return out
}

// HolidaySet holds active holiday dates.
type HolidaySet map[civil.Date]struct{}

func NewHolidaySet(dates ...civil.Date) HolidaySet {
	set := make(HolidaySet, len(dates))
	for _, d := range dates {
		set[d] = struct{}{}
	}
	return set
}

func (h HolidaySet) Contains(d civil.Date) bool {
	_, ok := h[d]
	return ok
}

// Dates returns the holidays in no particular order.
func (h HolidaySet) Dates() []civil.Date {
	out := make([]civil.Date, 0, len(h))
	for d := range h {
		out = append(out, d)
	}
	return out
}

// DateRange is an inclusive range; a zero bound is open.
type DateRange struct {
	From civil.Date
	To   civil.Date
}

func (r DateRange) Contains(d civil.Date) bool {
	if r.From.IsValid() && d.Before(r.From) {
		return false
	}
	if r.To.IsValid() && d.After(r.To) {
		return false
	}
	return true
}

// Today is the calendar date of now in now's location.
func Today(now time.Time) civil.Date {
	return civil.DateOf(now)
}

// IsHoliday reports whether d is in the holiday set.
func IsHoliday(d civil.Date, holidays HolidaySet) bool {
	return holidays.Contains(d)
}

// IsPast reports whether d is before today. Today itself is not past.
func IsPast(d civil.Date, now time.Time) bool {
	return d.Before(Today(now))
}

// DaysBetweenInclusive counts the days in [a, b].
func DaysBetweenInclusive(a, b civil.Date) (int, error) {
	if b.Before(a) {
		return 0, fmt.Errorf("%w: %s is before %s", ErrInvalidRange, b, a)
	}
	return b.DaysSince(a) + 1, nil
}

// StartOfDay is midnight of d in loc.
func StartOfDay(d civil.Date, loc *time.Location) time.Time {
	return d.In(loc)
}

func minDate(a, b civil.Date) civil.Date {
	if b.Before(a) {
		return b
	}
	return a
}
