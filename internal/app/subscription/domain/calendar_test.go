package domain

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) civil.Date {
	return civil.Date{Year: y, Month: m, Day: d}
}

func TestWeekdayOf_UsesStoredAlphabet(t *testing.T) {
	// 2024-01-07 is a Sunday
	expected := []WeekdayCode{"U", "M", "T", "W", "R", "F", "S"}
	for i, code := range expected {
		assert.Equal(t, code, WeekdayOf(date(2024, 1, 7+i)))
	}
}

func TestWeekdayCode_RoundTrip(t *testing.T) {
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		code, err := WeekdayCodeOf(wd)
		require.NoError(t, err)
		back, err := code.Weekday()
		require.NoError(t, err)
		assert.Equal(t, wd, back)
	}

	_, err := WeekdayCode("X").Weekday()
	assert.ErrorIs(t, err, ErrInvalidWeekdayCode)

	for _, wd := range []time.Weekday{-1, 7} {
		_, err = WeekdayCodeOf(wd)
		assert.ErrorIs(t, err, ErrInvalidWeekdayCode)
	}
}

func TestParseWeekdaySet(t *testing.T) {
	testCases := []struct {
		name    string
		codes   []string
		want    []string
		wantErr error
	}{
		{name: "canonical order", codes: []string{"F", "M", "W"}, want: []string{"M", "W", "F"}},
		{name: "thursday and sunday", codes: []string{"R", "U"}, want: []string{"U", "R"}},
		{name: "empty", codes: nil, want: []string{}},
		{name: "unknown code", codes: []string{"M", "H"}, wantErr: ErrInvalidWeekdayCode},
		{name: "lowercase rejected", codes: []string{"m"}, wantErr: ErrInvalidWeekdayCode},
		{name: "duplicate", codes: []string{"M", "M"}, wantErr: ErrInvalidWeekdayCode},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			set, err := ParseWeekdaySet(tc.codes)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, set.Strings())
			assert.Equal(t, len(tc.want), set.Len())
		})
	}
}

func TestWeekdaySet_Includes(t *testing.T) {
	set := NewWeekdaySet(Monday, Thursday)

	assert.True(t, set.Includes(date(2024, 1, 1)))  // Monday
	assert.False(t, set.Includes(date(2024, 1, 2))) // Tuesday
	assert.True(t, set.Includes(date(2024, 1, 4)))  // Thursday
	assert.False(t, set.Contains(time.Saturday))
}

func TestIsPast(t *testing.T) {
	now := time.Date(2024, 1, 10, 23, 59, 0, 0, time.UTC)

	assert.True(t, IsPast(date(2024, 1, 9), now))
	assert.False(t, IsPast(date(2024, 1, 10), now))
	assert.False(t, IsPast(date(2024, 1, 11), now))
}

func TestIsPast_UsesLocationOfNow(t *testing.T) {
	kolkata := time.FixedZone("IST", 5*3600+1800)
	// 20:00 UTC on the 10th is already the 11th in IST
	now := time.Date(2024, 1, 10, 20, 0, 0, 0, time.UTC).In(kolkata)

	assert.True(t, IsPast(date(2024, 1, 10), now))
	assert.Equal(t, date(2024, 1, 11), Today(now))
}

func TestIsHoliday(t *testing.T) {
	holidays := NewHolidaySet(date(2024, 1, 26))

	assert.True(t, IsHoliday(date(2024, 1, 26), holidays))
	assert.False(t, IsHoliday(date(2024, 1, 25), holidays))
	assert.False(t, IsHoliday(date(2024, 1, 26), nil))
}

func TestDaysBetweenInclusive(t *testing.T) {
	n, err := DaysBetweenInclusive(date(2024, 1, 1), date(2024, 1, 1))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = DaysBetweenInclusive(date(2024, 2, 28), date(2024, 3, 1))
	require.NoError(t, err)
	assert.Equal(t, 3, n) // leap year

	_, err = DaysBetweenInclusive(date(2024, 1, 2), date(2024, 1, 1))
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestDateRange_Contains(t *testing.T) {
	open := DateRange{}
	assert.True(t, open.Contains(date(1999, 1, 1)))

	r := DateRange{From: date(2024, 1, 1), To: date(2024, 1, 31)}
	assert.True(t, r.Contains(date(2024, 1, 1)))
	assert.True(t, r.Contains(date(2024, 1, 31)))
	assert.False(t, r.Contains(date(2024, 2, 1)))

	from := DateRange{From: date(2024, 1, 15)}
	assert.False(t, from.Contains(date(2024, 1, 14)))
	assert.True(t, from.Contains(date(2030, 1, 1)))
}
