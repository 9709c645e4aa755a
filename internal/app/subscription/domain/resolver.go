package domain

import (
	"time"

	"cloud.google.com/go/civil"
)

// DefaultHorizonDays covers every weekly delivery pattern twice.
const DefaultHorizonDays = 14

// DeliveryDayResolver finds delivery dates that fall on a selected weekday
// and are not holidays.
type DeliveryDayResolver struct {
	weekdays WeekdaySet
	holidays HolidaySet
	blackout func(civil.Date) bool
}

func NewDeliveryDayResolver(weekdays WeekdaySet, holidays HolidaySet) DeliveryDayResolver {
	return DeliveryDayResolver{weekdays: weekdays, holidays: holidays}
}

// WithBlackout returns a resolver that also rejects dates for which fn is true.
func (r DeliveryDayResolver) WithBlackout(fn func(civil.Date) bool) DeliveryDayResolver {
	r.blackout = fn
	return r
}

func (r DeliveryDayResolver) qualifies(d civil.Date) bool {
	if !r.weekdays.Includes(d) || r.holidays.Contains(d) {
		return false
	}
	return r.blackout == nil || !r.blackout(d)
}

// NextEligibleDates scans anchor+1 .. anchor+horizonDays and returns at most
// limit qualifying dates. An empty result means nothing qualified inside the
// horizon; callers widen the horizon or report unavailability.
func (r DeliveryDayResolver) NextEligibleDates(anchor civil.Date, horizonDays, limit int) []civil.Date {
	if horizonDays <= 0 {
		horizonDays = DefaultHorizonDays
	}
	if limit <= 0 {
		limit = 1
	}

	dates := make([]civil.Date, 0, limit)
	for i := 1; i <= horizonDays && len(dates) < limit; i++ {
		d := anchor.AddDays(i)
		if r.qualifies(d) {
			dates = append(dates, d)
		}
	}
	return dates
}

// NextEligibleDate is NextEligibleDates with limit 1.
func (r DeliveryDayResolver) NextEligibleDate(anchor civil.Date, horizonDays int) (civil.Date, bool) {
	dates := r.NextEligibleDates(anchor, horizonDays, 1)
	if len(dates) == 0 {
		return civil.Date{}, false
	}
	return dates[0], true
}

// IsEligible validates a manually chosen date; past dates never qualify.
func (r DeliveryDayResolver) IsEligible(d civil.Date, now time.Time) bool {
	if IsPast(d, now) {
		return false
	}
	return r.qualifies(d)
}

// NextEligibleDates is the function form of DeliveryDayResolver.NextEligibleDates.
func NextEligibleDates(anchor civil.Date, weekdays WeekdaySet, holidays HolidaySet, horizonDays, limit int) []civil.Date {
	return NewDeliveryDayResolver(weekdays, holidays).NextEligibleDates(anchor, horizonDays, limit)
}

// IsEligible is the function form of DeliveryDayResolver.IsEligible.
func IsEligible(d civil.Date, weekdays WeekdaySet, holidays HolidaySet, now time.Time) bool {
	return NewDeliveryDayResolver(weekdays, holidays).IsEligible(d, now)
}
