package domain

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"
)

// DefaultPauseLimitDays is the lifetime pause allowance when a plan sets none.
const DefaultPauseLimitDays = 30

// PausePeriod is a contiguous range of paused days. EndDate is nil while the
// pause is ongoing; PlannedEndDate is the last day the customer asked for and
// bounds how many days an ongoing pause can consume.
type PausePeriod struct {
	StartDate      civil.Date  `json:"start_date"`
	EndDate        *civil.Date `json:"end_date"`
	PlannedEndDate civil.Date  `json:"planned_end_date"`
}

func (p PausePeriod) IsOpen() bool {
	return p.EndDate == nil
}

// LastDay is the closing date, or the planned end while the pause is open.
func (p PausePeriod) LastDay() civil.Date {
	if p.EndDate != nil {
		return *p.EndDate
	}
	return p.PlannedEndDate
}

// DaysAt counts the paused days consumed as of today. An open period only
// counts the days that have already started. Periods are assumed valid; see
// ValidatePausePeriods.
func (p PausePeriod) DaysAt(today civil.Date) int {
	if p.EndDate != nil {
		return inclusiveDays(p.StartDate, *p.EndDate)
	}
	if today.Before(p.StartDate) {
		return 0
	}
	return inclusiveDays(p.StartDate, minDate(today, p.PlannedEndDate))
}

// PlannedDays is the length of the range the pause was opened for.
func (p PausePeriod) PlannedDays() int {
	return inclusiveDays(p.StartDate, p.PlannedEndDate)
}

func inclusiveDays(a, b civil.Date) int {
	return b.DaysSince(a) + 1
}

func (p PausePeriod) validate() error {
	if p.EndDate != nil && p.EndDate.Before(p.StartDate) {
		return fmt.Errorf("%w: pause ends %s before it starts %s", ErrInvalidRange, *p.EndDate, p.StartDate)
	}
	if p.EndDate == nil && p.PlannedEndDate.Before(p.StartDate) {
		return fmt.Errorf("%w: open pause planned to end %s before it starts %s", ErrInvalidRange, p.PlannedEndDate, p.StartDate)
	}
	return nil
}

// ValidatePausePeriods checks stored periods before they are trusted: every
// range is ordered, no two periods overlap, and at most one period is open,
// which only a paused subscription may have.
func ValidatePausePeriods(status SubscriptionStatus, periods []PausePeriod) error {
	open := 0
	for i, p := range periods {
		if err := p.validate(); err != nil {
			return err
		}
		if p.IsOpen() {
			open++
		}
		for _, q := range periods[:i] {
			if q.overlaps(p.StartDate, p.LastDay()) {
				return fmt.Errorf("%w: pause %s..%s overlaps %s..%s",
					ErrInvalidRange, p.StartDate, p.LastDay(), q.StartDate, q.LastDay())
			}
		}
	}
	if open > 1 {
		return fmt.Errorf("%w: %d open pause periods", ErrInvalidRange, open)
	}
	if open == 1 && status != StatusPaused {
		return fmt.Errorf("%w: open pause period on a %s subscription", ErrInvalidRange, status)
	}
	return nil
}

// Covers reports whether d falls inside the period.
func (p PausePeriod) Covers(d civil.Date) bool {
	return !d.Before(p.StartDate) && !d.After(p.LastDay())
}

func (p PausePeriod) overlaps(start, end civil.Date) bool {
	return !end.Before(p.StartDate) && !start.After(p.LastDay())
}

// PauseLedger tracks the pause periods of one subscription against its
// lifetime pause allowance.
type PauseLedger struct {
	limitDays       int
	periods         []PausePeriod
	totalPausedDays int
}

// NewPauseLedger restores a ledger. totalPausedDays is the cached value as
// last persisted; call Recompute to bring it up to date.
func NewPauseLedger(limitDays int, periods []PausePeriod, totalPausedDays int) PauseLedger {
	if limitDays <= 0 {
		limitDays = DefaultPauseLimitDays
	}
	cp := make([]PausePeriod, len(periods))
	copy(cp, periods)
	return PauseLedger{
		limitDays:       limitDays,
		periods:         cp,
		totalPausedDays: totalPausedDays,
	}
}

func (l *PauseLedger) LimitDays() int {
	return l.limitDays
}

func (l *PauseLedger) TotalPausedDays() int {
	return l.totalPausedDays
}

// Periods returns a copy of the recorded periods in insertion order.
func (l *PauseLedger) Periods() []PausePeriod {
	out := make([]PausePeriod, len(l.periods))
	for i, p := range l.periods {
		out[i] = p
		if p.EndDate != nil {
			end := *p.EndDate
			out[i].EndDate = &end
		}
	}
	return out
}

// TotalPausedDaysAt derives the paused day count from the periods.
func (l *PauseLedger) TotalPausedDaysAt(now time.Time) int {
	today := Today(now)
	total := 0
	for _, p := range l.periods {
		total += p.DaysAt(today)
	}
	return total
}

// Recompute refreshes the cached total.
func (l *PauseLedger) Recompute(now time.Time) int {
	l.totalPausedDays = l.TotalPausedDaysAt(now)
	return l.totalPausedDays
}

func (l *PauseLedger) CanPause(additionalDays int) bool {
	return l.totalPausedDays+additionalDays <= l.limitDays
}

func (l *PauseLedger) RemainingPauseDays() int {
	remaining := l.limitDays - l.totalPausedDays
	if remaining < 0 {
		return 0
	}
	return remaining
}

// OpenPeriod returns the ongoing pause, if any.
func (l *PauseLedger) OpenPeriod() (PausePeriod, bool) {
	if i := l.openIndex(); i >= 0 {
		return l.periods[i], true
	}
	return PausePeriod{}, false
}

func (l *PauseLedger) openIndex() int {
	for i, p := range l.periods {
		if p.IsOpen() {
			return i
		}
	}
	return -1
}

// IsPausedOn reports whether any period covers d.
func (l *PauseLedger) IsPausedOn(d civil.Date) bool {
	for _, p := range l.periods {
		if p.Covers(d) {
			return true
		}
	}
	return false
}

// OpenPause starts a pause covering [startDate, endDate] and reserves the whole
// range against the allowance.
func (l *PauseLedger) OpenPause(startDate, endDate civil.Date, now time.Time) error {
	days, err := DaysBetweenInclusive(startDate, endDate)
	if err != nil {
		return err
	}
	if IsPast(startDate, now) {
		return fmt.Errorf("%w: pause cannot start in the past (%s)", ErrInvalidRange, startDate)
	}
	if l.openIndex() >= 0 {
		return ErrAlreadyPaused
	}
	for _, p := range l.periods {
		if p.overlaps(startDate, endDate) {
			return fmt.Errorf("%w: %s..%s", ErrPauseOverlap, p.StartDate, p.LastDay())
		}
	}

	l.Recompute(now)
	if !l.CanPause(days) {
		return newQuotaError(ErrLimitExceeded, l.limitDays, l.totalPausedDays, days)
	}

	l.periods = append(l.periods, PausePeriod{
		StartDate:      startDate,
		PlannedEndDate: endDate,
	})
	l.Recompute(now)
	return nil
}

// ClosePauseNow ends the ongoing pause today. The end never passes the planned
// end, and a pause that has not started yet is dropped without using quota.
func (l *PauseLedger) ClosePauseNow(now time.Time) error {
	i := l.openIndex()
	if i < 0 {
		return ErrNotPaused
	}

	today := Today(now)
	open := l.periods[i]
	if today.Before(open.StartDate) {
		l.periods = append(l.periods[:i], l.periods[i+1:]...)
		l.Recompute(now)
		return nil
	}

	end := minDate(today, open.PlannedEndDate)
	l.periods[i].EndDate = &end
	l.Recompute(now)
	return nil
}

// ClosePauseAt ends the ongoing pause so that deliveries restart on
// resumeDate; the day before it is the last paused day. Resuming on or before
// the start drops the period. Moving past the planned end must still fit the
// allowance.
func (l *PauseLedger) ClosePauseAt(resumeDate civil.Date, now time.Time) error {
	i := l.openIndex()
	if i < 0 {
		return ErrNotPaused
	}
	if IsPast(resumeDate, now) {
		return fmt.Errorf("%w: resume date %s is in the past", ErrInvalidRange, resumeDate)
	}

	open := l.periods[i]
	if !resumeDate.After(open.StartDate) {
		l.periods = append(l.periods[:i], l.periods[i+1:]...)
		l.Recompute(now)
		return nil
	}

	end := resumeDate.AddDays(-1)
	if end.After(open.PlannedEndDate) {
		for j, p := range l.periods {
			if j != i && p.overlaps(open.StartDate, end) {
				return fmt.Errorf("%w: %s..%s", ErrPauseOverlap, p.StartDate, p.LastDay())
			}
		}
		days, err := DaysBetweenInclusive(open.StartDate, end)
		if err != nil {
			return err
		}
		others := l.TotalPausedDaysAt(now) - open.DaysAt(Today(now))
		if others+days > l.limitDays {
			return newQuotaError(ErrLimitExceeded, l.limitDays, others, days)
		}
	}

	l.periods[i].EndDate = &end
	l.Recompute(now)
	return nil
}

// closeLapsed ends an open pause whose planned end is already behind today.
func (l *PauseLedger) closeLapsed(now time.Time) (civil.Date, bool) {
	i := l.openIndex()
	if i < 0 {
		return civil.Date{}, false
	}
	open := l.periods[i]
	if !open.PlannedEndDate.Before(Today(now)) {
		return civil.Date{}, false
	}
	end := open.PlannedEndDate
	l.periods[i].EndDate = &end
	l.Recompute(now)
	return end, true
}
