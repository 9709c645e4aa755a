package domain

import (
	"sort"
	"time"

	"cloud.google.com/go/civil"
)

// CancellationOutcome reports what a cancel call actually changed.
type CancellationOutcome struct {
	Requested         int
	Cancelled         int
	MealsCancelled    int
	CarryForwardAdded int
	// Records are the records that moved to cancelled and must be persisted.
	Records []*DeliveryRecord
}

// CancellationLedger applies per-delivery cancellations of one subscription
// against the monthly cap and the cutoff rule.
type CancellationLedger struct {
	sub     *Subscription
	records []*DeliveryRecord
	byDate  map[civil.Date]*DeliveryRecord
}

// NewCancellationLedger indexes the subscription's delivery records. Records
// belonging to other subscriptions are ignored.
func NewCancellationLedger(sub *Subscription, records []*DeliveryRecord) *CancellationLedger {
	l := &CancellationLedger{
		sub:    sub,
		byDate: make(map[civil.Date]*DeliveryRecord, len(records)),
	}
	for _, r := range records {
		if r == nil || r.SubscriptionID != sub.ID() {
			continue
		}
		l.records = append(l.records, r)
		l.byDate[r.Date] = r
	}
	return l
}

// MonthlyCancellationCount counts cancelled records in the calendar month of now.
func (l *CancellationLedger) MonthlyCancellationCount(now time.Time) int {
	year, month := now.Year(), now.Month()
	count := 0
	for _, r := range l.records {
		if r.Status != DeliveryCancelled {
			continue
		}
		y, m := r.cancellationMonthKey(now.Location())
		if y == year && m == month {
			count++
		}
	}
	return count
}

// pending drops duplicates and dates whose record is already cancelled or
// delivered, so repeating a request never consumes allowance twice.
func (l *CancellationLedger) pending(dates []civil.Date) []civil.Date {
	seen := make(map[civil.Date]struct{}, len(dates))
	out := make([]civil.Date, 0, len(dates))
	for _, d := range dates {
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		if r, ok := l.byDate[d]; ok && !r.IsScheduled() {
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// CanCancel validates the whole batch without mutating anything.
func (l *CancellationLedger) CanCancel(dates []civil.Date, now time.Time, settings SubscriptionSettings) error {
	return l.validate(l.pending(dates), now, settings)
}

func (l *CancellationLedger) validate(pending []civil.Date, now time.Time, settings SubscriptionSettings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	used := l.MonthlyCancellationCount(now)
	if used+len(pending) > settings.MaxCancellationsPerMonth {
		return newQuotaError(ErrMonthlyLimitExceeded, settings.MaxCancellationsPerMonth, used, len(pending))
	}

	window := time.Duration(settings.CancellationCutoffHours) * time.Hour
	for _, d := range pending {
		cutoff := StartOfDay(d, now.Location()).Add(-window)
		if !now.Before(cutoff) {
			return &CutoffError{Date: d, CutoffHours: settings.CancellationCutoffHours, Cutoff: cutoff}
		}
	}
	return nil
}

// Cancel validates the batch, then cancels every matching scheduled record.
// Dates without a scheduled record are skipped and reflected in the outcome.
func (l *CancellationLedger) Cancel(dates []civil.Date, reason string, now time.Time, settings SubscriptionSettings) (CancellationOutcome, error) {
	outcome := CancellationOutcome{Requested: len(dates)}

	if l.sub.Status() != StatusActive {
		return outcome, ErrNotActive
	}

	pending := l.pending(dates)
	if err := l.validate(pending, now, settings); err != nil {
		return outcome, err
	}

	for _, d := range pending {
		r, ok := l.byDate[d]
		if !ok || !r.cancel(now, reason) {
			continue
		}
		outcome.Cancelled++
		outcome.MealsCancelled += r.MealsCount
		outcome.Records = append(outcome.Records, r)
	}

	outcome.CarryForwardAdded = l.sub.applyCancellation(outcome.Cancelled, outcome.MealsCancelled, settings.CarryForwardLimit, now)
	return outcome, nil
}
