package domain

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"
)

// Subscription is the aggregate root for a meal subscription. It owns the
// status machine and the pause ledger; the cancellation ledger works on it.
type Subscription struct {
	id                string
	customerID        string
	planID            string
	status            SubscriptionStatus
	deliveryDays      WeekdaySet
	mealsPerDay       int
	mealsPerWeek      int
	startDate         civil.Date
	pause             PauseLedger
	pauseStartDate    *civil.Date
	pauseEndDate      *civil.Date
	mealsDelivered    int
	mealsCancelled    int
	carryForwardMeals int
	cancellationCount int
	cancelledAt       *time.Time
	updatedAt         time.Time
}

// NewSubscriptionParams contains the checkout data a subscription starts from.
type NewSubscriptionParams struct {
	ID             string
	CustomerID     string
	PlanID         string
	DeliveryDays   []string
	MealsPerDay    int
	MealsPerWeek   int
	StartDate      civil.Date
	PauseLimitDays int
}

// NewSubscription creates a new active subscription aggregate
func NewSubscription(p NewSubscriptionParams, clock Clock) (*Subscription, *SubscriptionCreatedEvent, error) {
	if p.CustomerID == "" {
		return nil, nil, ErrInvalidCustomerID
	}
	if p.PlanID == "" {
		return nil, nil, ErrInvalidPlanID
	}
	if p.MealsPerDay <= 0 {
		return nil, nil, ErrInvalidMealsPerDay
	}

	days, err := ParseWeekdaySet(p.DeliveryDays)
	if err != nil {
		return nil, nil, err
	}
	if err := checkWeekdayCount(days, p.MealsPerWeek); err != nil {
		return nil, nil, err
	}

	now := clock.Now()
	start := p.StartDate
	if !start.IsValid() {
		start = Today(now)
	}
	if IsPast(start, now) {
		return nil, nil, fmt.Errorf("%w: start date %s is in the past", ErrInvalidRange, start)
	}

	sub := &Subscription{
		id:           p.ID,
		customerID:   p.CustomerID,
		planID:       p.PlanID,
		status:       StatusActive,
		deliveryDays: days,
		mealsPerDay:  p.MealsPerDay,
		mealsPerWeek: p.MealsPerWeek,
		startDate:    start,
		pause:        NewPauseLedger(p.PauseLimitDays, nil, 0),
		updatedAt:    now,
	}

	event := &SubscriptionCreatedEvent{
		SubscriptionID: sub.id,
		CustomerID:     sub.customerID,
		PlanID:         sub.planID,
		DeliveryDays:   days.Strings(),
		StartDate:      start,
		CreatedAt:      now,
	}

	return sub, event, nil
}

func checkWeekdayCount(days WeekdaySet, mealsPerWeek int) error {
	if days.Len() != mealsPerWeek {
		return fmt.Errorf("%w: got %d days, plan requires %d", ErrWeekdayCountMismatch, days.Len(), mealsPerWeek)
	}
	return nil
}

func (s *Subscription) transition(to SubscriptionStatus) error {
	if !CanTransition(s.status, to) {
		return transitionError(s.status, to)
	}
	s.status = to
	return nil
}

// Pause opens a pause period and moves the subscription to paused.
func (s *Subscription) Pause(startDate, endDate civil.Date, now time.Time) (*SubscriptionPausedEvent, error) {
	if !CanTransition(s.status, StatusPaused) {
		return nil, transitionError(s.status, StatusPaused)
	}
	if err := s.pause.OpenPause(startDate, endDate, now); err != nil {
		return nil, err
	}
	if err := s.transition(StatusPaused); err != nil {
		return nil, err
	}

	start, end := startDate, endDate
	s.pauseStartDate = &start
	s.pauseEndDate = &end
	s.updatedAt = now

	return &SubscriptionPausedEvent{
		SubscriptionID:      s.id,
		StartDate:           startDate,
		EndDate:             endDate,
		RemainingAfterPause: s.pause.LimitDays() - s.reservedPauseDays(now),
		PausedAt:            now,
	}, nil
}

// reservedPauseDays counts closed days plus the full planned length of an
// ongoing pause.
func (s *Subscription) reservedPauseDays(now time.Time) int {
	total := s.pause.TotalPausedDaysAt(now)
	if open, ok := s.pause.OpenPeriod(); ok {
		total += open.PlannedDays() - open.DaysAt(Today(now))
	}
	return total
}

// Resume closes the ongoing pause today and reactivates the subscription.
func (s *Subscription) Resume(now time.Time) (*SubscriptionResumedEvent, error) {
	if !CanTransition(s.status, StatusActive) {
		return nil, transitionError(s.status, StatusActive)
	}

	end := Today(now)
	if open, ok := s.pause.OpenPeriod(); ok {
		if err := s.pause.ClosePauseNow(now); err != nil {
			return nil, err
		}
		end = minDate(end, open.PlannedEndDate)
	}
	// A paused row without an open period predates pause tracking and
	// simply reactivates.
	return s.reactivate(end, false, now)
}

// ResumeAt closes the ongoing pause the day before resumeDate, which must be an
// eligible delivery date, and restarts the delivery schedule from it.
func (s *Subscription) ResumeAt(resumeDate civil.Date, holidays HolidaySet, now time.Time) (*SubscriptionResumedEvent, error) {
	if !CanTransition(s.status, StatusActive) {
		return nil, transitionError(s.status, StatusActive)
	}
	if !IsEligible(resumeDate, s.deliveryDays, holidays, now) {
		return nil, fmt.Errorf("%w: %s", ErrIneligibleDate, resumeDate)
	}
	if _, ok := s.pause.OpenPeriod(); ok {
		if err := s.pause.ClosePauseAt(resumeDate, now); err != nil {
			return nil, err
		}
	}
	s.startDate = resumeDate
	return s.reactivate(resumeDate.AddDays(-1), false, now)
}

// ResumeIfLapsed reactivates a subscription whose pause ran past its planned
// end without an explicit resume.
func (s *Subscription) ResumeIfLapsed(now time.Time) (*SubscriptionResumedEvent, bool) {
	if s.status != StatusPaused {
		return nil, false
	}
	end, ok := s.pause.closeLapsed(now)
	if !ok {
		return nil, false
	}
	event, err := s.reactivate(end, true, now)
	if err != nil {
		return nil, false
	}
	return event, true
}

func (s *Subscription) reactivate(pauseEnd civil.Date, lapsed bool, now time.Time) (*SubscriptionResumedEvent, error) {
	if err := s.transition(StatusActive); err != nil {
		return nil, err
	}
	s.pauseStartDate = nil
	s.pauseEndDate = nil
	s.updatedAt = now

	return &SubscriptionResumedEvent{
		SubscriptionID:  s.id,
		PauseEndDate:    pauseEnd,
		TotalPausedDays: s.pause.TotalPausedDays(),
		Lapsed:          lapsed,
		ResumedAt:       now,
	}, nil
}

// Cancel terminates the subscription. An ongoing pause is closed first so
// that it stops consuming pause days.
func (s *Subscription) Cancel(now time.Time) (*SubscriptionCancelledEvent, error) {
	if !CanTransition(s.status, StatusCancelled) {
		return nil, transitionError(s.status, StatusCancelled)
	}
	if _, ok := s.pause.OpenPeriod(); ok {
		if err := s.pause.ClosePauseNow(now); err != nil {
			return nil, err
		}
	}
	if err := s.transition(StatusCancelled); err != nil {
		return nil, err
	}

	at := now
	s.cancelledAt = &at
	s.pauseStartDate = nil
	s.pauseEndDate = nil
	s.updatedAt = now

	return &SubscriptionCancelledEvent{
		SubscriptionID:    s.id,
		CustomerID:        s.customerID,
		CarryForwardMeals: s.carryForwardMeals,
		CancelledAt:       now,
	}, nil
}

// CancelMeals cancels individual deliveries through the cancellation ledger.
func (s *Subscription) CancelMeals(records []*DeliveryRecord, dates []civil.Date, reason string, now time.Time, settings SubscriptionSettings) (CancellationOutcome, error) {
	return NewCancellationLedger(s, records).Cancel(dates, reason, now, settings)
}

// applyCancellation books newly cancelled meals and returns the carry-forward
// credits actually added.
func (s *Subscription) applyCancellation(records, meals, carryForwardLimit int, now time.Time) int {
	if records == 0 {
		return 0
	}
	added := meals
	if carryForwardLimit > 0 {
		room := carryForwardLimit - s.carryForwardMeals
		if room < 0 {
			room = 0
		}
		if added > room {
			added = room
		}
	}
	s.mealsCancelled += meals
	s.carryForwardMeals += added
	s.cancellationCount += records
	s.updatedAt = now
	return added
}

// ChangeDeliveryDays replaces the weekday set; the size must match the plan.
func (s *Subscription) ChangeDeliveryDays(codes []string, now time.Time) error {
	if s.status == StatusCancelled {
		return ErrAlreadyCancelled
	}
	days, err := ParseWeekdaySet(codes)
	if err != nil {
		return err
	}
	if err := checkWeekdayCount(days, s.mealsPerWeek); err != nil {
		return err
	}
	s.deliveryDays = days
	s.updatedAt = now
	return nil
}

// RecordDelivery confirms a scheduled delivery of this subscription.
func (s *Subscription) RecordDelivery(record *DeliveryRecord, now time.Time) (*DeliveryRecordedEvent, error) {
	if record.SubscriptionID != s.id {
		return nil, fmt.Errorf("%w: %s does not belong to %s", ErrDeliveryNotFound, record.ID, s.id)
	}
	if err := record.MarkDelivered(now); err != nil {
		return nil, err
	}
	s.mealsDelivered += record.MealsCount
	s.updatedAt = now

	return &DeliveryRecordedEvent{
		SubscriptionID: s.id,
		DeliveryID:     record.ID,
		Date:           record.Date,
		MealsCount:     record.MealsCount,
		DeliveredAt:    now,
	}, nil
}

// RecomputePausedDays refreshes the cached paused-day total as of now.
func (s *Subscription) RecomputePausedDays(now time.Time) int {
	return s.pause.Recompute(now)
}

// IsPausedOn reports whether d falls inside any pause period.
func (s *Subscription) IsPausedOn(d civil.Date) bool {
	return s.pause.IsPausedOn(d)
}

// Resolver returns a delivery-day resolver for this subscription's weekdays.
func (s *Subscription) Resolver(holidays HolidaySet) DeliveryDayResolver {
	return NewDeliveryDayResolver(s.deliveryDays, holidays)
}

// Progress summarises the counters shown to the customer.
type Progress struct {
	Status             SubscriptionStatus
	MealsDelivered     int
	MealsCancelled     int
	CarryForwardMeals  int
	CancellationCount  int
	TotalPausedDays    int
	RemainingPauseDays int
	// ReservedPauseDays are planned days of the ongoing pause not yet used.
	ReservedPauseDays int
}

func (s *Subscription) Progress(now time.Time) Progress {
	ledger := s.pause
	ledger.Recompute(now)
	return Progress{
		Status:             s.status,
		MealsDelivered:     s.mealsDelivered,
		MealsCancelled:     s.mealsCancelled,
		CarryForwardMeals:  s.carryForwardMeals,
		CancellationCount:  s.cancellationCount,
		TotalPausedDays:    ledger.TotalPausedDays(),
		RemainingPauseDays: ledger.RemainingPauseDays(),
		ReservedPauseDays:  s.reservedPauseDays(now) - ledger.TotalPausedDays(),
	}
}

// AvailablePauseDays is what a new pause could still use once the ongoing
// pause runs to its planned end.
func (p Progress) AvailablePauseDays() int {
	if n := p.RemainingPauseDays - p.ReservedPauseDays; n > 0 {
		return n
	}
	return 0
}

// Snapshot is the persisted state of a subscription.
type Snapshot struct {
	ID                string
	CustomerID        string
	PlanID            string
	Status            SubscriptionStatus
	DeliveryDays      WeekdaySet
	MealsPerDay       int
	MealsPerWeek      int
	StartDate         civil.Date
	PauseLimitDays    int
	TotalPausedDays   int
	PausePeriods      []PausePeriod
	PauseStartDate    *civil.Date
	PauseEndDate      *civil.Date
	MealsDelivered    int
	MealsCancelled    int
	CarryForwardMeals int
	CancellationCount int
	CancelledAt       *time.Time
	UpdatedAt         time.Time
}

// ReconstructFromPersistence recreates a subscription from database
func ReconstructFromPersistence(snap Snapshot) *Subscription {
	return &Subscription{
		id:                snap.ID,
		customerID:        snap.CustomerID,
		planID:            snap.PlanID,
		status:            snap.Status,
		deliveryDays:      snap.DeliveryDays,
		mealsPerDay:       snap.MealsPerDay,
		mealsPerWeek:      snap.MealsPerWeek,
		startDate:         snap.StartDate,
		pause:             NewPauseLedger(snap.PauseLimitDays, snap.PausePeriods, snap.TotalPausedDays),
		pauseStartDate:    snap.PauseStartDate,
		pauseEndDate:      snap.PauseEndDate,
		mealsDelivered:    snap.MealsDelivered,
		mealsCancelled:    snap.MealsCancelled,
		carryForwardMeals: snap.CarryForwardMeals,
		cancellationCount: snap.CancellationCount,
		cancelledAt:       snap.CancelledAt,
		updatedAt:         snap.UpdatedAt,
	}
}

// Snapshot returns the state to persist.
func (s *Subscription) Snapshot() Snapshot {
	return Snapshot{
		ID:                s.id,
		CustomerID:        s.customerID,
		PlanID:            s.planID,
		Status:            s.status,
		DeliveryDays:      s.deliveryDays,
		MealsPerDay:       s.mealsPerDay,
		MealsPerWeek:      s.mealsPerWeek,
		StartDate:         s.startDate,
		PauseLimitDays:    s.pause.LimitDays(),
		TotalPausedDays:   s.pause.TotalPausedDays(),
		PausePeriods:      s.pause.Periods(),
		PauseStartDate:    s.pauseStartDate,
		PauseEndDate:      s.pauseEndDate,
		MealsDelivered:    s.mealsDelivered,
		MealsCancelled:    s.mealsCancelled,
		CarryForwardMeals: s.carryForwardMeals,
		CancellationCount: s.cancellationCount,
		CancelledAt:       s.cancelledAt,
		UpdatedAt:         s.updatedAt,
	}
}

// Getters (no setters!)
func (s *Subscription) ID() string {
	return s.id
}

func (s *Subscription) CustomerID() string {
	return s.customerID
}

func (s *Subscription) PlanID() string {
	return s.planID
}

func (s *Subscription) Status() SubscriptionStatus {
	return s.status
}

func (s *Subscription) DeliveryDays() WeekdaySet {
	return s.deliveryDays
}

func (s *Subscription) MealsPerDay() int {
	return s.mealsPerDay
}

func (s *Subscription) MealsPerWeek() int {
	return s.mealsPerWeek
}

func (s *Subscription) StartDate() civil.Date {
	return s.startDate
}

func (s *Subscription) PauseLimitDays() int {
	return s.pause.LimitDays()
}

func (s *Subscription) TotalPausedDays() int {
	return s.pause.TotalPausedDays()
}

func (s *Subscription) RemainingPauseDays() int {
	return s.pause.RemainingPauseDays()
}

func (s *Subscription) PausePeriods() []PausePeriod {
	return s.pause.Periods()
}

// PauseWindow is the requested pause range shown while paused.
func (s *Subscription) PauseWindow() (start, end *civil.Date) {
	return s.pauseStartDate, s.pauseEndDate
}

func (s *Subscription) MealsDelivered() int {
	return s.mealsDelivered
}

func (s *Subscription) MealsCancelled() int {
	return s.mealsCancelled
}

func (s *Subscription) CarryForwardMeals() int {
	return s.carryForwardMeals
}

func (s *Subscription) CancellationCount() int {
	return s.cancellationCount
}

func (s *Subscription) CancelledAt() *time.Time {
	return s.cancelledAt
}

func (s *Subscription) UpdatedAt() time.Time {
	return s.updatedAt
}
