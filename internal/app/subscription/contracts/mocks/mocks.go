// Package mocks holds testify mocks of the subscription contracts.
package mocks

import (
	"context"

	"cloud.google.com/go/civil"
	"cloud.google.com/go/spanner"
	"github.com/stretchr/testify/mock"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/contracts"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/domain"
)

var (
	_ contracts.SubscriptionRepository = (*SubscriptionRepository)(nil)
	_ contracts.DeliveryRepository     = (*DeliveryRepository)(nil)
	_ contracts.CalendarRepository     = (*CalendarRepository)(nil)
	_ contracts.EventPublisher         = (*EventPublisher)(nil)
	_ contracts.Locker                 = (*Locker)(nil)
)

// SubscriptionRepository is a mock implementation of contracts.SubscriptionRepository
type SubscriptionRepository struct {
	mock.Mock
}

func (m *SubscriptionRepository) Save(ctx context.Context, sub *domain.Subscription) (*spanner.Mutation, error) {
	args := m.Called(ctx, sub)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*spanner.Mutation), args.Error(1)
}

func (m *SubscriptionRepository) FindByID(ctx context.Context, id string) (*domain.Subscription, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Subscription), args.Error(1)
}

func (m *SubscriptionRepository) FindByStatus(ctx context.Context, statuses ...domain.SubscriptionStatus) ([]*domain.Subscription, error) {
	args := m.Called(ctx, statuses)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Subscription), args.Error(1)
}

func (m *SubscriptionRepository) Apply(ctx context.Context, mutations ...*spanner.Mutation) error {
	// Convert variadic to slice for mock
	args := m.Called(ctx, mutations)
	return args.Error(0)
}

// DeliveryRepository is a mock implementation of contracts.DeliveryRepository
type DeliveryRepository struct {
	mock.Mock
}

func (m *DeliveryRepository) Save(ctx context.Context, record *domain.DeliveryRecord) (*spanner.Mutation, error) {
	args := m.Called(ctx, record)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*spanner.Mutation), args.Error(1)
}

func (m *DeliveryRepository) Delete(ctx context.Context, record *domain.DeliveryRecord) (*spanner.Mutation, error) {
	args := m.Called(ctx, record)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*spanner.Mutation), args.Error(1)
}

func (m *DeliveryRepository) FindByID(ctx context.Context, id string) (*domain.DeliveryRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DeliveryRecord), args.Error(1)
}

func (m *DeliveryRepository) FindBySubscription(ctx context.Context, subscriptionID string, dates domain.DateRange) ([]*domain.DeliveryRecord, error) {
	args := m.Called(ctx, subscriptionID, dates)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.DeliveryRecord), args.Error(1)
}

// CalendarRepository is a mock implementation of contracts.CalendarRepository
type CalendarRepository struct {
	mock.Mock
}

func (m *CalendarRepository) LoadHolidays(ctx context.Context, from civil.Date) (domain.HolidaySet, error) {
	args := m.Called(ctx, from)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(domain.HolidaySet), args.Error(1)
}

func (m *CalendarRepository) LoadSettings(ctx context.Context) (domain.SubscriptionSettings, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.SubscriptionSettings), args.Error(1)
}

// EventPublisher is a mock implementation of contracts.EventPublisher
type EventPublisher struct {
	mock.Mock
}

func (m *EventPublisher) Publish(ctx context.Context, event domain.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// Locker is a mock implementation of contracts.Locker
type Locker struct {
	mock.Mock
}

func (m *Locker) Lock(ctx context.Context, key string) (func(), error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(func()), args.Error(1)
}
