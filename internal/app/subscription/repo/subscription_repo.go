package repo

import (
	"context"
	"fmt"

	"cloud.google.com/go/spanner"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/contracts"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/domain"
	"google.golang.org/api/iterator"
)

var _ contracts.SubscriptionRepository = (*SubscriptionRepo)(nil)

// SubscriptionRepo implements the subscription repository interface using Cloud Spanner
type SubscriptionRepo struct {
	client *spanner.Client
}

// NewSubscriptionRepo creates a new subscription repository
func NewSubscriptionRepo(client *spanner.Client) *SubscriptionRepo {
	return &SubscriptionRepo{client: client}
}

// Save returns a mutation for persisting a subscription to the database
// The mutation must be applied using Apply() method
func (r *SubscriptionRepo) Save(ctx context.Context, sub *domain.Subscription) (*spanner.Mutation, error) {
	row, err := encodeSubscription(sub)
	if err != nil {
		return nil, err
	}
	return spanner.InsertOrUpdateStruct(subscriptionsTable, row)
}

// Apply applies the given mutations to the database in a single commit
func (r *SubscriptionRepo) Apply(ctx context.Context, mutations ...*spanner.Mutation) error {
	if len(mutations) == 0 {
		return nil
	}
	if _, err := r.client.Apply(ctx, mutations); err != nil {
		return fmt.Errorf("apply %d mutations: %w", len(mutations), err)
	}
	return nil
}

// FindByID retrieves a subscription by ID
func (r *SubscriptionRepo) FindByID(ctx context.Context, id string) (*domain.Subscription, error) {
	stmt := spanner.Statement{
		SQL: `SELECT ` + subscriptionColumns + `
			FROM subscriptions
			WHERE id = @id`,
		Params: map[string]interface{}{
			"id": id,
		},
	}

	iter := r.client.Single().Query(ctx, stmt)
	defer iter.Stop()

	row, err := iter.Next()
	if err != nil {
		if err == iterator.Done {
			return nil, domain.ErrSubscriptionNotFound
		}
		return nil, err
	}

	var sr subscriptionRow
	if err := row.ToStruct(&sr); err != nil {
		return nil, err
	}
	return decodeSubscription(sr)
}

// FindByStatus lists subscriptions in any of the given statuses.
func (r *SubscriptionRepo) FindByStatus(ctx context.Context, statuses ...domain.SubscriptionStatus) ([]*domain.Subscription, error) {
	values := make([]string, len(statuses))
	for i, s := range statuses {
		values[i] = string(s)
	}

	stmt := spanner.Statement{
		SQL: `SELECT ` + subscriptionColumns + `
			FROM subscriptions
			WHERE status IN UNNEST(@statuses)
			ORDER BY id`,
		Params: map[string]interface{}{
			"statuses": values,
		},
	}

	iter := r.client.Single().Query(ctx, stmt)
	defer iter.Stop()

	var subs []*domain.Subscription
	for {
		row, err := iter.Next()
		if err == iterator.Done {
			return subs, nil
		}
		if err != nil {
			return nil, err
		}
		var sr subscriptionRow
		if err := row.ToStruct(&sr); err != nil {
			return nil, err
		}
		sub, err := decodeSubscription(sr)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
}
