package repo

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/spanner"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/contracts"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/domain"
	"google.golang.org/api/iterator"
)

var _ contracts.DeliveryRepository = (*DeliveryRepo)(nil)

// DeliveryRepo stores delivery records in the meal_deliveries table.
type DeliveryRepo struct {
	client *spanner.Client
}

func NewDeliveryRepo(client *spanner.Client) *DeliveryRepo {
	return &DeliveryRepo{client: client}
}

// Save returns a mutation for persisting a delivery record. Apply it through
// SubscriptionRepo.Apply together with the owning subscription.
func (r *DeliveryRepo) Save(ctx context.Context, record *domain.DeliveryRecord) (*spanner.Mutation, error) {
	return spanner.InsertOrUpdateStruct(deliveriesTable, encodeDelivery(record))
}

func (r *DeliveryRepo) Delete(ctx context.Context, record *domain.DeliveryRecord) (*spanner.Mutation, error) {
	if record.Status == domain.DeliveryDelivered {
		return nil, fmt.Errorf("%w: %s", domain.ErrDeliveryImmutable, record.ID)
	}
	return spanner.Delete(deliveriesTable, spanner.Key{record.ID}), nil
}

func (r *DeliveryRepo) FindByID(ctx context.Context, id string) (*domain.DeliveryRecord, error) {
	stmt := spanner.Statement{
		SQL: `SELECT ` + deliveryColumns + `
			FROM meal_deliveries
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
			return nil, domain.ErrDeliveryNotFound
		}
		return nil, err
	}

	var dr deliveryRow
	if err := row.ToStruct(&dr); err != nil {
		return nil, err
	}
	return decodeDelivery(dr)
}

func (r *DeliveryRepo) FindBySubscription(ctx context.Context, subscriptionID string, dates domain.DateRange) ([]*domain.DeliveryRecord, error) {
	stmt := deliveriesBySubscription(subscriptionID, dates)

	iter := r.client.Single().Query(ctx, stmt)
	defer iter.Stop()

	var records []*domain.DeliveryRecord
	for {
		row, err := iter.Next()
		if err == iterator.Done {
			return records, nil
		}
		if err != nil {
			return nil, err
		}
		var dr deliveryRow
		if err := row.ToStruct(&dr); err != nil {
			return nil, err
		}
		record, err := decodeDelivery(dr)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
}

func deliveriesBySubscription(subscriptionID string, dates domain.DateRange) spanner.Statement {
	where := []string{"subscription_id = @subscription_id"}
	params := map[string]interface{}{
		"subscription_id": subscriptionID,
	}
	if dates.From.IsValid() {
		where = append(where, "delivery_date >= @from")
		params["from"] = dates.From
	}
	if dates.To.IsValid() {
		where = append(where, "delivery_date <= @to")
		params["to"] = dates.To
	}

	return spanner.Statement{
		SQL: `SELECT ` + deliveryColumns + `
			FROM meal_deliveries
			WHERE ` + strings.Join(where, " AND ") + `
			ORDER BY delivery_date`,
		Params: params,
	}
}
