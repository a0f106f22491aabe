package subscription

import (
	"context"
	"time"
)

type ListFilter struct {
	Status Status
	Tier   Tier
}

// StoreAPI persists organizations and subscriptions. Nothing is ever deleted.
type StoreAPI interface {
	CreateRequest(ctx context.Context, org Organization, sub Subscription) error
	Get(ctx context.Context, id string) (Subscription, error)
	GetOrganization(ctx context.Context, id string) (Organization, error)
	List(ctx context.Context, filter ListFilter, limit, offset int) ([]Subscription, error)
	// ListDue returns active subscriptions whose end date lies before now.
	ListDue(ctx context.Context, now time.Time) ([]Subscription, error)
	Update(ctx context.Context, sub Subscription) error
	// MarkExpired expires the subscription only if it is still active and past
	// its end date at write time; false means it changed since it was read.
	MarkExpired(ctx context.Context, id string, now time.Time) (bool, error)
}
