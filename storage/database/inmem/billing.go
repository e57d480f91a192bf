package inmem

import (
	"context"
	"sync"

	"github.com/prepdesk/prepdesk/core/billing"
)

// BillingRepository is a map-backed billing.Repository for tests and local runs.
type BillingRepository struct {
	mu   sync.RWMutex
	subs map[string]billing.Subscription // keyed by user ID
}

var _ billing.Repository = (*BillingRepository)(nil) // interface compliance check

func NewBillingRepository() *BillingRepository {
	return &BillingRepository{subs: make(map[string]billing.Subscription)}
}

func (repo *BillingRepository) GetSubscriptionByUserID(ctx context.Context, userID string) (billing.Subscription, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	sub, ok := repo.subs[userID]
	if !ok {
		return billing.Subscription{}, billing.ErrNotFound
	}
	return sub, nil
}

func (repo *BillingRepository) GetSubscriptionByCustomerID(ctx context.Context, customerID string) (billing.Subscription, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	for _, sub := range repo.subs {
		if sub.CustomerID == customerID {
			return sub, nil
		}
	}
	return billing.Subscription{}, billing.ErrNotFound
}

func (repo *BillingRepository) UpsertSubscription(ctx context.Context, sub billing.Subscription) (billing.Subscription, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	repo.subs[sub.UserID] = sub
	return sub, nil
}
