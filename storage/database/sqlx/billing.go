package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/prepdesk/prepdesk/core/billing"
)

type billingRepository struct {
	db *sqlx.DB
}

var _ billing.Repository = (*billingRepository)(nil) // interface compliance check

func NewBillingRepository(db *sqlx.DB) *billingRepository {
	return &billingRepository{db: db}
}

type dbSubscription struct {
	UserID           string       `db:"user_id"`
	Status           string       `db:"status"`
	Plan             string       `db:"plan"`
	CurrentPeriodEnd sql.NullTime `db:"current_period_end"`
	CustomerID       string       `db:"customer_id"`
	SubscriptionID   string       `db:"subscription_id"`
	UpdatedAt        time.Time    `db:"updated_at"`
}

func (s dbSubscription) toSubscription() billing.Subscription {
	sub := billing.Subscription{
		UserID:         s.UserID,
		Status:         s.Status,
		Plan:           s.Plan,
		CustomerID:     s.CustomerID,
		SubscriptionID: s.SubscriptionID,
		UpdatedAt:      s.UpdatedAt.UTC(),
	}
	if s.CurrentPeriodEnd.Valid {
		sub.CurrentPeriodEnd = s.CurrentPeriodEnd.Time.UTC()
	}
	return sub
}

const subscriptionColumns = `user_id, status, plan, current_period_end, customer_id, subscription_id, updated_at`

func (repo billingRepository) GetSubscriptionByUserID(ctx context.Context, userID string) (billing.Subscription, error) {
	// webhook events carry the user ID as a provider-supplied reference
	if !validUUID(userID) {
		return billing.Subscription{}, billing.ErrNotFound
	}
	return repo.getSubscription(ctx, "user_id = $1", userID)
}

func (repo billingRepository) GetSubscriptionByCustomerID(ctx context.Context, customerID string) (billing.Subscription, error) {
	return repo.getSubscription(ctx, "customer_id = $1", customerID)
}

func (repo billingRepository) getSubscription(ctx context.Context, where string, arg interface{}) (billing.Subscription, error) {
	var row dbSubscription
	query := `SELECT ` + subscriptionColumns + ` FROM subscription WHERE ` + where
	if err := repo.db.GetContext(ctx, &row, query, arg); err != nil {
		if err == sql.ErrNoRows {
			return billing.Subscription{}, billing.ErrNotFound
		}
		return billing.Subscription{}, errors.Wrap(err, "getting subscription")
	}
	return row.toSubscription(), nil
}

func (repo billingRepository) UpsertSubscription(ctx context.Context, sub billing.Subscription) (billing.Subscription, error) {
	periodEnd := sql.NullTime{Time: sub.CurrentPeriodEnd, Valid: !sub.CurrentPeriodEnd.IsZero()}
	query := `
		INSERT INTO subscription (` + subscriptionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO UPDATE SET
			status             = EXCLUDED.status,
			plan               = EXCLUDED.plan,
			current_period_end = EXCLUDED.current_period_end,
			customer_id        = EXCLUDED.customer_id,
			subscription_id    = EXCLUDED.subscription_id,
			updated_at         = EXCLUDED.updated_at`
	_, err := repo.db.ExecContext(
		ctx, query,
		sub.UserID, sub.Status, sub.Plan, periodEnd, sub.CustomerID, sub.SubscriptionID, sub.UpdatedAt,
	)
	if err != nil {
		return billing.Subscription{}, errors.Wrap(err, "upserting subscription")
	}
	return repo.GetSubscriptionByUserID(ctx, sub.UserID)
}
