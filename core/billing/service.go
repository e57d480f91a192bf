package billing

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"github.com/prepdesk/prepdesk/core"
	"github.com/prepdesk/prepdesk/core/user"
)

var (
	// errors
	ErrNotFound         = errors.New("subscription not found")
	ErrNoCustomer       = errors.New("user has no billing account yet")
	errInvalidSignature = errors.New("invalid webhook signature")

	nowFunc = time.Now // mockable
)

// Webhook event types this service reacts to. Anything else is acknowledged
// and logged so the provider does not retry forever.
const (
	EventCheckoutCompleted   = "checkout.completed"
	EventSubscriptionUpdated = "subscription.updated"
	EventSubscriptionDeleted = "subscription.deleted"
)

type (
	// Provider is the hosted payment provider: it owns checkout, the billing
	// portal and all payment state.
	Provider interface {
		CreateCheckoutSession(ctx context.Context, usr user.User, priceID string) (CheckoutSession, error)
		CreatePortalSession(ctx context.Context, customerID string) (PortalSession, error)
	}

	Repository interface {
		GetSubscriptionByUserID(ctx context.Context, userID string) (Subscription, error)
		GetSubscriptionByCustomerID(ctx context.Context, customerID string) (Subscription, error)
		UpsertSubscription(ctx context.Context, sub Subscription) (Subscription, error)
	}

	Service struct {
		repo          Repository
		provider      Provider
		logger        core.Logger
		webhookSecret []byte
	}
)

func NewService(repo Repository, provider Provider, logger core.Logger) *Service {
	return &Service{
		repo:          repo,
		provider:      provider,
		logger:        logger,
		webhookSecret: []byte(core.Conf.Billing.WebhookSecret),
	}
}

// GetForUser returns the user's subscription; users without one get a
// zero-value row with StatusNone.
func (svc *Service) GetForUser(ctx context.Context, userID string) (Subscription, error) {
	sub, err := svc.repo.GetSubscriptionByUserID(ctx, userID)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Subscription{UserID: userID, Status: StatusNone}, nil
		}
		return Subscription{}, err
	}
	return sub, nil
}

// Checkout creates a hosted checkout session and returns its redirect URL.
func (svc *Service) Checkout(ctx context.Context, usr user.User) (CheckoutSession, error) {
	sess, err := svc.provider.CreateCheckoutSession(ctx, usr, core.Conf.Billing.PriceID)
	if err != nil {
		return CheckoutSession{}, errors.Wrap(err, "creating checkout session")
	}
	return sess, nil
}

// Portal creates a billing-portal session for an existing customer.
func (svc *Service) Portal(ctx context.Context, userID string) (PortalSession, error) {
	sub, err := svc.GetForUser(ctx, userID)
	if err != nil {
		return PortalSession{}, err
	}
	if sub.CustomerID == "" {
		return PortalSession{}, core.NewValidationError(ErrNoCustomer)
	}
	sess, err := svc.provider.CreatePortalSession(ctx, sub.CustomerID)
	if err != nil {
		return PortalSession{}, errors.Wrap(err, "creating portal session")
	}
	return sess, nil
}

// HandleWebhook verifies and applies a provider event. The raw payload is
// authenticated with an HMAC-SHA256 signature over the body.
func (svc *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if err := VerifySignature(payload, signature, svc.webhookSecret); err != nil {
		return core.NewValidationError(err)
	}

	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return core.NewValidationError(errors.Wrap(err, "decoding webhook payload"))
	}

	switch event.Type {
	case EventCheckoutCompleted, EventSubscriptionUpdated:
		return svc.applyEvent(ctx, event)
	case EventSubscriptionDeleted:
		event.Data.Status = StatusCanceled
		return svc.applyEvent(ctx, event)
	default:
		svc.logger.Info("ignoring webhook event " + event.ID + " of unknown type " + event.Type)
		return nil
	}
}

func (svc *Service) applyEvent(ctx context.Context, event Event) error {
	sub := Subscription{
		UserID:         event.Data.UserID,
		Status:         event.Data.Status,
		Plan:           event.Data.Plan,
		CustomerID:     event.Data.CustomerID,
		SubscriptionID: event.Data.SubscriptionID,
		UpdatedAt:      nowFunc().UTC(),
	}
	if event.Data.CurrentPeriodEnd > 0 {
		sub.CurrentPeriodEnd = time.Unix(event.Data.CurrentPeriodEnd, 0).UTC()
	}

	// events after checkout carry no user reference; resolve via the
	// customer ID recorded at checkout time
	if sub.UserID == "" {
		existing, err := svc.repo.GetSubscriptionByCustomerID(ctx, event.Data.CustomerID)
		if err != nil {
			return errors.Wrapf(err, "resolving customer %s", event.Data.CustomerID)
		}
		sub.UserID = existing.UserID
	}

	if _, err := svc.repo.UpsertSubscription(ctx, sub); err != nil {
		return errors.Wrap(err, "upserting subscription")
	}
	return nil
}

// VerifySignature checks the hex HMAC-SHA256 signature of a webhook payload.
func VerifySignature(payload []byte, signature string, secret []byte) error {
	mac := hmac.New(sha256.New, secret)
	mac.Write(payload)
	want := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(want), []byte(signature)) {
		return errInvalidSignature
	}
	return nil
}
