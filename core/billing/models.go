package billing

import "time"

// Subscription statuses, mirroring the provider's lifecycle.
const (
	StatusNone     = "none"
	StatusTrialing = "trialing"
	StatusActive   = "active"
	StatusPastDue  = "past_due"
	StatusCanceled = "canceled"
)

type (
	// Subscription is the locally cached view of a user's subscription.
	// The payment provider remains the authority; webhook events overwrite
	// this row.
	Subscription struct {
		UserID           string    `json:"user_id"`
		Status           string    `json:"status"`
		Plan             string    `json:"plan,omitempty"`
		CurrentPeriodEnd time.Time `json:"current_period_end,omitempty"`
		CustomerID       string    `json:"-"`
		SubscriptionID   string    `json:"-"`
		UpdatedAt        time.Time `json:"updated_at"` // UTC
	}

	CheckoutSession struct {
		URL string `json:"url"`
	}

	PortalSession struct {
		URL string `json:"url"`
	}

	// Event is a provider webhook notification.
	Event struct {
		ID   string    `json:"id"`
		Type string    `json:"type"`
		Data EventData `json:"data"`
	}

	EventData struct {
		CustomerID       string `json:"customer"`
		SubscriptionID   string `json:"subscription"`
		UserID           string `json:"client_reference_id,omitempty"`
		Status           string `json:"status"`
		Plan             string `json:"plan"`
		CurrentPeriodEnd int64  `json:"current_period_end"` // unix seconds
	}
)

// IsActive reports whether the subscription currently grants access:
// trialing or active, with the period end (when known) not in the past.
func (s Subscription) IsActive() bool {
	if s.Status != StatusActive && s.Status != StatusTrialing {
		return false
	}
	if !s.CurrentPeriodEnd.IsZero() && s.CurrentPeriodEnd.Before(nowFunc().UTC()) {
		return false
	}
	return true
}
