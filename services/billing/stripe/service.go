package stripesvc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/prepdesk/prepdesk/core"
	"github.com/prepdesk/prepdesk/core/billing"
	"github.com/prepdesk/prepdesk/core/user"
)

var (
	host             = "https://api.stripe.com"
	checkoutEndpoint = "/v1/checkout/sessions"
	portalEndpoint   = "/v1/billing_portal/sessions"
)

type stripeService struct {
	key        string
	successURL string
	cancelURL  string
	client     *http.Client
}

var _ billing.Provider = (*stripeService)(nil)

func NewStripeService() *stripeService {
	return &stripeService{
		key:        core.Conf.Billing.APIKey,
		successURL: core.Conf.FrontendBaseURL + core.Conf.Billing.SuccessURL,
		cancelURL:  core.Conf.FrontendBaseURL + core.Conf.Billing.CancelURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

func (svc stripeService) CreateCheckoutSession(ctx context.Context, usr user.User, priceID string) (billing.CheckoutSession, error) {
	form := url.Values{}
	form.Set("mode", "subscription")
	form.Set("client_reference_id", usr.ID)
	form.Set("customer_email", usr.Email)
	form.Set("line_items[0][price]", priceID)
	form.Set("line_items[0][quantity]", "1")
	form.Set("success_url", svc.successURL)
	form.Set("cancel_url", svc.cancelURL)

	var sess billing.CheckoutSession
	if err := svc.post(ctx, checkoutEndpoint, form, &sess); err != nil {
		return billing.CheckoutSession{}, err
	}
	return sess, nil
}

func (svc stripeService) CreatePortalSession(ctx context.Context, customerID string) (billing.PortalSession, error) {
	form := url.Values{}
	form.Set("customer", customerID)
	form.Set("return_url", core.Conf.FrontendBaseURL)

	var sess billing.PortalSession
	if err := svc.post(ctx, portalEndpoint, form, &sess); err != nil {
		return billing.PortalSession{}, err
	}
	return sess, nil
}

func (svc stripeService) post(ctx context.Context, endpoint string, form url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, host+endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return errors.Wrap(err, "building provider request")
	}
	req.Header.Set("Authorization", "Bearer "+svc.key)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := svc.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "calling provider")
	}
	defer res.Body.Close()

	if res.StatusCode >= http.StatusBadRequest {
		var apiErr struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.NewDecoder(res.Body).Decode(&apiErr)
		return errors.Errorf("provider returned %d: %s", res.StatusCode, apiErr.Error.Message)
	}
	return errors.Wrap(json.NewDecoder(res.Body).Decode(out), "decoding provider response")
}
