package echoapi

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/prepdesk/prepdesk/core"
	"github.com/prepdesk/prepdesk/core/billing"
	"github.com/prepdesk/prepdesk/core/user"
)

func signWebhook(payload []byte) string {
	mac := hmac.New(sha256.New, []byte(core.Conf.Billing.WebhookSecret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestBillingApi_subscription(t *testing.T) {
	env := newTestEnv(t)
	student := env.createUser(t, "Jess Murphy", "jess@test.com", "Str0ngPwd!!", user.StudentRoles)
	token := getToken(t, student)

	t.Run("users without a subscription get a none row", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/billing/subscription", token)
		env.server.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var sub billing.Subscription
		decodeBody(t, rec, &sub)
		assert.Equal(t, student.ID, sub.UserID)
		assert.Equal(t, billing.StatusNone, sub.Status)
	})

	t.Run("subscribed users see their subscription", func(t *testing.T) {
		env.subscribe(t, student.ID)
		req, rec := newAuthRequest(http.MethodGet, "/v1/billing/subscription", token)
		env.server.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var sub billing.Subscription
		decodeBody(t, rec, &sub)
		assert.Equal(t, billing.StatusActive, sub.Status)
	})
}

func TestBillingApi_checkoutAndPortal(t *testing.T) {
	env := newTestEnv(t)
	student := env.createUser(t, "Jess Murphy", "jess@test.com", "Str0ngPwd!!", user.StudentRoles)
	token := getToken(t, student)

	t.Run("checkout returns a redirect URL", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/billing/checkout", token)
		env.server.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var sess billing.CheckoutSession
		decodeBody(t, rec, &sess)
		assert.NotEmpty(t, sess.URL)
	})

	t.Run("portal without a customer record is rejected", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/billing/portal", token)
		env.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	})

	t.Run("portal for an existing customer", func(t *testing.T) {
		env.subscribe(t, student.ID)
		req, rec := newAuthRequest(http.MethodPost, "/v1/billing/portal", token)
		env.server.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var sess billing.PortalSession
		decodeBody(t, rec, &sess)
		assert.NotEmpty(t, sess.URL)
	})
}

func TestBillingApi_webhook(t *testing.T) {
	env := newTestEnv(t)
	student := env.createUser(t, "Jess Murphy", "jess@test.com", "Str0ngPwd!!", user.StudentRoles)
	token := getToken(t, student)

	periodEnd := time.Now().UTC().Add(30 * 24 * time.Hour)
	payload := []byte(fmt.Sprintf(
		`{"id":"evt_1","type":"checkout.completed","data":{"customer":"cus_1","subscription":"sub_1","client_reference_id":%q,"status":"active","plan":"monthly","current_period_end":%d}}`,
		student.ID, periodEnd.Unix(),
	))

	t.Run("bad signature is rejected", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/billing/webhook", payload)
		req.Header.Set(webhookSignatureHeader, "bogus")
		env.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	})

	t.Run("valid event activates the subscription", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/billing/webhook", payload)
		req.Header.Set(webhookSignatureHeader, signWebhook(payload))
		env.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, SuccessResponse{Success: "received"})}, rec)

		// the gate now lets the user through
		req, rec = newAuthRequest(http.MethodGet, "/v1/stats", token)
		env.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	})
}
