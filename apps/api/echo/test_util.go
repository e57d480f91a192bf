package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/prepdesk/prepdesk/core"
	"github.com/prepdesk/prepdesk/core/audio"
	"github.com/prepdesk/prepdesk/core/billing"
	"github.com/prepdesk/prepdesk/core/exam"
	"github.com/prepdesk/prepdesk/core/grind"
	"github.com/prepdesk/prepdesk/core/support"
	"github.com/prepdesk/prepdesk/core/user"
	emailsvc "github.com/prepdesk/prepdesk/services/email"
	logsvc "github.com/prepdesk/prepdesk/services/logger"
	"github.com/prepdesk/prepdesk/storage/database/inmem"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

type testEnv struct {
	server Server

	users    *inmem.UserRepository
	exams    *inmem.ExamRepository
	audios   *inmem.AudioRepository
	grinds   *inmem.GrindRepository
	billing  *inmem.BillingRepository
	supports *inmem.SupportRepository

	usrSvc *user.Service
}

type stubProvider struct{}

func (stubProvider) CreateCheckoutSession(ctx context.Context, usr user.User, priceID string) (billing.CheckoutSession, error) {
	return billing.CheckoutSession{URL: "https://pay.test/checkout/" + usr.ID}, nil
}

func (stubProvider) CreatePortalSession(ctx context.Context, customerID string) (billing.PortalSession, error) {
	return billing.PortalSession{URL: "https://pay.test/portal/" + customerID}, nil
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	// the error handler exposes raw errors in debug mode; tests assert on
	// the production envelopes
	core.Conf.Debug = false
	core.Conf.TestMode = true

	env := &testEnv{
		users:    inmem.NewUserRepository(),
		exams:    inmem.NewExamRepository(),
		audios:   inmem.NewAudioRepository(),
		billing:  inmem.NewBillingRepository(),
		supports: inmem.NewSupportRepository(),
	}
	env.grinds = inmem.NewGrindRepository(env.users)

	mailSvc := emailsvc.NewConsoleServiceMock()
	logger := logsvc.NewStdLogger(log.New(io.Discard, "", 0))

	env.usrSvc = user.NewService(env.users, mailSvc)
	env.server = NewServer(&Options{
		Address:        "localhost:0",
		DisableReqLogs: true,
		Logger:         logger,
		SignalShutdown: func() {},
		UserSvc:        env.usrSvc,
		ExamSvc:        exam.NewService(env.exams),
		AudioSvc:       audio.NewService(env.audios),
		GrindSvc:       grind.NewService(env.grinds, mailSvc),
		BillingSvc:     billing.NewService(env.billing, stubProvider{}, logger),
		SupportSvc:     support.NewService(env.supports, mailSvc),
	})
	return env
}

func (env *testEnv) createUser(t *testing.T, name, email, pwd string, roles []string) user.User {
	t.Helper()

	now := time.Now().UTC()
	usr := user.User{
		Name:      name,
		Email:     email,
		Roles:     roles,
		CreatedAt: now,
		UpdatedAt: now,
	}
	usr.SetActive(true)
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("createUser() failed: %v", err)
		}
	}
	usr, err := env.users.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}

// subscribe grants the user an active subscription directly in storage.
func (env *testEnv) subscribe(t *testing.T, userID string) {
	t.Helper()

	_, err := env.billing.UpsertSubscription(context.Background(), billing.Subscription{
		UserID:           userID,
		Status:           billing.StatusActive,
		CurrentPeriodEnd: time.Now().UTC().Add(30 * 24 * time.Hour),
		CustomerID:       "cus_" + userID,
		UpdatedAt:        time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("subscribe() failed: %v", err)
	}
}

func getToken(t *testing.T, usr user.User) string {
	t.Helper()

	token, err := GenerateToken(GetUserClaims(usr))
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()

	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decodeBody() failed: %v; body: %s", err, rec.Body.String())
	}
}
