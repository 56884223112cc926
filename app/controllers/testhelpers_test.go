package controllers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/html/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ManuelReschke/CoursePay/app/models"
	"github.com/ManuelReschke/CoursePay/internal/pkg/billing"
	"github.com/ManuelReschke/CoursePay/internal/pkg/checkout"
	"github.com/ManuelReschke/CoursePay/internal/pkg/config"
	"github.com/ManuelReschke/CoursePay/internal/pkg/database"
	"github.com/ManuelReschke/CoursePay/internal/pkg/jobqueue"
)

const testSecret = "whsec_controller_secret"

func testConfig() *config.Config {
	return &config.Config{
		AppEnv:                 "test",
		PublicDomain:           "http://shop.test",
		StripeWebhookSecret:    testSecret,
		StripeWebhookTolerance: 5 * time.Minute,
		CheckoutCurrency:       "twd",
		WebhookTimeout:         5 * time.Second,
		WebhookFailurePolicy:   config.FailurePolicyAck,
	}
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "controllers.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close(db) })
	return db
}

func newTestApp() *fiber.App {
	return fiber.New(fiber.Config{
		Views: html.New("../../views", ".html"),
	})
}

func completedEvent(eventID, sessionID string, amount int64, status string) []byte {
	return []byte(fmt.Sprintf(`{"id":%q,"type":"checkout.session.completed","data":{"object":{"id":%q,"metadata":{"course_id":"course_py_basic"},"amount_total":%d,"payment_status":%q,"customer_details":{"email":"buyer@example.com"}}}}`,
		eventID, sessionID, amount, status))
}

func signedWebhook(payload []byte, secret string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/billing/webhook", strings.NewReader(string(payload)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(billing.SignatureHeader, billing.SignStripePayload(payload, secret, time.Now()))
	return req
}

func postForm(path string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

type fakeGateway struct {
	calls   []checkout.SessionRequest
	session *checkout.Session
	err     error
	summary *checkout.SessionSummary
	gets    int
}

func (f *fakeGateway) CreateSession(_ context.Context, req checkout.SessionRequest) (*checkout.Session, error) {
	f.calls = append(f.calls, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.session, nil
}

func (f *fakeGateway) GetSession(_ context.Context, sessionID string) (*checkout.SessionSummary, error) {
	f.gets++
	return f.summary, nil
}

// ledgerDownRepo fails every ledger write while the event log keeps working.
type ledgerDownRepo struct {
	billing.Repository
}

func (ledgerDownRepo) ApplyCompletion(context.Context, billing.CheckoutCompleted) (*models.Payment, error) {
	return nil, fmt.Errorf("database is locked")
}

type recordingReplayQueue struct {
	events []*billing.Event
}

func (q *recordingReplayQueue) EnqueueWebhookReplay(_ context.Context, ev *billing.Event) (*jobqueue.Job, error) {
	q.events = append(q.events, ev)
	return &jobqueue.Job{ID: fmt.Sprintf("job-%d", len(q.events))}, nil
}
