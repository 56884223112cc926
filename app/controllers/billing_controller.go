package controllers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/CoursePay/internal/pkg/billing"
	"github.com/ManuelReschke/CoursePay/internal/pkg/cache"
	"github.com/ManuelReschke/CoursePay/internal/pkg/checkout"
	"github.com/ManuelReschke/CoursePay/internal/pkg/config"
	"github.com/ManuelReschke/CoursePay/internal/pkg/jobqueue"
	"github.com/ManuelReschke/CoursePay/internal/pkg/metrics/counter"
	"github.com/ManuelReschke/CoursePay/internal/pkg/usercontext"
)

const (
	summaryCacheTTL = 10 * time.Minute
	checkoutGetHint = "Please use the buy button on /courses (POST), this URL does not accept GET."
)

// ReplayQueue defers processing of verified events whose storage failed.
type ReplayQueue interface {
	EnqueueWebhookReplay(ctx context.Context, ev *billing.Event) (*jobqueue.Job, error)
}

// BillingController serves checkout, the return pages and the processor webhook.
type BillingController struct {
	cfg      *config.Config
	verifier billing.Verifier
	svc      *billing.Service
	checkout *checkout.Initiator
	cache    *cache.Cache
	counters *counter.WebhookCounters
	replays  ReplayQueue
}

func NewBillingController(cfg *config.Config, svc *billing.Service, initiator *checkout.Initiator) *BillingController {
	return &BillingController{
		cfg: cfg,
		verifier: billing.Verifier{
			Secret:    cfg.StripeWebhookSecret,
			Tolerance: cfg.StripeWebhookTolerance,
		},
		svc:      svc,
		checkout: initiator,
	}
}

// WithCache enables caching of success page summaries.
func (bc *BillingController) WithCache(c *cache.Cache) *BillingController {
	bc.cache = c
	return bc
}

func (bc *BillingController) WithCounters(w *counter.WebhookCounters) *BillingController {
	bc.counters = w
	return bc
}

// WithReplayQueue makes storage failures under the ack policy queue the event for a retry.
func (bc *BillingController) WithReplayQueue(q ReplayQueue) *BillingController {
	bc.replays = q
	return bc
}

func (bc *BillingController) HandlePing(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"module": "billing", "ok": true})
}

// HandleDebugKeys reports which processor keys are loaded, never their values.
func (bc *BillingController) HandleDebugKeys(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"has_STRIPE_API_KEY":        bc.cfg.StripeAPIKey != "",
		"has_STRIPE_WEBHOOK_SECRET": bc.cfg.StripeWebhookSecret != "",
	})
}

// HandleCheckoutGet answers direct browser visits of the checkout URLs.
func (bc *BillingController) HandleCheckoutGet(c *fiber.Ctx) error {
	return c.Status(fiber.StatusMethodNotAllowed).SendString(checkoutGetHint)
}

// HandleCheckout creates a processor checkout session for the posted course
// and redirects the browser to it. Without an API key it echoes the request.
func (bc *BillingController) HandleCheckout(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 20*time.Second)
	defer cancel()

	res, err := bc.checkout.Begin(ctx, checkout.Request{
		CourseID:    c.FormValue("course_id"),
		ClientPrice: c.FormValue("price_twd"),
		UserID:      usercontext.GetUserID(c),
		Email:       usercontext.GetEmail(c),
	})
	if err != nil {
		return flashError(c, checkoutErrorMessage(err), "/courses")
	}

	if res.Echo != nil {
		return c.JSON(fiber.Map{"ok": true, "echo": res.Echo})
	}

	return c.Redirect(res.RedirectURL, fiber.StatusSeeOther)
}

func checkoutErrorMessage(err error) string {
	switch {
	case errors.Is(err, checkout.ErrMissingCourse):
		return "Missing course id (course_id)."
	case errors.Is(err, checkout.ErrInvalidCourse):
		return "This course does not exist."
	case errors.Is(err, checkout.ErrNoRedirect):
		return "Checkout was created but no redirect URL was returned, please try again later."
	default:
		return fmt.Sprintf("Could not start checkout: %v", err)
	}
}

// HandleSuccess shows a best-effort summary of the checkout session. The
// ledger, written by the webhook, stays authoritative.
func (bc *BillingController) HandleSuccess(c *fiber.Ctx) error {
	sessionID := c.Query("session_id", c.Query("sid"))
	summary := bc.lookupSummary(c.UserContext(), sessionID)

	return c.Render("billing_success", pageData(c, "Payment complete", bc.cfg.IsDev(), fiber.Map{
		"SessionID": sessionID,
		"Summary":   summary,
	}), layoutMain)
}

func (bc *BillingController) lookupSummary(parent context.Context, sessionID string) *checkout.SessionSummary {
	if sessionID == "" || bc.checkout.EchoMode() {
		return nil
	}

	key := "checkout:summary:" + sessionID
	if bc.cache != nil {
		var cached checkout.SessionSummary
		if err := bc.cache.GetJSON(parent, key, &cached); err == nil {
			return &cached
		} else if !errors.Is(err, cache.ErrMiss) {
			log.Warnf("[Checkout] summary cache read failed: %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(parent, 10*time.Second)
	defer cancel()
	summary, err := bc.checkout.Summary(ctx, sessionID)
	if err != nil {
		log.Warnf("[Checkout] retrieve session %s failed: %v", sessionID, err)
		return nil
	}
	if summary != nil && bc.cache != nil {
		if err := bc.cache.SetJSON(parent, key, summary, summaryCacheTTL); err != nil {
			log.Warnf("[Checkout] summary cache write failed: %v", err)
		}
	}
	return summary
}

func (bc *BillingController) HandleCancel(c *fiber.Ctx) error {
	return c.Render("billing_cancel", pageData(c, "Checkout cancelled", bc.cfg.IsDev(), nil), layoutMain)
}

// HandleWebhook verifies a processor notification, logs it and reconciles
// the ledger. Verification failures answer 400. Storage failures answer
// according to the configured failure policy.
func (bc *BillingController) HandleWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.Body()...)

	bc.counters.Add(c.UserContext(), counter.Received)

	ev, err := bc.verifier.Verify(rawBody, c.Get(billing.SignatureHeader))
	if err != nil {
		return bc.rejectWebhook(c, err)
	}

	// The storage deadline starts here so counting never shortens it.
	timeout := bc.cfg.WebhookTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
	res, err := bc.svc.Process(ctx, ev)
	cancel()
	if err != nil {
		if errors.Is(err, billing.ErrStorageUnavailable) {
			return bc.storageFailure(c, ev, err)
		}
		log.Errorf("[Webhook] processing %s failed: %v", ev.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"ok": false, "error": "processing failed"})
	}

	if !res.Inserted {
		bc.counters.Add(c.UserContext(), counter.Duplicate)
	}
	if res.Outcome == billing.OutcomeApplied {
		bc.counters.Add(c.UserContext(), counter.Applied)
	} else {
		bc.counters.Add(c.UserContext(), counter.Ignored)
	}

	return c.JSON(fiber.Map{"ok": true})
}

func (bc *BillingController) rejectWebhook(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, billing.ErrConfiguration):
		log.Errorf("[Webhook] rejected: %v", err)
	case errors.Is(err, billing.ErrInvalidSignature):
		bc.counters.Add(c.UserContext(), counter.InvalidSignature)
		log.Warnf("[Webhook] invalid signature from %s: %v", GetClientIP(c), err)
	default:
		bc.counters.Add(c.UserContext(), counter.Malformed)
		log.Warnf("[Webhook] bad payload: %v", err)
	}
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"ok": false, "error": err.Error()})
}

// storageFailure applies the failure policy. "ack" answers 200 so the
// processor stops retrying and queues the event for a local replay.
// "retry" answers 500 and leaves redelivery to the processor.
func (bc *BillingController) storageFailure(c *fiber.Ctx, ev *billing.Event, err error) error {
	bc.counters.Add(c.UserContext(), counter.StorageWarning)

	if bc.cfg.WebhookFailurePolicy == config.FailurePolicyRetry {
		log.Errorf("[Webhook] %s not stored, asking processor to retry: %v", ev.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"ok": false, "error": "storage unavailable"})
	}

	log.Errorf("[Webhook] %s not stored, acknowledged anyway: %v", ev.ID, err)
	if bc.replays != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if job, qerr := bc.replays.EnqueueWebhookReplay(ctx, ev); qerr != nil {
			log.Errorf("[Webhook] %s could not be queued for replay: %v", ev.ID, qerr)
		} else {
			log.Infof("[Webhook] %s queued for replay as job %s", ev.ID, job.ID)
		}
	}

	return c.JSON(fiber.Map{"ok": true, "warning": "storage failed, event acknowledged"})
}
