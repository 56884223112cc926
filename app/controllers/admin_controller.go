package controllers

import (
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/CoursePay/internal/pkg/billing"
	"github.com/ManuelReschke/CoursePay/internal/pkg/config"
	"github.com/ManuelReschke/CoursePay/internal/pkg/metrics/counter"
)

// AdminController serves the read-only payments view and webhook maintenance.
type AdminController struct {
	cfg      *config.Config
	svc      *billing.Service
	counters *counter.WebhookCounters
}

// NewAdminController creates a new admin controller. counters may be nil.
func NewAdminController(cfg *config.Config, svc *billing.Service, counters *counter.WebhookCounters) *AdminController {
	return &AdminController{
		cfg:      cfg,
		svc:      svc,
		counters: counters,
	}
}

type paymentFilter struct {
	Q        string
	DateFrom string
	DateTo   string
}

func readPaymentFilter(c *fiber.Ctx) (paymentFilter, billing.PaymentQuery) {
	f := paymentFilter{
		Q:        strings.TrimSpace(c.Query("q")),
		DateFrom: strings.TrimSpace(c.Query("date_from")),
		DateTo:   strings.TrimSpace(c.Query("date_to")),
	}
	return f, billing.ParsePaymentQuery(f.Q, f.DateFrom, f.DateTo, c.Query("page"), c.Query("page_size"))
}

// pageURL keeps the filter when following pagination links.
func (f paymentFilter) pageURL(page, pageSize int) string {
	v := url.Values{}
	if f.Q != "" {
		v.Set("q", f.Q)
	}
	if f.DateFrom != "" {
		v.Set("date_from", f.DateFrom)
	}
	if f.DateTo != "" {
		v.Set("date_to", f.DateTo)
	}
	v.Set("page", strconv.Itoa(page))
	v.Set("page_size", strconv.Itoa(pageSize))
	return "/admin/payments?" + v.Encode()
}

// HandlePayments renders the payments ledger, newest first.
func (ac *AdminController) HandlePayments(c *fiber.Ctx) error {
	filter, query := readPaymentFilter(c)

	result, err := ac.svc.ListPayments(c.UserContext(), query)
	if err != nil {
		return ac.handleError(c, "Failed to load payments", err)
	}

	data := fiber.Map{
		"Filter":   filter,
		"Result":   result,
		"Counters": ac.counterSnapshot(c),
		"Fields":   counter.Fields,
	}
	if result.HasPrev {
		data["PrevURL"] = filter.pageURL(result.Page-1, result.PageSize)
	}
	if result.HasNext {
		data["NextURL"] = filter.pageURL(result.Page+1, result.PageSize)
	}

	return c.Render("admin_payments", pageData(c, "Payments", ac.cfg.IsDev(), data), layoutMain)
}

// HandlePaymentsAPI is the JSON form of HandlePayments.
func (ac *AdminController) HandlePaymentsAPI(c *fiber.Ctx) error {
	_, query := readPaymentFilter(c)

	result, err := ac.svc.ListPayments(c.UserContext(), query)
	if err != nil {
		log.Errorf("[Admin] list payments failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "internal_server_error",
			"message": "failed to load payments",
		})
	}
	return c.JSON(result)
}

// HandleWebhookCounters returns the webhook outcome counters.
func (ac *AdminController) HandleWebhookCounters(c *fiber.Ctx) error {
	return c.JSON(ac.counterSnapshot(c))
}

// HandleReplayEvent re-runs reconciliation for a logged event.
func (ac *AdminController) HandleReplayEvent(c *fiber.Ctx) error {
	eventID := c.Params("event_id")

	res, err := ac.svc.ReplayEvent(c.UserContext(), eventID)
	switch {
	case err == nil:
	case errors.Is(err, billing.ErrEventNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"ok": false, "error": err.Error()})
	case errors.Is(err, billing.ErrMalformedPayload):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"ok": false, "error": err.Error()})
	case errors.Is(err, billing.ErrStorageUnavailable):
		log.Errorf("[Admin] replay %s failed: %v", eventID, err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"ok": false, "error": "storage unavailable"})
	default:
		log.Errorf("[Admin] replay %s failed: %v", eventID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"ok": false, "error": "replay failed"})
	}

	log.Infof("[Admin] replayed %s outcome=%s", res.EventID, res.Outcome)
	return c.JSON(fiber.Map{
		"ok":         true,
		"event_id":   res.EventID,
		"event_type": res.EventType,
		"outcome":    res.Outcome,
		"payment":    res.Payment,
	})
}

func (ac *AdminController) HandlePing(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"module": "admin", "ok": true})
}

func (ac *AdminController) counterSnapshot(c *fiber.Ctx) map[string]int64 {
	snap, err := ac.counters.Snapshot(c.UserContext())
	if err != nil {
		log.Warnf("[Admin] webhook counters unavailable: %v", err)
	}
	if snap == nil {
		snap = map[string]int64{}
	}
	return snap
}

// handleError handles errors consistently
func (ac *AdminController) handleError(c *fiber.Ctx, message string, err error) error {
	log.Errorf("[Admin] %s: %v", message, err)
	return c.Status(fiber.StatusInternalServerError).SendString(message)
}
