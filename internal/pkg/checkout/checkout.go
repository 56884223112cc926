package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ManuelReschke/CoursePay/internal/pkg/catalog"
	"github.com/gofiber/fiber/v2/log"
)

var (
	ErrMissingCourse = errors.New("missing course_id")
	ErrInvalidCourse = errors.New("invalid course_id")
	ErrProcessor     = errors.New("payment processor error")
	ErrNoRedirect    = errors.New("payment processor did not return a checkout URL")
)

// SessionRequest is what the gateway needs to open a hosted checkout.
type SessionRequest struct {
	CourseID      string
	CourseTitle   string
	UnitAmount    int64
	Currency      string
	SuccessURL    string
	CancelURL     string
	CustomerEmail string
	UserID        string
}

type Session struct {
	ID  string
	URL string
}

// SessionSummary is a display-only view of a checkout session. The ledger
// stays authoritative for payment state.
type SessionSummary struct {
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
	AmountTWD int64  `json:"amount_twd"`
	Email     string `json:"email"`
	CourseID  string `json:"course_id"`
}

// Gateway talks to the payment processor.
type Gateway interface {
	CreateSession(ctx context.Context, req SessionRequest) (*Session, error)
	GetSession(ctx context.Context, sessionID string) (*SessionSummary, error)
}

// Request is a checkout attempt from the browser. ClientPrice is accepted for
// diagnostics only and never priced.
type Request struct {
	CourseID    string
	ClientPrice string
	UserID      uint
	Email       string
}

type Echo struct {
	CourseID string `json:"course_id"`
	PriceTWD int64  `json:"price_twd"`
}

// Result holds either a redirect target or, without a gateway, an echo.
type Result struct {
	Course      catalog.Course
	SessionID   string
	RedirectURL string
	Echo        *Echo
}

// Initiator turns a course id into a processor checkout session.
type Initiator struct {
	catalog    catalog.Catalog
	gateway    Gateway
	currency   string
	successURL string
	cancelURL  string
}

// NewInitiator wires the checkout flow. A nil gateway puts it in echo mode.
// baseURL is the public origin used for return URLs.
func NewInitiator(c catalog.Catalog, gateway Gateway, currency, baseURL string) *Initiator {
	base := strings.TrimRight(baseURL, "/")
	if currency == "" {
		currency = "twd"
	}
	return &Initiator{
		catalog:    c,
		gateway:    gateway,
		currency:   strings.ToLower(currency),
		successURL: base + "/billing/success?session_id={CHECKOUT_SESSION_ID}",
		cancelURL:  base + "/billing/cancel",
	}
}

// EchoMode reports whether no processor is configured.
func (i *Initiator) EchoMode() bool {
	return i.gateway == nil
}

// Begin validates the course against the catalog before any processor call
// and prices it from the catalog.
func (i *Initiator) Begin(ctx context.Context, req Request) (*Result, error) {
	courseID := strings.TrimSpace(req.CourseID)
	if courseID == "" {
		return nil, ErrMissingCourse
	}
	course, ok := i.catalog.Find(courseID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidCourse, courseID)
	}

	if i.gateway == nil {
		return &Result{Course: course, Echo: &Echo{CourseID: course.ID, PriceTWD: course.PriceTWD}}, nil
	}

	sr := SessionRequest{
		CourseID:      course.ID,
		CourseTitle:   course.Title,
		UnitAmount:    course.UnitAmount(),
		Currency:      i.currency,
		SuccessURL:    i.successURL,
		CancelURL:     i.cancelURL,
		CustomerEmail: strings.TrimSpace(req.Email),
	}
	if req.UserID != 0 {
		sr.UserID = fmt.Sprintf("%d", req.UserID)
	}

	sess, err := i.gateway.CreateSession(ctx, sr)
	if err != nil {
		log.Errorf("[Checkout] create session for %s failed: %v", course.ID, err)
		if errors.Is(err, ErrProcessor) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrProcessor, err)
	}
	if sess == nil || sess.URL == "" {
		return nil, ErrNoRedirect
	}

	log.Infof("[Checkout] session %s created for course %s amount=%d", sess.ID, course.ID, sr.UnitAmount)
	return &Result{Course: course, SessionID: sess.ID, RedirectURL: sess.URL}, nil
}

// Summary fetches a display summary for the success page. It returns nil
// without error in echo mode or when sessionID is empty.
func (i *Initiator) Summary(ctx context.Context, sessionID string) (*SessionSummary, error) {
	sessionID = strings.TrimSpace(sessionID)
	if i.gateway == nil || sessionID == "" {
		return nil, nil
	}
	return i.gateway.GetSession(ctx, sessionID)
}
