package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
)

// StripeGateway creates and reads Checkout Sessions through the Stripe API.
type StripeGateway struct {
	api *client.API
}

// NewStripeGateway builds a gateway for apiKey. Nil backends use the Stripe defaults.
func NewStripeGateway(apiKey string, backends *stripe.Backends) *StripeGateway {
	return &StripeGateway{api: client.New(apiKey, backends)}
}

func (g *StripeGateway) CreateSession(ctx context.Context, req SessionRequest) (*Session, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Quantity: stripe.Int64(1),
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(req.Currency),
					UnitAmount: stripe.Int64(req.UnitAmount),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:     stripe.String(req.CourseTitle),
						Metadata: map[string]string{"course_id": req.CourseID},
					},
				},
			},
		},
	}
	params.Context = ctx
	params.AddMetadata("course_id", req.CourseID)
	if req.UserID != "" {
		params.AddMetadata("user_id", req.UserID)
		params.ClientReferenceID = stripe.String(req.UserID)
	}
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}

	sess, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, wrapStripeError(err)
	}
	return &Session{ID: sess.ID, URL: sess.URL}, nil
}

func (g *StripeGateway) GetSession(ctx context.Context, sessionID string) (*SessionSummary, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	params.AddExpand("customer_details")

	sess, err := g.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return nil, wrapStripeError(err)
	}

	summary := &SessionSummary{
		SessionID: sess.ID,
		Status:    string(sess.PaymentStatus),
		AmountTWD: sess.AmountTotal / 100,
		CourseID:  sess.Metadata["course_id"],
	}
	if sess.CustomerDetails != nil {
		summary.Email = sess.CustomerDetails.Email
	}
	return summary, nil
}

func wrapStripeError(err error) error {
	var se *stripe.Error
	if errors.As(err, &se) && se.Msg != "" {
		return fmt.Errorf("%w: %s", ErrProcessor, se.Msg)
	}
	return fmt.Errorf("%w: %v", ErrProcessor, err)
}
