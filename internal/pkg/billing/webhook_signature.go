package billing

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v81/webhook"
)

// SignatureHeader is the request header carrying the processor signature.
const SignatureHeader = "Stripe-Signature"

// Verifier checks webhook signatures against a shared secret. A zero
// Tolerance uses the processor library default.
type Verifier struct {
	Secret    string
	Tolerance time.Duration
}

// Verify authenticates payload and returns the parsed event. It has no side effects.
func (v Verifier) Verify(payload []byte, signatureHeader string) (*Event, error) {
	return VerifyStripeWebhook(payload, signatureHeader, v.Secret, v.Tolerance)
}

// VerifyStripeWebhook validates the timestamped HMAC signature before parsing
// the body, so nothing untrusted is decoded.
func VerifyStripeWebhook(payload []byte, signatureHeader, secret string, tolerance time.Duration) (*Event, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, ErrConfiguration
	}
	if tolerance <= 0 {
		tolerance = webhook.DefaultTolerance
	}

	if err := webhook.ValidatePayloadWithTolerance(payload, signatureHeader, secret, tolerance); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidSignature, signatureFailureReason(err))
	}

	return ParseEvent(payload)
}

func signatureFailureReason(err error) string {
	switch {
	case errors.Is(err, webhook.ErrNotSigned):
		return "missing signature header"
	case errors.Is(err, webhook.ErrInvalidHeader):
		return "unparsable signature header"
	case errors.Is(err, webhook.ErrTooOld):
		return "timestamp outside tolerance"
	case errors.Is(err, webhook.ErrNoValidSignature):
		return "no matching signature"
	default:
		return err.Error()
	}
}

// SignStripePayload builds a signature header value for payload, as the
// processor CLI does when forwarding events locally.
func SignStripePayload(payload []byte, secret string, at time.Time) string {
	sig := webhook.ComputeSignature(at, payload, secret)
	return fmt.Sprintf("t=%d,v1=%s", at.Unix(), hex.EncodeToString(sig))
}
