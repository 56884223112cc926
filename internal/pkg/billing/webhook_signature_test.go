package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyStripeWebhook(t *testing.T) {
	payload := completedPayload("evt_1", "cs_1", 99000, "paid")
	now := time.Now()

	t.Run("valid signature", func(t *testing.T) {
		ev, err := VerifyStripeWebhook(payload, SignStripePayload(payload, testSecret, now), testSecret, 5*time.Minute)
		require.NoError(t, err)
		assert.Equal(t, "evt_1", ev.ID)
		assert.Equal(t, EventCheckoutSessionCompleted, ev.Type)
		assert.NotEmpty(t, ev.Object)
	})

	t.Run("missing secret", func(t *testing.T) {
		_, err := VerifyStripeWebhook(payload, SignStripePayload(payload, testSecret, now), "  ", 0)
		assert.ErrorIs(t, err, ErrConfiguration)
	})

	t.Run("wrong secret", func(t *testing.T) {
		_, err := VerifyStripeWebhook(payload, SignStripePayload(payload, "whsec_other", now), testSecret, 0)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("missing header", func(t *testing.T) {
		_, err := VerifyStripeWebhook(payload, "", testSecret, 0)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("tampered body", func(t *testing.T) {
		header := SignStripePayload(payload, testSecret, now)
		tampered := completedPayload("evt_1", "cs_1", 1, "paid")
		_, err := VerifyStripeWebhook(tampered, header, testSecret, 0)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("expired timestamp", func(t *testing.T) {
		header := SignStripePayload(payload, testSecret, now.Add(-time.Hour))
		_, err := VerifyStripeWebhook(payload, header, testSecret, 5*time.Minute)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("invalid signature wins over invalid body", func(t *testing.T) {
		_, err := VerifyStripeWebhook([]byte("not json"), "t=1,v1=deadbeef", testSecret, 0)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("signed garbage is malformed", func(t *testing.T) {
		body := []byte("not json")
		_, err := VerifyStripeWebhook(body, SignStripePayload(body, testSecret, now), testSecret, 0)
		assert.ErrorIs(t, err, ErrMalformedPayload)
	})

	t.Run("verifier struct", func(t *testing.T) {
		v := Verifier{Secret: testSecret, Tolerance: time.Minute}
		ev, err := v.Verify(payload, SignStripePayload(payload, testSecret, now))
		require.NoError(t, err)
		assert.Equal(t, "evt_1", ev.ID)
	})
}
