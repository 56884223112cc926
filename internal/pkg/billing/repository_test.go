package billing

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ManuelReschke/CoursePay/app/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestCreateWebhookEventIfNotExists(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()

	inserted, err := repo.CreateWebhookEventIfNotExists(ctx, &models.WebhookEvent{EventID: "evt_1", Type: "x", PayloadJSON: "{}"})
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = repo.CreateWebhookEventIfNotExists(ctx, &models.WebhookEvent{EventID: "evt_1", Type: "x", PayloadJSON: "{}"})
	require.NoError(t, err)
	assert.False(t, inserted)

	stored, err := repo.FindWebhookEvent(ctx, "evt_1")
	require.NoError(t, err)
	assert.Equal(t, "x", stored.Type)
	assert.False(t, stored.ReceivedAt.IsZero())
}

func TestCreateWebhookEventConcurrent(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)

	const workers = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		inserted int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.CreateWebhookEventIfNotExists(context.Background(),
				&models.WebhookEvent{EventID: "evt_race", Type: "x", PayloadJSON: "{}"})
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				inserted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	var count int64
	require.NoError(t, db.Model(&models.WebhookEvent{}).Where("event_id = ?", "evt_race").Count(&count).Error)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, 1, inserted)
}

func TestApplyCompletionInsertThenUpdateStatus(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	first, err := repo.ApplyCompletion(ctx, CheckoutCompleted{
		SessionID: "cs_2", CourseID: "course_flask_web", AmountMinor: 149000,
		PaymentStatus: "pending", BuyerEmail: strPtr("a@example.com"),
	})
	require.NoError(t, err)
	assert.Equal(t, "pending", first.Status)
	assert.Equal(t, int64(1490), first.Amount)

	second, err := repo.ApplyCompletion(ctx, CheckoutCompleted{
		SessionID: "cs_2", CourseID: "other", AmountMinor: 1,
		PaymentStatus: "paid", BuyerEmail: strPtr("b@example.com"),
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "paid", second.Status)
	assert.Equal(t, "course_flask_web", second.CourseID)
	assert.Equal(t, int64(1490), second.Amount)
	assert.Equal(t, "a@example.com", second.Email())
	assert.WithinDuration(t, first.CreatedAt, second.CreatedAt, time.Second)

	var count int64
	require.NoError(t, db.Model(&models.Payment{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestApplyCompletionEmptyStatusKeepsRow(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()

	created, err := repo.ApplyCompletion(ctx, CheckoutCompleted{SessionID: "cs_3", CourseID: "c", PaymentStatus: ""})
	require.NoError(t, err)
	assert.Equal(t, "unknown", created.Status)

	_, err = repo.ApplyCompletion(ctx, CheckoutCompleted{SessionID: "cs_3", CourseID: "c", PaymentStatus: "paid"})
	require.NoError(t, err)

	kept, err := repo.ApplyCompletion(ctx, CheckoutCompleted{SessionID: "cs_3", CourseID: "c", PaymentStatus: ""})
	require.NoError(t, err)
	assert.Equal(t, "paid", kept.Status)
}

func TestApplyCompletionConcurrent(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.ApplyCompletion(context.Background(), CheckoutCompleted{
				SessionID: "cs_race", CourseID: "course_py_basic", AmountMinor: 99000, PaymentStatus: "paid",
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	var rows []models.Payment
	require.NoError(t, db.Where("stripe_session_id = ?", "cs_race").Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, "paid", rows[0].Status)
}

func TestListPaymentsFilters(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	base := time.Date(2025, 3, 10, 12, 0, 0, 0, time.Local)
	for i := 0; i < 5; i++ {
		p := models.Payment{
			StripeSessionID: fmt.Sprintf("cs_%d", i),
			CourseID:        "course_py_basic",
			Amount:          990,
			Status:          "paid",
			CreatedAt:       base.AddDate(0, 0, i),
		}
		if i%2 == 0 {
			p.BuyerEmail = strPtr(fmt.Sprintf("Even%d@Example.com", i))
			p.CourseID = "course_speech_ai"
		}
		require.NoError(t, db.Create(&p).Error)
	}

	rows, total, err := repo.ListPayments(ctx, PaymentQuery{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, rows, 2)
	assert.Equal(t, "cs_4", rows[0].StripeSessionID)
	assert.Equal(t, "cs_3", rows[1].StripeSessionID)

	rows, total, err = repo.ListPayments(ctx, PaymentQuery{Q: "even", Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, rows, 3)

	rows, total, err = repo.ListPayments(ctx, PaymentQuery{Q: "SPEECH", Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	q := ParsePaymentQuery("", "2025-03-11", "2025-03-12", "1", "10")
	rows, total, err = repo.ListPayments(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, rows, 2)
	assert.Equal(t, "cs_2", rows[0].StripeSessionID)
	assert.Equal(t, "cs_1", rows[1].StripeSessionID)
}
