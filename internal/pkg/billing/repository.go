package billing

import (
	"context"
	"errors"
	"strings"

	"github.com/ManuelReschke/CoursePay/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository is the only writer of the webhook_events and payments tables.
type Repository interface {
	CreateWebhookEventIfNotExists(ctx context.Context, event *models.WebhookEvent) (bool, error)
	FindWebhookEvent(ctx context.Context, eventID string) (*models.WebhookEvent, error)
	ApplyCompletion(ctx context.Context, c CheckoutCompleted) (*models.Payment, error)
	ListPayments(ctx context.Context, q PaymentQuery) ([]models.Payment, int64, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a billing repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

// CreateWebhookEventIfNotExists relies on the unique event_id index, so two
// concurrent deliveries of one event cannot both insert.
func (r *gormRepository) CreateWebhookEventIfNotExists(ctx context.Context, event *models.WebhookEvent) (bool, error) {
	tx := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrDuplicatedKey) {
			return false, nil
		}
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *gormRepository) FindWebhookEvent(ctx context.Context, eventID string) (*models.WebhookEvent, error) {
	var ev models.WebhookEvent
	if err := r.db.WithContext(ctx).Where("event_id = ?", eventID).First(&ev).Error; err != nil {
		return nil, err
	}
	return &ev, nil
}

// ApplyCompletion inserts the ledger row for a session or, when it exists,
// overwrites only its status. An empty reported status leaves the row alone.
func (r *gormRepository) ApplyCompletion(ctx context.Context, c CheckoutCompleted) (*models.Payment, error) {
	payment := &models.Payment{
		StripeSessionID: c.SessionID,
		CourseID:        c.CourseID,
		Amount:          models.MinorToMajor(c.AmountMinor),
		Status:          models.InitialPaymentStatus(c.PaymentStatus),
		BuyerEmail:      c.BuyerEmail,
	}

	conflict := clause.OnConflict{
		Columns:   []clause.Column{{Name: "stripe_session_id"}},
		DoNothing: true,
	}
	if strings.TrimSpace(c.PaymentStatus) != "" {
		conflict = clause.OnConflict{
			Columns:   []clause.Column{{Name: "stripe_session_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "updated_at"}),
		}
	}

	var stored models.Payment
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(conflict).Create(payment).Error; err != nil {
			return err
		}
		return tx.Where("stripe_session_id = ?", c.SessionID).First(&stored).Error
	})
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *gormRepository) ListPayments(ctx context.Context, q PaymentQuery) ([]models.Payment, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Payment{})

	if term := strings.ToLower(strings.TrimSpace(q.Q)); term != "" {
		like := "%" + term + "%"
		query = query.Where("LOWER(course_id) LIKE ? OR LOWER(buyer_email) LIKE ?", like, like)
	}
	if q.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *q.CreatedFrom)
	}
	if q.CreatedBefore != nil {
		query = query.Where("created_at < ?", *q.CreatedBefore)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Payment
	err := query.
		Order("created_at DESC").
		Order("id DESC").
		Offset((q.Page - 1) * q.PageSize).
		Limit(q.PageSize).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
