package repository

import (
	"context"
	"errors"

	"github.com/Eursukkul/stay-booking/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrEventNotFound = errors.New("webhook event not found")

type WebhookEventRepository interface {
	// Record inserts the event once per webhook id. recorded is false when a
	// row with the same webhook id already exists.
	Record(ctx context.Context, event *models.WebhookEvent) (recorded bool, err error)
	FindByWebhookID(ctx context.Context, webhookID string) (*models.WebhookEvent, error)
}

type webhookEventRepository struct {
	db *gorm.DB
}

func NewWebhookEventRepository(db *gorm.DB) WebhookEventRepository {
	return &webhookEventRepository{db: db}
}

func (r *webhookEventRepository) Record(ctx context.Context, event *models.WebhookEvent) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "webhook_id"}},
			DoNothing: true,
		}).
		Create(event)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *webhookEventRepository) FindByWebhookID(ctx context.Context, webhookID string) (*models.WebhookEvent, error) {
	var event models.WebhookEvent
	if err := r.db.WithContext(ctx).Where("webhook_id = ?", webhookID).First(&event).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return &event, nil
}
