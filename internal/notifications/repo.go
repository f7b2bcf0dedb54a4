package notifications

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/havenandoak/storefront-backend/pkg/db/models"
)

// Repository persists newsletter subscribers.
type Repository interface {
	UpsertSubscriber(ctx context.Context, subscriber *models.NewsletterSubscriber) error
	FindSubscriberByEmail(ctx context.Context, email string) (*models.NewsletterSubscriber, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// UpsertSubscriber inserts the subscriber, silently keeping the existing row
// on a duplicate email. Repeat opt-ins are not an error.
func (r *repository) UpsertSubscriber(ctx context.Context, subscriber *models.NewsletterSubscriber) error {
	subscriber.Email = strings.ToLower(strings.TrimSpace(subscriber.Email))
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "email"}},
			DoNothing: true,
		}).
		Create(subscriber).Error
}

func (r *repository) FindSubscriberByEmail(ctx context.Context, email string) (*models.NewsletterSubscriber, error) {
	var subscriber models.NewsletterSubscriber
	err := r.db.WithContext(ctx).
		First(&subscriber, "email = ?", strings.ToLower(strings.TrimSpace(email))).Error
	if err != nil {
		return nil, err
	}
	return &subscriber, nil
}
