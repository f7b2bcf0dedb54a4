package models

import (
	"time"

	"github.com/google/uuid"
)

// NewsletterSubscriber records an opted-in email. Registration is best-effort
// and happens off the order-creation critical path.
type NewsletterSubscriber struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email     string    `gorm:"column:email;not null;uniqueIndex"`
	Name      string    `gorm:"column:name"`
	Source    string    `gorm:"column:source;not null;default:'checkout'"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
