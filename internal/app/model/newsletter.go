package model

import "time"

type NewsletterSubscriber struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	Email     string    `gorm:"size:255;not null;uniqueIndex" json:"email"`
	IsActive  bool      `gorm:"not null" json:"is_active"`
	CreatedAt time.Time `json:"subscribed_at"`
}

func (NewsletterSubscriber) TableName() string {
	return "newsletter_subscribers"
}
