package model

import "time"

const (
	MinRating = 1
	MaxRating = 5
)

// Review is immutable once written. The same customer may review a product
// more than once.
type Review struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	ProductID  uint      `gorm:"not null;index" json:"product_id"`
	CustomerID uint      `gorm:"not null;index" json:"customer_id"`
	Rating     int       `gorm:"not null;check:chk_reviews_rating,rating BETWEEN 1 AND 5" json:"rating"`
	Title      string    `gorm:"size:200" json:"title"`
	Comment    string    `gorm:"type:text" json:"comment"`
	IsVerified bool      `gorm:"not null" json:"is_verified"` // reviewer bought the product
	CreatedAt  time.Time `json:"created_at"`
}

func (Review) TableName() string {
	return "reviews"
}
