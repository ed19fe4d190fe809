package model

import "time"

// CartItem is one line of an owner's cart. ProductID is not a foreign key:
// lines may outlive their product and are resolved at read time.
type CartItem struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	OwnerKey  string    `gorm:"size:128;not null;uniqueIndex:idx_cart_owner_product" json:"-"`
	ProductID uint      `gorm:"not null;uniqueIndex:idx_cart_owner_product;index" json:"product_id"`
	Quantity  int       `gorm:"not null;check:chk_cart_items_quantity,quantity > 0" json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (CartItem) TableName() string {
	return "cart_items"
}
