package model

import (
	"database/sql/driver"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

type Product struct {
	ID             uint                `gorm:"primarykey" json:"id"`
	Name           string              `gorm:"not null;index" json:"name"`
	Description    string              `gorm:"type:text" json:"description"`
	ImageURL       string              `json:"image_url"`
	Price          decimal.Decimal     `gorm:"type:numeric(12,2);not null" json:"price"`
	SalePrice      decimal.NullDecimal `gorm:"type:numeric(12,2)" json:"sale_price"` // null when not on sale
	CategoryID     uint                `gorm:"not null;index" json:"category_id"`
	Features       StringList          `json:"features"`
	Specifications datatypes.JSONMap   `json:"specifications"`
	Stock          int                 `gorm:"not null;default:0;check:chk_products_stock,stock >= 0" json:"stock"`
	IsActive       bool                `gorm:"not null;index" json:"is_active"`

	// Rating and ReviewCount are derived from reviews and rewritten with each one.
	Rating      decimal.Decimal `gorm:"type:numeric(2,1);not null;default:0" json:"rating"`
	ReviewCount int             `gorm:"not null;default:0" json:"review_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Category Category `gorm:"foreignKey:CategoryID" json:"category"`
}

func (Product) TableName() string {
	return "products"
}

// UnitPrice is the price a buyer pays right now: the sale price when set,
// otherwise the list price.
func (p *Product) UnitPrice() decimal.Decimal {
	if p.SalePrice.Valid {
		return p.SalePrice.Decimal
	}
	return p.Price
}

// CanFulfil reports whether qty units can be sold from this product.
func (p *Product) CanFulfil(qty int) bool {
	return p.IsActive && qty > 0 && p.Stock >= qty
}

// RoundMoney rounds half away from zero to cents.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// AverageRating is the mean of sum over count rounded to one decimal, zero for no reviews.
func AverageRating(sum, count int64) decimal.Decimal {
	if count == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(sum).Div(decimal.NewFromInt(count)).Round(1)
}

// StringList is stored as text[] on postgres and as an array literal in a
// text column elsewhere.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	return pq.StringArray(l).Value()
}

func (l *StringList) Scan(src interface{}) error {
	return (*pq.StringArray)(l).Scan(src)
}

func (StringList) GormDataType() string {
	return "stringlist"
}

func (StringList) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "text[]"
	}
	return "text"
}
