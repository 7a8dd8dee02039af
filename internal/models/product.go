// internal/models/product.go
package models

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Catalog and cart rows. The affiliate/order pipeline only reads these
// (product snapshots, cart lines) and clears cart rows; catalog CRUD is
// managed elsewhere.

type Category struct {
	BaseModel
	Name        string `json:"name" gorm:"size:100;not null"`
	Slug        string `json:"slug" gorm:"uniqueIndex;size:120;not null"`
	Description string `json:"description" gorm:"type:text"`
}

type Product struct {
	BaseModel
	CategoryID      uuid.UUID      `json:"category_id" gorm:"type:uuid;not null;index"`
	Name            string         `json:"name" gorm:"size:255;not null"`
	Slug            string         `json:"slug" gorm:"uniqueIndex;size:280;not null"`
	Description     string         `json:"description" gorm:"type:text"`
	Image           string         `json:"image" gorm:"size:512"`
	Images          pq.StringArray `json:"images" gorm:"type:text[]"`
	Tags            pq.StringArray `json:"tags" gorm:"type:text[]"`
	BasePrice       float64        `json:"base_price" gorm:"type:decimal(20,2);not null"`
	DiscountPercent float64        `json:"discount_percent" gorm:"type:decimal(5,2);default:0"`
	Status          ProductStatus  `json:"status" gorm:"type:varchar(20);default:'active';index"`

	// Relationships
	Category Category `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
}

// SalePrice is the base price with the discount applied.
func (p *Product) SalePrice() float64 {
	return p.BasePrice * (100 - p.DiscountPercent) / 100
}

type CartItem struct {
	BaseModel
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`
	ProductID uuid.UUID `json:"product_id" gorm:"type:uuid;not null;index"`
	Quantity  int       `json:"quantity" gorm:"not null;default:1"`

	// Relationships
	Product Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}
