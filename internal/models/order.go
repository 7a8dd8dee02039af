// internal/models/order.go
package models

import (
	"time"

	"github.com/google/uuid"
)

type Order struct {
	BaseModel
	UserID           uuid.UUID        `json:"user_id" gorm:"type:uuid;not null;index"`
	Status           OrderStatus      `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	Note             string           `json:"note" gorm:"type:text"`
	VoucherCode      string           `json:"voucher_code" gorm:"size:50"`
	TotalItems       int              `json:"total_items" gorm:"default:0"`
	TotalAmount      float64          `json:"total_amount" gorm:"type:decimal(20,2);default:0"`
	AffiliateCode    string           `json:"affiliate_code,omitempty" gorm:"size:32;index"`
	CommissionAmount float64          `json:"commission_amount,omitempty" gorm:"type:decimal(20,2);default:0"`
	CommissionStatus CommissionStatus `json:"commission_status,omitempty" gorm:"type:varchar(20)"`

	// Relationships
	User     User        `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Items    []OrderItem `json:"items,omitempty" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Payments []Payment   `json:"payments,omitempty" gorm:"foreignKey:OrderID"`
}

type OrderItem struct {
	BaseModel
	OrderID         uuid.UUID `json:"order_id" gorm:"type:uuid;not null;index"`
	ProductID       uuid.UUID `json:"product_id" gorm:"type:uuid;not null;index"`
	Quantity        int       `json:"quantity" gorm:"not null;default:1"`
	Price           float64   `json:"price" gorm:"type:decimal(20,2);not null"`
	DiscountPercent float64   `json:"discount_percent" gorm:"type:decimal(5,2);default:0"`
	FinalPrice      float64   `json:"final_price" gorm:"type:decimal(20,2);not null"`
	// Product fields frozen at add time so later catalog edits do not
	// rewrite order history.
	ProductSnapshot JSONB `json:"product_snapshot" gorm:"type:jsonb"`
}

type Payment struct {
	BaseModel
	OrderID          uuid.UUID     `json:"order_id" gorm:"type:uuid;not null;index"`
	Provider         string        `json:"provider" gorm:"size:50;not null"`
	Status           PaymentStatus `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	Amount           float64       `json:"amount" gorm:"type:decimal(20,2);not null"`
	BankName         string        `json:"bank_name" gorm:"size:100"`
	BankTransferCode string        `json:"bank_transfer_code" gorm:"size:100"`
	TransactionRef   string        `json:"transaction_ref" gorm:"size:255"`
	PaidAt           *time.Time    `json:"paid_at"`
	// Order state frozen at payment creation; payment history stays intact
	// if the order mutates afterwards.
	OrderSnapshot JSONB `json:"order_snapshot" gorm:"type:jsonb"`

	// Relationships
	Order Order `json:"order,omitempty" gorm:"foreignKey:OrderID"`
}
