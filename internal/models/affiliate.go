// internal/models/affiliate.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// ClickIPLimit caps how many distinct click IPs an affiliate link records.
// Past the cap new IPs are not stored but clicks still count.
const ClickIPLimit = 1000

type Affiliate struct {
	BaseModel
	UserID          uuid.UUID       `json:"user_id" gorm:"type:uuid;not null;uniqueIndex"`
	AffiliateCode   string          `json:"affiliate_code" gorm:"uniqueIndex;size:32;not null"`
	CommissionRate  float64         `json:"commission_rate" gorm:"type:decimal(5,2);not null"`
	TotalEarnings   float64         `json:"total_earnings" gorm:"type:decimal(20,2);default:0"`
	TotalReferrals  int64           `json:"total_referrals" gorm:"default:0"`
	BankName        string          `json:"bank_name" gorm:"size:100"`
	BankAccount     string          `json:"bank_account" gorm:"size:50"`
	BankAccountName string          `json:"bank_account_name" gorm:"size:100"`
	Status          AffiliateStatus `json:"status" gorm:"type:varchar(20);default:'active';index"`

	// Relationships
	User      User            `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Links     []AffiliateLink `json:"links,omitempty" gorm:"foreignKey:AffiliateID"`
	Referrals []Referral      `json:"referrals,omitempty" gorm:"foreignKey:AffiliateID"`
}

type AffiliateLink struct {
	BaseModel
	AffiliateID           uuid.UUID  `json:"affiliate_id" gorm:"type:uuid;not null;index"`
	ProductID             uuid.UUID  `json:"product_id" gorm:"type:uuid;not null;index"`
	LinkCode              string     `json:"link_code" gorm:"uniqueIndex;size:16;not null"`
	Campaign              string     `json:"campaign" gorm:"size:100"`
	Notes                 string     `json:"notes" gorm:"type:text"`
	ShortURL              string     `json:"short_url" gorm:"size:512"`
	OriginalURL           string     `json:"original_url" gorm:"size:512"`
	ExpiresAt             time.Time  `json:"expires_at" gorm:"not null;index"`
	Status                LinkStatus `json:"status" gorm:"type:varchar(20);default:'active';index"`
	ClickCount            int64      `json:"click_count" gorm:"default:0"`
	ConversionCount       int64      `json:"conversion_count" gorm:"default:0"`
	TotalCommissionEarned float64    `json:"total_commission_earned" gorm:"type:decimal(20,2);default:0"`
	ClickIPs              StringList `json:"click_ips,omitempty" gorm:"type:text"`
	ConvertedUsers        StringList `json:"converted_users,omitempty" gorm:"type:text"`

	// Relationships
	Affiliate Affiliate `json:"affiliate,omitempty" gorm:"foreignKey:AffiliateID"`
	Product   Product   `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}

type Referral struct {
	BaseModel
	AffiliateID      uuid.UUID      `json:"affiliate_id" gorm:"type:uuid;not null;index;index:idx_referrals_affiliate_email,unique"`
	ReferredUserID   *uuid.UUID     `json:"referred_user_id" gorm:"type:uuid;index"`
	ReferredEmail    string         `json:"referred_email" gorm:"size:255;not null;index;index:idx_referrals_affiliate_email,unique"`
	ReferredPhone    string         `json:"referred_phone" gorm:"size:20"`
	Status           ReferralStatus `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	CommissionEarned float64        `json:"commission_earned" gorm:"type:decimal(20,2);default:0"`
	TotalOrderValue  float64        `json:"total_order_value" gorm:"type:decimal(20,2);default:0"`
	TotalOrders      int64          `json:"total_orders" gorm:"default:0"`

	// Relationships
	Affiliate Affiliate `json:"affiliate,omitempty" gorm:"foreignKey:AffiliateID"`
}

type CommissionTransaction struct {
	BaseModel
	AffiliateID      uuid.UUID        `json:"affiliate_id" gorm:"type:uuid;not null;index"`
	OrderID          uuid.UUID        `json:"order_id" gorm:"type:uuid;not null;uniqueIndex"`
	ReferralID       *uuid.UUID       `json:"referral_id" gorm:"type:uuid;index"`
	OrderAmount      float64          `json:"order_amount" gorm:"type:decimal(20,2);not null"`
	CommissionRate   float64          `json:"commission_rate" gorm:"type:decimal(5,2);not null"`
	CommissionAmount float64          `json:"commission_amount" gorm:"type:decimal(20,2);not null"`
	Status           CommissionStatus `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	PaymentMethod    string           `json:"payment_method" gorm:"size:50"`
	PaymentReference string           `json:"payment_reference" gorm:"size:255"`
	PaidDate         *time.Time       `json:"paid_date"`

	// Relationships
	Affiliate Affiliate `json:"affiliate,omitempty" gorm:"foreignKey:AffiliateID"`
	Order     Order     `json:"order,omitempty" gorm:"foreignKey:OrderID"`
	Referral  *Referral `json:"referral,omitempty" gorm:"foreignKey:ReferralID"`
}
