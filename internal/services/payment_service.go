// internal/services/payment_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/javajoker/shopvn-backend/internal/models"
	"github.com/javajoker/shopvn-backend/internal/utils"
)

var ErrPaymentNotFound = errors.New("payment not found")

// PaymentService records payment outcomes against orders. It never talks to
// a payment gateway; the caller reports what happened and this service keeps
// the ledger consistent.
type PaymentService struct {
	db *gorm.DB
}

type CreatePaymentRequest struct {
	OrderID          uuid.UUID `json:"order_id" validate:"required"`
	Provider         string    `json:"provider" validate:"required,max=50"`
	Amount           float64   `json:"amount,omitempty" validate:"omitempty,min=0"`
	BankName         string    `json:"bank_name,omitempty" validate:"max=100"`
	BankTransferCode string    `json:"bank_transfer_code,omitempty" validate:"max=100"`
	TransactionRef   string    `json:"transaction_ref,omitempty" validate:"max=255"`
}

func NewPaymentService(db *gorm.DB) *PaymentService {
	return &PaymentService{db: db}
}

func (s *PaymentService) CreatePayment(req *CreatePaymentRequest) (*models.Payment, error) {
	// Validate request
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var order models.Order
	if err := s.db.Preload("Items").First(&order, "id = ?", req.OrderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	amount := req.Amount
	if amount == 0 {
		amount = order.TotalAmount
	}

	payment := &models.Payment{
		OrderID:          order.ID,
		Provider:         req.Provider,
		Status:           models.PaymentStatusPending,
		Amount:           amount,
		BankName:         req.BankName,
		BankTransferCode: req.BankTransferCode,
		TransactionRef:   req.TransactionRef,
		// Frozen copy; later order mutations do not rewrite payment history.
		OrderSnapshot: models.JSONB{
			"order_id":       order.ID.String(),
			"status":         string(order.Status),
			"total_items":    order.TotalItems,
			"total_amount":   order.TotalAmount,
			"affiliate_code": order.AffiliateCode,
		},
	}

	if err := s.db.Create(payment).Error; err != nil {
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}

	return payment, nil
}

// UpdatePaymentStatus validates the transition and records it. Moving a
// payment does not move its order; callers sequence both explicitly.
func (s *PaymentService) UpdatePaymentStatus(id uuid.UUID, next models.PaymentStatus) (*models.Payment, error) {
	if !next.Valid() {
		return nil, fmt.Errorf("unknown payment status %q: %w", next, ErrInvalidTransition)
	}

	var payment models.Payment
	if err := s.db.First(&payment, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if !payment.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("payment %s -> %s: %w", payment.Status, next, ErrInvalidTransition)
	}

	payment.Status = next
	if next == models.PaymentStatusCompleted {
		now := time.Now()
		payment.PaidAt = &now
	}

	if err := s.db.Save(&payment).Error; err != nil {
		return nil, fmt.Errorf("failed to update payment: %w", err)
	}

	return &payment, nil
}

func (s *PaymentService) GetPayment(id uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	if err := s.db.Preload("Order").First(&payment, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &payment, nil
}

func (s *PaymentService) GetPaymentsByOrder(orderID uuid.UUID) ([]models.Payment, error) {
	var payments []models.Payment
	if err := s.db.Where("order_id = ?", orderID).Order("created_at desc").Find(&payments).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch payments: %w", err)
	}
	return payments, nil
}
