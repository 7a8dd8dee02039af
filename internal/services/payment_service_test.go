// internal/services/payment_service_test.go
package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/shopvn-backend/internal/models"
)

func TestPaymentService_CreatePayment(t *testing.T) {
	db := setupTestDB(t)
	service := NewPaymentService(db)
	buyer := createTestUser(t, db, "buyer@example.com")

	order := &models.Order{
		UserID:      buyer.ID,
		Status:      models.OrderStatusPending,
		TotalItems:  2,
		TotalAmount: 380000,
	}
	require.NoError(t, db.Create(order).Error)

	payment, err := service.CreatePayment(&CreatePaymentRequest{
		OrderID:  order.ID,
		Provider: "bank_transfer",
		BankName: "Vietcombank",
	})
	require.NoError(t, err)

	assert.Equal(t, models.PaymentStatusPending, payment.Status)
	// Amount defaults to the order total when not given.
	assert.Equal(t, 380000.0, payment.Amount)
	assert.Equal(t, "pending", payment.OrderSnapshot["status"])
	assert.Equal(t, order.ID.String(), payment.OrderSnapshot["order_id"])
}

func TestPaymentService_CreatePayment_UnknownOrder(t *testing.T) {
	db := setupTestDB(t)
	service := NewPaymentService(db)

	_, err := service.CreatePayment(&CreatePaymentRequest{
		OrderID:  uuid.New(),
		Provider: "bank_transfer",
	})
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestPaymentService_UpdatePaymentStatus(t *testing.T) {
	db := setupTestDB(t)
	service := NewPaymentService(db)
	buyer := createTestUser(t, db, "buyer@example.com")

	order := &models.Order{UserID: buyer.ID, Status: models.OrderStatusPending, TotalAmount: 100000}
	require.NoError(t, db.Create(order).Error)

	payment, err := service.CreatePayment(&CreatePaymentRequest{OrderID: order.ID, Provider: "momo"})
	require.NoError(t, err)

	completed, err := service.UpdatePaymentStatus(payment.ID, models.PaymentStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCompleted, completed.Status)
	require.NotNil(t, completed.PaidAt)

	// Completed is terminal.
	_, err = service.UpdatePaymentStatus(payment.ID, models.PaymentStatusFailed)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = service.UpdatePaymentStatus(payment.ID, "refunded")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestPaymentService_GetPaymentsByOrder(t *testing.T) {
	db := setupTestDB(t)
	service := NewPaymentService(db)
	buyer := createTestUser(t, db, "buyer@example.com")

	order := &models.Order{UserID: buyer.ID, Status: models.OrderStatusPending, TotalAmount: 100000}
	require.NoError(t, db.Create(order).Error)

	first, err := service.CreatePayment(&CreatePaymentRequest{OrderID: order.ID, Provider: "momo"})
	require.NoError(t, err)
	_, err = service.UpdatePaymentStatus(first.ID, models.PaymentStatusFailed)
	require.NoError(t, err)

	_, err = service.CreatePayment(&CreatePaymentRequest{OrderID: order.ID, Provider: "bank_transfer"})
	require.NoError(t, err)

	payments, err := service.GetPaymentsByOrder(order.ID)
	require.NoError(t, err)
	assert.Len(t, payments, 2)
}
