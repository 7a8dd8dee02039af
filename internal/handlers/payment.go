// internal/handlers/payment.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/javajoker/shopvn-backend/internal/i18n"
	"github.com/javajoker/shopvn-backend/internal/models"
	"github.com/javajoker/shopvn-backend/internal/services"
	"github.com/javajoker/shopvn-backend/internal/utils"
)

type PaymentHandler struct {
	paymentService *services.PaymentService
}

func NewPaymentHandler(paymentService *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// POST /payments
func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req services.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	payment, err := h.paymentService.CreatePayment(&req)
	if err != nil {
		if errors.Is(err, services.ErrOrderNotFound) {
			utils.NotFoundResponse(c, "order")
			return
		}
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyPaymentCreated),
		"payment": payment,
	})
}

// PUT /payments/:id/status (admin)
func (h *PaymentHandler) UpdatePaymentStatus(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid payment ID", nil)
		return
	}

	var body struct {
		Status models.PaymentStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	payment, err := h.paymentService.UpdatePaymentStatus(paymentID, body.Status)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrPaymentNotFound):
			utils.NotFoundResponse(c, "payment")
		case errors.Is(err, services.ErrInvalidTransition):
			utils.UnprocessableResponse(c, i18n.T(lang, i18n.KeyPaymentInvalidTransition))
		default:
			utils.InternalErrorResponse(c, err.Error())
		}
		return
	}

	utils.SuccessResponse(c, payment)
}

// GET /payments/:id
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid payment ID", nil)
		return
	}

	payment, err := h.paymentService.GetPayment(paymentID)
	if err != nil {
		if errors.Is(err, services.ErrPaymentNotFound) {
			utils.NotFoundResponse(c, "payment")
			return
		}
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, payment)
}

// GET /orders/:id/payments
func (h *PaymentHandler) GetPaymentsByOrder(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid order ID", nil)
		return
	}

	payments, err := h.paymentService.GetPaymentsByOrder(orderID)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, payments)
}
