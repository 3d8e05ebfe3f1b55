// internal/handlers/payment.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/printforge/printforge-backend/internal/services"
	"github.com/printforge/printforge-backend/internal/utils"
)

type PaymentHandler struct {
	paymentService *services.PaymentService
}

func NewPaymentHandler(paymentService *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// CreateDesignFeeIntent handles POST /payments/intents
func (h *PaymentHandler) CreateDesignFeeIntent(c *gin.Context) {
	customerID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req services.CreateDesignFeeIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request format", err.Error())
		return
	}

	resp, err := h.paymentService.CreateDesignFeeIntent(customerID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, resp)
}

// ConfirmDesignFeePayment handles POST /payments/confirm
func (h *PaymentHandler) ConfirmDesignFeePayment(c *gin.Context) {
	var req services.ConfirmDesignFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request format", err.Error())
		return
	}

	request, err := h.paymentService.ConfirmDesignFeePayment(&req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, request)
}

// RefundDesignFee handles POST /customizations/:id/payments/refund (admin)
func (h *PaymentHandler) RefundDesignFee(c *gin.Context) {
	requestID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req services.RefundDesignFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request format", err.Error())
		return
	}

	request, err := h.paymentService.RefundDesignFee(requestID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, request)
}
