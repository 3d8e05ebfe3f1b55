// internal/handlers/customization.go
package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/printforge/printforge-backend/internal/models"
	"github.com/printforge/printforge-backend/internal/repository"
	"github.com/printforge/printforge-backend/internal/services"
	"github.com/printforge/printforge-backend/internal/utils"
)

type CustomizationHandler struct {
	service *services.CustomizationService
}

func NewCustomizationHandler(service *services.CustomizationService) *CustomizationHandler {
	return &CustomizationHandler{service: service}
}

// CreateRequest handles POST /customizations
func (h *CustomizationHandler) CreateRequest(c *gin.Context) {
	customerID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var input services.CreateRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.BadRequestResponse(c, "Invalid request format", err.Error())
		return
	}

	req, err := h.service.CreateRequest(customerID, input)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, req)
}

// GetRequest handles GET /customizations/:id
func (h *CustomizationHandler) GetRequest(c *gin.Context) {
	requestID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	req, err := h.service.GetRequest(requestID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, req)
}

// GetRequestDetails handles GET /customizations/:id/details
func (h *CustomizationHandler) GetRequestDetails(c *gin.Context) {
	requestID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	req, err := h.service.GetRequestWithDetails(requestID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, req)
}

// GetMyRequests handles GET /customizations/mine
func (h *CustomizationHandler) GetMyRequests(c *gin.Context) {
	customerID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	params := utils.GetPaginationParams(c)
	requests, total, err := h.service.GetCustomerRequests(customerID, params)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(requests, total, params))
}

// GetAssignedRequests handles GET /customizations/assigned
func (h *CustomizationHandler) GetAssignedRequests(c *gin.Context) {
	designerID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	params := utils.GetPaginationParams(c)
	requests, total, err := h.service.GetDesignerRequests(designerID, params)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(requests, total, params))
}

// GetPendingRequests handles GET /customizations/pending
func (h *CustomizationHandler) GetPendingRequests(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	requests, err := h.service.GetPendingRequests(limit)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, requests)
}

// ClaimRequest handles POST /customizations/:id/claim
func (h *CustomizationHandler) ClaimRequest(c *gin.Context) {
	designerID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}
	requestID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	req, err := h.service.AssignDesigner(requestID, designerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, req)
}

// UploadFinalDesign handles POST /customizations/:id/design
func (h *CustomizationHandler) UploadFinalDesign(c *gin.Context) {
	designerID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}
	requestID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var input services.UploadDesignInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.BadRequestResponse(c, "Invalid request format", err.Error())
		return
	}

	req, err := h.service.UploadFinalDesign(requestID, designerID, input)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, req)
}

// ApproveDesign handles POST /customizations/:id/approve
func (h *CustomizationHandler) ApproveDesign(c *gin.Context) {
	customerID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}
	requestID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	req, err := h.service.ApproveDesign(requestID, customerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, req)
}

// RejectDesign handles POST /customizations/:id/reject
func (h *CustomizationHandler) RejectDesign(c *gin.Context) {
	customerID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}
	requestID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var input services.RejectDesignInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.BadRequestResponse(c, "Invalid request format", err.Error())
		return
	}

	req, err := h.service.RejectDesign(requestID, customerID, input)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, req)
}

// CancelRequest handles POST /customizations/:id/cancel
func (h *CustomizationHandler) CancelRequest(c *gin.Context) {
	actorID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}
	requestID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	req, err := h.service.CancelRequest(requestID, actorID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, req)
}

// ProposePricing handles POST /customizations/:id/pricing
func (h *CustomizationHandler) ProposePricing(c *gin.Context) {
	designerID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}
	requestID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var input services.ProposePricingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.BadRequestResponse(c, "Invalid request format", err.Error())
		return
	}

	agreement, err := h.service.ProposePricing(requestID, designerID, input)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, agreement)
}

// AcceptPricing handles POST /customizations/:id/pricing/accept
func (h *CustomizationHandler) AcceptPricing(c *gin.Context) {
	customerID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}
	requestID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	agreement, err := h.service.AcceptPricing(requestID, customerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, agreement)
}

// RejectPricing handles POST /customizations/:id/pricing/reject
func (h *CustomizationHandler) RejectPricing(c *gin.Context) {
	customerID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}
	requestID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	req, err := h.service.RejectPricing(requestID, customerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, req)
}

type linkOrderInput struct {
	OrderID uuid.UUID `json:"order_id" binding:"required"`
}

// LinkOrder handles POST /customizations/:id/order (bridge path)
func (h *CustomizationHandler) LinkOrder(c *gin.Context) {
	requestID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var input linkOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.BadRequestResponse(c, "Invalid request format", err.Error())
		return
	}

	req, err := h.service.LinkToOrder(requestID, input.OrderID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, req)
}

// RecordPayment handles POST /customizations/:id/payments (bridge path)
func (h *CustomizationHandler) RecordPayment(c *gin.Context) {
	requestID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var input services.RecordPaymentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.BadRequestResponse(c, "Invalid request format", err.Error())
		return
	}

	req, err := h.service.RecordPayment(requestID, input)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, req)
}

type advanceFulfilmentInput struct {
	Status models.FulfilmentStatus `json:"status" binding:"required"`
}

// AdvanceFulfilment handles POST /customizations/:id/fulfilment (bridge path)
func (h *CustomizationHandler) AdvanceFulfilment(c *gin.Context) {
	requestID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var input advanceFulfilmentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.BadRequestResponse(c, "Invalid request format", err.Error())
		return
	}

	req, err := h.service.AdvanceFulfilment(requestID, input.Status)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, req)
}

// SearchRequests handles GET /customizations
func (h *CustomizationHandler) SearchRequests(c *gin.Context) {
	actorID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	filter := buildRequestFilter(c)
	requests, total, err := h.service.SearchRequests(actorID, filter)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(requests, total, filter.PaginationParams))
}

// GetStatistics handles GET /customizations/statistics (admin)
func (h *CustomizationHandler) GetStatistics(c *gin.Context) {
	filter := buildRequestFilter(c)
	stats, err := h.service.GetStatistics(filter)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, stats)
}

// GetDesignerWorkload handles GET /designers/:id/workload
func (h *CustomizationHandler) GetDesignerWorkload(c *gin.Context) {
	designerID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	workload, err := h.service.GetDesignerWorkload(designerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, workload)
}

// GetAllDesignersWorkload handles GET /designers/workload
func (h *CustomizationHandler) GetAllDesignersWorkload(c *gin.Context) {
	workloads, err := h.service.GetAllDesignersWorkload()
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, workloads)
}

func buildRequestFilter(c *gin.Context) repository.RequestFilter {
	filter := repository.RequestFilter{
		PaginationParams: utils.GetPaginationParams(c),
	}

	if v := c.Query("customer_id"); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			filter.CustomerID = &id
		}
	}
	if v := c.Query("designer_id"); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			filter.DesignerID = &id
		}
	}
	if v := c.Query("product_id"); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			filter.ProductID = &id
		}
	}
	if v := c.Query("status"); v != "" {
		status := models.RequestStatus(v)
		filter.Status = &status
	}
	if v := c.Query("created_after"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filter.CreatedAfter = &t
		}
	}
	if v := c.Query("created_before"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filter.CreatedBefore = &t
		}
	}

	return filter
}

func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	raw, ok := utils.GetUserIDFromContext(c)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid "+name, nil)
		return uuid.Nil, false
	}
	return id, true
}

// handleServiceError maps domain error codes onto HTTP statuses. Validation
// failures keep the field-level details.
func handleServiceError(c *gin.Context, err error) {
	if verrs := utils.GetValidationErrors(err); len(verrs) > 0 {
		utils.ValidationErrorResponse(c, verrs)
		return
	}

	code, ok := services.CodeOf(err)
	if !ok {
		utils.InternalErrorResponse(c, "")
		return
	}

	switch code {
	case services.CodeNotFound:
		utils.ErrorResponse(c, http.StatusNotFound, string(code), err.Error(), nil)
	case services.CodeUnauthorized:
		utils.ErrorResponse(c, http.StatusForbidden, string(code), err.Error(), nil)
	case services.CodeInvalidState:
		utils.ErrorResponse(c, http.StatusConflict, string(code), err.Error(), nil)
	case services.CodeConflict:
		utils.ErrorResponse(c, http.StatusConflict, string(code), err.Error(), nil)
	default:
		utils.InternalErrorResponse(c, "")
	}
}
