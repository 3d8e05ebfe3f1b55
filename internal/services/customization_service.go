// internal/services/customization_service.go
package services

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/printforge/printforge-backend/internal/events"
	"github.com/printforge/printforge-backend/internal/models"
	"github.com/printforge/printforge-backend/internal/repository"
	"github.com/printforge/printforge-backend/internal/utils"
)

// CustomizationService is the workflow engine for customization requests. It
// owns every status transition; handlers and bridge endpoints call into it
// and never touch the status column themselves. Concurrent conflicting
// transitions are arbitrated by conditional updates in the repository, so at
// most one caller wins and the losers get an INVALID_STATE error.
type CustomizationService struct {
	repo     repository.RequestRepository
	products repository.ProductLookup
	users    repository.UserLookup
	events   events.Publisher
}

func NewCustomizationService(
	repo repository.RequestRepository,
	products repository.ProductLookup,
	users repository.UserLookup,
	publisher events.Publisher,
) *CustomizationService {
	return &CustomizationService{
		repo:     repo,
		products: products,
		users:    users,
		events:   publisher,
	}
}

type CreateRequestInput struct {
	ProductID          uuid.UUID `json:"product_id" validate:"required"`
	CustomizationNotes string    `json:"customization_notes" validate:"required,max=5000"`
	ReferenceImages    []string  `json:"reference_images,omitempty" validate:"max=10,dive,url"`
}

type UploadDesignInput struct {
	FinalFileURL    string `json:"final_file_url" validate:"required,url"`
	PreviewImageURL string `json:"preview_image_url" validate:"required,url"`
	Notes           string `json:"notes,omitempty" validate:"max=5000"`
}

type RejectDesignInput struct {
	Reason string `json:"reason" validate:"required,max=2000"`
}

type ProposePricingInput struct {
	DesignFee   float64            `json:"design_fee" validate:"required,gt=0"`
	PaymentType models.PaymentType `json:"payment_type" validate:"required,oneof=upfront half_upfront milestone"`
}

type RecordPaymentInput struct {
	Amount           float64              `json:"amount" validate:"required,gt=0"`
	Status           models.PaymentStatus `json:"status,omitempty" validate:"omitempty,oneof=pending completed failed refunded"`
	PaymentMethod    string               `json:"payment_method" validate:"required,max=50"`
	PaymentReference string               `json:"payment_reference,omitempty" validate:"max=255"`
	Note             string               `json:"note,omitempty" validate:"max=2000"`
}

// CreateRequest opens a new customization request against a customizable
// product. The request starts in pending_designer_review with no designer.
func (s *CustomizationService) CreateRequest(customerID uuid.UUID, input CreateRequestInput) (*models.CustomizationRequest, error) {
	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}

	customer, err := s.users.FindByID(customerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NewNotFound("customer not found")
		}
		return nil, err
	}
	if customer.Status != models.UserStatusActive {
		return nil, NewUnauthorized("account is not active")
	}

	product, err := s.products.FindByID(input.ProductID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NewNotFound("product not found")
		}
		return nil, err
	}
	if !product.IsCustomizable {
		return nil, NewInvalidState("product does not support customization")
	}
	if product.Status != models.ProductStatusActive {
		return nil, NewInvalidState("product is not available")
	}

	productImage := ""
	if len(product.Images) > 0 {
		productImage = product.Images[0]
	}

	req := &models.CustomizationRequest{
		CustomerID:         customerID,
		ProductID:          product.ID,
		ProductName:        product.Title,
		ProductImage:       productImage,
		CustomizationNotes: input.CustomizationNotes,
		ReferenceImages:    pq.StringArray(input.ReferenceImages),
		Status:             models.RequestStatusPendingDesignerReview,
		RequestedAt:        time.Now(),
	}

	if err := s.repo.Create(req); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"request_id":  req.ID,
		"customer_id": customerID,
		"product_id":  product.ID,
	}).Info("Customization request created")

	s.events.Emit(events.EventRequestCreated, map[string]interface{}{
		"request_id":  req.ID.String(),
		"customer_id": customerID.String(),
		"product_id":  product.ID.String(),
	})

	return req, nil
}

// AssignDesigner lets a designer claim a pending request. The claim is
// exclusive: when several designers race for the same request, exactly one
// wins and the rest are told the request is no longer available.
func (s *CustomizationService) AssignDesigner(requestID, designerID uuid.UUID) (*models.CustomizationRequest, error) {
	designer, err := s.users.FindByID(designerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NewNotFound("designer not found")
		}
		return nil, err
	}
	if !designer.UserType.CanClaimRequests() {
		return nil, NewUnauthorized("only designers can claim customization requests")
	}
	if designer.Status != models.UserStatusActive {
		return nil, NewUnauthorized("account is not active")
	}

	req, err := s.getRequest(requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != models.RequestStatusPendingDesignerReview {
		return nil, NewInvalidState("request is no longer available")
	}

	now := time.Now()
	err = s.repo.UpdateStatusIf(requestID, models.RequestStatusPendingDesignerReview, map[string]interface{}{
		"designer_id": designerID,
		"assigned_at": now,
		"status":      models.RequestStatusInProgress,
	})
	if err != nil {
		return nil, s.mapTransitionError(err, "request is no longer available")
	}

	logrus.WithFields(logrus.Fields{
		"request_id":  requestID,
		"designer_id": designerID,
	}).Info("Customization request claimed")

	s.events.Emit(events.EventRequestAssigned, map[string]interface{}{
		"request_id":  requestID.String(),
		"designer_id": designerID.String(),
	})

	return s.getRequest(requestID)
}

// UploadFinalDesign records the designer's final artifacts and hands the
// request to the customer for approval. Re-uploads after a rejection clear
// the previous rejection reason.
func (s *CustomizationService) UploadFinalDesign(requestID, designerID uuid.UUID, input UploadDesignInput) (*models.CustomizationRequest, error) {
	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}

	req, err := s.getRequest(requestID)
	if err != nil {
		return nil, err
	}
	if req.DesignerID == nil || *req.DesignerID != designerID {
		return nil, NewUnauthorized("you are not assigned to this request")
	}
	if req.Status != models.RequestStatusInProgress {
		return nil, NewInvalidState("request is not in progress")
	}

	err = s.repo.UpdateStatusIf(requestID, models.RequestStatusInProgress, map[string]interface{}{
		"designer_final_file":    input.FinalFileURL,
		"designer_preview_image": input.PreviewImageURL,
		"designer_notes":         input.Notes,
		"rejection_reason":       "",
		"status":                 models.RequestStatusAwaitingCustomerApproval,
	})
	if err != nil {
		return nil, s.mapTransitionError(err, "request is not in progress")
	}

	logrus.WithFields(logrus.Fields{
		"request_id":  requestID,
		"designer_id": designerID,
	}).Info("Final design uploaded")

	s.events.Emit(events.EventDesignUploaded, map[string]interface{}{
		"request_id":  requestID.String(),
		"designer_id": designerID.String(),
	})

	return s.getRequest(requestID)
}

// ApproveDesign is the customer's sign-off on the uploaded design.
func (s *CustomizationService) ApproveDesign(requestID, customerID uuid.UUID) (*models.CustomizationRequest, error) {
	req, err := s.getRequest(requestID)
	if err != nil {
		return nil, err
	}
	if req.CustomerID != customerID {
		return nil, NewUnauthorized("only the requesting customer can approve the design")
	}
	if req.Status != models.RequestStatusAwaitingCustomerApproval {
		return nil, NewInvalidState("request is not awaiting your approval")
	}

	err = s.repo.UpdateStatusIf(requestID, models.RequestStatusAwaitingCustomerApproval, map[string]interface{}{
		"status": models.RequestStatusApproved,
	})
	if err != nil {
		return nil, s.mapTransitionError(err, "request is not awaiting your approval")
	}

	logrus.WithField("request_id", requestID).Info("Design approved by customer")

	s.events.Emit(events.EventDesignApproved, map[string]interface{}{
		"request_id":  requestID.String(),
		"customer_id": customerID.String(),
	})

	return s.getRequest(requestID)
}

// RejectDesign sends the request back to the designer with a reason. The
// request returns to in_progress so the designer can rework and re-upload;
// there is no limit on the number of rejection loops.
func (s *CustomizationService) RejectDesign(requestID, customerID uuid.UUID, input RejectDesignInput) (*models.CustomizationRequest, error) {
	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}

	req, err := s.getRequest(requestID)
	if err != nil {
		return nil, err
	}
	if req.CustomerID != customerID {
		return nil, NewUnauthorized("only the requesting customer can reject the design")
	}
	if req.Status != models.RequestStatusAwaitingCustomerApproval {
		return nil, NewInvalidState("request is not awaiting your approval")
	}

	err = s.repo.UpdateStatusIf(requestID, models.RequestStatusAwaitingCustomerApproval, map[string]interface{}{
		"rejection_reason": input.Reason,
		"status":           models.RequestStatusInProgress,
	})
	if err != nil {
		return nil, s.mapTransitionError(err, "request is not awaiting your approval")
	}

	logrus.WithFields(logrus.Fields{
		"request_id": requestID,
		"reason":     input.Reason,
	}).Info("Design rejected by customer")

	s.events.Emit(events.EventDesignRejected, map[string]interface{}{
		"request_id":  requestID.String(),
		"customer_id": customerID.String(),
		"reason":      input.Reason,
	})

	return s.getRequest(requestID)
}

// CancelRequest cancels a request on behalf of its customer or an admin.
// Approved, completed, and already cancelled requests cannot be cancelled.
func (s *CustomizationService) CancelRequest(requestID, actorID uuid.UUID) (*models.CustomizationRequest, error) {
	actor, err := s.users.FindByID(actorID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NewNotFound("user not found")
		}
		return nil, err
	}

	req, err := s.getRequest(requestID)
	if err != nil {
		return nil, err
	}
	if req.CustomerID != actorID && actor.UserType != models.UserTypeAdmin {
		return nil, NewUnauthorized("only the requesting customer or an admin can cancel this request")
	}
	if !req.Status.CanCancel() {
		return nil, NewInvalidState("cannot cancel this request")
	}

	err = s.repo.UpdateStatusIf(requestID, req.Status, map[string]interface{}{
		"status":       models.RequestStatusCancelled,
		"cancelled_by": actorID,
	})
	if err != nil {
		// The status moved under us; whatever it moved to, the observed
		// cancellable snapshot is gone.
		return nil, s.mapTransitionError(err, "cannot cancel this request")
	}

	logrus.WithFields(logrus.Fields{
		"request_id":   requestID,
		"cancelled_by": actorID,
	}).Info("Customization request cancelled")

	s.events.Emit(events.EventRequestCancelled, map[string]interface{}{
		"request_id":   requestID.String(),
		"cancelled_by": actorID.String(),
	})

	return s.getRequest(requestID)
}

// ProposePricing stores a designer's design-fee proposal. A new proposal
// replaces any active unaccepted one; an accepted agreement is final and
// cannot be superseded.
func (s *CustomizationService) ProposePricing(requestID, designerID uuid.UUID, input ProposePricingInput) (*models.PricingAgreement, error) {
	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}

	req, err := s.getRequest(requestID)
	if err != nil {
		return nil, err
	}
	if req.DesignerID == nil || *req.DesignerID != designerID {
		return nil, NewUnauthorized("you are not assigned to this request")
	}

	switch req.Status {
	case models.RequestStatusAwaitingCustomerApproval, models.RequestStatusAwaitingPricing, models.RequestStatusApproved:
	default:
		return nil, NewInvalidState("request is not ready for pricing")
	}

	active, err := s.repo.ActiveAgreement(requestID)
	if err != nil && !errors.Is(err, repository.ErrNoActiveAgreement) {
		return nil, err
	}
	if active != nil && active.AgreedByCustomer {
		return nil, NewConflict("pricing has already been agreed")
	}

	agreement := &models.PricingAgreement{
		RequestID:   requestID,
		DesignerID:  designerID,
		DesignFee:   input.DesignFee,
		PaymentType: input.PaymentType,
	}
	// The repository refuses to supersede a settled agreement, which covers
	// an accept landing between the check above and this write.
	if err := s.repo.ReplaceActiveAgreement(requestID, agreement); err != nil {
		if errors.Is(err, repository.ErrAgreementSettled) {
			return nil, NewConflict("pricing has already been agreed")
		}
		return nil, err
	}

	// A re-proposal after a pricing rejection brings the request back in
	// front of the customer.
	if req.Status == models.RequestStatusAwaitingPricing {
		err = s.repo.UpdateStatusIf(requestID, models.RequestStatusAwaitingPricing, map[string]interface{}{
			"status": models.RequestStatusAwaitingCustomerApproval,
		})
		if err != nil && !errors.Is(err, repository.ErrStaleStatus) {
			return nil, err
		}
	}

	logrus.WithFields(logrus.Fields{
		"request_id":   requestID,
		"designer_id":  designerID,
		"design_fee":   input.DesignFee,
		"payment_type": input.PaymentType,
	}).Info("Pricing proposed")

	s.events.Emit(events.EventPricingProposed, map[string]interface{}{
		"request_id":   requestID.String(),
		"designer_id":  designerID.String(),
		"agreement_id": agreement.ID.String(),
		"design_fee":   input.DesignFee,
	})

	return agreement, nil
}

// AcceptPricing flips the active agreement to agreed. The flip happens at
// most once; a second accept reports a conflict. Accepting seeds the payment
// totals on the request with the agreed fee.
func (s *CustomizationService) AcceptPricing(requestID, customerID uuid.UUID) (*models.PricingAgreement, error) {
	req, err := s.getRequest(requestID)
	if err != nil {
		return nil, err
	}
	if req.CustomerID != customerID {
		return nil, NewUnauthorized("only the requesting customer can accept pricing")
	}

	active, err := s.repo.ActiveAgreement(requestID)
	if err != nil {
		if errors.Is(err, repository.ErrNoActiveAgreement) {
			return nil, NewInvalidState("no pricing proposal to accept")
		}
		return nil, err
	}

	now := time.Now()
	if err := s.repo.AcceptAgreementOnce(active.ID, now); err != nil {
		if errors.Is(err, repository.ErrAgreementSettled) {
			return nil, NewConflict("pricing agreement has already been settled")
		}
		return nil, err
	}

	active.AgreedByCustomer = true
	active.AgreedAt = &now

	logrus.WithFields(logrus.Fields{
		"request_id":   requestID,
		"agreement_id": active.ID,
		"design_fee":   active.DesignFee,
	}).Info("Pricing agreement accepted")

	s.events.Emit(events.EventPricingAgreed, map[string]interface{}{
		"request_id":   requestID.String(),
		"agreement_id": active.ID.String(),
		"design_fee":   active.DesignFee,
	})

	return active, nil
}

// RejectPricing deactivates the active proposal and parks the request in
// awaiting_pricing until the designer proposes again.
func (s *CustomizationService) RejectPricing(requestID, customerID uuid.UUID) (*models.CustomizationRequest, error) {
	req, err := s.getRequest(requestID)
	if err != nil {
		return nil, err
	}
	if req.CustomerID != customerID {
		return nil, NewUnauthorized("only the requesting customer can reject pricing")
	}

	active, err := s.repo.ActiveAgreement(requestID)
	if err != nil {
		if errors.Is(err, repository.ErrNoActiveAgreement) {
			return nil, NewInvalidState("no pricing proposal to reject")
		}
		return nil, err
	}
	if active.AgreedByCustomer {
		return nil, NewConflict("pricing agreement has already been settled")
	}

	if err := s.repo.DeactivateAgreement(active.ID, time.Now()); err != nil {
		if errors.Is(err, repository.ErrAgreementSettled) || errors.Is(err, repository.ErrNoActiveAgreement) {
			return nil, NewConflict("pricing agreement has already been settled")
		}
		return nil, err
	}

	if req.Status == models.RequestStatusAwaitingCustomerApproval {
		err = s.repo.UpdateStatusIf(requestID, models.RequestStatusAwaitingCustomerApproval, map[string]interface{}{
			"status": models.RequestStatusAwaitingPricing,
		})
		if err != nil && !errors.Is(err, repository.ErrStaleStatus) {
			return nil, err
		}
	}

	logrus.WithFields(logrus.Fields{
		"request_id":   requestID,
		"agreement_id": active.ID,
	}).Info("Pricing proposal rejected")

	s.events.Emit(events.EventPricingRejected, map[string]interface{}{
		"request_id":   requestID.String(),
		"agreement_id": active.ID.String(),
	})

	return s.getRequest(requestID)
}

// RecordPayment appends a payment relayed by the order/payment bridge and
// updates the paid/remaining aggregates. An overpay is clamped at the agreed
// total and reported as an inconsistency rather than rejected, because the
// money has already moved on the payment side.
func (s *CustomizationService) RecordPayment(requestID uuid.UUID, input RecordPaymentInput) (*models.CustomizationRequest, error) {
	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}

	req, err := s.getRequest(requestID)
	if err != nil {
		return nil, err
	}
	if req.PaymentTotalAmount <= 0 {
		return nil, NewInvalidState("no agreed pricing for this request")
	}

	status := input.Status
	if status == "" {
		status = models.PaymentStatusCompleted
	}

	record := &models.PaymentRecord{
		Amount:           input.Amount,
		Status:           status,
		PaymentMethod:    input.PaymentMethod,
		PaymentReference: input.PaymentReference,
		Note:             input.Note,
	}

	updated, clamped, err := s.repo.AppendPayment(requestID, record)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NewNotFound("request not found")
		}
		return nil, err
	}

	if clamped {
		logrus.WithFields(logrus.Fields{
			"request_id":   requestID,
			"payment_id":   record.ID,
			"amount":       input.Amount,
			"total_amount": updated.PaymentTotalAmount,
			"paid_amount":  updated.PaymentPaidAmount,
		}).Warn("Payment exceeds agreed total, paid amount clamped")

		s.events.Emit(events.EventPaymentInconsistency, map[string]interface{}{
			"request_id":   requestID.String(),
			"payment_id":   record.ID.String(),
			"amount":       input.Amount,
			"total_amount": updated.PaymentTotalAmount,
		})
	}

	logrus.WithFields(logrus.Fields{
		"request_id": requestID,
		"amount":     input.Amount,
		"status":     status,
	}).Info("Payment recorded")

	s.events.Emit(events.EventPaymentRecorded, map[string]interface{}{
		"request_id": requestID.String(),
		"payment_id": record.ID.String(),
		"amount":     input.Amount,
		"status":     string(status),
	})

	return updated, nil
}

// LinkToOrder ties a fulfilment order to the request and marks the workflow
// completed. Only an approved request can be completed this way; a request
// that is already completed falls through to the write-once check so a
// duplicate delivery reports a conflict. The linkage is write-once: retries
// and duplicate deliveries of the same order event hit the taken slot
// instead of relinking.
func (s *CustomizationService) LinkToOrder(requestID, orderID uuid.UUID) (*models.CustomizationRequest, error) {
	req, err := s.getRequest(requestID)
	if err != nil {
		return nil, err
	}
	if req.Status == models.RequestStatusCancelled {
		return nil, NewInvalidState("cannot link an order to a cancelled request")
	}
	if req.Status != models.RequestStatusApproved && req.Status != models.RequestStatusCompleted {
		return nil, NewInvalidState("request design has not been approved")
	}

	if err := s.repo.LinkOrderOnce(requestID, orderID, time.Now()); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, NewNotFound("request not found")
		case errors.Is(err, repository.ErrOrderLinked):
			return nil, NewConflict("an order is already linked to this request")
		}
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"request_id": requestID,
		"order_id":   orderID,
	}).Info("Order linked to customization request")

	s.events.Emit(events.EventOrderLinked, map[string]interface{}{
		"request_id": requestID.String(),
		"order_id":   orderID.String(),
	})

	return s.getRequest(requestID)
}

// AdvanceFulfilment moves the production/shipping progress of a completed
// request strictly forward. Going backwards or revisiting the current stage
// is rejected.
func (s *CustomizationService) AdvanceFulfilment(requestID uuid.UUID, to models.FulfilmentStatus) (*models.CustomizationRequest, error) {
	if to.Rank() <= 0 {
		return nil, NewInvalidState("invalid fulfilment status")
	}

	req, err := s.getRequest(requestID)
	if err != nil {
		return nil, err
	}
	if req.OrderID == nil {
		return nil, NewInvalidState("no order linked to this request")
	}
	if to.Rank() <= req.FulfilmentStatus.Rank() {
		return nil, NewInvalidState("fulfilment status cannot move backwards")
	}

	if err := s.repo.AdvanceFulfilment(requestID, req.FulfilmentStatus, to); err != nil {
		return nil, s.mapTransitionError(err, "fulfilment status changed, retry with the current state")
	}

	logrus.WithFields(logrus.Fields{
		"request_id": requestID,
		"from":       req.FulfilmentStatus,
		"to":         to,
	}).Info("Fulfilment status advanced")

	s.events.Emit(events.EventFulfilmentAdvanced, map[string]interface{}{
		"request_id": requestID.String(),
		"from":       string(req.FulfilmentStatus),
		"to":         string(to),
	})

	return s.getRequest(requestID)
}

func (s *CustomizationService) GetRequest(requestID uuid.UUID) (*models.CustomizationRequest, error) {
	return s.getRequest(requestID)
}

// GetRequestWithDetails returns the request with its customer, designer,
// product, pricing history, and payment ledger preloaded.
func (s *CustomizationService) GetRequestWithDetails(requestID uuid.UUID) (*models.CustomizationRequest, error) {
	req, err := s.repo.FindByIDWithDetails(requestID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NewNotFound("request not found")
		}
		return nil, err
	}
	return req, nil
}

func (s *CustomizationService) GetCustomerRequests(customerID uuid.UUID, params utils.PaginationParams) ([]models.CustomizationRequest, int64, error) {
	return s.repo.FindByCustomer(customerID, params)
}

func (s *CustomizationService) GetDesignerRequests(designerID uuid.UUID, params utils.PaginationParams) ([]models.CustomizationRequest, int64, error) {
	return s.repo.FindByDesigner(designerID, params)
}

// GetPendingRequests lists unclaimed requests oldest-first, the queue a
// designer picks work from.
func (s *CustomizationService) GetPendingRequests(limit int) ([]models.CustomizationRequest, error) {
	return s.repo.FindPending(limit)
}

// SearchRequests runs a filtered search. Non-admin callers are scoped to
// their own requests regardless of the filter they send.
func (s *CustomizationService) SearchRequests(actorID uuid.UUID, filter repository.RequestFilter) ([]models.CustomizationRequest, int64, error) {
	actor, err := s.users.FindByID(actorID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, 0, NewNotFound("user not found")
		}
		return nil, 0, err
	}

	switch actor.UserType {
	case models.UserTypeAdmin, models.UserTypeBusinessOwner:
	case models.UserTypeDesigner, models.UserTypePrintingShop:
		filter.CustomerID = nil
		filter.DesignerID = &actor.ID
	default:
		filter.DesignerID = nil
		filter.CustomerID = &actor.ID
	}

	return s.repo.Search(filter)
}

// RequestStatistics is the aggregate view over a filtered slice of requests.
type RequestStatistics struct {
	Total          int64                          `json:"total"`
	ByStatus       map[models.RequestStatus]int64 `json:"by_status"`
	Open           int64                          `json:"open"`
	Completed      int64                          `json:"completed"`
	Cancelled      int64                          `json:"cancelled"`
	AgreedFeeTotal float64                        `json:"agreed_fee_total"`
}

func (s *CustomizationService) GetStatistics(filter repository.RequestFilter) (*RequestStatistics, error) {
	counts, err := s.repo.CountByStatus(filter)
	if err != nil {
		return nil, err
	}

	feeTotal, err := s.repo.SumAgreedDesignFees(filter)
	if err != nil {
		return nil, err
	}

	stats := &RequestStatistics{
		ByStatus:       counts,
		AgreedFeeTotal: feeTotal,
	}
	for status, count := range counts {
		stats.Total += count
		switch status {
		case models.RequestStatusCompleted:
			stats.Completed += count
		case models.RequestStatusCancelled:
			stats.Cancelled += count
		default:
			stats.Open += count
		}
	}
	return stats, nil
}

func (s *CustomizationService) getRequest(requestID uuid.UUID) (*models.CustomizationRequest, error) {
	req, err := s.repo.FindByID(requestID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NewNotFound("request not found")
		}
		return nil, err
	}
	return req, nil
}

// mapTransitionError translates repository CAS failures into domain errors.
// A stale precondition means another transition won the race.
func (s *CustomizationService) mapTransitionError(err error, staleMessage string) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return NewNotFound("request not found")
	case errors.Is(err, repository.ErrStaleStatus), errors.Is(err, repository.ErrStaleFulfilment):
		return NewInvalidState(staleMessage)
	}
	return err
}
