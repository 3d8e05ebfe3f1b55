// internal/repository/request_repository.go
package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/printforge/printforge-backend/internal/models"
	"github.com/printforge/printforge-backend/internal/utils"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrStaleStatus       = errors.New("status precondition failed")
	ErrOrderLinked       = errors.New("order already linked")
	ErrAgreementSettled  = errors.New("pricing agreement already settled")
	ErrNoActiveAgreement = errors.New("no active pricing agreement")
	ErrStaleFulfilment   = errors.New("fulfilment precondition failed")
)

type RequestFilter struct {
	utils.PaginationParams
	CustomerID    *uuid.UUID            `json:"customer_id,omitempty"`
	DesignerID    *uuid.UUID            `json:"designer_id,omitempty"`
	ProductID     *uuid.UUID            `json:"product_id,omitempty"`
	Status        *models.RequestStatus `json:"status,omitempty"`
	CreatedAfter  *time.Time            `json:"created_after,omitempty"`
	CreatedBefore *time.Time            `json:"created_before,omitempty"`
}

// RequestRepository persists customization requests and their pricing and
// payment records. All mutating methods are all-or-nothing; the *If / *Once
// variants are atomic compare-and-swap updates conditioned on the current
// row state, returning ErrStaleStatus (or the matching sentinel) when the
// precondition no longer holds.
type RequestRepository interface {
	Create(req *models.CustomizationRequest) error
	FindByID(id uuid.UUID) (*models.CustomizationRequest, error)
	FindByIDWithDetails(id uuid.UUID) (*models.CustomizationRequest, error)
	FindByCustomer(customerID uuid.UUID, params utils.PaginationParams) ([]models.CustomizationRequest, int64, error)
	FindByDesigner(designerID uuid.UUID, params utils.PaginationParams) ([]models.CustomizationRequest, int64, error)
	FindPending(limit int) ([]models.CustomizationRequest, error)
	Search(filter RequestFilter) ([]models.CustomizationRequest, int64, error)

	UpdateStatusIf(id uuid.UUID, from models.RequestStatus, updates map[string]interface{}) error
	LinkOrderOnce(id, orderID uuid.UUID, completedAt time.Time) error
	AdvanceFulfilment(id uuid.UUID, from, to models.FulfilmentStatus) error

	ReplaceActiveAgreement(requestID uuid.UUID, agreement *models.PricingAgreement) error
	ActiveAgreement(requestID uuid.UUID) (*models.PricingAgreement, error)
	AcceptAgreementOnce(agreementID uuid.UUID, agreedAt time.Time) error
	DeactivateAgreement(agreementID uuid.UUID, rejectedAt time.Time) error

	AppendPayment(requestID uuid.UUID, record *models.PaymentRecord) (*models.CustomizationRequest, bool, error)

	CountByDesignerAndStatuses(designerID uuid.UUID, statuses []models.RequestStatus) (int64, error)
	CountCompletedSince(designerID uuid.UUID, since time.Time) (int64, error)
	FindCompletedByDesigner(designerID uuid.UUID) ([]models.CustomizationRequest, error)
	CountByStatus(filter RequestFilter) (map[models.RequestStatus]int64, error)
	SumAgreedDesignFees(filter RequestFilter) (float64, error)
}

type gormRequestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) RequestRepository {
	return &gormRequestRepository{db: db}
}

func (r *gormRequestRepository) Create(req *models.CustomizationRequest) error {
	if err := r.db.Create(req).Error; err != nil {
		return fmt.Errorf("failed to create customization request: %w", err)
	}
	return nil
}

func (r *gormRequestRepository) FindByID(id uuid.UUID) (*models.CustomizationRequest, error) {
	var req models.CustomizationRequest
	if err := r.db.First(&req, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &req, nil
}

func (r *gormRequestRepository) FindByIDWithDetails(id uuid.UUID) (*models.CustomizationRequest, error) {
	var req models.CustomizationRequest
	err := r.db.Preload("Customer").Preload("Designer").Preload("Product").
		Preload("PricingAgreements", func(db *gorm.DB) *gorm.DB {
			return db.Order("pricing_agreements.created_at DESC")
		}).
		Preload("Payments", func(db *gorm.DB) *gorm.DB {
			return db.Order("payment_records.created_at ASC")
		}).
		First(&req, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &req, nil
}

func (r *gormRequestRepository) FindByCustomer(customerID uuid.UUID, params utils.PaginationParams) ([]models.CustomizationRequest, int64, error) {
	query := r.db.Model(&models.CustomizationRequest{}).
		Where("customer_id = ?", customerID).
		Preload("Designer").Preload("Product")
	return r.paginate(query, params)
}

func (r *gormRequestRepository) FindByDesigner(designerID uuid.UUID, params utils.PaginationParams) ([]models.CustomizationRequest, int64, error) {
	query := r.db.Model(&models.CustomizationRequest{}).
		Where("designer_id = ?", designerID).
		Preload("Customer").Preload("Product")
	return r.paginate(query, params)
}

func (r *gormRequestRepository) paginate(query *gorm.DB, params utils.PaginationParams) ([]models.CustomizationRequest, int64, error) {
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count customization requests: %w", err)
	}

	allowedSortFields := []string{"created_at", "requested_at", "assigned_at", "completed_at", "status"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var requests []models.CustomizationRequest
	if err := query.Find(&requests).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch customization requests: %w", err)
	}
	return requests, total, nil
}

func (r *gormRequestRepository) FindPending(limit int) ([]models.CustomizationRequest, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var requests []models.CustomizationRequest
	err := r.db.Where("status = ? AND designer_id IS NULL", models.RequestStatusPendingDesignerReview).
		Preload("Customer").Preload("Product").
		Order("requested_at ASC").
		Limit(limit).
		Find(&requests).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pending requests: %w", err)
	}
	return requests, nil
}

func (r *gormRequestRepository) Search(filter RequestFilter) ([]models.CustomizationRequest, int64, error) {
	query := r.db.Model(&models.CustomizationRequest{}).
		Preload("Customer").Preload("Designer").Preload("Product")
	query = applyRequestFilter(query, filter)
	return r.paginate(query, filter.PaginationParams)
}

func applyRequestFilter(query *gorm.DB, filter RequestFilter) *gorm.DB {
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.DesignerID != nil {
		query = query.Where("designer_id = ?", *filter.DesignerID)
	}
	if filter.ProductID != nil {
		query = query.Where("product_id = ?", *filter.ProductID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at <= ?", *filter.CreatedBefore)
	}
	if filter.Search != "" {
		query = query.Where("product_name ILIKE ? OR customization_notes ILIKE ?",
			"%"+filter.Search+"%", "%"+filter.Search+"%")
	}
	return query
}

// UpdateStatusIf applies updates only while the row still carries the
// expected status. This is the claim-arbitration primitive: concurrent
// callers race on the same WHERE clause and at most one wins.
func (r *gormRequestRepository) UpdateStatusIf(id uuid.UUID, from models.RequestStatus, updates map[string]interface{}) error {
	res := r.db.Model(&models.CustomizationRequest{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to update customization request: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return r.staleOrMissing(id, ErrStaleStatus)
	}
	return nil
}

// LinkOrderOnce records the fulfilment order linkage. First write wins: the
// update is conditioned on order_id still being NULL.
func (r *gormRequestRepository) LinkOrderOnce(id, orderID uuid.UUID, completedAt time.Time) error {
	res := r.db.Model(&models.CustomizationRequest{}).
		Where("id = ? AND order_id IS NULL", id).
		Updates(map[string]interface{}{
			"order_id":     orderID,
			"status":       models.RequestStatusCompleted,
			"completed_at": completedAt,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to link order: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return r.staleOrMissing(id, ErrOrderLinked)
	}
	return nil
}

func (r *gormRequestRepository) AdvanceFulfilment(id uuid.UUID, from, to models.FulfilmentStatus) error {
	res := r.db.Model(&models.CustomizationRequest{}).
		Where("id = ? AND fulfilment_status = ?", id, from).
		Update("fulfilment_status", to)
	if res.Error != nil {
		return fmt.Errorf("failed to advance fulfilment status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return r.staleOrMissing(id, ErrStaleFulfilment)
	}
	return nil
}

func (r *gormRequestRepository) staleOrMissing(id uuid.UUID, stale error) error {
	var exists int64
	if err := r.db.Model(&models.CustomizationRequest{}).Where("id = ?", id).Count(&exists).Error; err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	if exists == 0 {
		return ErrNotFound
	}
	return stale
}

// ReplaceActiveAgreement deactivates any active unagreed agreement on the
// request and stores the new proposal in one transaction, keeping the
// at-most-one-active invariant. A settled agreement is immutable: the
// deactivate is conditioned on agreed_by_customer = false, so an accept that
// lands between the caller's guard check and this write survives and blocks
// the replacement with ErrAgreementSettled.
func (r *gormRequestRepository) ReplaceActiveAgreement(requestID uuid.UUID, agreement *models.PricingAgreement) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		if err := tx.Model(&models.PricingAgreement{}).
			Where("request_id = ? AND active = ? AND agreed_by_customer = ?", requestID, true, false).
			Updates(map[string]interface{}{"active": false, "rejected_at": now}).Error; err != nil {
			return fmt.Errorf("failed to deactivate prior agreements: %w", err)
		}

		var settled int64
		if err := tx.Model(&models.PricingAgreement{}).
			Where("request_id = ? AND active = ? AND agreed_by_customer = ?", requestID, true, true).
			Count(&settled).Error; err != nil {
			return fmt.Errorf("database error: %w", err)
		}
		if settled > 0 {
			return ErrAgreementSettled
		}

		agreement.RequestID = requestID
		agreement.Active = true
		if err := tx.Create(agreement).Error; err != nil {
			return fmt.Errorf("failed to create pricing agreement: %w", err)
		}
		return nil
	})
}

func (r *gormRequestRepository) ActiveAgreement(requestID uuid.UUID) (*models.PricingAgreement, error) {
	var agreement models.PricingAgreement
	err := r.db.Where("request_id = ? AND active = ?", requestID, true).
		Order("created_at DESC").
		First(&agreement).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoActiveAgreement
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &agreement, nil
}

// AcceptAgreementOnce flips agreed_by_customer one-way and seeds the payment
// totals on the parent request with the agreed fee.
func (r *gormRequestRepository) AcceptAgreementOnce(agreementID uuid.UUID, agreedAt time.Time) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.PricingAgreement{}).
			Where("id = ? AND active = ? AND agreed_by_customer = ?", agreementID, true, false).
			Updates(map[string]interface{}{"agreed_by_customer": true, "agreed_at": agreedAt})
		if res.Error != nil {
			return fmt.Errorf("failed to accept pricing agreement: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrAgreementSettled
		}

		var agreement models.PricingAgreement
		if err := tx.First(&agreement, "id = ?", agreementID).Error; err != nil {
			return fmt.Errorf("database error: %w", err)
		}

		var req models.CustomizationRequest
		if err := tx.Set("gorm:query_option", "FOR UPDATE").
			First(&req, "id = ?", agreement.RequestID).Error; err != nil {
			return fmt.Errorf("database error: %w", err)
		}

		return tx.Model(&req).Updates(map[string]interface{}{
			"payment_total_amount":     agreement.DesignFee,
			"payment_remaining_amount": agreement.DesignFee - req.PaymentPaidAmount,
		}).Error
	})
}

// DeactivateAgreement retracts an active proposal. Like the replacement path
// it refuses to touch a settled agreement; a racing accept wins.
func (r *gormRequestRepository) DeactivateAgreement(agreementID uuid.UUID, rejectedAt time.Time) error {
	res := r.db.Model(&models.PricingAgreement{}).
		Where("id = ? AND active = ? AND agreed_by_customer = ?", agreementID, true, false).
		Updates(map[string]interface{}{"active": false, "rejected_at": rejectedAt})
	if res.Error != nil {
		return fmt.Errorf("failed to deactivate pricing agreement: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		var agreement models.PricingAgreement
		err := r.db.First(&agreement, "id = ?", agreementID).Error
		switch {
		case err == nil && agreement.AgreedByCustomer:
			return ErrAgreementSettled
		case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
			return fmt.Errorf("database error: %w", err)
		}
		return ErrNoActiveAgreement
	}
	return nil
}

// AppendPayment stores one payment attempt and recomputes the aggregates
// under a row lock. The paid amount is clamped at the total; the bool result
// reports whether clamping happened so the caller can surface the
// inconsistency instead of silently accepting an overpay.
func (r *gormRequestRepository) AppendPayment(requestID uuid.UUID, record *models.PaymentRecord) (*models.CustomizationRequest, bool, error) {
	var req models.CustomizationRequest
	var clamped bool

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Set("gorm:query_option", "FOR UPDATE").
			First(&req, "id = ?", requestID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("database error: %w", err)
		}

		record.RequestID = requestID
		if err := tx.Create(record).Error; err != nil {
			return fmt.Errorf("failed to create payment record: %w", err)
		}

		paid := req.PaymentPaidAmount
		if record.Status == models.PaymentStatusCompleted {
			paid += record.Amount
		}
		if paid > req.PaymentTotalAmount {
			paid = req.PaymentTotalAmount
			clamped = true
		}

		req.PaymentPaidAmount = paid
		req.PaymentRemainingAmount = req.PaymentTotalAmount - paid

		return tx.Model(&req).Updates(map[string]interface{}{
			"payment_paid_amount":      req.PaymentPaidAmount,
			"payment_remaining_amount": req.PaymentRemainingAmount,
		}).Error
	})
	if err != nil {
		return nil, false, err
	}
	return &req, clamped, nil
}

func (r *gormRequestRepository) CountByDesignerAndStatuses(designerID uuid.UUID, statuses []models.RequestStatus) (int64, error) {
	var count int64
	err := r.db.Model(&models.CustomizationRequest{}).
		Where("designer_id = ? AND status IN ?", designerID, statuses).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count designer requests: %w", err)
	}
	return count, nil
}

func (r *gormRequestRepository) CountCompletedSince(designerID uuid.UUID, since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.CustomizationRequest{}).
		Where("designer_id = ? AND status = ? AND completed_at >= ?",
			designerID, models.RequestStatusCompleted, since).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count completed requests: %w", err)
	}
	return count, nil
}

func (r *gormRequestRepository) FindCompletedByDesigner(designerID uuid.UUID) ([]models.CustomizationRequest, error) {
	var requests []models.CustomizationRequest
	err := r.db.Where("designer_id = ? AND status = ? AND assigned_at IS NOT NULL AND completed_at IS NOT NULL",
		designerID, models.RequestStatusCompleted).
		Order("completed_at ASC").
		Find(&requests).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch completed requests: %w", err)
	}
	return requests, nil
}

func (r *gormRequestRepository) CountByStatus(filter RequestFilter) (map[models.RequestStatus]int64, error) {
	type row struct {
		Status models.RequestStatus
		Count  int64
	}

	var rows []row
	query := r.db.Model(&models.CustomizationRequest{}).
		Select("status, COUNT(*) as count").
		Group("status")
	query = applyRequestFilter(query, filter)
	if err := query.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count requests by status: %w", err)
	}

	counts := make(map[models.RequestStatus]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}

func (r *gormRequestRepository) SumAgreedDesignFees(filter RequestFilter) (float64, error) {
	var total float64
	query := r.db.Model(&models.CustomizationRequest{}).
		Select("COALESCE(SUM(payment_total_amount), 0)")
	query = applyRequestFilter(query, filter)
	if err := query.Scan(&total).Error; err != nil {
		return 0, fmt.Errorf("failed to sum design fees: %w", err)
	}
	return total, nil
}
