// internal/services/fakes_test.go
package services

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/printforge/printforge-backend/internal/models"
	"github.com/printforge/printforge-backend/internal/repository"
	"github.com/printforge/printforge-backend/internal/utils"
)

// fakeRequestRepo is an in-memory RequestRepository with the same CAS
// semantics as the gorm implementation, guarded by a mutex so race tests
// exercise real claim arbitration.
type fakeRequestRepo struct {
	mu         sync.Mutex
	requests   map[uuid.UUID]*models.CustomizationRequest
	agreements map[uuid.UUID]*models.PricingAgreement
	payments   map[uuid.UUID][]*models.PaymentRecord
}

func newFakeRequestRepo() *fakeRequestRepo {
	return &fakeRequestRepo{
		requests:   make(map[uuid.UUID]*models.CustomizationRequest),
		agreements: make(map[uuid.UUID]*models.PricingAgreement),
		payments:   make(map[uuid.UUID][]*models.PaymentRecord),
	}
}

func cloneRequest(req *models.CustomizationRequest) *models.CustomizationRequest {
	c := *req
	return &c
}

func cloneAgreement(a *models.PricingAgreement) *models.PricingAgreement {
	c := *a
	return &c
}

func (r *fakeRequestRepo) Create(req *models.CustomizationRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	req.CreatedAt = time.Now()
	req.UpdatedAt = req.CreatedAt
	r.requests[req.ID] = cloneRequest(req)
	return nil
}

func (r *fakeRequestRepo) FindByID(id uuid.UUID) (*models.CustomizationRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	req, ok := r.requests[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneRequest(req), nil
}

func (r *fakeRequestRepo) FindByIDWithDetails(id uuid.UUID) (*models.CustomizationRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	req, ok := r.requests[id]
	if !ok {
		return nil, repository.ErrNotFound
	}

	out := cloneRequest(req)
	for _, a := range r.agreements {
		if a.RequestID == id {
			out.PricingAgreements = append(out.PricingAgreements, *a)
		}
	}
	for _, p := range r.payments[id] {
		out.Payments = append(out.Payments, *p)
	}
	return out, nil
}

func (r *fakeRequestRepo) FindByCustomer(customerID uuid.UUID, params utils.PaginationParams) ([]models.CustomizationRequest, int64, error) {
	return r.filtered(func(req *models.CustomizationRequest) bool {
		return req.CustomerID == customerID
	})
}

func (r *fakeRequestRepo) FindByDesigner(designerID uuid.UUID, params utils.PaginationParams) ([]models.CustomizationRequest, int64, error) {
	return r.filtered(func(req *models.CustomizationRequest) bool {
		return req.DesignerID != nil && *req.DesignerID == designerID
	})
}

func (r *fakeRequestRepo) filtered(keep func(*models.CustomizationRequest) bool) ([]models.CustomizationRequest, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.CustomizationRequest
	for _, req := range r.requests {
		if keep(req) {
			out = append(out, *cloneRequest(req))
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeRequestRepo) FindPending(limit int) ([]models.CustomizationRequest, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.CustomizationRequest
	for _, req := range r.requests {
		if req.Status == models.RequestStatusPendingDesignerReview && req.DesignerID == nil {
			out = append(out, *cloneRequest(req))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].RequestedAt.Before(out[j].RequestedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeRequestRepo) Search(filter repository.RequestFilter) ([]models.CustomizationRequest, int64, error) {
	return r.filtered(func(req *models.CustomizationRequest) bool {
		return matchesFilter(req, filter)
	})
}

func matchesFilter(req *models.CustomizationRequest, filter repository.RequestFilter) bool {
	if filter.CustomerID != nil && req.CustomerID != *filter.CustomerID {
		return false
	}
	if filter.DesignerID != nil && (req.DesignerID == nil || *req.DesignerID != *filter.DesignerID) {
		return false
	}
	if filter.ProductID != nil && req.ProductID != *filter.ProductID {
		return false
	}
	if filter.Status != nil && req.Status != *filter.Status {
		return false
	}
	if filter.CreatedAfter != nil && req.CreatedAt.Before(*filter.CreatedAfter) {
		return false
	}
	if filter.CreatedBefore != nil && req.CreatedAt.After(*filter.CreatedBefore) {
		return false
	}
	if filter.Search != "" {
		needle := strings.ToLower(filter.Search)
		if !strings.Contains(strings.ToLower(req.ProductName), needle) &&
			!strings.Contains(strings.ToLower(req.CustomizationNotes), needle) {
			return false
		}
	}
	return true
}

func (r *fakeRequestRepo) UpdateStatusIf(id uuid.UUID, from models.RequestStatus, updates map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	req, ok := r.requests[id]
	if !ok {
		return repository.ErrNotFound
	}
	if req.Status != from {
		return repository.ErrStaleStatus
	}
	applyUpdates(req, updates)
	req.UpdatedAt = time.Now()
	return nil
}

func applyUpdates(req *models.CustomizationRequest, updates map[string]interface{}) {
	for k, v := range updates {
		switch k {
		case "status":
			req.Status = v.(models.RequestStatus)
		case "designer_id":
			id := v.(uuid.UUID)
			req.DesignerID = &id
		case "assigned_at":
			t := v.(time.Time)
			req.AssignedAt = &t
		case "cancelled_by":
			id := v.(uuid.UUID)
			req.CancelledBy = &id
		case "designer_final_file":
			req.DesignerFinalFile = v.(string)
		case "designer_preview_image":
			req.DesignerPreviewImage = v.(string)
		case "designer_notes":
			req.DesignerNotes = v.(string)
		case "rejection_reason":
			req.RejectionReason = v.(string)
		}
	}
}

func (r *fakeRequestRepo) LinkOrderOnce(id, orderID uuid.UUID, completedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	req, ok := r.requests[id]
	if !ok {
		return repository.ErrNotFound
	}
	if req.OrderID != nil {
		return repository.ErrOrderLinked
	}
	oid := orderID
	done := completedAt
	req.OrderID = &oid
	req.Status = models.RequestStatusCompleted
	req.CompletedAt = &done
	return nil
}

func (r *fakeRequestRepo) AdvanceFulfilment(id uuid.UUID, from, to models.FulfilmentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	req, ok := r.requests[id]
	if !ok {
		return repository.ErrNotFound
	}
	if req.FulfilmentStatus != from {
		return repository.ErrStaleFulfilment
	}
	req.FulfilmentStatus = to
	return nil
}

func (r *fakeRequestRepo) ReplaceActiveAgreement(requestID uuid.UUID, agreement *models.PricingAgreement) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	for _, a := range r.agreements {
		if a.RequestID == requestID && a.Active {
			if a.AgreedByCustomer {
				return repository.ErrAgreementSettled
			}
			a.Active = false
			a.RejectedAt = &now
		}
	}

	agreement.ID = uuid.New()
	agreement.RequestID = requestID
	agreement.Active = true
	agreement.CreatedAt = now
	r.agreements[agreement.ID] = cloneAgreement(agreement)
	return nil
}

func (r *fakeRequestRepo) ActiveAgreement(requestID uuid.UUID) (*models.PricingAgreement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range r.agreements {
		if a.RequestID == requestID && a.Active {
			return cloneAgreement(a), nil
		}
	}
	return nil, repository.ErrNoActiveAgreement
}

func (r *fakeRequestRepo) AcceptAgreementOnce(agreementID uuid.UUID, agreedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.agreements[agreementID]
	if !ok || !a.Active || a.AgreedByCustomer {
		return repository.ErrAgreementSettled
	}
	when := agreedAt
	a.AgreedByCustomer = true
	a.AgreedAt = &when

	req, ok := r.requests[a.RequestID]
	if !ok {
		return repository.ErrNotFound
	}
	req.PaymentTotalAmount = a.DesignFee
	req.PaymentRemainingAmount = a.DesignFee - req.PaymentPaidAmount
	return nil
}

func (r *fakeRequestRepo) DeactivateAgreement(agreementID uuid.UUID, rejectedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.agreements[agreementID]
	if !ok || !a.Active {
		return repository.ErrNoActiveAgreement
	}
	if a.AgreedByCustomer {
		return repository.ErrAgreementSettled
	}
	when := rejectedAt
	a.Active = false
	a.RejectedAt = &when
	return nil
}

func (r *fakeRequestRepo) AppendPayment(requestID uuid.UUID, record *models.PaymentRecord) (*models.CustomizationRequest, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	req, ok := r.requests[requestID]
	if !ok {
		return nil, false, repository.ErrNotFound
	}

	record.ID = uuid.New()
	record.RequestID = requestID
	record.CreatedAt = time.Now()
	r.payments[requestID] = append(r.payments[requestID], record)

	var clamped bool
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

	return cloneRequest(req), clamped, nil
}

func (r *fakeRequestRepo) CountByDesignerAndStatuses(designerID uuid.UUID, statuses []models.RequestStatus) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var count int64
	for _, req := range r.requests {
		if req.DesignerID == nil || *req.DesignerID != designerID {
			continue
		}
		for _, s := range statuses {
			if req.Status == s {
				count++
				break
			}
		}
	}
	return count, nil
}

func (r *fakeRequestRepo) CountCompletedSince(designerID uuid.UUID, since time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var count int64
	for _, req := range r.requests {
		if req.DesignerID != nil && *req.DesignerID == designerID &&
			req.Status == models.RequestStatusCompleted &&
			req.CompletedAt != nil && !req.CompletedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (r *fakeRequestRepo) FindCompletedByDesigner(designerID uuid.UUID) ([]models.CustomizationRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.CustomizationRequest
	for _, req := range r.requests {
		if req.DesignerID != nil && *req.DesignerID == designerID &&
			req.Status == models.RequestStatusCompleted &&
			req.AssignedAt != nil && req.CompletedAt != nil {
			out = append(out, *cloneRequest(req))
		}
	}
	return out, nil
}

func (r *fakeRequestRepo) CountByStatus(filter repository.RequestFilter) (map[models.RequestStatus]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	counts := make(map[models.RequestStatus]int64)
	for _, req := range r.requests {
		if matchesFilter(req, filter) {
			counts[req.Status]++
		}
	}
	return counts, nil
}

func (r *fakeRequestRepo) SumAgreedDesignFees(filter repository.RequestFilter) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var total float64
	for _, req := range r.requests {
		if matchesFilter(req, filter) {
			total += req.PaymentTotalAmount
		}
	}
	return total, nil
}

type fakeProductLookup struct {
	mu       sync.Mutex
	products map[uuid.UUID]*models.Product
}

func newFakeProductLookup() *fakeProductLookup {
	return &fakeProductLookup{products: make(map[uuid.UUID]*models.Product)}
}

func (l *fakeProductLookup) add(p *models.Product) *models.Product {
	l.mu.Lock()
	defer l.mu.Unlock()

	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	l.products[p.ID] = p
	return p
}

func (l *fakeProductLookup) FindByID(id uuid.UUID) (*models.Product, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	p, ok := l.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *p
	return &c, nil
}

type fakeUserLookup struct {
	mu    sync.Mutex
	users map[uuid.UUID]*models.User
}

func newFakeUserLookup() *fakeUserLookup {
	return &fakeUserLookup{users: make(map[uuid.UUID]*models.User)}
}

func (l *fakeUserLookup) add(u *models.User) *models.User {
	l.mu.Lock()
	defer l.mu.Unlock()

	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Status == "" {
		u.Status = models.UserStatusActive
	}
	l.users[u.ID] = u
	return u
}

func (l *fakeUserLookup) FindByID(id uuid.UUID) (*models.User, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	u, ok := l.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *u
	return &c, nil
}

func (l *fakeUserLookup) FindDesigners() ([]models.User, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []models.User
	for _, u := range l.users {
		if u.UserType == models.UserTypeDesigner && u.Status == models.UserStatusActive {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

// capturePublisher records emitted events for assertions.
type capturePublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *capturePublisher) Emit(event string, payload map[string]interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *capturePublisher) count(event string) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := 0
	for _, e := range p.events {
		if e == event {
			n++
		}
	}
	return n
}
