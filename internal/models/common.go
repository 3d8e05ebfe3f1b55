// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// JSONB type for PostgreSQL
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}

	return json.Unmarshal(bytes, j)
}

// Enums
type UserType string

const (
	UserTypeCustomer      UserType = "customer"
	UserTypeDesigner      UserType = "designer"
	UserTypePrintingShop  UserType = "printing_shop"
	UserTypeBusinessOwner UserType = "business_owner"
	UserTypeAdmin         UserType = "admin"
)

// CanClaimRequests reports whether this user type may claim pending
// customization requests.
func (t UserType) CanClaimRequests() bool {
	switch t {
	case UserTypeDesigner, UserTypeBusinessOwner, UserTypeAdmin:
		return true
	}
	return false
}

type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
	UserStatusBanned    UserStatus = "banned"
)

type ProductStatus string

const (
	ProductStatusDraft     ProductStatus = "draft"
	ProductStatusActive    ProductStatus = "active"
	ProductStatusSoldOut   ProductStatus = "sold_out"
	ProductStatusSuspended ProductStatus = "suspended"
)

// RequestStatus is the engine-owned lifecycle of a customization request.
// The status column is written only by CustomizationService transitions,
// never directly by handlers or bridges.
type RequestStatus string

const (
	RequestStatusPendingDesignerReview    RequestStatus = "pending_designer_review"
	RequestStatusInProgress               RequestStatus = "in_progress"
	RequestStatusAwaitingCustomerApproval RequestStatus = "awaiting_customer_approval"
	RequestStatusAwaitingPricing          RequestStatus = "awaiting_pricing"
	RequestStatusApproved                 RequestStatus = "approved"
	RequestStatusCompleted                RequestStatus = "completed"
	RequestStatusCancelled                RequestStatus = "cancelled"
)

// OpenRequestStatuses are the states that count toward a designer's active
// workload: claimed but not yet completed or cancelled.
var OpenRequestStatuses = []RequestStatus{
	RequestStatusInProgress,
	RequestStatusAwaitingCustomerApproval,
	RequestStatusAwaitingPricing,
	RequestStatusApproved,
}

// CanCancel reports whether a request in this status may still be cancelled.
func (s RequestStatus) CanCancel() bool {
	switch s {
	case RequestStatusCompleted, RequestStatusApproved, RequestStatusCancelled:
		return false
	}
	return true
}

func (s RequestStatus) IsTerminal() bool {
	return s == RequestStatusCompleted || s == RequestStatusCancelled
}

// FulfilmentStatus tracks production and shipping progress on a completed
// request. It is written through the order bridge path, not the design-side
// state machine, and only moves forward.
type FulfilmentStatus string

const (
	FulfilmentStatusNone           FulfilmentStatus = ""
	FulfilmentStatusInProduction   FulfilmentStatus = "in_production"
	FulfilmentStatusReadyForPickup FulfilmentStatus = "ready_for_pickup"
	FulfilmentStatusShipped        FulfilmentStatus = "shipped"
	FulfilmentStatusDelivered      FulfilmentStatus = "delivered"
)

var fulfilmentRank = map[FulfilmentStatus]int{
	FulfilmentStatusNone:           0,
	FulfilmentStatusInProduction:   1,
	FulfilmentStatusReadyForPickup: 2,
	FulfilmentStatusShipped:        3,
	FulfilmentStatusDelivered:      4,
}

// Rank returns the forward-ordering position of a fulfilment status, or -1
// for an unknown value.
func (s FulfilmentStatus) Rank() int {
	if r, ok := fulfilmentRank[s]; ok {
		return r
	}
	return -1
}

type PaymentType string

const (
	PaymentTypeUpfront     PaymentType = "upfront"
	PaymentTypeHalfUpfront PaymentType = "half_upfront"
	PaymentTypeMilestone   PaymentType = "milestone"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)
