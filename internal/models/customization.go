// internal/models/customization.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// CustomizationRequest is the central record coordinating a customer, a
// designer, and a printing shop through the design workflow. Lifecycle
// timestamps are set exactly once by the transition that produces them.
type CustomizationRequest struct {
	BaseModel
	CustomerID     uuid.UUID  `json:"customer_id" gorm:"type:uuid;not null;index"`
	DesignerID     *uuid.UUID `json:"designer_id" gorm:"type:uuid;index"`
	PrintingShopID *uuid.UUID `json:"printing_shop_id" gorm:"type:uuid;index"`

	ProductID          uuid.UUID      `json:"product_id" gorm:"type:uuid;not null;index"`
	ProductName        string         `json:"product_name" gorm:"size:255;not null"`
	ProductImage       string         `json:"product_image,omitempty" gorm:"size:512"`
	CustomizationNotes string         `json:"customization_notes" gorm:"type:text"`
	ReferenceImages    pq.StringArray `json:"reference_images,omitempty" gorm:"type:text[]"`

	Status      RequestStatus `json:"status" gorm:"type:varchar(30);default:'pending_designer_review';index"`
	RequestedAt time.Time     `json:"requested_at" gorm:"not null"`
	AssignedAt  *time.Time    `json:"assigned_at"`
	CompletedAt *time.Time    `json:"completed_at"`
	CancelledBy *uuid.UUID    `json:"cancelled_by" gorm:"type:uuid"`

	DesignerFinalFile    string `json:"designer_final_file,omitempty" gorm:"size:512"`
	DesignerPreviewImage string `json:"designer_preview_image,omitempty" gorm:"size:512"`
	DesignerNotes        string `json:"designer_notes,omitempty" gorm:"type:text"`
	RejectionReason      string `json:"rejection_reason,omitempty" gorm:"type:text"`

	// Payment aggregates maintained by the payment bridge path. PaidAmount
	// never decreases and never exceeds TotalAmount.
	PaymentTotalAmount     float64 `json:"payment_total_amount" gorm:"type:decimal(10,2);default:0"`
	PaymentPaidAmount      float64 `json:"payment_paid_amount" gorm:"type:decimal(10,2);default:0"`
	PaymentRemainingAmount float64 `json:"payment_remaining_amount" gorm:"type:decimal(10,2);default:0"`

	OrderID          *uuid.UUID       `json:"order_id" gorm:"type:uuid;uniqueIndex"`
	FulfilmentStatus FulfilmentStatus `json:"fulfilment_status,omitempty" gorm:"type:varchar(20);default:''"`

	// Relationships
	Customer          User               `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
	Designer          *User              `json:"designer,omitempty" gorm:"foreignKey:DesignerID"`
	Product           Product            `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	PricingAgreements []PricingAgreement `json:"pricing_agreements,omitempty" gorm:"foreignKey:RequestID"`
	Payments          []PaymentRecord    `json:"payments,omitempty" gorm:"foreignKey:RequestID"`
}

// ActivePricingAgreement returns the single active agreement, if any. At
// most one agreement per request is active at a time.
func (r *CustomizationRequest) ActivePricingAgreement() *PricingAgreement {
	for i := range r.PricingAgreements {
		if r.PricingAgreements[i].Active {
			return &r.PricingAgreements[i]
		}
	}
	return nil
}

// PricingAgreement is a designer-proposed design fee and payment schedule.
// AgreedByCustomer flips from false to true exactly once; a rejected
// agreement is deactivated and replaced by a new one.
type PricingAgreement struct {
	BaseModel
	RequestID        uuid.UUID   `json:"request_id" gorm:"type:uuid;not null;index"`
	DesignerID       uuid.UUID   `json:"designer_id" gorm:"type:uuid;not null;index"`
	DesignFee        float64     `json:"design_fee" gorm:"type:decimal(10,2);not null"`
	PaymentType      PaymentType `json:"payment_type" gorm:"type:varchar(20);not null"`
	AgreedByCustomer bool        `json:"agreed_by_customer" gorm:"default:false"`
	AgreedAt         *time.Time  `json:"agreed_at"`
	Active           bool        `json:"active" gorm:"default:true;index"`
	RejectedAt       *time.Time  `json:"rejected_at"`

	// Relationships
	Request  CustomizationRequest `json:"request,omitempty" gorm:"foreignKey:RequestID"`
	Designer User                 `json:"designer,omitempty" gorm:"foreignKey:DesignerID"`
}

// PaymentRecord is one payment attempt relayed by the order/payment bridge.
// Entries are append-only and ordered by creation time.
type PaymentRecord struct {
	BaseModel
	RequestID        uuid.UUID     `json:"request_id" gorm:"type:uuid;not null;index"`
	Amount           float64       `json:"amount" gorm:"type:decimal(10,2);not null"`
	Status           PaymentStatus `json:"status" gorm:"type:varchar(20);default:'completed';index"`
	PaymentMethod    string        `json:"payment_method" gorm:"size:50"`
	PaymentReference string        `json:"payment_reference" gorm:"size:255"`
	Note             string        `json:"note,omitempty" gorm:"type:text"`

	// Relationships
	Request CustomizationRequest `json:"request,omitempty" gorm:"foreignKey:RequestID"`
}
