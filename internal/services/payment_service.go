// internal/services/payment_service.go
package services

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/paymentintent"
	"github.com/stripe/stripe-go/v74/refund"

	"github.com/printforge/printforge-backend/internal/config"
	"github.com/printforge/printforge-backend/internal/models"
	"github.com/printforge/printforge-backend/internal/utils"
)

// PaymentService is the Stripe side of the payment bridge. It charges design
// fees and relays the outcome into the workflow engine's payment ledger; it
// never touches request status directly.
type PaymentService struct {
	customizations *CustomizationService
	cfg            *config.Config
}

type CreateDesignFeeIntentRequest struct {
	RequestID uuid.UUID `json:"request_id" validate:"required"`
	Amount    float64   `json:"amount" validate:"required,gt=0"`
}

type PaymentIntentResponse struct {
	ClientSecret string `json:"client_secret"`
	PaymentID    string `json:"payment_id"`
	Status       string `json:"status"`
}

type ConfirmDesignFeeRequest struct {
	RequestID       uuid.UUID `json:"request_id" validate:"required"`
	PaymentIntentID string    `json:"payment_intent_id" validate:"required"`
}

type RefundDesignFeeRequest struct {
	PaymentIntentID string  `json:"payment_intent_id" validate:"required"`
	Amount          float64 `json:"amount,omitempty" validate:"omitempty,gt=0"`
	Reason          string  `json:"reason" validate:"required"`
}

func NewPaymentService(customizations *CustomizationService, cfg *config.Config) *PaymentService {
	// Initialize Stripe
	stripe.Key = cfg.Payment.StripeSecretKey

	return &PaymentService{
		customizations: customizations,
		cfg:            cfg,
	}
}

// CreateDesignFeeIntent opens a Stripe PaymentIntent for a design-fee
// installment. The amount must not exceed what is still owed under the
// agreed pricing.
func (s *PaymentService) CreateDesignFeeIntent(customerID uuid.UUID, req *CreateDesignFeeIntentRequest) (*PaymentIntentResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	request, err := s.customizations.GetRequest(req.RequestID)
	if err != nil {
		return nil, err
	}
	if request.CustomerID != customerID {
		return nil, NewUnauthorized("only the requesting customer can pay the design fee")
	}
	if request.PaymentTotalAmount <= 0 {
		return nil, NewInvalidState("no agreed pricing for this request")
	}
	if req.Amount > request.PaymentRemainingAmount {
		return nil, NewInvalidState("amount exceeds the remaining balance")
	}

	// Stripe works in the smallest currency unit
	amountInCents := int64(req.Amount * 100)

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountInCents),
		Currency: stripe.String(s.cfg.Payment.Currency),
	}
	params.AddMetadata("request_id", req.RequestID.String())
	params.AddMetadata("customer_id", customerID.String())

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	return &PaymentIntentResponse{
		ClientSecret: pi.ClientSecret,
		PaymentID:    pi.ID,
		Status:       string(pi.Status),
	}, nil
}

// ConfirmDesignFeePayment checks the PaymentIntent outcome with Stripe and
// records it on the request. Failed intents are recorded as failed attempts
// so the ledger keeps the full history.
func (s *PaymentService) ConfirmDesignFeePayment(req *ConfirmDesignFeeRequest) (*models.CustomizationRequest, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	pi, err := paymentintent.Get(req.PaymentIntentID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get payment intent: %w", err)
	}

	var status models.PaymentStatus
	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded:
		status = models.PaymentStatusCompleted
	case stripe.PaymentIntentStatusRequiresAction, stripe.PaymentIntentStatusRequiresConfirmation,
		stripe.PaymentIntentStatusProcessing:
		return nil, NewInvalidState("payment has not completed yet")
	default:
		status = models.PaymentStatusFailed
	}

	return s.customizations.RecordPayment(req.RequestID, RecordPaymentInput{
		Amount:           float64(pi.Amount) / 100,
		Status:           status,
		PaymentMethod:    "stripe",
		PaymentReference: pi.ID,
	})
}

// RefundDesignFee issues a Stripe refund for a design-fee payment. Refunds
// are appended to the ledger as refunded records; the paid aggregate is not
// rolled back, mirroring how the upstream payment provider reports them.
func (s *PaymentService) RefundDesignFee(requestID uuid.UUID, req *RefundDesignFeeRequest) (*models.CustomizationRequest, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(req.PaymentIntentID),
	}
	if req.Amount > 0 {
		params.Amount = stripe.Int64(int64(req.Amount * 100))
	}

	r, err := refund.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create refund: %w", err)
	}

	return s.customizations.RecordPayment(requestID, RecordPaymentInput{
		Amount:           float64(r.Amount) / 100,
		Status:           models.PaymentStatusRefunded,
		PaymentMethod:    "stripe",
		PaymentReference: r.ID,
		Note:             req.Reason,
	})
}
