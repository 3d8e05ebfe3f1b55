// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Common
	KeySuccess = "success"
	KeyError   = "error"

	// Authentication
	KeyAuthRequired           = "auth.required"
	KeyAuthInvalidToken       = "auth.invalid_token"
	KeyAuthTokenExpired       = "auth.token_expired"
	KeyAuthInvalidCredentials = "auth.invalid_credentials"
	KeyAuthUserExists         = "auth.user_exists"
	KeyAuthLoginSuccess       = "auth.login_success"
	KeyAuthRegisterSuccess    = "auth.register_success"

	// User Management
	KeyUserNotFound  = "user.not_found"
	KeyUserSuspended = "user.suspended"

	// Products
	KeyProductNotFound        = "product.not_found"
	KeyProductNotCustomizable = "product.not_customizable"

	// Customization requests
	KeyRequestCreated      = "request.created"
	KeyRequestNotFound     = "request.not_found"
	KeyRequestClaimed      = "request.claimed"
	KeyRequestUnavailable  = "request.unavailable"
	KeyRequestNotAssigned  = "request.not_assigned"
	KeyRequestNotInProg    = "request.not_in_progress"
	KeyRequestCancelled    = "request.cancelled"
	KeyRequestCantCancel   = "request.cannot_cancel"
	KeyDesignUploaded      = "request.design_uploaded"
	KeyDesignApproved      = "request.design_approved"
	KeyDesignRejected      = "request.design_rejected"
	KeyPricingProposed     = "request.pricing_proposed"
	KeyPricingAgreed       = "request.pricing_agreed"
	KeyPricingRejected     = "request.pricing_rejected"
	KeyOrderAlreadyLinked  = "request.order_already_linked"
	KeyOrderLinked         = "request.order_linked"

	// Payments
	KeyPaymentRecorded      = "payment.recorded"
	KeyPaymentInvalidAmount = "payment.invalid_amount"

	// Admin
	KeyAdminAccessDenied = "admin.access_denied"

	// Validation
	KeyValidationRequired = "validation.required"
	KeyValidationInvalid  = "validation.invalid"

	// File Upload
	KeyFileUploadSuccess = "file.upload_success"
	KeyFileUploadFailed  = "file.upload_failed"
)
