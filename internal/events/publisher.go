// internal/events/publisher.go
package events

// Domain event names published by the workflow engine. Downstream consumers
// (notifications, order creation) subscribe asynchronously; the engine never
// waits for delivery.
const (
	EventRequestCreated       = "customization.request.created"
	EventRequestAssigned      = "customization.request.assigned"
	EventDesignUploaded       = "customization.design.uploaded"
	EventDesignApproved       = "customization.design.approved"
	EventDesignRejected       = "customization.design.rejected"
	EventRequestCancelled     = "customization.request.cancelled"
	EventPricingProposed      = "customization.pricing.proposed"
	EventPricingAgreed        = "customization.pricing.agreed"
	EventPricingRejected      = "customization.pricing.rejected"
	EventPaymentRecorded      = "customization.payment.recorded"
	EventPaymentInconsistency = "customization.payment.inconsistency"
	EventOrderLinked          = "customization.order.linked"
	EventFulfilmentAdvanced   = "customization.fulfilment.advanced"
)

// Publisher is the fire-and-forget event sink. Emit must never block the
// calling transition on delivery; publish failures are logged, not returned.
type Publisher interface {
	Emit(event string, payload map[string]interface{})
}

// NopPublisher discards all events. Used in tests and when no broker is
// configured.
type NopPublisher struct{}

func (NopPublisher) Emit(string, map[string]interface{}) {}
