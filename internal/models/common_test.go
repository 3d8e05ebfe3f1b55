// internal/models/common_test.go
package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestStatusCanCancel(t *testing.T) {
	assert.True(t, RequestStatusPendingDesignerReview.CanCancel())
	assert.True(t, RequestStatusInProgress.CanCancel())
	assert.True(t, RequestStatusAwaitingCustomerApproval.CanCancel())
	assert.True(t, RequestStatusAwaitingPricing.CanCancel())

	assert.False(t, RequestStatusApproved.CanCancel())
	assert.False(t, RequestStatusCompleted.CanCancel())
	assert.False(t, RequestStatusCancelled.CanCancel())
}

func TestRequestStatusIsTerminal(t *testing.T) {
	assert.True(t, RequestStatusCompleted.IsTerminal())
	assert.True(t, RequestStatusCancelled.IsTerminal())
	assert.False(t, RequestStatusApproved.IsTerminal())
	assert.False(t, RequestStatusInProgress.IsTerminal())
}

func TestFulfilmentStatusRank(t *testing.T) {
	assert.Equal(t, 0, FulfilmentStatusNone.Rank())
	assert.Equal(t, 1, FulfilmentStatusInProduction.Rank())
	assert.Equal(t, 4, FulfilmentStatusDelivered.Rank())
	assert.Equal(t, -1, FulfilmentStatus("teleported").Rank())

	assert.Less(t, FulfilmentStatusReadyForPickup.Rank(), FulfilmentStatusShipped.Rank())
}

func TestUserTypeCanClaimRequests(t *testing.T) {
	assert.True(t, UserTypeDesigner.CanClaimRequests())
	assert.True(t, UserTypeBusinessOwner.CanClaimRequests())
	assert.True(t, UserTypeAdmin.CanClaimRequests())
	assert.False(t, UserTypeCustomer.CanClaimRequests())
	assert.False(t, UserTypePrintingShop.CanClaimRequests())
}
