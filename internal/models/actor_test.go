package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRole_Has(t *testing.T) {
	tests := []struct {
		role       Role
		capability Capability
		want       bool
	}{
		{RoleCustomer, CapManageOrders, false},
		{RoleCustomer, CapViewRevenue, false},
		{RoleStaff, CapManageOrders, true},
		{RoleStaff, CapViewRevenue, false},
		{RoleAdmin, CapManageOrders, true},
		{RoleAdmin, CapViewRevenue, true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.role.Has(tt.capability),
			"role %q capability %d", tt.role, tt.capability)
	}
}

func TestPaymentMethod_IsValid(t *testing.T) {
	assert.True(t, PaymentCOD.IsValid())
	assert.True(t, PaymentQR.IsValid())
	assert.False(t, PaymentMethod("card").IsValid())
	assert.False(t, PaymentMethod("").IsValid())
}

func TestCreateOrderRequest_Validate(t *testing.T) {
	valid := CreateOrderRequest{
		Items:         []CreateOrderItem{{FoodID: 1, Quantity: 1}},
		PaymentMethod: PaymentQR,
	}
	assert.NoError(t, valid.Validate())

	noItems := valid
	noItems.Items = nil
	assert.Error(t, noItems.Validate())

	badPayment := valid
	badPayment.PaymentMethod = "cheque"
	assert.Error(t, badPayment.Validate())
}
