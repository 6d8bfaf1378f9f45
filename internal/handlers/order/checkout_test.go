package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/MikyMack/stayRare-full/internal/cache"
	"github.com/MikyMack/stayRare-full/internal/models"
)

func TestConfirmRequestResolveMethodCOD(t *testing.T) {
	req := confirmOrderRequest{PaymentMethod: models.MethodCOD}
	_, err := req.resolveMethod()
	assert.Error(t, err) // COD needs a billing address

	req.BillingAddressID = primitive.NewObjectID().Hex()
	method, err := req.resolveMethod()
	require.NoError(t, err)
	assert.Equal(t, models.MethodCOD, method)
}

func TestConfirmRequestResolveMethodRazorpay(t *testing.T) {
	req := confirmOrderRequest{
		PaymentMethod:     models.MethodRazorpay,
		RazorpayOrderID:   "order_123",
		RazorpayPaymentID: "pay_456",
	}
	_, err := req.resolveMethod()
	assert.Error(t, err) // signature missing

	req.RazorpaySignature = "sig"
	method, err := req.resolveMethod()
	require.NoError(t, err)
	assert.Equal(t, models.MethodRazorpay, method)
}

func TestConfirmRequestDefaultsToRazorpay(t *testing.T) {
	req := confirmOrderRequest{
		RazorpayOrderID:   "order_123",
		RazorpayPaymentID: "pay_456",
		RazorpaySignature: "sig",
	}
	method, err := req.resolveMethod()
	require.NoError(t, err)
	assert.Equal(t, models.MethodRazorpay, method)
}

func TestConfirmRequestRejectsUnknownMethod(t *testing.T) {
	req := confirmOrderRequest{PaymentMethod: "UPI"}
	_, err := req.resolveMethod()
	assert.Error(t, err)
}

func testCheckoutCart() *models.Cart {
	return &models.Cart{
		Items: []models.CartItem{
			{Product: primitive.NewObjectID(), ProductName: "Linen Kurta", Quantity: 2, Price: 799},
		},
		Subtotal: 1598,
		Total:    1598,
	}
}

func TestBuildOrderCOD(t *testing.T) {
	owner := models.OwnerForUser(primitive.NewObjectID())
	billing := models.Address{Name: "Asha Nair", Pincode: "682001"}

	o := buildOrder(owner, testCheckoutCart(), billing, billing, "leave at door", models.PaymentInfo{
		Method: models.MethodCOD,
		Status: models.PaymentPending,
	})

	assert.Equal(t, models.MethodCOD, o.PaymentInfo.Method)
	assert.Equal(t, models.PaymentPending, o.PaymentInfo.Status)
	assert.Equal(t, models.OrderConfirmed, o.OrderStatus)
	assert.Equal(t, models.ShipmentPending, o.DeliveryInfo.FulfillmentState)
	assert.Equal(t, 1598.0, o.TotalAmount)
	assert.Equal(t, "leave at door", o.Notes)
	require.Len(t, o.Items, 1)
	assert.Equal(t, 1598.0, o.Items[0].Price)
}

func TestUsablePending(t *testing.T) {
	assert.Nil(t, usablePending(nil, "order_123"))

	pending := &cache.PendingOrder{RazorpayOrderID: "order_999"}
	assert.Nil(t, usablePending(pending, "order_123"), "stale context from another checkout is discarded")

	pending.RazorpayOrderID = "order_123"
	assert.Equal(t, pending, usablePending(pending, "order_123"))
}

func TestPinSnapshotAmounts(t *testing.T) {
	o := &models.Order{
		TotalAmount: 1598,
		CouponUsed:  &models.CouponUsed{Code: "FLAT100", DiscountAmount: 0},
	}
	pending := &cache.PendingOrder{TotalAmount: 1498, DiscountAmount: 100}

	pinSnapshotAmounts(o, pending)
	assert.Equal(t, 1498.0, o.TotalAmount)
	assert.Equal(t, 100.0, o.CouponUsed.DiscountAmount)
}

func TestToPaise(t *testing.T) {
	assert.Equal(t, int64(159800), toPaise(1598))
	assert.Equal(t, int64(100), toPaise(0.999))
}
