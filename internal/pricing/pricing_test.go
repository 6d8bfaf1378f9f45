package pricing

import (
	"testing"
	"time"

	"github.com/MikyMack/stayRare-full/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func testCart() *models.Cart {
	return &models.Cart{
		Items: []models.CartItem{
			{Product: primitive.NewObjectID(), Quantity: 2, Price: 500, ProductName: "Sneaker"},
			{Product: primitive.NewObjectID(), Quantity: 1, Price: 300, ProductName: "Cap"},
		},
	}
}

func percentCoupon(code string, value, minPurchase float64) *models.Coupon {
	return &models.Coupon{
		ID:           primitive.NewObjectID(),
		Code:         code,
		DiscountType: models.DiscountPercentage,
		Value:        value,
		MinPurchase:  minPurchase,
		ValidFrom:    time.Now().Add(-time.Hour),
		ValidUntil:   time.Now().Add(time.Hour),
		IsActive:     true,
		ScopeType:    models.ScopeAll,
	}
}

func TestRecalculateSubtotal(t *testing.T) {
	cart := testCart()
	Recalculate(cart)

	assert.Equal(t, 1300.0, cart.Subtotal)
	assert.Equal(t, 1300.0, cart.Total)
}

func TestApplyCouponPercentage(t *testing.T) {
	cart := testCart()
	Recalculate(cart)

	err := ApplyCoupon(cart, percentCoupon("SAVE10", 10, 1000), primitive.NewObjectID(), nil)
	require.NoError(t, err)

	assert.Equal(t, 1300.0, cart.Subtotal)
	assert.Equal(t, 130.0, cart.CouponInfo.DiscountAmount)
	assert.Equal(t, 1170.0, cart.Total)
}

func TestApplyCouponBelowMinimum(t *testing.T) {
	cart := testCart()
	Recalculate(cart)

	err := ApplyCoupon(cart, percentCoupon("BIG20", 20, 2000), primitive.NewObjectID(), nil)
	assert.ErrorIs(t, err, ErrBelowMinimum)
	assert.Nil(t, cart.CouponInfo)
	assert.Equal(t, 1300.0, cart.Total)
}

func TestApplyCouponTwice(t *testing.T) {
	cart := testCart()
	coupon := percentCoupon("SAVE10", 10, 0)

	require.NoError(t, ApplyCoupon(cart, coupon, primitive.NewObjectID(), nil))
	err := ApplyCoupon(cart, coupon, primitive.NewObjectID(), nil)
	assert.ErrorIs(t, err, ErrAlreadyApplied)
}

func TestApplyCouponAlreadyRedeemed(t *testing.T) {
	cart := testCart()
	userID := primitive.NewObjectID()
	coupon := percentCoupon("ONCE", 10, 0)
	coupon.UsedBy = []primitive.ObjectID{userID}

	err := ApplyCoupon(cart, coupon, userID, nil)
	assert.ErrorIs(t, err, ErrAlreadyRedeemed)
}

func TestApplyCouponEmptyCart(t *testing.T) {
	cart := &models.Cart{}
	err := ApplyCoupon(cart, percentCoupon("SAVE10", 10, 0), primitive.NewObjectID(), nil)
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestFixedCouponCappedAtSubtotal(t *testing.T) {
	cart := &models.Cart{
		Items: []models.CartItem{{Product: primitive.NewObjectID(), Quantity: 1, Price: 100}},
	}
	coupon := percentCoupon("FLAT500", 0, 0)
	coupon.DiscountType = models.DiscountFixed
	coupon.Value = 500

	require.NoError(t, ApplyCoupon(cart, coupon, primitive.NewObjectID(), nil))
	assert.Equal(t, 100.0, cart.CouponInfo.DiscountAmount)
	assert.Equal(t, 0.0, cart.Total)
}

func TestScopedCouponEligibility(t *testing.T) {
	eligibleProduct := primitive.NewObjectID()
	other := primitive.NewObjectID()
	cart := &models.Cart{
		Items: []models.CartItem{
			{Product: eligibleProduct, Quantity: 2, Price: 500},
			{Product: other, Quantity: 1, Price: 300},
		},
	}
	coupon := percentCoupon("CAT10", 10, 0)
	coupon.ScopeType = models.ScopeCategories

	err := ApplyCoupon(cart, coupon, primitive.NewObjectID(), func(id primitive.ObjectID) bool {
		return id == eligibleProduct
	})
	require.NoError(t, err)

	// 10% of the eligible 1000, not of the full 1300.
	assert.Equal(t, 100.0, cart.CouponInfo.DiscountAmount)
	assert.Equal(t, 1200.0, cart.Total)
}

func TestScopedCouponNotApplicable(t *testing.T) {
	cart := testCart()
	coupon := percentCoupon("CAT10", 10, 0)
	coupon.ScopeType = models.ScopeCategories

	err := ApplyCoupon(cart, coupon, primitive.NewObjectID(), func(primitive.ObjectID) bool { return false })
	assert.ErrorIs(t, err, ErrNotApplicable)
}

func TestRemoveCouponIdempotent(t *testing.T) {
	cart := testCart()
	require.NoError(t, ApplyCoupon(cart, percentCoupon("SAVE10", 10, 0), primitive.NewObjectID(), nil))

	RemoveCoupon(cart)
	assert.Nil(t, cart.CouponInfo)
	assert.Equal(t, 1300.0, cart.Total)

	RemoveCoupon(cart)
	assert.Equal(t, 1300.0, cart.Total)
}

// Total invariant must hold after any sequence of mutations.
func TestTotalInvariantAfterMutations(t *testing.T) {
	cart := testCart()
	require.NoError(t, ApplyCoupon(cart, percentCoupon("SAVE10", 10, 0), primitive.NewObjectID(), nil))

	cart.Items = append(cart.Items, models.CartItem{Product: primitive.NewObjectID(), Quantity: 3, Price: 150})
	Recalculate(cart)
	assert.Equal(t, cart.Total, cart.Subtotal-cart.CouponInfo.DiscountAmount)

	cart.Items = cart.Items[:1]
	Recalculate(cart)
	assert.Equal(t, cart.Total, cart.Subtotal-cart.CouponInfo.DiscountAmount)
	assert.GreaterOrEqual(t, cart.Total, 0.0)
}
