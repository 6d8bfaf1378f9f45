// Package pricing computes cart totals and applies coupon discounts. It is
// the single source of truth for subtotal/total: every cart mutation must
// route through Recalculate before persistence.
package pricing

import (
	"errors"
	"time"

	"github.com/MikyMack/stayRare-full/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrEmptyCart       = errors.New("cart is empty")
	ErrCouponNotFound  = errors.New("invalid or expired coupon")
	ErrAlreadyApplied  = errors.New("coupon already applied to the cart")
	ErrAlreadyRedeemed = errors.New("coupon already used by this user")
	ErrNotApplicable   = errors.New("coupon is not applicable to any products in the cart")
	ErrBelowMinimum    = errors.New("cart is below the coupon minimum purchase")
)

// Recalculate recomputes subtotal, discount and total from the cart's items
// and coupon snapshot. Invariant: total == max(0, subtotal - discountAmount).
func Recalculate(cart *models.Cart) {
	subtotal := 0.0
	for _, item := range cart.Items {
		subtotal += item.Price * float64(item.Quantity)
	}
	cart.Subtotal = subtotal

	discount := 0.0
	if ci := cart.CouponInfo; ci != nil && ci.Validated {
		switch {
		case ci.ScopeType != "" && ci.ScopeType != models.ScopeAll:
			// Restricted scopes priced their discount against the eligible
			// lines at apply time; keep that amount rather than rebasing it
			// on the full subtotal.
			discount = ci.DiscountAmount
		case ci.DiscountType == models.DiscountPercentage:
			discount = subtotal * ci.DiscountValue / 100
		case ci.DiscountType == models.DiscountFixed:
			discount = ci.DiscountValue
		}
		if discount > subtotal {
			discount = subtotal
		}
		ci.DiscountAmount = discount
	}

	cart.Total = subtotal - discount
	if cart.Total < 0 {
		cart.Total = 0
	}
	cart.UpdatedAt = time.Now()
}

// ApplyCoupon validates the coupon against the cart and, on success, writes
// the coupon snapshot onto the cart and recomputes totals. The caller resolves
// scope eligibility per product (it owns the catalog); eligible reports
// whether a given product's line counts toward the discount base.
func ApplyCoupon(cart *models.Cart, coupon *models.Coupon, userID primitive.ObjectID, eligible func(productID primitive.ObjectID) bool) error {
	if len(cart.Items) == 0 {
		return ErrEmptyCart
	}
	if cart.CouponInfo != nil && cart.CouponInfo.Code == coupon.Code {
		return ErrAlreadyApplied
	}
	if !userID.IsZero() && coupon.RedeemedBy(userID) {
		return ErrAlreadyRedeemed
	}

	subtotal := 0.0
	applicableSubtotal := 0.0
	hasApplicableItems := false
	for _, item := range cart.Items {
		lineTotal := item.Price * float64(item.Quantity)
		subtotal += lineTotal
		if coupon.ScopeType == models.ScopeAll || (eligible != nil && eligible(item.Product)) {
			applicableSubtotal += lineTotal
			hasApplicableItems = true
		}
	}

	if coupon.ScopeType != models.ScopeAll && !hasApplicableItems {
		return ErrNotApplicable
	}

	base := applicableSubtotal
	if coupon.ScopeType == models.ScopeAll {
		base = subtotal
	}
	if base < coupon.MinPurchase {
		return ErrBelowMinimum
	}

	var discount float64
	switch coupon.DiscountType {
	case models.DiscountPercentage:
		discount = base * coupon.Value / 100
	case models.DiscountFixed:
		discount = coupon.Value
		if discount > base {
			discount = base
		}
	}

	cart.CouponInfo = &models.CouponInfo{
		CouponID:       coupon.ID,
		Code:           coupon.Code,
		DiscountType:   coupon.DiscountType,
		DiscountValue:  coupon.Value,
		DiscountAmount: discount,
		MinPurchase:    coupon.MinPurchase,
		Validated:      true,
		ScopeType:      coupon.ScopeType,
	}
	Recalculate(cart)
	return nil
}

// RemoveCoupon clears any applied coupon and recomputes totals. Calling it on
// a cart without a coupon is a no-op beyond the recalculation.
func RemoveCoupon(cart *models.Cart) {
	cart.CouponInfo = nil
	Recalculate(cart)
}
