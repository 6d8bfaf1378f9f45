package coupon

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MikyMack/stayRare-full/internal/models"
)

func TestCouponAnnouncement(t *testing.T) {
	percent := models.Coupon{Code: "MONSOON20", DiscountType: models.DiscountPercentage, Value: 20, MinPurchase: 999}
	assert.Equal(t, "Use code MONSOON20 for 20% off on orders above ₹999.", couponAnnouncement(percent))

	fixed := models.Coupon{Code: "FLAT100", DiscountType: models.DiscountFixed, Value: 100}
	assert.Equal(t, "Use code FLAT100 for ₹100 off.", couponAnnouncement(fixed))
}

func TestCouponRequestValidate(t *testing.T) {
	req := couponRequest{Code: " flat100 ", DiscountType: models.DiscountFixed, Value: 100}
	req.ValidFrom = req.ValidUntil // equal timestamps are rejected
	assert.NotEmpty(t, req.validate())
	assert.Equal(t, "FLAT100", req.Code)
}
