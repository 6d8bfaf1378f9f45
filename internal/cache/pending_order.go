package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/MikyMack/stayRare-full/internal/database"
	"github.com/MikyMack/stayRare-full/internal/models"
)

// PendingOrder is the short-lived checkout context stashed between the
// payment-intent creation and the gateway callback. It is advisory only: the
// confirmation path prefers the live cart and falls back to this snapshot
// when the cart is gone by callback time.
type PendingOrder struct {
	CartItems       []models.CartItem  `json:"cartItems"`
	Coupon          *models.CouponInfo `json:"coupon,omitempty"`
	BillingAddress  models.Address     `json:"billingAddress"`
	ShippingAddress models.Address     `json:"shippingAddress"`
	Subtotal        float64            `json:"subtotal"`
	DiscountAmount  float64            `json:"discountAmount"`
	TotalAmount     float64            `json:"totalAmount"`
	Notes           string             `json:"notes,omitempty"`
	RazorpayOrderID string             `json:"razorpayOrderId"`
}

const pendingOrderTTL = 30 * time.Minute

func pendingOrderKey(ownerKey string) string {
	return fmt.Sprintf("pending_order:%s", ownerKey)
}

func StorePendingOrder(ctx context.Context, ownerKey string, po PendingOrder) error {
	data, err := json.Marshal(po)
	if err != nil {
		return err
	}
	return database.RedisClient.Set(ctx, pendingOrderKey(ownerKey), data, pendingOrderTTL).Err()
}

func GetPendingOrder(ctx context.Context, ownerKey string) (*PendingOrder, error) {
	data, err := database.RedisClient.Get(ctx, pendingOrderKey(ownerKey)).Result()
	if err != nil {
		return nil, err
	}
	var po PendingOrder
	if err := json.Unmarshal([]byte(data), &po); err != nil {
		return nil, err
	}
	return &po, nil
}

func DeletePendingOrder(ctx context.Context, ownerKey string) error {
	return database.RedisClient.Del(ctx, pendingOrderKey(ownerKey)).Err()
}
