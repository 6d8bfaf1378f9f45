// Package order carries the checkout and order lifecycle surface: payment
// initiation, gateway confirmation, order materialization, cancellation,
// replacements and the admin fulfillment actions.
package order

import (
	"context"
	"errors"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/MikyMack/stayRare-full/internal/database"
	"github.com/MikyMack/stayRare-full/internal/fulfillment"
	"github.com/MikyMack/stayRare-full/internal/models"
	"github.com/MikyMack/stayRare-full/internal/notify"
	"github.com/MikyMack/stayRare-full/internal/payment"
	"github.com/MikyMack/stayRare-full/internal/shiprocket"
	"github.com/MikyMack/stayRare-full/internal/utils"
)

// Handler bundles the injected external clients. Handlers never reach for
// package-global gateway or carrier state.
type Handler struct {
	Gateway *payment.Client
	Carrier *shiprocket.Client
	Driver  *fulfillment.Driver
}

func NewHandler(gateway *payment.Client, carrier *shiprocket.Client) *Handler {
	return &Handler{
		Gateway: gateway,
		Carrier: carrier,
		Driver:  fulfillment.NewDriver(carrier, SaveDeliveryInfo),
	}
}

// SaveDeliveryInfo persists the fulfillment-owned slice of an order. Used as
// the driver's save hook.
func SaveDeliveryInfo(ctx context.Context, o *models.Order) error {
	_, err := database.Orders().UpdateByID(ctx, o.ID, bson.M{"$set": bson.M{
		"deliveryInfo": o.DeliveryInfo,
		"updatedAt":    time.Now(),
	}})
	return err
}

func loadOrder(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	var o models.Order
	err := database.Orders().FindOne(ctx, bson.M{"_id": id}).Decode(&o)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errors.New("order not found")
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// recordCouponRedemption bumps the coupon's usage counter and marks the user.
// This runs after the order is durable and is not atomic with it: a crash in
// between leaves the coupon redeemable again.
func recordCouponRedemption(ctx context.Context, o *models.Order) {
	if o.CouponUsed == nil || o.CouponUsed.CouponID.IsZero() {
		return
	}

	update := bson.M{"$inc": bson.M{"usedCount": 1}}
	if !o.User.IsZero() {
		update["$addToSet"] = bson.M{"usedBy": o.User}
	}
	if _, err := database.Coupons().UpdateByID(ctx, o.CouponUsed.CouponID, update); err != nil {
		log.Printf("⚠️ Could not record coupon redemption for order %s: %v", o.ID.Hex(), err)
	}
}

// finalizeOrder runs the post-insert side effects shared by both payment
// methods. The order is already durable; everything here is best-effort.
func (h *Handler) finalizeOrder(ctx context.Context, owner models.CartOwner, o *models.Order) {
	recordCouponRedemption(ctx, o)
	clearCartAfterOrder(ctx, owner)
	h.startFulfillment(o)
	sendInvoice(*o)
	notify.OrderConfirmed(*o)
}

// startFulfillment runs the carrier pipeline in the background. Carrier
// failures are recorded on the order, never surfaced to the customer.
func (h *Handler) startFulfillment(o *models.Order) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
		defer cancel()
		if err := h.Driver.Run(ctx, o); err != nil {
			log.Printf("⚠️ Fulfillment incomplete for order %s: %v", o.ID.Hex(), err)
		}
	}()
}

// sendInvoice emails the confirmation in the background. The order is already
// durable; a delivery failure is only logged.
func sendInvoice(o models.Order) {
	go func() {
		to := o.ShippingAddress.Email
		if to == "" {
			to = o.BillingAddress.Email
		}
		if err := utils.SendOrderInvoice(o, to); err != nil {
			log.Printf("⚠️ Invoice email failed for order %s: %v", o.ID.Hex(), err)
		}
	}()
}
