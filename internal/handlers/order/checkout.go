package order

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/MikyMack/stayRare-full/internal/cache"
	"github.com/MikyMack/stayRare-full/internal/database"
	"github.com/MikyMack/stayRare-full/internal/handlers/cart"
	"github.com/MikyMack/stayRare-full/internal/inventory"
	"github.com/MikyMack/stayRare-full/internal/models"
	"github.com/MikyMack/stayRare-full/internal/payment"
	"github.com/MikyMack/stayRare-full/internal/pricing"
	"github.com/MikyMack/stayRare-full/internal/utils"
)

type placeOrderRequest struct {
	BillingAddressID  string `json:"billingAddressId" binding:"required"`
	ShippingAddressID string `json:"shippingAddressId"`
	PaymentMethod     string `json:"paymentMethod" binding:"required"`
	Notes             string `json:"notes"`
}

var errInvalidAddress = errors.New("invalid address data")

// resolveAddressPair loads the checkout addresses from the address book.
// Shipping falls back to billing when absent.
func resolveAddressPair(ctx context.Context, billingID, shippingID string) (models.Address, models.Address, error) {
	billing, err := resolveAddress(ctx, billingID)
	if err != nil {
		return models.Address{}, models.Address{}, err
	}
	if shippingID == "" || shippingID == billingID {
		return billing, billing, nil
	}
	shipping, err := resolveAddress(ctx, shippingID)
	if err != nil {
		return models.Address{}, models.Address{}, err
	}
	return billing, shipping, nil
}

func resolveAddress(ctx context.Context, hexID string) (models.Address, error) {
	id, err := primitive.ObjectIDFromHex(hexID)
	if err != nil {
		return models.Address{}, errInvalidAddress
	}
	var addr models.Address
	if err := database.Addresses().FindOne(ctx, bson.M{"_id": id}).Decode(&addr); err != nil {
		return models.Address{}, errInvalidAddress
	}
	return addr, nil
}

// toPaise converts a rupee amount to the integer paise the gateway expects.
func toPaise(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// orderItemsFromCart converts cart lines into immutable order lines. The
// stored item price is the extended line price.
func orderItemsFromCart(items []models.CartItem) []models.OrderItem {
	out := make([]models.OrderItem, 0, len(items))
	for _, item := range items {
		out = append(out, models.OrderItem{
			ID:            primitive.NewObjectID(),
			Product:       item.Product,
			Name:          item.ProductName,
			SelectedColor: item.SelectedColor,
			SelectedSize:  item.SelectedSize,
			Quantity:      item.Quantity,
			Price:         item.Price * float64(item.Quantity),
			Weight:        item.Weight,
		})
	}
	return out
}

func couponSnapshot(info *models.CouponInfo) *models.CouponUsed {
	if info == nil || !info.Validated {
		return nil
	}
	return &models.CouponUsed{
		CouponID:       info.CouponID,
		Code:           info.Code,
		DiscountType:   info.DiscountType,
		DiscountValue:  info.DiscountValue,
		DiscountAmount: info.DiscountAmount,
	}
}

// assertNotBlocked rejects checkout for blocked accounts. Guests pass.
func assertNotBlocked(ctx context.Context, owner models.CartOwner) error {
	if owner.IsGuest() {
		return nil
	}
	var user models.User
	if err := database.Users().FindOne(ctx, bson.M{"_id": owner.UserID}).Decode(&user); err != nil {
		return nil // missing profile is not a block
	}
	if user.IsBlocked {
		return errors.New("account is blocked")
	}
	return nil
}

// PlaceOrder starts a checkout. Neither method creates an order here: COD
// checkouts are validated and handed to ConfirmOrder, Razorpay checkouts
// create a gateway order and park the checkout context until the payment
// callback. ConfirmOrder is the single durability point for both.
func (h *Handler) PlaceOrder(c *gin.Context) {
	var req placeOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request body"})
		return
	}
	if req.PaymentMethod != models.MethodCOD && req.PaymentMethod != models.MethodRazorpay {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "paymentMethod must be COD or Razorpay"})
		return
	}

	owner, err := cart.Owner(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	ctx := c.Request.Context()
	if err := assertNotBlocked(ctx, owner); err != nil {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": err.Error()})
		return
	}

	billing, shipping, err := resolveAddressPair(ctx, req.BillingAddressID, req.ShippingAddressID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid address data"})
		return
	}

	liveCart, err := cart.Load(ctx, owner)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to load cart"})
		return
	}
	if len(liveCart.Items) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Cart is empty"})
		return
	}
	pricing.Recalculate(liveCart)

	if req.PaymentMethod == models.MethodCOD {
		h.prepareCODCheckout(c, liveCart, billing)
		return
	}
	h.initiateRazorpayCheckout(c, owner, liveCart, billing, shipping, req.Notes)
}

// prepareCODCheckout validates a cash-on-delivery checkout without touching
// the order collection or the cart. An informational email goes out when the
// billing address carries one.
func (h *Handler) prepareCODCheckout(c *gin.Context, liveCart *models.Cart, billing models.Address) {
	if billing.Email != "" {
		body := fmt.Sprintf("<p>Hi %s,</p><p>Your StayRare cart of ₹%.2f is ready. Confirm your order to place it with cash on delivery.</p><p>Team StayRare</p>",
			billing.Name, liveCart.Total)
		go func(to, body string) {
			if err := utils.SendEmail(to, "Your StayRare order is almost there", body); err != nil {
				log.Printf("⚠️ COD checkout email failed: %v", err)
			}
		}(billing.Email, body)
	}

	log.Printf("💰 COD checkout validated, payable ₹%.2f", liveCart.Total)
	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"paymentMethod": models.MethodCOD,
		"amount":        liveCart.Total,
		"message":       "Checkout validated, confirm to place your order",
	})
}

func (h *Handler) initiateRazorpayCheckout(c *gin.Context, owner models.CartOwner, liveCart *models.Cart, billing, shipping models.Address, notes string) {
	ctx := c.Request.Context()

	receipt := "rcpt_" + primitive.NewObjectID().Hex()
	gatewayOrderID, err := h.Gateway.CreateOrder(toPaise(liveCart.Total), "INR", receipt)
	if err != nil {
		log.Printf("❌ Razorpay order creation failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "message": "Payment gateway unavailable"})
		return
	}

	pending := cache.PendingOrder{
		CartItems:       liveCart.Items,
		Coupon:          liveCart.CouponInfo,
		BillingAddress:  billing,
		ShippingAddress: shipping,
		Subtotal:        liveCart.Subtotal,
		DiscountAmount:  liveCart.DiscountAmount(),
		TotalAmount:     liveCart.Total,
		Notes:           notes,
		RazorpayOrderID: gatewayOrderID,
	}
	if err := cache.StorePendingOrder(ctx, cart.OwnerKey(owner), pending); err != nil {
		// the cache is advisory, the callback can rebuild from the live cart
		log.Printf("⚠️ Could not park checkout context: %v", err)
	}

	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"razorpayOrderId": gatewayOrderID,
		"razorpayKeyId":   h.Gateway.KeyID(),
		"amount":          toPaise(liveCart.Total),
		"currency":        "INR",
	})
}

type confirmOrderRequest struct {
	PaymentMethod     string `json:"paymentMethod"`
	RazorpayOrderID   string `json:"razorpay_order_id"`
	RazorpayPaymentID string `json:"razorpay_payment_id"`
	RazorpaySignature string `json:"razorpay_signature"`
	BillingAddressID  string `json:"billingAddressId"`
	ShippingAddressID string `json:"shippingAddressId"`
	Notes             string `json:"notes"`
}

// resolveMethod validates the per-method required fields. An empty method
// with gateway fields present is treated as a Razorpay callback.
func (r *confirmOrderRequest) resolveMethod() (string, error) {
	switch r.PaymentMethod {
	case models.MethodCOD:
		if r.BillingAddressID == "" {
			return "", errors.New("billingAddressId is required for COD")
		}
		return models.MethodCOD, nil
	case models.MethodRazorpay, "":
		if r.RazorpayOrderID == "" || r.RazorpayPaymentID == "" || r.RazorpaySignature == "" {
			return "", errors.New("missing payment details")
		}
		return models.MethodRazorpay, nil
	}
	return "", errors.New("paymentMethod must be COD or Razorpay")
}

// ConfirmOrder materializes the order. For Razorpay this is the gateway
// callback with signature verification; for COD it is the explicit
// confirmation step. The order insert is the durability point; everything
// after it is best-effort.
func (h *Handler) ConfirmOrder(c *gin.Context) {
	var req confirmOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request body"})
		return
	}
	method, err := req.resolveMethod()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	owner, err := cart.Owner(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	ctx := c.Request.Context()
	if err := assertNotBlocked(ctx, owner); err != nil {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": err.Error()})
		return
	}

	if method == models.MethodCOD {
		h.confirmCOD(c, owner, &req)
		return
	}
	h.confirmRazorpay(c, owner, &req)
}

// confirmCOD places a cash-on-delivery order from the live cart. There is no
// gateway callback to verify; payment stays pending until delivery.
func (h *Handler) confirmCOD(c *gin.Context, owner models.CartOwner, req *confirmOrderRequest) {
	ctx := c.Request.Context()

	billing, shipping, err := resolveAddressPair(ctx, req.BillingAddressID, req.ShippingAddressID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid address data"})
		return
	}

	liveCart, err := cart.Load(ctx, owner)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to load cart"})
		return
	}
	if len(liveCart.Items) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Cart is empty"})
		return
	}
	pricing.Recalculate(liveCart)

	order := buildOrder(owner, liveCart, billing, shipping, req.Notes, models.PaymentInfo{
		Method: models.MethodCOD,
		Status: models.PaymentPending,
	})

	res, err := database.Orders().InsertOne(ctx, order)
	if err != nil {
		log.Printf("❌ COD order insert failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to place order"})
		return
	}
	order.ID = res.InsertedID.(primitive.ObjectID)
	log.Printf("✅ COD order %s placed, total ₹%.2f", order.ID.Hex(), order.TotalAmount)

	h.finalizeOrder(ctx, owner, order)

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Order placed",
		"orderId": order.ID.Hex(),
	})
}

func (h *Handler) confirmRazorpay(c *gin.Context, owner models.CartOwner, req *confirmOrderRequest) {
	ctx := c.Request.Context()

	if err := h.Gateway.VerifySignature(req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature); err != nil {
		if errors.Is(err, payment.ErrInvalidSignature) {
			log.Printf("❌ Payment signature verification failed for %s", req.RazorpayOrderID)
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Payment verification failed"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Payment verification failed"})
		return
	}

	// the parked context is advisory; a verified payment is confirmed even
	// when the cache entry expired or belongs to another checkout
	pending, err := cache.GetPendingOrder(ctx, cart.OwnerKey(owner))
	if err != nil {
		pending = nil
	}
	pending = usablePending(pending, req.RazorpayOrderID)
	if pending == nil {
		log.Printf("ℹ️ No parked checkout for payment %s, rebuilding from live cart", req.RazorpayPaymentID)
	}

	liveCart, err := cart.Load(ctx, owner)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to load cart"})
		return
	}
	fromSnapshot := false
	if len(liveCart.Items) == 0 {
		if pending == nil {
			log.Printf("❌ Payment %s captured with no cart and no checkout context", req.RazorpayPaymentID)
			c.JSON(http.StatusConflict, gin.H{"success": false, "message": "Payment received but cart is gone, please contact support"})
			return
		}
		// cart vanished between initiation and callback; the parked snapshot
		// still describes what was paid for
		liveCart.Items = pending.CartItems
		liveCart.CouponInfo = pending.Coupon
		fromSnapshot = true
	}
	pricing.Recalculate(liveCart)

	var billing, shipping models.Address
	notes := req.Notes
	if pending != nil {
		billing, shipping = pending.BillingAddress, pending.ShippingAddress
		if pending.Notes != "" {
			notes = pending.Notes
		}
	} else {
		billing, shipping, err = resolveAddressPair(ctx, req.BillingAddressID, req.ShippingAddressID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid address data"})
			return
		}
	}

	order := buildOrder(owner, liveCart, billing, shipping, notes, models.PaymentInfo{
		Method:            models.MethodRazorpay,
		RazorpayOrderID:   req.RazorpayOrderID,
		RazorpayPaymentID: req.RazorpayPaymentID,
		Status:            models.PaymentPaid,
	})
	if fromSnapshot {
		pinSnapshotAmounts(order, pending)
	}

	res, err := database.Orders().InsertOne(ctx, order)
	if err != nil {
		log.Printf("❌ Order insert failed after payment %s: %v", req.RazorpayPaymentID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to save order"})
		return
	}
	order.ID = res.InsertedID.(primitive.ObjectID)
	log.Printf("💳 Payment %s confirmed, order %s created, total ₹%.2f",
		req.RazorpayPaymentID, order.ID.Hex(), order.TotalAmount)

	if pending != nil {
		if err := cache.DeletePendingOrder(ctx, cart.OwnerKey(owner)); err != nil {
			log.Printf("⚠️ Could not drop pending checkout: %v", err)
		}
	}
	h.finalizeOrder(ctx, owner, order)

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Payment confirmed",
		"orderId": order.ID.Hex(),
	})
}

// usablePending filters the parked checkout context: an entry from a
// different gateway order is treated as absent.
func usablePending(pending *cache.PendingOrder, gatewayOrderID string) *cache.PendingOrder {
	if pending == nil || pending.RazorpayOrderID != gatewayOrderID {
		return nil
	}
	return pending
}

// pinSnapshotAmounts keeps the order at the amounts actually charged when it
// was rebuilt from the parked checkout snapshot.
func pinSnapshotAmounts(o *models.Order, pending *cache.PendingOrder) {
	o.TotalAmount = pending.TotalAmount
	if o.CouponUsed != nil && pending.DiscountAmount > 0 {
		o.CouponUsed.DiscountAmount = pending.DiscountAmount
	}
}

func buildOrder(owner models.CartOwner, liveCart *models.Cart, billing, shipping models.Address, notes string, pay models.PaymentInfo) *models.Order {
	now := time.Now()
	return &models.Order{
		User:            owner.UserID,
		Items:           orderItemsFromCart(liveCart.Items),
		BillingAddress:  billing,
		ShippingAddress: shipping,
		CouponUsed:      couponSnapshot(liveCart.CouponInfo),
		PaymentInfo:     pay,
		DeliveryInfo: models.DeliveryInfo{
			Courier:          "Shiprocket",
			Status:           models.DeliveryProcessing,
			FulfillmentState: models.ShipmentPending,
			UpdatedAt:        now,
		},
		TotalAmount: liveCart.Total,
		Notes:       notes,
		OrderStatus: models.OrderConfirmed,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// clearCartAfterOrder empties the cart once the order is durable. Failure
// only risks a stale cart, never a lost order.
func clearCartAfterOrder(ctx context.Context, owner models.CartOwner) {
	if _, err := database.Carts().DeleteOne(ctx, owner.Filter()); err != nil {
		log.Printf("⚠️ Could not clear cart after order: %v", err)
	}
}

// OrderConfirmation returns the confirmation view of an order and applies
// its stock decrement. The decrement is idempotent, so reloading the page is
// harmless.
func (h *Handler) OrderConfirmation(c *gin.Context) {
	orderID, err := primitive.ObjectIDFromHex(c.Param("orderId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid order id"})
		return
	}

	ctx := c.Request.Context()
	o, err := loadOrder(ctx, orderID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Order not found"})
		return
	}

	if err := inventory.DecrementForOrder(ctx, orderID); err != nil {
		// flag the order for manual fulfillment; the confirmation still renders
		log.Printf("⚠️ Stock decrement failed for order %s: %v", orderID.Hex(), err)
		o.StockIssue = err.Error()
		if _, uerr := database.Orders().UpdateByID(ctx, orderID, bson.M{"$set": bson.M{
			"stockIssue": o.StockIssue,
			"updatedAt":  time.Now(),
		}}); uerr != nil {
			log.Printf("❌ Could not flag stock issue on order %s: %v", orderID.Hex(), uerr)
		}
	} else {
		o.StockApplied = true
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "order": o, "stockIssue": o.StockIssue})
}
