package order

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/MikyMack/stayRare-full/internal/database"
	"github.com/MikyMack/stayRare-full/internal/models"
	"github.com/MikyMack/stayRare-full/internal/tracking"
	"github.com/MikyMack/stayRare-full/internal/utils"
)

func requesterID(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.GetString("user_id"))
	if err != nil {
		return primitive.NilObjectID, false
	}
	return id, true
}

func paginate(c *gin.Context) (skip, limit int64) {
	skip, _ = strconv.ParseInt(c.DefaultQuery("skip", "0"), 10, 64)
	limit, _ = strconv.ParseInt(c.DefaultQuery("limit", "20"), 10, 64)
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return skip, limit
}

// ListOrders returns the requester's orders, newest first. In-flight orders
// get a reactive tracking refresh so the customer sees current carrier state
// without waiting for the background sweep.
func (h *Handler) ListOrders(c *gin.Context) {
	userID, ok := requesterID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Login required"})
		return
	}

	skip, limit := paginate(c)
	ctx := c.Request.Context()

	cursor, err := database.Orders().Find(ctx, bson.M{"user": userID},
		options.Find().SetSort(bson.M{"createdAt": -1}).SetSkip(skip).SetLimit(limit))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to load orders"})
		return
	}
	orders := []models.Order{}
	if err := cursor.All(ctx, &orders); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to load orders"})
		return
	}

	for i := range orders {
		if err := tracking.RefreshAndSave(ctx, h.Carrier, &orders[i]); err != nil {
			log.Printf("⚠️ Tracking refresh failed for order %s: %v", orders[i].ID.Hex(), err)
		}
	}

	total, _ := database.Orders().CountDocuments(ctx, bson.M{"user": userID})
	c.JSON(http.StatusOK, gin.H{"success": true, "orders": orders, "total": total})
}

// GetOrder returns one of the requester's orders with a fresh tracking view.
func (h *Handler) GetOrder(c *gin.Context) {
	userID, ok := requesterID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Login required"})
		return
	}

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
	if o.User != userID {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "Not your order"})
		return
	}

	if err := tracking.RefreshAndSave(ctx, h.Carrier, o); err != nil {
		log.Printf("⚠️ Tracking refresh failed for order %s: %v", o.ID.Hex(), err)
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "order": o})
}

var cancellableStatuses = map[string]bool{
	models.OrderPending:    true,
	models.OrderConfirmed:  true,
	models.OrderProcessing: true,
}

// CancelOrder cancels an order that has not shipped yet. The carrier-side
// cancellation is best-effort, but a paid order is only cancelled if the
// refund goes through.
func (h *Handler) CancelOrder(c *gin.Context) {
	userID, ok := requesterID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Login required"})
		return
	}

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
	if o.User != userID {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "Not your order"})
		return
	}
	if !cancellableStatuses[o.OrderStatus] {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Order can no longer be cancelled",
		})
		return
	}

	if o.DeliveryInfo.ShipmentID != "" {
		if err := h.Carrier.CancelShipment(ctx, o.DeliveryInfo.ShipmentID); err != nil {
			log.Printf("⚠️ Carrier cancellation failed for order %s: %v", o.ID.Hex(), err)
		}
	}

	if o.PaymentInfo.Status == models.PaymentPaid {
		refundID, err := h.Gateway.Refund(o.PaymentInfo.RazorpayPaymentID, int(toPaise(o.TotalAmount)))
		if err != nil {
			log.Printf("❌ Refund failed for order %s: %v", o.ID.Hex(), err)
			c.JSON(http.StatusBadGateway, gin.H{"success": false, "message": "Refund failed, order not cancelled"})
			return
		}
		log.Printf("💰 Refund %s issued for order %s, ₹%.2f", refundID, o.ID.Hex(), o.TotalAmount)
	}

	o.OrderStatus = models.OrderCancelled
	o.DeliveryInfo.Status = models.DeliveryCancelled
	o.DeliveryInfo.UpdatedAt = time.Now()
	_, err = database.Orders().UpdateByID(ctx, o.ID, bson.M{"$set": bson.M{
		"orderStatus":  o.OrderStatus,
		"deliveryInfo": o.DeliveryInfo,
		"updatedAt":    time.Now(),
	}})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to update order"})
		return
	}

	go func(ord models.Order) {
		email := ord.ShippingAddress.Email
		if email == "" {
			return
		}
		if err := utils.SendOrderStatusEmail(ord, email, models.OrderCancelled); err != nil {
			log.Printf("⚠️ Cancellation email failed: %v", err)
		}
	}(*o)

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Order cancelled"})
}

// RequestReplacement opens a replacement for a delivered order. A new order
// document is created carrying the same items, linked back to the original.
func (h *Handler) RequestReplacement(c *gin.Context) {
	userID, ok := requesterID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Login required"})
		return
	}

	orderID, err := primitive.ObjectIDFromHex(c.Param("orderId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid order id"})
		return
	}

	var req struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Replacement reason is required"})
		return
	}

	ctx := c.Request.Context()
	original, err := loadOrder(ctx, orderID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Order not found"})
		return
	}
	if original.User != userID {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "Not your order"})
		return
	}
	if original.OrderStatus != models.OrderDelivered {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Only delivered orders can be replaced"})
		return
	}

	count, err := database.Orders().CountDocuments(ctx, bson.M{"originalOrder": orderID})
	if err == nil && count > 0 {
		c.JSON(http.StatusConflict, gin.H{"success": false, "message": "Replacement already requested"})
		return
	}

	now := time.Now()
	replacement := models.Order{
		User:            original.User,
		Items:           original.Items,
		BillingAddress:  original.BillingAddress,
		ShippingAddress: original.ShippingAddress,
		PaymentInfo: models.PaymentInfo{
			Method: original.PaymentInfo.Method,
			Status: original.PaymentInfo.Status,
		},
		DeliveryInfo: models.DeliveryInfo{
			Courier:          "Shiprocket",
			Status:           models.DeliveryPending,
			FulfillmentState: models.ShipmentPending,
			UpdatedAt:        now,
		},
		TotalAmount:       0, // replacements ship free
		OrderStatus:       models.OrderPending,
		IsReplacement:     true,
		OriginalOrder:     original.ID,
		ReplacementReason: req.Reason,
		ReplacementStatus: models.ReplacementPending,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	res, err := database.Orders().InsertOne(ctx, replacement)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to create replacement"})
		return
	}

	log.Printf("🔁 Replacement requested for order %s", original.ID.Hex())
	c.JSON(http.StatusCreated, gin.H{
		"success":       true,
		"message":       "Replacement requested",
		"replacementId": res.InsertedID.(primitive.ObjectID).Hex(),
	})
}
