package order

import (
	"log"
	"net/http"
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

// AdminListOrders returns all orders with optional status filtering.
func (h *Handler) AdminListOrders(c *gin.Context) {
	filter := bson.M{}
	if status := c.Query("status"); status != "" {
		filter["orderStatus"] = status
	}
	if c.Query("replacements") == "true" {
		filter["isReplacement"] = true
	}

	skip, limit := paginate(c)
	ctx := c.Request.Context()

	cursor, err := database.Orders().Find(ctx, filter,
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

	total, _ := database.Orders().CountDocuments(ctx, filter)
	c.JSON(http.StatusOK, gin.H{"success": true, "orders": orders, "total": total})
}

// ShipOrder runs the fulfillment pipeline for an order synchronously. Used
// to kick off or resume carrier onboarding when the automatic run failed.
func (h *Handler) ShipOrder(c *gin.Context) {
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
	if models.IsTerminalStatus(o.OrderStatus) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Order is already settled"})
		return
	}

	if err := h.Driver.Run(ctx, o); err != nil {
		// partial progress is persisted; report where it stopped
		c.JSON(http.StatusBadGateway, gin.H{
			"success":          false,
			"message":          err.Error(),
			"fulfillmentState": o.DeliveryInfo.FulfillmentState,
			"deliveryInfo":     o.DeliveryInfo,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "deliveryInfo": o.DeliveryInfo})
}

// RefreshTracking forces a tracking poll for one order.
func (h *Handler) RefreshTracking(c *gin.Context) {
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

	if err := tracking.RefreshAndSave(ctx, h.Carrier, o); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"orderStatus":  o.OrderStatus,
		"deliveryInfo": o.DeliveryInfo,
	})
}

// UpdateReplacementStatus moves a replacement request through its review
// lifecycle. Approval puts the replacement order into fulfillment.
func (h *Handler) UpdateReplacementStatus(c *gin.Context) {
	orderID, err := primitive.ObjectIDFromHex(c.Param("orderId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid order id"})
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Status is required"})
		return
	}
	switch req.Status {
	case models.ReplacementApproved, models.ReplacementRejected,
		models.ReplacementProcessing, models.ReplacementCompleted:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid replacement status"})
		return
	}

	ctx := c.Request.Context()
	o, err := loadOrder(ctx, orderID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Order not found"})
		return
	}
	if !o.IsReplacement {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Not a replacement order"})
		return
	}

	update := bson.M{"replacementStatus": req.Status, "updatedAt": time.Now()}
	if req.Status == models.ReplacementApproved {
		update["orderStatus"] = models.OrderConfirmed
	}
	if req.Status == models.ReplacementRejected {
		update["orderStatus"] = models.OrderCancelled
	}
	if _, err := database.Orders().UpdateByID(ctx, orderID, bson.M{"$set": update}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to update replacement"})
		return
	}

	if req.Status == models.ReplacementApproved {
		o.ReplacementStatus = req.Status
		o.OrderStatus = models.OrderConfirmed
		h.startFulfillment(o)

		go func(ord models.Order) {
			if ord.ShippingAddress.Email == "" {
				return
			}
			if err := utils.SendOrderStatusEmail(ord, ord.ShippingAddress.Email, models.OrderConfirmed); err != nil {
				log.Printf("⚠️ Replacement email failed: %v", err)
			}
		}(*o)
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Replacement updated"})
}
