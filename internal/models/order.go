package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Overall order lifecycle.
const (
	OrderPending    = "Pending"
	OrderConfirmed  = "Confirmed"
	OrderProcessing = "Processing"
	OrderShipped    = "Shipped"
	OrderDelivered  = "Delivered"
	OrderCancelled  = "Cancelled"
	OrderReturned   = "Returned"
)

// Carrier-reported delivery statuses (deliveryInfo.status).
const (
	DeliveryPending         = "Pending"
	DeliveryProcessing      = "Processing"
	DeliveryPickupGenerated = "Pickup Generated"
	DeliveryShipped         = "Shipped"
	DeliveryInTransit       = "In Transit"
	DeliveryOutForDelivery  = "Out for Delivery"
	DeliveryDelivered       = "Delivered"
	DeliveryReturned        = "Returned"
	DeliveryCancelled       = "Cancelled"
	DeliveryFailed          = "Failed"
)

// Fulfillment pipeline states (deliveryInfo.fulfillmentState). The driver in
// internal/fulfillment advances an order through these one step at a time.
const (
	ShipmentPending = "ShipmentPending"
	ShipmentCreated = "ShipmentCreated"
	AWBAssigned     = "AWBAssigned"
	PickupRequested = "PickupRequested"
	LabelReady      = "LabelReady"
	LabelFailed     = "LabelFailed"
)

// Payment statuses.
const (
	PaymentPending = "Pending"
	PaymentPaid    = "Paid"
)

// Payment methods.
const (
	MethodCOD      = "COD"
	MethodRazorpay = "Razorpay"
)

// Replacement request statuses.
const (
	ReplacementPending    = "Pending"
	ReplacementApproved   = "Approved"
	ReplacementRejected   = "Rejected"
	ReplacementProcessing = "Processing"
	ReplacementCompleted  = "Completed"
)

// IsTerminalStatus reports whether an order status may never be overwritten
// by a later tracking poll.
func IsTerminalStatus(status string) bool {
	switch status {
	case OrderDelivered, OrderCancelled, OrderReturned:
		return true
	}
	return false
}

type OrderItem struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Product       primitive.ObjectID `bson:"product" json:"product"`
	Name          string             `bson:"name" json:"name"`
	SelectedColor string             `bson:"selectedColor,omitempty" json:"selectedColor,omitempty"`
	SelectedSize  string             `bson:"selectedSize,omitempty" json:"selectedSize,omitempty"`
	Quantity      int                `bson:"quantity" json:"quantity"`
	Price         float64            `bson:"price" json:"price"` // extended price (unit x quantity)
	Weight        float64            `bson:"weight,omitempty" json:"weight,omitempty"`
}

// CouponUsed snapshots the coupon applied at order time.
type CouponUsed struct {
	CouponID       primitive.ObjectID `bson:"couponId,omitempty" json:"couponId,omitempty"`
	Code           string             `bson:"code" json:"code"`
	DiscountType   string             `bson:"discountType" json:"discountType"`
	DiscountValue  float64            `bson:"discountValue" json:"discountValue"`
	DiscountAmount float64            `bson:"discountAmount" json:"discountAmount"`
}

type PaymentInfo struct {
	Method            string `bson:"method" json:"method"`
	RazorpayPaymentID string `bson:"razorpayPaymentId,omitempty" json:"razorpayPaymentId,omitempty"`
	RazorpayOrderID   string `bson:"razorpayOrderId,omitempty" json:"razorpayOrderId,omitempty"`
	Status            string `bson:"status" json:"status"`
}

// TrackingEvent is one carrier-reported scan, normalized from the raw feed.
type TrackingEvent struct {
	Status         string    `bson:"status" json:"status"`
	OriginalStatus string    `bson:"original_status,omitempty" json:"originalStatus,omitempty"`
	Location       string    `bson:"location,omitempty" json:"location,omitempty"`
	Remark         string    `bson:"remark,omitempty" json:"remark,omitempty"`
	AWB            string    `bson:"awb,omitempty" json:"awb,omitempty"`
	UpdatedDate    string    `bson:"updated_date,omitempty" json:"updatedDate,omitempty"`
	Date           time.Time `bson:"date" json:"date"`
	CourierName    string    `bson:"courier_name,omitempty" json:"courierName,omitempty"`
}

type DeliveryInfo struct {
	Courier           string          `bson:"courier" json:"courier"`
	ShipmentID        string          `bson:"shipmentId,omitempty" json:"shipmentId,omitempty"`
	TrackingID        string          `bson:"trackingId,omitempty" json:"trackingId,omitempty"`
	AWBCode           string          `bson:"awbCode,omitempty" json:"awbCode,omitempty"`
	CourierName       string          `bson:"courierName,omitempty" json:"courierName,omitempty"`
	LabelURL          string          `bson:"labelUrl,omitempty" json:"labelUrl,omitempty"`
	Status            string          `bson:"status" json:"status"`
	FulfillmentState  string          `bson:"fulfillmentState,omitempty" json:"fulfillmentState,omitempty"`
	TrackingHistory   []TrackingEvent `bson:"trackingHistory,omitempty" json:"trackingHistory,omitempty"`
	EstimatedDelivery *time.Time      `bson:"estimatedDelivery,omitempty" json:"estimatedDelivery,omitempty"`
	Error             string          `bson:"error,omitempty" json:"error,omitempty"`
	UpdatedAt         time.Time       `bson:"updatedAt" json:"updatedAt"`
}

// Order is the immutable snapshot of a confirmed purchase. After creation
// only deliveryInfo, orderStatus, stockApplied and the replacement fields are
// ever updated.
type Order struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	User            primitive.ObjectID `bson:"user,omitempty" json:"user,omitempty"`
	Items           []OrderItem        `bson:"items" json:"items"`
	BillingAddress  Address            `bson:"billingAddress" json:"billingAddress"`
	ShippingAddress Address            `bson:"shippingAddress" json:"shippingAddress"`
	CouponUsed      *CouponUsed        `bson:"couponUsed,omitempty" json:"couponUsed,omitempty"`
	PaymentInfo     PaymentInfo        `bson:"paymentInfo" json:"paymentInfo"`
	DeliveryInfo    DeliveryInfo       `bson:"deliveryInfo" json:"deliveryInfo"`
	TotalAmount     float64            `bson:"totalAmount" json:"totalAmount"`
	Notes           string             `bson:"notes,omitempty" json:"notes,omitempty"`
	OrderStatus     string             `bson:"orderStatus" json:"orderStatus"`
	StockApplied    bool               `bson:"stockApplied" json:"stockApplied"`
	StockIssue      string             `bson:"stockIssue,omitempty" json:"stockIssue,omitempty"` // set when the decrement failed and the order needs manual fulfillment

	IsReplacement     bool               `bson:"isReplacement" json:"isReplacement"`
	OriginalOrder     primitive.ObjectID `bson:"originalOrder,omitempty" json:"originalOrder,omitempty"`
	ReplacementReason string             `bson:"replacementReason,omitempty" json:"replacementReason,omitempty"`
	ReplacementStatus string             `bson:"replacementStatus,omitempty" json:"replacementStatus,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
