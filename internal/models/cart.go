package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CartOwner identifies who a cart belongs to: an authenticated user or a
// guest session. Exactly one of the two fields is set.
type CartOwner struct {
	UserID    primitive.ObjectID
	SessionID string
}

func OwnerForUser(userID primitive.ObjectID) CartOwner {
	return CartOwner{UserID: userID}
}

func OwnerForGuest(sessionID string) CartOwner {
	return CartOwner{SessionID: sessionID}
}

func (o CartOwner) IsGuest() bool {
	return o.UserID.IsZero()
}

// Filter returns the Mongo filter selecting this owner's cart.
func (o CartOwner) Filter() bson.M {
	if o.IsGuest() {
		return bson.M{"sessionId": o.SessionID}
	}
	return bson.M{"user": o.UserID}
}

type CartItem struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Product       primitive.ObjectID `bson:"product" json:"product"`
	Quantity      int                `bson:"quantity" json:"quantity"`
	SelectedColor string             `bson:"selectedColor,omitempty" json:"selectedColor,omitempty"`
	SelectedSize  string             `bson:"selectedSize,omitempty" json:"selectedSize,omitempty"`
	Price         float64            `bson:"price" json:"price"` // unit price captured at add time
	ProductName   string             `bson:"productName" json:"productName"`
	ProductImage  string             `bson:"productImage,omitempty" json:"productImage,omitempty"`
	Weight        float64            `bson:"weight,omitempty" json:"weight,omitempty"`
}

// CouponInfo is the snapshot of an applied coupon stored on the cart.
type CouponInfo struct {
	CouponID       primitive.ObjectID `bson:"couponId,omitempty" json:"couponId,omitempty"`
	Code           string             `bson:"code" json:"code"`
	DiscountType   string             `bson:"discountType" json:"discountType"` // percentage | fixed
	DiscountValue  float64            `bson:"discountValue" json:"discountValue"`
	DiscountAmount float64            `bson:"discountAmount" json:"discountAmount"`
	MinPurchase    float64            `bson:"minPurchase" json:"minPurchase"`
	Validated      bool               `bson:"validated" json:"validated"`
	ScopeType      string             `bson:"scopeType,omitempty" json:"scopeType,omitempty"`
}

type Cart struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	User       primitive.ObjectID `bson:"user,omitempty" json:"user,omitempty"`
	SessionID  string             `bson:"sessionId,omitempty" json:"sessionId,omitempty"`
	Items      []CartItem         `bson:"items" json:"items"`
	CouponInfo *CouponInfo        `bson:"couponInfo,omitempty" json:"couponInfo,omitempty"`
	Subtotal   float64            `bson:"subtotal" json:"subtotal"`
	Total      float64            `bson:"total" json:"total"`
	UpdatedAt  time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// DiscountAmount is the discount currently applied to the cart.
func (c *Cart) DiscountAmount() float64 {
	if c.CouponInfo == nil || !c.CouponInfo.Validated {
		return 0
	}
	return c.CouponInfo.DiscountAmount
}
