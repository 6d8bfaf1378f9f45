// Package coupon is the admin surface for coupon management.
package coupon

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/MikyMack/stayRare-full/internal/database"
	"github.com/MikyMack/stayRare-full/internal/models"
	"github.com/MikyMack/stayRare-full/internal/notify"
)

// couponAnnouncement builds the broadcast body for a freshly created coupon.
func couponAnnouncement(coupon models.Coupon) string {
	discount := fmt.Sprintf("₹%.0f off", coupon.Value)
	if coupon.DiscountType == models.DiscountPercentage {
		discount = fmt.Sprintf("%.0f%% off", coupon.Value)
	}
	msg := fmt.Sprintf("Use code %s for %s", coupon.Code, discount)
	if coupon.MinPurchase > 0 {
		msg += fmt.Sprintf(" on orders above ₹%.0f", coupon.MinPurchase)
	}
	return msg + "."
}

type couponRequest struct {
	Code                    string    `json:"code" binding:"required"`
	Description             string    `json:"description"`
	DiscountType            string    `json:"discountType" binding:"required"`
	Value                   float64   `json:"value" binding:"required"`
	MinPurchase             float64   `json:"minPurchase"`
	ValidFrom               time.Time `json:"validFrom" binding:"required"`
	ValidUntil              time.Time `json:"validUntil" binding:"required"`
	MaxUses                 *int      `json:"maxUses"`
	IsActive                *bool     `json:"isActive"`
	ScopeType               string    `json:"scopeType"`
	ApplicableCategories    []string  `json:"applicableCategories"`
	ApplicableSubcategories []string  `json:"applicableSubcategories"`
}

func (r *couponRequest) validate() string {
	r.Code = strings.ToUpper(strings.TrimSpace(r.Code))
	if r.Code == "" {
		return "Coupon code is required"
	}
	if r.DiscountType != models.DiscountPercentage && r.DiscountType != models.DiscountFixed {
		return "discountType must be percentage or fixed"
	}
	if r.Value <= 0 {
		return "Discount value must be positive"
	}
	if r.DiscountType == models.DiscountPercentage && r.Value > 100 {
		return "Percentage discount cannot exceed 100"
	}
	if !r.ValidUntil.After(r.ValidFrom) {
		return "validUntil must be after validFrom"
	}
	if r.MaxUses != nil && *r.MaxUses <= 0 {
		return "maxUses must be positive when set"
	}
	switch r.ScopeType {
	case "", models.ScopeAll, models.ScopeCategories, models.ScopeSubcategories:
	default:
		return "Invalid scopeType"
	}
	return ""
}

func parseObjectIDs(hexes []string) ([]primitive.ObjectID, error) {
	ids := make([]primitive.ObjectID, 0, len(hexes))
	for _, h := range hexes {
		id, err := primitive.ObjectIDFromHex(h)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// CreateCoupon registers a new coupon. Codes are stored uppercase and must
// be unique.
func CreateCoupon(c *gin.Context) {
	var req couponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request body"})
		return
	}
	if msg := req.validate(); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": msg})
		return
	}

	categories, err := parseObjectIDs(req.ApplicableCategories)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid category id"})
		return
	}
	subcategories, err := parseObjectIDs(req.ApplicableSubcategories)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid subcategory id"})
		return
	}

	scope := req.ScopeType
	if scope == "" {
		scope = models.ScopeAll
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	coupon := models.Coupon{
		Code:                    req.Code,
		Description:             req.Description,
		DiscountType:            req.DiscountType,
		Value:                   req.Value,
		MinPurchase:             req.MinPurchase,
		ValidFrom:               req.ValidFrom,
		ValidUntil:              req.ValidUntil,
		MaxUses:                 req.MaxUses,
		IsActive:                active,
		ScopeType:               scope,
		ApplicableCategories:    categories,
		ApplicableSubcategories: subcategories,
		CreatedAt:               time.Now(),
	}

	ctx := c.Request.Context()
	if err := database.Coupons().FindOne(ctx, bson.M{"code": coupon.Code}).Err(); err == nil {
		c.JSON(http.StatusConflict, gin.H{"success": false, "message": "Coupon code already exists"})
		return
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to create coupon"})
		return
	}

	res, err := database.Coupons().InsertOne(ctx, coupon)
	if err != nil {
		log.Printf("❌ Coupon insert failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to create coupon"})
		return
	}
	coupon.ID = res.InsertedID.(primitive.ObjectID)

	log.Printf("🎟️ Coupon %s created", coupon.Code)
	if coupon.IsActive {
		notify.NotifyAllUsers("New offer: "+coupon.Code, couponAnnouncement(coupon))
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "coupon": coupon})
}

// ListCoupons returns all coupons, newest first.
func ListCoupons(c *gin.Context) {
	cursor, err := database.Coupons().Find(c.Request.Context(), bson.M{},
		options.Find().SetSort(bson.M{"createdAt": -1}))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to list coupons"})
		return
	}

	coupons := []models.Coupon{}
	if err := cursor.All(c.Request.Context(), &coupons); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to list coupons"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "coupons": coupons})
}

// GetCoupon returns one coupon by id.
func GetCoupon(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid coupon id"})
		return
	}

	var coupon models.Coupon
	if err := database.Coupons().FindOne(c.Request.Context(), bson.M{"_id": id}).Decode(&coupon); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Coupon not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "coupon": coupon})
}

// UpdateCoupon replaces the mutable fields of a coupon. Usage counters and
// the redeemed-by set are never touched here.
func UpdateCoupon(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid coupon id"})
		return
	}

	var req couponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request body"})
		return
	}
	if msg := req.validate(); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": msg})
		return
	}

	categories, err := parseObjectIDs(req.ApplicableCategories)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid category id"})
		return
	}
	subcategories, err := parseObjectIDs(req.ApplicableSubcategories)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid subcategory id"})
		return
	}

	update := bson.M{
		"code":         req.Code,
		"description":  req.Description,
		"discountType": req.DiscountType,
		"value":        req.Value,
		"minPurchase":  req.MinPurchase,
		"validFrom":    req.ValidFrom,
		"validUntil":   req.ValidUntil,
		"maxUses":      req.MaxUses,
	}
	if req.IsActive != nil {
		update["isActive"] = *req.IsActive
	}
	if req.ScopeType != "" {
		update["scopeType"] = req.ScopeType
		update["applicableCategories"] = categories
		update["applicableSubcategories"] = subcategories
	}

	res, err := database.Coupons().UpdateByID(c.Request.Context(), id, bson.M{"$set": update})
	if err != nil {
		log.Printf("❌ Coupon update failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to update coupon"})
		return
	}
	if res.MatchedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Coupon not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Coupon updated"})
}

// DeleteCoupon removes a coupon. Orders keep their own snapshot, so history
// is unaffected.
func DeleteCoupon(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid coupon id"})
		return
	}

	res, err := database.Coupons().DeleteOne(c.Request.Context(), bson.M{"_id": id})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to delete coupon"})
		return
	}
	if res.DeletedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Coupon not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Coupon deleted"})
}
