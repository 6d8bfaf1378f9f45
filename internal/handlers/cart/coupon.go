package cart

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/MikyMack/stayRare-full/internal/database"
	"github.com/MikyMack/stayRare-full/internal/models"
	"github.com/MikyMack/stayRare-full/internal/pricing"
)

// findLiveCoupon looks up an active coupon by code within its validity
// window and under its global usage cap.
func findLiveCoupon(ctx context.Context, code string) (*models.Coupon, error) {
	now := time.Now()
	var coupon models.Coupon
	err := database.Coupons().FindOne(ctx, bson.M{
		"code":       strings.ToUpper(strings.TrimSpace(code)),
		"isActive":   true,
		"validFrom":  bson.M{"$lte": now},
		"validUntil": bson.M{"$gte": now},
	}).Decode(&coupon)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, pricing.ErrCouponNotFound
	}
	if err != nil {
		return nil, err
	}
	if coupon.MaxUses != nil && coupon.UsedCount >= *coupon.MaxUses {
		return nil, pricing.ErrCouponNotFound
	}
	return &coupon, nil
}

// eligibilityFor builds the per-product eligibility check for a coupon's
// scope. Category scope matches a product's category directly; subcategory
// scope matches products whose category is the parent of a listed
// subcategory.
func eligibilityFor(ctx context.Context, coupon *models.Coupon, items []models.CartItem) (func(primitive.ObjectID) bool, error) {
	if coupon.ScopeType == "" || coupon.ScopeType == models.ScopeAll {
		return func(primitive.ObjectID) bool { return true }, nil
	}

	productIDs := make([]primitive.ObjectID, 0, len(items))
	for _, item := range items {
		productIDs = append(productIDs, item.Product)
	}
	cursor, err := database.Products().Find(ctx, bson.M{"_id": bson.M{"$in": productIDs}})
	if err != nil {
		return nil, err
	}
	var products []models.Product
	if err := cursor.All(ctx, &products); err != nil {
		return nil, err
	}

	categoryByProduct := make(map[primitive.ObjectID]primitive.ObjectID, len(products))
	for _, p := range products {
		categoryByProduct[p.ID] = p.Category
	}

	allowed := make(map[primitive.ObjectID]bool)
	switch coupon.ScopeType {
	case models.ScopeCategories:
		for _, id := range coupon.ApplicableCategories {
			allowed[id] = true
		}
	case models.ScopeSubcategories:
		// resolve each listed subcategory to its parent category
		cursor, err := database.Categories().Find(ctx, bson.M{
			"subCategories._id": bson.M{"$in": coupon.ApplicableSubcategories},
		})
		if err != nil {
			return nil, err
		}
		var parents []models.Category
		if err := cursor.All(ctx, &parents); err != nil {
			return nil, err
		}
		for _, parent := range parents {
			allowed[parent.ID] = true
		}
	}

	return func(productID primitive.ObjectID) bool {
		category, ok := categoryByProduct[productID]
		return ok && allowed[category]
	}, nil
}

// ApplyCoupon validates a coupon against the cart and stores the discount
// snapshot on it. Redemption itself is only recorded at order confirmation.
func ApplyCoupon(c *gin.Context) {
	var req struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Coupon code is required"})
		return
	}

	owner, err := Owner(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	ctx := c.Request.Context()
	cart, err := Load(ctx, owner)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to load cart"})
		return
	}

	coupon, err := findLiveCoupon(ctx, req.Code)
	if err != nil {
		if errors.Is(err, pricing.ErrCouponNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Invalid or expired coupon"})
			return
		}
		log.Printf("❌ Coupon lookup failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to validate coupon"})
		return
	}

	eligible, err := eligibilityFor(ctx, coupon, cart.Items)
	if err != nil {
		log.Printf("❌ Coupon scope resolution failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to validate coupon"})
		return
	}

	if err := pricing.ApplyCoupon(cart, coupon, owner.UserID, eligible); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, pricing.ErrCouponNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"success": false, "message": err.Error()})
		return
	}

	if err := Save(ctx, owner, cart); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to save cart"})
		return
	}

	log.Printf("🎟️ Coupon %s applied, discount ₹%.2f", coupon.Code, cart.DiscountAmount())
	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"message":        "Coupon applied",
		"cart":           cart,
		"discountAmount": cart.DiscountAmount(),
		"total":          cart.Total,
	})
}

// RemoveCoupon drops the applied coupon and reprices. Removing when nothing
// is applied is a no-op success.
func RemoveCoupon(c *gin.Context) {
	owner, err := Owner(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	ctx := c.Request.Context()
	cart, err := Load(ctx, owner)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to load cart"})
		return
	}

	pricing.RemoveCoupon(cart)
	if err := Save(ctx, owner, cart); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to save cart"})
		return
	}

	respondWithCart(c, cart)
}
