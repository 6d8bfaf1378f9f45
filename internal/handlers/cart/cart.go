// Package cart exposes the shopping cart surface: item management plus
// coupon application. Carts belong either to a logged-in user or to a guest
// session, and every mutation reprices the cart before saving.
package cart

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/MikyMack/stayRare-full/internal/database"
	"github.com/MikyMack/stayRare-full/internal/models"
	"github.com/MikyMack/stayRare-full/internal/pricing"
)

// Owner resolves the cart owner for a request: the authenticated user when a
// token was presented, the guest session otherwise.
func Owner(c *gin.Context) (models.CartOwner, error) {
	if userID := c.GetString("user_id"); userID != "" {
		oid, err := primitive.ObjectIDFromHex(userID)
		if err != nil {
			return models.CartOwner{}, fmt.Errorf("invalid user id in token: %w", err)
		}
		return models.OwnerForUser(oid), nil
	}
	if sessionID := c.GetString("session_id"); sessionID != "" {
		return models.OwnerForGuest(sessionID), nil
	}
	return models.CartOwner{}, errors.New("no user or session on request")
}

// OwnerKey is the string the pending-checkout cache is keyed on.
func OwnerKey(owner models.CartOwner) string {
	if owner.IsGuest() {
		return "guest:" + owner.SessionID
	}
	return owner.UserID.Hex()
}

// Load fetches the owner's cart, returning an empty one when none exists yet.
func Load(ctx context.Context, owner models.CartOwner) (*models.Cart, error) {
	var cart models.Cart
	err := database.Carts().FindOne(ctx, owner.Filter()).Decode(&cart)
	if errors.Is(err, mongo.ErrNoDocuments) {
		cart = models.Cart{Items: []models.CartItem{}}
		if owner.IsGuest() {
			cart.SessionID = owner.SessionID
		} else {
			cart.User = owner.UserID
		}
		return &cart, nil
	}
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// Save upserts the cart under its owner's filter.
func Save(ctx context.Context, owner models.CartOwner, cart *models.Cart) error {
	cart.UpdatedAt = time.Now()
	_, err := database.Carts().ReplaceOne(ctx, owner.Filter(), cart, options.Replace().SetUpsert(true))
	return err
}

func respondWithCart(c *gin.Context, cart *models.Cart) {
	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"cart":           cart,
		"subtotal":       cart.Subtotal,
		"discountAmount": cart.DiscountAmount(),
		"total":          cart.Total,
	})
}

// GetCart returns the current cart, repriced against its stored lines.
func GetCart(c *gin.Context) {
	owner, err := Owner(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	cart, err := Load(c.Request.Context(), owner)
	if err != nil {
		log.Printf("❌ Cart load failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to load cart"})
		return
	}

	pricing.Recalculate(cart)
	respondWithCart(c, cart)
}

// upsertLine merges a new line into the cart. The same product with the same
// variant selection stays one line: quantities add up, or are replaced when
// updateQuantity is set.
func upsertLine(cart *models.Cart, line models.CartItem, updateQuantity bool) {
	for i := range cart.Items {
		item := &cart.Items[i]
		if item.Product == line.Product && item.SelectedColor == line.SelectedColor && item.SelectedSize == line.SelectedSize {
			if updateQuantity {
				item.Quantity = line.Quantity
			} else {
				item.Quantity += line.Quantity
			}
			return
		}
	}
	cart.Items = append(cart.Items, line)
}

// AddItem adds a product line to the cart. The unit price is captured from
// the product at add time; the same product with the same variant selection
// merges into one line.
func AddItem(c *gin.Context) {
	var req struct {
		ProductID      string `json:"productId" binding:"required"`
		Quantity       int    `json:"quantity"`
		SelectedColor  string `json:"selectedColor"`
		SelectedSize   string `json:"selectedSize"`
		UpdateQuantity bool   `json:"updateQuantity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request body"})
		return
	}
	if req.Quantity <= 0 {
		req.Quantity = 1
	}

	productID, err := primitive.ObjectIDFromHex(req.ProductID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid product id"})
		return
	}

	owner, err := Owner(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	ctx := c.Request.Context()

	var product models.Product
	if err := database.Products().FindOne(ctx, bson.M{"_id": productID, "isActive": true}).Decode(&product); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Product not found"})
		return
	}

	if product.HasColorVariants && req.SelectedColor == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Please select a color"})
		return
	}
	if product.HasSizeVariants && req.SelectedSize == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Please select a size"})
		return
	}

	cart, err := Load(ctx, owner)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to load cart"})
		return
	}

	upsertLine(cart, models.CartItem{
		ID:            primitive.NewObjectID(),
		Product:       productID,
		Quantity:      req.Quantity,
		SelectedColor: req.SelectedColor,
		SelectedSize:  req.SelectedSize,
		Price:         product.EffectivePrice(),
		ProductName:   product.Name,
		ProductImage:  product.FirstImage(),
		Weight:        product.Weight,
	}, req.UpdateQuantity)

	pricing.Recalculate(cart)
	if err := Save(ctx, owner, cart); err != nil {
		log.Printf("❌ Cart save failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to save cart"})
		return
	}

	respondWithCart(c, cart)
}

// UpdateItem changes the quantity of one cart line. Quantity zero removes it.
func UpdateItem(c *gin.Context) {
	var req struct {
		ItemID   string `json:"itemId" binding:"required"`
		Quantity int    `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request body"})
		return
	}
	if req.Quantity < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Quantity cannot be negative"})
		return
	}

	itemID, err := primitive.ObjectIDFromHex(req.ItemID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid item id"})
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

	found := false
	items := cart.Items[:0]
	for _, item := range cart.Items {
		if item.ID == itemID {
			found = true
			if req.Quantity == 0 {
				continue
			}
			item.Quantity = req.Quantity
		}
		items = append(items, item)
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Item not in cart"})
		return
	}
	cart.Items = items

	pricing.Recalculate(cart)
	if err := Save(ctx, owner, cart); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to save cart"})
		return
	}

	respondWithCart(c, cart)
}

// RemoveItem deletes one line from the cart.
func RemoveItem(c *gin.Context) {
	itemID, err := primitive.ObjectIDFromHex(c.Param("itemId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid item id"})
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

	items := cart.Items[:0]
	for _, item := range cart.Items {
		if item.ID != itemID {
			items = append(items, item)
		}
	}
	cart.Items = items

	pricing.Recalculate(cart)
	if err := Save(ctx, owner, cart); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to save cart"})
		return
	}

	respondWithCart(c, cart)
}

// ClearCart empties the cart and drops any applied coupon.
func ClearCart(c *gin.Context) {
	owner, err := Owner(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	if _, err := database.Carts().DeleteOne(c.Request.Context(), owner.Filter()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to clear cart"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Cart cleared"})
}
