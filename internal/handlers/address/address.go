// Package address manages a user's saved delivery addresses.
package address

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/MikyMack/stayRare-full/internal/database"
	"github.com/MikyMack/stayRare-full/internal/models"
)

func requesterID(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.GetString("user_id"))
	if err != nil {
		return primitive.NilObjectID, false
	}
	return id, true
}

// ListAddresses returns the user's saved addresses, default first.
func ListAddresses(c *gin.Context) {
	userID, ok := requesterID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Login required"})
		return
	}

	cursor, err := database.Addresses().Find(c.Request.Context(), bson.M{"user": userID},
		options.Find().SetSort(bson.D{{Key: "isDefault", Value: -1}, {Key: "createdAt", Value: -1}}))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to load addresses"})
		return
	}

	addresses := []models.Address{}
	if err := cursor.All(c.Request.Context(), &addresses); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to load addresses"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "addresses": addresses})
}

// CreateAddress saves a new address. The first saved address, or one flagged
// as default, becomes the user's default.
func CreateAddress(c *gin.Context) {
	userID, ok := requesterID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Login required"})
		return
	}

	var addr models.Address
	if err := c.ShouldBindJSON(&addr); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request body"})
		return
	}
	if addr.Name == "" || addr.Phone == "" || addr.Pincode == "" || addr.AddressLine1 == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Name, phone, pincode and address line are required"})
		return
	}

	ctx := c.Request.Context()
	addr.ID = primitive.NewObjectID()
	addr.User = userID
	addr.CreatedAt = time.Now()

	count, _ := database.Addresses().CountDocuments(ctx, bson.M{"user": userID})
	if count == 0 {
		addr.IsDefault = true
	} else if addr.IsDefault {
		database.Addresses().UpdateMany(ctx, bson.M{"user": userID}, bson.M{"$set": bson.M{"isDefault": false}})
	}

	if _, err := database.Addresses().InsertOne(ctx, addr); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to save address"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "address": addr})
}

// UpdateAddress edits one of the user's addresses.
func UpdateAddress(c *gin.Context) {
	userID, ok := requesterID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Login required"})
		return
	}

	addrID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid address id"})
		return
	}

	var addr models.Address
	if err := c.ShouldBindJSON(&addr); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request body"})
		return
	}

	ctx := c.Request.Context()
	if addr.IsDefault {
		database.Addresses().UpdateMany(ctx, bson.M{"user": userID}, bson.M{"$set": bson.M{"isDefault": false}})
	}

	res, err := database.Addresses().UpdateOne(ctx,
		bson.M{"_id": addrID, "user": userID},
		bson.M{"$set": bson.M{
			"name":         addr.Name,
			"phone":        addr.Phone,
			"email":        addr.Email,
			"pincode":      addr.Pincode,
			"state":        addr.State,
			"city":         addr.City,
			"district":     addr.District,
			"addressLine1": addr.AddressLine1,
			"addressLine2": addr.AddressLine2,
			"landmark":     addr.Landmark,
			"addressType":  addr.AddressType,
			"isDefault":    addr.IsDefault,
		}})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to update address"})
		return
	}
	if res.MatchedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Address not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Address updated"})
}

// DeleteAddress removes one of the user's addresses.
func DeleteAddress(c *gin.Context) {
	userID, ok := requesterID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Login required"})
		return
	}

	addrID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid address id"})
		return
	}

	res, err := database.Addresses().DeleteOne(c.Request.Context(), bson.M{"_id": addrID, "user": userID})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to delete address"})
		return
	}
	if res.DeletedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Address not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Address deleted"})
}
