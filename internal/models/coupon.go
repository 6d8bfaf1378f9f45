package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Coupon scope types restricting which cart items count toward the discount.
const (
	ScopeAll           = "all"
	ScopeCategories    = "categories"
	ScopeSubcategories = "subcategories"
)

const (
	DiscountPercentage = "percentage"
	DiscountFixed      = "fixed"
)

type Coupon struct {
	ID                      primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Code                    string               `bson:"code" json:"code"`
	Description             string               `bson:"description,omitempty" json:"description,omitempty"`
	DiscountType            string               `bson:"discountType" json:"discountType"`
	Value                   float64              `bson:"value" json:"value"`
	MinPurchase             float64              `bson:"minPurchase" json:"minPurchase"`
	ValidFrom               time.Time            `bson:"validFrom" json:"validFrom"`
	ValidUntil              time.Time            `bson:"validUntil" json:"validUntil"`
	MaxUses                 *int                 `bson:"maxUses" json:"maxUses"` // nil = unbounded
	UsedCount               int                  `bson:"usedCount" json:"usedCount"`
	UsedBy                  []primitive.ObjectID `bson:"usedBy,omitempty" json:"usedBy,omitempty"`
	IsActive                bool                 `bson:"isActive" json:"isActive"`
	ScopeType               string               `bson:"scopeType" json:"scopeType"`
	ApplicableCategories    []primitive.ObjectID `bson:"applicableCategories,omitempty" json:"applicableCategories,omitempty"`
	ApplicableSubcategories []primitive.ObjectID `bson:"applicableSubcategories,omitempty" json:"applicableSubcategories,omitempty"`
	CreatedAt               time.Time            `bson:"createdAt" json:"createdAt"`
}

// RedeemedBy reports whether the user already appears in the coupon's
// used-by set (per-user single-use enforcement).
func (cp *Coupon) RedeemedBy(userID primitive.ObjectID) bool {
	for _, id := range cp.UsedBy {
		if id == userID {
			return true
		}
	}
	return false
}
