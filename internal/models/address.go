package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Address doubles as the stored document and the snapshot copied onto an
// order at confirmation time.
type Address struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	User         primitive.ObjectID `bson:"user,omitempty" json:"user,omitempty"`
	Name         string             `bson:"name" json:"name"`
	Phone        string             `bson:"phone" json:"phone"`
	Email        string             `bson:"email,omitempty" json:"email,omitempty"`
	Pincode      string             `bson:"pincode" json:"pincode"`
	State        string             `bson:"state" json:"state"`
	City         string             `bson:"city" json:"city"`
	District     string             `bson:"district,omitempty" json:"district,omitempty"`
	AddressLine1 string             `bson:"addressLine1" json:"addressLine1"`
	AddressLine2 string             `bson:"addressLine2,omitempty" json:"addressLine2,omitempty"`
	Landmark     string             `bson:"landmark,omitempty" json:"landmark,omitempty"`
	AddressType  string             `bson:"addressType,omitempty" json:"addressType,omitempty"` // Home | Work | Other
	IsDefault    bool               `bson:"isDefault" json:"isDefault"`
	CreatedAt    time.Time          `bson:"createdAt,omitempty" json:"createdAt,omitempty"`
}
