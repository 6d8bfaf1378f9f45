package models

import "go.mongodb.org/mongo-driver/bson/primitive"

type SubCategory struct {
	ID   primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name string             `bson:"name" json:"name"`
}

// Category with embedded subcategories, mirroring the catalog taxonomy.
type Category struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name          string             `bson:"name" json:"name"`
	SubCategories []SubCategory      `bson:"subCategories,omitempty" json:"subCategories,omitempty"`
	IsActive      bool               `bson:"isActive" json:"isActive"`
}
