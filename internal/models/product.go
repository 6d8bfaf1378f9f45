package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ColorVariant struct {
	Color string `bson:"color" json:"color"`
	Image string `bson:"image,omitempty" json:"image,omitempty"`
	Stock int    `bson:"stock" json:"stock"`
}

type SizeVariant struct {
	Size  string `bson:"size" json:"size"`
	Stock int    `bson:"stock" json:"stock"`
}

type Product struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name             string             `bson:"name" json:"name"`
	Description      string             `bson:"description,omitempty" json:"description,omitempty"`
	BasePrice        float64            `bson:"basePrice" json:"basePrice"`
	SalePrice        float64            `bson:"salePrice,omitempty" json:"salePrice,omitempty"`
	Category         primitive.ObjectID `bson:"category" json:"category"`
	Subcategory      primitive.ObjectID `bson:"subcategory,omitempty" json:"subcategory,omitempty"`
	HasColorVariants bool               `bson:"hasColorVariants" json:"hasColorVariants"`
	HasSizeVariants  bool               `bson:"hasSizeVariants" json:"hasSizeVariants"`
	Stock            int                `bson:"stock" json:"stock"`
	ColorVariants    []ColorVariant     `bson:"colorVariants,omitempty" json:"colorVariants,omitempty"`
	SizeVariants     []SizeVariant      `bson:"sizeVariants,omitempty" json:"sizeVariants,omitempty"`
	Images           []string           `bson:"images,omitempty" json:"images,omitempty"`
	Weight           float64            `bson:"weight,omitempty" json:"weight,omitempty"`
	IsActive         bool               `bson:"isActive" json:"isActive"`
	CreatedAt        time.Time          `bson:"createdAt" json:"createdAt"`
}

// EffectivePrice is the price a cart line captures: salePrice when set,
// basePrice otherwise.
func (p *Product) EffectivePrice() float64 {
	if p.SalePrice > 0 {
		return p.SalePrice
	}
	return p.BasePrice
}

// FirstImage returns the preview image for denormalized cart lines.
func (p *Product) FirstImage() string {
	if len(p.Images) > 0 {
		return p.Images[0]
	}
	return ""
}
