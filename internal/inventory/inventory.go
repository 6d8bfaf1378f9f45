// Package inventory applies the stock decrement for a confirmed order as a
// single all-or-nothing MongoDB transaction.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/MikyMack/stayRare-full/internal/database"
	"github.com/MikyMack/stayRare-full/internal/models"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrProductNotFound   = errors.New("ordered product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// Apply computes the post-order stock levels over a catalog snapshot without
// touching the input. Stock is decremented category-wide: every product
// sharing a category with an ordered item loses that item's quantity, and any
// category-mate carrying the selected color/size variant loses that variant
// stock too. Returns the updated products, or an error leaving the input
// untouched.
func Apply(catalog []models.Product, items []models.OrderItem) ([]models.Product, error) {
	updated := make([]models.Product, len(catalog))
	for i, p := range catalog {
		updated[i] = p
		updated[i].ColorVariants = append([]models.ColorVariant(nil), p.ColorVariants...)
		updated[i].SizeVariants = append([]models.SizeVariant(nil), p.SizeVariants...)
	}

	byID := make(map[primitive.ObjectID]*models.Product, len(updated))
	for i := range updated {
		byID[updated[i].ID] = &updated[i]
	}

	for _, item := range items {
		ordered, ok := byID[item.Product]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrProductNotFound, item.Product.Hex())
		}

		// category-wide decrement, variants included
		for i := range updated {
			prod := &updated[i]
			if prod.Category != ordered.Category {
				continue
			}
			prod.Stock -= item.Quantity
			if prod.Stock < 0 {
				return nil, fmt.Errorf("%w: product %s", ErrInsufficientStock, prod.ID.Hex())
			}
			if prod.HasColorVariants && item.SelectedColor != "" {
				if err := decrementColor(prod, item.SelectedColor, item.Quantity); err != nil {
					return nil, err
				}
			}
			if prod.HasSizeVariants && item.SelectedSize != "" {
				if err := decrementSize(prod, item.SelectedSize, item.Quantity); err != nil {
					return nil, err
				}
			}
		}
	}

	return updated, nil
}

func decrementColor(p *models.Product, color string, qty int) error {
	for i := range p.ColorVariants {
		if p.ColorVariants[i].Color != color {
			continue
		}
		p.ColorVariants[i].Stock -= qty
		if p.ColorVariants[i].Stock < 0 {
			return fmt.Errorf("%w: product %s color %s", ErrInsufficientStock, p.ID.Hex(), color)
		}
		return nil
	}
	return nil
}

func decrementSize(p *models.Product, size string, qty int) error {
	for i := range p.SizeVariants {
		if p.SizeVariants[i].Size != size {
			continue
		}
		p.SizeVariants[i].Stock -= qty
		if p.SizeVariants[i].Stock < 0 {
			return fmt.Errorf("%w: product %s size %s", ErrInsufficientStock, p.ID.Hex(), size)
		}
		return nil
	}
	return nil
}

// DecrementForOrder applies the order's stock decrement exactly once. It is
// idempotent: an order whose stockApplied marker is already set is a no-op.
// All reads and writes happen inside one transaction, so either every product
// update and the marker land together or nothing does.
func DecrementForOrder(ctx context.Context, orderID primitive.ObjectID) error {
	session, err := database.TransactionSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		var order models.Order
		if err := database.Orders().FindOne(sc, bson.M{"_id": orderID}).Decode(&order); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return nil, ErrOrderNotFound
			}
			return nil, err
		}
		if order.StockApplied {
			log.Printf("ℹ️ Stock already applied for order %s, skipping", orderID.Hex())
			return nil, nil
		}

		// collect the categories the order touches
		productIDs := make([]primitive.ObjectID, 0, len(order.Items))
		for _, item := range order.Items {
			productIDs = append(productIDs, item.Product)
		}
		categories, err := database.Products().Distinct(sc, "category", bson.M{"_id": bson.M{"$in": productIDs}})
		if err != nil {
			return nil, err
		}
		if len(categories) == 0 {
			return nil, ErrProductNotFound
		}

		cursor, err := database.Products().Find(sc, bson.M{"category": bson.M{"$in": categories}})
		if err != nil {
			return nil, err
		}
		var catalog []models.Product
		if err := cursor.All(sc, &catalog); err != nil {
			return nil, err
		}

		updated, err := Apply(catalog, order.Items)
		if err != nil {
			return nil, err
		}

		for _, p := range updated {
			update := bson.M{"$set": bson.M{
				"stock":         p.Stock,
				"colorVariants": p.ColorVariants,
				"sizeVariants":  p.SizeVariants,
			}}
			if _, err := database.Products().UpdateByID(sc, p.ID, update); err != nil {
				return nil, err
			}
		}

		_, err = database.Orders().UpdateByID(sc, orderID, bson.M{"$set": bson.M{
			"stockApplied": true,
			"updatedAt":    time.Now(),
		}})
		return nil, err
	})
	if err != nil {
		return err
	}

	log.Printf("✅ Stock decremented for order %s", orderID.Hex())
	return nil
}
