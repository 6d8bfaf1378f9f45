package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/MikyMack/stayRare-full/internal/models"
)

func TestApplyCategoryWideDecrement(t *testing.T) {
	category := primitive.NewObjectID()
	kurta := models.Product{ID: primitive.NewObjectID(), Category: category, Stock: 10}
	saree := models.Product{ID: primitive.NewObjectID(), Category: category, Stock: 5}
	otherCategory := models.Product{ID: primitive.NewObjectID(), Category: primitive.NewObjectID(), Stock: 7}

	catalog := []models.Product{kurta, saree, otherCategory}
	updated, err := Apply(catalog, []models.OrderItem{
		{Product: kurta.ID, Quantity: 3},
	})
	require.NoError(t, err)

	// every product in the ordered item's category loses the quantity
	assert.Equal(t, 7, updated[0].Stock)
	assert.Equal(t, 2, updated[1].Stock)
	// other categories untouched
	assert.Equal(t, 7, updated[2].Stock)
}

func TestApplyVariantDecrement(t *testing.T) {
	category := primitive.NewObjectID()
	shirt := models.Product{
		ID:               primitive.NewObjectID(),
		Category:         category,
		Stock:            20,
		HasColorVariants: true,
		HasSizeVariants:  true,
		ColorVariants: []models.ColorVariant{
			{Color: "Red", Stock: 4},
			{Color: "Blue", Stock: 6},
		},
		SizeVariants: []models.SizeVariant{
			{Size: "M", Stock: 8},
			{Size: "L", Stock: 2},
		},
	}

	updated, err := Apply([]models.Product{shirt}, []models.OrderItem{
		{Product: shirt.ID, Quantity: 2, SelectedColor: "Blue", SelectedSize: "L"},
	})
	require.NoError(t, err)

	assert.Equal(t, 18, updated[0].Stock)
	assert.Equal(t, 4, updated[0].ColorVariants[0].Stock) // Red untouched
	assert.Equal(t, 4, updated[0].ColorVariants[1].Stock)
	assert.Equal(t, 8, updated[0].SizeVariants[0].Stock)
	assert.Equal(t, 0, updated[0].SizeVariants[1].Stock)
}

func TestApplyVariantDecrementAppliesAcrossCategory(t *testing.T) {
	category := primitive.NewObjectID()
	shirtA := models.Product{
		ID:               primitive.NewObjectID(),
		Category:         category,
		Stock:            10,
		HasColorVariants: true,
		ColorVariants:    []models.ColorVariant{{Color: "Red", Stock: 5}},
	}
	shirtB := models.Product{
		ID:               primitive.NewObjectID(),
		Category:         category,
		Stock:            10,
		HasColorVariants: true,
		ColorVariants:    []models.ColorVariant{{Color: "Red", Stock: 5}},
	}

	updated, err := Apply([]models.Product{shirtA, shirtB}, []models.OrderItem{
		{Product: shirtA.ID, Quantity: 2, SelectedColor: "Red"},
	})
	require.NoError(t, err)

	// the selected variant drops on every product in the category
	assert.Equal(t, 8, updated[0].Stock)
	assert.Equal(t, 3, updated[0].ColorVariants[0].Stock)
	assert.Equal(t, 8, updated[1].Stock)
	assert.Equal(t, 3, updated[1].ColorVariants[0].Stock)
}

func TestApplyInsufficientFlatStock(t *testing.T) {
	category := primitive.NewObjectID()
	low := models.Product{ID: primitive.NewObjectID(), Category: category, Stock: 1}
	ordered := models.Product{ID: primitive.NewObjectID(), Category: category, Stock: 10}

	catalog := []models.Product{low, ordered}
	_, err := Apply(catalog, []models.OrderItem{
		{Product: ordered.ID, Quantity: 2},
	})
	assert.ErrorIs(t, err, ErrInsufficientStock)

	// input catalog stays untouched on failure
	assert.Equal(t, 1, catalog[0].Stock)
	assert.Equal(t, 10, catalog[1].Stock)
}

func TestApplyInsufficientVariantStock(t *testing.T) {
	shirt := models.Product{
		ID:               primitive.NewObjectID(),
		Category:         primitive.NewObjectID(),
		Stock:            10,
		HasColorVariants: true,
		ColorVariants:    []models.ColorVariant{{Color: "Red", Stock: 1}},
	}

	catalog := []models.Product{shirt}
	_, err := Apply(catalog, []models.OrderItem{
		{Product: shirt.ID, Quantity: 2, SelectedColor: "Red"},
	})
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, 1, catalog[0].ColorVariants[0].Stock)
}

func TestApplyInsufficientMateVariantStock(t *testing.T) {
	category := primitive.NewObjectID()
	ordered := models.Product{
		ID:               primitive.NewObjectID(),
		Category:         category,
		Stock:            10,
		HasColorVariants: true,
		ColorVariants:    []models.ColorVariant{{Color: "Red", Stock: 5}},
	}
	mate := models.Product{
		ID:               primitive.NewObjectID(),
		Category:         category,
		Stock:            10,
		HasColorVariants: true,
		ColorVariants:    []models.ColorVariant{{Color: "Red", Stock: 1}},
	}

	catalog := []models.Product{ordered, mate}
	_, err := Apply(catalog, []models.OrderItem{
		{Product: ordered.ID, Quantity: 2, SelectedColor: "Red"},
	})
	assert.ErrorIs(t, err, ErrInsufficientStock)

	// all or nothing, the ordered product's variant stays untouched too
	assert.Equal(t, 5, catalog[0].ColorVariants[0].Stock)
	assert.Equal(t, 1, catalog[1].ColorVariants[0].Stock)
}

func TestApplyUnknownVariantIsIgnored(t *testing.T) {
	shirt := models.Product{
		ID:               primitive.NewObjectID(),
		Category:         primitive.NewObjectID(),
		Stock:            10,
		HasColorVariants: true,
		ColorVariants:    []models.ColorVariant{{Color: "Red", Stock: 5}},
	}

	updated, err := Apply([]models.Product{shirt}, []models.OrderItem{
		{Product: shirt.ID, Quantity: 1, SelectedColor: "Green"},
	})
	require.NoError(t, err)
	assert.Equal(t, 9, updated[0].Stock)
	assert.Equal(t, 5, updated[0].ColorVariants[0].Stock)
}

func TestApplyMissingProduct(t *testing.T) {
	_, err := Apply(nil, []models.OrderItem{
		{Product: primitive.NewObjectID(), Quantity: 1},
	})
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestApplyMultipleItemsAccumulate(t *testing.T) {
	category := primitive.NewObjectID()
	a := models.Product{ID: primitive.NewObjectID(), Category: category, Stock: 10}
	b := models.Product{ID: primitive.NewObjectID(), Category: category, Stock: 10}

	updated, err := Apply([]models.Product{a, b}, []models.OrderItem{
		{Product: a.ID, Quantity: 2},
		{Product: b.ID, Quantity: 3},
	})
	require.NoError(t, err)

	// both items touch the same category, so both decrements stack
	assert.Equal(t, 5, updated[0].Stock)
	assert.Equal(t, 5, updated[1].Stock)
}
