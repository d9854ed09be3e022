package catalog

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixtures() []*domain.Product {
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	return []*domain.Product{
		{ID: "p1", Name: "Lawn Suit", Description: "three piece", Price: 4500, Category: "lawn", InStock: true, Inventory: 5, Featured: true, CreatedAt: base},
		{ID: "p2", Name: "Chiffon Dupatta", Description: "embroidered", Price: 1800, Category: "accessories", InStock: true, Inventory: 1, CreatedAt: base.Add(time.Hour)},
		{ID: "p3", Name: "Velvet Shawl", Description: "winter LAWN alternative", Price: 3200, Category: "accessories", InStock: false, Inventory: 0, CreatedAt: base.Add(2 * time.Hour)},
		{ID: "p4", Name: "Cotton Kurta", Description: "daily wear", Price: 2100, Category: "lawn", InStock: true, Inventory: 10, Featured: true, CreatedAt: base.Add(3 * time.Hour)},
	}
}

func seed(t *testing.T, c Catalog) {
	t.Helper()
	for _, p := range fixtures() {
		require.NoError(t, c.SaveProduct(context.Background(), p))
	}
}

// runCatalogContract exercises the behaviour every Catalog backend must share.
func runCatalogContract(t *testing.T, newCatalog func(t *testing.T) Catalog) {
	ctx := context.Background()

	t.Run("GetProduct", func(t *testing.T) {
		c := newCatalog(t)
		seed(t, c)

		p, err := c.GetProduct(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, "Lawn Suit", p.Name)
		assert.InDelta(t, 4500.0, p.Price, 1e-9)
		assert.True(t, p.InStock)
		assert.Equal(t, 5, p.Inventory)

		_, err = c.GetProduct(ctx, "nope")
		assert.ErrorIs(t, err, ErrProductNotFound)
	})

	t.Run("DecrementInventory", func(t *testing.T) {
		c := newCatalog(t)
		seed(t, c)

		require.NoError(t, c.DecrementInventory(ctx, "p1", 2))
		p, err := c.GetProduct(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, 3, p.Inventory)
		assert.True(t, p.InStock)
	})

	t.Run("DecrementToZeroMarksOutOfStock", func(t *testing.T) {
		c := newCatalog(t)
		seed(t, c)

		require.NoError(t, c.DecrementInventory(ctx, "p2", 1))
		p, err := c.GetProduct(ctx, "p2")
		require.NoError(t, err)
		assert.Equal(t, 0, p.Inventory)
		assert.False(t, p.InStock)

		assert.ErrorIs(t, c.DecrementInventory(ctx, "p2", 1), ErrInsufficientStock)
	})

	t.Run("DecrementRejectsShortage", func(t *testing.T) {
		c := newCatalog(t)
		seed(t, c)

		assert.ErrorIs(t, c.DecrementInventory(ctx, "p2", 2), ErrInsufficientStock)
		p, err := c.GetProduct(ctx, "p2")
		require.NoError(t, err)
		assert.Equal(t, 1, p.Inventory)
		assert.True(t, p.InStock)
	})

	t.Run("DecrementRejectsOutOfStockFlag", func(t *testing.T) {
		c := newCatalog(t)
		seed(t, c)
		p := fixtures()[0]
		p.ID = "flagged"
		p.InStock = false
		p.Inventory = 3
		require.NoError(t, c.SaveProduct(ctx, p))

		assert.ErrorIs(t, c.DecrementInventory(ctx, "flagged", 1), ErrInsufficientStock)
	})

	t.Run("DecrementUnknownAndInvalid", func(t *testing.T) {
		c := newCatalog(t)
		seed(t, c)

		assert.ErrorIs(t, c.DecrementInventory(ctx, "nope", 1), ErrProductNotFound)
		assert.ErrorIs(t, c.DecrementInventory(ctx, "p1", 0), ErrInvalidQuantity)
	})

	t.Run("RestoreInventory", func(t *testing.T) {
		c := newCatalog(t)
		seed(t, c)

		require.NoError(t, c.DecrementInventory(ctx, "p2", 1))
		require.NoError(t, c.RestoreInventory(ctx, "p2", 1))

		p, err := c.GetProduct(ctx, "p2")
		require.NoError(t, err)
		assert.Equal(t, 1, p.Inventory)
		assert.True(t, p.InStock)

		assert.ErrorIs(t, c.RestoreInventory(ctx, "nope", 1), ErrProductNotFound)
	})

	t.Run("ConcurrentLastUnit", func(t *testing.T) {
		c := newCatalog(t)
		seed(t, c)

		var (
			wg        sync.WaitGroup
			succeeded atomic.Int32
			shortages atomic.Int32
		)
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := c.DecrementInventory(ctx, "p2", 1)
				switch {
				case err == nil:
					succeeded.Add(1)
				case assert.ErrorIs(t, err, ErrInsufficientStock):
					shortages.Add(1)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), succeeded.Load())
		assert.Equal(t, int32(9), shortages.Load())
		p, err := c.GetProduct(ctx, "p2")
		require.NoError(t, err)
		assert.Equal(t, 0, p.Inventory)
	})

	t.Run("ListProducts", func(t *testing.T) {
		c := newCatalog(t)
		seed(t, c)

		page, err := c.ListProducts(ctx, ProductFilter{})
		require.NoError(t, err)
		assert.Equal(t, 4, page.Total)
		assert.Equal(t, 1, page.Pages)
		assert.Equal(t, DefaultPageLimit, page.Limit)
		require.Len(t, page.Products, 4)
		assert.Equal(t, "p4", page.Products[0].ID, "newest first")
		assert.Equal(t, "p1", page.Products[3].ID)
	})

	t.Run("ListProductsFilters", func(t *testing.T) {
		c := newCatalog(t)
		seed(t, c)
		featured := true

		page, err := c.ListProducts(ctx, ProductFilter{Category: "accessories"})
		require.NoError(t, err)
		assert.Equal(t, 2, page.Total)

		page, err = c.ListProducts(ctx, ProductFilter{Featured: &featured})
		require.NoError(t, err)
		assert.Equal(t, 2, page.Total)

		page, err = c.ListProducts(ctx, ProductFilter{Search: "lawn"})
		require.NoError(t, err)
		require.Equal(t, 2, page.Total)
		assert.Equal(t, "p3", page.Products[0].ID)
		assert.Equal(t, "p1", page.Products[1].ID)

		page, err = c.ListProducts(ctx, ProductFilter{Search: "100%"})
		require.NoError(t, err)
		assert.Equal(t, 0, page.Total)
		assert.NotNil(t, page.Products)
	})

	t.Run("ListProductsPaging", func(t *testing.T) {
		c := newCatalog(t)
		seed(t, c)

		page, err := c.ListProducts(ctx, ProductFilter{Page: 2, Limit: 3})
		require.NoError(t, err)
		assert.Equal(t, 4, page.Total)
		assert.Equal(t, 2, page.Pages)
		assert.False(t, page.HasNext)
		assert.True(t, page.HasPrev)
		require.Len(t, page.Products, 1)
		assert.Equal(t, "p1", page.Products[0].ID)

		page, err = c.ListProducts(ctx, ProductFilter{Page: 9, Limit: 3})
		require.NoError(t, err)
		assert.Empty(t, page.Products)
	})

	t.Run("SaveProductReplaces", func(t *testing.T) {
		c := newCatalog(t)
		seed(t, c)

		p, err := c.GetProduct(ctx, "p1")
		require.NoError(t, err)
		p.Price = 5000
		require.NoError(t, c.SaveProduct(ctx, p))

		got, err := c.GetProduct(ctx, "p1")
		require.NoError(t, err)
		assert.InDelta(t, 5000.0, got.Price, 1e-9)
	})

	t.Run("GetProductBySlug", func(t *testing.T) {
		c := newCatalog(t)
		seed(t, c)
		p := fixtures()[0]
		p.ID = "slugged"
		p.Slug = "lawn-suit"
		require.NoError(t, c.SaveProduct(ctx, p))

		got, err := c.GetProductBySlug(ctx, "lawn-suit")
		require.NoError(t, err)
		assert.Equal(t, "slugged", got.ID)

		_, err = c.GetProductBySlug(ctx, "missing")
		assert.ErrorIs(t, err, ErrProductNotFound)
		_, err = c.GetProductBySlug(ctx, "")
		assert.ErrorIs(t, err, ErrProductNotFound)
	})

	t.Run("SaveProductRejectsTakenSlug", func(t *testing.T) {
		c := newCatalog(t)
		first := fixtures()[0]
		first.Slug = "lawn-suit"
		require.NoError(t, c.SaveProduct(ctx, first))

		// resaving the holder keeps its slug
		require.NoError(t, c.SaveProduct(ctx, first))

		other := fixtures()[1]
		other.Slug = "lawn-suit"
		assert.ErrorIs(t, c.SaveProduct(ctx, other), ErrDuplicateSlug)
		_, err := c.GetProduct(ctx, other.ID)
		assert.ErrorIs(t, err, ErrProductNotFound)
	})

	t.Run("DeleteProduct", func(t *testing.T) {
		c := newCatalog(t)
		seed(t, c)

		require.NoError(t, c.DeleteProduct(ctx, "p2"))
		_, err := c.GetProduct(ctx, "p2")
		assert.ErrorIs(t, err, ErrProductNotFound)

		page, err := c.ListProducts(ctx, ProductFilter{})
		require.NoError(t, err)
		assert.Equal(t, 3, page.Total)

		assert.ErrorIs(t, c.DeleteProduct(ctx, "p2"), ErrProductNotFound)
	})

	t.Run("CreateProduct", func(t *testing.T) {
		c := newCatalog(t)

		p := &domain.Product{Name: "Silk Saree (Red)", Description: "hand woven", Price: 9000, Category: "formal", Image: "saree.jpg", Inventory: 2}
		require.NoError(t, CreateProduct(ctx, c, p))
		assert.NotEmpty(t, p.ID)
		assert.Equal(t, "silk-saree-red", p.Slug)

		got, err := c.GetProductBySlug(ctx, "silk-saree-red")
		require.NoError(t, err)
		assert.Equal(t, p.ID, got.ID)
		assert.True(t, got.InStock)
		assert.Equal(t, 2, got.Inventory)

		dup := &domain.Product{Name: "Silk saree red", Price: 1, Image: "x.jpg"}
		assert.ErrorIs(t, CreateProduct(ctx, c, dup), ErrDuplicateSlug)

		none := &domain.Product{Name: "Empty Rack", Price: 1, Slug: "empty-rack"}
		require.NoError(t, CreateProduct(ctx, c, none))
		got, err = c.GetProduct(ctx, none.ID)
		require.NoError(t, err)
		assert.False(t, got.InStock)
	})
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Lawn Suit":             "lawn-suit",
		"  Chiffon -- Dupatta!": "chiffon-dupatta",
		"3-Piece Set (2026)":    "3-piece-set-2026",
		"!!!":                   "",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slugify(in), in)
	}
}

func TestCreateProduct_RejectsEmptySlug(t *testing.T) {
	c := NewMemoryStore()
	err := CreateProduct(context.Background(), c, &domain.Product{Name: "***", Price: 1})
	assert.ErrorIs(t, err, ErrInvalidSlug)
}

func TestProductFilter_Normalize(t *testing.T) {
	f := ProductFilter{Page: -1, Limit: 1000, Search: "  silk "}.Normalize()
	assert.Equal(t, 1, f.Page)
	assert.Equal(t, MaxPageLimit, f.Limit)
	assert.Equal(t, "silk", f.Search)

	f = ProductFilter{}.Normalize()
	assert.Equal(t, DefaultPageLimit, f.Limit)
}
