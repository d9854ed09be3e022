package catalog

import (
	"context"
	"errors"
	"regexp"
	"sort"
	"strings"

	"github.com/fjod/storefront/internal/domain"
	"github.com/google/uuid"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidQuantity   = errors.New("quantity must be positive")
	ErrDuplicateSlug     = errors.New("product with this slug already exists")
	ErrInvalidSlug       = errors.New("slug must contain a letter or digit")
)

const (
	DefaultPageLimit = 12
	MaxPageLimit     = 100
)

// Catalog is the authoritative source of product data and stock levels.
type Catalog interface {
	// GetProduct returns ErrProductNotFound for unknown ids
	GetProduct(ctx context.Context, id string) (*domain.Product, error)

	// DecrementInventory atomically removes quantity units, but only if the
	// product is in stock and has at least quantity units. Reaching zero marks
	// the product out of stock. Returns ErrInsufficientStock or
	// ErrProductNotFound when nothing was changed.
	DecrementInventory(ctx context.Context, id string, quantity int) error

	// RestoreInventory adds quantity units back and marks the product in stock
	RestoreInventory(ctx context.Context, id string, quantity int) error

	// ListProducts returns one page of products, newest first
	ListProducts(ctx context.Context, filter ProductFilter) (*ProductPage, error)

	// GetProductBySlug returns ErrProductNotFound when no product has slug
	GetProductBySlug(ctx context.Context, slug string) (*domain.Product, error)

	// SaveProduct inserts or replaces a product. It returns ErrDuplicateSlug
	// when a different product already holds the same non-empty slug.
	SaveProduct(ctx context.Context, p *domain.Product) error

	// DeleteProduct returns ErrProductNotFound for unknown ids
	DeleteProduct(ctx context.Context, id string) error
}

var slugSeparators = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases name and joins its runs of letters and digits with "-".
func Slugify(name string) string {
	return strings.Trim(slugSeparators.ReplaceAllString(strings.ToLower(name), "-"), "-")
}

// ProductSaver is the part of a Catalog that CreateProduct writes through.
type ProductSaver interface {
	GetProductBySlug(ctx context.Context, slug string) (*domain.Product, error)
	SaveProduct(ctx context.Context, p *domain.Product) error
}

// CreateProduct saves a new product. A missing slug is derived from the name,
// a missing id is generated, and the stock flag follows the inventory.
func CreateProduct(ctx context.Context, c ProductSaver, p *domain.Product) error {
	if p.Slug == "" {
		p.Slug = Slugify(p.Name)
	}
	if p.Slug == "" {
		return ErrInvalidSlug
	}

	_, err := c.GetProductBySlug(ctx, p.Slug)
	switch {
	case err == nil:
		return ErrDuplicateSlug
	case !errors.Is(err, ErrProductNotFound):
		return err
	}

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	p.InStock = p.Inventory > 0
	return c.SaveProduct(ctx, p)
}

type ProductFilter struct {
	Category string
	Featured *bool
	Search   string
	Page     int
	Limit    int
}

// Normalize fills defaults and clamps the paging fields.
func (f ProductFilter) Normalize() ProductFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = DefaultPageLimit
	}
	if f.Limit > MaxPageLimit {
		f.Limit = MaxPageLimit
	}
	f.Search = strings.TrimSpace(f.Search)
	return f
}

func (f ProductFilter) offset() int {
	return (f.Page - 1) * f.Limit
}

type ProductPage struct {
	Products []*domain.Product `json:"products"`
	Page     int               `json:"page"`
	Limit    int               `json:"limit"`
	Total    int               `json:"total"`
	Pages    int               `json:"pages"`
	HasNext  bool              `json:"has_next"`
	HasPrev  bool              `json:"has_prev"`
}

func newPage(products []*domain.Product, f ProductFilter, total int) *ProductPage {
	if products == nil {
		products = []*domain.Product{}
	}
	pages := (total + f.Limit - 1) / f.Limit
	return &ProductPage{
		Products: products,
		Page:     f.Page,
		Limit:    f.Limit,
		Total:    total,
		Pages:    pages,
		HasNext:  f.Page < pages,
		HasPrev:  f.Page > 1,
	}
}

func (f ProductFilter) matches(p *domain.Product) bool {
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	if f.Featured != nil && p.Featured != *f.Featured {
		return false
	}
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(p.Name), q) && !strings.Contains(strings.ToLower(p.Description), q) {
			return false
		}
	}
	return true
}

func sortNewestFirst(products []*domain.Product) {
	sort.SliceStable(products, func(i, j int) bool {
		if !products[i].CreatedAt.Equal(products[j].CreatedAt) {
			return products[i].CreatedAt.After(products[j].CreatedAt)
		}
		return products[i].ID < products[j].ID
	})
}
