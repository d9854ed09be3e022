package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/fjod/storefront/internal/catalog"
	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/logging"
	"github.com/fjod/storefront/internal/validation"
	"github.com/go-chi/chi/v5"
)

type ProductWriter interface {
	catalog.ProductSaver
	DeleteProduct(ctx context.Context, id string) error
}

type AdminProductHandler struct {
	products ProductWriter
	timeout  time.Duration
}

func NewAdminProductHandler(products ProductWriter, timeout time.Duration) *AdminProductHandler {
	return &AdminProductHandler{products: products, timeout: timeout}
}

type CreateProductRequestDTO struct {
	Name        string   `json:"name" validate:"required"`
	Slug        string   `json:"slug"`
	Description string   `json:"description" validate:"required"`
	Price       float64  `json:"price" validate:"gt=0"`
	Category    string   `json:"category" validate:"required"`
	Image       string   `json:"image" validate:"required"`
	Images      []string `json:"images"`
	Inventory   int      `json:"inventory" validate:"gte=0"`
	Featured    bool     `json:"featured"`
}

func (d *CreateProductRequestDTO) trim() {
	d.Name = strings.TrimSpace(d.Name)
	d.Slug = strings.TrimSpace(d.Slug)
	d.Description = strings.TrimSpace(d.Description)
	d.Category = strings.TrimSpace(d.Category)
	d.Image = strings.TrimSpace(d.Image)
}

// POST /api/v1/admin/products
func (h *AdminProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req CreateProductRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	req.trim()
	if err := validation.Struct(req); err != nil {
		var vErrs validation.Errors
		if !errors.As(err, &vErrs) {
			handleServiceError(w, r, err)
			return
		}
		respondJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   vErrs.Error(),
			Code:    "invalid_product",
			Details: map[string][]string{"fields": vErrs.Fields()},
		})
		return
	}

	p := &domain.Product{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		Image:       req.Image,
		Images:      req.Images,
		Inventory:   req.Inventory,
		Featured:    req.Featured,
	}
	err := catalog.CreateProduct(ctx, h.products, p)
	switch {
	case errors.Is(err, catalog.ErrDuplicateSlug):
		respondError(w, http.StatusConflict, "duplicate_slug", err.Error())
		return
	case errors.Is(err, catalog.ErrInvalidSlug):
		respondError(w, http.StatusBadRequest, "invalid_slug", err.Error())
		return
	case err != nil:
		handleServiceError(w, r, err)
		return
	}

	logging.Ctx(r.Context()).Info().Str("product_id", p.ID).Str("slug", p.Slug).Msg("product created")
	respondJSON(w, http.StatusCreated, p)
}

// DELETE /api/v1/admin/products/{product_id}
func (h *AdminProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id := chi.URLParam(r, "product_id")
	err := h.products.DeleteProduct(ctx, id)
	if errors.Is(err, catalog.ErrProductNotFound) {
		respondError(w, http.StatusNotFound, "product_not_found", "product not found")
		return
	}
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	logging.Ctx(r.Context()).Info().Str("product_id", id).Msg("product deleted")
	w.WriteHeader(http.StatusNoContent)
}
