package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/example/vurel/internal/services"
	"github.com/example/vurel/internal/store"
	"github.com/example/vurel/internal/utils"
)

// ProductHandler serves the catalog.
type ProductHandler struct {
	catalog *services.CatalogService
}

// NewProductHandler constructs ProductHandler.
func NewProductHandler(catalog *services.CatalogService) *ProductHandler {
	return &ProductHandler{catalog: catalog}
}

// ListProducts returns products, optionally filtered by category or the
// featured flag. Results are paged only when limit is given.
func (h *ProductHandler) ListProducts(c *fiber.Ctx) error {
	f := store.ProductFilter{
		Category:     strings.TrimSpace(c.Query("category")),
		FeaturedOnly: c.QueryBool("featured"),
	}
	if c.Query("limit") != "" {
		pg := utils.ParsePagination(c)
		f.Limit, f.Offset = pg.Limit, pg.Offset
	}

	products, total, err := h.catalog.List(c.UserContext(), f)
	if err != nil {
		return err
	}
	c.Set("X-Total-Count", fmtInt(total))
	return c.JSON(newProductList(products))
}

// GetProduct returns one product.
func (h *ProductHandler) GetProduct(c *fiber.Ctx) error {
	id, err := parseID(c, "Product")
	if err != nil {
		return err
	}

	product, err := h.catalog.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(newProductResponse(product))
}

type productRequest struct {
	Name          string              `json:"name" validate:"required"`
	Description   string              `json:"description"`
	Category      string              `json:"category" validate:"required"`
	Price         *decimal.Decimal    `json:"price" validate:"required"`
	OriginalPrice decimal.NullDecimal `json:"original_price"`
	Stock         int                 `json:"stock"`
	ImageURL      string              `json:"image_url"`
	Colors        []string            `json:"colors"`
	Sizes         []string            `json:"sizes"`
	IsFeatured    bool                `json:"is_featured"`
}

// CreateProduct handles product creation.
func (h *ProductHandler) CreateProduct(c *fiber.Ctx) error {
	var req productRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	product, err := h.catalog.Create(c.UserContext(), services.ProductInput{
		Name:          req.Name,
		Description:   req.Description,
		Category:      req.Category,
		Price:         *req.Price,
		OriginalPrice: req.OriginalPrice,
		Stock:         req.Stock,
		ImageURL:      req.ImageURL,
		Colors:        req.Colors,
		Sizes:         req.Sizes,
		IsFeatured:    req.IsFeatured,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(newProductResponse(product))
}

// productPatch carries the fields of a partial product update.
type productPatch struct {
	Name          *string              `json:"name"`
	Description   *string              `json:"description"`
	Category      *string              `json:"category"`
	Price         *decimal.Decimal     `json:"price"`
	OriginalPrice *decimal.NullDecimal `json:"original_price"`
	Stock         *int                 `json:"stock"`
	ImageURL      *string              `json:"image_url"`
	Colors        []string             `json:"colors"`
	Sizes         []string             `json:"sizes"`
	IsFeatured    *bool                `json:"is_featured"`
}

// UpdateProduct applies the fields present in the body and recomputes the
// stock status.
func (h *ProductHandler) UpdateProduct(c *fiber.Ctx) error {
	id, err := parseID(c, "Product")
	if err != nil {
		return err
	}

	var req productPatch
	if err := parseBody(c, &req); err != nil {
		return err
	}

	current, err := h.catalog.Get(c.UserContext(), id)
	if err != nil {
		return err
	}

	in := services.ProductInput{
		Name:          current.Name,
		Description:   current.Description,
		Category:      current.Category,
		Price:         current.Price,
		OriginalPrice: current.OriginalPrice,
		Stock:         current.Stock,
		ImageURL:      current.ImageURL,
		Colors:        current.Colors,
		Sizes:         current.Sizes,
		IsFeatured:    current.IsFeatured,
	}
	if req.Name != nil {
		in.Name = *req.Name
	}
	if req.Description != nil {
		in.Description = *req.Description
	}
	if req.Category != nil {
		in.Category = *req.Category
	}
	if req.Price != nil {
		in.Price = *req.Price
	}
	if req.OriginalPrice != nil {
		in.OriginalPrice = *req.OriginalPrice
	}
	if req.Stock != nil {
		in.Stock = *req.Stock
	}
	if req.ImageURL != nil {
		in.ImageURL = *req.ImageURL
	}
	if req.Colors != nil {
		in.Colors = req.Colors
	}
	if req.Sizes != nil {
		in.Sizes = req.Sizes
	}
	if req.IsFeatured != nil {
		in.IsFeatured = *req.IsFeatured
	}

	product, err := h.catalog.Update(c.UserContext(), id, in)
	if err != nil {
		return err
	}
	return c.JSON(newProductResponse(product))
}

// DeleteProduct removes a product.
func (h *ProductHandler) DeleteProduct(c *fiber.Ctx) error {
	id, err := parseID(c, "Product")
	if err != nil {
		return err
	}

	if err := h.catalog.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Product deleted successfully"})
}

// RegisterPublicRoutes attaches the read-only catalog routes.
func (h *ProductHandler) RegisterPublicRoutes(router fiber.Router) {
	router.Get("/", h.ListProducts)
	router.Get("/:id", h.GetProduct)
}

// RegisterAdminRoutes attaches the catalog management routes.
func (h *ProductHandler) RegisterAdminRoutes(router fiber.Router) {
	router.Get("/", h.ListProducts)
	router.Post("/", h.CreateProduct)
	router.Put("/:id", h.UpdateProduct)
	router.Delete("/:id", h.DeleteProduct)
}
