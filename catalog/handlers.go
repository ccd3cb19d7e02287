package catalog

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// Handler contém os handlers HTTP do catálogo
type Handler struct {
	repository Repository
}

// NewHandler cria uma nova instância de Handler
func NewHandler(repository Repository) *Handler {
	return &Handler{repository: repository}
}

// RegisterRoutes registra as rotas do catálogo no router
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/api/products", h.ListProducts)
	r.GET("/api/products/:id", h.GetProduct)
	r.POST("/api/products", h.CreateProduct)
	r.DELETE("/api/products/:id", h.DeleteProduct)
	r.GET("/api/categories", h.ListCategories)
	r.POST("/api/categories", h.CreateCategory)
	r.DELETE("/api/categories/:id", h.DeleteCategory)
	r.GET("/api/categories/:id/products", h.ListProductsByCategory)
}

type createProductRequest struct {
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price" binding:"required"`
	Stock       int64           `json:"stock"`
	ImageURL    *string         `json:"image_url"`
	CategoryID  *int64          `json:"category_id"`
}

type createCategoryRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description"`
	ImageURL    *string `json:"image_url"`
}

func (h *Handler) ListProducts(c *gin.Context) {
	products, err := h.repository.ListProducts(c.Request.Context())
	if err != nil {
		log.Printf("❌ Failed to list products: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch products"})
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *Handler) GetProduct(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}

	product, err := h.repository.GetProduct(c.Request.Context(), id)
	if errors.Is(err, ErrProductNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}
	if err != nil {
		log.Printf("❌ Failed to fetch product %d: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch product"})
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *Handler) CreateProduct(c *gin.Context) {
	var req createProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	product := &Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		ImageURL:    req.ImageURL,
		CategoryID:  req.CategoryID,
	}
	err := h.repository.CreateProduct(c.Request.Context(), product)
	if errors.Is(err, ErrCategoryNotFound) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "category does not exist"})
		return
	}
	if err != nil {
		log.Printf("❌ Failed to create product: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create product"})
		return
	}
	c.JSON(http.StatusCreated, product)
}

func (h *Handler) DeleteProduct(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}

	if err := h.repository.DeleteProduct(c.Request.Context(), id); err != nil {
		log.Printf("❌ Failed to delete product %d: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete product"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ListCategories(c *gin.Context) {
	categories, err := h.repository.ListCategories(c.Request.Context())
	if err != nil {
		log.Printf("❌ Failed to list categories: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch categories"})
		return
	}
	c.JSON(http.StatusOK, categories)
}

func (h *Handler) CreateCategory(c *gin.Context) {
	var req createCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	category := &Category{Name: req.Name, Description: req.Description, ImageURL: req.ImageURL}
	if err := h.repository.CreateCategory(c.Request.Context(), category); err != nil {
		log.Printf("❌ Failed to create category: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create category"})
		return
	}
	c.JSON(http.StatusCreated, category)
}

func (h *Handler) DeleteCategory(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid category id"})
		return
	}

	err = h.repository.DeleteCategory(c.Request.Context(), id)
	if errors.Is(err, ErrCategoryInUse) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot delete category with products"})
		return
	}
	if err != nil {
		log.Printf("❌ Failed to delete category %d: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete category"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ListProductsByCategory(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid category id"})
		return
	}

	products, err := h.repository.ListProductsByCategory(c.Request.Context(), id)
	if err != nil {
		log.Printf("❌ Failed to list products by category %d: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch products"})
		return
	}
	c.JSON(http.StatusOK, products)
}
