package cart

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"gitub.com/matheusmosca/ton-shop/catalog"
)

// Handler contém os handlers HTTP do carrinho
type Handler struct {
	repository Repository
	products   catalog.Repository
}

// NewHandler cria uma nova instância de Handler
func NewHandler(repository Repository, products catalog.Repository) *Handler {
	return &Handler{repository: repository, products: products}
}

// RegisterRoutes registra as rotas do carrinho no router
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.POST("/api/cart/add", h.AddToCart)
	r.GET("/api/cart/items", h.GetItems)
	r.DELETE("/api/cart/items/:product_id", h.RemoveItem)
}

type addToCartRequest struct {
	SessionID string `json:"session_id"`
	ProductID int64  `json:"product_id" binding:"required"`
	Quantity  int32  `json:"quantity" binding:"required,gt=0"`
}

func (h *Handler) AddToCart(c *gin.Context) {
	var req addToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Primeira adição sem sessão: o servidor cunha o identificador e o
	// cliente o reaproveita nas chamadas seguintes
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	// O produto precisa existir antes de entrar no carrinho
	if _, err := h.products.GetProduct(c.Request.Context(), req.ProductID); err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "product does not exist"})
			return
		}
		log.Printf("❌ AddToCart product lookup failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to add to cart"})
		return
	}

	line := &CartLine{SessionID: req.SessionID, ProductID: req.ProductID, Quantity: req.Quantity}
	if err := h.repository.Add(c.Request.Context(), line); err != nil {
		log.Printf("❌ AddToCart failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to add to cart"})
		return
	}
	c.JSON(http.StatusCreated, line)
}

func (h *Handler) GetItems(c *gin.Context) {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_id is required"})
		return
	}

	lines, err := h.repository.GetLines(c.Request.Context(), sessionID)
	if err != nil {
		log.Printf("❌ GetItems failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch cart items"})
		return
	}
	c.JSON(http.StatusOK, lines)
}

func (h *Handler) RemoveItem(c *gin.Context) {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_id is required"})
		return
	}
	productID, err := strconv.ParseInt(c.Param("product_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}

	if err := h.repository.Remove(c.Request.Context(), sessionID, productID); err != nil {
		log.Printf("❌ RemoveItem failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to remove cart item"})
		return
	}
	c.Status(http.StatusNoContent)
}
