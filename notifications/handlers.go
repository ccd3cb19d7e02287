package notifications

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gitub.com/matheusmosca/ton-shop/telegram"
)

// Handler expõe o webhook de updates do Telegram
type Handler struct {
	dispatcher *Dispatcher
}

// NewHandler cria uma nova instância de Handler
func NewHandler(dispatcher *Dispatcher) *Handler {
	return &Handler{dispatcher: dispatcher}
}

// RegisterRoutes registra as rotas do webhook no router
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.POST("/api/telegram-webhook", h.Webhook)
}

// Webhook recebe um update da Bot API e o roteia pelo mesmo caminho do long-poll
func (h *Handler) Webhook(c *gin.Context) {
	var update telegram.Update
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.dispatcher.Dispatch(c.Request.Context(), update)
	c.Status(http.StatusOK)
}
