package orders

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"gitub.com/matheusmosca/ton-shop/payments"
)

// Handler contém os handlers HTTP de pedidos
type Handler struct {
	useCase  *UseCase
	payments *payments.UseCase
	tracer   trace.Tracer
}

// NewHandler cria uma nova instância de Handler
func NewHandler(useCase *UseCase, paymentsUC *payments.UseCase, tracer trace.Tracer) *Handler {
	return &Handler{
		useCase:  useCase,
		payments: paymentsUC,
		tracer:   tracer,
	}
}

// RegisterRoutes registra as rotas de pedidos no router
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.POST("/api/orders", h.CreateOrder)
	r.GET("/api/orders/:id", h.GetOrder)
	r.POST("/api/orders/:id/cancel", h.CancelOrder)
	r.POST("/api/payment-confirmation", h.PaymentConfirmation)
	r.GET("/health", h.HealthCheck)
}

// CreateOrderRequest representa a requisição para criar um pedido
type CreateOrderRequest struct {
	SessionID       string `json:"session_id" binding:"required"`
	UserID          int64  `json:"user_id" binding:"required"`
	DeliveryAddress string `json:"delivery_address" binding:"required"`
}

// PaymentConfirmationRequest é a confirmação vinda do provedor ou do callback
type PaymentConfirmationRequest struct {
	OrderID         int64           `json:"order_id" binding:"required"`
	TransactionHash string          `json:"transaction_hash"`
	Amount          decimal.Decimal `json:"amount" binding:"required"`
	WalletAddress   string          `json:"wallet_address"`
}

// CreateOrder converte o carrinho da sessão em um pedido
func (h *Handler) CreateOrder(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "create_order")
	defer span.End()

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	span.SetAttributes(
		attribute.String("session_id", req.SessionID),
		attribute.Int64("user_id", req.UserID),
	)

	order, err := h.useCase.CreateOrder(ctx, req.SessionID, req.UserID, req.DeliveryAddress)
	switch {
	case errors.Is(err, ErrEmptyCart):
		c.JSON(http.StatusBadRequest, gin.H{"error": "cart is empty"})
		return
	case errors.Is(err, ErrProductNotFound):
		c.JSON(http.StatusConflict, gin.H{"error": "cart references a product that no longer exists"})
		return
	case err != nil:
		span.RecordError(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	span.SetAttributes(attribute.Int64("order_id", order.ID))
	c.JSON(http.StatusCreated, gin.H{
		"order_id":     order.ID,
		"total_amount": order.TotalAmount,
		"status":       order.Status,
	})
}

// PaymentConfirmation aplica a transição pending -> paid a partir do webhook do provedor
func (h *Handler) PaymentConfirmation(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "payment_confirmation")
	defer span.End()

	var req PaymentConfirmationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	span.SetAttributes(
		attribute.Int64("order_id", req.OrderID),
		attribute.String("transaction_hash", req.TransactionHash),
	)

	order, err := h.useCase.ConfirmPayment(ctx, req.OrderID, req.Amount)
	switch {
	case errors.Is(err, ErrOrderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return
	case errors.Is(err, ErrAmountMismatch):
		c.JSON(http.StatusBadRequest, gin.H{"error": "payment amount does not match order total"})
		return
	case errors.Is(err, ErrAlreadyProcessed):
		c.JSON(http.StatusConflict, gin.H{"error": "order already processed"})
		return
	case err != nil:
		span.RecordError(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	// O pedido é a fonte de verdade; a linha de pagamento acompanha best-effort
	if err := h.payments.RecordExternalConfirmation(ctx, req.OrderID); err != nil {
		log.Printf("⚠️ Failed to mark payment rows paid for order %d: %v", req.OrderID, err)
	}

	c.JSON(http.StatusOK, gin.H{
		"order_id": order.ID,
		"status":   order.Status,
	})
}

func (h *Handler) GetOrder(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}

	order, err := h.useCase.GetOrder(c.Request.Context(), orderID)
	if errors.Is(err, ErrOrderNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) CancelOrder(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}

	order, err := h.useCase.CancelOrder(c.Request.Context(), orderID)
	switch {
	case errors.Is(err, ErrOrderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return
	case errors.Is(err, ErrAlreadyProcessed):
		c.JSON(http.StatusConflict, gin.H{"error": "order is already terminal"})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"order_id": order.ID, "status": order.Status})
}

// HealthCheck verifica a saúde do serviço
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "ton-shop",
	})
}
