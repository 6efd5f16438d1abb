package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"paygate/internal/domain"
	"paygate/internal/repository"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	orders      repository.OrderRepository
	gatewayName string
}

// NewOrderHandler creates a new OrderHandler. Orders created through it
// are assigned to gatewayName.
func NewOrderHandler(orders repository.OrderRepository, gatewayName string) *OrderHandler {
	return &OrderHandler{
		orders:      orders,
		gatewayName: gatewayName,
	}
}

// CreateOrderRequest is the HTTP request body for registering an order.
type CreateOrderRequest struct {
	ID       string `json:"id,omitempty"`
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

// NoteResponse is an order history entry.
type NoteResponse struct {
	Text      string `json:"text"`
	Reason    string `json:"reason,omitempty"`
	CreatedAt string `json:"created_at"`
}

// OrderResponse is the HTTP response for order operations.
type OrderResponse struct {
	ID            string         `json:"id"`
	Gateway       string         `json:"gateway"`
	Status        string         `json:"status"`
	Total         domain.Money   `json:"total"`
	TotalRefunded domain.Money   `json:"total_refunded"`
	TransactionID string         `json:"transaction_id,omitempty"`
	Captured      bool           `json:"captured"`
	Notes         []NoteResponse `json:"notes,omitempty"`
}

func newOrderResponse(order *domain.Order) OrderResponse {
	resp := OrderResponse{
		ID:            order.ID,
		Gateway:       order.Gateway,
		Status:        string(order.Status),
		Total:         order.TotalPrice,
		TotalRefunded: order.TotalRefunded,
		TransactionID: order.TransactionID,
		Captured:      order.Captured,
	}
	for _, note := range order.Notes {
		resp.Notes = append(resp.Notes, NoteResponse{
			Text:      note.Text,
			Reason:    note.Reason,
			CreatedAt: note.CreatedAt.Format(time.RFC3339),
		})
	}
	return resp
}

// CreateOrder handles POST /v1/orders
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	total, err := domain.ParseMoney(req.Amount, req.Currency)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	if !total.IsPositive() {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "amount must be positive"})
		return
	}

	if req.ID == "" {
		req.ID = uuid.New().String()
	}

	order := &domain.Order{
		ID:            req.ID,
		Gateway:       h.gatewayName,
		TotalPrice:    total,
		TotalRefunded: domain.Zero(total.Currency()),
		Status:        domain.OrderStatusAwaitingPayment,
	}

	if err := h.orders.Create(c.Request.Context(), order); err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, newOrderResponse(order))
}

// GetOrder handles GET /v1/orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	order, err := h.orders.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, newOrderResponse(order))
}
