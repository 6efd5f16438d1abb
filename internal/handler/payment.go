package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"paygate/internal/domain"
	"paygate/internal/repository"
	"paygate/internal/service"
)

// PaymentHandler handles HTTP requests for payments and refunds.
type PaymentHandler struct {
	gateway service.PaymentGateway
	orders  repository.OrderRepository
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(gateway service.PaymentGateway, orders repository.OrderRepository) *PaymentHandler {
	return &PaymentHandler{
		gateway: gateway,
		orders:  orders,
	}
}

// ProcessPaymentRequest is the HTTP request body for paying an order.
type ProcessPaymentRequest struct {
	Token string `json:"token"`
}

// ProcessPaymentResponse is the HTTP response for a processed payment.
type ProcessPaymentResponse struct {
	OrderID       string `json:"order_id"`
	Status        string `json:"status"`
	Result        string `json:"result"`
	TransactionID string `json:"transaction_id,omitempty"`
	Captured      bool   `json:"captured"`
}

// CapturePaymentRequest is the HTTP request body for capturing an authorization.
// An empty TransactionID captures the order's stored transaction.
type CapturePaymentRequest struct {
	TransactionID string `json:"transaction_id"`
}

// CapturePaymentResponse is the HTTP response for a capture.
type CapturePaymentResponse struct {
	OrderID  string `json:"order_id"`
	Captured bool   `json:"captured"`
}

// RefundRequest is the HTTP request body for refunding an order.
// Currency defaults to the order currency.
type RefundRequest struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency,omitempty"`
	Reason   string `json:"reason,omitempty"`
	Manual   bool   `json:"manual"`
}

// RefundResponse is the HTTP response for a refund attempt.
type RefundResponse struct {
	Succeeded       bool          `json:"succeeded"`
	Mode            string        `json:"mode"`
	Amount          domain.Money  `json:"amount"`
	TotalRefunded   domain.Money  `json:"total_refunded"`
	RefundID        string        `json:"refund_id,omitempty"`
	ProcessorAmount *domain.Money `json:"processor_amount,omitempty"`
	AmountMismatch  bool          `json:"amount_mismatch,omitempty"`
	FailureReason   string        `json:"failure_reason,omitempty"`
}

// EligibilityResponse is the HTTP response for the eligibility check.
type EligibilityResponse struct {
	Gateway  string `json:"gateway"`
	Eligible bool   `json:"eligible"`
}

// ProcessPayment handles POST /v1/orders/:id/process
func (h *PaymentHandler) ProcessPayment(c *gin.Context) {
	var req ProcessPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	result, err := h.gateway.Process(c.Request.Context(), c.Param("id"), req.Token)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, ProcessPaymentResponse{
		OrderID:       result.Order.ID,
		Status:        string(result.Order.Status),
		Result:        string(result.Result.Status),
		TransactionID: result.Order.TransactionID,
		Captured:      result.Order.Captured,
	})
}

// CapturePayment handles POST /v1/orders/:id/capture
func (h *PaymentHandler) CapturePayment(c *gin.Context) {
	var req CapturePaymentRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
			return
		}
	}

	orderID := c.Param("id")
	if req.TransactionID == "" {
		order, err := h.orders.GetByID(c.Request.Context(), orderID)
		if err != nil {
			respondError(c, err)
			return
		}
		req.TransactionID = order.TransactionID
	}

	captured, err := h.gateway.Capture(c.Request.Context(), orderID, req.TransactionID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, CapturePaymentResponse{
		OrderID:  orderID,
		Captured: captured,
	})
}

// RefundPayment handles POST /v1/orders/:id/refunds
func (h *PaymentHandler) RefundPayment(c *gin.Context) {
	var req RefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	orderID := c.Param("id")
	if req.Currency == "" {
		order, err := h.orders.GetByID(c.Request.Context(), orderID)
		if err != nil {
			respondError(c, err)
			return
		}
		req.Currency = order.Currency()
	}

	amount, err := domain.ParseMoney(req.Amount, req.Currency)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	mode := domain.RefundModeGateway
	if req.Manual {
		mode = domain.RefundModeManual
	}

	outcome, err := h.gateway.Refund(c.Request.Context(), orderID, domain.RefundRequest{
		Amount: amount,
		Reason: req.Reason,
		Mode:   mode,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, RefundResponse{
		Succeeded:       outcome.Succeeded,
		Mode:            string(outcome.Mode),
		Amount:          outcome.Amount,
		TotalRefunded:   outcome.TotalRefunded,
		RefundID:        outcome.RefundID,
		ProcessorAmount: outcome.ProcessorAmount,
		AmountMismatch:  outcome.AmountMismatch,
		FailureReason:   outcome.FailureReason,
	})
}

// Eligibility handles GET /v1/eligibility
func (h *PaymentHandler) Eligibility(c *gin.Context) {
	respondJSON(c, http.StatusOK, EligibilityResponse{
		Gateway:  h.gateway.Name(),
		Eligible: h.gateway.IsEligible(),
	})
}
