package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ridebook/internal/domain"
	"ridebook/internal/service"
)

// PaymentHandler handles HTTP requests for payments.
type PaymentHandler struct {
	paymentService *service.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(paymentService *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// InitializePaymentRequest is the HTTP request body for starting an online
// payment.
type InitializePaymentRequest struct {
	RideID      string `json:"ride_id"`
	PassengerID string `json:"passenger_id"`
	Email       string `json:"email"`
}

// InitializePaymentResponse is the HTTP response for starting an online
// payment.
type InitializePaymentResponse struct {
	Payment          PaymentResponse `json:"payment"`
	AuthorizationURL string          `json:"authorization_url"`
}

// PaymentResponse is the HTTP representation of a payment attempt.
type PaymentResponse struct {
	ID        string  `json:"id"`
	RideID    string  `json:"ride_id"`
	Amount    float64 `json:"amount"`
	Reference string  `json:"reference"`
	Method    string  `json:"method"`
	Status    string  `json:"status"`
	PaidAt    string  `json:"paid_at,omitempty"`
	CreatedAt string  `json:"created_at"`
}

func toPaymentResponse(p *domain.Payment) PaymentResponse {
	resp := PaymentResponse{
		ID:        p.ID,
		RideID:    p.RideID,
		Amount:    p.Amount,
		Reference: p.Reference,
		Method:    string(p.Method),
		Status:    string(p.Status),
		CreatedAt: p.CreatedAt.Format(time.RFC3339),
	}
	if !p.PaidAt.IsZero() {
		resp.PaidAt = p.PaidAt.Format(time.RFC3339)
	}
	return resp
}

// InitializePayment handles POST /v1/payments/initialize
func (h *PaymentHandler) InitializePayment(c *gin.Context) {
	var req InitializePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	result, err := h.paymentService.StartGatewayPayment(c.Request.Context(), service.StartGatewayPaymentRequest{
		RideID:      req.RideID,
		PassengerID: req.PassengerID,
		Email:       req.Email,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, InitializePaymentResponse{
		Payment:          toPaymentResponse(result.Payment),
		AuthorizationURL: result.AuthorizationURL,
	})
}

// Callback handles GET /v1/payments/callback?reference=...
//
// The gateway redirects the payer here after checkout. Only the reference
// is trusted; the outcome comes from a verify call, not the query string.
func (h *PaymentHandler) Callback(c *gin.Context) {
	reference := c.Query("reference")
	if reference == "" {
		reference = c.Query("trxref")
	}

	payment, err := h.paymentService.ConfirmGatewayPayment(c.Request.Context(), reference)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toPaymentResponse(payment))
}
