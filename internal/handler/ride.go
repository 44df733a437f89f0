package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ridebook/internal/domain"
	"ridebook/internal/service"
)

// RideHandler handles HTTP requests for rides.
type RideHandler struct {
	rideService    *service.RideService
	paymentService *service.PaymentService
}

// NewRideHandler creates a new RideHandler.
func NewRideHandler(rideService *service.RideService, paymentService *service.PaymentService) *RideHandler {
	return &RideHandler{
		rideService:    rideService,
		paymentService: paymentService,
	}
}

// CreateRideRequest is the HTTP request body for booking a ride.
type CreateRideRequest struct {
	PassengerID string `json:"passenger_id"`
	Pickup      string `json:"pickup"`
	Destination string `json:"destination"`
	ScheduledAt string `json:"scheduled_at"` // RFC 3339
	DriverID    string `json:"driver_id,omitempty"`
}

// AcceptRideRequest is the HTTP request body for a driver accepting a ride.
type AcceptRideRequest struct {
	DriverID string  `json:"driver_id"`
	Fare     float64 `json:"fare"`
}

// DriverActionRequest identifies the driver performing a lifecycle action.
type DriverActionRequest struct {
	DriverID string `json:"driver_id"`
}

// CompleteRideRequest is the HTTP request body for completing a ride.
type CompleteRideRequest struct {
	DriverID      string `json:"driver_id"`
	PaymentMethod string `json:"payment_method,omitempty"` // cash or paystack
}

// PassengerActionRequest identifies the passenger performing an action.
type PassengerActionRequest struct {
	PassengerID string `json:"passenger_id"`
}

// EditRideRequest is the HTTP request body for editing a pending ride.
// Omitted fields are left unchanged.
type EditRideRequest struct {
	PassengerID string  `json:"passenger_id"`
	Pickup      *string `json:"pickup,omitempty"`
	Destination *string `json:"destination,omitempty"`
	ScheduledAt *string `json:"scheduled_at,omitempty"`
	DriverID    *string `json:"driver_id,omitempty"`
}

// RideResponse is the HTTP representation of a ride.
type RideResponse struct {
	ID            string  `json:"id"`
	Reference     string  `json:"reference"`
	PassengerID   string  `json:"passenger_id"`
	DriverID      string  `json:"driver_id"`
	Pickup        string  `json:"pickup"`
	Destination   string  `json:"destination"`
	ScheduledAt   string  `json:"scheduled_at"`
	Fare          float64 `json:"fare"`
	PaymentMethod string  `json:"payment_method"`
	PaymentStatus string  `json:"payment_status"`
	Status        string  `json:"status"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
}

func toRideResponse(ride *domain.Ride) RideResponse {
	return RideResponse{
		ID:            ride.ID,
		Reference:     ride.Reference,
		PassengerID:   ride.PassengerID,
		DriverID:      ride.DriverID,
		Pickup:        ride.Pickup,
		Destination:   ride.Destination,
		ScheduledAt:   ride.ScheduledAt.Format(time.RFC3339),
		Fare:          ride.Fare,
		PaymentMethod: string(ride.PaymentMethod),
		PaymentStatus: string(ride.PaymentStatus),
		Status:        string(ride.Status),
		CreatedAt:     ride.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     ride.UpdatedAt.Format(time.RFC3339),
	}
}

// CreateRide handles POST /v1/rides
func (h *RideHandler) CreateRide(c *gin.Context) {
	var req CreateRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	scheduledAt, err := time.Parse(time.RFC3339, req.ScheduledAt)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "scheduled_at must be RFC 3339"})
		return
	}

	ride, err := h.rideService.CreateRide(c.Request.Context(), service.CreateRideRequest{
		PassengerID: req.PassengerID,
		Pickup:      req.Pickup,
		Destination: req.Destination,
		ScheduledAt: scheduledAt,
		DriverID:    req.DriverID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toRideResponse(ride))
}

// GetRide handles GET /v1/rides/:id
func (h *RideHandler) GetRide(c *gin.Context) {
	ride, err := h.rideService.GetRide(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRideResponse(ride))
}

// ListRides handles GET /v1/rides?passenger_id=...&driver_id=...
func (h *RideHandler) ListRides(c *gin.Context) {
	passengerID := c.Query("passenger_id")
	driverID := c.Query("driver_id")

	var (
		rides []*domain.Ride
		err   error
	)
	switch {
	case passengerID != "":
		rides, err = h.rideService.ListByPassenger(c.Request.Context(), passengerID)
	case driverID != "":
		rides, err = h.rideService.ListByDriver(c.Request.Context(), driverID)
	default:
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "passenger_id or driver_id required"})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]RideResponse, 0, len(rides))
	for _, ride := range rides {
		out = append(out, toRideResponse(ride))
	}
	respondJSON(c, http.StatusOK, gin.H{"rides": out})
}

// AcceptRide handles POST /v1/rides/:id/accept
func (h *RideHandler) AcceptRide(c *gin.Context) {
	var req AcceptRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	ride, err := h.rideService.SetFareAndAccept(c.Request.Context(), service.SetFareAndAcceptRequest{
		RideID:   c.Param("id"),
		DriverID: req.DriverID,
		Fare:     req.Fare,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRideResponse(ride))
}

// RejectRide handles POST /v1/rides/:id/reject
func (h *RideHandler) RejectRide(c *gin.Context) {
	var req DriverActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	ride, err := h.rideService.Reject(c.Request.Context(), c.Param("id"), req.DriverID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRideResponse(ride))
}

// StartRide handles POST /v1/rides/:id/start
func (h *RideHandler) StartRide(c *gin.Context) {
	var req DriverActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	ride, err := h.rideService.Start(c.Request.Context(), c.Param("id"), req.DriverID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRideResponse(ride))
}

// CompleteRide handles POST /v1/rides/:id/complete
func (h *RideHandler) CompleteRide(c *gin.Context) {
	var req CompleteRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	ride, err := h.rideService.Complete(c.Request.Context(), service.CompleteRideRequest{
		RideID:        c.Param("id"),
		DriverID:      req.DriverID,
		PaymentMethod: domain.PaymentMethod(req.PaymentMethod),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRideResponse(ride))
}

// CancelRide handles POST /v1/rides/:id/cancel
func (h *RideHandler) CancelRide(c *gin.Context) {
	var req PassengerActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	ride, err := h.rideService.Cancel(c.Request.Context(), c.Param("id"), req.PassengerID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRideResponse(ride))
}

// EditRide handles PATCH /v1/rides/:id
func (h *RideHandler) EditRide(c *gin.Context) {
	var req EditRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	edit := service.EditDetailsRequest{
		RideID:      c.Param("id"),
		PassengerID: req.PassengerID,
		Pickup:      req.Pickup,
		Destination: req.Destination,
		DriverID:    req.DriverID,
	}
	if req.ScheduledAt != nil {
		scheduledAt, err := time.Parse(time.RFC3339, *req.ScheduledAt)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "scheduled_at must be RFC 3339"})
			return
		}
		edit.ScheduledAt = &scheduledAt
	}

	ride, err := h.rideService.EditDetails(c.Request.Context(), edit)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRideResponse(ride))
}

// ConfirmCash handles POST /v1/rides/:id/confirm-cash
func (h *RideHandler) ConfirmCash(c *gin.Context) {
	var req DriverActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	payment, err := h.paymentService.ConfirmCashPayment(c.Request.Context(), c.Param("id"), req.DriverID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toPaymentResponse(payment))
}

// ListRidePayments handles GET /v1/rides/:id/payments
func (h *RideHandler) ListRidePayments(c *gin.Context) {
	payments, err := h.paymentService.ListByRide(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]PaymentResponse, 0, len(payments))
	for _, p := range payments {
		out = append(out, toPaymentResponse(p))
	}
	respondJSON(c, http.StatusOK, gin.H{"payments": out})
}
