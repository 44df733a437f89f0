package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ridebook/internal/domain"
	"ridebook/internal/service"
)

// DriverHandler handles HTTP requests for drivers.
type DriverHandler struct {
	driverService *service.DriverService
	ratingService *service.RatingService
}

// NewDriverHandler creates a new DriverHandler.
func NewDriverHandler(driverService *service.DriverService, ratingService *service.RatingService) *DriverHandler {
	return &DriverHandler{
		driverService: driverService,
		ratingService: ratingService,
	}
}

// RegisterDriverRequest is the HTTP request body for registering a driver.
type RegisterDriverRequest struct {
	Name             string `json:"name"`
	Phone            string `json:"phone"`
	VehicleName      string `json:"vehicle_name,omitempty"`
	PlateNumber      string `json:"plate_number,omitempty"`
	VehiclePhotoPath string `json:"vehicle_photo_path,omitempty"`
}

// SetAvailabilityRequest is the HTTP request body for toggling availability.
type SetAvailabilityRequest struct {
	Available *bool `json:"available" binding:"required"`
}

// SetApprovalRequest is the HTTP request body for an approval decision.
type SetApprovalRequest struct {
	AdminID  string `json:"admin_id"`
	Approval string `json:"approval"` // approved or pending
}

// UpdateVehicleRequest is the HTTP request body for replacing the vehicle
// descriptor.
type UpdateVehicleRequest struct {
	VehicleName      string `json:"vehicle_name"`
	PlateNumber      string `json:"plate_number"`
	VehiclePhotoPath string `json:"vehicle_photo_path,omitempty"`
}

// DriverResponse is the HTTP representation of a driver.
type DriverResponse struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Phone            string `json:"phone"`
	VehicleName      string `json:"vehicle_name,omitempty"`
	PlateNumber      string `json:"plate_number,omitempty"`
	VehiclePhotoPath string `json:"vehicle_photo_path,omitempty"`
	Approval         string `json:"approval"`
	IsAvailable      bool   `json:"is_available"`
	VehicleUpdatedAt string `json:"vehicle_updated_at,omitempty"`
	CreatedAt        string `json:"created_at"`
}

func toDriverResponse(d *domain.Driver) DriverResponse {
	resp := DriverResponse{
		ID:               d.ID,
		Name:             d.Name,
		Phone:            d.Phone,
		VehicleName:      d.VehicleName,
		PlateNumber:      d.PlateNumber,
		VehiclePhotoPath: d.VehiclePhotoPath,
		Approval:         string(d.Approval),
		IsAvailable:      d.IsAvailable,
		CreatedAt:        d.CreatedAt.Format(time.RFC3339),
	}
	if !d.VehicleUpdatedAt.IsZero() {
		resp.VehicleUpdatedAt = d.VehicleUpdatedAt.Format(time.RFC3339)
	}
	return resp
}

// RegisterDriver handles POST /v1/drivers
func (h *DriverHandler) RegisterDriver(c *gin.Context) {
	var req RegisterDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	driver, err := h.driverService.Register(c.Request.Context(), service.RegisterDriverRequest{
		Name:             req.Name,
		Phone:            req.Phone,
		VehicleName:      req.VehicleName,
		PlateNumber:      req.PlateNumber,
		VehiclePhotoPath: req.VehiclePhotoPath,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toDriverResponse(driver))
}

// GetDriver handles GET /v1/drivers/:id
func (h *DriverHandler) GetDriver(c *gin.Context) {
	driver, err := h.driverService.GetDriver(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toDriverResponse(driver))
}

// ListAvailableDrivers handles GET /v1/drivers/available
func (h *DriverHandler) ListAvailableDrivers(c *gin.Context) {
	drivers, err := h.driverService.ListAvailable(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]DriverResponse, 0, len(drivers))
	for _, d := range drivers {
		out = append(out, toDriverResponse(d))
	}
	respondJSON(c, http.StatusOK, gin.H{"drivers": out})
}

// SetAvailability handles POST /v1/drivers/:id/availability
func (h *DriverHandler) SetAvailability(c *gin.Context) {
	var req SetAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	driver, err := h.driverService.SetAvailability(c.Request.Context(), c.Param("id"), *req.Available)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toDriverResponse(driver))
}

// SetApproval handles POST /v1/drivers/:id/approval
func (h *DriverHandler) SetApproval(c *gin.Context) {
	var req SetApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	driver, err := h.driverService.SetApproval(c.Request.Context(), c.Param("id"), req.AdminID, domain.DriverApproval(req.Approval))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toDriverResponse(driver))
}

// UpdateVehicle handles PUT /v1/drivers/:id/vehicle
func (h *DriverHandler) UpdateVehicle(c *gin.Context) {
	var req UpdateVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	driver, err := h.driverService.UpdateVehicle(c.Request.Context(), service.UpdateVehicleRequest{
		DriverID:         c.Param("id"),
		VehicleName:      req.VehicleName,
		PlateNumber:      req.PlateNumber,
		VehiclePhotoPath: req.VehiclePhotoPath,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toDriverResponse(driver))
}

// GetDriverRating handles GET /v1/drivers/:id/rating
func (h *DriverHandler) GetDriverRating(c *gin.Context) {
	avg, count, err := h.ratingService.DriverAverage(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{
		"driver_id":      c.Param("id"),
		"average_rating": avg,
		"rating_count":   count,
	})
}
