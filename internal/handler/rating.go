package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ridebook/internal/domain"
	"ridebook/internal/service"
)

// RatingHandler handles HTTP requests for ride ratings.
type RatingHandler struct {
	ratingService *service.RatingService
}

// NewRatingHandler creates a new RatingHandler.
func NewRatingHandler(ratingService *service.RatingService) *RatingHandler {
	return &RatingHandler{ratingService: ratingService}
}

// SubmitRatingRequest is the HTTP request body for rating a ride.
type SubmitRatingRequest struct {
	PassengerID string `json:"passenger_id"`
	Score       int    `json:"score"`
	Comment     string `json:"comment,omitempty"`
}

// RatingResponse is the HTTP representation of a rating.
type RatingResponse struct {
	ID          string `json:"id"`
	RideID      string `json:"ride_id"`
	PassengerID string `json:"passenger_id"`
	DriverID    string `json:"driver_id"`
	Score       int    `json:"score"`
	Comment     string `json:"comment,omitempty"`
	CreatedAt   string `json:"created_at"`
}

func toRatingResponse(r *domain.Rating) RatingResponse {
	return RatingResponse{
		ID:          r.ID,
		RideID:      r.RideID,
		PassengerID: r.PassengerID,
		DriverID:    r.DriverID,
		Score:       r.Score,
		Comment:     r.Comment,
		CreatedAt:   r.CreatedAt.Format(time.RFC3339),
	}
}

// SubmitRating handles POST /v1/rides/:id/rating
func (h *RatingHandler) SubmitRating(c *gin.Context) {
	var req SubmitRatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	rating, err := h.ratingService.SubmitRating(c.Request.Context(), service.SubmitRatingRequest{
		RideID:      c.Param("id"),
		PassengerID: req.PassengerID,
		Score:       req.Score,
		Comment:     req.Comment,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toRatingResponse(rating))
}
