package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ridebook/internal/domain"
	"ridebook/internal/repository"
)

const maxCommentLength = 500

// RatingService owns post-ride passenger feedback.
type RatingService struct {
	tx  repository.TxManager
	now func() time.Time
}

// NewRatingService creates a new RatingService.
func NewRatingService(tx repository.TxManager) *RatingService {
	return &RatingService{
		tx:  tx,
		now: time.Now,
	}
}

// SubmitRatingRequest contains the parameters for rating a ride.
type SubmitRatingRequest struct {
	RideID      string
	PassengerID string
	Score       int
	Comment     string
}

// SubmitRating records the passenger's one-time rating of a completed
// ride. The unique index on ride backs the pre-check, so a double submit
// racing past the read still fails cleanly.
func (s *RatingService) SubmitRating(ctx context.Context, req SubmitRatingRequest) (*domain.Rating, error) {
	if req.Score < 1 || req.Score > 5 {
		return nil, fmt.Errorf("%w: score must be between 1 and 5", ErrValidation)
	}
	if len(req.Comment) > maxCommentLength {
		return nil, fmt.Errorf("%w: comment exceeds %d characters", ErrValidation, maxCommentLength)
	}

	var rating *domain.Rating

	err := transact(ctx, s.tx, func(ctx context.Context, tx *repository.Tx) error {
		ride, err := tx.Rides.GetByID(ctx, req.RideID)
		if err != nil {
			return err
		}
		if ride.Status != domain.RideStatusCompleted {
			return fmt.Errorf("%w: only completed rides can be rated", ErrInvalidTransition)
		}
		if ride.PassengerID != req.PassengerID {
			return fmt.Errorf("%w: ride does not belong to this passenger", ErrInvalidTransition)
		}

		existing, err := tx.Ratings.GetByRideID(ctx, ride.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrAlreadyRated
		}

		rating = &domain.Rating{
			ID:          uuid.New().String(),
			RideID:      ride.ID,
			PassengerID: ride.PassengerID,
			DriverID:    ride.DriverID,
			Score:       req.Score,
			Comment:     req.Comment,
			CreatedAt:   s.now(),
		}
		if err := tx.Ratings.Create(ctx, rating); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrAlreadyRated
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return rating, nil
}

// DriverAverage returns the driver's mean score and rating count, zero
// values when the driver has no ratings yet.
func (s *RatingService) DriverAverage(ctx context.Context, driverID string) (float64, int, error) {
	var (
		avg   float64
		count int
	)
	err := transact(ctx, s.tx, func(ctx context.Context, tx *repository.Tx) error {
		var err error
		avg, count, err = tx.Ratings.AverageForDriver(ctx, driverID)
		return err
	})
	return avg, count, err
}
