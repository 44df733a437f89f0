package tests

import (
	"context"
	"errors"
	"strings"
	"testing"

	"ridebook/internal/domain"
	"ridebook/internal/service"
)

func TestSubmitRating_CompletedRide_Succeeds(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.seedRide("ride-1", domain.RideStatusCompleted, 3500)

	rating, err := f.ratingService.SubmitRating(context.Background(), service.SubmitRatingRequest{
		RideID:      "ride-1",
		PassengerID: "passenger-1",
		Score:       5,
		Comment:     "Smooth trip",
	})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if rating.Score != 5 {
		t.Errorf("expected score 5, got %d", rating.Score)
	}
	if rating.DriverID != "driver-1" {
		t.Errorf("expected driver taken from the ride, got %s", rating.DriverID)
	}
}

func TestSubmitRating_NotCompleted_Rejected(t *testing.T) {
	t.Parallel()

	for _, status := range []domain.RideStatus{
		domain.RideStatusPending,
		domain.RideStatusAccepted,
		domain.RideStatusInProgress,
		domain.RideStatusCancelled,
	} {
		f := newFixture()
		f.seedRide("ride-1", status, 3500)

		_, err := f.ratingService.SubmitRating(context.Background(), service.SubmitRatingRequest{
			RideID:      "ride-1",
			PassengerID: "passenger-1",
			Score:       4,
		})
		if !errors.Is(err, service.ErrInvalidTransition) {
			t.Errorf("%s: expected ErrInvalidTransition, got: %v", status, err)
		}
	}
}

func TestSubmitRating_WrongPassenger_Rejected(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.seedRide("ride-1", domain.RideStatusCompleted, 3500)

	_, err := f.ratingService.SubmitRating(context.Background(), service.SubmitRatingRequest{
		RideID:      "ride-1",
		PassengerID: "passenger-9",
		Score:       4,
	})
	if !errors.Is(err, service.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got: %v", err)
	}
}

func TestSubmitRating_Twice_AlreadyRated(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.seedRide("ride-1", domain.RideStatusCompleted, 3500)

	req := service.SubmitRatingRequest{
		RideID:      "ride-1",
		PassengerID: "passenger-1",
		Score:       4,
	}
	if _, err := f.ratingService.SubmitRating(context.Background(), req); err != nil {
		t.Fatalf("first rating: %v", err)
	}

	_, err := f.ratingService.SubmitRating(context.Background(), req)
	if !errors.Is(err, service.ErrAlreadyRated) {
		t.Errorf("expected ErrAlreadyRated, got: %v", err)
	}
}

func TestSubmitRating_ScoreBounds(t *testing.T) {
	t.Parallel()

	for _, score := range []int{0, -1, 6, 100} {
		f := newFixture()
		f.seedRide("ride-1", domain.RideStatusCompleted, 3500)

		_, err := f.ratingService.SubmitRating(context.Background(), service.SubmitRatingRequest{
			RideID:      "ride-1",
			PassengerID: "passenger-1",
			Score:       score,
		})
		if !errors.Is(err, service.ErrValidation) {
			t.Errorf("score %d: expected ErrValidation, got: %v", score, err)
		}
	}
}

func TestSubmitRating_LongComment_Rejected(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.seedRide("ride-1", domain.RideStatusCompleted, 3500)

	_, err := f.ratingService.SubmitRating(context.Background(), service.SubmitRatingRequest{
		RideID:      "ride-1",
		PassengerID: "passenger-1",
		Score:       4,
		Comment:     strings.Repeat("a", 501),
	})
	if !errors.Is(err, service.ErrValidation) {
		t.Errorf("expected ErrValidation, got: %v", err)
	}
}

func TestDriverAverage_ComputesMean(t *testing.T) {
	t.Parallel()

	f := newFixture()

	for i, score := range []int{5, 4, 3} {
		ride := f.seedRide("ride-"+string(rune('a'+i)), domain.RideStatusCompleted, 3500)
		if _, err := f.ratingService.SubmitRating(context.Background(), service.SubmitRatingRequest{
			RideID:      ride.ID,
			PassengerID: "passenger-1",
			Score:       score,
		}); err != nil {
			t.Fatalf("rating %s: %v", ride.ID, err)
		}
	}

	avg, count, err := f.ratingService.DriverAverage(context.Background(), "driver-1")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if count != 3 {
		t.Errorf("expected 3 ratings, got %d", count)
	}
	if avg != 4 {
		t.Errorf("expected average 4, got %f", avg)
	}
}

func TestDriverAverage_NoRatings_Zero(t *testing.T) {
	t.Parallel()

	f := newFixture()

	avg, count, err := f.ratingService.DriverAverage(context.Background(), "driver-1")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if avg != 0 || count != 0 {
		t.Errorf("expected zero average and count, got %f and %d", avg, count)
	}
}
