package tests

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"ridebook/internal/domain"
	"ridebook/internal/gateway"
	"ridebook/internal/service"
)

// ──────────────────────────────────────────────
// 1. GATEWAY PAYMENT INITIATION
// ──────────────────────────────────────────────

func TestStartGatewayPayment_CreatesPendingAttempt(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.seedRide("ride-1", domain.RideStatusAccepted, 3500)

	result, err := f.paymentService.StartGatewayPayment(context.Background(), service.StartGatewayPaymentRequest{
		RideID:      "ride-1",
		PassengerID: "passenger-1",
		Email:       "rider@example.com",
	})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if result.AuthorizationURL == "" {
		t.Error("expected authorization URL")
	}
	if !strings.HasPrefix(result.Payment.Reference, "PS-") {
		t.Errorf("expected PS- reference, got %s", result.Payment.Reference)
	}
	if result.Payment.Status != domain.PaymentStatusPending {
		t.Errorf("expected pending payment, got %s", result.Payment.Status)
	}

	ride := f.rides.GetRide("ride-1")
	if ride.PaymentMethod != domain.PaymentMethodPaystack {
		t.Errorf("expected paystack method on ride, got %s", ride.PaymentMethod)
	}

	if len(f.gateway.InitializeCalls) != 1 {
		t.Fatalf("expected one initialize call, got %d", len(f.gateway.InitializeCalls))
	}
	call := f.gateway.InitializeCalls[0]
	if call.AmountKobo != 350000 {
		t.Errorf("expected 350000 kobo, got %d", call.AmountKobo)
	}
	if call.Email != "rider@example.com" {
		t.Errorf("expected payer email, got %s", call.Email)
	}
}

func TestStartGatewayPayment_GatewayDown_LeavesRetryableAttempt(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.seedRide("ride-1", domain.RideStatusAccepted, 3500)
	f.gateway.InitializeFunc = func(ctx context.Context, req gateway.InitializeRequest) (string, error) {
		return "", gateway.ErrUnavailable
	}

	_, err := f.paymentService.StartGatewayPayment(context.Background(), service.StartGatewayPaymentRequest{
		RideID:      "ride-1",
		PassengerID: "passenger-1",
		Email:       "rider@example.com",
	})
	if !errors.Is(err, service.ErrGatewayUnavailable) {
		t.Fatalf("expected ErrGatewayUnavailable, got: %v", err)
	}

	// The pending row survives the outage so the passenger can retry.
	pending, _ := f.payments.GetPendingByRideForUpdate(context.Background(), "ride-1")
	if pending == nil {
		t.Fatal("expected pending payment row to remain")
	}

	f.gateway.InitializeFunc = nil
	if _, err := f.paymentService.StartGatewayPayment(context.Background(), service.StartGatewayPaymentRequest{
		RideID:      "ride-1",
		PassengerID: "passenger-1",
		Email:       "rider@example.com",
	}); err != nil {
		t.Fatalf("retry after outage: expected no error, got: %v", err)
	}
}

func TestStartGatewayPayment_Retry_ReusesRowWithFreshReference(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.seedRide("ride-1", domain.RideStatusAccepted, 3500)

	first, err := f.paymentService.StartGatewayPayment(context.Background(), service.StartGatewayPaymentRequest{
		RideID: "ride-1", PassengerID: "passenger-1", Email: "rider@example.com",
	})
	if err != nil {
		t.Fatalf("first attempt: %v", err)
	}
	second, err := f.paymentService.StartGatewayPayment(context.Background(), service.StartGatewayPaymentRequest{
		RideID: "ride-1", PassengerID: "passenger-1", Email: "rider@example.com",
	})
	if err != nil {
		t.Fatalf("second attempt: %v", err)
	}

	if first.Payment.ID != second.Payment.ID {
		t.Error("expected the pending row to be reused, not duplicated")
	}
	if first.Payment.Reference == second.Payment.Reference {
		t.Error("expected a fresh reference per attempt")
	}
	if atomic.LoadInt32(&f.payments.CreateCallCount) != 1 {
		t.Errorf("expected exactly one payment insert, got %d", f.payments.CreateCallCount)
	}
}

func TestStartGatewayPayment_InvalidStates_Rejected(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.seedRide("ride-pending", domain.RideStatusPending, 0)
	f.seedRide("ride-cancelled", domain.RideStatusCancelled, 3500)
	zeroFare := f.seedRide("ride-zero", domain.RideStatusAccepted, 0)
	_ = zeroFare
	paid := f.seedRide("ride-paid", domain.RideStatusAccepted, 3500)
	paid.PaymentStatus = domain.RidePaymentPaid

	testCases := []struct {
		rideID  string
		wantErr error
	}{
		{"ride-pending", service.ErrInvalidTransition},
		{"ride-cancelled", service.ErrInvalidTransition},
		{"ride-zero", service.ErrValidation},
		{"ride-paid", service.ErrInvalidTransition},
	}
	for _, tc := range testCases {
		_, err := f.paymentService.StartGatewayPayment(context.Background(), service.StartGatewayPaymentRequest{
			RideID: tc.rideID, PassengerID: "passenger-1", Email: "rider@example.com",
		})
		if !errors.Is(err, tc.wantErr) {
			t.Errorf("%s: expected %v, got: %v", tc.rideID, tc.wantErr, err)
		}
	}
}

func TestStartGatewayPayment_WrongPassenger_Forbidden(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.seedRide("ride-1", domain.RideStatusAccepted, 3500)

	_, err := f.paymentService.StartGatewayPayment(context.Background(), service.StartGatewayPaymentRequest{
		RideID: "ride-1", PassengerID: "passenger-2", Email: "rider@example.com",
	})
	if !errors.Is(err, service.ErrNotEligible) {
		t.Errorf("expected ErrNotEligible, got: %v", err)
	}
}

func TestStartGatewayPayment_AfterFailedAttempt_Allowed(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ride := f.seedRide("ride-1", domain.RideStatusAccepted, 3500)
	ride.PaymentStatus = domain.RidePaymentFailed

	result, err := f.paymentService.StartGatewayPayment(context.Background(), service.StartGatewayPaymentRequest{
		RideID: "ride-1", PassengerID: "passenger-1", Email: "rider@example.com",
	})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if result.Payment.Status != domain.PaymentStatusPending {
		t.Errorf("expected pending attempt, got %s", result.Payment.Status)
	}
	if f.rides.GetRide("ride-1").PaymentStatus != domain.RidePaymentPending {
		t.Error("expected ride payment status reset to pending")
	}
}

// ──────────────────────────────────────────────
// 2. GATEWAY CALLBACK RECONCILIATION
// ──────────────────────────────────────────────

// startPayment opens a gateway attempt and returns its reference.
func startPayment(t *testing.T, f *fixture, rideID string) string {
	t.Helper()
	result, err := f.paymentService.StartGatewayPayment(context.Background(), service.StartGatewayPaymentRequest{
		RideID: rideID, PassengerID: "passenger-1", Email: "rider@example.com",
	})
	if err != nil {
		t.Fatalf("start payment: %v", err)
	}
	return result.Payment.Reference
}

func TestConfirmGatewayPayment_Success_SettlesRide(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.seedRide("ride-1", domain.RideStatusAccepted, 3500)
	reference := startPayment(t, f, "ride-1")

	f.gateway.VerifyFunc = func(ctx context.Context, ref string) (*gateway.VerifyResult, error) {
		return &gateway.VerifyResult{Success: true, AmountKobo: 350000, Status: "success"}, nil
	}

	payment, err := f.paymentService.ConfirmGatewayPayment(context.Background(), reference)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if payment.Status != domain.PaymentStatusSuccess {
		t.Errorf("expected success, got %s", payment.Status)
	}
	if payment.PaidAt.IsZero() {
		t.Error("expected paid_at to be set")
	}
	if f.rides.GetRide("ride-1").PaymentStatus != domain.RidePaymentPaid {
		t.Error("expected ride marked paid")
	}
}

func TestConfirmGatewayPayment_Repeated_Idempotent(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.seedRide("ride-1", domain.RideStatusAccepted, 3500)
	reference := startPayment(t, f, "ride-1")

	f.gateway.VerifyFunc = func(ctx context.Context, ref string) (*gateway.VerifyResult, error) {
		return &gateway.VerifyResult{Success: true, AmountKobo: 350000, Status: "success"}, nil
	}

	first, err := f.paymentService.ConfirmGatewayPayment(context.Background(), reference)
	if err != nil {
		t.Fatalf("first confirm: %v", err)
	}
	second, err := f.paymentService.ConfirmGatewayPayment(context.Background(), reference)
	if err != nil {
		t.Fatalf("second confirm: %v", err)
	}

	if second.Status != domain.PaymentStatusSuccess || second.ID != first.ID {
		t.Error("expected the settled payment back unchanged")
	}
	if atomic.LoadInt32(&f.gateway.VerifyCallCount) != 1 {
		t.Errorf("terminal payment must not be re-verified, got %d verify calls", f.gateway.VerifyCallCount)
	}
}

func TestConfirmGatewayPayment_ConcurrentCallbacks_SettleOnce(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.seedRide("ride-1", domain.RideStatusAccepted, 3500)
	reference := startPayment(t, f, "ride-1")

	f.gateway.VerifyFunc = func(ctx context.Context, ref string) (*gateway.VerifyResult, error) {
		return &gateway.VerifyResult{Success: true, AmountKobo: 350000, Status: "success"}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.paymentService.ConfirmGatewayPayment(context.Background(), reference); err != nil {
				t.Errorf("concurrent confirm: %v", err)
			}
		}()
	}
	wg.Wait()

	payments, _ := f.payments.ListByRide(context.Background(), "ride-1")
	if len(payments) != 1 {
		t.Fatalf("expected a single payment row, got %d", len(payments))
	}
	if payments[0].Status != domain.PaymentStatusSuccess {
		t.Errorf("expected success, got %s", payments[0].Status)
	}
}

func TestConfirmGatewayPayment_UnknownReference_Rejected(t *testing.T) {
	t.Parallel()

	f := newFixture()

	_, err := f.paymentService.ConfirmGatewayPayment(context.Background(), "PS-UNKNOWN")
	if !errors.Is(err, service.ErrUnknownReference) {
		t.Errorf("expected ErrUnknownReference, got: %v", err)
	}
}

func TestConfirmGatewayPayment_VerifyFailed_MarksFailed(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.seedRide("ride-1", domain.RideStatusAccepted, 3500)
	reference := startPayment(t, f, "ride-1")

	f.gateway.VerifyFunc = func(ctx context.Context, ref string) (*gateway.VerifyResult, error) {
		return &gateway.VerifyResult{Success: false, Status: "abandoned"}, nil
	}

	payment, err := f.paymentService.ConfirmGatewayPayment(context.Background(), reference)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if payment.Status != domain.PaymentStatusFailed {
		t.Errorf("expected failed, got %s", payment.Status)
	}
	if f.rides.GetRide("ride-1").PaymentStatus != domain.RidePaymentFailed {
		t.Error("expected ride payment status failed")
	}
}

func TestConfirmGatewayPayment_AmountMismatch_FailsAndAudits(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.seedRide("ride-1", domain.RideStatusAccepted, 3500)
	reference := startPayment(t, f, "ride-1")

	f.gateway.VerifyFunc = func(ctx context.Context, ref string) (*gateway.VerifyResult, error) {
		return &gateway.VerifyResult{Success: true, AmountKobo: 100000, Status: "success"}, nil
	}

	payment, err := f.paymentService.ConfirmGatewayPayment(context.Background(), reference)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if payment.Status != domain.PaymentStatusFailed {
		t.Errorf("expected failed on amount mismatch, got %s", payment.Status)
	}

	entry := f.audits.LastEntry()
	if entry == nil || entry.Action != "payment.amount_mismatch" {
		t.Errorf("expected amount mismatch audit entry, got %+v", entry)
	}
}

func TestConfirmGatewayPayment_CancelledRide_FlagsConflict(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.seedRide("ride-1", domain.RideStatusAccepted, 3500)
	reference := startPayment(t, f, "ride-1")

	// The passenger cancels while the checkout page is open.
	ride := f.rides.GetRide("ride-1")
	ride.Status = domain.RideStatusCancelled
	f.rides.AddRide(ride)

	f.gateway.VerifyFunc = func(ctx context.Context, ref string) (*gateway.VerifyResult, error) {
		return &gateway.VerifyResult{Success: true, AmountKobo: 350000, Status: "success"}, nil
	}

	payment, err := f.paymentService.ConfirmGatewayPayment(context.Background(), reference)
	if !errors.Is(err, service.ErrReconciliationConflict) {
		t.Fatalf("expected ErrReconciliationConflict, got: %v", err)
	}
	if payment.Status != domain.PaymentStatusPending {
		t.Errorf("conflicted payment must stay pending for manual review, got %s", payment.Status)
	}

	entry := f.audits.LastEntry()
	if entry == nil || entry.Action != "payment.reconciliation_conflict" {
		t.Errorf("expected conflict audit entry, got %+v", entry)
	}
}

func TestConfirmGatewayPayment_GatewayDown_NoStateChange(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.seedRide("ride-1", domain.RideStatusAccepted, 3500)
	reference := startPayment(t, f, "ride-1")

	f.gateway.VerifyFunc = func(ctx context.Context, ref string) (*gateway.VerifyResult, error) {
		return nil, gateway.ErrUnavailable
	}

	_, err := f.paymentService.ConfirmGatewayPayment(context.Background(), reference)
	if !errors.Is(err, service.ErrGatewayUnavailable) {
		t.Fatalf("expected ErrGatewayUnavailable, got: %v", err)
	}

	pending, _ := f.payments.GetPendingByRideForUpdate(context.Background(), "ride-1")
	if pending == nil {
		t.Fatal("expected the attempt to remain pending")
	}
}

// ──────────────────────────────────────────────
// 3. CASH CONFIRMATION
// ──────────────────────────────────────────────

func TestConfirmCashPayment_Settles(t *testing.T) {
	t.Parallel()

	// Drivers collect cash at any point after accepting, so confirmation
	// must work on accepted rides too, not just in-progress or completed.
	cases := []struct {
		name   string
		status domain.RideStatus
		fare   float64
	}{
		{"accepted", domain.RideStatusAccepted, 1500},
		{"in progress", domain.RideStatusInProgress, 3500},
		{"completed", domain.RideStatusCompleted, 2000},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture()
			f.seedRide("ride-1", tc.status, tc.fare)

			payment, err := f.paymentService.ConfirmCashPayment(context.Background(), "ride-1", "driver-1")
			if err != nil {
				t.Fatalf("expected no error, got: %v", err)
			}
			if payment.Status != domain.PaymentStatusSuccess {
				t.Errorf("expected success, got %s", payment.Status)
			}
			if payment.Method != domain.PaymentMethodCash {
				t.Errorf("expected cash, got %s", payment.Method)
			}
			if payment.Amount != tc.fare {
				t.Errorf("expected amount %.2f, got %.2f", tc.fare, payment.Amount)
			}
			if !strings.HasPrefix(payment.Reference, "CS-") {
				t.Errorf("expected CS- reference, got %s", payment.Reference)
			}
			if f.rides.GetRide("ride-1").PaymentStatus != domain.RidePaymentPaid {
				t.Error("expected ride marked paid")
			}
		})
	}
}

func TestConfirmCashPayment_Repeated_Idempotent(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.seedRide("ride-1", domain.RideStatusInProgress, 3500)

	first, err := f.paymentService.ConfirmCashPayment(context.Background(), "ride-1", "driver-1")
	if err != nil {
		t.Fatalf("first confirm: %v", err)
	}
	second, err := f.paymentService.ConfirmCashPayment(context.Background(), "ride-1", "driver-1")
	if err != nil {
		t.Fatalf("second confirm: %v", err)
	}
	if second.ID != first.ID {
		t.Error("expected the settled payment back, not a new row")
	}

	payments, _ := f.payments.ListByRide(context.Background(), "ride-1")
	if len(payments) != 1 {
		t.Errorf("expected a single payment row, got %d", len(payments))
	}
}

func TestConfirmCashPayment_ConvertsOpenGatewayAttempt(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.seedRide("ride-1", domain.RideStatusInProgress, 3500)
	reference := startPayment(t, f, "ride-1")

	payment, err := f.paymentService.ConfirmCashPayment(context.Background(), "ride-1", "driver-1")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if payment.Reference != reference {
		t.Errorf("expected the open attempt to be converted, got reference %s", payment.Reference)
	}
	if payment.Method != domain.PaymentMethodCash {
		t.Errorf("expected cash, got %s", payment.Method)
	}

	payments, _ := f.payments.ListByRide(context.Background(), "ride-1")
	if len(payments) != 1 {
		t.Errorf("expected a single payment row, got %d", len(payments))
	}
}

func TestConfirmCashPayment_WrongDriver_Forbidden(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.seedRide("ride-1", domain.RideStatusInProgress, 3500)

	_, err := f.paymentService.ConfirmCashPayment(context.Background(), "ride-1", "driver-9")
	if !errors.Is(err, service.ErrNotEligible) {
		t.Errorf("expected ErrNotEligible, got: %v", err)
	}
}
