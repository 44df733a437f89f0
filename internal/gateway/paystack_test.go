package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestPaystackInitialize_SendsAuthAndPayload(t *testing.T) {
	t.Parallel()

	var gotAuth string
	var gotBody initializePayload

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if r.URL.Path != "/transaction/initialize" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": true,
			"data":   map[string]any{"authorization_url": "https://checkout.paystack.com/abc"},
		})
	}))
	defer srv.Close()

	client := NewPaystackClient(srv.URL, "sk_test_123")
	url, err := client.Initialize(context.Background(), InitializeRequest{
		AmountKobo: 350000,
		Email:      "rider@example.com",
		Reference:  "PS-TEST",
	})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if url != "https://checkout.paystack.com/abc" {
		t.Errorf("unexpected authorization url %s", url)
	}
	if gotAuth != "Bearer sk_test_123" {
		t.Errorf("expected bearer auth, got %q", gotAuth)
	}
	if gotBody.Amount != 350000 || gotBody.Reference != "PS-TEST" {
		t.Errorf("unexpected payload %+v", gotBody)
	}
}

func TestPaystackVerify_MapsStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transaction/verify/PS-TEST" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": true,
			"data":   map[string]any{"status": "success", "amount": 350000},
		})
	}))
	defer srv.Close()

	client := NewPaystackClient(srv.URL, "sk_test_123")
	result, err := client.Verify(context.Background(), "PS-TEST")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if !result.Success || result.AmountKobo != 350000 {
		t.Errorf("unexpected result %+v", result)
	}
}

func TestPaystackVerify_AbandonedIsNotSuccess(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": true,
			"data":   map[string]any{"status": "abandoned", "amount": 0},
		})
	}))
	defer srv.Close()

	client := NewPaystackClient(srv.URL, "sk_test_123")
	result, err := client.Verify(context.Background(), "PS-TEST")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if result.Success {
		t.Error("abandoned transaction must not report success")
	}
}

func TestPaystack_ServerError_Unavailable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewPaystackClient(srv.URL, "sk_test_123")
	_, err := client.Verify(context.Background(), "PS-TEST")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got: %v", err)
	}
}

func TestPaystack_NoSecretKey_NotConfigured(t *testing.T) {
	t.Parallel()

	client := NewPaystackClient("https://api.paystack.co", "")

	if _, err := client.Initialize(context.Background(), InitializeRequest{}); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("initialize: expected ErrNotConfigured, got: %v", err)
	}
	if _, err := client.Verify(context.Background(), "PS-TEST"); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("verify: expected ErrNotConfigured, got: %v", err)
	}
}
