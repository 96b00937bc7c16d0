package authority

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storegate/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(Config{
		BaseURL:    server.URL,
		APIKey:     "api-key",
		LicenseKey: "license-key",
		Timeout:    time.Second,
	})
}

func TestCheckTrustedResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/licenses/verify" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer api-key" {
			t.Errorf("missing bearer token, got %q", got)
		}
		var req struct {
			Domain string `json:"domain"`
			Key    string `json:"key"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Domain != "shop.example.com" || req.Key != "license-key" {
			t.Errorf("unexpected request body %+v", req)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"valid":             true,
			"globally_verified": true,
			"client": map[string]any{
				"company_name":        "Acme",
				"account_status":      "active",
				"subscription_status": "active",
			},
		})
	})

	result := client.Check(context.Background(), "Shop.Example.com")
	if !result.Trusted() || result.Reason != domain.ReasonOK {
		t.Fatalf("expected trusted result, got %+v", result)
	}
	if result.Domain != "shop.example.com" {
		t.Fatalf("domain not normalized: %q", result.Domain)
	}
	if result.Client == nil || result.Client.CompanyName != "Acme" {
		t.Fatalf("client snapshot missing: %+v", result.Client)
	}
}

func TestCheckStatusClassification(t *testing.T) {
	cases := []struct {
		name       string
		status     int
		body       string
		wantReason domain.ReasonCode
	}{
		{name: "unknown key", status: http.StatusNotFound, body: `{}`, wantReason: domain.ReasonKeyInvalid},
		{name: "domain mismatch", status: http.StatusForbidden, body: `{"reason_code":"domain_mismatch"}`, wantReason: domain.ReasonDomainMismatch},
		{name: "forbidden default", status: http.StatusForbidden, body: `{}`, wantReason: domain.ReasonDomainMismatch},
		{name: "account inactive", status: http.StatusForbidden, body: `{"reason_code":"status_inactive"}`, wantReason: domain.ReasonStatusInactive},
		{name: "subscription inactive", status: http.StatusPaymentRequired, body: `{}`, wantReason: domain.ReasonSubscriptionInactive},
		{name: "subscription expired", status: http.StatusPaymentRequired, body: `{"reason_code":"subscription_expired"}`, wantReason: domain.ReasonSubscriptionExpired},
		{name: "server error", status: http.StatusInternalServerError, body: `{}`, wantReason: domain.ReasonUnreachable},
		{name: "bad gateway", status: http.StatusBadGateway, body: ``, wantReason: domain.ReasonUnreachable},
		{name: "ok invalid with reason", status: http.StatusOK, body: `{"valid":false,"reason_code":"subscription_inactive"}`, wantReason: domain.ReasonSubscriptionInactive},
		{name: "ok invalid no reason", status: http.StatusOK, body: `{"valid":false}`, wantReason: domain.ReasonKeyInvalid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			})
			result := client.Check(context.Background(), "shop.example.com")
			if result.Reason != tc.wantReason {
				t.Fatalf("reason = %s, want %s", result.Reason, tc.wantReason)
			}
			if result.Trusted() {
				t.Fatal("failure classification must never be trusted")
			}
		})
	}
}

func TestCheckMalformedSuccessBodyIsUnreachable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"valid": tru`))
	})
	result := client.Check(context.Background(), "shop.example.com")
	if result.Reason != domain.ReasonUnreachable {
		t.Fatalf("malformed 200 body must classify unreachable, got %s", result.Reason)
	}
}

func TestCheckNetworkFailureIsUnreachableNeverKeyInvalid(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()
	client := New(Config{BaseURL: server.URL, LicenseKey: "license-key", Timeout: 200 * time.Millisecond})

	result := client.Check(context.Background(), "shop.example.com")
	if result.Reason != domain.ReasonUnreachable {
		t.Fatalf("connection failure must classify unreachable, got %s", result.Reason)
	}
}

func TestCheckTimeoutIsUnreachable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	result := client.Check(ctx, "shop.example.com")
	if result.Reason != domain.ReasonUnreachable {
		t.Fatalf("timeout must classify unreachable, got %s", result.Reason)
	}
}

func TestCheckEmptyDomain(t *testing.T) {
	client := New(Config{BaseURL: "http://authority.invalid"})
	result := client.Check(context.Background(), "  ")
	if result.Reason != domain.ReasonUnreachable || result.Valid {
		t.Fatalf("empty domain must come back unreachable, got %+v", result)
	}
}
