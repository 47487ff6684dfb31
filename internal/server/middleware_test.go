package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/regexvault/regexvault/internal/config"
)

func TestRateLimitMiddleware(t *testing.T) {
	s, _ := newTestServer(t)
	s.limiters = newIPLimiters(config.RateLimitConfig{
		Enabled:           true,
		RequestsPerSecond: 0.001,
		Burst:             1,
	})

	first := doRequest(t, s, http.MethodPost, "/find", findRequest{Text: "x"})
	if first.Code != http.StatusOK {
		t.Fatalf("first request status = %d, want 200", first.Code)
	}

	second := doRequest(t, s, http.MethodPost, "/find", findRequest{Text: "x"})
	if second.Code != http.StatusTooManyRequests {
		t.Errorf("second request status = %d, want 429", second.Code)
	}
}

func TestRateLimitDisabled(t *testing.T) {
	s, _ := newTestServer(t)

	for i := 0; i < 5; i++ {
		if rec := doRequest(t, s, http.MethodPost, "/find", findRequest{Text: "x"}); rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d, want 200 with limiting off", i, rec.Code)
		}
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"remote addr", nil, "192.0.2.1:1234"},
		{"x-forwarded-for", map[string]string{"X-Forwarded-For": "10.0.0.1, 10.0.0.2"}, "10.0.0.1"},
		{"x-real-ip", map[string]string{"X-Real-IP": "10.0.0.3"}, "10.0.0.3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := getClientIP(req); got != tt.want {
				t.Errorf("getClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
