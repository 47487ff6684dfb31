package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/regexvault/regexvault/internal/config"
	"github.com/regexvault/regexvault/internal/logger"
)

const krDoc = `namespace: kr
patterns:
  - id: mobile_01
    location: kr
    category: phone
    pattern: '01[016789]-?[0-9]{3,4}-?[0-9]{4}'
    mask: '***-****-****'
    policy:
      store_raw: false
      severity: high
`

const krDocExtended = krDoc + `  - id: landline_01
    location: kr
    category: phone
    pattern: '0[2-6][0-9]?-?[0-9]{3,4}-?[0-9]{4}'
`

const krDocBroken = `namespace: kr
patterns:
  - id: mobile_01
    location: kr
    category: phone
    pattern: '(unclosed'
`

const commonDoc = `namespace: common
patterns:
  - id: email_01
    location: intl
    category: email
    pattern: '[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}'
    policy:
      store_raw: true
`

func writeDoc(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

// newTestServer builds a server over a temp pattern catalog, with cache
// and event stream off and a private metrics registry.
func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	dir := t.TempDir()

	krPath := filepath.Join(dir, "kr.yml")
	commonPath := filepath.Join(dir, "common.yml")
	writeDoc(t, krPath, krDoc)
	writeDoc(t, commonPath, commonDoc)

	cfg := config.GetDefaults()
	cfg.Registry.Paths = []string{krPath, commonPath}
	cfg.Registry.SchemaPath = ""
	cfg.Cache.Enabled = false
	cfg.WebSocket.Enabled = false

	service, err := NewService(cfg, logger.Nop())
	if err != nil {
		t.Fatalf("NewService() failed: %v", err)
	}

	s := &Server{
		config:  cfg,
		logger:  logger.Nop(),
		service: service,
		router:  mux.NewRouter(),
		metrics: NewMetrics("regexvault", prometheus.NewRegistry()),
	}
	s.setupRoutes()
	return s, krPath
}

func doRequest(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestFindEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/find", findRequest{Text: "Call 010-1234-5678"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	resp := decodeBody[findResponse](t, rec)
	if resp.Count != 1 || len(resp.Hits) != 1 {
		t.Fatalf("count = %d, hits = %d, want 1 each", resp.Count, len(resp.Hits))
	}
	h := resp.Hits[0]
	if h.NsID != "kr/mobile_01" {
		t.Errorf("ns_id = %q, want kr/mobile_01", h.NsID)
	}
	if h.Span != [2]int{5, 18} {
		t.Errorf("span = %v, want [5 18]", h.Span)
	}
	if h.Match != "" {
		t.Errorf("match = %q, want empty without include_matched_text", h.Match)
	}
	if len(resp.NamespacesSearched) != 2 {
		t.Errorf("namespaces_searched = %v, want both catalogs", resp.NamespacesSearched)
	}
}

func TestFindEndpointIncludeMatchedText(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/find", findRequest{
		Text:    "a@b.com 010-1234-5678",
		Options: findOptions{IncludeMatchedText: true},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	resp := decodeBody[findResponse](t, rec)
	if resp.Count != 2 {
		t.Fatalf("count = %d, want 2: %s", resp.Count, rec.Body.String())
	}
	for _, h := range resp.Hits {
		switch h.NsID {
		case "common/email_01":
			if h.Match != "a@b.com" {
				t.Errorf("email match = %q, want raw value (store_raw: true)", h.Match)
			}
		case "kr/mobile_01":
			if h.Match != "" {
				t.Errorf("mobile match = %q, want empty (store_raw: false)", h.Match)
			}
		default:
			t.Errorf("unexpected hit %s", h.NsID)
		}
	}
}

func TestFindEndpointBadBody(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/find", bytes.NewBufferString("{nope"))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestValidateEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	t.Run("valid", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodPost, "/validate", validateRequest{Text: "010-1234-5678", NsID: "kr/mobile_01"})
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		resp := decodeBody[validateResponse](t, rec)
		if !resp.OK || resp.NsID != "kr/mobile_01" {
			t.Errorf("response = %+v, want ok for a full match", resp)
		}
	})

	t.Run("invalid", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodPost, "/validate", validateRequest{Text: "call 010-1234-5678", NsID: "kr/mobile_01"})
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if resp := decodeBody[validateResponse](t, rec); resp.OK {
			t.Error("ok = true for embedded value, want false")
		}
	})

	t.Run("unknown pattern", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodPost, "/validate", validateRequest{Text: "x", NsID: "kr/nope_99"})
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})
}

func TestRedactEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/redact", redactRequest{Text: "Call 010-1234-5678", Strategy: "mask"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	resp := decodeBody[redactResponse](t, rec)
	if resp.Text != "Call ***-****-****" {
		t.Errorf("text = %q, want masked output", resp.Text)
	}
	if resp.RedactionCount != 1 || resp.Strategy != "mask" {
		t.Errorf("response = %+v, want one masked span", resp)
	}
}

func TestRedactEndpointDefaultsToMask(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/redact", redactRequest{Text: "Call 010-1234-5678"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if resp := decodeBody[redactResponse](t, rec); resp.Strategy != "mask" {
		t.Errorf("strategy = %q, want mask by default", resp.Strategy)
	}
}

func TestRedactEndpointUnknownStrategy(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/redact", redactRequest{Text: "x", Strategy: "rot13"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHealthEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	resp := decodeBody[healthResponse](t, rec)
	if resp.Status != "healthy" {
		t.Errorf("status = %q, want healthy", resp.Status)
	}
	if resp.PatternsLoaded != 2 {
		t.Errorf("patterns_loaded = %d, want 2", resp.PatternsLoaded)
	}
	if len(resp.Namespaces) != 2 {
		t.Errorf("namespaces = %v, want [kr common]", resp.Namespaces)
	}
}

func TestReloadEndpoint(t *testing.T) {
	s, krPath := newTestServer(t)

	writeDoc(t, krPath, krDocExtended)

	rec := doRequest(t, s, http.MethodPost, "/reload", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	resp := decodeBody[reloadResponse](t, rec)
	if resp.Status != "ok" || resp.PatternsLoaded != 3 {
		t.Errorf("response = %+v, want 3 patterns after reload", resp)
	}

	health := decodeBody[healthResponse](t, doRequest(t, s, http.MethodGet, "/health", nil))
	if health.PatternsLoaded != 3 {
		t.Errorf("patterns_loaded = %d after reload, want 3", health.PatternsLoaded)
	}
}

func TestReloadFailureKeepsActiveRegistry(t *testing.T) {
	s, krPath := newTestServer(t)

	writeDoc(t, krPath, krDocBroken)

	rec := doRequest(t, s, http.MethodPost, "/reload", nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500 for broken catalog", rec.Code)
	}

	// The previously published registry keeps serving.
	find := doRequest(t, s, http.MethodPost, "/find", findRequest{Text: "Call 010-1234-5678"})
	if find.Code != http.StatusOK {
		t.Fatalf("find status = %d after failed reload, want 200", find.Code)
	}
	if resp := decodeBody[findResponse](t, find); resp.Count != 1 {
		t.Errorf("count = %d after failed reload, want 1", resp.Count)
	}

	health := decodeBody[healthResponse](t, doRequest(t, s, http.MethodGet, "/health", nil))
	if health.PatternsLoaded != 2 {
		t.Errorf("patterns_loaded = %d after failed reload, want 2", health.PatternsLoaded)
	}
}
