package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/regexvault/regexvault/internal/engine"
	"github.com/regexvault/regexvault/internal/events"
	"github.com/regexvault/regexvault/internal/rules"
)

type findRequest struct {
	Text       string      `json:"text"`
	Namespaces []string    `json:"namespaces,omitempty"`
	Options    findOptions `json:"options"`
}

type findOptions struct {
	AllowOverlaps      bool `json:"allow_overlaps"`
	IncludeMatchedText bool `json:"include_matched_text"`
}

type hit struct {
	NsID      string         `json:"ns_id"`
	PatternID string         `json:"pattern_id"`
	Namespace string         `json:"namespace"`
	Category  rules.Category `json:"category"`
	Span      [2]int         `json:"span"`
	Match     string         `json:"match,omitempty"`
	Severity  rules.Severity `json:"severity"`
}

type findResponse struct {
	Hits               []hit    `json:"hits"`
	Count              int      `json:"count"`
	NamespacesSearched []string `json:"namespaces_searched"`
}

type validateRequest struct {
	Text string `json:"text"`
	NsID string `json:"ns_id"`
}

type validateResponse struct {
	OK   bool   `json:"ok"`
	NsID string `json:"ns_id"`
}

type redactRequest struct {
	Text       string   `json:"text"`
	Namespaces []string `json:"namespaces,omitempty"`
	Strategy   string   `json:"strategy,omitempty"`
}

type redactResponse struct {
	Text           string `json:"text"`
	RedactionCount int    `json:"redaction_count"`
	Strategy       string `json:"strategy"`
}

type healthResponse struct {
	Status         string   `json:"status"`
	Version        string   `json:"version"`
	PatternsLoaded int      `json:"patterns_loaded"`
	Namespaces     []string `json:"namespaces"`
}

type reloadResponse struct {
	Status         string `json:"status"`
	Version        int64  `json:"version"`
	PatternsLoaded int    `json:"patterns_loaded"`
}

// handleFind finds PII in text.
func (s *Server) handleFind(w http.ResponseWriter, r *http.Request) {
	var req findRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	eng := s.service.Engine()

	var cacheKey string
	if s.cache != nil {
		cacheKey = s.cache.Key("find", eng.Registry().Version(), req.Text, req.Namespaces,
			strconv.FormatBool(req.Options.AllowOverlaps),
			strconv.FormatBool(req.Options.IncludeMatchedText))
		if payload, ok := s.cache.Get(r.Context(), cacheKey); ok {
			writeRaw(w, http.StatusOK, payload)
			return
		}
	}

	start := time.Now()
	result := eng.Find(req.Text, req.Namespaces, engine.FindOptions{
		AllowOverlaps:      req.Options.AllowOverlaps,
		IncludeMatchedText: req.Options.IncludeMatchedText,
	})

	hits := make([]hit, 0, len(result.Matches))
	for _, m := range result.Matches {
		s.metrics.PatternMatches.WithLabelValues(m.Namespace, m.PatternID).Inc()
		hits = append(hits, hit{
			NsID:      m.FullID,
			PatternID: m.PatternID,
			Namespace: m.Namespace,
			Category:  m.Category,
			Span:      [2]int{m.Start, m.End},
			Match:     m.MatchedText,
			Severity:  m.Severity,
		})
	}

	payload, err := json.Marshal(findResponse{
		Hits:               hits,
		Count:              result.MatchCount(),
		NamespacesSearched: result.NamespacesSearched,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if s.cache != nil {
		_ = s.cache.Set(r.Context(), cacheKey, payload)
	}
	writeRaw(w, http.StatusOK, payload)

	s.broadcastDetection(r, "find", result.NamespacesSearched, result.MatchCount(), time.Since(start))
}

// handleValidate validates text against one pattern; unknown patterns are
// a 404, not a server error.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	result, err := s.service.Engine().Validate(req.Text, req.NsID)
	if err != nil {
		var notFound *rules.NotFoundError
		if errors.As(err, &notFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, validateResponse{OK: result.IsValid, NsID: req.NsID})
}

// handleRedact redacts PII from text.
func (s *Server) handleRedact(w http.ResponseWriter, r *http.Request) {
	var req redactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	strategy, err := engine.ParseStrategy(req.Strategy)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	eng := s.service.Engine()

	var cacheKey string
	if s.cache != nil {
		cacheKey = s.cache.Key("redact", eng.Registry().Version(), req.Text, req.Namespaces, string(strategy))
		if payload, ok := s.cache.Get(r.Context(), cacheKey); ok {
			writeRaw(w, http.StatusOK, payload)
			return
		}
	}

	start := time.Now()
	result := eng.Redact(req.Text, req.Namespaces, strategy, false)

	for _, m := range result.Matches {
		s.metrics.PatternMatches.WithLabelValues(m.Namespace, m.PatternID).Inc()
	}

	payload, err := json.Marshal(redactResponse{
		Text:           result.RedactedText,
		RedactionCount: result.RedactionCount,
		Strategy:       string(result.Strategy),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if s.cache != nil {
		_ = s.cache.Set(r.Context(), cacheKey, payload)
	}
	writeRaw(w, http.StatusOK, payload)

	s.broadcastDetection(r, "redact", req.Namespaces, result.RedactionCount, time.Since(start))
}

// handleHealth reports service liveness and registry shape.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	registry := s.service.Engine().Registry()
	writeJSON(w, http.StatusOK, healthResponse{
		Status:         "healthy",
		Version:        serviceVersion,
		PatternsLoaded: registry.Len(),
		Namespaces:     registry.Namespaces(),
	})
}

// handleReload re-runs the load path and publishes the new registry on
// success. A failed reload leaves the active registry serving.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	status, err := s.service.Reload()
	if err != nil {
		s.metrics.Reloads.WithLabelValues("error").Inc()
		writeError(w, http.StatusInternalServerError, "reload failed: "+err.Error())
		return
	}
	s.metrics.Reloads.WithLabelValues("ok").Inc()

	if s.hub != nil {
		s.hub.BroadcastEvent(events.Event{
			Type:      events.EventTypeReload,
			Timestamp: time.Now(),
			Data: events.ReloadEvent{
				Version:    status.Version,
				Patterns:   status.Patterns,
				Namespaces: status.Namespaces,
			},
		})
	}

	writeJSON(w, http.StatusOK, reloadResponse{
		Status:         "ok",
		Version:        status.Version,
		PatternsLoaded: status.Patterns,
	})
}

// broadcastDetection pushes a detection summary to stream clients. Counts
// and identifiers only; matched text never leaves the handler.
func (s *Server) broadcastDetection(r *http.Request, op string, namespaces []string, matchCount int, d time.Duration) {
	if s.hub == nil || matchCount == 0 {
		return
	}
	requestID := getRequestID(r.Context())
	s.hub.BroadcastEvent(events.Event{
		Type:      events.EventTypeDetection,
		Timestamp: time.Now(),
		RequestID: requestID,
		Data: events.DetectionEvent{
			RequestID:  requestID,
			Operation:  op,
			Namespaces: namespaces,
			MatchCount: matchCount,
			DurationMS: float64(d.Nanoseconds()) / 1e6,
		},
	})
	s.logger.WithRequestID(requestID).Info("PII detected",
		zap.String("operation", op),
		zap.Int("match_count", matchCount),
	)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeRaw(w http.ResponseWriter, status int, payload []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
