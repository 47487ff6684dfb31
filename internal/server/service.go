package server

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/regexvault/regexvault/internal/config"
	"github.com/regexvault/regexvault/internal/engine"
	"github.com/regexvault/regexvault/internal/logger"
	"github.com/regexvault/regexvault/internal/rules"
)

// Service owns the current engine snapshot. Requests read the snapshot
// through an atomic pointer; Reload builds a replacement registry fully
// off to the side and publishes it only when the load succeeds, so
// in-flight requests always observe either the old or the new registry,
// never a partially populated one.
type Service struct {
	cfg    *config.Config
	logger *logger.Logger
	engine atomic.Pointer[engine.Engine]
	mu     sync.Mutex // serializes reloads
}

// ReloadStatus summarizes a successful load generation.
type ReloadStatus struct {
	Version    int64
	Patterns   int
	Namespaces []string
}

// NewService loads the configured pattern files and returns a serving
// service. The initial load must succeed.
func NewService(cfg *config.Config, log *logger.Logger) (*Service, error) {
	s := &Service{cfg: cfg, logger: log}
	if _, err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Engine returns the current snapshot.
func (s *Service) Engine() *engine.Engine {
	return s.engine.Load()
}

// Reload re-runs the load path. On failure the previously active registry
// keeps serving and the error is returned to whoever triggered the reload.
func (s *Service) Reload() (*ReloadStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	opts := rules.LoadOptions{
		SchemaPath:       s.cfg.Registry.SchemaPath,
		ValidateSchema:   s.cfg.Registry.ValidateSchema,
		ValidateExamples: s.cfg.Registry.ValidateExamples,
	}

	registry, err := rules.LoadAll(s.cfg.Registry.Paths, opts, s.logger.Logger)
	if err != nil {
		s.logger.Error("Pattern reload failed, keeping active registry", zap.Error(err))
		return nil, err
	}

	eng := engine.New(registry,
		engine.WithMaskChar(s.cfg.Redaction.MaskChar),
		engine.WithHashAlgorithm(s.cfg.Redaction.HashAlgorithm),
	)
	s.engine.Store(eng)

	status := &ReloadStatus{
		Version:    registry.Version(),
		Patterns:   registry.Len(),
		Namespaces: registry.Namespaces(),
	}
	s.logger.Info("Pattern registry published",
		zap.Int64("version", status.Version),
		zap.Int("patterns", status.Patterns),
		zap.Strings("namespaces", status.Namespaces),
	)
	return status, nil
}
