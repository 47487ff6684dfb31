package config

import "time"

// Config represents the main configuration structure.
type Config struct {
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Registry  RegistryConfig  `yaml:"registry" mapstructure:"registry"`
	Redaction RedactionConfig `yaml:"redaction" mapstructure:"redaction"`
	Cache     CacheConfig     `yaml:"cache" mapstructure:"cache"`
	WebSocket WebSocketConfig `yaml:"websocket" mapstructure:"websocket"`
	Logging   LoggingConfig   `yaml:"logging" mapstructure:"logging"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Host         string          `yaml:"host" mapstructure:"host"`
	Port         int             `yaml:"port" mapstructure:"port"`
	ReadTimeout  time.Duration   `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration   `yaml:"write_timeout" mapstructure:"write_timeout"`
	IdleTimeout  time.Duration   `yaml:"idle_timeout" mapstructure:"idle_timeout"`
	RateLimit    RateLimitConfig `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// RateLimitConfig contains per-client request throttling configuration.
type RateLimitConfig struct {
	Enabled           bool    `yaml:"enabled" mapstructure:"enabled"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int     `yaml:"burst" mapstructure:"burst"`
}

// RegistryConfig controls where pattern files come from and how strictly
// they are validated.
type RegistryConfig struct {
	Paths            []string      `yaml:"paths" mapstructure:"paths"`
	SchemaPath       string        `yaml:"schema_path" mapstructure:"schema_path"`
	ValidateSchema   bool          `yaml:"validate_schema" mapstructure:"validate_schema"`
	ValidateExamples bool          `yaml:"validate_examples" mapstructure:"validate_examples"`
	AutoReload       bool          `yaml:"auto_reload" mapstructure:"auto_reload"`
	ReloadDebounce   time.Duration `yaml:"reload_debounce" mapstructure:"reload_debounce"`
}

// RedactionConfig sets engine-wide redaction defaults.
type RedactionConfig struct {
	MaskChar      string `yaml:"mask_char" mapstructure:"mask_char"`
	HashAlgorithm string `yaml:"hash_algorithm" mapstructure:"hash_algorithm"`
}

// CacheConfig contains the optional Redis result cache configuration.
type CacheConfig struct {
	Enabled        bool          `yaml:"enabled" mapstructure:"enabled"`
	RedisURL       string        `yaml:"redis_url" mapstructure:"redis_url"`
	MaxConnections int           `yaml:"max_connections" mapstructure:"max_connections"`
	MinIdleConns   int           `yaml:"min_idle_conns" mapstructure:"min_idle_conns"`
	DefaultTTL     time.Duration `yaml:"default_ttl" mapstructure:"default_ttl"`
	KeyPrefix      string        `yaml:"key_prefix" mapstructure:"key_prefix"`
}

// WebSocketConfig contains the detection event stream configuration.
type WebSocketConfig struct {
	Enabled         bool  `yaml:"enabled" mapstructure:"enabled"`
	ReadBufferSize  int   `yaml:"read_buffer_size" mapstructure:"read_buffer_size"`
	WriteBufferSize int   `yaml:"write_buffer_size" mapstructure:"write_buffer_size"`
	MaxMessageSize  int64 `yaml:"max_message_size" mapstructure:"max_message_size"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // json or console
	File   struct {
		Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
		Path    string `yaml:"path" mapstructure:"path"`
	} `yaml:"file" mapstructure:"file"`
}

// GetDefaults returns a configuration with sensible defaults.
func GetDefaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled:           false,
				RequestsPerSecond: 50,
				Burst:             100,
			},
		},
		Registry: RegistryConfig{
			Paths: []string{
				"patterns/common.yml",
				"patterns/kr.yml",
				"patterns/us.yml",
			},
			SchemaPath:       "schemas/pattern-schema.json",
			ValidateSchema:   true,
			ValidateExamples: true,
			AutoReload:       false,
			ReloadDebounce:   500 * time.Millisecond,
		},
		Redaction: RedactionConfig{
			MaskChar:      "*",
			HashAlgorithm: "sha256",
		},
		Cache: CacheConfig{
			Enabled:        false,
			RedisURL:       "redis://localhost:6379/0",
			MaxConnections: 10,
			MinIdleConns:   2,
			DefaultTTL:     5 * time.Minute,
			KeyPrefix:      "regexvault",
		},
		WebSocket: WebSocketConfig{
			Enabled:         true,
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			MaxMessageSize:  512,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}
