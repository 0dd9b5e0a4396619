// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import "time"

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server    ServerConfig
	Upload    UploadConfig
	Generator GeneratorConfig
	Output    OutputConfig
	Payload   PayloadConfig
	Rate      RateLimitConfig
	Security  SecurityConfig
	Logging   LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 0, generation can be slow)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"0s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 5m)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"5m"`
}

// UploadConfig holds packing list upload settings.
type UploadConfig struct {
	// MaxFileSize is the maximum allowed spreadsheet size in bytes (default: 20MB)
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" default:"20971520"`

	// MaxConcurrent is the maximum number of generator processes running at once (default: 2)
	MaxConcurrent int `env:"UPLOAD_MAX_CONCURRENT" default:"2"`

	// MaxWaitTime is how long a submission waits for a generator slot (default: 30s)
	MaxWaitTime time.Duration `env:"UPLOAD_MAX_WAIT_TIME" default:"30s"`

	// HeaderSearchRows is how many leading rows are inspected for the header (default: 20)
	HeaderSearchRows int `env:"UPLOAD_HEADER_SEARCH_ROWS" default:"20"`
}

// GeneratorConfig describes the external form generator invocation.
type GeneratorConfig struct {
	// Interpreter runs the generator script (default: python3)
	Interpreter string `env:"GENERATOR_INTERPRETER" default:"python3"`

	// Script is the multi-file generator script.
	Script string `env:"GENERATOR_SCRIPT" default:"code/pdf_writer/pdf_writer_multi.py"`

	// LegacyScript is the single-file generator used when Script is missing.
	LegacyScript string `env:"GENERATOR_LEGACY_SCRIPT" default:"code/pdf_writer/pdf_writer.py"`

	// Template is the blank form handed to the generator.
	Template string `env:"GENERATOR_TEMPLATE" default:"code/pdf_writer/CBP_Form_7501.pdf"`

	// WorkDir holds transient payload files (default: OS temp dir)
	WorkDir string `env:"GENERATOR_WORK_DIR"`

	// Prefix is the file name prefix the generator gives its artifacts.
	Prefix string `env:"GENERATOR_ARTIFACT_PREFIX" default:"CBP_Form_7501"`

	// SuccessPhrase marks the artifact listing in the generator's stdout.
	SuccessPhrase string `env:"GENERATOR_SUCCESS_PHRASE" default:"Successfully generated"`

	// Timeout bounds a single generator run; 0 disables it (default: 0)
	Timeout time.Duration `env:"GENERATOR_TIMEOUT" default:"0s"`
}

// OutputConfig holds artifact directory settings.
type OutputConfig struct {
	// Dir is where the generator writes artifacts (default: output)
	Dir string `env:"OUTPUT_DIR" envAlt:"PDF_OUTPUT_DIR" default:"output"`

	// SamplePath is a pre-built artifact used when nothing was generated.
	SamplePath string `env:"OUTPUT_SAMPLE_PATH"`

	// SampleName is the name the sample is copied to inside Dir.
	SampleName string `env:"OUTPUT_SAMPLE_NAME" default:"sample_completed_form.pdf"`

	// FallbackName is the single file written by the legacy generator.
	FallbackName string `env:"OUTPUT_FALLBACK_NAME" default:"completed_form.pdf"`

	// Retention removes artifacts and submissions older than this; 0 keeps everything (default: 0)
	Retention time.Duration `env:"OUTPUT_RETENTION" default:"0s"`

	// CleanupInterval is how often the retention sweep runs (default: 1h)
	CleanupInterval time.Duration `env:"OUTPUT_CLEANUP_INTERVAL" default:"1h"`
}

// PayloadConfig holds defaults for payload fields the packing list does not carry.
type PayloadConfig struct {
	CountryOfOrigin string `env:"PAYLOAD_COUNTRY_OF_ORIGIN" default:"CN"`
	BasicDutyRate   string `env:"PAYLOAD_BASIC_DUTY_RATE" default:"0"`
	Section301Rate  string `env:"PAYLOAD_SECTION_301_RATE" default:"20"`
	OtherRate       string `env:"PAYLOAD_OTHER_RATE" default:"145"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// SubmitLimit is requests per minute for generation endpoints (default: 10)
	SubmitLimit int `env:"RATE_LIMIT_SUBMIT" default:"10"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`

	// RequireAPIKey gates /api routes behind X-API-Key (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted keys
	APIKeys []string `env:"API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	if c.Host == "" {
		return ":" + itoa(c.Port)
	}
	return c.Host + ":" + itoa(c.Port)
}

// itoa converts an int to string without importing strconv in this file.
func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	var b [20]byte
	n := len(b)
	neg := i < 0
	if neg {
		i = -i
	}
	for i > 0 {
		n--
		b[n] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		n--
		b[n] = '-'
	}
	return string(b[n:])
}
