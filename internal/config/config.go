package config

import (
	"os"
	"strconv"
	"time"
)

// ServiceConfig holds basic service information
type ServiceConfig struct {
	Name    string
	Version string
}

// MetricsConfig holds metrics server configuration
type MetricsConfig struct {
	Enabled bool
	Port    string
}

// NATSConfig holds NATS connection configuration.
// An empty URL starts an embedded in-process server.
type NATSConfig struct {
	URL string
}

// TracingConfig holds tracing configuration
type TracingConfig struct {
	Enabled       bool
	ServiceName   string
	ZipkinURL     string
	StdoutMetrics bool
}

// HTTPServerConfig holds HTTP server configuration
type HTTPServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// StoreConfig selects the job store backend
type StoreConfig struct {
	Backend  string // "memory" or "dynamodb"
	DynamoDB DynamoDBConfig
}

// DynamoDBConfig holds DynamoDB connection configuration
type DynamoDBConfig struct {
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	JobsTable       string
}

// AuditConfig holds audit pipeline and worker pool configuration
type AuditConfig struct {
	Workers             int
	QueueSize           int
	FetchTimeout        time.Duration
	AuxiliaryTimeout    time.Duration
	LinkTimeout         time.Duration
	LinkConcurrency     int
	LinkRPS             float64
	PageSpeedAPIKey     string
	PageSpeedTimeout    time.Duration
	AllowPrivateTargets bool
}

// WebSocketConfig holds WebSocket configuration
type WebSocketConfig struct {
	MaxConnections int
	WriteTimeout   time.Duration
}

// Config holds all configuration for the audit service
type Config struct {
	Service   ServiceConfig
	HTTP      HTTPServerConfig
	Metrics   MetricsConfig
	Tracing   TracingConfig
	NATS      NATSConfig
	Store     StoreConfig
	Audit     AuditConfig
	WebSocket WebSocketConfig
}

// Load loads the configuration for the audit service
func Load() *Config {
	return &Config{
		Service:   NewServiceConfig("seoaudit"),
		HTTP:      NewHTTPServerConfig(":8080"),
		Metrics:   NewMetricsConfig("9090"),
		Tracing:   NewTracingConfig("seoaudit"),
		NATS:      NewNATSConfig(),
		Store:     NewStoreConfig(),
		Audit:     NewAuditConfig(),
		WebSocket: NewWebSocketConfig(),
	}
}

// GetEnv gets an environment variable with a default value
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetIntEnv gets an integer environment variable with a default value
func GetIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// GetFloatEnv gets a float environment variable with a default value
func GetFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// GetDurationEnv gets a duration environment variable with a default value
func GetDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// GetBoolEnv gets a boolean environment variable with a default value
func GetBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// NewServiceConfig creates a ServiceConfig with common defaults
func NewServiceConfig(serviceName string) ServiceConfig {
	return ServiceConfig{
		Name:    GetEnv("SERVICE_NAME", serviceName),
		Version: GetEnv("SERVICE_VERSION", "1.0.0"),
	}
}

// NewMetricsConfig creates a MetricsConfig with common defaults
func NewMetricsConfig(defaultPort string) MetricsConfig {
	return MetricsConfig{
		Enabled: GetBoolEnv("METRICS_ENABLED", true),
		Port:    GetEnv("METRICS_PORT", defaultPort),
	}
}

// NewNATSConfig creates a NATSConfig with common defaults
func NewNATSConfig() NATSConfig {
	return NATSConfig{
		URL: GetEnv("NATS_URL", ""),
	}
}

// NewTracingConfig creates a TracingConfig with common defaults
func NewTracingConfig(serviceName string) TracingConfig {
	return TracingConfig{
		Enabled:       GetBoolEnv("TRACING_ENABLED", false),
		ServiceName:   GetEnv("TRACING_SERVICE_NAME", serviceName),
		ZipkinURL:     GetEnv("TRACING_ZIPKIN_URL", "http://localhost:9411/api/v2/spans"),
		StdoutMetrics: GetBoolEnv("TRACING_STDOUT_METRICS", false),
	}
}

// NewHTTPServerConfig creates an HTTPServerConfig with common defaults
func NewHTTPServerConfig(defaultAddr string) HTTPServerConfig {
	return HTTPServerConfig{
		Addr:         GetEnv("HTTP_ADDR", defaultAddr),
		ReadTimeout:  GetDurationEnv("HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout: GetDurationEnv("HTTP_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:  GetDurationEnv("HTTP_IDLE_TIMEOUT", 60*time.Second),
	}
}

// NewStoreConfig creates a StoreConfig with common defaults
func NewStoreConfig() StoreConfig {
	return StoreConfig{
		Backend:  GetEnv("STORE_BACKEND", "memory"),
		DynamoDB: NewDynamoDBConfig(),
	}
}

// NewDynamoDBConfig creates a DynamoDBConfig with local development defaults
func NewDynamoDBConfig() DynamoDBConfig {
	return DynamoDBConfig{
		Region:          GetEnv("DYNAMODB_REGION", "us-east-1"),
		Endpoint:        GetEnv("DYNAMODB_ENDPOINT", "http://localhost:8000"),
		AccessKeyID:     GetEnv("DYNAMODB_ACCESS_KEY_ID", "local"),
		SecretAccessKey: GetEnv("DYNAMODB_SECRET_ACCESS_KEY", "local"),
		JobsTable:       GetEnv("DYNAMODB_JOBS_TABLE", "seo-audit-jobs"),
	}
}

// NewAuditConfig creates an AuditConfig with the pipeline defaults
func NewAuditConfig() AuditConfig {
	return AuditConfig{
		Workers:             GetIntEnv("AUDIT_WORKERS", 4),
		QueueSize:           GetIntEnv("AUDIT_QUEUE_SIZE", 64),
		FetchTimeout:        GetDurationEnv("AUDIT_FETCH_TIMEOUT", 30*time.Second),
		AuxiliaryTimeout:    GetDurationEnv("AUDIT_AUX_TIMEOUT", 10*time.Second),
		LinkTimeout:         GetDurationEnv("AUDIT_LINK_TIMEOUT", 5*time.Second),
		LinkConcurrency:     GetIntEnv("AUDIT_LINK_CONCURRENCY", 5),
		LinkRPS:             GetFloatEnv("AUDIT_LINK_RPS", 0),
		PageSpeedAPIKey:     GetEnv("PAGESPEED_API_KEY", ""),
		PageSpeedTimeout:    GetDurationEnv("PAGESPEED_TIMEOUT", 60*time.Second),
		AllowPrivateTargets: GetBoolEnv("ALLOW_PRIVATE_TARGETS", false),
	}
}

// NewWebSocketConfig creates a WebSocketConfig with common defaults
func NewWebSocketConfig() WebSocketConfig {
	return WebSocketConfig{
		MaxConnections: GetIntEnv("WS_MAX_CONNECTIONS", 1000),
		WriteTimeout:   GetDurationEnv("WS_WRITE_TIMEOUT", 10*time.Second),
	}
}
