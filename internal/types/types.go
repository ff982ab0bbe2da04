package types

import (
	"time"
)

// ErrorType represents the type of error that occurred
type ErrorType string

const (
	ErrorTypeNetworkTimeout ErrorType = "network_timeout"
	ErrorTypeTimeout        ErrorType = "timeout"
	ErrorTypeRateLimit      ErrorType = "rate_limit"
	ErrorTypeValidation     ErrorType = "validation"
	ErrorTypeAuthentication ErrorType = "authentication"
	ErrorTypeTLS            ErrorType = "tls"
	ErrorTypeNotFound       ErrorType = "not_found"
	ErrorTypeResponse       ErrorType = "response"
	ErrorTypeUnknown        ErrorType = "unknown"
)

// Backend names the client library used to talk to a cluster.
type Backend string

const (
	BackendElasticsearch Backend = "elasticsearch"
	BackendOpenSearch    Backend = "opensearch"
)

// Side identifies one of the two clusters taking part in replication.
type Side string

const (
	SideWest Side = "west"
	SideEast Side = "east"
)

// Config represents the ccrcheck configuration
type Config struct {
	// West (leader) cluster
	WestEndpoint  string `json:"west_endpoint" env:"CCR_WEST_ENDPOINT,default=https://172.18.0.5:9200"`
	WestUsername  string `json:"west_username" env:"CCR_WEST_USERNAME,default=elastic"`
	WestPassword  string `json:"-" env:"CCR_WEST_PASSWORD,default=elastic"`
	WestCACert    string `json:"west_ca_cert" env:"CCR_WEST_CA_CERT,default=../../west/west-http-ca.crt"`
	WestIndex     string `json:"west_index" env:"CCR_WEST_INDEX,default=west_ccr"`
	WestBackend   string `json:"west_backend" env:"CCR_WEST_BACKEND,default=elasticsearch"`
	WestAWSRegion string `json:"west_aws_region" env:"CCR_WEST_AWS_REGION"`

	// East (follower) cluster
	EastEndpoint  string `json:"east_endpoint" env:"CCR_EAST_ENDPOINT,default=https://192.168.20.2:9200"`
	EastUsername  string `json:"east_username" env:"CCR_EAST_USERNAME,default=elastic"`
	EastPassword  string `json:"-" env:"CCR_EAST_PASSWORD,default=elastic"`
	EastCACert    string `json:"east_ca_cert" env:"CCR_EAST_CA_CERT,default=../../east/east-ca.crt"`
	EastIndex     string `json:"east_index" env:"CCR_EAST_INDEX,default=east_ccr"`
	EastBackend   string `json:"east_backend" env:"CCR_EAST_BACKEND,default=elasticsearch"`
	EastAWSRegion string `json:"east_aws_region" env:"CCR_EAST_AWS_REGION"`

	// Query shape
	SortField  string `json:"sort_field" env:"CCR_SORT_FIELD,default=release_date"`
	SortOrder  string `json:"sort_order" env:"CCR_SORT_ORDER,default=asc"`
	ResultSize int    `json:"result_size" env:"CCR_RESULT_SIZE,default=10"`

	// Cross-cluster search
	CCSIndicesStr string   `json:"-" env:"CCS_INDICES,default=west_ccs|east_remote:east_ccs"`
	CCSIndices    []string `json:"ccs_indices"`
	CCSRangeField string   `json:"ccs_range_field" env:"CCS_RANGE_FIELD,default=release_date"`
	CCSRangeGTE   string   `json:"ccs_range_gte" env:"CCS_RANGE_GTE,default=1985"`

	// Transport
	CABaseDir       string        `json:"ca_base_dir" env:"CCR_CA_BASE_DIR"`
	InsecureSkipTLS bool          `json:"insecure_skip_tls" env:"CCR_INSECURE_SKIP_TLS,default=false"`
	RequestTimeout  time.Duration `json:"request_timeout" env:"CCR_REQUEST_TIMEOUT,default=30s"`
	RateLimit       float64       `json:"rate_limit" env:"CCR_RATE_LIMIT,default=10.0"`
	RateBurst       int           `json:"rate_burst" env:"CCR_RATE_BURST,default=20"`
	MaxRetries      int           `json:"max_retries" env:"CCR_MAX_RETRIES,default=0"`
	RetryDelay      time.Duration `json:"retry_delay" env:"CCR_RETRY_DELAY,default=1s"`

	// Logging
	LogLevel string `json:"log_level" env:"CCRCHECK_LOG_LEVEL,default=info"`
	LogFile  string `json:"log_file" env:"CCRCHECK_LOG_FILE"`

	// OpenTelemetry configuration
	OTelEnabled              bool    `json:"otel_enabled" env:"OTEL_ENABLED,default=false"`
	OTelServiceName          string  `json:"otel_service_name" env:"OTEL_SERVICE_NAME,default=ccrcheck"`
	OTelExporterOTLPEndpoint string  `json:"otel_exporter_otlp_endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTelExporterOTLPProtocol string  `json:"otel_exporter_otlp_protocol" env:"OTEL_EXPORTER_OTLP_PROTOCOL,default=http/protobuf"`
	OTelResourceAttributes   string  `json:"otel_resource_attributes" env:"OTEL_RESOURCE_ATTRIBUTES"`
	OTelTracesSampler        string  `json:"otel_traces_sampler" env:"OTEL_TRACES_SAMPLER,default=always_on"`
	OTelTracesSamplerArg     float64 `json:"otel_traces_sampler_arg" env:"OTEL_TRACES_SAMPLER_ARG,default=1.0"`
}

// ClusterConfig is everything needed to reach one cluster.
type ClusterConfig struct {
	Name            string
	Side            Side
	Backend         Backend
	Endpoint        string
	Username        string
	Password        string
	CACertPath      string
	CABaseDir       string
	Index           string
	AWSRegion       string
	InsecureSkipTLS bool
	RequestTimeout  time.Duration
	RateLimit       float64
	RateBurst       int
	MaxRetries      int
	RetryDelay      time.Duration
}
