package cluster

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ca-srg/ccrcheck/internal/types"
)

var (
	// ErrCACertificate indicates the trusted CA bundle could not be loaded.
	ErrCACertificate = errors.New("cluster: CA certificate unavailable")

	// ErrUnsupportedBackend is returned by New for an unknown backend name.
	ErrUnsupportedBackend = errors.New("cluster: unsupported backend")

	// ErrHealthcheckFailed indicates the cluster is unreachable or unhealthy.
	ErrHealthcheckFailed = errors.New("cluster: healthcheck failed")
)

type SearchError struct {
	Type       types.ErrorType `json:"type"`
	Message    string          `json:"message"`
	StatusCode int             `json:"status_code,omitempty"`
	Retryable  bool            `json:"retryable"`
	RetryAfter time.Duration   `json:"retry_after,omitempty"`
	Suggestion string          `json:"suggestion,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
	Err        error           `json:"-"`
}

func (e *SearchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("[%s] %s (HTTP %d)", e.Type, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

func (e *SearchError) Unwrap() error {
	return e.Err
}

func (e *SearchError) IsRetryable() bool {
	return e.Retryable
}

func NewSearchError(errType types.ErrorType, message string) *SearchError {
	return &SearchError{
		Type:      errType,
		Message:   message,
		Retryable: false,
		Timestamp: time.Now(),
	}
}

func ClassifyHTTPError(statusCode int, body string) *SearchError {
	switch statusCode {
	case http.StatusUnauthorized:
		return &SearchError{
			Type:       types.ErrorTypeAuthentication,
			Message:    "authentication failed",
			StatusCode: statusCode,
			Suggestion: "check the username and password configured for this cluster",
			Timestamp:  time.Now(),
		}
	case http.StatusForbidden:
		return &SearchError{
			Type:       types.ErrorTypeAuthentication,
			Message:    "access denied",
			StatusCode: statusCode,
			Suggestion: "the user needs read privileges on the index",
			Timestamp:  time.Now(),
		}
	case http.StatusNotFound:
		return &SearchError{
			Type:       types.ErrorTypeNotFound,
			Message:    "index or endpoint not found",
			StatusCode: statusCode,
			Suggestion: "check the index name; a follower index only exists once replication has been started",
			Timestamp:  time.Now(),
		}
	case http.StatusRequestTimeout:
		return &SearchError{
			Type:       types.ErrorTypeNetworkTimeout,
			Message:    "request timed out",
			StatusCode: statusCode,
			Retryable:  true,
			RetryAfter: 5 * time.Second,
			Timestamp:  time.Now(),
		}
	case http.StatusTooManyRequests:
		return &SearchError{
			Type:       types.ErrorTypeRateLimit,
			Message:    "rate limited by cluster",
			StatusCode: statusCode,
			Retryable:  true,
			RetryAfter: 10 * time.Second,
			Suggestion: "lower CCR_RATE_LIMIT",
			Timestamp:  time.Now(),
		}
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable:
		return &SearchError{
			Type:       types.ErrorTypeNetworkTimeout,
			Message:    "cluster returned a server error",
			StatusCode: statusCode,
			Retryable:  true,
			RetryAfter: 10 * time.Second,
			Suggestion: "check cluster health",
			Timestamp:  time.Now(),
		}
	default:
		return &SearchError{
			Type:       types.ErrorTypeUnknown,
			Message:    fmt.Sprintf("unexpected HTTP error: %s", strings.TrimSpace(body)),
			StatusCode: statusCode,
			Retryable:  statusCode >= 500,
			RetryAfter: 5 * time.Second,
			Timestamp:  time.Now(),
		}
	}
}

func ClassifyConnectionError(err error) *SearchError {
	errMsg := err.Error()

	switch {
	case strings.Contains(errMsg, "x509") || strings.Contains(errMsg, "certificate"):
		return &SearchError{
			Type:       types.ErrorTypeTLS,
			Message:    fmt.Sprintf("TLS verification failed: %v", err),
			Suggestion: "check that the CA file matches the cluster's HTTP certificate",
			Timestamp:  time.Now(),
			Err:        err,
		}
	case strings.Contains(errMsg, "timeout") || strings.Contains(errMsg, "deadline exceeded"):
		return &SearchError{
			Type:       types.ErrorTypeNetworkTimeout,
			Message:    fmt.Sprintf("connection timed out: %v", err),
			Retryable:  true,
			RetryAfter: 5 * time.Second,
			Suggestion: "check network reachability of the endpoint",
			Timestamp:  time.Now(),
			Err:        err,
		}
	case strings.Contains(errMsg, "connection refused"):
		return &SearchError{
			Type:       types.ErrorTypeValidation,
			Message:    fmt.Sprintf("connection refused: %v", err),
			Suggestion: "check the endpoint IP and port",
			Timestamp:  time.Now(),
			Err:        err,
		}
	case strings.Contains(errMsg, "no such host"):
		return &SearchError{
			Type:       types.ErrorTypeValidation,
			Message:    fmt.Sprintf("host not found: %v", err),
			Suggestion: "check the endpoint host name",
			Timestamp:  time.Now(),
			Err:        err,
		}
	}

	return &SearchError{
		Type:       types.ErrorTypeUnknown,
		Message:    fmt.Sprintf("connection error: %v", err),
		Retryable:  true,
		RetryAfter: 10 * time.Second,
		Timestamp:  time.Now(),
		Err:        err,
	}
}
