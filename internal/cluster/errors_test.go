package cluster

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ca-srg/ccrcheck/internal/types"
)

func TestClassifyHTTPError(t *testing.T) {
	t.Parallel()

	testcases := []struct {
		status    int
		wantType  types.ErrorType
		retryable bool
	}{
		{http.StatusUnauthorized, types.ErrorTypeAuthentication, false},
		{http.StatusForbidden, types.ErrorTypeAuthentication, false},
		{http.StatusNotFound, types.ErrorTypeNotFound, false},
		{http.StatusRequestTimeout, types.ErrorTypeNetworkTimeout, true},
		{http.StatusTooManyRequests, types.ErrorTypeRateLimit, true},
		{http.StatusServiceUnavailable, types.ErrorTypeNetworkTimeout, true},
		{http.StatusBadRequest, types.ErrorTypeUnknown, false},
		{http.StatusGatewayTimeout, types.ErrorTypeUnknown, true},
	}

	for _, tc := range testcases {
		err := ClassifyHTTPError(tc.status, "body")
		assert.Equal(t, tc.wantType, err.Type, "status %d", tc.status)
		assert.Equal(t, tc.retryable, err.IsRetryable(), "status %d", tc.status)
		assert.Equal(t, tc.status, err.StatusCode)
		assert.Contains(t, err.Error(), "HTTP")
	}
}

func TestClassifyConnectionError(t *testing.T) {
	t.Parallel()

	cause := errors.New("tls: failed to verify certificate: x509: certificate signed by unknown authority")
	err := ClassifyConnectionError(cause)
	assert.Equal(t, types.ErrorTypeTLS, err.Type)
	assert.False(t, err.IsRetryable())
	assert.ErrorIs(t, err, cause)

	assert.Equal(t, types.ErrorTypeNetworkTimeout, ClassifyConnectionError(errors.New("i/o timeout")).Type)
	assert.Equal(t, types.ErrorTypeValidation, ClassifyConnectionError(errors.New("dial tcp: connection refused")).Type)
	assert.Equal(t, types.ErrorTypeValidation, ClassifyConnectionError(errors.New("lookup west: no such host")).Type)
	assert.True(t, ClassifyConnectionError(errors.New("EOF")).IsRetryable())
}
