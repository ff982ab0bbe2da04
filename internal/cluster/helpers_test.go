package cluster

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/json"
	"encoding/pem"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ca-srg/ccrcheck/internal/types"
)

type capturedRequest struct {
	Method        string
	Path          string
	Body          []byte
	Username      string
	Password      string
	Authorization string
}

type fakeCluster struct {
	server *httptest.Server
	caPath string

	mu       sync.Mutex
	requests []capturedRequest
}

// newFakeCluster starts a TLS server that speaks enough of the search API for
// both backends. Its certificate is written out as the CA file to trust.
func newFakeCluster(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) *fakeCluster {
	t.Helper()

	fc := &fakeCluster{}
	fc.server = httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = r.Body.Close()
		user, pass, _ := r.BasicAuth()

		fc.mu.Lock()
		fc.requests = append(fc.requests, capturedRequest{
			Method:        r.Method,
			Path:          r.URL.Path,
			Body:          body,
			Username:      user,
			Password:      pass,
			Authorization: r.Header.Get("Authorization"),
		})
		fc.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		handler(w, r)
	}))
	t.Cleanup(fc.server.Close)

	block := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: fc.server.Certificate().Raw})
	fc.caPath = filepath.Join(t.TempDir(), "http-ca.crt")
	require.NoError(t, os.WriteFile(fc.caPath, block, 0o600))

	return fc
}

func (fc *fakeCluster) Requests() []capturedRequest {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	out := make([]capturedRequest, len(fc.requests))
	copy(out, fc.requests)
	return out
}

func (fc *fakeCluster) config(backend types.Backend) *types.ClusterConfig {
	return &types.ClusterConfig{
		Name:           "West",
		Side:           types.SideWest,
		Backend:        backend,
		Endpoint:       fc.server.URL,
		Username:       "elastic",
		Password:       "elastic",
		CACertPath:     fc.caPath,
		Index:          "west_ccr",
		RequestTimeout: 5 * time.Second,
		RateLimit:      1000,
		RateBurst:      1000,
		MaxRetries:     0,
		RetryDelay:     10 * time.Millisecond,
	}
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("encode response: %v", err)
	}
}

func movieSearchResponse() map[string]any {
	return map[string]any{
		"took":      3,
		"timed_out": false,
		"_shards": map[string]int{
			"total":      1,
			"successful": 1,
			"skipped":    0,
			"failed":     0,
		},
		"hits": map[string]any{
			"total":     map[string]any{"value": 2, "relation": "eq"},
			"max_score": nil,
			"hits": []map[string]any{
				{
					"_index":  "west_ccr",
					"_id":     "1",
					"_score":  nil,
					"_source": map[string]any{"title": "Back to the Future", "release_date": 1985},
					"sort":    []any{1985},
				},
				{
					"_index":  "west_ccr",
					"_id":     "2",
					"_score":  nil,
					"_source": map[string]any{"title": "Groundhog Day", "release_date": 1993},
					"sort":    []any{1993},
				},
			},
		},
	}
}

// writeUnrelatedCA writes a freshly generated self-signed CA that did not sign
// the httptest certificate.
func writeUnrelatedCA(t *testing.T) string {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	template := &x509.Certificate{
		SerialNumber:          big.NewInt(42),
		Subject:               pkix.Name{CommonName: "unrelated-ca"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		IsCA:                  true,
		BasicConstraintsValid: true,
		KeyUsage:              x509.KeyUsageCertSign,
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "unrelated-ca.crt")
	require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}), 0o600))
	return path
}
