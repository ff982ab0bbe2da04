package cmd

import (
	"bytes"
	"encoding/json"
	"encoding/pem"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ca-srg/ccrcheck/internal/cluster"
)

type fakeDoc struct {
	ID     string
	Source map[string]any
}

type fakeRequest struct {
	Path string
	Body []byte
}

// fakeCluster is a TLS endpoint answering _search with a fixed set of
// documents and / or _cluster/health with a healthy status.
type fakeCluster struct {
	server   *httptest.Server
	caPath   string
	index    string
	docs     []fakeDoc
	timedOut bool
	onSearch func()

	mu       sync.Mutex
	requests []fakeRequest
}

func newFakeCluster(t *testing.T, index string, docs ...fakeDoc) *fakeCluster {
	t.Helper()

	fc := &fakeCluster{index: index, docs: docs}
	fc.server = httptest.NewTLSServer(http.HandlerFunc(fc.handle))
	t.Cleanup(fc.server.Close)

	block := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: fc.server.Certificate().Raw})
	fc.caPath = filepath.Join(t.TempDir(), index+"-ca.crt")
	require.NoError(t, os.WriteFile(fc.caPath, block, 0o600))

	return fc
}

func (fc *fakeCluster) handle(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	_ = r.Body.Close()

	fc.mu.Lock()
	fc.requests = append(fc.requests, fakeRequest{Path: r.URL.Path, Body: body})
	onSearch := fc.onSearch
	fc.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Elastic-Product", "Elasticsearch")

	if user, pass, ok := r.BasicAuth(); !ok || user != "elastic" || pass != "elastic" {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"unauthorized","status":401}`))
		return
	}

	if !strings.HasSuffix(r.URL.Path, "/_search") {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"cluster_name": fc.index,
			"status":       "green",
			"version":      map[string]any{"number": "8.15.0"},
		})
		return
	}

	if onSearch != nil {
		onSearch()
	}

	hits := make([]map[string]any, 0, len(fc.docs))
	for _, doc := range fc.docs {
		hits = append(hits, map[string]any{
			"_index":  fc.index,
			"_id":     doc.ID,
			"_score":  nil,
			"_source": doc.Source,
		})
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"took":      1,
		"timed_out": fc.timedOut,
		"hits": map[string]any{
			"total": map[string]any{"value": len(hits), "relation": "eq"},
			"hits":  hits,
		},
	})
}

func (fc *fakeCluster) Requests() []fakeRequest {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	out := make([]fakeRequest, len(fc.requests))
	copy(out, fc.requests)
	return out
}

// useClusters points the West/East configuration at the fake clusters.
func useClusters(t *testing.T, west, east *fakeCluster) {
	t.Helper()

	t.Setenv("CCR_WEST_ENDPOINT", west.server.URL)
	t.Setenv("CCR_WEST_CA_CERT", west.caPath)
	t.Setenv("CCR_WEST_INDEX", west.index)
	t.Setenv("CCR_EAST_ENDPOINT", east.server.URL)
	t.Setenv("CCR_EAST_CA_CERT", east.caPath)
	t.Setenv("CCR_EAST_INDEX", east.index)
	t.Setenv("CCRCHECK_LOG_LEVEL", "error")
	t.Setenv("OTEL_ENABLED", "false")
}

func resetCommandState() {
	outputJSON = false
	timeout = 60
	compareSides = false
	resultSize = 0
	sortField = ""
	sortOrder = ""
	appCfg = nil
	newClient = cluster.New
	rootCmd.SetOut(nil)
	rootCmd.SetArgs(nil)
}

// runCommand executes the root command with args. A nil out leaves output on
// os.Stdout for captureOutput.
func runCommand(t *testing.T, out io.Writer, args ...string) error {
	t.Helper()
	resetCommandState()
	t.Cleanup(resetCommandState)

	if out != nil {
		rootCmd.SetOut(out)
	}
	// a nil slice makes cobra fall back to os.Args
	if args == nil {
		args = []string{}
	}
	rootCmd.SetArgs(args)
	return Execute()
}

// syncBuffer lets a fake cluster handler read output written by the command.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
