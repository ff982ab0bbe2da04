package cluster

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/ca-srg/ccrcheck/internal/types"
)

// ResolveCAPath returns path unchanged when absolute, otherwise joined to baseDir.
// An empty baseDir leaves relative paths relative to the working directory.
func ResolveCAPath(path, baseDir string) string {
	if path == "" || filepath.IsAbs(path) || baseDir == "" {
		return path
	}
	return filepath.Join(baseDir, path)
}

// LoadCAPool reads a PEM encoded certificate authority bundle.
func LoadCAPool(path, baseDir string) (*x509.CertPool, error) {
	if path == "" {
		return nil, errors.Join(ErrCACertificate, fmt.Errorf("no CA certificate path configured"))
	}

	resolved := ResolveCAPath(path, baseDir)
	pem, err := os.ReadFile(resolved)
	if err != nil {
		return nil, errors.Join(ErrCACertificate, fmt.Errorf("read %s: %w", resolved, err))
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, errors.Join(ErrCACertificate, fmt.Errorf("%s contains no PEM certificates", resolved))
	}

	return pool, nil
}

// NewTransport builds the HTTP transport used by both backends. The CA file is
// loaded eagerly so a bad path fails before any request is sent.
func NewTransport(cfg *types.ClusterConfig) (*http.Transport, error) {
	tlsConfig := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: cfg.InsecureSkipTLS,
	}

	if !cfg.InsecureSkipTLS {
		pool, err := LoadCAPool(cfg.CACertPath, cfg.CABaseDir)
		if err != nil {
			return nil, err
		}
		tlsConfig.RootCAs = pool
	}

	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		TLSClientConfig:       tlsConfig,
		MaxIdleConns:          4,
		MaxIdleConnsPerHost:   2,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: cfg.RequestTimeout,
	}, nil
}
