package cluster

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ca-srg/ccrcheck/internal/logger"
	"github.com/ca-srg/ccrcheck/internal/types"
)

const instrumentationName = "github.com/ca-srg/ccrcheck/internal/cluster"

// Client is a connection to a single search cluster.
type Client interface {
	// Name is the human label of the cluster, e.g. "West".
	Name() string
	HealthCheck(ctx context.Context) error
	Search(ctx context.Context, req *SearchRequest) (*SearchResponse, error)
	// Close releases idle connections.
	Close()
}

// New creates a client for cfg using the configured backend.
func New(ctx context.Context, cfg *types.ClusterConfig) (Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}

	transport, err := NewTransport(cfg)
	if err != nil {
		return nil, err
	}

	b := newBase(cfg, transport)

	switch cfg.Backend {
	case types.BackendElasticsearch, "":
		return newElasticsearchClient(b)
	case types.BackendOpenSearch:
		return newOpenSearchClient(ctx, b)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedBackend, cfg.Backend)
	}
}

// base carries what both backends share: rate limiting, retries and telemetry.
type base struct {
	cfg       *types.ClusterConfig
	transport *http.Transport
	limiter   *rate.Limiter
	tracer    trace.Tracer
	requests  metric.Int64Counter
}

func newBase(cfg *types.ClusterConfig, transport *http.Transport) *base {
	rateLimit := cfg.RateLimit
	if rateLimit <= 0 {
		rateLimit = 10.0
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 20
	}

	b := &base{
		cfg:       cfg,
		transport: transport,
		limiter:   rate.NewLimiter(rate.Limit(rateLimit), burst),
		tracer:    otel.Tracer(instrumentationName),
	}

	counter, err := otel.Meter(instrumentationName).Int64Counter(
		"ccrcheck.search.requests",
		metric.WithDescription("Search requests sent to a cluster, by outcome"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		logger.L().Warn("failed to create search counter", zap.Error(err))
	} else {
		b.requests = counter
	}

	return b
}

func (b *base) Name() string {
	return b.cfg.Name
}

func (b *base) Close() {
	if b.transport != nil {
		b.transport.CloseIdleConnections()
	}
}

func (b *base) startSpan(ctx context.Context, req *SearchRequest) (context.Context, trace.Span) {
	return b.tracer.Start(ctx, "cluster.search", trace.WithAttributes(
		attribute.String("ccrcheck.cluster", b.cfg.Name),
		attribute.String("ccrcheck.backend", string(b.cfg.Backend)),
		attribute.String("ccrcheck.indices", strings.Join(req.Indices, ",")),
	))
}

func (b *base) finish(ctx context.Context, span trace.Span, resp *SearchResponse, err error, started time.Time) {
	outcome := "success"
	if err != nil {
		outcome = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else if resp != nil {
		span.SetAttributes(attribute.Int("ccrcheck.hits", len(resp.Hits)))
	}

	if b.requests != nil {
		b.requests.Add(ctx, 1, metric.WithAttributes(
			attribute.String("cluster", b.cfg.Name),
			attribute.String("outcome", outcome),
		))
	}

	logger.L().Debug("search finished",
		zap.String("cluster", b.cfg.Name),
		zap.String("outcome", outcome),
		zap.Duration("elapsed", time.Since(started)),
	)
}

// RetryableOperation defines a function that can be retried
type RetryableOperation func() error

// executeWithRetry runs operation, retrying retryable failures with
// exponential backoff up to cfg.MaxRetries extra attempts.
func (b *base) executeWithRetry(ctx context.Context, operation RetryableOperation, operationName string) error {
	log := logger.L().With(zap.String("cluster", b.cfg.Name), zap.String("operation", operationName))
	maxRetries := b.cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(math.Pow(2, float64(attempt-1))) * b.cfg.RetryDelay
			log.Info("retrying", zap.Duration("delay", delay), zap.Int("attempt", attempt), zap.Int("max_retries", maxRetries))

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		if err := b.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}

		err := operation()
		if err == nil {
			if attempt > 0 {
				log.Info("succeeded after retries", zap.Int("retries", attempt))
			}
			return nil
		}
		lastErr = err

		var searchErr *SearchError
		if errors.As(err, &searchErr) && !searchErr.IsRetryable() {
			return err
		}
		log.Warn("attempt failed", zap.Int("attempt", attempt+1), zap.Error(err))
	}

	if maxRetries == 0 {
		return lastErr
	}
	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries+1, lastErr)
}
