package cluster

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"go.uber.org/zap"

	"github.com/ca-srg/ccrcheck/internal/logger"
)

type elasticsearchClient struct {
	*base
	es *elasticsearch.Client
}

func newElasticsearchClient(b *base) (*elasticsearchClient, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{b.cfg.Endpoint},
		Username:  b.cfg.Username,
		Password:  b.cfg.Password,
		Transport: b.transport,
		// retries are handled by executeWithRetry
		DisableRetry: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}

	return &elasticsearchClient{base: b, es: es}, nil
}

func (c *elasticsearchClient) HealthCheck(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	res, err := c.es.Info(c.es.Info.WithContext(ctx))
	if err != nil {
		return errors.Join(ErrHealthcheckFailed, ClassifyConnectionError(err))
	}
	defer res.Body.Close()

	if res.IsError() {
		body, _ := readBody(res)
		return errors.Join(ErrHealthcheckFailed, ClassifyHTTPError(res.StatusCode, body))
	}

	logger.L().Debug("health check successful", zap.String("cluster", c.cfg.Name))
	return nil
}

func (c *elasticsearchClient) Search(ctx context.Context, req *SearchRequest) (*SearchResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	body, err := req.encode()
	if err != nil {
		return nil, err
	}

	started := time.Now()
	ctx, span := c.startSpan(ctx, req)
	defer span.End()

	var result *SearchResponse
	operation := func() error {
		res, err := c.es.Search(
			c.es.Search.WithContext(ctx),
			c.es.Search.WithIndex(req.Indices...),
			c.es.Search.WithBody(bytes.NewReader(body)),
		)
		if err != nil {
			return ClassifyConnectionError(err)
		}
		defer res.Body.Close()

		data, err := readBody(res)
		if err != nil {
			return ClassifyConnectionError(err)
		}

		if res.IsError() {
			return ClassifyHTTPError(res.StatusCode, data)
		}

		parsed, err := decodeSearchResponse([]byte(data))
		if err != nil {
			return err
		}
		result = parsed
		return nil
	}

	err = c.executeWithRetry(ctx, operation, "search")
	c.finish(ctx, span, result, err, started)
	if err != nil {
		return nil, err
	}

	return result, nil
}

func readBody(response *esapi.Response) (string, error) {
	if response.Body == nil {
		return "", fmt.Errorf("response body is nil")
	}

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return "", err
	}

	return string(body), nil
}

var _ Client = (*elasticsearchClient)(nil)
