package cluster

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	opensearch "github.com/opensearch-project/opensearch-go/v4"
	"github.com/opensearch-project/opensearch-go/v4/opensearchapi"
	requestsigner "github.com/opensearch-project/opensearch-go/v4/signer/awsv2"
	"go.uber.org/zap"

	"github.com/ca-srg/ccrcheck/internal/logger"
	"github.com/ca-srg/ccrcheck/internal/types"
)

type openSearchClient struct {
	*base
	client *opensearchapi.Client
}

func newOpenSearchClient(ctx context.Context, b *base) (*openSearchClient, error) {
	osConfig := opensearch.Config{
		Addresses:    []string{b.cfg.Endpoint},
		Transport:    b.transport,
		DisableRetry: true,
	}

	// Basic auth wins; SigV4 is only used for managed domains without a user.
	if b.cfg.Username == "" && b.cfg.AWSRegion != "" {
		awsConfig, err := config.LoadDefaultConfig(ctx, config.WithRegion(b.cfg.AWSRegion))
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}

		signer, err := requestsigner.NewSignerWithService(awsConfig, "es")
		if err != nil {
			return nil, fmt.Errorf("failed to create AWS signer: %w", err)
		}
		osConfig.Signer = signer
	} else {
		osConfig.Username = b.cfg.Username
		osConfig.Password = b.cfg.Password
	}

	client, err := opensearchapi.NewClient(opensearchapi.Config{Client: osConfig})
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenSearch client: %w", err)
	}

	return &openSearchClient{base: b, client: client}, nil
}

func (c *openSearchClient) HealthCheck(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	resp, err := c.client.Cluster.Health(ctx, &opensearchapi.ClusterHealthReq{})
	if err != nil {
		status := 0
		if resp != nil {
			status = inspectStatus(resp.Inspect())
		}
		if status >= 400 {
			return errors.Join(ErrHealthcheckFailed, ClassifyHTTPError(status, err.Error()))
		}
		return errors.Join(ErrHealthcheckFailed, ClassifyConnectionError(err))
	}

	logger.L().Debug("health check successful", zap.String("cluster", c.cfg.Name))
	return nil
}

func (c *openSearchClient) Search(ctx context.Context, req *SearchRequest) (*SearchResponse, error) {
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
		searchResp, err := c.client.Search(ctx, &opensearchapi.SearchReq{
			Indices: req.Indices,
			Body:    bytes.NewReader(body),
		})
		if err != nil {
			status := 0
			if searchResp != nil {
				status = inspectStatus(searchResp.Inspect())
			}
			if status >= 400 {
				return ClassifyHTTPError(status, err.Error())
			}
			return ClassifyConnectionError(err)
		}

		if searchResp == nil {
			return NewSearchError(types.ErrorTypeResponse, "received nil response from OpenSearch")
		}

		converted := &SearchResponse{
			Took:      searchResp.Took,
			TimedOut:  searchResp.Timeout,
			TotalHits: searchResp.Hits.Total.Value,
			Hits:      make([]Hit, len(searchResp.Hits.Hits)),
		}
		for i, hit := range searchResp.Hits.Hits {
			converted.Hits[i] = Hit{
				Index:  hit.Index,
				ID:     hit.ID,
				Score:  float64(hit.Score),
				Source: hit.Source,
				Sort:   hit.Sort,
			}
		}

		result = converted
		return nil
	}

	err = c.executeWithRetry(ctx, operation, "search")
	c.finish(ctx, span, result, err, started)
	if err != nil {
		return nil, err
	}

	return result, nil
}

// inspectStatus extracts the HTTP status from a response that came back
// alongside an error, or 0 when no response was received.
func inspectStatus(inspect opensearchapi.Inspect) int {
	if inspect.Response == nil {
		return 0
	}
	return inspect.Response.StatusCode
}

var _ Client = (*openSearchClient)(nil)
