package cmd

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ca-srg/ccrcheck/internal/cluster"
	appconfig "github.com/ca-srg/ccrcheck/internal/config"
	"github.com/ca-srg/ccrcheck/internal/logger"
	"github.com/ca-srg/ccrcheck/internal/report"
	"github.com/ca-srg/ccrcheck/internal/types"
)

// newClient is swapped in tests.
var newClient = cluster.New

func commandContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	if timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, time.Duration(timeout)*time.Second)
}

// querySide connects to one cluster, runs a single search and releases the
// connection before returning.
func querySide(ctx context.Context, side types.Side, label string, build func(*types.ClusterConfig) *cluster.SearchRequest) (report.Section, error) {
	cc, err := appconfig.Cluster(appCfg, side)
	if err != nil {
		return report.Section{}, err
	}

	client, err := newClient(ctx, cc)
	if err != nil {
		return report.Section{}, fmt.Errorf("%s: failed to create client: %w", cc.Name, err)
	}
	defer client.Close()

	req := build(cc)
	log := logger.L().With(zap.String("cluster", cc.Name), zap.Strings("indices", req.Indices))
	log.Info("querying cluster", zap.String("endpoint", cc.Endpoint), zap.String("backend", string(cc.Backend)))

	resp, err := client.Search(ctx, req)
	if err != nil {
		return report.Section{}, fmt.Errorf("%s: search failed: %w", cc.Name, err)
	}
	log.Info("query complete", zap.Int("hits", len(resp.Hits)), zap.Int("total", resp.TotalHits), zap.Int("took_ms", resp.Took))
	if resp.TimedOut {
		log.Warn("search timed out, results are partial", zap.Int("hits", len(resp.Hits)), zap.Int("total", resp.TotalHits))
	}

	return report.Section{
		Label:     label,
		Indices:   req.Indices,
		TotalHits: resp.TotalHits,
		TimedOut:  resp.TimedOut,
		Hits:      resp.Hits,
	}, nil
}
