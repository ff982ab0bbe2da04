package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ca-srg/ccrcheck/internal/cluster"
	appconfig "github.com/ca-srg/ccrcheck/internal/config"
	"github.com/ca-srg/ccrcheck/internal/report"
	"github.com/ca-srg/ccrcheck/internal/types"
)

var ccsCmd = &cobra.Command{
	Use:   "ccs",
	Short: "Run a cross-cluster search through the West cluster",
	Long: `
Search the local and remote indices listed in CCS_INDICES through the West
cluster with a range query (CCS_RANGE_FIELD >= CCS_RANGE_GTE) and print the
matching documents. Remote indices use the remote_cluster:index form.
`,
	RunE: runCCS,
}

func init() {
	ccsCmd.Flags().IntVarP(&resultSize, "size", "n", 0, "Number of documents to fetch (defaults to CCR_RESULT_SIZE)")
}

func runCCS(cmd *cobra.Command, args []string) error {
	if len(appCfg.CCSIndices) == 0 {
		return fmt.Errorf("CCS_INDICES is empty")
	}

	ctx, cancel := commandContext(cmd.Context())
	defer cancel()

	size := appCfg.ResultSize
	if resultSize != 0 {
		size = appconfig.ClampSize(resultSize)
	}

	section, err := querySide(ctx, types.SideWest, "West CCS", func(*types.ClusterConfig) *cluster.SearchRequest {
		return &cluster.SearchRequest{
			Indices: appCfg.CCSIndices,
			Body:    cluster.RangeGTE(appCfg.CCSRangeField, rangeValue(appCfg.CCSRangeGTE), size),
		}
	})
	if err != nil {
		return err
	}

	return report.NewPrinter(cmd.OutOrStdout(), outputJSON).Section(section)
}

// rangeValue sends numeric bounds as JSON numbers and anything else (dates,
// date math) as strings.
func rangeValue(raw string) any {
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return raw
}
