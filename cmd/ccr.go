package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ca-srg/ccrcheck/internal/cluster"
	appconfig "github.com/ca-srg/ccrcheck/internal/config"
	"github.com/ca-srg/ccrcheck/internal/report"
	"github.com/ca-srg/ccrcheck/internal/types"
)

var (
	compareSides bool
	resultSize   int
	sortField    string
	sortOrder    string
)

var ccrCmd = &cobra.Command{
	Use:   "ccr",
	Short: "Print the replicated index from the leader and the follower",
	Long: `
Query the leader index (CCR_WEST_INDEX) on the West cluster, then the follower
index (CCR_EAST_INDEX) on the East cluster, each sorted by CCR_SORT_FIELD, and
print the documents of each under its own header.

Examples:
  # Same as running ccrcheck with no arguments
  ccrcheck ccr

  # Also report ids missing from or differing on the follower
  ccrcheck ccr --compare

  # Newest first, more documents
  ccrcheck ccr --sort-order desc --size 100
`,
	RunE: runCCR,
}

func init() {
	ccrCmd.Flags().BoolVar(&compareSides, "compare", false, "Compare leader and follower documents by id after printing")
	ccrCmd.Flags().IntVarP(&resultSize, "size", "n", 0, "Number of documents to fetch from each cluster (defaults to CCR_RESULT_SIZE)")
	ccrCmd.Flags().StringVar(&sortField, "sort-field", "", "Field to sort by (defaults to CCR_SORT_FIELD)")
	ccrCmd.Flags().StringVar(&sortOrder, "sort-order", "", "Sort order asc|desc (defaults to CCR_SORT_ORDER)")
}

func runCCR(cmd *cobra.Command, args []string) error {
	field, order, size, err := ccrQueryShape()
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(cmd.Context())
	defer cancel()

	printer := report.NewPrinter(cmd.OutOrStdout(), outputJSON)
	build := func(cc *types.ClusterConfig) *cluster.SearchRequest {
		return &cluster.SearchRequest{
			Indices: []string{cc.Index},
			Body:    cluster.SortedMatchAll(field, order, size),
		}
	}

	// West is queried and printed in full before East is contacted.
	west, err := querySide(ctx, types.SideWest, "West CCR", build)
	if err != nil {
		return err
	}
	if err := printer.Section(west); err != nil {
		return err
	}

	east, err := querySide(ctx, types.SideEast, "East CCR", build)
	if err != nil {
		return err
	}
	if err := printer.Section(east); err != nil {
		return err
	}

	if !compareSides {
		return nil
	}
	return printer.Comparison(report.Compare(west, east))
}

func ccrQueryShape() (field, order string, size int, err error) {
	field = appCfg.SortField
	if sortField != "" {
		field = sortField
	}

	order = appCfg.SortOrder
	if sortOrder != "" {
		order = sortOrder
	}
	if order != "asc" && order != "desc" {
		return "", "", 0, fmt.Errorf("invalid sort order: %s. Valid orders: asc, desc", order)
	}

	size = appCfg.ResultSize
	if resultSize != 0 {
		size = appconfig.ClampSize(resultSize)
	}

	return field, order, size, nil
}
