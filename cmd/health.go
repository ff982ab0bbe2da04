package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	appconfig "github.com/ca-srg/ccrcheck/internal/config"
	"github.com/ca-srg/ccrcheck/internal/types"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that both clusters are reachable with the configured credentials",
	RunE:  runHealth,
}

func runHealth(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd.Context())
	defer cancel()

	var errs []error
	for _, side := range []types.Side{types.SideWest, types.SideEast} {
		cc, err := appconfig.Cluster(appCfg, side)
		if err != nil {
			return err
		}

		err = func() error {
			client, err := newClient(ctx, cc)
			if err != nil {
				return err
			}
			defer client.Close()
			return client.HealthCheck(ctx)
		}()

		if err != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s): FAILED: %v\n", cc.Name, cc.Endpoint, err)
			errs = append(errs, fmt.Errorf("%s: %w", cc.Name, err))
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s (%s): ok\n", cc.Name, cc.Endpoint)
	}

	return errors.Join(errs...)
}
