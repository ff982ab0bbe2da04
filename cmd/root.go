package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	appconfig "github.com/ca-srg/ccrcheck/internal/config"
	"github.com/ca-srg/ccrcheck/internal/logger"
	"github.com/ca-srg/ccrcheck/internal/observability"
	"github.com/ca-srg/ccrcheck/internal/types"
)

var (
	outputJSON bool
	timeout    int

	appCfg            *types.Config
	shutdownTelemetry observability.ShutdownFunc
)

var rootCmd = &cobra.Command{
	Use:   "ccrcheck",
	Short: "Spot-check cross-cluster replication between two search clusters",
	Long: `ccrcheck queries the replicated index on the leader (West) and follower (East)
clusters over TLS and prints the documents of each, sorted by the configured
date field, so the two sides can be compared by eye.

Running ccrcheck without a subcommand performs the CCR check.

Configuration is read from the environment and an optional .env file.
See CCR_WEST_* / CCR_EAST_* for endpoints, credentials and CA files.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	RunE:              runCCR,
}

func Execute() error {
	defer finish()
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&outputJSON, "json", "j", false, "Output one JSON object per section (JSON lines)")
	rootCmd.PersistentFlags().IntVar(&timeout, "timeout", 60, "Overall timeout in seconds")

	rootCmd.AddCommand(ccrCmd)
	rootCmd.AddCommand(ccsCmd)
	rootCmd.AddCommand(healthCmd)
}

func setup(cmd *cobra.Command, args []string) error {
	cfg, err := appconfig.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	appCfg = cfg

	if _, err := logger.Init(cfg.LogLevel, cfg.LogFile); err != nil {
		return err
	}

	shutdown, err := observability.Init(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("failed to initialise telemetry: %w", err)
	}
	shutdownTelemetry = shutdown

	return nil
}

func finish() {
	if shutdownTelemetry != nil {
		if err := shutdownTelemetry(context.Background()); err != nil {
			logger.L().Warn("telemetry shutdown failed", zap.Error(err))
		}
		shutdownTelemetry = nil
	}
	logger.Sync()
}
