package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/NgigiN/smswallet/internal/config"
	"github.com/NgigiN/smswallet/internal/logger"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "wallet",
		Short:         "Track payments from SMS notifications",
		Long:          `wallet reads payment SMS from a Discord channel or a phone backup, categorizes them and reports spending, budgets and trends.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			log := logger.New(cfg.LogLevel)
			ctx := logger.WithContext(cmd.Context(), log)
			cmd.SetContext(withConfig(ctx, cfg))
			return nil
		},
	}

	root.AddCommand(
		newBotCmd(),
		newImportCmd(),
		newStatsCmd(),
		newBudgetsCmd(),
		newTrendsCmd(),
	)
	return root
}

type configKey struct{}

func withConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

func configFrom(ctx context.Context) *config.Config {
	cfg, _ := ctx.Value(configKey{}).(*config.Config)
	return cfg
}
