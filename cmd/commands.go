package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/NgigiN/smswallet/internal/analytics"
	"github.com/NgigiN/smswallet/internal/discord"
	"github.com/NgigiN/smswallet/internal/ingest"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

func newBotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bot",
		Short: "Run the Discord bot that tracks pasted payment messages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			bot, err := discord.NewBot(a.cfg, a.services, a.log)
			if err != nil {
				return fmt.Errorf("failed to initialize the discord bot: %w", err)
			}
			if err := bot.Start(); err != nil {
				return fmt.Errorf("failed to start bot: %w", err)
			}

			a.log.Info().Str("health", a.cfg.HealthAddr).Msg("Bot is running...")
			<-ctx.Done()

			stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			bot.Stop(stopCtx)
			a.log.Info().Msg("Bot stopped.")
			return nil
		},
	}
}

func newImportCmd() *cobra.Command {
	var since time.Duration

	cmd := &cobra.Command{
		Use:   "import <file|gs://bucket/object>",
		Short: "Import an SMS backup (JSON lines or SMS Backup & Restore XML)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := ingest.OpenLocation(args[0])
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			task := a.importer.Start(cmd.Context(), src, ingest.ImportOptions{MaxAge: since})
			a.log.Info().Str("import_id", task.ID).Str("source", args[0]).Msg("import started")

			out := cmd.ErrOrStderr()
			for p := range task.Progress() {
				fmt.Fprintf(out, "\rprocessed %d/%d", p.Processed, p.Total)
			}
			fmt.Fprintln(out)

			res, err := task.Wait()
			if err != nil {
				return fmt.Errorf("import failed, nothing was saved: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "processed %d messages: %d payments, %d already tracked, %d saved\n",
				res.Processed, res.Parsed, res.Duplicates, res.Inserted)
			return nil
		},
	}
	cmd.Flags().DurationVar(&since, "since", 0, "only import messages newer than this (e.g. 720h); 0 imports everything")
	return cmd
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show totals by category and month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				stats, err := a.services.Engine.Statistics(ctx)
				if err != nil {
					return err
				}
				printStatistics(cmd.OutOrStdout(), stats)
				return nil
			})
		},
	}
}

func newBudgetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "budgets",
		Short: "Show budget usage for the current period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				budgets, err := a.services.Engine.BudgetsWithSpending(ctx)
				if err != nil {
					return err
				}
				printBudgets(cmd.OutOrStdout(), budgets)
				return nil
			})
		},
	}
}

func newTrendsCmd() *cobra.Command {
	var period string

	cmd := &cobra.Command{
		Use:   "trends",
		Short: "Show spending trends for a period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := analytics.ParseTrendPeriod(period)
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				trends, err := a.services.Engine.Trends(ctx, p)
				if err != nil {
					return err
				}
				printTrends(cmd.OutOrStdout(), trends)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&period, "period", "p", string(analytics.Last30Days), "7d, 30d, 90d, month or lastmonth")
	return cmd
}

func withApp(ctx context.Context, fn func(context.Context, *app) error) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func printStatistics(w io.Writer, stats analytics.Statistics) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintf(tw, "CATEGORY\tTOTAL\tSENT\tRECEIVED\tCOUNT\n")
	for _, c := range stats.CategorySummaries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", c.Category,
			c.TotalAmount.StringFixed(2), c.SentAmount.StringFixed(2), c.ReceivedAmount.StringFixed(2), c.Count)
	}
	fmt.Fprintf(tw, "\nMONTH\tSENT\tRECEIVED\tCOUNT\t\n")
	for _, m := range stats.MonthlySummaries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t\n", m.Label, m.SentAmount.StringFixed(2), m.ReceivedAmount.StringFixed(2), m.Count)
	}
	fmt.Fprintf(tw, "\nsent %s, received %s, net %s (%d transactions)\n",
		stats.TotalSent.StringFixed(2), stats.TotalReceived.StringFixed(2), stats.NetBalance.StringFixed(2), stats.TransactionCount)
}

func printBudgets(w io.Writer, budgets []analytics.BudgetWithSpending) {
	if len(budgets) == 0 {
		fmt.Fprintln(w, "no active budgets")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintf(tw, "ID\tCATEGORY\tPERIOD\tSPENT\tLIMIT\tUSED\tLEFT\tSTATUS\n")
	for _, b := range budgets {
		status := "ok"
		switch {
		case b.IsOverBudget:
			status = "over"
		case b.IsNearLimit:
			status = "near limit"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%.0f%%\t%s\t%s\n", b.Budget.ID, b.Budget.Category,
			strings.ToLower(string(b.Budget.Period)), b.Spent.StringFixed(2), b.Budget.LimitAmount.StringFixed(2),
			b.PercentageUsed*100, b.Remaining.StringFixed(2), status)
	}
}

func printTrends(w io.Writer, t analytics.Trends) {
	fmt.Fprintf(w, "%s to %s: spent %s (%+.1f%%), received %s\n\n",
		t.From.Format(time.DateOnly), t.To.Format(time.DateOnly),
		t.TotalSpent.StringFixed(2), t.SpendingChangePercent, t.TotalReceived.StringFixed(2))

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "DAY\tSPENT\n")
	for _, p := range t.Daily {
		fmt.Fprintf(tw, "%s\t%s\n", p.Label, p.Amount.StringFixed(2))
	}
	fmt.Fprintf(tw, "\nCATEGORY\tSPENT\n")
	for _, c := range t.Categories {
		fmt.Fprintf(tw, "%s\t%s\n", c.Name, c.Amount.StringFixed(2))
	}
	fmt.Fprintf(tw, "\nMERCHANT\tSPENT\n")
	for _, m := range t.TopMerchants {
		fmt.Fprintf(tw, "%s\t%s\n", m.Name, m.Amount.StringFixed(2))
	}
	tw.Flush()
}
