package discord

import (
	"fmt"
	"strings"
	"time"

	"github.com/NgigiN/smswallet/internal/analytics"
	"github.com/NgigiN/smswallet/internal/ingest"
	"github.com/NgigiN/smswallet/internal/storage"
	"github.com/shopspring/decimal"
)

// recentLimit is how many transactions a category summary lists.
const recentLimit = 10

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func percent(f float64) string {
	return fmt.Sprintf("%.0f%%", f*100)
}

func formatIngest(res ingest.Result) string {
	tx := res.Transaction
	switch res.Outcome {
	case ingest.Inserted:
		ref := tx.Ref()
		if ref == "" {
			ref = fmt.Sprintf("#%d", tx.ID)
		}
		return fmt.Sprintf("Tracked %s: %s %s %s in %s", ref, money(tx.Amount), directionWord(tx.Direction), tx.RecipientName, tx.Category)
	case ingest.Duplicate:
		return fmt.Sprintf("Already tracked %s", tx.Ref())
	default:
		return "No payment found in that message"
	}
}

func directionWord(d storage.Direction) string {
	if d == storage.DirectionReceived {
		return "from"
	}
	return "to"
}

func formatStatistics(stats analytics.Statistics) string {
	if stats.TransactionCount == 0 {
		return "No transactions found."
	}

	var sb strings.Builder
	sb.WriteString("📊 **Transaction Summary**\n\n")
	for _, c := range stats.CategorySummaries {
		fmt.Fprintf(&sb, "**%s**: %s (%d)\n", c.Category, money(c.TotalAmount), c.Count)
	}

	if len(stats.MonthlySummaries) > 0 {
		sb.WriteString("\n**By month**\n")
		for _, m := range stats.MonthlySummaries {
			fmt.Fprintf(&sb, "%s: sent %s, received %s\n", m.Label, money(m.SentAmount), money(m.ReceivedAmount))
		}
	}

	fmt.Fprintf(&sb, "\n**Sent**: %s\n**Received**: %s\n**Net**: %s",
		money(stats.TotalSent), money(stats.TotalReceived), money(stats.NetBalance))
	return sb.String()
}

func formatCategoryTransactions(category string, txs []storage.Transaction, loc *time.Location) string {
	if len(txs) == 0 {
		return fmt.Sprintf("No transactions found for category: %s", category)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📊 **%s Transactions**\n\n", category)

	limit := min(recentLimit, len(txs))
	total := decimal.Zero
	for _, tx := range txs {
		total = total.Add(tx.Amount)
	}
	for _, tx := range txs[:limit] {
		fmt.Fprintf(&sb, "• **%s** %s %s\n  %s", money(tx.Amount), directionWord(tx.Direction), tx.RecipientName,
			tx.Time(loc).Format("Jan 2, 2006 3:04 PM"))
		if tx.Notes != "" {
			fmt.Fprintf(&sb, " - %s", tx.Notes)
		}
		fmt.Fprintf(&sb, " [#%d]\n\n", tx.ID)
	}
	if len(txs) > limit {
		fmt.Fprintf(&sb, "... and %d more transactions\n\n", len(txs)-limit)
	}

	fmt.Fprintf(&sb, "**Total %s**: %s (%d transactions)", category, money(total), len(txs))
	return sb.String()
}

func budgetMarker(b analytics.BudgetWithSpending) string {
	switch {
	case b.IsOverBudget:
		return "🔴"
	case b.IsNearLimit:
		return "🟡"
	default:
		return "🟢"
	}
}

func formatBudgets(budgets []analytics.BudgetWithSpending) string {
	if len(budgets) == 0 {
		return "No active budgets. Set one with !budget <category> <limit> [monthly|weekly]"
	}

	var sb strings.Builder
	sb.WriteString("💰 **Budgets**\n\n")
	for _, b := range budgets {
		fmt.Fprintf(&sb, "%s **%s** (%s) [#%d]: %s / %s, %s used, %s left\n",
			budgetMarker(b), b.Budget.Category, strings.ToLower(string(b.Budget.Period)), b.Budget.ID,
			money(b.Spent), money(b.Budget.LimitAmount), percent(b.PercentageUsed), money(b.Remaining))
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

func formatTrends(t analytics.Trends) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📈 **Trends %s** (%s to %s)\n\n", t.Period, t.From.Format("Jan 2"), t.To.Format("Jan 2"))
	fmt.Fprintf(&sb, "**Spent**: %s (%+.1f%% vs previous)\n**Received**: %s\n",
		money(t.TotalSpent), t.SpendingChangePercent, money(t.TotalReceived))

	if len(t.Categories) > 0 {
		sb.WriteString("\n**Categories**\n")
		for _, c := range t.Categories {
			fmt.Fprintf(&sb, "%s: %s\n", c.Name, money(c.Amount))
		}
	}
	if len(t.TopMerchants) > 0 {
		sb.WriteString("\n**Top merchants**\n")
		for i, m := range t.TopMerchants {
			fmt.Fprintf(&sb, "%d. %s: %s (%d)\n", i+1, m.Name, money(m.Amount), m.Count)
		}
	}

	var busiest analytics.DailyPoint
	for _, p := range t.Daily {
		if p.Amount.GreaterThan(busiest.Amount) {
			busiest = p
		}
	}
	if busiest.Label != "" {
		fmt.Fprintf(&sb, "\n**Busiest day**: %s (%s)", busiest.Label, money(busiest.Amount))
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

const helpText = `**Commands**
!summary [category]: totals by category, or recent transactions in one
!budgets: budget usage for the current period
!budget <category> <limit> [monthly|weekly] [threshold]: set a budget
!unbudget <id>: deactivate a budget
!trends [7d|30d|90d|month|lastmonth]: spending trends
!add <amount> <recipient>: record a payment by hand (c:/r: lines allowed)
!learn <transaction id> <category>: recategorize and remember the recipient
!rule <keyword> <category>: add a categorization rule
!resetrules: restore the default rules

Paste a payment SMS to track it. Optional lines: s: sender, c: category, r: reason.`
