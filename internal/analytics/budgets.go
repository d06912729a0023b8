package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/NgigiN/smswallet/internal/storage"
	"github.com/shopspring/decimal"
)

// MaxBudgetUsage is the upper bound of PercentageUsed.
const MaxBudgetUsage = 2.0

type BudgetWithSpending struct {
	Budget         storage.Budget
	WindowStart    time.Time
	Spent          decimal.Decimal
	Remaining      decimal.Decimal
	PercentageUsed float64 // fraction of the limit, 1.0 == 100%
	IsOverBudget   bool
	IsNearLimit    bool
}

// Utilization derives the spending figures of one budget from its window spend.
func Utilization(b storage.Budget, spent decimal.Decimal) BudgetWithSpending {
	var used float64
	if b.LimitAmount.IsPositive() {
		used = spent.Div(b.LimitAmount).InexactFloat64()
	}
	used = min(max(used, 0), MaxBudgetUsage)

	remaining := b.LimitAmount.Sub(spent)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}

	return BudgetWithSpending{
		Budget:         b,
		Spent:          spent,
		Remaining:      remaining,
		PercentageUsed: used,
		IsOverBudget:   spent.GreaterThan(b.LimitAmount),
		IsNearLimit:    used >= b.AlertThreshold,
	}
}

// PeriodStart is the beginning of the current month or week at t.
func (e *Engine) PeriodStart(p storage.Period, t time.Time) time.Time {
	n := e.calendar.With(t.In(e.calendar.TimeLocation))
	if p == storage.PeriodWeekly {
		return n.BeginningOfWeek()
	}
	return n.BeginningOfMonth()
}

// BudgetsWithSpending reports every active budget against its current period. Spend is
// fetched with one aggregate query per period type.
func (e *Engine) BudgetsWithSpending(ctx context.Context) ([]BudgetWithSpending, error) {
	budgets, err := e.store.GetActiveBudgets(ctx)
	if err != nil {
		return nil, fmt.Errorf("load budgets: %w", err)
	}

	byPeriod := make(map[storage.Period][]string)
	for _, b := range budgets {
		byPeriod[b.Period] = append(byPeriod[b.Period], b.Category)
	}

	at := e.clock()
	spend := make(map[storage.Period]map[string]decimal.Decimal, len(byPeriod))
	for period, categories := range byPeriod {
		totals, err := e.store.SpendByCategory(ctx, e.PeriodStart(period, at), at, categories)
		if err != nil {
			return nil, fmt.Errorf("load %s spend: %w", period, err)
		}
		spend[period] = totals
	}

	out := make([]BudgetWithSpending, 0, len(budgets))
	for _, b := range budgets {
		u := Utilization(b, spend[b.Period][b.Category])
		u.WindowStart = e.PeriodStart(b.Period, at)
		out = append(out, u)
	}
	return out, nil
}
